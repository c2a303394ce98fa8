package ai

import (
	"context"
	"errors"
	"log"
	"strings"

	"stayguide-backend/blocks"
)

// Orchestrator builds per-kind prompts, calls the provider and parses the
// response into typed payloads. It performs no quota or feature gating; the
// caller checks the subscription policy first.
type Orchestrator struct {
	ai Completer
}

func NewOrchestrator(ai Completer) *Orchestrator {
	return &Orchestrator{ai: ai}
}

// Per-kind provider bounds. Creative kinds run warmer; translation is pinned
// to deterministic output.
const (
	placesMaxTokens    = 700
	eventsMaxTokens    = 700
	tipMaxTokens       = 250
	chatMaxTokens      = 400
	translateMaxTokens = 800

	placesTemperature    = 0.6
	eventsTemperature    = 0.6
	tipTemperature       = 0.9
	chatTemperature      = 0.3
	translateTemperature = 0.0
)

// MaxTranslateChars bounds free-text translation input to cap cost and abuse.
const MaxTranslateChars = 5000

// chatHistoryTurns bounds the conversation context sent upstream.
const chatHistoryTurns = 12

var ErrTextTooLong = errors.New("text exceeds translation limit")

// SuggestPlaces asks for exactly three point-of-interest suggestions for a
// city. Malformed output degrades to an empty list.
func (o *Orchestrator) SuggestPlaces(ctx context.Context, city string) ([]blocks.Place, error) {
	system := strings.Join([]string{
		"You are a local travel expert.",
		"Respond with a JSON array only, no markdown, no prose.",
		`Each element: {"name": string, "description": string, "address": string, "url": string}.`,
		"Return exactly 3 elements. All fields non-empty; url may be an empty string if unknown.",
	}, " ")
	prompt := "Suggest 3 interesting places to visit in " + strings.TrimSpace(city) + " for a traveler staying there."
	raw, err := o.ai.Complete(ctx, system, []Message{{Role: "user", Content: prompt}}, placesMaxTokens, placesTemperature)
	if err != nil {
		return nil, err
	}
	var out []blocks.Place
	if !DecodeOr(raw, &out) {
		log.Printf("[ai][fallback] kind=places city=%q unparseable output", city)
		return []blocks.Place{}, nil
	}
	if len(out) > 3 {
		out = out[:3]
	}
	return out, nil
}

// SuggestEvents asks for upcoming local events. Malformed output degrades to
// an empty list.
func (o *Orchestrator) SuggestEvents(ctx context.Context, city string) ([]blocks.Event, error) {
	system := strings.Join([]string{
		"You are a local events guide.",
		"Respond with a JSON array only, no markdown, no prose.",
		`Each element: {"title": string, "description": string, "location": string, "month": string, "day": string, "time": string}.`,
		"Return 3 elements for recurring or seasonal events a visitor could attend.",
	}, " ")
	prompt := "List events happening in " + strings.TrimSpace(city) + " that a visitor could attend."
	raw, err := o.ai.Complete(ctx, system, []Message{{Role: "user", Content: prompt}}, eventsMaxTokens, eventsTemperature)
	if err != nil {
		return nil, err
	}
	var out []blocks.Event
	if !DecodeOr(raw, &out) {
		log.Printf("[ai][fallback] kind=events city=%q unparseable output", city)
		return []blocks.Event{}, nil
	}
	return out, nil
}

// TipOfDay produces a short local tip in the requested language, weather-aware.
// Malformed output degrades to an empty tip object.
func (o *Orchestrator) TipOfDay(ctx context.Context, city, lang, weather string) (blocks.TipData, error) {
	system := strings.Join([]string{
		"You write one short, friendly local tip of the day for a traveler.",
		"Respond with a single JSON object only, no markdown:",
		`{"title": string, "text": string, "icon": string}.`,
		"icon is a single emoji. Keep text under 60 words.",
		"Language of title and text: " + langOrDefault(lang) + ".",
	}, " ")
	prompt := "City: " + strings.TrimSpace(city) + ". Current weather: " + strings.TrimSpace(weather) + "."
	raw, err := o.ai.Complete(ctx, system, []Message{{Role: "user", Content: prompt}}, tipMaxTokens, tipTemperature)
	if err != nil {
		return blocks.TipData{}, err
	}
	var out blocks.TipData
	if !DecodeOr(raw, &out) {
		log.Printf("[ai][fallback] kind=tip city=%q unparseable output", city)
		return blocks.TipData{}, nil
	}
	return out, nil
}

// ChatReply answers a traveler question strictly from the supplied guide
// snapshot. History beyond the last turns is dropped before sending.
func (o *Orchestrator) ChatReply(ctx context.Context, history []Message, guideContext string) (string, error) {
	if len(history) > chatHistoryTurns {
		history = history[len(history)-chatHistoryTurns:]
	}
	system := strings.Join([]string{
		"You are the assistant for one stay guide.",
		"Answer ONLY with information contained in the guide content below.",
		"If the requested information is not in the guide, politely say you don't have that information and suggest contacting the host.",
		"Respond with a single JSON object only: {\"reply\": string}. No markdown.",
		"Guide content:",
		guideContext,
	}, "\n")
	raw, err := o.ai.Complete(ctx, system, history, chatMaxTokens, chatTemperature)
	if err != nil {
		return "", err
	}
	var out struct {
		Reply string `json:"reply"`
	}
	if !DecodeOr(raw, &out) || out.Reply == "" {
		// Model ignored the shape; use its raw text rather than failing.
		return strings.TrimSpace(raw), nil
	}
	return out.Reply, nil
}

// TranslateText translates free text into targetLang. Inputs above the char
// ceiling are rejected before any provider call. The bool reports whether the
// result is a real translation: on unparseable provider output the input text
// comes back with false so callers don't memoize the passthrough.
func (o *Orchestrator) TranslateText(ctx context.Context, text, targetLang string) (string, bool, error) {
	if len(text) > MaxTranslateChars {
		return "", false, ErrTextTooLong
	}
	system := strings.Join([]string{
		"You are a translation engine.",
		"Translate the user's text into " + langOrDefault(targetLang) + ".",
		"Respond with a single JSON object only: {\"translatedText\": string}. No markdown, no commentary.",
		"Preserve line breaks and placeholders.",
	}, " ")
	raw, err := o.ai.Complete(ctx, system, []Message{{Role: "user", Content: text}}, translateMaxTokens, translateTemperature)
	if err != nil {
		return "", false, err
	}
	var out struct {
		TranslatedText string `json:"translatedText"`
	}
	if !DecodeOr(raw, &out) || out.TranslatedText == "" {
		log.Printf("[ai][fallback] kind=translate lang=%q unparseable output", targetLang)
		return text, false, nil
	}
	return out.TranslatedText, true, nil
}

func langOrDefault(lang string) string {
	lang = strings.TrimSpace(lang)
	if lang == "" {
		return "en"
	}
	return lang
}
