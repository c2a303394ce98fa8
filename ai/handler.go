package ai

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"stayguide-backend/blocks"
	"stayguide-backend/plans"
)

// Generator matches the orchestrator surface the handler uses; mocked in tests.
type Generator interface {
	SuggestPlaces(ctx context.Context, city string) ([]blocks.Place, error)
	SuggestEvents(ctx context.Context, city string) ([]blocks.Event, error)
	TipOfDay(ctx context.Context, city, lang, weather string) (blocks.TipData, error)
	ChatReply(ctx context.Context, history []Message, guideContext string) (string, error)
}

// SubsReader resolves the caller's active subscription for feature gating.
type SubsReader interface {
	GetActiveSubscription(userID int) (*plans.Subscription, error)
}

// Translator serves the translate endpoint; in production it is the memoizing
// cache sitting in front of the orchestrator.
type Translator interface {
	Translate(ctx context.Context, text, targetLang string) (string, error)
}

// GuideContextSource resolves a shared guide slug into chat context text built
// server-side, so stored content like the house manual reaches the chat
// without a round trip through the client.
type GuideContextSource interface {
	ChatContext(slug, unlockToken string) (ctx string, found bool, err error)
}

type Handler struct {
	gen        Generator
	translator Translator
	guides     GuideContextSource
	subs       SubsReader
	auth       func(c *gin.Context) (int, bool)
}

func NewHandler(gen Generator, translator Translator, guides GuideContextSource, subs SubsReader, auth func(c *gin.Context) (int, bool)) *Handler {
	return &Handler{gen: gen, translator: translator, guides: guides, subs: subs, auth: auth}
}

func (h *Handler) RegisterRoutes(r *gin.Engine) {
	r.POST("/ai/places", h.places)
	r.POST("/ai/events", h.events)
	r.POST("/ai/tip", h.tip)
	r.POST("/ai/chat", h.chat)
	r.POST("/ai/translate", h.translate)
}

// requireFeature resolves the caller and checks a plan feature before any
// provider call. Gating lives here, never inside the orchestrator.
func (h *Handler) requireFeature(c *gin.Context, feature string) bool {
	userID, ok := h.auth(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return false
	}
	sub, err := h.subs.GetActiveSubscription(userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "subscription lookup failed"})
		return false
	}
	if feature != "" && !plans.CanUseFeature(sub, feature) {
		log.Printf("[quota][deny] user_id=%d feature=%s", userID, feature)
		c.JSON(http.StatusForbidden, gin.H{
			"error":          "your plan does not include AI suggestions",
			"quota_exceeded": true,
		})
		return false
	}
	return true
}

func (h *Handler) places(c *gin.Context) {
	if !h.requireFeature(c, plans.FeatureAITips) {
		return
	}
	var req struct {
		City      string `json:"city"`
		BlockType string `json:"blockType"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.City) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "city required"})
		return
	}
	out, err := h.gen.SuggestPlaces(c.Request.Context(), req.City)
	if err != nil {
		log.Printf("[ai][places] city=%q err=%v", req.City, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "generation failed"})
		return
	}
	c.JSON(http.StatusOK, out)
}

func (h *Handler) events(c *gin.Context) {
	if !h.requireFeature(c, plans.FeatureAITips) {
		return
	}
	var req struct {
		City      string `json:"city"`
		BlockType string `json:"blockType"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.City) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "city required"})
		return
	}
	out, err := h.gen.SuggestEvents(c.Request.Context(), req.City)
	if err != nil {
		log.Printf("[ai][events] city=%q err=%v", req.City, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "generation failed"})
		return
	}
	c.JSON(http.StatusOK, out)
}

func (h *Handler) tip(c *gin.Context) {
	if !h.requireFeature(c, plans.FeatureAITips) {
		return
	}
	var req struct {
		City    string `json:"city"`
		Lang    string `json:"lang"`
		Weather string `json:"weather"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.City) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "city required"})
		return
	}
	out, err := h.gen.TipOfDay(c.Request.Context(), req.City, req.Lang, req.Weather)
	if err != nil {
		log.Printf("[ai][tip] city=%q err=%v", req.City, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "generation failed"})
		return
	}
	c.JSON(http.StatusOK, out)
}

func (h *Handler) chat(c *gin.Context) {
	if !h.requireFeature(c, "") {
		return
	}
	var req struct {
		Messages     []Message `json:"messages"`
		GuideContext string    `json:"guideContext"`
		GuideSlug    string    `json:"guideSlug"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || len(req.Messages) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "messages required"})
		return
	}
	guideContext := req.GuideContext
	if req.GuideSlug != "" && h.guides != nil {
		snap, found, err := h.guides.ChatContext(req.GuideSlug, c.GetHeader("X-Unlock-Token"))
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "guide lookup failed"})
			return
		}
		if !found {
			c.JSON(http.StatusNotFound, gin.H{"error": "guide not found"})
			return
		}
		guideContext = snap
	}
	reply, err := h.gen.ChatReply(c.Request.Context(), req.Messages, guideContext)
	if err != nil {
		log.Printf("[ai][chat] err=%v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "generation failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"reply": reply})
}

func (h *Handler) translate(c *gin.Context) {
	if !h.requireFeature(c, "") {
		return
	}
	var req struct {
		Text       string `json:"text"`
		TargetLang string `json:"targetLang"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.Text == "" || req.TargetLang == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "text and targetLang required"})
		return
	}
	out, err := h.translator.Translate(c.Request.Context(), req.Text, req.TargetLang)
	if err != nil {
		if errors.Is(err, ErrTextTooLong) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "text too long"})
			return
		}
		log.Printf("[ai][translate] err=%v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "translation failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"translatedText": out})
}
