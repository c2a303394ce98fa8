package guides

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"stayguide-backend/blocks"
)

type Theme struct {
	ThemeID string `json:"theme_id"`
}

// Guide is the shareable document a traveler views. Blocks keep their array
// order everywhere: it is the display order.
type Guide struct {
	ID         string         `json:"id"`
	Slug       string         `json:"slug"`
	Title      string         `json:"title"`
	Theme      Theme          `json:"theme"`
	Blocks     []blocks.Block `json:"blocks"`
	OwnerID    int            `json:"owner_id"`
	Published  bool           `json:"published"`
	CityHint   string         `json:"city_hint,omitempty"`
	ManualText string         `json:"-"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
}

// Validate checks the document invariants: non-empty title, unique block ids,
// valid visibility modes, and registered payloads that match their schema.
// Unrecognized block types are tolerated for forward compatibility.
func (g *Guide) Validate() error {
	if strings.TrimSpace(g.Title) == "" {
		return errors.New("title is required")
	}
	seen := map[string]bool{}
	for i, b := range g.Blocks {
		if b.ID == "" {
			return fmt.Errorf("block %d: missing id", i)
		}
		if seen[b.ID] {
			return fmt.Errorf("block %d: duplicate id %q", i, b.ID)
		}
		seen[b.ID] = true
		switch b.Visibility.Mode {
		case blocks.ModeAlways:
		case blocks.ModeWithCode:
			if strings.TrimSpace(b.Visibility.UnlockCode) == "" {
				return fmt.Errorf("block %q: with_code visibility requires an unlock code", b.ID)
			}
		default:
			return fmt.Errorf("block %q: unknown visibility mode %q", b.ID, b.Visibility.Mode)
		}
		if entry, ok := blocks.Lookup(b.Type); ok {
			if err := entry.Validate(b.Data); err != nil {
				return fmt.Errorf("block %q: %w", b.ID, err)
			}
		}
	}
	return nil
}

// ResolveUnlockCode returns the code gating this guide: the unlock code of the
// first with_code block in array order, or "" when no block is gated. A guide
// with several coded blocks is governed by that single first code.
func ResolveUnlockCode(g *Guide) string {
	for _, b := range g.Blocks {
		if b.Visibility.Mode == blocks.ModeWithCode {
			return b.Visibility.UnlockCode
		}
	}
	return ""
}

var ErrWrongCode = errors.New("incorrect code")
var ErrNotGated = errors.New("guide has no unlock code")

// AttemptUnlock verifies a submitted code against the guide's resolved code.
// The submitted value is trimmed; the comparison itself is exact and
// case-sensitive. Attempts are not throttled.
func AttemptUnlock(g *Guide, submitted string) error {
	code := ResolveUnlockCode(g)
	if code == "" {
		return ErrNotGated
	}
	if strings.TrimSpace(submitted) != code {
		return ErrWrongCode
	}
	return nil
}

// Snapshot flattens a guide's content into plain text for use as AI chat
// context. With unlocked false, gated blocks render as locked placeholders and
// the house manual is withheld; with unlocked true the manual text is appended
// when present.
func Snapshot(g *Guide, unlocked bool) string {
	var sb strings.Builder
	sb.WriteString("Guide: " + g.Title + "\n")
	views := blocks.RenderBlocks(blocks.RenderContext{Mode: blocks.ModeTraveler, Unlocked: unlocked}, g.Blocks)
	for _, v := range views {
		title, _ := v["title"].(string)
		sb.WriteString(fmt.Sprintf("- [%v] %s: %v\n", v["type"], title, v["data"]))
	}
	if unlocked && g.ManualText != "" {
		sb.WriteString("House manual:\n" + g.ManualText + "\n")
	}
	return sb.String()
}
