package guides

import (
	"errors"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"stayguide-backend/blocks"
	"stayguide-backend/files"
	"stayguide-backend/plans"
)

type SubsReader interface {
	GetActiveSubscription(userID int) (*plans.Subscription, error)
}

type Handler struct {
	store Store
	subs  SubsReader
	auth  func(c *gin.Context) (int, bool)
}

func NewHandler(store Store, subs SubsReader, auth func(c *gin.Context) (int, bool)) *Handler {
	return &Handler{store: store, subs: subs, auth: auth}
}

func (h *Handler) RegisterRoutes(r *gin.Engine) {
	r.POST("/guides", h.createGuide)
	r.PUT("/guides/:id", h.updateGuide)
	r.GET("/guides/:id", h.builderView)
	r.POST("/guides/:id/reorder", h.reorderBlocks)
	r.POST("/guides/:id/publish", h.setPublished)
	r.POST("/guides/:id/manual", h.uploadManual)

	// Traveler-facing routes, keyed by slug.
	r.GET("/g/:slug", h.travelerView)
	r.POST("/g/:slug/unlock", h.unlock)
}

type guideInput struct {
	Slug     string         `json:"slug"`
	Title    string         `json:"title"`
	Theme    Theme          `json:"theme"`
	Blocks   []blocks.Block `json:"blocks"`
	CityHint string         `json:"city_hint"`
}

func (h *Handler) ownedGuide(c *gin.Context) (*Guide, int, bool) {
	userID, ok := h.auth(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return nil, 0, false
	}
	g, err := h.store.GetByID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "guide lookup failed"})
		return nil, 0, false
	}
	if g == nil || g.OwnerID != userID {
		// Not distinguishing "absent" from "not yours".
		c.JSON(http.StatusNotFound, gin.H{"error": "guide not found"})
		return nil, 0, false
	}
	return g, userID, true
}

// checkBlockBudget enforces the per-guide block quota against the plan.
func checkBlockBudget(sub *plans.Subscription, count int) bool {
	if count == 0 {
		return true
	}
	return plans.CheckLimit(sub, plans.ResourceBlocks, count-1)
}

func (h *Handler) createGuide(c *gin.Context) {
	userID, ok := h.auth(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	var in guideInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body"})
		return
	}
	sub, err := h.subs.GetActiveSubscription(userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "subscription lookup failed"})
		return
	}
	count, err := h.store.CountByOwner(userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "guide lookup failed"})
		return
	}
	// Read-then-act: a concurrent create by the same user may briefly exceed
	// the limit. Accepted.
	if !plans.CheckLimit(sub, plans.ResourceGuides, count) {
		log.Printf("[quota][deny] user_id=%d resource=guides count=%d", userID, count)
		c.JSON(http.StatusForbidden, gin.H{
			"error":          "guide limit reached for your plan",
			"quota_exceeded": true,
		})
		return
	}
	if !checkBlockBudget(sub, len(in.Blocks)) {
		c.JSON(http.StatusForbidden, gin.H{
			"error":          "block limit reached for your plan",
			"quota_exceeded": true,
		})
		return
	}
	g := &Guide{
		ID:       uuid.NewString(),
		Slug:     in.Slug,
		Title:    in.Title,
		Theme:    in.Theme,
		Blocks:   in.Blocks,
		OwnerID:  userID,
		CityHint: in.CityHint,
	}
	if g.Slug == "" {
		g.Slug = slugify(g.Title) + "-" + g.ID[:8]
	}
	assignBlockIDs(g.Blocks)
	if err := g.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.store.Create(g); err != nil {
		log.Printf("[guides][create] user_id=%d err=%v", userID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "save failed"})
		return
	}
	c.JSON(http.StatusCreated, g)
}

func (h *Handler) updateGuide(c *gin.Context) {
	g, userID, ok := h.ownedGuide(c)
	if !ok {
		return
	}
	var in guideInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body"})
		return
	}
	sub, err := h.subs.GetActiveSubscription(userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "subscription lookup failed"})
		return
	}
	if !checkBlockBudget(sub, len(in.Blocks)) {
		log.Printf("[quota][deny] user_id=%d resource=blocks count=%d", userID, len(in.Blocks))
		c.JSON(http.StatusForbidden, gin.H{
			"error":          "block limit reached for your plan",
			"quota_exceeded": true,
		})
		return
	}
	g.Title = in.Title
	if in.Slug != "" {
		g.Slug = in.Slug
	}
	g.Theme = in.Theme
	g.Blocks = in.Blocks
	g.CityHint = in.CityHint
	assignBlockIDs(g.Blocks)
	if err := g.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.store.Update(g); err != nil {
		log.Printf("[guides][update] id=%s err=%v", g.ID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "save failed"})
		return
	}
	c.JSON(http.StatusOK, g)
}

func (h *Handler) builderView(c *gin.Context) {
	g, _, ok := h.ownedGuide(c)
	if !ok {
		return
	}
	view := blocks.RenderBlocks(blocks.RenderContext{Mode: blocks.ModeBuilder}, g.Blocks)
	c.JSON(http.StatusOK, gin.H{
		"id":        g.ID,
		"slug":      g.Slug,
		"title":     g.Title,
		"theme":     g.Theme,
		"published": g.Published,
		"city_hint": g.CityHint,
		"blocks":    view,
	})
}

func (h *Handler) travelerView(c *gin.Context) {
	g, err := h.store.GetBySlug(c.Param("slug"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "guide lookup failed"})
		return
	}
	if g == nil || !g.Published {
		c.JSON(http.StatusNotFound, gin.H{"error": "guide not found"})
		return
	}
	token := c.GetHeader("X-Unlock-Token")
	if token == "" {
		token = c.Query("unlock_token")
	}
	unlocked := token != "" && VerifyUnlockToken(token, g.ID)
	view := blocks.RenderBlocks(blocks.RenderContext{Mode: blocks.ModeTraveler, Unlocked: unlocked}, g.Blocks)
	c.JSON(http.StatusOK, gin.H{
		"slug":          g.Slug,
		"title":         g.Title,
		"theme":         g.Theme,
		"blocks":        view,
		"requires_code": ResolveUnlockCode(g) != "",
		"unlocked":      unlocked,
	})
}

func (h *Handler) unlock(c *gin.Context) {
	g, err := h.store.GetBySlug(c.Param("slug"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "guide lookup failed"})
		return
	}
	if g == nil || !g.Published {
		c.JSON(http.StatusNotFound, gin.H{"error": "guide not found"})
		return
	}
	var body struct {
		Code string `json:"code"`
	}
	if err := c.ShouldBindJSON(&body); err != nil || body.Code == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "code required"})
		return
	}
	if err := AttemptUnlock(g, body.Code); err != nil {
		if errors.Is(err, ErrNotGated) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "guide has no unlock code"})
			return
		}
		c.JSON(http.StatusForbidden, gin.H{"error": "incorrect code"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"unlocked":     true,
		"unlock_token": SignUnlockToken(g.ID),
	})
}

func (h *Handler) reorderBlocks(c *gin.Context) {
	g, _, ok := h.ownedGuide(c)
	if !ok {
		return
	}
	var body struct {
		BlockIDs []string `json:"block_ids"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body"})
		return
	}
	reordered, err := reorder(g.Blocks, body.BlockIDs)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	g.Blocks = reordered
	if err := h.store.Update(g); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "save failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *Handler) setPublished(c *gin.Context) {
	g, _, ok := h.ownedGuide(c)
	if !ok {
		return
	}
	var body struct {
		Published bool `json:"published"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body"})
		return
	}
	g.Published = body.Published
	if err := h.store.Update(g); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "save failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "published": g.Published})
}

// uploadManual stores the text of an uploaded house-manual PDF on the guide so
// the AI chat can answer from it. Gated on the media_uploads feature.
func (h *Handler) uploadManual(c *gin.Context) {
	g, userID, ok := h.ownedGuide(c)
	if !ok {
		return
	}
	sub, err := h.subs.GetActiveSubscription(userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "subscription lookup failed"})
		return
	}
	if !plans.CanUseFeature(sub, plans.FeatureMediaUploads) {
		c.JSON(http.StatusForbidden, gin.H{
			"error":          "your plan does not include media uploads",
			"quota_exceeded": true,
		})
		return
	}
	upload, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file required"})
		return
	}
	tmp := filepath.Join(os.TempDir(), uuid.NewString()+".pdf")
	if err := c.SaveUploadedFile(upload, tmp); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "upload failed"})
		return
	}
	defer os.Remove(tmp)
	text, err := files.ExtractPDFText(tmp, 0)
	if err != nil {
		log.Printf("[guides][manual] id=%s err=%v", g.ID, err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "could not read pdf"})
		return
	}
	g.ManualText = text
	if err := h.store.Update(g); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "save failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "chars": len(text)})
}

// --- Helpers --- //

func assignBlockIDs(bs []blocks.Block) {
	for i := range bs {
		if bs[i].ID == "" {
			bs[i].ID = uuid.NewString()
		}
	}
}

// reorder applies a permutation of block ids. ids must reference every
// existing block exactly once.
func reorder(bs []blocks.Block, ids []string) ([]blocks.Block, error) {
	if len(ids) != len(bs) {
		return nil, errors.New("block_ids must list every block")
	}
	byID := map[string]blocks.Block{}
	for _, b := range bs {
		byID[b.ID] = b
	}
	out := make([]blocks.Block, 0, len(bs))
	seen := map[string]bool{}
	for _, id := range ids {
		b, ok := byID[id]
		if !ok || seen[id] {
			return nil, errors.New("block_ids must be a permutation of existing block ids")
		}
		seen[id] = true
		out = append(out, b)
	}
	return out, nil
}

func slugify(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	var sb strings.Builder
	lastDash := true
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			sb.WriteRune(r)
			lastDash = false
		default:
			if !lastDash {
				sb.WriteByte('-')
				lastDash = true
			}
		}
	}
	return strings.Trim(sb.String(), "-")
}
