package plans

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
)

// SubsStore is the subscription persistence surface the handler needs.
type SubsStore interface {
	GetActiveSubscription(userID int) (*Subscription, error)
	CreateSubscription(s *Subscription) error
	CancelSubscription(id int) error
}

type Handler struct {
	subs   SubsStore
	stripe *StripeService
	// auth resolves the calling user id from the request; injected so tests
	// don't need a live identity store.
	auth func(c *gin.Context) (int, bool)
}

func NewHandler(subs SubsStore, stripe *StripeService, auth func(c *gin.Context) (int, bool)) *Handler {
	return &Handler{subs: subs, stripe: stripe, auth: auth}
}

func (h *Handler) RegisterRoutes(r *gin.Engine) {
	r.GET("/plans", h.getPlans)
	r.GET("/subscription", h.getSubscription)
	r.POST("/checkout", h.checkout)
	r.POST("/cancel-subscription", h.cancelSubscription)
	r.POST("/stripe/webhook", h.stripeWebhook)
}

func (h *Handler) getPlans(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"data": Catalog()})
}

func (h *Handler) getSubscription(c *gin.Context) {
	userID, ok := h.auth(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	sub, err := h.subs.GetActiveSubscription(userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "subscription lookup failed"})
		return
	}
	if sub == nil {
		plan := PlanByID(PlanUnprovisioned)
		c.JSON(http.StatusOK, gin.H{"data": gin.H{
			"plan_id":           PlanUnprovisioned,
			"status":            "unprovisioned",
			"subscription_plan": plan,
		}})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": sub})
}

func (h *Handler) checkout(c *gin.Context) {
	userID, ok := h.auth(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	var body struct {
		PlanID string `json:"plan_id"`
	}
	if err := c.ShouldBindJSON(&body); err != nil || body.PlanID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "plan_id required"})
		return
	}
	plan := PlanByID(body.PlanID)
	if plan.ID == PlanUnprovisioned {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown plan"})
		return
	}
	// Free plans never touch the billing provider.
	if plan.Price == 0 {
		sub := &Subscription{UserID: userID, PlanID: plan.ID}
		if err := h.subs.CreateSubscription(sub); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "subscription failed"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "subscribed", "plan_id": plan.ID})
		return
	}
	if h.stripe == nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "billing not configured"})
		return
	}
	url, err := h.stripe.CreateCheckoutSession(c.Request.Context(), userID, plan.ID)
	if err != nil {
		log.Printf("[plans][checkout] user_id=%d plan=%s err=%v", userID, plan.ID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "checkout failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"checkout_url": url})
}

func (h *Handler) cancelSubscription(c *gin.Context) {
	userID, ok := h.auth(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	var body struct {
		SubscriptionID int `json:"subscription_id"`
	}
	if err := c.ShouldBindJSON(&body); err != nil || body.SubscriptionID == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "subscription_id required"})
		return
	}
	sub, err := h.subs.GetActiveSubscription(userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "subscription lookup failed"})
		return
	}
	if sub == nil || sub.ID != body.SubscriptionID {
		c.JSON(http.StatusNotFound, gin.H{"error": "subscription not found"})
		return
	}
	if err := h.subs.CancelSubscription(body.SubscriptionID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "cancel failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *Handler) stripeWebhook(c *gin.Context) {
	if h.stripe == nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "billing not configured"})
		return
	}
	if err := h.stripe.HandleWebhook(c.Writer, c.Request); err != nil {
		log.Printf("[stripe][webhook] err=%v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "webhook failed"})
	}
}
