package plans

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	stripe "github.com/stripe/stripe-go/v78"
	"github.com/stripe/stripe-go/v78/client"
	"github.com/stripe/stripe-go/v78/webhook"
)

// stripeRepo is the persistence surface the service needs; *Repository
// satisfies it in production.
type stripeRepo interface {
	PlanStripeIDs(planID string) (productID, priceID string, err error)
	SavePlanStripeIDs(planID, productID, priceID string) error
	CreateSubscription(s *Subscription) error
}

// StripeService creates checkout sessions and turns completed checkouts into
// subscription rows. When STRIPE_SECRET_KEY is unset the service is nil and
// every billing endpoint reports itself unconfigured.
type StripeService struct {
	repo          stripeRepo
	secretKey     string
	webhookSecret string
	successURL    string
	cancelURL     string
	sc            *client.API
	invalidKey    bool // once detected, short-circuit further remote calls
}

var ErrStripeInvalidAPIKey = errors.New("stripe_invalid_api_key")

func maskKey(k string) string {
	if len(k) < 12 {
		return "****"
	}
	return k[:7] + "..." + k[len(k)-4:]
}

// NewStripeFromEnv returns a configured service or nil when env vars are missing.
func NewStripeFromEnv(repo *Repository) *StripeService {
	key := os.Getenv("STRIPE_SECRET_KEY")
	if key == "" {
		return nil
	}
	success := os.Getenv("STRIPE_SUCCESS_URL")
	if success == "" {
		success = "https://example.com/checkout/success"
	}
	cancel := os.Getenv("STRIPE_CANCEL_URL")
	if cancel == "" {
		cancel = "https://example.com/checkout/cancel"
	}
	sc := &client.API{}
	sc.Init(key, nil)
	return &StripeService{
		repo:          repo,
		secretKey:     key,
		webhookSecret: os.Getenv("STRIPE_WEBHOOK_SECRET"),
		successURL:    success,
		cancelURL:     cancel,
		sc:            sc,
	}
}

func (s *StripeService) ensureProductAndPrice(ctx context.Context, plan Plan) (string, error) {
	if plan.Price == 0 {
		return "", nil
	}
	productID, priceID, err := s.repo.PlanStripeIDs(plan.ID)
	if err != nil {
		return "", err
	}
	if productID == "" {
		prod, err := s.sc.Products.New(&stripe.ProductParams{Name: stripe.String(plan.Name)})
		if err != nil {
			return "", err
		}
		productID = prod.ID
	}
	if priceID != "" {
		if pr, err := s.sc.Prices.Get(priceID, nil); err == nil {
			if pr.UnitAmount != int64(plan.Price*100) {
				priceID = "" // amount changed; create a new price, keep old for invoices
			}
		} else {
			priceID = ""
		}
	}
	if priceID == "" {
		price, err := s.sc.Prices.New(&stripe.PriceParams{
			Product:    stripe.String(productID),
			Currency:   stripe.String(strings.ToLower(plan.Currency)),
			UnitAmount: stripe.Int64(int64(plan.Price * 100)),
			Recurring:  &stripe.PriceRecurringParams{Interval: stripe.String("month")},
		})
		if err != nil {
			return "", err
		}
		priceID = price.ID
	}
	if err := s.repo.SavePlanStripeIDs(plan.ID, productID, priceID); err != nil {
		return "", err
	}
	return priceID, nil
}

func (s *StripeService) classify(err error, where string) error {
	var se *stripe.Error
	if errors.As(err, &se) && (se.HTTPStatusCode == 401 || strings.Contains(strings.ToLower(se.Msg), "invalid api key")) {
		log.Printf("[stripe][%s] invalid api key (%s): %v", where, maskKey(s.secretKey), se)
		s.invalidKey = true
		return ErrStripeInvalidAPIKey
	}
	log.Printf("[stripe][%s] error: %v", where, err)
	return err
}

// CreateCheckoutSession builds a Stripe Checkout session for a paid plan; free
// plans subscribe immediately and return the success URL.
func (s *StripeService) CreateCheckoutSession(ctx context.Context, userID int, planID string) (string, error) {
	if s == nil {
		return "", errors.New("stripe not configured")
	}
	if s.invalidKey {
		return "", ErrStripeInvalidAPIKey
	}
	plan := PlanByID(planID)
	if plan.ID == PlanUnprovisioned {
		return "", fmt.Errorf("invalid plan")
	}
	if plan.Price == 0 {
		sub := &Subscription{UserID: userID, PlanID: plan.ID}
		if err := s.repo.CreateSubscription(sub); err != nil {
			return "", err
		}
		return s.successURL, nil
	}
	priceID, err := s.ensureProductAndPrice(ctx, plan)
	if err != nil {
		return "", s.classify(err, "ensure")
	}
	params := &stripe.CheckoutSessionParams{
		SuccessURL: stripe.String(s.successURL),
		CancelURL:  stripe.String(s.cancelURL),
		Mode:       stripe.String(string(stripe.CheckoutSessionModeSubscription)),
		LineItems: []*stripe.CheckoutSessionLineItemParams{{
			Price:    stripe.String(priceID),
			Quantity: stripe.Int64(1),
		}},
		Metadata: map[string]string{
			"user_id": strconv.Itoa(userID),
			"plan_id": plan.ID,
		},
	}
	sess, err := s.sc.CheckoutSessions.New(params)
	if err != nil {
		return "", s.classify(err, "checkout")
	}
	return sess.URL, nil
}

// HandleWebhook consumes Stripe webhook payloads. A completed checkout session
// becomes an active subscription for the user/plan carried in its metadata.
func (s *StripeService) HandleWebhook(w http.ResponseWriter, r *http.Request) error {
	if s == nil {
		return errors.New("stripe not configured")
	}
	payload, err := io.ReadAll(r.Body)
	if err != nil {
		return err
	}
	sig := r.Header.Get("Stripe-Signature")
	if s.webhookSecret != "" {
		if _, err := webhook.ConstructEvent(payload, sig, s.webhookSecret); err != nil {
			return fmt.Errorf("invalid signature: %w", err)
		}
	}
	var event struct {
		Type string `json:"type"`
		Data struct {
			Object struct {
				Metadata map[string]string `json:"metadata"`
			} `json:"object"`
		} `json:"data"`
	}
	if err := json.Unmarshal(payload, &event); err != nil {
		return err
	}
	if event.Type != "checkout.session.completed" {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ignored"))
		return nil
	}
	uid, _ := strconv.Atoi(event.Data.Object.Metadata["user_id"])
	planID := event.Data.Object.Metadata["plan_id"]
	if uid == 0 || planID == "" {
		return fmt.Errorf("incomplete metadata")
	}
	periodEnd := time.Now().AddDate(0, 1, 0)
	sub := &Subscription{UserID: uid, PlanID: planID, CurrentPeriodEnd: &periodEnd}
	if err := s.repo.CreateSubscription(sub); err != nil {
		return err
	}
	log.Printf("[stripe][webhook] subscription created user_id=%d plan=%s", uid, planID)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
	return nil
}
