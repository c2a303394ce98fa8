package plans

import (
	"database/sql"
	"encoding/json"
	"time"
)

type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// EnsureDefaultPlans upserts the catalog into subscription_plans so billing
// metadata (Stripe ids) has a row to live on.
func (r *Repository) EnsureDefaultPlans() error {
	for _, p := range Catalog() {
		_, err := r.db.Exec(`INSERT INTO subscription_plans (id, name, currency, price) VALUES (?,?,?,?)
			ON DUPLICATE KEY UPDATE name=VALUES(name), currency=VALUES(currency), price=VALUES(price)`,
			p.ID, p.Name, p.Currency, p.Price)
		if err != nil {
			return err
		}
	}
	return nil
}

// PlanStripeIDs reads stored Stripe product/price ids for a plan ("" when unset).
func (r *Repository) PlanStripeIDs(planID string) (productID, priceID string, err error) {
	row := r.db.QueryRow(`SELECT stripe_product_id, stripe_price_id FROM subscription_plans WHERE id=? LIMIT 1`, planID)
	if err := row.Scan(&productID, &priceID); err != nil {
		if err == sql.ErrNoRows {
			return "", "", nil
		}
		return "", "", err
	}
	return productID, priceID, nil
}

func (r *Repository) SavePlanStripeIDs(planID, productID, priceID string) error {
	_, err := r.db.Exec(`UPDATE subscription_plans SET stripe_product_id=?, stripe_price_id=? WHERE id=?`, productID, priceID, planID)
	return err
}

// GetActiveSubscription returns the newest active subscription for a user, or
// nil when none exists (callers fall back to the unprovisioned plan).
func (r *Repository) GetActiveSubscription(userID int) (*Subscription, error) {
	row := r.db.QueryRow(`SELECT id, user_id, plan_id, status, current_period_end, addons FROM subscriptions
		WHERE user_id=? AND status='active' ORDER BY id DESC LIMIT 1`, userID)
	var s Subscription
	var periodEnd sql.NullTime
	var addonsJSON []byte
	if err := row.Scan(&s.ID, &s.UserID, &s.PlanID, &s.Status, &periodEnd, &addonsJSON); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	if periodEnd.Valid {
		t := periodEnd.Time
		s.CurrentPeriodEnd = &t
	}
	if len(addonsJSON) > 0 {
		_ = json.Unmarshal(addonsJSON, &s.Addons)
	}
	plan := PlanByID(s.PlanID)
	s.Plan = &plan
	return &s, nil
}

func (r *Repository) CreateSubscription(s *Subscription) error {
	if s.Status == "" {
		s.Status = "active"
	}
	addonsJSON, err := json.Marshal(s.Addons)
	if err != nil {
		return err
	}
	var periodEnd any
	if s.CurrentPeriodEnd != nil {
		periodEnd = *s.CurrentPeriodEnd
	}
	res, err := r.db.Exec(`INSERT INTO subscriptions (user_id, plan_id, status, current_period_end, addons, created_at) VALUES (?,?,?,?,?,?)`,
		s.UserID, s.PlanID, s.Status, periodEnd, addonsJSON, time.Now())
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	s.ID = int(id)
	return nil
}

func (r *Repository) CancelSubscription(id int) error {
	_, err := r.db.Exec(`UPDATE subscriptions SET status='canceled' WHERE id=?`, id)
	return err
}
