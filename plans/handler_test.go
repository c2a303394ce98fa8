package plans

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
)

type fakeSubs struct {
	active  *Subscription
	created []*Subscription
}

func (f *fakeSubs) GetActiveSubscription(userID int) (*Subscription, error) { return f.active, nil }
func (f *fakeSubs) CreateSubscription(s *Subscription) error {
	s.ID = len(f.created) + 1
	f.created = append(f.created, s)
	return nil
}
func (f *fakeSubs) CancelSubscription(id int) error {
	if f.active != nil && f.active.ID == id {
		f.active.Status = "canceled"
	}
	return nil
}

func router(h *Handler) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	h.RegisterRoutes(r)
	return r
}

func authOK(c *gin.Context) (int, bool) { return 42, true }
func authNo(c *gin.Context) (int, bool) { return 0, false }

func post(t *testing.T, r *gin.Engine, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	b, _ := json.Marshal(body)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(b))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestGetPlansLists(t *testing.T) {
	r := router(NewHandler(&fakeSubs{}, nil, authOK))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/plans", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var out struct {
		Data []Plan `json:"data"`
	}
	_ = json.Unmarshal(w.Body.Bytes(), &out)
	if len(out.Data) != 3 {
		t.Fatalf("expected 3 purchasable plans, got %d", len(out.Data))
	}
	for _, p := range out.Data {
		if p.ID == PlanUnprovisioned {
			t.Error("unprovisioned plan must not be purchasable")
		}
	}
}

func TestGetSubscriptionUnprovisioned(t *testing.T) {
	r := router(NewHandler(&fakeSubs{}, nil, authOK))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/subscription", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if !strings.Contains(w.Body.String(), `"status":"unprovisioned"`) {
		t.Errorf("missing profile must surface as the named unprovisioned state: %s", w.Body.String())
	}
}

func TestGetSubscriptionUnauthorized(t *testing.T) {
	r := router(NewHandler(&fakeSubs{}, nil, authNo))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/subscription", nil))
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}
}

func TestCheckoutFreePlanSkipsBilling(t *testing.T) {
	subs := &fakeSubs{}
	r := router(NewHandler(subs, nil, authOK))
	w := post(t, r, "/checkout", map[string]any{"plan_id": "free"})
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if len(subs.created) != 1 || subs.created[0].PlanID != "free" {
		t.Fatalf("free checkout should create a subscription directly: %+v", subs.created)
	}
}

func TestCheckoutUnknownPlan(t *testing.T) {
	r := router(NewHandler(&fakeSubs{}, nil, authOK))
	w := post(t, r, "/checkout", map[string]any{"plan_id": "platinum"})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}

func TestCheckoutPaidPlanWithoutStripe(t *testing.T) {
	r := router(NewHandler(&fakeSubs{}, nil, authOK))
	w := post(t, r, "/checkout", map[string]any{"plan_id": "plus"})
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500 when billing unconfigured, got %d", w.Code)
	}
}

func TestCancelSubscription(t *testing.T) {
	subs := &fakeSubs{active: &Subscription{ID: 5, UserID: 42, PlanID: "plus", Status: "active"}}
	r := router(NewHandler(subs, nil, authOK))
	w := post(t, r, "/cancel-subscription", map[string]any{"subscription_id": 5})
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if subs.active.Status != "canceled" {
		t.Fatal("subscription not canceled")
	}
}

func TestCancelForeignSubscriptionIs404(t *testing.T) {
	subs := &fakeSubs{active: &Subscription{ID: 5, UserID: 42, PlanID: "plus", Status: "active"}}
	r := router(NewHandler(subs, nil, authOK))
	w := post(t, r, "/cancel-subscription", map[string]any{"subscription_id": 6})
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
}
