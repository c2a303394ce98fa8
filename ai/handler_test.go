package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"stayguide-backend/blocks"
	"stayguide-backend/plans"
)

type mockGen struct{}

func (mockGen) SuggestPlaces(ctx context.Context, city string) ([]blocks.Place, error) {
	return []blocks.Place{
		{Name: "Belém Tower", Description: "Riverside fortress", Address: "Av. Brasília"},
		{Name: "Alfama", Description: "Old town", Address: "Alfama, Lisboa"},
		{Name: "LX Factory", Description: "Creative hub", Address: "R. Rodrigues de Faria 103"},
	}, nil
}
func (mockGen) SuggestEvents(ctx context.Context, city string) ([]blocks.Event, error) {
	return []blocks.Event{{Title: "Fado night", Description: "Live music", Location: "Alfama", Month: "June", Day: "12", Time: "21:00"}}, nil
}
func (mockGen) TipOfDay(ctx context.Context, city, lang, weather string) (blocks.TipData, error) {
	return blocks.TipData{Title: "Tram 28", Text: "Ride it early.", Icon: "🚋"}, nil
}
func (mockGen) ChatReply(ctx context.Context, history []Message, guideContext string) (string, error) {
	return "The wifi password is hunter2.", nil
}

// recordingGen captures the chat context the handler hands to the generator.
type recordingGen struct {
	mockGen
	lastContext string
}

func (g *recordingGen) ChatReply(ctx context.Context, history []Message, guideContext string) (string, error) {
	g.lastContext = guideContext
	return "ok", nil
}

type mockGuideSource struct {
	context   string
	found     bool
	lastSlug  string
	lastToken string
}

func (m *mockGuideSource) ChatContext(slug, unlockToken string) (string, bool, error) {
	m.lastSlug = slug
	m.lastToken = unlockToken
	return m.context, m.found, nil
}

type mockTranslator struct{ calls int }

func (m *mockTranslator) Translate(ctx context.Context, text, targetLang string) (string, error) {
	m.calls++
	return "Bonjour", nil
}

type mockSubs struct{ planID string }

func (m mockSubs) GetActiveSubscription(userID int) (*plans.Subscription, error) {
	if m.planID == "" {
		return nil, nil
	}
	return &plans.Subscription{UserID: userID, PlanID: m.planID, Status: "active"}, nil
}

func authAs(id int) func(c *gin.Context) (int, bool) {
	return func(c *gin.Context) (int, bool) { return id, true }
}

func noAuth(c *gin.Context) (int, bool) { return 0, false }

func setupRouter(h *Handler) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	h.RegisterRoutes(r)
	return r
}

func postJSON(t *testing.T, r *gin.Engine, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	b, _ := json.Marshal(body)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(b))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestPlacesEndToEnd(t *testing.T) {
	h := NewHandler(mockGen{}, &mockTranslator{}, nil, mockSubs{planID: "plus"}, authAs(1))
	r := setupRouter(h)
	w := postJSON(t, r, "/ai/places", map[string]any{"city": "Lisbon", "blockType": "places"})
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var out []blocks.Place
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("bad body: %v", err)
	}
	if len(out) != 3 {
		t.Fatalf("expected 3 places, got %d", len(out))
	}
	for _, p := range out {
		if p.Name == "" || p.Description == "" || p.Address == "" {
			t.Errorf("empty required field: %+v", p)
		}
	}
}

func TestPlacesRequiresCity(t *testing.T) {
	h := NewHandler(mockGen{}, &mockTranslator{}, nil, mockSubs{planID: "plus"}, authAs(1))
	r := setupRouter(h)
	w := postJSON(t, r, "/ai/places", map[string]any{})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}

func TestPlacesFeatureGated(t *testing.T) {
	h := NewHandler(mockGen{}, &mockTranslator{}, nil, mockSubs{planID: "free"}, authAs(1))
	r := setupRouter(h)
	w := postJSON(t, r, "/ai/places", map[string]any{"city": "Lisbon"})
	if w.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), `"quota_exceeded":true`) {
		t.Errorf("quota errors need the machine-readable flag: %s", w.Body.String())
	}
}

func TestUnauthenticated(t *testing.T) {
	h := NewHandler(mockGen{}, &mockTranslator{}, nil, mockSubs{planID: "plus"}, noAuth)
	r := setupRouter(h)
	w := postJSON(t, r, "/ai/chat", map[string]any{"messages": []Message{{Role: "user", Content: "hi"}}})
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}
}

func TestChatReply(t *testing.T) {
	h := NewHandler(mockGen{}, &mockTranslator{}, nil, mockSubs{planID: "free"}, authAs(1))
	r := setupRouter(h)
	w := postJSON(t, r, "/ai/chat", map[string]any{
		"messages":     []Message{{Role: "user", Content: "what's the wifi?"}},
		"guideContext": "Guide: Casa Azul. Wifi password hunter2.",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var out struct {
		Reply string `json:"reply"`
	}
	_ = json.Unmarshal(w.Body.Bytes(), &out)
	if out.Reply == "" {
		t.Fatal("empty reply")
	}
}

func TestChatBySlugBuildsContextServerSide(t *testing.T) {
	gen := &recordingGen{}
	src := &mockGuideSource{context: "Guide: Casa Azul\nHouse manual:\nBoiler switch is in the hallway closet.\n", found: true}
	h := NewHandler(gen, &mockTranslator{}, src, mockSubs{planID: "free"}, authAs(1))
	r := setupRouter(h)
	b, _ := json.Marshal(map[string]any{
		"messages":     []Message{{Role: "user", Content: "where is the boiler switch?"}},
		"guideSlug":    "casa-azul",
		"guideContext": "client-supplied noise",
	})
	req := httptest.NewRequest(http.MethodPost, "/ai/chat", bytes.NewReader(b))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Unlock-Token", "tok-123")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if src.lastSlug != "casa-azul" || src.lastToken != "tok-123" {
		t.Fatalf("guide lookup got slug=%q token=%q", src.lastSlug, src.lastToken)
	}
	if !strings.Contains(gen.lastContext, "Boiler switch") {
		t.Errorf("stored manual text must reach the chat context, got %q", gen.lastContext)
	}
	if strings.Contains(gen.lastContext, "client-supplied noise") {
		t.Error("slug lookup must override the client-supplied context")
	}
}

func TestChatBySlugUnknownGuide(t *testing.T) {
	h := NewHandler(&recordingGen{}, &mockTranslator{}, &mockGuideSource{found: false}, mockSubs{planID: "free"}, authAs(1))
	r := setupRouter(h)
	w := postJSON(t, r, "/ai/chat", map[string]any{
		"messages":  []Message{{Role: "user", Content: "hi"}},
		"guideSlug": "no-such-guide",
	})
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
}

func TestTranslateEndpointUsesCacheService(t *testing.T) {
	tr := &mockTranslator{}
	h := NewHandler(mockGen{}, tr, nil, mockSubs{planID: "free"}, authAs(1))
	r := setupRouter(h)
	w := postJSON(t, r, "/ai/translate", map[string]any{"text": "Hello", "targetLang": "fr"})
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if tr.calls != 1 {
		t.Fatalf("expected translator called once, got %d", tr.calls)
	}
	if !strings.Contains(w.Body.String(), "Bonjour") {
		t.Errorf("body: %s", w.Body.String())
	}
}

func TestTranslateValidation(t *testing.T) {
	h := NewHandler(mockGen{}, &mockTranslator{}, nil, mockSubs{planID: "free"}, authAs(1))
	r := setupRouter(h)
	w := postJSON(t, r, "/ai/translate", map[string]any{"text": "Hello"})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}
