package blocks

import (
	"encoding/json"
	"reflect"
	"strings"
	"testing"
)

func mustRaw(t *testing.T, v any) json.RawMessage {
	t.Helper()
	b, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return b
}

func sampleBlocks(t *testing.T) []Block {
	return []Block{
		{ID: "b1", Type: TypeText, Title: "Welcome", Visibility: Visibility{Mode: ModeAlways}, Data: mustRaw(t, TextData{Text: "hello"})},
		{ID: "b2", Type: TypeWiFi, Title: "Wi-Fi", Visibility: Visibility{Mode: ModeWithCode, UnlockCode: "2580"}, Data: mustRaw(t, WiFiData{Network: "Casa", Password: "secret-pass"})},
		{ID: "b3", Type: Type("hologram"), Title: "Future", Visibility: Visibility{Mode: ModeAlways}, Data: mustRaw(t, map[string]any{"x": 1})},
		{ID: "b4", Type: TypeAccessCode, Title: "Door", Visibility: Visibility{Mode: ModeWithCode, UnlockCode: "2580"}, Data: mustRaw(t, AccessCodeData{Label: "Front door", Code: "8841"})},
	}
}

func TestRenderBlocksSkipsUnknownType(t *testing.T) {
	views := RenderBlocks(RenderContext{Mode: ModeBuilder}, sampleBlocks(t))
	if len(views) != 3 {
		t.Fatalf("expected 3 rendered blocks, got %d", len(views))
	}
	for _, v := range views {
		if v["id"] == "b3" {
			t.Fatalf("unknown block type should have been omitted: %v", v)
		}
	}
}

func TestRenderBlocksKeepsOrder(t *testing.T) {
	views := RenderBlocks(RenderContext{Mode: ModeBuilder}, sampleBlocks(t))
	ids := []string{}
	for _, v := range views {
		ids = append(ids, v["id"].(string))
	}
	want := []string{"b1", "b2", "b4"}
	if !reflect.DeepEqual(ids, want) {
		t.Fatalf("order mismatch: got %v want %v", ids, want)
	}
}

func TestTravelerLockedViewHidesPayload(t *testing.T) {
	views := RenderBlocks(RenderContext{Mode: ModeTraveler, Unlocked: false}, sampleBlocks(t))
	for _, v := range views {
		if v["id"] != "b2" && v["id"] != "b4" {
			continue
		}
		if v["locked"] != true {
			t.Errorf("block %v should be locked", v["id"])
		}
		if _, ok := v["data"]; ok {
			t.Errorf("locked block %v leaked its payload", v["id"])
		}
		raw, _ := json.Marshal(v)
		for _, secret := range []string{"secret-pass", "8841", "2580"} {
			if strings.Contains(string(raw), secret) {
				t.Errorf("locked view leaked %q: %s", secret, raw)
			}
		}
	}
}

func TestTravelerUnlockedViewShowsPayload(t *testing.T) {
	views := RenderBlocks(RenderContext{Mode: ModeTraveler, Unlocked: true}, sampleBlocks(t))
	found := false
	for _, v := range views {
		if v["id"] == "b2" {
			found = true
			data, ok := v["data"].(map[string]any)
			if !ok {
				t.Fatalf("unlocked block missing data: %v", v)
			}
			if data["password"] != "secret-pass" {
				t.Errorf("expected wifi password in unlocked view, got %v", data)
			}
		}
		// traveler view never exposes the unlock code itself
		if vis, ok := v["visibility"].(map[string]any); ok {
			if _, leak := vis["unlock_code"]; leak {
				t.Errorf("traveler view leaked unlock_code on %v", v["id"])
			}
		}
	}
	if !found {
		t.Fatal("gated block not rendered while unlocked")
	}
}

func TestRenderIsIdempotent(t *testing.T) {
	bs := sampleBlocks(t)
	ctx := RenderContext{Mode: ModeTraveler, Unlocked: true}
	a, _ := json.Marshal(RenderBlocks(ctx, bs))
	b, _ := json.Marshal(RenderBlocks(ctx, bs))
	if string(a) != string(b) {
		t.Fatalf("render not idempotent:\n%s\n%s", a, b)
	}
}

func TestValidateRejectsBadPayload(t *testing.T) {
	cases := map[Type]json.RawMessage{
		TypeWiFi:       json.RawMessage(`{"password":"x"}`),      // missing network
		TypeAccessCode: json.RawMessage(`{"label":"door"}`),      // missing code
		TypeHost:       json.RawMessage(`{"phone":"555"}`),       // missing name
		TypeText:       json.RawMessage(`not json`),              // malformed
	}
	for typ, data := range cases {
		entry, ok := Lookup(typ)
		if !ok {
			t.Fatalf("type %s not registered", typ)
		}
		if err := entry.Validate(data); err == nil {
			t.Errorf("Validate(%s, %s) should fail", typ, data)
		}
	}
}

func TestDefaultDataValidates(t *testing.T) {
	for _, typ := range []Type{TypeCheckin, TypeHouseRules, TypePlaces, TypeEvents, TypeTip, TypeText} {
		entry, _ := Lookup(typ)
		raw, err := json.Marshal(entry.DefaultData())
		if err != nil {
			t.Fatalf("marshal default for %s: %v", typ, err)
		}
		if err := entry.Validate(raw); err != nil {
			t.Errorf("default data for %s does not validate: %v", typ, err)
		}
	}
}
