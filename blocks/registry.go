package blocks

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Entry groups everything the rest of the system needs to handle one block
// type. New types are added by registering an entry here; nothing else has to
// change.
type Entry struct {
	DefaultData func() any
	Validate    func(data json.RawMessage) error
	// Render returns the type-specific fields of the block view. Gating by
	// visibility happens in RenderGuide, not here.
	Render func(b Block) map[string]any
}

var registry = map[Type]Entry{}

// Register adds or replaces the entry for a block type.
func Register(t Type, e Entry) { registry[t] = e }

// Lookup returns the registered entry for a type, if any.
func Lookup(t Type) (Entry, bool) {
	e, ok := registry[t]
	return e, ok
}

func decodeInto[T any](data json.RawMessage) (T, error) {
	var v T
	if len(data) == 0 {
		return v, errors.New("missing data")
	}
	if err := json.Unmarshal(data, &v); err != nil {
		return v, fmt.Errorf("invalid payload: %w", err)
	}
	return v, nil
}

func init() {
	Register(TypeWiFi, Entry{
		DefaultData: func() any { return WiFiData{} },
		Validate: func(data json.RawMessage) error {
			d, err := decodeInto[WiFiData](data)
			if err != nil {
				return err
			}
			if d.Network == "" {
				return errors.New("wifi: network is required")
			}
			return nil
		},
		Render: func(b Block) map[string]any {
			d, _ := decodeInto[WiFiData](b.Data)
			return map[string]any{"network": d.Network, "password": d.Password}
		},
	})

	Register(TypeAccessCode, Entry{
		DefaultData: func() any { return AccessCodeData{} },
		Validate: func(data json.RawMessage) error {
			d, err := decodeInto[AccessCodeData](data)
			if err != nil {
				return err
			}
			if d.Code == "" {
				return errors.New("access_code: code is required")
			}
			return nil
		},
		Render: func(b Block) map[string]any {
			d, _ := decodeInto[AccessCodeData](b.Data)
			return map[string]any{"label": d.Label, "code": d.Code}
		},
	})

	Register(TypeCheckin, Entry{
		DefaultData: func() any { return CheckinData{} },
		Validate: func(data json.RawMessage) error {
			_, err := decodeInto[CheckinData](data)
			return err
		},
		Render: func(b Block) map[string]any {
			d, _ := decodeInto[CheckinData](b.Data)
			return map[string]any{"check_in": d.CheckIn, "check_out": d.CheckOut, "instructions": d.Instructions}
		},
	})

	Register(TypeHouseRules, Entry{
		DefaultData: func() any { return HouseRulesData{Rules: []string{}} },
		Validate: func(data json.RawMessage) error {
			_, err := decodeInto[HouseRulesData](data)
			return err
		},
		Render: func(b Block) map[string]any {
			d, _ := decodeInto[HouseRulesData](b.Data)
			if d.Rules == nil {
				d.Rules = []string{}
			}
			return map[string]any{"rules": d.Rules}
		},
	})

	Register(TypeHost, Entry{
		DefaultData: func() any { return HostData{} },
		Validate: func(data json.RawMessage) error {
			d, err := decodeInto[HostData](data)
			if err != nil {
				return err
			}
			if d.Name == "" {
				return errors.New("host: name is required")
			}
			return nil
		},
		Render: func(b Block) map[string]any {
			d, _ := decodeInto[HostData](b.Data)
			return map[string]any{"name": d.Name, "phone": d.Phone, "email": d.Email}
		},
	})

	Register(TypePlaces, Entry{
		DefaultData: func() any { return PlacesData{Places: []Place{}} },
		Validate: func(data json.RawMessage) error {
			_, err := decodeInto[PlacesData](data)
			return err
		},
		Render: func(b Block) map[string]any {
			d, _ := decodeInto[PlacesData](b.Data)
			if d.Places == nil {
				d.Places = []Place{}
			}
			return map[string]any{"places": d.Places}
		},
	})

	Register(TypeEvents, Entry{
		DefaultData: func() any { return EventsData{Events: []Event{}} },
		Validate: func(data json.RawMessage) error {
			_, err := decodeInto[EventsData](data)
			return err
		},
		Render: func(b Block) map[string]any {
			d, _ := decodeInto[EventsData](b.Data)
			if d.Events == nil {
				d.Events = []Event{}
			}
			return map[string]any{"events": d.Events}
		},
	})

	Register(TypeTip, Entry{
		DefaultData: func() any { return TipData{} },
		Validate: func(data json.RawMessage) error {
			_, err := decodeInto[TipData](data)
			return err
		},
		Render: func(b Block) map[string]any {
			d, _ := decodeInto[TipData](b.Data)
			return map[string]any{"title": d.Title, "text": d.Text, "icon": d.Icon}
		},
	})

	Register(TypeText, Entry{
		DefaultData: func() any { return TextData{} },
		Validate: func(data json.RawMessage) error {
			_, err := decodeInto[TextData](data)
			return err
		},
		Render: func(b Block) map[string]any {
			d, _ := decodeInto[TextData](b.Data)
			return map[string]any{"text": d.Text}
		},
	})
}
