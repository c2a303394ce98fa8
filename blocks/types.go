package blocks

import "encoding/json"

// Type tags a block's content kind. Guides saved under a newer block-type set
// may carry tags not present here; those are tolerated, not rejected.
type Type string

const (
	TypeWiFi       Type = "wifi"
	TypeAccessCode Type = "access_code"
	TypeCheckin    Type = "checkin"
	TypeHouseRules Type = "house_rules"
	TypeHost       Type = "host"
	TypePlaces     Type = "places"
	TypeEvents     Type = "events"
	TypeTip        Type = "tip"
	TypeText       Type = "text"
)

// Visibility modes
const (
	ModeAlways   = "always"
	ModeWithCode = "with_code"
)

// Render modes
const (
	ModeBuilder  = "builder"
	ModeTraveler = "traveler"
)

type Visibility struct {
	Mode       string `json:"mode"`
	UnlockCode string `json:"unlock_code,omitempty"`
}

// Block is one typed content unit inside a guide. Data is kept raw so guides
// round-trip through storage without this package knowing every payload shape.
type Block struct {
	ID         string          `json:"id"`
	Type       Type            `json:"type"`
	Title      string          `json:"title,omitempty"`
	Visibility Visibility      `json:"visibility"`
	Data       json.RawMessage `json:"data"`
}

// --- Typed payloads --- //

type WiFiData struct {
	Network  string `json:"network"`
	Password string `json:"password"`
}

type AccessCodeData struct {
	Label string `json:"label"`
	Code  string `json:"code"`
}

type CheckinData struct {
	CheckIn      string `json:"check_in"`
	CheckOut     string `json:"check_out"`
	Instructions string `json:"instructions"`
}

type HouseRulesData struct {
	Rules []string `json:"rules"`
}

type HostData struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
	Email string `json:"email"`
}

type Place struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Address     string `json:"address"`
	URL         string `json:"url,omitempty"`
}

type PlacesData struct {
	Places []Place `json:"places"`
}

type Event struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Location    string `json:"location"`
	Month       string `json:"month"`
	Day         string `json:"day"`
	Time        string `json:"time"`
}

type EventsData struct {
	Events []Event `json:"events"`
}

type TipData struct {
	Title string `json:"title"`
	Text  string `json:"text"`
	Icon  string `json:"icon"`
}

type TextData struct {
	Text string `json:"text"`
}
