package ai

import (
	"encoding/json"
	"strings"
)

// ExtractJSON pulls the first syntactically valid JSON value (object or array)
// out of free-form model output. Code fences and surrounding prose are
// tolerated. The second return is false when no value could be found; callers
// substitute their kind's safe default instead of propagating an error.
func ExtractJSON(s string) (string, bool) {
	s = strings.TrimSpace(s)
	for i := 0; i < len(s); i++ {
		if s[i] != '{' && s[i] != '[' {
			continue
		}
		dec := json.NewDecoder(strings.NewReader(s[i:]))
		var raw json.RawMessage
		if err := dec.Decode(&raw); err == nil {
			return string(raw), true
		}
	}
	return "", false
}

// DecodeOr unmarshals the first JSON value found in s into out. When no value
// is found or it does not fit, out is left at the caller-provided default and
// false is returned. No error ever escapes; malformed model output degrades to
// the default.
func DecodeOr(s string, out any) bool {
	raw, ok := ExtractJSON(s)
	if !ok {
		return false
	}
	if err := json.Unmarshal([]byte(raw), out); err != nil {
		return false
	}
	return true
}
