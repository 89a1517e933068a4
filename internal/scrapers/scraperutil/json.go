package scraperutil

import "encoding/json"

// RawString renders a loosely typed JSON value as text: strings are unquoted, numbers and
// booleans keep their literal form, null and missing keys become "".
func RawString(item map[string]json.RawMessage, key string) string {
	raw, ok := item[key]
	if !ok || string(raw) == "null" {
		return ""
	}
	var s string
	if json.Unmarshal(raw, &s) == nil {
		return s
	}
	return string(raw)
}
