package response

import "strings"

// Header is one response header line.
type Header struct {
	Name  string
	Value string
}

// Headers keeps every header occurrence in arrival order.
type Headers []Header

// singletons are headers whose repeated occurrences replace each other
// instead of forming a list.
var singletons = map[string]bool{
	"age":                 true,
	"content-disposition": true,
	"content-length":      true,
	"content-location":    true,
	"content-range":       true,
	"content-type":        true,
	"date":                true,
	"etag":                true,
	"expires":             true,
	"last-modified":       true,
	"location":            true,
	"retry-after":         true,
	"server":              true,
}

// Get returns the last value of name, compared case-insensitively.
func (h Headers) Get(name string) string {
	for i := len(h) - 1; i >= 0; i-- {
		if strings.EqualFold(h[i].Name, name) {
			return h[i].Value
		}
	}
	return ""
}

// Values returns every value of name in order.
func (h Headers) Values(name string) []string {
	var out []string
	for _, e := range h {
		if strings.EqualFold(e.Name, name) {
			out = append(out, e.Value)
		}
	}
	return out
}

// Has reports whether name is present.
func (h Headers) Has(name string) bool {
	for _, e := range h {
		if strings.EqualFold(e.Name, name) {
			return true
		}
	}
	return false
}

// Map flattens the headers. Keys keep the spelling of their first
// occurrence. Singleton headers are last-wins, Set-Cookie values are joined
// with newlines and other repeated headers with ", ".
func (h Headers) Map() map[string]string {
	out := make(map[string]string, len(h))
	keys := make(map[string]string, len(h))
	for _, e := range h {
		lower := strings.ToLower(e.Name)
		key, seen := keys[lower]
		if !seen {
			keys[lower] = e.Name
			out[e.Name] = e.Value
			continue
		}
		switch {
		case singletons[lower]:
			out[key] = e.Value
		case lower == "set-cookie":
			out[key] += "\n" + e.Value
		default:
			out[key] += ", " + e.Value
		}
	}
	return out
}
