// Package record defines the loosely typed row representation shared by the
// CSV parser, the validators, and the loader. A Record wraps a string-keyed
// map; nested plain maps (and maps inside slices) are wrapped lazily on first
// access and the wrapped value is stored back in place, so repeated access
// returns the same instance.
package record

import (
	"fmt"
	"strconv"
)

// Record is a string-keyed row or payload. Values are typically raw CSV cell
// strings, but event payloads may carry nested maps, slices, numbers, and
// booleans.
type Record map[string]any

// New wraps m without copying. The Record shares m's storage.
func New(m map[string]any) Record { return Record(m) }

// Get returns the value for key, wrapping nested maps into Record and
// converting slice elements element-wise. Non-map slice elements pass through
// unchanged. The converted value replaces the original, so a second Get
// returns the identical wrapped instance.
func (r Record) Get(key string) any {
	v, ok := r[key]
	if !ok {
		return nil
	}
	switch t := v.(type) {
	case Record:
		return t
	case map[string]any:
		w := Record(t)
		r[key] = w
		return w
	case []any:
		for i, e := range t {
			if m, ok := e.(map[string]any); ok {
				t[i] = Record(m)
			}
		}
		return t
	}
	return v
}

// Has reports whether key is present, regardless of its value.
func (r Record) Has(key string) bool {
	_, ok := r[key]
	return ok
}

// Set stores v under key.
func (r Record) Set(key string, v any) { r[key] = v }

// String returns the value for key rendered as a string. Missing and nil
// values render as "". Non-string scalars use their natural formatting; raw
// CSV cells are always strings, so the fallback only applies to event-style
// payloads.
func (r Record) String(key string) string {
	return Stringify(r.Get(key))
}

// Map returns the nested Record under key, or nil when the value is missing
// or not a map.
func (r Record) Map(key string) Record {
	if m, ok := r.Get(key).(Record); ok {
		return m
	}
	return nil
}

// Slice returns the slice value under key with map elements already wrapped,
// or nil when the value is missing or not a slice.
func (r Record) Slice(key string) []any {
	if s, ok := r.Get(key).([]any); ok {
		return s
	}
	return nil
}

// Stringify renders a single value the way String does.
func Stringify(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case bool:
		return strconv.FormatBool(t)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case float64:
		return strconv.FormatFloat(t, 'g', -1, 64)
	default:
		return fmt.Sprint(t)
	}
}
