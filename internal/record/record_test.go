package record

import (
	"testing"
)

func TestGetWrapsNestedMapOnce(t *testing.T) {
	r := New(map[string]any{
		"s3": map[string]any{
			"bucket": map[string]any{"name": "uploads"},
		},
	})

	first := r.Map("s3")
	if first == nil {
		t.Fatal("expected nested map to wrap into Record")
	}
	second := r.Map("s3")

	// The wrapped instance must be cached in place: mutations through one
	// handle are visible through the other.
	first.Set("probe", "x")
	if got := second.String("probe"); got != "x" {
		t.Fatalf("second access returned a different instance: probe=%q", got)
	}

	if got := first.Map("bucket").String("name"); got != "uploads" {
		t.Fatalf("nested access: got %q, want %q", got, "uploads")
	}
}

func TestGetWrapsSliceElementWise(t *testing.T) {
	r := New(map[string]any{
		"Records": []any{
			map[string]any{"key": "a.csv"},
			"plain string",
			42,
		},
	})

	s := r.Slice("Records")
	if len(s) != 3 {
		t.Fatalf("len = %d, want 3", len(s))
	}
	rec, ok := s[0].(Record)
	if !ok {
		t.Fatalf("element 0: got %T, want Record", s[0])
	}
	if got := rec.String("key"); got != "a.csv" {
		t.Fatalf("element 0 key = %q", got)
	}
	// Non-map elements pass through unchanged.
	if s[1] != "plain string" || s[2] != 42 {
		t.Fatalf("non-map elements changed: %v", s)
	}

	// Element conversion is cached in place.
	rec.Set("seen", true)
	again := r.Slice("Records")
	if got, ok := again[0].(Record); !ok || got.String("seen") != "true" {
		t.Fatal("slice element re-wrapped on second access")
	}
}

func TestGetMissingKey(t *testing.T) {
	r := New(map[string]any{})
	if v := r.Get("nope"); v != nil {
		t.Fatalf("Get on missing key = %v, want nil", v)
	}
	if r.Has("nope") {
		t.Fatal("Has on missing key = true")
	}
	if s := r.String("nope"); s != "" {
		t.Fatalf("String on missing key = %q", s)
	}
}

func TestStringify(t *testing.T) {
	cases := []struct {
		in   any
		want string
	}{
		{nil, ""},
		{"abc", "abc"},
		{true, "true"},
		{7, "7"},
		{int64(9), "9"},
		{2.5, "2.5"},
	}
	for _, c := range cases {
		if got := Stringify(c.in); got != c.want {
			t.Errorf("Stringify(%v) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestMapAndSliceTypeMismatch(t *testing.T) {
	r := New(map[string]any{"n": 5})
	if m := r.Map("n"); m != nil {
		t.Fatalf("Map on scalar = %v, want nil", m)
	}
	if s := r.Slice("n"); s != nil {
		t.Fatalf("Slice on scalar = %v, want nil", s)
	}
}
