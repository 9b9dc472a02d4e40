package domain

import (
	"encoding/json"
	"testing"
)

func TestClaims_StringValue(t *testing.T) {
	claims := Claims{
		"sub":   "U1",
		"iat":   float64(1000),
		"sid":   json.Number("1699999999"),
		"count": int64(42),
		"frac":  1000.5,
		"empty": "",
		"null":  nil,
	}

	cases := []struct {
		name string
		want string
		ok   bool
	}{
		{"sub", "U1", true},
		{"iat", "1000", true},
		{"sid", "1699999999", true},
		{"count", "42", true},
		{"frac", "1000.5", true},
		{"empty", "", false},
		{"null", "", false},
		{"missing", "", false},
	}

	for _, tc := range cases {
		got, ok := claims.StringValue(tc.name)
		if ok != tc.ok || got != tc.want {
			t.Fatalf("StringValue(%q) = %q, %v; want %q, %v", tc.name, got, ok, tc.want, tc.ok)
		}
	}
}

func TestClaims_Int64Value(t *testing.T) {
	claims := Claims{
		"iat":  float64(1000),
		"exp":  json.Number("2000"),
		"nbf":  int(500),
		"text": "1500",
		"bad":  "soon",
		"sub":  true,
	}

	cases := []struct {
		name string
		want int64
		ok   bool
	}{
		{"iat", 1000, true},
		{"exp", 2000, true},
		{"nbf", 500, true},
		{"text", 1500, true},
		{"bad", 0, false},
		{"sub", 0, false},
		{"missing", 0, false},
	}

	for _, tc := range cases {
		got, ok := claims.Int64Value(tc.name)
		if ok != tc.ok || got != tc.want {
			t.Fatalf("Int64Value(%q) = %d, %v; want %d, %v", tc.name, got, ok, tc.want, tc.ok)
		}
	}
}
