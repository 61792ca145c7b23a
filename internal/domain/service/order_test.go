package service

import "testing"

func TestIsFinalStatus(t *testing.T) {
	cases := map[string]bool{
		"FILLED":           true,
		"canceled":         true,
		"CANCELLED":        true,
		"EXPIRED":          true,
		"REJECTED":         true,
		"NEW":              false,
		"PARTIALLY_FILLED": false,
		"":                 false,
	}
	for status, want := range cases {
		if got := IsFinalStatus(status); got != want {
			t.Errorf("IsFinalStatus(%q) = %v, want %v", status, got, want)
		}
	}
	if !(&OrderStatus{Status: "FILLED"}).Final() {
		t.Fatal("FILLED order should be final")
	}
}
