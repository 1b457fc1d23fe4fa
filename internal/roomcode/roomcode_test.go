package roomcode

import (
	"strings"
	"testing"
)

func TestGenerateProducesValidCodes(t *testing.T) {
	for i := 0; i < 100; i++ {
		code := Generate()
		if !Valid(code) {
			t.Fatalf("generated code %q fails validation", code)
		}
		if parts := strings.Split(code, "-"); len(parts) != 3 {
			t.Fatalf("expected three words, got %q", code)
		}
	}
}

func TestValid(t *testing.T) {
	cases := []struct {
		code string
		want bool
	}{
		{"cozy-otter-ember", true},
		{"a-b-c", true},
		{"cozy-otter", false},
		{"cozy-otter-ember-extra", false},
		{"Cozy-Otter-Ember", false},
		{"cozy_otter_ember", false},
		{"cozy-otter-3mber", false},
		{"", false},
		{"---", false},
	}
	for _, tc := range cases {
		if got := Valid(tc.code); got != tc.want {
			t.Errorf("Valid(%q) = %v, want %v", tc.code, got, tc.want)
		}
	}
}
