package crawler

import "testing"

func TestNextPageDisabled(t *testing.T) {
	cases := []struct {
		name            string
		ariaDisabled    string
		hasDisabledAttr bool
		want            bool
	}{
		{"enabled control", "", false, false},
		{"aria-disabled true", "true", false, true},
		{"aria-disabled false", "false", false, false},
		{"bare disabled attribute", "", true, true},
		{"both markers", "true", true, true},
	}

	for _, tc := range cases {
		if got := nextPageDisabled(tc.ariaDisabled, tc.hasDisabledAttr); got != tc.want {
			t.Fatalf("%s: nextPageDisabled(%q, %v) = %v, want %v",
				tc.name, tc.ariaDisabled, tc.hasDisabledAttr, got, tc.want)
		}
	}
}
