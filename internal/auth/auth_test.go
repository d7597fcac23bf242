package auth

import "testing"

func TestAuthenticate(t *testing.T) {
	table := NewTable(map[string]string{"live": "secret"})

	cases := []struct {
		name string
		app  string
		key  string
		want bool
	}{
		{"exact match", "live", "secret", true},
		{"wrong key", "live", "wrong", false},
		{"unknown app", "unknown", "secret", false},
		{"empty key", "live", "", false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := table.Authenticate(tc.app, tc.key); got != tc.want {
				t.Errorf("Authenticate(%q, %q) = %v, want %v", tc.app, tc.key, got, tc.want)
			}
		})
	}
}

func TestHas(t *testing.T) {
	table := NewTable(map[string]string{"live": "secret"})

	if !table.Has("live") {
		t.Error("Has(live) = false, want true")
	}
	if table.Has("unknown") {
		t.Error("Has(unknown) = true, want false")
	}
}

func TestNewTableCopiesInput(t *testing.T) {
	src := map[string]string{"live": "secret"}
	table := NewTable(src)
	src["live"] = "mutated"

	if !table.Authenticate("live", "secret") {
		t.Fatal("Table must copy its input map, not alias it")
	}
}
