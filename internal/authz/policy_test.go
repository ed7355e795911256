package authz

import (
	"testing"
)

func TestParseRole(t *testing.T) {
	cases := []struct {
		raw  string
		want Role
		ok   bool
	}{
		{"admin", RoleAdmin, true},
		{"operator", RoleOperator, true},
		{"depositor", RoleDepositor, true},
		{"superuser", "", false},
		{"", "", false},
	}
	for _, tc := range cases {
		got, ok := ParseRole(tc.raw)
		if ok != tc.ok || got != tc.want {
			t.Fatalf("ParseRole(%q): want=(%q,%v) got=(%q,%v)", tc.raw, tc.want, tc.ok, got, ok)
		}
	}
}

func TestRequireAdmin(t *testing.T) {
	p := NewPolicy()

	if err := p.RequireAdmin(RoleAdmin); err != nil {
		t.Fatalf("admin: %v", err)
	}
	if err := p.RequireAdmin(RoleOperator); err == nil {
		t.Fatalf("operator passed admin check")
	}
	if err := p.RequireAdmin(RoleDepositor); err == nil {
		t.Fatalf("depositor passed admin check")
	}
}

func TestRequireActFor(t *testing.T) {
	p := NewPolicy()

	cases := []struct {
		name      string
		role      Role
		caller    string
		depositor string
		ok        bool
	}{
		{"depositor for self", RoleDepositor, "alice", "alice", true},
		{"depositor for other", RoleDepositor, "alice", "bob", false},
		{"operator for other", RoleOperator, "desk", "alice", true},
		{"admin for other", RoleAdmin, "ops", "alice", true},
		{"unknown role", Role("ghost"), "x", "x", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := p.RequireActFor(tc.role, tc.caller, tc.depositor)
			if (err == nil) != tc.ok {
				t.Fatalf("want ok=%v got err=%v", tc.ok, err)
			}
		})
	}
}
