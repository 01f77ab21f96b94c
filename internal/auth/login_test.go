package auth

import (
	"strings"
	"testing"
)

func TestParseUsername(t *testing.T) {
	valid := []string{"mateus", "abc", "user_01", "A_B_C", " padded ", strings.Repeat("a", 50)}
	for _, raw := range valid {
		if _, err := ParseUsername(raw); err != nil {
			t.Fatalf("ParseUsername(%q): %v", raw, err)
		}
	}
	invalid := []string{"", "ab", "has space", "dash-name", "mateus@email.com", strings.Repeat("a", 51)}
	for _, raw := range invalid {
		if _, err := ParseUsername(raw); err == nil {
			t.Fatalf("ParseUsername(%q) expected error", raw)
		}
	}
}

func TestParseEmailNormalizes(t *testing.T) {
	email, err := ParseEmail("  Mateus@Email.COM ")
	if err != nil {
		t.Fatalf("ParseEmail: %v", err)
	}
	if email != "mateus@email.com" {
		t.Fatalf("email = %q", email)
	}
	for _, raw := range []string{"", "mateus", "mateus@", "@email.com", "a@b", "a b@c.com"} {
		if _, err := ParseEmail(raw); err == nil {
			t.Fatalf("ParseEmail(%q) expected error", raw)
		}
	}
}
