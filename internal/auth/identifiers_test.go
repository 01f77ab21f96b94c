package auth

import (
	"errors"
	"testing"
)

func TestPositiveIdentifiers(t *testing.T) {
	if _, err := NewUserID(0); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for zero, got %v", err)
	}
	if _, err := NewSystemID(-4); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for negative, got %v", err)
	}
	id, err := NewRoleID(9)
	if err != nil || id != 9 {
		t.Fatalf("NewRoleID(9) = %d, %v", id, err)
	}
	if _, err := NewUserSystemID(1); err != nil {
		t.Fatalf("NewUserSystemID: %v", err)
	}
	if _, err := NewUserSystemRoleID(0); err == nil {
		t.Fatalf("expected error for zero user system role id")
	}
}

func TestParseUserID(t *testing.T) {
	id, err := ParseUserID(" 42 ")
	if err != nil || id != 42 {
		t.Fatalf("ParseUserID = %d, %v", id, err)
	}
	if id.String() != "42" {
		t.Fatalf("String() = %q", id.String())
	}
	for _, raw := range []string{"", "abc", "0", "-1", "1.5"} {
		if _, err := ParseUserID(raw); !errors.Is(err, ErrInvalidInput) {
			t.Fatalf("ParseUserID(%q) expected ErrInvalidInput, got %v", raw, err)
		}
	}
}
