package uid

import (
	"regexp"
	"testing"
)

func TestNewIsValid(t *testing.T) {
	id := New()
	if !IsValid(id) {
		t.Errorf("New() produced invalid UUID %q", id)
	}
	if IsValid("not-a-uuid") {
		t.Error("IsValid accepted garbage")
	}
}

func TestRequestNumberFormat(t *testing.T) {
	pattern := regexp.MustCompile(`^EXR-\d{8}-[0-9A-F]{6}$`)

	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		rn := RequestNumber()
		if !pattern.MatchString(rn) {
			t.Fatalf("request number %q does not match expected format", rn)
		}
		if seen[rn] {
			t.Fatalf("duplicate request number %q", rn)
		}
		seen[rn] = true
	}
}
