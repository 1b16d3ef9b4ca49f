package identity

import (
	"errors"
	"testing"
)

func TestFromTelephoneNumber(t *testing.T) {
	cases := []struct {
		number string
		want   SimlarID
	}{
		{"+4915112345678", "*4915112345678*"},
		{" +4915112345678 ", "*4915112345678*"},
		{"+14155552671", "*14155552671*"},
	}

	for _, tc := range cases {
		got, err := FromTelephoneNumber(tc.number)
		if err != nil {
			t.Fatalf("FromTelephoneNumber(%q): %v", tc.number, err)
		}
		if got != tc.want {
			t.Errorf("FromTelephoneNumber(%q) = %q, want %q", tc.number, got, tc.want)
		}
	}
}

func TestFromTelephoneNumberRejectsInvalid(t *testing.T) {
	for _, number := range []string{"", "12345", "+49", "not-a-number", "+4912"} {
		if _, err := FromTelephoneNumber(number); !errors.Is(err, ErrInvalidTelephoneNumber) {
			t.Errorf("FromTelephoneNumber(%q) = %v, want ErrInvalidTelephoneNumber", number, err)
		}
	}
}

func TestParse(t *testing.T) {
	id, err := Parse("*4915112345678*")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if id != "*4915112345678*" {
		t.Fatalf("unexpected id %q", id)
	}

	for _, raw := range []string{"", "4915112345678", "*49151x2345678*", "**", "*4915112345678"} {
		if _, err := Parse(raw); !errors.Is(err, ErrInvalidTelephoneNumber) {
			t.Errorf("Parse(%q) = %v, want ErrInvalidTelephoneNumber", raw, err)
		}
	}
}

func TestTelephoneNumber(t *testing.T) {
	if got := SimlarID("*4915112345678*").TelephoneNumber(); got != "+4915112345678" {
		t.Fatalf("TelephoneNumber = %q", got)
	}
}

func TestHasRegionPrefix(t *testing.T) {
	id := SimlarID("*4915112345678*")
	if !id.HasRegionPrefix("49") {
		t.Error("expected prefix 49 to match")
	}
	if id.HasRegionPrefix("1") {
		t.Error("did not expect prefix 1 to match")
	}
	if id.HasRegionPrefix("") {
		t.Error("empty prefix must never match")
	}
}
