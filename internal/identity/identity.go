package identity

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/nyaruka/phonenumbers"
)

// ErrInvalidTelephoneNumber indicates the provided number failed either the
// format check or the libphonenumber validity check.
var ErrInvalidTelephoneNumber = errors.New("invalid telephone number")

// SimlarID is the phone-number-derived account identifier. The wire form wraps
// the full international number in asterisk delimiters, e.g. *4915112345678*.
type SimlarID string

var wireFormat = regexp.MustCompile(`^\*\d+\*$`)

// FromTelephoneNumber validates a telephone number and maps it to its SimlarID.
func FromTelephoneNumber(raw string) (SimlarID, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", ErrInvalidTelephoneNumber
	}

	number, err := phonenumbers.Parse(trimmed, "")
	if err != nil {
		return "", fmt.Errorf("%w: %q", ErrInvalidTelephoneNumber, raw)
	}
	if !phonenumbers.IsValidNumber(number) {
		return "", fmt.Errorf("%w: %q", ErrInvalidTelephoneNumber, raw)
	}

	id := "*" + strconv.Itoa(int(number.GetCountryCode())) + phonenumbers.GetNationalSignificantNumber(number) + "*"
	return SimlarID(id), nil
}

// Parse validates the asterisk-delimited wire form of a SimlarID.
func Parse(raw string) (SimlarID, error) {
	trimmed := strings.TrimSpace(raw)
	if !wireFormat.MatchString(trimmed) {
		return "", fmt.Errorf("%w: %q", ErrInvalidTelephoneNumber, raw)
	}
	return SimlarID(trimmed), nil
}

// TelephoneNumber returns the international dialable form, e.g. +4915112345678.
func (s SimlarID) TelephoneNumber() string {
	return "+" + strings.Trim(string(s), "*")
}

// HasRegionPrefix reports whether the identifier's digits start with the given
// region prefix (typically a country calling code such as "49").
func (s SimlarID) HasRegionPrefix(prefix string) bool {
	if prefix == "" {
		return false
	}
	return strings.HasPrefix(strings.Trim(string(s), "*"), prefix)
}
