package secrets

import (
	"strings"
	"testing"
)

func TestGeneratePassword(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 32; i++ {
		pw, err := GeneratePassword()
		if err != nil {
			t.Fatalf("GeneratePassword: %v", err)
		}
		if len(pw) != passwordLength {
			t.Fatalf("password %q has length %d, want %d", pw, len(pw), passwordLength)
		}
		for _, c := range pw {
			if !strings.ContainsRune(passwordAlphabet, c) {
				t.Fatalf("password %q contains %q outside the alphabet", pw, c)
			}
		}
		if seen[pw] {
			t.Fatalf("duplicate password generated: %q", pw)
		}
		seen[pw] = true
	}
}

func TestPasswordAlphabetExcludesConfusables(t *testing.T) {
	for _, c := range "0O1lI" {
		if strings.ContainsRune(passwordAlphabet, c) {
			t.Errorf("alphabet contains confusable character %q", c)
		}
	}
}

func TestGenerateRegistrationCode(t *testing.T) {
	for i := 0; i < 32; i++ {
		code, err := GenerateRegistrationCode()
		if err != nil {
			t.Fatalf("GenerateRegistrationCode: %v", err)
		}
		if len(code) != registrationCodeLength {
			t.Fatalf("code %q has length %d, want %d", code, len(code), registrationCodeLength)
		}
		for _, c := range code {
			if c < '0' || c > '9' {
				t.Fatalf("code %q contains non-digit %q", code, c)
			}
		}
	}
}

func TestFormatCodeForVoiceCall(t *testing.T) {
	if got := FormatCodeForVoiceCall("123456"); got != "1, 2, 3, ..., 4, 5, 6" {
		t.Fatalf("FormatCodeForVoiceCall = %q", got)
	}
	if got := FormatCodeForVoiceCall("007"); got != "0, 0, 7" {
		t.Fatalf("FormatCodeForVoiceCall short = %q", got)
	}
}
