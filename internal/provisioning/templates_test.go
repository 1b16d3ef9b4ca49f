package provisioning

import (
	"strings"
	"testing"
)

func TestMatchTemplateExact(t *testing.T) {
	candidates := []string{"de", "en", "es", "fr"}
	for _, probe := range candidates {
		if got := MatchTemplate(candidates, probe); got != probe {
			t.Errorf("MatchTemplate(%q) = %q, want exact match", probe, got)
		}
	}
}

func TestMatchTemplateNearest(t *testing.T) {
	candidates := []string{"de", "en", "es", "fr"}
	cases := map[string]string{
		"de-de": "de",
		"en-US": "en",
		"eN":    "en",
	}
	for probe, want := range cases {
		if got := MatchTemplate(candidates, strings.ToLower(probe)); got != want {
			t.Errorf("MatchTemplate(%q) = %q, want %q", probe, got, want)
		}
	}
}

func TestMatchTemplateDeterministicOnTies(t *testing.T) {
	// Both candidates are equally distant; the lexicographically first wins.
	if got := MatchTemplate([]string{"bb", "aa"}, "cc"); got != "aa" {
		t.Fatalf("MatchTemplate tie = %q, want aa", got)
	}
}

func TestSMSTextSubstitutesCode(t *testing.T) {
	text := smsText("de", "987654")
	if !strings.Contains(text, "987654") {
		t.Fatalf("sms text %q lacks the code", text)
	}
	if !strings.Contains(text, "Registrierungscode") {
		t.Fatalf("sms text %q is not the German template", text)
	}
}

func TestSMSTextFallsBackForUnknownHint(t *testing.T) {
	text := smsText("", "987654")
	if !strings.Contains(text, "987654") {
		t.Fatalf("sms text %q lacks the code", text)
	}
	if !strings.Contains(text, "Welcome to Simlar") {
		t.Fatalf("empty hint should fall back to English, got %q", text)
	}
}
