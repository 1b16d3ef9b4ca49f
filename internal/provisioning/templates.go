package provisioning

import (
	"fmt"
	"sort"
	"strings"

	"github.com/agnivade/levenshtein"
)

var smsTemplates = map[string]string{
	"de": "Willkommen bei Simlar! Dein Registrierungscode lautet: %s",
	"en": "Welcome to Simlar! Your registration code is: %s",
	"es": "Bienvenido a Simlar! Tu codigo de registro es: %s",
	"fr": "Bienvenue chez Simlar! Votre code d'enregistrement est: %s",
}

const defaultSMSLocale = "en"

// MatchTemplate returns the candidate with the smallest edit distance to the
// probe. Ties resolve to the lexicographically first candidate so the result
// is deterministic for arbitrary caller-supplied hints.
func MatchTemplate(candidates []string, probe string) string {
	sorted := make([]string, len(candidates))
	copy(sorted, candidates)
	sort.Strings(sorted)

	best := ""
	bestDistance := -1
	for _, candidate := range sorted {
		distance := levenshtein.ComputeDistance(probe, candidate)
		if bestDistance < 0 || distance < bestDistance {
			best = candidate
			bestDistance = distance
		}
	}
	return best
}

func smsText(localeHint, registrationCode string) string {
	locales := make([]string, 0, len(smsTemplates))
	for locale := range smsTemplates {
		locales = append(locales, locale)
	}

	hint := strings.ToLower(strings.TrimSpace(localeHint))
	if hint == "" {
		hint = defaultSMSLocale
	}

	locale := MatchTemplate(locales, hint)
	return fmt.Sprintf(smsTemplates[locale], registrationCode)
}
