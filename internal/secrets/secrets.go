// Package secrets generates the provisional credentials and registration codes
// handed out during account creation.
package secrets

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
)

const (
	passwordLength = 14
	// Excludes visually confusable glyphs (0/O, 1/l/I, 5/S, 8/B).
	passwordAlphabet = "abcdefghijkmnpqrtuvwxyzACDEFGHJKLMNPQRTUVWXYZ234679"

	registrationCodeLength = 6
)

// GeneratePassword returns a cryptographically random provisional password.
func GeneratePassword() (string, error) {
	return randomString(passwordAlphabet, passwordLength)
}

// GenerateRegistrationCode returns a cryptographically random six-digit code.
// Leading zeros are allowed.
func GenerateRegistrationCode() (string, error) {
	return randomString("0123456789", registrationCodeLength)
}

// FormatCodeForVoiceCall spells a registration code digit by digit with a
// pause marker after the third digit so text-to-speech reads it naturally.
func FormatCodeForVoiceCall(code string) string {
	var b strings.Builder
	for i, digit := range code {
		if i > 0 {
			b.WriteString(", ")
		}
		if i == 3 {
			b.WriteString("..., ")
		}
		b.WriteRune(digit)
	}
	return b.String()
}

func randomString(alphabet string, length int) (string, error) {
	max := big.NewInt(int64(len(alphabet)))
	var b strings.Builder
	b.Grow(length)
	for i := 0; i < length; i++ {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("read random: %w", err)
		}
		b.WriteByte(alphabet[n.Int64()])
	}
	return b.String(), nil
}
