package codes

import (
	"crypto/rand"
	"fmt"
	"strings"

	pkgerrors "github.com/qanzmarket/qanz-backend/pkg/errors"
)

// alphabet excludes visually confusable characters (0/O, 1/I/L) so codes
// survive being read over the phone or copied by hand.
const alphabet = "ABCDEFGHJKMNPQRSTUVWXYZ23456789"

const (
	codeLength = 12
	groupSize  = 4
)

// Normalize converts raw user input into the canonical XXXX-XXXX-XXXX
// form: strip everything but letters and digits, uppercase, re-insert
// dashes every four characters. Generation uses the same form, so
// normalized input matches stored codes byte for byte.
func Normalize(raw string) (string, error) {
	var b strings.Builder
	for _, r := range strings.ToUpper(raw) {
		if (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	stripped := b.String()
	if len(stripped) != codeLength {
		return "", pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("code must contain %d characters", codeLength))
	}
	return group(stripped), nil
}

func group(stripped string) string {
	parts := make([]string, 0, codeLength/groupSize)
	for i := 0; i < len(stripped); i += groupSize {
		parts = append(parts, stripped[i:i+groupSize])
	}
	return strings.Join(parts, "-")
}

// newCode draws a random canonical code from the unambiguous alphabet.
func newCode() (string, error) {
	buf := make([]byte, codeLength)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("reading randomness: %w", err)
	}
	chars := make([]byte, codeLength)
	for i, b := range buf {
		chars[i] = alphabet[int(b)%len(alphabet)]
	}
	return group(string(chars)), nil
}
