// utils/codes.go
package utils

import (
	"crypto/rand"
	"log"
	"strings"

	"github.com/gosimple/unidecode"
)

const codeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// RandomCode returns an uppercase alphanumeric code of the given length.
func RandomCode(length int) string {
	b := make([]byte, length)
	if _, err := rand.Read(b); err != nil {
		log.Printf("❌ Failed to read random bytes for code generation: %v", err)
		return ""
	}
	for i := range b {
		b[i] = codeAlphabet[int(b[i])%len(codeAlphabet)]
	}
	return string(b)
}

// SanitizeCodePrefix reduces a reward name to a short ASCII prefix for
// voucher codes, e.g. "Café Crème 20%" -> "CAFECREM".
func SanitizeCodePrefix(name string) string {
	ascii := unidecode.Unidecode(name)
	var sb strings.Builder
	for _, r := range strings.ToUpper(ascii) {
		if (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			sb.WriteRune(r)
		}
		if sb.Len() >= 8 {
			break
		}
	}
	if sb.Len() == 0 {
		return "MATCH"
	}
	return sb.String()
}
