package walletid

import (
	"strings"

	"github.com/ShiraazMoollatjie/goluhn"
)

const prefix = "KVT-"

// New returns a wallet id of the form KVT-XXXXXX. The six digits are
// Luhn-valid so a mistyped recipient id is caught before any lookup.
func New() string {
	return prefix + goluhn.Generate(6)
}

// IsValid reports whether s is a well-formed wallet id.
func IsValid(s string) bool {
	if !strings.HasPrefix(s, prefix) {
		return false
	}
	digits := strings.TrimPrefix(s, prefix)
	if len(digits) != 6 {
		return false
	}
	return goluhn.Validate(digits) == nil
}
