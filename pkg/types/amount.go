package types

import (
	"fmt"
	"math/big"
	"strings"
)

// maxSafeInteger is the largest integer exactly representable in a float64
// (2^53 - 1). Amounts above it survive our arithmetic unharmed but will be
// mangled by any JSON consumer that decodes numbers as floats.
var maxSafeInteger = big.NewInt(1<<53 - 1)

// ParseAmount parses a credit amount stored as a decimal integer string.
// Empty input is treated as zero.
func ParseAmount(s string) (*big.Int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return big.NewInt(0), nil
	}
	v, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return nil, fmt.Errorf("invalid credit amount: %q", s)
	}
	return v, nil
}

// ExceedsSafeInteger reports whether |v| is too large for a 64-bit float.
func ExceedsSafeInteger(v *big.Int) bool {
	return new(big.Int).Abs(v).Cmp(maxSafeInteger) > 0
}
