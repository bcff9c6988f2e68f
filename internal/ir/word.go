package ir

import (
	"fmt"
	"strings"

	"github.com/holiman/uint256"
)

// ParseWord parses a 256-bit word written as 0x-prefixed hex or decimal.
// Hex may carry leading zeros.
func ParseWord(s string) (*uint256.Int, error) {
	if s == "" {
		return nil, fmt.Errorf("empty word")
	}
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		digits := strings.TrimLeft(s[2:], "0")
		if digits == "" {
			digits = "0"
		}
		w, err := uint256.FromHex("0x" + digits)
		if err != nil {
			return nil, fmt.Errorf("word %q: %w", s, err)
		}
		return w, nil
	}
	w, err := uint256.FromDecimal(s)
	if err != nil {
		return nil, fmt.Errorf("word %q: %w", s, err)
	}
	return w, nil
}
