package zerocoin

import (
	"fmt"
	"math/big"
)

// SerialKey returns the canonical lowercase hex form of a serial number, used
// as a map and database key. Returns "" for nil.
func SerialKey(serial *big.Int) string {
	if serial == nil {
		return ""
	}
	return serial.Text(16)
}

// ParseSerialHex parses a hex-encoded serial number. Only hex digits are
// accepted: no sign, no 0x prefix, no whitespace.
func ParseSerialHex(s string) (*big.Int, error) {
	if s == "" {
		return nil, fmt.Errorf("empty serial")
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		isHex := (c >= '0' && c <= '9') || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
		if !isHex {
			return nil, fmt.Errorf("serial %q: invalid hex character %q", s, c)
		}
	}
	v, ok := new(big.Int).SetString(s, 16)
	if !ok {
		return nil, fmt.Errorf("serial %q: not a hex number", s)
	}
	return v, nil
}
