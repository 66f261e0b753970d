package protocol

import (
	"encoding/hex"
	"strings"
)

// FormatHex renders b as dash separated hex pairs, e.g. "9a-a2-01".
func FormatHex(b []byte) string {
	hexDigits := hex.EncodeToString(b)
	var builder strings.Builder
	for i, r := range hexDigits {
		if i > 0 && i%2 == 0 {
			builder.WriteString("-")
		}
		builder.WriteRune(r)
	}
	return builder.String()
}

// ParseHex accepts hex with optional "0x" prefix and dash, colon or space
// separators.
func ParseHex(s string) ([]byte, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	s = strings.NewReplacer("-", "", ":", "", " ", "", "\t", "", "\n", "").Replace(s)
	return hex.DecodeString(s)
}
