package ethtypes

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// Pubkey is a validator's 48-byte BLS public key, always held as a
// normalized 0x-prefixed lowercase hex string (98 characters total).
type Pubkey string

// ErrInvalidAddress is returned by NormalizePubkey when the input isn't a
// well-formed 48-byte hex pubkey.
var ErrInvalidAddress = errors.New("ethtypes: invalid pubkey")

var hexBodyPattern = regexp.MustCompile(`^[0-9a-f]{96}$`)

// NormalizePubkey trims whitespace, lowercases, prepends "0x" if absent, and
// validates that the hex body is exactly 96 characters of [0-9a-f].
func NormalizePubkey(raw string) (Pubkey, error) {
	trimmed := strings.ToLower(strings.TrimSpace(raw))
	if trimmed == "" {
		return "", fmt.Errorf("%w: empty key", ErrInvalidAddress)
	}
	body := strings.TrimPrefix(trimmed, "0x")
	if !hexBodyPattern.MatchString(body) {
		return "", fmt.Errorf("%w: %q", ErrInvalidAddress, raw)
	}
	return Pubkey("0x" + body), nil
}

// Short returns the first 10 characters, the truncated form used in log
// lines and Slack messages throughout the duty engine.
func (p Pubkey) Short() string {
	s := string(p)
	if len(s) <= 10 {
		return s
	}
	return s[:10]
}
