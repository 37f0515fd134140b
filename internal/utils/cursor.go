package utils

import (
	"encoding/base64"
	"strings"
	"time"
)

// EncodeCursor renders t as an opaque pagination cursor: URL-safe base64 of
// its RFC3339Nano UTC form.
func EncodeCursor(t time.Time) string {
	return base64.RawURLEncoding.EncodeToString([]byte(t.UTC().Format(time.RFC3339Nano)))
}

// DecodeCursor parses a cursor produced by EncodeCursor. It reports false
// for empty or malformed input; callers treat that as "no cursor".
func DecodeCursor(s string) (time.Time, bool) {
	s = strings.TrimRight(strings.TrimSpace(s), "=")
	if s == "" {
		return time.Time{}, false
	}
	raw, err := base64.RawURLEncoding.DecodeString(s)
	if err != nil {
		return time.Time{}, false
	}
	t, err := time.Parse(time.RFC3339Nano, string(raw))
	if err != nil {
		return time.Time{}, false
	}
	return t.UTC(), true
}
