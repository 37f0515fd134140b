// Package sysutil holds process-level helpers: logger setup and parsing of
// loose boolean flags from env values and query strings.
package sysutil

import (
	"strings"

	"github.com/rs/zerolog"
)

// ParseLevel maps a configured level name to a zerolog level. Matching is
// case-insensitive, "warning" is accepted for warn, and empty or unknown
// names fall back to info.
func ParseLevel(name string) zerolog.Level {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "warning" {
		name = "warn"
	}
	lvl, err := zerolog.ParseLevel(name)
	if err != nil || lvl == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return lvl
}

// IsTruthy reports whether v spells an enabled flag: 1, true, yes, y or on,
// in any case.
func IsTruthy(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "yes", "y", "on":
		return true
	}
	return false
}
