// Package chat holds the text and name cleaning applied at every trust
// boundary of the room service.
package chat

import (
	"net/url"
	"strings"
)

const (
	DefaultUser = "guest"
	DefaultRoom = "global"

	MaxNameLength = 24
	MaxTextLength = 500
)

// SanitizeName trims raw, keeps only [A-Za-z0-9_- ] and caps the result at
// MaxNameLength. An empty result yields fallback, or DefaultUser when
// fallback is blank as well.
func SanitizeName(raw, fallback string) string {
	trimmed := strings.TrimSpace(raw)

	var b strings.Builder
	b.Grow(len(trimmed))
	for _, r := range trimmed {
		if isNameRune(r) {
			b.WriteRune(r)
		}
	}

	name := truncate(b.String(), MaxNameLength)
	if name != "" {
		return name
	}
	if fallback == "" {
		return DefaultUser
	}
	return fallback
}

// SanitizeText collapses whitespace runs into one space, trims and caps the
// result at MaxTextLength runes. The result may be empty.
func SanitizeText(raw string) string {
	return truncate(strings.Join(strings.Fields(raw), " "), MaxTextLength)
}

// NormalizeRoom turns a raw path segment into a room name: URL-decoded,
// trimmed, DefaultRoom when empty and capped at maxLen runes when maxLen > 0.
func NormalizeRoom(segment string, maxLen int) string {
	room := segment
	if decoded, err := url.PathUnescape(segment); err == nil {
		room = decoded
	}
	room = strings.TrimSpace(room)
	if room == "" {
		return DefaultRoom
	}
	if maxLen > 0 {
		room = strings.TrimSpace(truncate(room, maxLen))
	}
	return room
}

func isNameRune(r rune) bool {
	switch {
	case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		return true
	case r == '_', r == '-', r == ' ':
		return true
	}
	return false
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
