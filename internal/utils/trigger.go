package utils

import (
	"strings"
	"unicode/utf8"
)

// MaxTriggerLength is the longest raw trigger accepted, in characters
const MaxTriggerLength = 1000

// NormalizeTrigger trims surrounding whitespace and lower-cases s.
// It is idempotent: NormalizeTrigger(NormalizeTrigger(s)) == NormalizeTrigger(s).
func NormalizeTrigger(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// ValidTrigger reports whether raw is usable as a trigger: non-blank and at
// most MaxTriggerLength characters.
func ValidTrigger(raw string) bool {
	if strings.TrimSpace(raw) == "" {
		return false
	}
	return utf8.RuneCountInString(raw) <= MaxTriggerLength
}
