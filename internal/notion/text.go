package notion

import (
	"strings"
	"unicode"
	"unicode/utf16"
)

const (
	// MaxRichTextLength is the largest rich-text segment written to Notion
	MaxRichTextLength = 1999

	// maxRichTextSegments is the most segments Notion accepts in one property
	maxRichTextSegments = 100
)

// SanitizeText trims s and removes control characters other than newlines and tabs
func SanitizeText(s string) string {
	return strings.Map(func(r rune) rune {
		if r == '\n' || r == '\t' {
			return r
		}
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, strings.TrimSpace(s))
}

// ChunkText splits s into segments of at most max UTF-16 code units, the unit
// Notion counts its text limits in. Runes are never split.
// Joining the segments yields s again.
func ChunkText(s string, max int) []string {
	if max <= 0 {
		max = MaxRichTextLength
	}
	if s == "" {
		return nil
	}

	var chunks []string
	start, units := 0, 0
	for i, r := range s {
		n := utf16.RuneLen(r)
		if n < 0 {
			n = 1
		}
		if units+n > max && i > start {
			chunks = append(chunks, s[start:i])
			start, units = i, 0
		}
		units += n
	}
	return append(chunks, s[start:])
}

// richText builds a rich_text property value from text, chunked to the Notion limit
func richText(text string) []map[string]interface{} {
	chunks := ChunkText(text, MaxRichTextLength)
	if len(chunks) > maxRichTextSegments {
		chunks = chunks[:maxRichTextSegments]
	}
	segments := make([]map[string]interface{}, 0, len(chunks))
	for _, chunk := range chunks {
		segments = append(segments, map[string]interface{}{
			"type": "text",
			"text": map[string]interface{}{"content": chunk},
		})
	}
	return segments
}
