package ics

import (
	"strings"
	"unicode/utf8"
)

// MaxLineOctets is the longest content line RFC 5545 allows, CRLF excluded.
const MaxLineOctets = 75

// lineBreaks maps every line break form onto LF, the only one TEXT values
// can carry.
var lineBreaks = strings.NewReplacer("\r\n", "\n", "\r", "\n")

// Fold splits every CRLF terminated line longer than MaxLineOctets into
// continuation lines starting with a single space. Multi-byte runes are
// never split.
func Fold(data string) string {
	lines := strings.Split(strings.TrimSuffix(data, "\r\n"), "\r\n")
	var b strings.Builder
	b.Grow(len(data) + len(data)/MaxLineOctets*3)
	for _, line := range lines {
		limit := MaxLineOctets
		for len(line) > limit {
			cut := limit
			for cut > 0 && !utf8.RuneStart(line[cut]) {
				cut--
			}
			b.WriteString(line[:cut])
			b.WriteString("\r\n ")
			line = line[cut:]
			// the leading space counts towards the continuation line
			limit = MaxLineOctets - 1
		}
		b.WriteString(line)
		b.WriteString("\r\n")
	}
	return b.String()
}
