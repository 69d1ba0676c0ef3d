// Package csvline splits a single CSV text line into trimmed fields.
//
// It is not an RFC 4180 reader: there is no escaping of embedded quotes,
// no multi-line records and the delimiter is always a comma. Two quoting
// conventions are available, selected with Mode.
package csvline

import (
	"fmt"
	"strings"
)

// Mode selects how double quotes are interpreted.
type Mode int

const (
	// ModeLegacy toggles the quoted state on every double quote, wherever it
	// appears, and never keeps the quote character. An unbalanced quote turns
	// every following comma on the line into field content.
	ModeLegacy Mode = iota
	// ModeStrict only honors quotes that wrap a whole field. Other quotes are
	// literal, and an opening quote that is never closed is literal too.
	ModeStrict
)

const (
	modeNameLegacy = "legacy"
	modeNameStrict = "strict"
)

// String returns the configuration name of the mode.
func (m Mode) String() string {
	switch m {
	case ModeLegacy:
		return modeNameLegacy
	case ModeStrict:
		return modeNameStrict
	default:
		return fmt.Sprintf("mode(%d)", int(m))
	}
}

// ParseModeName maps a configuration value to a Mode. An empty name is legacy.
func ParseModeName(name string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", modeNameLegacy:
		return ModeLegacy, nil
	case modeNameStrict:
		return ModeStrict, nil
	default:
		return ModeLegacy, fmt.Errorf("csvline: unknown quote mode %q", name)
	}
}

// Parse splits line using ModeLegacy.
func Parse(line string) []string {
	return parseLegacy(line)
}

// ParseMode splits line using the given mode. It never fails: any input,
// including the empty string, yields at least one field.
func ParseMode(line string, mode Mode) []string {
	if mode == ModeStrict {
		return parseStrict(line)
	}
	return parseLegacy(line)
}

// Quotes and commas are ASCII, so scanning bytes keeps multi-byte runes intact.
func parseLegacy(line string) []string {
	var (
		fields   []string
		field    strings.Builder
		inQuotes bool
	)
	for i := 0; i < len(line); i++ {
		c := line[i]
		switch {
		case c == '"':
			inQuotes = !inQuotes
		case c == ',' && !inQuotes:
			fields = append(fields, strings.TrimSpace(field.String()))
			field.Reset()
		default:
			field.WriteByte(c)
		}
	}
	return append(fields, strings.TrimSpace(field.String()))
}

func parseStrict(line string) []string {
	var fields []string
	pos := 0
	for {
		start := skipSpace(line, pos)
		if start < len(line) && line[start] == '"' {
			content, end, ok := scanQuoted(line, start+1)
			if !ok {
				return append(fields, splitPlain(line[pos:])...)
			}
			fields = append(fields, content)
			if end >= len(line) {
				return fields
			}
			pos = end + 1
			continue
		}

		idx := strings.IndexByte(line[pos:], ',')
		if idx < 0 {
			return append(fields, strings.TrimSpace(line[pos:]))
		}
		fields = append(fields, strings.TrimSpace(line[pos:pos+idx]))
		pos += idx + 1
	}
}

// scanQuoted reads a quoted field body starting just past the opening quote.
// It returns the body, the index of the delimiting comma (or len(line)), and
// false when no closing quote exists.
func scanQuoted(line string, from int) (string, int, bool) {
	var body strings.Builder
	for i := from; i < len(line); i++ {
		c := line[i]
		if c != '"' {
			body.WriteByte(c)
			continue
		}
		next := skipSpace(line, i+1)
		if next == len(line) || line[next] == ',' {
			return body.String(), next, true
		}
		body.WriteByte(c)
	}
	return "", 0, false
}

func splitPlain(s string) []string {
	parts := strings.Split(s, ",")
	for i, p := range parts {
		parts[i] = strings.TrimSpace(p)
	}
	return parts
}

func skipSpace(s string, i int) int {
	for i < len(s) && (s[i] == ' ' || s[i] == '\t') {
		i++
	}
	return i
}
