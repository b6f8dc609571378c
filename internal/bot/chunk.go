package bot

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/nexifit/nexifit/internal/transport"
)

// partLabelMargin leaves room for the "(Part i/n)" prefix so labeled
// parts stay within the transport limit.
const partLabelMargin = 20

var sentenceBreaks = []string{". ", "! ", "? "}

// splitMessage breaks text into transport-sized parts, preferring
// sentence boundaries, then newlines, then spaces. Parts get a
// "(Part i/n)" label when there is more than one.
func splitMessage(text string) []string {
	limit := transport.MaxPartLen - partLabelMargin
	if len(text) <= transport.MaxPartLen {
		return []string{text}
	}

	var parts []string
	rest := text
	for len(rest) > limit {
		cut := breakPoint(rest, limit)
		parts = append(parts, strings.TrimSpace(rest[:cut]))
		rest = strings.TrimSpace(rest[cut:])
	}
	if rest != "" {
		parts = append(parts, rest)
	}

	for i, p := range parts {
		parts[i] = fmt.Sprintf("(Part %d/%d)\n\n%s", i+1, len(parts), p)
	}
	return parts
}

// breakPoint finds the best split position at or before limit.
func breakPoint(s string, limit int) int {
	window := s[:limit]

	best := 0
	for _, sep := range sentenceBreaks {
		if i := strings.LastIndex(window, sep); i >= 0 && i+len(sep) > best {
			best = i + len(sep)
		}
	}
	if best > 0 {
		return best
	}
	if i := strings.LastIndexByte(window, '\n'); i > 0 {
		return i + 1
	}
	if i := strings.LastIndexByte(window, ' '); i > 0 {
		return i + 1
	}
	// One unbroken run longer than the limit; split mid-word as a last
	// resort, backed up to a rune boundary.
	cut := limit
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	if cut == 0 {
		return limit
	}
	return cut
}
