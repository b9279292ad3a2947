// Package sanitize normalizes free text for the PDF core fonts.
//
// The service order report uses the standard PDF fonts, which only cover a
// single-byte Latin-1 character set. Text typed into the form (or pasted from
// messaging apps) routinely carries typographic punctuation and emoji, so
// every value is filtered through Text before layout.
package sanitize

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
)

// Substitute replaces any character the target charset cannot represent.
const Substitute = '?'

// smartPunctuation maps typographic characters to plain ASCII.
var smartPunctuation = strings.NewReplacer(
	"–", "-", // en dash
	"“", `"`, // left double quote
	"”", `"`, // right double quote
	"’", "'", // right single quote
)

// Text converts v to a Latin-1 encoded string.
//
// nil (or a nil pointer) becomes "". Non-string values are formatted with
// fmt. Input that is not valid UTF-8 cannot be decoded for re-encoding and is
// returned unmodified.
func Text(v any) string {
	s, ok := stringify(v)
	if !ok {
		return ""
	}

	s = smartPunctuation.Replace(s)
	if !utf8.ValidString(s) {
		return s
	}

	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		c, ok := charmap.ISO8859_1.EncodeRune(r)
		if !ok {
			c = Substitute
		}
		b.WriteByte(c)
	}
	return b.String()
}

// ToUTF8 decodes a string produced by Text back to UTF-8.
func ToUTF8(latin1 string) string {
	out, err := charmap.ISO8859_1.NewDecoder().String(latin1)
	if err != nil {
		return latin1
	}
	return out
}

func stringify(v any) (string, bool) {
	switch t := v.(type) {
	case nil:
		return "", false
	case string:
		return t, true
	case *string:
		if t == nil {
			return "", false
		}
		return *t, true
	case *float64:
		if t == nil {
			return "", false
		}
		return fmt.Sprint(*t), true
	case fmt.Stringer:
		return t.String(), true
	default:
		return fmt.Sprint(v), true
	}
}
