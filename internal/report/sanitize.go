package report

import (
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// substitutions map typographic characters to plain ASCII equivalents.
var substitutions = map[rune]rune{
	'—': '-', // em dash
	'–': '-', // en dash
	'‒': '-',
	'−': '-', // minus sign
	'‘': '\'',
	'’': '\'',
	'“': '"',
	'”': '"',
	'•': '-',
}

func substitute(r rune) rune {
	if s, ok := substitutions[r]; ok {
		return s
	}
	return r
}

// PDFText prepares s for the PDF core fonts, which only cover Latin-1.
// Compatibility forms are decomposed (an ellipsis becomes "..."), typographic
// punctuation is replaced and anything left outside Latin-1 is dropped.
func PDFText(s string) string {
	t := transform.Chain(
		norm.NFKC,
		runes.Map(substitute),
		runes.Remove(runes.Predicate(func(r rune) bool {
			return r > unicode.MaxLatin1 || (unicode.IsControl(r) && r != '\n' && r != '\t')
		})),
	)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

// DOCXText drops characters that XML 1.0 cannot carry. Escaping is left to
// the writer.
func DOCXText(s string) string {
	out, _, err := transform.String(runes.Remove(runes.Predicate(invalidXML)), s)
	if err != nil {
		return s
	}
	return out
}

func invalidXML(r rune) bool {
	switch {
	case r == '\t', r == '\n', r == '\r':
		return false
	case r < 0x20:
		return true
	case r >= 0xD800 && r <= 0xDFFF, r == 0xFFFE, r == 0xFFFF:
		return true
	default:
		return false
	}
}
