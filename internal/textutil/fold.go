package textutil

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// foldChain strips combining marks after canonical decomposition. Covers the
// Polish letters built from base letter + diacritic (ą, ć, ę, ń, ó, ś, ż, ź).
var foldChain = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// strokeReplacer handles letters that do not decompose into a base letter
// plus a combining mark, so the NFD pass leaves them untouched.
var strokeReplacer = strings.NewReplacer("ł", "l", "Ł", "L")

// FoldASCII replaces Polish diacritic letters with their ASCII counterparts.
func FoldASCII(value string) string {
	folded, _, err := transform.String(foldChain, value)
	if err != nil {
		folded = value
	}
	return strokeReplacer.Replace(folded)
}

// FoldColumnName converts a district or category label into its canonical
// column-safe form: diacritics folded and hyphens replaced by underscores.
func FoldColumnName(value string) string {
	return strings.ReplaceAll(FoldASCII(value), "-", "_")
}
