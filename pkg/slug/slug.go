package slug

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	nonAlnum  = regexp.MustCompile(`[^a-z0-9]+`)
	codeStrip = regexp.MustCompile(`[^A-Z0-9_-]+`)
	dReplacer = strings.NewReplacer("đ", "d", "Đ", "D")
)

// Fold strips Vietnamese diacritics: "Khuyến mãi Tết" becomes "Khuyen mai Tet".
// đ/Đ are not combining marks and are mapped explicitly.
func Fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, dReplacer.Replace(s))
	if err != nil {
		return s
	}
	return out
}

// Generate makes a URL slug: "Mẫu Website Spa & Làm Đẹp" becomes "mau-website-spa-lam-dep".
func Generate(name string) string {
	s := strings.ToLower(Fold(strings.TrimSpace(name)))
	s = nonAlnum.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}

// Code normalizes a discount code for storage and lookup: trimmed, folded,
// upper-cased, with anything outside [A-Z0-9_-] removed.
func Code(raw string) string {
	s := strings.ToUpper(Fold(strings.TrimSpace(raw)))
	return codeStrip.ReplaceAllString(s, "")
}
