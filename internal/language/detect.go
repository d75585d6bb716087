package language

import (
	"strings"
	"unicode"
)

var (
	arabicScript = &unicode.RangeTable{R16: []unicode.Range16{{Lo: 0x0600, Hi: 0x06FF, Stride: 1}}}
	cjkIdeograph = &unicode.RangeTable{R16: []unicode.Range16{{Lo: 0x4E00, Hi: 0x9FFF, Stride: 1}}}
	devanagari   = &unicode.RangeTable{R16: []unicode.Range16{{Lo: 0x0900, Hi: 0x097F, Stride: 1}}}
)

// Lowercase sets; input is lowered before matching.
const (
	spanishMarks = "áéíóúüñ¿¡"
	frenchMarks  = "àâäèéêëïîôùûüÿœæç"
	germanMarks  = "äöüß"
)

// Detect classifies text using character-class heuristics. The first
// matching rule wins:
//
//	Arabic script                      → arabic
//	CJK ideograph                      → chinese
//	Devanagari without Latin letters   → hindi
//	Devanagari with Latin letters      → hinglish
//	Spanish diacritics or ¿ ¡          → spanish
//	French diacritics                  → french
//	German umlauts or ß                → german
//	anything else                      → english
func Detect(text string) Tag {
	var hasArabic, hasCJK, hasDevanagari, hasLatin bool
	for _, r := range text {
		switch {
		case unicode.Is(arabicScript, r):
			hasArabic = true
		case unicode.Is(cjkIdeograph, r):
			hasCJK = true
		case unicode.Is(devanagari, r):
			hasDevanagari = true
		case r < unicode.MaxASCII && unicode.IsLetter(r):
			hasLatin = true
		}
	}

	switch {
	case hasArabic:
		return Arabic
	case hasCJK:
		return Chinese
	case hasDevanagari && !hasLatin:
		return Hindi
	case hasDevanagari:
		return Hinglish
	}

	lower := strings.ToLower(text)
	switch {
	case strings.ContainsAny(lower, spanishMarks):
		return Spanish
	case strings.ContainsAny(lower, frenchMarks):
		return French
	case strings.ContainsAny(lower, germanMarks):
		return German
	}
	return Default
}
