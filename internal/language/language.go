// Package language classifies chat messages into the fixed set of supported
// languages and maps each language to its speech-recognition locale.
package language

import "strings"

// Tag identifies a supported language.
type Tag string

const (
	English  Tag = "english"
	Hindi    Tag = "hindi"
	Hinglish Tag = "hinglish"
	Spanish  Tag = "spanish"
	French   Tag = "french"
	German   Tag = "german"
	Arabic   Tag = "arabic"
	Chinese  Tag = "chinese"
)

// Default is returned whenever no other language can be determined.
const Default = English

var all = []Tag{English, Hindi, Hinglish, Spanish, French, German, Arabic, Chinese}

var locales = map[Tag]string{
	English:  "en-US",
	Hindi:    "hi-IN",
	Hinglish: "hi-IN",
	Spanish:  "es-ES",
	French:   "fr-FR",
	German:   "de-DE",
	Arabic:   "ar-SA",
	Chinese:  "zh-CN",
}

// All returns every supported tag in a stable order.
func All() []Tag {
	return append([]Tag(nil), all...)
}

// Valid reports whether t is one of the supported tags.
func (t Tag) Valid() bool {
	_, ok := locales[t]
	return ok
}

// Locale returns the BCP-47 locale used for speech recognition.
// Unknown tags map to the English locale.
func (t Tag) Locale() string {
	if l, ok := locales[t]; ok {
		return l
	}
	return locales[Default]
}

func (t Tag) String() string {
	return string(t)
}

// Parse validates an explicitly requested language. Matching is
// case-insensitive. "auto", the empty string and unknown names are rejected.
func Parse(s string) (Tag, bool) {
	t := Tag(strings.ToLower(strings.TrimSpace(s)))
	if !t.Valid() {
		return "", false
	}
	return t, true
}

// Resolve returns the explicit language when it is valid and otherwise
// falls back to detecting the language of text.
func Resolve(explicit, text string) Tag {
	if t, ok := Parse(explicit); ok {
		return t
	}
	return Detect(text)
}
