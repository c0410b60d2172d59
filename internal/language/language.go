package language

import "strings"

// Language is an advisory language as selected by the user.
type Language string

const (
	English Language = "English"
	Urdu    Language = "Urdu"
	Punjabi Language = "Punjabi (Pakistani)"
	Sindhi  Language = "Sindhi"
	Pashto  Language = "Pashto"
)

const defaultSpeechTag = "en-US"

var all = []Language{English, Urdu, Punjabi, Sindhi, Pashto}

// All returns the supported languages in display order.
func All() []Language {
	out := make([]Language, len(all))
	copy(out, all)
	return out
}

// Parse resolves a user-supplied name case-insensitively. Partial names such as
// "punjabi" are accepted.
func Parse(name string) (Language, bool) {
	n := strings.ToLower(strings.TrimSpace(name))
	if n == "" {
		return "", false
	}
	for _, l := range all {
		if strings.ToLower(string(l)) == n {
			return l, true
		}
	}
	for _, l := range all {
		if strings.HasPrefix(strings.ToLower(string(l)), n) {
			return l, true
		}
	}
	return "", false
}

// SpeechTag maps a language or a free-form language hint (for example the
// advice_language field of a response) to the BCP-47 tag used for speech
// recognition and local synthesis. Pakistani Punjabi shares ur-PK.
func SpeechTag(hint string) string {
	h := strings.ToLower(hint)
	switch {
	case strings.Contains(h, "urdu"):
		return "ur-PK"
	case strings.Contains(h, "punjabi"):
		return "ur-PK"
	case strings.Contains(h, "sindhi"):
		return "sd-PK"
	case strings.Contains(h, "pashto"):
		return "ps-PK"
	default:
		return defaultSpeechTag
	}
}

// Direction returns the text direction the language is written in.
func Direction(l Language) string {
	if l == English {
		return "ltr"
	}
	return "rtl"
}
