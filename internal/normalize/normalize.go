// Package normalize resolves the many ways users and browsers name a language
// to one of the supported target codes.
package normalize

import (
	"strings"

	"github.com/polypost/polypost-server/internal/domain"
)

// iso639_2 maps ISO 639-2 (3-letter) codes, terminology and bibliographic, to ISO 639-1.
//
//nolint:gochecknoglobals // Static lookup table for language normalization
var iso639_2 = map[string]string{
	"eng": "en", "spa": "es", "fra": "fr", "fre": "fr", "deu": "de",
	"ger": "de", "jpn": "ja", "zho": "zh", "chi": "zh", "kor": "ko",
}

// languageNames maps English and native language names to ISO 639-1.
//
//nolint:gochecknoglobals // Static lookup table for language normalization
var languageNames = map[string]string{
	"english": "en", "spanish": "es", "español": "es", "espanol": "es",
	"castilian": "es", "french": "fr", "français": "fr", "francais": "fr",
	"german": "de", "deutsch": "de", "japanese": "ja", "日本語": "ja",
	"chinese": "zh", "mandarin": "zh", "中文": "zh", "简体中文": "zh",
	"korean": "ko", "한국어": "ko",
}

// supported maps ISO 639-1 to the codes PolyPost uses. Japanese is "jp" in stored data.
//
//nolint:gochecknoglobals // Static lookup table for language normalization
var supported = map[string]domain.Language{
	"en": domain.LanguageEnglish,
	"zh": domain.LanguageChinese,
	"ja": domain.LanguageJapanese,
	"jp": domain.LanguageJapanese,
	"es": domain.LanguageSpanish,
	"fr": domain.LanguageFrench,
	"de": domain.LanguageGerman,
	"ko": domain.LanguageKorean,
}

// LanguageCode converts various language representations to a supported language.
// It handles:
//   - Supported codes: "es" -> es, "jp" -> jp
//   - ISO 639-1 codes: "ja" -> jp
//   - ISO 639-2 codes: "deu" -> de
//   - Locale codes: "en-US", "zh_CN" -> en, zh
//   - Language names: "Spanish", "Français" -> es, fr
//
// Returns false for unrecognized or unsupported values.
func LanguageCode(raw string) (domain.Language, bool) {
	s := strings.ToLower(strings.TrimSpace(sanitizeString(raw)))
	if s == "" {
		return "", false
	}

	if code, ok := languageNames[s]; ok {
		return supported[code], true
	}

	// Locale codes: keep the language part.
	if idx := strings.IndexAny(s, "-_"); idx > 0 {
		s = s[:idx]
	}

	if lang, ok := supported[s]; ok {
		return lang, true
	}
	if code, ok := iso639_2[s]; ok {
		return supported[code], true
	}
	return "", false
}

// Language resolves raw to a supported language, or returns it unchanged
// so that validation can report it.
func Language(raw domain.Language) domain.Language {
	if lang, ok := LanguageCode(string(raw)); ok {
		return lang
	}
	return raw
}

// Languages applies Language to each element, preserving order.
func Languages(raw []domain.Language) []domain.Language {
	if raw == nil {
		return nil
	}
	out := make([]domain.Language, len(raw))
	for i, l := range raw {
		out[i] = Language(l)
	}
	return out
}

// sanitizeString removes null bytes, which some clipboard sources leave behind.
func sanitizeString(s string) string {
	return strings.Map(func(r rune) rune {
		if r == 0 {
			return -1
		}
		return r
	}, s)
}
