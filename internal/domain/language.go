package domain

// Language is a supported target language code.
type Language string

// Supported languages.
const (
	LanguageEnglish  Language = "en"
	LanguageChinese  Language = "zh"
	LanguageJapanese Language = "jp"
	LanguageSpanish  Language = "es"
	LanguageFrench   Language = "fr"
	LanguageGerman   Language = "de"
	LanguageKorean   Language = "ko"
)

// LanguageInfo describes how a language is shown and named in prompts.
type LanguageInfo struct {
	Code        Language `json:"code"`
	DisplayName string   `json:"display_name"` // Native name shown in pickers
	Badge       string   `json:"badge"`
	FullName    string   `json:"full_name"` // English name used in translation prompts
}

var languages = []LanguageInfo{
	{Code: LanguageEnglish, DisplayName: "English", Badge: "EN", FullName: "English"},
	{Code: LanguageChinese, DisplayName: "中文", Badge: "ZH", FullName: "Chinese (Simplified)"},
	{Code: LanguageJapanese, DisplayName: "日本語", Badge: "JP", FullName: "Japanese"},
	{Code: LanguageSpanish, DisplayName: "Español", Badge: "ES", FullName: "Spanish"},
	{Code: LanguageFrench, DisplayName: "Français", Badge: "FR", FullName: "French"},
	{Code: LanguageGerman, DisplayName: "Deutsch", Badge: "DE", FullName: "German"},
	{Code: LanguageKorean, DisplayName: "한국어", Badge: "KO", FullName: "Korean"},
}

// Languages returns all supported languages in display order.
func Languages() []LanguageInfo {
	out := make([]LanguageInfo, len(languages))
	copy(out, languages)
	return out
}

// Info returns the descriptor for l.
func (l Language) Info() (LanguageInfo, bool) {
	for _, info := range languages {
		if info.Code == l {
			return info, true
		}
	}
	return LanguageInfo{}, false
}

// Valid reports whether l is supported.
func (l Language) Valid() bool {
	_, ok := l.Info()
	return ok
}

// FullName returns the English name of l, or the raw code if unknown.
func (l Language) FullName() string {
	if info, ok := l.Info(); ok {
		return info.FullName
	}
	return string(l)
}
