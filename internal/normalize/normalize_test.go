package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/polypost/polypost-server/internal/domain"
)

func TestLanguageCode(t *testing.T) {
	tests := []struct {
		input    string
		expected domain.Language
		ok       bool
	}{
		// Supported codes (passthrough)
		{"en", domain.LanguageEnglish, true},
		{"jp", domain.LanguageJapanese, true},
		{"ko", domain.LanguageKorean, true},
		// ISO 639-1 Japanese
		{"ja", domain.LanguageJapanese, true},
		// ISO 639-2 codes
		{"deu", domain.LanguageGerman, true},
		{"ger", domain.LanguageGerman, true}, // bibliographic variant
		{"zho", domain.LanguageChinese, true},
		// Locale codes
		{"en-US", domain.LanguageEnglish, true},
		{"zh_CN", domain.LanguageChinese, true},
		{"ja-JP", domain.LanguageJapanese, true},
		// Language names
		{"Spanish", domain.LanguageSpanish, true},
		{"FRENCH", domain.LanguageFrench, true},
		{"Français", domain.LanguageFrench, true},
		{"中文", domain.LanguageChinese, true},
		{"  german  ", domain.LanguageGerman, true},
		{"ko\x00", domain.LanguageKorean, true},
		// Unsupported or unknown
		{"it", "", false},
		{"italian", "", false},
		{"xx", "", false},
		{"", "", false},
		{"   ", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, ok := LanguageCode(tt.input)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestLanguages_KeepsUnknownForValidation(t *testing.T) {
	got := Languages([]domain.Language{"Spanish", "xx", "ja"})
	assert.Equal(t, []domain.Language{domain.LanguageSpanish, "xx", domain.LanguageJapanese}, got)
	assert.Nil(t, Languages(nil))
}
