package ai

import (
	"strings"

	"github.com/polypost/polypost-server/internal/domain"
)

const (
	polishSystemPrompt    = "You are a professional social media content writer. Output only the rewritten tweet, nothing else."
	translateSystemPrompt = "You are a professional translator. Output only the translated text, nothing else."
)

// translationTemplate asks the model to detect the source language itself.
const translationTemplate = `请自动识别源语言，并将以下内容翻译成 {language}。
如果包含混合语言，请尽量保留专有名词/术语原文，仅翻译必要部分。

You are a professional translator. Detect the source language automatically and translate the text into {language}.
If the input is mixed-language, keep proper nouns/terms as-is and only translate where appropriate.

Important guidelines:
- Maintain the tone and style of the original
- Adapt cultural references when necessary
- Keep hashtags in their original form or translate if they have common equivalents
- Ensure the translation fits within 280 characters
- Make the translation sound natural to native speakers

Content:
{content}

Translated ({language}):`

// TranslationPrompt renders the translation request for content into target.
func TranslationPrompt(content string, target domain.Language) string {
	r := strings.NewReplacer("{content}", content, "{language}", target.FullName())
	return r.Replace(translationTemplate)
}
