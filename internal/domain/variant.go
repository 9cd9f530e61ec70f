package domain

import "time"

// VariantType distinguishes how a variant was generated.
type VariantType string

// Variant types.
const (
	VariantTypePolish      VariantType = "polish"
	VariantTypeTranslation VariantType = "translation"
)

// Variant is one AI-generated alternative of a post's source content.
// Only IsSelected ever changes after creation.
type Variant struct {
	ID             string      `json:"id"`
	PostID         string      `json:"post_id"`
	Type           VariantType `json:"type"`
	Language       *Language   `json:"language"`        // Set iff Type is translation
	PromptTemplate *string     `json:"prompt_template"` // Set iff Type is polish
	Content        string      `json:"content"`
	AIConfidence   int         `json:"ai_confidence"`
	Description    string      `json:"description"`
	IsSelected     bool        `json:"is_selected"`
	CreatedAt      time.Time   `json:"created_at"`
}

// NewVariant holds the caller-supplied fields of a variant.
type NewVariant struct {
	PostID         string
	Type           VariantType
	Language       Language
	PromptTemplate string
	Content        string
	AIConfidence   int
	Description    string
}

// Label is a short human label: the prompt id for polish, the badge for translation.
func (v *Variant) Label() string {
	switch v.Type {
	case VariantTypeTranslation:
		if v.Language != nil {
			if info, ok := v.Language.Info(); ok {
				return info.Badge
			}
			return string(*v.Language)
		}
	case VariantTypePolish:
		if v.PromptTemplate != nil {
			return *v.PromptTemplate
		}
	}
	return string(v.Type)
}
