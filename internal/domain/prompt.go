package domain

// Prompt is a named polish instruction. Content may contain a {content} placeholder.
type Prompt struct {
	ID          string `json:"id" yaml:"id" validate:"required,max=64"`
	Template    string `json:"template" yaml:"template"`
	Name        string `json:"name" yaml:"name" validate:"required,max=100"`
	Description string `json:"description" yaml:"description" validate:"max=500"`
	Content     string `json:"content" yaml:"content" validate:"required,max=4000"`
}

// ContentPlaceholder is substituted with the user's text when present in a prompt.
const ContentPlaceholder = "{content}"
