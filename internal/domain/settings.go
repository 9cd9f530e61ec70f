package domain

// Provider selects the chat-completion backend.
type Provider string

// Providers.
const (
	ProviderOpenAI Provider = "openai"
	ProviderCustom Provider = "custom"
)

// Theme is the UI color scheme.
type Theme string

// Themes.
const (
	ThemeDark   Theme = "dark"
	ThemeLight  Theme = "light"
	ThemeSystem Theme = "system"
)

// CurrentSchemaVersion is written alongside persisted state.
const CurrentSchemaVersion = 1

// Settings is the user's configuration. It embeds the full prompt catalog.
type Settings struct {
	Provider              Provider `json:"provider"`
	OpenAIAPIKey          string   `json:"openai_api_key"`
	CustomAPIURL          string   `json:"custom_api_url"`
	CustomAPIKey          string   `json:"custom_api_key"`
	DefaultLanguage       Language `json:"default_language"`
	DefaultPolishTemplate string   `json:"default_polish_template"`
	Theme                 Theme    `json:"theme"`
	UILanguage            string   `json:"ui_language"`
	Prompts               []Prompt `json:"prompts"`
	SchemaVersion         int      `json:"schema_version"`
}

// DefaultSettings returns settings for a fresh install, without prompts.
func DefaultSettings() *Settings {
	return &Settings{
		Provider:              ProviderOpenAI,
		DefaultLanguage:       LanguageEnglish,
		DefaultPolishTemplate: "professional",
		Theme:                 ThemeDark,
		UILanguage:            "en",
		SchemaVersion:         CurrentSchemaVersion,
	}
}

// Credentials are what the transform client needs for one call.
type Credentials struct {
	APIKey  string
	BaseURL string
}
