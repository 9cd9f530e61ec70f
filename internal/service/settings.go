package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/polypost/polypost-server/internal/catalog"
	"github.com/polypost/polypost-server/internal/domain"
	domainerrors "github.com/polypost/polypost-server/internal/errors"
	"github.com/polypost/polypost-server/internal/secret"
	"github.com/polypost/polypost-server/internal/sse"
	"github.com/polypost/polypost-server/internal/validation"
)

// SettingsService manages the settings object, which also embeds the prompt
// catalog. API keys are sealed before they reach the sync tier.
type SettingsService struct {
	mu             sync.Mutex
	repo           SettingsRepository
	sealer         *secret.Sealer // nil stores keys as given
	defaultBaseURL string
	validator      *validation.Validator
	emitter        sse.Emitter
	logger         *slog.Logger

	hooksMu  sync.Mutex
	onChange []func()
}

// NewSettingsService creates a new settings service. defaultBaseURL is the
// endpoint used by the openai provider.
func NewSettingsService(repo SettingsRepository, sealer *secret.Sealer, defaultBaseURL string, emitter sse.Emitter, logger *slog.Logger) *SettingsService {
	return &SettingsService{
		repo:           repo,
		sealer:         sealer,
		defaultBaseURL: strings.TrimRight(defaultBaseURL, "/"),
		validator:      validation.New(),
		emitter:        emitter,
		logger:         logger,
	}
}

// UpdateSettingsRequest is a partial update. Nil fields are left unchanged.
type UpdateSettingsRequest struct {
	Provider              *domain.Provider `json:"provider,omitempty" validate:"omitempty,oneof=openai custom"`
	OpenAIAPIKey          *string          `json:"openai_api_key,omitempty" validate:"omitempty,max=512"`
	CustomAPIURL          *string          `json:"custom_api_url,omitempty" validate:"omitempty,max=2048"`
	CustomAPIKey          *string          `json:"custom_api_key,omitempty" validate:"omitempty,max=512"`
	DefaultLanguage       *domain.Language `json:"default_language,omitempty" validate:"omitempty,language"`
	DefaultPolishTemplate *string          `json:"default_polish_template,omitempty" validate:"omitempty,notblank"`
	Theme                 *domain.Theme    `json:"theme,omitempty" validate:"omitempty,oneof=dark light system"`
	UILanguage            *string          `json:"ui_language,omitempty" validate:"omitempty,oneof=en zh"`
}

// OnChange registers fn to run after every successful settings write.
func (s *SettingsService) OnChange(fn func()) {
	s.hooksMu.Lock()
	defer s.hooksMu.Unlock()
	s.onChange = append(s.onChange, fn)
}

// Get returns the settings with API keys in clear text. Defaults are returned
// when nothing was saved yet, and built-in prompts fill an empty catalog.
func (s *SettingsService) Get(ctx context.Context) (*domain.Settings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load(ctx)
}

// Update applies a partial update.
func (s *SettingsService) Update(ctx context.Context, req UpdateSettingsRequest) (*domain.Settings, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	s.mu.Lock()
	settings, err := s.load(ctx)
	if err != nil {
		s.mu.Unlock()
		return nil, err
	}

	if req.Provider != nil {
		settings.Provider = *req.Provider
	}
	if req.OpenAIAPIKey != nil {
		settings.OpenAIAPIKey = strings.TrimSpace(*req.OpenAIAPIKey)
	}
	if req.CustomAPIURL != nil {
		settings.CustomAPIURL = strings.TrimSpace(*req.CustomAPIURL)
	}
	if req.CustomAPIKey != nil {
		settings.CustomAPIKey = strings.TrimSpace(*req.CustomAPIKey)
	}
	if req.DefaultLanguage != nil {
		settings.DefaultLanguage = *req.DefaultLanguage
	}
	if req.DefaultPolishTemplate != nil {
		settings.DefaultPolishTemplate = *req.DefaultPolishTemplate
	}
	if req.Theme != nil {
		settings.Theme = *req.Theme
	}
	if req.UILanguage != nil {
		settings.UILanguage = *req.UILanguage
	}

	err = s.save(ctx, settings)
	s.mu.Unlock()
	if err != nil {
		return nil, err
	}

	s.changed()
	s.logger.Info("settings updated", "provider", settings.Provider)
	return settings, nil
}

// Credentials resolves the key and base URL of the active provider.
func (s *SettingsService) Credentials(ctx context.Context) (domain.Credentials, error) {
	settings, err := s.Get(ctx)
	if err != nil {
		return domain.Credentials{}, err
	}

	if settings.Provider == domain.ProviderCustom {
		if settings.CustomAPIKey == "" || settings.CustomAPIURL == "" {
			return domain.Credentials{}, domainerrors.Auth("Please configure your Custom API settings in Settings")
		}
		return domain.Credentials{APIKey: settings.CustomAPIKey, BaseURL: settings.CustomAPIURL}, nil
	}

	if settings.OpenAIAPIKey == "" {
		return domain.Credentials{}, domainerrors.Auth("Please configure your OpenAI API key in Settings")
	}
	return domain.Credentials{APIKey: settings.OpenAIAPIKey, BaseURL: s.defaultBaseURL}, nil
}

// LoadPrompts returns the persisted prompt list, which may be empty.
func (s *SettingsService) LoadPrompts(ctx context.Context) ([]domain.Prompt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	settings, err := s.repo.GetSettings(ctx)
	if err != nil || settings == nil {
		return nil, err
	}
	return settings.Prompts, nil
}

// SavePrompts replaces the prompt list.
func (s *SettingsService) SavePrompts(ctx context.Context, prompts []domain.Prompt) error {
	s.mu.Lock()
	settings, err := s.load(ctx)
	if err != nil {
		s.mu.Unlock()
		return err
	}
	settings.Prompts = prompts
	err = s.save(ctx, settings)
	s.mu.Unlock()
	if err != nil {
		return err
	}

	s.changed()
	return nil
}

// load reads and unseals the settings. Callers hold s.mu.
func (s *SettingsService) load(ctx context.Context) (*domain.Settings, error) {
	settings, err := s.repo.GetSettings(ctx)
	if err != nil {
		return nil, err
	}
	if settings == nil {
		settings = domain.DefaultSettings()
	}
	if len(settings.Prompts) == 0 {
		settings.Prompts = catalog.Builtins()
	}

	if s.sealer != nil {
		if settings.OpenAIAPIKey, err = s.sealer.Open(settings.OpenAIAPIKey); err != nil {
			return nil, fmt.Errorf("open openai api key: %w", err)
		}
		if settings.CustomAPIKey, err = s.sealer.Open(settings.CustomAPIKey); err != nil {
			return nil, fmt.Errorf("open custom api key: %w", err)
		}
	}
	return settings, nil
}

// save seals a copy of settings and writes it. Callers hold s.mu.
func (s *SettingsService) save(ctx context.Context, settings *domain.Settings) error {
	stored := *settings
	stored.SchemaVersion = domain.CurrentSchemaVersion

	if s.sealer != nil {
		var err error
		if stored.OpenAIAPIKey, err = s.sealer.Seal(settings.OpenAIAPIKey); err != nil {
			return fmt.Errorf("seal openai api key: %w", err)
		}
		if stored.CustomAPIKey, err = s.sealer.Seal(settings.CustomAPIKey); err != nil {
			return fmt.Errorf("seal custom api key: %w", err)
		}
	}

	return s.repo.SaveSettings(ctx, &stored)
}

func (s *SettingsService) changed() {
	s.emitter.Emit(sse.NewSettingsUpdatedEvent())

	s.hooksMu.Lock()
	hooks := append([]func(){}, s.onChange...)
	s.hooksMu.Unlock()
	for _, fn := range hooks {
		fn()
	}
}

// Redacted returns a copy of settings safe to send to clients: API keys are
// reduced to their last four characters.
func Redacted(settings *domain.Settings) *domain.Settings {
	out := *settings
	out.OpenAIAPIKey = maskKey(settings.OpenAIAPIKey)
	out.CustomAPIKey = maskKey(settings.CustomAPIKey)
	return &out
}

func maskKey(key string) string {
	if key == "" {
		return ""
	}
	if len(key) <= 8 {
		return "****"
	}
	return "****" + key[len(key)-4:]
}
