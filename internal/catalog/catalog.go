// Package catalog holds the named polish instructions, built-in and user-defined.
package catalog

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"github.com/polypost/polypost-server/internal/domain"
	domainerrors "github.com/polypost/polypost-server/internal/errors"
	"github.com/polypost/polypost-server/internal/validation"
)

// LanguageGuardrail is appended to every resolved polish instruction.
const LanguageGuardrail = "\n\nImportant: keep the rewritten text in the same language as the original text. Do not translate it."

// PromptStore persists the prompt list. Settings embed the catalog, so the
// settings service is the production implementation.
type PromptStore interface {
	LoadPrompts(ctx context.Context) ([]domain.Prompt, error)
	SavePrompts(ctx context.Context, prompts []domain.Prompt) error
}

// Catalog is the ordered prompt list. It is never empty.
type Catalog struct {
	mu        sync.Mutex
	store     PromptStore
	validator *validation.Validator
	logger    *slog.Logger
}

// New creates a catalog over store.
func New(store PromptStore, logger *slog.Logger) *Catalog {
	return &Catalog{
		store:     store,
		validator: validation.New(),
		logger:    logger,
	}
}

// load returns the persisted prompts, seeding built-ins when none are stored.
// Callers hold c.mu.
func (c *Catalog) load(ctx context.Context) ([]domain.Prompt, error) {
	prompts, err := c.store.LoadPrompts(ctx)
	if err != nil {
		return nil, err
	}
	if len(prompts) > 0 {
		return prompts, nil
	}

	prompts = Builtins()
	if err := c.store.SavePrompts(ctx, prompts); err != nil {
		return nil, err
	}
	c.logger.Info("seeded built-in prompts", "count", len(prompts))
	return prompts, nil
}

// List returns the prompts in insertion order.
func (c *Catalog) List(ctx context.Context) ([]domain.Prompt, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.load(ctx)
}

// Get returns the prompt with id.
func (c *Catalog) Get(ctx context.Context, id string) (domain.Prompt, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	prompts, err := c.load(ctx)
	if err != nil {
		return domain.Prompt{}, err
	}
	if i := indexOf(prompts, id); i >= 0 {
		return prompts[i], nil
	}
	return domain.Prompt{}, domainerrors.NotFoundf("prompt %q not found", id)
}

// Add appends a prompt. The id must be new and name and content non-blank.
func (c *Catalog) Add(ctx context.Context, p domain.Prompt) error {
	if err := c.check(p); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	prompts, err := c.load(ctx)
	if err != nil {
		return err
	}
	if indexOf(prompts, p.ID) >= 0 {
		return domainerrors.Validationf("prompt id %q already exists", p.ID)
	}
	if p.Template == "" {
		p.Template = p.ID
	}

	if err := c.store.SavePrompts(ctx, append(prompts, p)); err != nil {
		return err
	}
	c.logger.Info("prompt added", "prompt_id", p.ID)
	return nil
}

// Update replaces the prompt with the same id.
func (c *Catalog) Update(ctx context.Context, p domain.Prompt) error {
	if err := c.check(p); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	prompts, err := c.load(ctx)
	if err != nil {
		return err
	}
	i := indexOf(prompts, p.ID)
	if i < 0 {
		return domainerrors.NotFoundf("prompt %q not found", p.ID)
	}
	if p.Template == "" {
		p.Template = prompts[i].Template
	}
	prompts[i] = p

	return c.store.SavePrompts(ctx, prompts)
}

// Delete removes a prompt. Removing the last remaining prompt is rejected.
func (c *Catalog) Delete(ctx context.Context, id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	prompts, err := c.load(ctx)
	if err != nil {
		return err
	}
	i := indexOf(prompts, id)
	if i < 0 {
		return domainerrors.NotFoundf("prompt %q not found", id)
	}
	if len(prompts) == 1 {
		return domainerrors.InvariantViolation("cannot delete the last remaining prompt")
	}

	next := make([]domain.Prompt, 0, len(prompts)-1)
	next = append(next, prompts[:i]...)
	next = append(next, prompts[i+1:]...)

	if err := c.store.SavePrompts(ctx, next); err != nil {
		return err
	}
	c.logger.Info("prompt deleted", "prompt_id", id)
	return nil
}

// Reset discards user prompts and restores the built-ins.
func (c *Catalog) Reset(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.store.SavePrompts(ctx, Builtins())
}

// ResolveInstruction builds the full instruction for promptID applied to content.
func (c *Catalog) ResolveInstruction(ctx context.Context, promptID, content string) (string, error) {
	p, err := c.Get(ctx, promptID)
	if err != nil {
		return "", err
	}
	return Resolve(p, content), nil
}

// Resolve substitutes every {content} placeholder, or wraps the instruction
// around the original text when there is none.
func Resolve(p domain.Prompt, content string) string {
	var b strings.Builder
	if strings.Contains(p.Content, domain.ContentPlaceholder) {
		b.WriteString(strings.ReplaceAll(p.Content, domain.ContentPlaceholder, content))
	} else {
		b.WriteString(p.Content)
		b.WriteString("\n\nOriginal text:\n")
		b.WriteString(content)
		b.WriteString("\n\nRewritten text:")
	}
	b.WriteString(LanguageGuardrail)
	return b.String()
}

func (c *Catalog) check(p domain.Prompt) error {
	if strings.TrimSpace(p.ID) == "" || strings.TrimSpace(p.Name) == "" || strings.TrimSpace(p.Content) == "" {
		return domainerrors.Validation("prompt id, name and content are required")
	}
	return c.validator.Validate(p)
}

func indexOf(prompts []domain.Prompt, id string) int {
	for i := range prompts {
		if prompts[i].ID == id {
			return i
		}
	}
	return -1
}
