package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/polypost/polypost-server/internal/ai"
	"github.com/polypost/polypost-server/internal/domain"
	domainerrors "github.com/polypost/polypost-server/internal/errors"
	"github.com/polypost/polypost-server/internal/permission"
	"github.com/polypost/polypost-server/internal/sse"
)

// Transformer performs the chat-completion calls.
type Transformer interface {
	Polish(ctx context.Context, content, instruction string, creds domain.Credentials) (ai.Result, error)
	Translate(ctx context.Context, content string, target domain.Language, creds domain.Credentials) (ai.Result, error)
}

// Authorizer decides whether an API origin may be contacted.
type Authorizer interface {
	EnsureAuthorized(ctx context.Context, baseURL string) permission.Result
}

// InstructionResolver turns a prompt id and content into a polish instruction.
type InstructionResolver interface {
	ResolveInstruction(ctx context.Context, promptID, content string) (string, error)
}

// CredentialSource resolves credentials for the active provider.
type CredentialSource interface {
	Credentials(ctx context.Context) (domain.Credentials, error)
}

// SourceMode picks the text a translation batch starts from.
type SourceMode string

// Source modes.
const (
	SourcePost     SourceMode = "post"
	SourceSelected SourceMode = "selected"
)

// PolishRequest asks for one polish of a post.
type PolishRequest struct {
	PostID   string `json:"post_id" validate:"required"`
	PromptID string `json:"prompt_id" validate:"required"`
	// Content overrides the post's saved source, e.g. unsaved editor text.
	Content string `json:"content,omitempty"`
}

// TranslateRequest asks for one translation per target, in order.
type TranslateRequest struct {
	PostID     string            `json:"post_id" validate:"required"`
	Targets    []domain.Language `json:"targets"`
	SourceMode SourceMode        `json:"source_mode,omitempty" validate:"omitempty,oneof=post selected"`
	// Content overrides the post's saved source in post mode.
	Content string `json:"content,omitempty"`
}

// BatchResult reports a translation batch. On failure Variants holds what was
// created before the failing target.
type BatchResult struct {
	BatchID  string                `json:"batch_id"`
	PostID   string                `json:"post_id"`
	Variants []*domain.Variant     `json:"variants"`
	Progress sse.ProgressEventData `json:"progress"`
}

// Orchestrator drives polish and translation requests end to end.
type Orchestrator struct {
	posts       *PostService
	variants    *VariantService
	prompts     InstructionResolver
	creds       CredentialSource
	gate        Authorizer
	transformer Transformer
	emitter     sse.Emitter
	logger      *slog.Logger

	newBatchID func() string

	mu       sync.Mutex
	progress map[string]sse.ProgressEventData // by post id
}

// NewOrchestrator creates a new orchestrator.
func NewOrchestrator(
	posts *PostService,
	variants *VariantService,
	prompts InstructionResolver,
	creds CredentialSource,
	gate Authorizer,
	transformer Transformer,
	emitter sse.Emitter,
	logger *slog.Logger,
) *Orchestrator {
	return &Orchestrator{
		posts:       posts,
		variants:    variants,
		prompts:     prompts,
		creds:       creds,
		gate:        gate,
		transformer: transformer,
		emitter:     emitter,
		logger:      logger,
		newBatchID:  uuid.NewString,
		progress:    make(map[string]sse.ProgressEventData),
	}
}

// Polish rewrites a post with a prompt. The new variant becomes the post's
// selected one. Nothing is persisted when any step fails.
func (o *Orchestrator) Polish(ctx context.Context, req PolishRequest) (*domain.Variant, error) {
	post, err := o.posts.Get(ctx, req.PostID)
	if err != nil {
		return nil, err
	}

	// 1. Non-empty input.
	content := req.Content
	if content == "" {
		content = post.SourceContent
	}
	if strings.TrimSpace(content) == "" {
		return nil, domainerrors.EmptyInput("Please enter some content to polish")
	}

	// 2. Prompt.
	instruction, err := o.prompts.ResolveInstruction(ctx, req.PromptID, content)
	if err != nil {
		return nil, err
	}

	// 3. Credentials and 4. permission.
	creds, err := o.authorize(ctx)
	if err != nil {
		return nil, err
	}

	// 5. Transform.
	result, err := o.transformer.Polish(ctx, content, instruction, creds)
	if err != nil {
		o.logger.Warn("polish failed", "post_id", post.ID, "prompt_id", req.PromptID, "error", err)
		return nil, err
	}

	// 6. Persist and select.
	v, err := o.variants.Add(ctx, domain.NewVariant{
		PostID:         post.ID,
		Type:           domain.VariantTypePolish,
		PromptTemplate: req.PromptID,
		Content:        result.Content,
		AIConfidence:   result.Confidence,
		Description:    result.Description,
	})
	if err != nil {
		return nil, err
	}
	if err := o.variants.Select(ctx, v.ID); err != nil {
		if delErr := o.variants.Delete(ctx, v.ID); delErr != nil {
			o.logger.Error("failed to roll back unselected variant", "variant_id", v.ID, "error", delErr)
		}
		return nil, err
	}
	v.IsSelected = true

	o.logger.Info("post polished", "post_id", post.ID, "prompt_id", req.PromptID, "variant_id", v.ID, "confidence", v.AIConfidence)
	return v, nil
}

// TranslateBatch translates a post into each target in order, one call at a
// time. Each result is selected as it lands, so the last target ends up
// selected. The first failure stops the batch; variants created before it
// are kept and progress stays at its last value.
func (o *Orchestrator) TranslateBatch(ctx context.Context, req TranslateRequest) (*BatchResult, error) {
	post, err := o.posts.Get(ctx, req.PostID)
	if err != nil {
		return nil, err
	}

	source, err := o.source(ctx, post, req)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(source) == "" {
		return nil, domainerrors.EmptyInput("Please enter some content to translate")
	}
	if len(req.Targets) == 0 {
		return nil, domainerrors.EmptyInput("Please choose at least one target language")
	}
	for _, lang := range req.Targets {
		if !lang.Valid() {
			return nil, domainerrors.Validationf("unsupported language %q", lang)
		}
	}

	// Credentials and permission once for the whole batch.
	creds, err := o.authorize(ctx)
	if err != nil {
		return nil, err
	}

	batch := &BatchResult{
		BatchID:  o.newBatchID(),
		PostID:   post.ID,
		Variants: []*domain.Variant{},
	}
	total := len(req.Targets)

	o.logger.Info("translation batch started", "batch_id", batch.BatchID, "post_id", post.ID, "targets", req.Targets)

	for i, lang := range req.Targets {
		if err := ctx.Err(); err != nil {
			return o.failBatch(batch, domainerrors.Transform("Translation was cancelled.", err))
		}

		label := badge(lang)
		batch.Progress = o.setProgress(batch, i, total, label)

		result, err := o.transformer.Translate(ctx, source, lang, creds)
		if err != nil {
			return o.failBatch(batch, err)
		}

		v, err := o.variants.Add(ctx, domain.NewVariant{
			PostID:       post.ID,
			Type:         domain.VariantTypeTranslation,
			Language:     lang,
			Content:      result.Content,
			AIConfidence: result.Confidence,
			Description:  result.Description,
		})
		if err != nil {
			return o.failBatch(batch, err)
		}
		if err := o.variants.Select(ctx, v.ID); err != nil {
			return o.failBatch(batch, err)
		}
		for _, prev := range batch.Variants {
			prev.IsSelected = false
		}
		v.IsSelected = true
		batch.Variants = append(batch.Variants, v)

		batch.Progress = o.setProgress(batch, i+1, total, label)
	}

	o.clearProgress(post.ID)
	o.emitter.Emit(sse.NewTranslationCompletedEvent(batch.BatchID, post.ID, variantIDs(batch.Variants)))
	o.logger.Info("translation batch completed", "batch_id", batch.BatchID, "post_id", post.ID, "count", len(batch.Variants))

	return batch, nil
}

// QuickTranslate translates ad-hoc text without touching any post.
func (o *Orchestrator) QuickTranslate(ctx context.Context, text string, target domain.Language) (ai.Result, error) {
	if strings.TrimSpace(text) == "" {
		return ai.Result{}, domainerrors.EmptyInput("Please enter some text to translate")
	}
	if !target.Valid() {
		return ai.Result{}, domainerrors.Validationf("unsupported language %q", target)
	}

	creds, err := o.authorize(ctx)
	if err != nil {
		return ai.Result{}, err
	}

	return o.transformer.Translate(ctx, text, target, creds)
}

// Progress returns the last reported progress of a post's running or failed batch.
func (o *Orchestrator) Progress(postID string) (sse.ProgressEventData, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	p, ok := o.progress[postID]
	return p, ok
}

// authorize resolves credentials and runs the permission gate.
func (o *Orchestrator) authorize(ctx context.Context) (domain.Credentials, error) {
	creds, err := o.creds.Credentials(ctx)
	if err != nil {
		return domain.Credentials{}, err
	}
	if strings.TrimSpace(creds.APIKey) == "" {
		return domain.Credentials{}, domainerrors.Auth("Please configure your API key in Settings")
	}

	res := o.gate.EnsureAuthorized(ctx, creds.BaseURL)
	if !res.Granted {
		o.logger.Warn("api origin not authorized", "origin", res.Origin, "reason", res.Reason)
		return domain.Credentials{}, res.Err()
	}
	return creds, nil
}

// source picks the text to translate. Selected mode without a selected
// variant uses the post's source content.
func (o *Orchestrator) source(ctx context.Context, post *domain.Post, req TranslateRequest) (string, error) {
	if req.SourceMode == SourceSelected {
		v, ok, err := o.variants.Selected(ctx, post.ID)
		if err != nil {
			return "", err
		}
		if ok {
			return v.Content, nil
		}
		return post.SourceContent, nil
	}
	if req.Content != "" {
		return req.Content, nil
	}
	return post.SourceContent, nil
}

func (o *Orchestrator) setProgress(batch *BatchResult, completed, total int, label string) sse.ProgressEventData {
	p := sse.ProgressEventData{
		BatchID:      batch.BatchID,
		PostID:       batch.PostID,
		Completed:    completed,
		Total:        total,
		CurrentLabel: label,
	}

	o.mu.Lock()
	o.progress[batch.PostID] = p
	o.mu.Unlock()

	o.emitter.Emit(sse.NewTranslationProgressEvent(p))
	return p
}

func (o *Orchestrator) clearProgress(postID string) {
	o.mu.Lock()
	delete(o.progress, postID)
	o.mu.Unlock()
}

func (o *Orchestrator) failBatch(batch *BatchResult, err error) (*BatchResult, error) {
	o.emitter.Emit(sse.NewTranslationFailedEvent(batch.BatchID, batch.PostID, variantIDs(batch.Variants), err))
	o.logger.Warn("translation batch failed",
		"batch_id", batch.BatchID,
		"post_id", batch.PostID,
		"completed", batch.Progress.Completed,
		"total", batch.Progress.Total,
		"error", err,
	)

	var domainErr *domainerrors.Error
	if !errors.As(err, &domainErr) {
		err = domainerrors.Transform("Failed to translate content. Please check your API key and try again.", err)
	}
	return batch, err
}

func badge(lang domain.Language) string {
	if info, ok := lang.Info(); ok {
		return info.Badge
	}
	return string(lang)
}

func variantIDs(vs []*domain.Variant) []string {
	ids := make([]string, len(vs))
	for i, v := range vs {
		ids[i] = v.ID
	}
	return ids
}
