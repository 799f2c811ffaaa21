package store

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"

	"promptvault/internal/metrics"
	"promptvault/internal/models"
)

// FallbackFunc is invoked after an operation was served by the secondary
// store because the primary failed. op names the operation, err is the
// primary's error.
type FallbackFunc func(op string, err error)

// Failover routes every operation to the primary store and retries it
// against the secondary when the primary returns an error. Not-found is
// an answer, not a failure, so ErrNotFound never triggers the fallback.
type Failover struct {
	primary    Store
	secondary  Store
	onFallback FallbackFunc
	degraded   atomic.Bool
}

func NewFailover(primary, secondary Store, onFallback FallbackFunc) *Failover {
	return &Failover{primary: primary, secondary: secondary, onFallback: onFallback}
}

// Degraded reports whether the most recent operation was served by the
// secondary store, so a caller can tell "saved only locally" from a
// primary result. The flag is per-decorator, not per-goroutine;
// concurrent callers should use the FallbackFunc hook instead.
func (f *Failover) Degraded() bool {
	return f.degraded.Load()
}

func (f *Failover) fellBack(op string, err error) {
	f.degraded.Store(true)
	slog.Warn("primary store failed, serving from local", "op", op, "error", err)
	metrics.Global().StoreFallbacks.Inc()
	if f.onFallback != nil {
		f.onFallback(op, err)
	}
}

// fallthru reports whether the primary's error should route the call to
// the secondary.
func fallthru(err error) bool {
	return err != nil && !errors.Is(err, ErrNotFound)
}

func (f *Failover) GetAllPrompts(ctx context.Context) ([]models.Prompt, error) {
	prompts, err := f.primary.GetAllPrompts(ctx)
	if fallthru(err) {
		f.fellBack("get_all_prompts", err)
		return f.secondary.GetAllPrompts(ctx)
	}
	f.degraded.Store(false)
	return prompts, err
}

func (f *Failover) GetPromptByID(ctx context.Context, id string) (*models.Prompt, error) {
	p, err := f.primary.GetPromptByID(ctx, id)
	if fallthru(err) {
		f.fellBack("get_prompt", err)
		return f.secondary.GetPromptByID(ctx, id)
	}
	f.degraded.Store(false)
	return p, err
}

func (f *Failover) SavePrompt(ctx context.Context, draft models.PromptDraft) (*models.Prompt, error) {
	p, err := f.primary.SavePrompt(ctx, draft)
	if fallthru(err) {
		f.fellBack("save_prompt", err)
		return f.secondary.SavePrompt(ctx, draft)
	}
	f.degraded.Store(false)
	return p, err
}

func (f *Failover) UpdatePrompt(ctx context.Context, id string, patch models.PromptPatch) (*models.Prompt, error) {
	p, err := f.primary.UpdatePrompt(ctx, id, patch)
	if fallthru(err) {
		f.fellBack("update_prompt", err)
		return f.secondary.UpdatePrompt(ctx, id, patch)
	}
	f.degraded.Store(false)
	return p, err
}

func (f *Failover) DeletePrompt(ctx context.Context, id string) error {
	err := f.primary.DeletePrompt(ctx, id)
	if fallthru(err) {
		f.fellBack("delete_prompt", err)
		return f.secondary.DeletePrompt(ctx, id)
	}
	f.degraded.Store(false)
	return err
}

func (f *Failover) ToggleFavorite(ctx context.Context, id string) (*models.Prompt, error) {
	p, err := f.primary.ToggleFavorite(ctx, id)
	if fallthru(err) {
		f.fellBack("toggle_favorite", err)
		return f.secondary.ToggleFavorite(ctx, id)
	}
	f.degraded.Store(false)
	return p, err
}

func (f *Failover) IncrementUsage(ctx context.Context, id string) error {
	err := f.primary.IncrementUsage(ctx, id)
	if fallthru(err) {
		f.fellBack("increment_usage", err)
		return f.secondary.IncrementUsage(ctx, id)
	}
	f.degraded.Store(false)
	return err
}

func (f *Failover) SearchPrompts(ctx context.Context, query string, filters models.SearchFilters) ([]models.Prompt, error) {
	prompts, err := f.primary.SearchPrompts(ctx, query, filters)
	if fallthru(err) {
		f.fellBack("search_prompts", err)
		return f.secondary.SearchPrompts(ctx, query, filters)
	}
	f.degraded.Store(false)
	return prompts, err
}

func (f *Failover) Categories(ctx context.Context) ([]string, error) {
	vals, err := f.primary.Categories(ctx)
	if fallthru(err) {
		f.fellBack("categories", err)
		return f.secondary.Categories(ctx)
	}
	f.degraded.Store(false)
	return vals, err
}

func (f *Failover) Tags(ctx context.Context) ([]string, error) {
	vals, err := f.primary.Tags(ctx)
	if fallthru(err) {
		f.fellBack("tags", err)
		return f.secondary.Tags(ctx)
	}
	f.degraded.Store(false)
	return vals, err
}

func (f *Failover) AIModels(ctx context.Context) ([]string, error) {
	vals, err := f.primary.AIModels(ctx)
	if fallthru(err) {
		f.fellBack("ai_models", err)
		return f.secondary.AIModels(ctx)
	}
	f.degraded.Store(false)
	return vals, err
}

// Close closes both stores and returns the first error seen.
func (f *Failover) Close() error {
	errPrimary := f.primary.Close()
	errSecondary := f.secondary.Close()
	if errPrimary != nil {
		return errPrimary
	}
	return errSecondary
}
