// Package store provides the client-side prompt storage used by the CLI:
// a single CRUD+search contract with a device-local SQLite implementation,
// a remote API client, and a failover wrapper that degrades from remote
// to local.
package store

import (
	"context"
	"errors"
	"fmt"

	"promptvault/internal/config"
	"promptvault/internal/models"
	"promptvault/internal/store/local"
	"promptvault/internal/store/remote"
)

// ErrNotFound is returned when a prompt id does not exist in the backend.
var ErrNotFound = errors.New("prompt not found")

// Store is the backend-independent prompt storage contract.
type Store interface {
	GetAllPrompts(ctx context.Context) ([]models.Prompt, error)
	GetPromptByID(ctx context.Context, id string) (*models.Prompt, error)
	SavePrompt(ctx context.Context, draft models.PromptDraft) (*models.Prompt, error)
	UpdatePrompt(ctx context.Context, id string, patch models.PromptPatch) (*models.Prompt, error)
	DeletePrompt(ctx context.Context, id string) error
	ToggleFavorite(ctx context.Context, id string) (*models.Prompt, error)
	IncrementUsage(ctx context.Context, id string) error
	SearchPrompts(ctx context.Context, query string, f models.SearchFilters) ([]models.Prompt, error)
	Categories(ctx context.Context) ([]string, error)
	Tags(ctx context.Context) ([]string, error)
	AIModels(ctx context.Context) ([]string, error)
	Close() error
}

// Open assembles the store for the configured mode: "local", "remote",
// or "hybrid" (remote with local failover). Unknown modes fall back to
// local. onFallback, if non-nil, is invoked whenever a hybrid operation
// was served by the local store after a remote failure.
func Open(cfg config.StoreConfig, onFallback FallbackFunc) (Store, error) {
	switch cfg.Mode {
	case "remote":
		return remoteStore{remote.New(cfg.RemoteBaseURL)}, nil
	case "hybrid":
		l, err := local.New(cfg.LocalPath)
		if err != nil {
			return nil, fmt.Errorf("open local store: %w", err)
		}
		return NewFailover(remoteStore{remote.New(cfg.RemoteBaseURL)}, localStore{l}, onFallback), nil
	default:
		l, err := local.New(cfg.LocalPath)
		if err != nil {
			return nil, fmt.Errorf("open local store: %w", err)
		}
		return localStore{l}, nil
	}
}

// localStore and remoteStore adapt the backend-specific not-found errors
// to the package sentinel so callers match one error regardless of mode.

type localStore struct {
	*local.Store
}

func (s localStore) GetPromptByID(ctx context.Context, id string) (*models.Prompt, error) {
	p, err := s.Store.GetPromptByID(ctx, id)
	return p, mapErr(err, local.ErrNotFound)
}

func (s localStore) UpdatePrompt(ctx context.Context, id string, patch models.PromptPatch) (*models.Prompt, error) {
	p, err := s.Store.UpdatePrompt(ctx, id, patch)
	return p, mapErr(err, local.ErrNotFound)
}

func (s localStore) DeletePrompt(ctx context.Context, id string) error {
	return mapErr(s.Store.DeletePrompt(ctx, id), local.ErrNotFound)
}

func (s localStore) ToggleFavorite(ctx context.Context, id string) (*models.Prompt, error) {
	p, err := s.Store.ToggleFavorite(ctx, id)
	return p, mapErr(err, local.ErrNotFound)
}

func (s localStore) IncrementUsage(ctx context.Context, id string) error {
	return mapErr(s.Store.IncrementUsage(ctx, id), local.ErrNotFound)
}

type remoteStore struct {
	*remote.Client
}

func (s remoteStore) GetPromptByID(ctx context.Context, id string) (*models.Prompt, error) {
	p, err := s.Client.GetPromptByID(ctx, id)
	return p, mapErr(err, remote.ErrNotFound)
}

func (s remoteStore) UpdatePrompt(ctx context.Context, id string, patch models.PromptPatch) (*models.Prompt, error) {
	p, err := s.Client.UpdatePrompt(ctx, id, patch)
	return p, mapErr(err, remote.ErrNotFound)
}

func (s remoteStore) DeletePrompt(ctx context.Context, id string) error {
	return mapErr(s.Client.DeletePrompt(ctx, id), remote.ErrNotFound)
}

func (s remoteStore) ToggleFavorite(ctx context.Context, id string) (*models.Prompt, error) {
	p, err := s.Client.ToggleFavorite(ctx, id)
	return p, mapErr(err, remote.ErrNotFound)
}

func (s remoteStore) IncrementUsage(ctx context.Context, id string) error {
	return mapErr(s.Client.IncrementUsage(ctx, id), remote.ErrNotFound)
}

func mapErr(err, notFound error) error {
	if errors.Is(err, notFound) {
		return ErrNotFound
	}
	return err
}
