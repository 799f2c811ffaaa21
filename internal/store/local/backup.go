package local

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"

	"promptvault/internal/models"
)

// ErrInvalidBackup is returned by Import when the blob has no prompt list.
var ErrInvalidBackup = errors.New("invalid backup: missing prompt list")

// Export returns the full prompt list plus the analytics summary as an
// opaque backup blob.
func (s *Store) Export(ctx context.Context) (*models.Backup, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	prompts, err := s.getAll(ctx)
	if err != nil {
		return nil, err
	}
	analytics, err := s.loadAnalytics(ctx)
	if err != nil {
		return nil, err
	}
	return &models.Backup{
		Prompts:   prompts,
		Analytics: analytics,
		Version:   BackupVersion,
	}, nil
}

// Import merges a backup into the store. Prompts are merged by id with
// the imported record winning; when the blob carries an analytics summary
// it replaces the stored one wholesale. The whole import is one
// transaction so a bad record leaves the store untouched.
func (s *Store) Import(ctx context.Context, b *models.Backup) error {
	if b == nil || b.Prompts == nil {
		return ErrInvalidBackup
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin import: %w", err)
	}
	defer tx.Rollback()

	for i := range b.Prompts {
		p := &b.Prompts[i]
		if p.ID == "" || p.Title == "" {
			continue
		}
		if p.Tags == nil {
			p.Tags = []string{}
		}
		if err := upsertPrompt(ctx, tx, p); err != nil {
			return err
		}
	}

	if b.Analytics != nil {
		data, err := marshalAnalytics(b.Analytics)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT OR REPLACE INTO analytics (id, data) VALUES (1, ?)`, data,
		); err != nil {
			return fmt.Errorf("import analytics: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit import: %w", err)
	}
	return nil
}

func upsertPrompt(ctx context.Context, tx *sql.Tx, p *models.Prompt) error {
	tags, err := json.Marshal(p.Tags)
	if err != nil {
		return fmt.Errorf("encode tags: %w", err)
	}
	vars := p.TemplateVariables
	if vars == nil {
		vars = []models.TemplateVariable{}
	}
	varsJSON, err := json.Marshal(vars)
	if err != nil {
		return fmt.Errorf("encode template variables: %w", err)
	}
	created := p.CreatedAt
	if created.IsZero() {
		created = time.Now()
	}
	updated := p.UpdatedAt
	if updated.IsZero() {
		updated = created
	}

	q := sq.StatementBuilder.PlaceholderFormat(sq.Question).
		Replace("prompts").Columns(promptColumns...).Values(
		p.ID, p.Title, p.Content, p.Description, p.Category, string(tags), p.AIModel,
		p.IsFavorite, p.IsPrivate, p.UsageCount, p.Difficulty, p.EstimatedTokens,
		p.Language, p.Industry, string(varsJSON), p.Version, p.ParentID,
		p.Author, p.Source, p.License,
		formatTime(created), formatTime(updated),
	)
	sqlStr, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build upsert: %w", err)
	}
	if _, err := tx.ExecContext(ctx, sqlStr, args...); err != nil {
		return fmt.Errorf("import prompt %s: %w", p.ID, err)
	}
	return nil
}

func marshalAnalytics(a *models.AnalyticsSummary) (string, error) {
	data, err := json.Marshal(a)
	if err != nil {
		return "", fmt.Errorf("encode analytics: %w", err)
	}
	return string(data), nil
}

// ClearAll wipes every stored record and re-seeds as on first run.
func (s *Store) ClearAll(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, stmt := range []string{
		`DELETE FROM prompts`,
		`DELETE FROM analytics`,
		`DELETE FROM meta`,
	} {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("clear store: %w", err)
		}
	}
	return s.seed(ctx)
}
