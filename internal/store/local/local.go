// Package local is the device-scoped prompt store. It keeps the full
// prompt list plus one analytics summary in a SQLite file, seeds itself
// on first open, and supports export/import of backup blobs.
package local

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"promptvault/internal/models"
)

var ErrNotFound = errors.New("prompt not found")

const schemaVersion = "1"

// timeLayout keeps a fixed-width fraction and a fixed zone so the TEXT
// column sorts lexically in chronological order. RFC3339Nano would trim
// trailing zeros and break that.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

// BackupVersion tags exported blobs.
const BackupVersion = "1.0"

type Store struct {
	mu  sync.Mutex
	db  *sql.DB
	sql sq.StatementBuilderType

	now func() time.Time // test hook
}

func New(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." && dir != "" && path != ":memory:" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create store directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// The store is single-writer; one connection avoids SQLITE_BUSY.
	db.SetMaxOpenConns(1)

	s := &Store{
		db:  db,
		sql: sq.StatementBuilder.PlaceholderFormat(sq.Question),
		now: time.Now,
	}

	if err := s.init(context.Background()); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

const schema = `
CREATE TABLE IF NOT EXISTS prompts (
    id                 TEXT PRIMARY KEY,
    title              TEXT NOT NULL,
    content            TEXT NOT NULL,
    description        TEXT NOT NULL DEFAULT '',
    category           TEXT NOT NULL DEFAULT 'general',
    tags               TEXT NOT NULL DEFAULT '[]',
    ai_model           TEXT NOT NULL DEFAULT '',
    is_favorite        INTEGER NOT NULL DEFAULT 0,
    is_private         INTEGER NOT NULL DEFAULT 0,
    usage_count        INTEGER NOT NULL DEFAULT 0,
    difficulty         TEXT NOT NULL DEFAULT '',
    estimated_tokens   INTEGER,
    language           TEXT NOT NULL DEFAULT '',
    industry           TEXT NOT NULL DEFAULT '',
    template_variables TEXT NOT NULL DEFAULT '[]',
    version            TEXT NOT NULL DEFAULT '1.0',
    parent_id          TEXT,
    author             TEXT NOT NULL DEFAULT '',
    source             TEXT NOT NULL DEFAULT '',
    license            TEXT NOT NULL DEFAULT '',
    created_at         TEXT NOT NULL,
    updated_at         TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS analytics (
    id   INTEGER PRIMARY KEY CHECK (id = 1),
    data TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS meta (
    key   TEXT PRIMARY KEY,
    value TEXT NOT NULL
);
`

func (s *Store) init(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("init schema: %w", err)
	}

	var v string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM meta WHERE key = 'schema_version'`).Scan(&v)
	if err == nil {
		return nil // already seeded
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("read schema version: %w", err)
	}

	return s.seed(ctx)
}

// seed installs the example prompt, a zeroed analytics summary and the
// version marker. Runs once per database file.
func (s *Store) seed(ctx context.Context) error {
	now := s.now()
	example := models.Prompt{
		ID:          s.newID(),
		Title:       "Code Review Assistant",
		Content:     "Review the following {{language}} code and point out bugs, style issues and possible improvements:\n\n{{code}}",
		Description: "Structured code review with actionable feedback",
		Category:    "development",
		Tags:        []string{"code-review", "quality"},
		AIModel:     "gpt-4o",
		Difficulty:  "beginner",
		TemplateVariables: []models.TemplateVariable{
			{Name: "language", Type: "text"},
			{Name: "code", Type: "text"},
		},
		Version:   "1.0",
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.insertPrompt(ctx, &example); err != nil {
		return fmt.Errorf("seed example prompt: %w", err)
	}

	a := models.NewAnalyticsSummary()
	a.TotalPrompts = 1
	a.CategoriesUsed = []string{example.Category}
	a.PopularCategories[example.Category] = 1
	a.PopularModels[example.AIModel] = 1
	a.LastActivity = now
	if err := s.saveAnalytics(ctx, a); err != nil {
		return err
	}

	if _, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO meta (key, value) VALUES ('schema_version', ?)`, schemaVersion,
	); err != nil {
		return fmt.Errorf("write schema version: %w", err)
	}
	return nil
}

func (s *Store) newID() string {
	return fmt.Sprintf("prompt_%d_%s", s.now().UnixMilli(), uuid.NewString()[:8])
}

var promptColumns = []string{
	"id", "title", "content", "description", "category", "tags", "ai_model",
	"is_favorite", "is_private", "usage_count", "difficulty", "estimated_tokens",
	"language", "industry", "template_variables", "version", "parent_id",
	"author", "source", "license", "created_at", "updated_at",
}

func (s *Store) insertPrompt(ctx context.Context, p *models.Prompt) error {
	tags, err := json.Marshal(p.Tags)
	if err != nil {
		return fmt.Errorf("encode tags: %w", err)
	}
	vars, err := json.Marshal(p.TemplateVariables)
	if err != nil {
		return fmt.Errorf("encode template variables: %w", err)
	}

	q := s.sql.Insert("prompts").Columns(promptColumns...).Values(
		p.ID, p.Title, p.Content, p.Description, p.Category, string(tags), p.AIModel,
		p.IsFavorite, p.IsPrivate, p.UsageCount, p.Difficulty, p.EstimatedTokens,
		p.Language, p.Industry, string(vars), p.Version, p.ParentID,
		p.Author, p.Source, p.License,
		formatTime(p.CreatedAt), formatTime(p.UpdatedAt),
	)
	sqlStr, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, sqlStr, args...); err != nil {
		return fmt.Errorf("insert prompt: %w", err)
	}
	return nil
}

func (s *Store) writePrompt(ctx context.Context, p *models.Prompt) error {
	tags, err := json.Marshal(p.Tags)
	if err != nil {
		return fmt.Errorf("encode tags: %w", err)
	}
	vars, err := json.Marshal(p.TemplateVariables)
	if err != nil {
		return fmt.Errorf("encode template variables: %w", err)
	}

	q := s.sql.Update("prompts").
		Set("title", p.Title).
		Set("content", p.Content).
		Set("description", p.Description).
		Set("category", p.Category).
		Set("tags", string(tags)).
		Set("ai_model", p.AIModel).
		Set("is_favorite", p.IsFavorite).
		Set("is_private", p.IsPrivate).
		Set("usage_count", p.UsageCount).
		Set("difficulty", p.Difficulty).
		Set("estimated_tokens", p.EstimatedTokens).
		Set("language", p.Language).
		Set("industry", p.Industry).
		Set("template_variables", string(vars)).
		Set("version", p.Version).
		Set("parent_id", p.ParentID).
		Set("author", p.Author).
		Set("source", p.Source).
		Set("license", p.License).
		Set("updated_at", formatTime(p.UpdatedAt)).
		Where(sq.Eq{"id": p.ID})

	sqlStr, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, sqlStr, args...); err != nil {
		return fmt.Errorf("write prompt: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPrompt(row rowScanner) (*models.Prompt, error) {
	var p models.Prompt
	var tags, vars, createdAt, updatedAt string
	err := row.Scan(
		&p.ID, &p.Title, &p.Content, &p.Description, &p.Category, &tags, &p.AIModel,
		&p.IsFavorite, &p.IsPrivate, &p.UsageCount, &p.Difficulty, &p.EstimatedTokens,
		&p.Language, &p.Industry, &vars, &p.Version, &p.ParentID,
		&p.Author, &p.Source, &p.License, &createdAt, &updatedAt,
	)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(tags), &p.Tags); err != nil {
		return nil, fmt.Errorf("decode tags: %w", err)
	}
	if err := json.Unmarshal([]byte(vars), &p.TemplateVariables); err != nil {
		return nil, fmt.Errorf("decode template variables: %w", err)
	}
	if p.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
		return nil, fmt.Errorf("parse created_at: %w", err)
	}
	if p.UpdatedAt, err = time.Parse(time.RFC3339Nano, updatedAt); err != nil {
		return nil, fmt.Errorf("parse updated_at: %w", err)
	}
	return &p, nil
}

func (s *Store) GetAllPrompts(ctx context.Context) ([]models.Prompt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.getAll(ctx)
}

func (s *Store) getAll(ctx context.Context) ([]models.Prompt, error) {
	sqlStr, args, err := s.sql.Select(promptColumns...).From("prompts").OrderBy("created_at DESC").ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}
	rows, err := s.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, fmt.Errorf("select prompts: %w", err)
	}
	defer rows.Close()

	prompts := []models.Prompt{}
	for rows.Next() {
		p, err := scanPrompt(rows)
		if err != nil {
			return nil, fmt.Errorf("scan prompt: %w", err)
		}
		prompts = append(prompts, *p)
	}
	return prompts, rows.Err()
}

func (s *Store) GetPromptByID(ctx context.Context, id string) (*models.Prompt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.getByID(ctx, id)
}

func (s *Store) getByID(ctx context.Context, id string) (*models.Prompt, error) {
	sqlStr, args, err := s.sql.Select(promptColumns...).From("prompts").Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}
	p, err := scanPrompt(s.db.QueryRowContext(ctx, sqlStr, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get prompt: %w", err)
	}
	return p, nil
}

func (s *Store) SavePrompt(ctx context.Context, draft models.PromptDraft) (*models.Prompt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	p := &models.Prompt{
		ID:                s.newID(),
		Title:             draft.Title,
		Content:           draft.Content,
		Description:       draft.Description,
		Category:          draft.Category,
		Tags:              draft.Tags,
		AIModel:           draft.AIModel,
		IsFavorite:        draft.IsFavorite,
		IsPrivate:         draft.IsPrivate,
		Difficulty:        draft.Difficulty,
		EstimatedTokens:   draft.EstimatedTokens,
		Language:          draft.Language,
		Industry:          draft.Industry,
		TemplateVariables: draft.TemplateVariables,
		Version:           draft.Version,
		ParentID:          draft.ParentID,
		Author:            draft.Author,
		Source:            draft.Source,
		License:           draft.License,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	if p.Category == "" {
		p.Category = "general"
	}
	if p.Tags == nil {
		p.Tags = []string{}
	}
	if p.Version == "" {
		p.Version = "1.0"
	}

	if err := s.insertPrompt(ctx, p); err != nil {
		return nil, err
	}
	if err := s.applyEvent(ctx, eventCreate, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *Store) UpdatePrompt(ctx context.Context, id string, patch models.PromptPatch) (*models.Prompt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.update(ctx, id, patch)
}

func (s *Store) update(ctx context.Context, id string, patch models.PromptPatch) (*models.Prompt, error) {
	p, err := s.getByID(ctx, id)
	if err != nil {
		return nil, err
	}

	patch.Apply(p)
	p.UpdatedAt = s.now()

	if err := s.writePrompt(ctx, p); err != nil {
		return nil, err
	}
	if err := s.applyEvent(ctx, eventUpdate, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *Store) DeletePrompt(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, `DELETE FROM prompts WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete prompt: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete prompt: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return s.applyEvent(ctx, eventDelete, nil)
}

func (s *Store) ToggleFavorite(ctx context.Context, id string) (*models.Prompt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, err := s.getByID(ctx, id)
	if err != nil {
		return nil, err
	}
	flipped := !p.IsFavorite
	return s.update(ctx, id, models.PromptPatch{IsFavorite: &flipped})
}

func (s *Store) IncrementUsage(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx,
		`UPDATE prompts SET usage_count = usage_count + 1, updated_at = ? WHERE id = ?`,
		formatTime(s.now()), id,
	)
	if err != nil {
		return fmt.Errorf("increment usage: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("increment usage: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return s.applyEvent(ctx, eventExecute, nil)
}

// SearchPrompts filters the full snapshot in process: the free-text query
// matches title, content, description or any tag case-insensitively, and
// every set filter must hold.
func (s *Store) SearchPrompts(ctx context.Context, query string, f models.SearchFilters) ([]models.Prompt, error) {
	all, err := s.GetAllPrompts(ctx)
	if err != nil {
		return nil, err
	}

	out := []models.Prompt{}
	for _, p := range all {
		if matches(&p, query, f) {
			out = append(out, p)
		}
	}
	return out, nil
}

func matches(p *models.Prompt, query string, f models.SearchFilters) bool {
	if query != "" {
		q := strings.ToLower(query)
		ok := strings.Contains(strings.ToLower(p.Title), q) ||
			strings.Contains(strings.ToLower(p.Content), q) ||
			strings.Contains(strings.ToLower(p.Description), q)
		if !ok {
			for _, t := range p.Tags {
				if strings.Contains(strings.ToLower(t), q) {
					ok = true
					break
				}
			}
		}
		if !ok {
			return false
		}
	}

	if f.Category != "" && f.Category != "all" && p.Category != f.Category {
		return false
	}
	if f.AIModel != "" && f.AIModel != "all" && p.AIModel != f.AIModel {
		return false
	}
	if f.Difficulty != "" && f.Difficulty != "all" && p.Difficulty != f.Difficulty {
		return false
	}
	if f.Favorite != nil && p.IsFavorite != *f.Favorite {
		return false
	}
	if len(f.Tags) > 0 {
		any := false
		for _, want := range f.Tags {
			for _, have := range p.Tags {
				if have == want {
					any = true
					break
				}
			}
			if any {
				break
			}
		}
		if !any {
			return false
		}
	}
	return true
}

func (s *Store) Categories(ctx context.Context) ([]string, error) {
	return s.distinct(ctx, func(p *models.Prompt) []string {
		if p.Category == "" {
			return nil
		}
		return []string{p.Category}
	})
}

func (s *Store) AIModels(ctx context.Context) ([]string, error) {
	return s.distinct(ctx, func(p *models.Prompt) []string {
		if p.AIModel == "" {
			return nil
		}
		return []string{p.AIModel}
	})
}

func (s *Store) Tags(ctx context.Context) ([]string, error) {
	return s.distinct(ctx, func(p *models.Prompt) []string { return p.Tags })
}

func (s *Store) distinct(ctx context.Context, f func(*models.Prompt) []string) ([]string, error) {
	all, err := s.GetAllPrompts(ctx)
	if err != nil {
		return nil, err
	}
	seen := map[string]bool{}
	out := []string{}
	for i := range all {
		for _, v := range f(&all[i]) {
			if !seen[v] {
				seen[v] = true
				out = append(out, v)
			}
		}
	}
	sort.Strings(out)
	return out, nil
}
