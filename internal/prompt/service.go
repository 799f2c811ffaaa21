package prompt

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"promptvault/internal/models"
)

// ErrNotFound is returned when a prompt id does not exist.
var ErrNotFound = errors.New("prompt not found")

type Service struct {
	db  *pgxpool.Pool
	sql sq.StatementBuilderType
}

func NewService(db *pgxpool.Pool) *Service {
	return &Service{
		db:  db,
		sql: sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

var promptColumns = []string{
	"id", "title", "content", "description", "category", "tags", "ai_model",
	"is_favorite", "is_private", "usage_count", "difficulty", "estimated_tokens",
	"language", "industry", "template_variables", "version", "parent_id",
	"author", "source", "license", "created_at", "updated_at",
}

const promptColumnList = `id, title, content, description, category, tags, ai_model,
	is_favorite, is_private, usage_count, difficulty, estimated_tokens,
	language, industry, template_variables, version, parent_id,
	author, source, license, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPrompt(row rowScanner) (*models.Prompt, error) {
	var p models.Prompt
	var tags string
	var vars []byte
	err := row.Scan(
		&p.ID, &p.Title, &p.Content, &p.Description, &p.Category, &tags, &p.AIModel,
		&p.IsFavorite, &p.IsPrivate, &p.UsageCount, &p.Difficulty, &p.EstimatedTokens,
		&p.Language, &p.Industry, &vars, &p.Version, &p.ParentID,
		&p.Author, &p.Source, &p.License, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	p.Tags = models.SplitTags(tags)
	if len(vars) > 0 {
		if err := json.Unmarshal(vars, &p.TemplateVariables); err != nil {
			return nil, fmt.Errorf("decode template variables: %w", err)
		}
	}
	return &p, nil
}

func (s *Service) Create(ctx context.Context, draft models.PromptDraft) (*models.Prompt, error) {
	if draft.Title == "" {
		return nil, errors.New("title required")
	}
	if draft.Content == "" {
		return nil, errors.New("content required")
	}
	if draft.Category == "" {
		draft.Category = "general"
	}
	if draft.Version == "" {
		draft.Version = "1.0"
	}

	vars := draft.TemplateVariables
	if len(vars) == 0 {
		for _, name := range ExtractVariables(draft.Content) {
			vars = append(vars, models.TemplateVariable{Name: name, Type: "text"})
		}
	}
	varsJSON, err := json.Marshal(vars)
	if err != nil {
		return nil, fmt.Errorf("encode template variables: %w", err)
	}
	if vars == nil {
		varsJSON = []byte("[]")
	}

	row := s.db.QueryRow(ctx,
		`INSERT INTO prompts (title, content, description, category, tags, ai_model,
		    is_favorite, is_private, difficulty, estimated_tokens, language, industry,
		    template_variables, version, parent_id, author, source, license)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
		 RETURNING `+promptColumnList,
		draft.Title, draft.Content, draft.Description, draft.Category,
		models.JoinTags(draft.Tags), draft.AIModel, draft.IsFavorite, draft.IsPrivate,
		draft.Difficulty, draft.EstimatedTokens, draft.Language, draft.Industry,
		varsJSON, draft.Version, draft.ParentID, draft.Author, draft.Source, draft.License,
	)
	p, err := scanPrompt(row)
	if err != nil {
		return nil, fmt.Errorf("insert prompt: %w", err)
	}
	return p, nil
}

func (s *Service) Get(ctx context.Context, id string) (*models.Prompt, error) {
	row := s.db.QueryRow(ctx, `SELECT `+promptColumnList+` FROM prompts WHERE id = $1`, id)
	p, err := scanPrompt(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get prompt: %w", err)
	}

	err = s.db.QueryRow(ctx,
		`SELECT COALESCE(AVG(rating), 0), COUNT(*) FROM ratings WHERE prompt_id = $1`,
		id,
	).Scan(&p.AvgRating, &p.TotalRatings)
	if err != nil {
		return nil, fmt.Errorf("get rating aggregates: %w", err)
	}
	return p, nil
}

func (s *Service) List(ctx context.Context, limit, offset int) ([]models.Prompt, error) {
	rows, err := s.db.Query(ctx,
		`SELECT `+promptColumnList+` FROM prompts ORDER BY created_at DESC LIMIT $1 OFFSET $2`,
		limit, offset,
	)
	if err != nil {
		return nil, fmt.Errorf("list prompts: %w", err)
	}
	defer rows.Close()
	return collectPrompts(rows)
}

// Search applies the free-text query (case-insensitive substring over
// title, content, description and the tag column) and the exact-match
// filters. "all" for category or difficulty means no filter; tags match
// when the prompt carries any of the given tags.
func (s *Service) Search(ctx context.Context, query string, f models.SearchFilters, limit, offset int) ([]models.Prompt, error) {
	qb := s.sql.Select(promptColumns...).From("prompts").OrderBy("created_at DESC")

	if query != "" {
		like := "%" + query + "%"
		qb = qb.Where(sq.Or{
			sq.ILike{"title": like},
			sq.ILike{"content": like},
			sq.ILike{"description": like},
			sq.ILike{"tags": like},
		})
	}
	if f.Category != "" && f.Category != "all" {
		qb = qb.Where(sq.Eq{"category": f.Category})
	}
	if f.AIModel != "" && f.AIModel != "all" {
		qb = qb.Where(sq.Eq{"ai_model": f.AIModel})
	}
	if f.Difficulty != "" && f.Difficulty != "all" {
		qb = qb.Where(sq.Eq{"difficulty": f.Difficulty})
	}
	if f.Favorite != nil {
		qb = qb.Where(sq.Eq{"is_favorite": *f.Favorite})
	}
	if len(f.Tags) > 0 {
		qb = qb.Where(sq.Expr("string_to_array(tags, ',') && ?", f.Tags))
	}
	if limit > 0 {
		qb = qb.Limit(uint64(limit)).Offset(uint64(offset))
	}

	sqlStr, args, err := qb.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build search query: %w", err)
	}

	rows, err := s.db.Query(ctx, sqlStr, args...)
	if err != nil {
		return nil, fmt.Errorf("search prompts: %w", err)
	}
	defer rows.Close()
	return collectPrompts(rows)
}

func (s *Service) Update(ctx context.Context, id string, patch models.PromptPatch) (*models.Prompt, error) {
	qb := s.sql.Update("prompts").Set("updated_at", sq.Expr("now()")).Where(sq.Eq{"id": id})

	if patch.Title != nil {
		qb = qb.Set("title", *patch.Title)
	}
	if patch.Content != nil {
		qb = qb.Set("content", *patch.Content)
	}
	if patch.Description != nil {
		qb = qb.Set("description", *patch.Description)
	}
	if patch.Category != nil {
		qb = qb.Set("category", *patch.Category)
	}
	if patch.Tags != nil {
		qb = qb.Set("tags", models.JoinTags(*patch.Tags))
	}
	if patch.AIModel != nil {
		qb = qb.Set("ai_model", *patch.AIModel)
	}
	if patch.IsFavorite != nil {
		qb = qb.Set("is_favorite", *patch.IsFavorite)
	}
	if patch.IsPrivate != nil {
		qb = qb.Set("is_private", *patch.IsPrivate)
	}
	if patch.Difficulty != nil {
		qb = qb.Set("difficulty", *patch.Difficulty)
	}
	if patch.EstimatedTokens != nil {
		qb = qb.Set("estimated_tokens", *patch.EstimatedTokens)
	}
	if patch.Language != nil {
		qb = qb.Set("language", *patch.Language)
	}
	if patch.Industry != nil {
		qb = qb.Set("industry", *patch.Industry)
	}
	if patch.TemplateVariables != nil {
		varsJSON, err := json.Marshal(*patch.TemplateVariables)
		if err != nil {
			return nil, fmt.Errorf("encode template variables: %w", err)
		}
		qb = qb.Set("template_variables", varsJSON)
	}
	if patch.Version != nil {
		qb = qb.Set("version", *patch.Version)
	}
	if patch.Author != nil {
		qb = qb.Set("author", *patch.Author)
	}
	if patch.Source != nil {
		qb = qb.Set("source", *patch.Source)
	}
	if patch.License != nil {
		qb = qb.Set("license", *patch.License)
	}

	sqlStr, args, err := qb.Suffix("RETURNING " + promptColumnList).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build update query: %w", err)
	}

	p, err := scanPrompt(s.db.QueryRow(ctx, sqlStr, args...))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("update prompt: %w", err)
	}
	return p, nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	tag, err := s.db.Exec(ctx, `DELETE FROM prompts WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete prompt: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Service) ToggleFavorite(ctx context.Context, id string) (*models.Prompt, error) {
	row := s.db.QueryRow(ctx,
		`UPDATE prompts SET is_favorite = NOT is_favorite, updated_at = now()
		 WHERE id = $1 RETURNING `+promptColumnList,
		id,
	)
	p, err := scanPrompt(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("toggle favorite: %w", err)
	}
	return p, nil
}

// ExecutionInput records one use of a prompt. Success defaults to true,
// Model defaults to the prompt's configured model.
type ExecutionInput struct {
	Input           string `json:"input,omitempty"`
	Output          string `json:"output,omitempty"`
	Model           string `json:"model,omitempty"`
	TokensUsed      *int   `json:"tokens_used,omitempty"`
	ExecutionTimeMs *int64 `json:"execution_time_ms,omitempty"`
	Success         *bool  `json:"success,omitempty"`
	Feedback        string `json:"feedback,omitempty"`
}

// RecordExecution inserts the execution row and bumps the prompt's usage
// count in one transaction.
func (s *Service) RecordExecution(ctx context.Context, id string, in ExecutionInput) (*models.Execution, error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	var aiModel string
	err = tx.QueryRow(ctx, `SELECT ai_model FROM prompts WHERE id = $1 FOR UPDATE`, id).Scan(&aiModel)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get prompt for execution: %w", err)
	}

	model := in.Model
	if model == "" {
		model = aiModel
	}
	success := true
	if in.Success != nil {
		success = *in.Success
	}

	var e models.Execution
	err = tx.QueryRow(ctx,
		`INSERT INTO executions (prompt_id, input, output, model, tokens_used, execution_time_ms, success, feedback)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 RETURNING id, prompt_id, input, output, model, tokens_used, execution_time_ms, success, feedback, created_at`,
		id, in.Input, in.Output, model, in.TokensUsed, in.ExecutionTimeMs, success, in.Feedback,
	).Scan(&e.ID, &e.PromptID, &e.Input, &e.Output, &e.Model, &e.TokensUsed,
		&e.ExecutionTimeMs, &e.Success, &e.Feedback, &e.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("insert execution: %w", err)
	}

	if _, err := tx.Exec(ctx,
		`UPDATE prompts SET usage_count = usage_count + 1, updated_at = now() WHERE id = $1`, id,
	); err != nil {
		return nil, fmt.Errorf("bump usage count: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return &e, nil
}

type RatingInput struct {
	Rating   int    `json:"rating"`
	Comment  string `json:"comment,omitempty"`
	UserHash string `json:"user_hash,omitempty"`
}

func (s *Service) AddRating(ctx context.Context, id string, in RatingInput) (*models.Rating, error) {
	if in.Rating < 1 || in.Rating > 5 {
		return nil, errors.New("rating must be between 1 and 5")
	}

	var r models.Rating
	err := s.db.QueryRow(ctx,
		`INSERT INTO ratings (prompt_id, rating, comment, user_hash)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id, prompt_id, rating, comment, user_hash, created_at`,
		id, in.Rating, in.Comment, in.UserHash,
	).Scan(&r.ID, &r.PromptID, &r.Rating, &r.Comment, &r.UserHash, &r.CreatedAt)
	if isForeignKeyViolation(err) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("insert rating: %w", err)
	}
	return &r, nil
}

// isForeignKeyViolation reports whether err is Postgres error 23503,
// raised when the referenced prompt row does not exist.
func isForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23503"
}

func (s *Service) ListRatings(ctx context.Context, id string) ([]models.Rating, error) {
	rows, err := s.db.Query(ctx,
		`SELECT id, prompt_id, rating, comment, user_hash, created_at
		 FROM ratings WHERE prompt_id = $1 ORDER BY created_at DESC`,
		id,
	)
	if err != nil {
		return nil, fmt.Errorf("list ratings: %w", err)
	}
	defer rows.Close()

	var ratings []models.Rating
	for rows.Next() {
		var r models.Rating
		if err := rows.Scan(&r.ID, &r.PromptID, &r.Rating, &r.Comment, &r.UserHash, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan rating: %w", err)
		}
		ratings = append(ratings, r)
	}
	return ratings, rows.Err()
}

// Filters returns the distinct categories, models and tags across all
// prompts, each sorted alphabetically.
func (s *Service) Filters(ctx context.Context) (*models.Filters, error) {
	f := &models.Filters{Categories: []string{}, AIModels: []string{}, Tags: []string{}}

	rows, err := s.db.Query(ctx, `SELECT DISTINCT category FROM prompts WHERE category <> '' ORDER BY category`)
	if err != nil {
		return nil, fmt.Errorf("distinct categories: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var c string
		if err := rows.Scan(&c); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		f.Categories = append(f.Categories, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	rows, err = s.db.Query(ctx, `SELECT DISTINCT ai_model FROM prompts WHERE ai_model <> '' ORDER BY ai_model`)
	if err != nil {
		return nil, fmt.Errorf("distinct models: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var m string
		if err := rows.Scan(&m); err != nil {
			return nil, fmt.Errorf("scan model: %w", err)
		}
		f.AIModels = append(f.AIModels, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	rows, err = s.db.Query(ctx, `SELECT tags FROM prompts WHERE tags <> ''`)
	if err != nil {
		return nil, fmt.Errorf("select tags: %w", err)
	}
	defer rows.Close()
	seen := map[string]bool{}
	for rows.Next() {
		var tags string
		if err := rows.Scan(&tags); err != nil {
			return nil, fmt.Errorf("scan tags: %w", err)
		}
		for _, t := range models.SplitTags(tags) {
			if !seen[t] {
				seen[t] = true
				f.Tags = append(f.Tags, t)
			}
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	sort.Strings(f.Tags)

	return f, nil
}

func collectPrompts(rows pgx.Rows) ([]models.Prompt, error) {
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
