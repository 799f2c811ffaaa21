package local

import (
	"context"
	"testing"
	"time"

	"promptvault/internal/models"
)

func setupTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(":memory:")
	if err != nil {
		t.Fatalf("create test store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func mustSave(t *testing.T, s *Store, draft models.PromptDraft) *models.Prompt {
	t.Helper()
	p, err := s.SavePrompt(context.Background(), draft)
	if err != nil {
		t.Fatalf("save prompt: %v", err)
	}
	return p
}

func TestSeedOnFirstOpen(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	prompts, err := s.GetAllPrompts(ctx)
	if err != nil {
		t.Fatalf("get all: %v", err)
	}
	if len(prompts) != 1 {
		t.Fatalf("expected 1 seeded prompt, got %d", len(prompts))
	}
	if prompts[0].Title == "" || prompts[0].ID == "" {
		t.Errorf("seeded prompt incomplete: %+v", prompts[0])
	}

	a, err := s.Analytics(ctx)
	if err != nil {
		t.Fatalf("analytics: %v", err)
	}
	if a.TotalPrompts != 1 {
		t.Errorf("expected TotalPrompts=1 after seed, got %d", a.TotalPrompts)
	}
}

func TestSaveAndGetRoundTrip(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	tokens := 120
	saved := mustSave(t, s, models.PromptDraft{
		Title:           "Summarizer",
		Content:         "Summarize {{text}} in three bullet points.",
		Description:     "Short summaries",
		Category:        "writing",
		Tags:            []string{"summary", "writing"},
		AIModel:         "claude-3-5-sonnet",
		Difficulty:      "beginner",
		EstimatedTokens: &tokens,
		TemplateVariables: []models.TemplateVariable{
			{Name: "text", Type: "text"},
		},
	})

	if saved.ID == "" {
		t.Fatal("expected generated id")
	}
	if saved.CreatedAt.IsZero() || saved.UpdatedAt.IsZero() {
		t.Fatal("expected generated timestamps")
	}

	got, err := s.GetPromptByID(ctx, saved.ID)
	if err != nil {
		t.Fatalf("get by id: %v", err)
	}
	if got.Title != saved.Title || got.Content != saved.Content {
		t.Errorf("round trip changed text fields: %+v", got)
	}
	if len(got.Tags) != 2 || got.Tags[0] != "summary" {
		t.Errorf("round trip changed tags: %v", got.Tags)
	}
	if got.EstimatedTokens == nil || *got.EstimatedTokens != 120 {
		t.Errorf("round trip changed estimated tokens: %v", got.EstimatedTokens)
	}
	if len(got.TemplateVariables) != 1 || got.TemplateVariables[0].Name != "text" {
		t.Errorf("round trip changed template variables: %v", got.TemplateVariables)
	}
	if !got.CreatedAt.Equal(saved.CreatedAt) {
		t.Errorf("created_at changed: %v vs %v", got.CreatedAt, saved.CreatedAt)
	}
}

func TestUpdateMergesOnlyPatchedFields(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	p := mustSave(t, s, models.PromptDraft{
		Title:    "Original title",
		Content:  "Original content",
		Category: "development",
		Tags:     []string{"a", "b"},
	})

	s.now = func() time.Time { return p.CreatedAt.Add(time.Minute) }

	newTitle := "New title"
	updated, err := s.UpdatePrompt(ctx, p.ID, models.PromptPatch{Title: &newTitle})
	if err != nil {
		t.Fatalf("update: %v", err)
	}

	if updated.Title != "New title" {
		t.Errorf("title not updated: %q", updated.Title)
	}
	if updated.Content != "Original content" {
		t.Errorf("content changed by unrelated patch: %q", updated.Content)
	}
	if updated.Category != "development" || len(updated.Tags) != 2 {
		t.Errorf("untouched fields changed: %+v", updated)
	}
	if !updated.CreatedAt.Equal(p.CreatedAt) {
		t.Errorf("created_at changed on update")
	}
	if !updated.UpdatedAt.After(p.UpdatedAt) {
		t.Errorf("updated_at did not advance: %v vs %v", updated.UpdatedAt, p.UpdatedAt)
	}
}

func TestDeleteConservation(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	p := mustSave(t, s, models.PromptDraft{Title: "To delete", Content: "x"})
	before, _ := s.GetAllPrompts(ctx)

	if err := s.DeletePrompt(ctx, "prompt_0_missing"); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound deleting missing id, got %v", err)
	}
	mid, _ := s.GetAllPrompts(ctx)
	if len(mid) != len(before) {
		t.Fatalf("failed delete changed list length: %d -> %d", len(before), len(mid))
	}

	if err := s.DeletePrompt(ctx, p.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	after, _ := s.GetAllPrompts(ctx)
	if len(after) != len(before)-1 {
		t.Fatalf("delete removed %d records, want 1", len(before)-len(after))
	}
	for _, q := range after {
		if q.ID == p.ID {
			t.Fatalf("deleted id still present")
		}
	}
}

func TestSearchFiltersCorrectness(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	if err := s.ClearAll(ctx); err != nil {
		t.Fatalf("clear: %v", err)
	}
	seeded, _ := s.GetAllPrompts(ctx)
	for _, p := range seeded {
		if err := s.DeletePrompt(ctx, p.ID); err != nil {
			t.Fatalf("remove seed: %v", err)
		}
	}

	fav := mustSave(t, s, models.PromptDraft{Title: "React tips", Content: "x", IsFavorite: true})
	mustSave(t, s, models.PromptDraft{Title: "React tips", Content: "x"})
	mustSave(t, s, models.PromptDraft{Title: "Vue basics", Content: "x", IsFavorite: true})

	wantFav := true
	got, err := s.SearchPrompts(ctx, "react", models.SearchFilters{Favorite: &wantFav})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(got) != 1 || got[0].ID != fav.ID {
		t.Fatalf("expected exactly the favorite React prompt, got %d results", len(got))
	}

	got, err = s.SearchPrompts(ctx, "REACT", models.SearchFilters{})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("case-insensitive search: want 2, got %d", len(got))
	}
}

func TestSearchMatchesTags(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	p := mustSave(t, s, models.PromptDraft{
		Title:   "Untitled helper",
		Content: "x",
		Tags:    []string{"golang", "testing"},
	})

	got, err := s.SearchPrompts(ctx, "golang", models.SearchFilters{})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(got) != 1 || got[0].ID != p.ID {
		t.Fatalf("expected tag match, got %d results", len(got))
	}
}

func TestAnalyticsCounters(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	if err := s.ClearAll(ctx); err != nil {
		t.Fatalf("clear: %v", err)
	}

	// freshly cleared store holds the single seeded prompt
	a, _ := s.Analytics(ctx)
	if a.TotalPrompts != 1 {
		t.Fatalf("after clear: TotalPrompts=%d, want 1", a.TotalPrompts)
	}
	baseExecutions := a.TotalExecutions

	p1 := mustSave(t, s, models.PromptDraft{Title: "One", Content: "x"})
	mustSave(t, s, models.PromptDraft{Title: "Two", Content: "x"})

	a, _ = s.Analytics(ctx)
	if a.TotalPrompts != 3 {
		t.Fatalf("after 2 saves: TotalPrompts=%d, want 3", a.TotalPrompts)
	}

	if err := s.DeletePrompt(ctx, p1.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	a, _ = s.Analytics(ctx)
	if a.TotalPrompts != 2 {
		t.Fatalf("after delete: TotalPrompts=%d, want 2", a.TotalPrompts)
	}

	target, _ := s.GetAllPrompts(ctx)
	id := target[0].ID
	for i := 0; i < 3; i++ {
		if err := s.IncrementUsage(ctx, id); err != nil {
			t.Fatalf("increment usage: %v", err)
		}
	}
	p, _ := s.GetPromptByID(ctx, id)
	if p.UsageCount != 3 {
		t.Errorf("UsageCount=%d, want 3", p.UsageCount)
	}
	a, _ = s.Analytics(ctx)
	if a.TotalExecutions != baseExecutions+3 {
		t.Errorf("TotalExecutions=%d, want %d", a.TotalExecutions, baseExecutions+3)
	}
	if len(a.DailyUsage) == 0 {
		t.Error("expected a daily usage bucket after executions")
	}
}

func TestGetAllOrdersChronologically(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	// 100ms and 120ms fractions: RFC3339Nano renders them ".1" and ".12",
	// which sort lexically in the wrong order. The fixed-width layout
	// must keep the newer prompt first.
	base := time.Date(2026, 4, 2, 9, 0, 5, 0, time.UTC)
	s.now = func() time.Time { return base.Add(100 * time.Millisecond) }
	older := mustSave(t, s, models.PromptDraft{Title: "Older", Content: "x"})
	s.now = func() time.Time { return base.Add(120 * time.Millisecond) }
	newer := mustSave(t, s, models.PromptDraft{Title: "Newer", Content: "x"})

	all, err := s.GetAllPrompts(ctx)
	if err != nil {
		t.Fatalf("get all: %v", err)
	}
	newerAt, olderAt := -1, -1
	for i, p := range all {
		switch p.ID {
		case newer.ID:
			newerAt = i
		case older.ID:
			olderAt = i
		}
	}
	if newerAt == -1 || olderAt == -1 {
		t.Fatalf("saved prompts missing from listing")
	}
	if newerAt > olderAt {
		t.Fatalf("newest-first order broken: newer at %d, older at %d", newerAt, olderAt)
	}
}

func TestToggleFavoriteFlips(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	p := mustSave(t, s, models.PromptDraft{Title: "Fav me", Content: "x"})

	on, err := s.ToggleFavorite(ctx, p.ID)
	if err != nil {
		t.Fatalf("toggle: %v", err)
	}
	if !on.IsFavorite {
		t.Fatal("expected favorite after first toggle")
	}

	off, err := s.ToggleFavorite(ctx, p.ID)
	if err != nil {
		t.Fatalf("toggle: %v", err)
	}
	if off.IsFavorite {
		t.Fatal("expected unfavorited after second toggle")
	}

	a, _ := s.Analytics(ctx)
	if a.FavoritePrompts != 0 {
		t.Errorf("FavoritePrompts=%d, want 0 after flip back", a.FavoritePrompts)
	}
}

func TestImportMergesById(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	existing := mustSave(t, s, models.PromptDraft{Title: "Local version", Content: "local"})
	countBefore := len(mustAll(t, s))

	imported := *existing
	imported.Title = "Imported version"
	imported.Content = "imported"

	err := s.Import(ctx, &models.Backup{
		Prompts: []models.Prompt{imported},
		Version: BackupVersion,
	})
	if err != nil {
		t.Fatalf("import: %v", err)
	}

	all := mustAll(t, s)
	if len(all) != countBefore {
		t.Fatalf("import duplicated records: %d -> %d", countBefore, len(all))
	}
	got, err := s.GetPromptByID(ctx, existing.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Title != "Imported version" || got.Content != "imported" {
		t.Errorf("imported fields did not win: %+v", got)
	}
}

func TestImportRejectsMissingPromptList(t *testing.T) {
	s := setupTestStore(t)

	if err := s.Import(context.Background(), &models.Backup{Version: BackupVersion}); err != ErrInvalidBackup {
		t.Fatalf("expected ErrInvalidBackup, got %v", err)
	}
	if err := s.Import(context.Background(), nil); err != ErrInvalidBackup {
		t.Fatalf("expected ErrInvalidBackup for nil backup, got %v", err)
	}
}

func TestExportImportRoundTrip(t *testing.T) {
	src := setupTestStore(t)
	dst := setupTestStore(t)
	ctx := context.Background()

	mustSave(t, src, models.PromptDraft{Title: "Carried over", Content: "x", Tags: []string{"backup"}})
	b, err := src.Export(ctx)
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if b.Version != BackupVersion || b.Analytics == nil {
		t.Fatalf("export blob incomplete: %+v", b)
	}

	if err := dst.Import(ctx, b); err != nil {
		t.Fatalf("import: %v", err)
	}
	all := mustAll(t, dst)
	found := false
	for _, p := range all {
		if p.Title == "Carried over" {
			found = true
		}
	}
	if !found {
		t.Error("exported prompt missing after import")
	}
}

func TestClearAllReseeds(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	mustSave(t, s, models.PromptDraft{Title: "Extra", Content: "x"})
	if err := s.ClearAll(ctx); err != nil {
		t.Fatalf("clear: %v", err)
	}

	all := mustAll(t, s)
	if len(all) != 1 {
		t.Fatalf("expected exactly the seeded prompt after clear, got %d", len(all))
	}
	a, _ := s.Analytics(ctx)
	if a.TotalPrompts != 1 {
		t.Errorf("analytics not reset: TotalPrompts=%d", a.TotalPrompts)
	}
}

func TestFilterDerivations(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	mustSave(t, s, models.PromptDraft{Title: "A", Content: "x", Category: "writing", AIModel: "gpt-4o", Tags: []string{"draft"}})
	mustSave(t, s, models.PromptDraft{Title: "B", Content: "x", Category: "writing", AIModel: "claude-3-5-sonnet", Tags: []string{"draft", "final"}})

	cats, err := s.Categories(ctx)
	if err != nil {
		t.Fatalf("categories: %v", err)
	}
	if !contains(cats, "writing") {
		t.Errorf("categories missing 'writing': %v", cats)
	}
	for i := 1; i < len(cats); i++ {
		if cats[i-1] > cats[i] {
			t.Fatalf("categories not sorted: %v", cats)
		}
	}

	tags, err := s.Tags(ctx)
	if err != nil {
		t.Fatalf("tags: %v", err)
	}
	if !contains(tags, "draft") || !contains(tags, "final") {
		t.Errorf("tags missing values: %v", tags)
	}
	if count(tags, "draft") != 1 {
		t.Errorf("tags not deduplicated: %v", tags)
	}

	mods, err := s.AIModels(ctx)
	if err != nil {
		t.Fatalf("models: %v", err)
	}
	if !contains(mods, "gpt-4o") || !contains(mods, "claude-3-5-sonnet") {
		t.Errorf("models missing values: %v", mods)
	}
}

func mustAll(t *testing.T, s *Store) []models.Prompt {
	t.Helper()
	all, err := s.GetAllPrompts(context.Background())
	if err != nil {
		t.Fatalf("get all: %v", err)
	}
	return all
}

func contains(ss []string, v string) bool {
	for _, s := range ss {
		if s == v {
			return true
		}
	}
	return false
}

func count(ss []string, v string) int {
	n := 0
	for _, s := range ss {
		if s == v {
			n++
		}
	}
	return n
}
