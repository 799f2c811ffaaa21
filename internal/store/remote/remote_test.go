package remote

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"promptvault/internal/models"
)

func TestGetAllPrompts(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/prompts" || r.Method != http.MethodGet {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"prompts": []models.Prompt{{ID: "abc", Title: "One"}},
			"count":   1,
		})
	}))
	defer srv.Close()

	c := New(srv.URL)
	prompts, err := c.GetAllPrompts(context.Background())
	if err != nil {
		t.Fatalf("get all: %v", err)
	}
	if len(prompts) != 1 || prompts[0].ID != "abc" {
		t.Fatalf("unexpected prompts: %+v", prompts)
	}
}

func TestGetPromptByIDNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		json.NewEncoder(w).Encode(map[string]string{"error": "prompt not found"})
	}))
	defer srv.Close()

	c := New(srv.URL)
	_, err := c.GetPromptByID(context.Background(), "missing")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestSavePromptSendsDraft(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/v1/prompts" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("content type = %q", ct)
		}
		var draft models.PromptDraft
		if err := json.NewDecoder(r.Body).Decode(&draft); err != nil {
			t.Fatalf("decode draft: %v", err)
		}
		if draft.Title != "New prompt" {
			t.Errorf("draft title = %q", draft.Title)
		}
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(models.Prompt{ID: "srv-id", Title: draft.Title})
	}))
	defer srv.Close()

	c := New(srv.URL)
	p, err := c.SavePrompt(context.Background(), models.PromptDraft{Title: "New prompt", Content: "x"})
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if p.ID != "srv-id" {
		t.Errorf("prompt id = %q", p.ID)
	}
}

func TestSearchPromptsBuildsQuery(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("search") != "react" || q.Get("category") != "development" {
			t.Errorf("unexpected query: %v", q)
		}
		if q.Get("favorite") != "true" {
			t.Errorf("favorite param = %q", q.Get("favorite"))
		}
		if tags := q["tags"]; len(tags) != 2 {
			t.Errorf("tags = %v", tags)
		}
		json.NewEncoder(w).Encode(map[string]any{"prompts": []models.Prompt{}})
	}))
	defer srv.Close()

	fav := true
	c := New(srv.URL)
	prompts, err := c.SearchPrompts(context.Background(), "react", models.SearchFilters{
		Category: "development",
		Favorite: &fav,
		Tags:     []string{"hooks", "state"},
	})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if prompts == nil {
		t.Error("expected empty slice, not nil")
	}
}

func TestServerErrorIsTyped(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(map[string]string{"error": "database unavailable"})
	}))
	defer srv.Close()

	c := New(srv.URL)
	_, err := c.GetAllPrompts(context.Background())
	if err == nil {
		t.Fatal("expected error on 500")
	}
	var apiErr *apiError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected apiError, got %T: %v", err, err)
	}
	if apiErr.Status != http.StatusInternalServerError || apiErr.Message != "database unavailable" {
		t.Errorf("unexpected apiError: %+v", apiErr)
	}
}

func TestConnectionRefusedSurfacesAsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // now unreachable

	c := New(srv.URL)
	if _, err := c.GetAllPrompts(context.Background()); err == nil {
		t.Fatal("expected network error from closed server")
	}
}

func TestFiltersSplit(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/filters" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		json.NewEncoder(w).Encode(models.Filters{
			Categories: []string{"development", "writing"},
			AIModels:   []string{"gpt-4o"},
			Tags:       []string{"draft"},
		})
	}))
	defer srv.Close()

	c := New(srv.URL)
	cats, err := c.Categories(context.Background())
	if err != nil {
		t.Fatalf("categories: %v", err)
	}
	if len(cats) != 2 {
		t.Errorf("categories = %v", cats)
	}
	mods, err := c.AIModels(context.Background())
	if err != nil {
		t.Fatalf("models: %v", err)
	}
	if len(mods) != 1 || mods[0] != "gpt-4o" {
		t.Errorf("models = %v", mods)
	}
}
