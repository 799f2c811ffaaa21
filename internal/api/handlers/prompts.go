package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"promptvault/internal/llm"
	"promptvault/internal/models"
	"promptvault/internal/prompt"
	"promptvault/internal/queue"
	"promptvault/internal/webhook"
)

type PromptHandler struct {
	svc   *prompt.Service
	hooks *webhook.Service
	llm   llm.Provider // nil when no provider is configured
}

func NewPromptHandler(svc *prompt.Service, hooks *webhook.Service, provider llm.Provider) *PromptHandler {
	return &PromptHandler{svc: svc, hooks: hooks, llm: provider}
}

func (h *PromptHandler) Create(w http.ResponseWriter, r *http.Request) {
	var draft models.PromptDraft
	if err := json.NewDecoder(r.Body).Decode(&draft); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if draft.Title == "" {
		writeError(w, http.StatusBadRequest, "title required")
		return
	}
	if draft.Content == "" {
		writeError(w, http.StatusBadRequest, "content required")
		return
	}

	p, err := h.svc.Create(r.Context(), draft)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	h.hooks.Emit(r.Context(), queue.EventPromptCreated, p)
	writeJSON(w, http.StatusCreated, p)
}

// List handles both plain listing and filtered search; every filter is a
// query parameter, tags may repeat.
func (h *PromptHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	limit, _ := strconv.Atoi(q.Get("limit"))
	offset, _ := strconv.Atoi(q.Get("offset"))
	if limit <= 0 {
		limit = 50
	}

	filters := models.SearchFilters{
		Category:   q.Get("category"),
		AIModel:    q.Get("aiModel"),
		Difficulty: q.Get("difficulty"),
		Tags:       q["tags"],
	}
	if fav := q.Get("favorite"); fav != "" {
		b := fav == "true"
		filters.Favorite = &b
	}

	prompts, err := h.svc.Search(r.Context(), q.Get("search"), filters, limit, offset)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"prompts": prompts, "count": len(prompts)})
}

func (h *PromptHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := promptID(w, r)
	if !ok {
		return
	}

	p, err := h.svc.Get(r.Context(), id)
	if errors.Is(err, prompt.ErrNotFound) {
		writeError(w, http.StatusNotFound, "prompt not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, p)
}

func (h *PromptHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := promptID(w, r)
	if !ok {
		return
	}

	var patch models.PromptPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	p, err := h.svc.Update(r.Context(), id, patch)
	if errors.Is(err, prompt.ErrNotFound) {
		writeError(w, http.StatusNotFound, "prompt not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	h.hooks.Emit(r.Context(), queue.EventPromptUpdated, p)
	writeJSON(w, http.StatusOK, p)
}

func (h *PromptHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := promptID(w, r)
	if !ok {
		return
	}

	err := h.svc.Delete(r.Context(), id)
	if errors.Is(err, prompt.ErrNotFound) {
		writeError(w, http.StatusNotFound, "prompt not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	h.hooks.Emit(r.Context(), queue.EventPromptDeleted, map[string]string{"id": id})
	writeJSON(w, http.StatusOK, map[string]bool{"deleted": true})
}

func (h *PromptHandler) ToggleFavorite(w http.ResponseWriter, r *http.Request) {
	id, ok := promptID(w, r)
	if !ok {
		return
	}

	p, err := h.svc.ToggleFavorite(r.Context(), id)
	if errors.Is(err, prompt.ErrNotFound) {
		writeError(w, http.StatusNotFound, "prompt not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, p)
}

func (h *PromptHandler) Execute(w http.ResponseWriter, r *http.Request) {
	id, ok := promptID(w, r)
	if !ok {
		return
	}

	var in prompt.ExecutionInput
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
	}

	e, err := h.svc.RecordExecution(r.Context(), id, in)
	if errors.Is(err, prompt.ErrNotFound) {
		writeError(w, http.StatusNotFound, "prompt not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	h.hooks.Emit(r.Context(), queue.EventPromptExecuted, e)
	writeJSON(w, http.StatusCreated, e)
}

type renderRequest struct {
	Variables map[string]string `json:"variables"`
}

func (h *PromptHandler) Render(w http.ResponseWriter, r *http.Request) {
	id, ok := promptID(w, r)
	if !ok {
		return
	}

	var req renderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	p, err := h.svc.Get(r.Context(), id)
	if errors.Is(err, prompt.ErrNotFound) {
		writeError(w, http.StatusNotFound, "prompt not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	rendered, err := prompt.Render(p.Content, req.Variables)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"rendered": rendered})
}

type testRequest struct {
	Variables map[string]string `json:"variables"`
	Model     string            `json:"model,omitempty"`
	MaxTokens int               `json:"max_tokens,omitempty"`
}

// Test renders the prompt, runs it against the configured model provider
// and records the run as an execution.
func (h *PromptHandler) Test(w http.ResponseWriter, r *http.Request) {
	if h.llm == nil {
		writeError(w, http.StatusNotImplemented, "no LLM provider configured")
		return
	}

	id, ok := promptID(w, r)
	if !ok {
		return
	}

	var req testRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	p, err := h.svc.Get(r.Context(), id)
	if errors.Is(err, prompt.ErrNotFound) {
		writeError(w, http.StatusNotFound, "prompt not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	rendered, err := prompt.Render(p.Content, req.Variables)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	model := req.Model
	if model == "" {
		model = p.AIModel
	}

	resp, llmErr := h.llm.Complete(r.Context(), llm.CompletionRequest{
		Model:     model,
		Prompt:    rendered,
		MaxTokens: req.MaxTokens,
	})

	in := prompt.ExecutionInput{Input: rendered, Model: model}
	success := llmErr == nil
	in.Success = &success
	if resp != nil {
		in.Output = resp.Output
		in.TokensUsed = &resp.TokensUsed
		in.ExecutionTimeMs = &resp.LatencyMs
	}

	e, err := h.svc.RecordExecution(r.Context(), id, in)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	h.hooks.Emit(r.Context(), queue.EventPromptExecuted, e)

	if llmErr != nil {
		writeError(w, http.StatusBadGateway, llmErr.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"execution": e, "result": resp})
}

func (h *PromptHandler) AddRating(w http.ResponseWriter, r *http.Request) {
	id, ok := promptID(w, r)
	if !ok {
		return
	}

	var in prompt.RatingInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	rating, err := h.svc.AddRating(r.Context(), id, in)
	if errors.Is(err, prompt.ErrNotFound) {
		writeError(w, http.StatusNotFound, "prompt not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	writeJSON(w, http.StatusCreated, rating)
}

func (h *PromptHandler) ListRatings(w http.ResponseWriter, r *http.Request) {
	id, ok := promptID(w, r)
	if !ok {
		return
	}

	ratings, err := h.svc.ListRatings(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"ratings": ratings, "count": len(ratings)})
}

func promptID(w http.ResponseWriter, r *http.Request) (string, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid prompt ID")
		return "", false
	}
	return id.String(), true
}
