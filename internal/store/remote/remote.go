// Package remote is the HTTP client for the prompt API. It speaks the
// /api/v1 surface and translates HTTP status codes into Go errors.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"promptvault/internal/models"
)

// ErrNotFound is returned for 404 responses.
var ErrNotFound = fmt.Errorf("prompt not found")

const defaultTimeout = 10 * time.Second

type Client struct {
	baseURL string
	http    *http.Client
}

func New(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: defaultTimeout},
	}
}

// apiError carries a non-2xx response body.
type apiError struct {
	Status  int
	Message string
}

func (e *apiError) Error() string {
	return fmt.Sprintf("remote API returned %d: %s", e.Status, e.Message)
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+"/api/v1"+path, reqBody)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return ErrNotFound
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var e struct {
			Error string `json:"error"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&e)
		return &apiError{Status: resp.StatusCode, Message: e.Error}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func (c *Client) GetAllPrompts(ctx context.Context) ([]models.Prompt, error) {
	var resp struct {
		Prompts []models.Prompt `json:"prompts"`
	}
	if err := c.do(ctx, http.MethodGet, "/prompts", nil, &resp); err != nil {
		return nil, err
	}
	if resp.Prompts == nil {
		resp.Prompts = []models.Prompt{}
	}
	return resp.Prompts, nil
}

func (c *Client) GetPromptByID(ctx context.Context, id string) (*models.Prompt, error) {
	var p models.Prompt
	if err := c.do(ctx, http.MethodGet, "/prompts/"+id, nil, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (c *Client) SavePrompt(ctx context.Context, draft models.PromptDraft) (*models.Prompt, error) {
	var p models.Prompt
	if err := c.do(ctx, http.MethodPost, "/prompts", draft, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (c *Client) UpdatePrompt(ctx context.Context, id string, patch models.PromptPatch) (*models.Prompt, error) {
	var p models.Prompt
	if err := c.do(ctx, http.MethodPut, "/prompts/"+id, patch, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (c *Client) DeletePrompt(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/prompts/"+id, nil, nil)
}

func (c *Client) ToggleFavorite(ctx context.Context, id string) (*models.Prompt, error) {
	var p models.Prompt
	if err := c.do(ctx, http.MethodPost, "/prompts/"+id+"/favorite", nil, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (c *Client) IncrementUsage(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodPost, "/prompts/"+id+"/execute", nil, nil)
}

func (c *Client) SearchPrompts(ctx context.Context, query string, f models.SearchFilters) ([]models.Prompt, error) {
	params := url.Values{}
	if query != "" {
		params.Set("search", query)
	}
	if f.Category != "" {
		params.Set("category", f.Category)
	}
	if f.AIModel != "" {
		params.Set("aiModel", f.AIModel)
	}
	if f.Difficulty != "" {
		params.Set("difficulty", f.Difficulty)
	}
	if f.Favorite != nil {
		params.Set("favorite", fmt.Sprintf("%t", *f.Favorite))
	}
	for _, t := range f.Tags {
		params.Add("tags", t)
	}

	path := "/prompts"
	if len(params) > 0 {
		path += "?" + params.Encode()
	}

	var resp struct {
		Prompts []models.Prompt `json:"prompts"`
	}
	if err := c.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	if resp.Prompts == nil {
		resp.Prompts = []models.Prompt{}
	}
	return resp.Prompts, nil
}

func (c *Client) filters(ctx context.Context) (*models.Filters, error) {
	var f models.Filters
	if err := c.do(ctx, http.MethodGet, "/filters", nil, &f); err != nil {
		return nil, err
	}
	return &f, nil
}

func (c *Client) Categories(ctx context.Context) ([]string, error) {
	f, err := c.filters(ctx)
	if err != nil {
		return nil, err
	}
	return f.Categories, nil
}

func (c *Client) Tags(ctx context.Context) ([]string, error) {
	f, err := c.filters(ctx)
	if err != nil {
		return nil, err
	}
	return f.Tags, nil
}

func (c *Client) AIModels(ctx context.Context) ([]string, error) {
	f, err := c.filters(ctx)
	if err != nil {
		return nil, err
	}
	return f.AIModels, nil
}

// Analytics fetches the dashboard for a time range ("7d", "30d", "90d", "1y").
func (c *Client) Analytics(ctx context.Context, timeRange string) (*models.Dashboard, error) {
	path := "/analytics"
	if timeRange != "" {
		path += "?timeRange=" + url.QueryEscape(timeRange)
	}
	var d models.Dashboard
	if err := c.do(ctx, http.MethodGet, path, nil, &d); err != nil {
		return nil, err
	}
	return &d, nil
}

// Close satisfies the store contract; the client holds no resources.
func (c *Client) Close() error {
	return nil
}
