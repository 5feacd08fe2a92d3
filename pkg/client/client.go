// Package client provides a strongly-typed Go client for the canvasnote
// REST API.
//
// The client mirrors the server's endpoint structure: note CRUD with
// category and search filtering, category and template management, media
// upload, and PDF export. Request and response bodies use the same
// [github.com/canvasnote/canvasnote/pkg/models] entities as the server.
//
// Mutating requests carry the CSRF token the server hands out as the
// csrftoken cookie, echoed back in the X-CSRFToken header. The token is
// fetched lazily before the first mutating call.
//
// Every method takes a context and the underlying HTTP client enforces a
// 30-second timeout, so no call can hang a caller indefinitely.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"sync"
	"time"

	"github.com/canvasnote/canvasnote/pkg/models"
)

// Client provides typed access to the canvasnote REST API.
// Client instances are safe for concurrent use by multiple goroutines.
type Client struct {
	baseURL    string
	httpClient *http.Client

	mu        sync.Mutex
	csrfToken string
}

// NewClient creates a new canvasnote API client. The baseURL should include
// protocol and host without a trailing slash, e.g. "http://localhost:8080".
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// FetchCSRFToken obtains a fresh CSRF token from the server. Mutating
// methods call this automatically when no token is held yet.
func (c *Client) FetchCSRFToken(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/csrf/", nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	for _, cookie := range resp.Cookies() {
		if cookie.Name == "csrftoken" {
			c.mu.Lock()
			c.csrfToken = cookie.Value
			c.mu.Unlock()
			return cookie.Value, nil
		}
	}
	return "", fmt.Errorf("server did not set a csrftoken cookie")
}

func (c *Client) ensureCSRF(ctx context.Context) (string, error) {
	c.mu.Lock()
	token := c.csrfToken
	c.mu.Unlock()
	if token != "" {
		return token, nil
	}
	return c.FetchCSRFToken(ctx)
}

func isMutating(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		return true
	}
	return false
}

// doRequest performs an HTTP request with JSON and CSRF headers.
func (c *Client) doRequest(ctx context.Context, method, path string, body any) (*http.Response, error) {
	var bodyReader io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		bodyReader = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	if isMutating(method) {
		token, err := c.ensureCSRF(ctx)
		if err != nil {
			return nil, fmt.Errorf("fetching CSRF token: %w", err)
		}
		req.Header.Set("X-CSRFToken", token)
		req.AddCookie(&http.Cookie{Name: "csrftoken", Value: token})
	}

	return c.httpClient.Do(req)
}

// decodeResponse decodes the JSON response into the target struct.
func decodeResponse(resp *http.Response, target any) error {
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("API error: status=%d, body=%s", resp.StatusCode, string(body))
	}

	if target != nil && resp.StatusCode != http.StatusNoContent {
		if err := json.NewDecoder(resp.Body).Decode(target); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}

	return nil
}

// Health checks the health status of the server.
func (c *Client) Health(ctx context.Context) (map[string]any, error) {
	resp, err := c.doRequest(ctx, http.MethodGet, "/health", nil)
	if err != nil {
		return nil, err
	}

	var result map[string]any
	if err := decodeResponse(resp, &result); err != nil {
		return nil, err
	}
	return result, nil
}

// Note operations

// ListNotesOptions narrows the history listing. UncategorizedOnly maps to
// the "0" sentinel of the category filter; Search matches title and
// category name.
type ListNotesOptions struct {
	CategoryID        *models.CategoryID
	UncategorizedOnly bool
	Search            string
}

// ListNotes retrieves note summaries, newest first.
func (c *Client) ListNotes(ctx context.Context, opts ListNotesOptions) ([]models.NoteSummary, error) {
	q := url.Values{}
	switch {
	case opts.UncategorizedOnly:
		q.Set("category_id", "0")
	case opts.CategoryID != nil:
		q.Set("category_id", opts.CategoryID.String())
	}
	if opts.Search != "" {
		q.Set("search", opts.Search)
	}
	path := "/api/notes/"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}

	resp, err := c.doRequest(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}

	var result []models.NoteSummary
	if err := decodeResponse(resp, &result); err != nil {
		return nil, err
	}
	return result, nil
}

// CreateNote saves a new note and returns it with its server-side identity.
func (c *Client) CreateNote(ctx context.Context, note *models.Note) (*models.Note, error) {
	resp, err := c.doRequest(ctx, http.MethodPost, "/api/notes/", note)
	if err != nil {
		return nil, err
	}

	var result models.Note
	if err := decodeResponse(resp, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// GetNote retrieves a full note by ID. A missing note returns (nil, nil).
func (c *Client) GetNote(ctx context.Context, id models.NoteID) (*models.Note, error) {
	resp, err := c.doRequest(ctx, http.MethodGet, fmt.Sprintf("/api/notes/%s/", id), nil)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode == http.StatusNotFound {
		resp.Body.Close()
		return nil, nil
	}

	var result models.Note
	if err := decodeResponse(resp, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// UpdateNote updates an existing note in place.
func (c *Client) UpdateNote(ctx context.Context, note *models.Note) (*models.Note, error) {
	resp, err := c.doRequest(ctx, http.MethodPatch, fmt.Sprintf("/api/notes/%s/", note.ID), note)
	if err != nil {
		return nil, err
	}

	var result models.Note
	if err := decodeResponse(resp, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// DeleteNote removes a note.
func (c *Client) DeleteNote(ctx context.Context, id models.NoteID) error {
	resp, err := c.doRequest(ctx, http.MethodDelete, fmt.Sprintf("/api/notes/%s/", id), nil)
	if err != nil {
		return err
	}
	return decodeResponse(resp, nil)
}

// ExportPDF renders a note as a PDF document and returns the raw bytes.
func (c *Client) ExportPDF(ctx context.Context, id models.NoteID) ([]byte, error) {
	resp, err := c.doRequest(ctx, http.MethodGet, fmt.Sprintf("/api/notes/%s/export-pdf/", id), nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("API error: status=%d, body=%s", resp.StatusCode, string(body))
	}
	return io.ReadAll(resp.Body)
}

// Category operations

// ListCategories retrieves all categories ordered by name.
func (c *Client) ListCategories(ctx context.Context) ([]models.Category, error) {
	resp, err := c.doRequest(ctx, http.MethodGet, "/api/categories/", nil)
	if err != nil {
		return nil, err
	}

	var result []models.Category
	if err := decodeResponse(resp, &result); err != nil {
		return nil, err
	}
	return result, nil
}

// CreateCategory creates a new category.
func (c *Client) CreateCategory(ctx context.Context, category *models.Category) (*models.Category, error) {
	resp, err := c.doRequest(ctx, http.MethodPost, "/api/categories/", category)
	if err != nil {
		return nil, err
	}

	var result models.Category
	if err := decodeResponse(resp, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Template operations

// ListTemplates retrieves all templates.
func (c *Client) ListTemplates(ctx context.Context) ([]models.Template, error) {
	resp, err := c.doRequest(ctx, http.MethodGet, "/api/templates/", nil)
	if err != nil {
		return nil, err
	}

	var result []models.Template
	if err := decodeResponse(resp, &result); err != nil {
		return nil, err
	}
	return result, nil
}

// CreateTemplate creates a new template.
func (c *Client) CreateTemplate(ctx context.Context, template *models.Template) (*models.Template, error) {
	resp, err := c.doRequest(ctx, http.MethodPost, "/api/templates/", template)
	if err != nil {
		return nil, err
	}

	var result models.Template
	if err := decodeResponse(resp, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Media upload

type uploadResponse struct {
	PermanentURL string `json:"permanent_url"`
}

// UploadImage sends one staged media payload as multipart form data and
// returns the permanent URL the server stored it under. A zero note ID is
// allowed; the server files the upload under its unassigned area until the
// note exists.
func (c *Client) UploadImage(ctx context.Context, noteID models.NoteID, filename, mime string, data []byte) (string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	header := textproto.MIMEHeader{}
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="image"; filename=%q`, filename))
	if mime != "" {
		header.Set("Content-Type", mime)
	}
	part, err := w.CreatePart(header)
	if err != nil {
		return "", fmt.Errorf("building multipart body: %w", err)
	}
	if _, err := part.Write(data); err != nil {
		return "", fmt.Errorf("building multipart body: %w", err)
	}
	idField := ""
	if !noteID.IsZero() {
		idField = noteID.String()
	}
	if err := w.WriteField("note_id", idField); err != nil {
		return "", fmt.Errorf("building multipart body: %w", err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("building multipart body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/upload-image/", &buf)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", w.FormDataContentType())

	token, err := c.ensureCSRF(ctx)
	if err != nil {
		return "", fmt.Errorf("fetching CSRF token: %w", err)
	}
	req.Header.Set("X-CSRFToken", token)
	req.AddCookie(&http.Cookie{Name: "csrftoken", Value: token})

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", err
	}

	var result uploadResponse
	if err := decodeResponse(resp, &result); err != nil {
		return "", err
	}
	return result.PermanentURL, nil
}
