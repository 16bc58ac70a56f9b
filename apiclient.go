package wikiquiz

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// RequestTimeout bounds every call to the quiz API. Generation can take a
// while, so this is deliberately generous.
const RequestTimeout = 120 * time.Second

// APIError is an error response from the quiz API. Detail carries the
// server's human-readable message when one was provided.
type APIError struct {
	StatusCode int
	Detail     string
}

func (e *APIError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("quiz api: %d: %s", e.StatusCode, e.Detail)
	}
	return fmt.Sprintf("quiz api: unexpected status %d", e.StatusCode)
}

// Client talks to the quiz API.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient creates a client for the quiz API at baseURL, e.g.
// "http://localhost:8000".
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: RequestTimeout},
	}
}

// GenerateQuiz asks the server to generate a quiz for req.URL and returns the
// finished payload.
func (c *Client) GenerateQuiz(ctx context.Context, req GenerationRequest) (*QuizPayload, error) {
	var payload QuizPayload
	if err := c.postJSON(ctx, "/api/quiz/generate", req, &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}

// QuizHistory returns past quizzes, newest first.
func (c *Client) QuizHistory(ctx context.Context) ([]HistoryEntry, error) {
	var entries []HistoryEntry
	if err := c.getJSON(ctx, "/api/quiz/history", &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// QuizByID fetches one stored quiz payload.
func (c *Client) QuizByID(ctx context.Context, id int64) (*QuizPayload, error) {
	var payload QuizPayload
	if err := c.getJSON(ctx, fmt.Sprintf("/api/quiz/%d", id), &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}

// ValidateURL asks the server whether url points at a reachable Wikipedia
// article. Callers treat any error as "no preview".
func (c *Client) ValidateURL(ctx context.Context, url string) (*URLPreview, error) {
	var preview URLPreview
	body := map[string]string{"url": url}
	if err := c.postJSON(ctx, "/api/quiz/validate", body, &preview); err != nil {
		return nil, err
	}
	return &preview, nil
}

func (c *Client) postJSON(ctx context.Context, path string, body, out interface{}) error {
	data, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to encode request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, out)
}

func (c *Client) getJSON(ctx context.Context, path string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out interface{}) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("request to %s failed: %w", req.URL.Path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeAPIError(resp)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response from %s: %w", req.URL.Path, err)
	}
	return nil
}

func decodeAPIError(resp *http.Response) error {
	apiErr := &APIError{StatusCode: resp.StatusCode}
	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
	if err != nil {
		return apiErr
	}
	var envelope struct {
		Detail string `json:"detail"`
	}
	if err := json.Unmarshal(body, &envelope); err == nil {
		apiErr.Detail = envelope.Detail
	}
	return apiErr
}
