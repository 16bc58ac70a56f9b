package wikiquiz

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"
)

var (
	// ErrEmptyURL is returned by Generate when no URL has been entered.
	ErrEmptyURL = errors.New("wikiquiz: url required")
	// ErrBusy is returned by Generate while a request is already in flight.
	ErrBusy = errors.New("wikiquiz: generation already in progress")
)

const (
	// DefaultDebounceDelay is the quiet period before a URL edit triggers
	// a validation call.
	DefaultDebounceDelay = 500 * time.Millisecond
	// DefaultRotateInterval is how often the loading status message
	// advances during generation.
	DefaultRotateInterval = 3 * time.Second

	emptyURLMessage      = "Please enter a Wikipedia URL"
	genericGenerateError = "Failed to generate quiz. Please try again."
)

var statusMessages = [...]string{
	"Fetching Wikipedia article...",
	"Analyzing content...",
	"Generating %s questions...",
	"Creating quiz options...",
	"Almost done...",
}

func statusMessage(i int, d Difficulty) string {
	msg := statusMessages[i%len(statusMessages)]
	if strings.Contains(msg, "%s") {
		return fmt.Sprintf(msg, d)
	}
	return msg
}

// IsWikipediaURL is the client-side gate for the validation preview. The
// server applies a stricter article check; this only decides whether a
// validation call is worth making at all.
func IsWikipediaURL(url string) bool {
	return strings.Contains(url, "wikipedia.org")
}

// Controller drives quiz generation: it owns the URL input with its debounced
// validation preview, the difficulty and question-count selections, and the
// lifecycle of a single in-flight generate request. All methods are safe for
// concurrent use; timer callbacks and the caller share the one mutex.
type Controller struct {
	// DebounceDelay and RotateInterval may be shortened in tests. Set them
	// before first use; they are read by scheduled callbacks.
	DebounceDelay  time.Duration
	RotateInterval time.Duration

	client  *Client
	history *HistoryBrowser

	mu           sync.Mutex
	url          string
	difficulty   Difficulty
	numQuestions int
	loading      bool
	statusMsg    string
	errMsg       string
	quiz         *QuizPayload
	preview      *URLPreview

	debounce    *time.Timer
	validateSeq int
	rotateStop  chan struct{}
}

// NewController creates a controller that generates quizzes through client.
// history may be nil; when present it is refreshed after each successful
// generation.
func NewController(client *Client, history *HistoryBrowser) *Controller {
	return &Controller{
		DebounceDelay:  DefaultDebounceDelay,
		RotateInterval: DefaultRotateInterval,
		client:         client,
		history:        history,
		difficulty:     DifficultyMixed,
		numQuestions:   6,
	}
}

// SetURL records a URL edit and restarts the validation debounce. The pending
// callback from any earlier edit is cancelled, so at most the latest edit
// produces a validation call once input has been quiet for DebounceDelay.
// Ignored while a generation is in flight.
func (c *Controller) SetURL(url string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.loading {
		return
	}
	c.url = url
	c.validateSeq++
	seq := c.validateSeq
	if c.debounce != nil {
		c.debounce.Stop()
	}
	c.debounce = time.AfterFunc(c.DebounceDelay, func() {
		c.debouncedValidate(url, seq)
	})
}

// debouncedValidate runs after the quiet period. seq ties the result back to
// the edit that scheduled it: if another edit happened since, the result is
// stale and must not touch the preview.
func (c *Controller) debouncedValidate(url string, seq int) {
	if url == "" || !IsWikipediaURL(url) {
		c.mu.Lock()
		if seq == c.validateSeq {
			c.preview = nil
		}
		c.mu.Unlock()
		return
	}

	preview, err := c.client.ValidateURL(context.Background(), url)

	c.mu.Lock()
	defer c.mu.Unlock()
	if seq != c.validateSeq {
		return
	}
	if err != nil || !preview.Valid {
		// Validation failures are silent: they only suppress the preview.
		VerboseLog("url validation failed for %s: %v", url, err)
		c.preview = nil
		return
	}
	c.preview = preview
}

// SetDifficulty changes the requested difficulty. Ignored while loading.
func (c *Controller) SetDifficulty(d Difficulty) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.loading || !d.Valid() {
		return
	}
	c.difficulty = d
}

// SetNumQuestions changes the requested question count. Ignored while loading
// or when n is not an allowed count.
func (c *Controller) SetNumQuestions(n int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.loading || !ValidQuestionCount(n) {
		return
	}
	c.numQuestions = n
}

// Generate issues one generation request for the current URL, difficulty and
// question count. It blocks until the server responds; run it from its own
// goroutine when the caller needs to keep handling input. While the request
// is outstanding the controller is loading, further Generate calls fail with
// ErrBusy, and StatusMessage rotates through the progress strings.
func (c *Controller) Generate(ctx context.Context) (*QuizPayload, error) {
	c.mu.Lock()
	if c.loading {
		c.mu.Unlock()
		return nil, ErrBusy
	}
	if strings.TrimSpace(c.url) == "" {
		c.errMsg = emptyURLMessage
		c.mu.Unlock()
		return nil, ErrEmptyURL
	}
	req := GenerationRequest{
		URL:          c.url,
		Difficulty:   c.difficulty,
		NumQuestions: c.numQuestions,
	}
	c.errMsg = ""
	c.quiz = nil
	c.loading = true
	c.statusMsg = statusMessage(0, req.Difficulty)
	stop := make(chan struct{})
	c.rotateStop = stop
	c.mu.Unlock()

	go c.rotateStatus(req.Difficulty, stop)

	payload, err := c.client.GenerateQuiz(ctx, req)

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.rotateStop != nil {
		close(c.rotateStop)
		c.rotateStop = nil
	}
	c.loading = false
	c.statusMsg = ""
	if err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.Detail != "" {
			c.errMsg = apiErr.Detail
		} else {
			c.errMsg = genericGenerateError
		}
		return nil, fmt.Errorf("quiz generation failed: %w", err)
	}
	c.quiz = payload
	if c.history != nil {
		// Fire and forget: a failed refresh never affects the generation
		// outcome.
		go c.history.Refresh(context.Background())
	}
	return payload, nil
}

// rotateStatus advances the loading message every RotateInterval until stop
// is closed, wrapping around the message list.
func (c *Controller) rotateStatus(d Difficulty, stop <-chan struct{}) {
	ticker := time.NewTicker(c.RotateInterval)
	defer ticker.Stop()
	i := 0
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			i = (i + 1) % len(statusMessages)
			c.mu.Lock()
			if c.loading {
				c.statusMsg = statusMessage(i, d)
			}
			c.mu.Unlock()
		}
	}
}

// Close cancels any pending debounce callback and a running status rotation.
// Callers must Close a controller they abandon mid-request.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.debounce != nil {
		c.debounce.Stop()
		c.debounce = nil
	}
	// Orphan any validation still in flight.
	c.validateSeq++
	if c.rotateStop != nil {
		close(c.rotateStop)
		c.rotateStop = nil
	}
}

// URL returns the current URL input.
func (c *Controller) URL() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.url
}

// Difficulty returns the selected difficulty.
func (c *Controller) Difficulty() Difficulty {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.difficulty
}

// NumQuestions returns the selected question count.
func (c *Controller) NumQuestions() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.numQuestions
}

// Loading reports whether a generation request is in flight.
func (c *Controller) Loading() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loading
}

// StatusMessage returns the current rotating progress message, or "" when no
// request is in flight.
func (c *Controller) StatusMessage() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.statusMsg
}

// ErrorMessage returns the user-visible error from the last generate attempt,
// or "".
func (c *Controller) ErrorMessage() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.errMsg
}

// Quiz returns the payload from the last successful generation, or nil.
func (c *Controller) Quiz() *QuizPayload {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.quiz
}

// Preview returns the current validation preview, or nil when the URL has
// not validated.
func (c *Controller) Preview() *URLPreview {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.preview
}
