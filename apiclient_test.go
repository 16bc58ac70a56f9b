package wikiquiz

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestGenerateQuizSendsRequestFields(t *testing.T) {
	var got GenerationRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/quiz/generate" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("Content-Type = %q", ct)
		}
		json.NewDecoder(r.Body).Decode(&got)
		json.NewEncoder(w).Encode(testPayload(4))
	}))
	defer srv.Close()

	client := NewClient(srv.URL)
	payload, err := client.GenerateQuiz(context.Background(), GenerationRequest{
		URL:          "https://en.wikipedia.org/wiki/Go",
		Difficulty:   DifficultyHard,
		NumQuestions: 8,
	})
	if err != nil {
		t.Fatalf("GenerateQuiz() = %v", err)
	}
	if got.URL != "https://en.wikipedia.org/wiki/Go" || got.Difficulty != DifficultyHard || got.NumQuestions != 8 {
		t.Errorf("server saw %+v", got)
	}
	if payload.Title != "Test Quiz" || len(payload.Quiz) != 4 {
		t.Errorf("payload = %q with %d questions", payload.Title, len(payload.Quiz))
	}
}

func TestErrorEnvelopeDecoding(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		body       string
		wantDetail string
	}{
		{"detail string", http.StatusBadRequest, `{"detail":"Invalid Wikipedia URL"}`, "Invalid Wikipedia URL"},
		{"empty object", http.StatusInternalServerError, `{}`, ""},
		{"not json", http.StatusBadGateway, `<html>bad gateway</html>`, ""},
		{"empty body", http.StatusServiceUnavailable, ``, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			_, err := NewClient(srv.URL).GenerateQuiz(context.Background(), GenerationRequest{URL: "x"})
			var apiErr *APIError
			if !errors.As(err, &apiErr) {
				t.Fatalf("error = %v, want *APIError", err)
			}
			if apiErr.StatusCode != tt.status {
				t.Errorf("StatusCode = %d, want %d", apiErr.StatusCode, tt.status)
			}
			if apiErr.Detail != tt.wantDetail {
				t.Errorf("Detail = %q, want %q", apiErr.Detail, tt.wantDetail)
			}
		})
	}
}

func TestQuizByIDPath(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/quiz/42" {
			t.Errorf("path = %q, want /api/quiz/42", r.URL.Path)
		}
		p := testPayload(4)
		p.ID = 42
		json.NewEncoder(w).Encode(p)
	}))
	defer srv.Close()

	payload, err := NewClient(srv.URL).QuizByID(context.Background(), 42)
	if err != nil {
		t.Fatalf("QuizByID() = %v", err)
	}
	if payload.ID != 42 {
		t.Errorf("ID = %d, want 42", payload.ID)
	}
}

func TestQuizHistoryDecodes(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/quiz/history" {
			t.Errorf("path = %q", r.URL.Path)
		}
		w.Write([]byte(`[{"id":2,"url":"u2","title":"Second","difficulty":"hard","created_at":"2025-06-02T10:00:00Z"},
			{"id":1,"url":"u1","title":"First","difficulty":"mixed","created_at":"2025-06-01T10:00:00Z"}]`))
	}))
	defer srv.Close()

	entries, err := NewClient(srv.URL).QuizHistory(context.Background())
	if err != nil {
		t.Fatalf("QuizHistory() = %v", err)
	}
	if len(entries) != 2 || entries[0].ID != 2 || entries[0].Title != "Second" || entries[1].Difficulty != "mixed" {
		t.Errorf("entries = %+v", entries)
	}
}

func TestValidateURLRoundTrip(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		json.NewDecoder(r.Body).Decode(&body)
		if body["url"] != "https://en.wikipedia.org/wiki/Go" {
			t.Errorf("url = %q", body["url"])
		}
		json.NewEncoder(w).Encode(URLPreview{Valid: true, Title: "Go"})
	}))
	defer srv.Close()

	preview, err := NewClient(srv.URL).ValidateURL(context.Background(), "https://en.wikipedia.org/wiki/Go")
	if err != nil {
		t.Fatalf("ValidateURL() = %v", err)
	}
	if !preview.Valid || preview.Title != "Go" {
		t.Errorf("preview = %+v", preview)
	}
}

func TestClientRespectsContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := NewClient(srv.URL).QuizHistory(ctx); err == nil {
		t.Fatal("QuizHistory() with cancelled context returned nil error")
	}
}
