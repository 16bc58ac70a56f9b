package wikiquiz

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
)

func TestHistoryRefreshKeepsEntriesOnFailure(t *testing.T) {
	var mu sync.Mutex
	fail := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		failing := fail
		mu.Unlock()
		if failing {
			w.WriteHeader(http.StatusInternalServerError)
			w.Write([]byte(`{"detail":"database unavailable"}`))
			return
		}
		w.Write([]byte(`[{"id":1,"url":"u","title":"First","difficulty":"mixed","created_at":"2025-06-01T10:00:00Z"}]`))
	}))
	defer srv.Close()

	h := NewHistoryBrowser(NewClient(srv.URL))

	h.Refresh(context.Background())
	if entries := h.Entries(); len(entries) != 1 || entries[0].Title != "First" {
		t.Fatalf("Entries() = %+v after first refresh", entries)
	}

	mu.Lock()
	fail = true
	mu.Unlock()
	h.Refresh(context.Background())
	if entries := h.Entries(); len(entries) != 1 || entries[0].Title != "First" {
		t.Errorf("Entries() = %+v, failed refresh must keep the previous list", entries)
	}
}

func TestHistoryEntriesEmptyBeforeRefresh(t *testing.T) {
	h := NewHistoryBrowser(NewClient("http://localhost:0"))
	if entries := h.Entries(); len(entries) != 0 {
		t.Errorf("Entries() = %+v before any refresh", entries)
	}
}

func TestHistoryOpen(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/quiz/7" {
			t.Errorf("path = %q", r.URL.Path)
		}
		w.Write([]byte(`{"id":7,"title":"Stored Quiz","quiz":[]}`))
	}))
	defer srv.Close()

	h := NewHistoryBrowser(NewClient(srv.URL))
	payload, err := h.Open(context.Background(), 7)
	if err != nil {
		t.Fatalf("Open() = %v", err)
	}
	if payload.ID != 7 || payload.Title != "Stored Quiz" {
		t.Errorf("payload = %+v", payload)
	}
}
