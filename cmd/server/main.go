package main

import (
	"encoding/json"
	"log"
	"net/http"
	"os"
	"strconv"
	"time"

	wikiquiz "github.com/Electron910/Wikipedia-quiz"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// Server is the quiz API: it fetches Wikipedia articles, generates quizzes
// and serves the stored history.
type Server struct {
	db      *wikiquiz.DB
	fetcher *wikiquiz.WikipediaFetcher
	maker   *wikiquiz.QuestionMaker
}

func main() {
	wikiquiz.SetVerbose(os.Getenv("VERBOSE") != "")

	apiKey := os.Getenv("OPENAI_API_KEY")
	if apiKey == "" {
		log.Fatal("OPENAI_API_KEY environment variable is required")
	}

	dbPath := os.Getenv("QUIZ_DB")
	if dbPath == "" {
		dbPath = "./quiz.db"
	}
	db, err := wikiquiz.OpenDB(dbPath)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.CloseDB()
	if err := db.CreateTables(); err != nil {
		log.Fatalf("Failed to create tables: %v", err)
	}

	server := &Server{
		db:      db,
		fetcher: wikiquiz.NewWikipediaFetcher(),
		maker:   wikiquiz.NewQuestionMaker(apiKey),
	}

	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type"},
		AllowCredentials: false,
	}))

	r.Route("/api/quiz", func(r chi.Router) {
		r.Post("/generate", server.handleGenerate)
		r.Get("/history", server.handleHistory)
		r.Get("/{quizID}", server.handleGetQuiz)
		r.Post("/validate", server.handleValidate)
	})
	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
	})
	r.Get("/", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"message": "Wiki Quiz API", "status": "running"})
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = "8000"
	}
	log.Printf("Starting quiz API on port %s", port)
	log.Fatal(http.ListenAndServe(":"+port, r))
}

func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	var req wikiquiz.GenerationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeDetail(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.URL == "" {
		writeDetail(w, http.StatusBadRequest, "URL is required")
		return
	}
	if !wikiquiz.ValidWikipediaArticleURL(req.URL) {
		writeDetail(w, http.StatusBadRequest, "Invalid Wikipedia URL")
		return
	}
	if req.Difficulty == "" {
		req.Difficulty = wikiquiz.DifficultyMixed
	}
	if !req.Difficulty.Valid() {
		writeDetail(w, http.StatusBadRequest, "Unknown difficulty level")
		return
	}
	if req.NumQuestions == 0 {
		req.NumQuestions = 6
	}
	if !wikiquiz.ValidQuestionCount(req.NumQuestions) {
		writeDetail(w, http.StatusBadRequest, "Number of questions must be 4, 6, 8 or 10")
		return
	}

	// A repeat request for the same article and difficulty returns the
	// stored quiz instead of regenerating.
	if cached, err := s.db.CachedQuiz(req.URL, string(req.Difficulty)); err != nil {
		log.Printf("Cache lookup failed: %v", err)
	} else if cached != nil {
		writeJSON(w, http.StatusOK, cached)
		return
	}

	article, err := s.fetcher.Fetch(r.Context(), req.URL)
	if err != nil {
		log.Printf("Failed to fetch article %s: %v", req.URL, err)
		writeDetail(w, http.StatusServiceUnavailable, "Could not fetch article")
		return
	}

	result, err := s.maker.GenerateAll(r.Context(), article, req.Difficulty, req.NumQuestions)
	if err != nil {
		log.Printf("Failed to generate quiz for %s: %v", article.Title, err)
		writeDetail(w, http.StatusInternalServerError, "Failed to generate quiz questions")
		return
	}

	payload := &wikiquiz.QuizPayload{
		URL:           req.URL,
		Title:         article.Title,
		Summary:       article.Summary,
		KeyEntities:   result.Entities,
		Sections:      article.Sections,
		Quiz:          result.Questions,
		RelatedTopics: result.Topics,
		Difficulty:    string(req.Difficulty),
		CreatedAt:     time.Now().UTC(),
	}
	id, err := s.db.SaveQuiz(payload)
	if err != nil {
		log.Printf("Failed to save quiz for %s: %v", article.Title, err)
		writeDetail(w, http.StatusInternalServerError, "Failed to store quiz")
		return
	}
	payload.ID = id

	writeJSON(w, http.StatusOK, payload)
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	skip, _ := strconv.Atoi(r.URL.Query().Get("skip"))
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	entries, err := s.db.ListQuizzes(skip, limit)
	if err != nil {
		log.Printf("Failed to list quizzes: %v", err)
		writeDetail(w, http.StatusInternalServerError, "Failed to load history")
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

func (s *Server) handleGetQuiz(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "quizID"), 10, 64)
	if err != nil {
		writeDetail(w, http.StatusNotFound, "Quiz not found")
		return
	}
	payload, err := s.db.GetQuiz(id)
	if err != nil {
		log.Printf("Failed to get quiz %d: %v", id, err)
		writeDetail(w, http.StatusInternalServerError, "Failed to load quiz")
		return
	}
	if payload == nil {
		writeDetail(w, http.StatusNotFound, "Quiz not found")
		return
	}
	writeJSON(w, http.StatusOK, payload)
}

// handleValidate never reports an error outward: a URL that cannot be
// resolved is simply not valid.
func (s *Server) handleValidate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		URL string `json:"url"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.URL == "" {
		writeJSON(w, http.StatusOK, wikiquiz.URLPreview{Valid: false})
		return
	}
	title, err := s.fetcher.TitlePreview(r.Context(), req.URL)
	if err != nil {
		wikiquiz.VerboseLog("validation failed for %s: %v", req.URL, err)
		writeJSON(w, http.StatusOK, wikiquiz.URLPreview{Valid: false})
		return
	}
	writeJSON(w, http.StatusOK, wikiquiz.URLPreview{Valid: true, Title: title})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("Failed to encode response: %v", err)
	}
}

// writeDetail writes an error envelope shaped like {"detail": "..."}, which
// is what clients display.
func writeDetail(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}
