package main

import (
	"encoding/gob"
	"fmt"
	"html/template"
	"log"
	"net/http"
	"os"
	"strconv"
	"strings"

	wikiquiz "github.com/Electron910/Wikipedia-quiz"

	"github.com/gorilla/sessions"
)

// Server is the web client: server-rendered pages over the quiz API. Quiz
// payloads live on the API side and are fetched by id per request; the
// cookie session only carries the small per-browser answering state.
type Server struct {
	client    *wikiquiz.Client
	history   *wikiquiz.HistoryBrowser
	store     *sessions.CookieStore
	templates map[string]*template.Template
}

// takeState is the quiz-taking state stored in the cookie session.
type takeState struct {
	QuizID    int64
	Current   int
	Answers   map[int]string
	Submitted bool
	Screen    wikiquiz.Screen
}

func init() {
	gob.Register(takeState{})
}

// session rebuilds the state machine for payload from the stored state.
func (st takeState) session(payload *wikiquiz.QuizPayload) *wikiquiz.Session {
	s := wikiquiz.NewSession(payload)
	s.Current = st.Current
	if s.Current < 0 || s.Current >= len(s.Questions) {
		s.Current = 0
	}
	if st.Answers != nil {
		s.Answers = st.Answers
	}
	if st.Submitted {
		// Recompute the score instead of trusting the cookie.
		if err := s.Submit(); err == nil && st.Screen != "" {
			s.Screen = st.Screen
		}
	}
	return s
}

func stateOf(s *wikiquiz.Session, quizID int64) takeState {
	return takeState{
		QuizID:    quizID,
		Current:   s.Current,
		Answers:   s.Answers,
		Submitted: s.Submitted,
		Screen:    s.Screen,
	}
}

func main() {
	wikiquiz.SetVerbose(os.Getenv("VERBOSE") != "")

	apiURL := os.Getenv("QUIZ_API_URL")
	if apiURL == "" {
		apiURL = "http://localhost:8000"
	}
	secret := os.Getenv("SESSION_SECRET")
	if secret == "" {
		secret = "wikiquiz-dev-secret"
	}

	client := wikiquiz.NewClient(apiURL)

	templates := make(map[string]*template.Template)
	for _, name := range []string{"home", "overview", "question", "results", "review"} {
		templates[name] = template.Must(template.ParseFiles("templates/base.html", "templates/"+name+".html"))
	}

	server := &Server{
		client:    client,
		history:   wikiquiz.NewHistoryBrowser(client),
		store:     sessions.NewCookieStore([]byte(secret)),
		templates: templates,
	}

	http.HandleFunc("/", server.handleHome)
	http.HandleFunc("/generate", server.handleGenerate)
	http.HandleFunc("/quiz/", server.handleQuiz)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8180"
	}
	log.Printf("Starting web client on port %s (api: %s)", port, apiURL)
	log.Fatal(http.ListenAndServe(":"+port, nil))
}

func (s *Server) handleHome(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	s.renderHome(w, r, "")
}

func (s *Server) renderHome(w http.ResponseWriter, r *http.Request, errMsg string) {
	s.history.Refresh(r.Context())
	err := s.templates["home"].ExecuteTemplate(w, "base.html", map[string]interface{}{
		"History": s.history.Entries(),
		"Error":   errMsg,
	})
	if err != nil {
		log.Printf("Template error in home: %v", err)
		http.Error(w, "Template error", http.StatusInternalServerError)
	}
}

func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	if r.Method != "POST" {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Failed to parse form", http.StatusBadRequest)
		return
	}

	url := strings.TrimSpace(r.FormValue("url"))
	if url == "" {
		s.renderHome(w, r, "Please enter a Wikipedia URL")
		return
	}
	numQuestions, err := strconv.Atoi(r.FormValue("num_questions"))
	if err != nil || !wikiquiz.ValidQuestionCount(numQuestions) {
		numQuestions = 6
	}
	difficulty := wikiquiz.Difficulty(r.FormValue("difficulty"))
	if !difficulty.Valid() {
		difficulty = wikiquiz.DifficultyMixed
	}

	payload, err := s.client.GenerateQuiz(r.Context(), wikiquiz.GenerationRequest{
		URL:          url,
		Difficulty:   difficulty,
		NumQuestions: numQuestions,
	})
	if err != nil {
		log.Printf("Generation failed: %v", err)
		if apiErr, ok := err.(*wikiquiz.APIError); ok && apiErr.Detail != "" {
			s.renderHome(w, r, apiErr.Detail)
		} else {
			s.renderHome(w, r, "Failed to generate quiz. Please try again.")
		}
		return
	}

	http.Redirect(w, r, fmt.Sprintf("/quiz/%d", payload.ID), http.StatusSeeOther)
}

func (s *Server) handleQuiz(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/quiz/")
	parts := strings.Split(path, "/")
	if len(parts) == 0 || parts[0] == "" {
		http.NotFound(w, r)
		return
	}
	quizID, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		http.NotFound(w, r)
		return
	}

	payload, err := s.client.QuizByID(r.Context(), quizID)
	if err != nil {
		log.Printf("Failed to fetch quiz %d: %v", quizID, err)
		http.NotFound(w, r)
		return
	}

	if len(parts) == 1 {
		s.handleOverview(w, r, payload)
		return
	}
	switch parts[1] {
	case "take":
		s.handleTake(w, r, payload)
	case "question":
		s.handleQuestion(w, r, payload)
	case "results":
		s.handleResults(w, r, payload)
	case "review":
		s.handleReview(w, r, payload)
	default:
		http.NotFound(w, r)
	}
}

func (s *Server) handleOverview(w http.ResponseWriter, r *http.Request, payload *wikiquiz.QuizPayload) {
	err := s.templates["overview"].ExecuteTemplate(w, "base.html", map[string]interface{}{
		"Quiz": payload,
	})
	if err != nil {
		log.Printf("Template error in overview: %v", err)
		http.Error(w, "Template error", http.StatusInternalServerError)
	}
}

// handleTake starts a fresh attempt and jumps to the first question.
func (s *Server) handleTake(w http.ResponseWriter, r *http.Request, payload *wikiquiz.QuizPayload) {
	session := wikiquiz.NewSession(payload)
	s.saveState(w, r, stateOf(session, payload.ID))
	http.Redirect(w, r, fmt.Sprintf("/quiz/%d/question", payload.ID), http.StatusSeeOther)
}

type optionView struct {
	Text  string
	Class string
}

func optionViews(session *wikiquiz.Session, i int) []optionView {
	q := session.Questions[i]
	views := make([]optionView, 0, len(q.Options))
	for _, opt := range q.Options {
		class := ""
		switch session.OptionStateAt(i, opt) {
		case wikiquiz.OptionSelected:
			class = "selected"
		case wikiquiz.OptionCorrect:
			class = "correct"
		case wikiquiz.OptionIncorrect:
			class = "incorrect"
		}
		views = append(views, optionView{Text: opt, Class: class})
	}
	return views
}

func (s *Server) handleQuestion(w http.ResponseWriter, r *http.Request, payload *wikiquiz.QuizPayload) {
	state, ok := s.loadState(r, payload.ID)
	if !ok {
		http.Redirect(w, r, fmt.Sprintf("/quiz/%d", payload.ID), http.StatusSeeOther)
		return
	}
	session := state.session(payload)

	if r.Method == "POST" {
		if err := r.ParseForm(); err != nil {
			http.Error(w, "Failed to parse form", http.StatusBadRequest)
			return
		}
		switch r.FormValue("action") {
		case "select":
			session.Select(r.FormValue("option"))
		case "next":
			session.Next()
		case "prev":
			session.Prev()
		case "submit":
			if err := session.Submit(); err != nil {
				// Incomplete submits are blocked in the page; a direct
				// POST just lands back on the question.
				wikiquiz.VerboseLog("rejected submit for quiz %d: %v", payload.ID, err)
			}
		}
		s.saveState(w, r, stateOf(session, payload.ID))
		if session.Screen == wikiquiz.ScreenResults {
			http.Redirect(w, r, fmt.Sprintf("/quiz/%d/results", payload.ID), http.StatusSeeOther)
			return
		}
		http.Redirect(w, r, fmt.Sprintf("/quiz/%d/question", payload.ID), http.StatusSeeOther)
		return
	}

	q := session.Questions[session.Current]
	err := s.templates["question"].ExecuteTemplate(w, "base.html", map[string]interface{}{
		"Quiz":          payload,
		"Question":      q,
		"Number":        session.Current + 1,
		"Total":         len(session.Questions),
		"Options":       optionViews(session, session.Current),
		"AnsweredCount": session.AnsweredCount(),
		"CanSubmit":     session.CanSubmit(),
		"IsLast":        session.Current == len(session.Questions)-1,
		"IsFirst":       session.Current == 0,
	})
	if err != nil {
		log.Printf("Template error in question: %v", err)
		http.Error(w, "Template error", http.StatusInternalServerError)
	}
}

func (s *Server) handleResults(w http.ResponseWriter, r *http.Request, payload *wikiquiz.QuizPayload) {
	state, ok := s.loadState(r, payload.ID)
	if !ok || !state.Submitted {
		http.Redirect(w, r, fmt.Sprintf("/quiz/%d", payload.ID), http.StatusSeeOther)
		return
	}
	session := state.session(payload)

	if r.Method == "POST" {
		switch r.FormValue("action") {
		case "review":
			session.ReviewAnswers()
			s.saveState(w, r, stateOf(session, payload.ID))
			http.Redirect(w, r, fmt.Sprintf("/quiz/%d/review", payload.ID), http.StatusSeeOther)
		case "retry":
			session.Retry()
			s.saveState(w, r, stateOf(session, payload.ID))
			http.Redirect(w, r, fmt.Sprintf("/quiz/%d/question", payload.ID), http.StatusSeeOther)
		default:
			http.Redirect(w, r, fmt.Sprintf("/quiz/%d", payload.ID), http.StatusSeeOther)
		}
		return
	}

	err := s.templates["results"].ExecuteTemplate(w, "base.html", map[string]interface{}{
		"Quiz":       payload,
		"Score":      session.Score(),
		"Total":      len(session.Questions),
		"Percentage": session.Percentage(),
		"Message":    wikiquiz.ResultMessage(session.Percentage()),
	})
	if err != nil {
		log.Printf("Template error in results: %v", err)
		http.Error(w, "Template error", http.StatusInternalServerError)
	}
}

func (s *Server) handleReview(w http.ResponseWriter, r *http.Request, payload *wikiquiz.QuizPayload) {
	state, ok := s.loadState(r, payload.ID)
	if !ok || !state.Submitted {
		http.Redirect(w, r, fmt.Sprintf("/quiz/%d", payload.ID), http.StatusSeeOther)
		return
	}
	session := state.session(payload)

	if r.Method == "POST" {
		switch r.FormValue("action") {
		case "back":
			session.BackToResults()
			s.saveState(w, r, stateOf(session, payload.ID))
			http.Redirect(w, r, fmt.Sprintf("/quiz/%d/results", payload.ID), http.StatusSeeOther)
		case "retry":
			session.Retry()
			s.saveState(w, r, stateOf(session, payload.ID))
			http.Redirect(w, r, fmt.Sprintf("/quiz/%d/question", payload.ID), http.StatusSeeOther)
		default:
			http.Redirect(w, r, fmt.Sprintf("/quiz/%d", payload.ID), http.StatusSeeOther)
		}
		return
	}

	type reviewItem struct {
		Number      int
		Question    string
		Explanation string
		Correct     bool
		Options     []optionView
	}
	items := make([]reviewItem, 0, len(session.Questions))
	for i, q := range session.Questions {
		items = append(items, reviewItem{
			Number:      i + 1,
			Question:    q.Question,
			Explanation: q.Explanation,
			Correct:     session.IsCorrect(i),
			Options:     optionViews(session, i),
		})
	}

	err := s.templates["review"].ExecuteTemplate(w, "base.html", map[string]interface{}{
		"Quiz":       payload,
		"Score":      session.Score(),
		"Total":      len(session.Questions),
		"Percentage": session.Percentage(),
		"Items":      items,
	})
	if err != nil {
		log.Printf("Template error in review: %v", err)
		http.Error(w, "Template error", http.StatusInternalServerError)
	}
}

func (s *Server) loadState(r *http.Request, quizID int64) (takeState, bool) {
	cookie, _ := s.store.Get(r, "quiz-session")
	raw, exists := cookie.Values["take"]
	if !exists {
		return takeState{}, false
	}
	state, ok := raw.(takeState)
	if !ok || state.QuizID != quizID {
		return takeState{}, false
	}
	return state, true
}

func (s *Server) saveState(w http.ResponseWriter, r *http.Request, state takeState) {
	cookie, _ := s.store.Get(r, "quiz-session")
	cookie.Values["take"] = state
	if err := cookie.Save(r, w); err != nil {
		log.Printf("Session save error: %v", err)
	}
}
