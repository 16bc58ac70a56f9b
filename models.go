package wikiquiz

import (
	"fmt"
	"time"
)

// Difficulty is the requested difficulty of a quiz.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
	DifficultyMixed  Difficulty = "mixed"
)

// Valid reports whether d is one of the known difficulty levels.
func (d Difficulty) Valid() bool {
	switch d {
	case DifficultyEasy, DifficultyMedium, DifficultyHard, DifficultyMixed:
		return true
	}
	return false
}

// QuestionCounts are the question counts a quiz may be generated with.
var QuestionCounts = []int{4, 6, 8, 10}

// ValidQuestionCount reports whether n is an allowed question count.
func ValidQuestionCount(n int) bool {
	for _, c := range QuestionCounts {
		if n == c {
			return true
		}
	}
	return false
}

// Question is a single multiple choice question. The correct answer is the
// exact option string, not an index.
type Question struct {
	Question    string   `json:"question"`
	Options     []string `json:"options"`
	Answer      string   `json:"answer"`
	Difficulty  string   `json:"difficulty"`
	Explanation string   `json:"explanation,omitempty"`
}

// Validate checks the structural invariants of a question: at least two
// unique options, and an answer that matches exactly one of them.
func (q Question) Validate() error {
	if q.Question == "" {
		return fmt.Errorf("question text is empty")
	}
	if len(q.Options) < 2 {
		return fmt.Errorf("question %q has %d options, need at least 2", q.Question, len(q.Options))
	}
	seen := make(map[string]struct{}, len(q.Options))
	matches := 0
	for _, opt := range q.Options {
		if _, dup := seen[opt]; dup {
			return fmt.Errorf("question %q has duplicate option %q", q.Question, opt)
		}
		seen[opt] = struct{}{}
		if opt == q.Answer {
			matches++
		}
	}
	if matches != 1 {
		return fmt.Errorf("question %q: answer %q does not match exactly one option", q.Question, q.Answer)
	}
	return nil
}

// KeyEntities are the named entities extracted from an article.
type KeyEntities struct {
	People        []string `json:"people"`
	Organizations []string `json:"organizations"`
	Locations     []string `json:"locations"`
}

// QuizPayload is the complete generated artifact for one article. It is
// immutable once produced; consumers read it and never write back.
type QuizPayload struct {
	ID            int64       `json:"id"`
	URL           string      `json:"url"`
	Title         string      `json:"title"`
	Summary       string      `json:"summary"`
	KeyEntities   KeyEntities `json:"key_entities"`
	Sections      []string    `json:"sections"`
	Quiz          []Question  `json:"quiz"`
	RelatedTopics []string    `json:"related_topics"`
	Difficulty    string      `json:"difficulty"`
	CreatedAt     time.Time   `json:"created_at"`
}

// GenerationRequest is the body of a generate call. A fresh request is built
// for every generate action.
type GenerationRequest struct {
	URL          string     `json:"url"`
	Difficulty   Difficulty `json:"difficulty"`
	NumQuestions int        `json:"num_questions"`
}

// HistoryEntry is one row of the past-quizzes listing.
type HistoryEntry struct {
	ID         int64     `json:"id"`
	URL        string    `json:"url"`
	Title      string    `json:"title"`
	Difficulty string    `json:"difficulty"`
	CreatedAt  time.Time `json:"created_at"`
}

// URLPreview is the result of validating a Wikipedia URL.
type URLPreview struct {
	Valid bool   `json:"valid"`
	Title string `json:"title"`
}
