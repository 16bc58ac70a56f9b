package wikiquiz

import (
	"errors"
	"math"
)

// ErrQuizIncomplete is returned by Submit while any question is unanswered.
var ErrQuizIncomplete = errors.New("wikiquiz: all questions must be answered before submitting")

// Screen is the view a quiz session is currently showing.
type Screen string

const (
	ScreenAnswering Screen = "answering"
	ScreenResults   Screen = "results"
	ScreenReview    Screen = "review"
)

// Session is one attempt at taking a quiz. It reads the payload's questions
// and never mutates them; all mutable state lives in the session itself.
// Fields are exported so a session survives gob encoding in a cookie store.
//
// The flow is answering -> results -> review, with Retry returning to a
// fresh answering state from either leaf. Exiting to the overview is simply
// dropping the session.
type Session struct {
	Title     string
	Questions []Question
	Screen    Screen
	Current   int
	Answers   map[int]string
	Submitted bool
	Correct   int
}

// NewSession starts a fresh attempt at the questions in payload.
func NewSession(payload *QuizPayload) *Session {
	return &Session{
		Title:     payload.Title,
		Questions: payload.Quiz,
		Screen:    ScreenAnswering,
		Answers:   make(map[int]string),
	}
}

// Select records option as the answer to the current question, overwriting
// any earlier choice. It does not advance. No-op after submission.
func (s *Session) Select(option string) {
	if s.Submitted || s.Screen != ScreenAnswering {
		return
	}
	if s.Answers == nil {
		s.Answers = make(map[int]string)
	}
	s.Answers[s.Current] = option
}

// Next moves to the following question, stopping at the last one.
func (s *Session) Next() {
	if s.Current < len(s.Questions)-1 {
		s.Current++
	}
}

// Prev moves to the preceding question, stopping at the first one.
func (s *Session) Prev() {
	if s.Current > 0 {
		s.Current--
	}
}

// AnsweredCount returns how many questions have an answer recorded.
func (s *Session) AnsweredCount() int {
	return len(s.Answers)
}

// CanSubmit reports whether every question has been answered.
func (s *Session) CanSubmit() bool {
	return len(s.Answers) == len(s.Questions)
}

// Submit finalizes the attempt and computes the score once. It fails with
// ErrQuizIncomplete while any question is unanswered.
func (s *Session) Submit() error {
	if s.Submitted {
		return nil
	}
	if !s.CanSubmit() {
		return ErrQuizIncomplete
	}
	correct := 0
	for i, q := range s.Questions {
		if s.Answers[i] == q.Answer {
			correct++
		}
	}
	s.Correct = correct
	s.Submitted = true
	s.Screen = ScreenResults
	return nil
}

// Score returns the number of correctly answered questions. Meaningful only
// after Submit.
func (s *Session) Score() int {
	return s.Correct
}

// Percentage returns the score as a rounded percentage of the question count.
func (s *Session) Percentage() int {
	if len(s.Questions) == 0 {
		return 0
	}
	return int(math.Round(float64(s.Correct) * 100 / float64(len(s.Questions))))
}

// IsCorrect reports whether question i was answered correctly.
func (s *Session) IsCorrect(i int) bool {
	if i < 0 || i >= len(s.Questions) {
		return false
	}
	return s.Answers[i] == s.Questions[i].Answer
}

// ReviewAnswers switches from the results screen to the per-question review.
func (s *Session) ReviewAnswers() {
	if s.Screen == ScreenResults {
		s.Screen = ScreenReview
	}
}

// BackToResults returns from the review to the results screen.
func (s *Session) BackToResults() {
	if s.Screen == ScreenReview {
		s.Screen = ScreenResults
	}
}

// Retry discards all answers and starts the attempt over from the first
// question.
func (s *Session) Retry() {
	s.Answers = make(map[int]string)
	s.Submitted = false
	s.Correct = 0
	s.Current = 0
	s.Screen = ScreenAnswering
}

// OptionState is the visual classification of one option of one question.
type OptionState int

const (
	// OptionNeutral is an option with nothing to mark.
	OptionNeutral OptionState = iota
	// OptionSelected is the user's current pick before submission.
	OptionSelected
	// OptionCorrect marks the correct answer after submission, whether or
	// not the user picked it.
	OptionCorrect
	// OptionIncorrect marks the user's wrong pick after submission.
	OptionIncorrect
)

// ClassifyOption decides how one option should be marked. It is a pure
// function of the submission flag, the option, the user's selection for that
// question, and the correct answer; comparisons are exact string equality.
func ClassifyOption(submitted bool, option, selected, answer string) OptionState {
	if !submitted {
		if option == selected && selected != "" {
			return OptionSelected
		}
		return OptionNeutral
	}
	if option == answer {
		return OptionCorrect
	}
	if option == selected {
		return OptionIncorrect
	}
	return OptionNeutral
}

// OptionStateAt classifies option for question i in this session.
func (s *Session) OptionStateAt(i int, option string) OptionState {
	if i < 0 || i >= len(s.Questions) {
		return OptionNeutral
	}
	return ClassifyOption(s.Submitted, option, s.Answers[i], s.Questions[i].Answer)
}

// ResultMessage returns the encouragement line shown with a final score.
func ResultMessage(percentage int) string {
	switch {
	case percentage >= 80:
		return "Excellent work! You really know this topic!"
	case percentage >= 60:
		return "Good job! Keep learning!"
	default:
		return "Keep studying! You can do better!"
	}
}
