package wikiquiz

import "testing"

func testPayload(n int) *QuizPayload {
	questions := make([]Question, n)
	for i := range questions {
		questions[i] = Question{
			Question:   "q",
			Options:    []string{"A", "B", "C", "D"},
			Answer:     "A",
			Difficulty: "easy",
		}
	}
	return &QuizPayload{Title: "Test Quiz", Quiz: questions}
}

func TestSessionScoring(t *testing.T) {
	s := NewSession(testPayload(4))

	// 3 of 4 correct
	answers := []string{"A", "A", "A", "B"}
	for i, a := range answers {
		s.Select(a)
		if i < 3 {
			s.Next()
		}
	}
	if err := s.Submit(); err != nil {
		t.Fatalf("Submit() = %v, want nil", err)
	}
	if got := s.Score(); got != 3 {
		t.Errorf("Score() = %d, want 3", got)
	}
	if got := s.Percentage(); got != 75 {
		t.Errorf("Percentage() = %d, want 75", got)
	}
	if s.Screen != ScreenResults {
		t.Errorf("Screen = %q, want %q", s.Screen, ScreenResults)
	}
}

func TestSessionSubmitRequiresAllAnswers(t *testing.T) {
	for _, n := range []int{1, 2, 4, 10} {
		s := NewSession(testPayload(n))
		for answered := 0; answered < n-1; answered++ {
			s.Select("A")
			if err := s.Submit(); err != ErrQuizIncomplete {
				t.Fatalf("n=%d answered=%d: Submit() = %v, want ErrQuizIncomplete", n, answered+1, err)
			}
			s.Next()
		}
		s.Select("A")
		if err := s.Submit(); err != nil {
			t.Fatalf("n=%d fully answered: Submit() = %v, want nil", n, err)
		}
		if s.Score() > n || s.Score() < 0 {
			t.Errorf("n=%d: Score() = %d out of range", n, s.Score())
		}
	}
}

func TestSessionNavigationClamps(t *testing.T) {
	s := NewSession(testPayload(3))

	s.Prev()
	if s.Current != 0 {
		t.Errorf("Prev at first question: Current = %d, want 0", s.Current)
	}
	for i := 0; i < 10; i++ {
		s.Next()
	}
	if s.Current != 2 {
		t.Errorf("Next past last question: Current = %d, want 2", s.Current)
	}
	s.Prev()
	if s.Current != 1 {
		t.Errorf("Prev: Current = %d, want 1", s.Current)
	}
}

func TestSessionSelectOverwritesAndStays(t *testing.T) {
	s := NewSession(testPayload(2))
	s.Select("B")
	s.Select("C")
	if got := s.Answers[0]; got != "C" {
		t.Errorf("Answers[0] = %q, want %q", got, "C")
	}
	if s.Current != 0 {
		t.Errorf("Select advanced Current to %d, want 0", s.Current)
	}
	if s.AnsweredCount() != 1 {
		t.Errorf("AnsweredCount() = %d, want 1", s.AnsweredCount())
	}
}

func TestSessionSelectIgnoredAfterSubmit(t *testing.T) {
	s := NewSession(testPayload(1))
	s.Select("B")
	if err := s.Submit(); err != nil {
		t.Fatalf("Submit() = %v", err)
	}
	s.Select("A")
	if got := s.Answers[0]; got != "B" {
		t.Errorf("Answers[0] = %q after post-submit Select, want %q", got, "B")
	}
}

func TestSessionRetryResetsEverything(t *testing.T) {
	states := []func(s *Session){
		func(s *Session) {}, // answering, mid-quiz
		func(s *Session) { s.Submit() },
		func(s *Session) { s.Submit(); s.ReviewAnswers() },
	}
	for i, prepare := range states {
		s := NewSession(testPayload(2))
		s.Select("A")
		s.Next()
		s.Select("B")
		prepare(s)

		s.Retry()
		if len(s.Answers) != 0 {
			t.Errorf("case %d: Retry left %d answers", i, len(s.Answers))
		}
		if s.Submitted {
			t.Errorf("case %d: Retry left Submitted = true", i)
		}
		if s.Current != 0 {
			t.Errorf("case %d: Retry left Current = %d", i, s.Current)
		}
		if s.Screen != ScreenAnswering {
			t.Errorf("case %d: Retry left Screen = %q", i, s.Screen)
		}
	}
}

func TestSessionScreenTransitions(t *testing.T) {
	s := NewSession(testPayload(1))

	// Review is unreachable before submitting.
	s.ReviewAnswers()
	if s.Screen != ScreenAnswering {
		t.Fatalf("ReviewAnswers before submit: Screen = %q", s.Screen)
	}

	s.Select("A")
	if err := s.Submit(); err != nil {
		t.Fatalf("Submit() = %v", err)
	}
	s.ReviewAnswers()
	if s.Screen != ScreenReview {
		t.Fatalf("ReviewAnswers: Screen = %q, want %q", s.Screen, ScreenReview)
	}
	s.BackToResults()
	if s.Screen != ScreenResults {
		t.Fatalf("BackToResults: Screen = %q, want %q", s.Screen, ScreenResults)
	}
}

func TestSessionScoringIsExact(t *testing.T) {
	// No normalization: case and whitespace differences do not count.
	payload := &QuizPayload{Quiz: []Question{
		{Question: "q", Options: []string{"Paris", "London"}, Answer: "Paris"},
		{Question: "q", Options: []string{"Paris ", "London"}, Answer: "Paris "},
	}}
	s := NewSession(payload)
	s.Select("paris")
	s.Next()
	s.Select("Paris ")
	if err := s.Submit(); err != nil {
		t.Fatalf("Submit() = %v", err)
	}
	if got := s.Score(); got != 1 {
		t.Errorf("Score() = %d, want 1", got)
	}
}

func TestClassifyOption(t *testing.T) {
	tests := []struct {
		name      string
		submitted bool
		option    string
		selected  string
		answer    string
		want      OptionState
	}{
		{"unsubmitted selected", false, "A", "A", "B", OptionSelected},
		{"unsubmitted unselected", false, "A", "B", "A", OptionNeutral},
		{"unsubmitted no selection", false, "A", "", "A", OptionNeutral},
		{"submitted correct answer shown even when unpicked", true, "A", "B", "A", OptionCorrect},
		{"submitted correct answer picked", true, "A", "A", "A", OptionCorrect},
		{"submitted wrong pick", true, "B", "B", "A", OptionIncorrect},
		{"submitted other option", true, "C", "B", "A", OptionNeutral},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ClassifyOption(tt.submitted, tt.option, tt.selected, tt.answer)
			if got != tt.want {
				t.Errorf("ClassifyOption(%v, %q, %q, %q) = %v, want %v",
					tt.submitted, tt.option, tt.selected, tt.answer, got, tt.want)
			}
		})
	}
}

func TestResultMessage(t *testing.T) {
	tests := []struct {
		percentage int
		want       string
	}{
		{100, "Excellent work! You really know this topic!"},
		{80, "Excellent work! You really know this topic!"},
		{79, "Good job! Keep learning!"},
		{60, "Good job! Keep learning!"},
		{59, "Keep studying! You can do better!"},
		{0, "Keep studying! You can do better!"},
	}
	for _, tt := range tests {
		if got := ResultMessage(tt.percentage); got != tt.want {
			t.Errorf("ResultMessage(%d) = %q, want %q", tt.percentage, got, tt.want)
		}
	}
}

func TestPercentageRounding(t *testing.T) {
	tests := []struct {
		correct int
		total   int
		want    int
	}{
		{1, 3, 33},
		{2, 3, 67},
		{1, 6, 17},
		{5, 6, 83},
		{0, 4, 0},
		{4, 4, 100},
	}
	for _, tt := range tests {
		s := NewSession(testPayload(tt.total))
		s.Correct = tt.correct
		if got := s.Percentage(); got != tt.want {
			t.Errorf("Percentage() with %d/%d = %d, want %d", tt.correct, tt.total, got, tt.want)
		}
	}
}
