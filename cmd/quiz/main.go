package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	wikiquiz "github.com/Electron910/Wikipedia-quiz"
)

// App is the interactive terminal client. It composes the generation
// controller, the history browser and per-quiz sessions over one API client.
type App struct {
	in         *bufio.Scanner
	controller *wikiquiz.Controller
	history    *wikiquiz.HistoryBrowser
}

func main() {
	wikiquiz.SetVerbose(os.Getenv("VERBOSE") != "")

	apiURL := os.Getenv("QUIZ_API_URL")
	if apiURL == "" {
		apiURL = "http://localhost:8000"
	}

	client := wikiquiz.NewClient(apiURL)
	history := wikiquiz.NewHistoryBrowser(client)
	controller := wikiquiz.NewController(client, history)
	defer controller.Close()

	app := &App{
		in:         bufio.NewScanner(os.Stdin),
		controller: controller,
		history:    history,
	}
	app.run()
}

func (a *App) run() {
	fmt.Println("Wikipedia Quiz")
	fmt.Println("Enter a Wikipedia article URL to generate a quiz.")
	fmt.Println("Commands: history, quit")

	for {
		line, ok := a.prompt("\nurl> ")
		if !ok || line == "quit" || line == "exit" {
			return
		}
		switch {
		case line == "":
			continue
		case line == "history":
			a.showHistory()
		default:
			a.generate(line)
		}
	}
}

func (a *App) prompt(p string) (string, bool) {
	fmt.Print(p)
	if !a.in.Scan() {
		return "", false
	}
	return strings.TrimSpace(a.in.Text()), true
}

// generate runs the full generation flow for url: validation preview,
// difficulty and count selection, then the request with its rotating status
// line.
func (a *App) generate(url string) {
	a.controller.SetURL(url)

	// Give the debounced validation a moment to produce a preview.
	time.Sleep(wikiquiz.DefaultDebounceDelay + 700*time.Millisecond)
	if p := a.controller.Preview(); p != nil && p.Valid {
		fmt.Printf("Article found: %s\n", p.Title)
	}

	if d, ok := a.prompt("difficulty (easy/medium/hard/mixed) [mixed]: "); ok && d != "" {
		a.controller.SetDifficulty(wikiquiz.Difficulty(d))
	}
	if c, ok := a.prompt("questions (4/6/8/10) [6]: "); ok && c != "" {
		if n, err := strconv.Atoi(c); err == nil {
			a.controller.SetNumQuestions(n)
		}
	}

	stop := make(chan struct{})
	go func() {
		ticker := time.NewTicker(time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				fmt.Printf("\r%-50s", a.controller.StatusMessage())
			}
		}
	}()

	payload, err := a.controller.Generate(context.Background())
	close(stop)
	fmt.Printf("\r%-50s\r", "")
	if err != nil {
		fmt.Printf("Error: %s\n", a.controller.ErrorMessage())
		return
	}

	a.showOverview(payload)
	if answer, ok := a.prompt("take this quiz now? [Y/n]: "); ok && answer != "n" {
		a.takeQuiz(payload)
	}
}

func (a *App) showOverview(p *wikiquiz.QuizPayload) {
	fmt.Printf("\n== %s ==\n", p.Title)
	fmt.Printf("%s quiz, %d questions\n\n", p.Difficulty, len(p.Quiz))
	if p.Summary != "" {
		fmt.Println(p.Summary)
		fmt.Println()
	}
	printList("People", p.KeyEntities.People)
	printList("Organizations", p.KeyEntities.Organizations)
	printList("Locations", p.KeyEntities.Locations)
	printList("Sections", p.Sections)
	printList("Related topics", p.RelatedTopics)
}

func printList(label string, items []string) {
	if len(items) == 0 {
		return
	}
	fmt.Printf("%s: %s\n", label, strings.Join(items, ", "))
}

// takeQuiz drives one session through its three screens until the user
// exits back to the overview.
func (a *App) takeQuiz(payload *wikiquiz.QuizPayload) {
	session := wikiquiz.NewSession(payload)
	for {
		switch session.Screen {
		case wikiquiz.ScreenAnswering:
			if !a.answerScreen(session) {
				return
			}
		case wikiquiz.ScreenResults:
			if !a.resultsScreen(session) {
				return
			}
		case wikiquiz.ScreenReview:
			if !a.reviewScreen(session) {
				return
			}
		}
	}
}

// answerScreen shows the current question and handles one command. It
// returns false when the user exits the quiz.
func (a *App) answerScreen(s *wikiquiz.Session) bool {
	q := s.Questions[s.Current]
	fmt.Printf("\nQuestion %d of %d  (%d answered)\n", s.Current+1, len(s.Questions), s.AnsweredCount())
	fmt.Printf("%s\n", q.Question)
	for i, opt := range q.Options {
		marker := " "
		if s.OptionStateAt(s.Current, opt) == wikiquiz.OptionSelected {
			marker = ">"
		}
		fmt.Printf(" %s %d. %s\n", marker, i+1, opt)
	}

	line, ok := a.prompt("answer number, (n)ext, (p)rev, submit, exit: ")
	if !ok || line == "exit" {
		return false
	}
	switch line {
	case "n", "next":
		s.Next()
	case "p", "prev":
		s.Prev()
	case "submit":
		if err := s.Submit(); err != nil {
			fmt.Printf("Answer all questions first (%d of %d answered).\n", s.AnsweredCount(), len(s.Questions))
		}
	default:
		if n, err := strconv.Atoi(line); err == nil && n >= 1 && n <= len(q.Options) {
			s.Select(q.Options[n-1])
		}
	}
	return true
}

func (a *App) resultsScreen(s *wikiquiz.Session) bool {
	fmt.Printf("\nQuiz completed: %s\n", s.Title)
	fmt.Printf("Score: %d/%d (%d%%)\n", s.Score(), len(s.Questions), s.Percentage())
	fmt.Println(wikiquiz.ResultMessage(s.Percentage()))

	line, ok := a.prompt("(r)eview answers, retry, exit: ")
	if !ok || line == "exit" {
		return false
	}
	switch line {
	case "r", "review":
		s.ReviewAnswers()
	case "retry":
		s.Retry()
	}
	return true
}

func (a *App) reviewScreen(s *wikiquiz.Session) bool {
	fmt.Printf("\nReview: %s — %d/%d (%d%%)\n", s.Title, s.Score(), len(s.Questions), s.Percentage())
	for i, q := range s.Questions {
		verdict := "incorrect"
		if s.IsCorrect(i) {
			verdict = "correct"
		}
		fmt.Printf("\n%d. %s  [%s]\n", i+1, q.Question, verdict)
		for _, opt := range q.Options {
			marker := " "
			switch s.OptionStateAt(i, opt) {
			case wikiquiz.OptionCorrect:
				marker = "+"
			case wikiquiz.OptionIncorrect:
				marker = "x"
			}
			fmt.Printf(" %s %s\n", marker, opt)
		}
		if q.Explanation != "" {
			fmt.Printf("   %s\n", q.Explanation)
		}
	}

	line, ok := a.prompt("\n(b)ack to results, retry, exit: ")
	if !ok || line == "exit" {
		return false
	}
	switch line {
	case "b", "back":
		s.BackToResults()
	case "retry":
		s.Retry()
	}
	return true
}

func (a *App) showHistory() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	a.history.Refresh(ctx)

	entries := a.history.Entries()
	if len(entries) == 0 {
		fmt.Println("No past quizzes.")
		return
	}
	fmt.Println("\nPast quizzes:")
	for _, e := range entries {
		fmt.Printf("  %4d  %-40s %-6s %s\n", e.ID, e.Title, e.Difficulty, e.CreatedAt.Format("2006-01-02 15:04"))
	}

	line, ok := a.prompt("quiz id to open (empty to go back): ")
	if !ok || line == "" {
		return
	}
	id, err := strconv.ParseInt(line, 10, 64)
	if err != nil {
		return
	}
	openCtx, cancelOpen := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelOpen()
	payload, err := a.history.Open(openCtx, id)
	if err != nil {
		fmt.Println("Could not load that quiz.")
		return
	}
	a.showOverview(payload)
	if answer, ok := a.prompt("take this quiz now? [Y/n]: "); ok && answer != "n" {
		a.takeQuiz(payload)
	}
}
