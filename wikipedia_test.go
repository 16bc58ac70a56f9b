package wikiquiz

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestValidWikipediaArticleURL(t *testing.T) {
	tests := []struct {
		url  string
		want bool
	}{
		{"https://en.wikipedia.org/wiki/Go_(programming_language)", true},
		{"http://en.wikipedia.org/wiki/Go", true},
		{"https://de.wikipedia.org/wiki/Berlin", true},
		{"https://wikipedia.org/wiki/Earth", true},
		{"https://zh-yue.wikipedia.org/wiki/香港", true},
		{"https://en.wikipedia.org/wiki/", false},
		{"https://en.wikipedia.org/w/index.php?title=Go", false},
		{"https://example.com/wiki/Go", false},
		{"https://en.wikipedia.org.evil.com/wiki/Go", false},
		{"not a url", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := ValidWikipediaArticleURL(tt.url); got != tt.want {
			t.Errorf("ValidWikipediaArticleURL(%q) = %v, want %v", tt.url, got, tt.want)
		}
	}
}

func TestArticleTitle(t *testing.T) {
	tests := []struct {
		url     string
		want    string
		wantErr bool
	}{
		{"https://en.wikipedia.org/wiki/Go_(programming_language)", "Go (programming language)", false},
		{"https://en.wikipedia.org/wiki/Albert_Einstein", "Albert Einstein", false},
		{"https://en.wikipedia.org/wiki/C%2B%2B", "C++", false},
		{"https://en.wikipedia.org/wiki/Go", "Go", false},
		{"https://en.wikipedia.org/", "", true},
		{"https://en.wikipedia.org/about/Go", "", true},
	}
	for _, tt := range tests {
		got, err := ArticleTitle(tt.url)
		if (err != nil) != tt.wantErr {
			t.Errorf("ArticleTitle(%q) error = %v, wantErr %v", tt.url, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ArticleTitle(%q) = %q, want %q", tt.url, got, tt.want)
		}
	}
}

func TestSummarize(t *testing.T) {
	long := strings.Repeat("a", 300)
	tests := []struct {
		name    string
		extract string
		want    string
	}{
		{"skips short paragraphs", "short\n" + long, long},
		{"stops after enough text", long + "\n" + long + "\nextra paragraph that is definitely long enough to count here", long + " " + long},
		{"empty extract", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := summarize(tt.extract); got != tt.want {
				t.Errorf("summarize() = %q, want %q", got, tt.want)
			}
		})
	}

	t.Run("caps at limit", func(t *testing.T) {
		huge := strings.Repeat("b", 2*maxSummaryLen)
		if got := summarize(huge); len(got) != maxSummaryLen {
			t.Errorf("summarize() length = %d, want %d", len(got), maxSummaryLen)
		}
	})
}

func TestCollapseWhitespace(t *testing.T) {
	got := collapseWhitespace("  a\n\nb\t c  ")
	if got != "a b c" {
		t.Errorf("collapseWhitespace() = %q", got)
	}
}

// mediawikiStub serves canned responses for the two api.php calls Fetch makes.
func mediawikiStub(t *testing.T, extractBody, parseBody string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Query().Get("action") {
		case "query":
			w.Write([]byte(extractBody))
		case "parse":
			w.Write([]byte(parseBody))
		default:
			t.Errorf("unexpected action %q", r.URL.Query().Get("action"))
			http.NotFound(w, r)
		}
	}))
}

func TestFetchBuildsArticle(t *testing.T) {
	lead := "Go is a statically typed, compiled high-level programming language designed at Google."
	srv := mediawikiStub(t,
		`{"query":{"pages":[{"title":"Go (programming language)","extract":"`+lead+`\nshort"}]}}`,
		`{"parse":{
			"sections":[
				{"line":"History","toclevel":1},
				{"line":"Design","toclevel":1},
				{"line":"Typing","toclevel":2},
				{"line":"Deep detail","toclevel":3},
				{"line":"See also","toclevel":1},
				{"line":"References","toclevel":1}
			],
			"links":[
				{"ns":0,"title":"Google","exists":true},
				{"ns":0,"title":"C","exists":true},
				{"ns":0,"title":"Rob Pike","exists":true},
				{"ns":14,"title":"Category:Languages","exists":true},
				{"ns":0,"title":"Missing page","exists":false}
			]}}`)
	defer srv.Close()

	f := NewWikipediaFetcher()
	f.APIBase = srv.URL

	article, err := f.Fetch(context.Background(), "https://en.wikipedia.org/wiki/Go_(programming_language)")
	if err != nil {
		t.Fatalf("Fetch() = %v", err)
	}
	if article.Title != "Go (programming language)" {
		t.Errorf("Title = %q", article.Title)
	}
	if article.Summary != lead {
		t.Errorf("Summary = %q", article.Summary)
	}
	wantSections := []string{"History", "Design", "Typing"}
	if len(article.Sections) != len(wantSections) {
		t.Fatalf("Sections = %v, want %v", article.Sections, wantSections)
	}
	for i, s := range wantSections {
		if article.Sections[i] != s {
			t.Errorf("Sections[%d] = %q, want %q", i, article.Sections[i], s)
		}
	}
	wantLinks := []string{"Google", "Rob Pike"}
	if len(article.Links) != len(wantLinks) {
		t.Fatalf("Links = %v, want %v", article.Links, wantLinks)
	}
}

func TestFetchMissingArticle(t *testing.T) {
	srv := mediawikiStub(t,
		`{"query":{"pages":[{"title":"Nope","missing":true}]}}`,
		`{}`)
	defer srv.Close()

	f := NewWikipediaFetcher()
	f.APIBase = srv.URL

	if _, err := f.Fetch(context.Background(), "https://en.wikipedia.org/wiki/Nope"); err == nil {
		t.Fatal("Fetch() of a missing article returned nil error")
	}
}

func TestFetchRejectsNonWikipediaURL(t *testing.T) {
	f := NewWikipediaFetcher()
	if _, err := f.Fetch(context.Background(), "https://example.com/wiki/Go"); err == nil {
		t.Fatal("Fetch() of a non-Wikipedia URL returned nil error")
	}
}

func TestTitlePreview(t *testing.T) {
	srv := mediawikiStub(t,
		`{"query":{"pages":[{"title":"Albert Einstein","extract":"Albert Einstein was a theoretical physicist."}]}}`,
		`{}`)
	defer srv.Close()

	f := NewWikipediaFetcher()
	f.APIBase = srv.URL

	title, err := f.TitlePreview(context.Background(), "https://en.wikipedia.org/wiki/Albert_Einstein")
	if err != nil {
		t.Fatalf("TitlePreview() = %v", err)
	}
	if title != "Albert Einstein" {
		t.Errorf("TitlePreview() = %q", title)
	}
}
