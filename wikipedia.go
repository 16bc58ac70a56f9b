package wikiquiz

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"
)

var wikipediaArticleRE = regexp.MustCompile(`^https?://([a-z-]+\.)?wikipedia\.org/wiki/.+`)

// ValidWikipediaArticleURL reports whether raw looks like a Wikipedia article
// URL. This is the server-side check; the client only gates on the host.
func ValidWikipediaArticleURL(raw string) bool {
	return wikipediaArticleRE.MatchString(raw)
}

// Article is the material extracted from one Wikipedia page.
type Article struct {
	Title    string
	Summary  string
	Content  string
	Sections []string
	Links    []string
}

// Section headings that carry no quizzable content.
var skipSections = map[string]bool{
	"See also":        true,
	"References":      true,
	"External links":  true,
	"Notes":           true,
	"Further reading": true,
	"Bibliography":    true,
	"Contents":        true,
}

const (
	maxSummaryLen  = 1000
	maxContentLen  = 8000
	maxSections    = 15
	maxLinkedPages = 50
)

// WikipediaFetcher pulls article text, sections and links through the
// MediaWiki JSON APIs of whatever wikipedia.org host the URL names.
type WikipediaFetcher struct {
	// APIBase overrides the api.php endpoint, for tests. When empty the
	// endpoint is derived from the article URL's host.
	APIBase string

	http      *http.Client
	userAgent string
}

// NewWikipediaFetcher creates a fetcher with a sensible request timeout.
func NewWikipediaFetcher() *WikipediaFetcher {
	return &WikipediaFetcher{
		http:      &http.Client{Timeout: 15 * time.Second},
		userAgent: "wikiquiz/1.0 (Wikipedia quiz generator)",
	}
}

// ArticleTitle extracts the article title from a /wiki/ URL, decoding
// percent-escapes and underscores.
func ArticleTitle(raw string) (string, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("failed to parse url: %w", err)
	}
	path := strings.TrimPrefix(u.EscapedPath(), "/wiki/")
	if path == "" || path == u.EscapedPath() {
		return "", fmt.Errorf("url %s has no /wiki/ article path", raw)
	}
	title, err := url.PathUnescape(path)
	if err != nil {
		return "", fmt.Errorf("failed to decode article title: %w", err)
	}
	return strings.ReplaceAll(title, "_", " "), nil
}

// Fetch retrieves the article behind rawURL: plain-text content, the summary
// paragraphs, section headings and linked article titles.
func (f *WikipediaFetcher) Fetch(ctx context.Context, rawURL string) (*Article, error) {
	if !ValidWikipediaArticleURL(rawURL) {
		return nil, fmt.Errorf("invalid Wikipedia URL: %s", rawURL)
	}
	title, err := ArticleTitle(rawURL)
	if err != nil {
		return nil, err
	}
	endpoint, err := f.endpoint(rawURL)
	if err != nil {
		return nil, err
	}

	canonical, extract, err := f.fetchExtract(ctx, endpoint, title)
	if err != nil {
		return nil, err
	}
	sections, links, err := f.fetchStructure(ctx, endpoint, title)
	if err != nil {
		return nil, err
	}

	return &Article{
		Title:    canonical,
		Summary:  summarize(extract),
		Content:  truncate(collapseWhitespace(extract), maxContentLen),
		Sections: sections,
		Links:    links,
	}, nil
}

// TitlePreview resolves the article title for the validation preview. It
// returns an error when the URL is not a Wikipedia article or the page does
// not exist.
func (f *WikipediaFetcher) TitlePreview(ctx context.Context, rawURL string) (string, error) {
	if !ValidWikipediaArticleURL(rawURL) {
		return "", fmt.Errorf("invalid Wikipedia URL: %s", rawURL)
	}
	title, err := ArticleTitle(rawURL)
	if err != nil {
		return "", err
	}
	endpoint, err := f.endpoint(rawURL)
	if err != nil {
		return "", err
	}
	canonical, _, err := f.fetchExtract(ctx, endpoint, title)
	if err != nil {
		return "", err
	}
	return canonical, nil
}

func (f *WikipediaFetcher) endpoint(rawURL string) (string, error) {
	if f.APIBase != "" {
		return f.APIBase, nil
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("failed to parse url: %w", err)
	}
	return "https://" + u.Host + "/w/api.php", nil
}

// fetchExtract returns the canonical title and the plain-text extract of the
// page, using the TextExtracts API so no HTML parsing is needed.
func (f *WikipediaFetcher) fetchExtract(ctx context.Context, endpoint, title string) (string, string, error) {
	params := url.Values{
		"action":        {"query"},
		"prop":          {"extracts"},
		"explaintext":   {"1"},
		"redirects":     {"1"},
		"titles":        {title},
		"format":        {"json"},
		"formatversion": {"2"},
	}
	var resp struct {
		Query struct {
			Pages []struct {
				Title   string `json:"title"`
				Extract string `json:"extract"`
				Missing bool   `json:"missing"`
			} `json:"pages"`
		} `json:"query"`
	}
	if err := f.getJSON(ctx, endpoint, params, &resp); err != nil {
		return "", "", fmt.Errorf("failed to fetch the Wikipedia page: %w", err)
	}
	if len(resp.Query.Pages) == 0 || resp.Query.Pages[0].Missing {
		return "", "", fmt.Errorf("article not found: %s", title)
	}
	page := resp.Query.Pages[0]
	if page.Extract == "" {
		return "", "", fmt.Errorf("article %s has no readable content", page.Title)
	}
	return page.Title, page.Extract, nil
}

// fetchStructure returns the filtered section headings and the linked
// article titles of the page.
func (f *WikipediaFetcher) fetchStructure(ctx context.Context, endpoint, title string) ([]string, []string, error) {
	params := url.Values{
		"action":        {"parse"},
		"page":          {title},
		"prop":          {"sections|links"},
		"redirects":     {"1"},
		"format":        {"json"},
		"formatversion": {"2"},
	}
	var resp struct {
		Parse struct {
			Sections []struct {
				Line     string `json:"line"`
				TocLevel int    `json:"toclevel"`
			} `json:"sections"`
			Links []struct {
				NS     int    `json:"ns"`
				Title  string `json:"title"`
				Exists bool   `json:"exists"`
			} `json:"links"`
		} `json:"parse"`
		Error *struct {
			Info string `json:"info"`
		} `json:"error"`
	}
	if err := f.getJSON(ctx, endpoint, params, &resp); err != nil {
		return nil, nil, fmt.Errorf("failed to fetch the Wikipedia page: %w", err)
	}
	if resp.Error != nil {
		return nil, nil, fmt.Errorf("wikipedia api error: %s", resp.Error.Info)
	}

	var sections []string
	for _, s := range resp.Parse.Sections {
		if s.TocLevel > 2 || skipSections[s.Line] {
			continue
		}
		sections = append(sections, s.Line)
		if len(sections) == maxSections {
			break
		}
	}

	var links []string
	for _, l := range resp.Parse.Links {
		if l.NS != 0 || !l.Exists || len(l.Title) <= 2 {
			continue
		}
		links = append(links, l.Title)
		if len(links) == maxLinkedPages {
			break
		}
	}
	return sections, links, nil
}

func (f *WikipediaFetcher) getJSON(ctx context.Context, endpoint string, params url.Values, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("User-Agent", f.userAgent)
	resp, err := f.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// summarize builds the article summary from the leading paragraphs: only
// substantial paragraphs count, and the result is capped at maxSummaryLen.
func summarize(extract string) string {
	var parts []string
	total := 0
	for _, p := range strings.Split(extract, "\n") {
		p = strings.TrimSpace(p)
		if len(p) <= 50 {
			continue
		}
		parts = append(parts, p)
		total += len(p)
		if total > 500 {
			break
		}
	}
	return truncate(strings.Join(parts, " "), maxSummaryLen)
}

var whitespaceRE = regexp.MustCompile(`\s+`)

func collapseWhitespace(s string) string {
	return strings.TrimSpace(whitespaceRE.ReplaceAllString(s, " "))
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
