package fetch

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	readability "github.com/go-shiori/go-readability"

	"NewsScanner/internal/config"
	"NewsScanner/internal/domain"
	"NewsScanner/internal/ports"
)

// Detail pages can be large; reading is capped well above the retained
// excerpt so extraction still sees the whole content container.
const maxDetailBody = 1 << 20

var (
	whitespaceExpr = regexp.MustCompile(`\s+`)
	timeAttrExpr   = regexp.MustCompile(`<time[^>]*datetime=["']([^"']+)["']`)
)

// DetailFetcher retrieves full article pages and extracts a bounded
// plain-text excerpt. It never fails: any fetch or parse problem degrades
// to the candidate itself with the title standing in for content, which
// the classifier then rejects for lack of signal.
type DetailFetcher struct {
	client        *http.Client
	sources       map[domain.Source]config.SourceConfig
	contentMaxLen int
	rawHTMLMaxLen int
	logger        *slog.Logger
}

var _ ports.DetailFetcher = (*DetailFetcher)(nil)

// NewDetailFetcher wires the HTTP client with per-source extraction rules.
func NewDetailFetcher(client *http.Client, sources []config.SourceConfig, crawl config.CrawlConfig, log *slog.Logger) *DetailFetcher {
	if client == nil {
		client = &http.Client{Timeout: 20 * time.Second}
	}

	bySource := make(map[domain.Source]config.SourceConfig, len(sources))
	for _, src := range sources {
		bySource[src.Name] = src
	}

	return &DetailFetcher{
		client:        client,
		sources:       bySource,
		contentMaxLen: crawl.ContentMaxLen,
		rawHTMLMaxLen: crawl.RawHTMLMaxLen,
		logger:        log,
	}
}

// Fetch downloads the article page and extracts its text.
func (f *DetailFetcher) Fetch(ctx context.Context, link domain.CandidateLink, src domain.Source) domain.ArticleDetail {
	detail := domain.ArticleDetail{CandidateLink: link, Content: link.Title}

	html, err := f.download(ctx, link.URL, src)
	if err != nil {
		f.warn("detail fetch failed, continuing with title only", "url", link.URL, "error", err)
		return detail
	}

	detail.RawHTML = truncate(html, f.rawHTMLMaxLen)

	if content := f.extractContent(html, link.URL, src); content != "" {
		detail.Content = truncate(content, f.contentMaxLen)
	}

	if detail.PublishedAt.IsZero() {
		detail.PublishedAt = extractDate(html)
	}

	return detail
}

func (f *DetailFetcher) download(ctx context.Context, pageURL string, src domain.Source) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}

	profile := "full"
	if cfg, ok := f.sources[src]; ok && cfg.DetailHeaders != "" {
		profile = cfg.DetailHeaders
	}
	applyHeaders(req, headerProfile(profile))

	resp, err := f.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("request article: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("article returned %s", resp.Status)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxDetailBody))
	if err != nil {
		return "", fmt.Errorf("read article body: %w", err)
	}

	return string(body), nil
}

// extractContent tries the source's configured content selectors first,
// then falls back to generic readability extraction.
func (f *DetailFetcher) extractContent(html, pageURL string, src domain.Source) string {
	if doc, err := goquery.NewDocumentFromReader(strings.NewReader(html)); err == nil {
		if cfg, ok := f.sources[src]; ok {
			for _, selector := range cfg.ContentSelectors {
				text := collapseWhitespace(doc.Find(selector).First().Text())
				if text != "" {
					return text
				}
			}
		}
	}

	parsedURL, _ := url.Parse(pageURL)
	article, err := readability.FromReader(strings.NewReader(html), parsedURL)
	if err != nil {
		return ""
	}

	return collapseWhitespace(article.TextContent)
}

func extractDate(html string) time.Time {
	if match := timeAttrExpr.FindStringSubmatch(html); len(match) > 1 {
		if parsed := parseDate(match[1]); !parsed.IsZero() {
			return parsed
		}
	}
	if match := dateExpr.FindString(html); match != "" {
		return parseDate(match)
	}
	return time.Time{}
}

func collapseWhitespace(text string) string {
	return strings.TrimSpace(whitespaceExpr.ReplaceAllString(text, " "))
}

func truncate(text string, limit int) string {
	if limit <= 0 || len(text) <= limit {
		return text
	}
	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}
	return string(runes[:limit])
}

func (f *DetailFetcher) warn(msg string, args ...any) {
	if f.logger != nil {
		f.logger.Warn(msg, args...)
	}
}
