package fetch

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"NewsScanner/internal/domain"
	"NewsScanner/internal/source"
)

// Titles at or below this length are almost always navigation links
// ("More", "Next", section names), not articles.
const minTitleLen = 10

// ListingStrategy extracts candidate links from an HTML listing page
// using per-source CSS selectors.
type ListingStrategy struct {
	client *http.Client
}

var _ source.Strategy = (*ListingStrategy)(nil)

// NewListingStrategy wires an HTTP client; a nil client gets a 20s timeout default.
func NewListingStrategy(client *http.Client) *ListingStrategy {
	if client == nil {
		client = &http.Client{Timeout: 20 * time.Second}
	}
	return &ListingStrategy{client: client}
}

// Name identifies the strategy inside the registry.
func (s *ListingStrategy) Name() string {
	return "listing"
}

// Fetch downloads the listing page and walks the configured container
// selector, collecting at most req.MaxArticles candidates in page order.
func (s *ListingStrategy) Fetch(ctx context.Context, req source.Request) ([]domain.CandidateLink, error) {
	selectors := req.Selectors
	if selectors.Container == "" {
		return nil, fmt.Errorf("source %s: listing strategy needs a container selector", req.Source)
	}

	base, err := url.Parse(req.URL)
	if err != nil {
		return nil, fmt.Errorf("invalid listing url %s: %w", req.URL, err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, req.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	applyHeaders(httpReq, req.Headers)

	resp, err := s.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("request listing: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("listing returned %s", resp.Status)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse listing: %w", err)
	}

	var links []domain.CandidateLink
	seen := map[string]struct{}{}

	doc.Find(selectors.Container).EachWithBreak(func(i int, row *goquery.Selection) bool {
		link, ok := parseRow(row, selectors, base)
		if !ok {
			return true
		}
		if _, dup := seen[link.URL]; dup {
			return true
		}
		seen[link.URL] = struct{}{}
		links = append(links, link)
		return len(links) < req.MaxArticles
	})

	return links, nil
}

func parseRow(row *goquery.Selection, selectors source.Selectors, base *url.URL) (domain.CandidateLink, bool) {
	linkSel := selectors.Link
	if linkSel == "" {
		linkSel = "a"
	}
	anchor := row.Find(linkSel).First()
	href, exists := anchor.Attr("href")
	if !exists || href == "" {
		return domain.CandidateLink{}, false
	}

	titleSel := selectors.Title
	if titleSel == "" {
		titleSel = "a"
	}
	title := strings.TrimSpace(row.Find(titleSel).First().Text())
	if len(title) <= minTitleLen {
		return domain.CandidateLink{}, false
	}

	ref, err := url.Parse(href)
	if err != nil {
		return domain.CandidateLink{}, false
	}
	absolute := base.ResolveReference(ref)
	if absolute.Scheme != "http" && absolute.Scheme != "https" {
		return domain.CandidateLink{}, false
	}

	link := domain.CandidateLink{
		Title: title,
		URL:   absolute.String(),
	}

	if selectors.Date != "" {
		dateNode := row.Find(selectors.Date).First()
		dateText := strings.TrimSpace(dateNode.Text())
		if attr, ok := dateNode.Attr("datetime"); ok {
			dateText = attr
		}
		link.PublishedAt = parseDate(dateText)
	}
	if link.PublishedAt.IsZero() {
		if match := dateExpr.FindString(row.Text()); match != "" {
			link.PublishedAt = parseDate(match)
		}
	}

	return link, true
}
