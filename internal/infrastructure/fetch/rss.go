package fetch

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/mmcdole/gofeed"

	"NewsScanner/internal/domain"
	"NewsScanner/internal/source"
)

// RSSStrategy retrieves candidate links from an RSS/Atom feed.
type RSSStrategy struct {
	client *http.Client
}

var _ source.Strategy = (*RSSStrategy)(nil)

// NewRSSStrategy wires an HTTP client; a nil client gets a 20s timeout default.
func NewRSSStrategy(client *http.Client) *RSSStrategy {
	if client == nil {
		client = &http.Client{Timeout: 20 * time.Second}
	}
	return &RSSStrategy{client: client}
}

// Name identifies the strategy inside the registry.
func (s *RSSStrategy) Name() string {
	return "rss"
}

// Fetch downloads and parses the feed, returning at most req.MaxArticles
// candidates in feed order (most feeds publish most-recent-first).
func (s *RSSStrategy) Fetch(ctx context.Context, req source.Request) ([]domain.CandidateLink, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, req.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	applyHeaders(httpReq, req.Headers)

	resp, err := s.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("request feed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("feed returned %s", resp.Status)
	}

	feed, err := gofeed.NewParser().Parse(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse feed: %w", err)
	}

	links := make([]domain.CandidateLink, 0, len(feed.Items))
	for _, item := range feed.Items {
		if len(links) >= req.MaxArticles {
			break
		}
		if item.Link == "" || item.Title == "" {
			continue
		}

		link := domain.CandidateLink{
			Title: item.Title,
			URL:   item.Link,
		}
		if item.PublishedParsed != nil {
			link.PublishedAt = *item.PublishedParsed
		} else if item.Published != "" {
			link.PublishedAt = parseDate(item.Published)
		}

		links = append(links, link)
	}

	return links, nil
}
