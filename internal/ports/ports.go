package ports

import (
	"context"
	"time"

	"NewsScanner/internal/domain"
)

// CandidateSource returns the bounded candidate list for one configured
// source, trying its retrieval strategies in order. An empty slice with a
// nil error means the source answered but published nothing new.
type CandidateSource interface {
	FetchCandidates(ctx context.Context, src domain.Source) ([]domain.CandidateLink, error)
}

// DetailFetcher retrieves the full article page for a candidate. It
// degrades instead of failing: on any fetch or parse problem the returned
// detail carries the candidate unchanged with the title as content.
type DetailFetcher interface {
	Fetch(ctx context.Context, link domain.CandidateLink, src domain.Source) domain.ArticleDetail
}

// Classifier runs the tier-2/3 relevance decision. Implementations must
// swallow external-service failures and fall back to a deterministic
// heuristic; a classifier outage never aborts a run.
type Classifier interface {
	Classify(ctx context.Context, detail domain.ArticleDetail, src domain.Source) domain.Classification
}

// ArticleFilter narrows the admin listing query.
type ArticleFilter struct {
	Source       domain.Source
	Status       domain.ArticleStatus
	MinRelevance int
	Limit        int
}

// ArticleRepository persists accepted articles keyed by URL.
type ArticleRepository interface {
	// Exists is a fast-path dedup check; the unique index on url remains
	// the authoritative guarantee.
	Exists(ctx context.Context, url string) (bool, error)
	// Insert writes the article with status pending. It returns false
	// when a row with the same URL already exists.
	Insert(ctx context.Context, article domain.Article) (bool, error)
	List(ctx context.Context, filter ArticleFilter) ([]domain.Article, error)
	UpdateStatus(ctx context.Context, id string, status domain.ArticleStatus) error
}

// RunLog brackets every crawl invocation with a durable record.
type RunLog interface {
	Start(ctx context.Context, src domain.Source) (string, error)
	Finish(ctx context.Context, runID string, status domain.RunStatus, found, saved int, errMsg string) error
	Recent(ctx context.Context, src domain.Source, limit int) ([]domain.CrawlRun, error)
}

// ChatClient sends one prompt to an external text-generation service and
// returns its raw textual response.
type ChatClient interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// Scheduler controls when the pipeline executes.
type Scheduler interface {
	Start(ctx context.Context, job func(time.Time)) error
	Stop(ctx context.Context) error
}
