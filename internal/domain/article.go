package domain

import "time"

// Source identifies a configured regulatory news provider.
type Source string

const (
	SourceFDA  Source = "FDA"
	SourceGACC Source = "GACC"
	SourceMFDS Source = "MFDS"
)

// ArticleStatus is the review-workflow state of a stored article.
// The crawler only ever creates articles in StatusPending; every other
// transition is operator-driven through the admin API.
type ArticleStatus string

const (
	StatusPending   ArticleStatus = "pending"
	StatusApproved  ArticleStatus = "approved"
	StatusRejected  ArticleStatus = "rejected"
	StatusPublished ArticleStatus = "published"
)

// ValidReviewStatus reports whether s is an operator-assignable status.
func ValidReviewStatus(s ArticleStatus) bool {
	switch s {
	case StatusApproved, StatusRejected, StatusPublished:
		return true
	}
	return false
}

// FilterLayer records which tier of the relevance filter decided the outcome.
type FilterLayer string

const (
	FilterLayer1 FilterLayer = "layer1"
	FilterLayer2 FilterLayer = "layer2"
	FilterLayer3 FilterLayer = "layer3"
)

// ValidFilterLayer reports whether l is one of the three known tiers.
func ValidFilterLayer(l FilterLayer) bool {
	switch l {
	case FilterLayer1, FilterLayer2, FilterLayer3:
		return true
	}
	return false
}

// CandidateLink is a minimal (title, URL, date) reference produced by a
// listing or feed fetch. A zero PublishedAt means the source did not
// expose a date.
type CandidateLink struct {
	Title       string
	URL         string
	PublishedAt time.Time
}

// ArticleDetail extends a CandidateLink with the extracted plain-text
// body of the full article page. RawHTML keeps a bounded prefix of the
// fetched page for diagnostics.
type ArticleDetail struct {
	CandidateLink
	Content string
	RawHTML string
}

// Classification is the outcome of the tier-2/3 relevance filter.
type Classification struct {
	Passed         bool
	RelevanceScore int
	FilterLayer    FilterLayer
	Keywords       []string
	Category       string
	Summary        string
}

// Article is the durable entity persisted by the ingestion writer.
// URL is the sole uniqueness key.
type Article struct {
	ID             string
	Source         Source
	Title          string
	URL            string
	PublishedAt    time.Time
	Content        string
	Summary        string
	Category       string
	RelevanceScore int
	FilterLayer    FilterLayer
	Keywords       []string
	Status         ArticleStatus
	RawHTML        string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}
