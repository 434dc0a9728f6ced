package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"NewsScanner/internal/domain"
	"NewsScanner/internal/ports"
	"NewsScanner/internal/relevance"
)

var testKeywords = relevance.Keywords{
	Must:    []string{"FDA", "import", "regulation", "food safety"},
	Should:  []string{"export", "inspection"},
	Exclude: []string{"celebrity", "recipe"},
}

type fakeSource struct {
	links map[domain.Source][]domain.CandidateLink
	err   error
}

func (f *fakeSource) FetchCandidates(ctx context.Context, src domain.Source) ([]domain.CandidateLink, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.links[src], nil
}

type fakeDetail struct {
	calls int
}

func (f *fakeDetail) Fetch(ctx context.Context, link domain.CandidateLink, src domain.Source) domain.ArticleDetail {
	f.calls++
	return domain.ArticleDetail{CandidateLink: link, Content: link.Title + " full text"}
}

type fakeClassifier struct {
	calls  int
	reject bool
}

func (f *fakeClassifier) Classify(ctx context.Context, detail domain.ArticleDetail, src domain.Source) domain.Classification {
	f.calls++
	if f.reject {
		return domain.Classification{Passed: false, FilterLayer: domain.FilterLayer2}
	}
	return domain.Classification{
		Passed:         true,
		RelevanceScore: 85,
		FilterLayer:    domain.FilterLayer2,
		Category:       "regulation",
		Summary:        "summary of " + detail.Title,
	}
}

// memArticles is an in-memory ArticleRepository keyed by URL, mirroring
// the unique-index behavior of the real store.
type memArticles struct {
	byURL     map[string]domain.Article
	existsErr error
	insertErr error
}

func newMemArticles() *memArticles {
	return &memArticles{byURL: map[string]domain.Article{}}
}

func (m *memArticles) Exists(ctx context.Context, url string) (bool, error) {
	if m.existsErr != nil {
		return false, m.existsErr
	}
	_, ok := m.byURL[url]
	return ok, nil
}

func (m *memArticles) Insert(ctx context.Context, article domain.Article) (bool, error) {
	if m.insertErr != nil {
		return false, m.insertErr
	}
	if _, ok := m.byURL[article.URL]; ok {
		return false, nil
	}
	m.byURL[article.URL] = article
	return true, nil
}

func (m *memArticles) List(ctx context.Context, filter ports.ArticleFilter) ([]domain.Article, error) {
	var out []domain.Article
	for _, a := range m.byURL {
		out = append(out, a)
	}
	return out, nil
}

func (m *memArticles) UpdateStatus(ctx context.Context, id string, status domain.ArticleStatus) error {
	return nil
}

type finishRecord struct {
	runID  string
	status domain.RunStatus
	found  int
	saved  int
	errMsg string
}

type fakeRunLog struct {
	startErr error
	starts   int
	finishes []finishRecord
}

func (f *fakeRunLog) Start(ctx context.Context, src domain.Source) (string, error) {
	if f.startErr != nil {
		return "", f.startErr
	}
	f.starts++
	return "run-1", nil
}

func (f *fakeRunLog) Finish(ctx context.Context, runID string, status domain.RunStatus, found, saved int, errMsg string) error {
	f.finishes = append(f.finishes, finishRecord{runID, status, found, saved, errMsg})
	return nil
}

func (f *fakeRunLog) Recent(ctx context.Context, src domain.Source, limit int) ([]domain.CrawlRun, error) {
	return nil, nil
}

type pipelineFixture struct {
	pipeline   *Pipeline
	source     *fakeSource
	detail     *fakeDetail
	classifier *fakeClassifier
	articles   *memArticles
	runs       *fakeRunLog
}

func newFixture(links ...domain.CandidateLink) *pipelineFixture {
	f := &pipelineFixture{
		source:     &fakeSource{links: map[domain.Source][]domain.CandidateLink{domain.SourceFDA: links}},
		detail:     &fakeDetail{},
		classifier: &fakeClassifier{},
		articles:   newMemArticles(),
		runs:       &fakeRunLog{},
	}
	f.pipeline = NewPipeline(PipelineDeps{
		Source:     f.source,
		Detail:     f.detail,
		Classifier: f.classifier,
		Articles:   f.articles,
		Runs:       f.runs,
		Keywords:   testKeywords,
		Sources:    []domain.Source{domain.SourceFDA},
	})
	return f
}

func TestCrawlSourceSavesRelevantArticles(t *testing.T) {
	t.Parallel()

	f := newFixture(
		domain.CandidateLink{Title: "FDA announces new food facility registration requirements", URL: "https://example.org/fda/1"},
		domain.CandidateLink{Title: "Celebrity chef opens restaurant in Hanoi", URL: "https://example.org/life/2"},
	)

	stats, err := f.pipeline.CrawlSource(context.Background(), domain.SourceFDA)
	require.NoError(t, err)

	assert.Equal(t, 2, stats.ArticlesFound)
	assert.Equal(t, 1, stats.ArticlesFiltered)

	stored, ok := f.articles.byURL["https://example.org/fda/1"]
	require.True(t, ok)
	assert.Equal(t, domain.StatusPending, stored.Status)
	assert.Equal(t, 85, stored.RelevanceScore)
	assert.False(t, stored.PublishedAt.IsZero(), "missing source date defaults to crawl time")

	_, ok = f.articles.byURL["https://example.org/life/2"]
	assert.False(t, ok)
}

// The cheap title gate must run before any expensive work: candidates
// it rejects never reach the detail fetcher or the classifier.
func TestTitleGateShortCircuitsExpensiveCalls(t *testing.T) {
	t.Parallel()

	f := newFixture(
		domain.CandidateLink{Title: "Celebrity chef opens restaurant in Hanoi", URL: "https://example.org/life/2"},
		domain.CandidateLink{Title: "Local sports team wins championship", URL: "https://example.org/sport/3"},
		domain.CandidateLink{Title: "New import regulation takes effect", URL: "https://example.org/reg/4"},
	)

	_, err := f.pipeline.CrawlSource(context.Background(), domain.SourceFDA)
	require.NoError(t, err)

	assert.Equal(t, 1, f.detail.calls)
	assert.Equal(t, 1, f.classifier.calls)
}

func TestCrawlSourceIdempotent(t *testing.T) {
	t.Parallel()

	f := newFixture(
		domain.CandidateLink{Title: "FDA issues import alert for seafood", URL: "https://example.org/fda/1"},
		domain.CandidateLink{Title: "New food safety rule published", URL: "https://example.org/fda/2"},
	)

	first, err := f.pipeline.CrawlSource(context.Background(), domain.SourceFDA)
	require.NoError(t, err)
	assert.Equal(t, 2, first.ArticlesFiltered)

	second, err := f.pipeline.CrawlSource(context.Background(), domain.SourceFDA)
	require.NoError(t, err)
	assert.Equal(t, 0, second.ArticlesFiltered, "second run over the same candidates saves nothing")
	assert.Len(t, f.articles.byURL, 2)
}

func TestCrawlSourceClassifierReject(t *testing.T) {
	t.Parallel()

	f := newFixture(domain.CandidateLink{Title: "FDA restaurant hygiene scores", URL: "https://example.org/fda/5"})
	f.classifier.reject = true

	stats, err := f.pipeline.CrawlSource(context.Background(), domain.SourceFDA)
	require.NoError(t, err)

	assert.Equal(t, 0, stats.ArticlesFiltered)
	assert.Empty(t, f.articles.byURL)
}

func TestCrawlSourceDedupCheckErrorIsNotFatal(t *testing.T) {
	t.Parallel()

	f := newFixture(domain.CandidateLink{Title: "FDA updates labeling regulation", URL: "https://example.org/fda/6"})
	f.articles.existsErr = errors.New("connection reset")

	stats, err := f.pipeline.CrawlSource(context.Background(), domain.SourceFDA)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.ArticlesFiltered, "insert still runs behind the unique constraint")
}

func TestCrawlSourceRunLogTerminality(t *testing.T) {
	t.Parallel()

	t.Run("success", func(t *testing.T) {
		t.Parallel()

		f := newFixture(domain.CandidateLink{Title: "FDA import guidance updated", URL: "https://example.org/fda/7"})
		_, err := f.pipeline.CrawlSource(context.Background(), domain.SourceFDA)
		require.NoError(t, err)

		require.Len(t, f.runs.finishes, 1, "exactly one terminal transition")
		finish := f.runs.finishes[0]
		assert.Equal(t, domain.RunCompleted, finish.status)
		assert.Equal(t, 1, finish.found)
		assert.Equal(t, 1, finish.saved)
		assert.Empty(t, finish.errMsg)
	})

	t.Run("fetch failure", func(t *testing.T) {
		t.Parallel()

		f := newFixture()
		f.source.err = errors.New("all fetch strategies failed")

		_, err := f.pipeline.CrawlSource(context.Background(), domain.SourceFDA)
		require.Error(t, err)

		require.Len(t, f.runs.finishes, 1)
		finish := f.runs.finishes[0]
		assert.Equal(t, domain.RunFailed, finish.status)
		assert.Contains(t, finish.errMsg, "all fetch strategies failed")
	})

	t.Run("cancelled context", func(t *testing.T) {
		t.Parallel()

		f := newFixture(domain.CandidateLink{Title: "FDA import alert", URL: "https://example.org/fda/8"})
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := f.pipeline.CrawlSource(ctx, domain.SourceFDA)
		require.Error(t, err)

		require.Len(t, f.runs.finishes, 1, "the terminal update lands even after cancellation")
		assert.Equal(t, domain.RunFailed, f.runs.finishes[0].status)
	})
}

func TestCrawlSourceStartFailure(t *testing.T) {
	t.Parallel()

	f := newFixture(domain.CandidateLink{Title: "FDA regulation news", URL: "https://example.org/fda/9"})
	f.runs.startErr = errors.New("database unavailable")

	_, err := f.pipeline.CrawlSource(context.Background(), domain.SourceFDA)
	require.Error(t, err)
	assert.Empty(t, f.runs.finishes, "no run record means nothing to finish")
	assert.Equal(t, 0, f.detail.calls)
}

func TestCrawlAllContinuesAfterSourceFailure(t *testing.T) {
	t.Parallel()

	f := newFixture(domain.CandidateLink{Title: "New import regulation takes effect", URL: "https://example.org/gacc/1"})
	f.source.links[domain.SourceGACC] = f.source.links[domain.SourceFDA]
	f.pipeline.sources = []domain.Source{domain.SourceFDA, domain.SourceGACC}

	// Only the first source fails; the fake errors for every call, so
	// script it through a wrapper that fails once.
	failing := &flakySource{inner: f.source, failFor: domain.SourceFDA}
	f.pipeline.source = failing

	results, err := f.pipeline.CrawlAll(context.Background())
	require.Error(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, domain.SourceGACC, results[0].Source)
	assert.Equal(t, 1, results[0].ArticlesFiltered)
}

type flakySource struct {
	inner   ports.CandidateSource
	failFor domain.Source
}

func (f *flakySource) FetchCandidates(ctx context.Context, src domain.Source) ([]domain.CandidateLink, error) {
	if src == f.failFor {
		return nil, errors.New("source unreachable")
	}
	return f.inner.FetchCandidates(ctx, src)
}

func TestHasSource(t *testing.T) {
	t.Parallel()

	f := newFixture()
	assert.True(t, f.pipeline.HasSource(domain.SourceFDA))
	assert.False(t, f.pipeline.HasSource(domain.SourceMFDS))
}
