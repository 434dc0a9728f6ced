package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"NewsScanner/internal/domain"
	"NewsScanner/internal/ports"
	"NewsScanner/internal/relevance"
)

// PipelineDeps wires all driven adapters into the crawl pipeline.
type PipelineDeps struct {
	Source     ports.CandidateSource
	Detail     ports.DetailFetcher
	Classifier ports.Classifier
	Articles   ports.ArticleRepository
	Runs       ports.RunLog
	Keywords   relevance.Keywords
	Sources    []domain.Source
	ItemDelay  time.Duration
	Logger     *slog.Logger
}

// Pipeline implements the tiered news-ingestion workflow: candidate
// listing, tier-1 keyword gate, detail fetch, tier-2/3 classification,
// and idempotent persistence, all bracketed by a crawl-run log.
type Pipeline struct {
	source     ports.CandidateSource
	detail     ports.DetailFetcher
	classifier ports.Classifier
	articles   ports.ArticleRepository
	runs       ports.RunLog
	keywords   relevance.Keywords
	sources    []domain.Source
	itemDelay  time.Duration
	logger     *slog.Logger
}

// NewPipeline constructs the orchestration component.
func NewPipeline(deps PipelineDeps) *Pipeline {
	return &Pipeline{
		source:     deps.Source,
		detail:     deps.Detail,
		classifier: deps.Classifier,
		articles:   deps.Articles,
		runs:       deps.Runs,
		keywords:   deps.Keywords,
		sources:    deps.Sources,
		itemDelay:  deps.ItemDelay,
		logger:     deps.Logger,
	}
}

// Sources lists the sources this pipeline is configured to crawl.
func (p *Pipeline) Sources() []domain.Source {
	return p.sources
}

// HasSource reports whether src is configured.
func (p *Pipeline) HasSource(src domain.Source) bool {
	for _, s := range p.sources {
		if s == src {
			return true
		}
	}
	return false
}

// CrawlAll runs the pipeline for every configured source sequentially.
// One source failing does not stop the others; all failures come back
// joined, alongside the stats of the sources that did complete.
func (p *Pipeline) CrawlAll(ctx context.Context) ([]domain.CrawlStats, error) {
	var (
		results []domain.CrawlStats
		errs    []error
	)

	for _, src := range p.sources {
		stats, err := p.CrawlSource(ctx, src)
		if err != nil {
			p.log().Error("crawl failed", "source", src, "error", err)
			errs = append(errs, fmt.Errorf("source %s: %w", src, err))
			continue
		}
		results = append(results, stats)
	}

	return results, errors.Join(errs...)
}

// CrawlSource executes one run for one source. Whatever happens in the
// body, the run log record always reaches exactly one terminal state.
func (p *Pipeline) CrawlSource(ctx context.Context, src domain.Source) (stats domain.CrawlStats, err error) {
	stats.Source = src

	runID, err := p.runs.Start(ctx, src)
	if err != nil {
		return stats, fmt.Errorf("start crawl run: %w", err)
	}

	logger := p.log().With("source", src, "run", runID)
	logger.Info("crawl started")

	defer func() {
		status := domain.RunCompleted
		message := ""
		if err != nil {
			status = domain.RunFailed
			message = err.Error()
		}
		// The terminal update must land even when ctx was cancelled,
		// otherwise the run would be stuck in running forever.
		finishCtx := context.WithoutCancel(ctx)
		if finishErr := p.runs.Finish(finishCtx, runID, status, stats.ArticlesFound, stats.ArticlesFiltered, message); finishErr != nil {
			err = errors.Join(err, fmt.Errorf("finish crawl run: %w", finishErr))
		}
		logger.Info("crawl finished",
			"status", status, "found", stats.ArticlesFound, "saved", stats.ArticlesFiltered)
	}()

	candidates, err := p.source.FetchCandidates(ctx, src)
	if err != nil {
		return stats, fmt.Errorf("fetch candidates: %w", err)
	}
	stats.ArticlesFound = len(candidates)
	logger.Info("candidates fetched", "count", len(candidates))

	for i, link := range candidates {
		if i > 0 {
			// Deliberate throttle between items, to respect source rate limits.
			if sleepErr := p.sleep(ctx); sleepErr != nil {
				return stats, sleepErr
			}
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return stats, ctxErr
		}

		p.processCandidate(ctx, logger, src, link, &stats)
	}

	return stats, nil
}

// processCandidate runs one item through the tier gates. Per-item errors
// are logged and swallowed; one bad article never blocks the batch.
func (p *Pipeline) processCandidate(ctx context.Context, logger *slog.Logger, src domain.Source, link domain.CandidateLink, stats *domain.CrawlStats) {
	itemLog := logger.With("url", link.URL)

	if !p.keywords.MatchTier1(link.Title) {
		itemLog.Debug("tier-1 filtered", "title", link.Title)
		return
	}

	exists, err := p.articles.Exists(ctx, link.URL)
	if err != nil {
		// The unique constraint still protects the insert below.
		itemLog.Warn("dedup check failed", "error", err)
	}
	if exists {
		itemLog.Debug("article already exists")
		return
	}

	detail := p.detail.Fetch(ctx, link, src)
	classification := p.classifier.Classify(ctx, detail, src)

	if !classification.Passed {
		itemLog.Debug("classifier rejected",
			"score", classification.RelevanceScore, "layer", classification.FilterLayer)
		return
	}

	publishedAt := detail.PublishedAt
	if publishedAt.IsZero() {
		publishedAt = time.Now().UTC()
	}

	inserted, err := p.articles.Insert(ctx, domain.Article{
		Source:         src,
		Title:          detail.Title,
		URL:            detail.URL,
		PublishedAt:    publishedAt,
		Content:        detail.Content,
		Summary:        classification.Summary,
		Category:       classification.Category,
		RelevanceScore: classification.RelevanceScore,
		FilterLayer:    classification.FilterLayer,
		Keywords:       classification.Keywords,
		Status:         domain.StatusPending,
		RawHTML:        detail.RawHTML,
	})
	if err != nil {
		itemLog.Error("insert failed", "error", err)
		return
	}
	if !inserted {
		itemLog.Debug("article already exists")
		return
	}

	stats.ArticlesFiltered++
	itemLog.Info("article saved",
		"title", detail.Title, "score", classification.RelevanceScore, "category", classification.Category)
}

func (p *Pipeline) sleep(ctx context.Context) error {
	if p.itemDelay <= 0 {
		return nil
	}
	timer := time.NewTimer(p.itemDelay)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (p *Pipeline) log() *slog.Logger {
	if p.logger != nil {
		return p.logger
	}
	return slog.Default()
}
