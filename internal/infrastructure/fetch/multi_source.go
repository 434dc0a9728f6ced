package fetch

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"NewsScanner/internal/config"
	"NewsScanner/internal/domain"
	"NewsScanner/internal/ports"
	"NewsScanner/internal/source"
)

// MultiStrategySource implements ports.CandidateSource by trying each of
// a source's configured retrieval strategies in order, most likely to
// succeed first, with a short backoff between failed attempts. The first
// strategy returning candidates wins; a strategy that succeeds with zero
// candidates keeps the run alive even if every later attempt fails.
type MultiStrategySource struct {
	registry    *source.Registry
	sources     []config.SourceConfig
	maxArticles int
	backoff     time.Duration
	logger      *slog.Logger
}

var _ ports.CandidateSource = (*MultiStrategySource)(nil)

// NewMultiStrategySource wires the strategy registry with config-defined sources.
func NewMultiStrategySource(reg *source.Registry, sources []config.SourceConfig, crawl config.CrawlConfig, log *slog.Logger) *MultiStrategySource {
	return &MultiStrategySource{
		registry:    reg,
		sources:     sources,
		maxArticles: crawl.MaxArticles,
		backoff:     crawl.RetryBackoff.Std(),
		logger:      log,
	}
}

// FetchCandidates executes the retrieval strategies for one source.
func (s *MultiStrategySource) FetchCandidates(ctx context.Context, src domain.Source) ([]domain.CandidateLink, error) {
	cfg, ok := s.sourceConfig(src)
	if !ok {
		return nil, fmt.Errorf("source %s is not configured", src)
	}
	if len(cfg.Strategies) == 0 {
		return nil, fmt.Errorf("source %s has no retrieval strategies", src)
	}

	var (
		lastErr      error
		emptySuccess bool
	)

	for i, attempt := range cfg.Strategies {
		strategy, err := s.registry.Resolve(attempt.Type)
		if err != nil {
			return nil, fmt.Errorf("source %s: %w", src, err)
		}

		s.debug("trying fetch strategy",
			"source", src, "strategy", attempt.Type, "attempt", i+1, "of", len(cfg.Strategies))

		req := source.Request{
			Source:      src,
			URL:         attempt.URL,
			Headers:     headerProfile(attempt.Headers),
			MaxArticles: s.maxArticles,
			Selectors: source.Selectors{
				Container: attempt.Selectors.Container,
				Title:     attempt.Selectors.Title,
				Link:      attempt.Selectors.Link,
				Date:      attempt.Selectors.Date,
			},
		}

		links, err := strategy.Fetch(ctx, req)
		if err != nil {
			lastErr = err
			s.warn("fetch strategy failed", "source", src, "strategy", attempt.Type, "error", err)
			if i < len(cfg.Strategies)-1 {
				if sleepErr := sleepContext(ctx, s.backoff); sleepErr != nil {
					return nil, sleepErr
				}
			}
			continue
		}

		if len(links) == 0 {
			emptySuccess = true
			s.debug("fetch strategy returned no candidates", "source", src, "strategy", attempt.Type)
			continue
		}

		if len(links) > s.maxArticles {
			links = links[:s.maxArticles]
		}
		s.debug("fetch strategy succeeded", "source", src, "strategy", attempt.Type, "candidates", len(links))
		return links, nil
	}

	if emptySuccess {
		return nil, nil
	}

	return nil, fmt.Errorf("source %s: all fetch strategies failed: %w", src, lastErr)
}

func (s *MultiStrategySource) sourceConfig(src domain.Source) (config.SourceConfig, bool) {
	for _, cfg := range s.sources {
		if cfg.Name == src {
			return cfg, true
		}
	}
	return config.SourceConfig{}, false
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *MultiStrategySource) debug(msg string, args ...any) {
	if s.logger != nil {
		s.logger.Debug(msg, args...)
	}
}

func (s *MultiStrategySource) warn(msg string, args ...any) {
	if s.logger != nil {
		s.logger.Warn(msg, args...)
	}
}
