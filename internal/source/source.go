package source

import (
	"context"
	"fmt"

	"NewsScanner/internal/domain"
)

// Selectors holds the CSS selectors used to pull candidate links out of
// an HTML listing page.
type Selectors struct {
	Container string
	Title     string
	Link      string
	Date      string
}

// Request carries all parameters required to execute one fetch attempt.
type Request struct {
	Source      domain.Source
	URL         string
	Headers     map[string]string
	Selectors   Selectors
	MaxArticles int
}

// Strategy captures a single retrieval implementation (RSS feed, HTML
// listing, etc.). Fetch returns at most MaxArticles candidates; an empty
// result is not an error.
type Strategy interface {
	Name() string
	Fetch(ctx context.Context, req Request) ([]domain.CandidateLink, error)
}

// Registry keeps a mapping from strategy names to their implementations.
type Registry struct {
	strategies map[string]Strategy
}

// NewRegistry builds an empty registry.
func NewRegistry() *Registry {
	return &Registry{strategies: map[string]Strategy{}}
}

// Register adds or replaces a strategy implementation.
func (r *Registry) Register(strategy Strategy) {
	if r.strategies == nil {
		r.strategies = map[string]Strategy{}
	}
	r.strategies[strategy.Name()] = strategy
}

// Resolve returns a strategy by name or an error if it is absent.
func (r *Registry) Resolve(name string) (Strategy, error) {
	if strategy, ok := r.strategies[name]; ok {
		return strategy, nil
	}
	return nil, fmt.Errorf("fetch strategy %s is not registered", name)
}
