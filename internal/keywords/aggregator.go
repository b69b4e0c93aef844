// Package keywords fans a query out to best-effort trend keyword providers
// and merges their results.
package keywords

import (
	"context"
	"log/slog"
	"time"
)

// Provider is an external keyword source. It may fail; failure degrades the
// merged output and never aborts aggregation.
type Provider interface {
	Name() string
	ExtractKeywords(ctx context.Context, query string) ([]string, error)
}

// Aggregator invokes all registered providers concurrently and merges
// whatever completes.
type Aggregator struct {
	providers []Provider
	timeout   time.Duration
	logger    *slog.Logger
}

// NewAggregator builds an aggregator over the given providers. Each provider
// gets an independent timeout so one slow source cannot serialize the rest.
func NewAggregator(providers []Provider, timeout time.Duration, logger *slog.Logger) *Aggregator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Aggregator{
		providers: providers,
		timeout:   timeout,
		logger:    logger,
	}
}

// Aggregate fans the query out to every provider, concatenates results in
// provider-registration order, and de-duplicates keeping the first occurrence
// of each distinct keyword. With no providers registered it returns nil.
func (a *Aggregator) Aggregate(ctx context.Context, query string) []string {
	if len(a.providers) == 0 {
		return nil
	}

	results := make([][]string, len(a.providers))
	done := make(chan int, len(a.providers))

	for i, p := range a.providers {
		go func(i int, p Provider) {
			defer func() { done <- i }()

			pctx, cancel := context.WithTimeout(ctx, a.timeout)
			defer cancel()

			keywords, err := p.ExtractKeywords(pctx, query)
			if err != nil {
				a.logger.Warn("keyword provider failed",
					"provider", p.Name(),
					"error", err)
				return
			}
			a.logger.Info("keyword provider completed",
				"provider", p.Name(),
				"keywords", len(keywords))
			results[i] = keywords
		}(i, p)
	}

	for range a.providers {
		<-done
	}

	return dedupe(results)
}

// dedupe flattens provider results preserving registration order and the
// first occurrence of each keyword. Matching is case-sensitive and exact.
func dedupe(results [][]string) []string {
	seen := make(map[string]struct{})
	var merged []string
	for _, keywords := range results {
		for _, kw := range keywords {
			if _, ok := seen[kw]; ok {
				continue
			}
			seen[kw] = struct{}{}
			merged = append(merged, kw)
		}
	}
	return merged
}
