// Package collect gathers an ordered sequence of free-text items from a
// producer within a wall-clock budget.
package collect

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"
)

// Producer is a blocking source of free-text items. Next must honor the
// deadline on its context or be otherwise interruptible: budget expiry is the
// collector's only cancellation signal, and a producer that ignores it cannot
// be preempted.
type Producer interface {
	Next(ctx context.Context) (string, error)
}

// ProducerFunc adapts a function to the Producer interface.
type ProducerFunc func(ctx context.Context) (string, error)

func (f ProducerFunc) Next(ctx context.Context) (string, error) { return f(ctx) }

// Collector enforces the time and cardinality bounds on free-association
// capture.
type Collector struct {
	Budget   time.Duration
	MinItems int
	MaxItems int
	Logger   *slog.Logger
}

// NewCollector returns a collector with the given bounds.
func NewCollector(budget time.Duration, minItems, maxItems int) *Collector {
	return &Collector{
		Budget:   budget,
		MinItems: minItems,
		MaxItems: maxItems,
		Logger:   slog.Default(),
	}
}

// Collect pulls items from the producer until MaxItems are accepted or the
// budget expires. Items empty after trimming are discarded without counting.
// If fewer than MinItems were accepted when time runs out, a single retry
// phase runs with a fresh budget; its results are appended. The retry phase
// never recurses: a shortfall after the retry is returned as-is.
func (c *Collector) Collect(ctx context.Context, producer Producer) []string {
	items := c.phase(ctx, producer, c.MaxItems)

	if len(items) < c.MinItems {
		c.Logger.Info("collection below minimum, running retry phase",
			"collected", len(items),
			"min_items", c.MinItems,
			"target", c.MinItems-len(items))
		items = append(items, c.phase(ctx, producer, c.MaxItems-len(items))...)
	}

	return items
}

// phase runs one timed collection round accepting at most limit items.
func (c *Collector) phase(ctx context.Context, producer Producer, limit int) []string {
	if limit <= 0 {
		return nil
	}

	deadline := time.Now().Add(c.Budget)
	phaseCtx, cancel := context.WithDeadline(ctx, deadline)
	defer cancel()

	var items []string
	for len(items) < limit {
		if !time.Now().Before(deadline) {
			break
		}

		item, err := producer.Next(phaseCtx)
		if err != nil {
			if !errors.Is(err, context.DeadlineExceeded) && !errors.Is(err, context.Canceled) {
				c.Logger.Warn("producer stopped", "error", err)
			}
			break
		}

		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		items = append(items, item)
	}

	return items
}
