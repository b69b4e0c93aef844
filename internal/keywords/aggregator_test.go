package keywords

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type stubProvider struct {
	name     string
	keywords []string
	err      error
	delay    time.Duration
}

func (p *stubProvider) Name() string { return p.name }

func (p *stubProvider) ExtractKeywords(ctx context.Context, query string) ([]string, error) {
	if p.delay > 0 {
		select {
		case <-time.After(p.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return p.keywords, p.err
}

func TestAggregateMergesInRegistrationOrder(t *testing.T) {
	agg := NewAggregator([]Provider{
		&stubProvider{name: "first", keywords: []string{"coupon", "event", "sns"}},
		&stubProvider{name: "second", keywords: []string{"event", "blog", "coupon"}},
	}, time.Second, nil)

	got := agg.Aggregate(context.Background(), "marketing")
	assert.Equal(t, []string{"coupon", "event", "sns", "blog"}, got)
}

func TestAggregateSkipsFailedProvider(t *testing.T) {
	agg := NewAggregator([]Provider{
		&stubProvider{name: "broken", err: errors.New("quota exceeded")},
		&stubProvider{name: "working", keywords: []string{"pop-up", "collab"}},
	}, time.Second, nil)

	got := agg.Aggregate(context.Background(), "marketing")
	assert.Equal(t, []string{"pop-up", "collab"}, got)
}

func TestAggregateTimesOutSlowProvider(t *testing.T) {
	agg := NewAggregator([]Provider{
		&stubProvider{name: "slow", keywords: []string{"never"}, delay: time.Second},
		&stubProvider{name: "fast", keywords: []string{"now"}},
	}, 30*time.Millisecond, nil)

	got := agg.Aggregate(context.Background(), "marketing")
	assert.Equal(t, []string{"now"}, got)
}

func TestAggregateNoProviders(t *testing.T) {
	agg := NewAggregator(nil, time.Second, nil)
	assert.Nil(t, agg.Aggregate(context.Background(), "anything"))
}

func TestAggregateDistinguishesCase(t *testing.T) {
	agg := NewAggregator([]Provider{
		&stubProvider{name: "only", keywords: []string{"Event", "event"}},
	}, time.Second, nil)

	got := agg.Aggregate(context.Background(), "marketing")
	assert.Equal(t, []string{"Event", "event"}, got)
}
