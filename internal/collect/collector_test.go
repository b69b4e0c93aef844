package collect

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// queueProducer serves queued items instantly, then blocks until the phase
// deadline. Calls counts every Next invocation.
type queueProducer struct {
	items []string
	calls int
}

func (p *queueProducer) Next(ctx context.Context) (string, error) {
	p.calls++
	if len(p.items) > 0 {
		item := p.items[0]
		p.items = p.items[1:]
		return item, nil
	}
	<-ctx.Done()
	return "", ctx.Err()
}

func numbered(n int) []string {
	items := make([]string, n)
	for i := range items {
		items[i] = fmt.Sprintf("item-%d", i)
	}
	return items
}

func TestCollectStopsAtMax(t *testing.T) {
	producer := &queueProducer{items: numbered(50)}
	collector := NewCollector(time.Second, 2, 5)

	start := time.Now()
	items := collector.Collect(context.Background(), producer)

	assert.Len(t, items, 5)
	assert.Equal(t, 5, producer.calls)
	assert.Less(t, time.Since(start), 500*time.Millisecond, "hitting max must not wait out the budget")
}

func TestCollectShortfallRunsSingleRetryPhase(t *testing.T) {
	producer := &queueProducer{items: numbered(9)}
	collector := NewCollector(50*time.Millisecond, 10, 20)

	items := collector.Collect(context.Background(), producer)

	assert.Len(t, items, 9)
	// 9 successful pulls, one blocked pull ending phase one, one blocked
	// pull ending the retry phase. No third phase.
	assert.Equal(t, 11, producer.calls)
}

func TestCollectNoRetryWhenMinimumMet(t *testing.T) {
	producer := &queueProducer{items: numbered(3)}
	collector := NewCollector(50*time.Millisecond, 3, 5)

	items := collector.Collect(context.Background(), producer)

	require.Len(t, items, 3)
	assert.Equal(t, 4, producer.calls)
}

func TestCollectDiscardsEmptyItems(t *testing.T) {
	producer := &queueProducer{items: []string{"alpha", "   ", "", "beta"}}
	collector := NewCollector(50*time.Millisecond, 1, 10)

	items := collector.Collect(context.Background(), producer)

	assert.Equal(t, []string{"alpha", "beta"}, items)
}

func TestCollectRetryDeliversLateItems(t *testing.T) {
	// Producer that fails the first phase outright, then has items ready
	// for the retry phase.
	calls := 0
	producer := ProducerFunc(func(ctx context.Context) (string, error) {
		calls++
		if calls == 1 {
			<-ctx.Done()
			return "", ctx.Err()
		}
		return fmt.Sprintf("late-%d", calls), nil
	})
	collector := NewCollector(50*time.Millisecond, 1, 3)

	items := collector.Collect(context.Background(), producer)

	assert.Len(t, items, 3)
}
