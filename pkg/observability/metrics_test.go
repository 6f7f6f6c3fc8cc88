package observability

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestInMemoryMetrics(t *testing.T) {
	t.Run("counter accumulates", func(t *testing.T) {
		m := NewInMemoryMetrics()
		m.Counter(MetricFeedbackApplied, 1)
		m.Counter(MetricFeedbackApplied, 2)

		assert.Equal(t, int64(3), m.GetCounter(MetricFeedbackApplied))
	})

	t.Run("tags separate series", func(t *testing.T) {
		m := NewInMemoryMetrics()
		m.Counter(MetricRankerCalls, 1, T("status", "ok"))
		m.Counter(MetricRankerCalls, 1, T("status", "error"))

		assert.Equal(t, int64(1), m.GetCounter(MetricRankerCalls, T("status", "ok")))
		assert.Equal(t, int64(1), m.GetCounter(MetricRankerCalls, T("status", "error")))
		assert.Equal(t, int64(0), m.GetCounter(MetricRankerCalls))
	})

	t.Run("gauge keeps last value", func(t *testing.T) {
		m := NewInMemoryMetrics()
		m.Gauge("momentum.queue.depth", 4)
		m.Gauge("momentum.queue.depth", 2)

		assert.Equal(t, 2.0, m.GetGauge("momentum.queue.depth"))
	})

	t.Run("histogram and timing record all values", func(t *testing.T) {
		m := NewInMemoryMetrics()
		m.Histogram("momentum.batch.size", 3)
		m.Histogram("momentum.batch.size", 7)
		m.Timing(MetricOperationDuration, 5*time.Millisecond)

		assert.Equal(t, []float64{3, 7}, m.GetHistogram("momentum.batch.size"))
		assert.Equal(t, []time.Duration{5 * time.Millisecond}, m.GetTimings(MetricOperationDuration))
	})

	t.Run("reset clears everything", func(t *testing.T) {
		m := NewInMemoryMetrics()
		m.Counter(MetricTasksScored, 10)
		m.Reset()

		assert.Equal(t, int64(0), m.GetCounter(MetricTasksScored))
	})

	t.Run("concurrent writers", func(t *testing.T) {
		m := NewInMemoryMetrics()
		var wg sync.WaitGroup
		for i := 0; i < 20; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				m.Counter(MetricEventsPublished, 1)
			}()
		}
		wg.Wait()

		assert.Equal(t, int64(20), m.GetCounter(MetricEventsPublished))
	})
}

func TestFormatKey(t *testing.T) {
	assert.Equal(t, "name", formatKey("name", nil))
	assert.Equal(t, "name:a=1:b=2", formatKey("name", []Tag{T("a", "1"), T("b", "2")}))
}

func TestTimer(t *testing.T) {
	t.Run("records duration and count", func(t *testing.T) {
		m := NewInMemoryMetrics()
		timer := StartTimer("score").WithMetrics(m)
		d := timer.Stop()

		assert.GreaterOrEqual(t, d, time.Duration(0))
		assert.Equal(t, int64(1), m.GetCounter(MetricOperationTotal, T("operation", "score")))
		assert.Len(t, m.GetTimings(MetricOperationDuration, T("operation", "score")), 1)
	})

	t.Run("error count only on failure", func(t *testing.T) {
		m := NewInMemoryMetrics()
		StartTimer("fetch").WithMetrics(m).StopWithError(assert.AnError)
		StartTimer("fetch").WithMetrics(m).StopWithError(nil)

		assert.Equal(t, int64(2), m.GetCounter(MetricOperationTotal, T("operation", "fetch")))
		assert.Equal(t, int64(1), m.GetCounter(MetricOperationErrors, T("operation", "fetch")))
	})

	t.Run("time operation result", func(t *testing.T) {
		m := NewInMemoryMetrics()
		got, err := TimeOperationResult(nil, m, "compute", func() (int, error) {
			return 42, nil
		})

		assert.NoError(t, err)
		assert.Equal(t, 42, got)
		assert.Equal(t, int64(1), m.GetCounter(MetricOperationTotal, T("operation", "compute")))
	})
}
