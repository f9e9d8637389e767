package tasktracker

import (
	"fmt"
	"sync"
	"time"
)

// MetricsSink is the collaborator interface named in spec.md §6: an opaque
// per-task latency histogram, keyed by the tuple (pool_label, priority,
// may_block_or_sync). Exact bucketing is out of core scope; the tracker
// only calls RecordHistogram once per completed task.
type MetricsSink interface {
	RecordHistogram(name string, valueMicroseconds int64)
}

// histogramName builds the (pool_label, priority, may_block_or_sync) key
// spec.md §6 specifies, as a single dotted metric name.
func histogramName(poolLabel string, priority Priority, mayBlockOrSync bool) string {
	return fmt.Sprintf("%s.%s.%t", poolLabel, priority, mayBlockOrSync)
}

// NoopMetricsSink discards every observation. It is the zero-configuration
// default so TaskTracker never has to nil-check its sink.
type NoopMetricsSink struct{}

func (NoopMetricsSink) RecordHistogram(string, int64) {}

// PSquareMetricsSink is a built-in MetricsSink using the teacher's P²
// streaming percentile estimator (psquare.go) per histogram key, so
// RecordHistogram is exercisable end-to-end without a real metrics
// pipeline, per SPEC_FULL.md §12.
type PSquareMetricsSink struct {
	mu         sync.Mutex
	histograms map[string]*latencyHistogram
}

// NewPSquareMetricsSink returns an empty sink ready to record.
func NewPSquareMetricsSink() *PSquareMetricsSink {
	return &PSquareMetricsSink{histograms: make(map[string]*latencyHistogram)}
}

func (s *PSquareMetricsSink) RecordHistogram(name string, valueMicroseconds int64) {
	s.mu.Lock()
	h, ok := s.histograms[name]
	if !ok {
		h = newLatencyHistogram()
		s.histograms[name] = h
	}
	s.mu.Unlock()
	h.record(time.Duration(valueMicroseconds) * time.Microsecond)
}

// Snapshot returns the current P50/P90/P95/P99/Max/Mean/Count for name, or
// ok=false if nothing has been recorded under that name.
func (s *PSquareMetricsSink) Snapshot(name string) (snap LatencySnapshot, ok bool) {
	s.mu.Lock()
	h, found := s.histograms[name]
	s.mu.Unlock()
	if !found {
		return LatencySnapshot{}, false
	}
	return h.snapshot(), true
}

// LatencySnapshot is a point-in-time read of a latencyHistogram.
type LatencySnapshot struct {
	P50, P90, P95, P99, Max, Mean time.Duration
	Count                         int
}

// latencyHistogram tracks one histogram's streaming percentiles.
type latencyHistogram struct {
	mu      sync.RWMutex
	psquare *pSquareMultiQuantile
	count   int
	sum     time.Duration
}

func newLatencyHistogram() *latencyHistogram {
	return &latencyHistogram{psquare: newPSquareMultiQuantile(0.50, 0.90, 0.95, 0.99)}
}

func (h *latencyHistogram) record(d time.Duration) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.psquare.Update(float64(d))
	h.count++
	h.sum += d
}

func (h *latencyHistogram) snapshot() LatencySnapshot {
	h.mu.RLock()
	defer h.mu.RUnlock()
	snap := LatencySnapshot{
		P50:   time.Duration(h.psquare.Quantile(0)),
		P90:   time.Duration(h.psquare.Quantile(1)),
		P95:   time.Duration(h.psquare.Quantile(2)),
		P99:   time.Duration(h.psquare.Quantile(3)),
		Max:   time.Duration(h.psquare.Max()),
		Count: h.count,
	}
	if h.count > 0 {
		snap.Mean = h.sum / time.Duration(h.count)
	}
	return snap
}
