package tasktracker

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHistogramName_IncludesAllThreeKeyParts(t *testing.T) {
	name := histogramName("renderer", PriorityBestEffort, true)
	assert.Equal(t, "renderer.best-effort.true", name)
}

func TestNoopMetricsSink_DiscardsObservations(t *testing.T) {
	var sink NoopMetricsSink
	assert.NotPanics(t, func() {
		sink.RecordHistogram("anything", 1234)
	})
}

func TestPSquareMetricsSink_SnapshotUnknownNameFails(t *testing.T) {
	sink := NewPSquareMetricsSink()
	_, ok := sink.Snapshot("never-recorded")
	assert.False(t, ok)
}

func TestPSquareMetricsSink_TracksCountAndBounds(t *testing.T) {
	sink := NewPSquareMetricsSink()
	const name = "pool.user-visible.false"
	samples := []time.Duration{
		10 * time.Microsecond,
		20 * time.Microsecond,
		5 * time.Microsecond,
		100 * time.Microsecond,
		50 * time.Microsecond,
	}
	for _, d := range samples {
		sink.RecordHistogram(name, d.Microseconds())
	}

	snap, ok := sink.Snapshot(name)
	require.True(t, ok)
	assert.Equal(t, len(samples), snap.Count)
	assert.Equal(t, 100*time.Microsecond, snap.Max)
	assert.True(t, snap.Mean > 0)
	assert.True(t, snap.P50 > 0)
}
