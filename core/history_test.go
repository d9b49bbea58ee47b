package core

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tidalflow/storage"
	"tidalflow/utils"
	"tidalflow/volume"
)

func TestBreathRecordSerialization(t *testing.T) {
	record := &BreathRecord{
		OnsetTime:         12.5,
		PeakTime:          14.25,
		TidalVolume:       0.512,
		Rate:              14.2,
		MinuteVentilation: 7.27,
		PeakFlow:          0.9,
		Baselined:         true,
	}

	buf, err := BreathRecordToBytes(record)
	require.NoError(t, err)
	newRecord, err := BytesToBreathRecord(buf)
	require.NoError(t, err)

	utils.AssertTrue(t, cmp.Equal(record, newRecord))

	_, err = BytesToBreathRecord([]byte{0xc1})
	assert.Error(t, err)
}

func trackingResult(onset, tidal float64) *Result {
	return &Result{
		State:    Tracking,
		Time:     onset + 1,
		Baseline: []float64{0},
		Tidal: &volume.TidalVolume{
			OnsetTime: onset,
			PeakTime:  onset + 1,
			Volume:    tidal,
		},
		Metrics: volume.Metrics{Rate: 12},
	}
}

func testHistory(t *testing.T, history *History) {
	ctx := context.Background()

	require.NoError(t, history.Publish(ctx, &Result{State: Accumulating}))
	require.NoError(t, history.Publish(ctx, trackingResult(1.0, 0.1)))
	require.NoError(t, history.Publish(ctx, trackingResult(1.0, 0.4)))
	// onset revised within the gap: same breath
	require.NoError(t, history.Publish(ctx, trackingResult(1.2, 0.5)))
	require.NoError(t, history.Publish(ctx, trackingResult(6.0, 0.2)))
	require.NoError(t, history.Publish(ctx, trackingResult(11.0, 0.3)))

	stale := trackingResult(16.0, 9)
	stale.Stale = true
	require.NoError(t, history.Publish(ctx, stale))
	// an older breath coming back is ignored
	require.NoError(t, history.Publish(ctx, trackingResult(6.0, 0.9)))

	records, err := history.All()
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, 1.2, records[0].OnsetTime)
	assert.Equal(t, 0.5, records[0].TidalVolume)
	assert.True(t, records[0].Baselined)
	assert.Equal(t, 0.2, records[1].TidalVolume)
	assert.Equal(t, 11.0, records[2].OnsetTime)

	record, err := history.Get(6.0)
	require.NoError(t, err)
	assert.Equal(t, 12.0, record.Rate)

	records, err = history.Range(5, 11)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, 6.0, records[0].OnsetTime)

	n, err := history.Prune(6)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	records, err = history.All()
	require.NoError(t, err)
	assert.Len(t, records, 2)
}

func TestHistory_InMemory(t *testing.T) {
	config := DefaultHistoryConfig()
	config.CacheEnabled = false
	history, err := NewHistory(storage.NewInMemoryBackend(), config, quietLogger())
	require.NoError(t, err)
	defer history.Close()
	testHistory(t, history)
}

func TestHistory_Badger(t *testing.T) {
	history, err := OpenHistory(DefaultHistoryConfig(), quietLogger())
	require.NoError(t, err)
	defer history.Close()
	testHistory(t, history)
	assert.NotEqual(t, uuid.Nil, history.Session())
}

func TestHistory_Retention(t *testing.T) {
	config := DefaultHistoryConfig()
	config.Retention = 10
	history, err := NewHistory(storage.NewInMemoryBackend(), config, quietLogger())
	require.NoError(t, err)
	defer history.Close()

	ctx := context.Background()
	for _, onset := range []float64{0, 5, 10, 15, 20} {
		require.NoError(t, history.Publish(ctx, trackingResult(onset, 0.5)))
	}
	records, err := history.All()
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, 10.0, records[0].OnsetTime)
}

func TestHistory_FromEngine(t *testing.T) {
	engine := newTestEngine(t, DefaultConfig())
	history, err := NewHistory(storage.NewInMemoryBackend(), DefaultHistoryConfig(), quietLogger())
	require.NoError(t, err)
	defer history.Close()

	samples := referenceSamples(2000)
	ctx := context.Background()
	for start := 0; start < len(samples); start += 75 {
		result := engine.Process(samples[start:min(start+75, len(samples))]...)
		require.NoError(t, history.Publish(ctx, result))
	}

	records, err := history.All()
	require.NoError(t, err)
	assert.GreaterOrEqual(t, len(records), 2)
	for i := 1; i < len(records); i++ {
		assert.Greater(t, records[i].OnsetTime, records[i-1].OnsetTime)
	}
}
