package core

import (
	"bytes"
	"log/slog"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tidalflow/flow"
)

func TestConsoleLogger(t *testing.T) {
	var buf bytes.Buffer
	engine, err := New(DefaultConfig(), WithLogger(NewConsoleLogger(&buf, slog.LevelWarn)))
	require.NoError(t, err)

	assert.Error(t, engine.Append(flow.Sample{Time: 0, Value: math.NaN()}))
	assert.Contains(t, buf.String(), "rejected samples")
	assert.Contains(t, buf.String(), "count")

	buf.Reset()
	engine.Tick()
	assert.Empty(t, buf.String())
}
