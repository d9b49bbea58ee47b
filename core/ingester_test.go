package core

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"tidalflow/flow"
)

func TestIngester_Append(t *testing.T) {
	emptyBuffers := make(chan *IngestBuffer, 10)
	outputChannel := make(chan *IngestBuffer, 10)
	for i := 0; i < 3; i++ {
		emptyBuffers <- NewIngestBuffer(10)
	}
	in := NewIngester(emptyBuffers, outputChannel)

	for i := 0; i < 25; i++ {
		in.Append(flow.Sample{Time: float64(i), Value: float64(i)})
	}
	in.Flush()
	close(outputChannel)
	buffers := make([]*IngestBuffer, 0)
	for buffer := range outputChannel {
		buffers = append(buffers, buffer)
	}
	assert.Equal(t, 4, len(buffers))
	assert.Equal(t, ConstFlushIngestBuffer(), buffers[3])

	assert.Equal(t, 10, buffers[0].Size)
	assert.Equal(t, 0.0, buffers[0].Samples()[0].Time)
	assert.Equal(t, 9.0, buffers[0].Samples()[9].Time)

	assert.Equal(t, 10, buffers[1].Size)
	assert.Equal(t, 10.0, buffers[1].Samples()[0].Time)

	assert.Equal(t, 5, buffers[2].Size)
	last, ok := buffers[2].Get(4)
	assert.True(t, ok)
	assert.Equal(t, 24.0, last.Value)
	_, ok = buffers[2].Get(5)
	assert.False(t, ok)
}

func TestIngestBuffer(t *testing.T) {
	ib := NewIngestBuffer(2)
	assert.True(t, ib.Append(flow.Sample{Time: 1}))
	assert.True(t, ib.Append(flow.Sample{Time: 2}))
	assert.True(t, ib.IsFull())
	assert.False(t, ib.Append(flow.Sample{Time: 3}))

	ib.Clear()
	assert.Equal(t, 0, ib.Size)
	assert.Empty(t, ib.Samples())
}
