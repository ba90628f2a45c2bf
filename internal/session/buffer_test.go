package session

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedWindow(n int) func() int {
	return func() int { return n }
}

func TestSampleBuffer_KeepsMostRecentSamples(t *testing.T) {
	buf := NewSampleBuffer(fixedWindow(10))

	for i := 1; i <= 250; i++ {
		buf.Ingest(i)
		require.LessOrEqual(t, buf.Len(), BufferCapacity)

		want := i
		if want > BufferCapacity {
			want = BufferCapacity
		}
		require.Equal(t, want, buf.Len())
	}

	samples := buf.Samples()
	require.Len(t, samples, BufferCapacity)
	assert.Equal(t, 152, samples[0])
	assert.Equal(t, 250, samples[len(samples)-1])
	for i := 1; i < len(samples); i++ {
		assert.Equal(t, samples[i-1]+1, samples[i])
	}
}

func TestSampleBuffer_CurrentAverage(t *testing.T) {
	tests := []struct {
		name   string
		window int
		input  []int
		want   float64
	}{
		{name: "empty", window: 10, input: nil, want: 0},
		{name: "window smaller than buffer", window: 2, input: []int{100, 200, 300}, want: 250},
		{name: "window larger than buffer", window: 10, input: []int{100, 200, 300}, want: 200},
		{name: "single sample", window: 1, input: []int{100, 200, 300}, want: 300},
		{name: "window at capacity", window: 99, input: []int{7}, want: 7},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := NewSampleBuffer(fixedWindow(tt.window))
			for _, v := range tt.input {
				buf.Ingest(v)
			}
			assert.InDelta(t, tt.want, buf.CurrentAverage(), 1e-9)
		})
	}
}

func TestSampleBuffer_AveragesAfterWraparound(t *testing.T) {
	buf := NewSampleBuffer(fixedWindow(99))
	for i := 0; i < 120; i++ {
		buf.Ingest(i)
	}
	// 21..119
	assert.InDelta(t, 70.0, buf.CurrentAverage(), 1e-9)
}

func TestSampleBuffer_WindowChangeAppliesOnNextIngest(t *testing.T) {
	n := 4
	buf := NewSampleBuffer(func() int { return n })
	for _, v := range []int{10, 20, 30, 40} {
		buf.Ingest(v)
	}
	require.InDelta(t, 25.0, buf.CurrentAverage(), 1e-9)

	n = 2
	assert.InDelta(t, 25.0, buf.CurrentAverage(), 1e-9, "narrowing N is not retroactive")

	buf.Ingest(50)
	assert.InDelta(t, 45.0, buf.CurrentAverage(), 1e-9)
}

func TestSampleBuffer_Reset(t *testing.T) {
	buf := NewSampleBuffer(fixedWindow(3))
	buf.Ingest(5)
	buf.Ingest(6)
	buf.Reset()

	assert.Zero(t, buf.Len())
	assert.Zero(t, buf.CurrentAverage())
	assert.Empty(t, buf.Samples())

	buf.Ingest(9)
	assert.Equal(t, []int{9}, buf.Samples())
}
