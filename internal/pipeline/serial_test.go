package pipeline

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestSerialReader_ReassemblesSplitFrames(t *testing.T) {
	pr, pw := io.Pipe()
	sink := &recordingSink{}
	r := NewSerialReader(pr, sink, zaptest.NewLogger(t))

	done := make(chan error, 1)
	go func() { done <- r.Run(context.Background()) }()

	// 550, 1999 and 65535 delivered with frame boundaries split across reads,
	// followed by half a frame.
	for _, chunk := range [][]byte{{0x26}, {0x02, 0xcf}, {0x07, 0xff, 0xff}, {0x10}} {
		_, err := pw.Write(chunk)
		require.NoError(t, err)
	}
	require.NoError(t, pw.Close())

	require.ErrorIs(t, <-done, ErrSerialDisconnected)
	assert.Equal(t, []int{550, 1999, 65535}, sink.gotSamples())
}

func TestSerialReader_StopsOnCancel(t *testing.T) {
	pr, pw := io.Pipe()
	defer pw.Close()
	r := NewSerialReader(pr, &recordingSink{}, zaptest.NewLogger(t))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- r.Run(ctx) }()
	cancel()

	select {
	case err := <-done:
		require.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("reader did not stop after cancellation")
	}
}
