package pipeline

import (
	"context"
	"sync"

	"github.com/segmentio/kafka-go"
)

type fix struct{ lat, lon float64 }

// recordingSink collects everything fed to it.
type recordingSink struct {
	mu      sync.Mutex
	samples []int
	fixes   []fix
}

func (r *recordingSink) OnRawSample(v int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.samples = append(r.samples, v)
}

func (r *recordingSink) OnLocationFix(lat, lon float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.fixes = append(r.fixes, fix{lat, lon})
}

func (r *recordingSink) gotSamples() []int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]int(nil), r.samples...)
}

func (r *recordingSink) gotFixes() []fix {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]fix(nil), r.fixes...)
}

// fakeReader serves queued messages, then blocks until ctx is done or a
// terminal error is injected.
type fakeReader struct {
	mu        sync.Mutex
	queue     []kafka.Message
	fetchErr  error
	committed []int64
	closed    bool
}

func newFakeReader(values ...[]byte) *fakeReader {
	r := &fakeReader{}
	for i, v := range values {
		r.queue = append(r.queue, kafka.Message{Offset: int64(i), Value: v})
	}
	return r
}

func (r *fakeReader) FetchMessage(ctx context.Context) (kafka.Message, error) {
	r.mu.Lock()
	if len(r.queue) > 0 {
		m := r.queue[0]
		r.queue = r.queue[1:]
		r.mu.Unlock()
		return m, nil
	}
	err := r.fetchErr
	r.mu.Unlock()
	if err != nil {
		return kafka.Message{}, err
	}
	<-ctx.Done()
	return kafka.Message{}, ctx.Err()
}

func (r *fakeReader) CommitMessages(_ context.Context, msgs ...kafka.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range msgs {
		r.committed = append(r.committed, m.Offset)
	}
	return nil
}

func (r *fakeReader) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = true
	return nil
}

func (r *fakeReader) state() (committed []int64, closed bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]int64(nil), r.committed...), r.closed
}
