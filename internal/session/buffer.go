package session

// BufferCapacity is the maximum number of raw samples retained by a SampleBuffer.
const BufferCapacity = 99

// SampleBuffer is a bounded FIFO of raw samples with a cached trailing mean.
// It is not safe for concurrent use; the Scheduler serialises access to it.
type SampleBuffer struct {
	samples [BufferCapacity]int
	head    int // index of the oldest sample
	size    int
	average float64
	window  func() int
}

// NewSampleBuffer creates an empty buffer. window is consulted on every
// Ingest and returns the number of trailing samples to average.
func NewSampleBuffer(window func() int) *SampleBuffer {
	return &SampleBuffer{window: window}
}

// Ingest appends a sample, evicting the oldest one once the buffer is full,
// and recomputes the cached average.
func (b *SampleBuffer) Ingest(value int) {
	if b.size < BufferCapacity {
		b.samples[(b.head+b.size)%BufferCapacity] = value
		b.size++
	} else {
		b.samples[b.head] = value
		b.head = (b.head + 1) % BufferCapacity
	}
	b.average = b.trailingMean(b.window())
}

// trailingMean averages the last min(n, size) samples.
func (b *SampleBuffer) trailingMean(n int) float64 {
	if n > b.size {
		n = b.size
	}
	if n <= 0 {
		return 0
	}

	var sum int64
	for i := b.size - n; i < b.size; i++ {
		sum += int64(b.samples[(b.head+i)%BufferCapacity])
	}
	return float64(sum) / float64(n)
}

// CurrentAverage returns the average computed by the last Ingest, or 0 when
// nothing has been ingested since the last Reset.
func (b *SampleBuffer) CurrentAverage() float64 {
	return b.average
}

// Len returns the number of retained samples.
func (b *SampleBuffer) Len() int {
	return b.size
}

// Samples returns a copy of the retained samples, oldest first.
func (b *SampleBuffer) Samples() []int {
	out := make([]int, b.size)
	for i := range out {
		out[i] = b.samples[(b.head+i)%BufferCapacity]
	}
	return out
}

// Reset drops all samples and the cached average.
func (b *SampleBuffer) Reset() {
	b.head = 0
	b.size = 0
	b.average = 0
}
