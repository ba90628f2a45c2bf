package session

import (
	"math/rand"
	"sync"
	"time"

	"go.uber.org/zap"
)

const (
	DemoInterval = 1 * time.Second
	demoMinValue = 500
	demoMaxValue = 2000 // exclusive
)

// DemoSource generates synthetic raw samples at a fixed cadence in place of
// a real transport.
type DemoSource struct {
	mu       sync.Mutex
	clock    Clock
	interval time.Duration
	rng      *rand.Rand
	emit     func(int)
	logger   *zap.Logger

	timer   Timer
	gen     uint64
	running bool
}

// NewDemoSource creates a stopped generator delivering values to emit.
func NewDemoSource(clock Clock, interval time.Duration, seed int64, emit func(int), logger *zap.Logger) *DemoSource {
	return &DemoSource{
		clock:    clock,
		interval: interval,
		rng:      rand.New(rand.NewSource(seed)),
		emit:     emit,
		logger:   logger,
	}
}

// Start begins emitting one sample per interval, the first one immediately.
// The first sample is delivered from a timer, so Start may be called while
// the receiver holds its own lock. Starting a running source is a no-op.
func (d *DemoSource) Start() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.running {
		return
	}
	d.running = true
	d.gen++
	gen := d.gen
	d.timer = d.clock.AfterFunc(0, func() { d.fire(gen) })
	d.logger.Info("Demo sample generator started", zap.Duration("interval", d.interval))
}

// Stop cancels the generator. It is safe to call repeatedly; a tick already
// in flight is discarded.
func (d *DemoSource) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.running {
		return
	}
	d.running = false
	d.gen++
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.logger.Info("Demo sample generator stopped")
}

// Running reports whether the generator is active.
func (d *DemoSource) Running() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.running
}

func (d *DemoSource) armLocked(gen uint64) {
	d.timer = d.clock.AfterFunc(d.interval, func() { d.fire(gen) })
}

func (d *DemoSource) fire(gen uint64) {
	d.mu.Lock()
	if !d.running || gen != d.gen {
		d.mu.Unlock()
		return
	}
	value := demoMinValue + d.rng.Intn(demoMaxValue-demoMinValue)
	d.armLocked(gen)
	d.mu.Unlock()

	d.emit(value)
}
