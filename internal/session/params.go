package session

import (
	"sync"

	"go.uber.org/zap"
)

const (
	MinWindowSize   = 1
	MaxWindowSize   = 99
	MinSaveInterval = 1
	MaxSaveInterval = 999

	DefaultWindowSize   = 10
	DefaultSaveInterval = 5
)

// ParamStore persists the window size and save interval across restarts.
type ParamStore interface {
	// Load returns the stored values; ok is false when nothing was stored yet.
	Load() (n, b int, ok bool, err error)
	Save(n, b int) error
}

// Parameters holds the process-wide window size N and save interval B.
// It outlives sessions and is safe for concurrent use.
type Parameters struct {
	mu   sync.RWMutex
	n, b int
	seq  uint64

	persistMu sync.Mutex
	persisted uint64

	store  ParamStore
	logger *zap.Logger
}

// NewParameters loads N and B from store, falling back to defaultN/defaultB
// when the store is empty or unreadable. Loaded values are clamped.
func NewParameters(store ParamStore, defaultN, defaultB int, logger *zap.Logger) *Parameters {
	p := &Parameters{
		n:      clamp(defaultN, MinWindowSize, MaxWindowSize),
		b:      clamp(defaultB, MinSaveInterval, MaxSaveInterval),
		store:  store,
		logger: logger,
	}
	if store != nil {
		p.load()
	}
	windowSizeGauge.Set(float64(p.n))
	saveIntervalGauge.Set(float64(p.b))
	return p
}

func (p *Parameters) load() {
	n, b, ok, err := p.store.Load()
	switch {
	case err != nil:
		p.logger.Warn("Failed to load stored parameters, using defaults",
			zap.Error(err),
			zap.Int("n", p.n),
			zap.Int("b", p.b),
		)
	case ok:
		p.n = clamp(n, MinWindowSize, MaxWindowSize)
		p.b = clamp(b, MinSaveInterval, MaxSaveInterval)
		p.logger.Debug("Loaded stored parameters", zap.Int("n", p.n), zap.Int("b", p.b))
	}
}

// Get returns the current window size and save interval.
func (p *Parameters) Get() (n, b int) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.n, p.b
}

// WindowSize returns N.
func (p *Parameters) WindowSize() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.n
}

// paramRevision is the outcome of one apply, ordered by seq.
type paramRevision struct {
	seq          uint64
	n, b         int
	prevN, prevB int
}

// Set clamps n and b into range and reports whether either value changed.
// Changed values are persisted; a persistence failure is logged and the new
// values stay in effect.
func (p *Parameters) Set(n, b int) bool {
	changed, rev := p.apply(n, b)
	if changed {
		p.persist(rev)
	}
	return changed
}

// apply updates the in-memory values without touching the store.
func (p *Parameters) apply(n, b int) (bool, paramRevision) {
	return p.applyFields(&n, &b)
}

// applyFields is apply with optional fields; a nil field keeps its current
// value, resolved under the same lock as the update.
func (p *Parameters) applyFields(newN, newB *int) (bool, paramRevision) {
	p.mu.Lock()
	defer p.mu.Unlock()
	n, b := p.n, p.b
	if newN != nil {
		n = clamp(*newN, MinWindowSize, MaxWindowSize)
	}
	if newB != nil {
		b = clamp(*newB, MinSaveInterval, MaxSaveInterval)
	}
	rev := paramRevision{n: n, b: b, prevN: p.n, prevB: p.b}
	if n == p.n && b == p.b {
		return false, rev
	}
	p.n, p.b = n, b
	p.seq++
	rev.seq = p.seq

	windowSizeGauge.Set(float64(n))
	saveIntervalGauge.Set(float64(b))
	return true, rev
}

// persist writes rev unless a newer revision has already been written.
func (p *Parameters) persist(rev paramRevision) {
	if p.store == nil {
		return
	}
	p.persistMu.Lock()
	defer p.persistMu.Unlock()
	if rev.seq <= p.persisted {
		return
	}
	if err := p.store.Save(rev.n, rev.b); err != nil {
		paramPersistFailures.Inc()
		p.logger.Warn("Failed to persist parameters",
			zap.Error(err),
			zap.Int("n", rev.n),
			zap.Int("b", rev.b),
		)
		return
	}
	p.persisted = rev.seq
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
