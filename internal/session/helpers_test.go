package session

import (
	"errors"
	"sort"
	"sync"
	"time"
)

var epoch = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

// fakeClock fires timers synchronously from Advance, in deadline order.
type fakeClock struct {
	mu     sync.Mutex
	now    time.Time
	seq    int
	timers []*fakeTimer
	armed  []func()
}

type fakeTimer struct {
	clock   *fakeClock
	at      time.Time
	seq     int
	f       func()
	stopped bool
	fired   bool
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: epoch}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) AfterFunc(d time.Duration, f func()) Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seq++
	t := &fakeTimer{clock: c, at: c.now.Add(d), seq: c.seq, f: f}
	c.timers = append(c.timers, t)
	c.armed = append(c.armed, f)
	return t
}

// Advance moves time forward by d, running every timer that falls due.
func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	target := c.now.Add(d)
	c.mu.Unlock()

	for {
		c.mu.Lock()
		sort.SliceStable(c.timers, func(i, j int) bool {
			if c.timers[i].at.Equal(c.timers[j].at) {
				return c.timers[i].seq < c.timers[j].seq
			}
			return c.timers[i].at.Before(c.timers[j].at)
		})
		if len(c.timers) == 0 || c.timers[0].at.After(target) {
			c.now = target
			c.mu.Unlock()
			return
		}
		t := c.timers[0]
		c.timers = c.timers[1:]
		c.now = t.at
		t.fired = true
		c.mu.Unlock()

		t.f()
	}
}

// Armed returns every callback ever scheduled, fired or not.
func (c *fakeClock) Armed() []func() {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]func(){}, c.armed...)
}

func (t *fakeTimer) Stop() bool {
	c := t.clock
	c.mu.Lock()
	defer c.mu.Unlock()
	if t.stopped || t.fired {
		return false
	}
	t.stopped = true
	for i, other := range c.timers {
		if other == t {
			c.timers = append(c.timers[:i], c.timers[i+1:]...)
			break
		}
	}
	return true
}

var errSinkDown = errors.New("storage unavailable")

// memorySink keeps every write and can be switched to failing.
type memorySink struct {
	mu     sync.Mutex
	writes [][]byte
	fail   bool
}

func (m *memorySink) Write(data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail {
		return errSinkDown
	}
	m.writes = append(m.writes, append([]byte{}, data...))
	return nil
}

func (m *memorySink) Path() string {
	return "memory"
}

func (m *memorySink) setFailing(fail bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fail = fail
}

func (m *memorySink) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.writes)
}

func (m *memorySink) last() (Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.writes) == 0 {
		return Document{}, errors.New("nothing written")
	}
	return Decode(m.writes[len(m.writes)-1])
}

// memoryParamStore is an in-memory ParamStore.
type memoryParamStore struct {
	mu      sync.Mutex
	n, b    int
	stored  bool
	saves   int
	loadErr error
	saveErr error
}

func (m *memoryParamStore) Load() (int, int, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.n, m.b, m.stored, m.loadErr
}

func (m *memoryParamStore) Save(n, b int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saves++
	if m.saveErr != nil {
		return m.saveErr
	}
	m.n, m.b, m.stored = n, b, true
	return nil
}

// recordingPublisher keeps every published status.
type recordingPublisher struct {
	mu       sync.Mutex
	statuses []Status
}

func (r *recordingPublisher) Publish(st Status) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.statuses = append(r.statuses, st)
}

func (r *recordingPublisher) all() []Status {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Status{}, r.statuses...)
}
