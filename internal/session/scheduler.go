package session

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const DefaultUITick = 1 * time.Second

// SinkFactory returns the sink for a session started at startTime. Each call
// must yield a distinct storage identity.
type SinkFactory func(startTime time.Time) Sink

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithClock replaces the system clock.
func WithClock(c Clock) Option {
	return func(s *Scheduler) { s.clock = c }
}

// WithPublisher adds a status receiver.
func WithPublisher(p StatusPublisher) Option {
	return func(s *Scheduler) { s.publishers = append(s.publishers, p) }
}

// WithDemoMode enables the synthetic sample source for new sessions.
func WithDemoMode(enabled bool) Option {
	return func(s *Scheduler) { s.demoMode = enabled }
}

// WithDemoSeed seeds the synthetic sample source.
func WithDemoSeed(seed int64) Option {
	return func(s *Scheduler) { s.demoSeed = seed }
}

// WithSaveUnit sets the duration of one unit of the save interval B.
// Production uses seconds.
func WithSaveUnit(d time.Duration) Option {
	return func(s *Scheduler) { s.saveUnit = d }
}

// WithUITick sets the status refresh period.
func WithUITick(d time.Duration) Option {
	return func(s *Scheduler) { s.uiTick = d }
}

// Scheduler owns the session lifecycle:
//
//	Idle -> AwaitingFix (Start) -> Running (first valid fix) -> Idle (Stop)
//
// All session state is guarded by mu. Timer callbacks carry the generation
// they were armed with and do nothing once it is stale. Log flushes happen
// after mu is released.
type Scheduler struct {
	mu         sync.Mutex
	state      State
	params     *Parameters
	newSink    SinkFactory
	clock      Clock
	logger     *zap.Logger
	publishers []StatusPublisher
	uiTick     time.Duration
	saveUnit   time.Duration

	demoMode bool
	demoSeed int64
	demo     *DemoSource

	// Session scoped; replaced by Start, dropped by Stop.
	id           string
	buffer       *SampleBuffer
	tracker      LocationTracker
	log          *Log
	runningSince time.Time
	measurements int
	lastLogPath  string

	saveTimer Timer
	saveGen   uint64
	uiTimer   Timer
	uiGen     uint64
}

// NewScheduler creates an idle scheduler. newSink may be nil, in which case
// sessions are kept in memory only.
func NewScheduler(params *Parameters, newSink SinkFactory, logger *zap.Logger, opts ...Option) *Scheduler {
	s := &Scheduler{
		params:   params,
		newSink:  newSink,
		clock:    SystemClock,
		logger:   logger,
		uiTick:   DefaultUITick,
		saveUnit: time.Second,
		demoSeed: time.Now().UnixNano(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.demo = NewDemoSource(s.clock, DemoInterval, s.demoSeed, s.OnRawSample, logger.Named("demo"))
	setStateGauge(StateIdle)
	return s
}

// Parameters returns the process-wide parameters the scheduler reads.
func (s *Scheduler) Parameters() *Parameters {
	return s.params
}

// State returns the current lifecycle state.
func (s *Scheduler) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Start opens a new session. It returns false if a session is already active.
func (s *Scheduler) Start() bool {
	s.mu.Lock()
	if s.state != StateIdle {
		s.mu.Unlock()
		return false
	}

	now := s.clock.Now()
	s.id = uuid.NewString()
	s.buffer = NewSampleBuffer(s.params.WindowSize)
	s.tracker.Reset()
	s.runningSince = time.Time{}
	s.measurements = 0

	var sink Sink
	if s.newSink != nil {
		sink = s.newSink(now)
	}
	s.log = OpenLog(now, sink, s.logger.With(zap.String("session_id", s.id)))
	s.lastLogPath = ""

	n, b := s.params.Get()
	snap := s.log.AppendParameterChange(ParameterChange{Timestamp: NewTimestamp(now), N: n, B: b})
	s.state = StateAwaitingFix
	if s.demoMode {
		s.demo.Start()
	}
	log := s.log
	st := s.statusLocked(now)
	s.mu.Unlock()

	parameterChanges.Inc()
	setStateGauge(StateAwaitingFix)
	s.logger.Info("Session started, waiting for location fix",
		zap.String("session_id", st.SessionID),
		zap.Int("n", n),
		zap.Int("b", b),
		zap.Bool("demo_mode", st.DemoMode),
	)

	_ = log.Flush(snap)
	s.publish(st)
	return true
}

// Stop ends the active session. It returns false when idle. Once Stop has
// returned no further record is appended to the session's log.
func (s *Scheduler) Stop() bool {
	s.mu.Lock()
	if s.state == StateIdle {
		s.mu.Unlock()
		return false
	}

	s.state = StateIdle
	s.cancelTimersLocked()
	s.demo.Stop()

	log := s.log
	id := s.id
	measurements := s.measurements
	s.lastLogPath = log.Path()
	s.log = nil
	s.buffer = nil
	s.tracker.Reset()
	s.id = ""
	st := s.statusLocked(s.clock.Now())
	s.mu.Unlock()

	setStateGauge(StateIdle)
	s.logger.Info("Session stopped",
		zap.String("session_id", id),
		zap.String("log_path", st.LogPath),
		zap.Int("measurements", measurements),
	)
	log.Close()
	s.publish(st)
	return true
}

// OnRawSample feeds one transport sample into the session's window. Samples
// are accepted while awaiting a fix; they are dropped when idle.
func (s *Scheduler) OnRawSample(value int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateIdle {
		return
	}
	s.buffer.Ingest(value)
	samplesIngested.Inc()
	currentAverageGauge.Set(s.buffer.CurrentAverage())
}

// OnLocationFix feeds one location reading. The first valid fix of a session
// starts the refresh and save timers.
func (s *Scheduler) OnLocationFix(lat, lon float64) {
	s.mu.Lock()
	if s.state == StateIdle {
		s.mu.Unlock()
		return
	}
	if !s.tracker.OnFix(Fix{Latitude: lat, Longitude: lon}) || s.state != StateAwaitingFix {
		s.mu.Unlock()
		return
	}

	now := s.clock.Now()
	s.state = StateRunning
	s.runningSince = now
	s.armSaveLocked()
	s.armUILocked()
	st := s.statusLocked(now)
	s.mu.Unlock()

	setStateGauge(StateRunning)
	s.logger.Info("Location fix acquired, session running",
		zap.String("session_id", st.SessionID),
		zap.Float64("latitude", lat),
		zap.Float64("longitude", lon),
		zap.Int("save_interval_s", st.SaveInterval),
	)
	s.publish(st)
}

// UpdateParameters applies new N and B to an active session. It returns true
// when either value changed; the change is then audited in the log and, if
// the session is running, the save timer restarts from now.
func (s *Scheduler) UpdateParameters(n, b int) bool {
	s.mu.Lock()
	if s.state == StateIdle {
		s.mu.Unlock()
		return false
	}
	return s.updateParametersLocked(&n, &b)
}

// SetParameters changes N and B in any state. Outside a session the values
// are only persisted and take effect at the next Start.
func (s *Scheduler) SetParameters(n, b int) bool {
	return s.SetParameterFields(&n, &b)
}

// SetParameterFields is SetParameters where a nil field keeps its current
// value.
func (s *Scheduler) SetParameterFields(n, b *int) bool {
	s.mu.Lock()
	if s.state != StateIdle {
		return s.updateParametersLocked(n, b)
	}
	changed, rev := s.params.applyFields(n, b)
	s.mu.Unlock()

	if changed {
		s.logger.Info("Default parameters changed",
			zap.Int("n", rev.n),
			zap.Int("b", rev.b),
		)
		s.params.persist(rev)
	}
	return changed
}

// updateParametersLocked is called with s.mu held and releases it.
func (s *Scheduler) updateParametersLocked(n, b *int) bool {
	changed, rev := s.params.applyFields(n, b)
	if !changed {
		s.mu.Unlock()
		return false
	}

	now := s.clock.Now()
	snap := s.log.AppendParameterChange(ParameterChange{Timestamp: NewTimestamp(now), N: rev.n, B: rev.b})
	restarted := false
	if s.state == StateRunning {
		s.armSaveLocked()
		restarted = true
	}
	log := s.log
	id := s.id
	s.mu.Unlock()

	parameterChanges.Inc()
	s.logger.Info("Session parameters changed",
		zap.String("session_id", id),
		zap.Int("n", rev.n),
		zap.Int("b", rev.b),
		zap.Int("previous_n", rev.prevN),
		zap.Int("previous_b", rev.prevB),
		zap.Bool("save_timer_restarted", restarted),
	)
	s.params.persist(rev)
	_ = log.Flush(snap)
	return true
}

// SetDemoMode toggles the synthetic sample source. An active session picks
// the change up immediately.
func (s *Scheduler) SetDemoMode(enabled bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.demoMode = enabled
	if s.state == StateIdle {
		return
	}
	if enabled {
		s.demo.Start()
	} else {
		s.demo.Stop()
	}
}

// Status returns the current UI-facing view of the session.
func (s *Scheduler) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.statusLocked(s.clock.Now())
}

// Document returns a copy of the active session's records.
func (s *Scheduler) Document() (Document, bool) {
	s.mu.Lock()
	log := s.log
	s.mu.Unlock()
	if log == nil {
		return Document{}, false
	}
	return log.Document(), true
}

func (s *Scheduler) armSaveLocked() {
	if s.saveTimer != nil {
		s.saveTimer.Stop()
	}
	s.saveGen++
	gen := s.saveGen
	_, b := s.params.Get()
	s.saveTimer = s.clock.AfterFunc(time.Duration(b)*s.saveUnit, func() { s.onSaveTick(gen) })
}

func (s *Scheduler) armUILocked() {
	if s.uiTimer != nil {
		s.uiTimer.Stop()
	}
	s.uiGen++
	gen := s.uiGen
	s.uiTimer = s.clock.AfterFunc(s.uiTick, func() { s.onUITick(gen) })
}

func (s *Scheduler) cancelTimersLocked() {
	if s.saveTimer != nil {
		s.saveTimer.Stop()
		s.saveTimer = nil
	}
	if s.uiTimer != nil {
		s.uiTimer.Stop()
		s.uiTimer = nil
	}
	s.saveGen++
	s.uiGen++
}

func (s *Scheduler) onSaveTick(gen uint64) {
	s.mu.Lock()
	if s.state != StateRunning || gen != s.saveGen {
		s.mu.Unlock()
		return
	}

	_, b := s.params.Get()
	s.saveTimer = s.clock.AfterFunc(time.Duration(b)*s.saveUnit, func() { s.onSaveTick(gen) })

	fix, ok := s.tracker.LastValidFix()
	if !ok {
		s.mu.Unlock()
		return
	}
	m := Measurement{
		Timestamp: NewTimestamp(s.clock.Now()),
		Value:     s.buffer.CurrentAverage(),
		Latitude:  fix.Latitude,
		Longitude: fix.Longitude,
	}
	snap := s.log.AppendMeasurement(m)
	s.measurements++
	log := s.log
	s.mu.Unlock()

	measurementsSaved.Inc()
	s.logger.Debug("Measurement saved",
		zap.Time("timestamp", m.Timestamp.Time()),
		zap.Float64("value", m.Value),
		zap.Float64("latitude", m.Latitude),
		zap.Float64("longitude", m.Longitude),
	)
	_ = log.Flush(snap)
}

func (s *Scheduler) onUITick(gen uint64) {
	s.mu.Lock()
	if s.state != StateRunning || gen != s.uiGen {
		s.mu.Unlock()
		return
	}
	s.uiTimer = s.clock.AfterFunc(s.uiTick, func() { s.onUITick(gen) })
	st := s.statusLocked(s.clock.Now())
	s.mu.Unlock()

	s.publish(st)
}

func (s *Scheduler) statusLocked(now time.Time) Status {
	n, b := s.params.Get()
	st := Status{
		State:        s.state,
		SessionID:    s.id,
		WindowSize:   n,
		SaveInterval: b,
		Measurements: s.measurements,
		DemoMode:     s.demoMode,
		LogPath:      s.lastLogPath,
	}
	if s.log != nil {
		st.LogPath = s.log.Path()
	}
	if s.buffer != nil {
		st.CurrentAverage = s.buffer.CurrentAverage()
		st.SampleCount = s.buffer.Len()
	}
	if fix, ok := s.tracker.LastValidFix(); ok {
		st.GPSReady = true
		st.LastFix = &fix
	}
	if s.state == StateRunning {
		st.ElapsedSeconds = int64(now.Sub(s.runningSince) / time.Second)
	}
	st.Elapsed = formatElapsed(st.ElapsedSeconds)
	return st
}

func (s *Scheduler) publish(st Status) {
	for _, p := range s.publishers {
		p.Publish(st)
	}
}
