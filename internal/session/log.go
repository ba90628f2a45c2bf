package session

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Sink stores the serialised session document, replacing any previous content.
// Path must not block on a Write in progress.
type Sink interface {
	Write(data []byte) error
	Path() string
}

// Snapshot is the whole document as of one mutation. Seq orders snapshots of
// the same log.
type Snapshot struct {
	Seq      uint64
	Document Document
}

// Log is the append-only record of one session. Appends mutate memory only
// and return a Snapshot; Flush writes a snapshot through the sink. Callers
// flush after every append, outside any lock guarding their own state.
type Log struct {
	mu     sync.Mutex
	doc    Document
	seq    uint64
	closed bool

	flushMu sync.Mutex
	flushed uint64

	sink   Sink
	logger *zap.Logger
}

// OpenLog creates an empty log started at startTime.
func OpenLog(startTime time.Time, sink Sink, logger *zap.Logger) *Log {
	return &Log{
		doc: Document{
			StartTime:        NewTimestamp(startTime),
			Measurements:     []Measurement{},
			ParameterChanges: []ParameterChange{},
		},
		sink:   sink,
		logger: logger,
	}
}

// AppendMeasurement appends m and returns the resulting snapshot.
func (l *Log) AppendMeasurement(m Measurement) Snapshot {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return Snapshot{}
	}
	l.doc.Measurements = append(l.doc.Measurements, m)
	return l.snapshotLocked()
}

// AppendParameterChange appends pc and returns the resulting snapshot.
func (l *Log) AppendParameterChange(pc ParameterChange) Snapshot {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return Snapshot{}
	}
	l.doc.ParameterChanges = append(l.doc.ParameterChanges, pc)
	return l.snapshotLocked()
}

// snapshotLocked caps the slices at their current length. Records are never
// modified after append, so the snapshot can share backing arrays.
func (l *Log) snapshotLocked() Snapshot {
	l.seq++
	m, pc := l.doc.Measurements, l.doc.ParameterChanges
	return Snapshot{
		Seq: l.seq,
		Document: Document{
			StartTime:        l.doc.StartTime,
			Measurements:     m[:len(m):len(m)],
			ParameterChanges: pc[:len(pc):len(pc)],
		},
	}
}

// Flush serialises s and writes it through the sink. Snapshots older than
// the last one written are skipped so the stored file never goes backwards.
// A failed write is logged; the in-memory log is unaffected and the next
// successful flush carries every record.
func (l *Log) Flush(s Snapshot) error {
	if s.Seq == 0 || l.sink == nil {
		return nil
	}

	l.flushMu.Lock()
	defer l.flushMu.Unlock()
	if s.Seq <= l.flushed {
		return nil
	}

	data, err := Encode(s.Document)
	if err == nil {
		err = l.sink.Write(data)
	}
	if err != nil {
		flushFailures.Inc()
		l.logger.Warn("Failed to flush session log",
			zap.String("path", l.sink.Path()),
			zap.Uint64("seq", s.Seq),
			zap.Int("measurements", len(s.Document.Measurements)),
			zap.Error(err),
		)
		return fmt.Errorf("%w: %w", ErrFlushFailed, err)
	}

	l.flushed = s.Seq
	l.logger.Debug("Session log flushed",
		zap.String("path", l.sink.Path()),
		zap.Uint64("seq", s.Seq),
	)
	return nil
}

// Document returns a copy of the accumulated records.
func (l *Log) Document() Document {
	l.mu.Lock()
	defer l.mu.Unlock()
	return Document{
		StartTime:        l.doc.StartTime,
		Measurements:     append([]Measurement{}, l.doc.Measurements...),
		ParameterChanges: append([]ParameterChange{}, l.doc.ParameterChanges...),
	}
}

// Path returns where the log is stored, or "" without a sink.
func (l *Log) Path() string {
	if l.sink == nil {
		return ""
	}
	return l.sink.Path()
}

// Close releases the in-memory records. No trailer is written.
func (l *Log) Close() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.closed = true
	l.doc.Measurements = nil
	l.doc.ParameterChanges = nil
}

// Encode renders doc as indented JSON.
func Encode(doc Document) ([]byte, error) {
	if doc.Measurements == nil {
		doc.Measurements = []Measurement{}
	}
	if doc.ParameterChanges == nil {
		doc.ParameterChanges = []ParameterChange{}
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrEncodeFailed, err)
	}
	return data, nil
}

// Decode parses a document produced by Encode.
func Decode(data []byte) (Document, error) {
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return Document{}, fmt.Errorf("%w: %w", ErrDecodeFailed, err)
	}
	if doc.Measurements == nil {
		doc.Measurements = []Measurement{}
	}
	if doc.ParameterChanges == nil {
		doc.ParameterChanges = []ParameterChange{}
	}
	return doc, nil
}
