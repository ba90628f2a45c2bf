package storage

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/fayvince/resmeter/internal/session"
)

// FileNameLayout is the Go layout for the yyyy_MM_dd_HH_mm_ss prefix of
// every session file.
const (
	FileNameLayout = "2006_01_02_15_04_05"
	FileSuffix     = "_GPS.json"
)

// FileSink writes a session document to one file in a data directory. The
// file is created on the first Write; until then Path returns "".
type FileSink struct {
	mu        sync.Mutex // serialises writes
	dir       string
	startTime time.Time
	path      atomic.Pointer[string]
	logger    *zap.Logger
}

// NewFileSink returns a sink whose file name is derived from startTime.
func NewFileSink(dir string, startTime time.Time, logger *zap.Logger) *FileSink {
	return &FileSink{dir: dir, startTime: startTime, logger: logger}
}

// NewSinkFactory adapts FileSink to the scheduler's per-session factory.
func NewSinkFactory(dir string, logger *zap.Logger) session.SinkFactory {
	return func(startTime time.Time) session.Sink {
		return NewFileSink(dir, startTime, logger)
	}
}

// Path returns the file the sink writes to, or "" before the first Write.
func (s *FileSink) Path() string {
	if p := s.path.Load(); p != nil {
		return *p
	}
	return ""
}

// Write replaces the file content with data. The content is written to a
// temporary file first and renamed into place so readers never observe a
// partial document.
func (s *FileSink) Write(data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	path := s.Path()
	if path == "" {
		var err error
		if path, err = s.claim(); err != nil {
			return err
		}
		s.path.Store(&path)
		s.logger.Info("Session file created", zap.String("path", path))
	}

	tmp, err := os.CreateTemp(s.dir, ".resmeter-*.tmp")
	if err != nil {
		return fmt.Errorf("%w: %w", ErrWriteFailed, err)
	}
	tmpName := tmp.Name()
	cleanup := func() { _ = os.Remove(tmpName) }

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		cleanup()
		return fmt.Errorf("%w: %w", ErrWriteFailed, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		cleanup()
		return fmt.Errorf("%w: %w", ErrWriteFailed, err)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return fmt.Errorf("%w: %w", ErrWriteFailed, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		cleanup()
		return fmt.Errorf("%w: %w", ErrWriteFailed, err)
	}
	return nil
}

// claim reserves a unique file name for the session. Sessions started in
// the same second get _2, _3, ... appended to the timestamp.
func (s *FileSink) claim() (string, error) {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", fmt.Errorf("%w: %w", ErrCreateFailed, err)
	}

	base := s.startTime.Format(FileNameLayout)
	for i := 1; ; i++ {
		name := base
		if i > 1 {
			name += "_" + strconv.Itoa(i)
		}
		path := filepath.Join(s.dir, name+FileSuffix)

		f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
		if errors.Is(err, fs.ErrExist) {
			continue
		}
		if err != nil {
			return "", fmt.Errorf("%w: %w", ErrCreateFailed, err)
		}
		if err := f.Close(); err != nil {
			return "", fmt.Errorf("%w: %w", ErrCreateFailed, err)
		}
		return path, nil
	}
}
