package paramstore

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/dgraph-io/badger/v2"
	"go.uber.org/zap"
)

// Stable keys under which N and B are persisted.
const (
	KeyWindowSize   = "n_value"
	KeySaveInterval = "b_value"
)

type badgerZapLogger struct {
	log *zap.SugaredLogger
}

func (l badgerZapLogger) Errorf(msg string, args ...interface{})   { l.log.Errorf(msg, args...) }
func (l badgerZapLogger) Warningf(msg string, args ...interface{}) { l.log.Warnf(msg, args...) }
func (l badgerZapLogger) Infof(msg string, args ...interface{})    { l.log.Debugf(msg, args...) }
func (l badgerZapLogger) Debugf(msg string, args ...interface{})   { l.log.Debugf(msg, args...) }

// Badger persists the session parameters in a badger key-value store.
type Badger struct {
	db     *badger.DB
	logger *zap.Logger
}

// OpenBadger opens (or creates) the store in dir. An empty dir keeps the
// store in memory, which is only useful for tests.
func OpenBadger(dir string, logger *zap.Logger) (*Badger, error) {
	opts := badger.DefaultOptions(dir).
		WithLogger(badgerZapLogger{logger.Named("badger").WithOptions(zap.AddCallerSkip(1)).Sugar()})
	if dir == "" {
		opts = opts.WithInMemory(true)
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrOpenFailed, err)
	}
	logger.Info("Parameter store opened", zap.String("dir", dir), zap.Bool("in_memory", dir == ""))
	return &Badger{db: db, logger: logger}, nil
}

// Load returns the stored N and B. ok is false if neither has been stored.
func (s *Badger) Load() (n, b int, ok bool, err error) {
	err = s.db.View(func(txn *badger.Txn) error {
		var foundN, foundB bool
		var err error
		if n, foundN, err = getInt(txn, KeyWindowSize); err != nil {
			return err
		}
		if b, foundB, err = getInt(txn, KeySaveInterval); err != nil {
			return err
		}
		ok = foundN && foundB
		return nil
	})
	if err != nil {
		return 0, 0, false, fmt.Errorf("%w: %w", ErrLoadFailed, err)
	}
	return n, b, ok, nil
}

// Save stores N and B in one transaction.
func (s *Badger) Save(n, b int) error {
	err := s.db.Update(func(txn *badger.Txn) error {
		if err := txn.Set([]byte(KeyWindowSize), []byte(strconv.Itoa(n))); err != nil {
			return err
		}
		return txn.Set([]byte(KeySaveInterval), []byte(strconv.Itoa(b)))
	})
	if err != nil {
		return fmt.Errorf("%w: %w", ErrSaveFailed, err)
	}
	s.logger.Debug("Parameters persisted", zap.Int("n", n), zap.Int("b", b))
	return nil
}

// Close releases the underlying database.
func (s *Badger) Close() error {
	return s.db.Close()
}

func getInt(txn *badger.Txn, key string) (int, bool, error) {
	item, err := txn.Get([]byte(key))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	raw, err := item.ValueCopy(nil)
	if err != nil {
		return 0, false, err
	}
	v, err := strconv.Atoi(string(raw))
	if err != nil {
		return 0, false, fmt.Errorf("%w: key %q: %w", ErrCorruptValue, key, err)
	}
	return v, true, nil
}
