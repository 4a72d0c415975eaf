package cache

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"

	"github.com/dgraph-io/badger/v3"
)

// BadgerConfig configures a BadgerStore.
type BadgerConfig struct {
	// Path is the database directory. Ignored when InMemory is set.
	Path string

	// InMemory keeps the database in memory (tests, dry runs).
	InMemory bool

	// Logger receives BadgerDB's own log output at warning level and above.
	Logger *slog.Logger
}

// BadgerStore is a Store backed by BadgerDB. Entries have no TTL.
type BadgerStore struct {
	db     *badger.DB
	mu     sync.RWMutex
	closed bool
}

// NewBadgerStore opens (or creates) a BadgerDB store.
func NewBadgerStore(config BadgerConfig) (*BadgerStore, error) {
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}

	var opts badger.Options
	if config.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if config.Path == "" {
			return nil, fmt.Errorf("badger store requires a path")
		}
		if err := os.MkdirAll(config.Path, 0755); err != nil {
			return nil, fmt.Errorf("failed to create cache directory: %w", err)
		}
		opts = badger.DefaultOptions(config.Path)
	}
	opts = opts.WithLogger(&badgerLogger{logger: logger.With("component", "cache.badger")})
	opts = opts.WithValueLogFileSize(64 << 20)

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open BadgerDB: %w", err)
	}

	return &BadgerStore{db: db}, nil
}

func (b *BadgerStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return nil, false, ErrClosed
	}

	var value []byte
	err := b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}
		value, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read %q: %w", key, err)
	}
	return value, true, nil
}

func (b *BadgerStore) Put(_ context.Context, key string, value []byte) error {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return ErrClosed
	}

	err := b.db.Update(func(txn *badger.Txn) error {
		return txn.SetEntry(badger.NewEntry([]byte(key), value))
	})
	if err != nil {
		return fmt.Errorf("failed to write %q: %w", key, err)
	}
	return nil
}

func (b *BadgerStore) Delete(_ context.Context, key string) error {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return ErrClosed
	}

	err := b.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(key))
	})
	if err != nil {
		return fmt.Errorf("failed to delete %q: %w", key, err)
	}
	return nil
}

func (b *BadgerStore) Keys(_ context.Context) ([]string, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return nil, ErrClosed
	}

	var keys []string
	err := b.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			keys = append(keys, string(it.Item().KeyCopy(nil)))
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list keys: %w", err)
	}
	return keys, nil
}

// RunGC reclaims value log space. badger.ErrNoRewrite is not an error.
func (b *BadgerStore) RunGC() error {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return ErrClosed
	}
	if err := b.db.RunValueLogGC(0.5); err != nil && !errors.Is(err, badger.ErrNoRewrite) {
		return err
	}
	return nil
}

func (b *BadgerStore) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil
	}
	b.closed = true
	return b.db.Close()
}

// badgerLogger routes BadgerDB logs into slog. Info and debug output is
// dropped; BadgerDB is chatty at those levels.
type badgerLogger struct {
	logger *slog.Logger
}

func (l *badgerLogger) Errorf(format string, args ...interface{}) {
	l.logger.Error(strings.TrimSpace(fmt.Sprintf(format, args...)))
}

func (l *badgerLogger) Warningf(format string, args ...interface{}) {
	l.logger.Warn(strings.TrimSpace(fmt.Sprintf(format, args...)))
}

func (l *badgerLogger) Infof(string, ...interface{}) {}

func (l *badgerLogger) Debugf(string, ...interface{}) {}
