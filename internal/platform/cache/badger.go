package cache

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/yungbote/linguapath-backend/internal/platform/logger"
)

type BadgerConfig struct {
	// Path is the data directory; empty runs badger fully in memory.
	Path string
}

type badgerStore struct {
	db  *badger.DB
	log *logger.Logger
}

type badgerLogger struct {
	log *logger.Logger
}

func (l *badgerLogger) Errorf(format string, args ...interface{}) {
	l.log.Error(strings.TrimSpace(fmt.Sprintf(format, args...)))
}
func (l *badgerLogger) Warningf(format string, args ...interface{}) {
	l.log.Warn(strings.TrimSpace(fmt.Sprintf(format, args...)))
}
func (l *badgerLogger) Infof(string, ...interface{})  {}
func (l *badgerLogger) Debugf(string, ...interface{}) {}

const badgerIncrRetries = 8

func NewBadger(cfg BadgerConfig, log *logger.Logger) (Store, error) {
	var opts badger.Options
	if strings.TrimSpace(cfg.Path) == "" {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if err := os.MkdirAll(cfg.Path, 0o750); err != nil {
			return nil, fmt.Errorf("create badger directory %s: %w", cfg.Path, err)
		}
		opts = badger.DefaultOptions(cfg.Path)
	}
	opts = opts.WithNumVersionsToKeep(1).WithSyncWrites(false)
	if log != nil {
		opts = opts.WithLogger(&badgerLogger{log: log.With("cache", "badger")})
	} else {
		opts = opts.WithLogger(nil)
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger: %w", err)
	}
	return &badgerStore{db: db, log: log}, nil
}

func (s *badgerStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	var out []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}
		out, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return out, true, nil
}

func (s *badgerStore) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	return s.db.Update(func(txn *badger.Txn) error {
		e := badger.NewEntry([]byte(key), value)
		if ttl > 0 {
			e = e.WithTTL(ttl)
		}
		return txn.SetEntry(e)
	})
}

func (s *badgerStore) Evict(_ context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	return s.db.Update(func(txn *badger.Txn) error {
		for _, k := range keys {
			if err := txn.Delete([]byte(k)); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *badgerStore) Incr(_ context.Context, key string) (int64, error) {
	var n int64
	var err error
	for i := 0; i < badgerIncrRetries; i++ {
		err = s.db.Update(func(txn *badger.Txn) error {
			n = 0
			item, gerr := txn.Get([]byte(key))
			switch {
			case errors.Is(gerr, badger.ErrKeyNotFound):
			case gerr != nil:
				return gerr
			default:
				raw, verr := item.ValueCopy(nil)
				if verr != nil {
					return verr
				}
				parsed, perr := strconv.ParseInt(strings.TrimSpace(string(raw)), 10, 64)
				if perr != nil {
					return perr
				}
				n = parsed
			}
			n++
			return txn.Set([]byte(key), []byte(strconv.FormatInt(n, 10)))
		})
		if !errors.Is(err, badger.ErrConflict) {
			break
		}
	}
	if err != nil {
		return 0, err
	}
	return n, nil
}

func (s *badgerStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}
