// Package charmkv stores remote documents in a Charm Cloud key-value
// database. Each document is one key holding its JSON fields; the key is the
// document path.
package charmkv

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/charmbracelet/charm/kv"
	"github.com/dgraph-io/badger/v3"
	"github.com/goccy/go-json"
	"go.uber.org/zap"

	"tableflip.dev/chronos/pkg/remote"
)

// DefaultDB is the charm kv database name used when none is configured.
const DefaultDB = "chronos"

// DB is the subset of *kv.KV the store uses.
type DB interface {
	Get(key []byte) ([]byte, error)
	Set(key, value []byte) error
	Keys() ([][]byte, error)
	Sync() error
	Close() error
}

// Opener opens the named database.
type Opener func(name string) (DB, error)

// OpenCharm opens name with the user's default charm client settings.
func OpenCharm(name string) (DB, error) {
	db, err := kv.OpenWithDefaults(name)
	if err != nil {
		return nil, err
	}
	return db, nil
}

// Store is a remote.Store over charm kv. The database is opened per call so
// other processes sharing it are not locked out.
type Store struct {
	mu     sync.Mutex
	name   string
	open   Opener
	logger *zap.SugaredLogger
}

var _ remote.Store = (*Store)(nil)

// New returns a Store over the named database. A nil open uses OpenCharm.
func New(name string, open Opener, logger *zap.SugaredLogger) *Store {
	if name == "" {
		name = DefaultDB
	}
	if open == nil {
		open = OpenCharm
	}
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Store{name: name, open: open, logger: logger.Named("charmkv")}
}

func (s *Store) do(ctx context.Context, write bool, fn func(db DB) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	db, err := s.open(s.name)
	if err != nil {
		return classify("open", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			s.logger.Warnw("close failed", "db", s.name, "error", err)
		}
	}()

	if !write {
		if err := db.Sync(); err != nil {
			return classify("sync", err)
		}
	}
	if err := fn(db); err != nil {
		return err
	}
	if write {
		if err := db.Sync(); err != nil {
			return classify("sync", err)
		}
	}
	return nil
}

func (s *Store) GetDocument(ctx context.Context, path remote.Path) (remote.Document, bool, error) {
	if err := path.Validate(); err != nil {
		return remote.Document{}, false, err
	}
	var (
		doc   remote.Document
		found bool
	)
	err := s.do(ctx, false, func(db DB) error {
		fields, err := read(db, path)
		if errors.Is(err, remote.ErrNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		_, id := path.Split()
		doc = remote.Document{ID: id, Path: path, Data: fields}
		found = true
		return nil
	})
	return doc, found, err
}

func (s *Store) SetDocument(ctx context.Context, path remote.Path, payload any, opts ...remote.SetOption) error {
	if err := path.Validate(); err != nil {
		return err
	}
	return s.do(ctx, true, func(db DB) error {
		existing, err := read(db, path)
		if err != nil && !errors.Is(err, remote.ErrNotFound) {
			return err
		}
		next, err := remote.Apply(existing, payload, opts...)
		if err != nil {
			return err
		}
		raw, err := json.Marshal(next)
		if err != nil {
			return fmt.Errorf("remote: encode %s: %w", path, err)
		}
		if err := db.Set([]byte(path), raw); err != nil {
			return classify("set", err)
		}
		return nil
	})
}

func (s *Store) ListCollection(ctx context.Context, path remote.Path, order remote.Order) ([]remote.Document, error) {
	if err := path.Validate(); err != nil {
		return nil, err
	}
	docs := make([]remote.Document, 0)
	err := s.do(ctx, false, func(db DB) error {
		keys, err := db.Keys()
		if err != nil {
			return classify("keys", err)
		}
		prefix := string(path) + "/"
		for _, k := range keys {
			p := remote.Path(k)
			if !strings.HasPrefix(string(p), prefix) || !p.ChildOf(path) {
				continue
			}
			fields, err := read(db, p)
			if errors.Is(err, remote.ErrNotFound) {
				continue
			}
			if err != nil {
				return err
			}
			_, id := p.Split()
			docs = append(docs, remote.Document{ID: id, Path: p, Data: fields})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	remote.SortDocuments(docs, order)
	return docs, nil
}

func read(db DB, path remote.Path) (map[string]any, error) {
	raw, err := db.Get([]byte(path))
	if errors.Is(err, badger.ErrKeyNotFound) || (err == nil && raw == nil) {
		return nil, remote.ErrNotFound
	}
	if err != nil {
		return nil, classify("get", err)
	}
	var fields map[string]any
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, fmt.Errorf("remote: decode %s: %w", path, err)
	}
	return fields, nil
}

// classify maps charm client failures onto the remote error taxonomy. The
// charm client does not export typed auth errors, so the message decides.
func classify(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, remote.ErrPermissionDenied) || errors.Is(err, remote.ErrUnavailable) {
		return err
	}
	msg := strings.ToLower(err.Error())
	for _, marker := range []string{"unauthorized", "forbidden", "permission", "auth"} {
		if strings.Contains(msg, marker) {
			return fmt.Errorf("%w: charm %s: %v", remote.ErrPermissionDenied, op, err)
		}
	}
	return fmt.Errorf("%w: charm %s: %v", remote.ErrUnavailable, op, err)
}
