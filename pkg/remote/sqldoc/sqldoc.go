// Package sqldoc keeps remote documents in a SQLite database shared between
// devices, one row per document.
package sqldoc

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/goccy/go-json"
	"github.com/ncruces/go-sqlite3"
	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"
	"go.uber.org/zap"

	"tableflip.dev/chronos/pkg/remote"
)

const schema = `
CREATE TABLE IF NOT EXISTS documents (
	path       TEXT PRIMARY KEY,
	collection TEXT NOT NULL,
	id         TEXT NOT NULL,
	data       TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_documents_collection ON documents(collection);
`

var fieldName = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Store is a remote.Store over a SQLite file.
type Store struct {
	conn   *sql.DB
	logger *zap.SugaredLogger
}

var _ remote.Store = (*Store)(nil)

// Open opens (creating if needed) the document database at dsn. A dsn without
// the "file:" scheme is treated as a file path.
func Open(dsn string, logger *zap.SugaredLogger) (*Store, error) {
	if dsn == "" {
		return nil, errors.New("sqldoc: dsn required")
	}
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	if !strings.HasPrefix(dsn, "file:") {
		if err := os.MkdirAll(filepath.Dir(dsn), 0o755); err != nil {
			return nil, fmt.Errorf("sqldoc: create directory: %w", err)
		}
		dsn = "file:" + dsn
	}

	conn, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqldoc: open: %w", err)
	}
	if err := conn.Ping(); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("sqldoc: ping: %w", err)
	}
	// One writer keeps read-modify-write merges serialized.
	conn.SetMaxOpenConns(1)

	for _, pragma := range []string{"PRAGMA journal_mode=WAL", "PRAGMA busy_timeout=5000"} {
		if _, err := conn.Exec(pragma); err != nil {
			_ = conn.Close()
			return nil, fmt.Errorf("sqldoc: %s: %w", pragma, err)
		}
	}
	if _, err := conn.Exec(schema); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("sqldoc: init schema: %w", err)
	}
	return &Store{conn: conn, logger: logger.Named("sqldoc")}, nil
}

// Close releases the database.
func (s *Store) Close() error {
	if s.conn == nil {
		return nil
	}
	err := s.conn.Close()
	s.conn = nil
	return err
}

func (s *Store) GetDocument(ctx context.Context, path remote.Path) (remote.Document, bool, error) {
	if err := path.Validate(); err != nil {
		return remote.Document{}, false, err
	}
	fields, err := get(ctx, s.conn, path)
	if errors.Is(err, remote.ErrNotFound) {
		return remote.Document{}, false, nil
	}
	if err != nil {
		return remote.Document{}, false, err
	}
	_, id := path.Split()
	return remote.Document{ID: id, Path: path, Data: fields}, true, nil
}

func (s *Store) SetDocument(ctx context.Context, path remote.Path, payload any, opts ...remote.SetOption) error {
	if err := path.Validate(); err != nil {
		return err
	}
	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return classify("begin", err)
	}
	defer func() { _ = tx.Rollback() }()

	existing, err := get(ctx, tx, path)
	if err != nil && !errors.Is(err, remote.ErrNotFound) {
		return err
	}
	next, err := remote.Apply(existing, payload, opts...)
	if err != nil {
		return err
	}
	raw, err := json.Marshal(next)
	if err != nil {
		return fmt.Errorf("sqldoc: encode %s: %w", path, err)
	}
	collection, id := path.Split()
	_, err = tx.ExecContext(ctx, `
		INSERT INTO documents (path, collection, id, data) VALUES (?, ?, ?, ?)
		ON CONFLICT(path) DO UPDATE SET data = excluded.data`,
		string(path), string(collection), id, string(raw))
	if err != nil {
		return classify("upsert", err)
	}
	if err := tx.Commit(); err != nil {
		return classify("commit", err)
	}
	return nil
}

func (s *Store) ListCollection(ctx context.Context, path remote.Path, order remote.Order) ([]remote.Document, error) {
	if err := path.Validate(); err != nil {
		return nil, err
	}
	query := `SELECT path, id, data FROM documents WHERE collection = ?`
	args := []any{string(path)}
	if order.Field != "" {
		if !fieldName.MatchString(order.Field) {
			return nil, fmt.Errorf("sqldoc: invalid order field %q", order.Field)
		}
		dir := "ASC"
		if order.Desc {
			dir = "DESC"
		}
		query += ` ORDER BY json_extract(data, ?) IS NULL, json_extract(data, ?) ` + dir + `, id`
		jp := "$." + order.Field
		args = append(args, jp, jp)
	} else {
		query += ` ORDER BY id`
	}

	rows, err := s.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, classify("list", err)
	}
	defer rows.Close()

	docs := make([]remote.Document, 0)
	for rows.Next() {
		var p, id, data string
		if err := rows.Scan(&p, &id, &data); err != nil {
			return nil, classify("scan", err)
		}
		var fields map[string]any
		if err := json.Unmarshal([]byte(data), &fields); err != nil {
			s.logger.Warnw("skipping undecodable document", "path", p, "error", err)
			continue
		}
		docs = append(docs, remote.Document{ID: id, Path: remote.Path(p), Data: fields})
	}
	if err := rows.Err(); err != nil {
		return nil, classify("list", err)
	}
	// SQLite compares timestamps as text; re-sort so offsets compare as times.
	remote.SortDocuments(docs, order)
	return docs, nil
}

type querier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func get(ctx context.Context, q querier, path remote.Path) (map[string]any, error) {
	var data string
	err := q.QueryRowContext(ctx, `SELECT data FROM documents WHERE path = ?`, string(path)).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, remote.ErrNotFound
	}
	if err != nil {
		return nil, classify("get", err)
	}
	var fields map[string]any
	if err := json.Unmarshal([]byte(data), &fields); err != nil {
		return nil, fmt.Errorf("sqldoc: decode %s: %w", path, err)
	}
	return fields, nil
}

func classify(op string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return err
	case errors.Is(err, sqlite3.PERM), errors.Is(err, sqlite3.AUTH), errors.Is(err, sqlite3.READONLY):
		return fmt.Errorf("%w: sqlite %s: %v", remote.ErrPermissionDenied, op, err)
	default:
		return fmt.Errorf("%w: sqlite %s: %v", remote.ErrUnavailable, op, err)
	}
}
