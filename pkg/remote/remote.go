// Package remote defines the document-store contract the sync layer talks to
// and the error taxonomy it classifies failures by.
package remote

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/goccy/go-json"
)

var (
	// ErrPermissionDenied means the store refused the caller. The sync layer
	// treats it as terminal for the session.
	ErrPermissionDenied = errors.New("remote: permission denied")

	// ErrUnavailable covers connectivity and other transient failures.
	ErrUnavailable = errors.New("remote: unavailable")

	// ErrNotFound is used between adapters and helpers; GetDocument reports
	// absence through its found result instead.
	ErrNotFound = errors.New("remote: not found")
)

// IsPermissionDenied reports whether err is an authorization failure.
func IsPermissionDenied(err error) bool {
	return errors.Is(err, ErrPermissionDenied)
}

// Store is an asynchronous document store addressed by slash-separated
// paths. Every call may fail with ErrPermissionDenied or ErrUnavailable.
type Store interface {
	// GetDocument returns the document at path. found is false when it does
	// not exist, which is not an error.
	GetDocument(ctx context.Context, path Path) (doc Document, found bool, err error)

	// SetDocument writes payload at path. With merge (the default) the
	// payload's fields are merged into the stored document so fields it does
	// not name are kept.
	SetDocument(ctx context.Context, path Path, payload any, opts ...SetOption) error

	// ListCollection returns every document directly under path.
	ListCollection(ctx context.Context, path Path, order Order) ([]Document, error)
}

// Document is one stored document.
type Document struct {
	ID   string
	Path Path
	Data map[string]any
}

// Raw returns the document's fields as JSON.
func (d Document) Raw() ([]byte, error) {
	if d.Data == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(d.Data)
}

// Decode unmarshals the document's fields into v.
func (d Document) Decode(v any) error {
	raw, err := d.Raw()
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, v)
}

// Path addresses a document or a collection, e.g. "users/u1/entries/2024-03-01".
type Path string

// Join builds a path from segments.
func Join(segments ...string) Path {
	return Path(strings.Join(segments, "/"))
}

// UserDocument addresses a document in one of uid's collections.
func UserDocument(uid, collection, id string) Path {
	return Join("users", uid, collection, id)
}

// UserCollection addresses one of uid's collections.
func UserCollection(uid, collection string) Path {
	return Join("users", uid, collection)
}

// Split returns the parent collection and document id of p.
func (p Path) Split() (collection Path, id string) {
	s := string(p)
	i := strings.LastIndex(s, "/")
	if i < 0 {
		return "", s
	}
	return Path(s[:i]), s[i+1:]
}

// ChildOf reports whether p is a direct child of collection.
func (p Path) ChildOf(collection Path) bool {
	parent, id := p.Split()
	return parent == collection && id != ""
}

// Validate checks that p is non-empty with no empty segments.
func (p Path) Validate() error {
	if p == "" {
		return errors.New("remote: empty path")
	}
	for _, seg := range strings.Split(string(p), "/") {
		if seg == "" {
			return fmt.Errorf("remote: invalid path %q", string(p))
		}
	}
	return nil
}

func (p Path) String() string {
	return string(p)
}

// Order sorts a listed collection by a top-level field.
type Order struct {
	Field string
	Desc  bool
}

// ByUpdatedDesc orders documents newest first.
var ByUpdatedDesc = Order{Field: "updatedAt", Desc: true}

// SetOption adjusts a SetDocument call.
type SetOption func(*SetOptions)

// SetOptions is the resolved form of a SetDocument call's options.
type SetOptions struct {
	Merge bool
}

// Overwrite replaces the stored document instead of merging into it.
func Overwrite() SetOption {
	return func(o *SetOptions) { o.Merge = false }
}

// ResolveSetOptions applies opts over the default of merging.
func ResolveSetOptions(opts ...SetOption) SetOptions {
	o := SetOptions{Merge: true}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Fields converts payload into a generic field map via its JSON form.
func Fields(payload any) (map[string]any, error) {
	var raw []byte
	switch p := payload.(type) {
	case nil:
		return map[string]any{}, nil
	case map[string]any:
		raw, _ = json.Marshal(p)
	case []byte:
		raw = p
	case json.RawMessage:
		raw = p
	default:
		var err error
		raw, err = json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("remote: encode payload: %w", err)
		}
	}
	var fields map[string]any
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, fmt.Errorf("remote: payload is not an object: %w", err)
	}
	if fields == nil {
		fields = map[string]any{}
	}
	return fields, nil
}
