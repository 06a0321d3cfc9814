// Package httpdoc talks to a REST document service:
//
//	GET    {base}/v1/{path}                      document fields, 404 when absent
//	PATCH  {base}/v1/{path}                      merge fields into the document
//	PUT    {base}/v1/{path}                      replace the document
//	GET    {base}/v1/{collection}?orderBy=f&dir=desc  {"documents":[{"id","data"}]}
//
// Requests carry the configured bearer token. 401 and 403 responses map to
// remote.ErrPermissionDenied.
package httpdoc

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"go.uber.org/zap"

	"tableflip.dev/chronos/pkg/remote"
)

// DefaultTimeout bounds every request.
const DefaultTimeout = 15 * time.Second

// Store is a remote.Store over HTTP.
type Store struct {
	base   *url.URL
	token  string
	client *http.Client
	logger *zap.SugaredLogger
}

var _ remote.Store = (*Store)(nil)

// Option configures a Store.
type Option func(*Store)

// WithToken sets the bearer token.
func WithToken(token string) Option {
	return func(s *Store) { s.token = token }
}

// WithHTTPClient replaces the default client.
func WithHTTPClient(c *http.Client) Option {
	return func(s *Store) { s.client = c }
}

// WithLogger sets the logger.
func WithLogger(l *zap.SugaredLogger) Option {
	return func(s *Store) { s.logger = l }
}

// New returns a Store rooted at baseURL.
func New(baseURL string, opts ...Option) (*Store, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("httpdoc: parse url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("httpdoc: unsupported url %q", baseURL)
	}
	s := &Store{
		base:   u,
		client: &http.Client{Timeout: DefaultTimeout},
		logger: zap.NewNop().Sugar(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.Named("httpdoc")
	return s, nil
}

// Client returns the underlying HTTP client.
func (s *Store) Client() *http.Client {
	return s.client
}

func (s *Store) endpoint(path remote.Path, query url.Values) string {
	u := *s.base
	u.Path = u.Path + "/v1/" + string(path)
	u.RawQuery = query.Encode()
	return u.String()
}

func (s *Store) GetDocument(ctx context.Context, path remote.Path) (remote.Document, bool, error) {
	if err := path.Validate(); err != nil {
		return remote.Document{}, false, err
	}
	var fields map[string]any
	err := s.call(ctx, http.MethodGet, s.endpoint(path, nil), nil, &fields)
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
	fields, err := remote.Fields(payload)
	if err != nil {
		return err
	}
	method := http.MethodPatch
	if !remote.ResolveSetOptions(opts...).Merge {
		method = http.MethodPut
	}
	return s.call(ctx, method, s.endpoint(path, nil), fields, nil)
}

type listResponse struct {
	Documents []struct {
		ID   string         `json:"id"`
		Data map[string]any `json:"data"`
	} `json:"documents"`
}

func (s *Store) ListCollection(ctx context.Context, path remote.Path, order remote.Order) ([]remote.Document, error) {
	if err := path.Validate(); err != nil {
		return nil, err
	}
	q := url.Values{}
	if order.Field != "" {
		q.Set("orderBy", order.Field)
		if order.Desc {
			q.Set("dir", "desc")
		} else {
			q.Set("dir", "asc")
		}
	}
	var resp listResponse
	if err := s.call(ctx, http.MethodGet, s.endpoint(path, q), nil, &resp); err != nil {
		if errors.Is(err, remote.ErrNotFound) {
			return []remote.Document{}, nil
		}
		return nil, err
	}
	docs := make([]remote.Document, 0, len(resp.Documents))
	for _, d := range resp.Documents {
		if d.ID == "" {
			continue
		}
		docs = append(docs, remote.Document{ID: d.ID, Path: remote.Join(string(path), d.ID), Data: d.Data})
	}
	remote.SortDocuments(docs, order)
	return docs, nil
}

func (s *Store) call(ctx context.Context, method, endpoint string, body any, out any) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("httpdoc: encode body: %w", err)
		}
		reader = bytes.NewReader(raw)
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return fmt.Errorf("httpdoc: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if s.token != "" {
		req.Header.Set("Authorization", "Bearer "+s.token)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("%w: %s %s: %v", remote.ErrUnavailable, method, endpoint, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return fmt.Errorf("%w: %s %s: %s", remote.ErrPermissionDenied, method, endpoint, resp.Status)
	case resp.StatusCode == http.StatusNotFound:
		return remote.ErrNotFound
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		s.logger.Debugw("request failed", "method", method, "url", endpoint, "status", resp.StatusCode, "body", string(snippet))
		return fmt.Errorf("%w: %s %s: %s", remote.ErrUnavailable, method, endpoint, resp.Status)
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: decode %s: %v", remote.ErrUnavailable, endpoint, err)
	}
	return nil
}
