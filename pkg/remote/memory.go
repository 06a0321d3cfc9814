package remote

import (
	"context"
	"sync"

	"github.com/goccy/go-json"
)

// Op names a Store operation, for fault injection and call counting.
type Op string

const (
	OpGet  Op = "get"
	OpSet  Op = "set"
	OpList Op = "list"
)

// Hook runs before every Memory operation. A non-nil error fails the call.
type Hook func(ctx context.Context, op Op, path Path) error

// Memory is an in-process Store. It backs the "memory" remote kind and
// doubles as the fake in tests.
type Memory struct {
	mu    sync.Mutex
	docs  map[Path]map[string]any
	calls map[Op]int
	fail  map[Op]error
	hook  Hook
}

var _ Store = (*Memory)(nil)

// NewMemory returns an empty Memory store.
func NewMemory() *Memory {
	return &Memory{
		docs:  make(map[Path]map[string]any),
		calls: make(map[Op]int),
		fail:  make(map[Op]error),
	}
}

// Fail makes every subsequent op fail with err. An empty op fails all ops.
func (m *Memory) Fail(op Op, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if op == "" {
		for _, o := range []Op{OpGet, OpSet, OpList} {
			m.fail[o] = err
		}
		return
	}
	m.fail[op] = err
}

// Recover clears every injected failure.
func (m *Memory) Recover() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fail = make(map[Op]error)
}

// SetHook installs h to run before each call, outside the store lock.
func (m *Memory) SetHook(h Hook) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hook = h
}

// Calls returns how many times op was attempted, failures included.
func (m *Memory) Calls(op Op) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[op]
}

// TotalCalls returns the number of attempted operations of any kind.
func (m *Memory) TotalCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, c := range m.calls {
		n += c
	}
	return n
}

// Put seeds the document at path, bypassing hooks and counters.
func (m *Memory) Put(path Path, payload any) error {
	fields, err := Fields(payload)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.docs[path] = fields
	return nil
}

// Peek returns a copy of the document at path, bypassing hooks and counters.
func (m *Memory) Peek(path Path) (map[string]any, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.docs[path]
	if !ok {
		return nil, false
	}
	return cloneFields(d), true
}

func (m *Memory) enter(ctx context.Context, op Op, path Path) error {
	m.mu.Lock()
	m.calls[op]++
	hook := m.hook
	m.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}
	if hook != nil {
		if err := hook(ctx, op, path); err != nil {
			return err
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	return m.fail[op]
}

func (m *Memory) GetDocument(ctx context.Context, path Path) (Document, bool, error) {
	if err := path.Validate(); err != nil {
		return Document{}, false, err
	}
	if err := m.enter(ctx, OpGet, path); err != nil {
		return Document{}, false, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.docs[path]
	if !ok {
		return Document{}, false, nil
	}
	_, id := path.Split()
	return Document{ID: id, Path: path, Data: cloneFields(d)}, true, nil
}

func (m *Memory) SetDocument(ctx context.Context, path Path, payload any, opts ...SetOption) error {
	if err := path.Validate(); err != nil {
		return err
	}
	if err := m.enter(ctx, OpSet, path); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	next, err := Apply(cloneFields(m.docs[path]), payload, opts...)
	if err != nil {
		return err
	}
	m.docs[path] = next
	return nil
}

func (m *Memory) ListCollection(ctx context.Context, path Path, order Order) ([]Document, error) {
	if err := path.Validate(); err != nil {
		return nil, err
	}
	if err := m.enter(ctx, OpList, path); err != nil {
		return nil, err
	}
	m.mu.Lock()
	docs := make([]Document, 0)
	for p, d := range m.docs {
		if !p.ChildOf(path) {
			continue
		}
		_, id := p.Split()
		docs = append(docs, Document{ID: id, Path: p, Data: cloneFields(d)})
	}
	m.mu.Unlock()
	SortDocuments(docs, order)
	return docs, nil
}

func cloneFields(d map[string]any) map[string]any {
	if d == nil {
		return nil
	}
	raw, err := json.Marshal(d)
	if err != nil {
		return nil
	}
	var out map[string]any
	_ = json.Unmarshal(raw, &out)
	return out
}
