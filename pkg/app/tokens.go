package app

import "sync"

// tokens issues monotonically increasing sequence numbers per entity key.
// A remote response is applied only while the token it was issued under is
// still the latest one for its key and the key was not edited this session.
type tokens struct {
	mu     sync.Mutex
	next   uint64
	last   map[string]uint64
	edited map[string]bool
}

// issue returns a fresh token for key and records it as the latest.
func (t *tokens) issue(key string) uint64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.last == nil {
		t.last = make(map[string]uint64)
	}
	t.next++
	t.last[key] = t.next
	return t.next
}

// edit issues a token for key and latches it as edited until reset.
func (t *tokens) edit(key string) {
	t.issue(key)
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.edited == nil {
		t.edited = make(map[string]bool)
	}
	t.edited[key] = true
}

// mark returns a token not bound to any key. Any key issued a token after
// mark reports touchedSince(key, mark) as true.
func (t *tokens) mark() uint64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.next++
	return t.next
}

// latest reports whether tok is still the newest token for key.
func (t *tokens) latest(key string, tok uint64) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.last[key] == tok && !t.edited[key]
}

func (t *tokens) touchedSince(key string, mark uint64) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.last[key] > mark || t.edited[key]
}

func (t *tokens) reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.last = nil
	t.edited = nil
}
