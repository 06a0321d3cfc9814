// Package scheduler turns a rapid stream of edits into at most one write per
// entity per inactivity window and tracks the save status shown for it.
package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/looplab/fsm"
	"go.uber.org/zap"

	"tableflip.dev/chronos/pkg/app"
	"tableflip.dev/chronos/pkg/journal"
	"tableflip.dev/chronos/pkg/metrics"
)

// Defaults for Config.
const (
	DefaultDebounce  = 1100 * time.Millisecond
	DefaultSavedHold = 2 * time.Second
	DefaultErrorHold = 3500 * time.Millisecond
)

// ChecklistKey is the entity key of the checklist configuration.
const ChecklistKey = "checklist"

// EntryKey is the entity key of the entry for date.
func EntryKey(date string) string {
	return "entry/" + date
}

// SaveFunc performs one write of the latest snapshot of an entity.
type SaveFunc func(ctx context.Context) (app.Outcome, error)

// Writer is the write path the convenience staging methods call.
type Writer interface {
	SaveEntry(ctx context.Context, e journal.DailyEntry, uid string) (app.Outcome, error)
	SaveChecklistConfig(ctx context.Context, items []journal.ChecklistItemConfig, uid string) (app.Outcome, error)
}

// EditListener is told about staged edits before they are written. A Writer
// implementing it can drop remote results that would overwrite the edit.
type EditListener interface {
	EntryEdited(date string)
	ChecklistEdited()
}

// EntryReader is the read path of ReadEntry.
type EntryReader interface {
	GetEntry(ctx context.Context, date, uid string) (journal.DailyEntry, error)
}

// ChecklistReader is the read path of ReadChecklist.
type ChecklistReader interface {
	GetChecklistConfig(ctx context.Context, uid string) []journal.ChecklistItemConfig
}

// Config tunes a Scheduler. Zero durations take the defaults.
type Config struct {
	Debounce  time.Duration
	SavedHold time.Duration
	ErrorHold time.Duration
	Clock     Clock
	Logger    *zap.SugaredLogger
}

// Transition is one save-status change.
type Transition struct {
	Key  string            `json:"key"`
	From journal.SyncState `json:"from"`
	To   journal.SyncState `json:"to"`
	At   time.Time         `json:"at"`
	Err  string            `json:"error,omitempty"`
}

// Ticket identifies one background load of an entity.
type Ticket struct {
	Key string
	seq uint64
	gen *slot
}

type slot struct {
	status  *fsm.FSM
	seq     uint64
	loadSeq uint64
	edited  bool
	pending SaveFunc
	// staged is the snapshot of the latest staged write until it finished.
	staged  interface{}
	timer   Timer
	revert  Timer
	lastErr error
}

// Scheduler debounces writes per entity key.
type Scheduler struct {
	writer Writer
	cfg    Config
	log    *zap.SugaredLogger

	ctx    context.Context
	cancel context.CancelFunc

	mu    sync.Mutex
	slots map[string]*slot
	subs  map[int]chan Transition
	subID int

	wg sync.WaitGroup
}

// New returns a Scheduler that stages through w. w may be nil when only
// Stage is used.
func New(w Writer, cfg Config) *Scheduler {
	if cfg.Debounce <= 0 {
		cfg.Debounce = DefaultDebounce
	}
	if cfg.SavedHold <= 0 {
		cfg.SavedHold = DefaultSavedHold
	}
	if cfg.ErrorHold <= 0 {
		cfg.ErrorHold = DefaultErrorHold
	}
	if cfg.Clock == nil {
		cfg.Clock = RealClock{}
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop().Sugar()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		writer: w,
		cfg:    cfg,
		log:    cfg.Logger.Named("scheduler"),
		ctx:    ctx,
		cancel: cancel,
		slots:  make(map[string]*slot),
		subs:   make(map[int]chan Transition),
	}
}

func (s *Scheduler) slotLocked(key string) *slot {
	sl, ok := s.slots[key]
	if !ok {
		sl = &slot{status: newStatus()}
		s.slots[key] = sl
	}
	return sl
}

// Stage records save as the latest write for key and restarts the key's
// inactivity window. A write staged earlier for key and not yet started is
// dropped.
func (s *Scheduler) Stage(key string, save SaveFunc) {
	s.stage(key, save, nil)
}

func (s *Scheduler) stage(key string, save SaveFunc, snapshot interface{}) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sl := s.slotLocked(key)
	sl.staged = snapshot
	sl.edited = true
	sl.seq++
	seq := sl.seq
	if sl.timer != nil && sl.timer.Stop() {
		metrics.Coalesced()
	}
	if sl.revert != nil {
		sl.revert.Stop()
		sl.revert = nil
	}
	sl.pending = save
	sl.timer = s.cfg.Clock.AfterFunc(s.cfg.Debounce, func() {
		s.start(key, sl, seq)
	})
}

// StageEntry stages a write of e for uid.
func (s *Scheduler) StageEntry(e journal.DailyEntry, uid string) {
	snapshot := e.Clone()
	if l, ok := s.writer.(EditListener); ok {
		l.EntryEdited(e.ID)
	}
	s.stage(EntryKey(e.ID), func(ctx context.Context) (app.Outcome, error) {
		return s.writer.SaveEntry(ctx, snapshot, uid)
	}, snapshot)
}

// StageChecklist stages a write of the checklist configuration for uid.
func (s *Scheduler) StageChecklist(items []journal.ChecklistItemConfig, uid string) {
	snapshot := journal.CloneChecklist(items)
	if snapshot == nil {
		snapshot = []journal.ChecklistItemConfig{}
	}
	if l, ok := s.writer.(EditListener); ok {
		l.ChecklistEdited()
	}
	s.stage(ChecklistKey, func(ctx context.Context) (app.Outcome, error) {
		return s.writer.SaveChecklistConfig(ctx, snapshot, uid)
	}, snapshot)
}

// StagedEntry returns the entry for date staged and not yet written.
func (s *Scheduler) StagedEntry(date string) (journal.DailyEntry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sl, ok := s.slots[EntryKey(date)]; ok {
		if e, ok := sl.staged.(journal.DailyEntry); ok {
			return e.Clone(), true
		}
	}
	return journal.DailyEntry{}, false
}

// StagedChecklist returns the checklist configuration staged and not yet
// written.
func (s *Scheduler) StagedChecklist() ([]journal.ChecklistItemConfig, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sl, ok := s.slots[ChecklistKey]; ok {
		if items, ok := sl.staged.([]journal.ChecklistItemConfig); ok {
			return journal.CloneChecklist(items), true
		}
	}
	return nil, false
}

// ReadEntry returns the entry for date as the user last edited it. A staged
// edit is returned as is. Once date was edited it is read from the local
// cache only, and a load overtaken by an edit returns that edit.
func (s *Scheduler) ReadEntry(ctx context.Context, r EntryReader, date, uid string) (journal.DailyEntry, error) {
	if e, ok := s.StagedEntry(date); ok {
		return e, nil
	}
	key := EntryKey(date)
	edited := s.Edited(key)
	if edited {
		uid = ""
	}
	t := s.BeginLoad(key)
	e, err := r.GetEntry(ctx, date, uid)
	if s.FinishLoad(t) || edited || err != nil {
		return e, err
	}
	if staged, ok := s.StagedEntry(date); ok {
		return staged, nil
	}
	return r.GetEntry(ctx, date, "")
}

// ReadChecklist is ReadEntry for the checklist configuration.
func (s *Scheduler) ReadChecklist(ctx context.Context, r ChecklistReader, uid string) []journal.ChecklistItemConfig {
	if items, ok := s.StagedChecklist(); ok {
		return items
	}
	edited := s.Edited(ChecklistKey)
	if edited {
		uid = ""
	}
	t := s.BeginLoad(ChecklistKey)
	items := r.GetChecklistConfig(ctx, uid)
	if s.FinishLoad(t) || edited {
		return items
	}
	if staged, ok := s.StagedChecklist(); ok {
		return staged
	}
	return r.GetChecklistConfig(ctx, "")
}

// start runs the pending write of key if seq is still the latest staging.
func (s *Scheduler) start(key string, sl *slot, seq uint64) {
	s.mu.Lock()
	if s.slots[key] != sl || sl.seq != seq || sl.pending == nil {
		s.mu.Unlock()
		return
	}
	save := sl.pending
	sl.pending = nil
	sl.timer = nil
	sl.lastErr = nil
	note := s.transitionLocked(key, sl, eventSave)
	s.wg.Add(1)
	s.mu.Unlock()
	s.notify(note)

	go func() {
		defer s.wg.Done()
		outcome, err := save(s.ctx)
		s.finish(key, sl, seq, outcome, err)
	}()
}

func (s *Scheduler) finish(key string, sl *slot, seq uint64, outcome app.Outcome, err error) {
	s.mu.Lock()
	if s.slots[key] != sl || sl.seq != seq {
		// A newer write was staged; the status follows that one.
		s.mu.Unlock()
		s.log.Debugw("ignoring superseded write result", "key", key, "error", err)
		return
	}

	sl.staged = nil
	event, hold := eventSaved, s.cfg.SavedHold
	switch {
	case err != nil:
		event, hold = eventFail, s.cfg.ErrorHold
		sl.lastErr = err
		s.log.Warnw("write failed", "key", key, "error", err)
	case outcome == app.OutcomeLocal:
		event = eventLocal
	}
	note := s.transitionLocked(key, sl, event)
	metrics.Flushed(sl.status.Current())
	sl.revert = s.cfg.Clock.AfterFunc(hold, func() {
		s.mu.Lock()
		if s.slots[key] != sl || sl.seq != seq {
			s.mu.Unlock()
			return
		}
		sl.revert = nil
		n := s.transitionLocked(key, sl, eventRevert)
		s.mu.Unlock()
		s.notify(n)
	})
	s.mu.Unlock()
	s.notify(note)
}

// transitionLocked fires event on sl and returns the resulting transition,
// or nil when the state did not change.
func (s *Scheduler) transitionLocked(key string, sl *slot, event string) *Transition {
	from := sl.status.Current()
	if !fire(context.Background(), sl.status, event) {
		return nil
	}
	t := &Transition{
		Key:  key,
		From: journal.SyncState(from),
		To:   journal.SyncState(sl.status.Current()),
		At:   s.cfg.Clock.Now(),
	}
	if sl.lastErr != nil && t.To == journal.StateError {
		t.Err = sl.lastErr.Error()
	}
	return t
}

// Status returns the save status of key.
func (s *Scheduler) Status(key string) journal.SyncState {
	s.mu.Lock()
	defer s.mu.Unlock()
	sl, ok := s.slots[key]
	if !ok {
		return journal.StateIdle
	}
	return journal.SyncState(sl.status.Current())
}

// Statuses returns the status of every tracked key.
func (s *Scheduler) Statuses() map[string]journal.SyncState {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]journal.SyncState, len(s.slots))
	for k, sl := range s.slots {
		out[k] = journal.SyncState(sl.status.Current())
	}
	return out
}

// Err returns the error of the latest finished write of key, if it failed.
func (s *Scheduler) Err(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sl, ok := s.slots[key]; ok {
		return sl.lastErr
	}
	return nil
}

// Pending reports whether key has a staged write that has not started.
func (s *Scheduler) Pending(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	sl, ok := s.slots[key]
	return ok && sl.pending != nil
}

// Edited reports whether key was staged since the last Reset.
func (s *Scheduler) Edited(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	sl, ok := s.slots[key]
	return ok && sl.edited
}

// BeginLoad marks the start of a background load of key.
func (s *Scheduler) BeginLoad(key string) Ticket {
	s.mu.Lock()
	sl := s.slotLocked(key)
	sl.loadSeq++
	t := Ticket{Key: key, seq: sl.loadSeq, gen: sl}
	note := s.transitionLocked(key, sl, eventLoad)
	s.mu.Unlock()
	s.notify(note)
	return t
}

// FinishLoad ends the load identified by t and reports whether its result
// may be applied: false once key has been edited, a newer load began, or the
// scheduler was reset.
func (s *Scheduler) FinishLoad(t Ticket) bool {
	s.mu.Lock()
	sl, ok := s.slots[t.Key]
	if !ok || sl != t.gen {
		s.mu.Unlock()
		return false
	}
	var note *Transition
	if sl.loadSeq == t.seq {
		note = s.transitionLocked(t.Key, sl, eventLoaded)
	}
	apply := sl.loadSeq == t.seq && !sl.edited
	s.mu.Unlock()
	s.notify(note)
	return apply
}

// Flush starts every pending write now and waits for all running writes.
func (s *Scheduler) Flush(ctx context.Context) error {
	type due struct {
		key string
		sl  *slot
		seq uint64
	}
	s.mu.Lock()
	var starts []due
	for key, sl := range s.slots {
		if sl.pending == nil {
			continue
		}
		if sl.timer != nil {
			sl.timer.Stop()
		}
		starts = append(starts, due{key: key, sl: sl, seq: sl.seq})
	}
	s.mu.Unlock()

	for _, d := range starts {
		s.start(d.key, d.sl, d.seq)
	}
	return s.Wait(ctx)
}

// Wait blocks until every running write has finished or ctx is done.
func (s *Scheduler) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Reset drops every pending write, status and edit latch. Results of writes
// already running are ignored.
func (s *Scheduler) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, sl := range s.slots {
		if sl.timer != nil {
			sl.timer.Stop()
		}
		if sl.revert != nil {
			sl.revert.Stop()
		}
	}
	s.slots = make(map[string]*slot)
}

// Close resets the scheduler, cancels running writes and closes every
// subscription.
func (s *Scheduler) Close() {
	s.Reset()
	s.cancel()
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, ch := range s.subs {
		close(ch)
		delete(s.subs, id)
	}
}

// Subscribe returns a channel of status transitions and a function that
// ends the subscription. Slow subscribers miss transitions.
func (s *Scheduler) Subscribe() (<-chan Transition, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subID++
	id := s.subID
	ch := make(chan Transition, 32)
	s.subs[id] = ch
	return ch, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if c, ok := s.subs[id]; ok {
			close(c)
			delete(s.subs, id)
		}
	}
}

func (s *Scheduler) notify(t *Transition) {
	if t == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, ch := range s.subs {
		select {
		case ch <- *t:
		default:
		}
	}
}
