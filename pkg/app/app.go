package app

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"tableflip.dev/chronos/pkg/breaker"
	"tableflip.dev/chronos/pkg/journal"
	"tableflip.dev/chronos/pkg/metrics"
	"tableflip.dev/chronos/pkg/remote"
	"tableflip.dev/chronos/pkg/store"
)

var (
	// ErrNoRemote is returned by operations that need a remote store when
	// none is configured or the breaker has disabled it.
	ErrNoRemote = errors.New("app: no remote store available")

	// ErrInvalidDate rejects entry ids that are not YYYY-MM-DD.
	ErrInvalidDate = errors.New("app: invalid date key")
)

const (
	entriesCollection = "entries"
	configCollection  = "config"
	checklistDocument = "checklist"
	checklistKey      = configCollection + "/" + checklistDocument
)

// Outcome reports how far a write got.
type Outcome int

const (
	// OutcomeLocal means the write is durable on this device only.
	OutcomeLocal Outcome = iota
	// OutcomeSynced means the remote store accepted the write too.
	OutcomeSynced
)

func (o Outcome) String() string {
	if o == OutcomeSynced {
		return "synced"
	}
	return "local"
}

// Service reads and writes journal data local-first. The local cache is
// always written before the remote store is tried, and remote failures other
// than authorization are returned to the caller without undoing the local
// write.
type Service struct {
	Cache   store.Cache
	Remote  remote.Store
	Breaker *breaker.Breaker
	Logger  *zap.SugaredLogger
	// Now stamps remote writes and export names; nil uses time.Now.
	Now func() time.Time

	// mu serializes read-modify-write cycles on the cache blob.
	mu     sync.Mutex
	tokens tokens
}

// New returns a Service. rem may be nil for a local-only setup.
func New(cache store.Cache, rem remote.Store, br *breaker.Breaker, logger *zap.SugaredLogger) *Service {
	if br == nil {
		br = breaker.New()
	}
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Service{
		Cache:   cache,
		Remote:  rem,
		Breaker: br,
		Logger:  logger.Named("sync"),
	}
}

func (s *Service) log() *zap.SugaredLogger {
	if s.Logger == nil {
		return zap.NewNop().Sugar()
	}
	return s.Logger
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// IsCloudAvailable reports whether remote calls will be attempted.
func (s *Service) IsCloudAvailable() bool {
	return s.Remote != nil && !s.Breaker.Tripped()
}

func (s *Service) remoteFor(uid string) bool {
	return uid != "" && s.IsCloudAvailable()
}

// LoadLocal returns the cached AppData. It never fails.
func (s *Service) LoadLocal() journal.AppData {
	if s.Cache == nil {
		return journal.DefaultAppData()
	}
	return s.Cache.Load()
}

// update runs fn over the cached AppData and writes the result back.
func (s *Service) update(fn func(*journal.AppData)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data := s.LoadLocal()
	fn(&data)
	if s.Cache != nil {
		s.Cache.Save(data)
	}
}

// classify records a remote failure. Authorization failures trip the breaker
// and report true.
func (s *Service) classify(op string, err error) bool {
	if remote.IsPermissionDenied(err) {
		metrics.RemoteCall(op, metrics.ResultDenied)
		if s.Breaker != nil && s.Breaker.Trip(err) {
			s.log().Warnw("remote refused access, continuing local-only", "op", op, "error", err)
		}
		return true
	}
	metrics.RemoteCall(op, metrics.ResultError)
	return false
}

// GetEntry returns the entry for date. The local copy is returned unless the
// remote store has a document for it, in which case that document merged
// over the default template wins and is cached.
func (s *Service) GetEntry(ctx context.Context, date, uid string) (journal.DailyEntry, error) {
	if !journal.ValidDateKey(date) {
		return journal.DailyEntry{}, fmt.Errorf("%w: %q", ErrInvalidDate, date)
	}
	cached := s.cachedEntry(date)
	if !s.remoteFor(uid) {
		return cached, nil
	}

	tok := s.tokens.issue(date)
	doc, found, err := s.Remote.GetDocument(ctx, remote.UserDocument(uid, entriesCollection, date))
	switch {
	case err != nil:
		if !s.classify("get", err) {
			s.log().Debugw("remote read failed, serving cache", "date", date, "error", err)
		}
		return cached, nil
	case !found:
		metrics.RemoteCall("get", metrics.ResultAbsent)
		return cached, nil
	}
	metrics.RemoteCall("get", metrics.ResultOK)

	raw, err := doc.Raw()
	if err != nil {
		s.log().Warnw("remote entry unreadable", "date", date, "error", err)
		return cached, nil
	}
	merged, err := journal.HydrateEntry(date, raw)
	if err != nil {
		s.log().Warnw("remote entry unreadable", "date", date, "error", err)
		return cached, nil
	}

	applied := false
	s.update(func(d *journal.AppData) {
		if !s.tokens.latest(date, tok) {
			// Edited, saved or reloaded meanwhile.
			merged = s.entryIn(*d, date)
			return
		}
		d.Entries[date] = merged
		applied = true
	})
	if !applied {
		s.log().Debugw("discarded superseded remote entry", "date", date)
	}
	return merged.Clone(), nil
}

func (s *Service) cachedEntry(date string) journal.DailyEntry {
	return s.entryIn(s.LoadLocal(), date)
}

func (s *Service) entryIn(d journal.AppData, date string) journal.DailyEntry {
	if e, ok := d.Entries[date]; ok {
		return e.Clone()
	}
	return journal.EmptyEntry(date)
}

// SaveEntry writes e to the local cache and then, when a user and a usable
// remote are present, merges it into the remote document. An authorization
// failure trips the breaker and still counts as a local success; any other
// remote failure is returned with OutcomeLocal.
func (s *Service) SaveEntry(ctx context.Context, e journal.DailyEntry, uid string) (Outcome, error) {
	if !journal.ValidDateKey(e.ID) {
		return OutcomeLocal, fmt.Errorf("%w: %q", ErrInvalidDate, e.ID)
	}
	e = journal.Complete(e.ID, e.Clone())

	s.update(func(d *journal.AppData) {
		s.tokens.issue(e.ID)
		d.Entries[e.ID] = e
	})

	if !s.remoteFor(uid) {
		return OutcomeLocal, nil
	}

	payload, err := remote.Fields(e)
	if err != nil {
		return OutcomeLocal, fmt.Errorf("app: encode entry %s: %w", e.ID, err)
	}
	payload["userId"] = uid
	payload["updatedAt"] = s.stamp()

	if err := s.Remote.SetDocument(ctx, remote.UserDocument(uid, entriesCollection, e.ID), payload); err != nil {
		if s.classify("set", err) {
			return OutcomeLocal, nil
		}
		return OutcomeLocal, fmt.Errorf("app: save entry %s: %w", e.ID, err)
	}
	metrics.RemoteCall("set", metrics.ResultOK)
	return OutcomeSynced, nil
}

// GetChecklistConfig returns the checklist configuration, preferring the
// remote singleton when it exists.
func (s *Service) GetChecklistConfig(ctx context.Context, uid string) []journal.ChecklistItemConfig {
	cached := journal.CloneChecklist(s.LoadLocal().ChecklistConfig)
	if !s.remoteFor(uid) {
		return cached
	}

	tok := s.tokens.issue(checklistKey)
	doc, found, err := s.Remote.GetDocument(ctx, remote.UserDocument(uid, configCollection, checklistDocument))
	switch {
	case err != nil:
		if !s.classify("get", err) {
			s.log().Debugw("remote checklist read failed, serving cache", "error", err)
		}
		return cached
	case !found:
		metrics.RemoteCall("get", metrics.ResultAbsent)
		return cached
	}
	metrics.RemoteCall("get", metrics.ResultOK)

	items, ok := decodeChecklist(doc)
	if !ok {
		s.log().Warnw("remote checklist unreadable, serving cache", "path", doc.Path)
		return cached
	}

	s.update(func(d *journal.AppData) {
		if !s.tokens.latest(checklistKey, tok) {
			items = d.ChecklistConfig
			return
		}
		d.ChecklistConfig = items
	})
	return journal.CloneChecklist(items)
}

// SaveChecklistConfig replaces the checklist configuration, local-first.
// Failures are handled as in SaveEntry.
func (s *Service) SaveChecklistConfig(ctx context.Context, items []journal.ChecklistItemConfig, uid string) (Outcome, error) {
	items = journal.CloneChecklist(items)
	if items == nil {
		items = []journal.ChecklistItemConfig{}
	}
	s.update(func(d *journal.AppData) {
		s.tokens.issue(checklistKey)
		d.ChecklistConfig = items
	})

	if !s.remoteFor(uid) {
		return OutcomeLocal, nil
	}

	payload := map[string]any{
		"items":     items,
		"userId":    uid,
		"updatedAt": s.stamp(),
	}
	if err := s.Remote.SetDocument(ctx, remote.UserDocument(uid, configCollection, checklistDocument), payload); err != nil {
		if s.classify("set", err) {
			return OutcomeLocal, nil
		}
		return OutcomeLocal, fmt.Errorf("app: save checklist: %w", err)
	}
	metrics.RemoteCall("set", metrics.ResultOK)
	return OutcomeSynced, nil
}

// EntryEdited records that the user edited the entry for date. Until sign-out
// remote reads and hydration, including those already running, no longer
// write that entry into the cache.
func (s *Service) EntryEdited(date string) {
	s.tokens.edit(date)
}

// ChecklistEdited is EntryEdited for the checklist configuration.
func (s *Service) ChecklistEdited() {
	s.tokens.edit(checklistKey)
}

func (s *Service) stamp() string {
	return s.now().UTC().Format(time.RFC3339Nano)
}

type checklistDoc struct {
	Items []journal.ChecklistItemConfig `json:"items"`
}

// decodeChecklist extracts the items of a checklist singleton. A document
// without an items field is treated as unreadable.
func decodeChecklist(doc remote.Document) ([]journal.ChecklistItemConfig, bool) {
	if _, ok := doc.Data["items"]; !ok {
		return nil, false
	}
	var cd checklistDoc
	if err := doc.Decode(&cd); err != nil {
		return nil, false
	}
	if cd.Items == nil {
		cd.Items = []journal.ChecklistItemConfig{}
	}
	return cd.Items, true
}
