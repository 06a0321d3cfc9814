package app

import (
	"context"
	"fmt"

	"tableflip.dev/chronos/pkg/journal"
	"tableflip.dev/chronos/pkg/metrics"
	"tableflip.dev/chronos/pkg/remote"
)

// HydrationReport summarizes one SyncAllFromCloud pass.
type HydrationReport struct {
	// Skipped is set when no remote call was attempted.
	Skipped   bool `json:"skipped"`
	// Aborted is set when a remote failure stopped a sign-in hydration. The
	// cache is left as it was.
	Aborted   bool `json:"aborted,omitempty"`
	Entries   int  `json:"entries"`
	Checklist bool `json:"checklist"`
	// Superseded counts documents ignored because the entity was edited this
	// session or reloaded while hydration ran.
	Superseded int `json:"superseded"`
	Invalid    int `json:"invalid"`
}

// SyncAllFromCloud pulls the checklist singleton and every entry document of
// uid into the local cache, writing the cache once at the end. Any remote
// failure aborts the pass and leaves the cache untouched.
func (s *Service) SyncAllFromCloud(ctx context.Context, uid string) (HydrationReport, error) {
	if uid == "" || !s.IsCloudAvailable() {
		return HydrationReport{Skipped: true}, nil
	}

	start := s.tokens.mark()

	cfg, cfgFound, err := s.Remote.GetDocument(ctx, remote.UserDocument(uid, configCollection, checklistDocument))
	if err != nil {
		s.classify("get", err)
		return HydrationReport{}, fmt.Errorf("app: hydrate checklist: %w", err)
	}
	if cfgFound {
		metrics.RemoteCall("get", metrics.ResultOK)
	} else {
		metrics.RemoteCall("get", metrics.ResultAbsent)
	}

	docs, err := s.Remote.ListCollection(ctx, remote.UserCollection(uid, entriesCollection), remote.ByUpdatedDesc)
	if err != nil {
		s.classify("list", err)
		return HydrationReport{}, fmt.Errorf("app: hydrate entries: %w", err)
	}
	metrics.RemoteCall("list", metrics.ResultOK)

	var report HydrationReport
	s.update(func(d *journal.AppData) {
		if cfgFound {
			if items, ok := decodeChecklist(cfg); !ok {
				s.log().Warnw("remote checklist unreadable, keeping local", "path", cfg.Path)
			} else if s.tokens.touchedSince(checklistKey, start) {
				report.Superseded++
			} else {
				d.ChecklistConfig = items
				report.Checklist = true
			}
		}

		seen := make(map[string]bool, len(docs))
		for _, doc := range docs {
			if !journal.ValidDateKey(doc.ID) {
				s.log().Warnw("skipping remote entry with invalid id", "id", doc.ID)
				report.Invalid++
				continue
			}
			// Newest first, so a repeated id keeps the first one applied.
			if seen[doc.ID] {
				continue
			}
			seen[doc.ID] = true
			if s.tokens.touchedSince(doc.ID, start) {
				report.Superseded++
				continue
			}
			raw, err := doc.Raw()
			if err != nil {
				report.Invalid++
				continue
			}
			e, err := journal.HydrateEntry(doc.ID, raw)
			if err != nil {
				s.log().Warnw("skipping unreadable remote entry", "id", doc.ID, "error", err)
				report.Invalid++
				continue
			}
			d.Entries[doc.ID] = e
			report.Entries++
		}
	})

	metrics.Hydrated(report.Entries)
	s.log().Infow("hydrated from remote", "user", uid, "entries", report.Entries, "checklist", report.Checklist,
		"superseded", report.Superseded, "invalid", report.Invalid)
	return report, nil
}
