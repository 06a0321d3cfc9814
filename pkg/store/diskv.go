// Package store is the device-local durable cache: one JSON blob holding the
// whole AppData, plus a slot recording the signed-in user.
package store

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	json "github.com/goccy/go-json"
	"github.com/peterbourgon/diskv/v3"
	"go.uber.org/zap"

	"tableflip.dev/chronos/pkg/journal"
	"tableflip.dev/chronos/pkg/metrics"
)

const (
	// DataKey is the fixed key of the AppData blob.
	DataKey     = "chronos_data_v1"
	identityKey = "chronos_identity"
	tempDir     = ".tmp"
)

// Cache is the synchronous local persistence contract. Load never fails and
// Save is best-effort.
type Cache interface {
	Load() journal.AppData
	Save(data journal.AppData)
	Clear()
}

// Vault is a Cache backed by diskv.
type Vault struct {
	d        *diskv.Diskv
	basePath string
	logger   *zap.SugaredLogger
}

var _ Cache = (*Vault)(nil)

// Open creates a Vault rooted at cfg's base path.
func Open(cfg Config, logger *zap.SugaredLogger) (*Vault, error) {
	if cfg == nil {
		var err error
		cfg, err = LoadConfig()
		if err != nil {
			return nil, err
		}
	}
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	basePath := cfg.BasePath()
	if basePath == "" {
		return nil, errors.New("store: base path required")
	}
	if err := os.MkdirAll(basePath, 0o700); err != nil {
		return nil, fmt.Errorf("store: ensure base path: %w", err)
	}
	return &Vault{
		d: diskv.New(diskv.Options{
			BasePath: basePath,
			TempDir:  filepath.Join(basePath, tempDir),
			// Another process may rewrite the blob, so reads always go to disk.
			CacheSizeMax: 0,
			FilePerm:     0o600,
			PathPerm:     0o700,
		}),
		basePath: basePath,
		logger:   logger.Named("store"),
	}, nil
}

// BasePath is the directory holding the blob.
func (v *Vault) BasePath() string {
	return v.basePath
}

// Load returns the cached AppData. Missing, corrupt, or unreadable data
// yields the default AppData.
func (v *Vault) Load() journal.AppData {
	raw, err := v.d.Read(DataKey)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			v.logger.Warnw("local cache unreadable, using defaults", "error", err)
		}
		return journal.DefaultAppData()
	}
	data, err := decodeAppData(raw, v.logger)
	if err != nil {
		v.logger.Warnw("local cache corrupt, using defaults", "error", err)
		return journal.DefaultAppData()
	}
	return data
}

// Save writes data over the blob. Failures are logged and swallowed.
func (v *Vault) Save(data journal.AppData) {
	raw, err := json.Marshal(data)
	if err != nil {
		metrics.CacheWrite(false)
		v.logger.Errorw("local cache encode failed", "error", err)
		return
	}
	if err := v.d.Write(DataKey, raw); err != nil {
		metrics.CacheWrite(false)
		v.logger.Errorw("local cache write failed", "error", err)
		return
	}
	metrics.CacheWrite(true)
}

// Clear removes the blob and the identity slot.
func (v *Vault) Clear() {
	for _, key := range []string{DataKey, identityKey} {
		if err := v.d.Erase(key); err != nil && !errors.Is(err, fs.ErrNotExist) {
			v.logger.Warnw("local cache erase failed", "key", key, "error", err)
		}
	}
}

// CurrentUser returns the user recorded by the last sign-in, or "".
func (v *Vault) CurrentUser() string {
	raw, err := v.d.Read(identityKey)
	if err != nil {
		return ""
	}
	return string(raw)
}

// SetCurrentUser records uid as the signed-in user.
func (v *Vault) SetCurrentUser(uid string) error {
	if uid == "" {
		if err := v.d.Erase(identityKey); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("store: clear identity: %w", err)
		}
		return nil
	}
	if err := v.d.Write(identityKey, []byte(uid)); err != nil {
		return fmt.Errorf("store: write identity: %w", err)
	}
	return nil
}

// blob mirrors AppData with entries left raw so each one is merged over the
// default template on every load.
type blob struct {
	Entries         map[string]json.RawMessage    `json:"entries"`
	Principles      []json.RawMessage             `json:"principles"`
	Essays          []json.RawMessage             `json:"essays"`
	ChecklistConfig []journal.ChecklistItemConfig `json:"checklistConfig"`
}

func decodeAppData(raw []byte, logger *zap.SugaredLogger) (journal.AppData, error) {
	var b blob
	if err := json.Unmarshal(raw, &b); err != nil {
		return journal.AppData{}, err
	}
	data := journal.AppData{
		Entries:         make(map[string]journal.DailyEntry, len(b.Entries)),
		Principles:      b.Principles,
		Essays:          b.Essays,
		ChecklistConfig: b.ChecklistConfig,
	}
	for key, entryRaw := range b.Entries {
		e, err := journal.HydrateEntry(key, entryRaw)
		if err != nil {
			logger.Warnw("dropping unreadable cached entry", "date", key, "error", err)
			continue
		}
		data.Entries[key] = e
	}
	return journal.HydrateAppData(data), nil
}
