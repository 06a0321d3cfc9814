package store

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"
)

// Config locates the on-device cache.
type Config interface {
	BasePath() string
}

// Settings is the resolved configuration of a chronos process.
type Settings struct {
	Path      string         `json:"path"`
	Remote    RemoteSettings `json:"remote"`
	Debounce  time.Duration  `json:"debounce"`
	SavedHold time.Duration  `json:"savedHold"`
	ErrorHold time.Duration  `json:"errorHold"`
	Log       LogSettings    `json:"log"`
	Listen    string         `json:"listen"`
}

// RemoteSettings selects and addresses the remote document store.
type RemoteSettings struct {
	Kind    string `json:"kind"`
	DSN     string `json:"dsn,omitempty"`
	URL     string `json:"url,omitempty"`
	Token   string `json:"-"`
	CharmDB string `json:"charmDB,omitempty"`
}

// LogSettings controls the process logger.
type LogSettings struct {
	Level      string `json:"level"`
	File       string `json:"file,omitempty"`
	MaxSizeMB  int    `json:"maxSizeMB"`
	MaxBackups int    `json:"maxBackups"`
	MaxAgeDays int    `json:"maxAgeDays"`
}

// Remote kinds.
const (
	RemoteNone   = "none"
	RemoteMemory = "memory"
	RemoteCharm  = "charm"
	RemoteSQLite = "sqlite"
	RemoteHTTP   = "http"
)

// BasePath implements Config.
func (s *Settings) BasePath() string {
	return s.Path
}

// SetDefaults registers the default value of every setting.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("path", "~/.chronos")
	v.SetDefault("remote.kind", RemoteNone)
	v.SetDefault("remote.charm_db", "chronos")
	v.SetDefault("debounce", "1100ms")
	v.SetDefault("saved_hold", "2s")
	v.SetDefault("error_hold", "3500ms")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.max_size_mb", 10)
	v.SetDefault("log.max_backups", 3)
	v.SetDefault("log.max_age_days", 28)
	v.SetDefault("listen", "127.0.0.1:7878")
}

// LoadConfig reads .chronos.yaml (if any) and CHRONOS_* environment
// variables into Settings using the global viper instance.
func LoadConfig() (*Settings, error) {
	return LoadConfigFrom(viper.GetViper())
}

// LoadConfigFrom resolves Settings from v.
func LoadConfigFrom(v *viper.Viper) (*Settings, error) {
	SetDefaults(v)
	v.SetConfigName(".chronos") // .yaml is implicit
	v.SetEnvPrefix("CHRONOS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if override := os.Getenv("CHRONOS_CONFIG_PATH"); override != "" {
		v.AddConfigPath(override)
	}
	v.AddConfigPath("./")
	if home, err := homedir.Dir(); err == nil {
		v.AddConfigPath(home)
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("store: read config: %w", err)
		}
	}

	path, err := homedir.Expand(v.GetString("path"))
	if err != nil {
		return nil, fmt.Errorf("store: expand path: %w", err)
	}

	return &Settings{
		Path: path,
		Remote: RemoteSettings{
			Kind:    v.GetString("remote.kind"),
			DSN:     v.GetString("remote.dsn"),
			URL:     v.GetString("remote.url"),
			Token:   v.GetString("remote.token"),
			CharmDB: v.GetString("remote.charm_db"),
		},
		Debounce:  v.GetDuration("debounce"),
		SavedHold: v.GetDuration("saved_hold"),
		ErrorHold: v.GetDuration("error_hold"),
		Log: LogSettings{
			Level:      v.GetString("log.level"),
			File:       v.GetString("log.file"),
			MaxSizeMB:  v.GetInt("log.max_size_mb"),
			MaxBackups: v.GetInt("log.max_backups"),
			MaxAgeDays: v.GetInt("log.max_age_days"),
		},
		Listen: v.GetString("listen"),
	}, nil
}
