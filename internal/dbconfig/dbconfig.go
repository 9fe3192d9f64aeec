// Package dbconfig loads the store facade's tuning knobs from an
// optional YAML file, following the teacher repo's precedence-search
// pattern (internal/config/config.go: project-local file, then user
// config dir) but scoped to pragma tuning rather than a full
// application config schema.
package dbconfig

import (
	"context"
	"os"
	"path/filepath"

	"github.com/spf13/viper"

	"github.com/untoldecay/graphcep/internal/store"
)

// Tuning holds the store pragma knobs spec.md §4.1 exposes.
type Tuning struct {
	AutoVacuum         bool   `mapstructure:"auto_vacuum"`
	SynchronousNormal  bool   `mapstructure:"synchronous_normal"`
	WALJournal         bool   `mapstructure:"wal_journal"`
	MaxColumnsPerTable int    `mapstructure:"max_columns_per_table"`
	LogFilePath        string `mapstructure:"log_file_path"`
}

// Defaults returns the facade's out-of-the-box tuning.
func Defaults() Tuning {
	return Tuning{
		AutoVacuum:         false,
		SynchronousNormal:  true,
		WALJournal:         true,
		MaxColumnsPerTable: 2000,
	}
}

// Load searches, in order, ./graphcep.yaml (or a directory walked
// upward from cwd) and $HOME/.config/graphcep/graphcep.yaml, merging
// found values over Defaults(). A missing file at every location is not
// an error — Defaults() alone is returned.
func Load() (Tuning, error) {
	cfg := Defaults()

	v := viper.New()
	v.SetConfigName("graphcep")
	v.SetConfigType("yaml")

	if dir, err := os.Getwd(); err == nil {
		for d := dir; ; {
			v.AddConfigPath(d)
			parent := filepath.Dir(d)
			if parent == d {
				break
			}
			d = parent
		}
	}
	if home, err := os.UserHomeDir(); err == nil {
		v.AddConfigPath(filepath.Join(home, ".config", "graphcep"))
	}

	v.SetDefault("auto_vacuum", cfg.AutoVacuum)
	v.SetDefault("synchronous_normal", cfg.SynchronousNormal)
	v.SetDefault("wal_journal", cfg.WALJournal)
	v.SetDefault("max_columns_per_table", cfg.MaxColumnsPerTable)

	if err := v.ReadInConfig(); err != nil {
		if _, notFound := err.(viper.ConfigFileNotFoundError); !notFound {
			return cfg, err
		}
	}

	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Apply issues the pragma calls corresponding to t against h.
func (t Tuning) Apply(ctx context.Context, h *store.Handle) {
	h.SetAutoVacuum(ctx, t.AutoVacuum)
	h.SetSynchronousNormalOrOff(ctx, t.SynchronousNormal)
	if t.WALJournal {
		h.SetWALJournal(ctx)
	}
}
