package storage

import (
	"context"
	"fmt"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/lambda-feedback/studyboard/util/conf"
)

// Backend selects the storage implementation.
type Backend string

const (
	BackendInMemory Backend = "inmemory"
	BackendJournal  Backend = "journal"
)

type Config struct {
	// Backend is the storage backend. Options: inmemory, journal.
	Backend Backend `conf:"backend"`

	// JournalPath is the journal file used by the journal backend.
	JournalPath string `conf:"journal_path"`
}

// DefaultConfig holds the storage defaults, keyed relative to the
// storage config section.
var DefaultConfig = conf.DefaultConfig{
	"backend":      string(BackendInMemory),
	"journal_path": "studyboard.journal",
}

// New creates the storage backend described by cfg.
func New(cfg Config, log *zap.Logger) (Storage, error) {
	switch cfg.Backend {
	case BackendInMemory, "":
		return NewInMemoryStorage(), nil
	case BackendJournal:
		return NewJournalStorage(cfg.JournalPath, log)
	default:
		return nil, fmt.Errorf("invalid storage backend: %s", cfg.Backend)
	}
}

type Params struct {
	fx.In

	Config Config
	Log    *zap.Logger
}

// NewLifecycleStorage creates the storage and closes it when the app stops.
func NewLifecycleStorage(params Params, lc fx.Lifecycle) (Storage, error) {
	s, err := New(params.Config, params.Log)
	if err != nil {
		return nil, err
	}

	params.Log.Info("using storage backend", zap.String("backend", string(params.Config.Backend)))

	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			return s.Close()
		},
	})

	return s, nil
}

// Module provides a Storage built from config.
func Module(config Config) fx.Option {
	return fx.Module(
		"storage",
		// provide storage config
		fx.Supply(config),
		// provide storage
		fx.Provide(NewLifecycleStorage),
	)
}
