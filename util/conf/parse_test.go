package conf_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap/zaptest"

	"github.com/lambda-feedback/studyboard/util/conf"
)

type storageConfig struct {
	Backend     string `conf:"backend"`
	JournalPath string `conf:"journal_path"`
}

type testConfig struct {
	LogLevel string        `conf:"log_level"`
	Storage  storageConfig `conf:"storage"`
}

func writeFile(t *testing.T, name, content string) string {
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestParse_Defaults(t *testing.T) {
	cfg, err := conf.Parse[testConfig](conf.ParseOptions{
		Defaults: conf.DefaultConfig{
			"log_level":       "info",
			"storage.backend": "inmemory",
		},
		EnvPrefix: "CONFTEST_DEFAULTS_",
		Log:       zaptest.NewLogger(t),
	})
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "inmemory", cfg.Storage.Backend)
}

func TestParse_Env(t *testing.T) {
	t.Setenv("CONFTEST_ENV_LOG_LEVEL", "debug")
	t.Setenv("CONFTEST_ENV_STORAGE__BACKEND", "journal")

	cfg, err := conf.Parse[testConfig](conf.ParseOptions{
		Defaults:  conf.DefaultConfig{"log_level": "info"},
		EnvPrefix: "CONFTEST_ENV_",
	})
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "journal", cfg.Storage.Backend)
}

func TestParse_Files(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
	}{
		{
			name:    "json",
			file:    "config.json",
			content: `{"log_level": "warn", "storage": {"backend": "journal", "journal_path": "/tmp/j"}}`,
		},
		{
			name:    "yaml",
			file:    "config.yaml",
			content: "log_level: warn\nstorage:\n  backend: journal\n  journal_path: /tmp/j\n",
		},
		{
			name:    "dotenv",
			file:    "config.env",
			content: "LOG_LEVEL=warn\nSTORAGE__BACKEND=journal\nSTORAGE__JOURNAL_PATH=/tmp/j\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := conf.Parse[testConfig](conf.ParseOptions{
				FileName:  writeFile(t, tt.file, tt.content),
				EnvPrefix: "CONFTEST_FILES_",
				Log:       zaptest.NewLogger(t),
			})
			require.NoError(t, err)

			assert.Equal(t, "warn", cfg.LogLevel)
			assert.Equal(t, "journal", cfg.Storage.Backend)
			assert.Equal(t, "/tmp/j", cfg.Storage.JournalPath)
		})
	}
}

func TestParse_UnsupportedFile(t *testing.T) {
	_, err := conf.Parse[testConfig](conf.ParseOptions{
		FileName: writeFile(t, "config.toml", "log_level = 'warn'"),
	})
	assert.Error(t, err)
}

func TestParse_CliFlags(t *testing.T) {
	var cfg testConfig

	app := &cli.App{
		Name: "conftest",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "log-level"},
			&cli.StringFlag{Name: "storage-backend"},
			&cli.StringFlag{Name: "storage-journal-path", Value: "unused"},
		},
		Action: func(ctx *cli.Context) error {
			var err error
			cfg, err = conf.Parse[testConfig](conf.ParseOptions{
				Cli: ctx,
				CliMap: map[string]string{
					"storage-backend":      "storage.backend",
					"storage-journal-path": "storage.journal_path",
				},
				Defaults: conf.DefaultConfig{
					"log_level":            "info",
					"storage.journal_path": "default.journal",
				},
				EnvPrefix: "CONFTEST_CLI_",
			})
			return err
		},
	}

	err := app.RunContext(context.Background(), []string{"conftest", "--log-level", "error", "--storage-backend", "journal"})
	require.NoError(t, err)

	assert.Equal(t, "error", cfg.LogLevel)
	assert.Equal(t, "journal", cfg.Storage.Backend)
	// unset flags do not override lower-priority sources
	assert.Equal(t, "default.journal", cfg.Storage.JournalPath)
}

func TestMergeDefaults(t *testing.T) {
	merged := conf.MergeDefaults("",
		conf.DefaultConfig{"a": 1, "b": 2},
		conf.MergeDefaults("ns", conf.DefaultConfig{"c": 3}),
		conf.DefaultConfig{"b": 4},
	)

	assert.Equal(t, conf.DefaultConfig{"a": 1, "b": 4, "ns.c": 3}, merged)
}

func TestConfigContext(t *testing.T) {
	_, err := conf.GetConfigFromContext[testConfig](context.Background())
	assert.Error(t, err)

	ctx := conf.ContextWithConfig(context.Background(), testConfig{LogLevel: "debug"})

	cfg, err := conf.GetConfigFromContext[testConfig](ctx)
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.LogLevel)

	_, err = conf.GetConfigFromContext[storageConfig](ctx)
	assert.Error(t, err)
}
