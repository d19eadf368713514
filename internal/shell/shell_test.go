package shell_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/fx"
	"go.uber.org/zap/zaptest"

	"github.com/lambda-feedback/studyboard/internal/shell"
)

type lifecycleMark struct {
	started bool
	stopped bool
}

// shutdownOnStart requests shutdown with code as soon as the app started.
func shutdownOnStart(p *lifecycleMark, code int) fx.Option {
	return fx.Invoke(func(lc fx.Lifecycle, sd fx.Shutdowner) {
		lc.Append(fx.Hook{
			OnStart: func(context.Context) error {
				p.started = true
				return sd.Shutdown(fx.ExitCode(code))
			},
			OnStop: func(context.Context) error {
				p.stopped = true
				return nil
			},
		})
	})
}

func TestShell_Run(t *testing.T) {
	p := &lifecycleMark{}

	err := shell.New(zaptest.NewLogger(t)).Run(context.Background(), shutdownOnStart(p, 0))

	assert.NoError(t, err)
	assert.True(t, p.started)
	assert.True(t, p.stopped)
}

func TestShell_RunExitCode(t *testing.T) {
	p := &lifecycleMark{}

	err := shell.New(zaptest.NewLogger(t)).Run(context.Background(), shutdownOnStart(p, 3))

	var exitErr *shell.ExitError
	if assert.ErrorAs(t, err, &exitErr) {
		assert.Equal(t, 3, exitErr.ExitCode)
	}
	assert.True(t, p.stopped)
}

func TestShell_RunStartError(t *testing.T) {
	s := shell.New(zaptest.NewLogger(t), fx.Invoke(func(lc fx.Lifecycle) {
		lc.Append(fx.Hook{
			OnStart: func(context.Context) error {
				return errors.New("bind failed")
			},
		})
	}))

	err := s.Run(context.Background())

	assert.True(t, shell.IsExitError(err))
}

func TestShell_RunMissingDependency(t *testing.T) {
	s := shell.New(zaptest.NewLogger(t), fx.Invoke(func(*lifecycleMark) {}))

	err := s.Run(context.Background())

	assert.True(t, shell.IsExitError(err))
}

func TestShell_ProvidesContextAndLogger(t *testing.T) {
	ctx := context.WithValue(context.Background(), lifecycleMark{}, "value")

	var got context.Context
	err := shell.New(zaptest.NewLogger(t)).Run(ctx,
		fx.Invoke(func(c context.Context) { got = c }),
		shutdownOnStart(&lifecycleMark{}, 0),
	)

	assert.NoError(t, err)
	if assert.NotNil(t, got) {
		assert.Equal(t, "value", got.Value(lifecycleMark{}))
	}
}
