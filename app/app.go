package app

import (
	"github.com/urfave/cli/v2"
	"go.uber.org/fx"

	"github.com/lambda-feedback/studyboard/config"
	"github.com/lambda-feedback/studyboard/dashboard"
	"github.com/lambda-feedback/studyboard/internal/shell"
	"github.com/lambda-feedback/studyboard/storage"
	"github.com/lambda-feedback/studyboard/util/conf"
	"github.com/lambda-feedback/studyboard/util/logging"
)

func New(ctx *cli.Context) (*shell.Shell, error) {
	log, err := logging.LoggerFromContext(ctx.Context)
	if err != nil {
		return nil, err
	}

	config, err := conf.GetConfigFromContext[config.Config](ctx.Context)
	if err != nil {
		return nil, err
	}

	return shell.New(log, Module(config, ctx.App.Version)), nil
}

// Module provides the storage and dashboard API shared by all
// transports.
func Module(config config.Config, version string) fx.Option {
	return fx.Module(
		"shared",
		// provide global config
		fx.Supply(config),
		// provide application info
		fx.Supply(dashboard.Info{Version: version}),
		// provide storage
		storage.Module(config.Storage),
		// provide dashboard api
		dashboard.Module(),
	)
}
