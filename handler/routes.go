package handler

import (
	"net/http"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/lambda-feedback/studyboard/config"
	"github.com/lambda-feedback/studyboard/dashboard"
	"github.com/lambda-feedback/studyboard/internal/server"
)

type RoutesParams struct {
	fx.In

	API     *dashboard.API
	Config  config.Config
	Metrics *Metrics
	Log     *zap.Logger
}

type RoutesResult struct {
	fx.Out

	Handlers []*server.HttpHandler `group:"handlers,flatten"`
}

// Routes returns the dashboard api routes, keyed by ServeMux pattern.
func Routes(params RoutesParams) []*server.HttpHandler {
	api := params.API
	log := params.Log.Named("handler")

	operations := []struct {
		pattern   string
		operation dashboard.Operation
	}{
		{"GET /api/meta", api.Meta},
		{"GET /api/studies", api.ListStudies},
		{"GET /api/studies/{$}", api.ListStudies},
		{"POST /api/studies", api.CreateStudy},
		{"GET /api/studies/{study_id}", api.GetStudy},
		{"DELETE /api/studies/{study_id}", api.DeleteStudy},
		{"PUT /api/studies/{study_id}/user-attrs", api.SetStudyUserAttrs},
		{"POST /api/trials/{trial_id}/tell", api.TellTrial},
	}

	handlers := make([]*server.HttpHandler, 0, len(operations))
	for _, op := range operations {
		endpoint := NewEndpoint(op.pattern, op.operation, params.Config.Auth, log)
		handlers = append(handlers, &server.HttpHandler{
			Name:    op.pattern,
			Handler: params.Metrics.Instrument(op.pattern, endpoint),
		})
	}

	return handlers
}

func NewRoutes(params RoutesParams) RoutesResult {
	return RoutesResult{Handlers: Routes(params)}
}

func NewHealthRoute() server.HttpHandlerResult {
	return server.AsHttpHandler("GET /health", http.HandlerFunc(HealthHandler))
}

func NewMetricsRoute(metrics *Metrics) server.HttpHandlerResult {
	return server.AsHttpHandler("GET /metrics", metrics.Handler())
}

// Module provides the metrics and the dashboard routes.
func Module() fx.Option {
	return fx.Module(
		"handler",
		fx.Provide(NewMetrics),
		fx.Provide(NewRoutes),
		fx.Provide(NewHealthRoute),
		fx.Provide(NewMetricsRoute),
	)
}
