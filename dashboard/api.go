// Package dashboard implements the dashboard API operations on top of a
// study storage.
package dashboard

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/lambda-feedback/studyboard/dashboard/schema"
	"github.com/lambda-feedback/studyboard/storage"
)

var (
	ErrInvalidBody    = errors.New("invalid request body")
	ErrInvalidStudyID = errors.New("invalid study id")
	ErrInvalidTrialID = errors.New("invalid trial id")
	ErrSchemaNotFound = schema.ErrSchemaNotFound
)

// Request represents an incoming API request.
type Request struct {
	Path   string
	Method string
	Body   []byte
	Header http.Header

	// Params holds the path parameters matched by the router.
	Params map[string]string
}

// Param returns the named path parameter.
func (r Request) Param(name string) string {
	return r.Params[name]
}

// Response represents an outgoing API response.
type Response struct {
	StatusCode int
	Body       []byte
	Header     http.Header
}

// Operation handles one API route.
type Operation func(ctx context.Context, req Request) Response

// Info describes the running application.
type Info struct {
	Version string
}

// Params defines the dependencies of the API.
type Params struct {
	fx.In

	Storage storage.Storage
	Info    Info `optional:"true"`
	Log     *zap.Logger
}

// API implements the dashboard operations.
type API struct {
	storage storage.Storage
	schema  *schema.Schema
	info    Info
	log     *zap.Logger
}

// New creates the API.
func New(params Params) (*API, error) {
	requestSchema, err := schema.NewRequestSchema()
	if err != nil {
		return nil, err
	}

	log := params.Log
	if log == nil {
		log = zap.NewNop()
	}

	return &API{
		storage: params.Storage,
		schema:  requestSchema,
		info:    params.Info,
		log:     log.Named("api"),
	}, nil
}

// Module provides the API.
func Module() fx.Option {
	return fx.Module(
		"dashboard",
		fx.Provide(New),
	)
}

func (a *API) logger(req Request) *zap.Logger {
	return a.log.With(
		zap.String("path", req.Path),
		zap.String("method", req.Method),
	)
}

func parseID(raw string, invalid error) (int, error) {
	id, err := strconv.Atoi(raw)
	if err != nil || id < 0 {
		return 0, invalid
	}
	return id, nil
}
