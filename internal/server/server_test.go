package server_test

import (
	"context"
	"io"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/lambda-feedback/studyboard/internal/server"
)

func TestNewMux(t *testing.T) {
	mux := server.NewMux([]*server.HttpHandler{
		{Name: "GET /ping", Handler: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte("pong"))
		})},
	})

	req, err := http.NewRequest(http.MethodGet, "/ping", nil)
	require.NoError(t, err)

	h, pattern := mux.Handler(req)
	assert.NotNil(t, h)
	assert.Equal(t, "GET /ping", pattern)
}

func TestHttpServer_ListenServeShutdown(t *testing.T) {
	tests := []struct {
		name string
		h2c  bool
	}{
		{name: "http1"},
		{name: "h2c", h2c: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := server.NewHttpServer(server.HttpServerParams{
				Context: context.Background(),
				Config:  server.HttpConfig{Host: "127.0.0.1", Port: 0, H2c: tt.h2c},
				Handlers: []*server.HttpHandler{
					{Name: "GET /ping", Handler: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
						w.Write([]byte("pong"))
					})},
				},
				Logger: zaptest.NewLogger(t),
			})

			require.NoError(t, srv.Listen(context.Background()))

			done := make(chan error, 1)
			go func() { done <- srv.Serve() }()

			res, err := http.Get("http://" + srv.Addr().String() + "/ping")
			require.NoError(t, err)
			body, err := io.ReadAll(res.Body)
			res.Body.Close()
			require.NoError(t, err)

			assert.Equal(t, http.StatusOK, res.StatusCode)
			assert.Equal(t, "pong", string(body))

			require.NoError(t, srv.Shutdown(context.Background()))
			assert.NoError(t, <-done)
		})
	}
}

func TestHttpServer_ServeWithoutListen(t *testing.T) {
	srv := server.NewHttpServer(server.HttpServerParams{
		Context: context.Background(),
		Config:  server.HttpConfig{Host: "127.0.0.1"},
		Logger:  zaptest.NewLogger(t),
	})

	assert.Nil(t, srv.Addr())
	assert.Error(t, srv.Serve())
}

func TestAsHttpHandler(t *testing.T) {
	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})

	result := server.AsHttpHandler("GET /health", h)

	require.NotNil(t, result.Handler)
	assert.Equal(t, "GET /health", result.Handler.Name)
	assert.NotNil(t, result.Handler.Handler)
}
