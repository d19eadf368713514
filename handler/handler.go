package handler

import (
	"io"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/lambda-feedback/studyboard/config"
	"github.com/lambda-feedback/studyboard/dashboard"
)

// Endpoint serves one dashboard operation over http.
type Endpoint struct {
	pattern   string
	params    []string
	operation dashboard.Operation
	auth      config.AuthConfig
	log       *zap.Logger
}

// NewEndpoint creates an endpoint for the ServeMux pattern. Wildcards in
// the pattern are passed to the operation as request params.
func NewEndpoint(
	pattern string,
	operation dashboard.Operation,
	auth config.AuthConfig,
	log *zap.Logger,
) *Endpoint {
	return &Endpoint{
		pattern:   pattern,
		params:    patternParams(pattern),
		operation: operation,
		auth:      auth,
		log:       log,
	}
}

func (h *Endpoint) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	log := h.log.With(
		zap.String("path", r.URL.Path),
		zap.String("method", r.Method),
	)

	// Check for authorization
	if h.auth.Key != "" && r.Header.Get("api-key") != h.auth.Key {
		log.Debug("unauthorized request")
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		log.Debug("failed to read body", zap.Error(err))
		http.Error(w, "failed to read body", http.StatusBadRequest)
		return
	}

	params := make(map[string]string, len(h.params))
	for _, name := range h.params {
		params[name] = r.PathValue(name)
	}

	request := dashboard.Request{
		Path:   r.URL.Path,
		Method: strings.ToUpper(r.Method),
		Header: r.Header,
		Body:   body,
		Params: params,
	}

	// Handle the request
	response := h.operation(r.Context(), request)

	// Map response headers
	for k, v := range response.Header {
		for _, vv := range v {
			w.Header().Add(k, vv)
		}
	}

	// Write response headers and status code
	w.WriteHeader(response.StatusCode)

	if len(response.Body) == 0 {
		return
	}

	// Write response body
	if _, err := w.Write(response.Body); err != nil {
		log.Debug("failed to write response", zap.Error(err))
	}
}

// patternParams returns the wildcard names of a ServeMux pattern.
func patternParams(pattern string) []string {
	var names []string
	for _, segment := range strings.Split(pattern, "/") {
		name, ok := strings.CutPrefix(segment, "{")
		if !ok {
			continue
		}
		name = strings.TrimSuffix(strings.TrimSuffix(name, "}"), "...")
		if name != "" && name != "$" {
			names = append(names, name)
		}
	}
	return names
}

// HealthHandler reports that the server is up.
func HealthHandler(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}
