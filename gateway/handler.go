package gateway

import (
	"bytes"
	"context"
	"fmt"
	"iter"
	"net/http"
	"net/url"
	"slices"
	"strconv"
	"strings"
)

// FromHandler adapts an http.Handler to an App. The handler runs to
// completion when the App is called; the recorded body is yielded as a
// single chunk.
func FromHandler(h http.Handler) App {
	return func(env Environ, start StartResponse) iter.Seq[[]byte] {
		req, err := NewHTTPRequest(context.Background(), env)
		if err != nil {
			start(StatusLine(http.StatusBadRequest), []Header{
				{Name: "Content-Type", Value: DefaultContentType},
			})
			return chunks([]byte(err.Error()))
		}

		rec := newResponseRecorder()
		h.ServeHTTP(rec, req)

		start(StatusLine(rec.statusCode()), rec.headerList())

		return chunks(rec.body.Bytes())
	}
}

// NewHTTPRequest converts env back into an *http.Request.
func NewHTTPRequest(ctx context.Context, env Environ) (*http.Request, error) {
	host := env.String(KeyServerName)
	if host == "" {
		host = DefaultServerName
	}

	u := &url.URL{
		Scheme:   "http",
		Host:     host,
		Path:     env.String(KeyScriptName) + env.String(KeyPathInfo),
		RawQuery: env.String(KeyQueryString),
	}

	req, err := http.NewRequestWithContext(ctx, env.String(KeyRequestMethod), u.String(), env.Input())
	if err != nil {
		return nil, fmt.Errorf("invalid request environment: %w", err)
	}

	req.RequestURI = u.RequestURI()

	if proto := env.String(KeyServerProtocol); proto != "" {
		if major, minor, ok := http.ParseHTTPVersion(proto); ok {
			req.Proto, req.ProtoMajor, req.ProtoMinor = proto, major, minor
		}
	}

	for key, value := range env {
		name, ok := strings.CutPrefix(key, HeaderPrefix)
		if !ok {
			continue
		}

		if s, ok := value.(string); ok {
			req.Header.Add(strings.ReplaceAll(name, "_", "-"), s)
		}
	}

	if contentType := env.String(KeyContentType); contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	req.ContentLength = -1
	if cl := env.String(KeyContentLength); cl != "" {
		n, err := strconv.ParseInt(cl, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid content length %q: %w", cl, err)
		}
		req.ContentLength = n
	}

	return req, nil
}

// StatusLine formats code as "<code> <reason>", e.g. "404 Not Found".
func StatusLine(code int) string {
	return fmt.Sprintf("%d %s", code, http.StatusText(code))
}

func chunks(body []byte) iter.Seq[[]byte] {
	return func(yield func([]byte) bool) {
		if len(body) == 0 {
			return
		}
		yield(body)
	}
}

// responseRecorder is the http.ResponseWriter handed to adapted handlers.
type responseRecorder struct {
	header      http.Header
	status      int
	wroteHeader bool
	body        bytes.Buffer
}

func newResponseRecorder() *responseRecorder {
	return &responseRecorder{header: make(http.Header)}
}

func (r *responseRecorder) Header() http.Header {
	return r.header
}

func (r *responseRecorder) WriteHeader(code int) {
	if r.wroteHeader {
		return
	}
	r.status = code
	r.wroteHeader = true
}

func (r *responseRecorder) Write(b []byte) (int, error) {
	if !r.wroteHeader {
		r.WriteHeader(http.StatusOK)
	}
	return r.body.Write(b)
}

func (r *responseRecorder) statusCode() int {
	if !r.wroteHeader {
		return http.StatusOK
	}
	return r.status
}

// headerList flattens the header map, sorted by name, one pair per value.
func (r *responseRecorder) headerList() []Header {
	names := make([]string, 0, len(r.header))
	for name := range r.header {
		names = append(names, name)
	}
	slices.Sort(names)

	headers := make([]Header, 0, len(names))
	for _, name := range names {
		for _, value := range r.header[name] {
			headers = append(headers, Header{Name: name, Value: value})
		}
	}

	return headers
}
