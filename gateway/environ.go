// Package gateway drives an application through a synchronous gateway
// calling convention without a network listener. A request is described
// by an Environ, the application reports its status through a
// StartResponse callback and streams its body as a sequence of chunks.
package gateway

import (
	"bytes"
	"io"
	"iter"
	"strconv"
	"strings"
)

// Well-known environment keys.
const (
	KeyPathInfo       = "PATH_INFO"
	KeyRequestMethod  = "REQUEST_METHOD"
	KeyScriptName     = "SCRIPT_NAME"
	KeyQueryString    = "QUERY_STRING"
	KeyContentType    = "CONTENT_TYPE"
	KeyContentLength  = "CONTENT_LENGTH"
	KeyServerProtocol = "SERVER_PROTOCOL"
	KeyServerName     = "SERVER_NAME"

	KeyInput        = "gateway.input"
	KeyErrors       = "gateway.errors"
	KeyVersion      = "gateway.version"
	KeyMultithread  = "gateway.multithread"
	KeyMultiprocess = "gateway.multiprocess"
	KeyRunOnce      = "gateway.run_once"

	// HeaderPrefix is prepended to the upper-cased name of every request header.
	HeaderPrefix = "HTTP_"
)

const (
	DefaultContentType    = "text/plain; charset=utf-8"
	DefaultServerProtocol = "HTTP/1.1"
	DefaultServerName     = "localhost"
)

// Version is the calling convention version advertised in the environment.
var Version = [2]int{1, 0}

// Environ describes a single request.
type Environ map[string]any

// Pair is an ordered key/value pair used for query parameters and headers.
type Pair struct {
	Key   string
	Value string
}

// Header is a single response header.
type Header struct {
	Name  string
	Value string
}

// StartResponse receives the status line and the response headers.
type StartResponse func(status string, headers []Header)

// App is an application callable. It must call start exactly once, before
// or while the returned sequence is iterated.
type App func(env Environ, start StartResponse) iter.Seq[[]byte]

// Request holds the inputs used to build an Environ.
type Request struct {
	// Path is the request path, without query string.
	Path string

	// Method is the http method. It is upper-cased when building the environment.
	Method string

	// Body is the raw request body.
	Body []byte

	// Query is joined as key=value pairs separated by '&', in order.
	Query []Pair

	// Headers are added as HTTP_<KEY> entries.
	Headers []Pair

	// ContentType defaults to DefaultContentType.
	ContentType string
}

// NewEnviron builds the environment for req. Inputs are not validated.
func NewEnviron(req Request) Environ {
	contentType := req.ContentType
	if contentType == "" {
		contentType = DefaultContentType
	}

	body := req.Body
	if body == nil {
		body = []byte{}
	}

	env := Environ{
		KeyPathInfo:       req.Path,
		KeyRequestMethod:  strings.ToUpper(req.Method),
		KeyScriptName:     "",
		KeyQueryString:    QueryString(req.Query),
		KeyContentType:    contentType,
		KeyContentLength:  strconv.Itoa(len(body)),
		KeyServerProtocol: DefaultServerProtocol,
		KeyServerName:     DefaultServerName,
		KeyInput:          io.Reader(bytes.NewReader(body)),
		KeyErrors:         io.Writer(&bytes.Buffer{}),
		KeyVersion:        Version,
		KeyMultithread:    true,
		KeyMultiprocess:   true,
		KeyRunOnce:        false,
	}

	for _, h := range req.Headers {
		env[HeaderKey(h.Key)] = h.Value
	}

	return env
}

// QueryString joins pairs as 'k1=v1&k2=v2'. Keys and values are not escaped.
func QueryString(pairs []Pair) string {
	if len(pairs) == 0 {
		return ""
	}

	parts := make([]string, 0, len(pairs))
	for _, p := range pairs {
		parts = append(parts, p.Key+"="+p.Value)
	}

	return strings.Join(parts, "&")
}

// HeaderKey returns the environment key for the header name.
func HeaderKey(name string) string {
	return HeaderPrefix + strings.ToUpper(name)
}

// String returns the string value stored under key, or "".
func (e Environ) String(key string) string {
	if v, ok := e[key].(string); ok {
		return v
	}

	return ""
}

// Input returns the body stream, or an empty reader.
func (e Environ) Input() io.Reader {
	if r, ok := e[KeyInput].(io.Reader); ok {
		return r
	}

	return bytes.NewReader(nil)
}
