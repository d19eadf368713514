package gateway_test

import (
	"io"
	"iter"
	"net/http"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lambda-feedback/studyboard/gateway"
)

func staticApp(status string, headers []gateway.Header, body ...[]byte) gateway.App {
	return func(env gateway.Environ, start gateway.StartResponse) iter.Seq[[]byte] {
		start(status, headers)
		return slices.Values(body)
	}
}

func TestSend_SingleChunk(t *testing.T) {
	app := staticApp("200 OK", []gateway.Header{}, []byte("hi"))

	status, headers, body := gateway.Send(app, gateway.Request{Path: "/", Method: "GET"})

	assert.Equal(t, "200 OK", status)
	assert.Empty(t, headers)
	assert.Equal(t, []byte("hi"), body)
}

func TestSend_ConcatenatesChunks(t *testing.T) {
	app := staticApp("200 OK", nil, []byte("a"), []byte("b"), []byte("c"))

	_, _, body := gateway.Send(app, gateway.Request{Path: "/", Method: "GET"})

	assert.Equal(t, []byte("abc"), body)
}

func TestSend_StartDuringIteration(t *testing.T) {
	app := func(env gateway.Environ, start gateway.StartResponse) iter.Seq[[]byte] {
		return func(yield func([]byte) bool) {
			start("201 Created", []gateway.Header{{Name: "Location", Value: "/api/studies/0"}})
			yield([]byte("created"))
		}
	}

	status, headers, body := gateway.Send(app, gateway.Request{Path: "/", Method: "POST"})

	assert.Equal(t, "201 Created", status)
	assert.Equal(t, []gateway.Header{{Name: "Location", Value: "/api/studies/0"}}, headers)
	assert.Equal(t, []byte("created"), body)
}

func TestSend_NoStartResponse(t *testing.T) {
	app := func(env gateway.Environ, start gateway.StartResponse) iter.Seq[[]byte] {
		return slices.Values([][]byte{[]byte("orphan")})
	}

	status, headers, body := gateway.Send(app, gateway.Request{Path: "/", Method: "GET"})

	assert.Equal(t, "", status)
	assert.Nil(t, headers)
	assert.Equal(t, []byte("orphan"), body)
}

func TestSend_NilSequence(t *testing.T) {
	app := func(env gateway.Environ, start gateway.StartResponse) iter.Seq[[]byte] {
		start("204 No Content", nil)
		return nil
	}

	status, _, body := gateway.Send(app, gateway.Request{Path: "/", Method: "DELETE"})

	assert.Equal(t, "204 No Content", status)
	assert.Empty(t, body)
}

func TestSend_PassesEnviron(t *testing.T) {
	var got gateway.Environ

	app := func(env gateway.Environ, start gateway.StartResponse) iter.Seq[[]byte] {
		got = env
		start("200 OK", nil)
		body, _ := io.ReadAll(env.Input())
		return slices.Values([][]byte{body})
	}

	_, _, body := gateway.Send(app, gateway.Request{
		Path:    "/echo",
		Method:  "put",
		Body:    []byte("payload"),
		Headers: []gateway.Pair{{Key: "api-key", Value: "secret"}},
	})

	require.NotNil(t, got)
	assert.Equal(t, "PUT", got[gateway.KeyRequestMethod])
	assert.Equal(t, "secret", got["HTTP_API-KEY"])
	assert.Equal(t, []byte("payload"), body)
}

func TestFromHandler(t *testing.T) {
	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/studies", r.URL.Path)
		assert.Equal(t, "a=1&b=2", r.URL.RawQuery)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Equal(t, "secret", r.Header.Get("Api-Key"))
		assert.Equal(t, int64(7), r.ContentLength)
		assert.Equal(t, "localhost", r.Host)

		body, err := io.ReadAll(r.Body)
		assert.NoError(t, err)
		assert.Equal(t, `{"a":1}`, string(body))

		w.Header().Set("Content-Type", "application/json")
		w.Header().Add("X-Multi", "one")
		w.Header().Add("X-Multi", "two")
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"ok":true}`))
	})

	status, headers, body := gateway.Send(gateway.FromHandler(h), gateway.Request{
		Path:        "/api/studies",
		Method:      "post",
		Body:        []byte(`{"a":1}`),
		Query:       []gateway.Pair{{Key: "a", Value: "1"}, {Key: "b", Value: "2"}},
		Headers:     []gateway.Pair{{Key: "api-key", Value: "secret"}},
		ContentType: "application/json",
	})

	assert.Equal(t, "201 Created", status)
	assert.Equal(t, []gateway.Header{
		{Name: "Content-Type", Value: "application/json"},
		{Name: "X-Multi", Value: "one"},
		{Name: "X-Multi", Value: "two"},
	}, headers)
	assert.Equal(t, `{"ok":true}`, string(body))
}

func TestFromHandler_ImplicitStatus(t *testing.T) {
	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})

	status, _, body := gateway.Send(gateway.FromHandler(h), gateway.Request{Path: "/health", Method: "GET"})

	assert.Equal(t, "200 OK", status)
	assert.Equal(t, "ok", string(body))
}

func TestFromHandler_NoContent(t *testing.T) {
	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
		w.WriteHeader(http.StatusInternalServerError)
	})

	status, headers, body := gateway.Send(gateway.FromHandler(h), gateway.Request{Path: "/", Method: "DELETE"})

	assert.Equal(t, "204 No Content", status)
	assert.Empty(t, headers)
	assert.Empty(t, body)
}

func TestFromHandler_InvalidContentLength(t *testing.T) {
	called := false
	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	})

	app := gateway.FromHandler(h)
	env := gateway.NewEnviron(gateway.Request{Path: "/", Method: "GET"})
	env[gateway.KeyContentLength] = "NaN"

	var status string
	for range app(env, func(s string, _ []gateway.Header) { status = s }) {
	}

	assert.False(t, called)
	assert.Equal(t, "400 Bad Request", status)
}

func TestStatusLine(t *testing.T) {
	tests := map[int]string{
		http.StatusOK:         "200 OK",
		http.StatusCreated:    "201 Created",
		http.StatusNoContent:  "204 No Content",
		http.StatusBadRequest: "400 Bad Request",
		http.StatusNotFound:   "404 Not Found",
	}

	for code, want := range tests {
		t.Run(want, func(t *testing.T) {
			assert.Equal(t, want, gateway.StatusLine(code))
		})
	}
}
