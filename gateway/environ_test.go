package gateway_test

import (
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lambda-feedback/studyboard/gateway"
)

var documentedKeys = []string{
	gateway.KeyPathInfo,
	gateway.KeyRequestMethod,
	gateway.KeyScriptName,
	gateway.KeyQueryString,
	gateway.KeyContentType,
	gateway.KeyContentLength,
	gateway.KeyServerProtocol,
	gateway.KeyServerName,
	gateway.KeyInput,
	gateway.KeyErrors,
	gateway.KeyVersion,
	gateway.KeyMultithread,
	gateway.KeyMultiprocess,
	gateway.KeyRunOnce,
}

func TestNewEnviron_Keys(t *testing.T) {
	tests := []struct {
		name    string
		headers []gateway.Pair
	}{
		{name: "no headers"},
		{name: "one header", headers: []gateway.Pair{{Key: "api-key", Value: "secret"}}},
		{name: "two headers", headers: []gateway.Pair{
			{Key: "accept", Value: "application/json"},
			{Key: "x_trace", Value: "abc"},
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := gateway.NewEnviron(gateway.Request{
				Path:    "/api/studies",
				Method:  "get",
				Headers: tt.headers,
			})

			assert.Len(t, env, len(documentedKeys)+len(tt.headers))
			for _, key := range documentedKeys {
				assert.Contains(t, env, key)
			}
			for _, h := range tt.headers {
				assert.Equal(t, h.Value, env[gateway.HeaderKey(h.Key)])
			}
		})
	}
}

func TestNewEnviron_Defaults(t *testing.T) {
	env := gateway.NewEnviron(gateway.Request{Path: "/health", Method: "get"})

	assert.Equal(t, "/health", env[gateway.KeyPathInfo])
	assert.Equal(t, "GET", env[gateway.KeyRequestMethod])
	assert.Equal(t, "", env[gateway.KeyScriptName])
	assert.Equal(t, "", env[gateway.KeyQueryString])
	assert.Equal(t, gateway.DefaultContentType, env[gateway.KeyContentType])
	assert.Equal(t, "0", env[gateway.KeyContentLength])
	assert.Equal(t, "HTTP/1.1", env[gateway.KeyServerProtocol])
	assert.Equal(t, "localhost", env[gateway.KeyServerName])
	assert.Equal(t, [2]int{1, 0}, env[gateway.KeyVersion])
	assert.Equal(t, true, env[gateway.KeyMultithread])
	assert.Equal(t, true, env[gateway.KeyMultiprocess])
	assert.Equal(t, false, env[gateway.KeyRunOnce])
}

func TestNewEnviron_ContentLength(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{name: "empty", body: "", want: "0"},
		{name: "ascii", body: `{"study_name":"foo"}`, want: "20"},
		{name: "multibyte", body: "héllo", want: "6"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := gateway.NewEnviron(gateway.Request{
				Path:   "/",
				Method: "POST",
				Body:   []byte(tt.body),
			})

			assert.Equal(t, tt.want, env[gateway.KeyContentLength])

			body, err := io.ReadAll(env.Input())
			require.NoError(t, err)
			assert.Equal(t, tt.body, string(body))
		})
	}
}

func TestNewEnviron_ContentType(t *testing.T) {
	env := gateway.NewEnviron(gateway.Request{
		Path:        "/api/studies",
		Method:      "POST",
		ContentType: "application/json",
	})

	assert.Equal(t, "application/json", env[gateway.KeyContentType])
}

func TestQueryString(t *testing.T) {
	tests := []struct {
		name  string
		pairs []gateway.Pair
		want  string
	}{
		{name: "nil", pairs: nil, want: ""},
		{name: "single", pairs: []gateway.Pair{{Key: "a", Value: "1"}}, want: "a=1"},
		{name: "ordered", pairs: []gateway.Pair{{Key: "a", Value: "1"}, {Key: "b", Value: "2"}}, want: "a=1&b=2"},
		{name: "reversed", pairs: []gateway.Pair{{Key: "b", Value: "2"}, {Key: "a", Value: "1"}}, want: "b=2&a=1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := gateway.NewEnviron(gateway.Request{Path: "/", Method: "GET", Query: tt.pairs})
			assert.Equal(t, tt.want, env[gateway.KeyQueryString])
		})
	}
}

func TestHeaderKey(t *testing.T) {
	assert.Equal(t, "HTTP_API-KEY", gateway.HeaderKey("api-key"))
	assert.Equal(t, "HTTP_ACCEPT", gateway.HeaderKey("Accept"))
}
