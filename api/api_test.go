package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"gotest.tools/v3/assert"
)

type fixture struct {
	api *API
	url string
}

func startAPI(ctx context.Context, t testing.TB) *fixture {
	t.Helper()

	return serve(t, New(ctx, Options{}))
}

func serve(t testing.TB, api *API) *fixture {
	t.Helper()

	srv := httptest.NewServer(api.Handler())
	t.Cleanup(srv.Close)

	return &fixture{
		api: api,
		url: srv.URL,
	}
}

func (f *fixture) Do(t testing.TB, method, path string, v interface{}) (statusCode int) {
	t.Helper()

	req, err := http.NewRequest(method, f.url+path, nil)
	assert.Assert(t, err)

	resp, err := noRedirectClient.Do(req)
	assert.Assert(t, err)

	defer func() {
		assert.Check(t, resp.Body.Close())
	}()

	if v != nil {
		err = json.NewDecoder(resp.Body).Decode(v)
		assert.Assert(t, err)
	}

	return resp.StatusCode
}

func (f *fixture) Get(t testing.TB, path string, v interface{}) (statusCode int) {
	t.Helper()
	return f.Do(t, http.MethodGet, path, v)
}

func (f *fixture) Raw(t testing.TB, method, path string) (int, string) {
	t.Helper()

	req, err := http.NewRequest(method, f.url+path, nil)
	assert.Assert(t, err)

	resp, err := noRedirectClient.Do(req)
	assert.Assert(t, err)

	defer func() {
		assert.Check(t, resp.Body.Close())
	}()

	b, err := io.ReadAll(resp.Body)
	assert.Assert(t, err)
	return resp.StatusCode, strings.TrimSpace(string(b))
}

var noRedirectClient = &http.Client{
	CheckRedirect: func(*http.Request, []*http.Request) error {
		return http.ErrUseLastResponse
	},
}
