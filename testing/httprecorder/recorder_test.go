package httprecorder

import (
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"gotest.tools/v3/assert"
	"gotest.tools/v3/assert/cmp"
)

func TestRequestRecorder_Handler(t *testing.T) {
	rec := New()
	var seen string
	h := rec.Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		seen = string(b)
	}))

	req := httptest.NewRequest(http.MethodPost, "/concatenate/?cad1=a", strings.NewReader("cad2=b"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	h.ServeHTTP(httptest.NewRecorder(), req)

	assert.Check(t, cmp.Equal(seen, "cad2=b"))

	last := rec.LastRequest()
	assert.Assert(t, last != nil)
	assert.Check(t, cmp.Equal(last.Method, http.MethodPost))
	assert.Check(t, cmp.Equal(last.Path, "/concatenate/"))
	assert.Check(t, cmp.DeepEqual(last.Query, url.Values{"cad1": {"a"}}))
	assert.Check(t, cmp.DeepEqual(last.Header, http.Header{"Content-Type": {"application/x-www-form-urlencoded"}},
		OnlyHeaders("Content-Type")))

	form, err := last.Form()
	assert.Assert(t, err)
	assert.Check(t, cmp.DeepEqual(form, url.Values{"cad2": {"b"}}))
}

func TestRequestRecorder_Reset(t *testing.T) {
	rec := New()
	assert.Check(t, rec.LastRequest() == nil)

	assert.Assert(t, rec.Record(httptest.NewRequest(http.MethodGet, "/sayhello/", nil)))
	assert.Assert(t, rec.Record(httptest.NewRequest(http.MethodGet, "/users/1", nil)))
	assert.Check(t, cmp.Len(rec.AllRequests(), 2))

	rec.Reset()
	assert.Check(t, cmp.Len(rec.AllRequests(), 0))
}
