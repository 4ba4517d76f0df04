package api

import (
	"net/http"
	"net/url"
	"testing"

	"gotest.tools/v3/assert"
	"gotest.tools/v3/assert/cmp"

	"github.com/circleci/restclass/testing/testcontext"
)

func TestAPI_getConcatenate(t *testing.T) {
	ctx := testcontext.Background()
	fix := startAPI(ctx, t)

	tests := []struct {
		name  string
		query url.Values
		want  string
	}{
		{
			name:  "both",
			query: url.Values{"cad1": {"Me llamo Marcos "}, "cad2": {" Rivera Martínez"}},
			want:  "Me llamo Marcos  Rivera Martínez",
		},
		{
			name:  "empty first",
			query: url.Values{"cad1": {""}, "cad2": {"Rivera Martínez"}},
			want:  "Rivera Martínez",
		},
		{
			name:  "empty second",
			query: url.Values{"cad1": {"Me llamo Marcos "}, "cad2": {""}},
			want:  "Me llamo Marcos ",
		},
		{
			name:  "both empty",
			query: url.Values{"cad1": {""}, "cad2": {""}},
			want:  "",
		},
		{
			name:  "missing second",
			query: url.Values{"cad1": {"a"}},
			want:  "a",
		},
		{
			name:  "missing both",
			query: nil,
			want:  "",
		},
		{
			name:  "first value wins",
			query: url.Values{"cad1": {"a", "x"}, "cad2": {"b"}},
			want:  "ab",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := make(map[string]interface{})
			status := fix.Get(t, "/concatenate/?"+tt.query.Encode(), &m)
			assert.Check(t, cmp.Equal(status, http.StatusOK))
			assert.Check(t, cmp.DeepEqual(m, map[string]interface{}{"concatenation": tt.want}))
		})
	}
}
