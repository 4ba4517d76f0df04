package api

import (
	"net/http"
	"testing"

	"gotest.tools/v3/assert"
	"gotest.tools/v3/assert/cmp"

	"github.com/circleci/restclass/testing/testcontext"
)

func TestAPI_getOptions(t *testing.T) {
	ctx := testcontext.Background()
	fix := startAPI(ctx, t)

	m := make(map[string]interface{})
	status := fix.Get(t, "/options/", &m)
	assert.Check(t, cmp.Equal(status, http.StatusOK))
	assert.Check(t, cmp.DeepEqual(m, map[string]interface{}{
		"api_methods": map[string]interface{}{
			"GET":    "return the information",
			"POST":   "create a resource",
			"DELETE": "delete some information",
			"PUT":    "update some information",
		},
		"errors": map[string]interface{}{
			"Error 400": "Bad Request",
			"Error 404": "Not Found",
			"Error 405": "Method Not Allowed",
			"Error 500": "Internal Server Error",
		},
	}))
}
