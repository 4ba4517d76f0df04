// Package kongtest helps test kong command lines without exiting the test binary.
package kongtest

import (
	"bytes"
	"testing"

	"github.com/alecthomas/kong"
	"github.com/google/go-cmp/cmp"
	"gotest.tools/v3/assert"
)

// Help renders the --help output for cli, checking that kong asked to exit cleanly.
func Help(t *testing.T, cli interface{}, args ...string) string {
	t.Helper()
	w := bytes.NewBuffer(nil)
	rc := -1
	app, err := kong.New(cli,
		kong.Name("test-app"),
		kong.Writers(w, w),
		kong.Exit(func(i int) {
			rc = i
		}),
	)
	assert.Check(t, err)

	_, err = app.Parse(append(args, "--help"))
	assert.Check(t, err)
	assert.Check(t, cmp.Equal(0, rc))

	return w.String()
}

// Parse parses args into cli with the given environment variables set, returning the
// selected command string (e.g. "server").
func Parse(t *testing.T, cli interface{}, env map[string]string, args ...string) string {
	t.Helper()
	for k, v := range env {
		t.Setenv(k, v)
	}
	app, err := kong.New(cli, kong.Name("test-app"))
	assert.Assert(t, err)

	kctx, err := app.Parse(args)
	assert.Assert(t, err)
	return kctx.Command()
}
