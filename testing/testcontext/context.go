// Package testcontext provides a context with a working o11y provider, so tests get logs.
package testcontext

import (
	"context"
	"os"

	"github.com/circleci/restclass/config/o11y"
)

// ctx is initialised once at package load since the beeline behind the provider is a global singleton.
var ctx = newContext()

// Background returns a context for use in tests which contains a working o11y, so you get logs.
func Background() context.Context {
	return ctx
}

func newContext() context.Context {
	cx, _, err := o11y.Setup(context.Background(), o11y.Config{
		Format:  "text",
		Service: "test-service",
		Version: "test",
		Writer:  os.Stderr,
	})
	if err != nil {
		panic(err)
	}
	return cx
}
