// Package ginrouter builds gin engines with the standard o11y middlewares installed.
package ginrouter

import (
	"context"
	"sync"

	"github.com/gin-gonic/gin"

	"github.com/circleci/restclass/o11y"
	"github.com/circleci/restclass/o11y/wrappers/o11ygin"
)

var once sync.Once

type Config struct {
	ServerName string
	// QueryParams are the query parameters recorded on request spans
	QueryParams []string
	// OnPanic writes the response for a request whose handler panicked
	OnPanic gin.HandlerFunc
}

func New(ctx context.Context, cfg Config) *gin.Engine {
	once.Do(func() {
		gin.SetMode(gin.ReleaseMode)
	})

	params := make(map[string]struct{}, len(cfg.QueryParams))
	for _, p := range cfg.QueryParams {
		params[p] = struct{}{}
	}

	r := gin.New()
	r.Use(
		o11ygin.Middleware(o11y.FromContext(ctx), cfg.ServerName, params),
		o11ygin.Recovery(cfg.OnPanic),
		o11ygin.ClientCancelled(),
	)

	r.UseRawPath = true

	return r
}

func Default(ctx context.Context, serverName string) *gin.Engine {
	return New(ctx, Config{ServerName: serverName})
}
