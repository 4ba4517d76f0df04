package healthcheck

import (
	"context"
	"fmt"

	"github.com/circleci/restclass/httpserver"
	"github.com/circleci/restclass/system"
)

// Load starts the admin API on addr, checking everything registered with sys.
// It must be called after all health checks have been added.
func Load(ctx context.Context, addr string, sys *system.System) (*httpserver.HTTPServer, error) {
	healthAPI, err := New(ctx, sys.HealthChecks())
	if err != nil {
		return nil, fmt.Errorf("error creating health check API: %w", err)
	}

	return httpserver.Load(ctx, httpserver.Config{
		Name:    "admin",
		Addr:    addr,
		Handler: healthAPI.Handler(),
	}, sys)
}
