package httpserver

import (
	"context"
	"fmt"

	"github.com/circleci/restclass/system"
)

// Load creates the server and registers it, and its connection gauges, with the system.
func Load(ctx context.Context, cfg Config, sys *system.System) (*HTTPServer, error) {
	server, err := New(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("error starting %q server: %w", cfg.Name, err)
	}

	sys.AddService(server.Serve)
	sys.AddMetrics(server.MetricsProducer())
	return server, nil
}
