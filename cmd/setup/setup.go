// Package setup contains the configuration and wiring shared by the restclass commands.
package setup

import (
	"context"
	"os"

	"github.com/circleci/restclass/config/o11y"
	"github.com/circleci/restclass/config/secret"
)

type CLI struct {
	O11yStatsd           string        `name:"o11y-statsd" env:"O11Y_STATSD" help:"Address to send statsd metrics, metrics are off when empty"`
	O11yHoneycombEnabled bool          `name:"o11y-honeycomb" env:"O11Y_HONEYCOMB" help:"Send traces to honeycomb"`
	O11yHoneycombDataset string        `name:"o11y-honeycomb-dataset" env:"O11Y_HONEYCOMB_DATASET" default:"restclass"`
	O11yHoneycombKey     secret.String `name:"o11y-honeycomb-key" env:"O11Y_HONEYCOMB_KEY"`
	O11yFormat           string        `name:"o11y-format" env:"O11Y_FORMAT" enum:"json,color,text,none" default:"text" help:"Format used for stderr logging"`
	O11yRollbarToken     secret.String `name:"o11y-rollbar-token" env:"O11Y_ROLLBAR_TOKEN"`
	O11yRollbarEnv       string        `name:"o11y-rollbar-env" env:"O11Y_ROLLBAR_ENV" default:"development"`
	O11ySampleTraces     bool          `name:"o11y-sample-traces" env:"O11Y_SAMPLE_TRACES" help:"Thin out successful health check traces"`
}

// healthCheckSampleRates keeps one in every N successful admin health check traces.
// Keys are "<server name> <route> <status code>".
var healthCheckSampleRates = map[string]int{
	"admin /live 200":  100,
	"admin /ready 200": 100,
}

func LoadO11y(ctx context.Context, version, mode string, cli CLI) (context.Context, func(context.Context), error) {
	return o11y.Setup(ctx, cli.o11yConfig(version, mode))
}

func (cli CLI) o11yConfig(version, mode string) o11y.Config {
	cfg := o11y.Config{
		Statsd:            cli.O11yStatsd,
		RollbarToken:      cli.O11yRollbarToken,
		RollbarEnv:        cli.O11yRollbarEnv,
		RollbarServerRoot: "github.com/circleci/restclass",
		HoneycombEnabled:  cli.O11yHoneycombEnabled,
		HoneycombDataset:  cli.O11yHoneycombDataset,
		HoneycombKey:      cli.O11yHoneycombKey,
		Format:            cli.O11yFormat,
		Version:           version,
		Service:           "restclass",
		StatsNamespace:    "restclass.",
		Mode:              mode,
		Writer:            os.Stderr,
	}
	if cli.O11ySampleTraces {
		cfg.SampleTraces = true
		cfg.SampleRates = make(map[string]int, len(healthCheckSampleRates))
		for k, v := range healthCheckSampleRates {
			cfg.SampleRates[k] = v
		}
	}
	return cfg
}
