package o11y

import (
	"context"
	"math"
	"strings"
	"testing"

	"gotest.tools/v3/assert"
	"gotest.tools/v3/assert/cmp"

	"github.com/circleci/restclass/config/secret"
	"github.com/circleci/restclass/internal/syncbuffer"
	"github.com/circleci/restclass/o11y"
)

func TestSetup_SecretRedacted(t *testing.T) {
	for _, format := range []string{"json", "text", "color"} {
		t.Run(format, func(t *testing.T) {
			b := &syncbuffer.SyncBuffer{}
			ctx, cleanup, err := Setup(context.Background(), Config{
				Format:  format,
				Service: "restclass",
				Version: "dev",
				Writer:  b,
			})
			assert.Assert(t, err)

			_, span := o11y.StartSpan(ctx, "secret test")
			span.AddField("secret", secret.String("super-secret"))
			span.End()
			cleanup(ctx)

			assert.Check(t, !strings.Contains(b.String(), "super-secret"), b.String())
			assert.Check(t, cmp.Contains(b.String(), "REDACTED"))
		})
	}
}

func TestSetup_GlobalFields(t *testing.T) {
	b := &syncbuffer.SyncBuffer{}
	ctx, cleanup, err := Setup(context.Background(), Config{
		Format:  "json",
		Service: "restclass",
		Version: "1.2.3",
		Mode:    "server",
		Writer:  b,
	})
	assert.Assert(t, err)

	o11y.Log(ctx, "hello")
	cleanup(ctx)

	out := b.String()
	assert.Check(t, cmp.Contains(out, `"service":"restclass"`))
	assert.Check(t, cmp.Contains(out, `"version":"1.2.3"`))
	assert.Check(t, cmp.Contains(out, `"mode":"server"`))
}

func TestSetup_DoesNotError(t *testing.T) {
	ctx := context.Background()
	ctx, cleanup, err := Setup(ctx, Config{
		Statsd:            "127.0.0.1:8125",
		RollbarToken:      "qwertyuiop",
		RollbarDisabled:   true,
		RollbarEnv:        "production",
		RollbarServerRoot: "github.com/circleci/restclass",
		HoneycombEnabled:  false,
		HoneycombDataset:  "does-not-exist",
		HoneycombKey:      "1234567890",
		Format:            "none",
		Version:           "1.2.3",
		Service:           "test-service",
		StatsNamespace:    "test.service",
		Mode:              "banana",
		Debug:             true,
	})
	assert.Assert(t, err)

	_, ok := o11y.FromContext(ctx).(rollBarHoneycombProvider)
	assert.Check(t, ok, "rollbar token should wrap the provider")
	cleanup(ctx)
}

func TestSetup_InvalidConfig(t *testing.T) {
	_, _, err := Setup(context.Background(), Config{
		HoneycombEnabled: true,
		Format:           "none",
	})
	assert.Check(t, cmp.ErrorContains(err, "honeycomb_key"))

	_, _, err = Setup(context.Background(), Config{
		Format: "xml",
	})
	assert.Check(t, cmp.ErrorContains(err, "unknown o11y format"))
}

func TestSetup_SampleTraces(t *testing.T) {
	b := &syncbuffer.SyncBuffer{}
	ctx, cleanup, err := Setup(context.Background(), Config{
		Format:       "json",
		Service:      "restclass",
		Version:      "dev",
		Writer:       b,
		SampleTraces: true,
		SampleRates:  map[string]int{"admin /ready 200": math.MaxInt32},
	})
	assert.Assert(t, err)

	serve := func(name, server, route string) {
		_, span := o11y.StartSpan(ctx, name)
		span.AddRawField("http.server_name", server)
		span.AddRawField("http.route", route)
		span.AddRawField("http.status_code", 200)
		span.End()
	}
	serve("GET /ready", "admin", "/ready")
	serve("GET /sayhello/", "api", "/sayhello/")
	cleanup(ctx)

	out := b.String()
	assert.Check(t, cmp.Contains(out, `"name":"GET /sayhello/"`))
	assert.Check(t, !strings.Contains(out, `"name":"GET /ready"`), out)
}
