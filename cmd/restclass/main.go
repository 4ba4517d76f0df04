package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log" //nolint:depguard // non-o11y log is allowed for a top-level fatal
	"os"
	"time"

	"github.com/alecthomas/kong"
	"github.com/klauspost/compress/gzhttp"

	"github.com/circleci/restclass/api"
	"github.com/circleci/restclass/cmd"
	"github.com/circleci/restclass/cmd/setup"
	"github.com/circleci/restclass/driver"
	"github.com/circleci/restclass/httpclient"
	"github.com/circleci/restclass/httpserver"
	"github.com/circleci/restclass/httpserver/healthcheck"
	"github.com/circleci/restclass/o11y"
	"github.com/circleci/restclass/system"
	"github.com/circleci/restclass/termination"
	"github.com/circleci/restclass/users"
)

type cli struct {
	setup.CLI

	Server serverCmd `cmd:"" help:"Run the API server"`
	Client clientCmd `cmd:"" help:"Run every check against a running API server and print the results"`
}

type serverCmd struct {
	APIAddr       string        `env:"API_ADDR" default:":5000" help:"The address for the API to listen on"`
	AdminAddr     string        `env:"ADMIN_ADDR" default:":5001" help:"The address for the admin api to listen on"`
	ShutdownDelay time.Duration `env:"SHUTDOWN_DELAY" default:"0s" help:"Delay shutdown by this amount" hidden:""`
	Gzip          bool          `name:"gzip" env:"API_GZIP" help:"Compress responses for clients that accept gzip"`
}

type clientCmd struct {
	ServerURL string        `env:"SERVER_URL" default:"http://127.0.0.1:5000" help:"The API server to check"`
	Timeout   time.Duration `env:"CLIENT_TIMEOUT" default:"5s" help:"Timeout for each request"`
	Colour    bool          `env:"CLIENT_COLOUR" help:"Highlight results and errors"`
}

func main() {
	err := run(cmd.Version, cmd.Date, os.Args[1:], os.Stdout)
	if err != nil && !errors.Is(err, termination.ErrTerminated) {
		log.Fatal("Unexpected Error: ", err)
	}
}

func run(version, date string, args []string, stdout io.Writer) (err error) {
	c := cli{}
	parser, err := kong.New(&c,
		kong.Name("restclass"),
		kong.Description("A small REST API, and a client that checks every endpoint."),
		kong.UsageOnError(),
	)
	if err != nil {
		return err
	}
	kctx, err := parser.Parse(args)
	if err != nil {
		parser.FatalIfErrorf(err)
		return err
	}
	command := kctx.Command()

	ctx, o11yCleanup, err := setup.LoadO11y(context.Background(), version, command, c.CLI)
	if err != nil {
		return err
	}
	defer o11yCleanup(ctx)

	ctx, runSpan := o11y.StartSpan(ctx, "main: run")
	defer o11y.End(runSpan, &err)

	o11y.Log(ctx, "starting restclass",
		o11y.Field("command", command),
		o11y.Field("version", version),
		o11y.Field("date", date),
	)

	switch command {
	case "server":
		return runServer(ctx, c.Server)
	case "client":
		return runClient(ctx, version, c.Client, stdout)
	}
	return fmt.Errorf("unknown command %q", command)
}

func runServer(ctx context.Context, cfg serverCmd) error {
	sys := system.New(ctx)
	defer sys.Cleanup(ctx)

	_, err := loadAPI(ctx, cfg, sys)
	if err != nil {
		return err
	}

	// Should be last so it collects all the health checks
	_, err = healthcheck.Load(ctx, cfg.AdminAddr, sys)
	if err != nil {
		return err
	}

	return sys.Run(cfg.ShutdownDelay)
}

func loadAPI(ctx context.Context, cfg serverCmd, sys *system.System) (*httpserver.HTTPServer, error) {
	directory := users.Default()
	sys.AddHealthCheck(directory)

	a := api.New(ctx, api.Options{
		Users: directory,
	})

	handler := a.Handler()
	if cfg.Gzip {
		wrap, err := gzhttp.NewWrapper(gzhttp.MinSize(0))
		if err != nil {
			return nil, err
		}
		handler = wrap(handler)
	}

	srv, err := httpserver.Load(ctx, httpserver.Config{
		Name:    "api",
		Addr:    cfg.APIAddr,
		Handler: handler,
	}, sys)
	if err != nil {
		return nil, err
	}

	sys.AddCleanup(func(ctx context.Context) error {
		gauges := srv.MetricsProducer().Gauges(ctx)
		o11y.Log(ctx, "api: stopped",
			o11y.Field("total_connections", gauges["total_connections"]),
			o11y.Field("users", directory.Len()),
		)
		return nil
	})
	return srv, nil
}

func runClient(ctx context.Context, version string, cfg clientCmd, stdout io.Writer) error {
	client := httpclient.New(httpclient.Config{
		Name:       "restclass",
		BaseURL:    cfg.ServerURL,
		AcceptType: httpclient.JSON,
		UserAgent:  "restclass/" + version,
		Timeout:    cfg.Timeout,
	})
	defer client.CloseIdleConnections()

	checker := driver.New(driver.Options{
		Client: client,
		Out:    stdout,
		Colour: cfg.Colour,
	})
	return checker.Run(ctx, driver.DefaultChecks())
}
