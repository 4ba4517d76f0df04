package ginrouter

import (
	"bufio"
	"context"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/DataDog/datadog-go/statsd"
	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"
	"gotest.tools/v3/assert"
	"gotest.tools/v3/assert/cmp"
	"gotest.tools/v3/poll"

	"github.com/circleci/restclass/httpclient"
	"github.com/circleci/restclass/httpserver"
	"github.com/circleci/restclass/internal/syncbuffer"
	"github.com/circleci/restclass/o11y"
	"github.com/circleci/restclass/o11y/honeycomb"
)

func TestMiddleware(t *testing.T) {
	b := &syncbuffer.SyncBuffer{}

	p := honeycomb.New(honeycomb.Config{
		Format:  "text",
		Metrics: &statsd.NoOpClient{},
		Writer:  b,
	})
	ctx := o11y.WithProvider(context.Background(), p)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	r := New(ctx, Config{
		ServerName:  "test-server",
		QueryParams: []string{"num"},
		OnPanic: func(c *gin.Context) {
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"message": "panicked"})
		},
	})
	r.GET("/foo", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"greeting": "hola"})
	})
	r.GET("/slow", func(c *gin.Context) {
		time.Sleep(500 * time.Millisecond)
		c.Status(http.StatusInternalServerError)
	})
	r.GET("/panic", func(c *gin.Context) {
		panic("boom")
	})

	srv, err := httpserver.New(ctx, httpserver.Config{
		Name:    "test-server",
		Addr:    "localhost:0",
		Handler: r,
	})
	assert.Assert(t, err)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return srv.Serve(ctx)
	})
	t.Cleanup(func() {
		cancel()
		assert.Check(t, g.Wait())
	})

	client := httpclient.New(httpclient.Config{
		Name:    "test-client",
		BaseURL: "http://" + srv.Addr(),
	})

	t.Run("Check we can get a 200 response", func(t *testing.T) {
		b.Reset()
		err = client.Call(ctx, httpclient.NewRequest("GET", "/foo", httpclient.QueryParam("num", "5")))
		assert.Assert(t, err)
		checkO11yHasStatus(t, b, "200")
		assert.Check(t, cmp.Contains(b.String(), "handler.query.num=5"))
	})

	t.Run("Check we can get a 499 response", func(t *testing.T) {
		b.Reset()
		ctx, cancel := context.WithTimeout(ctx, 30*time.Millisecond)
		defer cancel()

		err = client.Call(ctx, httpclient.NewRequest("GET", "/slow"))
		assert.Check(t, cmp.ErrorIs(err, context.DeadlineExceeded))
		checkO11yHasStatus(t, b, "499")
	})

	t.Run("Check a panic renders the configured response", func(t *testing.T) {
		b.Reset()
		var body map[string]string
		err = client.Call(ctx, httpclient.NewRequest("GET", "/panic", httpclient.ErrorDecoder(httpclient.NewJSONDecoder(&body))))
		assert.Check(t, httpclient.HasStatusCode(err, http.StatusInternalServerError))
		assert.Check(t, cmp.DeepEqual(body, map[string]string{"message": "panicked"}))
		checkO11yHasStatus(t, b, "500")
	})
}

func TestDefault(t *testing.T) {
	r := Default(context.Background(), "admin")
	r.GET("/live", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	assert.Check(t, cmp.Len(r.Routes(), 1))
	assert.Check(t, cmp.Equal(gin.Mode(), gin.ReleaseMode))
}

func checkO11yHasStatus(t *testing.T, b *syncbuffer.SyncBuffer, needle string) {
	t.Helper()
	poll.WaitOn(t, func(t poll.LogT) poll.Result {
		s := b.String()
		scanner := bufio.NewScanner(strings.NewReader(s))
		for scanner.Scan() {
			text := scanner.Text()
			if !strings.Contains(text, "GET /") {
				continue
			}
			if strings.Contains(text, "http.status_code="+needle) {
				return poll.Success()
			}
		}
		return poll.Continue("%q does not contain %q", s, needle)
	})
}
