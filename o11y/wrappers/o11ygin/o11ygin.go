// Package o11ygin holds the gin middlewares that trace every request and report panics.
package o11ygin

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/circleci/restclass/o11y"
)

const contextCancelledKey = "o11y-context-cancelled-key"

// Middleware starts a span for every request and records the request and response
// on it. A timing metric is emitted per request, tagged by route and status.
// Only the query params named in queryParams are added to the span.
func Middleware(provider o11y.Provider, serverName string, queryParams map[string]struct{}) gin.HandlerFunc {
	m := provider.MetricsProvider()
	return func(c *gin.Context) {
		before := time.Now()

		route := c.FullPath()
		// unmatched requests (404 and 405) have no route
		if route == "" {
			route = "not-found"
		}

		ctx := o11y.WithProvider(c.Request.Context(), provider)
		ctx, span := provider.StartSpan(ctx, fmt.Sprintf("%s %s", c.Request.Method, route))
		defer span.End()

		c.Request = c.Request.WithContext(ctx)

		for _, param := range c.Params {
			span.AddRawField("handler.vars."+param.Key, param.Value)
		}

		for key, value := range c.Request.URL.Query() {
			if _, ok := queryParams[key]; !ok {
				continue
			}
			switch len(value) {
			case 0:
				span.AddRawField("handler.query."+key, nil)
			case 1:
				span.AddRawField("handler.query."+key, value[0])
			default:
				span.AddRawField("handler.query."+key, value)
			}
		}

		c.Header("X-Route", route)

		span.AddRawField("meta.type", "http_server")
		span.AddRawField("http.server_name", serverName)
		span.AddRawField("http.route", route)
		span.AddRawField("http.client_ip", c.ClientIP())
		span.AddRawField("http.method", c.Request.Method)
		span.AddRawField("http.url", c.Request.URL.String())
		span.AddRawField("http.target", c.Request.URL.Path)
		span.AddRawField("http.host", c.Request.Host)
		span.AddRawField("http.user_agent", c.Request.UserAgent())
		span.AddRawField("http.request_content_length", c.Request.ContentLength)

		defer func() {
			status := c.Writer.Status()
			if c.GetBool(contextCancelledKey) {
				status = 499
			}
			span.AddRawField("http.status_code", status)
			span.AddRawField("http.response_content_length", c.Writer.Size())

			if m != nil {
				_ = m.TimeInMilliseconds("handler",
					float64(time.Since(before).Nanoseconds())/1000000.0,
					[]string{
						"http.server_name:" + serverName,
						"http.method:" + c.Request.Method,
						"http.route:" + route,
						"http.status_code:" + strconv.Itoa(status),
					},
					1,
				)
			}
		}()

		c.Next()
	}
}

// ClientCancelled is a gin middleware that will trap a request context cancellation
// and report a 499 (a.la. nginx).
// Private gin errors, for instance from rendering, are noted on the active span.
func ClientCancelled() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		defer func() {
			if errors.Is(ctx.Err(), context.Canceled) {
				c.Set(contextCancelledKey, true)
				return
			}
			if errs := c.Errors.ByType(gin.ErrorTypePrivate); len(errs) > 0 {
				o11y.AddField(ctx, "gin_internal_error", errs.String())
			}
		}()
		c.Next()
	}
}

// Recovery reports panics to the span (and rollbar, when configured). onPanic writes
// the response, when nil the request is aborted with a bare 500.
func Recovery(onPanic gin.HandlerFunc) gin.HandlerFunc {
	return gin.CustomRecoveryWithWriter(nil, func(c *gin.Context, err interface{}) {
		if onPanic != nil {
			onPanic(c)
		}
		if !c.IsAborted() {
			c.AbortWithStatus(http.StatusInternalServerError)
		}

		ctx := c.Request.Context()
		span := o11y.FromContext(ctx).GetSpan(ctx)

		// Most likely caused by one side of the proxy disappearing. Not really a panic
		// https://github.com/golang/go/issues/28239
		if origErr, ok := err.(error); ok && errors.Is(origErr, http.ErrAbortHandler) {
			o11y.AddResultToSpan(span, origErr)
			return
		}

		_ = o11y.HandlePanic(ctx, span, err, c.Request)
	})
}
