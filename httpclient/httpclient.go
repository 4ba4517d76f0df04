// Package httpclient provides an HTTP client instrumented with the o11y package.
//
// Every call is a single attempt, traced in its own span and timed in the
// "httpclient" metric. Non 2XX responses are returned as an *HTTPError which keeps
// the response body, so callers can decode the server's error payload.
package httpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/circleci/restclass/o11y"
)

const (
	JSON = "application/json; charset=utf-8"
	Form = "application/x-www-form-urlencoded"
)

// maxErrorBody bounds how much of an error response is kept on the HTTPError.
const maxErrorBody = 1 << 20

var ErrNoContent = o11y.NewWarning("no content")

// Config provides the client configuration
type Config struct {
	// Name is used to identify the client in spans
	Name string
	// BaseURL is the URL and optional path prefix to the server that this is a client of.
	BaseURL string
	// AcceptType if set will be used to set the Accept header.
	AcceptType string
	// UserAgent if set will be sent with every request.
	UserAgent string
	// Timeout is the default per call timeout, 5 seconds if zero.
	Timeout time.Duration
	// Transport overrides the default transport, mostly useful in tests.
	Transport http.RoundTripper
}

// Client is the o11y instrumented http client.
type Client struct {
	name       string
	baseURL    string
	acceptType string
	userAgent  string
	timeout    time.Duration
	httpClient *http.Client
}

// New creates a client configured with the config param
func New(cfg Config) *Client {
	if cfg.Timeout == 0 {
		cfg.Timeout = 5 * time.Second
	}
	transport := cfg.Transport
	if transport == nil {
		transport = http.DefaultTransport.(*http.Transport).Clone()
	}
	return &Client{
		name:       cfg.Name,
		baseURL:    strings.TrimSuffix(cfg.BaseURL, "/"),
		acceptType: cfg.AcceptType,
		userAgent:  cfg.UserAgent,
		timeout:    cfg.Timeout,
		httpClient: &http.Client{
			Transport: transport,
			// leave redirects to the caller, so they show up as results
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
	}
}

// CloseIdleConnections drops pooled keep-alive connections once the caller is done with the client.
func (c *Client) CloseIdleConnections() {
	c.httpClient.CloseIdleConnections()
}

// URL returns the full url the request will be sent to, including the query.
func (c *Client) URL(r Request) (*url.URL, error) {
	u, err := url.Parse(c.baseURL + r.url)
	if err != nil {
		return nil, err
	}
	if len(r.query) > 0 {
		q := u.Query()
		for k, vs := range r.query {
			for _, v := range vs {
				q.Add(k, v)
			}
		}
		u.RawQuery = q.Encode()
	}
	return u, nil
}

// Call makes the request. If the http call completed with a non 2XX status code then
// an HTTPError will be returned containing details of the result of the call.
func (c *Client) Call(ctx context.Context, r Request) (err error) {
	ctx, span := o11y.StartSpan(ctx, fmt.Sprintf("httpclient: %s %s", c.name, r.route))
	defer o11y.End(span, &err)
	before := time.Now()

	req, err := c.newRequest(ctx, r)
	if err != nil {
		return err
	}

	timeout := r.timeout
	if timeout == 0 {
		timeout = c.timeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	req = req.WithContext(ctx)

	span.AddRawField("http.client_name", c.name)
	span.AddRawField("http.route", r.route)
	span.AddRawField("http.base_url", c.baseURL)
	addReqToSpan(span, req)

	res, err := c.httpClient.Do(req)
	if err != nil {
		// url errors repeat the method and url which clutters metrics and logging
		e := &url.Error{}
		if errors.As(err, &e) {
			err = e.Err
		}
		return fmt.Errorf("call: %s %s failed with: %w", req.Method, r.route, err)
	}
	defer func() {
		// drain anything left in the body so the connection can be reused
		_, _ = io.Copy(io.Discard, res.Body)
		_ = res.Body.Close()
	}()

	m := o11y.FromContext(ctx).MetricsProvider()
	if m != nil {
		_ = m.TimeInMilliseconds("httpclient",
			float64(time.Since(before).Nanoseconds())/1000000.0,
			[]string{
				"http.client_name:" + c.name,
				"http.route:" + r.route,
				"http.method:" + r.method,
				"http.status_code:" + strconv.Itoa(res.StatusCode),
			},
			1,
		)
	}
	addRespToSpan(span, res)

	err = extractHTTPError(req, res, r.route)
	if err != nil {
		e := &HTTPError{}
		if errors.As(err, &e) && r.errorDecoder != nil {
			if derr := r.errorDecoder(bytes.NewReader(e.body)); derr != nil {
				span.AddField("error_decoding", derr)
			}
		}
		return err
	}
	if r.decoder == nil {
		return nil
	}
	err = r.decoder(res.Body)
	if err != nil {
		return fmt.Errorf("call: %s %s decoding failed with: %w", req.Method, r.route, err)
	}
	return nil
}

func (c *Client) newRequest(ctx context.Context, r Request) (*http.Request, error) {
	u, err := c.URL(r)
	if err != nil {
		return nil, err
	}

	var body io.Reader
	contentType := ""
	switch {
	case r.body != nil:
		b := &bytes.Buffer{}
		err = json.NewEncoder(b).Encode(r.body)
		if err != nil {
			return nil, fmt.Errorf("could not json encode request: %w", err)
		}
		body = b
		contentType = JSON
	case r.form != nil:
		body = strings.NewReader(r.form.Encode())
		contentType = Form
	}

	req, err := http.NewRequestWithContext(ctx, r.method, u.String(), body)
	if err != nil {
		return nil, err
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if c.acceptType != "" {
		req.Header.Set("Accept", c.acceptType)
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	for k, v := range r.headers {
		req.Header.Set(k, v)
	}
	return req, nil
}

func addReqToSpan(span o11y.Span, req *http.Request) {
	span.AddRawField("meta.type", "http_client")
	span.AddRawField("http.scheme", req.URL.Scheme)
	span.AddRawField("http.host", req.URL.Host)
	span.AddRawField("http.target", req.URL.Path)
	span.AddRawField("http.method", req.Method)
	span.AddRawField("http.url", req.URL.String())
	span.AddRawField("http.user_agent", req.UserAgent())
	span.AddRawField("http.request_content_length", req.ContentLength)
}

func addRespToSpan(span o11y.Span, res *http.Response) {
	if cl := res.Header.Get("Content-Length"); cl != "" {
		span.AddRawField("http.response_content_length", cl)
	}
	if ct := res.Header.Get("Content-Type"); ct != "" {
		span.AddRawField("http.response_content_type", ct)
	}
	if ce := res.Header.Get("Content-Encoding"); ce != "" {
		span.AddRawField("http.response_content_encoding", ce)
	}
	span.AddRawField("http.status_code", res.StatusCode)
}

// extractHTTPError returns an HTTPError if the response status code is >=300, otherwise it
// returns nil. A 204 is returned as ErrNoContent.
func extractHTTPError(req *http.Request, res *http.Response, route string) error {
	switch {
	case res.StatusCode >= 300:
		// best efforts, a truncated body is still useful
		body, _ := io.ReadAll(io.LimitReader(res.Body, maxErrorBody))
		return &HTTPError{
			method: req.Method,
			route:  route,
			code:   res.StatusCode,
			body:   body,
		}
	case res.StatusCode == http.StatusNoContent:
		return ErrNoContent
	}
	return nil
}
