package driver

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"

	"github.com/circleci/restclass/colourise"
	"github.com/circleci/restclass/httpclient"
	"github.com/circleci/restclass/o11y"
)

type Checker struct {
	client *httpclient.Client
	out    io.Writer
	colour bool
}

type Options struct {
	Client *httpclient.Client
	Out    io.Writer
	// Colour highlights results and errors with ANSI escapes
	Colour bool
}

func New(opts Options) *Checker {
	return &Checker{
		client: opts.Client,
		out:    opts.Out,
		colour: opts.Colour,
	}
}

// Outcome is what the server said about a check. Exactly one of Result and Error
// is set, HTTP error statuses are outcomes rather than failures.
type Outcome struct {
	Status int
	Result json.RawMessage
	Error  json.RawMessage
}

// Run makes every check in order and prints each outcome. It stops at the first
// check that could not get a response at all.
func (c *Checker) Run(ctx context.Context, checks []Check) (err error) {
	ctx, span := o11y.StartSpan(ctx, "driver: run")
	defer o11y.End(span, &err)
	span.AddField("checks", len(checks))

	errorCount := 0
	for _, check := range checks {
		outcome, err := c.Do(ctx, check)
		if err != nil {
			return err
		}
		if outcome.Error != nil {
			errorCount++
		}
		err = c.print(check, outcome)
		if err != nil {
			return err
		}
	}
	span.AddField("error_responses", errorCount)
	return nil
}

// Do makes a single check.
func (c *Checker) Do(ctx context.Context, check Check) (_ Outcome, err error) {
	ctx, span := o11y.StartSpan(ctx, "driver: check")
	defer o11y.End(span, &err)
	span.AddField("method", check.Method)
	span.AddField("route", check.Route)

	var body []byte
	opts := []func(*httpclient.Request){
		httpclient.QueryParams(check.Params),
		httpclient.Decode(httpclient.NewBytesDecoder(&body)),
	}
	if check.Data != nil {
		opts = append(opts, httpclient.FormBody(check.Data))
	}

	err = c.client.Call(ctx, httpclient.NewRequest(check.Method, check.Route, opts...))
	httpErr := &httpclient.HTTPError{}
	switch {
	case errors.As(err, &httpErr):
		span.AddField("status", httpErr.Code())
		return Outcome{Status: httpErr.Code(), Error: asJSON(httpErr.Body(), httpErr.Code())}, nil
	case httpclient.IsNoContent(err):
		return Outcome{Status: http.StatusNoContent, Result: json.RawMessage("null")}, nil
	case err != nil:
		return Outcome{}, fmt.Errorf("check %s %s: %w", check.Method, check.Route, err)
	}
	span.AddField("status", http.StatusOK)
	return Outcome{Status: http.StatusOK, Result: asJSON(body, http.StatusOK)}, nil
}

// asJSON compacts body, a body that is not JSON is quoted as a string.
func asJSON(body []byte, status int) json.RawMessage {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		trimmed = []byte(http.StatusText(status))
	}
	buf := &bytes.Buffer{}
	if json.Valid(trimmed) && json.Compact(buf, trimmed) == nil {
		return buf.Bytes()
	}
	// a string always marshals
	quoted, _ := json.Marshal(string(trimmed))
	return quoted
}

func (c *Checker) print(check Check, o Outcome) error {
	label, value := "Result", o.Result
	if o.Error != nil {
		label, value = "Error", o.Error
	}
	if c.colour {
		if o.Error != nil {
			label = colourise.ErrorHighlight(label)
		} else {
			label = colourise.OKHighlight(label)
		}
	}

	_, err := fmt.Fprintf(c.out, "When \n\t -Method: %s \n\t -Url: %s \n\t -Params: %s  \n\t -Data: %s \n\t -%s: %s\n\n\n\n\n\n\n",
		check.Method, check.Route, formatValues(check.Params), formatValues(check.Data), label, value)
	return err
}

// formatValues renders v as {'key': 'value', ...} sorted by key, or None when absent.
func formatValues(v url.Values) string {
	if v == nil {
		return "None"
	}
	keys := make([]string, 0, len(v))
	for k := range v {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(keys))
	for _, k := range keys {
		pairs = append(pairs, fmt.Sprintf("'%s': '%s'", k, v.Get(k)))
	}
	return "{" + strings.Join(pairs, ", ") + "}"
}
