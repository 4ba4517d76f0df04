package honeycomb

import (
	"bytes"
	"fmt"
	"testing"
	"time"

	"github.com/honeycombio/libhoney-go/transmission"
	"gotest.tools/v3/assert"
	"gotest.tools/v3/assert/cmp"
)

func TestTextSender(t *testing.T) {
	ts := time.Date(2021, 3, 4, 10, 15, 42, 137602525, time.UTC)
	//nolint: lll
	testcases := []struct {
		source   *transmission.Event
		expected string
	}{
		{
			source: &transmission.Event{
				Timestamp: ts,
				Data:      map[string]interface{}{"app.address": "127.0.0.1:5000", "app.server_name": "api", "result": "success", "duration_ms": 0.577148, "meta.beeline_version": "1.11.1", "meta.span_type": "leaf", "name": "server: new-server api", "service": "restclass", "trace.parent_id": "223ebb27-c7f3-41c8-86e6-cc47e7e809d0", "trace.span_id": "ed37fbc5-6309-4526-96a3-29398eb19b5f", "trace.trace_id": "9e020857-1248-431f-b2dd-f1541bd1e113", "version": "dev"},
			},
			expected: "10:15:42 1e113 0.577ms server: new-server api app.address=127.0.0.1:5000 app.server_name=api result=success\n",
		},
		{
			source: &transmission.Event{
				Timestamp: ts,
				Data:      map[string]interface{}{"http.route": "/users/:id", "http.status_code": 404, "warning": "This user does not exist", "duration_ms": 0.075231, "meta.type": "http_server", "name": "GET /users/:id", "service": "restclass", "trace.span_id": "29d98eb0-81c0-4538-a8b5-8296ff40563f", "trace.trace_id": "5a6f1d2c-1248-431f-b2dd-f1541bd77aa0", "version": "dev"},
			},
			expected: "10:15:42 77aa0 0.075ms GET /users/:id http.route=/users/:id http.status_code=404 warning=This user does not exist\n",
		},
		{
			source: &transmission.Event{
				Timestamp: ts,
				Data:      map[string]interface{}{"duration_ms": 1.455143, "meta.span_type": "root", "name": "main: run", "service": "restclass", "trace.span_id": "223ebb27-c7f3-41c8-86e6-cc47e7e809d0", "trace.trace_id": "9e020857-1248-431f-b2dd-f1541bd1e113", "version": "dev"},
			},
			expected: "10:15:42 1e113 1.455ms main: run\n",
		},
		{
			source: &transmission.Event{
				Timestamp: ts,
				Data:      map[string]interface{}{"name": "no trace"},
			},
			expected: "10:15:42 unkwn 0.000ms no trace\n",
		},
	}

	for i, tc := range testcases {
		t.Run(fmt.Sprintf("%v", i), func(t *testing.T) {
			buf := new(bytes.Buffer)
			h := &TextSender{
				w: buf,
			}

			h.Add(tc.source)
			assert.Check(t, cmp.Equal(buf.String(), tc.expected))
		})
	}
}

func TestTextSender_ColourHighlightsErrors(t *testing.T) {
	buf := new(bytes.Buffer)
	h := &TextSender{w: buf, colour: true}
	h.Add(&transmission.Event{
		Timestamp: time.Now(),
		Data: map[string]interface{}{
			"name":           "GET /calculate/:num",
			"error":          "boom",
			"trace.trace_id": "9e020857-1248-431f-b2dd-f1541bd1e113",
		},
	})
	assert.Check(t, cmp.Contains(buf.String(), "\033[1;37;41merror\033[0m=boom"))
}
