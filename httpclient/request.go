package httpclient

import (
	"fmt"
	"net/url"
	"time"
)

// Request is an individual http request that the Client will send.
// Use NewRequest to build one.
type Request struct {
	method       string
	route        string
	url          string
	routeParams  []interface{}
	body         interface{}
	form         url.Values
	query        url.Values
	headers      map[string]string
	decoder      Decoder
	errorDecoder Decoder
	timeout      time.Duration
}

// NewRequest should be used to create a new request rather than constructing a Request directly.
// This encourages the user to specify a "route" for the tracing, and avoid high cardinality routes
// (when parts of the url may contain many varying values).
func NewRequest(method, route string, opts ...func(*Request)) Request {
	r := Request{
		method: method,
		route:  route,
	}
	for _, opt := range opts {
		opt(&r)
	}
	r.url = route
	if len(r.routeParams) > 0 {
		r.url = fmt.Sprintf(route, r.routeParams...)
	}
	return r
}

func (r Request) Method() string {
	return r.method
}

func (r Request) Route() string {
	return r.route
}

// RouteParams are formatted into the route to produce the url path.
func RouteParams(routeParams ...interface{}) func(*Request) {
	return func(r *Request) {
		r.routeParams = routeParams
	}
}

// Body is encoded as JSON and sent as the request body.
func Body(body interface{}) func(*Request) {
	return func(r *Request) {
		r.body = body
	}
}

// FormBody is sent url encoded as the request body. It is ignored if Body is also set.
func FormBody(form url.Values) func(*Request) {
	return func(r *Request) {
		r.form = form
	}
}

// QueryParams are added to the url query, in addition to any already in the route.
func QueryParams(params url.Values) func(*Request) {
	return func(r *Request) {
		if r.query == nil {
			r.query = url.Values{}
		}
		for k, vs := range params {
			r.query[k] = append(r.query[k], vs...)
		}
	}
}

func QueryParam(k, v string) func(*Request) {
	return func(r *Request) {
		if r.query == nil {
			r.query = url.Values{}
		}
		r.query.Add(k, v)
	}
}

func Header(k, v string) func(*Request) {
	return func(r *Request) {
		if r.headers == nil {
			r.headers = map[string]string{}
		}
		r.headers[k] = v
	}
}

// Decode sets the decoder used on a 2XX response body.
func Decode(d Decoder) func(*Request) {
	return func(r *Request) {
		r.decoder = d
	}
}

// JSONDecoder decodes a 2XX response body into resp.
func JSONDecoder(resp interface{}) func(*Request) {
	return Decode(NewJSONDecoder(resp))
}

// ErrorDecoder is used to decode the body of a non 2XX response.
func ErrorDecoder(d Decoder) func(*Request) {
	return func(r *Request) {
		r.errorDecoder = d
	}
}

// Timeout overrides the client timeout for this request.
func Timeout(t time.Duration) func(*Request) {
	return func(r *Request) {
		r.timeout = t
	}
}
