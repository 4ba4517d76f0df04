// Package driver exercises every endpoint of a restclass server and prints what came back.
package driver

import (
	"net/http"
	"net/url"
)

// Check is a single request the driver makes. Params are sent in the query string,
// Data in a form encoded body.
type Check struct {
	Method string
	Route  string
	Params url.Values
	Data   url.Values
}

// DefaultChecks returns every GET the API supports, good and bad input alike,
// then a POST to each route to show the 405s.
func DefaultChecks() []Check {
	get := func(route string, params url.Values) Check {
		return Check{Method: http.MethodGet, Route: route, Params: params}
	}
	post := func(route string) Check {
		return Check{Method: http.MethodPost, Route: route}
	}
	concat := func(cad1, cad2 string) url.Values {
		return url.Values{"cad1": {cad1}, "cad2": {cad2}}
	}

	return []Check{
		get("/options/", nil),
		get("/sayhello/", nil),
		get("/calculate/5", nil),
		get("/calculate/prueba", nil),
		get("/calculate/", url.Values{"num": {"5"}}),
		get("/calculate/", url.Values{"num": {"prueba"}}),
		get("/concatenate/", concat("Me llamo Marcos ", " Rivera Martínez")),
		get("/concatenate/", concat("", "Rivera Martínez")),
		get("/concatenate/", concat("Me llamo Marcos ", "")),
		get("/concatenate/", concat("", "")),
		get("/users/1", nil),
		get("/users/100", nil),
		get("/users/prueba", nil),

		post("/options/"),
		post("/sayhello/"),
		post("/calculate/5"),
		post("/calculate/"),
		post("/concatenate/"),
		post("/users/1"),
	}
}
