// Package api is the restclass HTTP API: a handful of small computations served as JSON.
//
// Every error the API returns, including unknown routes and disallowed methods,
// has the body {"message": "<code> <status>: <description>"}.
package api

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/circleci/restclass/httpserver/ginrouter"
	"github.com/circleci/restclass/users"
)

type API struct {
	router *gin.Engine
	users  *users.Directory
}

type Options struct {
	// Users defaults to users.Default()
	Users *users.Directory
}

func New(ctx context.Context, opts Options) *API {
	if opts.Users == nil {
		opts.Users = users.Default()
	}

	r := ginrouter.New(ctx, ginrouter.Config{
		ServerName:  "api",
		QueryParams: []string{"num", "cad1", "cad2"},
		OnPanic:     renderPanic,
	})
	r.HandleMethodNotAllowed = true
	r.Use(renderErrors)

	a := &API{
		router: r,
		users:  opts.Users,
	}

	r.GET("/options/", a.getOptions)
	r.GET("/sayhello/", a.getHello)
	r.GET("/calculate/", a.getCalculateQuery)
	r.GET("/calculate/:num", a.getCalculatePath)
	r.GET("/concatenate/", a.getConcatenate)
	r.GET("/users/:id", a.getUser)

	r.NoRoute(func(c *gin.Context) {
		abort(c, &Error{Code: http.StatusNotFound, Description: DescNotFound})
	})
	r.NoMethod(func(c *gin.Context) {
		abort(c, &Error{Code: http.StatusMethodNotAllowed, Description: DescMethodNotAllowed})
	})

	return a
}

func (a *API) Handler() http.Handler {
	return a.router
}
