package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type optionsResponse struct {
	APIMethods map[string]string `json:"api_methods"`
	Errors     map[string]string `json:"errors"`
}

// options documents the common REST methods, and the errors this API can return.
var options = optionsResponse{
	APIMethods: map[string]string{
		http.MethodGet:    "return the information",
		http.MethodPost:   "create a resource",
		http.MethodDelete: "delete some information",
		http.MethodPut:    "update some information",
	},
	Errors: map[string]string{
		"Error 400": http.StatusText(http.StatusBadRequest),
		"Error 404": http.StatusText(http.StatusNotFound),
		"Error 405": http.StatusText(http.StatusMethodNotAllowed),
		"Error 500": http.StatusText(http.StatusInternalServerError),
	},
}

func (a *API) getOptions(c *gin.Context) {
	c.JSON(http.StatusOK, options)
}
