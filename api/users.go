package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/circleci/restclass/users"
)

func (a *API) getUser(c *gin.Context) {
	id, ok := parseInt(c.Param("id"))
	if !ok {
		abort(c, &Error{Code: http.StatusBadRequest, Description: DescInvalidNumber})
		return
	}
	// a valid number too big for an id can not be a user
	if !id.IsInt64() {
		abort(c, &Error{Code: http.StatusNotFound, Description: DescUnknownUser})
		return
	}

	user, err := a.users.Lookup(c.Request.Context(), id.Int64())
	switch {
	case errors.Is(err, users.ErrNotFound):
		abort(c, &Error{Code: http.StatusNotFound, Description: DescUnknownUser})
		return
	case err != nil:
		_ = c.Error(err).SetType(gin.ErrorTypePublic)
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": user.Name})
}
