package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/circleci/restclass/o11y"
)

const (
	DescNotFound = "The requested URL was not found on the server. " +
		"If you entered the URL manually please check your spelling and try again."
	DescMethodNotAllowed = "The method is not allowed for the requested URL."
	DescInternal         = "The server encountered an internal error and was unable to complete your request. " +
		"Either the server is overloaded or there is an error in the application."

	DescInvalidNumber = "You have not enter a valid number"
	DescMissingNumber = "You have not entered a number"
	DescUnknownUser   = "This user does not exist"
)

// Error is an error response, rendered as {"message": e.Error()}.
type Error struct {
	Code        int
	Description string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%d %s: %s", e.Code, http.StatusText(e.Code), e.Description)
}

// Is treats client errors as o11y warnings.
func (e *Error) Is(target error) bool {
	if o11y.IsWarningNoUnwrap(target) {
		return e.Code < http.StatusInternalServerError
	}
	return false
}

type errorResponse struct {
	Message string `json:"message"`
}

// abort records err for renderErrors and stops the handler chain.
func abort(c *gin.Context, err *Error) {
	_ = c.Error(err).SetType(gin.ErrorTypePublic)
	c.Abort()
}

// renderErrors writes the last error recorded by a handler, if nothing has been written yet.
func renderErrors(c *gin.Context) {
	c.Next()

	errs := c.Errors.ByType(gin.ErrorTypePublic)
	if len(errs) == 0 || c.Writer.Written() {
		return
	}

	err := errs.Last().Err
	apiErr := &Error{}
	if !errors.As(err, &apiErr) {
		apiErr = &Error{Code: http.StatusInternalServerError, Description: DescInternal}
	}

	ctx := c.Request.Context()
	if span := o11y.FromContext(ctx).GetSpan(ctx); span != nil {
		o11y.AddResultToSpan(span, err)
	}

	c.JSON(apiErr.Code, errorResponse{Message: apiErr.Error()})
}

func renderPanic(c *gin.Context) {
	err := &Error{Code: http.StatusInternalServerError, Description: DescInternal}
	c.AbortWithStatusJSON(err.Code, errorResponse{Message: err.Error()})
}
