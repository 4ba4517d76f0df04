package api

import (
	"math/big"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/circleci/restclass/o11y"
)

type calculateResponse struct {
	Result *big.Int `json:"result"`
}

func (a *API) getCalculatePath(c *gin.Context) {
	a.calculate(c, c.Param("num"))
}

func (a *API) getCalculateQuery(c *gin.Context) {
	num, ok := c.GetQuery("num")
	if !ok {
		abort(c, &Error{Code: http.StatusBadRequest, Description: DescMissingNumber})
		return
	}
	a.calculate(c, num)
}

func (a *API) calculate(c *gin.Context, raw string) {
	n, ok := parseInt(raw)
	if !ok {
		abort(c, &Error{Code: http.StatusBadRequest, Description: DescInvalidNumber})
		return
	}
	square := new(big.Int).Mul(n, n)
	o11y.AddField(c.Request.Context(), "square_digits", len(square.String()))

	c.JSON(http.StatusOK, calculateResponse{Result: square})
}

// parseInt accepts a base 10 integer of any size, with an optional sign and
// surrounding whitespace. Single underscores may group digits, as in 1_000.
func parseInt(raw string) (*big.Int, bool) {
	s := strings.TrimSpace(raw)
	digits := s
	if strings.HasPrefix(s, "+") || strings.HasPrefix(s, "-") {
		digits = s[1:]
	}
	if digits == "" ||
		strings.HasPrefix(digits, "_") ||
		strings.HasSuffix(digits, "_") ||
		strings.Contains(digits, "__") {
		return nil, false
	}
	return new(big.Int).SetString(strings.ReplaceAll(s, "_", ""), 10)
}
