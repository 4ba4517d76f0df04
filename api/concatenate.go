package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// getConcatenate treats a missing cad1 or cad2 as the empty string.
func (a *API) getConcatenate(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"concatenation": c.Query("cad1") + c.Query("cad2"),
	})
}
