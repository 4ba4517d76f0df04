package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func (a *API) getHello(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"greeting": "hola"})
}
