package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/limpehfi/limpeh/internal/apierror"
)

func (a Api) GetAccount(c *gin.Context) {
	address := c.Param("address")

	record, err := a.limpeh.GetAccount(c.Request.Context(), address, c.Query("refresh") == "true")
	if err != nil {
		c.JSON(apierror.MapErrorToHTTPStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, record)
}

// RefreshAccount drops the cached record and re-reads the contract.
func (a Api) RefreshAccount(c *gin.Context) {
	address := c.Param("address")

	a.limpeh.InvalidateAccount(c.Request.Context(), address, "explicit refresh")
	record, err := a.limpeh.GetAccount(c.Request.Context(), address, true)
	if err != nil {
		c.JSON(apierror.MapErrorToHTTPStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, record)
}
