package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	model2 "github.com/limpehfi/limpeh/api/model"
	"github.com/limpehfi/limpeh/internal/apierror"
)

func (a Api) Borrow(c *gin.Context) {
	var payload model2.LoanRequest
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := payload.ValidateLoanRequest(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"errors": err.Error()})
		return
	}

	receipt, err := a.limpeh.Borrow(c.Request.Context(), payload.SessionID, payload.Address, payload.Amount)
	if err != nil {
		c.JSON(apierror.MapErrorToHTTPStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, receipt)
}

func (a Api) Repay(c *gin.Context) {
	var payload model2.LoanRequest
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := payload.ValidateLoanRequest(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"errors": err.Error()})
		return
	}

	receipt, err := a.limpeh.Repay(c.Request.Context(), payload.SessionID, payload.Address, payload.Amount)
	if err != nil {
		c.JSON(apierror.MapErrorToHTTPStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, receipt)
}

// GetPendingAllowance surfaces an allowance left standing by a repayment that
// failed after its approval confirmed.
func (a Api) GetPendingAllowance(c *gin.Context) {
	pending, err := a.limpeh.GetPendingAllowance(c.Request.Context(), c.Param("allowance_id"))
	if err != nil {
		c.JSON(apierror.MapErrorToHTTPStatus(err), gin.H{"error": err.Error()})
		return
	}
	if pending == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "allowance not found"})
		return
	}
	c.JSON(http.StatusOK, pending)
}
