package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	model2 "github.com/limpehfi/limpeh/api/model"
	"github.com/limpehfi/limpeh/internal/apierror"
)

func (a Api) GetWalletSession(c *gin.Context) {
	sessionID := c.Param("session_id")

	session, err := a.limpeh.GetWalletSession(c.Request.Context(), sessionID)
	if err != nil {
		c.JSON(apierror.MapErrorToHTTPStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, session)
}

func (a Api) ConnectWallet(c *gin.Context) {
	sessionID := c.Param("session_id")

	var payload model2.ConnectWallet
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := payload.ValidateConnectWallet(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"errors": err.Error()})
		return
	}

	session, err := a.limpeh.ConnectWallet(c.Request.Context(), sessionID, payload.Address, payload.ChainID)
	if err != nil {
		c.JSON(apierror.MapErrorToHTTPStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, session)
}

func (a Api) DisconnectWallet(c *gin.Context) {
	sessionID := c.Param("session_id")

	session, err := a.limpeh.DisconnectWallet(c.Request.Context(), sessionID)
	if err != nil {
		c.JSON(apierror.MapErrorToHTTPStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, session)
}

func (a Api) SwitchNetwork(c *gin.Context) {
	sessionID := c.Param("session_id")

	var payload model2.SwitchNetwork
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := payload.ValidateSwitchNetwork(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"errors": err.Error()})
		return
	}

	session, err := a.limpeh.SwitchNetwork(c.Request.Context(), sessionID, payload.ChainID)
	if err != nil {
		c.JSON(apierror.MapErrorToHTTPStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, session)
}

func (a Api) AccountsChanged(c *gin.Context) {
	sessionID := c.Param("session_id")

	var payload model2.AccountsChanged
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := payload.ValidateAccountsChanged(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"errors": err.Error()})
		return
	}

	session, err := a.limpeh.HandleAccountsChanged(c.Request.Context(), sessionID, payload.Addresses, payload.Seq)
	if err != nil {
		c.JSON(apierror.MapErrorToHTTPStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, session)
}

func (a Api) ChainChanged(c *gin.Context) {
	sessionID := c.Param("session_id")

	var payload model2.ChainChanged
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := payload.ValidateChainChanged(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"errors": err.Error()})
		return
	}

	session, err := a.limpeh.HandleChainChanged(c.Request.Context(), sessionID, payload.ChainID, payload.Seq)
	if err != nil {
		c.JSON(apierror.MapErrorToHTTPStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, session)
}
