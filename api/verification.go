package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	model2 "github.com/limpehfi/limpeh/api/model"
	"github.com/limpehfi/limpeh/internal/apierror"
)

func (a Api) GetVerificationSession(c *gin.Context) {
	sessionID := c.Param("session_id")

	session, err := a.limpeh.GetVerificationSession(c.Request.Context(), sessionID)
	if err != nil {
		c.JSON(apierror.MapErrorToHTTPStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, session)
}

func (a Api) StartVerification(c *gin.Context) {
	sessionID := c.Param("session_id")

	var payload model2.StartVerification
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := payload.ValidateStartVerification(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"errors": err.Error()})
		return
	}

	session, err := a.limpeh.StartVerification(c.Request.Context(), sessionID, payload.Address)
	if err != nil {
		c.JSON(apierror.MapErrorToHTTPStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, session)
}

func (a Api) SubmitProof(c *gin.Context) {
	sessionID := c.Param("session_id")

	var payload model2.SubmitProof
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := payload.ValidateSubmitProof(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"errors": err.Error()})
		return
	}

	session, err := a.limpeh.SubmitProof(c.Request.Context(), sessionID, payload.Address, payload.ToBundle(), payload.Signal)
	if err != nil {
		// The session carries the failure state the client should render.
		c.JSON(apierror.MapErrorToHTTPStatus(err), gin.H{"error": err.Error(), "session": session})
		return
	}
	c.JSON(http.StatusOK, session)
}

func (a Api) ResetVerification(c *gin.Context) {
	sessionID := c.Param("session_id")

	if err := a.limpeh.ResetVerification(c.Request.Context(), sessionID, "client reset"); err != nil {
		c.JSON(apierror.MapErrorToHTTPStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "verification reset"})
}
