package api

import (
	"fmt"

	"github.com/limpehfi/limpeh/config"

	"github.com/limpehfi/limpeh/api/middleware"

	"github.com/gin-gonic/gin"
	"github.com/limpehfi/limpeh"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

type Api struct {
	limpeh *limpeh.Limpeh
	router *gin.Engine
}

func (a Api) Router() *gin.Engine {
	router := a.router

	router.GET("/accounts/:address", a.GetAccount)
	router.POST("/accounts/:address/refresh", a.RefreshAccount)

	router.GET("/verification/:session_id", a.GetVerificationSession)
	router.POST("/verification/:session_id/start", a.StartVerification)
	router.POST("/verification/:session_id/verify", a.SubmitProof)
	router.DELETE("/verification/:session_id", a.ResetVerification)

	router.GET("/wallet/:session_id", a.GetWalletSession)
	router.POST("/wallet/:session_id/connect", a.ConnectWallet)
	router.POST("/wallet/:session_id/disconnect", a.DisconnectWallet)
	router.POST("/wallet/:session_id/switch-network", a.SwitchNetwork)
	router.POST("/wallet/:session_id/events/accounts-changed", a.AccountsChanged)
	router.POST("/wallet/:session_id/events/chain-changed", a.ChainChanged)

	router.POST("/loans/borrow", a.Borrow)
	router.POST("/loans/repay", a.Repay)
	router.GET("/allowances/:allowance_id", a.GetPendingAllowance)

	return a.router
}

func NewAPI(l *limpeh.Limpeh) *Api {
	gin.SetMode(gin.ReleaseMode)
	conf, err := config.Fetch()
	if err != nil {
		return nil
	}
	r := gin.Default()
	r.Use(otelgin.Middleware(conf.ProjectName))
	r.Use(middleware.RateLimitMiddleware(conf))
	if conf.Server.Secure {
		r.Use(middleware.SecretKeyAuthMiddleware())
	}

	r.GET("/", func(c *gin.Context) {
		c.JSON(200, "server running...")
	})

	r.POST("/webhook", func(c *gin.Context) {
		var payload map[string]interface{}
		err := c.Bind(&payload)
		if err != nil {
			fmt.Println(err)
			return
		}
		fmt.Println(payload)
		c.JSON(200, "webhook received")
	})

	return &Api{limpeh: l, router: r}
}
