package main

import (
	"net/http"

	"notifyr-gateway/internal/config"
	"notifyr-gateway/internal/gateway"
	"notifyr-gateway/internal/telephony"

	"github.com/gin-gonic/gin"
)

func registerRoutes(r *gin.Engine, h gateway.Handler, cfg config.Config) {
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// Everything the provider posts is signature-checked; with no auth token
	// configured the middleware passes requests through.
	webhooks := r.Group("/twilio", telephony.RequireValidSignature(cfg.Twilio.AuthToken))
	webhooks.POST("/voice", h.HandleVoice)
	webhooks.POST("/sms", h.HandleSms)
	webhooks.POST("/status", h.HandleStatus)
	r.POST(gateway.GatherRoute, telephony.RequireValidSignature(cfg.Twilio.AuthToken), h.HandleGather)
}
