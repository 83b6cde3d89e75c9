// Copyright (c) 2024-2026 InterviaAI
// Author: Jisoo Han <jisoo@intervia.ai>
//
// Licensed under GPL-2.0 with Intervia Additional Terms.
// See LICENSE.md or contact sales@intervia.ai for commercial usage.
package health_check_api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/interviaai/config"
	"github.com/interviaai/pkg/commons"
	"github.com/interviaai/pkg/connectors"
)

type healthCheckApi struct {
	cfg    *config.AppConfig
	logger commons.Logger
	sql    connectors.SQLConnector
}

// HealthCheckApi exposes liveness and readiness probes.
type HealthCheckApi interface {
	Healthz(c *gin.Context)
	Readiness(c *gin.Context)
}

func New(cfg *config.AppConfig, logger commons.Logger, sql connectors.SQLConnector) HealthCheckApi {
	return &healthCheckApi{cfg: cfg, logger: logger, sql: sql}
}

// Healthz reports process liveness only.
func (api *healthCheckApi) Healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"service": api.cfg.Name,
		"version": api.cfg.Version,
	})
}

// Readiness verifies the database is reachable before traffic is routed in.
func (api *healthCheckApi) Readiness(c *gin.Context) {
	db, err := api.sql.DB(c.Request.Context()).DB()
	if err == nil {
		err = db.PingContext(c.Request.Context())
	}
	if err != nil {
		api.logger.Errorf("readiness failed: %v", err)
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
