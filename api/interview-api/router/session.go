// Copyright (c) 2024-2026 InterviaAI
// Author: Jisoo Han <jisoo@intervia.ai>
//
// Licensed under GPL-2.0 with Intervia Additional Terms.
// See LICENSE.md or contact sales@intervia.ai for commercial usage.
package interview_routers

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	sessionApi "github.com/interviaai/api/interview-api/api/session"
	internal_question "github.com/interviaai/api/interview-api/internal/question"
	internal_session "github.com/interviaai/api/interview-api/internal/session"
	"github.com/interviaai/config"
	"github.com/interviaai/pkg/commons"
	"github.com/interviaai/pkg/middlewares"
)

func SessionApiRoutes(
	cfg *config.AppConfig,
	engine *gin.Engine,
	logger commons.Logger,
	registry *internal_session.Registry,
	store internal_session.Store,
	questions internal_question.Client,
) {
	logger.Info("Internal SessionApiRoutes added to engine.")
	engine.Use(cors.New(cors.Config{
		AllowAllOrigins: true,
		AllowMethods:    []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:    []string{"Origin", "Content-Type", "Authorization"},
	}))

	api := sessionApi.NewSessionApi(cfg, logger, registry, store, questions)

	apiv1 := engine.Group("/v1/interview", middlewares.BearerAuth(cfg.Secret, logger))
	{
		apiv1.POST("/sessions", api.Create)
		apiv1.POST("/sessions/:sessionId/start", api.Start)
		apiv1.POST("/sessions/:sessionId/abort", api.Abort)
		apiv1.GET("/sessions/:sessionId/status", api.Status)
		apiv1.GET("/sessions/:sessionId/result", api.Result)
	}

	// The websocket feed is observational only; bearer headers are not
	// available on browser ws upgrades, so it is keyed by session id alone.
	ws := engine.Group("/ws/interview")
	{
		ws.GET("/sessions/:sessionId/events", api.Events)
	}
}
