// Copyright (c) 2024-2026 InterviaAI
// Author: Jisoo Han <jisoo@intervia.ai>
//
// Licensed under GPL-2.0 with Intervia Additional Terms.
// See LICENSE.md or contact sales@intervia.ai for commercial usage.
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"

	internal_device "github.com/interviaai/api/interview-api/internal/device"
	internal_question "github.com/interviaai/api/interview-api/internal/question"
	internal_session "github.com/interviaai/api/interview-api/internal/session"
	internal_type "github.com/interviaai/api/interview-api/internal/type"
	internal_upload "github.com/interviaai/api/interview-api/internal/upload"
	interview_routers "github.com/interviaai/api/interview-api/router"
	"github.com/interviaai/config"
	"github.com/interviaai/pkg/commons"
	"github.com/interviaai/pkg/connectors"
)

func main() {
	vConfig, err := config.InitConfig()
	if err != nil {
		log.Fatalf("unable to initialize config: %v", err)
	}
	cfg, err := config.GetApplicationConfig(vConfig)
	if err != nil {
		log.Fatalf("unable to read application config: %v", err)
	}

	logger, err := commons.NewApplicationLogger(
		commons.Name(cfg.Name),
		commons.Path(cfg.LogPath),
		commons.Level(cfg.LogLevel),
	)
	if err != nil {
		log.Fatalf("unable to build application logger: %v", err)
	}
	defer logger.Sync()

	postgres, err := connectors.NewPostgresConnector(cfg.PostgresConfig, logger)
	if err != nil {
		logger.Fatalf("unable to connect postgres: %v", err)
	}
	if err := internal_session.Migrate(context.Background(), postgres); err != nil {
		logger.Fatalf("unable to migrate session schema: %v", err)
	}

	store := internal_session.NewStore(postgres, logger)
	questions := internal_question.NewClient(logger, cfg.QuestionHost, cfg.AnalysisHost)

	var registry *internal_session.Registry
	uploader := internal_upload.NewCoordinator(logger,
		internal_upload.Config{
			Host:  cfg.AnalysisHost,
			Dwell: time.Duration(cfg.InterviewConfig.UploadDwellSeconds) * time.Second,
		},
		internal_upload.WithProgressListener(func(sessionID string, view internal_upload.JobView) {
			registry.UploadListener()(sessionID, view)
		}),
	)
	registry = internal_session.NewRegistry(logger, store, uploader,
		internal_session.RegistryConfig{
			AnswerDuration: time.Duration(cfg.InterviewConfig.AnswerSeconds) * time.Second,
			PrepDuration:   time.Duration(cfg.InterviewConfig.PrepSeconds) * time.Second,
		},
		func() internal_type.MediaDevices {
			return internal_device.NewSyntheticDevices(logger,
				time.Duration(cfg.InterviewConfig.ChunkSliceSeconds)*time.Second)
		},
	)

	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())
	interview_routers.HealthCheckRoutes(cfg, engine, logger, postgres)
	interview_routers.SessionApiRoutes(cfg, engine, logger, registry, store, questions)

	server := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler: engine,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Infof("%s v%s listening on %s", cfg.Name, cfg.Version, server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		logger.Info("shutdown requested, draining connections")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Fatalf("server exited: %v", err)
	}
	logger.Info("server stopped")
}
