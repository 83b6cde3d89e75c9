// Copyright (c) 2024-2026 InterviaAI
// Author: Jisoo Han <jisoo@intervia.ai>
//
// Licensed under GPL-2.0 with Intervia Additional Terms.
// See LICENSE.md or contact sales@intervia.ai for commercial usage.
package connectors

import (
	"context"
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/interviaai/pkg/commons"
	"github.com/interviaai/pkg/configs"
)

// SQLConnector hands out gorm handles bound to a request context.
type SQLConnector interface {
	DB(ctx context.Context) *gorm.DB
}

type gormConnector struct {
	db     *gorm.DB
	logger commons.Logger
}

func (c *gormConnector) DB(ctx context.Context) *gorm.DB {
	return c.db.WithContext(ctx)
}

// NewPostgresConnector opens a pooled Postgres connection for deployments.
func NewPostgresConnector(cfg configs.PostgresConfig, log commons.Logger) (SQLConnector, error) {
	dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.DbName, cfg.SslMode)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect postgres %s:%d: %w", cfg.Host, cfg.Port, err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	if cfg.MaxOpenConnection > 0 {
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConnection)
	}
	if cfg.MaxIdealConnection > 0 {
		sqlDB.SetMaxIdleConns(cfg.MaxIdealConnection)
	}

	log.Infof("connected postgres %s:%d/%s", cfg.Host, cfg.Port, cfg.DbName)
	return &gormConnector{db: db, logger: log}, nil
}

// NewSqliteConnector opens a file or in-memory sqlite database. Used for
// local development and tests; deployments use Postgres.
func NewSqliteConnector(path string, log commons.Logger) (SQLConnector, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite %s: %w", path, err)
	}
	return &gormConnector{db: db, logger: log}, nil
}
