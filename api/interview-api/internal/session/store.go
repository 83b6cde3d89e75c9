// Copyright (c) 2024-2026 InterviaAI
// Author: Jisoo Han <jisoo@intervia.ai>
//
// Licensed under GPL-2.0 with Intervia Additional Terms.
// See LICENSE.md or contact sales@intervia.ai for commercial usage.
package internal_session

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	internal_type "github.com/interviaai/api/interview-api/internal/type"
	"github.com/interviaai/pkg/commons"
	"github.com/interviaai/pkg/connectors"
)

// Interview session row status constants.
const (
	StatusPending   = "pending"   // created, waiting for the user to start
	StatusRecording = "recording" // state machine running
	StatusCompleted = "completed" // all segments finalized
	StatusSubmitted = "submitted" // mock mode: upload acknowledged
	StatusFailed    = "failed"    // mock mode: upload failed
	StatusAbandoned = "abandoned" // aborted before completion
)

// InterviewSession is the persisted record of one session. The row is never
// deleted during the session lifecycle; it only moves through statuses, so
// late readers (result polling, analytics) can always resolve the id.
type InterviewSession struct {
	Id            uint64    `json:"id" gorm:"type:bigint;primaryKey;autoIncrement;<-:create"`
	SessionID     string    `json:"sessionId" gorm:"column:session_id;type:varchar(36);not null;uniqueIndex"`
	Status        string    `json:"status" gorm:"column:status;type:varchar(20);not null;default:pending"`
	UserID        string    `json:"userId" gorm:"column:user_id;type:varchar(64);not null"`
	ResumeID      uint64    `json:"resumeId" gorm:"column:resume_id;type:bigint;not null;default:0"`
	JobCode       string    `json:"jobCode" gorm:"column:job_code;type:varchar(20);not null;default:''"`
	Company       string    `json:"company" gorm:"column:company;type:varchar(200);not null;default:''"`
	ResumeTitle   string    `json:"resumeTitle" gorm:"column:resume_title;type:varchar(200);not null;default:''"`
	Mode          string    `json:"mode" gorm:"column:mode;type:varchar(20);not null"`
	QuestionCount int       `json:"questionCount" gorm:"column:question_count;type:int;not null"`
	CreatedDate   time.Time `json:"createdDate" gorm:"type:timestamp;not null;<-:create"`
	UpdatedDate   time.Time `json:"updatedDate" gorm:"type:timestamp;default:null"`
}

func (InterviewSession) TableName() string {
	return "interview_sessions"
}

func (s *InterviewSession) BeforeCreate(tx *gorm.DB) (err error) {
	if s.CreatedDate.IsZero() {
		s.CreatedDate = time.Now()
	}
	return nil
}

// Store persists interview session records.
type Store interface {
	// Save stores a session row with a generated sessionId (UUID) and
	// returns the generated id.
	Save(ctx context.Context, session *InterviewSession) (string, error)

	// Get retrieves a session row by sessionId regardless of status.
	Get(ctx context.Context, sessionID string) (*InterviewSession, error)

	// Begin atomically transitions pending → recording. Only one caller can
	// win; a second start attempt finds the row no longer pending.
	Begin(ctx context.Context, sessionID string) error

	// Complete marks the session completed once all segments exist.
	Complete(ctx context.Context, sessionID string) error

	// Finish records the upload outcome for a completed mock session.
	Finish(ctx context.Context, sessionID string, succeeded bool) error

	// Abandon marks a session aborted before completion.
	Abandon(ctx context.Context, sessionID string) error
}

type sqlStore struct {
	sql    connectors.SQLConnector
	logger commons.Logger
}

// NewStore creates a session store backed by the relational connector.
func NewStore(sql connectors.SQLConnector, logger commons.Logger) Store {
	return &sqlStore{sql: sql, logger: logger}
}

// Migrate creates the interview_sessions table.
func Migrate(ctx context.Context, sql connectors.SQLConnector) error {
	return sql.DB(ctx).AutoMigrate(&InterviewSession{})
}

func (s *sqlStore) Save(ctx context.Context, session *InterviewSession) (string, error) {
	if session.SessionID == "" {
		session.SessionID = uuid.New().String()
	}
	if session.Status == "" {
		session.Status = StatusPending
	}

	db := s.sql.DB(ctx)
	if err := db.Create(session).Error; err != nil {
		return "", fmt.Errorf("failed to save interview session %s: %w", session.SessionID, err)
	}

	s.logger.Infof("saved interview session: sessionId=%s, user=%s, mode=%s, questions=%d",
		session.SessionID, session.UserID, session.Mode, session.QuestionCount)
	return session.SessionID, nil
}

func (s *sqlStore) Get(ctx context.Context, sessionID string) (*InterviewSession, error) {
	db := s.sql.DB(ctx)
	var session InterviewSession
	if err := db.Where("session_id = ?", sessionID).First(&session).Error; err != nil {
		return nil, fmt.Errorf("%w: %s", internal_type.ErrSessionNotFound, sessionID)
	}
	return &session, nil
}

func (s *sqlStore) Begin(ctx context.Context, sessionID string) error {
	return s.transition(ctx, sessionID, []string{StatusPending}, StatusRecording)
}

func (s *sqlStore) Complete(ctx context.Context, sessionID string) error {
	return s.transition(ctx, sessionID, []string{StatusRecording}, StatusCompleted)
}

func (s *sqlStore) Finish(ctx context.Context, sessionID string, succeeded bool) error {
	status := StatusSubmitted
	if !succeeded {
		status = StatusFailed
	}
	return s.transition(ctx, sessionID, []string{StatusCompleted}, status)
}

func (s *sqlStore) Abandon(ctx context.Context, sessionID string) error {
	return s.transition(ctx, sessionID, []string{StatusPending, StatusRecording}, StatusAbandoned)
}

// transition performs an atomic UPDATE ... WHERE status IN (from). Zero
// affected rows means the row was not in an eligible status.
func (s *sqlStore) transition(ctx context.Context, sessionID string, from []string, to string) error {
	db := s.sql.DB(ctx)
	result := db.Model(&InterviewSession{}).
		Where("session_id = ? AND status IN ?", sessionID, from).
		Updates(map[string]interface{}{
			"status":       to,
			"updated_date": time.Now(),
		})

	if result.Error != nil {
		return fmt.Errorf("failed to transition interview session %s to %s: %w", sessionID, to, result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("interview session %s not found or not eligible for %s", sessionID, to)
	}

	s.logger.Debugf("interview session transition: sessionId=%s -> %s", sessionID, to)
	return nil
}
