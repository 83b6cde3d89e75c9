// Copyright (c) 2024-2026 InterviaAI
// Author: Jisoo Han <jisoo@intervia.ai>
//
// Licensed under GPL-2.0 with Intervia Additional Terms.
// See LICENSE.md or contact sales@intervia.ai for commercial usage.
package interview_session_api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	internal_question "github.com/interviaai/api/interview-api/internal/question"
	internal_session "github.com/interviaai/api/interview-api/internal/session"
	internal_type "github.com/interviaai/api/interview-api/internal/type"
	"github.com/interviaai/config"
	"github.com/interviaai/pkg/commons"
	"github.com/interviaai/pkg/types"
)

var eventUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

type sessionApi struct {
	cfg       *config.AppConfig
	logger    commons.Logger
	registry  *internal_session.Registry
	store     internal_session.Store
	questions internal_question.Client
}

// SessionApi is the HTTP surface of the interview session subsystem.
type SessionApi interface {
	Create(c *gin.Context)
	Start(c *gin.Context)
	Abort(c *gin.Context)
	Status(c *gin.Context)
	Result(c *gin.Context)
	Events(c *gin.Context)
}

func NewSessionApi(
	cfg *config.AppConfig,
	logger commons.Logger,
	registry *internal_session.Registry,
	store internal_session.Store,
	questions internal_question.Client,
) SessionApi {
	return &sessionApi{
		cfg:       cfg,
		logger:    logger,
		registry:  registry,
		store:     store,
		questions: questions,
	}
}

type createSessionRequest struct {
	Mode        string `json:"mode" binding:"required,oneof=practice mock"`
	ResumeID    uint64 `json:"resumeId"`
	JobCode     string `json:"jobCode" binding:"required"`
	Company     string `json:"company"`
	ResumeTitle string `json:"resumeTitle"`
}

// Create provisions a pending session: resolves the question set and, for
// mock interviews, gates on analysis backend readiness before anything is
// persisted.
//
// @Router /v1/interview/sessions [post]
func (api *sessionApi) Create(c *gin.Context) {
	auth, ok := types.GetAuthPrinciple(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthenticated"})
		return
	}

	var req createSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	mode := internal_type.Mode(req.Mode)
	if mode == internal_type.ModeMock {
		if err := api.questions.AnalysisReady(c.Request.Context()); err != nil {
			api.logger.Warnf("mock session refused: %v", err)
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "mock interview is temporarily unavailable"})
			return
		}
	}

	questionSet := api.questions.Generate(c.Request.Context(), internal_question.GenerateRequest{
		JobCode:     req.JobCode,
		Company:     req.Company,
		ResumeTitle: req.ResumeTitle,
		Count:       api.cfg.InterviewConfig.QuestionCount,
	})

	runtime, err := api.registry.Create(c.Request.Context(), internal_session.CreateRequest{
		UserID:      auth.UserID(),
		ResumeID:    req.ResumeID,
		JobCode:     req.JobCode,
		Company:     req.Company,
		ResumeTitle: req.ResumeTitle,
		Mode:        mode,
		Questions:   questionSet,
	})
	if err != nil {
		api.logger.Errorf("session create failed: user=%s err=%v", auth.UserID(), err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "unable to create session"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"sessionId":     runtime.SessionID,
		"mode":          string(runtime.Mode),
		"questions":     runtime.Questions,
		"answerSeconds": api.cfg.InterviewConfig.AnswerSeconds,
		"prepSeconds":   api.cfg.InterviewConfig.PrepSeconds,
	})
}

// Start claims the session and launches the state machine. Device failures
// are preconditions: the session moves to abandoned and the caller must
// create a new one after the user fixes camera or microphone access.
//
// @Router /v1/interview/sessions/:sessionId/start [post]
func (api *sessionApi) Start(c *gin.Context) {
	sessionID := c.Param("sessionId")
	if err := api.registry.Start(c.Request.Context(), sessionID); err != nil {
		switch {
		case errors.Is(err, internal_type.ErrSessionNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
		case errors.Is(err, internal_type.ErrNotStartable):
			c.JSON(http.StatusConflict, gin.H{"error": "session already started"})
		case errors.Is(err, internal_type.ErrPermissionDenied):
			c.JSON(http.StatusPreconditionFailed, gin.H{"error": "camera or microphone access denied"})
		case errors.Is(err, internal_type.ErrNoDeviceFound):
			c.JSON(http.StatusPreconditionFailed, gin.H{"error": "no capture device found"})
		case errors.Is(err, internal_type.ErrDeviceNotReady):
			c.JSON(http.StatusPreconditionFailed, gin.H{"error": "capture devices not ready"})
		default:
			api.logger.Errorf("session start failed: session=%s err=%v", sessionID, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "unable to start session"})
		}
		return
	}
	c.JSON(http.StatusOK, gin.H{"sessionId": sessionID, "status": internal_session.StatusRecording})
}

// Abort tears a running session down. Aborting a terminal session is a
// no-op so double-taps on the leave button are harmless.
//
// @Router /v1/interview/sessions/:sessionId/abort [post]
func (api *sessionApi) Abort(c *gin.Context) {
	sessionID := c.Param("sessionId")
	if err := api.registry.Abort(c.Request.Context(), sessionID); err != nil {
		if errors.Is(err, internal_type.ErrSessionNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
			return
		}
		api.logger.Errorf("session abort failed: session=%s err=%v", sessionID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "unable to abort session"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"sessionId": sessionID, "status": internal_session.StatusAbandoned})
}

// Status reports the durable row plus, while the runtime is alive, the state
// machine position and any upload job.
//
// @Router /v1/interview/sessions/:sessionId/status [get]
func (api *sessionApi) Status(c *gin.Context) {
	sessionID := c.Param("sessionId")
	row, err := api.store.Get(c.Request.Context(), sessionID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
		return
	}

	body := gin.H{
		"sessionId":     row.SessionID,
		"status":        row.Status,
		"mode":          row.Mode,
		"questionCount": row.QuestionCount,
	}
	if runtime, ok := api.registry.Get(sessionID); ok {
		phase, index := runtime.Controller.Phase()
		body["phase"] = phase.String()
		body["questionIndex"] = index
	}
	if job, ok := api.registry.Job(sessionID); ok {
		body["upload"] = job.Snapshot()
	}
	c.JSON(http.StatusOK, body)
}

// Result returns per-question segment descriptors once the session
// completed. The recordings themselves stay server-side; they are either
// uploaded for analysis (mock) or discarded with the runtime (practice).
//
// @Router /v1/interview/sessions/:sessionId/result [get]
func (api *sessionApi) Result(c *gin.Context) {
	sessionID := c.Param("sessionId")
	runtime, ok := api.registry.Get(sessionID)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
		return
	}

	phase, _ := runtime.Controller.Phase()
	if phase != internal_type.PhaseCompleted {
		c.JSON(http.StatusConflict, gin.H{"error": "session is not completed"})
		return
	}

	segments := runtime.Controller.Segments()
	descriptors := make([]gin.H, 0, len(segments))
	for _, segment := range segments {
		descriptors = append(descriptors, gin.H{
			"index":    segment.Index,
			"question": runtime.Questions[segment.Index],
			"bytes":    len(segment.Data),
			"mimeType": segment.MimeType,
		})
	}

	body := gin.H{"sessionId": sessionID, "segments": descriptors}
	if job, ok := api.registry.Job(sessionID); ok {
		body["upload"] = job.Snapshot()
	}
	c.JSON(http.StatusOK, body)
}

// Events streams the session feed over a websocket: phase changes, countdown
// ticks and upload progress. The feed is observational; dropping the socket
// never affects the session.
//
// @Router /ws/interview/sessions/:sessionId/events [get]
func (api *sessionApi) Events(c *gin.Context) {
	sessionID := c.Param("sessionId")
	runtime, ok := api.registry.Get(sessionID)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
		return
	}

	conn, err := eventUpgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		api.logger.Errorf("event feed upgrade failed: session=%s err=%v", sessionID, err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "unable to upgrade to websocket"})
		return
	}
	defer conn.Close()

	events, detach := runtime.Hub.Subscribe()
	defer detach()

	// Reader goroutine: its only job is to notice the peer going away.
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	// Current position first so late subscribers are not blind until the
	// next transition.
	phase, index := runtime.Controller.Phase()
	snapshot := internal_session.Event{
		Type:          internal_session.EventPhase,
		Phase:         phase.String(),
		QuestionIndex: index,
	}
	if err := conn.WriteJSON(snapshot); err != nil {
		return
	}

	for {
		select {
		case event, ok := <-events:
			if !ok {
				return
			}
			if err := conn.WriteJSON(event); err != nil {
				return
			}
		case <-closed:
			return
		}
	}
}
