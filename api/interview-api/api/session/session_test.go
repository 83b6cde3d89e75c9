// Copyright (c) 2024-2026 InterviaAI
// Author: Jisoo Han <jisoo@intervia.ai>
//
// Licensed under GPL-2.0 with Intervia Additional Terms.
// See LICENSE.md or contact sales@intervia.ai for commercial usage.
package interview_session_api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	internal_question "github.com/interviaai/api/interview-api/internal/question"
	internal_session "github.com/interviaai/api/interview-api/internal/session"
	"github.com/interviaai/api/interview-api/internal/testsupport"
	internal_type "github.com/interviaai/api/interview-api/internal/type"
	internal_upload "github.com/interviaai/api/interview-api/internal/upload"
	"github.com/interviaai/config"
	"github.com/interviaai/pkg/commons"
	"github.com/interviaai/pkg/connectors"
	"github.com/interviaai/pkg/types"
)

// collaboratorServer stands in for the question and analysis services with a
// switchable health answer.
type collaboratorServer struct {
	server *httptest.Server

	mu     sync.Mutex
	health string
}

func newCollaboratorServer(t *testing.T) *collaboratorServer {
	t.Helper()
	cs := &collaboratorServer{health: "ok"}
	cs.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/v1/questions/generate":
			json.NewEncoder(w).Encode(map[string]interface{}{
				"questions": []string{"q0", "q1", "q2", "q3"},
			})
		case "/v1/analysis/health":
			cs.mu.Lock()
			health := cs.health
			cs.mu.Unlock()
			json.NewEncoder(w).Encode(map[string]string{"status": health})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(cs.server.Close)
	return cs
}

func (cs *collaboratorServer) setHealth(status string) {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	cs.health = status
}

type apiFixture struct {
	engine *gin.Engine
	sql    connectors.SQLConnector
}

func newApiFixture(t *testing.T, backend *collaboratorServer) *apiFixture {
	t.Helper()
	logger, err := commons.NewApplicationLogger(
		commons.Name("session-api-test"),
		commons.Path(t.TempDir()),
		commons.Level("error"),
	)
	require.NoError(t, err, "failed to create test logger")

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	sql, err := connectors.NewSqliteConnector(dsn, logger)
	require.NoError(t, err, "open sqlite")
	require.NoError(t, internal_session.Migrate(context.Background(), sql), "migrate")
	store := internal_session.NewStore(sql, logger)

	questions := internal_question.NewClient(logger, backend.server.URL, backend.server.URL)

	var registry *internal_session.Registry
	uploader := internal_upload.NewCoordinator(logger,
		internal_upload.Config{
			Host:    backend.server.URL,
			Cadence: time.Millisecond,
			Dwell:   10 * time.Millisecond,
		},
		internal_upload.WithProgressListener(func(sessionID string, view internal_upload.JobView) {
			registry.UploadListener()(sessionID, view)
		}),
	)
	registry = internal_session.NewRegistry(logger, store, uploader,
		internal_session.RegistryConfig{
			AnswerDuration: 500 * time.Millisecond,
			PrepDuration:   200 * time.Millisecond,
			ClockTick:      50 * time.Millisecond,
		},
		func() internal_type.MediaDevices {
			return testsupport.NewFakeMediaDevices()
		},
	)

	cfg := &config.AppConfig{
		Name:    "interview-api",
		Version: "test",
		InterviewConfig: config.InterviewConfig{
			QuestionCount: 4,
			AnswerSeconds: 30,
			PrepSeconds:   5,
		},
	}
	api := NewSessionApi(cfg, logger, registry, store, questions)

	gin.SetMode(gin.TestMode)
	engine := gin.New()
	authenticated := func(c *gin.Context) {
		c.Set(types.AuthPrincipleKey, &types.UserScope{UserId: "user-1", CurrentToken: "token"})
		c.Next()
	}
	apiv1 := engine.Group("/v1/interview", authenticated)
	{
		apiv1.POST("/sessions", api.Create)
		apiv1.POST("/sessions/:sessionId/start", api.Start)
		apiv1.GET("/sessions/:sessionId/status", api.Status)
	}

	return &apiFixture{engine: engine, sql: sql}
}

func (f *apiFixture) post(t *testing.T, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	f.engine.ServeHTTP(w, req)
	return w
}

func (f *apiFixture) sessionRows(t *testing.T) int64 {
	t.Helper()
	var count int64
	err := f.sql.DB(context.Background()).
		Model(&internal_session.InterviewSession{}).
		Count(&count).Error
	require.NoError(t, err, "count rows")
	return count
}

func TestCreateMockRefusedWhenAnalysisDegraded(t *testing.T) {
	backend := newCollaboratorServer(t)
	backend.setHealth("draining")
	f := newApiFixture(t, backend)

	w := f.post(t, "/v1/interview/sessions", `{"mode":"mock","jobCode":"BE-7","company":"Acme"}`)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, int64(0), f.sessionRows(t), "refused creation must not persist a row")
}

func TestCreatePracticeSucceedsDespiteDegradedAnalysis(t *testing.T) {
	backend := newCollaboratorServer(t)
	backend.setHealth("draining")
	f := newApiFixture(t, backend)

	w := f.post(t, "/v1/interview/sessions", `{"mode":"practice","jobCode":"BE-7","company":"Acme"}`)

	require.Equal(t, http.StatusCreated, w.Code, "body: %s", w.Body.String())
	var body struct {
		SessionID string   `json:"sessionId"`
		Mode      string   `json:"mode"`
		Questions []string `json:"questions"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.NotEmpty(t, body.SessionID)
	assert.Equal(t, "practice", body.Mode)
	assert.Len(t, body.Questions, 4)
	assert.Equal(t, int64(1), f.sessionRows(t))
}

func TestCreateMockAcceptedWhenAnalysisReady(t *testing.T) {
	backend := newCollaboratorServer(t)
	f := newApiFixture(t, backend)

	w := f.post(t, "/v1/interview/sessions", `{"mode":"mock","jobCode":"BE-7","company":"Acme"}`)

	assert.Equal(t, http.StatusCreated, w.Code, "body: %s", w.Body.String())
	assert.Equal(t, int64(1), f.sessionRows(t))
}

func TestCreateRejectsUnknownMode(t *testing.T) {
	backend := newCollaboratorServer(t)
	f := newApiFixture(t, backend)

	w := f.post(t, "/v1/interview/sessions", `{"mode":"speed-run","jobCode":"BE-7"}`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, int64(0), f.sessionRows(t))
}

func TestStartUnknownSessionReturns404(t *testing.T) {
	backend := newCollaboratorServer(t)
	f := newApiFixture(t, backend)

	w := f.post(t, "/v1/interview/sessions/missing/start", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestStartAndStatusRoundTrip(t *testing.T) {
	backend := newCollaboratorServer(t)
	f := newApiFixture(t, backend)

	w := f.post(t, "/v1/interview/sessions", `{"mode":"practice","jobCode":"BE-7"}`)
	require.Equal(t, http.StatusCreated, w.Code)
	var created struct {
		SessionID string `json:"sessionId"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))

	w = f.post(t, "/v1/interview/sessions/"+created.SessionID+"/start", "")
	require.Equal(t, http.StatusOK, w.Code, "body: %s", w.Body.String())

	// Double start conflicts on the row claim.
	w = f.post(t, "/v1/interview/sessions/"+created.SessionID+"/start", "")
	assert.Equal(t, http.StatusConflict, w.Code)

	req := httptest.NewRequest(http.MethodGet, "/v1/interview/sessions/"+created.SessionID+"/status", nil)
	status := httptest.NewRecorder()
	f.engine.ServeHTTP(status, req)
	require.Equal(t, http.StatusOK, status.Code)
	var body struct {
		Status string `json:"status"`
	}
	require.NoError(t, json.Unmarshal(status.Body.Bytes(), &body))
	assert.Equal(t, internal_session.StatusRecording, body.Status)
}
