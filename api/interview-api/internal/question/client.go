// Copyright (c) 2024-2026 InterviaAI
// Author: Jisoo Han <jisoo@intervia.ai>
//
// Licensed under GPL-2.0 with Intervia Additional Terms.
// See LICENSE.md or contact sales@intervia.ai for commercial usage.
package internal_question

import (
	"context"
	"fmt"

	"github.com/go-resty/resty/v2"

	internal_type "github.com/interviaai/api/interview-api/internal/type"
	"github.com/interviaai/pkg/commons"
)

// DefaultQuestions is the built-in interview set used when the question
// service cannot produce a tailored one. Sessions never fail to start for
// lack of generated questions.
var DefaultQuestions = []internal_type.Question{
	"Tell me about yourself and your background.",
	"Describe a challenging project you worked on and how you handled it.",
	"Why are you interested in this position?",
	"Where do you see yourself in five years?",
}

// GenerateRequest asks the question service for a tailored interview set.
type GenerateRequest struct {
	JobCode     string
	Company     string
	ResumeTitle string
	Count       int
}

// Client talks to the question-generation and analysis collaborator services.
type Client interface {
	// Generate returns a tailored question set, falling back to
	// DefaultQuestions when the service is unavailable or returns junk.
	Generate(ctx context.Context, req GenerateRequest) []internal_type.Question

	// AnalysisReady reports whether the analysis backend can accept mock
	// interview submissions. Mock sessions must not start against a dead
	// backend; practice sessions never call this.
	AnalysisReady(ctx context.Context) error
}

type restyClient struct {
	logger   commons.Logger
	question *resty.Client
	analysis *resty.Client
}

// ClientOption configures a Client.
type ClientOption func(*restyClient)

// WithClients overrides the HTTP clients, used by tests.
func WithClients(question, analysis *resty.Client) ClientOption {
	return func(c *restyClient) {
		c.question = question
		c.analysis = analysis
	}
}

func NewClient(logger commons.Logger, questionHost, analysisHost string, opts ...ClientOption) Client {
	c := &restyClient{
		logger:   logger,
		question: resty.New().SetBaseURL(questionHost),
		analysis: resty.New().SetBaseURL(analysisHost),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type generateResponse struct {
	Questions []string `json:"questions"`
}

func (c *restyClient) Generate(ctx context.Context, req GenerateRequest) []internal_type.Question {
	if req.Count <= 0 {
		req.Count = len(DefaultQuestions)
	}

	var body generateResponse
	resp, err := c.question.R().
		SetContext(ctx).
		SetBody(map[string]interface{}{
			"jobCode":     req.JobCode,
			"company":     req.Company,
			"resumeTitle": req.ResumeTitle,
			"count":       req.Count,
		}).
		SetResult(&body).
		Post("/v1/questions/generate")
	if err != nil {
		c.logger.Warnf("question generation unreachable, using defaults: %v", err)
		return c.defaults(req.Count)
	}
	if resp.IsError() || len(body.Questions) == 0 {
		c.logger.Warnf("question generation degraded (status=%s, questions=%d), using defaults",
			resp.Status(), len(body.Questions))
		return c.defaults(req.Count)
	}

	questions := make([]internal_type.Question, 0, req.Count)
	for _, q := range body.Questions {
		questions = append(questions, internal_type.Question(q))
		if len(questions) == req.Count {
			break
		}
	}
	// A short answer from the service is padded from the defaults so the
	// session always runs the configured question count.
	for i := 0; len(questions) < req.Count; i++ {
		questions = append(questions, DefaultQuestions[i%len(DefaultQuestions)])
	}
	return questions
}

type healthResponse struct {
	Status string `json:"status"`
}

func (c *restyClient) AnalysisReady(ctx context.Context) error {
	var body healthResponse
	resp, err := c.analysis.R().
		SetContext(ctx).
		SetResult(&body).
		Get("/v1/analysis/health")
	if err != nil {
		return fmt.Errorf("%w: %v", internal_type.ErrMockUnavailable, err)
	}
	if resp.IsError() || body.Status != "ok" {
		return fmt.Errorf("%w: backend reported status=%q http=%s",
			internal_type.ErrMockUnavailable, body.Status, resp.Status())
	}
	return nil
}

func (c *restyClient) defaults(count int) []internal_type.Question {
	questions := make([]internal_type.Question, 0, count)
	for i := 0; len(questions) < count; i++ {
		questions = append(questions, DefaultQuestions[i%len(DefaultQuestions)])
	}
	return questions
}
