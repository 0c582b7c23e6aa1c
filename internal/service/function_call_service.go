package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"voice-faq-be/internal/dto"
	"voice-faq-be/internal/pkg/logger"
	"voice-faq-be/pkg/events"
	"voice-faq-be/pkg/knowledge"

	"github.com/google/uuid"
)

var (
	ErrUnknownFunction = errors.New("Función no reconocida")
	ErrMissingQuestion = errors.New("Falta la pregunta")
)

// questionAlias is accepted when the configured argument is absent.
const questionAlias = "question"

// LookupFailure wraps an internal knowledge lookup error. It is reported as a
// server error, never as "not found".
type LookupFailure struct {
	Err error
}

func (e *LookupFailure) Error() string {
	return fmt.Sprintf("knowledge lookup failed: %v", e.Err)
}

func (e *LookupFailure) Unwrap() error {
	return e.Err
}

type IFunctionCallService interface {
	Dispatch(ctx context.Context, req *dto.FunctionCallRequest) (*dto.FunctionCallResult, error)
}

type FunctionCallConfig struct {
	Name           string
	Argument       string
	FallbackAnswer string
}

type functionCallService struct {
	cfg       FunctionCallConfig
	lookup    knowledge.Lookup
	publisher events.Publisher
	logger    logger.ILogger
}

func NewFunctionCallService(cfg FunctionCallConfig, lookup knowledge.Lookup, publisher events.Publisher, log logger.ILogger) IFunctionCallService {
	return &functionCallService{
		cfg:       cfg,
		lookup:    lookup,
		publisher: publisher,
		logger:    log,
	}
}

func (s *functionCallService) Dispatch(ctx context.Context, req *dto.FunctionCallRequest) (*dto.FunctionCallResult, error) {
	start := time.Now()

	if req.Name != s.cfg.Name {
		s.logger.Warn("FunctionCallService", "Unknown function requested", map[string]interface{}{"name": req.Name, "call_id": req.CallId})
		s.publish(ctx, req.CallId, dispatchOutcome{rejected: true}, start)
		return nil, ErrUnknownFunction
	}

	question := s.question(req.Arguments)
	if question == "" {
		s.logger.Warn("FunctionCallService", "Function call without question", map[string]interface{}{"call_id": req.CallId})
		s.publish(ctx, req.CallId, dispatchOutcome{rejected: true}, start)
		return nil, ErrMissingQuestion
	}

	answer, err := s.lookup.Resolve(ctx, question)
	if err != nil {
		s.logger.Error("FunctionCallService", "Knowledge lookup failed", map[string]interface{}{
			"error":    err.Error(),
			"call_id":  req.CallId,
			"strategy": s.lookup.Strategy(),
		})
		s.publish(ctx, req.CallId, dispatchOutcome{failed: true}, start)
		return nil, &LookupFailure{Err: err}
	}

	// a blank answer counts as not found
	found := answer.Found && strings.TrimSpace(answer.Text) != ""
	text := answer.Text
	if !found {
		text = s.cfg.FallbackAnswer
	}

	output, err := encodeAnswer(text)
	if err != nil {
		return nil, &LookupFailure{Err: err}
	}

	s.logger.Info("FunctionCallService", "Function call resolved", map[string]interface{}{
		"call_id":  req.CallId,
		"strategy": s.lookup.Strategy(),
		"found":    found,
		"question": question,
	})
	s.publish(ctx, req.CallId, dispatchOutcome{found: found}, start)

	return &dto.FunctionCallResult{
		Type: dto.ConversationItemCreate,
		Item: dto.FunctionCallOutput{
			Type:   dto.FunctionCallOutputType,
			CallId: req.CallId,
			Output: output,
		},
	}, nil
}

// encodeAnswer renders {"respuesta": text} without HTML escaping, so answers
// containing &, < or > go out as written.
func encodeAnswer(text string) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(dto.AnswerOutput{Respuesta: text}); err != nil {
		return "", err
	}
	return strings.TrimSuffix(buf.String(), "\n"), nil
}

func (s *functionCallService) question(args map[string]interface{}) string {
	for _, key := range []string{s.cfg.Argument, questionAlias} {
		if v, ok := args[key].(string); ok {
			if q := strings.TrimSpace(v); q != "" {
				return q
			}
		}
	}
	return ""
}

type dispatchOutcome struct {
	found    bool
	failed   bool
	rejected bool
}

func (s *functionCallService) publish(ctx context.Context, callId string, outcome dispatchOutcome, start time.Time) {
	if s.publisher == nil {
		return
	}

	evt := events.BaseEvent{
		Type: events.FunctionCallDispatched,
		Data: map[string]interface{}{
			"event_id":   uuid.NewString(),
			"call_id":    callId,
			"strategy":   s.lookup.Strategy(),
			"found":      outcome.found,
			"fallback":   !outcome.found && !outcome.failed && !outcome.rejected,
			"failed":     outcome.failed,
			"rejected":   outcome.rejected,
			"latency_ms": float64(time.Since(start).Microseconds()) / 1000,
		},
		OccurredAt: time.Now(),
	}

	// publish errors are logged, never returned to the caller
	pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 2*time.Second)
	defer cancel()
	if err := s.publisher.Publish(pubCtx, evt); err != nil {
		s.logger.Warn("FunctionCallService", "Failed to publish dispatch event", map[string]interface{}{"error": err.Error()})
	}
}
