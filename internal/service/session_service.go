package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"voice-faq-be/internal/config"
	"voice-faq-be/internal/dto"
	"voice-faq-be/internal/pkg/logger"
)

// ProviderError is returned when the realtime provider answered with a
// non-2xx status.
type ProviderError struct {
	StatusCode int
	Body       string
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("provider returned status %d: %s", e.StatusCode, e.Body)
}

type ISessionService interface {
	// CreateSession asks the provider for an ephemeral realtime session and
	// returns its JSON response verbatim.
	CreateSession(ctx context.Context) (json.RawMessage, error)
}

type sessionService struct {
	provider config.ProviderConfig
	function config.FunctionConfig
	client   *http.Client
	logger   logger.ILogger
}

func NewSessionService(provider config.ProviderConfig, function config.FunctionConfig, log logger.ILogger) ISessionService {
	return &sessionService{
		provider: provider,
		function: function,
		client:   &http.Client{Timeout: provider.Timeout},
		logger:   log,
	}
}

// BuildSessionRequest renders the session configuration sent to the provider.
func BuildSessionRequest(provider config.ProviderConfig, function config.FunctionConfig) dto.RealtimeSessionRequest {
	return dto.RealtimeSessionRequest{
		Model:                   provider.Model,
		Modalities:              []string{"audio", "text"},
		Voice:                   provider.Voice,
		Instructions:            provider.Instructions,
		InputAudioFormat:        provider.AudioFormat,
		OutputAudioFormat:       provider.AudioFormat,
		MaxResponseOutputTokens: provider.MaxOutputTokens,
		TurnDetection: dto.TurnDetection{
			Type:              "server_vad",
			Threshold:         provider.VADThreshold,
			PrefixPaddingMs:   provider.VADPrefixPaddingMs,
			SilenceDurationMs: provider.VADSilenceDurationMs,
			CreateResponse:    true,
		},
		Tools: []dto.FunctionToolDecl{
			{
				Type:        "function",
				Name:        function.Name,
				Description: function.Description,
				Parameters: dto.ToolParameters{
					Type: "object",
					Properties: map[string]dto.ToolProperty{
						function.Argument: {Type: "string", Description: "La pregunta del usuario"},
					},
					Required: []string{function.Argument},
				},
			},
		},
		ToolChoice: "auto",
	}
}

func (s *sessionService) CreateSession(ctx context.Context) (json.RawMessage, error) {
	body, err := json.Marshal(BuildSessionRequest(s.provider, s.function))
	if err != nil {
		return nil, fmt.Errorf("failed to marshal session request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.provider.BaseURL+"/realtime/sessions", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+s.provider.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		s.logger.Error("SessionService", "Provider unreachable", map[string]interface{}{"error": err.Error()})
		return nil, fmt.Errorf("failed to call provider: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read provider response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		s.logger.Error("SessionService", "Provider rejected session request", map[string]interface{}{
			"status": resp.StatusCode,
			"body":   string(raw),
		})
		return nil, &ProviderError{StatusCode: resp.StatusCode, Body: string(raw)}
	}

	if !json.Valid(raw) {
		return nil, fmt.Errorf("provider returned invalid JSON")
	}

	s.logger.Info("SessionService", "Realtime session created", map[string]interface{}{"model": s.provider.Model})
	return json.RawMessage(raw), nil
}
