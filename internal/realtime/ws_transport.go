package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"voice-faq-be/internal/pkg/logger"

	"github.com/gorilla/websocket"
)

const wsMessageBuffer = 64

// WebSocketURL turns the provider's HTTP base URL into its realtime
// websocket endpoint.
func WebSocketURL(baseURL, model string) (string, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/") + "/realtime")
	if err != nil {
		return "", err
	}
	switch u.Scheme {
	case "https", "wss":
		u.Scheme = "wss"
	case "http", "ws":
		u.Scheme = "ws"
	default:
		return "", fmt.Errorf("unsupported provider scheme %q", u.Scheme)
	}
	q := u.Query()
	q.Set("model", model)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// WebSocketControl is a ControlChannel over the provider's realtime websocket.
// It carries events only; no audio flows through it.
type WebSocketControl struct {
	conn     *websocket.Conn
	messages chan []byte
	done     chan struct{}

	writeMu   sync.Mutex
	closeOnce sync.Once
}

// DialWebSocket opens the realtime websocket with the given key.
func DialWebSocket(ctx context.Context, endpoint, key string) (*WebSocketControl, error) {
	headers := make(http.Header)
	headers.Set("Authorization", "Bearer "+key)
	headers.Set("OpenAI-Beta", "realtime=v1")

	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, endpoint, headers)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("websocket dial failed (status %d): %w", resp.StatusCode, err)
		}
		return nil, err
	}

	c := &WebSocketControl{
		conn:     conn,
		messages: make(chan []byte, wsMessageBuffer),
		done:     make(chan struct{}),
	}
	go c.readLoop()
	return c, nil
}

func (c *WebSocketControl) readLoop() {
	defer close(c.messages)
	for {
		messageType, data, err := c.conn.ReadMessage()
		if err != nil {
			return
		}
		if messageType != websocket.TextMessage {
			continue
		}
		select {
		case c.messages <- data:
		case <-c.done:
			return
		}
	}
}

func (c *WebSocketControl) Send(data []byte) error {
	select {
	case <-c.done:
		return ErrSessionClosed
	default:
	}
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.conn.WriteMessage(websocket.TextMessage, data)
}

func (c *WebSocketControl) Messages() <-chan []byte {
	return c.messages
}

func (c *WebSocketControl) Close() error {
	var err error
	c.closeOnce.Do(func() {
		close(c.done)
		c.writeMu.Lock()
		_ = c.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(2*time.Second))
		c.writeMu.Unlock()
		err = c.conn.Close()
	})
	return err
}

// ToolDeclaration describes the single FAQ function offered to the model.
type ToolDeclaration struct {
	Name        string
	Description string
	Argument    string
}

// NewSessionUpdate declares the FAQ tool on a websocket session. WebRTC
// sessions get the same declaration from the backend when the credential is
// minted.
func NewSessionUpdate(tool ToolDeclaration, instructions string) ([]byte, error) {
	type property struct {
		Type        string `json:"type"`
		Description string `json:"description"`
	}
	type parameters struct {
		Type       string              `json:"type"`
		Properties map[string]property `json:"properties"`
		Required   []string            `json:"required"`
	}
	type function struct {
		Type        string     `json:"type"`
		Name        string     `json:"name"`
		Description string     `json:"description"`
		Parameters  parameters `json:"parameters"`
	}

	evt := map[string]interface{}{
		"type": EventSessionUpdate,
		"session": map[string]interface{}{
			"modalities":   []string{"text", "audio"},
			"instructions": instructions,
			"tools": []function{{
				Type:        "function",
				Name:        tool.Name,
				Description: tool.Description,
				Parameters: parameters{
					Type:       "object",
					Properties: map[string]property{tool.Argument: {Type: "string", Description: "La pregunta del usuario"}},
					Required:   []string{tool.Argument},
				},
			}},
			"tool_choice": "auto",
		},
	}
	return json.Marshal(evt)
}

// NewUserText adds a typed user turn and asks for a response.
func NewUserText(text string) ([][]byte, error) {
	item := map[string]interface{}{
		"type": "conversation.item.create",
		"item": map[string]interface{}{
			"type":    "message",
			"role":    "user",
			"content": []map[string]string{{"type": "input_text", "text": text}},
		},
	}
	first, err := json.Marshal(item)
	if err != nil {
		return nil, err
	}
	second, err := json.Marshal(map[string]string{"type": EventResponseCreate})
	if err != nil {
		return nil, err
	}
	return [][]byte{first, second}, nil
}

type WebSocketConfig struct {
	Credentials   CredentialSource
	Endpoint      string
	SessionUpdate []byte
	// Timeout bounds credential and dial; zero means 15s.
	Timeout time.Duration
	Logger  logger.ILogger
}

// ConnectWebSocket establishes s over the realtime websocket instead of
// WebRTC. The session has a control channel but no peer or sink.
func ConnectWebSocket(ctx context.Context, s *Session, cfg WebSocketConfig) error {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	log := cfg.Logger
	if log == nil {
		log = logger.NewNopLogger()
	}

	if err := s.beginNegotiation(); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, cfg.Timeout)
	defer cancel()

	credential, err := cfg.Credentials.FetchCredential(ctx)
	if err != nil {
		var cerr *CredentialError
		if !errors.As(err, &cerr) {
			err = &CredentialError{Err: err}
		}
		return err
	}
	s.setCredential(credential)

	control, err := DialWebSocket(ctx, cfg.Endpoint, credential)
	if err != nil {
		return &NegotiationError{Stage: "websocket-dial", Err: err}
	}
	s.attachTransport(nil, control, nil)

	if len(cfg.SessionUpdate) > 0 {
		if err := control.Send(cfg.SessionUpdate); err != nil {
			return &NegotiationError{Stage: "session-update", Err: err}
		}
	}

	if err := s.markConnected(""); err != nil {
		return &NegotiationError{Stage: "state", Err: err}
	}
	log.Info("WebSocketTransport", "Session connected", map[string]interface{}{"session_id": s.ID})
	return nil
}
