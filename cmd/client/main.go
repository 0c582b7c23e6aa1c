package main

import (
	"bufio"
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"voice-faq-be/internal/config"
	"voice-faq-be/internal/pkg/logger"
	"voice-faq-be/internal/realtime"
)

// Headless realtime client: negotiates a voice session through the backend
// and answers the model's FAQ function calls.
func main() {
	cfg := config.Load()
	appLogger := logger.NewZapLogger(cfg.Client.LogFilePath, cfg.App.Environment == "production")
	defer appLogger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	backend := realtime.NewBackendClient(cfg.Client.BackendURL, cfg.Provider.Timeout)

	var (
		session *realtime.Session
		err     error
	)
	switch cfg.Client.Transport {
	case "websocket":
		session, err = connectWebSocket(ctx, cfg, backend, appLogger)
	case "webrtc":
		session, err = connectWebRTC(ctx, cfg, backend, appLogger)
	default:
		log.Fatalf("Unknown CLIENT_TRANSPORT %q", cfg.Client.Transport)
	}
	if err != nil {
		var merr *realtime.MediaAccessError
		if errors.As(err, &merr) {
			log.Fatalf("Cannot open the microphone input: %v", err)
		}
		log.Fatalf("Unable to establish the realtime session: %v", err)
	}
	defer session.Close()

	handler := realtime.NewControlHandler(session, backend, cfg.Function.FallbackAnswer, appLogger)

	if cfg.Client.Transport == "websocket" {
		go readTypedQuestions(ctx, session, appLogger)
	}

	appLogger.Info("Client", "Session ready, waiting for function calls", map[string]interface{}{
		"session_id": session.ID,
		"transport":  cfg.Client.Transport,
	})
	if err := handler.Serve(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Printf("Control channel stopped: %v", err)
	}
}

func connectWebRTC(ctx context.Context, cfg *config.Config, backend *realtime.BackendClient, log logger.ILogger) (*realtime.Session, error) {
	var audio realtime.AudioInput = realtime.NewSilenceInput()
	if cfg.Client.MicOggFile != "" {
		audio = realtime.NewOggFileInput(cfg.Client.MicOggFile, log)
	}

	negotiator := realtime.NewNegotiator(realtime.NegotiatorConfig{
		Credentials: backend,
		Audio:       audio,
		SDP:         realtime.NewHTTPSDPExchanger(cfg.Provider.BaseURL, cfg.Provider.Model, cfg.Client.HandshakeTimeout),
		NewPeer: func() (realtime.PeerConnection, error) {
			return realtime.NewPionPeer(nil)
		},
		NewSink: func() (realtime.AudioSink, error) {
			return realtime.NewOggRecorder(cfg.Client.SpeakerOggFile, log)
		},
		Timeout: cfg.Client.HandshakeTimeout,
		Logger:  log,
	})

	session, err := negotiator.Establish(ctx)
	if err != nil {
		_ = session.Close()
		return nil, err
	}
	return session, nil
}

func connectWebSocket(ctx context.Context, cfg *config.Config, backend *realtime.BackendClient, log logger.ILogger) (*realtime.Session, error) {
	endpoint, err := realtime.WebSocketURL(cfg.Provider.BaseURL, cfg.Provider.Model)
	if err != nil {
		return nil, err
	}
	update, err := realtime.NewSessionUpdate(realtime.ToolDeclaration{
		Name:        cfg.Function.Name,
		Description: cfg.Function.Description,
		Argument:    cfg.Function.Argument,
	}, cfg.Provider.Instructions)
	if err != nil {
		return nil, err
	}

	session := realtime.NewSession()
	err = realtime.ConnectWebSocket(ctx, session, realtime.WebSocketConfig{
		Credentials:   backend,
		Endpoint:      endpoint,
		SessionUpdate: update,
		Timeout:       cfg.Client.HandshakeTimeout,
		Logger:        log,
	})
	if err != nil {
		_ = session.Close()
		return nil, err
	}
	return session, nil
}

// readTypedQuestions turns stdin lines into user turns on websocket sessions.
func readTypedQuestions(ctx context.Context, session *realtime.Session, log logger.ILogger) {
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		if ctx.Err() != nil {
			return
		}
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}
		frames, err := realtime.NewUserText(text)
		if err != nil {
			continue
		}
		control := session.Control()
		if control == nil {
			return
		}
		for _, frame := range frames {
			if err := control.Send(frame); err != nil {
				log.Warn("Client", "Failed to send typed question", map[string]interface{}{"error": err.Error()})
				return
			}
		}
	}
}
