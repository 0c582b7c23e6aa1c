package realtime

import (
	"context"
	"errors"
	"sync"

	"voice-faq-be/internal/pkg/logger"
)

type HandlerState string

const (
	HandlerIdle          HandlerState = "idle"
	HandlerAwaitingEvent HandlerState = "awaiting-event"
	HandlerDispatching   HandlerState = "dispatching"
)

// ControlHandler watches a Session's control channel for completed function
// calls, resolves them through the backend and forces a spoken response.
// No error it meets ever closes the channel or the transport.
type ControlHandler struct {
	session    *Session
	dispatcher FunctionDispatcher
	fallback   string
	logger     logger.ILogger

	mu       sync.Mutex
	serving  bool
	inFlight int
	wg       sync.WaitGroup
}

func NewControlHandler(session *Session, dispatcher FunctionDispatcher, fallbackAnswer string, log logger.ILogger) *ControlHandler {
	if log == nil {
		log = logger.NewNopLogger()
	}
	return &ControlHandler{
		session:    session,
		dispatcher: dispatcher,
		fallback:   fallbackAnswer,
		logger:     log,
	}
}

// State is dispatching while any message is being processed, awaiting-event
// while Serve runs and idle otherwise.
func (h *ControlHandler) State() HandlerState {
	h.mu.Lock()
	defer h.mu.Unlock()
	switch {
	case h.inFlight > 0:
		return HandlerDispatching
	case h.serving:
		return HandlerAwaitingEvent
	default:
		return HandlerIdle
	}
}

// Serve processes every message of the session's control channel as its own
// task until the channel closes or ctx is done, then waits for in-flight
// tasks.
func (h *ControlHandler) Serve(ctx context.Context) error {
	control := h.session.Control()
	if control == nil {
		return errors.New("session has no control channel")
	}

	h.setServing(true)
	defer func() {
		h.wg.Wait()
		h.setServing(false)
	}()

	messages := control.Messages()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case data, ok := <-messages:
			if !ok {
				return nil
			}
			h.wg.Add(1)
			go func() {
				defer h.wg.Done()
				_ = h.HandleMessage(ctx, data)
			}()
		}
	}
}

// HandleMessage runs the whole protocol for one inbound message. The returned
// error is informational: it has already been logged.
func (h *ControlHandler) HandleMessage(ctx context.Context, data []byte) error {
	evt, err := DecodeControlEvent(data)
	if err != nil {
		h.logger.Warn("ControlHandler", "Dropping malformed control message", map[string]interface{}{"error": err.Error()})
		return err
	}

	req, ok, err := evt.FunctionCall()
	if err != nil {
		h.logger.Warn("ControlHandler", "Dropping function call with unreadable arguments", map[string]interface{}{"error": err.Error()})
		return err
	}
	if !ok {
		return nil
	}

	h.begin()
	defer h.end()

	h.logger.Info("ControlHandler", "Function call received", map[string]interface{}{
		"session_id": h.session.ID,
		"name":       req.Name,
		"call_id":    req.CallID,
	})

	answer, dispatchErr := h.resolve(ctx, *req)
	if dispatchErr != nil {
		h.logger.Error("ControlHandler", "Dispatch failed, speaking fallback", map[string]interface{}{
			"call_id": req.CallID,
			"error":   dispatchErr.Error(),
		})
		answer = h.fallback
	}

	if err := h.speak(answer); err != nil {
		h.logger.Error("ControlHandler", "Failed to send response.create", map[string]interface{}{"call_id": req.CallID, "error": err.Error()})
		return err
	}
	return dispatchErr
}

func (h *ControlHandler) resolve(ctx context.Context, req FunctionCallRequest) (string, error) {
	res, err := h.dispatcher.Dispatch(ctx, req)
	if err != nil {
		var derr *DispatchError
		if !errors.As(err, &derr) {
			err = &DispatchError{Err: err}
		}
		return "", err
	}

	if res.Item.CallID != req.CallID {
		h.logger.Warn("ControlHandler", "Backend returned a different call_id", map[string]interface{}{
			"sent":     req.CallID,
			"received": res.Item.CallID,
		})
	}

	answer, err := res.Answer()
	if err != nil {
		return "", &DispatchError{Message: "undecodable function output", Err: err}
	}
	return answer, nil
}

func (h *ControlHandler) speak(answer string) error {
	control := h.session.Control()
	if control == nil {
		return errors.New("session has no control channel")
	}
	msg, err := NewResponseCreate(answer)
	if err != nil {
		return err
	}
	return control.Send(msg)
}

func (h *ControlHandler) setServing(v bool) {
	h.mu.Lock()
	h.serving = v
	h.mu.Unlock()
}

func (h *ControlHandler) begin() {
	h.mu.Lock()
	h.inFlight++
	h.mu.Unlock()
}

func (h *ControlHandler) end() {
	h.mu.Lock()
	h.inFlight--
	h.mu.Unlock()
}
