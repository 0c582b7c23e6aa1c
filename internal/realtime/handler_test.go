package realtime

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func functionCallEvent(t *testing.T, name, callID, arguments string) []byte {
	t.Helper()
	evt := map[string]interface{}{
		"type": "response.done",
		"response": map[string]interface{}{
			"output": []map[string]interface{}{{
				"type":      "function_call",
				"name":      name,
				"call_id":   callID,
				"arguments": arguments,
			}},
		},
	}
	data, err := json.Marshal(evt)
	require.NoError(t, err)
	return data
}

func connectedSession(control ControlChannel) *Session {
	s := NewSession()
	s.state = StateConnected
	s.control = control
	return s
}

type spokenEvent struct {
	Type     string `json:"type"`
	Response struct {
		Modalities []string `json:"modalities"`
		Input      []struct {
			Type    string `json:"type"`
			Role    string `json:"role"`
			Content []struct {
				Type string `json:"type"`
				Text string `json:"text"`
			} `json:"content"`
		} `json:"input"`
	} `json:"response"`
}

func decodeSpoken(t *testing.T, data []byte) spokenEvent {
	t.Helper()
	var evt spokenEvent
	require.NoError(t, json.Unmarshal(data, &evt))
	require.Len(t, evt.Response.Input, 1)
	require.Len(t, evt.Response.Input[0].Content, 1)
	return evt
}

func TestHandleMessageSpeaksAnswer(t *testing.T) {
	control := newFakeControl()
	dispatcher := &fakeDispatcher{answer: "Abrimos de 9 a 18 horas"}
	h := NewControlHandler(connectedSession(control), dispatcher, "fallback", nil)

	msg := functionCallEvent(t, "search_frequent_question", "abc123", `{"pregunta":"¿Cuál es el horario?"}`)
	require.NoError(t, h.HandleMessage(context.Background(), msg))

	received := dispatcher.Received()
	require.Len(t, received, 1)
	assert.Equal(t, "search_frequent_question", received[0].Name)
	assert.Equal(t, "abc123", received[0].CallID)
	assert.Equal(t, map[string]interface{}{"pregunta": "¿Cuál es el horario?"}, received[0].Arguments)

	sent := control.Sent()
	require.Len(t, sent, 1)
	evt := decodeSpoken(t, sent[0])
	assert.Equal(t, "response.create", evt.Type)
	assert.Equal(t, []string{"text", "audio"}, evt.Response.Modalities)
	assert.Equal(t, "message", evt.Response.Input[0].Type)
	assert.Equal(t, "assistant", evt.Response.Input[0].Role)
	assert.Equal(t, "text", evt.Response.Input[0].Content[0].Type)
	assert.Equal(t, "Abrimos de 9 a 18 horas", evt.Response.Input[0].Content[0].Text)
	assert.Equal(t, HandlerIdle, h.State())
}

func TestHandleMessageEmptyCallID(t *testing.T) {
	control := newFakeControl()
	dispatcher := &fakeDispatcher{answer: "ok"}
	h := NewControlHandler(connectedSession(control), dispatcher, "fallback", nil)

	require.NoError(t, h.HandleMessage(context.Background(), functionCallEvent(t, "search_frequent_question", "", `{"pregunta":"hola"}`)))

	received := dispatcher.Received()
	require.Len(t, received, 1)
	assert.Equal(t, "", received[0].CallID)
	assert.Len(t, control.Sent(), 1)
}

func TestHandleMessageDropsMalformedInput(t *testing.T) {
	tests := []struct {
		name string
		msg  []byte
	}{
		{name: "not json", msg: []byte("{response.done")},
		{name: "no type", msg: []byte(`{"response":{}}`)},
		{name: "bad arguments", msg: functionCallEvent(t, "search_frequent_question", "abc", `{"pregunta":`)},
		{name: "arguments not an object", msg: functionCallEvent(t, "search_frequent_question", "abc", `null`)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			control := newFakeControl()
			dispatcher := &fakeDispatcher{answer: "ok"}
			h := NewControlHandler(connectedSession(control), dispatcher, "fallback", nil)

			err := h.HandleMessage(context.Background(), tt.msg)

			var perr *ProtocolParseError
			assert.ErrorAs(t, err, &perr)
			assert.Empty(t, dispatcher.Received())
			assert.Empty(t, control.Sent())
		})
	}
}

func TestHandleMessageIgnoresOtherEvents(t *testing.T) {
	messages := []string{
		`{"type":"session.created","session":{}}`,
		`{"type":"response.audio.delta","delta":"AAAA"}`,
		`{"type":"response.done","response":{"output":[]}}`,
		`{"type":"response.done","response":{"output":[{"type":"message","content":[]}]}}`,
	}

	control := newFakeControl()
	dispatcher := &fakeDispatcher{answer: "ok"}
	h := NewControlHandler(connectedSession(control), dispatcher, "fallback", nil)

	for _, msg := range messages {
		assert.NoError(t, h.HandleMessage(context.Background(), []byte(msg)))
	}
	assert.Empty(t, dispatcher.Received())
	assert.Empty(t, control.Sent())
}

func TestHandleMessageSpeaksFallbackOnDispatchFailure(t *testing.T) {
	control := newFakeControl()
	dispatcher := &fakeDispatcher{err: &DispatchError{StatusCode: 500, Message: "Error en el servidor"}}
	h := NewControlHandler(connectedSession(control), dispatcher, "Lo siento, no tengo una respuesta.", nil)

	err := h.HandleMessage(context.Background(), functionCallEvent(t, "search_frequent_question", "abc", `{"pregunta":"x"}`))

	var derr *DispatchError
	require.ErrorAs(t, err, &derr)
	assert.Equal(t, 500, derr.StatusCode)

	sent := control.Sent()
	require.Len(t, sent, 1)
	assert.Equal(t, "Lo siento, no tengo una respuesta.", decodeSpoken(t, sent[0]).Response.Input[0].Content[0].Text)
}

func TestHandleMessageWrapsTransportFailure(t *testing.T) {
	control := newFakeControl()
	h := NewControlHandler(connectedSession(control), &fakeDispatcher{err: errBoom}, "fallback", nil)

	err := h.HandleMessage(context.Background(), functionCallEvent(t, "search_frequent_question", "abc", `{"pregunta":"x"}`))

	var derr *DispatchError
	require.ErrorAs(t, err, &derr)
	assert.ErrorIs(t, err, errBoom)
	assert.Len(t, control.Sent(), 1)
}

func TestHandleMessageToleratesCallIDMismatch(t *testing.T) {
	control := newFakeControl()
	other := "zzz"
	h := NewControlHandler(connectedSession(control), &fakeDispatcher{answer: "ok", echoID: &other}, "fallback", nil)

	require.NoError(t, h.HandleMessage(context.Background(), functionCallEvent(t, "search_frequent_question", "abc", `{"pregunta":"x"}`)))
	assert.Equal(t, "ok", decodeSpoken(t, control.Sent()[0]).Response.Input[0].Content[0].Text)
}

func TestServeHandlesMessagesConcurrently(t *testing.T) {
	control := newFakeControl()
	dispatcher := &fakeDispatcher{answer: "ok", block: make(chan struct{})}
	h := NewControlHandler(connectedSession(control), dispatcher, "fallback", nil)

	served := make(chan error, 1)
	go func() { served <- h.Serve(context.Background()) }()

	require.Eventually(t, func() bool { return h.State() == HandlerAwaitingEvent }, time.Second, 5*time.Millisecond)

	for _, id := range []string{"a", "b", "c"} {
		control.messages <- functionCallEvent(t, "search_frequent_question", id, `{"pregunta":"x"}`)
	}

	// all three are in flight at once
	require.Eventually(t, func() bool { return len(dispatcher.Received()) == 3 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, HandlerDispatching, h.State())

	close(dispatcher.block)
	close(control.messages)

	select {
	case err := <-served:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Serve did not return after the channel closed")
	}

	assert.Len(t, control.Sent(), 3)
	assert.Equal(t, HandlerIdle, h.State())
	assert.Zero(t, control.closed)
}

func TestServeStopsOnCancel(t *testing.T) {
	control := newFakeControl()
	h := NewControlHandler(connectedSession(control), &fakeDispatcher{answer: "ok"}, "fallback", nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.ErrorIs(t, h.Serve(ctx), context.Canceled)
}

func TestServeWithoutControlChannel(t *testing.T) {
	h := NewControlHandler(NewSession(), &fakeDispatcher{}, "fallback", nil)
	assert.Error(t, h.Serve(context.Background()))
}
