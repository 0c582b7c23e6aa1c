package realtime

import (
	"encoding/json"
	"errors"
)

const (
	EventResponseDone   = "response.done"
	EventResponseCreate = "response.create"
	EventSessionUpdate  = "session.update"

	outputFunctionCall = "function_call"
)

// ControlEvent is one JSON message on the control channel. Payload keeps the
// whole message so kind-specific fields can be decoded lazily.
type ControlEvent struct {
	Type    string
	Payload json.RawMessage
}

// DecodeControlEvent parses one inbound message.
func DecodeControlEvent(data []byte) (ControlEvent, error) {
	var head struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return ControlEvent{}, &ProtocolParseError{Reason: "control message is not JSON", Err: err}
	}
	if head.Type == "" {
		return ControlEvent{}, &ProtocolParseError{Reason: "control message without type", Err: errors.New("missing type")}
	}
	return ControlEvent{Type: head.Type, Payload: json.RawMessage(data)}, nil
}

// FunctionCallRequest is what the model asked for, with arguments decoded.
type FunctionCallRequest struct {
	Name      string                 `json:"name"`
	Arguments map[string]interface{} `json:"arguments"`
	CallID    string                 `json:"call_id"`
}

type responseDone struct {
	Response struct {
		Output []struct {
			Type      string `json:"type"`
			Name      string `json:"name"`
			CallID    string `json:"call_id"`
			Arguments string `json:"arguments"`
		} `json:"output"`
	} `json:"response"`
}

// FunctionCall reports whether the event is a completed response whose first
// output item is a function call. Any other event yields ok == false and no
// error.
func (e ControlEvent) FunctionCall() (req *FunctionCallRequest, ok bool, err error) {
	if e.Type != EventResponseDone {
		return nil, false, nil
	}

	var done responseDone
	if err := json.Unmarshal(e.Payload, &done); err != nil {
		return nil, false, &ProtocolParseError{Reason: "response.done body", Err: err}
	}
	if len(done.Response.Output) == 0 || done.Response.Output[0].Type != outputFunctionCall {
		return nil, false, nil
	}

	item := done.Response.Output[0]
	var args map[string]interface{}
	if err := json.Unmarshal([]byte(item.Arguments), &args); err != nil {
		return nil, true, &ProtocolParseError{Reason: "function call arguments", Err: err}
	}
	if args == nil {
		return nil, true, &ProtocolParseError{Reason: "function call arguments", Err: errors.New("arguments are not an object")}
	}

	return &FunctionCallRequest{Name: item.Name, Arguments: args, CallID: item.CallID}, true, nil
}

// FunctionCallResult mirrors the backend's conversation.item.create envelope.
type FunctionCallResult struct {
	Type string `json:"type"`
	Item struct {
		Type   string `json:"type"`
		CallID string `json:"call_id"`
		Output string `json:"output"`
	} `json:"item"`
}

// Answer decodes the {"respuesta": ...} output string.
func (r FunctionCallResult) Answer() (string, error) {
	var out struct {
		Respuesta *string `json:"respuesta"`
	}
	if err := json.Unmarshal([]byte(r.Item.Output), &out); err != nil {
		return "", err
	}
	if out.Respuesta == nil {
		return "", errors.New("output has no respuesta")
	}
	return *out.Respuesta, nil
}

type contentPart struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type inputMessage struct {
	Type    string        `json:"type"`
	Role    string        `json:"role"`
	Content []contentPart `json:"content"`
}

type responseCreate struct {
	Type     string `json:"type"`
	Response struct {
		Modalities []string       `json:"modalities"`
		Input      []inputMessage `json:"input"`
	} `json:"response"`
}

// NewResponseCreate builds the event that makes the model speak answer.
// Sending the function output alone does not reliably produce audio.
func NewResponseCreate(answer string) ([]byte, error) {
	var evt responseCreate
	evt.Type = EventResponseCreate
	evt.Response.Modalities = []string{"text", "audio"}
	evt.Response.Input = []inputMessage{{
		Type:    "message",
		Role:    "assistant",
		Content: []contentPart{{Type: "text", Text: answer}},
	}}
	return json.Marshal(evt)
}
