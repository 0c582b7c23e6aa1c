package dto

// FunctionCallRequest is the body of POST /function_call, forwarded by the
// voice client when the realtime model asks for a function.
type FunctionCallRequest struct {
	Name      string                 `json:"name" validate:"required"`
	Arguments map[string]interface{} `json:"arguments"`
	CallId    string                 `json:"call_id"`
}

// FunctionCallResult is the provider envelope that carries the answer back
// into the conversation.
type FunctionCallResult struct {
	Type string             `json:"type"`
	Item FunctionCallOutput `json:"item"`
}

type FunctionCallOutput struct {
	Type   string `json:"type"`
	CallId string `json:"call_id"`
	Output string `json:"output"`
}

// AnswerOutput is JSON-encoded into FunctionCallOutput.Output.
type AnswerOutput struct {
	Respuesta string `json:"respuesta"`
}

const (
	ConversationItemCreate = "conversation.item.create"
	FunctionCallOutputType = "function_call_output"
)
