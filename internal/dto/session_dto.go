package dto

// RealtimeSessionRequest is posted to the provider's realtime/sessions
// endpoint. The response is relayed to the browser untouched.
type RealtimeSessionRequest struct {
	Model                   string             `json:"model"`
	Modalities              []string           `json:"modalities"`
	Voice                   string             `json:"voice"`
	Instructions            string             `json:"instructions"`
	InputAudioFormat        string             `json:"input_audio_format"`
	OutputAudioFormat       string             `json:"output_audio_format"`
	MaxResponseOutputTokens int                `json:"max_response_output_tokens"`
	TurnDetection           TurnDetection      `json:"turn_detection"`
	Tools                   []FunctionToolDecl `json:"tools"`
	ToolChoice              string             `json:"tool_choice"`
}

type TurnDetection struct {
	Type              string  `json:"type"`
	Threshold         float64 `json:"threshold"`
	PrefixPaddingMs   int     `json:"prefix_padding_ms"`
	SilenceDurationMs int     `json:"silence_duration_ms"`
	CreateResponse    bool    `json:"create_response"`
}

type FunctionToolDecl struct {
	Type        string         `json:"type"`
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  ToolParameters `json:"parameters"`
}

type ToolParameters struct {
	Type       string                  `json:"type"`
	Properties map[string]ToolProperty `json:"properties"`
	Required   []string                `json:"required"`
}

type ToolProperty struct {
	Type        string `json:"type"`
	Description string `json:"description,omitempty"`
}
