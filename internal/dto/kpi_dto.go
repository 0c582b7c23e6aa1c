package dto

import "time"

type KPISnapshot struct {
	TotalCalls       int64            `json:"total_calls"`
	Answered         int64            `json:"answered"`
	Fallbacks        int64            `json:"fallbacks"`
	Failures         int64            `json:"failures"`
	Rejected         int64            `json:"rejected"`
	AverageLatencyMs float64          `json:"average_latency_ms"`
	ByStrategy       map[string]int64 `json:"by_strategy"`
	LastCallAt       *time.Time       `json:"last_call_at"`
}
