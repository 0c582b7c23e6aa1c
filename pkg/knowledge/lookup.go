// Package knowledge resolves a free-text question to an answer from the FAQ
// knowledge base. Exactly one Lookup variant is active per deployment.
package knowledge

import "context"

const (
	StrategyExact   = "exact"
	StrategyProcess = "process"
	StrategyVector  = "vector"
)

// Answer is the outcome of a lookup. Found is false when the knowledge base
// has nothing for the question; that is not an error.
type Answer struct {
	Text  string  `json:"text"`
	Found bool    `json:"found"`
	Score float64 `json:"score,omitempty"`
}

type Lookup interface {
	Resolve(ctx context.Context, question string) (Answer, error)
	Strategy() string
}
