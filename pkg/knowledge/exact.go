package knowledge

import "context"

// ExactLookup answers from the in-memory table, O(1), no ranking.
type ExactLookup struct {
	table *Table
}

func NewExactLookup(table *Table) *ExactLookup {
	return &ExactLookup{table: table}
}

func (l *ExactLookup) Resolve(ctx context.Context, question string) (Answer, error) {
	answer, ok := l.table.Get(question)
	if !ok {
		return Answer{}, nil
	}
	return Answer{Text: answer, Found: true, Score: 1}, nil
}

func (l *ExactLookup) Strategy() string {
	return StrategyExact
}
