package knowledge

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"
)

// Entry is one question/answer pair of the knowledge file.
type Entry struct {
	Question string                 `json:"pregunta"`
	Answer   string                 `json:"respuesta"`
	Metadata map[string]interface{} `json:"metadata,omitempty"`
}

// Table is the exact-match representation of the knowledge base.
// It is read-only once built.
type Table struct {
	entries []Entry
	exact   map[string]string
}

func NewTable(entries []Entry) *Table {
	t := &Table{
		entries: entries,
		exact:   make(map[string]string, len(entries)),
	}
	for _, e := range entries {
		// first occurrence wins
		if _, dup := t.exact[e.Question]; !dup {
			t.exact[e.Question] = e.Answer
		}
	}
	return t
}

// Get matches the question verbatim. Case and spacing are significant.
func (t *Table) Get(question string) (string, bool) {
	answer, ok := t.exact[question]
	return answer, ok
}

func (t *Table) Entries() []Entry {
	return t.entries
}

func (t *Table) Len() int {
	return len(t.entries)
}

// LoadTable reads the knowledge file from disk.
func LoadTable(path string) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read knowledge file: %w", err)
	}
	return ParseTable(data)
}

// ParseTable accepts both shapes the knowledge file comes in: a flat
// {"question": "answer"} object, or {"preguntas": [{"pregunta", "respuesta", "metadata"}]}.
func ParseTable(data []byte) (*Table, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse knowledge file: %w", err)
	}

	if list, ok := raw["preguntas"]; ok && strings.HasPrefix(strings.TrimSpace(string(list)), "[") {
		var entries []Entry
		if err := json.Unmarshal(list, &entries); err != nil {
			return nil, fmt.Errorf("parse knowledge entries: %w", err)
		}
		kept := entries[:0]
		for _, e := range entries {
			if strings.TrimSpace(e.Question) == "" {
				continue
			}
			kept = append(kept, e)
		}
		return NewTable(kept), nil
	}

	keys := make([]string, 0, len(raw))
	for k := range raw {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	entries := make([]Entry, 0, len(keys))
	for _, k := range keys {
		var answer string
		if err := json.Unmarshal(raw[k], &answer); err != nil {
			return nil, fmt.Errorf("knowledge entry %q: answer must be a string", k)
		}
		entries = append(entries, Entry{Question: k, Answer: answer})
	}
	return NewTable(entries), nil
}
