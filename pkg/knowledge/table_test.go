package knowledge

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTableShapes(t *testing.T) {
	tests := []struct {
		name     string
		data     string
		wantLen  int
		question string
		want     string
	}{
		{
			name:     "flat map",
			data:     `{"horario de atención": "Lunes a viernes, 9am-6pm.", "dirección": "Calle 1"}`,
			wantLen:  2,
			question: "horario de atención",
			want:     "Lunes a viernes, 9am-6pm.",
		},
		{
			name: "preguntas list",
			data: `{"preguntas": [
				{"pregunta": "¿Cómo radico una petición?", "respuesta": "En la sede electrónica.", "metadata": {}},
				{"pregunta": "", "respuesta": "ignored"}
			]}`,
			wantLen:  1,
			question: "¿Cómo radico una petición?",
			want:     "En la sede electrónica.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			table, err := ParseTable([]byte(tt.data))
			require.NoError(t, err)
			assert.Equal(t, tt.wantLen, table.Len())
			got, ok := table.Get(tt.question)
			assert.True(t, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestTableKeepsCaseVariantsApart(t *testing.T) {
	table, err := ParseTable([]byte(`{"IVA": "Impuesto al valor agregado.", "iva": "Ingreso variable anual."}`))
	require.NoError(t, err)

	got, ok := table.Get("IVA")
	require.True(t, ok)
	assert.Equal(t, "Impuesto al valor agregado.", got)

	got, ok = table.Get("iva")
	require.True(t, ok)
	assert.Equal(t, "Ingreso variable anual.", got)
}

func TestParseTableErrors(t *testing.T) {
	_, err := ParseTable([]byte(`not json`))
	assert.Error(t, err)

	_, err = ParseTable([]byte(`{"pregunta": 42}`))
	assert.Error(t, err)
}

func TestLoadTable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "preguntas.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"hola": "Hola, ¿en qué puedo ayudarte?"}`), 0o644))

	table, err := LoadTable(path)
	require.NoError(t, err)
	assert.Equal(t, 1, table.Len())

	_, err = LoadTable(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}

func TestExactLookup(t *testing.T) {
	table := NewTable([]Entry{
		{Question: "horario de atención", Answer: "Lunes a viernes, 9am-6pm."},
		{Question: "horario de atención", Answer: "duplicate is ignored"},
	})
	lookup := NewExactLookup(table)
	ctx := context.Background()

	answer, err := lookup.Resolve(ctx, "horario de atención")
	require.NoError(t, err)
	assert.Equal(t, Answer{Text: "Lunes a viernes, 9am-6pm.", Found: true, Score: 1}, answer)

	// no case or spacing folding: a different spelling is absent
	for _, variant := range []string{"Horario de atención", "HORARIO   DE ATENCIÓN", "horario  de atención"} {
		answer, err = lookup.Resolve(ctx, variant)
		require.NoError(t, err)
		assert.False(t, answer.Found, variant)
	}

	answer, err = lookup.Resolve(ctx, "¿dónde queda la sede?")
	require.NoError(t, err)
	assert.False(t, answer.Found)
	assert.Empty(t, answer.Text)

	assert.Equal(t, StrategyExact, lookup.Strategy())
}
