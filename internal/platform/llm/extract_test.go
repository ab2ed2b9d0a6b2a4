package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type doc struct {
	Name string `json:"name"`
}

func TestExtractJSONStrategies(t *testing.T) {
	cases := map[string]string{
		"strict":        `{"name":"a"}`,
		"json fence":    "Here you go:\n```json\n{\"name\":\"a\"}\n```\nthanks",
		"bare fence":    "```\n{\"name\":\"a\"}\n```",
		"braces":        `Sure! {"name":"a"} hope that helps`,
		"fence wins":    "{broken ```json\n{\"name\":\"a\"}\n```",
		"padded strict": "  \n{\"name\":\"a\"}\n ",
	}
	for name, text := range cases {
		t.Run(name, func(t *testing.T) {
			var d doc
			require.NoError(t, ExtractJSON(text, &d))
			assert.Equal(t, "a", d.Name)
		})
	}
}

func TestExtractJSONArray(t *testing.T) {
	var out []doc
	require.NoError(t, ExtractJSON("```json\n[{\"name\":\"x\"},{\"name\":\"y\"}]\n```", &out))
	assert.Len(t, out, 2)
}

func TestExtractJSONFailure(t *testing.T) {
	var d doc
	assert.ErrorIs(t, ExtractJSON("no json here { at all", &d), ErrNoJSON)
}

func TestExtractJSONBareArrayInProse(t *testing.T) {
	var out []doc
	require.NoError(t, ExtractJSON(`Questions: [{"name":"x"}] done`, &out))
	require.Len(t, out, 1)
	assert.Equal(t, "x", out[0].Name)
}
