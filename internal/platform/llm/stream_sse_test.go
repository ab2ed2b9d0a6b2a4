package llm

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStreamSSEParsesEventsAndStopsAtDone(t *testing.T) {
	input := ": keep-alive\n" +
		"event: delta\ndata: one\n\n" +
		"data: two\ndata: lines\n\n" +
		"data: [DONE]\n\n" +
		"data: never\n\n"
	var got []string
	err := streamSSE(strings.NewReader(input), func(event, data string) error {
		if data == "[DONE]" {
			return errStreamDone
		}
		got = append(got, event+"|"+data)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"delta|one", "|two\nlines"}, got)
}

func TestStreamSSEFlushesTrailingEventWithoutBlankLine(t *testing.T) {
	var got []string
	err := streamSSE(strings.NewReader("data: tail"), func(_, data string) error {
		got = append(got, data)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"tail"}, got)
}
