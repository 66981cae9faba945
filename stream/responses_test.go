package stream

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeResponsesStream(t *testing.T) {
	raw := strings.Join([]string{
		`data: {"type":"response.created","response":{"id":"resp_1"}}`,
		"",
		`data: {"type":"response.output_text.delta","delta":"hel"}`,
		"",
		`data: {"type":"response.output_text.delta","delta":"lo"}`,
		"",
		`data: {"type":"response.completed"}`,
		"",
	}, "\n")

	events := collect(DecodeResponsesStream(strings.NewReader(raw)))

	var text strings.Builder
	for _, ev := range events {
		if ev.Kind == KindContentDelta {
			text.WriteString(ev.Text)
		}
	}
	assert.Equal(t, "hello", text.String())
	require.Equal(t, KindMessageStart, events[0].Kind)
	assert.Equal(t, KindMessageStop, events[len(events)-1].Kind)
}

func TestDecodeResponsesStream_ErrorTerminates(t *testing.T) {
	raw := strings.Join([]string{
		`data: {"type":"response.created","response":{"id":"resp_1"}}`,
		"",
		`data: {"type":"response.failed","error":{"message":"rate limited"}}`,
		"",
	}, "\n")

	events := collect(DecodeResponsesStream(strings.NewReader(raw)))
	require.Len(t, events, 3)
	assert.Equal(t, KindError, events[2].Kind)
	assert.Equal(t, "rate limited", events[2].ErrorMessage)
}
