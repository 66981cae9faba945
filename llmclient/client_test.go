package llmclient

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mcphost/stream"
)

func TestBaseBuilderAppendIsImmutable(t *testing.T) {
	var b baseBuilder
	b1 := b.appendMessage(Message{Role: RoleUser, Text: "one"})
	b2 := b1.appendMessage(Message{Role: RoleUser, Text: "two"})

	require.Len(t, b1.messages, 1)
	require.Len(t, b2.messages, 2)
	assert.Equal(t, "one", b1.messages[0].Text)
	assert.Equal(t, "two", b2.messages[1].Text)
}

func TestCollectTextConcatenatesDeltas(t *testing.T) {
	ch := make(chan stream.Event, 4)
	ch <- stream.Event{Kind: stream.KindMessageStart}
	ch <- stream.Event{Kind: stream.KindContentDelta, Text: "hel"}
	ch <- stream.Event{Kind: stream.KindContentDelta, Text: "lo"}
	ch <- stream.Event{Kind: stream.KindMessageStop}
	close(ch)

	text, err := collectText(ch)
	require.NoError(t, err)
	assert.Equal(t, "hello", text)
}

func TestCollectTextSurfacesStreamError(t *testing.T) {
	ch := make(chan stream.Event, 2)
	ch <- stream.Event{Kind: stream.KindContentDelta, Text: "partial"}
	ch <- stream.Event{Kind: stream.KindError, ErrorKind: "overloaded_error", ErrorMessage: "busy"}
	close(ch)

	text, err := collectText(ch)
	require.Error(t, err)
	assert.Equal(t, "partial", text)
	assert.ErrorIs(t, err, ErrProviderError)
}
