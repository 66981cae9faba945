package convo

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mcphost/supervisor"
)

func TestStateAppendOnlyOrder(t *testing.T) {
	s := New()
	s.AddSystemMessage("you are a host")
	s.AddUserMessage("hi")
	s.AddAssistantMessage("hello")

	msgs := s.Messages()
	require.Len(t, msgs, 3)
	assert.Equal(t, RoleSystem, msgs[0].Role)
	assert.Equal(t, RoleUser, msgs[1].Role)
	assert.Equal(t, RoleAssistant, msgs[2].Role)
	assert.Equal(t, "you are a host", s.SystemPrompt())
}

func TestStateMessagesSnapshotIsImmutable(t *testing.T) {
	s := New()
	s.AddUserMessage("one")

	snap := s.Messages()
	snap[0].Content = "mutated"

	assert.Equal(t, "one", s.Messages()[0].Content)
}

func TestStateSystemPromptFixedByFirstCall(t *testing.T) {
	s := New()
	s.AddSystemMessage("first")
	s.AddSystemMessage("second")

	assert.Equal(t, "first", s.SystemPrompt())
	assert.Len(t, s.Messages(), 2)
}

func TestStateTools(t *testing.T) {
	s := New()
	s.SetTools([]supervisor.ToolInfo{{Name: "echo"}})
	assert.Equal(t, "echo", s.Tools()[0].Name)
}
