// Package convo holds the append-only conversation transcript the
// iteration engine drives: an ordered sequence of messages plus the
// tool descriptors currently advertised to the model.
package convo

import (
	"sync"

	"mcphost/supervisor"
)

type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one immutable, appended turn.
type Message struct {
	Role    Role
	Content string
}

// State is an ordered sequence of Message guarded by one mutex for the
// whole session, plus the system-prompt string and the tool descriptors
// currently advertised to the model. Mutation is append-only; there is no
// delete or rewrite.
type State struct {
	mu           sync.Mutex
	messages     []Message
	systemPrompt string
	tools        []supervisor.ToolInfo
}

func New() *State {
	return &State{}
}

// AddSystemMessage appends a System message. The first call also fixes the
// session's system-prompt string, preserving the invariant that it equals
// the first System message's content.
func (s *State) AddSystemMessage(content string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	first := true
	for _, m := range s.messages {
		if m.Role == RoleSystem {
			first = false
			break
		}
	}
	if first {
		s.systemPrompt = content
	}
	s.messages = append(s.messages, Message{Role: RoleSystem, Content: content})
}

func (s *State) AddUserMessage(content string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = append(s.messages, Message{Role: RoleUser, Content: content})
}

func (s *State) AddAssistantMessage(content string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = append(s.messages, Message{Role: RoleAssistant, Content: content})
}

// Messages returns an immutable snapshot of the sequence so far.
func (s *State) Messages() []Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Message, len(s.messages))
	copy(out, s.messages)
	return out
}

// SystemPrompt returns the content of the first System message, or "" if
// none has been added yet.
func (s *State) SystemPrompt() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.systemPrompt
}

// SetTools records the descriptors currently advertised to the model,
// typically refreshed after a server's tools/list response changes.
func (s *State) SetTools(tools []supervisor.ToolInfo) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tools = append([]supervisor.ToolInfo{}, tools...)
}

func (s *State) Tools() []supervisor.ToolInfo {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]supervisor.ToolInfo, len(s.tools))
	copy(out, s.tools)
	return out
}
