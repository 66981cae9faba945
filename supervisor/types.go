// Package supervisor owns tool server subprocesses: spawning, the MCP
// initialize handshake, request routing via rpc.Correlator, and teardown.
package supervisor

import (
	"encoding/json"
	"errors"
	"os/exec"

	"mcphost/rpc"
)

// ErrInitializeFailed is returned by StartServer when the initialize
// handshake's reply carries an error; the server is never registered.
var ErrInitializeFailed = errors.New("initialize handshake failed")

// ErrUnknownServer is returned when a server name has no registration.
var ErrUnknownServer = errors.New("unknown server")

// ErrSpawnFailed wraps a failure to launch the subprocess (§7 SpawnError).
var ErrSpawnFailed = errors.New("failed to spawn server process")

// ServerCapabilities is the free-form capabilities object a tool server
// returns from initialize; the host does not interpret its shape further.
type ServerCapabilities map[string]json.RawMessage

// ToolInfo is one tool a server advertises via tools/list.
type ToolInfo struct {
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	InputSchema json.RawMessage `json:"inputSchema"`
}

// serverState pairs the initialized flag with the capabilities payload. It
// is built only through uninitializedState and initializedState, so the
// capabilities are set exactly when the flag is.
type serverState struct {
	initialized  bool
	capabilities ServerCapabilities
}

func uninitializedState() serverState {
	return serverState{}
}

func initializedState(caps ServerCapabilities) serverState {
	return serverState{initialized: true, capabilities: caps}
}

// ManagedServer is one running tool server subprocess, exclusively owned by
// the Supervisor that created it.
type ManagedServer struct {
	Name string

	cmd        *exec.Cmd
	correlator *rpc.Correlator
	state      serverState
}

// Initialized reports whether the initialize handshake has completed
// successfully; no ToolCall may be dispatched before this is true.
func (m *ManagedServer) Initialized() bool {
	return m.state.initialized
}

// Capabilities returns the server's self-description, or nil if not yet
// initialized.
func (m *ManagedServer) Capabilities() ServerCapabilities {
	return m.state.capabilities
}
