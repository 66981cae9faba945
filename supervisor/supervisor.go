package supervisor

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"sync"

	"mcphost/rpc"

	"github.com/rs/zerolog"
)

const clientName = "mcphost"
const clientVersion = "0.1.0"

type initializeParams struct {
	Capabilities   initializeCapabilities `json:"capabilities"`
	ClientInfo     clientInfo             `json:"clientInfo"`
	ProtocolVersion string                `json:"protocolVersion"`
}

type initializeCapabilities struct {
	Roots    rootsCapability        `json:"roots"`
	Sampling map[string]interface{} `json:"sampling"`
}

type rootsCapability struct {
	ListChanged bool `json:"listChanged"`
}

type clientInfo struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

type initializeResult struct {
	Capabilities ServerCapabilities `json:"capabilities"`
}

type toolsListResult struct {
	Tools []ToolInfo `json:"tools"`
}

type toolsCallParams struct {
	Name      string      `json:"name"`
	Arguments interface{} `json:"arguments"`
}

type contentItem struct {
	Type        string          `json:"type"`
	Text        string          `json:"text"`
	Annotations json.RawMessage `json:"annotations,omitempty"`
}

type toolsCallResult struct {
	Content []contentItem `json:"content"`
	IsError bool          `json:"isError,omitempty"`
}

// Supervisor owns the name-keyed mapping of running tool servers. Holders of
// the mapping lock must not perform I/O while holding it; pipe I/O happens
// through each ManagedServer's own correlator after the lookup.
type Supervisor struct {
	mu      sync.RWMutex
	servers map[string]*ManagedServer
	log     zerolog.Logger
}

func New(log zerolog.Logger) *Supervisor {
	return &Supervisor{
		servers: make(map[string]*ManagedServer),
		log:     log,
	}
}

// StartServer spawns command with args and env (appended to the host's own
// environment), wires up newline-delimited JSON-RPC over its stdin/stdout,
// and runs the initialize/initialized handshake before registering it.
func (s *Supervisor) StartServer(ctx context.Context, name, command string, args []string, env map[string]string) error {
	cmd := exec.CommandContext(ctx, command, args...)
	cmd.Env = os.Environ()
	for k, v := range env {
		cmd.Env = append(cmd.Env, fmt.Sprintf("%s=%s", k, v))
	}
	cmd.Stderr = os.Stderr

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrSpawnFailed, err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrSpawnFailed, err)
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("%w: %v", ErrSpawnFailed, err)
	}

	correlator := rpc.NewCorrelator(name, rpc.NewFrameWriter(stdin), rpc.NewFrameReader(stdout))
	server := &ManagedServer{Name: name, cmd: cmd, correlator: correlator, state: uninitializedState()}

	var result initializeResult
	err = correlator.Call(ctx, "initialize", initializeParams{
		Capabilities: initializeCapabilities{
			Roots:    rootsCapability{ListChanged: true},
			Sampling: map[string]interface{}{},
		},
		ClientInfo:      clientInfo{Name: clientName, Version: clientVersion},
		ProtocolVersion: rpc.ProtocolVersion,
	}, &result)
	if err != nil {
		_ = cmd.Process.Kill()
		return fmt.Errorf("%w: %v", ErrInitializeFailed, err)
	}

	if err := correlator.Notify("notifications/initialized", map[string]interface{}{}); err != nil {
		s.log.Warn().Err(err).Str("server", name).Msg("failed to send initialized notification")
	}

	server.state = initializedState(result.Capabilities)

	s.mu.Lock()
	s.servers[name] = server
	s.mu.Unlock()

	s.log.Info().Str("server", name).Str("command", command).Msg("tool server started")
	return nil
}

// StopServer kills the child process and removes it from the mapping. Any
// in-flight Call on this server's correlator will observe ErrServerClosed
// once the pipe closes.
func (s *Supervisor) StopServer(name string) error {
	s.mu.Lock()
	server, ok := s.servers[name]
	if ok {
		delete(s.servers, name)
	}
	s.mu.Unlock()

	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownServer, name)
	}
	if server.cmd.Process != nil {
		_ = server.cmd.Process.Kill()
	}
	_ = server.cmd.Wait()
	return nil
}

// StopAll stops every registered server, for host shutdown.
func (s *Supervisor) StopAll() {
	s.mu.RLock()
	names := make([]string, 0, len(s.servers))
	for name := range s.servers {
		names = append(names, name)
	}
	s.mu.RUnlock()

	for _, name := range names {
		if err := s.StopServer(name); err != nil {
			s.log.Warn().Err(err).Str("server", name).Msg("error stopping server")
		}
	}
}

func (s *Supervisor) lookup(name string) (*ManagedServer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	server, ok := s.servers[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownServer, name)
	}
	return server, nil
}

// Names lists currently-registered server names.
func (s *Supervisor) Names() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	names := make([]string, 0, len(s.servers))
	for name := range s.servers {
		names = append(names, name)
	}
	return names
}

// ListServerTools returns the tools a server advertises.
func (s *Supervisor) ListServerTools(ctx context.Context, name string) ([]ToolInfo, error) {
	server, err := s.lookup(name)
	if err != nil {
		return nil, err
	}
	var result toolsListResult
	if err := server.correlator.Call(ctx, "tools/list", struct{}{}, &result); err != nil {
		return nil, err
	}
	return result.Tools, nil
}

// CallTool invokes a named tool on a server and returns its concatenated
// text output. No ToolCall is dispatched before the owning server reports
// initialized=true.
func (s *Supervisor) CallTool(ctx context.Context, serverName, toolName string, arguments interface{}) (string, error) {
	server, err := s.lookup(serverName)
	if err != nil {
		return "", err
	}
	if !server.Initialized() {
		return "", fmt.Errorf("server %s is not initialized", serverName)
	}

	var result toolsCallResult
	err = server.correlator.Call(ctx, "tools/call", toolsCallParams{Name: toolName, Arguments: arguments}, &result)
	if err != nil {
		return "", err
	}

	var parts []string
	for _, item := range result.Content {
		if item.Type == "text" {
			parts = append(parts, item.Text)
		}
	}
	text := strings.Join(parts, "\n")
	if result.IsError {
		return text, fmt.Errorf("tool %s returned an error: %s", toolName, text)
	}
	return text, nil
}
