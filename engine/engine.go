// Package engine drives the bounded assistant-calls-tool,
// tool-returns-to-assistant loop: extract tool calls from an assistant
// turn, dispatch each one, feed the results back, and re-prompt the model
// until it produces a final answer or the loop's depth bound is reached.
package engine

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"mcphost/convo"
	"mcphost/llmclient"
	"mcphost/toolcall"
)

// MaxIterations bounds the number of times the engine re-prompts the model
// within a single top-level assistant turn.
const MaxIterations = 15

// ErrMaxIterationsReached is returned when the loop hits MaxIterations
// without the model producing a tool-call-free reply.
var ErrMaxIterationsReached = errors.New("max iterations reached")

// ToolCaller is the host capability the engine needs: dispatch one tool
// call against a named server. *supervisor.Supervisor satisfies this.
type ToolCaller interface {
	CallTool(ctx context.Context, serverName, toolName string, arguments interface{}) (string, error)
}

// Engine holds the collaborators needed to drive one conversation's loop.
type Engine struct {
	Host     ToolCaller
	Client   llmclient.Client
	Streamer EventStreamer
	Log      zerolog.Logger
}

func New(host ToolCaller, client llmclient.Client, log zerolog.Logger) *Engine {
	return &Engine{Host: host, Client: client, Log: log}
}

// HandleAssistantResponse implements the S0-S3 state machine: append the
// model's response, extract any tool calls from fenced blocks, dispatch
// them sequentially, re-prompt with the accumulated transcript, and repeat
// until extraction finds nothing, the model errors, or MaxIterations is
// exhausted. onReply, if non-nil, is invoked with each re-prompted reply
// before it is appended to state — the CLI/bridge's hook for printing it.
func (e *Engine) HandleAssistantResponse(
	ctx context.Context,
	serverName string,
	state *convo.State,
	response string,
	onReply func(string),
) (string, error) {
	state.AddAssistantMessage(response)
	current := response

	for iter := 0; ; iter++ {
		if iter >= MaxIterations {
			e.Log.Warn().Int("max_iterations", MaxIterations).Msg("tool iteration loop hit max depth")
			return current, ErrMaxIterationsReached
		}

		calls := toolcall.Extract(current)
		if len(calls) == 0 {
			return current, nil
		}

		for _, call := range calls {
			e.dispatch(ctx, serverName, state, call)
		}

		reply, err := e.reexecute(ctx, state)
		if err != nil {
			e.Log.Error().Err(err).Msg("LM re-prompt failed")
			return current, err
		}

		if onReply != nil {
			onReply(reply)
		}
		state.AddAssistantMessage(reply)
		current = reply
	}
}

// dispatch invokes one tool call against serverName and appends a
// formatted transcript line for either outcome. A failure never aborts the
// batch: the remaining calls in this iteration still run.
func (e *Engine) dispatch(ctx context.Context, serverName string, state *convo.State, call toolcall.Call) {
	argsJSON, _ := json.Marshal(call.Arguments)
	emit(e.Streamer, ToolCallEvent{ToolName: call.Name, Status: ToolCallPending, ArgsJSON: string(argsJSON)})

	result, err := e.Host.CallTool(ctx, serverName, call.Name, call.Arguments)
	if err != nil {
		emit(e.Streamer, ToolCallEvent{ToolName: call.Name, Status: ToolCallFailed, ArgsJSON: string(argsJSON), Error: err.Error()})
		state.AddAssistantMessage(fmt.Sprintf("Tool '%s' error: %s", call.Name, err.Error()))
		return
	}

	trimmed := strings.TrimSpace(result)
	emit(e.Streamer, ToolCallEvent{ToolName: call.Name, Status: ToolCallSucceeded, ArgsJSON: string(argsJSON), ResultJSON: trimmed})
	state.AddAssistantMessage(fmt.Sprintf("Tool '%s' returned: %s", call.Name, trimmed))
}

// reexecute rebuilds a fresh RequestBuilder from the current transcript and
// issues one blocking call, per §4.G's "rebuild a fresh RequestBuilder from
// current state messages" step.
func (e *Engine) reexecute(ctx context.Context, state *convo.State) (string, error) {
	builder := e.Client.Builder()
	for _, m := range state.Messages() {
		switch m.Role {
		case convo.RoleSystem:
			builder = builder.System(m.Content)
		case convo.RoleUser:
			builder = builder.User(m.Content)
		case convo.RoleAssistant:
			builder = builder.Assistant(m.Content)
		}
	}
	return builder.Execute(ctx)
}
