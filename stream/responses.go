package stream

import (
	"encoding/json"
	"io"
)

// responsesEvent is the SSE "data:" JSON payload shape used by OpenAI's
// Responses API, distinct from both the Anthropic Messages shape and the
// chat-completions delta shape.
type responsesEvent struct {
	Type     string `json:"type"`
	Response *struct {
		Id string `json:"id"`
	} `json:"response"`
	Delta string `json:"delta"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// DecodeResponsesStream adapts an OpenAI Responses API SSE stream to the
// uniform StreamEvent sequence: "response.created" starts the message,
// "response.output_text.delta" becomes a ContentDelta at a single implicit
// block index 0, and "response.completed" (or "response.incomplete")
// terminates the stream.
func DecodeResponsesStream(r io.Reader) Result {
	out := make(chan Event)
	go func() {
		defer close(out)
		parser := NewSSEParser(r)

		started := false
		for {
			sse, ok := parser.Next()
			if !ok {
				return
			}
			if sse.Data == "" || IsStreamDone(sse.Data) {
				continue
			}

			var ev responsesEvent
			if err := json.Unmarshal([]byte(sse.Data), &ev); err != nil {
				out <- Event{Kind: KindError, ErrorKind: "Decode", ErrorMessage: err.Error()}
				continue
			}

			switch ev.Type {
			case "response.created":
				id := ""
				if ev.Response != nil {
					id = ev.Response.Id
				}
				out <- Event{Kind: KindMessageStart, MessageId: id}
				out <- Event{Kind: KindContentBlockStart, Index: 0}
				started = true

			case "response.output_text.delta":
				if !started {
					out <- Event{Kind: KindMessageStart}
					out <- Event{Kind: KindContentBlockStart, Index: 0}
					started = true
				}
				out <- Event{Kind: KindContentDelta, Index: 0, Text: ev.Delta}

			case "response.completed", "response.incomplete":
				out <- Event{Kind: KindContentBlockStop, Index: 0}
				out <- Event{Kind: KindMessageDelta, StopReason: ev.Type}
				out <- Event{Kind: KindMessageStop}
				return

			case "error", "response.failed":
				message := ""
				if ev.Error != nil {
					message = ev.Error.Message
				}
				out <- Event{Kind: KindError, ErrorKind: ev.Type, ErrorMessage: message}
				return

			default:
				// Other lifecycle/reasoning events (response.in_progress,
				// response.output_item.added, …) carry no text and are
				// not part of the uniform StreamEvent set; ignored.
			}
		}
	}()
	return out
}
