package stream

import (
	"encoding/json"
	"io"
)

// rawEvent is the SSE "data:" JSON payload shape shared by Anthropic-style
// messages streams, per spec.md §4.B.
type rawEvent struct {
	Type    string `json:"type"`
	Message *struct {
		Id string `json:"id"`
	} `json:"message"`
	Delta *struct {
		Type       string `json:"type"`
		Text       string `json:"text"`
		StopReason string `json:"stop_reason"`
		Usage      *Usage `json:"usage"`
	} `json:"delta"`
	Index *int `json:"index"`
	Error *struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
	Usage *Usage `json:"usage"`
}

// DecodeAnthropicStream reads Server-Sent Events from r and maps each
// legal "type" to the corresponding StreamEvent per spec.md §4.B's fixed
// table. It returns immediately with a channel the caller ranges over; the
// decode runs in its own goroutine and closes the channel after
// KindMessageStop or a top-level KindError.
func DecodeAnthropicStream(r io.Reader) Result {
	out := make(chan Event)
	go func() {
		defer close(out)
		parser := NewSSEParser(r)

		for {
			sse, ok := parser.Next()
			if !ok {
				return
			}
			if sse.Data == "" || IsStreamDone(sse.Data) {
				continue
			}

			var raw rawEvent
			if err := json.Unmarshal([]byte(sse.Data), &raw); err != nil {
				out <- Event{Kind: KindError, ErrorKind: "Decode", ErrorMessage: err.Error()}
				continue
			}

			switch raw.Type {
			case "message_start":
				id := ""
				if raw.Message != nil {
					id = raw.Message.Id
				}
				out <- Event{Kind: KindMessageStart, MessageId: id}

			case "content_block_start":
				if raw.Index == nil {
					out <- missingIndexError("content_block_start")
					continue
				}
				out <- Event{Kind: KindContentBlockStart, Index: *raw.Index}

			case "content_block_delta":
				if raw.Index == nil {
					out <- missingIndexError("content_block_delta")
					continue
				}
				text := ""
				if raw.Delta != nil {
					text = raw.Delta.Text
				}
				out <- Event{Kind: KindContentDelta, Index: *raw.Index, Text: text}

			case "content_block_stop":
				if raw.Index == nil {
					out <- missingIndexError("content_block_stop")
					continue
				}
				out <- Event{Kind: KindContentBlockStop, Index: *raw.Index}

			case "message_delta":
				ev := Event{Kind: KindMessageDelta}
				if raw.Delta != nil {
					ev.StopReason = raw.Delta.StopReason
				}
				if raw.Usage != nil {
					ev.Usage = raw.Usage
				} else if raw.Delta != nil {
					ev.Usage = raw.Delta.Usage
				}
				out <- ev

			case "message_stop":
				out <- Event{Kind: KindMessageStop}
				return

			case "error":
				kind, message := "Error", ""
				if raw.Error != nil {
					kind, message = raw.Error.Type, raw.Error.Message
				}
				out <- Event{Kind: KindError, ErrorKind: kind, ErrorMessage: message}
				return

			default:
				out <- Event{Kind: KindError, ErrorKind: "UnknownEventKind", ErrorMessage: "unrecognized event type: " + raw.Type}
			}
		}
	}()
	return out
}

func missingIndexError(eventType string) Event {
	return Event{Kind: KindError, ErrorKind: "Decode", ErrorMessage: "missing required field \"index\" on " + eventType}
}
