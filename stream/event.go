// Package stream decodes a provider's chunked event stream (Server-Sent
// Events, or a chat-completions-style delta stream) into a uniform
// StreamEvent sequence.
package stream

// Kind is the closed tag of the StreamEvent variant set (spec.md §3).
type Kind string

const (
	KindMessageStart      Kind = "message_start"
	KindContentBlockStart Kind = "content_block_start"
	KindContentDelta      Kind = "content_delta"
	KindContentBlockStop  Kind = "content_block_stop"
	KindMessageDelta      Kind = "message_delta"
	KindMessageStop       Kind = "message_stop"
	KindError             Kind = "error"
)

// Usage is the optional token accounting carried on a MessageDelta event.
type Usage struct {
	InputTokens  int `json:"input_tokens,omitempty"`
	OutputTokens int `json:"output_tokens,omitempty"`
}

// Event is one element of the uniform stream. Only the fields relevant to
// Kind are populated; this mirrors the closed tagged-variant set in
// spec.md §3 as a single flat struct, which is the idiomatic Go encoding of
// a small sum type without an interface-per-variant.
type Event struct {
	Kind Kind

	// MessageStart
	MessageId string

	// ContentBlockStart / ContentDelta / ContentBlockStop
	Index int
	Text  string

	// MessageDelta
	StopReason string
	Usage      *Usage

	// Error
	ErrorKind    string
	ErrorMessage string
}

// Result is a finite, single-pass channel of Events. The producer closes it
// after sending KindMessageStop, after a terminal provider error event, or
// when the input ends; decode and unknown-event-kind errors are sent without
// closing it (StreamResult in spec.md §3). A consumer that stops ranging early simply abandons the
// producing goroutine's remaining sends once it returns, there is no
// separate cancellation signal beyond context passed to the originating
// HTTP request.
type Result = <-chan Event
