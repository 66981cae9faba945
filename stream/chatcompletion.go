package stream

import (
	"encoding/json"
	"io"
)

type chatCompletionChunk struct {
	Id      string `json:"id"`
	Choices []struct {
		Delta struct {
			Content string `json:"content"`
		} `json:"delta"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Usage *struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
	} `json:"usage"`
}

// DecodeChatCompletionStream adapts an OpenAI-compatible chat-completions
// SSE stream to the uniform StreamEvent sequence, per spec.md §4.B's note
// on providers whose native chunked format differs: each chunk's
// choice[0].delta.content becomes a ContentDelta at a single implicit
// block index 0, and the terminal finish_reason yields MessageStop.
func DecodeChatCompletionStream(r io.Reader) Result {
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
			if sse.Data == "" {
				continue
			}
			if IsStreamDone(sse.Data) {
				out <- Event{Kind: KindContentBlockStop, Index: 0}
				out <- Event{Kind: KindMessageStop}
				return
			}

			var chunk chatCompletionChunk
			if err := json.Unmarshal([]byte(sse.Data), &chunk); err != nil {
				out <- Event{Kind: KindError, ErrorKind: "Decode", ErrorMessage: err.Error()}
				continue
			}

			if !started {
				out <- Event{Kind: KindMessageStart, MessageId: chunk.Id}
				out <- Event{Kind: KindContentBlockStart, Index: 0}
				started = true
			}

			if len(chunk.Choices) == 0 {
				if chunk.Usage != nil {
					out <- Event{Kind: KindMessageDelta, Usage: &Usage{
						InputTokens:  chunk.Usage.PromptTokens,
						OutputTokens: chunk.Usage.CompletionTokens,
					}}
				}
				continue
			}

			choice := chunk.Choices[0]
			if choice.Delta.Content != "" {
				out <- Event{Kind: KindContentDelta, Index: 0, Text: choice.Delta.Content}
			}
			if choice.FinishReason != "" {
				out <- Event{Kind: KindContentBlockStop, Index: 0}
				out <- Event{Kind: KindMessageDelta, StopReason: choice.FinishReason}
				out <- Event{Kind: KindMessageStop}
				return
			}
		}
	}()
	return out
}
