package llmclient

import (
	"context"

	"mcphost/stream"
)

// Client is a provider-bound factory for RequestBuilder. Implementations
// hold the provider's model name, secret resolution, and HTTP transport.
type Client interface {
	Builder() RequestBuilder
	Capabilities() ModelCapabilities
}

// RequestBuilder accumulates a conversation turn-by-turn. Every non-terminal
// method returns a new builder value so callers chain rather than mutate
// shared state (spec.md §4.E); Execute and ExecuteStreaming are terminal:
// calling either consumes the accumulated state and issues the request.
type RequestBuilder interface {
	System(text string) RequestBuilder
	User(text string) RequestBuilder
	Assistant(text string) RequestBuilder
	UserWithImage(text, path string) RequestBuilder
	UserWithImageURL(text, url string) RequestBuilder
	Config(cfg GenerationConfig) RequestBuilder
	Streaming(enabled bool) RequestBuilder

	Execute(ctx context.Context) (string, error)
	ExecuteStreaming(ctx context.Context) (stream.Result, error)
}

// collectText drains a Result, concatenating ContentDelta text, and returns
// an error built from a terminal Error event if one occurred. Shared by
// every provider's Execute implementation so non-streaming callers get the
// same text a streaming caller would reassemble by hand.
func collectText(ch stream.Result) (string, error) {
	var text []byte
	var streamErr error
	for ev := range ch {
		switch ev.Kind {
		case stream.KindContentDelta:
			text = append(text, ev.Text...)
		case stream.KindError:
			streamErr = &ProviderError{Status: 0, Body: ev.ErrorKind + ": " + ev.ErrorMessage}
		}
	}
	if streamErr != nil {
		return string(text), streamErr
	}
	return string(text), nil
}
