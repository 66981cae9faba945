package llmclient

// baseBuilder holds the chaining state shared by every provider's
// RequestBuilder. Providers embed it, wrap its helpers in their own chaining
// methods, and read messages/config off the embedded value in Execute /
// ExecuteStreaming. The streaming flag is recorded but no provider consults
// it: the terminal method called decides whether events are collected or
// returned.
type baseBuilder struct {
	messages  []Message
	config    GenerationConfig
	streaming bool
}

func (b baseBuilder) appendMessage(m Message) baseBuilder {
	next := b
	next.messages = append(append([]Message{}, b.messages...), m)
	return next
}

func (b baseBuilder) withConfig(cfg GenerationConfig) baseBuilder {
	next := b
	next.config = cfg
	return next
}

func (b baseBuilder) withStreaming(enabled bool) baseBuilder {
	next := b
	next.streaming = enabled
	return next
}
