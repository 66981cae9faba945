package llmclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"mcphost/secretmanager"
	"mcphost/stream"
)

const openAIChatCompletionsURL = "https://api.openai.com/v1/chat/completions"

// OpenAIClient speaks the OpenAI chat-completions API. Like AnthropicClient
// it only borrows the SDK's request-struct shape for assembly; the
// response body is read raw and handed to stream.DecodeChatCompletionStream
// rather than the SDK's own ChatCompletionStream reader.
type OpenAIClient struct {
	Model   string
	Secrets secretmanager.SecretManager
	HTTP    *http.Client
}

func NewOpenAIClient(model string, secrets secretmanager.SecretManager) *OpenAIClient {
	return &OpenAIClient{
		Model:   model,
		Secrets: secrets,
		HTTP:    &http.Client{Timeout: 10 * time.Minute},
	}
}

func (c *OpenAIClient) Builder() RequestBuilder {
	return openAIBuilder{client: c}
}

func (c *OpenAIClient) Capabilities() ModelCapabilities {
	return ModelCapabilities{
		SupportsImages:         false,
		SupportsSystemMessages: true,
		SupportsStreaming:      true,
		StreamingMode:          StreamingModeTextOnly,
		MaxTokens:              16384,
	}
}

type openAIBuilder struct {
	baseBuilder
	client *OpenAIClient
}

func (b openAIBuilder) System(text string) RequestBuilder {
	b.baseBuilder = b.appendMessage(Message{Role: RoleSystem, Text: text})
	return b
}

func (b openAIBuilder) User(text string) RequestBuilder {
	b.baseBuilder = b.appendMessage(Message{Role: RoleUser, Text: text})
	return b
}

func (b openAIBuilder) Assistant(text string) RequestBuilder {
	b.baseBuilder = b.appendMessage(Message{Role: RoleAssistant, Text: text})
	return b
}

// UserWithImage degrades to a text-only sentinel note: the chat-completions
// wire shape this client targets does not carry local file attachments.
func (b openAIBuilder) UserWithImage(text, path string) RequestBuilder {
	b.baseBuilder = b.appendMessage(Message{Role: RoleUser, Text: text + fmt.Sprintf("\n[image attached: %s]", path)})
	return b
}

func (b openAIBuilder) UserWithImageURL(text, url string) RequestBuilder {
	b.baseBuilder = b.appendMessage(Message{Role: RoleUser, Text: text, ImageURL: url})
	return b
}

func (b openAIBuilder) Config(cfg GenerationConfig) RequestBuilder {
	b.baseBuilder = b.withConfig(cfg)
	return b
}

func (b openAIBuilder) Streaming(enabled bool) RequestBuilder {
	b.baseBuilder = b.withStreaming(enabled)
	return b
}

func (b openAIBuilder) buildParams() openai.ChatCompletionRequest {
	req := openai.ChatCompletionRequest{
		Model:  b.client.Model,
		Stream: true,
	}
	for _, m := range b.messages {
		switch m.Role {
		case RoleSystem:
			req.Messages = append(req.Messages, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleSystem, Content: m.Text})
		case RoleUser:
			content := m.Text
			if m.ImageURL != "" {
				content += "\n[image: " + m.ImageURL + "]"
			}
			req.Messages = append(req.Messages, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: content})
		case RoleAssistant:
			req.Messages = append(req.Messages, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleAssistant, Content: m.Text})
		}
	}
	if b.config.MaxTokens > 0 {
		req.MaxTokens = b.config.MaxTokens
	}
	if b.config.Temperature != nil {
		req.Temperature = float32(*b.config.Temperature)
	}
	if b.config.TopP != nil {
		req.TopP = float32(*b.config.TopP)
	}
	return req
}

func (b openAIBuilder) request(ctx context.Context) (*http.Response, error) {
	body, err := json.Marshal(b.buildParams())
	if err != nil {
		return nil, fmt.Errorf("%w: marshaling request: %v", ErrTransport, err)
	}

	key, err := b.client.Secrets.GetSecret("OPENAI_API_KEY")
	if err != nil {
		return nil, fmt.Errorf("resolving OpenAI API key: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, openAIChatCompletionsURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: building request: %v", ErrTransport, err)
	}
	req.Header.Set("content-type", "application/json")
	req.Header.Set("authorization", "Bearer "+key)

	resp, err := b.client.HTTP.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTransport, err)
	}
	if resp.StatusCode >= 400 {
		defer resp.Body.Close()
		respBody, _ := io.ReadAll(resp.Body)
		return nil, &ProviderError{Status: resp.StatusCode, Body: string(respBody)}
	}
	return resp, nil
}

func (b openAIBuilder) Execute(ctx context.Context) (string, error) {
	resp, err := b.request(ctx)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	return collectText(stream.DecodeChatCompletionStream(resp.Body))
}

func (b openAIBuilder) ExecuteStreaming(ctx context.Context) (stream.Result, error) {
	resp, err := b.request(ctx)
	if err != nil {
		return nil, err
	}
	out := make(chan stream.Event)
	go func() {
		defer resp.Body.Close()
		defer close(out)
		for ev := range stream.DecodeChatCompletionStream(resp.Body) {
			out <- ev
		}
	}()
	return out, nil
}
