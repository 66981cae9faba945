package llmclient

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/anthropics/anthropic-sdk-go"

	"mcphost/secretmanager"
	"mcphost/stream"
)

const anthropicMessagesURL = "https://api.anthropic.com/v1/messages"

// AnthropicClient speaks the Anthropic Messages API. It uses
// anthropic-sdk-go's param types only to assemble the request body; the
// response is read as raw bytes and handed to stream.DecodeAnthropicStream,
// so the core owns the SSE→StreamEvent mapping rather than the SDK's own
// stream iterator.
type AnthropicClient struct {
	Model   string
	Secrets secretmanager.SecretManager
	HTTP    *http.Client
}

func NewAnthropicClient(model string, secrets secretmanager.SecretManager) *AnthropicClient {
	return &AnthropicClient{
		Model:   model,
		Secrets: secrets,
		HTTP:    &http.Client{Timeout: 10 * time.Minute},
	}
}

func (c *AnthropicClient) Builder() RequestBuilder {
	return anthropicBuilder{client: c}
}

func (c *AnthropicClient) Capabilities() ModelCapabilities {
	return ModelCapabilities{
		SupportsImages:         true,
		SupportsSystemMessages: true,
		SupportsStreaming:      true,
		StreamingMode:          StreamingModeFullContent,
		MaxTokens:              8192,
	}
}

type anthropicBuilder struct {
	baseBuilder
	client *AnthropicClient
}

func (b anthropicBuilder) System(text string) RequestBuilder {
	b.baseBuilder = b.appendMessage(Message{Role: RoleSystem, Text: text})
	return b
}

func (b anthropicBuilder) User(text string) RequestBuilder {
	b.baseBuilder = b.appendMessage(Message{Role: RoleUser, Text: text})
	return b
}

func (b anthropicBuilder) Assistant(text string) RequestBuilder {
	b.baseBuilder = b.appendMessage(Message{Role: RoleAssistant, Text: text})
	return b
}

func (b anthropicBuilder) UserWithImage(text, path string) RequestBuilder {
	b.baseBuilder = b.appendMessage(Message{Role: RoleUser, Text: text, ImagePath: path})
	return b
}

func (b anthropicBuilder) UserWithImageURL(text, url string) RequestBuilder {
	b.baseBuilder = b.appendMessage(Message{Role: RoleUser, Text: text, ImageURL: url})
	return b
}

func (b anthropicBuilder) Config(cfg GenerationConfig) RequestBuilder {
	b.baseBuilder = b.withConfig(cfg)
	return b
}

func (b anthropicBuilder) Streaming(enabled bool) RequestBuilder {
	b.baseBuilder = b.withStreaming(enabled)
	return b
}

// buildParams converts the accumulated messages into the wire shape
// anthropic-sdk-go's MessageNewParams marshals to. System messages are
// hoisted into the top-level "system" field, matching the Messages API's
// convention (no distinct system role inside the messages array).
func (b anthropicBuilder) buildParams(stream bool) (anthropic.MessageNewParams, error) {
	maxTokens := int64(1024)
	if b.config.MaxTokens > 0 {
		maxTokens = int64(b.config.MaxTokens)
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(b.client.Model),
		MaxTokens: maxTokens,
	}

	var systemBlocks []anthropic.TextBlockParam
	for _, m := range b.messages {
		switch m.Role {
		case RoleSystem:
			systemBlocks = append(systemBlocks, anthropic.TextBlockParam{Text: m.Text})
		case RoleUser:
			params.Messages = append(params.Messages, userMessageParam(m))
		case RoleAssistant:
			params.Messages = append(params.Messages, anthropic.NewAssistantMessage(anthropic.NewTextBlock(m.Text)))
		}
	}
	params.System = systemBlocks

	if b.config.Temperature != nil {
		params.Temperature = anthropic.Float(*b.config.Temperature)
	}
	if b.config.TopP != nil {
		params.TopP = anthropic.Float(*b.config.TopP)
	}

	return params, nil
}

// userMessageParam degrades an image attachment to a text-only sentinel
// note when the image cannot be attached, per the builder's
// never-refuse-outright contract (spec.md §4.E).
func userMessageParam(m Message) anthropic.MessageParam {
	if m.ImagePath == "" && m.ImageURL == "" {
		return anthropic.NewUserMessage(anthropic.NewTextBlock(m.Text))
	}
	if m.ImageURL != "" {
		return anthropic.NewUserMessage(
			anthropic.NewImageBlock(anthropic.NewImageBlockSourceURL(m.ImageURL)),
			anthropic.NewTextBlock(m.Text),
		)
	}
	data, err := os.ReadFile(m.ImagePath)
	if err != nil {
		return anthropic.NewUserMessage(anthropic.NewTextBlock(m.Text + "\n[image unavailable: " + err.Error() + "]"))
	}
	return anthropic.NewUserMessage(
		anthropic.NewImageBlockBase64(mimeTypeForPath(m.ImagePath), base64.StdEncoding.EncodeToString(data)),
		anthropic.NewTextBlock(m.Text),
	)
}

func (b anthropicBuilder) request(ctx context.Context, streaming bool) (*http.Response, error) {
	params, err := b.buildParams(streaming)
	if err != nil {
		return nil, err
	}

	body, err := json.Marshal(params)
	if err != nil {
		return nil, fmt.Errorf("%w: marshaling request: %v", ErrTransport, err)
	}
	var raw map[string]any
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("%w: re-decoding request: %v", ErrTransport, err)
	}
	raw["stream"] = streaming
	body, err = json.Marshal(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: re-encoding request: %v", ErrTransport, err)
	}

	key, err := b.client.Secrets.GetSecret("ANTHROPIC_API_KEY")
	if err != nil {
		return nil, fmt.Errorf("resolving Anthropic API key: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, anthropicMessagesURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: building request: %v", ErrTransport, err)
	}
	req.Header.Set("content-type", "application/json")
	req.Header.Set("x-api-key", key)
	req.Header.Set("anthropic-version", "2023-06-01")

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

func (b anthropicBuilder) Execute(ctx context.Context) (string, error) {
	resp, err := b.request(ctx, true)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	return collectText(stream.DecodeAnthropicStream(resp.Body))
}

func (b anthropicBuilder) ExecuteStreaming(ctx context.Context) (stream.Result, error) {
	resp, err := b.request(ctx, true)
	if err != nil {
		return nil, err
	}
	out := make(chan stream.Event)
	go func() {
		defer resp.Body.Close()
		defer close(out)
		for ev := range stream.DecodeAnthropicStream(resp.Body) {
			out <- ev
		}
	}()
	return out, nil
}
