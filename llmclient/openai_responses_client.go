package llmclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/openai/openai-go/v3/shared"

	"mcphost/secretmanager"
	"mcphost/stream"
)

const openAIResponsesURL = "https://api.openai.com/v1/responses"

// responsesInputItem is the Responses API's wire shape for one input turn.
type responsesInputItem struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type responsesRequest struct {
	Model  shared.ResponsesModel `json:"model"`
	Input  []responsesInputItem  `json:"input"`
	Stream bool                  `json:"stream"`
}

// OpenAIResponsesClient speaks OpenAI's newer Responses API — a distinct
// wire shape from chat-completions, sharing only the provider and auth
// scheme with OpenAIClient. Selected by configuration alongside the other
// two providers, never by a conditional branch inside the iteration engine.
type OpenAIResponsesClient struct {
	Model   string
	Secrets secretmanager.SecretManager
	HTTP    *http.Client
}

func NewOpenAIResponsesClient(model string, secrets secretmanager.SecretManager) *OpenAIResponsesClient {
	return &OpenAIResponsesClient{
		Model:   model,
		Secrets: secrets,
		HTTP:    &http.Client{Timeout: 10 * time.Minute},
	}
}

func (c *OpenAIResponsesClient) Builder() RequestBuilder {
	return openAIResponsesBuilder{client: c}
}

func (c *OpenAIResponsesClient) Capabilities() ModelCapabilities {
	return ModelCapabilities{
		SupportsImages:         false,
		SupportsSystemMessages: true,
		SupportsStreaming:      true,
		StreamingMode:          StreamingModeTextOnly,
		MaxTokens:              16384,
	}
}

type openAIResponsesBuilder struct {
	baseBuilder
	client *OpenAIResponsesClient
}

func (b openAIResponsesBuilder) System(text string) RequestBuilder {
	b.baseBuilder = b.appendMessage(Message{Role: RoleSystem, Text: text})
	return b
}

func (b openAIResponsesBuilder) User(text string) RequestBuilder {
	b.baseBuilder = b.appendMessage(Message{Role: RoleUser, Text: text})
	return b
}

func (b openAIResponsesBuilder) Assistant(text string) RequestBuilder {
	b.baseBuilder = b.appendMessage(Message{Role: RoleAssistant, Text: text})
	return b
}

// UserWithImage / UserWithImageURL degrade to text-only sentinel notes: the
// Responses API's image input item shape is not modeled here.
func (b openAIResponsesBuilder) UserWithImage(text, path string) RequestBuilder {
	b.baseBuilder = b.appendMessage(Message{Role: RoleUser, Text: text + "\n[image attached: " + path + "]"})
	return b
}

func (b openAIResponsesBuilder) UserWithImageURL(text, url string) RequestBuilder {
	b.baseBuilder = b.appendMessage(Message{Role: RoleUser, Text: text + "\n[image: " + url + "]"})
	return b
}

func (b openAIResponsesBuilder) Config(cfg GenerationConfig) RequestBuilder {
	b.baseBuilder = b.withConfig(cfg)
	return b
}

func (b openAIResponsesBuilder) Streaming(enabled bool) RequestBuilder {
	b.baseBuilder = b.withStreaming(enabled)
	return b
}

func (b openAIResponsesBuilder) request(ctx context.Context) (*http.Response, error) {
	req := responsesRequest{
		Model:  shared.ResponsesModel(b.client.Model),
		Stream: true,
	}
	for _, m := range b.messages {
		req.Input = append(req.Input, responsesInputItem{Role: string(m.Role), Content: m.Text})
	}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("%w: marshaling request: %v", ErrTransport, err)
	}

	key, err := b.client.Secrets.GetSecret("OPENAI_API_KEY")
	if err != nil {
		return nil, fmt.Errorf("resolving OpenAI API key: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, openAIResponsesURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: building request: %v", ErrTransport, err)
	}
	httpReq.Header.Set("content-type", "application/json")
	httpReq.Header.Set("authorization", "Bearer "+key)

	resp, err := b.client.HTTP.Do(httpReq)
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

func (b openAIResponsesBuilder) Execute(ctx context.Context) (string, error) {
	resp, err := b.request(ctx)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	return collectText(stream.DecodeResponsesStream(resp.Body))
}

func (b openAIResponsesBuilder) ExecuteStreaming(ctx context.Context) (stream.Result, error) {
	resp, err := b.request(ctx)
	if err != nil {
		return nil, err
	}
	out := make(chan stream.Event)
	go func() {
		defer resp.Body.Close()
		defer close(out)
		for ev := range stream.DecodeResponsesStream(resp.Body) {
			out <- ev
		}
	}()
	return out, nil
}
