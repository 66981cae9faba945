// Package llmclient is the provider-neutral streaming LM client
// abstraction: a Client builds a linear RequestBuilder whose terminal
// operations issue one blocking request or return a lazy StreamEvent
// sequence (spec.md §4.E).
package llmclient

import "errors"

type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one appended conversation turn. ImagePath/ImageURL are set only
// for user_with_image / user_with_image_url calls.
type Message struct {
	Role      Role
	Text      string
	ImagePath string
	ImageURL  string
}

// GenerationConfig carries the knobs RequestBuilder.Config accepts.
type GenerationConfig struct {
	Temperature      *float64
	MaxTokens        int
	TopP             *float64
	FrequencyPenalty *float64
	PresencePenalty  *float64
}

// StreamingMode describes how a provider surfaces incremental content.
type StreamingMode string

const (
	StreamingModeNone        StreamingMode = "none"
	StreamingModeTextOnly    StreamingMode = "text_only"
	StreamingModeFullContent StreamingMode = "full_content"
)

// ModelCapabilities is advisory: a higher layer may consult it to choose a
// strategy, but a builder never refuses an operation outright — it
// degrades (spec.md §4.E).
type ModelCapabilities struct {
	SupportsImages         bool
	SupportsSystemMessages bool
	SupportsStreaming      bool
	StreamingMode          StreamingMode
	MaxTokens              int
}

// Error kinds from spec.md §4.E's failure model.
var (
	ErrProviderError = errors.New("provider error")
	ErrTransport     = errors.New("transport error")
	ErrDecode        = errors.New("decode error")
)

// ProviderError carries the HTTP status and raw body of a >=400 response.
type ProviderError struct {
	Status int
	Body   string
}

func (e *ProviderError) Error() string {
	return "provider error: status " + itoa(e.Status) + ": " + e.Body
}

func (e *ProviderError) Unwrap() error {
	return ErrProviderError
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}
