// Package chat defines the contract every language-model backend adapter
// satisfies, so the assistant can talk to hosted, local and cloud runtimes
// through one interface.
package chat

import (
	"context"
	"strings"

	"github.com/koustreak/dbchat/internal/errs"
)

// Role is the author of a chat message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one turn of a conversation.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// System, User and Assistant build messages of the matching role.
func System(content string) Message    { return Message{Role: RoleSystem, Content: content} }
func User(content string) Message      { return Message{Role: RoleUser, Content: content} }
func Assistant(content string) Message { return Message{Role: RoleAssistant, Content: content} }

// Usage reports token accounting when the backend provides it.
type Usage struct {
	PromptTokens     int `json:"promptTokens"`
	CompletionTokens int `json:"completionTokens"`
}

// Response is a completed assistant turn.
type Response struct {
	Message Message `json:"message"`
	Model   string  `json:"model"`
	Usage   Usage   `json:"usage"`
}

// Capabilities describes what a backend supports.
type Capabilities struct {
	// SystemRole is false when instructions must be sent as a user message.
	SystemRole bool
	Streaming  bool
}

// Client is a chat backend adapter. Implementations are safe for concurrent
// use and return failures as errors built by Fail or Unsupported.
type Client interface {
	// Chat sends msgs and returns the assistant's reply.
	Chat(ctx context.Context, msgs []Message) (*Response, error)

	// Stream sends msgs and calls fn with each content delta as it arrives.
	Stream(ctx context.Context, msgs []Message, fn func(delta string) error) error

	Capabilities() Capabilities

	// Close releases resources held by the client.
	Close() error
}

// Provider names a chat backend.
type Provider string

const (
	ProviderAzureOpenAI  Provider = "AzureOpenAI"
	ProviderOpenAI       Provider = "OpenAI"
	ProviderOllama       Provider = "Ollama"
	ProviderGitHubModels Provider = "GitHubModels"
	ProviderAWSBedrock   Provider = "AWSBedrock"
)

// AllProviders returns every supported provider.
func AllProviders() []Provider {
	return []Provider{ProviderAzureOpenAI, ProviderOpenAI, ProviderOllama, ProviderGitHubModels, ProviderAWSBedrock}
}

func (p Provider) String() string { return string(p) }

// ParseProvider resolves a case-insensitive provider name.
func ParseProvider(s string) (Provider, error) {
	want := strings.TrimSpace(s)
	for _, p := range AllProviders() {
		if strings.EqualFold(string(p), want) {
			return p, nil
		}
	}
	return Provider(want), errs.Newf(errs.ErrKindUnsupported, "unsupported AI provider %q", s)
}
