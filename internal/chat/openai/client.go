// Package openai adapts the OpenAI chat completions API, in its hosted,
// Azure and GitHub Models flavours, to chat.Client.
package openai

import (
	"context"
	"errors"
	"net/http"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
	"github.com/koustreak/dbchat/internal/chat"
	"github.com/koustreak/dbchat/internal/errs"
	oai "github.com/openai/openai-go"
	"github.com/openai/openai-go/azure"
	"github.com/openai/openai-go/option"
)

// GitHubModelsEndpoint is the OpenAI-compatible inference gateway.
const GitHubModelsEndpoint = "https://models.inference.ai.azure.com"

// DefaultAzureAPIVersion is used when no API version is configured.
const DefaultAzureAPIVersion = "2024-06-01"

// Client implements chat.Client over openai-go. It is safe for concurrent use.
type Client struct {
	provider chat.Provider
	model    string
	http     *http.Client
	api      oai.Client
}

// Option tunes the underlying HTTP transport.
type Option func(*settings)

type settings struct {
	httpClient *http.Client
	baseURL    string
}

// WithHTTPClient replaces the HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(s *settings) { s.httpClient = c }
}

// WithBaseURL overrides the API endpoint.
func WithBaseURL(u string) Option {
	return func(s *settings) { s.baseURL = u }
}

func newSettings(opts []Option) *settings {
	s := &settings{httpClient: &http.Client{}}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func newClient(p chat.Provider, model string, s *settings, reqOpts ...option.RequestOption) *Client {
	base := []option.RequestOption{
		option.WithHTTPClient(s.httpClient),
		option.WithMaxRetries(0),
	}
	return &Client{
		provider: p,
		model:    model,
		http:     s.httpClient,
		api:      oai.NewClient(append(base, reqOpts...)...),
	}
}

// New returns a client for api.openai.com (or a compatible base URL).
func New(model, apiKey string, opts ...Option) (*Client, error) {
	if apiKey == "" {
		return nil, errs.New(errs.ErrKindInvalidInput, "OpenAI API key is not configured")
	}
	s := newSettings(opts)
	reqOpts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if s.baseURL != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(s.baseURL))
	}
	return newClient(chat.ProviderOpenAI, model, s, reqOpts...), nil
}

// NewGitHubModels returns a client for the GitHub Models gateway.
func NewGitHubModels(model, token string, opts ...Option) (*Client, error) {
	if token == "" {
		return nil, errs.New(errs.ErrKindInvalidInput, "GitHub Models key is not configured")
	}
	s := newSettings(opts)
	if s.baseURL == "" {
		s.baseURL = GitHubModelsEndpoint
	}
	return newClient(chat.ProviderGitHubModels, model, s,
		option.WithAPIKey(token),
		option.WithBaseURL(s.baseURL),
	), nil
}

// NewAzure returns a client for an Azure OpenAI resource; model is the
// deployment name. A nil cred uses the default Azure credential chain.
func NewAzure(model, endpoint, apiVersion string, cred azcore.TokenCredential, opts ...Option) (*Client, error) {
	if endpoint == "" {
		return nil, errs.New(errs.ErrKindInvalidInput, "Azure OpenAI endpoint is not configured")
	}
	if apiVersion == "" {
		apiVersion = DefaultAzureAPIVersion
	}
	if cred == nil {
		c, err := azidentity.NewDefaultAzureCredential(nil)
		if err != nil {
			return nil, chat.Fail(chat.ProviderAzureOpenAI, model, err)
		}
		cred = c
	}
	s := newSettings(opts)
	return newClient(chat.ProviderAzureOpenAI, model, s,
		azure.WithEndpoint(endpoint, apiVersion),
		azure.WithTokenCredential(cred),
	), nil
}

// --- chat.Client implementation ---

func (c *Client) Chat(ctx context.Context, msgs []chat.Message) (*chat.Response, error) {
	resp, err := c.api.Chat.Completions.New(ctx, c.params(msgs))
	if err != nil {
		return nil, chat.Fail(c.provider, c.model, err)
	}
	if len(resp.Choices) == 0 {
		return nil, chat.Fail(c.provider, c.model, errors.New("response contained no choices"))
	}

	return &chat.Response{
		Message: chat.Assistant(resp.Choices[0].Message.Content),
		Model:   resp.Model,
		Usage: chat.Usage{
			PromptTokens:     int(resp.Usage.PromptTokens),
			CompletionTokens: int(resp.Usage.CompletionTokens),
		},
	}, nil
}

func (c *Client) Stream(ctx context.Context, msgs []chat.Message, fn func(delta string) error) error {
	stream := c.api.Chat.Completions.NewStreaming(ctx, c.params(msgs))
	defer stream.Close()

	for stream.Next() {
		chunk := stream.Current()
		if len(chunk.Choices) == 0 || chunk.Choices[0].Delta.Content == "" {
			continue
		}
		if err := fn(chunk.Choices[0].Delta.Content); err != nil {
			return err
		}
	}
	if err := stream.Err(); err != nil {
		return chat.Fail(c.provider, c.model, err)
	}
	return nil
}

func (c *Client) Capabilities() chat.Capabilities {
	return chat.Capabilities{SystemRole: true, Streaming: true}
}

// Close drops idle keep-alive connections.
func (c *Client) Close() error {
	c.http.CloseIdleConnections()
	return nil
}

func (c *Client) params(msgs []chat.Message) oai.ChatCompletionNewParams {
	out := make([]oai.ChatCompletionMessageParamUnion, 0, len(msgs))
	for _, m := range msgs {
		switch m.Role {
		case chat.RoleSystem:
			out = append(out, oai.SystemMessage(m.Content))
		case chat.RoleAssistant:
			out = append(out, oai.AssistantMessage(m.Content))
		default:
			out = append(out, oai.UserMessage(m.Content))
		}
	}
	return oai.ChatCompletionNewParams{
		Model:    oai.ChatModel(c.model),
		Messages: out,
	}
}
