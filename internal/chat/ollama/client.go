// Package ollama adapts a local Ollama runner to chat.Client.
package ollama

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/koustreak/dbchat/internal/chat"
	"github.com/koustreak/dbchat/internal/errs"
	"github.com/ollama/ollama/api"
)

// DefaultEndpoint is where a local Ollama listens by default.
const DefaultEndpoint = "http://localhost:11434"

// Client implements chat.Client over the Ollama HTTP API.
type Client struct {
	model string
	http  *http.Client
	api   *api.Client
}

// New returns a client for the runner at endpoint; empty means DefaultEndpoint.
// A nil httpClient uses a fresh http.Client.
func New(model, endpoint string, httpClient *http.Client) (*Client, error) {
	if strings.TrimSpace(endpoint) == "" {
		endpoint = DefaultEndpoint
	}
	base, err := url.Parse(endpoint)
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, errs.Newf(errs.ErrKindInvalidInput, "invalid Ollama endpoint %q", endpoint)
	}
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &Client{
		model: model,
		http:  httpClient,
		api:   api.NewClient(base, httpClient),
	}, nil
}

// --- chat.Client implementation ---

func (c *Client) Chat(ctx context.Context, msgs []chat.Message) (*chat.Response, error) {
	stream := false
	req := &api.ChatRequest{Model: c.model, Messages: toAPI(msgs), Stream: &stream}

	var out chat.Response
	err := c.api.Chat(ctx, req, func(resp api.ChatResponse) error {
		out.Message.Content += resp.Message.Content
		if resp.Done {
			out.Model = resp.Model
			out.Usage = chat.Usage{
				PromptTokens:     resp.PromptEvalCount,
				CompletionTokens: resp.EvalCount,
			}
		}
		return nil
	})
	if err != nil {
		return nil, chat.Fail(chat.ProviderOllama, c.model, err)
	}
	out.Message.Role = chat.RoleAssistant
	return &out, nil
}

func (c *Client) Stream(ctx context.Context, msgs []chat.Message, fn func(delta string) error) error {
	stream := true
	req := &api.ChatRequest{Model: c.model, Messages: toAPI(msgs), Stream: &stream}

	var cbErr error
	err := c.api.Chat(ctx, req, func(resp api.ChatResponse) error {
		if resp.Message.Content == "" {
			return nil
		}
		if err := fn(resp.Message.Content); err != nil {
			cbErr = err
			return err
		}
		return nil
	})
	if cbErr != nil {
		return cbErr
	}
	if err != nil {
		return chat.Fail(chat.ProviderOllama, c.model, err)
	}
	return nil
}

// Capabilities reports SystemRole false: instructions go in a user turn.
func (c *Client) Capabilities() chat.Capabilities {
	return chat.Capabilities{SystemRole: false, Streaming: true}
}

// Close drops idle keep-alive connections.
func (c *Client) Close() error {
	c.http.CloseIdleConnections()
	return nil
}

func toAPI(msgs []chat.Message) []api.Message {
	out := make([]api.Message, len(msgs))
	for i, m := range msgs {
		out[i] = api.Message{Role: string(m.Role), Content: m.Content}
	}
	return out
}
