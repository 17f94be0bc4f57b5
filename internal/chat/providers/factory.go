// Package providers builds chat.Client adapters from configuration and
// caches one per provider and model.
package providers

import (
	"context"
	"errors"
	"net/http"
	"sync"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/koustreak/dbchat/internal/chat"
	"github.com/koustreak/dbchat/internal/chat/bedrock"
	"github.com/koustreak/dbchat/internal/chat/ollama"
	"github.com/koustreak/dbchat/internal/chat/openai"
	"github.com/koustreak/dbchat/internal/errs"
	"github.com/koustreak/dbchat/internal/logger"
)

// Config holds the endpoints and credentials of every backend.
type Config struct {
	AzureOpenAIEndpoint   string
	AzureOpenAIAPIVersion string
	AzureCredential       azcore.TokenCredential // nil: default Azure credential chain

	OpenAIKey     string
	OpenAIBaseURL string

	OllamaEndpoint string

	GitHubModelsKey      string
	GitHubModelsEndpoint string

	BedrockRegion string

	HTTPClient *http.Client
}

type cacheKey struct {
	provider chat.Provider
	model    string
}

// entry is one cache slot. ready is closed once client or err is set.
type entry struct {
	ready  chan struct{}
	client chat.Client
	err    error
}

// Factory creates chat clients. It is safe for concurrent use.
type Factory struct {
	cfg Config

	mu      sync.Mutex
	clients map[cacheKey]*entry

	build func(ctx context.Context, p chat.Provider, model string) (chat.Client, error)
}

// NewFactory returns a Factory for cfg.
func NewFactory(cfg Config) *Factory {
	f := &Factory{cfg: cfg, clients: make(map[cacheKey]*entry)}
	f.build = f.NewClient
	return f
}

// Client returns the cached client for (provider, model), building it on
// first use. Concurrent first calls for the same key build exactly once;
// a slow build never blocks other keys. Failed builds are not cached.
func (f *Factory) Client(ctx context.Context, p chat.Provider, model string) (chat.Client, error) {
	key := cacheKey{provider: p, model: model}

	f.mu.Lock()
	e, ok := f.clients[key]
	if !ok {
		e = &entry{ready: make(chan struct{})}
		f.clients[key] = e
	}
	f.mu.Unlock()

	if ok {
		select {
		case <-e.ready:
		case <-ctx.Done():
			return nil, chat.Fail(p, model, ctx.Err())
		}
		if e.err != nil {
			return nil, e.err
		}
		return e.client, nil
	}

	e.client, e.err = f.build(ctx, p, model)
	if e.err != nil {
		f.mu.Lock()
		if f.clients[key] == e {
			delete(f.clients, key)
		}
		f.mu.Unlock()
		close(e.ready)
		return nil, e.err
	}
	close(e.ready)

	logger.FromContext(ctx).DebugWith("chat client created", map[string]interface{}{
		"provider": p.String(),
		"model":    model,
	})
	return e.client, nil
}

// NewClient builds a fresh, uncached client.
func (f *Factory) NewClient(ctx context.Context, p chat.Provider, model string) (chat.Client, error) {
	if model == "" {
		return nil, errs.New(errs.ErrKindInvalidInput, "AI model is required")
	}

	var opts []openai.Option
	if f.cfg.HTTPClient != nil {
		opts = append(opts, openai.WithHTTPClient(f.cfg.HTTPClient))
	}

	var (
		c   chat.Client
		err error
	)
	switch p {
	case chat.ProviderAzureOpenAI:
		c, err = nonNil(openai.NewAzure(model, f.cfg.AzureOpenAIEndpoint, f.cfg.AzureOpenAIAPIVersion, f.cfg.AzureCredential, opts...))
	case chat.ProviderOpenAI:
		if f.cfg.OpenAIBaseURL != "" {
			opts = append(opts, openai.WithBaseURL(f.cfg.OpenAIBaseURL))
		}
		c, err = nonNil(openai.New(model, f.cfg.OpenAIKey, opts...))
	case chat.ProviderGitHubModels:
		if f.cfg.GitHubModelsEndpoint != "" {
			opts = append(opts, openai.WithBaseURL(f.cfg.GitHubModelsEndpoint))
		}
		c, err = nonNil(openai.NewGitHubModels(model, f.cfg.GitHubModelsKey, opts...))
	case chat.ProviderOllama:
		oc, oerr := ollama.New(model, f.cfg.OllamaEndpoint, f.cfg.HTTPClient)
		if oerr != nil {
			return nil, oerr
		}
		c = oc
	case chat.ProviderAWSBedrock:
		bc, berr := bedrock.New(ctx, model, f.cfg.BedrockRegion)
		if berr != nil {
			return nil, berr
		}
		c = bc
	default:
		return nil, errs.Newf(errs.ErrKindUnsupported, "unsupported AI provider %q", string(p))
	}
	if err != nil {
		return nil, err
	}
	return c, nil
}

// nonNil keeps a nil *openai.Client from becoming a non-nil interface.
func nonNil(c *openai.Client, err error) (chat.Client, error) {
	if err != nil {
		return nil, err
	}
	return c, nil
}

// Close closes every cached client and empties the cache. Clients that do
// not support Close are skipped.
func (f *Factory) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	var errList []error
	for key, e := range f.clients {
		select {
		case <-e.ready:
		default:
			// Still building; its caller keeps the result.
			continue
		}
		delete(f.clients, key)
		if e.client == nil {
			continue
		}
		if err := e.client.Close(); err != nil && !errs.IsUnsupported(err) {
			errList = append(errList, err)
		}
	}
	return errors.Join(errList...)
}
