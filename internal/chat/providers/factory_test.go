package providers

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/koustreak/dbchat/internal/chat"
	"github.com/koustreak/dbchat/internal/chat/ollama"
	"github.com/koustreak/dbchat/internal/chat/openai"
	"github.com/koustreak/dbchat/internal/errs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type nopClient struct{ closed atomic.Bool }

func (c *nopClient) Chat(context.Context, []chat.Message) (*chat.Response, error) {
	return &chat.Response{}, nil
}
func (c *nopClient) Stream(context.Context, []chat.Message, func(string) error) error { return nil }
func (c *nopClient) Capabilities() chat.Capabilities                                  { return chat.Capabilities{} }
func (c *nopClient) Close() error                                                     { c.closed.Store(true); return nil }

func TestFactory_CachesPerProviderAndModel(t *testing.T) {
	f := NewFactory(Config{})
	var builds atomic.Int32
	f.build = func(_ context.Context, p chat.Provider, model string) (chat.Client, error) {
		builds.Add(1)
		return &nopClient{}, nil
	}

	var wg sync.WaitGroup
	got := make([]chat.Client, 16)
	for i := range got {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			c, err := f.Client(context.Background(), chat.ProviderOpenAI, "gpt-4o")
			assert.NoError(t, err)
			got[i] = c
		}(i)
	}
	wg.Wait()

	assert.Equal(t, int32(1), builds.Load())
	for _, c := range got {
		assert.Same(t, got[0], c)
	}

	other, err := f.Client(context.Background(), chat.ProviderOpenAI, "gpt-4o-mini")
	require.NoError(t, err)
	assert.NotSame(t, got[0], other)
	assert.Equal(t, int32(2), builds.Load())

	require.NoError(t, f.Close())
	assert.True(t, got[0].(*nopClient).closed.Load())
}

func TestFactory_SlowBuildDoesNotBlockOtherKeys(t *testing.T) {
	f := NewFactory(Config{})
	started := make(chan struct{})
	release := make(chan struct{})
	f.build = func(_ context.Context, p chat.Provider, model string) (chat.Client, error) {
		if p == chat.ProviderAWSBedrock {
			close(started)
			<-release
		}
		return &nopClient{}, nil
	}

	slow := make(chan chat.Client, 1)
	go func() {
		c, err := f.Client(context.Background(), chat.ProviderAWSBedrock, "claude")
		assert.NoError(t, err)
		slow <- c
	}()
	<-started

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, err := f.Client(context.Background(), chat.ProviderOpenAI, "gpt-4o")
		assert.NoError(t, err)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("OpenAI client waited on the Bedrock build")
	}

	// A second caller for the slow key gives up with its context.
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := f.Client(ctx, chat.ProviderAWSBedrock, "claude")
	assert.True(t, errs.IsTimeout(err))

	close(release)
	first := <-slow
	again, err := f.Client(context.Background(), chat.ProviderAWSBedrock, "claude")
	require.NoError(t, err)
	assert.Same(t, first, again)
}

func TestFactory_NewClient(t *testing.T) {
	f := NewFactory(Config{
		OpenAIKey:       "sk-test",
		GitHubModelsKey: "ghp_test",
		OllamaEndpoint:  "http://localhost:11434",
	})
	ctx := context.Background()

	c, err := f.NewClient(ctx, chat.ProviderOpenAI, "gpt-4o")
	require.NoError(t, err)
	assert.IsType(t, &openai.Client{}, c)

	c, err = f.NewClient(ctx, chat.ProviderGitHubModels, "gpt-4o")
	require.NoError(t, err)
	assert.IsType(t, &openai.Client{}, c)

	c, err = f.NewClient(ctx, chat.ProviderOllama, "llama3.1")
	require.NoError(t, err)
	assert.IsType(t, &ollama.Client{}, c)
	assert.False(t, c.Capabilities().SystemRole)

	_, err = f.NewClient(ctx, "Gemini", "pro")
	assert.True(t, errs.IsUnsupported(err))

	_, err = f.NewClient(ctx, chat.ProviderOpenAI, "")
	assert.True(t, errs.IsInvalidInput(err))
}

func TestFactory_MissingCredentialsAreNotCached(t *testing.T) {
	f := NewFactory(Config{})

	_, err := f.Client(context.Background(), chat.ProviderOpenAI, "gpt-4o")
	assert.True(t, errs.IsInvalidInput(err))
	assert.Empty(t, f.clients)
}
