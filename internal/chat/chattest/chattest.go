// Package chattest provides scripted chat clients for tests.
package chattest

import (
	"context"
	"sync"

	"github.com/koustreak/dbchat/internal/chat"
)

// Client replies with Reply (or fails with Err) and records the messages
// of the last call.
type Client struct {
	Reply string
	Err   error
	Caps  chat.Capabilities

	mu   sync.Mutex
	msgs []chat.Message
}

func (c *Client) Chat(_ context.Context, msgs []chat.Message) (*chat.Response, error) {
	c.mu.Lock()
	c.msgs = append([]chat.Message(nil), msgs...)
	c.mu.Unlock()
	if c.Err != nil {
		return nil, c.Err
	}
	return &chat.Response{Message: chat.Assistant(c.Reply)}, nil
}

func (c *Client) Stream(ctx context.Context, msgs []chat.Message, fn func(string) error) error {
	resp, err := c.Chat(ctx, msgs)
	if err != nil {
		return err
	}
	return fn(resp.Message.Content)
}

func (c *Client) Capabilities() chat.Capabilities { return c.Caps }
func (c *Client) Close() error                    { return nil }

// Messages returns what the last Chat call received.
func (c *Client) Messages() []chat.Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.msgs
}

// Source hands out Fixed for every request and records what was asked.
type Source struct {
	Fixed chat.Client
	Err   error

	mu       sync.Mutex
	Provider chat.Provider
	Model    string
}

func (s *Source) Client(_ context.Context, p chat.Provider, model string) (chat.Client, error) {
	s.mu.Lock()
	s.Provider, s.Model = p, model
	s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	return s.Fixed, nil
}
