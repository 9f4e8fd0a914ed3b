package integrations

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"unicode"

	"google.golang.org/genai"
)

// Chat owns the Gemini client used for AI chat.
type Chat struct {
	mu     sync.RWMutex
	client *genai.Client
	newFn  func(ctx context.Context, cfg *genai.ClientConfig) (*genai.Client, error)
}

// NewChat returns an unconfigured chat handle.
func NewChat() *Chat {
	return &Chat{newFn: genai.NewClient}
}

// Wire builds a Gemini client for key. The previous client stays in place when
// this fails.
func (c *Chat) Wire(ctx context.Context, key string) error {
	if err := checkKey(key); err != nil {
		return fmt.Errorf("gemini: %w", err)
	}

	client, err := c.newFn(ctx, &genai.ClientConfig{
		APIKey:  key,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return fmt.Errorf("gemini: create client: %w", err)
	}

	c.mu.Lock()
	c.client = client
	c.mu.Unlock()
	return nil
}

// Client returns the configured Gemini client.
func (c *Chat) Client() (*genai.Client, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.client == nil {
		return nil, fmt.Errorf("chat: %w", ErrUnavailable)
	}
	return c.client, nil
}

// checkKey rejects keys that cannot travel in a request header.
func checkKey(key string) error {
	if strings.TrimSpace(key) == "" {
		return ErrUnavailable
	}
	for _, r := range key {
		if unicode.IsSpace(r) || unicode.IsControl(r) {
			return fmt.Errorf("%w: contains whitespace or control characters", ErrMalformedKey)
		}
	}
	return nil
}
