package integrations

import (
	"context"
	"fmt"
	"strings"
	"sync"

	assemblyai "github.com/AssemblyAI/assemblyai-go-sdk"
)

// SpeechToText owns the AssemblyAI client used for transcription.
type SpeechToText struct {
	mu     sync.RWMutex
	client *assemblyai.Client
}

// NewSpeechToText returns an unconfigured speech-to-text handle.
func NewSpeechToText() *SpeechToText {
	return &SpeechToText{}
}

// Wire replaces the AssemblyAI client with one authenticated by key.
func (s *SpeechToText) Wire(_ context.Context, key string) error {
	if strings.TrimSpace(key) == "" {
		return fmt.Errorf("assemblyai: %w", ErrUnavailable)
	}
	client := assemblyai.NewClient(key)

	s.mu.Lock()
	s.client = client
	s.mu.Unlock()
	return nil
}

// Client returns the configured AssemblyAI client.
func (s *SpeechToText) Client() (*assemblyai.Client, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.client == nil {
		return nil, fmt.Errorf("speech-to-text: %w", ErrUnavailable)
	}
	return s.client, nil
}
