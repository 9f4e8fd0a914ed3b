package integrations

import (
	"fmt"

	"github.com/aryansondharva/N9NE/internal/credentials"
)

// KeyReader looks up a credential by name.
type KeyReader interface {
	Get(name string) (string, bool)
}

// TextToSpeech reads the Murf key at the point of use. It is never pushed a
// configuration; the current store value is used on every call.
type TextToSpeech struct {
	keys KeyReader
}

// NewTextToSpeech creates a handle reading from keys.
func NewTextToSpeech(keys KeyReader) *TextToSpeech {
	return &TextToSpeech{keys: keys}
}

// APIKey returns the current Murf key.
func (t *TextToSpeech) APIKey() (string, error) {
	if t == nil || t.keys == nil {
		return "", fmt.Errorf("text-to-speech: %w", ErrUnavailable)
	}
	key, ok := t.keys.Get(credentials.MurfAPIKey)
	if !ok || key == "" {
		return "", fmt.Errorf("text-to-speech: %w", ErrUnavailable)
	}
	return key, nil
}
