package credentials

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

// LookupFunc resolves a variable, reporting whether it was present.
type LookupFunc func(name string) (string, bool)

// Persister saves applied overrides so they survive a restart.
type Persister interface {
	Load(name string) (string, error)
	Save(name, value string) error
}

// Store keeps credentials in-memory and guards access with a RWMutex.
type Store struct {
	mu        sync.RWMutex
	values    map[string]string
	updatedAt time.Time

	clock     func() time.Time
	activate  func(context.Context)
	persister Persister
	logger    *zap.Logger
}

// Option configures Store behaviour.
type Option func(*Store)

// WithActivation registers the callback run after every Set.
func WithActivation(activate func(context.Context)) Option {
	return func(s *Store) {
		s.activate = activate
	}
}

// WithPersister enables saving of applied overrides.
func WithPersister(p Persister) Option {
	return func(s *Store) {
		s.persister = p
	}
}

// WithLogger sets the logger used for override diagnostics.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Store) {
		s.logger = logger
	}
}

// WithClock overrides the time source, primarily for tests.
func WithClock(clock func() time.Time) Option {
	return func(s *Store) {
		s.clock = clock
	}
}

// FromEnv reads the fixed credential names through lookup. Missing or blank
// variables are left out of the result. A nil lookup uses os.LookupEnv.
func FromEnv(lookup LookupFunc) map[string]string {
	if lookup == nil {
		lookup = os.LookupEnv
	}

	seed := make(map[string]string, len(Names()))
	for _, name := range Names() {
		raw, ok := lookup(name)
		if !ok {
			continue
		}
		if value := strings.TrimSpace(raw); value != "" {
			seed[name] = value
		}
	}
	return seed
}

// NewStore initialises the store with a copy of seed. Blank seed values are dropped.
func NewStore(seed map[string]string, opts ...Option) *Store {
	s := &Store{
		values: make(map[string]string, len(seed)),
		clock: func() time.Time {
			return time.Now().UTC()
		},
		activate: func(context.Context) {},
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	for name, raw := range seed {
		if value := strings.TrimSpace(raw); value != "" {
			s.values[name] = value
		}
	}
	s.updatedAt = s.clock()
	return s
}

// Get returns the stored value for name.
func (s *Store) Get(name string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	value, ok := s.values[name]
	return value, ok
}

// Snapshot returns a copy of every stored credential.
func (s *Store) Snapshot() map[string]string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string]string, len(s.values))
	for name, value := range s.values {
		out[name] = value
	}
	return out
}

// UpdatedAt returns the time of the last applied change.
func (s *Store) UpdatedAt() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.updatedAt
}

// Set merges overrides into the store and then re-activates the integrations.
// Values that are blank after trimming are ignored, so an override can never
// clear a configured credential. Names outside the fixed slots are stored as-is.
func (s *Store) Set(ctx context.Context, overrides map[string]string) {
	applied := make(map[string]string, len(overrides))

	s.mu.Lock()
	for name, candidate := range overrides {
		if strings.TrimSpace(name) == "" {
			continue
		}
		value := strings.TrimSpace(candidate)
		if value == "" {
			continue
		}
		s.values[name] = value
		applied[name] = value
	}
	if len(applied) > 0 {
		s.updatedAt = s.clock()
	}
	s.mu.Unlock()

	for name, value := range applied {
		s.logger.Debug("credential override applied",
			zap.String("name", name),
			zap.String("value", Mask(value)),
			zap.Bool("known", IsKnown(name)),
		)
	}
	s.persist(applied)

	s.activate(ctx)
}

// LoadPersisted overlays previously saved overrides for the fixed slots.
func (s *Store) LoadPersisted() error {
	if s.persister == nil {
		return nil
	}

	loaded := make(map[string]string, len(Names()))
	for _, name := range Names() {
		raw, err := s.persister.Load(name)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				continue
			}
			return fmt.Errorf("load persisted %s: %w", name, err)
		}
		if value := strings.TrimSpace(raw); value != "" {
			loaded[name] = value
		}
	}

	if len(loaded) == 0 {
		return nil
	}

	s.mu.Lock()
	for name, value := range loaded {
		s.values[name] = value
	}
	s.updatedAt = s.clock()
	s.mu.Unlock()

	s.logger.Info("persisted credentials restored", zap.Int("count", len(loaded)))
	return nil
}

func (s *Store) persist(applied map[string]string) {
	if s.persister == nil {
		return
	}
	for name, value := range applied {
		if !IsKnown(name) {
			continue
		}
		if err := s.persister.Save(name, value); err != nil {
			s.logger.Warn("failed to persist credential override",
				zap.String("name", name),
				zap.Error(err),
			)
		}
	}
}

const minRevealLength = 8

// Mask hides a credential for display. Values shorter than eight characters
// are fully starred; longer ones keep their last four characters.
func Mask(value string) string {
	if value == "" {
		return ""
	}
	runes := []rune(value)
	if len(runes) < minRevealLength {
		return strings.Repeat("*", len(runes))
	}
	return strings.Repeat("*", 4) + string(runes[len(runes)-4:])
}
