package activation

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/aryansondharva/N9NE/internal/credentials"
)

// State is the outcome of activating a single slot.
type State string

const (
	StateUnconfigured State = "unconfigured"
	StateConfigured   State = "configured"
	StateFailed       State = "failed"
)

// Wirer pushes a key into an integration.
type Wirer interface {
	Wire(ctx context.Context, key string) error
}

// WireFunc adapts a function to Wirer.
type WireFunc func(ctx context.Context, key string) error

// Wire calls f.
func (f WireFunc) Wire(ctx context.Context, key string) error {
	return f(ctx, key)
}

// Slot binds a credential name to the integration that consumes it.
// A nil Wirer means the key is only checked for presence.
type Slot struct {
	Name        string
	Integration string
	Feature     string
	Wirer       Wirer
}

// SlotStatus reports the result of activating one slot.
type SlotStatus struct {
	Name        string
	Integration string
	Feature     string
	State       State
	Err         error
}

// Report is the result of one Activate run.
type Report struct {
	Slots       []SlotStatus
	ActivatedAt time.Time
}

// Slot returns the status recorded for name.
func (r Report) Slot(name string) (SlotStatus, bool) {
	for _, status := range r.Slots {
		if status.Name == name {
			return status, true
		}
	}
	return SlotStatus{}, false
}

// KeyReader looks up a credential by name.
type KeyReader interface {
	Get(name string) (string, bool)
}

// DefaultSlots returns the speech-to-text, chat and text-to-speech slots in activation order.
func DefaultSlots(speech, chat Wirer) []Slot {
	return []Slot{
		{Name: credentials.AssemblyAIAPIKey, Integration: "AssemblyAI", Feature: "Speech-to-text", Wirer: speech},
		{Name: credentials.GeminiAPIKey, Integration: "Gemini AI", Feature: "AI chat", Wirer: chat},
		{Name: credentials.MurfAPIKey, Integration: "Murf", Feature: "Text-to-speech"},
	}
}

// Activator runs the wiring for every slot against the current credentials.
type Activator struct {
	keys   KeyReader
	slots  []Slot
	logger *zap.Logger
	clock  func() time.Time

	mu   sync.Mutex
	last Report
}

// Option configures Activator behaviour.
type Option func(*Activator)

// WithClock overrides the time source, primarily for tests.
func WithClock(clock func() time.Time) Option {
	return func(a *Activator) {
		a.clock = clock
	}
}

// New constructs an Activator. Nothing is wired until Activate is called.
func New(keys KeyReader, slots []Slot, logger *zap.Logger, opts ...Option) *Activator {
	if logger == nil {
		logger = zap.NewNop()
	}
	a := &Activator{
		keys:   keys,
		slots:  append([]Slot(nil), slots...),
		logger: logger,
		clock: func() time.Time {
			return time.Now().UTC()
		},
	}
	for _, opt := range opts {
		opt(a)
	}
	a.last = a.unconfiguredReport()
	return a
}

// Activate wires every slot that has a key and logs which features are disabled.
// Failures are recorded in the report and logged; they never propagate.
func (a *Activator) Activate(ctx context.Context) Report {
	a.mu.Lock()
	defer a.mu.Unlock()

	report := Report{
		Slots:       make([]SlotStatus, 0, len(a.slots)),
		ActivatedAt: a.clock(),
	}
	for _, slot := range a.slots {
		report.Slots = append(report.Slots, a.activateSlot(ctx, slot))
	}

	a.last = report
	return report
}

// Status returns the report of the most recent activation.
func (a *Activator) Status() Report {
	a.mu.Lock()
	defer a.mu.Unlock()

	out := a.last
	out.Slots = append([]SlotStatus(nil), a.last.Slots...)
	return out
}

func (a *Activator) activateSlot(ctx context.Context, slot Slot) SlotStatus {
	status := SlotStatus{
		Name:        slot.Name,
		Integration: slot.Integration,
		Feature:     slot.Feature,
		State:       StateUnconfigured,
	}

	key, ok := a.keys.Get(slot.Name)
	if !ok || key == "" {
		a.logger.Warn(fmt.Sprintf("%s not configured. %s features will be disabled.", slot.Name, slot.Feature),
			zap.String("credential", slot.Name),
			zap.String("integration", slot.Integration),
		)
		return status
	}

	if err := wire(ctx, slot.Wirer, key); err != nil {
		status.State = StateFailed
		status.Err = err
		a.logger.Error("error configuring API",
			zap.String("credential", slot.Name),
			zap.String("integration", slot.Integration),
			zap.Error(err),
		)
		return status
	}

	status.State = StateConfigured
	msg := fmt.Sprintf("%s API configured successfully.", slot.Integration)
	if slot.Wirer == nil {
		msg = fmt.Sprintf("%s API key configured successfully.", slot.Integration)
	}
	a.logger.Info(msg,
		zap.String("credential", slot.Name),
		zap.String("key", credentials.Mask(key)),
	)
	return status
}

// wire runs w and converts a panic into an error.
func wire(ctx context.Context, w Wirer, key string) (err error) {
	if w == nil {
		return nil
	}
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("panic while wiring: %v", rec)
		}
	}()
	return w.Wire(ctx, key)
}

func (a *Activator) unconfiguredReport() Report {
	report := Report{Slots: make([]SlotStatus, 0, len(a.slots))}
	for _, slot := range a.slots {
		report.Slots = append(report.Slots, SlotStatus{
			Name:        slot.Name,
			Integration: slot.Integration,
			Feature:     slot.Feature,
			State:       StateUnconfigured,
		})
	}
	return report
}
