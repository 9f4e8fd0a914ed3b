package activation

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/aryansondharva/N9NE/internal/credentials"
)

type recordingWirer struct {
	keys []string
	err  error
}

func (w *recordingWirer) Wire(_ context.Context, key string) error {
	w.keys = append(w.keys, key)
	return w.err
}

func newObservedActivator(t *testing.T, store *credentials.Store, speech, chat Wirer) (*Activator, *observer.ObservedLogs) {
	t.Helper()

	core, logs := observer.New(zapcore.DebugLevel)
	return New(store, DefaultSlots(speech, chat), zap.New(core)), logs
}

func TestActivateOnlySpeechConfigured(t *testing.T) {
	t.Parallel()

	store := credentials.NewStore(credentials.FromEnv(func(name string) (string, bool) {
		if name == credentials.AssemblyAIAPIKey {
			return "aai-1", true
		}
		return "", false
	}))
	speech := &recordingWirer{}
	chat := &recordingWirer{}
	activator, logs := newObservedActivator(t, store, speech, chat)

	report := activator.Activate(context.Background())

	if got, _ := store.Get(credentials.AssemblyAIAPIKey); got != "aai-1" {
		t.Fatalf("expected aai-1, got %q", got)
	}
	for _, name := range []string{credentials.MurfAPIKey, credentials.GeminiAPIKey} {
		if _, ok := store.Get(name); ok {
			t.Fatalf("expected %s to be unset", name)
		}
	}

	warnings := logs.FilterLevelExact(zapcore.WarnLevel).All()
	if len(warnings) != 2 {
		t.Fatalf("expected 2 warnings, got %d", len(warnings))
	}
	if !strings.Contains(warnings[0].Message, "AI chat") || !strings.Contains(warnings[1].Message, "Text-to-speech") {
		t.Fatalf("unexpected warnings: %q, %q", warnings[0].Message, warnings[1].Message)
	}

	infos := logs.FilterLevelExact(zapcore.InfoLevel).All()
	if len(infos) != 1 || !strings.Contains(infos[0].Message, "AssemblyAI") {
		t.Fatalf("expected one AssemblyAI info entry, got %v", infos)
	}

	if !reflect.DeepEqual(speech.keys, []string{"aai-1"}) {
		t.Fatalf("expected speech wirer to receive aai-1, got %v", speech.keys)
	}
	if len(chat.keys) != 0 {
		t.Fatalf("expected chat wirer not to be called, got %v", chat.keys)
	}

	status, ok := report.Slot(credentials.AssemblyAIAPIKey)
	if !ok || status.State != StateConfigured {
		t.Fatalf("expected speech slot configured, got %+v", status)
	}
	status, _ = report.Slot(credentials.GeminiAPIKey)
	if status.State != StateUnconfigured {
		t.Fatalf("expected chat slot unconfigured, got %+v", status)
	}
}

func TestActivateTextToSpeechIsPresenceOnly(t *testing.T) {
	t.Parallel()

	store := credentials.NewStore(map[string]string{credentials.MurfAPIKey: "murf-1"})
	activator, logs := newObservedActivator(t, store, &recordingWirer{}, &recordingWirer{})

	report := activator.Activate(context.Background())

	status, _ := report.Slot(credentials.MurfAPIKey)
	if status.State != StateConfigured {
		t.Fatalf("expected Murf slot configured, got %s", status.State)
	}
	if logs.FilterMessageSnippet("Murf API key configured").Len() != 1 {
		t.Fatalf("expected Murf info entry")
	}
	for _, entry := range logs.All() {
		if strings.Contains(entry.Message, "murf-1") {
			t.Fatalf("raw key leaked into log message %q", entry.Message)
		}
		for _, field := range entry.Context {
			if field.String == "murf-1" {
				t.Fatalf("raw key leaked into field %s", field.Key)
			}
		}
	}
}

func TestActivateSwallowsWiringFailure(t *testing.T) {
	t.Parallel()

	store := credentials.NewStore(map[string]string{
		credentials.AssemblyAIAPIKey: "aai-1",
		credentials.GeminiAPIKey:     "bad key",
	})
	chat := &recordingWirer{err: errors.New("malformed")}
	activator, logs := newObservedActivator(t, store, &recordingWirer{}, chat)

	report := activator.Activate(context.Background())

	status, _ := report.Slot(credentials.GeminiAPIKey)
	if status.State != StateFailed || status.Err == nil {
		t.Fatalf("expected chat slot failed, got %+v", status)
	}
	status, _ = report.Slot(credentials.AssemblyAIAPIKey)
	if status.State != StateConfigured {
		t.Fatalf("expected speech slot unaffected, got %+v", status)
	}
	if logs.FilterLevelExact(zapcore.ErrorLevel).Len() != 1 {
		t.Fatalf("expected one error entry, got %d", logs.FilterLevelExact(zapcore.ErrorLevel).Len())
	}
}

func TestActivateRecoversWirerPanic(t *testing.T) {
	t.Parallel()

	store := credentials.NewStore(map[string]string{
		credentials.AssemblyAIAPIKey: "aai-1",
		credentials.GeminiAPIKey:     "g-1",
	})
	speech := WireFunc(func(context.Context, string) error {
		panic("sdk exploded")
	})
	chat := &recordingWirer{}
	activator, logs := newObservedActivator(t, store, speech, chat)

	report := activator.Activate(context.Background())

	status, _ := report.Slot(credentials.AssemblyAIAPIKey)
	if status.State != StateFailed {
		t.Fatalf("expected panic to mark slot failed, got %s", status.State)
	}
	if len(chat.keys) != 1 {
		t.Fatalf("expected later slots to still be wired")
	}
	if logs.FilterLevelExact(zapcore.ErrorLevel).Len() != 1 {
		t.Fatalf("expected panic to be logged at error level")
	}
}

func TestSetWithBrokenChatKeyDoesNotPropagate(t *testing.T) {
	t.Parallel()

	var activator *Activator
	store := credentials.NewStore(
		map[string]string{credentials.AssemblyAIAPIKey: "aai-1"},
		credentials.WithActivation(func(ctx context.Context) { activator.Activate(ctx) }),
	)
	chat := WireFunc(func(context.Context, string) error {
		return errors.New("invalid api key")
	})
	activator = New(store, DefaultSlots(&recordingWirer{}, chat), zap.NewNop())

	store.Set(context.Background(), map[string]string{credentials.GeminiAPIKey: "broken"})

	if got, _ := store.Get(credentials.AssemblyAIAPIKey); got != "aai-1" {
		t.Fatalf("expected unrelated slot intact, got %q", got)
	}
	status, _ := activator.Status().Slot(credentials.GeminiAPIKey)
	if status.State != StateFailed {
		t.Fatalf("expected chat slot failed after Set, got %s", status.State)
	}
}

func TestActivateIsIdempotent(t *testing.T) {
	t.Parallel()

	store := credentials.NewStore(map[string]string{
		credentials.GeminiAPIKey: "g-1",
		credentials.MurfAPIKey:   "murf-1",
	})
	activator := New(store, DefaultSlots(&recordingWirer{}, &recordingWirer{}), zap.NewNop())

	activator.Activate(context.Background())
	first := store.Snapshot()
	activator.Activate(context.Background())
	second := store.Snapshot()

	if !reflect.DeepEqual(first, second) {
		t.Fatalf("expected activation not to mutate credentials: %v vs %v", first, second)
	}
}

func TestBlankOverrideCannotUnconfigure(t *testing.T) {
	t.Parallel()

	var activator *Activator
	store := credentials.NewStore(
		map[string]string{credentials.GeminiAPIKey: "g-1"},
		credentials.WithActivation(func(ctx context.Context) { activator.Activate(ctx) }),
	)
	activator = New(store, DefaultSlots(&recordingWirer{}, &recordingWirer{}), zap.NewNop())
	activator.Activate(context.Background())

	store.Set(context.Background(), map[string]string{credentials.GeminiAPIKey: "   "})

	status, _ := activator.Status().Slot(credentials.GeminiAPIKey)
	if status.State != StateConfigured {
		t.Fatalf("expected chat slot to stay configured, got %s", status.State)
	}
}

func TestStatusBeforeActivation(t *testing.T) {
	t.Parallel()

	now := time.Date(2024, 11, 1, 12, 0, 0, 0, time.UTC)
	activator := New(credentials.NewStore(nil), DefaultSlots(nil, nil), nil, WithClock(func() time.Time { return now }))

	status := activator.Status()
	if len(status.Slots) != 3 {
		t.Fatalf("expected 3 slots, got %d", len(status.Slots))
	}
	for _, slot := range status.Slots {
		if slot.State != StateUnconfigured {
			t.Fatalf("expected %s unconfigured, got %s", slot.Name, slot.State)
		}
	}
	if !status.ActivatedAt.IsZero() {
		t.Fatalf("expected zero activation time before Activate")
	}

	if got := activator.Activate(context.Background()).ActivatedAt; !got.Equal(now) {
		t.Fatalf("expected activation time %s, got %s", now, got)
	}
}
