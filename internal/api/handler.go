package api

import (
	"context"
	"encoding/json"
	"net/http"
	"sort"
	"time"

	"github.com/aryansondharva/N9NE/internal/activation"
	"github.com/aryansondharva/N9NE/internal/credentials"
)

type contextKey string

const requestIDContextKey contextKey = "requestID"

const maxBodyBytes = 64 << 10

// CredentialStore is the subset of the credential store the handlers need.
type CredentialStore interface {
	Snapshot() map[string]string
	Set(ctx context.Context, overrides map[string]string)
	UpdatedAt() time.Time
}

// Activator re-runs and reports integration activation.
type Activator interface {
	Activate(ctx context.Context) activation.Report
	Status() activation.Report
}

// Handler wires the credential store and activator into HTTP handlers.
type Handler struct {
	store     CredentialStore
	activator Activator

	clock func() time.Time
}

// HandlerOption configures Handler behaviour.
type HandlerOption func(*Handler)

// WithClock overrides the time source, primarily for tests.
func WithClock(clock func() time.Time) HandlerOption {
	return func(h *Handler) {
		h.clock = clock
	}
}

// NewHandler constructs a Handler with the provided dependencies.
func NewHandler(store CredentialStore, activator Activator, opts ...HandlerOption) *Handler {
	h := &Handler{
		store:     store,
		activator: activator,
		clock: func() time.Time {
			return time.Now().UTC()
		},
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	_ = r
	resp := healthResponse{
		Status:    "ok",
		Timestamp: h.clock(),
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleGetCredentials(w http.ResponseWriter, r *http.Request) {
	_ = r
	writeJSON(w, http.StatusOK, h.credentialsResponse(h.activator.Status(), ""))
}

func (h *Handler) handlePutCredentials(w http.ResponseWriter, r *http.Request) {
	var overrides map[string]string
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(&overrides); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request", "body must be a JSON object of credential names to string values")
		return
	}

	h.store.Set(r.Context(), overrides)

	writeJSON(w, http.StatusOK, h.credentialsResponse(h.activator.Status(), "Credentials updated successfully"))
}

func (h *Handler) handleActivate(w http.ResponseWriter, r *http.Request) {
	report := h.activator.Activate(r.Context())
	writeJSON(w, http.StatusOK, h.credentialsResponse(report, "Integrations re-activated"))
}

func (h *Handler) credentialsResponse(report activation.Report, message string) credentialsResponse {
	values := h.store.Snapshot()

	items := make([]credentialStatus, 0, len(values)+len(report.Slots))
	seen := make(map[string]struct{}, len(report.Slots))
	for _, slot := range report.Slots {
		seen[slot.Name] = struct{}{}
		item := credentialStatus{
			Name:        slot.Name,
			Integration: slot.Integration,
			Feature:     slot.Feature,
			Configured:  slot.State == activation.StateConfigured,
			State:       string(slot.State),
			MaskedValue: credentials.Mask(values[slot.Name]),
		}
		if slot.Err != nil {
			item.Error = slot.Err.Error()
		}
		items = append(items, item)
	}

	extra := make([]string, 0)
	for name := range values {
		if _, ok := seen[name]; !ok {
			extra = append(extra, name)
		}
	}
	sort.Strings(extra)
	for _, name := range extra {
		items = append(items, credentialStatus{
			Name:        name,
			State:       "unmanaged",
			MaskedValue: credentials.Mask(values[name]),
		})
	}

	return credentialsResponse{
		Credentials: items,
		UpdatedAt:   h.store.UpdatedAt(),
		ActivatedAt: report.ActivatedAt,
		Message:     message,
	}
}

func requestIDFromContext(ctx context.Context) string {
	if v := ctx.Value(requestIDContextKey); v != nil {
		if id, ok := v.(string); ok {
			return id
		}
	}
	return ""
}

type credentialStatus struct {
	Name        string `json:"name"`
	Integration string `json:"integration,omitempty"`
	Feature     string `json:"feature,omitempty"`
	Configured  bool   `json:"configured"`
	State       string `json:"state"`
	MaskedValue string `json:"maskedValue,omitempty"`
	Error       string `json:"error,omitempty"`
}

type credentialsResponse struct {
	Credentials []credentialStatus `json:"credentials"`
	UpdatedAt   time.Time          `json:"updatedAt"`
	ActivatedAt time.Time          `json:"activatedAt"`
	Message     string             `json:"message,omitempty"`
}

type healthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
}

type errorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	if status != 0 {
		w.WriteHeader(status)
	}
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message, details string) {
	writeJSON(w, status, errorResponse{
		Error:   message,
		Details: details,
	})
}
