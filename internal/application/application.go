package application

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/aryansondharva/N9NE/internal/activation"
	"github.com/aryansondharva/N9NE/internal/api"
	"github.com/aryansondharva/N9NE/internal/config"
	"github.com/aryansondharva/N9NE/internal/credentials"
	"github.com/aryansondharva/N9NE/internal/integrations"
)

// App encapsulates the application dependencies and HTTP server.
type App struct {
	store     *credentials.Store
	activator *activation.Activator
	speech    *integrations.SpeechToText
	chat      *integrations.Chat
	voice     *integrations.TextToSpeech
	handler   *api.Handler
	router    http.Handler
	logger    *zap.Logger
	server    *http.Server
}

// Option configures App construction.
type Option func(*options)

type options struct {
	lookup    credentials.LookupFunc
	persister credentials.Persister
}

// WithLookup replaces os.LookupEnv as the source of the initial credentials.
func WithLookup(lookup credentials.LookupFunc) Option {
	return func(o *options) {
		o.lookup = lookup
	}
}

// WithPersister overrides the keyring persister used when persistence is enabled.
func WithPersister(p credentials.Persister) Option {
	return func(o *options) {
		o.persister = p
	}
}

// New seeds the credential store from the environment, activates the
// integrations and builds the HTTP server. Missing or invalid credentials
// never make New fail.
func New(ctx context.Context, cfg config.Config, logger *zap.Logger, opts ...Option) (*App, error) {
	if logger == nil {
		return nil, errors.New("logger is required")
	}

	o := options{}
	for _, opt := range opts {
		opt(&o)
	}

	app := &App{
		speech: integrations.NewSpeechToText(),
		chat:   integrations.NewChat(),
		logger: logger,
	}

	storeOpts := []credentials.Option{
		credentials.WithLogger(logger.Named("credentials")),
		credentials.WithActivation(func(ctx context.Context) {
			app.activator.Activate(ctx)
		}),
	}
	if cfg.PersistCredentials {
		persister := o.persister
		if persister == nil {
			persister = credentials.NewKeyringPersister(cfg.KeyringService)
		}
		storeOpts = append(storeOpts, credentials.WithPersister(persister))
	}

	app.store = credentials.NewStore(credentials.FromEnv(o.lookup), storeOpts...)
	if err := app.store.LoadPersisted(); err != nil {
		logger.Warn("failed to restore persisted credentials", zap.Error(err))
	}

	app.voice = integrations.NewTextToSpeech(app.store)
	app.activator = activation.New(app.store,
		activation.DefaultSlots(app.speech, app.chat),
		logger.Named("activation"),
	)
	app.activator.Activate(ctx)

	app.handler = api.NewHandler(app.store, app.activator)
	app.router = api.NewRouter(app.handler, logger,
		api.WithLogging(cfg.EnableRequestLogging),
		api.WithRateLimit(cfg.RateLimitRPS, cfg.RateLimitBurst),
		api.WithAllowedOrigins(cfg.CORSAllowedOrigins...),
	)
	app.server = NewServer(cfg, app.router)

	return app, nil
}

// NewServer creates and configures an HTTP server from the provided configuration.
func NewServer(cfg config.Config, handler http.Handler) *http.Server {
	addr := cfg.Port
	if !strings.Contains(addr, ":") {
		addr = ":" + addr
	}

	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
	}
}

// Start starts the HTTP server in a goroutine and logs the listening address.
func (a *App) Start() error {
	go func() {
		a.logger.Info("server listening", zap.String("addr", a.server.Addr))
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Fatal("server error", zap.Error(err))
		}
	}()
	return nil
}

// Server returns the HTTP server instance for shutdown handling.
func (a *App) Server() *http.Server {
	return a.server
}

// Credentials returns the shared credential store.
func (a *App) Credentials() *credentials.Store {
	return a.store
}

// SpeechToText returns the AssemblyAI handle.
func (a *App) SpeechToText() *integrations.SpeechToText {
	return a.speech
}

// Chat returns the Gemini handle.
func (a *App) Chat() *integrations.Chat {
	return a.chat
}

// TextToSpeech returns the Murf key reader.
func (a *App) TextToSpeech() *integrations.TextToSpeech {
	return a.voice
}
