// Package session wires a scene, its history and the supporting services
// (autosave store, metrics, key bindings, scripting, config reload) into
// one editing session. Components receive their collaborators explicitly;
// there are no package-level singletons.
package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/gdamore/tcell/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/dshills/heliocanvas/internal/command"
	"github.com/dshills/heliocanvas/internal/config"
	"github.com/dshills/heliocanvas/internal/edit"
	"github.com/dshills/heliocanvas/internal/keybind"
	"github.com/dshills/heliocanvas/internal/logging"
	"github.com/dshills/heliocanvas/internal/metrics"
	"github.com/dshills/heliocanvas/internal/observable"
	"github.com/dshills/heliocanvas/internal/scene"
	"github.com/dshills/heliocanvas/internal/script"
	"github.com/dshills/heliocanvas/internal/store"
)

// ErrClosed is returned by operations on a closed Session.
var ErrClosed = errors.New("session closed")

// Session is one editing session.
type Session struct {
	*edit.Editor

	logger    zerolog.Logger
	store     *store.Store
	script    *script.Engine
	scriptOut io.Writer

	registerer prometheus.Registerer
	metrics    *metrics.Collector
	unsubs     []observable.Unsubscribe

	mu      sync.Mutex
	cfg     *config.Config
	keys    *keybind.Map
	watcher *config.Watcher
	closed  bool
}

// Option configures a Session.
type Option func(*Session)

// WithLogger sets the session logger.
func WithLogger(l zerolog.Logger) Option {
	return func(s *Session) { s.logger = l }
}

// WithRegisterer sets where metrics are registered. The default is
// prometheus.DefaultRegisterer.
func WithRegisterer(reg prometheus.Registerer) Option {
	return func(s *Session) { s.registerer = reg }
}

// WithScriptOutput sets where Lua print writes.
func WithScriptOutput(w io.Writer) Option {
	return func(s *Session) { s.scriptOut = w }
}

// Open builds a session from cfg. If cfg.Store.Path is set, objects saved
// by a previous session are loaded into the scene; loading is not an edit
// and leaves the history empty.
func Open(ctx context.Context, cfg *config.Config, opts ...Option) (_ *Session, err error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	s := &Session{
		logger:     zerolog.Nop(),
		scriptOut:  io.Discard,
		registerer: prometheus.DefaultRegisterer,
		cfg:        cfg,
	}
	for _, opt := range opts {
		opt(s)
	}
	defer func() {
		if err != nil {
			_ = s.Close()
		}
	}()

	keys, err := keybind.New(cfg.Keys.Undo, cfg.Keys.Redo)
	if err != nil {
		return nil, err
	}
	s.keys = keys

	history := command.NewManager(
		command.WithMaxCommands(cfg.History.MaxCommands),
		command.WithLogger(logging.Component(s.logger, "history")),
	)
	sc := scene.New()

	var persister edit.Persister
	if cfg.Store.Path != "" {
		st, err := store.Open(ctx, cfg.Store.Path, store.WithLogger(logging.Component(s.logger, "store")))
		if err != nil {
			return nil, err
		}
		s.store = st
		persister = st

		objs, err := st.Load(ctx)
		if err != nil {
			return nil, fmt.Errorf("load scene: %w", err)
		}
		for _, obj := range objs {
			if err := sc.Add(obj); err != nil {
				return nil, err
			}
		}
		s.logger.Info().Str("path", st.Path()).Int("objects", len(objs)).Msg("scene loaded")
	}

	s.Editor = edit.NewEditor(sc, history, persister)

	if cfg.Metrics.Enabled {
		c, err := metrics.New(cfg.Metrics.Namespace, s.registerer)
		if err != nil {
			return nil, fmt.Errorf("register metrics: %w", err)
		}
		s.metrics = c
		s.unsubs = append(s.unsubs, c.ObserveManager(history), c.ObserveScene(sc))
	}

	s.script = script.New(s.Editor,
		script.WithTimeout(cfg.ScriptTimeout()),
		script.WithLimits(cfg.Script.CallStack, cfg.Script.RegistrySize),
		script.WithOutput(s.scriptOut),
		script.WithLogger(logging.Component(s.logger, "script")),
	)
	return s, nil
}

// Config returns the active configuration.
func (s *Session) Config() *config.Config {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cfg
}

// Keys returns the active key bindings.
func (s *Session) Keys() *keybind.Map {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.keys
}

// HandleKey performs the history action bound to ev, if any, and reports
// which action it was.
func (s *Session) HandleKey(ctx context.Context, ev *tcell.EventKey) (keybind.Action, error) {
	action := s.Keys().Resolve(ev)
	switch action {
	case keybind.ActionUndo:
		return action, s.Undo(ctx)
	case keybind.ActionRedo:
		return action, s.Redo(ctx)
	}
	return keybind.ActionNone, nil
}

// RunScript runs Lua code against the session.
func (s *Session) RunScript(ctx context.Context, code string) error {
	return s.script.DoString(ctx, code)
}

// RunScriptFile runs the Lua file at path against the session.
func (s *Session) RunScriptFile(ctx context.Context, path string) error {
	return s.script.DoFile(ctx, path)
}

// ApplyConfig switches to cfg. History capacity and key bindings take
// effect immediately; store, metrics and script limits are fixed for the
// life of the session.
func (s *Session) ApplyConfig(cfg *config.Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	keys, err := keybind.New(cfg.Keys.Undo, cfg.Keys.Redo)
	if err != nil {
		return err
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	prev := s.cfg
	s.cfg = cfg
	s.keys = keys
	s.mu.Unlock()

	s.History().SetMaxCommands(cfg.History.MaxCommands)
	if prev.Store.Path != cfg.Store.Path || prev.Metrics != cfg.Metrics {
		s.logger.Warn().Msg("store and metrics changes apply to new sessions only")
	}
	s.logger.Info().Int("max_commands", cfg.History.MaxCommands).Msg("config applied")
	return nil
}

// WatchConfig reloads path on change and applies it. Reload errors are
// logged and the current configuration stays in effect.
func (s *Session) WatchConfig(path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	if s.watcher != nil {
		_ = s.watcher.Close()
	}

	w, err := config.Watch(path, func(cfg *config.Config, err error) {
		if err != nil {
			return
		}
		if err := s.ApplyConfig(cfg); err != nil {
			s.logger.Warn().Err(err).Msg("config not applied")
		}
	}, config.WithWatchLogger(logging.Component(s.logger, "config")))
	if err != nil {
		return err
	}
	s.watcher = w
	return nil
}

// Close releases every resource. Close is idempotent.
func (s *Session) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	w := s.watcher
	s.mu.Unlock()

	var errs []error
	if w != nil {
		errs = append(errs, w.Close())
	}
	for _, u := range s.unsubs {
		u()
	}
	if s.metrics != nil {
		errs = append(errs, s.metrics.Unregister(s.registerer))
	}
	if s.script != nil {
		errs = append(errs, s.script.Close())
	}
	if s.store != nil {
		errs = append(errs, s.store.Close())
	}
	return errors.Join(errs...)
}
