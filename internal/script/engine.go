package script

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	lua "github.com/yuin/gopher-lua"

	"github.com/dshills/heliocanvas/internal/edit"
)

// Default limits.
const (
	DefaultTimeout       = 5 * time.Second
	DefaultCallStackSize = 120
	DefaultRegistrySize  = 1024 * 20
)

// ErrClosed is returned when running code on a closed Engine.
var ErrClosed = errors.New("script engine closed")

// Engine is a Lua runtime bound to an editor.
//
// gopher-lua states are not goroutine-safe; Engine serializes runs.
type Engine struct {
	mu     sync.Mutex
	L      *lua.LState
	editor *edit.Editor

	timeout       time.Duration
	callStackSize int
	registrySize  int
	out           io.Writer
	logger        zerolog.Logger

	closed bool
}

// Option configures an Engine.
type Option func(*Engine)

// WithTimeout bounds each run.
func WithTimeout(d time.Duration) Option {
	return func(e *Engine) {
		if d > 0 {
			e.timeout = d
		}
	}
}

// WithLimits sets the Lua call stack and registry sizes.
func WithLimits(callStack, registry int) Option {
	return func(e *Engine) {
		if callStack > 0 {
			e.callStackSize = callStack
		}
		if registry > 0 {
			e.registrySize = registry
		}
	}
}

// WithOutput sets where print writes. The default discards output.
func WithOutput(w io.Writer) Option {
	return func(e *Engine) { e.out = w }
}

// WithLogger sets the engine logger.
func WithLogger(l zerolog.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// New creates a sandboxed engine with the canvas module installed.
func New(editor *edit.Editor, opts ...Option) *Engine {
	if editor == nil {
		panic("script: New requires an editor")
	}
	e := &Engine{
		editor:        editor,
		timeout:       DefaultTimeout,
		callStackSize: DefaultCallStackSize,
		registrySize:  DefaultRegistrySize,
		out:           io.Discard,
		logger:        zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(e)
	}

	e.L = lua.NewState(lua.Options{
		SkipOpenLibs:  true,
		CallStackSize: e.callStackSize,
		RegistrySize:  e.registrySize,
	})
	openSafeLibraries(e.L)
	e.L.SetGlobal("print", e.L.NewFunction(e.print))
	e.installCanvas()
	return e
}

// openSafeLibraries opens only the libraries without host access.
func openSafeLibraries(L *lua.LState) {
	lua.OpenBase(L)
	lua.OpenTable(L)
	lua.OpenString(L)
	lua.OpenMath(L)

	for _, name := range []string{"dofile", "loadfile", "load", "loadstring", "require", "module"} {
		L.SetGlobal(name, lua.LNil)
	}
}

// DoString runs a chunk of Lua code.
func (e *Engine) DoString(ctx context.Context, code string) error {
	return e.run(ctx, "chunk", func() error { return e.L.DoString(code) })
}

// DoFile runs the Lua file at path.
func (e *Engine) DoFile(ctx context.Context, path string) error {
	return e.run(ctx, path, func() error { return e.L.DoFile(path) })
}

func (e *Engine) run(ctx context.Context, name string, fn func() error) (err error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return ErrClosed
	}

	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()
	e.L.SetContext(ctx)
	defer e.L.RemoveContext()

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("lua panic: %v", r)
		}
	}()

	start := time.Now()
	if err := fn(); err != nil {
		e.logger.Debug().Err(err).Str("script", name).Msg("script failed")
		if ctxErr := ctx.Err(); ctxErr != nil {
			return fmt.Errorf("run %s: %w", name, ctxErr)
		}
		return fmt.Errorf("run %s: %w", name, err)
	}
	e.logger.Debug().Str("script", name).Dur("elapsed", time.Since(start)).Msg("script done")
	return nil
}

func (e *Engine) print(L *lua.LState) int {
	n := L.GetTop()
	parts := make([]string, n)
	for i := 1; i <= n; i++ {
		parts[i-1] = L.ToStringMeta(L.Get(i)).String()
	}
	_, _ = fmt.Fprintln(e.out, strings.Join(parts, "\t"))
	return 0
}

// Close releases the Lua state. Close is idempotent.
func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return nil
	}
	e.L.Close()
	e.closed = true
	return nil
}
