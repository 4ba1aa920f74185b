// Copyright 2025 Brian Wang <wangbuke@gmail.com>
// SPDX-License-Identifier: Apache-2.0

package jsbridge

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/buke/js-bridge/engine"
	gojaengine "github.com/buke/js-bridge/engines/goja"
)

// defaultScriptName is the name used for diagnostics when the script source
// did not come from a file.
const defaultScriptName = "sandboxed.js"

// Names of the host functions the prelude script expects as globals.
const (
	hostSendName  = "__jsbridge_send"
	hostPrintName = "__jsbridge_print"
	hostRaiseName = "__jsbridge_raise"
)

//go:embed prelude.js
var preludeScript string

// Session owns one JavaScript execution context and calls functions inside
// it. All methods serialize on an internal mutex; the only concurrency a
// Session ever creates itself is the watcher goroutine that enforces the
// wall-clock limit set by WithTimeout.
type Session struct {
	factory    engine.Factory
	logger     *slog.Logger
	console    io.Writer
	scriptName string

	mu         sync.Mutex
	engine     engine.Engine
	slots      *resultTable
	failure    *string
	namespaces map[string]string // namespace name -> entry function
	timeout    time.Duration
	generation atomic.Uint64
	closed     bool
}

// Option configures a Session before its engine is created.
type Option func(*Session)

// WithEngine sets the factory used to create the underlying JavaScript
// engine. The default is the pure Go goja engine.
func WithEngine(factory engine.Factory) Option {
	return func(s *Session) {
		if factory != nil {
			s.factory = factory
		}
	}
}

// WithLogger sets the logger. The default is slog.Default(); pass nil to
// disable logging entirely.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Session) {
		s.logger = logger
	}
}

// WithConsole redirects script console output. The default is os.Stdout;
// pass nil to discard it.
func WithConsole(w io.Writer) Option {
	return func(s *Session) {
		s.console = w
	}
}

// WithScriptName sets the name scripts are reported under in diagnostics.
func WithScriptName(name string) Option {
	return func(s *Session) {
		if name != "" {
			s.scriptName = name
		}
	}
}

// New creates an empty Session with the host bridge installed but no user
// script loaded. Most callers want FromString or FromFile instead.
func New(opts ...Option) (*Session, error) {
	s := &Session{
		factory:    gojaengine.NewFactory(),
		logger:     slog.Default(),
		console:    os.Stdout,
		scriptName: defaultScriptName,
		slots:      newResultTable(),
		namespaces: make(map[string]string),
	}
	for _, opt := range opts {
		opt(s)
	}

	eng, err := s.factory()
	if err != nil {
		return nil, &LoadError{Kind: LoadRuntime, Script: s.scriptName, Err: fmt.Errorf("create engine: %w", err)}
	}
	s.engine = eng

	if err := s.bindHost(); err != nil {
		eng.Close()
		return nil, &LoadError{Kind: LoadRuntime, Script: s.scriptName, Err: fmt.Errorf("bind host functions: %w", err)}
	}
	if err := eng.Execute(s.scriptName, preludeScript); err != nil {
		eng.Close()
		return nil, s.loadError(err)
	}

	if s.logger != nil {
		s.logger.Debug("session created", "script", s.scriptName)
	}
	return s, nil
}

// FromString creates a Session and loads the given script source into it.
func FromString(source string, opts ...Option) (*Session, error) {
	s, err := New(opts...)
	if err != nil {
		return nil, err
	}
	if err := s.Load(source); err != nil {
		s.Close()
		return nil, err
	}
	return s, nil
}

// FromFile creates a Session and loads the script file at path into it.
// The path becomes the script name unless WithScriptName overrides it.
func FromFile(path string, opts ...Option) (*Session, error) {
	source, err := os.ReadFile(path)
	if err != nil {
		return nil, &LoadError{Kind: LoadIO, Script: path, Err: err}
	}
	opts = append([]Option{WithScriptName(path)}, opts...)
	return FromString(string(source), opts...)
}

// WithTimeout sets the wall-clock limit applied to every subsequent call and
// returns the Session for chaining. It panics if a limit was already set or
// if d is not positive; a Session without WithTimeout has no limit.
func (s *Session) WithTimeout(d time.Duration) *Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.timeout != 0 {
		panic("js-bridge: call timeout already set")
	}
	if d <= 0 {
		panic("js-bridge: call timeout must be positive")
	}
	s.timeout = d
	return s
}

// Close releases the engine and all its resources. Closing an already
// closed Session is a no-op.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	if err := s.engine.Close(); err != nil {
		if s.logger != nil {
			s.logger.Error("failed to close engine", "script", s.scriptName, "error", err)
		}
		return err
	}
	if s.logger != nil {
		s.logger.Debug("session closed", "script", s.scriptName)
	}
	return nil
}

// bindHost registers the host callbacks the prelude script wires up.
func (s *Session) bindHost() error {
	if err := s.engine.Bind(hostSendName, s.storeResult); err != nil {
		return err
	}
	if err := s.engine.Bind(hostPrintName, s.writeConsole); err != nil {
		return err
	}
	return s.engine.Bind(hostRaiseName, s.recordFailure)
}

// storeResult receives a serialized call result from script code.
func (s *Session) storeResult(text string) {
	id := s.slots.put(json.RawMessage(text))
	if s.logger != nil {
		s.logger.Debug("result received", "slot", id, "bytes", len(text))
	}
}

// writeConsole receives console output from script code.
func (s *Session) writeConsole(text string) {
	if s.console != nil {
		io.WriteString(s.console, text)
	}
}

// recordFailure receives the message of a failed invocation from script code.
func (s *Session) recordFailure(text string) {
	s.failure = &text
}

// Load evaluates additional script source in the Session's global scope.
// Definitions from earlier loads stay visible.
func (s *Session) Load(source string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return &LoadError{Kind: LoadRuntime, Script: s.scriptName, Err: errSessionClosed}
	}
	if err := s.engine.Execute(s.scriptName, source); err != nil {
		return s.loadError(err)
	}
	if s.logger != nil {
		s.logger.Debug("script loaded", "script", s.scriptName, "bytes", len(source))
	}
	return nil
}

// LoadFile reads the script file at path and evaluates it in the Session's
// global scope.
func (s *Session) LoadFile(path string) error {
	source, err := os.ReadFile(path)
	if err != nil {
		return &LoadError{Kind: LoadIO, Script: path, Err: err}
	}
	return s.Load(string(source))
}

// loadError classifies an engine failure during script loading.
func (s *Session) loadError(err error) error {
	kind := LoadRuntime
	if errors.Is(err, engine.ErrSyntax) {
		kind = LoadSyntax
	}
	return &LoadError{Kind: kind, Script: s.scriptName, Err: err}
}

var errSessionClosed = errors.New("session is closed")
