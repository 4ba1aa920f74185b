//go:build !windows

// Copyright 2025 Brian Wang <wangbuke@gmail.com>
// SPDX-License-Identifier: Apache-2.0

package v8engine

import (
	"errors"
	"fmt"
	"strings"
	"sync/atomic"

	"github.com/tommie/v8go"

	"github.com/buke/js-bridge/engine"
)

var (
	// Make these functions variables so they can be mocked in tests.
	v8NewIsolate          = v8go.NewIsolate
	v8NewContext          = v8go.NewContext
	v8NewFunctionTemplate = v8go.NewFunctionTemplate
)

// Engine implements the engine.Engine interface using the V8 engine.
// It encapsulates a V8 Isolate and Context.
type Engine struct {
	// Iso is the V8 Isolate, representing a single-threaded VM instance.
	// It is exposed publicly to allow for advanced custom options.
	Iso *v8go.Isolate

	// Ctx is the V8 Context, representing the execution environment.
	// It is exposed publicly to allow for advanced custom options.
	Ctx *v8go.Context

	// Option holds the engine-specific configurations.
	Option *EngineOption

	interrupted atomic.Bool // Set by the interrupter, cleared on Execute
}

// NewFactory creates a new engine.Factory for the V8 engine.
func NewFactory(opts ...Option) engine.Factory {
	return func() (engine.Engine, error) {
		return newEngine(opts...)
	}
}

// newEngine creates and initializes a new V8 Engine instance.
func newEngine(opts ...Option) (*Engine, error) {
	e := &Engine{
		Option: &EngineOption{},
	}
	for _, opt := range opts {
		if err := opt(e); err != nil {
			return nil, fmt.Errorf("failed to apply option: %w", err)
		}
	}

	iso := v8NewIsolate()
	if iso == nil {
		return nil, fmt.Errorf("failed to create v8 isolate")
	}
	e.Iso = iso

	ctx := v8NewContext(iso)
	if ctx == nil {
		iso.Dispose() // Clean up isolate if context creation fails
		return nil, fmt.Errorf("failed to create v8 context")
	}
	e.Ctx = ctx

	return e, nil
}

// Execute runs source in the context and flushes the microtask queue so
// promise callbacks scheduled by the script have run before it returns.
func (e *Engine) Execute(name, source string) error {
	e.interrupted.Store(false)

	if _, err := e.Ctx.RunScript(source, name); err != nil {
		return e.normalize(err)
	}
	e.Ctx.PerformMicrotaskCheckpoint()
	if e.interrupted.Load() {
		return engine.ErrTerminated
	}
	return nil
}

// Bind registers fn as a global function receiving its first argument as a
// string.
func (e *Engine) Bind(name string, fn func(string)) error {
	tmpl := v8NewFunctionTemplate(e.Iso, func(info *v8go.FunctionCallbackInfo) *v8go.Value {
		if args := info.Args(); len(args) > 0 {
			fn(args[0].String())
		}
		return nil
	})
	return e.Ctx.Global().Set(name, tmpl.GetFunction(e.Ctx))
}

// Interrupter returns a handle that aborts running scripts via
// Isolate.TerminateExecution, which is safe to call from any goroutine.
func (e *Engine) Interrupter() engine.Interrupter {
	return &isolateInterrupter{iso: e.Iso, interrupted: &e.interrupted}
}

// Close releases all resources associated with the V8 engine.
func (e *Engine) Close() error {
	if e.Ctx != nil {
		e.Ctx.Close()
		e.Ctx = nil
	}
	if e.Iso != nil {
		e.Iso.Dispose()
		e.Iso = nil
	}
	return nil
}

// normalize maps V8 errors onto the engine error contract.
func (e *Engine) normalize(err error) error {
	if e.interrupted.Load() {
		return engine.ErrTerminated
	}
	var jsErr *v8go.JSError
	if errors.As(err, &jsErr) && strings.HasPrefix(jsErr.Message, "SyntaxError") {
		return fmt.Errorf("%w: %v", engine.ErrSyntax, err)
	}
	return err
}

// isolateInterrupter terminates V8 execution. It holds its own isolate
// reference so a late Interrupt stays safe after the engine was closed.
type isolateInterrupter struct {
	iso         *v8go.Isolate
	interrupted *atomic.Bool
}

// Interrupt aborts the currently running script, if any.
func (i *isolateInterrupter) Interrupt() {
	i.interrupted.Store(true)
	i.iso.TerminateExecution()
}
