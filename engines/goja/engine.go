// Copyright 2025 Brian Wang <wangbuke@gmail.com>
// SPDX-License-Identifier: Apache-2.0

package gojaengine

import (
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/dop251/goja"

	"github.com/buke/js-bridge/engine"
)

// Engine implements the engine.Engine interface using the pure Go goja
// runtime. Promise jobs are drained by the runtime itself when a script
// finishes, so no event loop is needed; long timers are deliberately not
// provided.
type Engine struct {
	VM          *goja.Runtime // The underlying goja runtime.
	Option      *EngineOption // Engine configuration options.
	interrupted atomic.Bool   // Set by the interrupter, cleared on Execute.
}

// NewFactory returns an engine.Factory for creating goja engines.
// The factory is configured with the provided options.
func NewFactory(opts ...Option) engine.Factory {
	return func() (engine.Engine, error) {
		return newEngine(opts...)
	}
}

// newEngine creates a new goja engine instance.
func newEngine(opts ...Option) (*Engine, error) {
	vm := goja.New()
	e := &Engine{
		VM:     vm,
		Option: &EngineOption{},
	}

	// Apply the default FieldNameMapper first.
	// This can be overridden by user-provided options.
	WithFieldNameMapper(goja.TagFieldNameMapper("json", true))(e)

	for _, opt := range opts {
		if err := opt(e); err != nil {
			return nil, fmt.Errorf("failed to apply option: %w", err)
		}
	}
	return e, nil
}

// Execute compiles and runs source, classifying parse failures and
// interrupts. Pending promise jobs are run before RunProgram returns, so a
// rejection handler attached by the caller has already fired by the time
// Execute comes back.
func (e *Engine) Execute(name, source string) error {
	e.interrupted.Store(false)
	e.VM.ClearInterrupt()

	program, err := goja.Compile(name, source, false)
	if err != nil {
		return fmt.Errorf("%w: %v", engine.ErrSyntax, err)
	}
	if _, err := e.VM.RunProgram(program); err != nil {
		return e.normalize(err)
	}
	if e.interrupted.Load() {
		return engine.ErrTerminated
	}
	return nil
}

// Bind registers fn as a global function receiving its first argument as a
// string.
func (e *Engine) Bind(name string, fn func(string)) error {
	return e.VM.Set(name, func(call goja.FunctionCall) goja.Value {
		fn(call.Argument(0).String())
		return goja.Undefined()
	})
}

// Interrupter returns a handle that aborts running scripts via
// goja.Runtime.Interrupt.
func (e *Engine) Interrupter() engine.Interrupter {
	return &vmInterrupter{vm: e.VM, interrupted: &e.interrupted}
}

// Close releases the runtime. Goja is garbage collected Go code, so there is
// nothing beyond dropping the reference.
func (e *Engine) Close() error {
	e.VM = nil
	return nil
}

// normalize maps goja errors onto the engine error contract.
func (e *Engine) normalize(err error) error {
	var interrupted *goja.InterruptedError
	if errors.As(err, &interrupted) || e.interrupted.Load() {
		return engine.ErrTerminated
	}
	return err
}

// vmInterrupter terminates goja execution. It holds its own runtime
// reference so a late Interrupt stays safe after the engine was closed.
type vmInterrupter struct {
	vm          *goja.Runtime
	interrupted *atomic.Bool
}

// Interrupt aborts the currently running script, if any.
func (i *vmInterrupter) Interrupt() {
	i.interrupted.Store(true)
	i.vm.Interrupt("execution terminated")
}
