// Copyright 2025 Brian Wang <wangbuke@gmail.com>
// SPDX-License-Identifier: Apache-2.0

package quickjsengine

import (
	"fmt"
	"strings"
	"sync/atomic"

	"github.com/buke/quickjs-go"

	"github.com/buke/js-bridge/engine"
)

// Engine implements the engine.Engine interface on top of the QuickJS
// runtime via cgo. Termination relies on the runtime interrupt handler,
// which QuickJS polls while script code runs.
type Engine struct {
	Runtime     *quickjs.Runtime // QuickJS runtime instance
	Ctx         *quickjs.Context // QuickJS context instance
	Option      *EngineOption    // Engine configuration options
	interrupted atomic.Bool      // Set by the interrupter, cleared on Execute
}

// NewFactory returns an engine.Factory that creates QuickJS engines with the
// given options.
func NewFactory(opts ...Option) engine.Factory {
	return func() (engine.Engine, error) {
		return newEngine(opts...)
	}
}

// newEngine creates a new QuickJS engine instance. It initializes the
// runtime and context, applies all provided options and installs the
// interrupt handler the Interrupter relies on.
func newEngine(opts ...Option) (*Engine, error) {
	rt := quickjs.NewRuntime()
	ctx := rt.NewContext()

	e := &Engine{
		Runtime: rt,
		Ctx:     ctx,
		Option: &EngineOption{
			MemoryLimit:        0,  // no limit
			GCThreshold:        -1, // no threshold
			MaxStackSize:       0,  // engine default
			CanBlock:           false,
			EnableModuleImport: false,
			Strip:              1,
		},
	}
	for _, opt := range opts {
		if err := opt(e); err != nil {
			e.Close()
			return nil, fmt.Errorf("failed to apply option: %w", err)
		}
	}

	rt.SetInterruptHandler(func() int {
		if e.interrupted.Load() {
			return 1
		}
		return 0
	})
	return e, nil
}

// Execute evaluates source and drives the job queue until it is empty.
// QuickJS reports interrupts as exceptions, so the interrupted flag decides
// whether an exception means termination or a genuine throw.
func (e *Engine) Execute(name, source string) error {
	e.interrupted.Store(false)

	result := e.Ctx.Eval(source, quickjs.EvalFileName(name))
	defer result.Free()
	if result.IsException() {
		return e.normalize(e.Ctx.Exception())
	}

	// Run pending promise jobs, including rejection handlers.
	e.Ctx.Loop()
	if e.Ctx.HasException() {
		return e.normalize(e.Ctx.Exception())
	}
	if e.interrupted.Load() {
		return engine.ErrTerminated
	}
	return nil
}

// Bind registers fn as a global function receiving its first argument as a
// string.
func (e *Engine) Bind(name string, fn func(string)) error {
	hostFn := e.Ctx.NewFunction(func(ctx *quickjs.Context, this *quickjs.Value, args []*quickjs.Value) *quickjs.Value {
		if len(args) > 0 {
			fn(args[0].String())
		}
		return ctx.NewUndefined()
	})
	e.Ctx.Globals().Set(name, hostFn)
	return nil
}

// Interrupter returns a handle that makes the installed interrupt handler
// abort execution.
func (e *Engine) Interrupter() engine.Interrupter {
	return &flagInterrupter{interrupted: &e.interrupted}
}

// Close releases all resources associated with the engine, including context
// and runtime.
func (e *Engine) Close() error {
	if e.Ctx != nil {
		e.Ctx.Close()
		e.Ctx = nil
	}
	if e.Runtime != nil {
		e.Runtime.Close()
		e.Runtime = nil
	}
	return nil
}

// normalize maps QuickJS exceptions onto the engine error contract.
func (e *Engine) normalize(err error) error {
	if e.interrupted.Load() {
		return engine.ErrTerminated
	}
	if err != nil && strings.HasPrefix(err.Error(), "SyntaxError") {
		return fmt.Errorf("%w: %v", engine.ErrSyntax, err)
	}
	return err
}

// flagInterrupter terminates QuickJS execution. The interrupt handler polls
// the flag while script code runs, so setting it is all that is needed.
type flagInterrupter struct {
	interrupted *atomic.Bool
}

// Interrupt aborts the currently running script, if any.
func (i *flagInterrupter) Interrupt() {
	i.interrupted.Store(true)
}
