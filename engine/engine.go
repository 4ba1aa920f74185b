// Copyright 2025 Brian Wang <wangbuke@gmail.com>
// SPDX-License-Identifier: Apache-2.0

package engine

import "errors"

// ErrTerminated is returned by Execute when in-flight script execution was
// stopped through the Interrupter.
var ErrTerminated = errors.New("script execution terminated")

// ErrSyntax marks source text that failed to parse. Adapters wrap it so
// callers can tell a parse failure from a runtime throw.
var ErrSyntax = errors.New("syntax error")

// Engine is one embedded JavaScript execution context. Implementations are
// not safe for concurrent use; only the handle returned by Interrupter may be
// used from other goroutines.
type Engine interface {
	// Execute evaluates source as a classic script in the global scope and
	// drives the engine's job queue until no more work is pending. A parse
	// failure is reported as ErrSyntax, a forceful termination as
	// ErrTerminated, any other error is a runtime throw.
	Execute(name, source string) error

	// Bind registers fn as a global host function under the given name.
	// The function receives the first call argument coerced to a string.
	Bind(name string, fn func(text string)) error

	// Interrupter returns a handle that terminates in-flight execution.
	// The handle stays valid for the lifetime of the engine.
	Interrupter() Interrupter

	// Close releases the execution context and all engine resources.
	Close() error
}

// Interrupter requests termination of running script code. Interrupt may be
// called from any goroutine and at any time, including when no script is
// running; an interrupt against an idle engine must be harmless.
type Interrupter interface {
	Interrupt()
}

// Factory creates a fresh Engine instance.
type Factory func() (Engine, error)
