// Copyright 2025 Brian Wang <wangbuke@gmail.com>
// SPDX-License-Identifier: Apache-2.0

package jsbridge

import (
	"fmt"
)

// LoadKind classifies why loading script source into a Session failed.
type LoadKind int

const (
	// LoadSyntax means the source text failed to parse.
	LoadSyntax LoadKind = iota
	// LoadRuntime means the source parsed but threw while evaluating.
	LoadRuntime
	// LoadIO means the script file could not be read.
	LoadIO
)

// String returns the name of the load failure kind.
func (k LoadKind) String() string {
	switch k {
	case LoadSyntax:
		return "syntax"
	case LoadRuntime:
		return "runtime"
	case LoadIO:
		return "io"
	default:
		return fmt.Sprintf("LoadKind(%d)", int(k))
	}
}

// LoadError reports a failure to load script source into a Session.
type LoadError struct {
	Kind   LoadKind // what stage of loading failed
	Script string   // script name used for diagnostics
	Err    error    // underlying cause
}

// Error implements the error interface.
func (e *LoadError) Error() string {
	return fmt.Sprintf("load %s: %s error: %v", e.Script, e.Kind, e.Err)
}

// Unwrap returns the underlying cause.
func (e *LoadError) Unwrap() error { return e.Err }

// CallKind classifies why calling a JavaScript function failed.
type CallKind int

const (
	// CallNoResult means execution finished but the function never produced
	// a value, typically because it returned a promise that never settles.
	CallNoResult CallKind = iota
	// CallTimeout means the call exceeded the Session deadline and was
	// forcibly terminated.
	CallTimeout
	// CallApplication means a namespace function reported an error value.
	CallApplication
	// CallEngineRuntime means the engine threw: the function does not
	// exist, it threw an exception, or its result could not be serialized.
	CallEngineRuntime
	// CallDecode means the JSON result did not fit the requested Go type.
	CallDecode
)

// String returns the name of the call failure kind.
func (k CallKind) String() string {
	switch k {
	case CallNoResult:
		return "no result"
	case CallTimeout:
		return "timeout"
	case CallApplication:
		return "application"
	case CallEngineRuntime:
		return "engine runtime"
	case CallDecode:
		return "decode"
	default:
		return fmt.Sprintf("CallKind(%d)", int(k))
	}
}

// CallError reports a failure to call a JavaScript function.
type CallError struct {
	Kind     CallKind // what went wrong
	Function string   // the function that was called
	Message  string   // engine- or script-provided detail, may be empty
	Err      error    // underlying cause, may be nil
}

// Error implements the error interface.
func (e *CallError) Error() string {
	msg := fmt.Sprintf("call %s: %s error", e.Function, e.Kind)
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns the underlying cause, if any.
func (e *CallError) Unwrap() error { return e.Err }

// EncodeError reports a Go argument that could not be encoded to JSON.
type EncodeError struct {
	Index int   // zero-based position of the offending argument
	Err   error // underlying cause
}

// Error implements the error interface.
func (e *EncodeError) Error() string {
	return fmt.Sprintf("encode argument %d: %v", e.Index, e.Err)
}

// Unwrap returns the underlying cause.
func (e *EncodeError) Unwrap() error { return e.Err }
