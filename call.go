// Copyright 2025 Brian Wang <wangbuke@gmail.com>
// SPDX-License-Identifier: Apache-2.0

package jsbridge

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/buke/js-bridge/engine"
)

// invocationScript builds the script that invokes fnExpr with the already
// serialized argument list. The result is awaited unconditionally, so async
// functions and plain functions returning promises behave the same; a promise
// that never settles simply produces no result. An undefined result is
// normalized to null so the host always receives a value. Failures of any
// step reach the host through __jsbridge_raise, which also marks the
// invocation promise as handled.
func invocationScript(fnExpr, argList string) string {
	return fmt.Sprintf(`(async () => {
	let __jsbridge_result = await (%[1]s)(%[2]s);
	if (typeof __jsbridge_result === 'undefined') __jsbridge_result = null;
	__jsbridge_return(__jsbridge_result);
})().catch(function (e) { __jsbridge_raise('' + e); });`, fnExpr, argList)
}

// Call invokes the named global JavaScript function with the given arguments
// and decodes its result into out. Pass nil to discard the result.
func (s *Session) Call(out any, function string, args ...any) error {
	raw, err := s.CallRaw(function, args...)
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	return decodeInto(raw, out, function)
}

// CallRaw invokes the named global JavaScript function and returns its
// result as sanitized raw JSON.
func (s *Session) CallRaw(function string, args ...any) (json.RawMessage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.invoke(function, function, args)
}

// Call invokes the named global JavaScript function inside s and decodes its
// result into an R. It is sugar for Session.Call with an explicit result
// type parameter.
func Call[R any](s *Session, function string, args ...any) (R, error) {
	var out R
	err := s.Call(&out, function, args...)
	return out, err
}

// invoke runs one function call to completion: it encodes the arguments,
// executes the invocation script, arms the watcher when a timeout is set and
// classifies the outcome. The caller must hold s.mu. function is the name
// used in diagnostics, fnExpr the expression the script invokes.
func (s *Session) invoke(function, fnExpr string, args []any) (json.RawMessage, error) {
	if s.closed {
		return nil, &CallError{Kind: CallEngineRuntime, Function: function, Err: errSessionClosed}
	}

	argList, err := encodeArgs(args)
	if err != nil {
		return nil, err
	}

	// Values never consumed by earlier calls are dead at this point.
	s.slots.purge()
	s.failure = nil
	expect := s.slots.nextID()

	gen := s.generation.Add(1)
	if s.timeout > 0 {
		s.watch(gen, function)
	}
	start := time.Now()
	execErr := s.engine.Execute(s.scriptName, invocationScript(fnExpr, argList))
	s.generation.Add(1)

	if execErr != nil {
		if errors.Is(execErr, engine.ErrTerminated) {
			return nil, &CallError{
				Kind:     CallTimeout,
				Function: function,
				Message:  fmt.Sprintf("exceeded %v wall-clock limit after %v", s.timeout, time.Since(start).Round(time.Millisecond)),
				Err:      execErr,
			}
		}
		return nil, &CallError{Kind: CallEngineRuntime, Function: function, Err: execErr}
	}
	if s.failure != nil {
		return nil, &CallError{Kind: CallEngineRuntime, Function: function, Message: *s.failure}
	}

	raw, ok := s.slots.take(expect)
	if !ok {
		return nil, &CallError{Kind: CallNoResult, Function: function, Message: "function produced no result"}
	}
	clean, err := SanitizeNumber(raw)
	if err != nil {
		return nil, &CallError{Kind: CallDecode, Function: function, Message: err.Error(), Err: err}
	}
	return clean, nil
}

// watch arms a detached watcher for the call identified by gen. The watcher
// sleeps for the full limit and then terminates execution, but only if that
// same call is still running. It is never cancelled: once the call finishes
// the generation moves on and a late watcher does nothing.
func (s *Session) watch(gen uint64, function string) {
	intr := s.engine.Interrupter()
	limit := s.timeout
	logger := s.logger
	go func() {
		time.Sleep(limit)
		if s.generation.Load() != gen {
			return
		}
		if logger != nil {
			logger.Warn("call exceeded wall-clock limit, terminating", "function", function, "timeout", limit)
		}
		intr.Interrupt()
	}()
}
