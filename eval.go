// Copyright 2025 Brian Wang <wangbuke@gmail.com>
// SPDX-License-Identifier: Apache-2.0

package jsbridge

import (
	"encoding/json"
	"fmt"
)

// evalFunctionName is the throwaway global the expression is wrapped in so
// the regular invocation path can run it.
const evalFunctionName = "__jsbridge_expr"

// EvalJSON evaluates a JavaScript expression in the Session and returns its
// value as sanitized raw JSON. The expression runs under the call timeout
// like any function call.
func (s *Session) EvalJSON(expression string) (json.RawMessage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, &CallError{Kind: CallEngineRuntime, Function: evalFunctionName, Err: errSessionClosed}
	}

	wrapper := fmt.Sprintf("function %s() { return (%s\n); }", evalFunctionName, expression)
	if err := s.engine.Execute(s.scriptName, wrapper); err != nil {
		return nil, s.loadError(err)
	}
	return s.invoke(evalFunctionName, evalFunctionName, nil)
}

// EvalJSON evaluates a JavaScript expression in a throwaway Session and
// returns its value as sanitized raw JSON.
func EvalJSON(expression string, opts ...Option) (json.RawMessage, error) {
	s, err := New(opts...)
	if err != nil {
		return nil, err
	}
	defer s.Close()
	return s.EvalJSON(expression)
}
