// Copyright 2025 Brian Wang <wangbuke@gmail.com>
// SPDX-License-Identifier: Apache-2.0

package jsbridge

import (
	"encoding/json"
	"fmt"
	"regexp"
)

// namespaceEntryName constrains entry function names to plain JavaScript
// identifiers, since the name is spliced into the wrapper script.
var namespaceEntryName = regexp.MustCompile(`^[A-Za-z_$][A-Za-z0-9_$]*$`)

// namespaceScript wraps namespace source so its declarations live in an
// isolated scope, publishing only the entry function under
// globalThis.__jsbridge_ns. The entry is wrapped to catch thrown errors or
// rejections and return them as tagged error objects instead, keeping
// application failures apart from engine failures. The async wrapper is
// transparent to the call path, which awaits every result anyway.
const namespaceScript = `globalThis.__jsbridge_ns[%[1]q] = (function () {
%[2]s
	var __jsbridge_wrap = function (fn) {
		return async function () {
			try { return await fn.apply(null, arguments); }
			catch (e) { return { error: '' + (e && e.message !== undefined ? e.message : e) }; }
		};
	};
	return { %[3]q: __jsbridge_wrap(%[3]s) };
})();`

// DefineNamespace evaluates source in an isolated scope and registers the
// function it declares under entryFn as the namespace's entry point, callable
// through CallNamespace. Nothing from source enters the global scope.
// Registering a name that already exists is ignored, so callers may define
// the same namespace unconditionally.
func (s *Session) DefineNamespace(name, entryFn, source string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return &LoadError{Kind: LoadRuntime, Script: s.scriptName, Err: errSessionClosed}
	}
	if _, ok := s.namespaces[name]; ok {
		if s.logger != nil {
			s.logger.Debug("namespace already defined, ignoring", "namespace", name)
		}
		return nil
	}
	if !namespaceEntryName.MatchString(entryFn) {
		return &LoadError{
			Kind:   LoadRuntime,
			Script: s.scriptName,
			Err:    fmt.Errorf("invalid entry function name %q", entryFn),
		}
	}

	// A source that never declares entryFn fails here with a ReferenceError.
	script := fmt.Sprintf(namespaceScript, name, source, entryFn)
	if err := s.engine.Execute(s.scriptName, script); err != nil {
		return s.loadError(err)
	}

	s.namespaces[name] = entryFn
	if s.logger != nil {
		s.logger.Debug("namespace defined", "namespace", name, "entry", entryFn)
	}
	return nil
}

// CallNamespace invokes a namespace's entry function with a single argument
// and decodes its result into out. Pass nil to discard the result.
func (s *Session) CallNamespace(out any, namespace string, arg any) error {
	raw, display, err := s.callNamespace(namespace, arg)
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	return decodeInto(raw, out, display)
}

// CallNamespaceRaw invokes a namespace's entry function with a single
// argument and returns its result as sanitized raw JSON. A tagged error
// object returned by the entry is reported as a CallApplication error.
func (s *Session) CallNamespaceRaw(namespace string, arg any) (json.RawMessage, error) {
	raw, _, err := s.callNamespace(namespace, arg)
	return raw, err
}

func (s *Session) callNamespace(namespace string, arg any) (json.RawMessage, string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.namespaces[namespace]
	if !ok {
		return nil, namespace, &CallError{
			Kind:     CallEngineRuntime,
			Function: namespace,
			Message:  fmt.Sprintf("namespace %s is not defined", namespace),
		}
	}

	display := namespace + "." + entry
	fnExpr := fmt.Sprintf("globalThis.__jsbridge_ns[%q][%q]", namespace, entry)
	raw, err := s.invoke(display, fnExpr, []any{arg})
	if err != nil {
		return nil, display, err
	}
	if msg, ok := taggedError(raw); ok {
		return nil, display, &CallError{Kind: CallApplication, Function: display, Message: msg}
	}
	return raw, display, nil
}

// taggedError reports whether raw is a JSON object with exactly one member
// named error holding a string, the shape namespace wrappers use to convey
// an application failure.
func taggedError(raw json.RawMessage) (string, bool) {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err != nil || len(obj) != 1 {
		return "", false
	}
	value, ok := obj["error"]
	if !ok {
		return "", false
	}
	var msg string
	if err := json.Unmarshal(value, &msg); err != nil {
		return "", false
	}
	return msg, true
}
