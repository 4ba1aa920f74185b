// Copyright 2025 Brian Wang <wangbuke@gmail.com>
// SPDX-License-Identifier: Apache-2.0

package quickjsengine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/buke/js-bridge/engine"
)

// newTestEngine creates an engine with a capture binding that records every
// string a script hands to it.
func newTestEngine(t *testing.T, opts ...Option) (*Engine, *[]string) {
	t.Helper()
	eng, err := NewFactory(opts...)()
	require.NoError(t, err)
	t.Cleanup(func() { eng.Close() })

	var captured []string
	require.NoError(t, eng.Bind("capture", func(text string) {
		captured = append(captured, text)
	}))
	return eng.(*Engine), &captured
}

func TestNewFactory(t *testing.T) {
	factory := NewFactory()
	require.NotNil(t, factory)

	eng, err := factory()
	require.NoError(t, err)
	require.NotNil(t, eng)
	defer eng.Close()

	_, ok := eng.(*Engine)
	require.True(t, ok)
}

func TestNewFactory_OptionError(t *testing.T) {
	factory := NewFactory(WithStrip(9))
	_, err := factory()
	require.Error(t, err)
	require.Contains(t, err.Error(), "invalid strip level")
}

func TestEngine_Execute(t *testing.T) {
	eng, captured := newTestEngine(t)

	err := eng.Execute("test.js", "capture(String(2 + 3));")
	require.NoError(t, err)
	require.Equal(t, []string{"5"}, *captured)
}

func TestEngine_Execute_StatePersists(t *testing.T) {
	eng, captured := newTestEngine(t)

	require.NoError(t, eng.Execute("a.js", "var a = 10;"))
	require.NoError(t, eng.Execute("b.js", "capture(String(a + 1));"))
	require.Equal(t, []string{"11"}, *captured)
}

func TestEngine_Execute_SyntaxError(t *testing.T) {
	eng, _ := newTestEngine(t)

	err := eng.Execute("broken.js", "var a =;")
	require.Error(t, err)
	require.ErrorIs(t, err, engine.ErrSyntax)
}

func TestEngine_Execute_ThrownError(t *testing.T) {
	eng, _ := newTestEngine(t)

	err := eng.Execute("throw.js", `throw new Error("top level failure");`)
	require.Error(t, err)
	require.Contains(t, err.Error(), "top level failure")
	require.NotErrorIs(t, err, engine.ErrSyntax)
	require.NotErrorIs(t, err, engine.ErrTerminated)
}

func TestEngine_Execute_PromiseJobsDrained(t *testing.T) {
	eng, captured := newTestEngine(t)

	// The rejection handler runs inside the job loop Execute drives.
	err := eng.Execute("reject.js", `
Promise.reject(new Error("expected")).catch(function (e) { capture("" + e); });
`)
	require.NoError(t, err)
	require.Equal(t, []string{"Error: expected"}, *captured)
}

func TestEngine_Interrupter(t *testing.T) {
	eng, _ := newTestEngine(t)

	intr := eng.Interrupter()
	require.NotNil(t, intr)

	timer := time.AfterFunc(50*time.Millisecond, intr.Interrupt)
	defer timer.Stop()

	err := eng.Execute("spin.js", "for (;;) {}")
	require.ErrorIs(t, err, engine.ErrTerminated)

	// The interrupt is cleared for the next execution.
	require.NoError(t, eng.Execute("ok.js", "var ok = 1;"))
}

func TestEngine_Bind(t *testing.T) {
	eng, err := NewFactory()()
	require.NoError(t, err)
	defer eng.Close()

	var got []string
	require.NoError(t, eng.Bind("sink", func(text string) {
		got = append(got, text)
	}))

	// Only the first argument is delivered; a call without arguments is a
	// no-op rather than an error.
	require.NoError(t, eng.Execute("bind.js", `sink("one", "ignored"); sink();`))
	require.Equal(t, []string{"one"}, got)
}

func TestEngine_Close(t *testing.T) {
	eng, err := NewFactory()()
	require.NoError(t, err)

	require.NoError(t, eng.Close())
	require.NoError(t, eng.Close())
}
