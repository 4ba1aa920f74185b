package gojaengine_test

import (
	"testing"

	jsbridge "github.com/buke/js-bridge"
	gojaengine "github.com/buke/js-bridge/engines/goja"
	"github.com/stretchr/testify/require"
)

// TestIntegration_GojaSession_Sync tests a synchronous JS function through a
// full Session.
func TestIntegration_GojaSession_Sync(t *testing.T) {
	s, err := jsbridge.FromString(
		`function hello(name) { return "Hi, " + name + "!"; }`,
		jsbridge.WithEngine(gojaengine.NewFactory()),
		jsbridge.WithLogger(nil),
	)
	require.NoError(t, err)
	defer s.Close()

	greeting, err := jsbridge.Call[string](s, "hello", "Goja Sync")
	require.NoError(t, err)
	require.Equal(t, "Hi, Goja Sync!", greeting)
}

// TestIntegration_GojaSession_Async tests an async JS function through a full
// Session. Goja drains promise jobs itself, so no event loop is involved.
func TestIntegration_GojaSession_Async(t *testing.T) {
	s, err := jsbridge.FromString(`
async function hello(name) {
	await Promise.resolve();
	return "Hello, " + name + "!";
}
`,
		jsbridge.WithEngine(gojaengine.NewFactory()),
		jsbridge.WithLogger(nil),
	)
	require.NoError(t, err)
	defer s.Close()

	greeting, err := jsbridge.Call[string](s, "hello", "Goja Async")
	require.NoError(t, err)
	require.Equal(t, "Hello, Goja Async!", greeting)
}

// TestIntegration_GojaSession_Require tests CommonJS module loading inside a
// Session when the factory enables require.
func TestIntegration_GojaSession_Require(t *testing.T) {
	s, err := jsbridge.FromString(`
var greeter = require('./testdata/greeter.js');
function greet(name) { return greeter.greet(name); }
`,
		jsbridge.WithEngine(gojaengine.NewFactory(gojaengine.WithRequire())),
		jsbridge.WithLogger(nil),
	)
	require.NoError(t, err)
	defer s.Close()

	greeting, err := jsbridge.Call[string](s, "greet", "CommonJS")
	require.NoError(t, err)
	require.Equal(t, "Hello, CommonJS", greeting)
}
