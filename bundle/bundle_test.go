// Copyright 2025 Brian Wang <wangbuke@gmail.com>
// SPDX-License-Identifier: Apache-2.0

package bundle

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

const libSource = `export function greet(name) {
	return 'Hello, ' + name;
}
`

const entrySource = `import { greet } from './lib.js';

globalThis.hello = function (name) {
	return greet(name);
};
`

func TestNeedsBundling(t *testing.T) {
	require.True(t, needsBundling("import { a } from './a.js';"))
	require.True(t, needsBundling("export function f() {}"))
	require.True(t, needsBundling("const lib = require('./lib.js');"))
	require.False(t, needsBundling("function f() { return 1; }"))
}

// TestSource_Passthrough verifies classic scripts are returned untouched,
// so sessions never pay for a build they do not need.
func TestSource_Passthrough(t *testing.T) {
	script := "function add(a, b) { return a + b; }"
	out, err := Source("add.js", script, ".")
	require.NoError(t, err)
	require.Equal(t, script, out)
}

func TestSource_BundlesImports(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "lib.js"), []byte(libSource), 0o644))

	out, err := Source("main.js", entrySource, dir)
	require.NoError(t, err)
	require.Contains(t, out, "Hello, ")
	require.Contains(t, out, "globalThis.hello")
	require.NotContains(t, out, "import ")
}

func TestSource_UnresolvedImport(t *testing.T) {
	_, err := Source("main.js", "import './missing.js';", t.TempDir())
	require.Error(t, err)
	require.Contains(t, err.Error(), "bundle main.js")
	require.Contains(t, err.Error(), "./missing.js")
}

func TestFile_Passthrough(t *testing.T) {
	dir := t.TempDir()
	script := "globalThis.twice = function (n) { return n * 2; };"
	path := filepath.Join(dir, "twice.js")
	require.NoError(t, os.WriteFile(path, []byte(script), 0o644))

	out, err := File(path)
	require.NoError(t, err)
	require.Equal(t, script, out)
}

func TestFile_BundlesEntry(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "lib.js"), []byte(libSource), 0o644))
	path := filepath.Join(dir, "main.js")
	require.NoError(t, os.WriteFile(path, []byte(entrySource), 0o644))

	out, err := File(path)
	require.NoError(t, err)
	require.Contains(t, out, "Hello, ")
	require.NotContains(t, out, "import ")
}

func TestFile_Missing(t *testing.T) {
	_, err := File(filepath.Join(t.TempDir(), "absent.js"))
	require.Error(t, err)
	require.Contains(t, err.Error(), "read")
}
