// Copyright 2025 Brian Wang <wangbuke@gmail.com>
// SPDX-License-Identifier: Apache-2.0

// Package bundle turns module-style JavaScript into the single classic
// script a Session can load. Sources without module syntax pass through
// untouched.
package bundle

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/evanw/esbuild/pkg/api"
)

// File bundles the JavaScript entry point at path together with everything
// it imports into one self-contained script. Functions meant to be callable
// must be assigned to globalThis by the entry point, since module exports do
// not survive bundling into a classic script.
func File(path string) (string, error) {
	source, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", path, err)
	}
	if !needsBundling(string(source)) {
		return string(source), nil
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("resolve %s: %w", path, err)
	}
	result := api.Build(api.BuildOptions{
		EntryPoints: []string{abs},
		Bundle:      true,
		Write:       false,
		Format:      api.FormatIIFE,
		Platform:    api.PlatformBrowser,
		Target:      api.ES2017,
	})
	return firstOutput(path, result)
}

// Source bundles in-memory JavaScript, resolving its imports relative to
// resolveDir. name is used in diagnostics.
func Source(name, contents, resolveDir string) (string, error) {
	if !needsBundling(contents) {
		return contents, nil
	}

	result := api.Build(api.BuildOptions{
		Stdin: &api.StdinOptions{
			Contents:   contents,
			Sourcefile: name,
			ResolveDir: resolveDir,
			Loader:     api.LoaderJS,
		},
		Bundle:   true,
		Write:    false,
		Format:   api.FormatIIFE,
		Platform: api.PlatformBrowser,
		Target:   api.ES2017,
	})
	return firstOutput(name, result)
}

// needsBundling reports whether source uses module syntax that a classic
// script cannot express.
func needsBundling(source string) bool {
	return strings.Contains(source, "import ") ||
		strings.Contains(source, "export ") ||
		strings.Contains(source, "require(")
}

// firstOutput extracts the bundled script from a build result.
func firstOutput(name string, result api.BuildResult) (string, error) {
	if len(result.Errors) > 0 {
		msgs := make([]string, len(result.Errors))
		for i, msg := range result.Errors {
			msgs[i] = msg.Text
		}
		return "", fmt.Errorf("bundle %s: %s", name, strings.Join(msgs, "; "))
	}
	if len(result.OutputFiles) == 0 {
		return "", fmt.Errorf("bundle %s: no output produced", name)
	}
	return string(result.OutputFiles[0].Contents), nil
}
