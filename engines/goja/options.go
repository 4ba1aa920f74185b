// Copyright 2025 Brian Wang <wangbuke@gmail.com>
// SPDX-License-Identifier: Apache-2.0

package gojaengine

import (
	"github.com/dop251/goja"
	"github.com/dop251/goja_nodejs/require"
)

// EngineOption holds configuration for a goja engine instance.
type EngineOption struct {
	MaxCallStackSize int
	EnableRequire    bool
	RequireFolders   []string
	FieldNameMapper  goja.FieldNameMapper
}

// Option configures a goja engine during construction.
type Option func(*Engine) error

// WithMaxCallStackSize sets the maximum call stack size for the runtime.
// A value of 0 or less means no limit.
func WithMaxCallStackSize(size int) Option {
	return func(e *Engine) error {
		e.Option.MaxCallStackSize = size
		e.VM.SetMaxCallStackSize(size)
		return nil
	}
}

// WithRequire enables the require() function for loading CommonJS modules,
// searching the given global folders in addition to the working directory.
func WithRequire(folders ...string) Option {
	return func(e *Engine) error {
		e.Option.EnableRequire = true
		e.Option.RequireFolders = folders
		registry := require.NewRegistry(require.WithGlobalFolders(folders...))
		registry.Enable(e.VM)
		return nil
	}
}

// WithFieldNameMapper sets the field name mapper for Go-to-JS struct
// conversions. This controls how Go struct field names are exposed in
// JavaScript.
func WithFieldNameMapper(mapper goja.FieldNameMapper) Option {
	return func(e *Engine) error {
		if mapper != nil {
			e.Option.FieldNameMapper = mapper
			e.VM.SetFieldNameMapper(mapper)
		}
		return nil
	}
}
