//go:build !windows

// Copyright 2025 Brian Wang <wangbuke@gmail.com>
// SPDX-License-Identifier: Apache-2.0

package v8engine

// EngineOption holds specific configurations for the V8 engine. V8 manages
// its own heap and stack limits, so there is nothing to tune here yet.
type EngineOption struct{}

// Option configures a V8 engine during construction. Options receive the
// engine before the isolate exists; use the public Iso and Ctx fields for
// adjustments that need a live isolate.
type Option func(*Engine) error
