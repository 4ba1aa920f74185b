// Copyright 2025 Brian Wang <wangbuke@gmail.com>
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"

	"github.com/buke/js-bridge/engine"
	gojaengine "github.com/buke/js-bridge/engines/goja"
	quickjsengine "github.com/buke/js-bridge/engines/quickjs-go"
)

// V8 is not available on Windows.
var engineNames = []string{"goja", "quickjs"}

// engineFactory maps an --engine flag value to an engine factory.
func engineFactory(name string) (engine.Factory, error) {
	switch name {
	case "goja":
		return gojaengine.NewFactory(), nil
	case "quickjs":
		return quickjsengine.NewFactory(), nil
	default:
		return nil, fmt.Errorf("unknown engine %q: use goja or quickjs", name)
	}
}
