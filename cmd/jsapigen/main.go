// Copyright 2025 Brian Wang <wangbuke@gmail.com>
// SPDX-License-Identifier: Apache-2.0

// jsapigen generates typed Go bindings that call JavaScript functions
// through a jsbridge.Session. It is meant to be driven by go:generate:
//
//	//go:generate go run github.com/buke/js-bridge/cmd/jsapigen -type=Calculator
//
// The generated file implements the named interface; each method invokes the
// JavaScript function whose name is the method name with a lower-case first
// letter.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/buke/js-bridge/apigen"
)

func main() {
	log.SetFlags(0)
	log.SetPrefix("jsapigen: ")

	typeName := flag.String("type", "", "interface type name; required")
	dir := flag.String("dir", ".", "directory of the Go package containing the interface")
	output := flag.String("output", "", "output file name; default <dir>/<type>_jsapi.go")
	bridge := flag.String("bridge", apigen.DefaultBridgeImport, "import path of the bridge package")
	flag.Usage = usage
	flag.Parse()

	if *typeName == "" {
		flag.Usage()
		os.Exit(2)
	}

	iface, err := apigen.Parse(*dir, *typeName)
	if err != nil {
		log.Fatal(err)
	}
	src, err := apigen.Generate(iface, *bridge)
	if err != nil {
		log.Fatal(err)
	}

	out := *output
	if out == "" {
		out = filepath.Join(*dir, strings.ToLower(*typeName)+"_jsapi.go")
	}
	if err := os.WriteFile(out, src, 0o644); err != nil {
		log.Fatal(err)
	}
}

func usage() {
	fmt.Fprintf(os.Stderr, "Usage: jsapigen -type=InterfaceName [-dir=.] [-output=file.go]\n")
	flag.PrintDefaults()
}
