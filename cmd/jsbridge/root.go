// Copyright 2025 Brian Wang <wangbuke@gmail.com>
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	jsbridge "github.com/buke/js-bridge"
	"github.com/buke/js-bridge/bundle"
)

var rootCmd = &cobra.Command{
	Use:   "jsbridge",
	Short: "Call JavaScript functions from the command line",
	Long: `jsbridge - Load JavaScript into an embedded engine and call its functions.

Scripts run inside a sandboxed engine with no filesystem or network access;
values cross the bridge as JSON. Every call can be bounded by a wall-clock
limit with --timeout, after which execution is forcibly terminated.`,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringP("engine", "e", "goja", "JavaScript engine: "+strings.Join(engineNames, ", "))
	rootCmd.PersistentFlags().DurationP("timeout", "t", 0, "Wall-clock limit per call (0 = no limit)")
	rootCmd.PersistentFlags().BoolP("quiet", "q", false, "Suppress log output")
}

// openSession builds a Session from the persistent flags. When scriptPath is
// empty the Session starts without user code; "-" reads the script from
// stdin. doBundle resolves module imports before loading.
func openSession(cmd *cobra.Command, scriptPath string, doBundle bool) (*jsbridge.Session, error) {
	engineName, _ := cmd.Flags().GetString("engine")
	timeout, _ := cmd.Flags().GetDuration("timeout")
	quiet, _ := cmd.Flags().GetBool("quiet")

	factory, err := engineFactory(engineName)
	if err != nil {
		return nil, err
	}
	opts := []jsbridge.Option{jsbridge.WithEngine(factory)}
	if quiet {
		opts = append(opts, jsbridge.WithLogger(nil))
	}

	var s *jsbridge.Session
	switch {
	case scriptPath == "":
		s, err = jsbridge.New(opts...)
	case scriptPath == "-":
		var source []byte
		source, err = io.ReadAll(os.Stdin)
		if err != nil {
			return nil, fmt.Errorf("read stdin: %w", err)
		}
		src := string(source)
		if doBundle {
			wd, _ := os.Getwd()
			if src, err = bundle.Source("stdin.js", src, wd); err != nil {
				return nil, err
			}
		}
		opts = append(opts, jsbridge.WithScriptName("stdin.js"))
		s, err = jsbridge.FromString(src, opts...)
	case doBundle:
		var src string
		if src, err = bundle.File(scriptPath); err != nil {
			return nil, err
		}
		opts = append(opts, jsbridge.WithScriptName(scriptPath))
		s, err = jsbridge.FromString(src, opts...)
	default:
		s, err = jsbridge.FromFile(scriptPath, opts...)
	}
	if err != nil {
		return nil, err
	}

	if timeout > 0 {
		s.WithTimeout(timeout)
	}
	return s, nil
}

func fatal(err error) {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(1)
}
