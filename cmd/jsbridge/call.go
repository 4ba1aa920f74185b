// Copyright 2025 Brian Wang <wangbuke@gmail.com>
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

var callCmd = &cobra.Command{
	Use:   "call <script.js> <function> [json-arg...]",
	Short: "Load a script and call one of its functions",
	Long: `Load a script file, call the named function and print its result as JSON.

Arguments are parsed as JSON, so strings need quoting: 42, true, '"text"',
'{"limit": 3}'. Pass "-" as the script path to read it from stdin.`,
	Example: `  jsbridge call math.js add 1 2
  jsbridge call --bundle app.js run '{"verbose": true}'
  jsbridge call -t 500ms spin.js run_forever`,
	Args: cobra.MinimumNArgs(2),
	Run:  runCall,
}

func init() {
	callCmd.Flags().Bool("bundle", false, "Resolve module imports before loading")
	rootCmd.AddCommand(callCmd)
}

func runCall(cmd *cobra.Command, args []string) {
	doBundle, _ := cmd.Flags().GetBool("bundle")

	callArgs := make([]any, len(args)-2)
	for i, text := range args[2:] {
		var v any
		if err := json.Unmarshal([]byte(text), &v); err != nil {
			fatal(fmt.Errorf("argument %d is not valid JSON: %q", i+1, text))
		}
		callArgs[i] = v
	}

	s, err := openSession(cmd, args[0], doBundle)
	if err != nil {
		fatal(err)
	}
	defer s.Close()

	raw, err := s.CallRaw(args[1], callArgs...)
	if err != nil {
		fatal(err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(raw))
}
