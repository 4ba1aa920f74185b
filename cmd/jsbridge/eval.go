// Copyright 2025 Brian Wang <wangbuke@gmail.com>
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var evalCmd = &cobra.Command{
	Use:   "eval <expression>",
	Short: "Evaluate a JavaScript expression and print its value as JSON",
	Example: `  jsbridge eval '1 + 2'
  jsbridge eval --load script.js 'fibonacci(20)'`,
	Args: cobra.ExactArgs(1),
	Run:  runEval,
}

func init() {
	evalCmd.Flags().String("load", "", "Script file to load before evaluating")
	rootCmd.AddCommand(evalCmd)
}

func runEval(cmd *cobra.Command, args []string) {
	scriptPath, _ := cmd.Flags().GetString("load")

	s, err := openSession(cmd, scriptPath, false)
	if err != nil {
		fatal(err)
	}
	defer s.Close()

	raw, err := s.EvalJSON(args[0])
	if err != nil {
		fatal(err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(raw))
}
