// Copyright 2025 Brian Wang <wangbuke@gmail.com>
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/chzyer/readline"
	"github.com/spf13/cobra"
)

var replCmd = &cobra.Command{
	Use:   "repl",
	Short: "Interactive JavaScript session with persistent state",
	Long: `Start an interactive session. Each line is evaluated as an expression and
its value printed as JSON; declarations persist across lines.

Commands:
  .load <file>   load a script file into the session
  exit, quit     end the session (or press Ctrl+D)`,
	Args: cobra.NoArgs,
	Run:  runRepl,
}

func init() {
	replCmd.Flags().String("load", "", "Script file to load before the first prompt")
	replCmd.Flags().String("history", "", "History file path (default: ~/.jsbridge_history)")
	rootCmd.AddCommand(replCmd)
}

func runRepl(cmd *cobra.Command, args []string) {
	scriptPath, _ := cmd.Flags().GetString("load")
	historyFile, _ := cmd.Flags().GetString("history")
	engineName, _ := cmd.Flags().GetString("engine")

	if historyFile == "" {
		home, _ := os.UserHomeDir()
		historyFile = filepath.Join(home, ".jsbridge_history")
	}

	s, err := openSession(cmd, scriptPath, false)
	if err != nil {
		fatal(err)
	}
	defer s.Close()

	rl, err := readline.NewEx(&readline.Config{
		Prompt:            "js> ",
		HistoryFile:       historyFile,
		HistoryLimit:      1000,
		InterruptPrompt:   "^C",
		EOFPrompt:         "exit",
		HistorySearchFold: true,
	})
	if err != nil {
		fatal(fmt.Errorf("initialize readline: %w", err))
	}
	defer rl.Close()

	fmt.Fprintf(os.Stderr, "jsbridge repl on %s (type 'exit' to quit, Ctrl+D to exit)\n", engineName)

	for {
		line, err := rl.Readline()
		if err != nil {
			if err == readline.ErrInterrupt {
				continue
			}
			if err == io.EOF {
				fmt.Println()
				break
			}
			fmt.Fprintf(os.Stderr, "Error reading input: %v\n", err)
			break
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if line == "exit" || line == "quit" {
			break
		}
		if file, ok := strings.CutPrefix(line, ".load "); ok {
			if err := s.LoadFile(strings.TrimSpace(file)); err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			}
			continue
		}

		raw, err := s.EvalJSON(line)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			continue
		}
		fmt.Println(string(raw))
	}
}
