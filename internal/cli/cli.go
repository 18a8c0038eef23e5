// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// cli.go - CLI parsing and shared command plumbing for grokwire.
package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/morganforge/grokwire/internal/cloud"
	"github.com/morganforge/grokwire/internal/config"
	"github.com/morganforge/grokwire/internal/model"
)

// Version information (can be overridden at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// Command represents the CLI command to execute.
type Command int

const (
	CmdTUI Command = iota
	CmdAsk
	CmdChat
	CmdConfig
	CmdStatus
	CmdVersion
	CmdHelp
)

// Args holds parsed CLI arguments.
type Args struct {
	// Global flags
	Quiet   bool
	Verbose bool
	Model   string
	JSON    bool // Output the document tree as JSON
	Plain   bool // Plain-terminal REPL instead of the TUI

	// Command-specific
	Query      string
	Subcommand string
	ConfigKey  string
	ConfigVal  string

	// Raw args (remaining after flag parsing)
	Raw []string
}

const usageText = `grokwire - streaming Grok chat for the terminal

Grokwire renders Grok's streamed markdown live, with collapsible
reasoning sections, agent rollouts, and syntax-highlighted code.

Usage:
  grokwire                   Start TUI (default)
  grokwire ask "question"    Ask a single question
  grokwire chat --plain      Plain-terminal REPL
  grokwire config [show|set|path]  Configuration
  grokwire status            Show connection and storage status
  grokwire version           Show version
  grokwire help              Show this help

Global flags:
  -m, --model NAME   Use specific model (overrides config)
  --json             Output the parsed document tree as JSON
  -q, --quiet        Minimal output
  -v, --verbose      Verbose output

Examples:
  grokwire ask "Summarize the attached log" < build.log
  grokwire ask --json "Compare Go and Rust error handling"
  grokwire chat --plain
  grokwire config set model grok-4-fast
`

// Parse reads os.Args and returns the command to run plus its arguments.
func Parse() (Command, Args) {
	args := os.Args[1:]

	remaining, parsed := parseGlobalFlags(args)

	if len(remaining) == 0 {
		return CmdTUI, parsed
	}

	cmd := strings.ToLower(remaining[0])
	remaining = remaining[1:]
	parsed.Raw = remaining

	switch cmd {
	case "tui":
		return CmdTUI, parsed

	case "ask":
		parseAskArgs(&parsed, remaining)
		return CmdAsk, parsed

	case "chat":
		return CmdChat, parsed

	case "config":
		parseConfigArgs(&parsed, remaining)
		return CmdConfig, parsed

	case "status", "s":
		return CmdStatus, parsed

	case "version", "--version", "-V":
		return CmdVersion, parsed

	case "help", "--help", "-h":
		return CmdHelp, parsed

	default:
		// Bare question shorthand: grokwire "why is the sky blue"
		parsed.Query = strings.TrimSpace(cmd + " " + strings.Join(remaining, " "))
		return CmdAsk, parsed
	}
}

// parseGlobalFlags extracts flags valid for every command and returns
// the remaining arguments.
func parseGlobalFlags(args []string) ([]string, Args) {
	var remaining []string
	var parsed Args

	i := 0
	for i < len(args) {
		arg := args[i]

		switch arg {
		case "-q", "--quiet":
			parsed.Quiet = true
		case "-v", "--verbose":
			parsed.Verbose = true
		case "--json":
			parsed.JSON = true
		case "--plain":
			parsed.Plain = true
		case "-m", "--model":
			if i+1 < len(args) {
				i++
				parsed.Model = args[i]
			}
		default:
			if strings.HasPrefix(arg, "--model=") {
				parsed.Model = strings.TrimPrefix(arg, "--model=")
			} else {
				remaining = append(remaining, arg)
			}
		}
		i++
	}

	return remaining, parsed
}

// parseAskArgs joins the positional arguments into the question.
func parseAskArgs(args *Args, remaining []string) {
	var query []string
	for _, arg := range remaining {
		if !strings.HasPrefix(arg, "-") {
			query = append(query, arg)
		}
	}
	args.Query = strings.Join(query, " ")
}

// parseConfigArgs handles "config [show|set|path] [key] [value]".
func parseConfigArgs(args *Args, remaining []string) {
	if len(remaining) > 0 {
		args.Subcommand = remaining[0]
	}
	if len(remaining) > 1 {
		args.ConfigKey = remaining[1]
	}
	if len(remaining) > 2 {
		args.ConfigVal = strings.Join(remaining[2:], " ")
	}
}

// ShowUsage prints the top-level help text.
func ShowUsage() {
	fmt.Print(usageText)
}

// ShowVersion prints build metadata.
func ShowVersion() {
	fmt.Printf("grokwire %s (commit %s, built %s)\n", Version, GitCommit, BuildDate)
}

// NewGatewayClient builds a cloud client from config plus flag overrides.
func NewGatewayClient(cfg *config.Config, args Args) (*cloud.Client, error) {
	var client *cloud.Client
	switch {
	case cfg.API.Key != "":
		client = cloud.NewClient(cfg.API.Key)
	case cfg.API.PublicKey != "":
		client = cloud.NewClientWithPublicKey(cfg.API.PublicKey)
	default:
		return nil, fmt.Errorf("no API credential configured; set api.key in the config file or GROKWIRE_API_KEY")
	}

	if cfg.API.BaseURL != "" {
		client = client.WithBaseURL(cfg.API.BaseURL)
	}

	name := cfg.API.Model
	if args.Model != "" {
		name = args.Model
	}
	if name != "" {
		matched := model.MatchModel(name)
		if matched == "" {
			return nil, fmt.Errorf("unknown model %q", name)
		}
		client.SetModel(matched)
	}
	return client, nil
}
