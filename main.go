// grokwire - streaming Grok chat for the terminal.
//
// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later
package main

import (
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/morganforge/grokwire/internal/cli"
	"github.com/morganforge/grokwire/internal/config"
	"github.com/morganforge/grokwire/internal/model"
	"github.com/morganforge/grokwire/internal/session"
	"github.com/morganforge/grokwire/internal/ui/chat"
)

// Version information (set at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

func init() {
	cli.Version = Version
	cli.GitCommit = GitCommit
	cli.BuildDate = BuildDate
}

func main() {
	cmd, args := cli.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	switch cmd {
	case cli.CmdTUI:
		if args.Plain {
			fail(cli.HandleChat(cfg, args))
			return
		}
		runTUI(cfg, args)

	case cli.CmdAsk:
		fail(cli.HandleAsk(cfg, args))

	case cli.CmdChat:
		if args.Plain {
			fail(cli.HandleChat(cfg, args))
			return
		}
		runTUI(cfg, args)

	case cli.CmdConfig:
		fail(cli.HandleConfig(cfg, args))

	case cli.CmdStatus:
		fail(cli.HandleStatus(cfg, args))

	case cli.CmdVersion:
		cli.ShowVersion()

	case cli.CmdHelp:
		cli.ShowUsage()
	}
}

// fail exits with status 1 when a command handler returns an error.
func fail(err error) {
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// runTUI wires the session manager and storage into the Bubble Tea
// program and blocks until the user quits.
func runTUI(cfg *config.Config, args cli.Args) {
	client, err := cli.NewGatewayClient(cfg, args)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		fmt.Fprintln(os.Stderr, "Run 'grokwire config set key <api-key>' to configure a credential.")
		os.Exit(1)
	}

	store, err := cli.OpenStore(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "storage unavailable, conversations stay in memory: %v\n", err)
		store = nil
	}
	if store != nil {
		defer store.Close()
	}

	manager := session.NewManager(store, client)
	manager.SetSystemPrompt(cfg.API.SystemPrompt)

	// Live-reload model and system prompt when the config file changes.
	if path, err := config.Path(); err == nil {
		w, err := config.Watch(path, func(next *config.Config) {
			if matched := model.MatchModel(next.API.Model); matched != "" {
				manager.SetModel(matched)
			}
			manager.SetSystemPrompt(next.API.SystemPrompt)
		})
		if err == nil {
			defer w.Close()
		}
	}

	p := tea.NewProgram(
		chat.New(cfg, manager, store),
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
	)
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

