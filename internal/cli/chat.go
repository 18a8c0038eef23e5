// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// chat.go - Plain-terminal chat REPL for the grokwire CLI.
//
// Handles "grokwire chat --plain": a readline-style loop with input
// history, the same session manager and streaming pipeline as the TUI,
// and incremental token printing instead of a live document view.
//
// Interactive commands:
//   /help               Show available commands
//   /new                Start a new conversation
//   /list               List stored conversations
//   /load N             Load conversation N from the list
//   /model [name]       Show or switch model
//   /quit, /q           Exit
//   Ctrl+C              Cancel current generation
//   Ctrl+D              Exit
package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/peterh/liner"

	"github.com/morganforge/grokwire/internal/config"
	"github.com/morganforge/grokwire/internal/model"
	"github.com/morganforge/grokwire/internal/segment"
	"github.com/morganforge/grokwire/internal/session"
	"github.com/morganforge/grokwire/internal/storage"
)

const chatHelpText = `Commands:
  /help          Show this help
  /new           Start a new conversation
  /list          List stored conversations
  /load N        Load conversation N
  /model [name]  Show or switch model
  /quit, /q      Exit
  Ctrl+C cancels the current reply; what already arrived is kept.`

// =============================================================================
// INPUT HISTORY
// =============================================================================

// promptReader wraps liner with persistent input history.
type promptReader struct {
	line        *liner.State
	historyFile string
}

func newPromptReader() *promptReader {
	line := liner.NewLiner()
	line.SetCtrlCAborts(true)

	dir, err := config.Dir()
	if err != nil {
		dir = os.TempDir()
	}
	r := &promptReader{
		line:        line,
		historyFile: filepath.Join(dir, "chat_history"),
	}

	if f, err := os.Open(r.historyFile); err == nil {
		r.line.ReadHistory(f)
		f.Close()
	}
	return r
}

// ReadInput reads one line, recording non-empty input in the history.
func (r *promptReader) ReadInput(prompt string) (string, error) {
	input, err := r.line.Prompt(prompt)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(input) != "" {
		r.line.AppendHistory(input)
	}
	return input, nil
}

// Close persists history with owner-only permissions and releases the
// terminal.
func (r *promptReader) Close() {
	if err := config.EnsureDir(); err == nil {
		if f, err := os.OpenFile(r.historyFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600); err == nil {
			r.line.WriteHistory(f)
			f.Close()
		}
	}
	r.line.Close()
}

// =============================================================================
// CHAT COMMAND
// =============================================================================

// HandleChat runs the plain-terminal REPL.
func HandleChat(cfg *config.Config, args Args) error {
	client, err := NewGatewayClient(cfg, args)
	if err != nil {
		return err
	}

	store, err := OpenStore(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "storage unavailable, conversations stay in memory: %v\n", err)
	}
	if store != nil {
		defer store.Close()
	}

	manager := session.NewManager(store, client)
	manager.SetSystemPrompt(cfg.API.SystemPrompt)

	reader := newPromptReader()
	defer reader.Close()

	if !args.Quiet {
		fmt.Printf("grokwire %s · %s · /help for commands\n", Version, client.GetModel())
	}

	for {
		input, err := reader.ReadInput("> ")
		if err != nil {
			// Ctrl+D or Ctrl+C at the prompt ends the session.
			fmt.Println()
			return nil
		}

		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}

		if strings.HasPrefix(input, "/") {
			if quit := runChatCommand(manager, store, input); quit {
				return nil
			}
			continue
		}

		if err := streamReply(manager, input); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
		}
	}
}

// streamPrinter tracks how much of the visible reply has been emitted.
//
// A reasoning marker can split across deltas: "Hello <thi" followed by
// "nk>…" would print half a marker and then shrink the visible text.
// Trimming any trailing partial marker before measuring keeps the
// printable text append-only, so offset printing is safe.
type streamPrinter struct {
	printed int
}

// next returns the newly printable portion of the accumulated text.
func (p *streamPrinter) next(full string) string {
	visible := segment.TrimPartialMarker(visibleText(full))
	if len(visible) <= p.printed {
		return ""
	}
	out := visible[p.printed:]
	p.printed = len(visible)
	return out
}

// signalContext returns a context canceled by Ctrl+C.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt)
}

// streamReply sends one turn and prints tokens as they arrive. Ctrl+C
// cancels the stream; the partial reply is finalized and kept.
func streamReply(manager *session.Manager, text string) error {
	ctx, stop := signalContext()
	defer stop()

	runner, err := manager.Send(ctx, text)
	if err != nil {
		return err
	}

	// Run executes on this goroutine, so OnUpdate is safe to print from.
	// Reasoning spans are held back; the visible reply streams through.
	printer := &streamPrinter{}
	announcedThinking := false
	runner.OnUpdate(func() {
		full := runner.State().Text()
		if out := printer.next(full); out != "" {
			fmt.Print(out)
		} else if !announcedThinking && segment.HasOpenReasoning(segment.Split(full)) {
			fmt.Println(thinkingStyle.Render("(thinking…)"))
			announcedThinking = true
		}
	})

	runErr := runner.Run(ctx)
	fmt.Println()

	if entry := manager.Active().GetLastMessage(); entry != nil && entry.ThinkingSeconds > 0 {
		fmt.Println(thinkingStyle.Render(fmt.Sprintf("(thought for %ds)", entry.ThinkingSeconds)))
	}
	return runErr
}

// runChatCommand dispatches a slash command. Returns true on quit.
func runChatCommand(manager *session.Manager, store *storage.Store, input string) bool {
	parts := strings.Fields(input)
	cmd := parts[0]
	cmdArgs := parts[1:]

	switch cmd {
	case "/quit", "/q", "/exit":
		return true

	case "/help", "/h", "/?":
		fmt.Println(chatHelpText)

	case "/new":
		manager.NewConversation()
		fmt.Println("started a new conversation")

	case "/list":
		if store == nil {
			fmt.Println("no storage configured")
			break
		}
		metas, err := store.List()
		if err != nil {
			fmt.Fprintf(os.Stderr, "list failed: %v\n", err)
			break
		}
		fmt.Println(storage.FormatConversationList(metas))

	case "/load":
		loadChatConversation(manager, store, cmdArgs)

	case "/model":
		if len(cmdArgs) == 0 {
			fmt.Println("model: " + manager.Active().Model)
			break
		}
		matched := model.MatchModel(cmdArgs[0])
		if matched == "" {
			fmt.Fprintf(os.Stderr, "unknown model %q\n", cmdArgs[0])
			break
		}
		manager.SetModel(matched)
		fmt.Println("model: " + matched)

	default:
		fmt.Printf("unknown command %s (try /help)\n", cmd)
	}
	return false
}

func loadChatConversation(manager *session.Manager, store *storage.Store, args []string) {
	if store == nil {
		fmt.Println("no storage configured")
		return
	}
	if len(args) == 0 {
		fmt.Println("usage: /load N")
		return
	}
	index := 0
	if _, err := fmt.Sscanf(args[0], "%d", &index); err != nil || index < 1 {
		fmt.Println("usage: /load N")
		return
	}
	conv, err := store.LoadByIndex(index - 1)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load failed: %v\n", err)
		return
	}
	if _, err := manager.SwitchTo(conv.ID); err != nil {
		fmt.Fprintf(os.Stderr, "load failed: %v\n", err)
		return
	}
	fmt.Println("loaded: " + conv.GetTitle())
}

// OpenStore opens the configured SQLite store.
func OpenStore(cfg *config.Config) (*storage.Store, error) {
	if cfg.Storage.DBPath != "" {
		return storage.Open(cfg.Storage.DBPath)
	}
	return storage.OpenDefault()
}
