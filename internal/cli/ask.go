// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// ask.go - Single query command handler for the grokwire CLI.
//
// Handles "grokwire ask", which sends one question, waits for the
// stream to finish, and prints the reply: glamour-rendered markdown on
// a TTY, raw text when piped, or the parsed document tree with --json.
package cli

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"github.com/morganforge/grokwire/internal/config"
	"github.com/morganforge/grokwire/internal/document"
	"github.com/morganforge/grokwire/internal/model"
	"github.com/morganforge/grokwire/internal/render"
	"github.com/morganforge/grokwire/internal/segment"
	"github.com/morganforge/grokwire/internal/session"
	"github.com/morganforge/grokwire/internal/ui/styles"
)

// =============================================================================
// MARKDOWN RENDERING
// =============================================================================

// markdownRenderer is the glamour renderer for one-shot output.
var markdownRenderer *glamour.TermRenderer

func init() {
	var err error
	markdownRenderer, err = glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(defaultWidth),
	)
	if err != nil {
		// Fall back to plain text if renderer initialization fails.
		markdownRenderer = nil
	}
}

// renderMarkdown renders markdown content for terminal display.
// Returns the original content if rendering fails.
func renderMarkdown(content string) string {
	if markdownRenderer == nil {
		return content
	}
	rendered, err := markdownRenderer.Render(content)
	if err != nil {
		return content
	}
	return rendered
}

// displayResponse prints a response, rendering markdown only when
// stdout is a TTY so piped output stays raw.
func displayResponse(response string) {
	if IsStdoutTTY() {
		fmt.Print(renderMarkdown(response))
	} else {
		fmt.Println(response)
	}
}

var thinkingStyle = lipgloss.NewStyle().Foreground(styles.TextMuted).Italic(true)

// =============================================================================
// ASK COMMAND
// =============================================================================

// HandleAsk runs a single question end to end.
func HandleAsk(cfg *config.Config, args Args) error {
	question := args.Query

	// Piped stdin supplements or replaces the positional question.
	if !IsStdinTTY() {
		data, err := io.ReadAll(bufio.NewReader(os.Stdin))
		if err == nil && len(data) > 0 {
			piped := strings.TrimSpace(string(data))
			if question == "" {
				question = piped
			} else {
				question = question + "\n\n" + piped
			}
		}
	}

	if question == "" {
		return fmt.Errorf("no question provided. Usage: grokwire ask \"your question\"")
	}

	client, err := NewGatewayClient(cfg, args)
	if err != nil {
		return err
	}

	manager := session.NewManager(nil, client)
	manager.SetSystemPrompt(cfg.API.SystemPrompt)

	// Ctrl+C finalizes what has arrived instead of discarding it.
	ctx, stop := signalContext()
	defer stop()

	runner, err := manager.Send(ctx, question)
	if err != nil {
		return err
	}
	runErr := runner.Run(ctx)

	entry := manager.Active().GetLastMessage()
	if entry == nil {
		return fmt.Errorf("no response received")
	}

	if args.JSON {
		if err := writeJSONResponse(os.Stdout, entry); err != nil {
			return err
		}
		return runErr
	}

	if entry.ThinkingSeconds > 0 && !args.Quiet {
		fmt.Fprintln(os.Stderr, thinkingStyle.Render(
			fmt.Sprintf("Thought for %ds", entry.ThinkingSeconds)))
	}
	displayResponse(plainAnswer(entry.GetDisplayContent()))
	return runErr
}

// writeJSONResponse reconciles the finished reply into a document tree
// and writes it as indented JSON.
func writeJSONResponse(w io.Writer, entry *model.Message) error {
	in := document.Input{
		Segments:       segment.Split(entry.GetDisplayContent()),
		Streaming:      false,
		ElapsedSeconds: entry.ThinkingSeconds,
	}
	tree := document.Reconcile(in, document.NewRenderState(), document.DefaultPolicy())
	return render.WriteOutput(w, tree, plainAnswer(entry.GetDisplayContent()), entry.ThinkingSeconds)
}

// visibleText concatenates the plain segments of the reply, dropping
// reasoning spans.
func visibleText(text string) string {
	var b strings.Builder
	for _, seg := range segment.Split(text) {
		if seg.Kind == segment.Plain {
			b.WriteString(seg.Text)
		}
	}
	return b.String()
}

// plainAnswer is the trimmed visible reply.
func plainAnswer(text string) string {
	return strings.TrimSpace(visibleText(text))
}
