// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"context"
	"errors"
	"io"
	"sync"

	"github.com/morganforge/grokwire/internal/cloud"
	"github.com/morganforge/grokwire/internal/model"
)

// readBufferSize is the transport read chunk size.
const readBufferSize = 4096

// CommitFunc receives the finalized entry. The Runner guarantees it is
// invoked exactly once per stream, whichever terminal path fires.
type CommitFunc func(entry *model.Message)

// =============================================================================
// STREAM RUNNER
// =============================================================================

// Runner drives the read loop for one completion stream. It owns a
// StreamState and the assistant entry being filled, and routes all three
// exit paths (end sentinel, cancellation, transport close) through a
// single commit guarded by the committed flag.
type Runner struct {
	body  io.ReadCloser
	state *StreamState
	entry *model.Message
	stats *model.Statistics

	commit   CommitFunc
	onUpdate func()

	// appended tracks how much accumulated text has already been copied
	// into the entry, so each pass appends only the new suffix.
	appended int

	mu        sync.Mutex
	committed bool
}

// NewRunner wires a response body to an assistant entry. The entry must
// be in its streaming state (see model.NewAssistantMessage).
func NewRunner(body io.ReadCloser, entry *model.Message, commit CommitFunc) *Runner {
	return &Runner{
		body:   body,
		state:  NewStreamState(),
		entry:  entry,
		stats:  model.NewStatistics(),
		commit: commit,
	}
}

// OnUpdate registers a callback invoked after each chunk that changed
// the entry. It runs on the read loop goroutine.
func (r *Runner) OnUpdate(fn func()) {
	r.onUpdate = fn
}

// State exposes the stream accumulator, for snapshotting into the
// reconciler while the stream is live.
func (r *Runner) State() *StreamState {
	return r.state
}

// Committed reports whether the entry has been finalized and handed to
// the commit function.
func (r *Runner) Committed() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.committed
}

// Run consumes the response body until one of the terminal paths fires:
// the end sentinel, context cancellation, or the transport closing. All
// paths finalize the entry exactly once. Cancellation is not an error;
// a transport failure returns a StreamError carrying the partial text.
func (r *Runner) Run(ctx context.Context) error {
	defer r.body.Close()

	buf := make([]byte, readBufferSize)
	for {
		if ctx.Err() != nil {
			r.finalize(nil)
			return nil
		}

		n, err := r.body.Read(buf)
		if n > 0 {
			done := r.state.Feed(buf[:n])
			r.applyDelta()
			if done {
				r.finalize(nil)
				return nil
			}
		}

		if err != nil {
			if errors.Is(err, io.EOF) {
				// Transport closed without a sentinel; commit what we have.
				r.finalize(nil)
				return nil
			}
			if ctx.Err() != nil || errors.Is(err, context.Canceled) {
				r.finalize(nil)
				return nil
			}
			r.finalize(err)
			return &cloud.StreamError{Partial: r.state.Text(), Err: err}
		}
	}
}

// applyDelta copies any newly accumulated text into the entry.
func (r *Runner) applyDelta() {
	text := r.state.Text()
	if len(text) <= r.appended {
		return
	}
	if r.appended == 0 {
		r.stats.SetFirstToken(r.state.FirstContentAt())
	}
	r.entry.AppendToken(text[r.appended:])
	r.appended = len(text)

	if r.onUpdate != nil {
		r.onUpdate()
	}
}

// finalize freezes the stream, seals the entry, and fires the commit.
// The committed guard makes it safe to reach from every exit path.
func (r *Runner) finalize(failure error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.committed {
		return
	}
	r.committed = true

	r.state.Freeze()

	if failure != nil {
		notice := "Request failed: " + failure.Error()
		if r.state.Text() != "" {
			notice = "\n\n_" + notice + "_"
		}
		r.entry.AppendToken(notice)
	}

	r.entry.ThinkingSeconds = r.state.ThinkingSeconds()
	r.stats.Finalize(r.entry.EstimateTokens())
	r.entry.FinalizeStream(r.stats)

	if r.commit != nil {
		r.commit(r.entry)
	}
}
