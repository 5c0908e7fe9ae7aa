package provider

import (
	"context"
	"fmt"

	"interview-copilot/internal/logging"
)

// Stream is a finite, forward-only, non-restartable sequence of answer
// fragments. Next yields the next fragment until the sequence ends.
// Failed reports whether the sequence terminated because of a backend
// error; a failed stream's last fragment is the user-facing error
// message.
type Stream struct {
	delivery Delivery
	idx      int
	done     bool
	failed   bool
	pending  string
}

// Next produces the next fragment, or ok=false at end of sequence.
func (s *Stream) Next() (fragment string, ok bool) {
	if s.done {
		return "", false
	}

	if s.pending != "" {
		fragment = s.pending
		s.pending = ""
		s.done = true
		return fragment, true
	}

	if !s.delivery.channeled {
		if s.idx >= len(s.delivery.fragments) {
			s.done = true
			return "", false
		}
		fragment = s.delivery.fragments[s.idx]
		s.idx++
		return fragment, true
	}

	chunk, open := <-s.delivery.ch
	if !open {
		s.done = true
		return "", false
	}
	if chunk.Err != nil {
		// A mid-stream failure becomes one final user-facing fragment.
		s.failed = true
		s.done = true
		return errorFragment(chunk.Err), true
	}
	return chunk.Text, true
}

// Failed reports whether the stream ended on a backend error.
func (s *Stream) Failed() bool {
	return s.failed
}

// Adapter presents every backend shape through one lazy-sequence
// contract. On any failure during stream setup it returns a sequence
// yielding exactly one error fragment, so the consumer's completion
// logic runs unconditionally on success and failure alike.
type Adapter struct {
	registry *Registry
}

// NewAdapter creates a stream adapter over a backend registry.
func NewAdapter(registry *Registry) *Adapter {
	return &Adapter{registry: registry}
}

// Stream starts a generation for the conversation and returns its
// fragment sequence. It never returns an error: failures are folded
// into the sequence itself.
func (a *Adapter) Stream(ctx context.Context, history []Message, summaries Context, model, providerID string) *Stream {
	backend, err := a.registry.Resolve(providerID)
	if err != nil {
		logging.Warnf("provider resolve failed: %v", err)
		return errorStream(err)
	}

	delivery, err := backend.Generate(ctx, Request{
		Model:    model,
		Messages: history,
		Context:  summaries,
	})
	if err != nil {
		logging.Warnf("provider %s failed: %v", backend.Name(), err)
		return errorStream(err)
	}

	return &Stream{delivery: delivery}
}

// NewStream wraps a delivery in a stream directly, for callers that
// talk to one backend without the registry.
func NewStream(d Delivery) *Stream {
	return &Stream{delivery: d}
}

// errorStream yields one user-facing error fragment and ends.
func errorStream(err error) *Stream {
	return &Stream{
		failed:  true,
		pending: errorFragment(err),
	}
}

func errorFragment(err error) string {
	return fmt.Sprintf("Sorry, I encountered an error: %v", err)
}
