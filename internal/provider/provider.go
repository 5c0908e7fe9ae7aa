package provider

import (
	"context"
	"fmt"
	"sort"
)

// Message is one conversation turn passed to a backend.
type Message struct {
	Role    string `json:"role"` // "system", "user" or "assistant"
	Content string `json:"content"`
}

// Context carries the candidate documents a backend answers from.
type Context struct {
	ResumeSummary string
	JobSummary    string
}

// Request is a generation request against one backend.
type Request struct {
	Model    string
	Messages []Message
	Context  Context
}

// Chunk is one delivered fragment from a channeled backend. A non-nil
// Err terminates the stream.
type Chunk struct {
	Text string
	Err  error
}

// Delivery is the tagged result of Backend.Generate: either a finite
// materialized fragment sequence or a channel the backend feeds as the
// answer is produced. The shape is resolved once here, so the consumer
// never branches on provider identity.
type Delivery struct {
	channeled bool
	fragments []string
	ch        <-chan Chunk
}

// SyncFragments wraps an already-materialized fragment sequence.
func SyncFragments(fragments []string) Delivery {
	return Delivery{fragments: fragments}
}

// ChanneledFragments wraps a channel of fragments produced
// cooperatively; each receive may block on network I/O.
func ChanneledFragments(ch <-chan Chunk) Delivery {
	return Delivery{channeled: true, ch: ch}
}

// Backend generates an answer for a conversation. Generate returns the
// delivery shape or a setup error; mid-stream failures travel inside
// channeled deliveries as Chunk.Err.
type Backend interface {
	Name() string
	Generate(ctx context.Context, req Request) (Delivery, error)
}

// Registry maps provider ids to backends.
type Registry struct {
	backends        map[string]Backend
	defaultProvider string
}

// NewRegistry creates an empty backend registry.
func NewRegistry() *Registry {
	return &Registry{backends: make(map[string]Backend)}
}

// Register adds a backend. The first registered backend becomes the
// default.
func (r *Registry) Register(b Backend) {
	if len(r.backends) == 0 {
		r.defaultProvider = b.Name()
	}
	r.backends[b.Name()] = b
}

// SetDefault selects the backend used when a request names no provider.
func (r *Registry) SetDefault(name string) error {
	if _, ok := r.backends[name]; !ok {
		return fmt.Errorf("unknown provider %q", name)
	}
	r.defaultProvider = name
	return nil
}

// Resolve returns the backend for a provider id, falling back to the
// default for an empty id.
func (r *Registry) Resolve(providerID string) (Backend, error) {
	if providerID == "" {
		providerID = r.defaultProvider
	}
	b, ok := r.backends[providerID]
	if !ok {
		return nil, fmt.Errorf("unknown provider %q", providerID)
	}
	return b, nil
}

// Names lists the registered provider ids.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.backends))
	for name := range r.backends {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
