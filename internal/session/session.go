package session

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"interview-copilot/internal/cache"
	"interview-copilot/internal/events"
	"interview-copilot/internal/logging"
	"interview-copilot/internal/provider"
	"interview-copilot/internal/room"
)

// State is a session's lifecycle position.
type State int

const (
	StateConnecting State = iota
	StateJoined
	StateIdle
	StateAnswering
	StateClosed
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateJoined:
		return "joined"
	case StateIdle:
		return "idle"
	case StateAnswering:
		return "answering"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Summaries supplies the resume and job context a session snapshots at
// connect time.
type Summaries interface {
	Resume(ctx context.Context) (string, error)
	Job(ctx context.Context) (string, error)
}

// Recorder persists completed turns. Implementations must tolerate
// being called from multiple sessions.
type Recorder interface {
	RecordTurn(ctx context.Context, roomID, question, answer string, cached bool) error
}

// Deps are the process-wide services injected into every session.
type Deps struct {
	Hub       *room.Hub
	Answers   *cache.AnswerCache
	Summaries Summaries
	Adapter   *provider.Adapter
	Pool      *WorkerPool
	Recorder  Recorder // optional

	DefaultModel    string
	DefaultProvider string

	// Cached-answer replay pacing.
	ReplayBatchWords int
	ReplayDelay      time.Duration

	// Question display truncation limit, in runes.
	DisplayLimit int
}

const (
	defaultReplayBatchWords = 4
	defaultReplayDelay      = 50 * time.Millisecond
	defaultDisplayLimit     = 500
)

// Session orchestrates one live connection: it owns the conversation
// history, drives the cache-aside answer flow, and publishes ordered
// events to its room.
type Session struct {
	id      string
	roomID  string
	deps    Deps
	history *History

	room   *room.Room
	stream <-chan events.Event

	resumeSummary string
	jobSummary    string

	mu    sync.Mutex
	state State
}

// New creates a session for a room. The session is inert until Connect.
func New(deps Deps, roomID string) *Session {
	if deps.ReplayBatchWords <= 0 {
		deps.ReplayBatchWords = defaultReplayBatchWords
	}
	if deps.ReplayDelay < 0 {
		deps.ReplayDelay = defaultReplayDelay
	}
	if deps.DisplayLimit <= 0 {
		deps.DisplayLimit = defaultDisplayLimit
	}
	return &Session{
		id:      uuid.New().String(),
		roomID:  roomID,
		deps:    deps,
		history: NewHistory(),
		state:   StateConnecting,
	}
}

// ID returns the connection identity.
func (s *Session) ID() string {
	return s.id
}

// RoomID returns the interview room this session joined.
func (s *Session) RoomID() string {
	return s.roomID
}

// State returns the current lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// History returns the session's conversation history.
func (s *Session) History() *History {
	return s.history
}

// Connect joins the room, snapshots the resume/job summaries, and sends
// the initialization event to this client only. It returns the channel
// carrying every event addressed to the client; the channel closes on
// Close.
func (s *Session) Connect(ctx context.Context) (<-chan events.Event, error) {
	s.room, s.stream = s.deps.Hub.Join(s.roomID, s.id)
	s.setState(StateJoined)

	// Summary computation can block on file I/O and a summarization
	// backend; it runs through the bounded pool so a slow collaborator
	// does not stall connects across the process.
	err := s.deps.Pool.Run(ctx, func() error {
		resume, err := s.deps.Summaries.Resume(ctx)
		if err != nil {
			logging.Warnf("session %s: resume summary unavailable: %v", s.id, err)
			resume = ""
		}
		job, err := s.deps.Summaries.Job(ctx)
		if err != nil {
			logging.Warnf("session %s: job summary unavailable: %v", s.id, err)
			job = ""
		}
		s.resumeSummary, s.jobSummary = resume, job
		return nil
	})
	if err != nil {
		s.deps.Hub.Leave(s.roomID, s.id)
		s.setState(StateClosed)
		return nil, err
	}

	s.room.Send(s.id, events.NewInitialization(s.resumeSummary, s.jobSummary))
	s.setState(StateIdle)
	return s.stream, nil
}

// Receive handles one inbound client event. Malformed or unknown
// events are ignored; the connection stays open.
func (s *Session) Receive(ctx context.Context, ev events.Event) {
	if s.State() == StateClosed {
		return
	}

	switch ev.Type {
	case events.TypeLiveTranscript:
		// Partial transcripts bypass history and the cache entirely.
		isFinal := ev.IsFinal != nil && *ev.IsFinal
		s.room.Publish(events.NewLiveTranscript(ev.Text, isFinal))

	case events.TypeTranscription:
		text := strings.TrimSpace(ev.Text)
		if text == "" {
			return
		}
		if !s.room.TryBeginAnswer() {
			// One active question per room; the submitter alone is told.
			s.room.Send(s.id, events.NewBusy(time.Now()))
			return
		}
		s.setState(StateAnswering)
		// The answer must outlive this connection: a disconnecting
		// viewer never truncates the stream for the rest of the room.
		go s.answer(context.WithoutCancel(ctx), text, ev.Model, ev.Provider)

	default:
		logging.Debugf("session %s: ignoring %q event", s.id, ev.Type)
	}
}

// Close deregisters the session from the room. An in-flight answer
// keeps streaming for the remaining members.
func (s *Session) Close() {
	if s.State() == StateClosed {
		return
	}
	s.setState(StateClosed)
	s.deps.Hub.Leave(s.roomID, s.id)
}

// answer runs the full cache-aside answer flow for one question.
func (s *Session) answer(ctx context.Context, text, model, providerID string) {
	defer s.room.EndAnswer()
	defer func() {
		s.mu.Lock()
		if s.state == StateAnswering {
			s.state = StateIdle
		}
		s.mu.Unlock()
	}()

	if model == "" {
		model = s.deps.DefaultModel
	}
	if providerID == "" {
		providerID = s.deps.DefaultProvider
	}

	now := time.Now()
	s.history.BeginTurn(text, now)
	s.room.Publish(events.NewQuestion(truncate(text, s.deps.DisplayLimit), now))

	entry, hit, err := s.deps.Answers.Lookup(ctx, text)
	if err != nil {
		logging.Warnf("session %s: cache lookup failed: %v", s.id, err)
		hit = false
	}

	var answer string
	var failed bool
	if hit {
		s.room.Publish(events.NewCacheHit(entry.HitCount, now))
		answer = s.replay(entry.Answer)
	} else {
		s.room.Publish(events.NewCacheMiss(model, providerID, now))
		answer, failed = s.generate(ctx, model, providerID)
		if !failed && answer != "" {
			if err := s.deps.Answers.Store(ctx, text, answer); err != nil {
				logging.Warnf("session %s: cache store failed: %v", s.id, err)
			}
		}
	}

	s.history.CompleteTurn(answer, time.Now())
	s.room.Publish(events.NewAnswerComplete(time.Now()))

	if s.deps.Recorder != nil {
		if err := s.deps.Recorder.RecordTurn(ctx, s.roomID, text, answer, hit); err != nil {
			logging.Warnf("session %s: archive write failed: %v", s.id, err)
		}
	}
}

// replay re-broadcasts a cached answer in small word batches with a
// fixed pacing delay. The pacing is purely presentational; the content
// is already fully known.
func (s *Session) replay(answer string) string {
	batches := replayBatches(answer, s.deps.ReplayBatchWords)
	for i, batch := range batches {
		s.room.Publish(events.NewAnswerChunk(batch, time.Now()))
		if i < len(batches)-1 && s.deps.ReplayDelay > 0 {
			time.Sleep(s.deps.ReplayDelay)
		}
	}
	return answer
}

// generate streams a fresh answer through the provider adapter,
// forwarding every fragment as it arrives. Real generation paces
// itself; no artificial delay is added.
func (s *Session) generate(ctx context.Context, model, providerID string) (answer string, failed bool) {
	summaries := provider.Context{
		ResumeSummary: s.resumeSummary,
		JobSummary:    s.jobSummary,
	}

	var sb strings.Builder
	var stream *provider.Stream
	err := s.deps.Pool.Run(ctx, func() error {
		stream = s.deps.Adapter.Stream(ctx, s.history.Messages(), summaries, model, providerID)
		for {
			fragment, ok := stream.Next()
			if !ok {
				return nil
			}
			sb.WriteString(fragment)
			s.room.Publish(events.NewAnswerChunk(fragment, time.Now()))
		}
	})
	if err != nil {
		// Pool admission failed; surface it like any provider error.
		msg := "Sorry, I encountered an error: " + err.Error()
		s.room.Publish(events.NewAnswerChunk(msg, time.Now()))
		return msg, true
	}

	return sb.String(), stream.Failed()
}

// truncate shortens text to limit runes for display, marking the cut.
func truncate(text string, limit int) string {
	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}
	return string(runes[:limit]) + "..."
}

// replayBatches splits an answer into groups of words, each carrying
// its original trailing whitespace so the batches concatenate back to
// the exact cached text.
func replayBatches(text string, wordsPerBatch int) []string {
	tokens := splitTokens(text)
	if len(tokens) == 0 {
		return nil
	}
	if wordsPerBatch < 1 {
		wordsPerBatch = 1
	}

	var batches []string
	for i := 0; i < len(tokens); i += wordsPerBatch {
		end := i + wordsPerBatch
		if end > len(tokens) {
			end = len(tokens)
		}
		batches = append(batches, strings.Join(tokens[i:end], ""))
	}
	return batches
}

// splitTokens cuts text into word tokens that keep their trailing
// whitespace, so concatenating the tokens reproduces the input.
func splitTokens(text string) []string {
	var tokens []string
	var cur strings.Builder
	prevSpace := false

	for _, r := range text {
		isSpace := r == ' ' || r == '\t' || r == '\n' || r == '\r'
		if !isSpace && prevSpace && cur.Len() > 0 {
			tokens = append(tokens, cur.String())
			cur.Reset()
		}
		cur.WriteRune(r)
		prevSpace = isSpace
	}
	if cur.Len() > 0 {
		tokens = append(tokens, cur.String())
	}
	return tokens
}

func (s *Session) setState(state State) {
	s.mu.Lock()
	s.state = state
	s.mu.Unlock()
}
