package session

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"interview-copilot/internal/cache"
	"interview-copilot/internal/events"
	"interview-copilot/internal/provider"
	"interview-copilot/internal/room"
)

type fakeSummaries struct {
	resume, job string
	err         error
}

func (f fakeSummaries) Resume(ctx context.Context) (string, error) { return f.resume, f.err }
func (f fakeSummaries) Job(ctx context.Context) (string, error)    { return f.job, f.err }

type stubBackend struct {
	name string
	gen  func(ctx context.Context, req provider.Request) (provider.Delivery, error)
}

func (b *stubBackend) Name() string { return b.name }

func (b *stubBackend) Generate(ctx context.Context, req provider.Request) (provider.Delivery, error) {
	return b.gen(ctx, req)
}

func syncBackend(fragments ...string) *stubBackend {
	return &stubBackend{
		name: "stub",
		gen: func(ctx context.Context, req provider.Request) (provider.Delivery, error) {
			return provider.SyncFragments(fragments), nil
		},
	}
}

func newTestDeps(t *testing.T, backend provider.Backend) Deps {
	t.Helper()
	store, err := cache.NewStore(cache.StoreTypeMemory)
	if err != nil {
		t.Fatalf("NewStore() error = %v", err)
	}
	registry := provider.NewRegistry()
	registry.Register(backend)
	return Deps{
		Hub:              room.NewHub(),
		Answers:          cache.NewAnswerCache(store),
		Summaries:        fakeSummaries{resume: "resume text", job: "job text"},
		Adapter:          provider.NewAdapter(registry),
		Pool:             NewWorkerPool(4),
		DefaultModel:     "test-model",
		DefaultProvider:  "stub",
		ReplayBatchWords: 2,
		ReplayDelay:      0,
	}
}

func connect(t *testing.T, deps Deps, roomID string) (*Session, <-chan events.Event) {
	t.Helper()
	sess := New(deps, roomID)
	stream, err := sess.Connect(context.Background())
	if err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	return sess, stream
}

// collect reads the member stream until the stop type arrives or the
// stream closes.
func collect(t *testing.T, stream <-chan events.Event, stop events.Type) []events.Event {
	t.Helper()
	var out []events.Event
	deadline := time.After(2 * time.Second)
	for {
		select {
		case ev, ok := <-stream:
			if !ok {
				return out
			}
			out = append(out, ev)
			if ev.Type == stop {
				return out
			}
		case <-deadline:
			t.Fatalf("timed out waiting for %s, collected %v", stop, eventTypes(out))
		}
	}
}

func eventTypes(evs []events.Event) []events.Type {
	types := make([]events.Type, len(evs))
	for i, ev := range evs {
		types[i] = ev.Type
	}
	return types
}

func joinedText(evs []events.Event, typ events.Type) string {
	var sb strings.Builder
	for _, ev := range evs {
		if ev.Type == typ {
			sb.WriteString(ev.Text)
		}
	}
	return sb.String()
}

func TestConnectSendsInitialization(t *testing.T) {
	deps := newTestDeps(t, syncBackend("x"))
	sess, stream := connect(t, deps, "room-1")
	defer sess.Close()

	ev := <-stream
	if ev.Type != events.TypeInitialization {
		t.Fatalf("first event = %s, want %s", ev.Type, events.TypeInitialization)
	}
	if ev.ResumeSummary != "resume text" || ev.JobSummary != "job text" {
		t.Errorf("summaries = %q/%q, want resume text/job text", ev.ResumeSummary, ev.JobSummary)
	}
	if sess.State() != StateIdle {
		t.Errorf("state = %s, want idle", sess.State())
	}
}

func TestConnectDegradesOnSummaryError(t *testing.T) {
	deps := newTestDeps(t, syncBackend("x"))
	deps.Summaries = fakeSummaries{err: errors.New("backend down")}
	sess, stream := connect(t, deps, "room-1")
	defer sess.Close()

	ev := <-stream
	if ev.Type != events.TypeInitialization {
		t.Fatalf("first event = %s, want %s", ev.Type, events.TypeInitialization)
	}
	if ev.ResumeSummary != "" || ev.JobSummary != "" {
		t.Errorf("summaries = %q/%q, want empty on error", ev.ResumeSummary, ev.JobSummary)
	}
}

func TestCachedAnswerReplay(t *testing.T) {
	deps := newTestDeps(t, syncBackend("never used"))
	ctx := context.Background()
	if err := deps.Answers.Store(ctx, "What is ETL?", "ETL moves data."); err != nil {
		t.Fatalf("Store() error = %v", err)
	}

	sess, stream := connect(t, deps, "room-1")
	defer sess.Close()
	collect(t, stream, events.TypeInitialization)

	// Same question, different casing and punctuation.
	sess.Receive(ctx, events.Event{Type: events.TypeTranscription, Text: "what is etl??"})
	evs := collect(t, stream, events.TypeAnswerComplete)

	if evs[0].Type != events.TypeQuestion || evs[0].Text != "what is etl??" {
		t.Errorf("first event = %s %q, want question with the raw text", evs[0].Type, evs[0].Text)
	}

	ind := evs[1]
	if ind.Type != events.TypeCacheIndicator {
		t.Fatalf("second event = %s, want %s", ind.Type, events.TypeCacheIndicator)
	}
	if ind.Cached == nil || !*ind.Cached {
		t.Error("cache indicator should report a hit")
	}
	if ind.HitCount != 1 {
		t.Errorf("hit count = %d, want 1", ind.HitCount)
	}

	if got := joinedText(evs, events.TypeAnswerChunk); got != "ETL moves data." {
		t.Errorf("replayed answer = %q, want %q", got, "ETL moves data.")
	}
	if evs[len(evs)-1].Type != events.TypeAnswerComplete {
		t.Errorf("last event = %s, want %s", evs[len(evs)-1].Type, events.TypeAnswerComplete)
	}
}

func TestMissStreamsAndStores(t *testing.T) {
	deps := newTestDeps(t, syncBackend("Hel", "lo"))
	ctx := context.Background()

	sess, stream := connect(t, deps, "room-1")
	defer sess.Close()
	collect(t, stream, events.TypeInitialization)

	sess.Receive(ctx, events.Event{Type: events.TypeTranscription, Text: "Tell me about Go."})
	evs := collect(t, stream, events.TypeAnswerComplete)

	ind := evs[1]
	if ind.Type != events.TypeCacheIndicator {
		t.Fatalf("second event = %s, want %s", ind.Type, events.TypeCacheIndicator)
	}
	if ind.Cached == nil || *ind.Cached {
		t.Error("cache indicator should report a miss")
	}
	if ind.Model != "test-model" || ind.Provider != "stub" {
		t.Errorf("miss indicator = %s/%s, want test-model/stub", ind.Model, ind.Provider)
	}

	var chunks []string
	for _, ev := range evs {
		if ev.Type == events.TypeAnswerChunk {
			chunks = append(chunks, ev.Text)
		}
	}
	if len(chunks) != 2 || chunks[0] != "Hel" || chunks[1] != "lo" {
		t.Errorf("chunks = %v, want [Hel lo]", chunks)
	}

	entry, hit, err := deps.Answers.Lookup(ctx, "tell me about go")
	if err != nil || !hit {
		t.Fatalf("Lookup() = hit %v, err %v; want stored entry", hit, err)
	}
	if entry.Answer != "Hello" {
		t.Errorf("stored answer = %q, want %q", entry.Answer, "Hello")
	}
}

func TestProviderErrorBecomesFragment(t *testing.T) {
	ch := make(chan provider.Chunk, 1)
	ch <- provider.Chunk{Err: errors.New("model offline")}
	close(ch)
	backend := &stubBackend{
		name: "stub",
		gen: func(ctx context.Context, req provider.Request) (provider.Delivery, error) {
			return provider.ChanneledFragments(ch), nil
		},
	}
	deps := newTestDeps(t, backend)
	ctx := context.Background()

	sess, stream := connect(t, deps, "room-1")
	defer sess.Close()
	collect(t, stream, events.TypeInitialization)

	sess.Receive(ctx, events.Event{Type: events.TypeTranscription, Text: "Anything?"})
	evs := collect(t, stream, events.TypeAnswerComplete)

	var chunks []string
	for _, ev := range evs {
		if ev.Type == events.TypeAnswerChunk {
			chunks = append(chunks, ev.Text)
		}
	}
	if len(chunks) != 1 {
		t.Fatalf("chunks = %d, want exactly 1 error chunk", len(chunks))
	}
	if !strings.Contains(chunks[0], "model offline") {
		t.Errorf("error chunk %q should carry the cause", chunks[0])
	}
	if evs[len(evs)-1].Type != events.TypeAnswerComplete {
		t.Errorf("last event = %s, want %s", evs[len(evs)-1].Type, events.TypeAnswerComplete)
	}

	// Failed answers never enter the cache.
	if _, hit, _ := deps.Answers.Lookup(ctx, "Anything?"); hit {
		t.Error("failed answer should not be cached")
	}
}

func TestLiveTranscriptPassthrough(t *testing.T) {
	deps := newTestDeps(t, syncBackend("x"))
	sess, stream := connect(t, deps, "room-1")
	defer sess.Close()
	collect(t, stream, events.TypeInitialization)

	final := true
	sess.Receive(context.Background(), events.Event{
		Type:    events.TypeLiveTranscript,
		Text:    "partial words",
		IsFinal: &final,
	})

	ev := <-stream
	if ev.Type != events.TypeLiveTranscript || ev.Text != "partial words" {
		t.Fatalf("event = %s %q, want live transcript passthrough", ev.Type, ev.Text)
	}
	if ev.IsFinal == nil || !*ev.IsFinal {
		t.Error("is_final should survive the republish")
	}
	if sess.History().Len() != 0 {
		t.Error("partial transcripts must not enter history")
	}
}

func TestBusyRejectsOverlap(t *testing.T) {
	deps := newTestDeps(t, syncBackend("x"))
	sess, stream := connect(t, deps, "room-1")
	defer sess.Close()
	collect(t, stream, events.TypeInitialization)

	r, ok := deps.Hub.Room("room-1")
	if !ok {
		t.Fatal("room not registered")
	}
	if !r.TryBeginAnswer() {
		t.Fatal("answer gate should be free")
	}
	defer r.EndAnswer()

	sess.Receive(context.Background(), events.Event{Type: events.TypeTranscription, Text: "Second question"})

	ev := <-stream
	if ev.Type != events.TypeBusy {
		t.Fatalf("event = %s, want %s", ev.Type, events.TypeBusy)
	}
	if sess.History().Len() != 0 {
		t.Error("rejected question must not enter history")
	}
}

func TestBusyGoesToSubmitterOnly(t *testing.T) {
	deps := newTestDeps(t, syncBackend("x"))
	sess1, stream1 := connect(t, deps, "room-1")
	defer sess1.Close()
	sess2, stream2 := connect(t, deps, "room-1")
	defer sess2.Close()
	collect(t, stream1, events.TypeInitialization)
	collect(t, stream2, events.TypeInitialization)

	r, _ := deps.Hub.Room("room-1")
	r.TryBeginAnswer()
	defer r.EndAnswer()

	sess1.Receive(context.Background(), events.Event{Type: events.TypeTranscription, Text: "q"})

	if ev := <-stream1; ev.Type != events.TypeBusy {
		t.Fatalf("submitter event = %s, want %s", ev.Type, events.TypeBusy)
	}
	select {
	case ev := <-stream2:
		t.Errorf("other member received %s, want nothing", ev.Type)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestAnswerReachesWholeRoom(t *testing.T) {
	deps := newTestDeps(t, syncBackend("shared ", "answer"))
	sess1, stream1 := connect(t, deps, "room-1")
	defer sess1.Close()
	sess2, stream2 := connect(t, deps, "room-1")
	defer sess2.Close()
	collect(t, stream1, events.TypeInitialization)
	collect(t, stream2, events.TypeInitialization)

	sess1.Receive(context.Background(), events.Event{Type: events.TypeTranscription, Text: "For everyone"})

	for _, stream := range []<-chan events.Event{stream1, stream2} {
		evs := collect(t, stream, events.TypeAnswerComplete)
		if got := joinedText(evs, events.TypeAnswerChunk); got != "shared answer" {
			t.Errorf("member saw %q, want %q", got, "shared answer")
		}
	}
}

func TestAnswerSurvivesDisconnect(t *testing.T) {
	ch := make(chan provider.Chunk)
	backend := &stubBackend{
		name: "stub",
		gen: func(ctx context.Context, req provider.Request) (provider.Delivery, error) {
			return provider.ChanneledFragments(ch), nil
		},
	}
	deps := newTestDeps(t, backend)

	sess1, stream1 := connect(t, deps, "room-1")
	sess2, stream2 := connect(t, deps, "room-1")
	defer sess2.Close()
	collect(t, stream1, events.TypeInitialization)
	collect(t, stream2, events.TypeInitialization)

	sess1.Receive(context.Background(), events.Event{Type: events.TypeTranscription, Text: "Long one"})
	collect(t, stream2, events.TypeCacheIndicator)

	// Submitter drops mid-answer; the rest of the room keeps streaming.
	sess1.Close()
	ch <- provider.Chunk{Text: "still "}
	ch <- provider.Chunk{Text: "here"}
	close(ch)

	evs := collect(t, stream2, events.TypeAnswerComplete)
	if got := joinedText(evs, events.TypeAnswerChunk); got != "still here" {
		t.Errorf("remaining member saw %q, want %q", got, "still here")
	}
}

func TestQuestionTruncatedForDisplay(t *testing.T) {
	deps := newTestDeps(t, syncBackend("ok"))
	deps.DisplayLimit = 10
	sess, stream := connect(t, deps, "room-1")
	defer sess.Close()
	collect(t, stream, events.TypeInitialization)

	long := strings.Repeat("a", 25)
	sess.Receive(context.Background(), events.Event{Type: events.TypeTranscription, Text: long})
	evs := collect(t, stream, events.TypeAnswerComplete)

	if evs[0].Text != strings.Repeat("a", 10)+"..." {
		t.Errorf("displayed question = %q, want 10 runes plus ellipsis", evs[0].Text)
	}
	// History keeps the full text.
	if turns := sess.History().Turns(); len(turns) == 0 || turns[0].Content != long {
		t.Error("history should keep the untruncated question")
	}
}

func TestHistoryPairsTurns(t *testing.T) {
	deps := newTestDeps(t, syncBackend("A1"))
	sess, stream := connect(t, deps, "room-1")
	defer sess.Close()
	collect(t, stream, events.TypeInitialization)

	sess.Receive(context.Background(), events.Event{Type: events.TypeTranscription, Text: "Q1"})
	collect(t, stream, events.TypeAnswerComplete)

	turns := sess.History().Turns()
	if len(turns) != 2 {
		t.Fatalf("turns = %d, want 2", len(turns))
	}
	if turns[0].Role != "user" || turns[0].Content != "Q1" {
		t.Errorf("turn 0 = %s %q, want user Q1", turns[0].Role, turns[0].Content)
	}
	if turns[1].Role != "assistant" || turns[1].Content != "A1" {
		t.Errorf("turn 1 = %s %q, want assistant A1", turns[1].Role, turns[1].Content)
	}
}

func TestEmptyTranscriptionIgnored(t *testing.T) {
	deps := newTestDeps(t, syncBackend("x"))
	sess, stream := connect(t, deps, "room-1")
	defer sess.Close()
	collect(t, stream, events.TypeInitialization)

	sess.Receive(context.Background(), events.Event{Type: events.TypeTranscription, Text: "   \n\t "})

	select {
	case ev := <-stream:
		t.Errorf("received %s, want nothing for blank input", ev.Type)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestSplitTokensRoundTrips(t *testing.T) {
	cases := []string{
		"plain words here",
		"  leading and   multiple  spaces ",
		"line\nbreaks\tand tabs",
		"single",
		"",
	}
	for _, text := range cases {
		if got := strings.Join(splitTokens(text), ""); got != text {
			t.Errorf("splitTokens(%q) rejoined = %q", text, got)
		}
	}
}

func TestReplayBatches(t *testing.T) {
	text := "one two three four five"
	batches := replayBatches(text, 2)

	if len(batches) != 3 {
		t.Fatalf("batches = %d, want 3", len(batches))
	}
	if got := strings.Join(batches, ""); got != text {
		t.Errorf("rejoined = %q, want %q", got, text)
	}

	if replayBatches("", 4) != nil {
		t.Error("empty text should produce no batches")
	}
}
