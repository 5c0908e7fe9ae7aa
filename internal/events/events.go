package events

import (
	"encoding/json"
	"fmt"
	"time"
)

// Type identifies a room event on the wire.
type Type string

const (
	TypeInitialization Type = "initialization"
	TypeLiveTranscript Type = "live_transcript_update"
	TypeTranscription  Type = "transcription"
	TypeQuestion       Type = "question"
	TypeCacheIndicator Type = "cache_indicator"
	TypeAnswerChunk    Type = "answer_chunk"
	TypeAnswerComplete Type = "answer_complete"
	TypeBusy           Type = "busy"
)

// Event is the room-scoped wire message. One struct covers every event
// type; fields not used by a given type are omitted from the JSON.
type Event struct {
	Type Type `json:"type"`

	Text      string `json:"text,omitempty"`
	Timestamp string `json:"timestamp,omitempty"`

	// live_transcript_update
	IsFinal *bool `json:"is_final,omitempty"`

	// initialization
	ResumeSummary string `json:"resume_summary,omitempty"`
	JobSummary    string `json:"job_summary,omitempty"`

	// cache_indicator
	Cached   *bool  `json:"cached,omitempty"`
	HitCount int    `json:"hit_count,omitempty"`
	Model    string `json:"model,omitempty"`
	Provider string `json:"provider,omitempty"`
}

// Stamp formats a room-scoped wall-clock timestamp.
func Stamp(t time.Time) string {
	return t.Format("15:04:05")
}

// NewInitialization builds the per-client connect event.
func NewInitialization(resumeSummary, jobSummary string) Event {
	return Event{
		Type:          TypeInitialization,
		ResumeSummary: resumeSummary,
		JobSummary:    jobSummary,
	}
}

// NewLiveTranscript builds a partial-transcript relay event.
func NewLiveTranscript(text string, isFinal bool) Event {
	return Event{
		Type:    TypeLiveTranscript,
		Text:    text,
		IsFinal: &isFinal,
	}
}

// NewQuestion builds the question broadcast for a turn.
func NewQuestion(text string, at time.Time) Event {
	return Event{
		Type:      TypeQuestion,
		Text:      text,
		Timestamp: Stamp(at),
	}
}

// NewCacheHit builds the indicator broadcast for a cache hit.
func NewCacheHit(hitCount int, at time.Time) Event {
	cached := true
	return Event{
		Type:      TypeCacheIndicator,
		Cached:    &cached,
		HitCount:  hitCount,
		Timestamp: Stamp(at),
	}
}

// NewCacheMiss builds the indicator broadcast for a cache miss.
func NewCacheMiss(model, provider string, at time.Time) Event {
	cached := false
	return Event{
		Type:      TypeCacheIndicator,
		Cached:    &cached,
		Model:     model,
		Provider:  provider,
		Timestamp: Stamp(at),
	}
}

// NewAnswerChunk builds one streamed answer fragment.
func NewAnswerChunk(text string, at time.Time) Event {
	return Event{
		Type:      TypeAnswerChunk,
		Text:      text,
		Timestamp: Stamp(at),
	}
}

// NewAnswerComplete builds the terminal marker for a turn.
func NewAnswerComplete(at time.Time) Event {
	return Event{
		Type:      TypeAnswerComplete,
		Timestamp: Stamp(at),
	}
}

// NewBusy builds the rejection sent to a client that submitted a
// transcription while the room was still answering a previous one.
func NewBusy(at time.Time) Event {
	return Event{
		Type:      TypeBusy,
		Timestamp: Stamp(at),
	}
}

// Decode parses an inbound wire message. Unknown or missing types are
// returned as an error so the caller can ignore the message without
// closing the connection.
func Decode(data []byte) (Event, error) {
	var ev Event
	if err := json.Unmarshal(data, &ev); err != nil {
		return Event{}, fmt.Errorf("failed to parse event: %w", err)
	}
	if ev.Type == "" {
		return Event{}, fmt.Errorf("event missing type")
	}
	return ev, nil
}

// Encode serializes an event for the wire.
func (e Event) Encode() ([]byte, error) {
	data, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal event: %w", err)
	}
	return data, nil
}
