package events

import (
	"encoding/json"
	"strings"
	"testing"
	"time"
)

func TestDecode(t *testing.T) {
	ev, err := Decode([]byte(`{"type":"transcription","text":"What is Go?","model":"llama3.1:8b"}`))
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if ev.Type != TypeTranscription || ev.Text != "What is Go?" || ev.Model != "llama3.1:8b" {
		t.Errorf("decoded = %+v", ev)
	}
}

func TestDecodeRejectsMalformed(t *testing.T) {
	cases := []string{
		`not json`,
		`{"text":"no type field"}`,
		`{"type":""}`,
		``,
	}
	for _, raw := range cases {
		if _, err := Decode([]byte(raw)); err == nil {
			t.Errorf("Decode(%q) should fail", raw)
		}
	}
}

func TestEncodeOmitsUnusedFields(t *testing.T) {
	data, err := NewAnswerComplete(time.Now()).Encode()
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}
	s := string(data)
	for _, field := range []string{"text", "is_final", "cached", "hit_count", "resume_summary"} {
		if strings.Contains(s, `"`+field+`"`) {
			t.Errorf("answer_complete wire form carries %q: %s", field, s)
		}
	}
}

func TestCacheIndicatorWireForm(t *testing.T) {
	// A miss must carry an explicit cached:false, not omit the field.
	data, err := NewCacheMiss("m", "openai", time.Now()).Encode()
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	cached, ok := raw["cached"].(bool)
	if !ok || cached {
		t.Errorf("miss wire form = %s, want cached:false present", data)
	}

	data, _ = NewCacheHit(3, time.Now()).Encode()
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if cached, _ := raw["cached"].(bool); !cached {
		t.Errorf("hit wire form = %s, want cached:true", data)
	}
	if raw["hit_count"].(float64) != 3 {
		t.Errorf("hit wire form = %s, want hit_count:3", data)
	}
}

func TestStamp(t *testing.T) {
	at := time.Date(2024, 5, 1, 9, 30, 5, 0, time.UTC)
	if got := Stamp(at); got != "09:30:05" {
		t.Errorf("Stamp() = %q, want 09:30:05", got)
	}
}

func TestLiveTranscriptRoundTrip(t *testing.T) {
	data, err := NewLiveTranscript("partial", false).Encode()
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}
	ev, err := Decode(data)
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if ev.IsFinal == nil || *ev.IsFinal {
		t.Error("is_final:false should survive the round trip")
	}
}
