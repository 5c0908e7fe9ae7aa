package overlay

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"golang.org/x/net/websocket"

	"interview-copilot/internal/events"
)

// Overlay is the terminal viewer for a live interview room. It renders
// the broadcast stream and can submit manual questions typed on stdin.
type Overlay struct {
	display *Display

	model    string
	provider string
}

// New creates an overlay client.
func New(display *Display, model, provider string) *Overlay {
	return &Overlay{
		display:  display,
		model:    model,
		provider: provider,
	}
}

// Run connects to the server and renders events until the connection
// closes or stdin reaches EOF with no stream left.
func (o *Overlay) Run(serverURL, origin, room string) error {
	url := fmt.Sprintf("%s/ws/interview/?room=%s", serverURL, room)
	conn, err := websocket.Dial(url, "", origin)
	if err != nil {
		return fmt.Errorf("failed to connect to %s: %w", url, err)
	}
	defer conn.Close()

	o.display.PrintWelcome(room)

	// Manual question input (playground mode): one line, one question.
	go o.readInput(conn)

	var answer strings.Builder
	for {
		var ev events.Event
		if err := websocket.JSON.Receive(conn, &ev); err != nil {
			o.display.PrintInfo("connection closed")
			return nil
		}

		switch ev.Type {
		case events.TypeInitialization:
			o.display.PrintContext(ev.ResumeSummary, ev.JobSummary)

		case events.TypeLiveTranscript:
			isFinal := ev.IsFinal != nil && *ev.IsFinal
			o.display.PrintLiveTranscript(ev.Text, isFinal)

		case events.TypeQuestion:
			answer.Reset()
			o.display.PrintQuestion(ev.Text, ev.Timestamp)

		case events.TypeCacheIndicator:
			cached := ev.Cached != nil && *ev.Cached
			if cached {
				o.display.PrintCacheHit(ev.HitCount)
			} else {
				o.display.PrintCacheMiss(ev.Model, ev.Provider)
			}

		case events.TypeAnswerChunk:
			answer.WriteString(ev.Text)
			o.display.WriteChunk(ev.Text)

		case events.TypeAnswerComplete:
			o.display.PrintAnswerComplete(answer.String(), ev.Timestamp)
			answer.Reset()

		case events.TypeBusy:
			o.display.PrintBusy()
		}
	}
}

// readInput forwards typed lines as transcription events.
func (o *Overlay) readInput(conn *websocket.Conn) {
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}
		ev := events.Event{
			Type:     events.TypeTranscription,
			Text:     text,
			Model:    o.model,
			Provider: o.provider,
		}
		data, err := ev.Encode()
		if err != nil {
			continue
		}
		if err := websocket.Message.Send(conn, string(data)); err != nil {
			return
		}
	}
}
