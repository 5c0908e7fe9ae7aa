package overlay

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"
)

var (
	headerStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("36"))
	questionStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("33"))
	dimStyle      = lipgloss.NewStyle().Faint(true)
	hitStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	missStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	busyStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
)

// Display renders room events in the terminal.
type Display struct {
	width    int
	renderer *glamour.TermRenderer

	transcriptShown bool
}

// NewDisplay creates a display sized to the current terminal.
func NewDisplay() *Display {
	width := terminalWidth()

	renderer, _ := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width-4),
	)

	return &Display{
		width:    width,
		renderer: renderer,
	}
}

// PrintWelcome displays the overlay header.
func (d *Display) PrintWelcome(room string) {
	fmt.Println(headerStyle.Render("interview-copilot overlay"))
	fmt.Println(dimStyle.Render(fmt.Sprintf("room: %s · type a question and press enter to ask manually", room)))
	fmt.Println()
}

// PrintContext shows the resume/job summaries received on connect.
func (d *Display) PrintContext(resume, job string) {
	fmt.Println(dimStyle.Render("context loaded:"))
	fmt.Println(dimStyle.Render("  resume: " + firstLine(resume)))
	fmt.Println(dimStyle.Render("  job:    " + firstLine(job)))
	fmt.Println()
}

// PrintLiveTranscript rewrites the in-progress transcript line.
func (d *Display) PrintLiveTranscript(text string, isFinal bool) {
	line := text
	if max := d.width - 6; max > 0 && len(line) > max {
		line = line[len(line)-max:]
	}
	fmt.Printf("\r\033[K%s %s", dimStyle.Render("mic:"), line)
	if isFinal {
		fmt.Println()
		d.transcriptShown = false
		return
	}
	d.transcriptShown = true
}

// PrintQuestion shows the question header for a turn.
func (d *Display) PrintQuestion(text, timestamp string) {
	if d.transcriptShown {
		fmt.Println()
		d.transcriptShown = false
	}
	fmt.Println()
	fmt.Println(questionStyle.Render(fmt.Sprintf("Q [%s] %s", timestamp, text)))
}

// PrintCacheHit shows the cached-answer badge.
func (d *Display) PrintCacheHit(hitCount int) {
	fmt.Println(hitStyle.Render(fmt.Sprintf("cached answer (asked %d times)", hitCount)))
}

// PrintCacheMiss shows which backend is generating.
func (d *Display) PrintCacheMiss(model, provider string) {
	fmt.Println(missStyle.Render(fmt.Sprintf("generating with %s/%s", provider, model)))
}

// WriteChunk streams one answer fragment as it arrives.
func (d *Display) WriteChunk(text string) {
	fmt.Print(text)
}

// PrintAnswerComplete re-renders the finished answer as markdown.
func (d *Display) PrintAnswerComplete(answer, timestamp string) {
	fmt.Println()
	if d.renderer != nil && strings.TrimSpace(answer) != "" {
		if rendered, err := d.renderer.Render(answer); err == nil {
			fmt.Print(rendered)
		}
	}
	fmt.Println(dimStyle.Render(fmt.Sprintf("complete at %s", timestamp)))
}

// PrintBusy shows the rejection for an overlapping question.
func (d *Display) PrintBusy() {
	fmt.Println(busyStyle.Render("room is busy answering the previous question"))
}

// PrintInfo displays an info message.
func (d *Display) PrintInfo(msg string) {
	fmt.Println(dimStyle.Render(msg))
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	if len(s) > 100 {
		s = s[:100] + "..."
	}
	return s
}

func terminalWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width <= 0 {
		return 80
	}
	return width
}
