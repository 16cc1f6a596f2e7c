package main

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/rs/zerolog/log"

	"github.com/Rrens/shaman-chat/internal/apiclient"
	"github.com/Rrens/shaman-chat/internal/chat"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("39"))

	userStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("42"))

	assistantStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("214"))

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("242"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196"))

	activeStyle = lipgloss.NewStyle().
			Background(lipgloss.Color("25")).
			Foreground(lipgloss.Color("255"))
)

// terminalView prints controller updates to a writer
type terminalView struct {
	mu       sync.Mutex
	out      io.Writer
	renderer *glamour.TermRenderer
}

func newTerminalView(out io.Writer, markdown bool) *terminalView {
	v := &terminalView{out: out}
	if markdown {
		r, err := glamour.NewTermRenderer(
			glamour.WithAutoStyle(),
			glamour.WithWordWrap(80),
		)
		if err != nil {
			log.Warn().Err(err).Msg("markdown renderer unavailable, printing plain text")
		} else {
			v.renderer = r
		}
	}
	return v
}

func (v *terminalView) markdown(text string) string {
	if v.renderer == nil {
		return text
	}
	out, err := v.renderer.Render(text)
	if err != nil {
		return text
	}
	return strings.TrimRight(out, "\n")
}

func (v *terminalView) printf(format string, args ...any) {
	v.mu.Lock()
	defer v.mu.Unlock()
	fmt.Fprintf(v.out, format, args...)
}

func (v *terminalView) entry(e chat.Entry) string {
	if e.Role == chat.RoleUser {
		return userStyle.Render("You: ") + e.Content
	}
	if strings.HasPrefix(e.Content, "[Error:") {
		return errorStyle.Render(e.Content)
	}
	return assistantStyle.Render("Sham'an:") + "\n" + v.markdown(e.Content)
}

func (v *terminalView) SetBusy(busy bool) {
	if busy {
		v.printf("%s\n", dimStyle.Render("..."))
	}
}

func (v *terminalView) SetTranscript(entries []chat.Entry) {
	for _, e := range entries {
		v.printf("%s\n", v.entry(e))
	}
}

func (v *terminalView) AppendEntry(e chat.Entry) {
	if e.Role == chat.RoleUser {
		// already on screen as typed
		return
	}
	v.printf("%s\n", v.entry(e))
}

func (v *terminalView) ShowNotice(text string) {
	v.printf("%s\n", dimStyle.Render(text))
}

func (v *terminalView) ShowSessions(sessions []apiclient.Session, active string) {}

func (v *terminalView) ShowSessionError(err error) {
	v.printf("%s\n", errorStyle.Render("Could not load dialogues: "+err.Error()))
}

func (v *terminalView) SetTitle(title string) {
	if title != "" {
		v.printf("%s\n", titleStyle.Render("== "+title+" =="))
	}
}

func (v *terminalView) ShowAttachment(preview string) {
	if preview == "" {
		return
	}
	v.printf("%s\n", dimStyle.Render("attached: "+preview))
}

func (v *terminalView) ShowAttachmentURL(url string) {
	v.printf("%s\n", dimStyle.Render("file: "+url))
}

// renderSessions prints a numbered session list, highlighting the active one
func renderSessions(w io.Writer, sessions []apiclient.Session, active string) {
	if len(sessions) == 0 {
		fmt.Fprintln(w, dimStyle.Render("No dialogues yet."))
		return
	}
	for i, s := range sessions {
		line := fmt.Sprintf("%2d. %s", i+1, s.Title)
		if !s.UpdatedAt.IsZero() {
			line += dimStyle.Render("  " + s.UpdatedAt.Local().Format("02.01.2006 15:04"))
		}
		if s.UUID == active {
			line = activeStyle.Render(line)
		}
		fmt.Fprintln(w, line)
	}
}

func toEntry(h apiclient.HistoryEntry) chat.Entry {
	return chat.Entry{Role: h.Role, Content: h.Content}
}
