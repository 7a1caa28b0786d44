package main

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"openchat/internal/identity"
	"openchat/internal/transcript"
)

// printer writes transcript entries once they are confirmed and notes
// removals. Pending entries are skipped until the server echoes them.
type printer struct {
	mu      sync.Mutex
	w       io.Writer
	printed map[string]bool
	state   transcript.ViewState
}

func newPrinter(w io.Writer) *printer {
	return &printer{w: w, printed: make(map[string]bool), state: transcript.ViewLoading}
}

func (p *printer) update(v transcript.View) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if v.State != p.state {
		p.state = v.State
		switch v.State {
		case transcript.ViewError:
			fmt.Fprintf(p.w, "! could not load messages: %v\n", v.Err)
		case transcript.ViewEmpty:
			fmt.Fprintln(p.w, "no messages yet")
		}
	}

	seen := make(map[string]bool, len(v.Entries))
	for _, e := range v.Entries {
		if e.Pending {
			continue
		}
		seen[e.Message.ID] = true
		if !p.printed[e.Message.ID] {
			p.printed[e.Message.ID] = true
			fmt.Fprintln(p.w, formatEntry(e))
		}
	}
	for id := range p.printed {
		if !seen[id] {
			delete(p.printed, id)
			fmt.Fprintf(p.w, "- %s deleted\n", id)
		}
	}
}

func formatEntry(e transcript.Entry) string {
	m := e.Message
	var b strings.Builder
	fmt.Fprintf(&b, "[%s] %-2s %s", m.CreatedAt.Local().Format("15:04"), identity.DisplayHandle(m.Nickname), m.Nickname)
	if m.ReplyTo != nil && *m.ReplyTo != "" {
		fmt.Fprintf(&b, " ↩%s", shortID(*m.ReplyTo))
	}
	b.WriteString(":")

	payload := m.Payload()
	if payload.Text {
		b.WriteString(" " + *m.Content)
	}
	if payload.Image {
		b.WriteString(" [image " + *m.ImageURL + "]")
	}
	if payload.Audio {
		b.WriteString(" [audio " + *m.AudioURL + "]")
	}
	fmt.Fprintf(&b, "  (%s)", m.ID)
	return b.String()
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
