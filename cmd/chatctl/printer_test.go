package main

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"openchat/internal/transcript"
)

func strp(s string) *string { return &s }

func entry(id, nick, text string) transcript.Entry {
	return transcript.Entry{Message: transcript.Message{
		ID:        id,
		Nickname:  nick,
		Content:   strp(text),
		CreatedAt: time.Date(2024, 5, 1, 9, 30, 0, 0, time.Local),
	}}
}

func TestFormatEntry(t *testing.T) {
	e := entry("m1", "ayla", "merhaba")
	e.Message.ImageURL = strp("http://cdn/images/a.png")
	e.Message.ReplyTo = strp("0123456789abcdef")

	assert.Equal(t, "[09:30] AY ayla ↩01234567: merhaba [image http://cdn/images/a.png]  (m1)", formatEntry(e))
}

func TestPrinterPrintsOnceAndNotesDeletes(t *testing.T) {
	var buf bytes.Buffer
	p := newPrinter(&buf)

	pending := entry("temp-1", "ayla", "sending")
	pending.Pending = true

	p.update(transcript.View{State: transcript.ViewReady, Entries: []transcript.Entry{entry("m1", "ayla", "one"), pending}})
	p.update(transcript.View{State: transcript.ViewReady, Entries: []transcript.Entry{entry("m1", "ayla", "one"), entry("m2", "bora", "two")}})
	p.update(transcript.View{State: transcript.ViewReady, Entries: []transcript.Entry{entry("m2", "bora", "two")}})

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	assert.Len(t, lines, 3)
	assert.Contains(t, lines[0], "ayla: one")
	assert.Contains(t, lines[1], "bora: two")
	assert.Equal(t, "- m1 deleted", lines[2])
}

func TestPrinterEmptyState(t *testing.T) {
	var buf bytes.Buffer
	p := newPrinter(&buf)
	p.update(transcript.View{State: transcript.ViewEmpty})
	p.update(transcript.View{State: transcript.ViewEmpty})
	assert.Equal(t, "no messages yet\n", buf.String())
}

func TestKindList(t *testing.T) {
	for _, k := range transcript.ReactionKinds {
		assert.Contains(t, kindList(), string(k))
	}
}
