package tuitest

import (
	"bytes"
	"io"
)

// queryReplies answers the capability probes lipgloss and bubbletea send at
// startup. Without replies they wait for a timeout before the first render.
var queryReplies = []struct {
	query, reply string
}{
	{"\x1b[6n", "\x1b[1;1R"},
	{"\x1b]10;?\x07", "\x1b]10;rgb:cccc/cccc/cccc\x07"},
	{"\x1b]10;?\x1b\\", "\x1b]10;rgb:cccc/cccc/cccc\x1b\\"},
	{"\x1b]11;?\x07", "\x1b]11;rgb:0000/0000/0000\x07"},
	{"\x1b]11;?\x1b\\", "\x1b]11;rgb:0000/0000/0000\x1b\\"},
}

const (
	pendingLimit = 256
	pendingKeep  = 64
)

// terminalResponder plays the terminal side of query/reply escape sequences.
type terminalResponder struct {
	w       io.Writer
	pending []byte
}

func newTerminalResponder(w io.Writer) *terminalResponder {
	return &terminalResponder{w: w, pending: make([]byte, 0, pendingLimit)}
}

// Process feeds program output to the responder. A short tail is kept so a
// query split across two reads is still seen.
func (tr *terminalResponder) Process(chunk []byte) {
	tr.pending = append(tr.pending, chunk...)
	for tr.answerOne() {
	}
	if len(tr.pending) > pendingLimit {
		tr.pending = tr.pending[len(tr.pending)-pendingKeep:]
	}
}

// answerOne replies to the earliest pending query, if any.
func (tr *terminalResponder) answerOne() bool {
	first, at := -1, len(tr.pending)
	for i, qr := range queryReplies {
		if idx := bytes.Index(tr.pending, []byte(qr.query)); idx >= 0 && idx < at {
			first, at = i, idx
		}
	}
	if first < 0 {
		return false
	}
	qr := queryReplies[first]
	tr.pending = tr.pending[at+len(qr.query):]
	_, _ = io.WriteString(tr.w, qr.reply)
	return true
}
