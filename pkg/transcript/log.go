package transcript

import (
	"strings"
	"sync"
)

// Log is the running record of everything recognized during the current
// billing session. Unlike the Buffer it never flushes; it only grows
// until the session is reset.
type Log struct {
	mu   sync.Mutex
	text string
}

// NewLog creates an empty transcript log.
func NewLog() *Log {
	return &Log{}
}

// Append adds a fragment to the recognized-text record.
func (l *Log) Append(fragment string) {
	fragment = strings.TrimSpace(fragment)
	if fragment == "" {
		return
	}

	l.mu.Lock()
	if l.text == "" {
		l.text = fragment
	} else {
		l.text = l.text + " " + fragment
	}
	l.mu.Unlock()
}

// Text returns the full recognized text so far.
func (l *Log) Text() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.text
}

// Reset clears the record.
func (l *Log) Reset() {
	l.mu.Lock()
	l.text = ""
	l.mu.Unlock()
}
