package client

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/spf13/afero"

	"github.com/nfrund/relay/internal/protocol"
)

// Transcript appends shown messages to a file, one line each.
type Transcript struct {
	mu   sync.Mutex
	fs   afero.Fs
	path string
	now  func() time.Time
}

// NewTranscript creates a transcript at path on fs, creating parent directories.
func NewTranscript(fs afero.Fs, path string) (*Transcript, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := fs.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create transcript directory: %w", err)
		}
	}
	return &Transcript{fs: fs, path: path, now: time.Now}, nil
}

// Append writes one message line.
func (t *Transcript) Append(event string, msg protocol.Message) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	f, err := t.fs.OpenFile(t.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open transcript: %w", err)
	}
	defer f.Close()

	if _, err := fmt.Fprintln(f, formatLine(t.now().UTC(), event, msg)); err != nil {
		return fmt.Errorf("failed to write transcript: %w", err)
	}
	return nil
}

// Lines returns the transcript contents.
func (t *Transcript) Lines() ([]string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	data, err := afero.ReadFile(t.fs, t.path)
	if err != nil {
		return nil, err
	}
	return splitLines(string(data)), nil
}

func formatLine(at time.Time, event string, msg protocol.Message) string {
	route := msg.NameFrom
	switch event {
	case protocol.EventMessageTo:
		route = msg.NameFrom + " -> " + msg.NameTo
	case protocol.EventMessageUndelivered:
		route = msg.NameFrom + " -> " + msg.NameTo + " (undelivered)"
	}
	return fmt.Sprintf("%s [%s] %s", at.Format(time.RFC3339), route, msg.Text)
}

func splitLines(s string) []string {
	s = strings.TrimRight(s, "\n")
	if s == "" {
		return nil
	}
	return strings.Split(s, "\n")
}
