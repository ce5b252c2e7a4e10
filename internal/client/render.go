package client

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/gookit/color"

	"github.com/nfrund/relay/internal/protocol"
)

// TerminalRenderer prints updates as colored lines.
type TerminalRenderer struct {
	mu sync.Mutex
	w  io.Writer
}

// NewTerminalRenderer writes to w.
func NewTerminalRenderer(w io.Writer) *TerminalRenderer {
	return &TerminalRenderer{w: w}
}

// Render implements Renderer.
func (r *TerminalRenderer) Render(u Update) {
	line := FormatUpdate(u)
	if line == "" {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	fmt.Fprintln(r.w, line)
}

// FormatUpdate turns an update into one display line. Updates with nothing to
// show return an empty string.
func FormatUpdate(u Update) string {
	switch u.Event {
	case protocol.EventCountOnline:
		return color.Gray.Sprintf("%d online", u.Count)
	case protocol.EventAddPersons:
		return color.Gray.Sprintf("people: %s", strings.Join(u.People, ", "))
	case protocol.EventRemovePerson:
		return color.Yellow.Sprintf("%s left", u.Removed)
	case protocol.EventEnableOnline:
		return color.Green.Sprint("you are online")
	case protocol.EventMessageToAll:
		return fmt.Sprintf("%s %s", color.Cyan.Sprintf("[%s]", u.Message.NameFrom), u.Message.Text)
	case protocol.EventMessageTo:
		return fmt.Sprintf("%s %s", color.Magenta.Sprintf("[%s -> %s]", u.Message.NameFrom, u.Message.NameTo), u.Message.Text)
	case protocol.EventMessageUndelivered:
		return color.Red.Sprintf("not delivered to %s: %s", u.Message.NameTo, u.Message.Text)
	}
	return ""
}
