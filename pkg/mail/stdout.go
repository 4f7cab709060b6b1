package mail

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
)

// StdoutTransport prints messages instead of sending them.
type StdoutTransport struct {
	mu     sync.Mutex
	writer io.Writer
}

func NewStdoutTransport() *StdoutTransport {
	return &StdoutTransport{writer: os.Stdout}
}

// NewStdoutTransportWithWriter is useful for testing.
func NewStdoutTransportWithWriter(w io.Writer) *StdoutTransport {
	return &StdoutTransport{writer: w}
}

func (t *StdoutTransport) Send(_ context.Context, _ Credentials, msg *Message) error {
	if err := msg.Validate(); err != nil {
		return err
	}

	var b strings.Builder
	b.WriteString("========================================\n")
	fmt.Fprintf(&b, "From: %s\n", msg.From)
	fmt.Fprintf(&b, "To: %s\n", strings.Join(msg.To, ", "))
	fmt.Fprintf(&b, "Subject: %s\n", msg.Subject)
	b.WriteString("Body:\n")
	b.WriteString(msg.TextBody + "\n")
	b.WriteString("========================================\n")

	t.mu.Lock()
	defer t.mu.Unlock()
	_, _ = io.WriteString(t.writer, b.String())
	return nil
}

func (t *StdoutTransport) Name() string { return "stdout" }
