package notify

import (
	"context"
	"fmt"
	"io"
	"os"
)

// StdoutSender prints alerts to a writer, stdout by default. It is the
// fallback channel when no webhook is configured.
type StdoutSender struct {
	w io.Writer
}

// NewStdoutSender creates a StdoutSender writing to os.Stdout.
func NewStdoutSender() *StdoutSender {
	return &StdoutSender{w: os.Stdout}
}

// Send prints the alert message on its own line.
func (s *StdoutSender) Send(_ context.Context, message string) error {
	_, err := fmt.Fprintln(s.w, message)
	return err
}

// Name returns the sender identifier.
func (s *StdoutSender) Name() string {
	return "stdout"
}
