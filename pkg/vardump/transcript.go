package vardump

import (
	"fmt"
	"io"

	"github.com/conduit-lang/vardump/internal/messages"
	"github.com/fatih/color"
)

// writeTranscript writes the plain text summary of a dump: the headline,
// the call site and every queued diagnostic.
func writeTranscript(w io.Writer, res *result, catalog *messages.Catalog, lang string) error {
	header := color.New(color.FgCyan, color.Bold)
	muted := color.New(color.Faint)

	if _, err := header.Fprintf(w, "vardump: %s\n", res.headline); err != nil {
		return fmt.Errorf("failed to write transcript: %w", err)
	}
	if site := res.call.String(); site != "" {
		muted.Fprintf(w, "  %s %s\n", catalog.Text(lang, "calledFrom"), site)
	}
	texts := res.queue.Texts(catalog, lang)
	for i, m := range res.queue.Messages() {
		severityColor(m.Severity).Fprintf(w, "  [%s] %s\n", m.Severity, texts[i])
	}
	_, err := muted.Fprintf(w, "  %s %s\n", catalog.Text(lang, "runtime"), res.elapsed)
	return err
}

func severityColor(s messages.Severity) *color.Color {
	switch s {
	case messages.SeverityError:
		return color.New(color.FgRed)
	case messages.SeverityWarning:
		return color.New(color.FgYellow)
	}
	return color.New(color.FgCyan)
}
