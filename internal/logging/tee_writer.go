package logging

import (
	"io"

	"go.uber.org/multierr"
)

// teeWriter writes every log line to all underlying writers. A failing
// writer does not stop the others; errors are combined.
type teeWriter struct {
	writers []io.Writer
}

func newTeeWriter(writers ...io.Writer) *teeWriter {
	return &teeWriter{writers: writers}
}

func (tw *teeWriter) Write(p []byte) (int, error) {
	var err error
	written := 0
	for _, w := range tw.writers {
		n, werr := w.Write(p)
		if werr != nil {
			err = multierr.Append(err, werr)
			continue
		}
		if n > written {
			written = n
		}
	}
	if written == 0 && err != nil {
		return 0, err
	}
	// logrus treats a short write as failure, so report the full line
	// as long as at least one sink took it
	return len(p), err
}
