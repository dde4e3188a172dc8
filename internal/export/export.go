package export

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/2beens/fitdash/internal/records"
	"github.com/2beens/fitdash/internal/telemetry/tracing"

	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
)

// Write renders recs in the given format to w.
func Write(ctx context.Context, w io.Writer, format Format, recs []records.Record) (err error) {
	_, span := tracing.GlobalTracer.Start(ctx, "export.write")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(
		attribute.String("format", string(format)),
		attribute.Int("records", len(recs)),
	)

	switch format {
	case FormatCSV:
		return WriteCSV(w, recs)
	case FormatParquet:
		return WriteParquet(w, recs)
	}
	return fmt.Errorf("%w: %q", ErrUnknownFormat, format)
}

// WriteFile creates (or truncates) path and writes recs to it.
func WriteFile(ctx context.Context, path string, format Format, recs []records.Record) (err error) {
	_, span := tracing.GlobalTracer.Start(ctx, "export.writeFile")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	switch format {
	case FormatParquet:
		err = WriteParquetFile(path, recs)
	case FormatCSV:
		err = writeCSVFile(path, recs)
	default:
		err = fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
	if err != nil {
		return err
	}

	log.Debugf("exported %d records to %s", len(recs), path)
	return nil
}

func writeCSVFile(path string, recs []records.Record) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create csv file: %w", err)
	}
	if err := WriteCSV(f, recs); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
