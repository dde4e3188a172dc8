package export

import (
	"fmt"
	"io"

	"github.com/2beens/fitdash/internal/records"

	parquetbuffer "github.com/xitongsys/parquet-go-source/buffer"
	"github.com/xitongsys/parquet-go-source/local"
	"github.com/xitongsys/parquet-go/parquet"
	"github.com/xitongsys/parquet-go/source"
	"github.com/xitongsys/parquet-go/writer"
)

const parquetWriterParallelism = 4

// WriteParquetFile writes the enriched records to a snappy-compressed parquet file at path.
func WriteParquetFile(path string, recs []records.Record) error {
	fw, err := local.NewLocalFileWriter(path)
	if err != nil {
		return fmt.Errorf("create parquet file: %w", err)
	}
	if err := writeParquet(fw, recs); err != nil {
		_ = fw.Close()
		return err
	}
	return fw.Close()
}

// WriteParquet renders the parquet file in memory and copies it to w.
func WriteParquet(w io.Writer, recs []records.Record) error {
	fw := parquetbuffer.NewBufferFile()
	if err := writeParquet(fw, recs); err != nil {
		return err
	}
	if err := fw.Close(); err != nil {
		return err
	}
	_, err := w.Write(fw.Bytes())
	return err
}

func writeParquet(fw source.ParquetFile, recs []records.Record) error {
	pw, err := writer.NewParquetWriter(fw, new(Row), parquetWriterParallelism)
	if err != nil {
		return fmt.Errorf("new parquet writer: %w", err)
	}
	pw.CompressionType = parquet.CompressionCodec_SNAPPY

	for i := range recs {
		if err := pw.Write(NewRow(&recs[i])); err != nil {
			_ = pw.WriteStop()
			return fmt.Errorf("write parquet row %d: %w", i, err)
		}
	}
	if err := pw.WriteStop(); err != nil {
		return fmt.Errorf("finish parquet file: %w", err)
	}
	return nil
}
