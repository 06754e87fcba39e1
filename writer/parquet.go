package writer

import (
	"bytes"
	"fmt"
	"os"
	"time"

	"github.com/xitongsys/parquet-go-source/local"
	"github.com/xitongsys/parquet-go/parquet"
	"github.com/xitongsys/parquet-go/source"
	"github.com/xitongsys/parquet-go/writer"

	"quotedump/logger"
	"quotedump/models"
)

// ParquetRecord is one price level of one quote.
type ParquetRecord struct {
	RunID       string  `parquet:"name=run_id, type=BYTE_ARRAY, convertedtype=UTF8"`
	IssueCode   string  `parquet:"name=issue_code, type=BYTE_ARRAY, convertedtype=UTF8"`
	CaptureTime int64   `parquet:"name=capture_time, type=INT64"`
	AcceptTime  int64   `parquet:"name=accept_time, type=INT64"`
	Side        string  `parquet:"name=side, type=BYTE_ARRAY, convertedtype=UTF8"`
	Level       int32   `parquet:"name=level, type=INT32"`
	Price       float64 `parquet:"name=price, type=DOUBLE"`
	Quantity    float64 `parquet:"name=quantity, type=DOUBLE"`
}

// memoryFileWriter implements source.ParquetFile over a byte buffer.
type memoryFileWriter struct {
	buffer *bytes.Buffer
}

func newMemoryFileWriter() *memoryFileWriter {
	return &memoryFileWriter{buffer: &bytes.Buffer{}}
}

func (m *memoryFileWriter) Create(string) (source.ParquetFile, error) { return m, nil }
func (m *memoryFileWriter) Open(string) (source.ParquetFile, error)   { return m, nil }
func (m *memoryFileWriter) Seek(int64, int) (int64, error)            { return int64(m.buffer.Len()), nil }
func (m *memoryFileWriter) Read(b []byte) (int, error)                { return m.buffer.Read(b) }
func (m *memoryFileWriter) Write(b []byte) (int, error)               { return m.buffer.Write(b) }
func (m *memoryFileWriter) Close() error                              { return nil }
func (m *memoryFileWriter) Bytes() []byte                             { return m.buffer.Bytes() }

// ParquetWriter flattens quotes into per-level rows.
type ParquetWriter struct {
	runID       string
	compression string
	log         *logger.Log
}

// NewParquetWriter returns a writer tagging every row with runID.
func NewParquetWriter(runID, compression string) *ParquetWriter {
	return &ParquetWriter{runID: runID, compression: compression, log: logger.GetLogger()}
}

// Records flattens quotes. Each quote yields five bid rows followed by five
// ask rows, levels numbered from 1 at the touch.
func (w *ParquetWriter) Records(quotes []models.Quote) []ParquetRecord {
	rows := make([]ParquetRecord, 0, len(quotes)*2*models.Depth)
	for _, q := range quotes {
		base := ParquetRecord{
			RunID:       w.runID,
			IssueCode:   q.IssueCode,
			CaptureTime: q.CaptureTime.Unix(),
			AcceptTime:  q.AcceptTime,
		}
		for i, lvl := range q.Bids {
			r := base
			r.Side, r.Level, r.Price, r.Quantity = "bid", int32(models.Depth-i), lvl.Price, lvl.Quantity
			rows = append(rows, r)
		}
		for i, lvl := range q.Asks {
			r := base
			r.Side, r.Level, r.Price, r.Quantity = "ask", int32(i+1), lvl.Price, lvl.Quantity
			rows = append(rows, r)
		}
	}
	return rows
}

// WriteFile writes quotes to a local Parquet file and returns the row count.
// A failed write leaves no file behind.
func (w *ParquetWriter) WriteFile(path string, quotes []models.Quote) (int, error) {
	return writeLocalFile(path, func(fw source.ParquetFile) (int, error) {
		return w.write(fw, quotes)
	})
}

func writeLocalFile(path string, fill func(source.ParquetFile) (int, error)) (int, error) {
	fw, err := local.NewLocalFileWriter(path)
	if err != nil {
		return 0, fmt.Errorf("create parquet file %s: %w", path, err)
	}
	n, err := fill(fw)
	if cerr := fw.Close(); err == nil && cerr != nil {
		err = fmt.Errorf("close parquet file %s: %w", path, cerr)
	}
	if err != nil {
		os.Remove(path)
		return 0, err
	}
	return n, nil
}

// Encode renders quotes as an in-memory Parquet file.
func (w *ParquetWriter) Encode(quotes []models.Quote) ([]byte, error) {
	fw := newMemoryFileWriter()
	if _, err := w.write(fw, quotes); err != nil {
		return nil, err
	}
	return fw.Bytes(), nil
}

func (w *ParquetWriter) write(fw source.ParquetFile, quotes []models.Quote) (int, error) {
	start := time.Now()
	log := w.log.WithComponent("parquet_writer").WithFields(logger.Fields{
		"run_id":      w.runID,
		"compression": w.compression,
	})

	pw, err := writer.NewParquetWriter(fw, new(ParquetRecord), 4)
	if err != nil {
		return 0, fmt.Errorf("failed to create parquet writer: %w", err)
	}
	pw.CompressionType = compressionCodec(w.compression)

	rows := w.Records(quotes)
	for _, r := range rows {
		if err := pw.Write(r); err != nil {
			pw.WriteStop()
			return 0, fmt.Errorf("failed to write parquet record: %w", err)
		}
	}
	if err := pw.WriteStop(); err != nil {
		return 0, fmt.Errorf("failed to finalize parquet writing: %w", err)
	}

	logger.LogPerformanceEntry(log, "parquet_writer", "write_parquet", time.Since(start), logger.Fields{
		"quotes": len(quotes),
		"rows":   len(rows),
	})
	return len(rows), nil
}

func compressionCodec(name string) parquet.CompressionCodec {
	switch name {
	case "snappy":
		return parquet.CompressionCodec_SNAPPY
	case "gzip":
		return parquet.CompressionCodec_GZIP
	default:
		return parquet.CompressionCodec_UNCOMPRESSED
	}
}
