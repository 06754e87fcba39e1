package writer

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/xitongsys/parquet-go-source/local"
	"github.com/xitongsys/parquet-go/reader"
	"github.com/xitongsys/parquet-go/source"

	"quotedump/models"
)

func TestParquetRecords(t *testing.T) {
	w := NewParquetWriter("run-1", "snappy")
	rows := w.Records([]models.Quote{sampleQuote("A", 42)})
	if len(rows) != 2*models.Depth {
		t.Fatalf("expected %d rows, got %d", 2*models.Depth, len(rows))
	}

	first := rows[0]
	if first.Side != "bid" || first.Level != 5 || first.Price != 95 {
		t.Errorf("first row = %+v", first)
	}
	best := rows[models.Depth-1]
	if best.Side != "bid" || best.Level != 1 || best.Price != 99 {
		t.Errorf("best bid row = %+v", best)
	}
	ask := rows[models.Depth]
	if ask.Side != "ask" || ask.Level != 1 || ask.Price != 101 {
		t.Errorf("best ask row = %+v", ask)
	}
	for _, r := range rows {
		if r.RunID != "run-1" || r.IssueCode != "A" || r.AcceptTime != 42 {
			t.Fatalf("row missing quote identity: %+v", r)
		}
	}
}

func TestParquetEncode(t *testing.T) {
	data, err := NewParquetWriter("run-1", "gzip").Encode([]models.Quote{sampleQuote("A", 0), sampleQuote("B", 0)})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	magic := []byte("PAR1")
	if !bytes.HasPrefix(data, magic) || !bytes.HasSuffix(data, magic) {
		t.Fatalf("encoded data is not a parquet file (%d bytes)", len(data))
	}
}

func TestParquetWriteFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "quotes.parquet")
	quotes := []models.Quote{sampleQuote("A", 0), sampleQuote("B", 7)}

	n, err := NewParquetWriter("run-2", "uncompressed").WriteFile(path, quotes)
	if err != nil {
		t.Fatalf("write file: %v", err)
	}
	if n != 20 {
		t.Fatalf("expected 20 rows, got %d", n)
	}

	fr, err := local.NewLocalFileReader(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer fr.Close()
	pr, err := reader.NewParquetReader(fr, new(ParquetRecord), 1)
	if err != nil {
		t.Fatalf("reader: %v", err)
	}
	defer pr.ReadStop()

	if got := pr.GetNumRows(); got != 20 {
		t.Fatalf("file has %d rows", got)
	}
	rows := make([]ParquetRecord, 20)
	if err := pr.Read(&rows); err != nil {
		t.Fatalf("read: %v", err)
	}
	if rows[10].IssueCode != "B" || rows[10].AcceptTime != 7 || rows[10].Side != "bid" {
		t.Fatalf("row 10 = %+v", rows[10])
	}
}

func TestWriteLocalFileRemovesPartialFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "partial.parquet")
	boom := errors.New("row group failed")

	_, err := writeLocalFile(path, func(fw source.ParquetFile) (int, error) {
		if _, err := fw.Write([]byte("PAR1")); err != nil {
			return 0, err
		}
		return 0, boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected write error, got %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatalf("expected partial file to be removed, stat err = %v", err)
	}
}
