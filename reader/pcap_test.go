package reader

import (
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"quotedump/internal/quotetest"
)

func sampleRecords() []quotetest.Record {
	return []quotetest.Record{
		{CaptureSec: 1297845000, Data: quotetest.NewPacket("KR4101F30001", "09301234").Frame()},
		{CaptureSec: 1297845001, Data: []byte{0x01, 0x02, 0x03}},
	}
}

func readAll(t *testing.T, r *PcapReader) []uint32 {
	t.Helper()
	var secs []uint32
	for {
		f, err := r.Next()
		if errors.Is(err, io.EOF) {
			return secs
		}
		if err != nil {
			t.Fatalf("next: %v", err)
		}
		secs = append(secs, f.CaptureSec)
	}
}

func TestPcapReaderLegacy(t *testing.T) {
	var buf bytes.Buffer
	if err := quotetest.WritePcap(&buf, sampleRecords()); err != nil {
		t.Fatalf("write pcap: %v", err)
	}
	r, err := NewPcapReader(&buf)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if r.Format() != "pcap" {
		t.Errorf("format = %s", r.Format())
	}
	secs := readAll(t, r)
	if len(secs) != 2 || secs[0] != 1297845000 || secs[1] != 1297845001 {
		t.Fatalf("unexpected capture seconds: %v", secs)
	}
}

func TestPcapReaderNg(t *testing.T) {
	var buf bytes.Buffer
	if err := quotetest.WritePcapNg(&buf, sampleRecords()); err != nil {
		t.Fatalf("write pcapng: %v", err)
	}
	r, err := NewPcapReader(&buf)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if r.Format() != "pcapng" {
		t.Errorf("format = %s", r.Format())
	}
	if secs := readAll(t, r); len(secs) != 2 {
		t.Fatalf("expected 2 frames, got %d", len(secs))
	}
}

func TestPcapReaderPayloadIntact(t *testing.T) {
	records := sampleRecords()
	var buf bytes.Buffer
	if err := quotetest.WritePcap(&buf, records); err != nil {
		t.Fatalf("write pcap: %v", err)
	}
	r, err := NewPcapReader(&buf)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	f, err := r.Next()
	if err != nil {
		t.Fatalf("next: %v", err)
	}
	if !bytes.Equal(f.Payload, records[0].Data) {
		t.Fatalf("payload changed in transit")
	}
}

func TestPcapReaderRejectsGarbage(t *testing.T) {
	if _, err := NewPcapReader(bytes.NewReader([]byte("definitely not a capture file"))); err == nil {
		t.Fatalf("expected header error")
	}
	if _, err := NewPcapReader(bytes.NewReader(nil)); err == nil {
		t.Fatalf("expected error for empty input")
	}
}

func TestPcapReaderTruncatedRecord(t *testing.T) {
	var buf bytes.Buffer
	if err := quotetest.WritePcap(&buf, sampleRecords()[:1]); err != nil {
		t.Fatalf("write pcap: %v", err)
	}
	data := buf.Bytes()[:buf.Len()-10]
	r, err := NewPcapReader(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if _, err := r.Next(); err == nil || errors.Is(err, io.EOF) {
		t.Fatalf("expected structural error, got %v", err)
	}
}

func TestOpenPcapMissingFile(t *testing.T) {
	if _, err := OpenPcap(filepath.Join(t.TempDir(), "missing.pcap")); err == nil {
		t.Fatalf("expected open error")
	}
}

func TestOpenPcapFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trace.pcap")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := quotetest.WritePcap(f, sampleRecords()); err != nil {
		t.Fatalf("write pcap: %v", err)
	}
	f.Close()

	r, err := OpenPcap(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer r.Close()
	if secs := readAll(t, r); len(secs) != 2 {
		t.Fatalf("expected 2 frames, got %d", len(secs))
	}
}
