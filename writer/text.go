package writer

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"quotedump/models"
	"quotedump/processor"
)

// CSVHeader is the first row of delimited output.
var CSVHeader = []string{
	"pkt_time", "accept_time", "issue_code",
	"bid5", "bid4", "bid3", "bid2", "bid1",
	"ask1", "ask2", "ask3", "ask4", "ask5",
}

// TextWriter renders quotes as space separated lines or as CSV rows.
type TextWriter struct {
	out         *bufio.Writer
	csv         *csv.Writer
	base        processor.AcceptBase
	wroteHeader bool
}

// NewTextWriter returns a plain writer, or a CSV writer when delimited is set.
func NewTextWriter(w io.Writer, delimited bool, base processor.AcceptBase) *TextWriter {
	tw := &TextWriter{out: bufio.NewWriter(w), base: base}
	if delimited {
		tw.csv = csv.NewWriter(tw.out)
	}
	return tw
}

// Delimited reports whether tw writes CSV.
func (tw *TextWriter) Delimited() bool {
	return tw.csv != nil
}

// WriteQuote writes one quote. CSV output gets its header before the first row.
func (tw *TextWriter) WriteQuote(q models.Quote) error {
	cells := QuoteCells(q, tw.base)
	if tw.csv == nil {
		_, err := tw.out.WriteString(strings.Join(cells, " ") + "\n")
		return err
	}
	if err := tw.writeHeader(); err != nil {
		return err
	}
	return tw.csv.Write(cells)
}

// writeHeader emits the CSV header the first time it is called.
func (tw *TextWriter) writeHeader() error {
	if tw.wroteHeader {
		return nil
	}
	tw.wroteHeader = true
	return tw.csv.Write(CSVHeader)
}

// WriteAll writes quotes in order and flushes. CSV output always carries the
// header, even when quotes is empty.
func (tw *TextWriter) WriteAll(quotes []models.Quote) error {
	if tw.csv != nil {
		if err := tw.writeHeader(); err != nil {
			return err
		}
	}
	for i, q := range quotes {
		if err := tw.WriteQuote(q); err != nil {
			return fmt.Errorf("quote %d: %w", i, err)
		}
	}
	return tw.Flush()
}

// Finish writes the plain mode summary line. CSV output has none.
func (tw *TextWriter) Finish(elapsed time.Duration) error {
	if tw.csv == nil {
		fmt.Fprintf(tw.out, "finished at: %d seconds\n", int64(elapsed/time.Second))
	}
	return tw.Flush()
}

// Flush pushes buffered output to the underlying writer.
func (tw *TextWriter) Flush() error {
	if tw.csv != nil {
		tw.csv.Flush()
		if err := tw.csv.Error(); err != nil {
			return err
		}
	}
	return tw.out.Flush()
}

// QuoteCells returns the capture time, accept time, issue code and the ten
// quantity@price cells of q, bids first in stored order.
func QuoteCells(q models.Quote, base processor.AcceptBase) []string {
	cells := make([]string, 0, 3+2*models.Depth)
	cells = append(cells,
		processor.FormatCaptureTime(q.CaptureTime),
		processor.FormatAcceptTime(base.Instant(q)),
		q.IssueCode,
	)
	for _, lvl := range q.Bids {
		cells = append(cells, formatLevel(lvl))
	}
	for _, lvl := range q.Asks {
		cells = append(cells, formatLevel(lvl))
	}
	return cells
}

func formatLevel(l models.Level) string {
	return strconv.FormatFloat(l.Quantity, 'f', 2, 64) + "@" + strconv.FormatFloat(l.Price, 'f', 2, 64)
}
