package processor

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"quotedump/models"
)

const (
	issueField  = 0
	bidField    = 1
	askField    = bidField + 2*models.Depth
	acceptField = askField + 2*models.Depth
)

// DecodeFrame filters frame and decodes the quote it carries.
func DecodeFrame(frame models.RawFrame) (models.Quote, error) {
	if !IsValidQuote(frame.Payload) {
		return models.Quote{}, ErrNotQuote
	}
	return DecodeQuote(frame.CaptureSec, QuotePayload(frame.Payload))
}

// DecodeQuote decodes a quote payload that starts at the B6034 marker.
func DecodeQuote(captureSec uint32, payload []byte) (models.Quote, error) {
	if len(payload) > PayloadSize {
		payload = payload[:PayloadSize]
	}
	if !utf8.Valid(payload) {
		return models.Quote{}, ErrInvalidText
	}

	fields, err := Extract(string(payload), QuoteLayout)
	if err != nil {
		return models.Quote{}, err
	}

	bids, err := buildLevels(fields, bidField)
	if err != nil {
		return models.Quote{}, fmt.Errorf("bids: %w", err)
	}
	asks, err := buildLevels(fields, askField)
	if err != nil {
		return models.Quote{}, fmt.Errorf("asks: %w", err)
	}
	acceptTime, err := ParseAcceptTime(fields[acceptField])
	if err != nil {
		return models.Quote{}, err
	}

	// levels arrive best first; bids are stored farthest first
	for i, j := 0, len(bids)-1; i < j; i, j = i+1, j-1 {
		bids[i], bids[j] = bids[j], bids[i]
	}

	return models.Quote{
		CaptureTime: CaptureTime(captureSec),
		AcceptTime:  acceptTime,
		IssueCode:   strings.Clone(fields[issueField]),
		Bids:        bids,
		Asks:        asks,
	}, nil
}

func buildLevels(fields []string, offset int) ([models.Depth]models.Level, error) {
	var levels [models.Depth]models.Level
	for i := range levels {
		price, err := parseScaled(fields[offset+2*i])
		if err != nil {
			return levels, fmt.Errorf("level %d price: %w", i+1, err)
		}
		qty, err := parseScaled(fields[offset+2*i+1])
		if err != nil {
			return levels, fmt.Errorf("level %d quantity: %w", i+1, err)
		}
		levels[i] = models.Level{Price: price, Quantity: qty}
	}
	return levels, nil
}

// parseScaled parses an exchange integer carrying two implied decimals.
func parseScaled(s string) (float64, error) {
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrFieldParse, s)
	}
	return float64(n) / 100, nil
}
