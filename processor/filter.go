package processor

import "bytes"

const (
	// HeaderSize is the combined Ethernet, IPv4 and UDP header length that
	// precedes the quote payload in every captured frame.
	HeaderSize = 42
	// PayloadSize is the width of the quote text window.
	PayloadSize = 214
	// minFrameSize is the largest frame length that is still rejected.
	minFrameSize = 225
)

// QuoteMarker identifies quote packets at the start of the payload.
var QuoteMarker = []byte("B6034")

// IsValidQuote reports whether frame carries a B6034 quote packet.
func IsValidQuote(frame []byte) bool {
	if len(frame) <= minFrameSize {
		return false
	}
	return bytes.Equal(frame[HeaderSize:HeaderSize+len(QuoteMarker)], QuoteMarker)
}

// QuotePayload returns the quote text window of frame, clamped to the frame
// length. The caller is expected to have checked IsValidQuote.
func QuotePayload(frame []byte) []byte {
	end := HeaderSize + PayloadSize
	if end > len(frame) {
		end = len(frame)
	}
	return frame[HeaderSize:end]
}
