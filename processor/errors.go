package processor

import "errors"

// Reasons a single frame is skipped. None of these abort a run.
var (
	ErrNotQuote     = errors.New("frame is not a B6034 quote")
	ErrShortPayload = errors.New("payload shorter than layout")
	ErrInvalidText  = errors.New("payload is not valid text")
	ErrFieldParse   = errors.New("numeric field parse failed")
	ErrAcceptTime   = errors.New("malformed accept time")
)

// SkipReason maps a decode error to the short label used in run reports.
func SkipReason(err error) string {
	switch {
	case errors.Is(err, ErrNotQuote):
		return "not_quote"
	case errors.Is(err, ErrShortPayload):
		return "short_payload"
	case errors.Is(err, ErrInvalidText):
		return "invalid_text"
	case errors.Is(err, ErrFieldParse):
		return "field_parse"
	case errors.Is(err, ErrAcceptTime):
		return "accept_time"
	default:
		return "other"
	}
}
