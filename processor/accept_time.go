package processor

import (
	"fmt"
	"strconv"
	"time"

	"quotedump/models"
)

const (
	hourUnits   int64 = 3_600_000_000
	minuteUnits int64 = 60_000_000
	secondUnits int64 = 1_000_000

	// exchangeUTCOffset shifts exchange local time (UTC+9) to UTC.
	exchangeUTCOffset = 9 * hourUnits

	// acceptReferenceUnix is 2011-02-16T00:00:00Z.
	acceptReferenceUnix = 1297814400

	captureLayout = "2006-01-02T15:04:05"
)

// AcceptReference is the midnight that accept times are displayed against
// when the fixed base is selected.
var AcceptReference = time.Unix(acceptReferenceUnix, 0).UTC()

// AcceptBase selects the calendar day accept times are displayed on.
type AcceptBase string

const (
	// AcceptBaseFixed displays every accept time on AcceptReference's day.
	AcceptBaseFixed AcceptBase = "fixed"
	// AcceptBaseCapture displays accept times on the UTC day of capture.
	AcceptBaseCapture AcceptBase = "capture"
)

// ParseAcceptBase validates a configured accept base. Empty means fixed.
func ParseAcceptBase(s string) (AcceptBase, error) {
	switch AcceptBase(s) {
	case "", AcceptBaseFixed:
		return AcceptBaseFixed, nil
	case AcceptBaseCapture:
		return AcceptBaseCapture, nil
	default:
		return "", fmt.Errorf("unknown accept base %q", s)
	}
}

// Instant returns the calendar instant of q's accept time.
func (b AcceptBase) Instant(q models.Quote) time.Time {
	ref := AcceptReference
	if b == AcceptBaseCapture {
		c := q.CaptureTime.UTC()
		ref = time.Date(c.Year(), c.Month(), c.Day(), 0, 0, 0, 0, time.UTC)
	}
	return ref.Add(time.Duration(q.AcceptTime) * time.Microsecond)
}

// CaptureTime converts capture seconds to a UTC timestamp.
func CaptureTime(sec uint32) time.Time {
	return time.Unix(int64(sec), 0).UTC()
}

// ParseAcceptTime converts an HHMMSSxx accept time to units since exchange
// midnight, shifted to UTC. The trailing pair is added as-is.
func ParseAcceptTime(s string) (int64, error) {
	if len(s) < 8 {
		return 0, fmt.Errorf("%w: %q", ErrAcceptTime, s)
	}
	var groups [4]int64
	for i := range groups {
		v, err := strconv.ParseUint(s[i*2:i*2+2], 10, 8)
		if err != nil {
			return 0, fmt.Errorf("%w: %q: %v", ErrAcceptTime, s, err)
		}
		groups[i] = int64(v)
	}
	total := groups[0]*hourUnits + groups[1]*minuteUnits + groups[2]*secondUnits + groups[3]
	return total - exchangeUTCOffset, nil
}

// FormatCaptureTime renders t at second precision.
func FormatCaptureTime(t time.Time) string {
	return t.UTC().Format(captureLayout)
}

// FormatAcceptTime renders t with the shortest exact fraction of 3, 6 or 9
// digits, or none when t falls on a whole second.
func FormatAcceptTime(t time.Time) string {
	t = t.UTC()
	base := t.Format(captureLayout)
	ns := t.Nanosecond()
	switch {
	case ns == 0:
		return base
	case ns%1_000_000 == 0:
		return fmt.Sprintf("%s.%03d", base, ns/1_000_000)
	case ns%1_000 == 0:
		return fmt.Sprintf("%s.%06d", base, ns/1_000)
	default:
		return fmt.Sprintf("%s.%09d", base, ns)
	}
}
