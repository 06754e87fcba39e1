package models

import (
	"sort"
	"time"
)

// Depth is the number of price levels carried on each side of a quote.
const Depth = 5

// Level represents a single price level in the order book
type Level struct {
	Price    float64 `json:"price"`
	Quantity float64 `json:"quantity"`
}

// Quote is one decoded B6034 quote packet.
//
// Bids are stored farthest first: Bids[0] is level 5 and Bids[4] is the best
// bid. Asks are stored best first: Asks[0] is level 1. Printing Bids followed
// by Asks therefore walks the ladder from the worst bid up to the worst ask.
type Quote struct {
	CaptureTime time.Time    `json:"capture_time"`
	AcceptTime  int64        `json:"accept_time"`
	IssueCode   string       `json:"issue_code"`
	Bids        [Depth]Level `json:"bids"`
	Asks        [Depth]Level `json:"asks"`
}

// BestBid returns the level 1 bid.
func (q Quote) BestBid() Level { return q.Bids[Depth-1] }

// BestAsk returns the level 1 ask.
func (q Quote) BestAsk() Level { return q.Asks[0] }

// QuoteCollection accumulates decoded quotes in encounter order.
type QuoteCollection struct {
	quotes []Quote
}

// NewQuoteCollection returns an empty collection with room for capacity quotes.
func NewQuoteCollection(capacity int) *QuoteCollection {
	return &QuoteCollection{quotes: make([]Quote, 0, capacity)}
}

// Add appends q. Order is never changed implicitly.
func (c *QuoteCollection) Add(q Quote) {
	c.quotes = append(c.quotes, q)
}

// Len returns the number of quotes held.
func (c *QuoteCollection) Len() int {
	return len(c.quotes)
}

// Quotes returns the held quotes. Callers must not modify the slice.
func (c *QuoteCollection) Quotes() []Quote {
	return c.quotes
}

// SortByAcceptTime orders quotes ascending by accept time. Quotes with equal
// accept times keep their relative order; capture time is not a key.
func (c *QuoteCollection) SortByAcceptTime() {
	sort.SliceStable(c.quotes, func(i, j int) bool {
		return c.quotes[i].AcceptTime < c.quotes[j].AcceptTime
	})
}
