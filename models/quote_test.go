package models

import (
	"encoding/json"
	"testing"
	"time"
)

func TestQuoteCollectionKeepsEncounterOrder(t *testing.T) {
	c := NewQuoteCollection(3)
	for _, at := range []int64{30, 10, 20} {
		c.Add(Quote{AcceptTime: at})
	}
	got := c.Quotes()
	want := []int64{30, 10, 20}
	if c.Len() != len(want) {
		t.Fatalf("expected %d quotes, got %d", len(want), c.Len())
	}
	for i, q := range got {
		if q.AcceptTime != want[i] {
			t.Fatalf("quote %d: accept time %d, want %d", i, q.AcceptTime, want[i])
		}
	}
}

func TestSortByAcceptTimeIsStable(t *testing.T) {
	c := NewQuoteCollection(0)
	c.Add(Quote{AcceptTime: 5, IssueCode: "first"})
	c.Add(Quote{AcceptTime: -3, IssueCode: "early"})
	c.Add(Quote{AcceptTime: 5, IssueCode: "second"})
	c.Add(Quote{AcceptTime: 1, IssueCode: "mid"})

	c.SortByAcceptTime()

	q := c.Quotes()
	for i := 1; i < len(q); i++ {
		if q[i-1].AcceptTime > q[i].AcceptTime {
			t.Fatalf("not sorted at %d: %d > %d", i, q[i-1].AcceptTime, q[i].AcceptTime)
		}
	}
	if q[2].IssueCode != "first" || q[3].IssueCode != "second" {
		t.Fatalf("ties reordered: %s, %s", q[2].IssueCode, q[3].IssueCode)
	}
}

func TestSortIgnoresCaptureTime(t *testing.T) {
	c := NewQuoteCollection(2)
	c.Add(Quote{AcceptTime: 2, CaptureTime: time.Unix(1, 0)})
	c.Add(Quote{AcceptTime: 1, CaptureTime: time.Unix(100, 0)})
	c.SortByAcceptTime()
	if c.Quotes()[0].AcceptTime != 1 {
		t.Fatalf("expected accept time 1 first, got %d", c.Quotes()[0].AcceptTime)
	}
}

func TestBestLevels(t *testing.T) {
	var q Quote
	for i := 0; i < Depth; i++ {
		q.Bids[i] = Level{Price: float64(100 + i)}
		q.Asks[i] = Level{Price: float64(200 + i)}
	}
	if q.BestBid().Price != 104 {
		t.Errorf("best bid = %v, want 104", q.BestBid().Price)
	}
	if q.BestAsk().Price != 200 {
		t.Errorf("best ask = %v, want 200", q.BestAsk().Price)
	}
}

func TestQuoteJSONFieldNames(t *testing.T) {
	data, err := json.Marshal(Quote{IssueCode: "KR4101F30001"})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	for _, k := range []string{"capture_time", "accept_time", "issue_code", "bids", "asks"} {
		if _, ok := m[k]; !ok {
			t.Errorf("missing key %q in %s", k, data)
		}
	}
	if bids, ok := m["bids"].([]any); !ok || len(bids) != Depth {
		t.Errorf("expected %d bids, got %v", Depth, m["bids"])
	}
}
