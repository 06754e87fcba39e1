// Package quotetest builds synthetic B6034 frames and capture files for tests.
package quotetest

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcapgo"
)

// headerSize matches the Ethernet+IPv4+UDP prefix the decoder skips.
const headerSize = 42

// Packet describes one synthetic quote packet. Prices and quantities are
// exchange integers, i.e. already scaled by 100.
type Packet struct {
	Marker     string
	IssueCode  string
	BidPrices  [5]int
	BidQtys    [5]int
	AskPrices  [5]int
	AskQtys    [5]int
	AcceptTime string
}

// NewPacket returns a well formed packet with a simple ladder: bid level n
// is priced 10000-100n and ask level n 10000+100n.
func NewPacket(issue, acceptTime string) Packet {
	p := Packet{Marker: "B6034", IssueCode: issue, AcceptTime: acceptTime}
	for i := 0; i < 5; i++ {
		p.BidPrices[i] = 10000 - 100*(i+1)
		p.BidQtys[i] = 100 * (i + 1)
		p.AskPrices[i] = 10000 + 100*(i+1)
		p.AskQtys[i] = 200 * (i + 1)
	}
	return p
}

// Payload renders the 214 character quote text.
func (p Packet) Payload() string {
	var b strings.Builder
	b.WriteString(p.Marker)
	b.WriteString(p.IssueCode)
	b.WriteString(strings.Repeat("0", 12))
	for i := 0; i < 5; i++ {
		fmt.Fprintf(&b, "%05d%07d", p.BidPrices[i], p.BidQtys[i])
	}
	b.WriteString(strings.Repeat(" ", 7))
	for i := 0; i < 5; i++ {
		fmt.Fprintf(&b, "%05d%07d", p.AskPrices[i], p.AskQtys[i])
	}
	b.WriteString(strings.Repeat(" ", 50))
	b.WriteString(p.AcceptTime)
	return b.String()
}

// Frame prefixes the payload with a zeroed link/network/transport header.
func (p Packet) Frame() []byte {
	return append(make([]byte, headerSize), p.Payload()...)
}

// Record is a frame plus its capture time.
type Record struct {
	CaptureSec uint32
	Data       []byte
}

// WritePcap writes records as a legacy pcap file.
func WritePcap(w io.Writer, records []Record) error {
	pw := pcapgo.NewWriter(w)
	if err := pw.WriteFileHeader(65536, layers.LinkTypeEthernet); err != nil {
		return err
	}
	for _, r := range records {
		if err := pw.WritePacket(captureInfo(r), r.Data); err != nil {
			return err
		}
	}
	return nil
}

// WritePcapNg writes records as a pcapng file.
func WritePcapNg(w io.Writer, records []Record) error {
	nw, err := pcapgo.NewNgWriter(w, layers.LinkTypeEthernet)
	if err != nil {
		return err
	}
	for _, r := range records {
		if err := nw.WritePacket(captureInfo(r), r.Data); err != nil {
			return err
		}
	}
	return nw.Flush()
}

func captureInfo(r Record) gopacket.CaptureInfo {
	return gopacket.CaptureInfo{
		Timestamp:     time.Unix(int64(r.CaptureSec), 0),
		CaptureLength: len(r.Data),
		Length:        len(r.Data),
	}
}
