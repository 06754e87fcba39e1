package reader

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"os"

	"github.com/google/gopacket"
	"github.com/google/gopacket/pcapgo"

	"quotedump/logger"
	"quotedump/models"
)

// pcapngMagic is the block type of a pcapng section header.
const pcapngMagic = 0x0A0D0D0A

// packetSource is satisfied by both pcapgo.Reader and pcapgo.NgReader.
type packetSource interface {
	ReadPacketData() ([]byte, gopacket.CaptureInfo, error)
}

// PcapReader yields frames from a legacy pcap or pcapng capture.
type PcapReader struct {
	src    packetSource
	closer io.Closer
	format string
	frames int64
	log    *logger.Log
}

// OpenPcap opens the capture file at path.
func OpenPcap(path string) (*PcapReader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open capture %s: %w", path, err)
	}
	r, err := NewPcapReader(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to read capture %s: %w", path, err)
	}
	r.closer = f
	return r, nil
}

// NewPcapReader sniffs the container format from the first block of r.
func NewPcapReader(r io.Reader) (*PcapReader, error) {
	br := bufio.NewReaderSize(r, 1<<16)
	magic, err := br.Peek(4)
	if err != nil {
		return nil, fmt.Errorf("failed to read capture header: %w", err)
	}

	pr := &PcapReader{log: logger.GetLogger()}
	if binary.LittleEndian.Uint32(magic) == pcapngMagic {
		ng, err := pcapgo.NewNgReader(br, pcapgo.DefaultNgReaderOptions)
		if err != nil {
			return nil, fmt.Errorf("invalid pcapng header: %w", err)
		}
		pr.src, pr.format = ng, "pcapng"
	} else {
		legacy, err := pcapgo.NewReader(br)
		if err != nil {
			return nil, fmt.Errorf("invalid pcap header: %w", err)
		}
		pr.src, pr.format = legacy, "pcap"
	}

	pr.log.WithComponent("pcap_reader").WithFields(logger.Fields{"format": pr.format}).Debug("capture opened")
	return pr, nil
}

// Next returns the next frame in file order, or io.EOF after the last one.
// Any other error means the capture is structurally broken.
func (r *PcapReader) Next() (models.RawFrame, error) {
	data, ci, err := r.src.ReadPacketData()
	if err == io.EOF {
		return models.RawFrame{}, io.EOF
	}
	if err != nil {
		return models.RawFrame{}, fmt.Errorf("%s frame %d: %w", r.format, r.frames+1, err)
	}
	r.frames++
	return models.RawFrame{
		CaptureSec: uint32(ci.Timestamp.Unix()),
		Payload:    data,
	}, nil
}

// Format reports the detected container format.
func (r *PcapReader) Format() string {
	return r.format
}

// Close releases the underlying file when the reader owns one.
func (r *PcapReader) Close() error {
	if r.closer == nil {
		return nil
	}
	return r.closer.Close()
}
