package models

// RawFrame is a single link-layer frame as read from a capture file.
// Payload length is whatever the container reports and may be shorter
// than a full quote packet.
type RawFrame struct {
	CaptureSec uint32
	Payload    []byte
}
