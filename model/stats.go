// Package model holds data shared between the proxy driver and its callers.
package model

import "fmt"

// ParticipantStats accumulates transfer counters for one side of a
// proxied session. It is updated once per successfully relayed packet
// and reported when the session ends.
type ParticipantStats struct {
	BytesTotal    uint64
	PacketCount   uint64
	MaxPacketSize uint64
}

// Observe records one relayed packet of n bytes.
func (s *ParticipantStats) Observe(n int) {
	s.BytesTotal += uint64(n)
	s.PacketCount++
	if uint64(n) > s.MaxPacketSize {
		s.MaxPacketSize = uint64(n)
	}
}

func (s *ParticipantStats) String() string {
	return fmt.Sprintf("%d packets, %d bytes, max packet %d",
		s.PacketCount, s.BytesTotal, s.MaxPacketSize)
}
