package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParticipantStatsObserve(t *testing.T) {
	tests := []struct {
		name        string
		sizes       []int
		wantBytes   uint64
		wantPackets uint64
		wantMax     uint64
	}{
		{"no packets", nil, 0, 0, 0},
		{"single packet", []int{7}, 7, 1, 7},
		{"mixed sizes", []int{10, 20, 5}, 35, 3, 20},
		{"max first", []int{4096, 1, 1}, 4098, 3, 4096},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var s ParticipantStats
			for _, n := range tt.sizes {
				s.Observe(n)
			}
			assert.Equal(t, tt.wantBytes, s.BytesTotal)
			assert.Equal(t, tt.wantPackets, s.PacketCount)
			assert.Equal(t, tt.wantMax, s.MaxPacketSize)
		})
	}
}

func TestParticipantStatsString(t *testing.T) {
	var s ParticipantStats
	s.Observe(10)
	s.Observe(20)
	s.Observe(5)
	assert.Equal(t, "3 packets, 35 bytes, max packet 20", s.String())
}
