package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeAddr(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    string
		wantErr bool
	}{
		{"host and port", "example.com:8080", "example.com:8080", false},
		{"bare port defaults to localhost", "8080", "localhost:8080", false},
		{"empty host defaults to localhost", ":8080", "localhost:8080", false},
		{"empty", "", "", true},
		{"missing port", "example.com:", "", true},
		{"bad port", "example.com:http", "", true},
		{"bad bare port", "http", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NormalizeAddr(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.Nil(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
