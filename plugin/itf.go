package plugin

import "github.com/vearne/tcptap/protocol"

// RecordWriter is an interface for capture output plugins
type RecordWriter interface {
	WriteRecord(r *protocol.Record) error
	Close() error
}
