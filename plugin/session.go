package plugin

import (
	"time"

	slog "github.com/vearne/simplelog"
	"github.com/vearne/tcptap/protocol"
)

// Session owns the open capture outputs and the timestamp of the last
// written Data record, from which per-record delays are derived. It is
// driven from the proxy's single control loop, so no locking is needed.
type Session struct {
	outputs []RecordWriter
	last    time.Time
	clock   func() time.Time
}

func NewSession(outputs ...RecordWriter) *Session {
	return &Session{outputs: outputs, clock: time.Now}
}

// Active reports whether any capture output is still attached.
func (s *Session) Active() bool {
	return len(s.outputs) > 0
}

// RecordData appends one Data record to every attached output. The delay
// is the wall-clock time since the previous Data record (zero for the
// first). An output that fails is dropped; the session keeps going with
// the remainder.
func (s *Session) RecordData(side protocol.Side, payload []byte) {
	now := s.clock()
	delayMS := 0
	if !s.last.IsZero() {
		delayMS = int(now.Sub(s.last).Milliseconds())
	}
	s.last = now
	s.write(protocol.NewData(side, delayMS, payload))
}

// RecordText appends an advisory Text record.
func (s *Session) RecordText(message string) {
	s.write(protocol.NewText(message))
}

func (s *Session) write(r *protocol.Record) {
	kept := s.outputs[:0]
	for _, out := range s.outputs {
		if err := out.WriteRecord(r); err != nil {
			slog.Error("capture output failed, detaching it: %v", err)
			if cerr := out.Close(); cerr != nil {
				slog.Debug("close capture output: %v", cerr)
			}
			continue
		}
		kept = append(kept, out)
	}
	s.outputs = kept
}

func (s *Session) Close() {
	for _, out := range s.outputs {
		if err := out.Close(); err != nil {
			slog.Error("close capture output: %v", err)
		}
	}
	s.outputs = nil
}
