package protocol

import (
	"fmt"
	"io"

	"github.com/pkg/errors"
	"github.com/vearne/tcptap/dump"
)

// ErrErrorRecord is returned when a caller tries to serialize a record the
// decoder produced for malformed input.
var ErrErrorRecord = errors.New("KindError records cannot be serialized")

// MaxDataLen is the largest Data payload whose dump-line offsets still fit
// the format's 4 hex digits. The proxy's 4096-byte read bound stays far
// below it; the guard protects direct Marshal callers.
const MaxDataLen = 1 << 16

// Encoder appends records to a capture stream. Data payloads are written
// as width-16 hex+ASCII dump lines, the same shape the live trace prints,
// so capture files stay human-readable.
type Encoder struct {
	w io.Writer
}

func NewEncoder(w io.Writer) *Encoder {
	return &Encoder{w: w}
}

// Encode writes one record and returns the number of bytes written.
// It does not compute timing: DelayMS must already hold the milliseconds
// elapsed since the previous Data record in this stream.
func (e *Encoder) Encode(r *Record) (int, error) {
	data, err := Marshal(r)
	if err != nil {
		return 0, err
	}
	n, err := e.w.Write(data)
	return n, errors.Wrap(err, "write capture record")
}

// Marshal renders one record in capture-file format.
func Marshal(r *Record) ([]byte, error) {
	switch r.Kind {
	case KindVersion:
		return []byte(fmt.Sprintf("V %d.%d %s\n", r.Major, r.Minor, r.Note)), nil
	case KindText:
		// written verbatim; the caller must not embed newlines
		return []byte(fmt.Sprintf("T %s\n", r.Message)), nil
	case KindData:
		if len(r.Payload) > MaxDataLen {
			return nil, errors.Errorf("data payload of %d bytes exceeds the encodable maximum %d",
				len(r.Payload), MaxDataLen)
		}
		out := fmt.Sprintf("%c %d %d\n", byte(r.Side), r.DelayMS, len(r.Payload))
		for _, line := range dump.Lines(dump.CaptureWidth, dump.ModeAll, r.Payload) {
			out += line + "\n"
		}
		return []byte(out), nil
	case KindError:
		return nil, ErrErrorRecord
	}
	return nil, errors.Errorf("unknown record kind %d", r.Kind)
}
