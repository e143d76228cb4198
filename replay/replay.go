// Package replay drives one live socket against a previously recorded
// exchange: Data records captured from the impersonated role are
// transmitted verbatim after their recorded delay, Data records from the
// live role are received and byte-compared against the recording.
package replay

import (
	"fmt"
	"io"
	"net"
	"os"
	"strings"
	"time"

	"github.com/pkg/errors"
	slog "github.com/vearne/simplelog"
	"github.com/vearne/tcptap/protocol"
)

// Engine replays a capture stream over Conn. Exactly one of
// (CapturedSide=Client, LiveSide=Server) or the reverse is valid,
// depending on which participant this run impersonates.
type Engine struct {
	Conn         net.Conn
	CapturedSide protocol.Side
	LiveSide     protocol.Side

	// Speed divides recorded delays; <= 0 or 1 replays in real time.
	Speed float64
	// Timeout is an optional per-receive deadline. The default of 0
	// preserves the historical behavior: a silent live peer hangs the
	// replay indefinitely.
	Timeout time.Duration
	Out     io.Writer

	// Warnings counts Data records whose live response differed from the
	// recording. Mismatches are diagnostics, never fatal.
	Warnings int

	sleep func(time.Duration)
}

// Run consumes the capture stream until end-of-stream (success), a
// malformed record, an unsupported format version, or a socket error.
func (e *Engine) Run(r io.Reader) error {
	if e.Out == nil {
		e.Out = os.Stdout
	}
	if e.sleep == nil {
		e.sleep = time.Sleep
	}
	dec := protocol.NewDecoder(r)
	for {
		rec, err := dec.Decode()
		if err == io.EOF {
			slog.Info("replay complete, %d warning(s)", e.Warnings)
			return nil
		}
		if err != nil {
			return errors.Wrap(err, "read capture stream")
		}
		switch rec.Kind {
		case protocol.KindVersion:
			if rec.Major > protocol.FormatMajor {
				return errors.Errorf("capture format %d.%d not supported (newest known major is %d)",
					rec.Major, rec.Minor, protocol.FormatMajor)
			}
			slog.Info("capture format %d.%d %s", rec.Major, rec.Minor, rec.Note)
		case protocol.KindError:
			return errors.Errorf("malformed capture record at line %d: %s", rec.Line, rec.Message)
		case protocol.KindText:
			fmt.Fprintln(e.Out, rec.Message)
		case protocol.KindData:
			e.pause(rec.DelayMS)
			switch rec.Side {
			case e.CapturedSide:
				if _, err := e.Conn.Write(rec.Payload); err != nil {
					return errors.Wrapf(err, "send recorded data (capture line %d)", rec.Line)
				}
			case e.LiveSide:
				if err := e.verify(rec); err != nil {
					return err
				}
			default:
				// Lowercase side letters parse fine but match neither
				// uppercase role constant, so the record is skipped.
				slog.Debug("line %d: side %q matches neither role", rec.Line, byte(rec.Side))
			}
		}
	}
}

func (e *Engine) pause(delayMS int) {
	if delayMS <= 0 {
		return
	}
	d := time.Duration(delayMS) * time.Millisecond
	if e.Speed > 0 {
		d = time.Duration(float64(d) / e.Speed)
	}
	e.sleep(d)
}

// verify receives up to len(payload) bytes from the live socket and
// reports one warning per mismatching record, naming every differing
// byte position and any length difference. Live drift is expected and
// never aborts the replay.
func (e *Engine) verify(rec *protocol.Record) error {
	want := rec.Payload
	if e.Timeout > 0 {
		if err := e.Conn.SetReadDeadline(time.Now().Add(e.Timeout)); err != nil {
			return errors.Wrap(err, "set read deadline")
		}
		defer e.Conn.SetReadDeadline(time.Time{})
	}
	if len(want) > 0 {
		buf := make([]byte, len(want))
		n, err := e.Conn.Read(buf)
		if err != nil && err != io.EOF {
			return errors.Wrapf(err, "receive live data (capture line %d)", rec.Line)
		}
		if diffs := diff(want, buf[:n]); len(diffs) > 0 {
			e.Warnings++
			slog.Warn("live data differs from recording at line %d: %s",
				rec.Line, strings.Join(diffs, "; "))
		}
	}
	return nil
}

// diff describes how live data deviates from the recorded payload: any
// length difference, then every differing byte position with the expected
// and actual values. An empty result means an exact match.
func diff(want, got []byte) []string {
	var diffs []string
	if len(got) != len(want) {
		diffs = append(diffs, fmt.Sprintf("length: expected %d, actual %d", len(want), len(got)))
	}
	limit := len(got)
	if len(want) < limit {
		limit = len(want)
	}
	for i := 0; i < limit; i++ {
		if got[i] != want[i] {
			diffs = append(diffs, fmt.Sprintf("byte %d: expected %#02x (%q), actual %#02x (%q)",
				i, want[i], want[i], got[i], got[i]))
		}
	}
	return diffs
}
