package protocol

import (
	"bufio"
	"encoding/hex"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"
)

var (
	versionRe  = regexp.MustCompile(`^(\d+)\.(\d+)$`)
	dumpLineRe = regexp.MustCompile(`^([0-9a-fA-F]{4}): ((?:[0-9a-fA-F]{2} )+) *\|.*\|$`)
)

// Decoder reads capture-stream records sequentially. Each Decode call
// consumes exactly the lines belonging to one record, so repeated calls
// walk the stream; there is no other state. Malformed input is reported
// as a KindError record carrying the offending line number, never as a
// Go error — only real I/O failures surface through the error return.
type Decoder struct {
	s    *bufio.Scanner
	line int
}

func NewDecoder(r io.Reader) *Decoder {
	s := bufio.NewScanner(r)
	s.Buffer(make([]byte, 64*1024), 1024*1024)
	return &Decoder{s: s}
}

func (d *Decoder) nextLine() (string, bool) {
	if !d.s.Scan() {
		return "", false
	}
	d.line++
	return d.s.Text(), true
}

// Decode returns the next record, or io.EOF once only blank lines and
// '#' comments remain. Callers must stop consuming on the first
// KindError record.
func (d *Decoder) Decode() (*Record, error) {
	for {
		line, ok := d.nextLine()
		if !ok {
			if err := d.s.Err(); err != nil {
				return nil, err
			}
			return nil, io.EOF
		}
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}
		switch trimmed[0] {
		case 'V', 'v':
			return d.version(d.line, trimmed), nil
		case 'T', 't':
			msg := strings.TrimPrefix(strings.TrimPrefix(trimmed[1:], " "), "\t")
			return &Record{Kind: KindText, Line: d.line, Message: msg}, nil
		case 'C', 'c', 'S', 's':
			return d.data(d.line, trimmed), nil
		default:
			return errorRecord(d.line, fmt.Sprintf("unrecognized record: %s", trimmed)), nil
		}
	}
}

func (d *Decoder) version(start int, line string) *Record {
	parts := strings.SplitN(line, " ", 3)
	if len(parts) < 2 {
		return errorRecord(start, fmt.Sprintf("malformed version record: %s", line))
	}
	m := versionRe.FindStringSubmatch(parts[1])
	if m == nil {
		return errorRecord(start, fmt.Sprintf("malformed version %q (want <major>.<minor>)", parts[1]))
	}
	major, _ := strconv.Atoi(m[1])
	minor, _ := strconv.Atoi(m[2])
	note := ""
	if len(parts) == 3 {
		note = parts[2]
	}
	return &Record{Kind: KindVersion, Line: start, Major: major, Minor: minor, Note: note}
}

func (d *Decoder) data(start int, header string) *Record {
	fields := strings.Fields(header)
	if len(fields) != 3 || len(fields[0]) != 1 {
		return errorRecord(start, fmt.Sprintf("malformed data header: %s", header))
	}
	delay, err := strconv.Atoi(fields[1])
	if err != nil || delay < 0 {
		return errorRecord(start, fmt.Sprintf("bad delay %q in data header", fields[1]))
	}
	length, err := strconv.Atoi(fields[2])
	if err != nil || length < 0 {
		return errorRecord(start, fmt.Sprintf("bad length %q in data header", fields[2]))
	}

	// Re-assemble the payload from dump lines. Offsets must start at 0 and
	// increase without gaps; anything else aborts the record.
	payload := make([]byte, 0, length)
	for len(payload) < length {
		line, ok := d.nextLine()
		if !ok {
			return errorRecord(d.line, "capture stream ends inside a data record")
		}
		m := dumpLineRe.FindStringSubmatch(line)
		if m == nil {
			return errorRecord(d.line, fmt.Sprintf("malformed dump line: %s", line))
		}
		off, _ := strconv.ParseUint(m[1], 16, 32)
		if int(off) != len(payload) {
			return errorRecord(d.line, fmt.Sprintf(
				"dump line offset %04x, expected %04x", off, len(payload)))
		}
		chunk, err := hex.DecodeString(strings.ReplaceAll(m[2], " ", ""))
		if err != nil {
			return errorRecord(d.line, fmt.Sprintf("bad hex in dump line: %s", line))
		}
		if len(payload)+len(chunk) > length {
			return errorRecord(d.line, fmt.Sprintf(
				"dump lines exceed declared length %d", length))
		}
		payload = append(payload, chunk...)
	}
	// the raw letter is preserved, lowercase markers included
	return &Record{Kind: KindData, Line: start, Side: Side(fields[0][0]), DelayMS: delay, Payload: payload}
}
