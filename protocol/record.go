// Package protocol implements the line-oriented capture-file format: typed
// records, the serializer that appends them to a capture stream and the
// strict parser that reads them back.
package protocol

// Current capture-file format version. A file whose major version is
// greater than FormatMajor cannot be replayed.
const (
	FormatMajor = 1
	FormatMinor = 0
)

// Side identifies which participant a Data record was captured from.
// The value is the raw record-type letter from the capture file: the
// decoder accepts lowercase 'c'/'s' for compatibility with existing
// files but does not normalize them (see replay role matching).
type Side byte

const (
	SideClient Side = 'C'
	SideServer Side = 'S'
)

func (s Side) String() string {
	switch s {
	case SideClient, 'c':
		return "client"
	case SideServer, 's':
		return "server"
	}
	return "unknown"
}

// Kind discriminates the Record variants.
type Kind int

const (
	KindVersion Kind = iota + 1
	KindText
	KindData
	// KindError is produced by the decoder on malformed input. It is never
	// serialized and is terminal for a parse pass.
	KindError
)

// Record is one tagged capture-stream record. Line is the 1-based line
// number the record started on (for KindError, the offending line).
type Record struct {
	Kind Kind
	Line int

	// KindVersion
	Major int
	Minor int
	Note  string

	// KindText and KindError
	Message string

	// KindData
	Side    Side
	DelayMS int
	Payload []byte
}

func NewVersion(note string) *Record {
	return &Record{Kind: KindVersion, Major: FormatMajor, Minor: FormatMinor, Note: note}
}

func NewText(message string) *Record {
	return &Record{Kind: KindText, Message: message}
}

func NewData(side Side, delayMS int, payload []byte) *Record {
	return &Record{Kind: KindData, Side: side, DelayMS: delayMS, Payload: payload}
}

func errorRecord(line int, message string) *Record {
	return &Record{Kind: KindError, Line: line, Message: message}
}
