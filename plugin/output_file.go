package plugin

import (
	"bufio"
	"fmt"
	"os"
	"time"

	"github.com/buger/goreplay/size"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/vearne/tcptap/protocol"
)

// FileOutputConfig ...
type FileOutputConfig struct {
	// SizeLimit, when non-zero, stops the output once the file reaches
	// this many bytes.
	SizeLimit size.Size
}

// FileOutput appends capture records to a single file, starting with a
// Version record that stamps the format version, the recording time and
// a session id.
type FileOutput struct {
	path    string
	file    *os.File
	writer  *bufio.Writer
	enc     *protocol.Encoder
	written size.Size
	config  *FileOutputConfig
}

func NewFileOutput(path string, config *FileOutputConfig) (*FileOutput, error) {
	if config == nil {
		config = &FileOutputConfig{}
	}
	file, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0660)
	if err != nil {
		return nil, errors.Wrapf(err, "open capture file %q", path)
	}
	o := &FileOutput{
		path:   path,
		file:   file,
		writer: bufio.NewWriter(file),
		config: config,
	}
	o.enc = protocol.NewEncoder(o.writer)

	note := fmt.Sprintf("recorded %s session %s",
		time.Now().Format(time.RFC3339), uuid.New().String()[:8])
	n, err := o.enc.Encode(protocol.NewVersion(note))
	if err != nil {
		file.Close()
		return nil, err
	}
	o.written = size.Size(n)
	return o, nil
}

func (o *FileOutput) WriteRecord(r *protocol.Record) error {
	n, err := o.enc.Encode(r)
	o.written += size.Size(n)
	if err != nil {
		return err
	}
	if o.config.SizeLimit > 0 && o.written >= o.config.SizeLimit {
		return errors.Errorf("capture file %q reached size limit %d", o.path, o.config.SizeLimit)
	}
	return nil
}

func (o *FileOutput) Close() error {
	if o.file == nil {
		return nil
	}
	ferr := o.writer.Flush()
	cerr := o.file.Close()
	o.file = nil
	if ferr != nil {
		return errors.Wrapf(ferr, "flush capture file %q", o.path)
	}
	return errors.Wrapf(cerr, "close capture file %q", o.path)
}
