package simpleperf

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/getsentry/simpleperf/internal/errorutil"
)

const (
	// Magic is the token every trace starts with.
	Magic = "SIMPLEPERF"

	// DefaultMaxRecordSize bounds the size of a single record so a corrupt
	// size field can't make us allocate the world.
	DefaultMaxRecordSize = 64 << 20
)

// Reader reads the framed records of a trace:
//
//	bytes[10]   magic "SIMPLEPERF"
//	uint16 LE   version
//	repeated:
//	  uint32 LE   record size, 0 ends the stream
//	  bytes[size] protobuf encoded record
type Reader struct {
	reader        *bufio.Reader
	bytesRead     int64
	version       uint16
	headerRead    bool
	done          bool
	MaxRecordSize uint32
}

func NewReader(r io.Reader) *Reader {
	return &Reader{
		reader:        bufio.NewReader(r),
		MaxRecordSize: DefaultMaxRecordSize,
	}
}

func (r *Reader) BytesRead() int64 {
	return r.bytesRead
}

// Version is only valid once the header was read.
func (r *Reader) Version() uint16 {
	return r.version
}

// ReadHeader validates the magic token and reads the format version.
func (r *Reader) ReadHeader() (uint16, error) {
	if r.headerRead {
		return r.version, nil
	}
	buf, err := r.readN(len(Magic))
	if err != nil {
		return 0, fmt.Errorf("simpleperf: %w: unable to read magic: %v", errorutil.ErrInvalidFormat, err)
	}
	if string(buf) != Magic {
		return 0, fmt.Errorf("simpleperf: %w: invalid magic %q", errorutil.ErrInvalidFormat, buf)
	}
	buf, err = r.readN(2)
	if err != nil {
		return 0, fmt.Errorf("simpleperf: %w: unable to read version: %v", errorutil.ErrInvalidFormat, err)
	}
	r.version = binary.LittleEndian.Uint16(buf)
	r.headerRead = true
	return r.version, nil
}

// Next returns the next record, or io.EOF once the end of stream marker was
// read. A stream that ends without the marker is invalid.
func (r *Reader) Next() (Record, error) {
	if r.done {
		return Record{}, io.EOF
	}
	if !r.headerRead {
		if _, err := r.ReadHeader(); err != nil {
			return Record{}, err
		}
	}
	buf, err := r.readN(4)
	if err != nil {
		return Record{}, fmt.Errorf("simpleperf: %w: unable to read record size at offset %d: %v", errorutil.ErrInvalidFormat, r.bytesRead, err)
	}
	size := binary.LittleEndian.Uint32(buf)
	if size == 0 {
		r.done = true
		return Record{}, io.EOF
	}
	if r.MaxRecordSize > 0 && size > r.MaxRecordSize {
		return Record{}, fmt.Errorf("simpleperf: %w: record of %d bytes at offset %d exceeds the limit of %d bytes", errorutil.ErrInvalidFormat, size, r.bytesRead, r.MaxRecordSize)
	}
	buf, err = r.readN(int(size))
	if err != nil {
		return Record{}, fmt.Errorf("simpleperf: %w: truncated record of %d bytes: %v", errorutil.ErrInvalidFormat, size, err)
	}
	return decodeRecord(buf)
}

func (r *Reader) readN(n int) ([]byte, error) {
	buf := make([]byte, n)
	read, err := io.ReadFull(r.reader, buf)
	r.bytesRead += int64(read)
	if err != nil {
		if errors.Is(err, io.EOF) {
			err = io.ErrUnexpectedEOF
		}
		return nil, err
	}
	return buf, nil
}
