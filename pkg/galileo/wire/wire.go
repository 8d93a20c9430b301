// Package wire implements §4.5/§6's on-the-wire encoding: a 4-byte
// big-endian length prefix in front of every frame, and a small
// self-describing encoding of primitive values (strings, byte slices,
// sequences) used to build an EventContainer's body.
package wire

import (
	"bufio"
	"encoding/binary"
	"io"

	"github.com/amilaSuriarachchi/galileo/pkg/galileo/types"
	"github.com/cockroachdb/errors"
)

// MaxFrameSize bounds a single frame's declared length, guarding against a
// corrupt or hostile length prefix turning into an unbounded allocation.
const MaxFrameSize = 64 << 20 // 64 MiB

var ErrFrameTooLarge = errors.New("wire: frame exceeds maximum size")

// WriteFrame writes the 4-byte big-endian length prefix and then the
// payload, as two Write calls on w. The prefix is added exactly once per
// frame, at write time.
func WriteFrame(w io.Writer, payload []byte) error {
	var header [4]byte
	binary.BigEndian.PutUint32(header[:], uint32(len(payload)))
	if _, err := w.Write(header[:]); err != nil {
		return errors.Wrap(err, "wire: write frame header")
	}
	if _, err := w.Write(payload); err != nil {
		return errors.Wrap(err, "wire: write frame payload")
	}
	return nil
}

// ReadFrame blocks until one whole frame is available from r, or returns
// the underlying read error (including io.EOF on orderly close). It never
// returns a short or merged frame.
func ReadFrame(r *bufio.Reader) ([]byte, error) {
	var header [4]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		return nil, err
	}
	length := binary.BigEndian.Uint32(header[:])
	if length > MaxFrameSize {
		return nil, ErrFrameTooLarge
	}
	payload := make([]byte, length)
	if _, err := io.ReadFull(r, payload); err != nil {
		return nil, errors.Wrap(err, "wire: read frame payload")
	}
	return payload, nil
}

// PutString appends a (uint32 length, UTF-8 bytes) encoding of s.
func PutString(buf []byte, s string) []byte {
	return PutBytes(buf, []byte(s))
}

// PutBytes appends a (uint32 length, bytes) encoding of b.
func PutBytes(buf []byte, b []byte) []byte {
	var length [4]byte
	binary.BigEndian.PutUint32(length[:], uint32(len(b)))
	buf = append(buf, length[:]...)
	buf = append(buf, b...)
	return buf
}

// PutUint32 appends a big-endian uint32.
func PutUint32(buf []byte, v uint32) []byte {
	var raw [4]byte
	binary.BigEndian.PutUint32(raw[:], v)
	return append(buf, raw[:]...)
}

// cursor walks a byte slice, decoding primitives in the same order they
// were written by the Put* helpers above.
type cursor struct {
	buf []byte
	pos int
}

func newCursor(buf []byte) *cursor {
	return &cursor{buf: buf}
}

func (c *cursor) bytes() ([]byte, error) {
	if c.pos+4 > len(c.buf) {
		return nil, errors.New("wire: truncated length prefix")
	}
	length := int(binary.BigEndian.Uint32(c.buf[c.pos : c.pos+4]))
	c.pos += 4
	if length < 0 || c.pos+length > len(c.buf) {
		return nil, errors.New("wire: truncated payload")
	}
	out := c.buf[c.pos : c.pos+length]
	c.pos += length
	return out, nil
}

func (c *cursor) string() (string, error) {
	b, err := c.bytes()
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func (c *cursor) uint32() (uint32, error) {
	if c.pos+4 > len(c.buf) {
		return 0, errors.New("wire: truncated uint32")
	}
	v := binary.BigEndian.Uint32(c.buf[c.pos : c.pos+4])
	c.pos += 4
	return v, nil
}

// EncodeContainer serializes an EventContainer: the tag byte followed by
// a (uint32 length, bytes) encoding of the body.
func EncodeContainer(c types.EventContainer) []byte {
	buf := make([]byte, 0, 5+len(c.Body))
	buf = append(buf, byte(c.Tag))
	buf = PutBytes(buf, c.Body)
	return buf
}

// DecodeContainer is the inverse of EncodeContainer.
func DecodeContainer(raw []byte) (types.EventContainer, error) {
	if len(raw) < 1 {
		return types.EventContainer{}, errors.New("wire: empty event container")
	}
	tag := types.EventType(raw[0])
	cur := newCursor(raw[1:])
	body, err := cur.bytes()
	if err != nil {
		return types.EventContainer{}, errors.Wrap(err, "wire: decode event container body")
	}
	return types.EventContainer{Tag: tag, Body: body}, nil
}
