package vault

import (
	"encoding/binary"
	"fmt"

	"golang.org/x/text/encoding/unicode"
)

// Both encodings substitute U+FFFD for invalid input and never fail on encoding.
// Decoders keep state, so a fresh one is created per string.
var (
	utf8Encoding  = unicode.UTF8
	utf16Encoding = unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM)
)

// reader is a cursor over an immutable byte view.
// base is the absolute offset of data[0] in the replay, used in errors only.
type reader struct {
	data []byte
	pos  int
	base int
}

func newReader(data []byte) *reader {
	return &reader{data: data}
}

// offset returns the absolute offset of the cursor.
func (r *reader) offset() int {
	return r.base + r.pos
}

// remaining returns the number of unread bytes in the view.
func (r *reader) remaining() int {
	return len(r.data) - r.pos
}

func (r *reader) atEnd() bool {
	return r.pos == len(r.data)
}

func (r *reader) incomplete(op string, need int) error {
	return &ParseError{
		Op:     op,
		Offset: r.offset(),
		Err:    fmt.Errorf("%w: need %d bytes, have %d", ErrIncomplete, need, r.remaining()),
	}
}

func (r *reader) malformed(op string, format string, args ...interface{}) error {
	return &ParseError{
		Op:     op,
		Offset: r.offset(),
		Err:    fmt.Errorf("%w: "+format, append([]interface{}{ErrMalformed}, args...)...),
	}
}

// take returns the next n bytes without copying them.
func (r *reader) take(n int) ([]byte, error) {
	if n < 0 || n > r.remaining() {
		return nil, r.incomplete("take", n)
	}
	b := r.data[r.pos : r.pos+n]
	r.pos += n
	return b, nil
}

func (r *reader) skip(n int) error {
	_, err := r.take(n)
	return err
}

// sub returns a reader over exactly the next n bytes and moves past them.
func (r *reader) sub(n int) (*reader, error) {
	base := r.offset()
	b, err := r.take(n)
	if err != nil {
		return nil, err
	}
	return &reader{data: b, base: base}, nil
}

// prefixedSub reads a u32 length and returns a reader over that many bytes.
func (r *reader) prefixedSub() (*reader, error) {
	n, err := r.u32()
	if err != nil {
		return nil, err
	}
	return r.sub(int(n))
}

func (r *reader) u8() (uint8, error) {
	b, err := r.take(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

func (r *reader) u16() (uint16, error) {
	b, err := r.take(2)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(b), nil
}

func (r *reader) u32() (uint32, error) {
	b, err := r.take(4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

func (r *reader) u64() (uint64, error) {
	b, err := r.take(8)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(b), nil
}

// peekU32 reads a u32 without advancing the cursor.
func (r *reader) peekU32() (uint32, error) {
	if r.remaining() < 4 {
		return 0, r.incomplete("peek", 4)
	}
	return binary.LittleEndian.Uint32(r.data[r.pos:]), nil
}

// verifyU16 reads a u16 and fails with ErrMalformed unless it equals expected.
func (r *reader) verifyU16(expected uint16) (uint16, error) {
	at := r.pos
	v, err := r.u16()
	if err != nil {
		return 0, err
	}
	if v != expected {
		r.pos = at
		return v, r.malformed("verify u16", "got %#x, want %#x", v, expected)
	}
	return v, nil
}

// verifyU32 reads a u32 and fails with ErrMalformed unless it equals expected.
// On mismatch the cursor is left where it was.
func (r *reader) verifyU32(expected uint32) (uint32, error) {
	at := r.pos
	v, err := r.u32()
	if err != nil {
		return 0, err
	}
	if v != expected {
		r.pos = at
		return v, r.malformed("verify u32", "got %#x, want %#x", v, expected)
	}
	return v, nil
}

// fixedString decodes n bytes as UTF-8.
func (r *reader) fixedString(n int) (string, error) {
	b, err := r.take(n)
	if err != nil {
		return "", err
	}
	return decodeUTF8(b), nil
}

// utf8Prefixed reads a u32 byte count followed by that many UTF-8 bytes.
func (r *reader) utf8Prefixed() (uint32, string, error) {
	n, err := r.u32()
	if err != nil {
		return 0, "", err
	}
	s, err := r.fixedString(int(n))
	return n, s, err
}

// utf16Prefixed reads a u32 code unit count followed by that many UTF-16LE units.
func (r *reader) utf16Prefixed() (uint32, string, error) {
	n, err := r.u32()
	if err != nil {
		return 0, "", err
	}
	b, err := r.take(int(n) * 2)
	if err != nil {
		return 0, "", err
	}
	return n, decodeUTF16(b), nil
}

// utf16Terminated reads UTF-16LE code units up to, not including, a zero unit.
func (r *reader) utf16Terminated() (string, error) {
	start := r.pos
	for {
		if r.remaining() < 2 {
			r.pos = start
			return "", r.incomplete("utf16 terminator", 2)
		}
		if binary.LittleEndian.Uint16(r.data[r.pos:]) == 0 {
			return decodeUTF16(r.data[start:r.pos]), nil
		}
		r.pos += 2
	}
}

// skipZeroes consumes a run of zero bytes, possibly empty.
func (r *reader) skipZeroes() int {
	start := r.pos
	for r.pos < len(r.data) && r.data[r.pos] == 0 {
		r.pos++
	}
	return r.pos - start
}

// end fails unless the whole view has been consumed.
func (r *reader) end(op string) error {
	if !r.atEnd() {
		return r.malformed(op, "%d unconsumed bytes", r.remaining())
	}
	return nil
}

func decodeUTF8(b []byte) string {
	s, err := utf8Encoding.NewDecoder().Bytes(b)
	if err != nil {
		return string(b)
	}
	return string(s)
}

func decodeUTF16(b []byte) string {
	s, err := utf16Encoding.NewDecoder().Bytes(b)
	if err != nil {
		return ""
	}
	return string(s)
}
