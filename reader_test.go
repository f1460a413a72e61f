package vault

import (
	"errors"
	"testing"

	"github.com/vaultcoh/vault/internal/replaytest"
)

func TestReaderFixedString(t *testing.T) {
	tests := []struct {
		name string
		in   []byte
		want string
	}{
		{name: "ascii", in: []byte("DATA"), want: "DATA"},
		{name: "invalid byte", in: []byte{'a', 0xFF, 'b'}, want: "a�b"},
		{name: "empty", in: nil, want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newReader(tt.in)
			got, err := r.fixedString(len(tt.in))
			if err != nil {
				t.Fatalf("fixedString() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("fixedString() = %q, want %q", got, tt.want)
			}
			if !r.atEnd() {
				t.Errorf("fixedString() left %d bytes", r.remaining())
			}
		})
	}
}

func TestReaderPrefixedStrings(t *testing.T) {
	b := &replaytest.Builder{}
	b.Str8("germans").Str16("Ünïcødé").U32(5).Raw([]byte("ab"))
	r := newReader(b.Bytes())

	n, s, err := r.utf8Prefixed()
	if err != nil || n != 7 || s != "germans" {
		t.Errorf("utf8Prefixed() = %d, %q, %v", n, s, err)
	}
	n, s, err = r.utf16Prefixed()
	if err != nil || n != 7 || s != "Ünïcødé" {
		t.Errorf("utf16Prefixed() = %d, %q, %v", n, s, err)
	}
	if _, _, err = r.utf8Prefixed(); !errors.Is(err, ErrIncomplete) {
		t.Errorf("utf8Prefixed() past the end error = %v, want ErrIncomplete", err)
	}
}

func TestReaderUTF16Terminated(t *testing.T) {
	b := &replaytest.Builder{}
	b.Units16("2023-02-23 21:18").U16(0).U8(0).U8(0).U8('R')
	r := newReader(b.Bytes())

	s, err := r.utf16Terminated()
	if err != nil {
		t.Fatalf("utf16Terminated() error = %v", err)
	}
	if s != "2023-02-23 21:18" {
		t.Errorf("utf16Terminated() = %q", s)
	}
	if v, _ := r.peekU32(); v&0xFFFF != 0 {
		t.Errorf("terminator was consumed")
	}
	if n := r.skipZeroes(); n != 4 {
		t.Errorf("skipZeroes() = %d, want 4", n)
	}
	if n := r.skipZeroes(); n != 0 {
		t.Errorf("second skipZeroes() = %d, want 0", n)
	}

	r = newReader([]byte{'a', 0, 'b', 0})
	if _, err := r.utf16Terminated(); !errors.Is(err, ErrIncomplete) {
		t.Errorf("unterminated utf16Terminated() error = %v, want ErrIncomplete", err)
	}
	if r.pos != 0 {
		t.Errorf("unterminated utf16Terminated() moved cursor to %d", r.pos)
	}
}

func TestReaderVerify(t *testing.T) {
	b := &replaytest.Builder{}
	b.U16(0).U32(0x1A0A0D).U32(7)
	r := newReader(b.Bytes())

	if _, err := r.verifyU16(0); err != nil {
		t.Errorf("verifyU16(0) error = %v", err)
	}
	if _, err := r.verifyU32(chunkySignature); err != nil {
		t.Errorf("verifyU32(signature) error = %v", err)
	}

	at := r.pos
	v, err := r.verifyU32(4)
	if !errors.Is(err, ErrMalformed) {
		t.Errorf("verifyU32(4) error = %v, want ErrMalformed", err)
	}
	if v != 7 || r.pos != at {
		t.Errorf("verifyU32(4) = %d, cursor %d; want 7, %d", v, r.pos, at)
	}
}

func TestReaderSubOffsets(t *testing.T) {
	r := newReader([]byte{0, 1, 2, 3, 4, 5, 6, 7})
	r.skip(2)

	sub, err := r.sub(4)
	if err != nil {
		t.Fatalf("sub() error = %v", err)
	}
	if r.offset() != 6 {
		t.Errorf("parent offset = %d, want 6", r.offset())
	}
	sub.skip(3)

	_, err = sub.u16()
	var pe *ParseError
	if !errors.As(err, &pe) || !errors.Is(err, ErrIncomplete) {
		t.Fatalf("u16() past sub view error = %v", err)
	}
	if pe.Offset != 5 {
		t.Errorf("error offset = %d, want 5", pe.Offset)
	}
	if err := sub.end("sub"); !errors.Is(err, ErrMalformed) {
		t.Errorf("end() with 1 byte left error = %v, want ErrMalformed", err)
	}
}
