package vault

import (
	"bytes"
	"errors"
	"testing"

	"github.com/vaultcoh/vault/internal/replaytest"
)

func TestParseHeader(t *testing.T) {
	r := newReader(append(replaytest.Header(8369, "COH3_REC", "2023-02-23 21:18"), 'R'))
	h, err := parseHeader(r)
	if err != nil {
		t.Fatalf("parseHeader() error = %v", err)
	}
	want := Header{Version: 8369, GameType: "COH3_REC", Timestamp: "2023-02-23 21:18"}
	if h != want {
		t.Errorf("parseHeader() = %+v, want %+v", h, want)
	}
	if r.remaining() != 1 {
		t.Errorf("parseHeader() left %d bytes, want 1", r.remaining())
	}

	bad := replaytest.Header(8369, "COH3_REC", "x")
	bad[0] = 1
	if _, err := parseHeader(newReader(bad)); !errors.Is(err, ErrMalformed) {
		t.Errorf("parseHeader() with non-zero lead error = %v, want ErrMalformed", err)
	}
}

func TestParseChunky(t *testing.T) {
	c, err := parseChunky(newReader(replaytest.Chunky()))
	if err != nil {
		t.Fatalf("parseChunky() error = %v", err)
	}
	want := Chunky{Name: "Relic Chunky", Signature: 0x1A0A0D, MajorVersion: 4, MinorVersion: 1}
	if c != want {
		t.Errorf("parseChunky() = %+v, want %+v", c, want)
	}

	tests := []struct {
		name        string
		offset      int
		unsupported bool
	}{
		{name: "name", offset: 0},
		{name: "signature", offset: 12},
		{name: "major version", offset: 16, unsupported: true},
		{name: "minor version", offset: 20, unsupported: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := replaytest.Chunky()
			data[tt.offset]++
			_, err := parseChunky(newReader(data))
			if !errors.Is(err, ErrMalformed) {
				t.Errorf("parseChunky() error = %v, want ErrMalformed", err)
			}
			if got := errors.Is(err, ErrUnsupportedVersion); got != tt.unsupported {
				t.Errorf("errors.Is(err, ErrUnsupportedVersion) = %v, want %v", got, tt.unsupported)
			}
		})
	}
}

func TestParseChunkDispatch(t *testing.T) {
	tests := []struct {
		name  string
		chunk []byte
		check func(t *testing.T, c Chunk)
	}{
		{
			name:  "unknown data type is opaque",
			chunk: replaytest.Chunk(KindData, "PLAS", 3, []byte{1, 2, 3}),
			check: func(t *testing.T, c Chunk) {
				d, ok := c.(*DataChunk)
				if !ok {
					t.Fatalf("got %T, want *DataChunk", c)
				}
				if !bytes.Equal(d.Data, []byte{1, 2, 3}) || d.Unsupported {
					t.Errorf("got %+v", d)
				}
			},
		},
		{
			name:  "legacy game setup is opaque",
			chunk: replaytest.Chunk(KindData, TypeGameSetup, 1, []byte{0xDE, 0xAD}),
			check: func(t *testing.T, c Chunk) {
				d, ok := c.(*DataChunk)
				if !ok {
					t.Fatalf("got %T, want *DataChunk", c)
				}
				if !d.Unsupported || d.Header().Version != 1 {
					t.Errorf("got %+v", d)
				}
			},
		},
		{
			name:  "game setup",
			chunk: replaytest.Chunk(KindData, TypeGameSetup, 2, replaytest.GameSetup(1, 42, fixturePlayers[0])),
			check: func(t *testing.T, c Chunk) {
				g, ok := c.(*GameSetupChunk)
				if !ok {
					t.Fatalf("got %T, want *GameSetupChunk", c)
				}
				if g.OpponentType != 1 || g.MatchHistoryID != 42 || len(g.Players) != 1 {
					t.Errorf("got %+v", g)
				}
				if g.ResourceSection != "resources" || g.ResourceOption != "default" ||
					g.TicketSection != "tickets" || g.TicketOption != "500" || g.Trailing != "tail" {
					t.Errorf("strings = %q %q %q %q %q", g.ResourceSection, g.ResourceOption, g.TicketSection, g.TicketOption, g.Trailing)
				}
			},
		},
		{
			name:  "map descriptor",
			chunk: replaytest.Chunk(KindData, TypeMapDescriptor, 1, replaytest.MapDescriptor("data:maps\\x", "$1", "$2")),
			check: func(t *testing.T, c Chunk) {
				m, ok := c.(*MapDescriptorChunk)
				if !ok {
					t.Fatalf("got %T, want *MapDescriptorChunk", c)
				}
				want := Map{Filename: "data:maps\\x", LocalizedNameID: "$1", LocalizedDescriptionID: "$2"}
				if m.Map != want {
					t.Errorf("got %+v, want %+v", m.Map, want)
				}
			},
		},
		{
			name: "nested folds",
			chunk: replaytest.Fold("OUTR",
				replaytest.Fold("INNR", replaytest.Chunk(KindData, "AAAA", 1, []byte{1})),
				replaytest.Fold("EMPT"),
				replaytest.Chunk(KindData, "BBBB", 1, nil),
			),
			check: func(t *testing.T, c Chunk) {
				f, ok := c.(*FoldChunk)
				if !ok {
					t.Fatalf("got %T, want *FoldChunk", c)
				}
				if len(f.Chunks) != 3 {
					t.Fatalf("got %d children, want 3", len(f.Chunks))
				}
				inner := f.Chunks[0].(*FoldChunk)
				if len(inner.Chunks) != 1 || inner.Chunks[0].Header().Type != "AAAA" {
					t.Errorf("inner fold = %+v", inner)
				}
				if n := len(f.Chunks[1].(*FoldChunk).Chunks); n != 0 {
					t.Errorf("empty fold has %d children", n)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newReader(tt.chunk)
			c, err := parseChunk(r)
			if err != nil {
				t.Fatalf("parseChunk() error = %v", err)
			}
			if !r.atEnd() {
				t.Errorf("parseChunk() left %d bytes", r.remaining())
			}
			tt.check(t, c)
		})
	}
}

func TestParseChunkErrors(t *testing.T) {
	child := replaytest.Chunk(KindData, "AAAA", 1, []byte{1, 2, 3, 4})

	shortFold := replaytest.Fold("FOLD", child)
	shortFold[12]-- // Declared length one byte short of the child.

	longFold := append(replaytest.Fold("FOLD", child), 0)
	longFold[12]++ // Declared length one byte past the child.

	setupSlack := replaytest.Chunk(KindData, TypeGameSetup, 2, append(replaytest.GameSetup(1, 1), 0))

	tests := []struct {
		name string
		in   []byte
		want error
	}{
		{name: "unknown kind", in: replaytest.Chunk("LIST", "AAAA", 1, nil), want: ErrMalformed},
		{name: "fold shorter than children", in: shortFold, want: ErrMalformed},
		{name: "fold longer than children", in: longFold, want: ErrMalformed},
		{name: "game setup with slack", in: setupSlack, want: ErrMalformed},
		{name: "body past end of input", in: replaytest.Chunk(KindData, "AAAA", 1, []byte{1, 2})[:21], want: ErrIncomplete},
		{name: "truncated header", in: []byte("DATAAA"), want: ErrIncomplete},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parseChunk(newReader(tt.in))
			if !errors.Is(err, tt.want) {
				t.Errorf("parseChunk() error = %v, want %v", err, tt.want)
			}
		})
	}
}
