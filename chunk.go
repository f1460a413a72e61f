package vault

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
)

// Chunk kind tags.
const (
	KindData = "DATA"
	KindFold = "FOLD"
)

// Chunk type tags with a dedicated body layout.
const (
	TypeGameSetup     = "DATA"
	TypeMapDescriptor = "SDSC"
)

const tagLength = 4

// legacyGameSetupVersion is the DATA/DATA version whose layout is not supported.
const legacyGameSetupVersion = 1

// ChunkHeader precedes every chunk body.
type ChunkHeader struct {
	Kind       string `json:"kind"` // KindData or KindFold
	Type       string `json:"type"`
	Version    uint32 `json:"version"`
	Length     uint32 `json:"length"` // Exact size of the body in bytes
	NameLength uint32 `json:"nameLength"`
}

// Chunk is one node of the chunk tree. It is one of *FoldChunk, *DataChunk,
// *GameSetupChunk or *MapDescriptorChunk.
type Chunk interface {
	Header() ChunkHeader
}

// FoldChunk is a container whose body is a sequence of child chunks.
type FoldChunk struct {
	ChunkHeader
	Chunks []Chunk `json:"chunks"`
}

// DataChunk is a data chunk kept as raw bytes, either because its type has no
// known layout or because its version is not supported.
type DataChunk struct {
	ChunkHeader
	Data []byte `json:"data"`

	// Unsupported is set when the type is known but the version is not.
	Unsupported bool `json:"unsupported,omitempty"`
}

// GameSetupChunk (DATA/DATA) holds the match setup and the player roster.
type GameSetupChunk struct {
	ChunkHeader
	OpponentType   uint32   `json:"opponentType"`
	Players        []Player `json:"players"`
	MatchHistoryID uint64   `json:"matchHistoryId"`

	ResourceSection string `json:"resourceSection"`
	ResourceOption  string `json:"resourceOption"`
	TicketSection   string `json:"ticketSection"`
	TicketOption    string `json:"ticketOption"`
	Trailing        string `json:"trailing"`
}

// MapDescriptorChunk (DATA/SDSC) describes the map the match was played on.
type MapDescriptorChunk struct {
	ChunkHeader
	Map
}

// Map holds the map related information of a replay.
type Map struct {
	// Filename resembles a path but does not point to a real file. Its last
	// slash separated token usually matches the map name of the stats API.
	Filename string `json:"filename"`

	// LocalizedNameID is the localization entry of the map name.
	LocalizedNameID string `json:"localizedNameId"`

	// LocalizedDescriptionID is the localization entry of the map description.
	LocalizedDescriptionID string `json:"localizedDescriptionId"`
}

// Header returns the header of the chunk.
func (h ChunkHeader) Header() ChunkHeader {
	return h
}

// parseChunkHeader reads a chunk header. Only the kind tag is tried; once it
// is recognized, every later failure is final.
func parseChunkHeader(r *reader) (ChunkHeader, error) {
	h := ChunkHeader{}
	start := r.offset()

	kind, err := r.fixedString(tagLength)
	if err != nil {
		return h, wrap("chunk kind", start, err)
	}
	if kind != KindData && kind != KindFold {
		return h, &ParseError{Op: "chunk kind", Offset: start, Err: fmt.Errorf("%w: unknown chunk kind %q", ErrMalformed, kind)}
	}
	h.Kind = kind

	if h.Type, err = r.fixedString(tagLength); err != nil {
		return h, wrap("chunk type", start, err)
	}
	if h.Version, err = r.u32(); err != nil {
		return h, wrap("chunk version", start, err)
	}
	if h.Length, err = r.u32(); err != nil {
		return h, wrap("chunk length", start, err)
	}
	if h.NameLength, err = r.u32(); err != nil {
		return h, wrap("chunk name length", start, err)
	}

	return h, nil
}

// parseChunk reads one chunk and its body. The body is decoded from a view of
// exactly Length bytes, so the cursor always moves by header + Length.
func parseChunk(r *reader) (Chunk, error) {
	start := r.offset()

	h, err := parseChunkHeader(r)
	if err != nil {
		return nil, err
	}

	log.Debug().
		Str("kind", h.Kind).
		Str("type", h.Type).
		Uint32("version", h.Version).
		Uint32("length", h.Length).
		Int("offset", start).
		Msg("chunk")

	body, err := r.sub(int(h.Length))
	if err != nil {
		return nil, wrap("chunk "+h.Kind+h.Type, start, err)
	}

	var c Chunk
	switch h.Kind {
	case KindFold:
		c, err = parseFoldChunk(body, h)
	default:
		c, err = parseDataChunk(body, h)
	}
	if err != nil {
		return nil, wrap("chunk "+h.Kind+h.Type, start, overrun(err))
	}

	return c, nil
}

// overrun turns running out of a body view into ErrMalformed: the body did
// not fit the length its header declared.
func overrun(err error) error {
	pe, ok := err.(*ParseError)
	if !ok || !errors.Is(pe.Err, ErrIncomplete) {
		return err
	}
	return &ParseError{
		Op:     pe.Op,
		Offset: pe.Offset,
		Err:    fmt.Errorf("%w: body overruns its declared length: %w", ErrMalformed, pe.Err),
	}
}

// parseDataChunk dispatches a DATA chunk body on its type and version.
func parseDataChunk(body *reader, h ChunkHeader) (Chunk, error) {
	switch {
	case h.Type == TypeGameSetup && h.Version == legacyGameSetupVersion:
		log.Debug().Uint32("version", h.Version).Msg("legacy game setup kept opaque")
		c, err := parseOpaqueChunk(body, h)
		if err != nil {
			return nil, err
		}
		c.Unsupported = true
		return c, nil
	case h.Type == TypeGameSetup:
		return parseGameSetupChunk(body, h)
	case h.Type == TypeMapDescriptor:
		return parseMapDescriptorChunk(body, h)
	default:
		return parseOpaqueChunk(body, h)
	}
}

func parseOpaqueChunk(body *reader, h ChunkHeader) (*DataChunk, error) {
	b, err := body.take(body.remaining())
	if err != nil {
		return nil, err
	}
	data := make([]byte, len(b))
	copy(data, b)

	return &DataChunk{ChunkHeader: h, Data: data}, nil
}

// parseFoldChunk reads child chunks until the body view is used up.
// A child that overruns the view fails, so the children always add up to Length.
func parseFoldChunk(body *reader, h ChunkHeader) (*FoldChunk, error) {
	f := &FoldChunk{ChunkHeader: h}

	for !body.atEnd() {
		c, err := parseChunk(body)
		if err != nil {
			return nil, err
		}
		f.Chunks = append(f.Chunks, c)
	}

	if err := body.end("fold"); err != nil {
		return nil, err
	}

	return f, nil
}

// Reserved regions of the game setup body.
const (
	gameSetupPadAfterOpponent = 6
	gameSetupMatchRegion      = 12
	gameSetupPadSection       = 4
	gameSetupPadBeforeTrailer = 16
)

func parseGameSetupChunk(body *reader, h ChunkHeader) (*GameSetupChunk, error) {
	c := &GameSetupChunk{ChunkHeader: h}

	var err error
	if c.OpponentType, err = body.u32(); err != nil {
		return nil, wrap("opponent type", body.offset(), err)
	}
	if err = body.skip(gameSetupPadAfterOpponent); err != nil {
		return nil, err
	}
	if c.Players, err = parsePlayers(body); err != nil {
		return nil, err
	}
	if _, err = body.prefixedSub(); err != nil {
		return nil, wrap("setup block", body.offset(), err)
	}

	region, err := body.sub(gameSetupMatchRegion)
	if err != nil {
		return nil, wrap("match region", body.offset(), err)
	}
	if c.MatchHistoryID, err = region.u64(); err != nil {
		return nil, err
	}

	if _, err = body.prefixedSub(); err != nil {
		return nil, wrap("setup block", body.offset(), err)
	}

	// Fixed layout: string, pad, string, pad, string, pad, string, pad, string.
	fields := []struct {
		dst *string
		pad int
	}{
		{&c.ResourceSection, gameSetupPadSection},
		{&c.ResourceOption, gameSetupPadSection},
		{&c.TicketSection, gameSetupPadSection},
		{&c.TicketOption, gameSetupPadBeforeTrailer},
		{&c.Trailing, 0},
	}
	for _, f := range fields {
		if _, *f.dst, err = body.utf8Prefixed(); err != nil {
			return nil, wrap("setup string", body.offset(), err)
		}
		if err = body.skip(f.pad); err != nil {
			return nil, err
		}
	}

	if err = body.end("game setup"); err != nil {
		return nil, err
	}

	log.Debug().
		Uint32("opponentType", c.OpponentType).
		Int("players", len(c.Players)).
		Uint64("matchHistoryId", c.MatchHistoryID).
		Msg("game setup")

	return c, nil
}

// mapDescriptorPad is the reserved region at the start of the map descriptor body.
const mapDescriptorPad = 121

func parseMapDescriptorChunk(body *reader, h ChunkHeader) (*MapDescriptorChunk, error) {
	c := &MapDescriptorChunk{ChunkHeader: h}

	var err error
	if err = body.skip(mapDescriptorPad); err != nil {
		return nil, err
	}
	if _, c.Filename, err = body.utf8Prefixed(); err != nil {
		return nil, wrap("map filename", body.offset(), err)
	}
	if _, c.LocalizedNameID, err = body.utf16Prefixed(); err != nil {
		return nil, wrap("map name", body.offset(), err)
	}
	if err = body.skip(4); err != nil {
		return nil, err
	}
	if _, c.LocalizedDescriptionID, err = body.utf16Prefixed(); err != nil {
		return nil, wrap("map description", body.offset(), err)
	}

	if err = body.end("map descriptor"); err != nil {
		return nil, err
	}

	return c, nil
}

// walkChunks calls fn for every chunk of the tree in depth-first order
// until fn returns false.
func walkChunks(chunks []Chunk, fn func(Chunk) bool) bool {
	for _, c := range chunks {
		if !fn(c) {
			return false
		}
		if f, ok := c.(*FoldChunk); ok {
			if !walkChunks(f.Chunks, fn) {
				return false
			}
		}
	}
	return true
}
