package vault

import (
	"time"

	"github.com/rs/zerolog/log"
)

// TicksPerSecond is the simulation rate of the game engine.
const TicksPerSecond = 8

// Replay is a decoded replay. It is immutable once returned by Parse.
type Replay struct {
	Header   Header   `json:"header"`
	Chunkies []Chunky `json:"chunkies"`
	Chunks   []Chunk  `json:"chunks"`
	Ticks    Ticks    `json:"ticks"`

	setup   *GameSetupChunk
	mapDesc *MapDescriptorChunk
	players []Player
	length  int
}

// Parse decodes a complete replay held in memory.
//
// The layout is: header, chunky, chunk, chunky, chunk, chunk, then ticks up
// to the end of data. Either a fully decoded Replay or an error is returned;
// errors unwrap to ErrIncomplete, ErrMalformed or ErrUnsupportedVersion.
//
// Parse does not retain data; Parse is safe for concurrent use.
func Parse(data []byte) (*Replay, error) {
	r := newReader(data)
	rep := &Replay{}

	var err error
	if rep.Header, err = parseHeader(r); err != nil {
		return nil, err
	}

	// Two chunky sections; the second one holds two chunks.
	for _, chunks := range []int{1, 2} {
		c, err := parseChunky(r)
		if err != nil {
			return nil, err
		}
		rep.Chunkies = append(rep.Chunkies, c)

		for i := 0; i < chunks; i++ {
			ch, err := parseChunk(r)
			if err != nil {
				return nil, err
			}
			rep.Chunks = append(rep.Chunks, ch)
		}
	}

	if rep.Ticks, err = parseTicks(r); err != nil {
		return nil, err
	}

	rep.derive()

	log.Debug().
		Uint16("version", rep.Header.Version).
		Int("length", rep.length).
		Int("players", len(rep.players)).
		Msg("replay")

	return rep, nil
}

// derive locates the typed chunks and computes the summary fields.
func (rep *Replay) derive() {
	walkChunks(rep.Chunks, func(c Chunk) bool {
		switch c := c.(type) {
		case *GameSetupChunk:
			if rep.setup == nil {
				rep.setup = c
			}
		case *MapDescriptorChunk:
			if rep.mapDesc == nil {
				rep.mapDesc = c
			}
		}
		return rep.setup == nil || rep.mapDesc == nil
	})

	// Ratio of command ticks to game time; see Length.
	rep.length = len(rep.Ticks.Commands) / TicksPerSecond

	if rep.setup == nil {
		return
	}
	rep.players = make([]Player, len(rep.setup.Players))
	copy(rep.players, rep.setup.Players)

	byName := make(map[string]*Player, len(rep.players))
	for i := range rep.players {
		byName[rep.players[i].Name] = &rep.players[i]
	}
	for _, mt := range rep.Ticks.Messages {
		for _, m := range mt.Messages {
			if p := byName[m.Name]; p != nil {
				p.messages = append(p.messages, ChatLine{Tick: mt.Position, Message: m.Message})
			}
		}
	}
}

// Version returns the game build the replay was recorded on.
func (rep *Replay) Version() uint16 {
	return rep.Header.Version
}

// Timestamp returns the local recording time as written by the game.
func (rep *Replay) Timestamp() string {
	return rep.Header.Timestamp
}

// GameType returns the kind of match, derived from the game setup.
func (rep *Replay) GameType() GameType {
	if rep.setup == nil {
		return UnknownGameType
	}
	return gameTypeFromOpponentType(rep.setup.OpponentType)
}

// MatchHistoryID returns the ID the match is tracked by on the game servers,
// or 0 if the replay has no game setup.
func (rep *Replay) MatchHistoryID() uint64 {
	if rep.setup == nil {
		return 0
	}
	return rep.setup.MatchHistoryID
}

// GameSetup returns the game setup chunk, or nil if the replay has none.
func (rep *Replay) GameSetup() *GameSetupChunk {
	return rep.setup
}

// Map returns the map information. The zero Map is returned if the replay
// has no map descriptor.
func (rep *Replay) Map() Map {
	if rep.mapDesc == nil {
		return Map{}
	}
	return rep.mapDesc.Map
}

// MapFilename is a shorthand for Map().Filename.
func (rep *Replay) MapFilename() string {
	return rep.Map().Filename
}

// MapLocalizedNameID is a shorthand for Map().LocalizedNameID.
func (rep *Replay) MapLocalizedNameID() string {
	return rep.Map().LocalizedNameID
}

// MapLocalizedDescriptionID is a shorthand for Map().LocalizedDescriptionID.
func (rep *Replay) MapLocalizedDescriptionID() string {
	return rep.Map().LocalizedDescriptionID
}

// Players returns the players of the match with their chat lines attached.
func (rep *Replay) Players() []Player {
	return rep.players
}

// Length returns the number of command ticks divided by TicksPerSecond.
func (rep *Replay) Length() int {
	return rep.length
}

// Duration returns Length as seconds.
func (rep *Replay) Duration() time.Duration {
	return time.Duration(rep.length) * time.Second
}
