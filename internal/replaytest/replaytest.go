// Package replaytest builds synthetic replays and replay fragments for tests.
//
// The layouts are written out independently of the decoder, so a change in a
// decoder constant shows up as a test failure.
package replaytest

import (
	"bytes"
	"encoding/binary"

	"golang.org/x/text/encoding/unicode"
)

// Builder assembles little-endian byte fixtures. Methods chain.
type Builder struct {
	buf bytes.Buffer
}

// Bytes returns the assembled bytes.
func (b *Builder) Bytes() []byte {
	return b.buf.Bytes()
}

func (b *Builder) U8(v uint8) *Builder {
	b.buf.WriteByte(v)
	return b
}

func (b *Builder) U16(v uint16) *Builder {
	binary.Write(&b.buf, binary.LittleEndian, v)
	return b
}

func (b *Builder) U32(v uint32) *Builder {
	binary.Write(&b.buf, binary.LittleEndian, v)
	return b
}

func (b *Builder) U64(v uint64) *Builder {
	binary.Write(&b.buf, binary.LittleEndian, v)
	return b
}

func (b *Builder) Raw(p []byte) *Builder {
	b.buf.Write(p)
	return b
}

func (b *Builder) Fill(n int, v byte) *Builder {
	b.buf.Write(bytes.Repeat([]byte{v}, n))
	return b
}

func (b *Builder) Zeros(n int) *Builder {
	return b.Fill(n, 0)
}

// Str8 writes a u32 byte count and the bytes of s.
func (b *Builder) Str8(s string) *Builder {
	b.U32(uint32(len(s)))
	b.buf.WriteString(s)
	return b
}

// Units16 writes s as UTF-16LE code units without a length.
func (b *Builder) Units16(s string) *Builder {
	b.buf.Write(utf16(s))
	return b
}

// Str16 writes a u32 code unit count and s as UTF-16LE.
func (b *Builder) Str16(s string) *Builder {
	enc := utf16(s)
	b.U32(uint32(len(enc) / 2))
	return b.Raw(enc)
}

// Prefixed writes the u32 length of body followed by body.
func (b *Builder) Prefixed(body []byte) *Builder {
	b.U32(uint32(len(body)))
	return b.Raw(body)
}

func utf16(s string) []byte {
	enc, err := unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM).NewEncoder().Bytes([]byte(s))
	if err != nil {
		panic(err)
	}
	return enc
}

// Header returns a replay header followed by its zero padding.
func Header(version uint16, gameType, timestamp string) []byte {
	b := &Builder{}
	b.U16(0).U16(version).Raw([]byte(gameType)).Units16(timestamp)
	// Terminator and padding.
	return b.Zeros(2 + 6).Bytes()
}

// Chunky returns a valid container signature.
func Chunky() []byte {
	b := &Builder{}
	return b.Raw([]byte("Relic Chunky")).U32(0x1A0A0D).U32(4).U32(1).Bytes()
}

// Chunk returns a chunk header with an empty name followed by body.
func Chunk(kind, typ string, version uint32, body []byte) []byte {
	b := &Builder{}
	b.Raw([]byte(kind)).Raw([]byte(typ)).U32(version).U32(uint32(len(body))).U32(0)
	return b.Raw(body).Bytes()
}

// Fold returns a FOLD chunk holding children.
func Fold(typ string, children ...[]byte) []byte {
	return Chunk("FOLD", typ, 1, bytes.Join(children, nil))
}

// Item returns a loadout item. A zero discriminator selects the long padding.
func Item(discriminator uint32, payload []byte) []byte {
	b := &Builder{}
	b.U32(0xAAAAAAAA).U32(discriminator)
	if discriminator == 0 {
		b.Zeros(8)
	}
	b.Fill(20, 0x11)
	return b.Prefixed(payload).Bytes()
}

// Player is a roster entry.
type Player struct {
	Name      string
	Team      uint32
	Faction   string // e.g. "americans"
	AI        string
	ProfileID uint64
	SteamID   string

	// Items is the number of items written. A replay only decodes when it
	// matches the item bound of the faction.
	Items int
}

// PlayerRecord returns the record of p. Items alternate both paddings and
// carry the payload {i, 0xBE, 0xEF}.
func PlayerRecord(p Player) []byte {
	b := &Builder{}
	b.Zeros(1).Str16(p.Name).U32(p.Team).Zeros(5)
	b.Str8(p.Faction).Zeros(8).Str8(p.AI).Zeros(40)
	b.U64(p.ProfileID).Zeros(1).Str16(p.SteamID).Zeros(18)
	for i := 0; i < p.Items; i++ {
		b.Raw(Item(uint32(i%2), []byte{byte(i), 0xBE, 0xEF}))
	}
	return b.Zeros(4).Bytes()
}

// GameSetup returns a DATA/DATA body.
func GameSetup(opponentType uint32, matchID uint64, players ...Player) []byte {
	b := &Builder{}
	b.U32(opponentType).Zeros(6)
	b.U32(uint32(len(players)))
	for _, p := range players {
		b.Raw(PlayerRecord(p))
	}
	b.Prefixed([]byte{1, 2, 3})
	b.U64(matchID).Zeros(4)
	b.Prefixed(nil)
	b.Str8("resources").Zeros(4)
	b.Str8("default").Zeros(4)
	b.Str8("tickets").Zeros(4)
	b.Str8("500").Zeros(16)
	b.Str8("tail")
	return b.Bytes()
}

// MapDescriptor returns a DATA/SDSC body.
func MapDescriptor(file, name, desc string) []byte {
	b := &Builder{}
	return b.Zeros(121).Str8(file).Str16(name).Zeros(4).Str16(desc).Bytes()
}

// CommandTick returns a command tick with the given id.
func CommandTick(id uint32) []byte {
	b := &Builder{}
	return b.U32(0).U32(9).U8(7).U32(id).U32(0).Bytes()
}

// Message is a chat line of a message tick.
type Message struct {
	Name string
	Text string
}

// MessageTick returns a message tick; without msgs it is the empty marker.
func MessageTick(tickType uint32, msgs ...Message) []byte {
	block := &Builder{}
	if len(msgs) == 0 {
		block.U32(0).Prefixed(nil)
	} else {
		block.U32(uint32(len(msgs))).Zeros(16)
		for _, m := range msgs {
			block.Str16(m.Name).Str16(m.Text)
		}
	}

	b := &Builder{}
	return b.U32(tickType).Prefixed(block.Bytes()).Bytes()
}

// Chat is a chat line sent after the given number of command ticks.
type Chat struct {
	After   int
	Name    string
	Message string
}

// Options describe the replay to build. Zero values get defaults.
type Options struct {
	Version   uint16
	Timestamp string
	MatchID   uint64
	Opponent  uint32
	Map       string
	Players   []Player
	Commands  int
	Chat      []Chat // Sorted by After
}

// DefaultPlayers is the roster used when Options.Players is empty.
var DefaultPlayers = []Player{
	{Name: "Rommel", Team: 0, Faction: "germans", ProfileID: 1001, SteamID: "/steam/76561198000000001", Items: 25},
	{Name: "Patton", Team: 1, Faction: "americans", ProfileID: 1002, SteamID: "/steam/76561198000000002", Items: 22},
}

// Build returns the bytes of a replay described by o.
func Build(o Options) []byte {
	if o.Version == 0 {
		o.Version = 8369
	}
	if o.Timestamp == "" {
		o.Timestamp = "2023-02-23 21:18"
	}
	if o.Map == "" {
		o.Map = "data:scenarios\\multiplayer\\twin_beach_2p_mkii\\twin_beach_2p_mkii"
	}
	if len(o.Players) == 0 {
		o.Players = DefaultPlayers
	}

	b := &Builder{}
	b.Raw(Header(o.Version, "COH3_REC", o.Timestamp))
	b.Raw(Chunky())
	b.Raw(Fold("POST"))
	b.Raw(Chunky())
	b.Raw(Fold("INFO", Chunk("DATA", "DATA", 2, GameSetup(o.Opponent, o.MatchID, o.Players...))))
	b.Raw(Chunk("DATA", "SDSC", 1, MapDescriptor(o.Map, "$1", "$2")))

	chat := o.Chat
	for i := 0; i <= o.Commands; i++ {
		for len(chat) > 0 && chat[0].After == i {
			b.Raw(MessageTick(1, Message{Name: chat[0].Name, Text: chat[0].Message}))
			chat = chat[1:]
		}
		if i < o.Commands {
			b.Raw(CommandTick(uint32(i)))
		}
	}

	return b.Bytes()
}
