/*

Package vault is a decoder of Company of Heroes 3 replay files (*.rec).

A replay is a small header followed by two "Relic Chunky" sections, a generic
tagged block container, and a stream of simulation ticks (player commands and
chat messages) that runs to the end of the file. This package decodes all of
it from an in-memory buffer into typed values. It does not encode replays and
does not interpret game data: item and ability IDs are kept as opaque values.

Usage

Decoding a replay:

	data, err := os.ReadFile("myreplay.rec")
	if err != nil {
		// Handle error
		return
	}
	rep, err := vault.Parse(data)
	if err != nil {
		// Handle error; errors.Is(err, vault.ErrMalformed) etc.
		return
	}

	fmt.Println(rep.Version(), rep.Timestamp(), rep.MapFilename())
	for _, p := range rep.Players() {
		fmt.Println(p.Name, p.Faction(), len(p.Messages()))
	}

The decoded chunk tree is available as rep.Chunks; its nodes are *FoldChunk,
*DataChunk, *GameSetupChunk and *MapDescriptorChunk values.

Debug traces are written to the global zerolog logger
(github.com/rs/zerolog/log) at debug level.

File layout

All integers are little-endian.

	Header:       u16 0, u16 version, [8]byte game type, UTF-16 timestamp up to a zero unit, zero padding
	Chunky:       "Relic Chunky", u32 0x1A0A0D, u32 4, u32 1
	Chunk header: [4]byte kind ("DATA" or "FOLD"), [4]byte type, u32 version, u32 length, u32 name length
	Command tick: u32 0, u32 length, {u8, u32 id, u32, ...}
	Message tick: u32 type, u32 length, {u32 0, u32 length, filler} or {u32 count, 4 x u32, count x message}
	Message:      u32 length + UTF-16 name, u32 length + UTF-16 text

Information sources

vault, the Rust parser of the format: https://github.com/ryantaylor/vault

vault_coh, its Ruby bindings: https://github.com/ryantaylor/vault_coh

*/
package vault
