package vault

import (
	"github.com/vaultcoh/vault/internal/replaytest"
)

var fixturePlayers = []replaytest.Player{
	{Name: "Rommel", Team: 0, Faction: "germans", ProfileID: 1001, SteamID: "/steam/76561198000000001", Items: maxItems("germans")},
	{Name: "Patton", Team: 1, Faction: "americans", ProfileID: 1002, SteamID: "/steam/76561198000000002", Items: maxItems("americans")},
	{Name: "CPU", Team: 1, Faction: "british_africa", AI: "expert", Items: maxItems("british_africa")},
}

// replayFixture returns a complete replay with the given tick stream.
func replayFixture(ticks ...[]byte) []byte {
	b := &replaytest.Builder{}
	b.Raw(replaytest.Header(8369, "COH3_REC", "2023-02-23 21:18"))
	b.Raw(replaytest.Chunky())
	b.Raw(replaytest.Fold("POST", replaytest.Chunk(KindData, "PLAS", 2, []byte("opaque payload"))))
	b.Raw(replaytest.Chunky())
	b.Raw(replaytest.Fold("INFO",
		replaytest.Chunk(KindData, TypeGameSetup, 2, replaytest.GameSetup(2, 150656, fixturePlayers...)),
		replaytest.Fold("NEST", replaytest.Chunk(KindData, "ABCD", 1, []byte{9, 9})),
	))
	b.Raw(replaytest.Chunk(KindData, TypeMapDescriptor, 1, replaytest.MapDescriptor(
		"data:scenarios\\multiplayer\\twin_beach_2p_mkii\\twin_beach_2p_mkii", "$11233954", "$11233955")))
	for _, t := range ticks {
		b.Raw(t)
	}
	return b.Bytes()
}
