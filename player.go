package vault

import (
	"github.com/rs/zerolog/log"
)

// Reserved regions of a player record.
const (
	playerPadLead    = 1
	playerPadTeam    = 5
	playerPadFaction = 8
	playerPadAI      = 40
	playerPadProfile = 1
	playerPadSteam   = 18
	playerTrailer    = 4
)

// Player is one participant of the match as recorded in the game setup.
type Player struct {
	// Name at the time of recording. Use SteamID or ProfileID to identify a
	// player across replays.
	Name string `json:"name"`

	TeamID uint32 `json:"team"`

	// FactionTag is the raw faction identifier, e.g. "germans".
	FactionTag string `json:"faction"`

	// AIType is empty for human players.
	AIType string `json:"aiType"`

	SteamID   string `json:"steamId"`
	ProfileID uint64 `json:"profileId"`

	Items []Item `json:"items"`

	messages []ChatLine
}

// Item is an opaque loadout entry of a player.
type Item struct {
	Data []byte `json:"data"`
}

// Item layout: lead (4) + discriminated skip (4 or 12) + header (20) + u32 length.
const (
	itemLead        = 4
	itemShortSkip   = 4
	itemLongSkip    = 12
	itemHeader      = 20
	itemMinimumSize = itemLead + itemShortSkip + itemHeader + 4
)

// maxItems returns how many items a player of the given faction may carry.
func maxItems(faction string) int {
	switch faction {
	case "british_africa":
		return 21
	case "americans":
		return 22
	case "germans":
		return 25
	default:
		return 28
	}
}

// Faction returns the faction of the player.
func (p *Player) Faction() Faction {
	return factionFromTag(p.FactionTag)
}

// Team returns the team the player was assigned to.
func (p *Player) Team() Team {
	return Team(p.TeamID)
}

// Human tells if the player is not controlled by the AI.
func (p *Player) Human() bool {
	return p.AIType == ""
}

// Messages returns the chat lines sent by the player in chronological order.
func (p *Player) Messages() []ChatLine {
	return p.messages
}

// parsePlayers reads a u32 player count followed by the player records.
func parsePlayers(r *reader) ([]Player, error) {
	start := r.offset()
	n, err := r.u32()
	if err != nil {
		return nil, wrap("player count", start, err)
	}

	// Each record is at least a few bytes; don't trust n for the allocation.
	players := make([]Player, 0, min(int(n), r.remaining()))
	for i := 0; i < int(n); i++ {
		p, err := parsePlayer(r)
		if err != nil {
			return nil, wrap("player", start, err)
		}
		players = append(players, p)
	}

	log.Debug().Uint32("count", n).Msg("players")

	return players, nil
}

// parsePlayer reads a player in two steps: the fixed prefix, which yields the
// faction, then the item list bounded by that faction.
func parsePlayer(r *reader) (Player, error) {
	p, err := parsePlayerPrefix(r)
	if err != nil {
		return p, err
	}

	if p.Items, err = parseItems(r, maxItems(p.FactionTag)); err != nil {
		return p, wrap("items of "+p.Name, r.offset(), err)
	}
	if err = r.skip(playerTrailer); err != nil {
		return p, err
	}

	log.Debug().
		Str("name", p.Name).
		Str("faction", p.FactionTag).
		Int("items", len(p.Items)).
		Msg("player")

	return p, nil
}

func parsePlayerPrefix(r *reader) (Player, error) {
	p := Player{}

	var err error
	if err = r.skip(playerPadLead); err != nil {
		return p, err
	}
	if _, p.Name, err = r.utf16Prefixed(); err != nil {
		return p, wrap("name", r.offset(), err)
	}
	if p.TeamID, err = r.u32(); err != nil {
		return p, wrap("team", r.offset(), err)
	}
	if err = r.skip(playerPadTeam); err != nil {
		return p, err
	}
	if _, p.FactionTag, err = r.utf8Prefixed(); err != nil {
		return p, wrap("faction", r.offset(), err)
	}
	if err = r.skip(playerPadFaction); err != nil {
		return p, err
	}
	if _, p.AIType, err = r.utf8Prefixed(); err != nil {
		return p, wrap("ai type", r.offset(), err)
	}
	if err = r.skip(playerPadAI); err != nil {
		return p, err
	}
	if p.ProfileID, err = r.u64(); err != nil {
		return p, wrap("profile id", r.offset(), err)
	}
	if err = r.skip(playerPadProfile); err != nil {
		return p, err
	}
	if _, p.SteamID, err = r.utf16Prefixed(); err != nil {
		return p, wrap("steam id", r.offset(), err)
	}
	if err = r.skip(playerPadSteam); err != nil {
		return p, err
	}

	return p, nil
}

// parseItems reads at most limit items. An item is only started while at
// least itemMinimumSize bytes remain; a started item must parse completely.
func parseItems(r *reader, limit int) ([]Item, error) {
	var items []Item
	for len(items) < limit && r.remaining() >= itemMinimumSize {
		it, err := parseItem(r)
		if err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, nil
}

func parseItem(r *reader) (Item, error) {
	it := Item{}

	if err := r.skip(itemLead); err != nil {
		return it, err
	}

	// The peeked value only selects the padding; its meaning is unknown.
	discriminator, err := r.peekU32()
	if err != nil {
		return it, err
	}
	pad := itemShortSkip
	if discriminator == 0 {
		pad = itemLongSkip
	}
	if err = r.skip(pad); err != nil {
		return it, err
	}

	if err = r.skip(itemHeader); err != nil {
		return it, err
	}

	n, err := r.u32()
	if err != nil {
		return it, err
	}
	b, err := r.take(int(n))
	if err != nil {
		return it, err
	}
	it.Data = make([]byte, len(b))
	copy(it.Data, b)

	return it, nil
}
