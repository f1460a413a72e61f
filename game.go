package vault

// GameType is the kind of match a replay was recorded in.
type GameType string

// Known game types.
const (
	Skirmish        GameType = "skirmish"
	Multiplayer     GameType = "multiplayer"
	Automatch       GameType = "automatch"
	Custom          GameType = "custom"
	UnknownGameType GameType = "unknown"
)

// gameTypeFromOpponentType maps the game setup opponent type to a GameType.
func gameTypeFromOpponentType(t uint32) GameType {
	switch t {
	case 0:
		return Skirmish
	case 1:
		return Multiplayer
	case 2:
		return Automatch
	case 3:
		return Custom
	default:
		return UnknownGameType
	}
}

// Faction is a playable side.
type Faction string

// Known factions.
const (
	Americans      Faction = "Americans"
	British        Faction = "British"
	Wehrmacht      Faction = "Wehrmacht"
	AfrikaKorps    Faction = "AfrikaKorps"
	UnknownFaction Faction = "Unknown"
)

func factionFromTag(tag string) Faction {
	switch tag {
	case "americans":
		return Americans
	case "british_africa":
		return British
	case "germans":
		return Wehrmacht
	case "afrika_korps":
		return AfrikaKorps
	default:
		return UnknownFaction
	}
}

// Team is the side of a head-to-head match a player belongs to.
type Team uint32

const (
	TeamFirst Team = iota
	TeamSecond
)

// ChatLine is a chat message attributed to the player who sent it.
type ChatLine struct {
	// Tick is the game tick the message was sent at. The engine runs
	// at 8 ticks per second.
	Tick    int    `json:"tick"`
	Message string `json:"message"`
}
