package vault

// Summary is a flat view of a replay for listings and JSON output.
type Summary struct {
	Version        uint16          `json:"version"`
	Timestamp      string          `json:"timestamp"`
	GameType       GameType        `json:"gameType"`
	MatchHistoryID uint64          `json:"matchHistoryId"`
	Map            Map             `json:"map"`
	Players        []PlayerSummary `json:"players"`
	Length         int             `json:"length"`
	CommandTicks   int             `json:"commandTicks"`
	MessageTicks   int             `json:"messageTicks"`
}

// PlayerSummary is the flat view of a player.
type PlayerSummary struct {
	Name      string     `json:"name"`
	Faction   Faction    `json:"faction"`
	Team      Team       `json:"team"`
	Human     bool       `json:"human"`
	SteamID   string     `json:"steamId"`
	ProfileID uint64     `json:"profileId"`
	Items     int        `json:"items"`
	Messages  []ChatLine `json:"messages,omitempty"`
}

// Summary returns the flat view of the replay.
func (rep *Replay) Summary() Summary {
	s := Summary{
		Version:        rep.Version(),
		Timestamp:      rep.Timestamp(),
		GameType:       rep.GameType(),
		MatchHistoryID: rep.MatchHistoryID(),
		Map:            rep.Map(),
		Players:        make([]PlayerSummary, 0, len(rep.players)),
		Length:         rep.Length(),
		CommandTicks:   len(rep.Ticks.Commands),
		MessageTicks:   len(rep.Ticks.Messages),
	}

	for i := range rep.players {
		p := &rep.players[i]
		s.Players = append(s.Players, PlayerSummary{
			Name:      p.Name,
			Faction:   p.Faction(),
			Team:      p.Team(),
			Human:     p.Human(),
			SteamID:   p.SteamID,
			ProfileID: p.ProfileID,
			Items:     len(p.Items),
			Messages:  p.Messages(),
		})
	}

	return s
}
