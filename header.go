package vault

import "github.com/rs/zerolog/log"

// gameTypeLength is the size of the game type tag of the replay header.
const gameTypeLength = 8

// Header is the leading record of a replay file.
type Header struct {
	// Version is the game build the replay was recorded on.
	// Replays are generally only viewable on the build that recorded them.
	Version uint16 `json:"version"`

	// GameType is the raw 8-byte game type tag, e.g. "COH3_REC".
	GameType string `json:"gameType"`

	// Timestamp is the recording user's local time as written by the game.
	// It is not guaranteed to be parsable as a date.
	Timestamp string `json:"timestamp"`
}

// parseHeader reads the header and the zero padding that follows it.
func parseHeader(r *reader) (Header, error) {
	h := Header{}
	start := r.offset()

	if _, err := r.verifyU16(0); err != nil {
		return h, wrap("header", start, err)
	}

	var err error
	if h.Version, err = r.u16(); err != nil {
		return h, wrap("header version", start, err)
	}
	if h.GameType, err = r.fixedString(gameTypeLength); err != nil {
		return h, wrap("header game type", start, err)
	}
	if h.Timestamp, err = r.utf16Terminated(); err != nil {
		return h, wrap("header timestamp", start, err)
	}
	padding := r.skipZeroes()

	log.Debug().
		Uint16("version", h.Version).
		Str("gameType", h.GameType).
		Str("timestamp", h.Timestamp).
		Int("padding", padding).
		Msg("header")

	return h, nil
}
