// Package store keeps an sqlite index of decoded replays.
package store

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"sync"

	"github.com/bits-and-blooms/bloom/v3"
	"github.com/rs/zerolog/log"
	_ "modernc.org/sqlite"

	"github.com/vaultcoh/vault"
)

// ErrNotFound is returned by Get for an unknown key.
var ErrNotFound = errors.New("replay not found")

// Record is an indexed replay.
type Record struct {
	Key            string                `json:"key"`
	MatchHistoryID uint64                `json:"matchHistoryId"`
	Version        uint16                `json:"version"`
	Timestamp      string                `json:"timestamp"`
	MapFilename    string                `json:"mapFilename"`
	Length         int                   `json:"length"`
	Players        []vault.PlayerSummary `json:"players"`
}

// Store is an sqlite backed replay index. It is safe for concurrent use.
type Store struct {
	db *sql.DB

	mu sync.Mutex
	// Match history IDs already indexed.
	matches *bloom.BloomFilter
}

// Key returns the content key of replay bytes.
func Key(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// Open opens (creating if needed) the index at path.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	s := &Store{
		db:      db,
		matches: bloom.NewWithEstimates(100000, 0.001),
	}
	if err := s.init(); err != nil {
		db.Close()
		return nil, err
	}

	return s, nil
}

// init creates the schema and loads the known match IDs.
func (s *Store) init() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS replays (
			key       TEXT PRIMARY KEY,
			match_id  INTEGER NOT NULL,
			version   INTEGER NOT NULL,
			timestamp TEXT NOT NULL,
			map_file  TEXT NOT NULL,
			length    INTEGER NOT NULL,
			players   TEXT NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_replays_match_id ON replays(match_id);
	`)
	if err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}

	rows, err := s.db.Query("SELECT match_id FROM replays WHERE match_id != 0")
	if err != nil {
		return err
	}
	defer rows.Close()

	n := 0
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return err
		}
		s.matches.AddString(strconv.FormatUint(uint64(id), 10))
		n++
	}
	log.Debug().Int("matches", n).Msg("loaded replay index")

	return rows.Err()
}

// Seen tells if a replay of the given match was probably indexed already.
// False positives are possible, false negatives are not. Match ID 0 (no
// game setup) is never seen.
func (s *Store) Seen(matchID uint64) bool {
	if matchID == 0 {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.matches.TestString(strconv.FormatUint(matchID, 10))
}

// Indexed tells if a replay of the given match is stored. Matches the bloom
// filter rules out are answered without a query.
func (s *Store) Indexed(ctx context.Context, matchID uint64) (bool, error) {
	if !s.Seen(matchID) {
		return false, nil
	}
	var one int
	err := s.db.QueryRowContext(ctx, "SELECT 1 FROM replays WHERE match_id = ? LIMIT 1", int64(matchID)).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to look up match %d: %w", matchID, err)
	}
	return true, nil
}

// Save indexes rep under key, replacing an earlier record of the same key.
func (s *Store) Save(ctx context.Context, key string, rep *vault.Replay) (*Record, error) {
	sum := rep.Summary()
	r := &Record{
		Key:            key,
		MatchHistoryID: sum.MatchHistoryID,
		Version:        sum.Version,
		Timestamp:      sum.Timestamp,
		MapFilename:    sum.Map.Filename,
		Length:         sum.Length,
		Players:        sum.Players,
	}

	players, err := json.Marshal(r.Players)
	if err != nil {
		return nil, err
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO replays
			(key, match_id, version, timestamp, map_file, length, players)
		VALUES
			(?, ?, ?, ?, ?, ?, ?)
	`, r.Key, int64(r.MatchHistoryID), r.Version, r.Timestamp, r.MapFilename, r.Length, string(players))
	if err != nil {
		return nil, fmt.Errorf("failed to save replay %s: %w", key, err)
	}

	if r.MatchHistoryID != 0 {
		s.mu.Lock()
		s.matches.AddString(strconv.FormatUint(r.MatchHistoryID, 10))
		s.mu.Unlock()
	}

	log.Debug().Str("key", key).Uint64("matchHistoryId", r.MatchHistoryID).Msg("saved replay")

	return r, nil
}

const selectRecord = `
	SELECT key, match_id, version, timestamp, map_file, length, players
	FROM replays`

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(row scanner) (*Record, error) {
	r := &Record{}
	var matchID int64
	var players string
	if err := row.Scan(&r.Key, &matchID, &r.Version, &r.Timestamp, &r.MapFilename, &r.Length, &players); err != nil {
		return nil, err
	}
	r.MatchHistoryID = uint64(matchID)
	if err := json.Unmarshal([]byte(players), &r.Players); err != nil {
		return nil, fmt.Errorf("players of %s: %w", r.Key, err)
	}
	return r, nil
}

// Get returns the record stored under key.
func (s *Store) Get(ctx context.Context, key string) (*Record, error) {
	r, err := scanRecord(s.db.QueryRowContext(ctx, selectRecord+" WHERE key = ?", key))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return r, err
}

// List returns all records, newest match first.
func (s *Store) List(ctx context.Context) ([]Record, error) {
	rows, err := s.db.QueryContext(ctx, selectRecord+" ORDER BY match_id DESC, key")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	records := []Record{}
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, *r)
	}
	return records, rows.Err()
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}
