// Package storage provides the persistent journal of answered queries and
// self-play statistics.
package storage

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/dgraph-io/badger/v4"
	"github.com/rs/zerolog"
)

// Storage keys
const (
	prefixQuery = "query/"
	keyStats    = "stats"
)

// Options configures Open.
type Options struct {
	// Dir is the database directory. Empty means GetDatabaseDir.
	Dir string
	// InMemory keeps everything in memory; Dir is ignored.
	InMemory bool
	Logger   zerolog.Logger
}

// QueryRecord is one answered position.
type QueryRecord struct {
	FEN        string        `json:"fen"`
	Move       string        `json:"move"`
	Score      int           `json:"score"`
	Candidates []string      `json:"candidates,omitempty"`
	Depth      int           `json:"depth"`
	Nodes      uint64        `json:"nodes"`
	Elapsed    time.Duration `json:"elapsed"`
	At         time.Time     `json:"at"`
}

// GameStats stores self-play statistics, from White's side.
type GameStats struct {
	GamesPlayed    int            `json:"games_played"`
	Wins           int            `json:"wins"`
	Losses         int            `json:"losses"`
	Draws          int            `json:"draws"`
	DrawsByMethod  map[string]int `json:"draws_by_method"`
	TotalPlies     int            `json:"total_plies"`
	TotalPlayTime  time.Duration  `json:"total_play_time"`
	LongestWinStrk int            `json:"longest_win_streak"`
	CurrentStreak  int            `json:"current_streak"`
}

// NewGameStats returns empty game statistics
func NewGameStats() *GameStats {
	return &GameStats{
		DrawsByMethod: make(map[string]int),
	}
}

// GameResult represents the result of a completed self-play game.
type GameResult struct {
	Outcome  string // "1-0", "0-1" or "1/2-1/2"
	Method   string // how the game ended, e.g. "Checkmate", "Stalemate"
	Plies    int
	Duration time.Duration
}

// Storage wraps BadgerDB for persistent storage
type Storage struct {
	db  *badger.DB
	log zerolog.Logger
}

// Open opens (creating if needed) the journal.
func Open(o Options) (*Storage, error) {
	var opts badger.Options
	switch {
	case o.InMemory:
		opts = badger.DefaultOptions("").WithInMemory(true)
	case o.Dir != "":
		opts = badger.DefaultOptions(o.Dir)
	default:
		dbDir, err := GetDatabaseDir()
		if err != nil {
			return nil, fmt.Errorf("journal dir: %w", err)
		}
		opts = badger.DefaultOptions(dbDir)
	}
	opts.Logger = badgerLogger{o.Logger.With().Str("component", "badger").Logger()}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open journal: %w", err)
	}

	return &Storage{db: db, log: o.Logger}, nil
}

// Close closes the database
func (s *Storage) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func queryKey(fen string) []byte {
	key := make([]byte, len(prefixQuery)+8)
	copy(key, prefixQuery)
	binary.BigEndian.PutUint64(key[len(prefixQuery):], xxhash.Sum64String(strings.TrimSpace(fen)))
	return key
}

// RecordQuery stores rec, replacing any earlier record for the same FEN.
func (s *Storage) RecordQuery(rec QueryRecord) error {
	if rec.At.IsZero() {
		rec.At = time.Now()
	}

	data, err := json.Marshal(rec)
	if err != nil {
		return err
	}

	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(queryKey(rec.FEN), data)
	})
}

// LookupQuery returns the last record stored for fen.
func (s *Storage) LookupQuery(fen string) (*QueryRecord, bool, error) {
	var rec QueryRecord
	found := false

	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(queryKey(fen))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}

		return item.Value(func(val []byte) error {
			if err := json.Unmarshal(val, &rec); err != nil {
				return err
			}
			// Hash collision: a different position owns this key.
			found = rec.FEN == strings.TrimSpace(fen)
			return nil
		})
	})
	if err != nil || !found {
		return nil, false, err
	}

	return &rec, true, nil
}

// QueryCount returns the number of journaled positions.
func (s *Storage) QueryCount() (int, error) {
	n := 0
	err := s.db.View(func(txn *badger.Txn) error {
		prefix := []byte(prefixQuery)
		it := txn.NewIterator(badger.IteratorOptions{Prefix: prefix})
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			n++
		}
		return nil
	})
	return n, err
}

// SaveStats saves game statistics
func (s *Storage) SaveStats(stats *GameStats) error {
	data, err := json.Marshal(stats)
	if err != nil {
		return err
	}

	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(keyStats), data)
	})
}

// LoadStats loads game statistics, returns empty stats if not found
func (s *Storage) LoadStats() (*GameStats, error) {
	stats := NewGameStats()

	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(keyStats))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil // Use empty stats
		}
		if err != nil {
			return err
		}

		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, stats)
		})
	})
	if stats.DrawsByMethod == nil {
		stats.DrawsByMethod = make(map[string]int)
	}

	return stats, err
}

// RecordGame records a completed game and updates statistics
func (s *Storage) RecordGame(result GameResult) error {
	stats, err := s.LoadStats()
	if err != nil {
		return err
	}

	stats.GamesPlayed++
	stats.TotalPlies += result.Plies
	stats.TotalPlayTime += result.Duration

	switch result.Outcome {
	case "1-0":
		stats.Wins++
		stats.CurrentStreak++
		if stats.CurrentStreak > stats.LongestWinStrk {
			stats.LongestWinStrk = stats.CurrentStreak
		}
	case "0-1":
		stats.Losses++
		stats.CurrentStreak = 0
	default:
		stats.Draws++
		stats.DrawsByMethod[result.Method]++
		stats.CurrentStreak = 0
	}

	s.log.Debug().
		Str("outcome", result.Outcome).
		Str("method", result.Method).
		Int("games", stats.GamesPlayed).
		Msg("game recorded")

	return s.SaveStats(stats)
}

// GetWinRate returns the win rate as a percentage (0-100)
func (s *GameStats) GetWinRate() float64 {
	if s.GamesPlayed == 0 {
		return 0
	}
	return float64(s.Wins) / float64(s.GamesPlayed) * 100
}

// badgerLogger routes badger's log output through zerolog.
type badgerLogger struct {
	l zerolog.Logger
}

func (b badgerLogger) Errorf(format string, args ...interface{}) {
	b.l.Error().Msgf(strings.TrimSpace(format), args...)
}

func (b badgerLogger) Warningf(format string, args ...interface{}) {
	b.l.Warn().Msgf(strings.TrimSpace(format), args...)
}

func (b badgerLogger) Infof(format string, args ...interface{}) {
	b.l.Debug().Msgf(strings.TrimSpace(format), args...)
}

func (b badgerLogger) Debugf(format string, args ...interface{}) {
	b.l.Trace().Msgf(strings.TrimSpace(format), args...)
}
