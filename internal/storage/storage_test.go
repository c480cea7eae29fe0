package storage

import (
	"os"
	"testing"
	"time"
)

func openTest(t *testing.T) *Storage {
	t.Helper()
	s, err := Open(Options{InMemory: true})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestQueryJournal(t *testing.T) {
	s := openTest(t)
	fen := "4k3/8/2p5/3n4/8/4N3/8/4K3 w - - 0 1"

	if _, found, err := s.LookupQuery(fen); err != nil || found {
		t.Fatalf("LookupQuery on empty journal = %v, %v", found, err)
	}

	rec := QueryRecord{
		FEN:        fen,
		Move:       "e3d5",
		Score:      -100,
		Candidates: []string{"e3d5"},
		Depth:      4,
		Nodes:      12345,
		Elapsed:    15 * time.Millisecond,
	}
	if err := s.RecordQuery(rec); err != nil {
		t.Fatalf("RecordQuery: %v", err)
	}

	got, found, err := s.LookupQuery(fen + "\n")
	if err != nil || !found {
		t.Fatalf("LookupQuery = %v, %v", found, err)
	}
	if got.Move != "e3d5" || got.Score != -100 || got.Nodes != 12345 || got.Elapsed != 15*time.Millisecond {
		t.Errorf("LookupQuery = %+v", got)
	}
	if got.At.IsZero() {
		t.Error("record time not set")
	}

	// A second answer for the same position replaces the first.
	rec.Move = "e3c2"
	if err := s.RecordQuery(rec); err != nil {
		t.Fatal(err)
	}
	if err := s.RecordQuery(QueryRecord{FEN: "4k3/8/8/8/8/8/8/4K3 w - - 0 1", Move: "0000"}); err != nil {
		t.Fatal(err)
	}
	n, err := s.QueryCount()
	if err != nil || n != 2 {
		t.Errorf("QueryCount = %d, %v, want 2", n, err)
	}
	got, _, _ = s.LookupQuery(fen)
	if got.Move != "e3c2" {
		t.Errorf("Move = %s, want e3c2", got.Move)
	}
}

func TestRecordGame(t *testing.T) {
	s := openTest(t)

	games := []GameResult{
		{Outcome: "1-0", Method: "Checkmate", Plies: 31, Duration: time.Second},
		{Outcome: "1-0", Method: "Checkmate", Plies: 41, Duration: time.Second},
		{Outcome: "1/2-1/2", Method: "Stalemate", Plies: 60, Duration: time.Second},
		{Outcome: "1-0", Method: "Checkmate", Plies: 25, Duration: time.Second},
	}
	for _, g := range games {
		if err := s.RecordGame(g); err != nil {
			t.Fatalf("RecordGame: %v", err)
		}
	}

	stats, err := s.LoadStats()
	if err != nil {
		t.Fatal(err)
	}
	if stats.GamesPlayed != 4 || stats.Wins != 3 || stats.Draws != 1 || stats.Losses != 0 {
		t.Errorf("stats = %+v", stats)
	}
	if stats.DrawsByMethod["Stalemate"] != 1 {
		t.Errorf("DrawsByMethod = %v", stats.DrawsByMethod)
	}
	if stats.LongestWinStrk != 2 || stats.CurrentStreak != 1 {
		t.Errorf("streaks = %d longest, %d current", stats.LongestWinStrk, stats.CurrentStreak)
	}
	if stats.TotalPlies != 157 || stats.TotalPlayTime != 4*time.Second {
		t.Errorf("totals = %d plies, %v", stats.TotalPlies, stats.TotalPlayTime)
	}
	if rate := stats.GetWinRate(); rate != 75 {
		t.Errorf("Expected 75%% win rate, got %.2f%%", rate)
	}
}

func TestOpenDir(t *testing.T) {
	dir := t.TempDir()
	s, err := Open(Options{Dir: dir})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := s.RecordQuery(QueryRecord{FEN: "8/8/8/8/8/8/8/K6k w - - 0 1", Move: "a1a2"}); err != nil {
		t.Fatal(err)
	}
	if err := s.Close(); err != nil {
		t.Fatal(err)
	}

	s, err = Open(Options{Dir: dir})
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer s.Close()
	if _, found, err := s.LookupQuery("8/8/8/8/8/8/8/K6k w - - 0 1"); err != nil || !found {
		t.Errorf("record lost across reopen: %v, %v", found, err)
	}
}

func TestDataPaths(t *testing.T) {
	t.Setenv("CHESSBOT_DATA_DIR", t.TempDir())

	dataDir, err := GetDataDir()
	if err != nil {
		t.Fatalf("GetDataDir failed: %v", err)
	}
	if dataDir != os.Getenv("CHESSBOT_DATA_DIR") {
		t.Errorf("GetDataDir = %s, want the override", dataDir)
	}

	dbDir, err := GetDatabaseDir()
	if err != nil {
		t.Fatalf("GetDatabaseDir failed: %v", err)
	}
	if _, err := os.Stat(dbDir); os.IsNotExist(err) {
		t.Errorf("Journal directory was not created: %s", dbDir)
	}

	t.Logf("Journal directory: %s", dbDir)
}
