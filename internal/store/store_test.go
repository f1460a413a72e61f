package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/vaultcoh/vault"
	"github.com/vaultcoh/vault/internal/replaytest"
)

func parse(t *testing.T, o replaytest.Options) (string, *vault.Replay) {
	t.Helper()
	data := replaytest.Build(o)
	rep, err := vault.Parse(data)
	if err != nil {
		t.Fatalf("vault.Parse() error = %v", err)
	}
	return Key(data), rep
}

func openStore(t *testing.T, path string) *Store {
	t.Helper()
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	return s
}

func TestSaveGet(t *testing.T) {
	ctx := context.Background()
	s := openStore(t, filepath.Join(t.TempDir(), "vault.db"))
	defer s.Close()

	key, rep := parse(t, replaytest.Options{MatchID: 150656, Commands: 160})
	if s.Seen(150656) {
		t.Error("Seen() before Save() = true")
	}

	saved, err := s.Save(ctx, key, rep)
	if err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if !s.Seen(150656) {
		t.Error("Seen() after Save() = false")
	}

	got, err := s.Get(ctx, key)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.MatchHistoryID != 150656 || got.Version != 8369 || got.Length != 20 ||
		got.Timestamp != "2023-02-23 21:18" || got.MapFilename != saved.MapFilename {
		t.Errorf("Get() = %+v", got)
	}
	if len(got.Players) != 2 || got.Players[1].Name != "Patton" || got.Players[1].Faction != vault.Americans {
		t.Errorf("Get() players = %+v", got.Players)
	}

	if _, err := s.Get(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get(missing) error = %v, want ErrNotFound", err)
	}
}

func TestList(t *testing.T) {
	ctx := context.Background()
	s := openStore(t, filepath.Join(t.TempDir(), "vault.db"))
	defer s.Close()

	for _, id := range []uint64{5, 9, 7} {
		key, rep := parse(t, replaytest.Options{MatchID: id})
		if _, err := s.Save(ctx, key, rep); err != nil {
			t.Fatalf("Save() error = %v", err)
		}
	}
	// Saving the same replay again replaces it.
	key, rep := parse(t, replaytest.Options{MatchID: 9})
	if _, err := s.Save(ctx, key, rep); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	records, err := s.List(ctx)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("List() = %d records, want 3", len(records))
	}
	for i, want := range []uint64{9, 7, 5} {
		if records[i].MatchHistoryID != want {
			t.Errorf("record %d match = %d, want %d", i, records[i].MatchHistoryID, want)
		}
	}
}

func TestSeenAfterReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "vault.db")

	s := openStore(t, path)
	key, rep := parse(t, replaytest.Options{MatchID: 42})
	if _, err := s.Save(ctx, key, rep); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	s.Close()

	s = openStore(t, path)
	defer s.Close()
	if !s.Seen(42) {
		t.Error("Seen() after reopen = false")
	}
	if s.Seen(0) {
		t.Error("Seen(0) = true")
	}
}

func TestIndexedFalsePositive(t *testing.T) {
	ctx := context.Background()
	s := openStore(t, filepath.Join(t.TempDir(), "vault.db"))
	defer s.Close()

	// A filter hit with no row behind it.
	s.matches.AddString("99")
	if !s.Seen(99) {
		t.Fatal("Seen(99) = false after adding it to the filter")
	}
	if ok, err := s.Indexed(ctx, 99); err != nil || ok {
		t.Errorf("Indexed(99) = %v, %v; want false", ok, err)
	}

	key, rep := parse(t, replaytest.Options{MatchID: 99})
	if _, err := s.Save(ctx, key, rep); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if ok, err := s.Indexed(ctx, 99); err != nil || !ok {
		t.Errorf("Indexed(99) after Save() = %v, %v; want true", ok, err)
	}
	if ok, err := s.Indexed(ctx, 0); err != nil || ok {
		t.Errorf("Indexed(0) = %v, %v; want false", ok, err)
	}
}
