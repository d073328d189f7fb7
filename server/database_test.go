package main

import (
	"path/filepath"
	"testing"
	"time"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := OpenDB(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestCreateAndLookupAccount(t *testing.T) {
	db := openTestDB(t)

	id, err := db.CreateAccount("alice", "hash")
	if err != nil {
		t.Fatalf("create account: %v", err)
	}
	if id <= 0 {
		t.Fatalf("bad account id %d", id)
	}

	acct, err := db.GetAccountByUsername("alice")
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if acct == nil || acct.ID != id || acct.PassHash != "hash" {
		t.Errorf("account wrong: %+v", acct)
	}

	missing, err := db.GetAccountByUsername("nobody")
	if err != nil || missing != nil {
		t.Errorf("missing account should be (nil, nil), got (%v, %v)", missing, err)
	}

	exists, err := db.UsernameExists("alice")
	if err != nil || !exists {
		t.Error("username should exist")
	}
	if _, err := db.CreateAccount("alice", "other"); err == nil {
		t.Error("duplicate username should fail")
	}
}

func TestAccountGetsStatsRow(t *testing.T) {
	db := openTestDB(t)
	id, _ := db.CreateAccount("bob", "hash")

	stats, err := db.GetStats(id)
	if err != nil {
		t.Fatalf("get stats: %v", err)
	}
	if stats == nil || stats.Wins != 0 || stats.Losses != 0 {
		t.Errorf("fresh stats should be zeroed: %+v", stats)
	}
}

func TestUpdateStatsAfterMatch(t *testing.T) {
	db := openTestDB(t)
	id, _ := db.CreateAccount("carol", "hash")

	if err := db.UpdateStatsAfterMatch(id, true, 3, 1, 3, 210, 180.5); err != nil {
		t.Fatalf("update stats: %v", err)
	}
	if err := db.UpdateStatsAfterMatch(id, false, 0, 3, 1, 80, 95.0); err != nil {
		t.Fatalf("update stats: %v", err)
	}

	s, err := db.GetStats(id)
	if err != nil {
		t.Fatalf("get stats: %v", err)
	}
	if s.Wins != 1 || s.Losses != 1 {
		t.Errorf("record wrong: %d-%d", s.Wins, s.Losses)
	}
	if s.RoundsWon != 3 || s.RoundsLost != 4 {
		t.Errorf("rounds wrong: %d-%d", s.RoundsWon, s.RoundsLost)
	}
	if s.Kills != 4 || s.DamageDealt != 290 {
		t.Errorf("combat totals wrong: kills=%d dmg=%d", s.Kills, s.DamageDealt)
	}
	if s.Playtime < 275 || s.Playtime > 276 {
		t.Errorf("playtime wrong: %v", s.Playtime)
	}
}

func TestMatchSummaryRoundTrip(t *testing.T) {
	db := openTestDB(t)

	s := MatchSummary{
		MatchID:  "match-1",
		P1:       "u1",
		P2:       "u2",
		Score1:   3,
		Score2:   1,
		WinnerID: "u1",
		Duration: 247.3,
		EndedAt:  time.Now().UTC(),
	}
	if err := db.InsertMatchSummary(s); err != nil {
		t.Fatalf("insert summary: %v", err)
	}

	hist, err := db.GetMatchHistory("u1", 10)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(hist) != 1 {
		t.Fatalf("expected 1 match, got %d", len(hist))
	}
	got := hist[0]
	if got.MatchID != "match-1" || got.WinnerID != "u1" || got.Score1 != 3 || got.Score2 != 1 {
		t.Errorf("summary mangled: %+v", got)
	}

	// Both participants see the match
	hist, _ = db.GetMatchHistory("u2", 10)
	if len(hist) != 1 {
		t.Errorf("p2 should see the match too, got %d", len(hist))
	}
	hist, _ = db.GetMatchHistory("u3", 10)
	if len(hist) != 0 {
		t.Errorf("bystander should see nothing, got %d", len(hist))
	}
}

func TestSettingsRoundTrip(t *testing.T) {
	db := openTestDB(t)

	if v := db.GetSetting("missing"); v != "" {
		t.Errorf("missing setting should be empty, got %q", v)
	}
	if err := db.SetSetting("k", "v1"); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := db.SetSetting("k", "v2"); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	if v := db.GetSetting("k"); v != "v2" {
		t.Errorf("expected v2, got %q", v)
	}
}
