package main

import (
	"testing"
	"time"
)

// killPlayer eliminates a player directly, as a resolved hit would.
func killPlayer(p *Player) {
	p.Health = 0
	p.Alive = false
}

func TestEliminationEndsRound(t *testing.T) {
	m, out1, _ := newTestMatch(t, ClassDuelist, ClassDuelist)
	m.Tick()

	killPlayer(m.p2)
	m.Tick()

	if m.round.Score1 != 1 || m.round.Score2 != 0 {
		t.Fatalf("score wrong: %d-%d", m.round.Score1, m.round.Score2)
	}
	if m.round.Phase != PhaseIntermission {
		t.Fatalf("expected intermission, got %v", m.round.Phase)
	}
	ends := out1.eventsOfType(MsgRoundEnd)
	if len(ends) != 1 {
		t.Fatalf("expected one round end event, got %d", len(ends))
	}
	end := ends[0].Data.(RoundEndMsg)
	if end.Reason != EndElimination || end.WinnerID != "p1" {
		t.Errorf("round end wrong: %+v", end)
	}
}

func TestDoubleEliminationIsDraw(t *testing.T) {
	m, _, _ := newTestMatch(t, ClassDuelist, ClassDuelist)
	m.Tick()

	killPlayer(m.p1)
	killPlayer(m.p2)
	m.Tick()

	if m.round.Score1 != 0 || m.round.Score2 != 0 {
		t.Errorf("draw must not score: %d-%d", m.round.Score1, m.round.Score2)
	}
	if m.round.Phase != PhaseIntermission {
		t.Errorf("draw still ends the round, got %v", m.round.Phase)
	}
}

func TestIntermissionLeadsToNextRound(t *testing.T) {
	m, _, _ := newTestMatch(t, ClassDuelist, ClassDuelist)
	m.Tick()

	m.Attack("p1", 20, 15)
	killPlayer(m.p2)
	m.Tick()
	if m.round.Phase != PhaseIntermission {
		t.Fatal("round should be over")
	}

	stepSeconds(m, IntermissionDuration+0.5)

	if m.round.Phase != PhaseActive {
		t.Fatalf("next round should be active, got %v", m.round.Phase)
	}
	if m.round.Round != 2 {
		t.Errorf("expected round 2, got %d", m.round.Round)
	}
	if !m.p2.Alive || m.p2.Health != GetClassDef(ClassDuelist).MaxHealth {
		t.Error("players should respawn at full strength")
	}
	if len(m.projectiles) != 0 {
		t.Error("projectiles should be cleared at round start")
	}
	if m.round.TimeLeft > RoundDuration || m.round.TimeLeft < RoundDuration-1 {
		t.Errorf("round timer should reset, got %v", m.round.TimeLeft)
	}
}

func TestRoundEndClearsInFlightProjectiles(t *testing.T) {
	m, _, _ := newTestMatch(t, ClassDuelist, ClassDuelist)
	m.Tick()

	if !m.Attack("p2", 5, 15) {
		t.Fatal("attack rejected")
	}
	if len(m.projectiles) == 0 {
		t.Fatal("projectile should be in flight")
	}
	killPlayer(m.p2)
	m.Tick()

	if m.round.Phase != PhaseIntermission {
		t.Fatalf("round should be over, got %v", m.round.Phase)
	}
	if len(m.projectiles) != 0 {
		t.Errorf("shots must die with the round, %d still in flight", len(m.projectiles))
	}
}

func TestNoHitsResolveDuringIntermission(t *testing.T) {
	m, out1, _ := newTestMatch(t, ClassDuelist, ClassDuelist)
	m.Tick()
	m.round.Phase = PhaseIntermission
	m.round.IntermissionLeft = IntermissionDuration

	// A shot parked next to p1 must not land between rounds
	pr := NewProjectile(ProjBolt, m.p2, 0, 20)
	pr.X, pr.Y = m.p1.X-0.1, m.p1.Y
	pr.VX, pr.VY = 0, 0
	m.projectiles[pr.ID] = pr
	before := m.p1.Health

	m.Tick()

	if m.p1.Health != before {
		t.Errorf("health changed between rounds: %d -> %d", before, m.p1.Health)
	}
	if out1.hasEvent(MsgHit) {
		t.Error("no hit events between rounds")
	}
}

func TestRoundWaitsForAttachedClient(t *testing.T) {
	arena, err := NewArenaRegistry().Lookup(DefaultArenaKey)
	if err != nil {
		t.Fatalf("lookup arena: %v", err)
	}
	m := NewMatch("m-wait", arena,
		PlayerSpec{ID: "p1", Class: ClassDuelist},
		PlayerSpec{ID: "p2", Class: ClassDuelist},
	)
	m.Tick()
	m.Tick()
	if m.round.Phase != PhaseWaiting {
		t.Fatalf("no transport attached, round must not start, got %v", m.round.Phase)
	}

	out := &fakeOutbound{}
	m.SetClient("p1", out)
	m.Tick()
	if m.round.Phase != PhaseActive {
		t.Fatalf("round should start once a transport is attached, got %v", m.round.Phase)
	}
	if !out.hasEvent(MsgRoundStart) {
		t.Error("the attached client should hear the round start")
	}
}

func TestTimeoutHigherHealthWins(t *testing.T) {
	m, out1, _ := newTestMatch(t, ClassDuelist, ClassDuelist)
	m.Tick()

	m.p1.Health = 40
	m.p2.Health = 80
	m.round.TimeLeft = 0.01
	m.Tick()

	if m.round.Score2 != 1 || m.round.Score1 != 0 {
		t.Fatalf("higher health should take the round: %d-%d", m.round.Score1, m.round.Score2)
	}
	ends := out1.eventsOfType(MsgRoundEnd)
	if len(ends) != 1 || ends[0].Data.(RoundEndMsg).Reason != EndTimeout {
		t.Error("timeout reason should be reported")
	}
}

func TestTimeoutExactTieIsDraw(t *testing.T) {
	m, _, _ := newTestMatch(t, ClassDuelist, ClassDuelist)
	m.Tick()

	m.p1.Health = 50
	m.p2.Health = 50
	m.round.TimeLeft = 0.01
	m.Tick()

	if m.round.Score1 != 0 || m.round.Score2 != 0 {
		t.Errorf("exact tie must not score: %d-%d", m.round.Score1, m.round.Score2)
	}
}

func TestMatchCompletesAtRoundsToWin(t *testing.T) {
	m, out1, _ := newTestMatch(t, ClassDuelist, ClassDuelist)
	done := make(chan MatchSummary, 1)
	m.onComplete = func(s MatchSummary) { done <- s }
	m.Tick()

	m.round.Score1 = DefaultRoundsToWin - 1
	killPlayer(m.p2)
	m.Tick()

	if m.Phase() != PhaseCompleted {
		t.Fatalf("match should complete, got %v", m.Phase())
	}
	if !out1.hasEvent(MsgMatchEnd) {
		t.Error("match end should be announced")
	}

	select {
	case s := <-done:
		if s.WinnerID != "p1" || s.Score1 != DefaultRoundsToWin {
			t.Errorf("summary wrong: %+v", s)
		}
	case <-time.After(time.Second):
		t.Fatal("completion summary never arrived")
	}

	// Terminal state absorbs further ticks
	tick := m.tick
	m.Tick()
	if m.tick != tick {
		t.Error("completed match must not advance")
	}
}

func TestMaxRoundsExhaustedTieEndsWithoutWinner(t *testing.T) {
	m, _, _ := newTestMatch(t, ClassDuelist, ClassDuelist)
	m.Tick()

	m.round.Round = m.round.MaxRounds
	m.round.Score1 = 1
	m.round.Score2 = 1
	killPlayer(m.p1)
	killPlayer(m.p2)
	m.Tick()

	if m.Phase() != PhaseCompleted {
		t.Fatalf("out of rounds should complete the match, got %v", m.Phase())
	}
	if m.round.WinnerID != "" {
		t.Errorf("tie should have no winner, got %q", m.round.WinnerID)
	}
}

func TestMaxRoundsExhaustedLeaderWins(t *testing.T) {
	m, _, _ := newTestMatch(t, ClassDuelist, ClassDuelist)
	m.Tick()

	m.round.Round = m.round.MaxRounds
	m.round.Score1 = 2
	m.round.Score2 = 1
	killPlayer(m.p1)
	killPlayer(m.p2)
	m.Tick()

	if m.Phase() != PhaseCompleted || m.round.WinnerID != "p1" {
		t.Errorf("score leader should take the match: phase=%v winner=%q", m.Phase(), m.round.WinnerID)
	}
}

func TestAwardRoundRejectsNonParticipant(t *testing.T) {
	m, _, _ := newTestMatch(t, ClassDuelist, ClassDuelist)

	if err := m.awardRound("stranger"); err == nil {
		t.Fatal("non-participant winner should error")
	}
	if m.round.Score1 != 0 || m.round.Score2 != 0 {
		t.Error("score must stay untouched on a bad award")
	}
	if err := m.awardRound(""); err != nil {
		t.Errorf("draw award should be fine: %v", err)
	}
}

func TestSpawnFallsBackWhenBlocked(t *testing.T) {
	// An arena whose team spawn sits on a wall forces the nearest-valid search
	arena := &Arena{
		Key: "blocked", Width: 20, Height: 20,
		Walls:  []Wall{{X1: 4, Y1: 5, X2: 6, Y2: 5}},
		Spawns: []SpawnPoint{{X: 5, Y: 5, Team: 1}, {X: 15, Y: 15, Team: 2}},
	}
	m := NewMatch("m-blocked", arena,
		PlayerSpec{ID: "p1", Class: ClassDuelist},
		PlayerSpec{ID: "p2", Class: ClassDuelist},
	)
	m.SetClient("p1", &fakeOutbound{})
	m.Tick()

	if !IsValidPosition(m.p1.X, m.p1.Y, arena, PlayerRadius) {
		t.Errorf("p1 spawned in an invalid spot: (%v, %v)", m.p1.X, m.p1.Y)
	}
	if Distance(m.p1.X, m.p1.Y, 5, 5) > spawnSearchRadius {
		t.Errorf("p1 should spawn near its team point: (%v, %v)", m.p1.X, m.p1.Y)
	}
}
