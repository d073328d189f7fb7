package main

import (
	"testing"

	"github.com/vmihailenco/msgpack/v5"
	"pgregory.net/rapid"
)

func decodeFrame(t *testing.T, data []byte) SyncFrame {
	t.Helper()
	var f SyncFrame
	if err := msgpack.Unmarshal(data, &f); err != nil {
		t.Fatalf("decode frame: %v", err)
	}
	return f
}

func nextFrame(t *testing.T, m *Match) SyncFrame {
	t.Helper()
	data, err := m.sync.NextFrame(m)
	if err != nil {
		t.Fatalf("build frame: %v", err)
	}
	return decodeFrame(t, data)
}

func TestFirstFrameIsFull(t *testing.T) {
	m, _, _ := newTestMatch(t, ClassDuelist, ClassBulwark)

	f := nextFrame(t, m)
	if !f.Full {
		t.Fatal("first frame must be a full snapshot")
	}
	if f.Seq != 1 {
		t.Errorf("sequence should start at 1, got %d", f.Seq)
	}
	if f.MatchID != m.ID {
		t.Errorf("frame match id wrong: %q", f.MatchID)
	}
	if len(f.Players) != 2 {
		t.Errorf("full frame carries both players, got %d", len(f.Players))
	}
	if f.Round == nil {
		t.Error("full frame carries round state")
	}
}

func TestDeltaCarriesOnlyChanges(t *testing.T) {
	m, _, _ := newTestMatch(t, ClassDuelist, ClassDuelist)
	m.Tick() // spawns both and sends the first full frame

	m.UpdatePosition("p1", 6, 15)
	m.UpdatePosition("p1", 6, 15) // settle implied velocity

	f := nextFrame(t, m)
	if f.Full {
		t.Fatal("second frame should be a delta")
	}
	if len(f.Players) != 0 {
		t.Error("deltas never carry full player records")
	}
	found := false
	for _, d := range f.PlayerDeltas {
		if d.ID == "p1" {
			found = true
			if d.X == nil || *d.X != 6 {
				t.Errorf("delta should carry the new x, got %+v", d.X)
			}
			if d.Health != nil {
				t.Error("unchanged health should be omitted")
			}
		}
		if d.ID == "p2" && d.X != nil {
			t.Error("unmoved player should not report position")
		}
	}
	if !found {
		t.Fatal("moved player missing from delta")
	}
}

func TestQuietTickProducesEmptyDelta(t *testing.T) {
	m, _, _ := newTestMatch(t, ClassDuelist, ClassDuelist)
	m.Tick()
	nextFrame(t, m) // flush the post-spawn delta

	f := nextFrame(t, m)
	if f.Full || len(f.PlayerDeltas) != 0 || len(f.Projectiles) != 0 {
		t.Errorf("nothing changed, frame should be empty: %+v", f)
	}
	if f.Round != nil {
		t.Error("unchanged round state should be omitted")
	}
}

func TestProjectileRemovalIsExplicit(t *testing.T) {
	m, _, _ := newTestMatch(t, ClassDuelist, ClassDuelist)
	m.Tick()
	if !m.Attack("p1", 20, 15) {
		t.Fatal("attack rejected")
	}

	f := nextFrame(t, m)
	if len(f.Projectiles) != 1 {
		t.Fatalf("new projectile should appear, got %d", len(f.Projectiles))
	}
	id := f.Projectiles[0].ID

	// Simulate the projectile disappearing between frames
	delete(m.projectiles, id)
	f = nextFrame(t, m)
	if len(f.RemovedProjectiles) != 1 || f.RemovedProjectiles[0] != id {
		t.Errorf("removal must be listed by id, got %v", f.RemovedProjectiles)
	}
}

func TestPeriodicFullResync(t *testing.T) {
	m, _, _ := newTestMatch(t, ClassDuelist, ClassDuelist)
	m.Tick()
	m.sync.TrackClientSequence("p1", m.sync.seq)
	m.sync.TrackClientSequence("p2", m.sync.seq)

	f := nextFrame(t, m)
	if f.Full {
		t.Fatal("expected a delta before the interval elapses")
	}

	m.tick += fullSyncInterval
	f = nextFrame(t, m)
	if !f.Full {
		t.Error("interval elapsed, expected a full snapshot")
	}
}

func TestLaggingAckForcesFullResync(t *testing.T) {
	m, _, _ := newTestMatch(t, ClassDuelist, ClassDuelist)
	m.Tick()

	// p2 keeps acking, p1 goes silent
	sawForcedFull := false
	for i := 0; i < ackGapLimit+5; i++ {
		f := nextFrame(t, m)
		m.sync.TrackClientSequence("p2", f.Seq)
		if f.Full {
			sawForcedFull = true
			break
		}
	}
	if !sawForcedFull {
		t.Error("a silent client should eventually force a full snapshot")
	}
}

func TestTrackClientSequenceRules(t *testing.T) {
	s := NewSyncState("m")
	s.seq = 10

	s.TrackClientSequence("p1", 7)
	if s.acks["p1"] != 7 {
		t.Errorf("valid ack not recorded: %d", s.acks["p1"])
	}
	s.TrackClientSequence("p1", 5)
	if s.acks["p1"] != 7 {
		t.Error("stale ack must not move the watermark backward")
	}
	s.TrackClientSequence("p1", 99)
	if s.acks["p1"] != 7 {
		t.Error("an ack for an unsent frame must be ignored")
	}
}

func TestSequenceStrictlyMonotonic(t *testing.T) {
	arena, err := NewArenaRegistry().Lookup(DefaultArenaKey)
	if err != nil {
		t.Fatalf("lookup arena: %v", err)
	}
	rapid.Check(t, func(t *rapid.T) {
		m := NewMatch("m-seq", arena,
			PlayerSpec{ID: "p1", Class: ClassDuelist},
			PlayerSpec{ID: "p2", Class: ClassDuelist},
		)
		m.SetClient("p1", &fakeOutbound{})
		m.SetClient("p2", &fakeOutbound{})
		m.Tick()

		last := m.sync.seq // the tick already emitted one frame
		steps := rapid.IntRange(2, 40).Draw(t, "steps")
		for i := 0; i < steps; i++ {
			switch rapid.IntRange(0, 3).Draw(t, "op") {
			case 0:
				x := rapid.Float64Range(1, 39).Draw(t, "x")
				y := rapid.Float64Range(1, 29).Draw(t, "y")
				m.UpdatePosition("p1", x, y)
			case 1:
				m.Attack("p2", 5, 15)
			case 2:
				m.sync.TrackClientSequence("p1", rapid.Uint64Range(0, last).Draw(t, "ack"))
			case 3:
				m.tick += rapid.Uint64Range(0, fullSyncInterval).Draw(t, "skip")
			}

			data, err := m.sync.NextFrame(m)
			if err != nil {
				t.Fatalf("frame: %v", err)
			}
			var f SyncFrame
			if err := msgpack.Unmarshal(data, &f); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if f.Seq != last+1 {
				t.Fatalf("sequence skipped: %d after %d", f.Seq, last)
			}
			last = f.Seq
		}
	})
}
