package main

import (
	"time"

	"github.com/vmihailenco/msgpack/v5"
)

const (
	// Periodic resync bounds drift even when every delta arrives
	fullSyncInterval = 150 // ticks (5s at 30 Hz)
	// A client this many frames behind its last ack gets a forced full frame
	ackGapLimit = 90
)

// SyncState tracks everything needed to produce full or delta frames for
// one match: the monotonic sequence, the shadow baseline the next delta is
// computed against, and the per-client acknowledged sequence numbers.
// All methods run under the owning match's lock.
type SyncState struct {
	matchID string

	seq          uint64
	haveBaseline bool
	lastFullTick uint64

	shadowPlayers     map[string]PlayerState
	shadowProjectiles map[string]ProjectileState
	shadowRound       RoundInfo

	acks map[string]uint64
}

// NewSyncState creates sync tracking for a match.
func NewSyncState(matchID string) *SyncState {
	return &SyncState{
		matchID:           matchID,
		shadowPlayers:     make(map[string]PlayerState),
		shadowProjectiles: make(map[string]ProjectileState),
		acks:              make(map[string]uint64),
	}
}

// TrackClientSequence records the latest frame a client has confirmed.
// Sequence numbers only move forward; a stale ack is ignored.
func (s *SyncState) TrackClientSequence(playerID string, seq uint64) {
	if seq > s.seq {
		return // cannot ack a frame that was never sent
	}
	if seq > s.acks[playerID] {
		s.acks[playerID] = seq
	}
}

// ShouldSendFullSync decides whether the next frame must be a full
// snapshot: no baseline yet, the periodic resync interval elapsed, or an
// attached client's last ack is unknown or too far behind.
func (s *SyncState) ShouldSendFullSync(tick uint64, clientIDs []string) bool {
	if !s.haveBaseline {
		return true
	}
	if tick-s.lastFullTick >= fullSyncInterval {
		return true
	}
	for _, id := range clientIDs {
		acked, ok := s.acks[id]
		if !ok {
			acked = 0
		}
		if s.seq-acked > ackGapLimit {
			return true
		}
	}
	return false
}

// NextFrame builds and encodes the next sync frame for the match, either
// full or delta, and advances the shadow baseline.
func (s *SyncState) NextFrame(m *Match) ([]byte, error) {
	clientIDs := make([]string, 0, len(m.clients))
	for id := range m.clients {
		clientIDs = append(clientIDs, id)
	}

	var frame SyncFrame
	if s.ShouldSendFullSync(m.tick, clientIDs) {
		frame = s.buildFull(m)
	} else {
		frame = s.buildDelta(m)
	}
	return msgpack.Marshal(&frame)
}

func (s *SyncState) nextSeq() uint64 {
	s.seq++
	return s.seq
}

func roundInfo(r RoundState) RoundInfo {
	return RoundInfo{
		Phase:    int(r.Phase),
		Round:    r.Round,
		TimeLeft: r.TimeLeft,
		Score1:   r.Score1,
		Score2:   r.Score2,
		WinnerID: r.WinnerID,
	}
}

// buildFull serializes every player, every projectile and the round state,
// and resets the delta baseline.
func (s *SyncState) buildFull(m *Match) SyncFrame {
	ri := roundInfo(m.round)
	frame := SyncFrame{
		MatchID:    s.matchID,
		Seq:        s.nextSeq(),
		ServerTime: time.Now().UnixMilli(),
		Full:       true,
		Players:    []PlayerState{m.p1.ToState(), m.p2.ToState()},
		Round:      &ri,
	}
	frame.Projectiles = make([]ProjectileState, 0, len(m.projectiles))
	for _, pr := range m.projectiles {
		frame.Projectiles = append(frame.Projectiles, projectileState(pr))
	}

	s.resetBaseline(frame, ri)
	s.lastFullTick = m.tick
	s.haveBaseline = true
	return frame
}

// buildDelta computes field-level differences against the shadow baseline.
// Removed projectiles are listed by id so loss of an earlier frame can
// never be mistaken for removal.
func (s *SyncState) buildDelta(m *Match) SyncFrame {
	frame := SyncFrame{
		MatchID:    s.matchID,
		Seq:        s.nextSeq(),
		ServerTime: time.Now().UnixMilli(),
	}

	for _, p := range []*Player{m.p1, m.p2} {
		cur := p.ToState()
		if d, changed := diffPlayer(s.shadowPlayers[p.ID], cur); changed {
			frame.PlayerDeltas = append(frame.PlayerDeltas, d)
		}
		s.shadowPlayers[p.ID] = cur
	}

	seen := make(map[string]bool, len(m.projectiles))
	for id, pr := range m.projectiles {
		seen[id] = true
		cur := projectileState(pr)
		if prev, ok := s.shadowProjectiles[id]; !ok || prev != cur {
			frame.Projectiles = append(frame.Projectiles, cur)
		}
		s.shadowProjectiles[id] = cur
	}
	for id := range s.shadowProjectiles {
		if !seen[id] {
			frame.RemovedProjectiles = append(frame.RemovedProjectiles, id)
			delete(s.shadowProjectiles, id)
		}
	}

	if ri := roundInfo(m.round); ri != s.shadowRound {
		frame.Round = &ri
		s.shadowRound = ri
	}
	return frame
}

func (s *SyncState) resetBaseline(frame SyncFrame, ri RoundInfo) {
	s.shadowPlayers = make(map[string]PlayerState, len(frame.Players))
	for _, ps := range frame.Players {
		s.shadowPlayers[ps.ID] = ps
	}
	s.shadowProjectiles = make(map[string]ProjectileState, len(frame.Projectiles))
	for _, ps := range frame.Projectiles {
		s.shadowProjectiles[ps.ID] = ps
	}
	s.shadowRound = ri
}

func projectileState(pr *Projectile) ProjectileState {
	return ProjectileState{
		ID:    pr.ID,
		Type:  int(pr.Type),
		Owner: pr.OwnerID,
		X:     round1(pr.X),
		Y:     round1(pr.Y),
		R:     round1(pr.Rotation),
	}
}

// diffPlayer returns the field-level delta from prev to cur.
func diffPlayer(prev, cur PlayerState) (PlayerDelta, bool) {
	d := PlayerDelta{ID: cur.ID}
	changed := false

	setF := func(dst **float64, a, b float64) {
		if a != b {
			v := b
			*dst = &v
			changed = true
		}
	}
	setI := func(dst **int, a, b int) {
		if a != b {
			v := b
			*dst = &v
			changed = true
		}
	}
	setB := func(dst **bool, a, b bool) {
		if a != b {
			v := b
			*dst = &v
			changed = true
		}
	}

	setF(&d.X, prev.X, cur.X)
	setF(&d.Y, prev.Y, cur.Y)
	setF(&d.R, prev.R, cur.R)
	setF(&d.VX, prev.VX, cur.VX)
	setF(&d.VY, prev.VY, cur.VY)
	setI(&d.Health, prev.Health, cur.Health)
	setI(&d.Armor, prev.Armor, cur.Armor)
	setB(&d.Alive, prev.Alive, cur.Alive)
	setB(&d.Moving, prev.Moving, cur.Moving)
	setI(&d.Kills, prev.Kills, cur.Kills)
	setI(&d.Damage, prev.Damage, cur.Damage)
	setI(&d.Charges, prev.Charges, cur.Charges)

	return d, changed
}
