package main

import "fmt"

// MatchPhase is the round/match lifecycle state.
type MatchPhase int

const (
	PhaseWaiting      MatchPhase = 0
	PhaseActive       MatchPhase = 1
	PhaseIntermission MatchPhase = 2
	PhaseCompleted    MatchPhase = 3
)

// Round end reasons, relayed to clients verbatim.
const (
	EndElimination = "elimination"
	EndTimeout     = "timeout"
	EndDraw        = "draw"
)

const (
	RoundDuration        = 90.0 // seconds
	IntermissionDuration = 5.0
	DefaultRoundsToWin   = 3
	DefaultMaxRounds     = 5
	spawnSearchRadius    = 6.0
)

// RoundState tracks per-match round progression and score.
// Mutated only through the lifecycle transitions below.
type RoundState struct {
	Phase            MatchPhase
	Round            int
	MaxRounds        int
	RoundsToWin      int
	TimeLeft         float64
	IntermissionLeft float64
	Score1           int
	Score2           int
	WinnerID         string
}

func newRoundState() RoundState {
	return RoundState{
		Phase:       PhaseWaiting,
		Round:       1,
		MaxRounds:   DefaultMaxRounds,
		RoundsToWin: DefaultRoundsToWin,
		TimeLeft:    RoundDuration,
	}
}

// spawnPlayer places a player at their team spawn, falling back to the
// nearest valid position, then the arena center.
func (m *Match) spawnPlayer(p *Player) {
	sp, ok := m.arena.SpawnForTeam(p.Team)
	if !ok {
		cx, cy := m.arena.Center()
		sp = SpawnPoint{X: cx, Y: cy}
	}
	if !IsValidPosition(sp.X, sp.Y, m.arena, PlayerRadius) {
		if x, y, found := FindNearestValidPosition(sp.X, sp.Y, m.arena, PlayerRadius, spawnSearchRadius); found {
			sp.X, sp.Y = x, y
		} else {
			sp.X, sp.Y = m.arena.Center()
		}
	}
	p.ResetForRound(sp)
}

// startRound transitions into Active: fresh timer, cleared projectiles,
// both players respawned at full strength.
func (m *Match) startRound() {
	m.round.Phase = PhaseActive
	m.round.TimeLeft = RoundDuration
	m.projectiles = make(map[string]*Projectile)
	m.spawnPlayer(m.p1)
	m.spawnPlayer(m.p2)
	m.notifyAll(Envelope{T: MsgRoundStart, Data: RoundStartMsg{
		Round:    m.round.Round,
		Duration: RoundDuration,
	}})
}

// advanceLifecycle runs one tick of the round state machine. It must run
// after hit resolution so eliminations from this tick are visible.
func (m *Match) advanceLifecycle(dt float64) {
	switch m.round.Phase {
	case PhaseWaiting:
		// Hold the first round until a transport is attached, so the
		// round_start and opening frame reach somebody
		if len(m.clients) > 0 {
			m.startRound()
		}

	case PhaseActive:
		m.round.TimeLeft -= dt

		p1Alive := m.p1.Alive
		p2Alive := m.p2.Alive
		switch {
		case !p1Alive && !p2Alive:
			m.endRound(EndDraw, "")
		case !p2Alive:
			m.endRound(EndElimination, m.p1.ID)
		case !p1Alive:
			m.endRound(EndElimination, m.p2.ID)
		case m.round.TimeLeft <= 0:
			m.round.TimeLeft = 0
			// Timeout: higher health wins, exact tie is a draw
			switch {
			case m.p1.Health > m.p2.Health:
				m.endRound(EndTimeout, m.p1.ID)
			case m.p2.Health > m.p1.Health:
				m.endRound(EndTimeout, m.p2.ID)
			default:
				m.endRound(EndTimeout, "")
			}
		}

	case PhaseIntermission:
		m.round.IntermissionLeft -= dt
		if m.round.IntermissionLeft <= 0 {
			m.round.Round++
			m.startRound()
		}

	case PhaseCompleted:
		// Terminal; the orchestrator stops the ticker
	}
}

// awardRound increments the winner's score. An id that is not one of the
// two participants is an integration error and must not touch the score.
func (m *Match) awardRound(winnerID string) error {
	switch winnerID {
	case "":
		return nil // draw, nobody scores
	case m.p1.ID:
		m.round.Score1++
	case m.p2.ID:
		m.round.Score2++
	default:
		return fmt.Errorf("round winner %q is not a participant of match %s", winnerID, m.ID)
	}
	return nil
}

// endRound tallies the score and decides round-vs-match completion.
func (m *Match) endRound(reason, winnerID string) {
	if err := m.awardRound(winnerID); err != nil {
		// Programming error upstream; keep the score untouched and
		// treat the round as a draw rather than corrupting the match
		m.logf("match %s: %v", m.ID, err)
		winnerID = ""
	}

	// Shots in flight die with the round; nothing keeps hitting the winner
	m.projectiles = make(map[string]*Projectile)

	m.notifyAll(Envelope{T: MsgRoundEnd, Data: RoundEndMsg{
		Round:    m.round.Round,
		Reason:   reason,
		WinnerID: winnerID,
		Score1:   m.round.Score1,
		Score2:   m.round.Score2,
	}})

	switch {
	case m.round.Score1 >= m.round.RoundsToWin:
		m.complete(m.p1.ID)
	case m.round.Score2 >= m.round.RoundsToWin:
		m.complete(m.p2.ID)
	case m.round.Round >= m.round.MaxRounds:
		// Out of rounds: the score leader takes the match, a tie ends
		// without a winner
		switch {
		case m.round.Score1 > m.round.Score2:
			m.complete(m.p1.ID)
		case m.round.Score2 > m.round.Score1:
			m.complete(m.p2.ID)
		default:
			m.complete("")
		}
	default:
		m.round.Phase = PhaseIntermission
		m.round.IntermissionLeft = IntermissionDuration
	}
}
