package main

import (
	"log"
	"math"
	"sync"
	"time"
)

const (
	TickRate     = 30 // simulation ticks per second
	TickDuration = time.Second / TickRate

	maxProjectilesPerMatch = 128

	DashCooldown = 3.0  // seconds
	DashImpulse  = 12.0 // tiles/s

	WardenBuffMultiplier = 1.5
	WardenBuffDuration   = 4.0

	shardVolleyCount  = 3
	shardVolleySpread = 0.25 // radians between shards
)

// Outbound is the send capability handed to a match for one participant.
// The simulation never holds a live network handle.
type Outbound interface {
	SendEvent(msg Envelope)  // control/notification messages
	SendFrame(data []byte)   // binary state frames
}

// MatchSummary is emitted exactly once when a match completes.
type MatchSummary struct {
	MatchID  string
	P1, P2   string
	Score1   int
	Score2   int
	Kills1   int
	Kills2   int
	Damage1  int
	Damage2  int
	WinnerID string
	Duration float64 // seconds
	EndedAt  time.Time
}

// PlayerSpec describes a participant at match creation.
type PlayerSpec struct {
	ID    string
	Name  string
	Class ClassType
}

// Match is the authoritative aggregate for one 1v1 match: players,
// projectiles, round state and arena reference. All mutation funnels
// through its mutex; one ticker goroutine drives the simulation.
type Match struct {
	mu sync.Mutex

	ID    string
	arena *Arena
	p1    *Player
	p2    *Player

	projectiles map[string]*Projectile
	round       RoundState
	clients     map[string]Outbound
	sync        *SyncState

	tick    uint64
	simTime float64

	stop     chan struct{}
	stopOnce sync.Once

	createdAt time.Time
	endedAt   time.Time

	onComplete func(MatchSummary)
	logf       func(format string, args ...interface{})
}

// NewMatch allocates a match with both players in Waiting phase.
func NewMatch(id string, arena *Arena, s1, s2 PlayerSpec) *Match {
	return &Match{
		ID:          id,
		arena:       arena,
		p1:          NewPlayer(s1.ID, s1.Name, s1.Class, 1),
		p2:          NewPlayer(s2.ID, s2.Name, s2.Class, 2),
		projectiles: make(map[string]*Projectile),
		round:       newRoundState(),
		clients:     make(map[string]Outbound),
		sync:        NewSyncState(id),
		stop:        make(chan struct{}),
		createdAt:   time.Now(),
		logf:        log.Printf,
	}
}

// Run drives the fixed-rate tick loop until the match stops.
func (m *Match) Run() {
	ticker := time.NewTicker(TickDuration)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			m.Tick()
		case <-m.stop:
			return
		}
	}
}

func (m *Match) stopTicker() {
	m.stopOnce.Do(func() { close(m.stop) })
}

// SetClient attaches the send capability for a participant.
func (m *Match) SetClient(playerID string, out Outbound) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.playerByID(playerID) == nil {
		return
	}
	m.clients[playerID] = out
}

// DetachClient drops a participant's send capability (transport gone).
// Simulation state is untouched; the match keeps running.
func (m *Match) DetachClient(playerID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.clients, playerID)
}

func (m *Match) playerByID(id string) *Player {
	switch id {
	case m.p1.ID:
		return m.p1
	case m.p2.ID:
		return m.p2
	}
	return nil
}

func (m *Match) opponentOf(id string) *Player {
	switch id {
	case m.p1.ID:
		return m.p2
	case m.p2.ID:
		return m.p1
	}
	return nil
}

func (m *Match) notifyAll(env Envelope) {
	for _, out := range m.clients {
		out.SendEvent(env)
	}
}

func (m *Match) notifyPlayer(playerID string, env Envelope) {
	if out, ok := m.clients[playerID]; ok {
		out.SendEvent(env)
	}
}

// NotifyOpponent sends an out-of-band event to the other participant.
func (m *Match) NotifyOpponent(playerID string, env Envelope) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if opp := m.opponentOf(playerID); opp != nil {
		m.notifyPlayer(opp.ID, env)
	}
}

// UpdatePosition validates a proposed position and writes back the
// corrected result. Returns false for unknown/dead players or a
// completed match, or for degenerate coordinates.
func (m *Match) UpdatePosition(playerID string, x, y float64) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.round.Phase == PhaseCompleted {
		return false
	}
	p := m.playerByID(playerID)
	if p == nil || !p.Alive {
		return false
	}
	if !IsFiniteCoord(x, y) {
		return false
	}

	others := []*Player{m.opponentOf(playerID)}
	nx, ny, _ := ValidateMovement(p.X, p.Y, x, y, m.arena, others)

	dt := 1.0 / float64(TickRate)
	p.VX = (nx - p.X) / dt
	p.VY = (ny - p.Y) / dt
	p.Moving = math.Abs(nx-p.X) > 1e-6 || math.Abs(ny-p.Y) > 1e-6
	p.X, p.Y = nx, ny
	p.LastInputAt = m.simTime
	return true
}

// UpdateRotation sets a player's facing angle, normalized to [0, 2π).
func (m *Match) UpdateRotation(playerID string, angle float64) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.round.Phase == PhaseCompleted {
		return false
	}
	p := m.playerByID(playerID)
	if p == nil || !p.Alive {
		return false
	}
	if !IsFiniteCoord(angle) {
		return false
	}
	p.Rotation = NormalizeAngle(angle)
	p.LastInputAt = m.simTime
	return true
}

// Attack spawns the class weapon projectile toward an aim point and starts
// the weapon cooldown. Fails while dead or on cooldown.
func (m *Match) Attack(playerID string, aimX, aimY float64) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.round.Phase != PhaseActive {
		return false
	}
	p := m.playerByID(playerID)
	if p == nil || !p.CanAttack(m.simTime) {
		return false
	}
	if !IsFiniteCoord(aimX, aimY) {
		return false
	}
	if len(m.projectiles) >= maxProjectilesPerMatch {
		return false
	}

	def := GetClassDef(p.Class)
	angle := p.Rotation
	if aimX != p.X || aimY != p.Y {
		angle = math.Atan2(aimY-p.Y, aimX-p.X)
	}
	pr := NewProjectile(def.AttackProj, p, angle, def.AttackDamage)
	m.projectiles[pr.ID] = pr
	p.AttackReadyAt = m.simTime + def.AttackCooldown
	p.LastInputAt = m.simTime
	return true
}

// Special fires the class special: a buff for buff classes, otherwise a
// projectile (volley). Gated by cooldown and remaining charges.
func (m *Match) Special(playerID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.round.Phase != PhaseActive {
		return false
	}
	p := m.playerByID(playerID)
	if p == nil || !p.CanSpecial(m.simTime) {
		return false
	}

	def := GetClassDef(p.Class)
	if def.SpecialBuff {
		ApplyBuff(p, BuffDamage, WardenBuffMultiplier, WardenBuffDuration, m.simTime)
	} else {
		if len(m.projectiles) >= maxProjectilesPerMatch {
			return false
		}
		opp := m.opponentOf(playerID)
		switch def.SpecialProj {
		case ProjShard:
			for i := 0; i < shardVolleyCount; i++ {
				a := p.Rotation + shardVolleySpread*float64(i-shardVolleyCount/2)
				pr := NewProjectile(ProjShard, p, a, def.AttackDamage)
				m.projectiles[pr.ID] = pr
			}
		case ProjSeeker:
			pr := NewProjectile(ProjSeeker, p, p.Rotation, def.AttackDamage*2)
			if opp != nil {
				pr.TargetID = opp.ID
			}
			m.projectiles[pr.ID] = pr
		default:
			pr := NewProjectile(def.SpecialProj, p, p.Rotation, def.AttackDamage*2)
			m.projectiles[pr.ID] = pr
		}
	}

	p.SpecialCharges--
	p.SpecialReadyAt = m.simTime + def.SpecialCooldown
	p.LastInputAt = m.simTime
	return true
}

// Dash applies a short velocity impulse in the given direction. The impulse
// decays over the following ticks through the movement integrator.
func (m *Match) Dash(playerID string, dirX, dirY float64) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.round.Phase != PhaseActive {
		return false
	}
	p := m.playerByID(playerID)
	if p == nil || !p.CanDash(m.simTime) {
		return false
	}
	if !IsFiniteCoord(dirX, dirY) {
		return false
	}
	norm := math.Sqrt(dirX*dirX + dirY*dirY)
	if norm < 1e-9 {
		return false
	}

	p.VX = dirX / norm * DashImpulse
	p.VY = dirY / norm * DashImpulse
	p.DashReadyAt = m.simTime + DashCooldown
	p.LastInputAt = m.simTime
	return true
}

// Tick advances the simulation by one fixed interval. Order matters:
// projectiles before hit resolution, hits before lifecycle, lifecycle
// before frame generation.
func (m *Match) Tick() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.round.Phase == PhaseCompleted {
		return
	}

	dt := 1.0 / float64(TickRate)
	m.tick++
	m.simTime += dt

	m.integrateImpulses(dt)
	m.advanceProjectiles(dt)
	m.advanceLifecycle(dt)
	m.emitFrame()
}

// integrateImpulses moves players under residual (dash) velocity and
// decays it toward zero.
func (m *Match) integrateImpulses(dt float64) {
	for _, p := range []*Player{m.p1, m.p2} {
		if !p.Alive {
			continue
		}
		speed := math.Sqrt(p.VX*p.VX + p.VY*p.VY)
		if speed < 1e-3 {
			continue
		}
		def := GetClassDef(p.Class)
		nx, ny, info := ValidateMovement(p.X, p.Y, p.X+p.VX*dt, p.Y+p.VY*dt, m.arena, []*Player{m.opponentOf(p.ID)})
		p.X, p.Y = nx, ny
		if info.Bounds || info.Wall {
			p.VX, p.VY = 0, 0
			continue
		}
		p.VX, p.VY = IntegrateVelocity(p.VX, p.VY, 0, 0, def.Accel, def.Decel, def.MoveSpeed*2, dt)
	}
}

func (m *Match) advanceProjectiles(dt float64) {
	for id, pr := range m.projectiles {
		if pr.TargetID != "" {
			pr.steer(m.playerByID(pr.TargetID), dt)
		}
		switch pr.advance(dt, m.arena) {
		case projHitWall:
			delete(m.projectiles, id)
			m.notifyAll(Envelope{T: MsgImpact, Data: ImpactMsg{
				ProjectileID: pr.ID,
				X:            round1(pr.X),
				Y:            round1(pr.Y),
			}})
			continue
		case projExpired:
			// Removal reaches clients through the delta frame
			delete(m.projectiles, id)
			continue
		}

		// Hits only resolve while a round is being fought
		if m.round.Phase != PhaseActive {
			continue
		}

		for _, target := range []*Player{m.p1, m.p2} {
			if !pr.hits(target) {
				continue
			}
			owner := m.playerByID(pr.OwnerID)
			res := ApplyHit(owner, target, pr.Damage, m.simTime)
			m.notifyAll(Envelope{T: MsgHit, Data: HitMsg{
				AttackerID: pr.OwnerID,
				TargetID:   target.ID,
				Damage:     res.FinalDamage,
				Health:     target.Health,
			}})
			if res.WasKilled {
				m.notifyAll(Envelope{T: MsgKill, Data: KillMsg{
					KillerID: pr.OwnerID,
					VictimID: target.ID,
					Round:    m.round.Round,
				}})
			}
			if !GetProjectileDef(pr.Type).Piercing {
				pr.Active = false
				delete(m.projectiles, id)
			}
			break
		}
	}
}

// emitFrame produces one sync frame per tick: a full snapshot when the
// protocol demands a resync, otherwise a delta against the shadow baseline.
func (m *Match) emitFrame() {
	data, err := m.sync.NextFrame(m)
	if err != nil {
		m.logf("match %s: frame encode: %v", m.ID, err)
		return
	}
	for _, out := range m.clients {
		out.SendFrame(data)
	}
}

// AckSequence records a client-confirmed sequence number.
func (m *Match) AckSequence(playerID string, seq uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.playerByID(playerID) == nil {
		return
	}
	m.sync.TrackClientSequence(playerID, seq)
}

// complete is the terminal transition. Safe to call only with m.mu held;
// idempotent against repeated round-end paths.
func (m *Match) complete(winnerID string) {
	if m.round.Phase == PhaseCompleted {
		return
	}
	m.round.Phase = PhaseCompleted
	m.round.WinnerID = winnerID
	m.endedAt = time.Now()

	m.notifyAll(Envelope{T: MsgMatchEnd, Data: MatchEndMsg{
		WinnerID: winnerID,
		Score1:   m.round.Score1,
		Score2:   m.round.Score2,
		Duration: m.endedAt.Sub(m.createdAt).Seconds(),
	}})
	m.stopTicker()

	if m.onComplete != nil {
		summary := MatchSummary{
			MatchID:  m.ID,
			P1:       m.p1.ID,
			P2:       m.p2.ID,
			Score1:   m.round.Score1,
			Score2:   m.round.Score2,
			Kills1:   m.p1.MatchKills,
			Kills2:   m.p2.MatchKills,
			Damage1:  m.p1.MatchDamage,
			Damage2:  m.p2.MatchDamage,
			WinnerID: winnerID,
			Duration: m.endedAt.Sub(m.createdAt).Seconds(),
			EndedAt:  m.endedAt,
		}
		// The callback retires routing state in the manager; run it
		// outside this lock
		go m.onComplete(summary)
	}
}

// Terminate ends the match because a participant left for good. The
// remaining player takes the win by forfeit.
func (m *Match) Terminate(leaverID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.round.Phase == PhaseCompleted {
		return
	}
	if p := m.playerByID(leaverID); p != nil {
		p.Alive = false
	}
	m.notifyAll(Envelope{T: MsgMatchTerminated, Data: MatchTerminatedMsg{
		PlayerID: leaverID,
		Reason:   "player_left",
	}})

	winner := ""
	if opp := m.opponentOf(leaverID); opp != nil {
		winner = opp.ID
	}
	m.complete(winner)
}

// Shutdown forces the terminal state without a winner (external EndMatch).
func (m *Match) Shutdown() {
	m.mu.Lock()
	if m.round.Phase != PhaseCompleted {
		m.round.Phase = PhaseCompleted
		m.endedAt = time.Now()
	}
	m.mu.Unlock()
	m.stopTicker()
}

// Phase returns the current lifecycle phase.
func (m *Match) Phase() MatchPhase {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.round.Phase
}

// Snapshot returns a copy of both players' current state and the round,
// for the spectate endpoint.
func (m *Match) Snapshot() (PlayerState, PlayerState, RoundState) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.p1.ToState(), m.p2.ToState(), m.round
}

// MatchRecorder consumes completed-match summaries. Implemented by the
// persistence layer; nil disables recording.
type MatchRecorder interface {
	RecordSummary(MatchSummary)
}

// MatchManager owns all active matches and the player-to-match routing.
type MatchManager struct {
	mu       sync.RWMutex
	matches  map[string]*Match
	byPlayer map[string]string
	arenas   *ArenaRegistry
	recorder MatchRecorder
}

// NewMatchManager creates a manager backed by the given arena registry.
// recorder may be nil.
func NewMatchManager(arenas *ArenaRegistry, recorder MatchRecorder) *MatchManager {
	return &MatchManager{
		matches:  make(map[string]*Match),
		byPlayer: make(map[string]string),
		arenas:   arenas,
		recorder: recorder,
	}
}

// CreateMatch allocates a match and starts its tick loop. Fails on a
// duplicate matchID, an unknown arena, a player already routed to a match,
// or identical participant ids. No partial match is left registered.
func (mm *MatchManager) CreateMatch(matchID string, s1, s2 PlayerSpec, arenaKey string) bool {
	if matchID == "" || s1.ID == "" || s2.ID == "" || s1.ID == s2.ID {
		return false
	}
	arena, err := mm.arenas.Lookup(arenaKey)
	if err != nil {
		log.Printf("create match %s: %v", matchID, err)
		return false
	}

	mm.mu.Lock()
	if _, exists := mm.matches[matchID]; exists {
		mm.mu.Unlock()
		return false
	}
	if _, busy := mm.byPlayer[s1.ID]; busy {
		mm.mu.Unlock()
		return false
	}
	if _, busy := mm.byPlayer[s2.ID]; busy {
		mm.mu.Unlock()
		return false
	}

	m := NewMatch(matchID, arena, s1, s2)
	m.onComplete = func(s MatchSummary) {
		mm.retire(s.MatchID)
		if mm.recorder != nil {
			mm.recorder.RecordSummary(s)
		}
	}
	mm.matches[matchID] = m
	mm.byPlayer[s1.ID] = matchID
	mm.byPlayer[s2.ID] = matchID
	mm.mu.Unlock()

	go m.Run()
	return true
}

// Get returns a match by id, or nil.
func (mm *MatchManager) Get(matchID string) *Match {
	mm.mu.RLock()
	defer mm.mu.RUnlock()
	return mm.matches[matchID]
}

// MatchForPlayer returns the match a player is routed to, or nil.
func (mm *MatchManager) MatchForPlayer(playerID string) *Match {
	mm.mu.RLock()
	defer mm.mu.RUnlock()
	id, ok := mm.byPlayer[playerID]
	if !ok {
		return nil
	}
	return mm.matches[id]
}

// retire removes routing state for a completed match. The ticker is
// already stopped by the terminal transition.
func (mm *MatchManager) retire(matchID string) {
	mm.mu.Lock()
	defer mm.mu.Unlock()
	m, ok := mm.matches[matchID]
	if !ok {
		return
	}
	delete(mm.matches, matchID)
	delete(mm.byPlayer, m.p1.ID)
	delete(mm.byPlayer, m.p2.ID)
}

// UpdatePlayerPosition routes a position proposal to the player's match.
func (mm *MatchManager) UpdatePlayerPosition(playerID string, x, y float64) bool {
	m := mm.MatchForPlayer(playerID)
	if m == nil {
		return false
	}
	return m.UpdatePosition(playerID, x, y)
}

// UpdatePlayerRotation routes a facing update to the player's match.
func (mm *MatchManager) UpdatePlayerRotation(playerID string, angle float64) bool {
	m := mm.MatchForPlayer(playerID)
	if m == nil {
		return false
	}
	return m.UpdateRotation(playerID, angle)
}

// HandleAttack routes an attack to the player's match.
func (mm *MatchManager) HandleAttack(playerID string, aimX, aimY float64) bool {
	m := mm.MatchForPlayer(playerID)
	if m == nil {
		return false
	}
	return m.Attack(playerID, aimX, aimY)
}

// HandleSpecialAbility routes a special-ability use to the player's match.
func (mm *MatchManager) HandleSpecialAbility(playerID string) bool {
	m := mm.MatchForPlayer(playerID)
	if m == nil {
		return false
	}
	return m.Special(playerID)
}

// HandleDash routes a dash to the player's match.
func (mm *MatchManager) HandleDash(playerID string, dirX, dirY float64) bool {
	m := mm.MatchForPlayer(playerID)
	if m == nil {
		return false
	}
	return m.Dash(playerID, dirX, dirY)
}

// TrackAck records a client's confirmed frame sequence.
func (mm *MatchManager) TrackAck(playerID string, seq uint64) {
	if m := mm.MatchForPlayer(playerID); m != nil {
		m.AckSequence(playerID, seq)
	}
}

// AttachClient wires a player's send capability into their match.
func (mm *MatchManager) AttachClient(playerID string, out Outbound) {
	if m := mm.MatchForPlayer(playerID); m != nil {
		m.SetClient(playerID, out)
	}
}

// DetachClient drops a player's send capability without ending the match.
func (mm *MatchManager) DetachClient(playerID string) {
	if m := mm.MatchForPlayer(playerID); m != nil {
		m.DetachClient(playerID)
	}
}

// RemovePlayer terminates the match a player belongs to. Partial-player
// matches are not supported; the grace-period timeout lands here too.
func (mm *MatchManager) RemovePlayer(playerID string) {
	m := mm.MatchForPlayer(playerID)
	if m == nil {
		return
	}
	m.Terminate(playerID)
}

// EndMatch stops the tick loop and removes routing. Idempotent: a second
// call for the same id returns false.
func (mm *MatchManager) EndMatch(matchID string) bool {
	mm.mu.Lock()
	m, ok := mm.matches[matchID]
	if !ok {
		mm.mu.Unlock()
		return false
	}
	delete(mm.matches, matchID)
	delete(mm.byPlayer, m.p1.ID)
	delete(mm.byPlayer, m.p2.ID)
	mm.mu.Unlock()

	m.Shutdown()
	return true
}

// ActiveCount returns the number of live matches.
func (mm *MatchManager) ActiveCount() int {
	mm.mu.RLock()
	defer mm.mu.RUnlock()
	return len(mm.matches)
}
