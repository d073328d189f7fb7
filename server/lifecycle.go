package main

import (
	"log"
	"sync"
	"time"
)

const (
	DefaultGracePeriod = 15 * time.Second
	DefaultIdleTimeout = 5 * time.Minute
	idleSweepInterval  = 30 * time.Second
)

// ConnRecord tracks one live transport connection.
type ConnRecord struct {
	PlayerID    string
	Out         Outbound
	ConnectedAt time.Time
	LastActive  time.Time
}

// graceRecord exists only while a player is transiently disconnected from
// an active match. Exactly one per player.
type graceRecord struct {
	PlayerID       string
	MatchID        string
	DisconnectedAt time.Time
	timer          *time.Timer
}

// ConnManager arbitrates connection lifecycles: it tracks live transports,
// runs the bounded reconnection grace window, and sweeps idle connections.
// It never mutates simulation state itself; termination is delegated to
// the match manager.
type ConnManager struct {
	mu     sync.Mutex
	conns  map[string]*ConnRecord
	graces map[string]*graceRecord

	matches     *MatchManager
	gracePeriod time.Duration
	idleTimeout time.Duration

	stop     chan struct{}
	stopOnce sync.Once
}

// NewConnManager creates a connection manager bound to a match manager.
func NewConnManager(matches *MatchManager, gracePeriod, idleTimeout time.Duration) *ConnManager {
	return &ConnManager{
		conns:       make(map[string]*ConnRecord),
		graces:      make(map[string]*graceRecord),
		matches:     matches,
		gracePeriod: gracePeriod,
		idleTimeout: idleTimeout,
		stop:        make(chan struct{}),
	}
}

// Register records a live connection for a player. A new connection
// supersedes any previous one for the same player: a pending grace window
// is canceled and the send capability is re-attached to the match, whether
// or not the old transport's close has been processed yet. Match state is
// untouched; the simulation never paused. Returns true when the player
// landed back in a live match.
func (cm *ConnManager) Register(playerID string, out Outbound) bool {
	now := time.Now()

	cm.mu.Lock()
	cm.conns[playerID] = &ConnRecord{
		PlayerID:    playerID,
		Out:         out,
		ConnectedAt: now,
		LastActive:  now,
	}
	g, wasInGrace := cm.graces[playerID]
	if wasInGrace {
		g.timer.Stop()
		delete(cm.graces, playerID)
	}
	cm.mu.Unlock()

	m := cm.matches.MatchForPlayer(playerID)
	if m == nil {
		return false
	}
	m.SetClient(playerID, out)
	if wasInGrace {
		m.NotifyOpponent(playerID, Envelope{T: MsgOpponentReconnected, Data: ReconnectMsg{
			PlayerID: playerID,
		}})
		log.Printf("player %s reconnected within grace window", playerID)
	}
	return true
}

// Touch refreshes a player's activity timestamp.
func (cm *ConnManager) Touch(playerID string) {
	cm.mu.Lock()
	if rec, ok := cm.conns[playerID]; ok {
		rec.LastActive = time.Now()
	}
	cm.mu.Unlock()
}

// HandleDisconnect processes the loss of one specific transport. A stale
// close from a connection the player has already replaced is ignored; the
// fresh connection stays registered and the match untouched. A player in
// an active match gets a single grace-period timer; their opponent is told
// how long the window is. Players not in a match are simply dropped.
func (cm *ConnManager) HandleDisconnect(playerID string, out Outbound) {
	cm.mu.Lock()
	if rec, live := cm.conns[playerID]; live && out != nil && rec.Out != out {
		// A newer connection superseded this transport
		cm.mu.Unlock()
		return
	}
	delete(cm.conns, playerID)
	_, alreadyInGrace := cm.graces[playerID]
	cm.mu.Unlock()

	if playerID == "" || alreadyInGrace {
		return
	}

	m := cm.matches.MatchForPlayer(playerID)
	if m == nil {
		return
	}
	m.DetachClient(playerID)

	cm.mu.Lock()
	// Re-check under the lock; a racing disconnect must not arm two timers
	if _, dup := cm.graces[playerID]; dup {
		cm.mu.Unlock()
		return
	}
	// A reconnect that landed while we were detaching wins outright
	if rec, reconnected := cm.conns[playerID]; reconnected {
		cm.mu.Unlock()
		m.SetClient(playerID, rec.Out)
		return
	}
	cm.graces[playerID] = &graceRecord{
		PlayerID:       playerID,
		MatchID:        m.ID,
		DisconnectedAt: time.Now(),
		timer:          time.AfterFunc(cm.gracePeriod, func() { cm.expire(playerID) }),
	}
	cm.mu.Unlock()

	m.NotifyOpponent(playerID, Envelope{T: MsgOpponentDisconnected, Data: DisconnectMsg{
		PlayerID: playerID,
		GraceSec: cm.gracePeriod.Seconds(),
	}})
	log.Printf("player %s disconnected mid-match, grace %s", playerID, cm.gracePeriod)
}

// expire fires when a grace window elapses without a reconnect: the match
// is unconditionally terminated through the orchestrator.
func (cm *ConnManager) expire(playerID string) {
	cm.mu.Lock()
	g, ok := cm.graces[playerID]
	if ok {
		delete(cm.graces, playerID)
	}
	cm.mu.Unlock()

	if !ok {
		return
	}
	log.Printf("player %s grace period expired, terminating match %s", playerID, g.MatchID)
	cm.matches.RemovePlayer(playerID)
}

// InGrace reports whether a player currently has a pending grace window.
func (cm *ConnManager) InGrace(playerID string) bool {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	_, ok := cm.graces[playerID]
	return ok
}

// ConnCount returns the number of tracked live connections.
func (cm *ConnManager) ConnCount() int {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	return len(cm.conns)
}

// Run sweeps idle connections periodically until Stop is called.
func (cm *ConnManager) Run() {
	ticker := time.NewTicker(idleSweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			cm.sweepIdle()
		case <-cm.stop:
			return
		}
	}
}

// Stop halts the idle sweeper and cancels all pending grace timers.
func (cm *ConnManager) Stop() {
	cm.stopOnce.Do(func() { close(cm.stop) })
	cm.mu.Lock()
	for id, g := range cm.graces {
		g.timer.Stop()
		delete(cm.graces, id)
	}
	cm.mu.Unlock()
}

// sweepIdle drops connections inactive beyond the idle threshold, through
// the same path as a transport disconnect.
func (cm *ConnManager) sweepIdle() {
	cutoff := time.Now().Add(-cm.idleTimeout)

	cm.mu.Lock()
	var stale []*ConnRecord
	for _, rec := range cm.conns {
		if rec.LastActive.Before(cutoff) {
			stale = append(stale, rec)
		}
	}
	cm.mu.Unlock()

	for _, rec := range stale {
		log.Printf("player %s idle beyond %s, dropping", rec.PlayerID, cm.idleTimeout)
		cm.HandleDisconnect(rec.PlayerID, rec.Out)
	}
}
