package main

import (
	"log"
	"sync"

	"github.com/google/uuid"
)

const (
	maxConnsPerIP = 5
	maxTotalConns = 1000
)

// queuedPlayer is one matchmaking queue entry.
type queuedPlayer struct {
	client *Client
	class  ClassType
}

// Hub manages all connected clients, enforces connection limits, and runs
// the two-player matchmaking queue.
type Hub struct {
	mu         sync.RWMutex
	clients    map[*Client]bool
	register   chan *Client
	unregister chan *Client

	matches *MatchManager
	conns   *ConnManager

	// Connection limiting (mutex-protected, accessed from HTTP handlers)
	connMu     sync.Mutex
	ipConns    map[string]int
	totalConns int

	// Matchmaking queue: at most one waiting player at a time
	queueMu sync.Mutex
	waiting *queuedPlayer

	// Auth & DB
	db   *DB
	auth *Auth

	// Online auth users: authPlayerID -> *Client
	onlineMu    sync.RWMutex
	onlineUsers map[int64]*Client
}

// NewHub creates a Hub wired to the match manager, connection manager,
// and database.
func NewHub(db *DB, matches *MatchManager, conns *ConnManager) *Hub {
	return &Hub{
		clients:     make(map[*Client]bool),
		register:    make(chan *Client, 64),
		unregister:  make(chan *Client, 64),
		matches:     matches,
		conns:       conns,
		ipConns:     make(map[string]int),
		db:          db,
		auth:        NewAuth(db),
		onlineUsers: make(map[int64]*Client),
	}
}

func (h *Hub) CanAccept(ip string) bool {
	h.connMu.Lock()
	defer h.connMu.Unlock()
	if h.totalConns >= maxTotalConns {
		return false
	}
	if h.ipConns[ip] >= maxConnsPerIP {
		return false
	}
	return true
}

func (h *Hub) TrackConnect(ip string) {
	h.connMu.Lock()
	defer h.connMu.Unlock()
	h.ipConns[ip]++
	h.totalConns++
}

func (h *Hub) TrackDisconnect(ip string) {
	h.connMu.Lock()
	defer h.connMu.Unlock()
	h.ipConns[ip]--
	if h.ipConns[ip] <= 0 {
		delete(h.ipConns, ip)
	}
	h.totalConns--
}

// Run processes register/unregister events
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
			h.mu.Unlock()

			h.Dequeue(client)
			if client.playerID != "" {
				h.conns.HandleDisconnect(client.playerID, client)
			}
			if client.authPlayerID != 0 {
				h.SetOffline(client.authPlayerID)
			}
		}
	}
}

// Enqueue puts a client in the matchmaking queue. If another player is
// already waiting the pair is matched immediately.
func (h *Hub) Enqueue(c *Client, class ClassType) {
	h.queueMu.Lock()
	if h.waiting != nil && h.waiting.client == c {
		h.waiting.class = class
		h.queueMu.Unlock()
		return
	}
	if h.waiting == nil {
		h.waiting = &queuedPlayer{client: c, class: class}
		h.queueMu.Unlock()
		c.SendJSON(Envelope{T: MsgQueued, Data: map[string]int{"pos": 1}})
		return
	}
	opp := h.waiting
	h.waiting = nil
	h.queueMu.Unlock()

	h.startMatch(opp, &queuedPlayer{client: c, class: class})
}

// Dequeue removes a client from the queue if it is the waiting player.
func (h *Hub) Dequeue(c *Client) bool {
	h.queueMu.Lock()
	defer h.queueMu.Unlock()
	if h.waiting != nil && h.waiting.client == c {
		h.waiting = nil
		return true
	}
	return false
}

// startMatch creates a match for two queued players and attaches both
// transports before the first tick fires.
func (h *Hub) startMatch(a, b *queuedPlayer) {
	matchID := uuid.NewString()
	s1 := PlayerSpec{ID: a.client.playerID, Name: a.client.displayName(), Class: a.class}
	s2 := PlayerSpec{ID: b.client.playerID, Name: b.client.displayName(), Class: b.class}

	if !h.matches.CreateMatch(matchID, s1, s2, DefaultArenaKey) {
		log.Printf("match creation rejected for %s vs %s", s1.ID, s2.ID)
		a.client.SendJSON(Envelope{T: MsgError, Data: ErrorMsg{Msg: "could not create match"}})
		b.client.SendJSON(Envelope{T: MsgError, Data: ErrorMsg{Msg: "could not create match"}})
		return
	}

	h.matches.AttachClient(s1.ID, a.client)
	h.matches.AttachClient(s2.ID, b.client)
	a.client.matchID = matchID
	b.client.matchID = matchID

	a.client.SendJSON(Envelope{T: MsgMatchStart, Data: MatchStartMsg{
		MatchID: matchID, Arena: DefaultArenaKey,
		PlayerID: s1.ID, OpponentID: s2.ID,
		Class: int(s1.Class), OppClass: int(s2.Class),
		RoundsToWin: DefaultRoundsToWin,
	}})
	b.client.SendJSON(Envelope{T: MsgMatchStart, Data: MatchStartMsg{
		MatchID: matchID, Arena: DefaultArenaKey,
		PlayerID: s2.ID, OpponentID: s1.ID,
		Class: int(s2.Class), OppClass: int(s1.Class),
		RoundsToWin: DefaultRoundsToWin,
	}})
	log.Printf("match %s started: %s (%s) vs %s (%s)",
		matchID, s1.ID, GetClassDef(s1.Class).Name, s2.ID, GetClassDef(s2.Class).Name)
}

// SetOnline marks an authenticated user as online
func (h *Hub) SetOnline(playerID int64, client *Client) {
	h.onlineMu.Lock()
	defer h.onlineMu.Unlock()
	h.onlineUsers[playerID] = client
}

// SetOffline removes an authenticated user from online tracking
func (h *Hub) SetOffline(playerID int64) {
	h.onlineMu.Lock()
	defer h.onlineMu.Unlock()
	delete(h.onlineUsers, playerID)
}

// OnlineCount returns the number of authenticated users online
func (h *Hub) OnlineCount() int {
	h.onlineMu.RLock()
	defer h.onlineMu.RUnlock()
	return len(h.onlineUsers)
}

// ClientCount returns the number of connected clients
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// TotalConns returns the tracked connection count
func (h *Hub) TotalConns() int {
	h.connMu.Lock()
	defer h.connMu.Unlock()
	return h.totalConns
}
