package main

import (
	"encoding/json"
	"log"
	"strconv"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait         = 10 * time.Second
	pongWait          = 60 * time.Second
	pingPeriod        = (pongWait * 9) / 10
	maxMessageSize    = 4096
	sendBufSize       = 256
	maxMessagesPerSec = 60
	maxNameLen        = 16
)

// Client represents a WebSocket connection
type Client struct {
	hub        *Hub
	conn       *websocket.Conn
	send       chan []byte
	playerID   string
	matchID    string
	remoteAddr string
	msgCount   int
	msgResetAt time.Time
	// Auth state
	authPlayerID int64  // 0 = unauthenticated/guest
	authUsername string // "" = unauthenticated
}

// NewClient creates a new Client
func NewClient(hub *Hub, conn *websocket.Conn, remoteAddr string) *Client {
	return &Client{
		hub:        hub,
		conn:       conn,
		send:       make(chan []byte, sendBufSize),
		remoteAddr: remoteAddr,
	}
}

func (c *Client) displayName() string {
	if c.authUsername != "" {
		return c.authUsername
	}
	return "Fighter"
}

// ReadPump reads messages from the WebSocket connection
func (c *Client) ReadPump() {
	defer func() {
		c.hub.TrackDisconnect(c.remoteAddr)
		c.hub.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("ws error: %v", err)
			}
			break
		}

		// Rate limiting
		now := time.Now()
		if now.After(c.msgResetAt) {
			c.msgCount = 0
			c.msgResetAt = now.Add(time.Second)
		}
		c.msgCount++
		if c.msgCount > maxMessagesPerSec {
			log.Printf("rate limit exceeded for %s, disconnecting", c.remoteAddr)
			break
		}

		c.handleMessage(message)
	}
}

// WritePump writes messages to the WebSocket connection
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			// Check for binary marker (0xFF prefix from SendFrame)
			var err error
			if len(message) > 0 && message[0] == 0xFF {
				err = c.conn.WriteMessage(websocket.BinaryMessage, message[1:])
			} else {
				err = c.conn.WriteMessage(websocket.TextMessage, message)
			}
			if err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// SendJSON sends a JSON message to the client
func (c *Client) SendJSON(msg interface{}) {
	data, err := json.Marshal(msg)
	if err != nil {
		log.Printf("marshal error: %v", err)
		return
	}
	c.sendRaw(data)
}

// SendEvent implements Outbound for match event messages.
func (c *Client) SendEvent(msg Envelope) {
	c.SendJSON(msg)
}

// SendFrame implements Outbound for msgpack state frames.
// Prefixes with 0xFF marker byte so WritePump can distinguish from text.
func (c *Client) SendFrame(data []byte) {
	defer func() { recover() }()
	msg := make([]byte, len(data)+1)
	msg[0] = 0xFF
	copy(msg[1:], data)
	select {
	case c.send <- msg:
	default:
		// Client too slow, drop frame; the next full sync catches them up
	}
}

// sendRaw sends pre-marshaled bytes as a text message to the client
func (c *Client) sendRaw(data []byte) {
	defer func() { recover() }()
	select {
	case c.send <- data:
	default:
		// Client too slow, drop message
	}
}

func (c *Client) reject(action, reason string) {
	c.SendJSON(Envelope{T: MsgReject, Data: RejectMsg{Action: action, Reason: reason}})
}

// handleMessage routes incoming messages (single-pass decode via InEnvelope)
func (c *Client) handleMessage(raw []byte) {
	var env InEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		log.Printf("unmarshal error: %v", err)
		return
	}

	if c.playerID != "" {
		c.hub.conns.Touch(c.playerID)
	}

	switch env.T {
	case MsgRegister:
		c.handleRegister(env.D)
	case MsgLogin:
		c.handleLogin(env.D)
	case MsgAuth:
		c.handleAuth(env.D)
	case MsgQueue:
		c.handleQueue(env.D)
	case MsgCancel:
		c.handleCancel()
	case MsgMove:
		c.handleMove(env.D)
	case MsgRotate:
		c.handleRotate(env.D)
	case MsgAttack:
		c.handleAttack(env.D)
	case MsgSpecial:
		c.handleSpecial()
	case MsgDash:
		c.handleDash(env.D)
	case MsgAck:
		c.handleAck(env.D)
	case MsgLeave:
		c.handleLeave()
	}
}

// bindIdentity fixes the sim-facing player ID for this connection and
// registers it with the connection manager. Authenticated users get a
// stable ID so reconnects land back in their match; guests get a fresh
// one per connection.
func (c *Client) bindIdentity() {
	if c.playerID != "" {
		return
	}
	if c.authPlayerID != 0 {
		c.playerID = "u" + strconv.FormatInt(c.authPlayerID, 10)
	} else {
		c.playerID = "g" + GenerateID(6)
	}
	if c.hub.conns.Register(c.playerID, c) {
		if m := c.hub.matches.MatchForPlayer(c.playerID); m != nil {
			c.matchID = m.ID
		}
	}
}

func (c *Client) handleQueue(data json.RawMessage) {
	var msg QueueMsg
	if err := json.Unmarshal(data, &msg); err != nil {
		return
	}
	c.bindIdentity()
	if c.hub.matches.MatchForPlayer(c.playerID) != nil {
		c.reject("queue", "already in a match")
		return
	}
	c.hub.Enqueue(c, ParseClassType(msg.Class))
}

func (c *Client) handleCancel() {
	if !c.hub.Dequeue(c) {
		c.reject("cancel", "not queued")
	}
}

func (c *Client) handleMove(data json.RawMessage) {
	var msg MoveMsg
	if err := json.Unmarshal(data, &msg); err != nil {
		return
	}
	if c.playerID == "" {
		return
	}
	c.hub.matches.UpdatePlayerPosition(c.playerID, msg.X, msg.Y)
}

func (c *Client) handleRotate(data json.RawMessage) {
	var msg RotateMsg
	if err := json.Unmarshal(data, &msg); err != nil {
		return
	}
	if c.playerID == "" {
		return
	}
	c.hub.matches.UpdatePlayerRotation(c.playerID, msg.Angle)
}

func (c *Client) handleAttack(data json.RawMessage) {
	var msg AttackMsg
	if err := json.Unmarshal(data, &msg); err != nil {
		return
	}
	if c.playerID == "" {
		return
	}
	if !c.hub.matches.HandleAttack(c.playerID, msg.AimX, msg.AimY) {
		c.reject("attack", "not ready")
	}
}

func (c *Client) handleSpecial() {
	if c.playerID == "" {
		return
	}
	if !c.hub.matches.HandleSpecialAbility(c.playerID) {
		c.reject("special", "not ready")
	}
}

func (c *Client) handleDash(data json.RawMessage) {
	var msg DashMsg
	if err := json.Unmarshal(data, &msg); err != nil {
		return
	}
	if c.playerID == "" {
		return
	}
	if !c.hub.matches.HandleDash(c.playerID, msg.DirX, msg.DirY) {
		c.reject("dash", "not ready")
	}
}

func (c *Client) handleAck(data json.RawMessage) {
	var msg AckMsg
	if err := json.Unmarshal(data, &msg); err != nil {
		return
	}
	if c.playerID == "" {
		return
	}
	c.hub.matches.TrackAck(c.playerID, msg.Seq)
}

func (c *Client) handleLeave() {
	if c.hub.Dequeue(c) {
		return
	}
	if c.playerID == "" {
		return
	}
	c.hub.matches.RemovePlayer(c.playerID)
	c.matchID = ""
}

func (c *Client) handleRegister(data json.RawMessage) {
	if c.hub.auth == nil {
		return
	}
	var msg RegisterMsg
	if err := json.Unmarshal(data, &msg); err != nil {
		return
	}
	id, token, err := c.hub.auth.Register(msg.Username, msg.Password)
	if err != nil {
		c.SendJSON(Envelope{T: MsgError, Data: ErrorMsg{Msg: err.Error()}})
		return
	}
	c.finishAuth(id, msg.Username, token)
}

func (c *Client) handleLogin(data json.RawMessage) {
	if c.hub.auth == nil {
		return
	}
	var msg LoginMsg
	if err := json.Unmarshal(data, &msg); err != nil {
		return
	}
	id, token, err := c.hub.auth.Login(msg.Username, msg.Password, c.remoteAddr)
	if err != nil {
		c.SendJSON(Envelope{T: MsgError, Data: ErrorMsg{Msg: err.Error()}})
		return
	}
	c.finishAuth(id, msg.Username, token)
}

func (c *Client) handleAuth(data json.RawMessage) {
	if c.hub.auth == nil {
		return
	}
	var msg AuthMsg
	if err := json.Unmarshal(data, &msg); err != nil {
		return
	}
	id, username, err := c.hub.auth.ValidateToken(msg.Token)
	if err != nil {
		c.SendJSON(Envelope{T: MsgError, Data: ErrorMsg{Msg: "invalid token"}})
		return
	}
	c.finishAuth(id, username, msg.Token)
}

func (c *Client) finishAuth(id int64, username, token string) {
	c.authPlayerID = id
	c.authUsername = username
	c.hub.SetOnline(id, c)
	c.bindIdentity()
	c.SendJSON(Envelope{T: MsgAuthOK, Data: AuthOKMsg{
		Token:    token,
		Username: username,
		PlayerID: id,
	}})
}
