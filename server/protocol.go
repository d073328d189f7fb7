package main

import "encoding/json"

// Client -> Server message types
const (
	MsgRegister = "register"
	MsgLogin    = "login"
	MsgAuth     = "auth"
	MsgQueue    = "queue"  // enter the 1v1 queue
	MsgCancel   = "cancel" // leave the queue
	MsgMove     = "move"
	MsgRotate   = "rotate"
	MsgAttack   = "attack"
	MsgSpecial  = "special"
	MsgDash     = "dash"
	MsgAck      = "ack" // confirm received frame sequence
	MsgLeave    = "leave"
)

// Server -> Client message types
const (
	MsgAuthOK               = "auth_ok"
	MsgQueued               = "queued"
	MsgMatchStart           = "match_start"
	MsgRoundStart           = "round_start"
	MsgRoundEnd             = "round_end"
	MsgMatchEnd             = "match_end"
	MsgMatchTerminated      = "match_terminated"
	MsgHit                  = "hit"
	MsgKill                 = "kill"
	MsgImpact               = "impact"
	MsgOpponentDisconnected = "opp_disconnected"
	MsgOpponentReconnected  = "opp_reconnected"
	MsgReject               = "reject"
	MsgError                = "error"
)

// Envelope wraps all outgoing control messages with a type field
type Envelope struct {
	T    string      `json:"t"`
	Data interface{} `json:"d,omitempty"`
}

// InEnvelope is used for incoming messages; json.RawMessage avoids double-unmarshal
type InEnvelope struct {
	T string          `json:"t"`
	D json.RawMessage `json:"d,omitempty"`
}

// ---- inbound payloads, validated at the transport boundary ----

type RegisterMsg struct {
	Username string `json:"u"`
	Password string `json:"p"`
}

type LoginMsg struct {
	Username string `json:"u"`
	Password string `json:"p"`
}

type AuthMsg struct {
	Token string `json:"tok"`
}

type QueueMsg struct {
	Class string `json:"class"`
}

type MoveMsg struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

type RotateMsg struct {
	Angle float64 `json:"a"`
}

type AttackMsg struct {
	AimX float64 `json:"ax"`
	AimY float64 `json:"ay"`
}

type DashMsg struct {
	DirX float64 `json:"dx"`
	DirY float64 `json:"dy"`
}

type AckMsg struct {
	Seq uint64 `json:"seq"`
}

// ---- outbound payloads ----

type AuthOKMsg struct {
	Token    string `json:"tok"`
	Username string `json:"u"`
	PlayerID int64  `json:"pid"`
}

type MatchStartMsg struct {
	MatchID     string `json:"mid"`
	Arena       string `json:"arena"`
	PlayerID    string `json:"you"`
	OpponentID  string `json:"opp"`
	Class       int    `json:"class"`
	OppClass    int    `json:"oclass"`
	RoundsToWin int    `json:"rtw"`
}

type RoundStartMsg struct {
	Round    int     `json:"round"`
	Duration float64 `json:"dur"`
}

type RoundEndMsg struct {
	Round    int    `json:"round"`
	Reason   string `json:"reason"`
	WinnerID string `json:"winner,omitempty"`
	Score1   int    `json:"s1"`
	Score2   int    `json:"s2"`
}

type MatchEndMsg struct {
	WinnerID string  `json:"winner"`
	Score1   int     `json:"s1"`
	Score2   int     `json:"s2"`
	Duration float64 `json:"dur"`
}

type MatchTerminatedMsg struct {
	PlayerID string `json:"pid"` // whose departure ended the match
	Reason   string `json:"reason"`
}

type HitMsg struct {
	AttackerID string `json:"aid"`
	TargetID   string `json:"tid"`
	Damage     int    `json:"dmg"`
	Health     int    `json:"hp"`
}

type KillMsg struct {
	KillerID string `json:"kid"`
	VictimID string `json:"vid"`
	Round    int    `json:"round"`
}

type ImpactMsg struct {
	ProjectileID string  `json:"id"`
	X            float64 `json:"x"`
	Y            float64 `json:"y"`
}

type DisconnectMsg struct {
	PlayerID string  `json:"pid"`
	GraceSec float64 `json:"grace"`
}

type ReconnectMsg struct {
	PlayerID string `json:"pid"`
}

// RejectMsg carries the reason a player action was refused (cooldown,
// dead, no charges). Never fatal; the simulation carries on.
type RejectMsg struct {
	Action string `json:"action"`
	Reason string `json:"reason"`
}

type ErrorMsg struct {
	Msg string `json:"msg"`
}

// ---- state frame payloads (binary msgpack on the wire) ----

// PlayerState is the full wire representation of one player
type PlayerState struct {
	ID      string  `json:"id" msgpack:"id"`
	Name    string  `json:"n" msgpack:"n"`
	Class   int     `json:"c" msgpack:"c"`
	X       float64 `json:"x" msgpack:"x"`
	Y       float64 `json:"y" msgpack:"y"`
	R       float64 `json:"r" msgpack:"r"`
	VX      float64 `json:"vx" msgpack:"vx"`
	VY      float64 `json:"vy" msgpack:"vy"`
	Health  int     `json:"hp" msgpack:"hp"`
	Armor   int     `json:"ar" msgpack:"ar"`
	Alive   bool    `json:"a" msgpack:"a"`
	Moving  bool    `json:"mv" msgpack:"mv"`
	Kills   int     `json:"k" msgpack:"k"`
	Damage  int     `json:"dd" msgpack:"dd"`
	Charges int     `json:"ch" msgpack:"ch"`
}

// PlayerDelta carries only the fields that changed since the baseline.
type PlayerDelta struct {
	ID      string   `json:"id" msgpack:"id"`
	X       *float64 `json:"x,omitempty" msgpack:"x,omitempty"`
	Y       *float64 `json:"y,omitempty" msgpack:"y,omitempty"`
	R       *float64 `json:"r,omitempty" msgpack:"r,omitempty"`
	VX      *float64 `json:"vx,omitempty" msgpack:"vx,omitempty"`
	VY      *float64 `json:"vy,omitempty" msgpack:"vy,omitempty"`
	Health  *int     `json:"hp,omitempty" msgpack:"hp,omitempty"`
	Armor   *int     `json:"ar,omitempty" msgpack:"ar,omitempty"`
	Alive   *bool    `json:"a,omitempty" msgpack:"a,omitempty"`
	Moving  *bool    `json:"mv,omitempty" msgpack:"mv,omitempty"`
	Kills   *int     `json:"k,omitempty" msgpack:"k,omitempty"`
	Damage  *int     `json:"dd,omitempty" msgpack:"dd,omitempty"`
	Charges *int     `json:"ch,omitempty" msgpack:"ch,omitempty"`
}

// ProjectileState is the wire representation of one projectile
type ProjectileState struct {
	ID    string  `json:"id" msgpack:"id"`
	Type  int     `json:"t" msgpack:"t"`
	Owner string  `json:"o" msgpack:"o"`
	X     float64 `json:"x" msgpack:"x"`
	Y     float64 `json:"y" msgpack:"y"`
	R     float64 `json:"r" msgpack:"r"`
}

// RoundInfo mirrors the round state inside sync frames
type RoundInfo struct {
	Phase    int     `json:"ph" msgpack:"ph"`
	Round    int     `json:"round" msgpack:"round"`
	TimeLeft float64 `json:"tl" msgpack:"tl"`
	Score1   int     `json:"s1" msgpack:"s1"`
	Score2   int     `json:"s2" msgpack:"s2"`
	WinnerID string  `json:"winner,omitempty" msgpack:"winner,omitempty"`
}

// SyncFrame is the per-tick state payload. Full frames carry Players and
// every projectile; delta frames carry PlayerDeltas, new/changed
// projectiles and explicit removed ids (removal is never by omission).
type SyncFrame struct {
	MatchID    string  `json:"mid" msgpack:"mid"`
	Seq        uint64  `json:"seq" msgpack:"seq"`
	ServerTime int64   `json:"ts" msgpack:"ts"`
	Full       bool    `json:"full" msgpack:"full"`

	Players      []PlayerState `json:"p,omitempty" msgpack:"p,omitempty"`
	PlayerDeltas []PlayerDelta `json:"pd,omitempty" msgpack:"pd,omitempty"`

	Projectiles        []ProjectileState `json:"pr,omitempty" msgpack:"pr,omitempty"`
	RemovedProjectiles []string          `json:"prx,omitempty" msgpack:"prx,omitempty"`

	Round *RoundInfo `json:"round,omitempty" msgpack:"round,omitempty"`
}
