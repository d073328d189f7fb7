package main

// BuffKind identifies a temporary combat modifier.
type BuffKind int

const (
	BuffDamage BuffKind = 0
)

// Buff is an expiring modifier. Expiry is a simulation-time comparison
// evaluated on use; no timer resource is held per buff.
type Buff struct {
	Kind       BuffKind
	Multiplier float64
	ExpiresAt  float64 // simulation seconds
}

// Player is the in-match authoritative player state. Created when a match
// forms, reset at round start, destroyed with the match.
type Player struct {
	ID    string
	Name  string
	Class ClassType // immutable after creation
	Team  int

	X, Y     float64
	Rotation float64 // radians, [0, 2π)
	VX, VY   float64

	Health int
	Armor  int
	Alive  bool
	Moving bool

	// Cooldowns are simulation-time readiness stamps compared each use
	AttackReadyAt  float64
	SpecialReadyAt float64
	DashReadyAt    float64
	SpecialCharges int

	Buffs []Buff

	LastInputAt float64 // staleness marker, simulation seconds

	// Per-round statistics, cleared on round reset
	RoundKills  int
	RoundDamage int

	// Match-lifetime totals, never reset
	MatchKills  int
	MatchDamage int
}

// NewPlayer creates a player for a match. Position is set at round start.
func NewPlayer(id, name string, class ClassType, team int) *Player {
	def := GetClassDef(class)
	return &Player{
		ID:             id,
		Name:           name,
		Class:          class,
		Team:           team,
		Health:         def.MaxHealth,
		Armor:          def.MaxArmor,
		Alive:          true,
		SpecialCharges: def.SpecialCharges,
	}
}

// ResetForRound restores the player to full strength at a spawn point and
// clears round-scoped state.
func (p *Player) ResetForRound(sp SpawnPoint) {
	def := GetClassDef(p.Class)
	p.X = sp.X
	p.Y = sp.Y
	p.Rotation = NormalizeAngle(sp.Rotation)
	p.VX, p.VY = 0, 0
	p.Health = def.MaxHealth
	p.Armor = def.MaxArmor
	p.Alive = true
	p.Moving = false
	p.SpecialCharges = def.SpecialCharges
	p.Buffs = p.Buffs[:0]
	p.RoundKills = 0
	p.RoundDamage = 0
}

// DamageMultiplier returns the product of all buffs active at simulation
// time now, pruning the expired ones.
func (p *Player) DamageMultiplier(now float64) float64 {
	mult := 1.0
	live := p.Buffs[:0]
	for _, b := range p.Buffs {
		if b.ExpiresAt <= now {
			continue
		}
		live = append(live, b)
		if b.Kind == BuffDamage {
			mult *= b.Multiplier
		}
	}
	p.Buffs = live
	return mult
}

// AddBuff stores an expiring modifier.
func (p *Player) AddBuff(kind BuffKind, multiplier, duration, now float64) {
	p.Buffs = append(p.Buffs, Buff{Kind: kind, Multiplier: multiplier, ExpiresAt: now + duration})
}

// CanAttack reports whether the weapon cooldown has elapsed.
func (p *Player) CanAttack(now float64) bool {
	return p.Alive && now >= p.AttackReadyAt
}

// CanSpecial reports whether the special is off cooldown with a charge left.
func (p *Player) CanSpecial(now float64) bool {
	return p.Alive && p.SpecialCharges > 0 && now >= p.SpecialReadyAt
}

// CanDash reports whether the dash cooldown has elapsed.
func (p *Player) CanDash(now float64) bool {
	return p.Alive && now >= p.DashReadyAt
}

// ToState converts to the wire representation.
func (p *Player) ToState() PlayerState {
	return PlayerState{
		ID:       p.ID,
		Name:     p.Name,
		Class:    int(p.Class),
		X:        round1(p.X),
		Y:        round1(p.Y),
		R:        round1(p.Rotation),
		VX:       round1(p.VX),
		VY:       round1(p.VY),
		Health:   p.Health,
		Armor:    p.Armor,
		Alive:    p.Alive,
		Moving:   p.Moving,
		Kills:    p.RoundKills,
		Damage:   p.RoundDamage,
		Charges:  p.SpecialCharges,
	}
}
