package main

import "math"

// ProjectileType determines speed, damage profile and behavior flags.
type ProjectileType int

const (
	ProjBolt   ProjectileType = 0 // standard shot
	ProjHeavy  ProjectileType = 1 // slow, hard hitting
	ProjSeeker ProjectileType = 2 // homing
	ProjLance  ProjectileType = 3 // piercing
	ProjShard  ProjectileType = 4 // short-range volley fragment
	projTypeMax               = 5
)

// ProjectileDef is the immutable per-type tuning table.
type ProjectileDef struct {
	Speed     float64 // tiles/s
	HitRadius float64
	Range     float64 // max distance traveled, tiles
	TTL       float64 // max age, seconds
	Piercing  bool
	Homing    bool
	TurnRate  float64 // radians/s, homing only
}

var projectileDefs = [projTypeMax]ProjectileDef{
	{Speed: 14, HitRadius: 0.2, Range: 24, TTL: 2.5},
	{Speed: 9, HitRadius: 0.3, Range: 18, TTL: 2.5},
	{Speed: 8, HitRadius: 0.25, Range: 30, TTL: 4.0, Homing: true, TurnRate: 3.5},
	{Speed: 16, HitRadius: 0.25, Range: 28, TTL: 2.0, Piercing: true},
	{Speed: 12, HitRadius: 0.15, Range: 8, TTL: 1.0},
}

// GetProjectileDef returns the tuning for a projectile type.
func GetProjectileDef(t ProjectileType) ProjectileDef {
	if t < 0 || t >= projTypeMax {
		return projectileDefs[ProjBolt]
	}
	return projectileDefs[t]
}

// projectileOutcome is the per-tick state transition of one projectile.
type projectileOutcome int

const (
	projActive projectileOutcome = iota
	projHitWall
	projExpired
)

// Projectile is one in-flight shot. Owned by the match that created it;
// mutated only on the tick path.
type Projectile struct {
	ID       string
	Type     ProjectileType
	OwnerID  string
	TargetID string // homing only; empty otherwise
	X, Y     float64
	VX, VY   float64
	Rotation float64
	Damage   int
	Traveled float64
	Age      float64
	Active   bool
}

// NewProjectile spawns a projectile of the given type from a player's
// position along their facing angle.
func NewProjectile(t ProjectileType, owner *Player, angle float64, damage int) *Projectile {
	def := GetProjectileDef(t)
	return &Projectile{
		ID:       GenerateID(3),
		Type:     t,
		OwnerID:  owner.ID,
		X:        owner.X + math.Cos(angle)*PlayerRadius*1.5,
		Y:        owner.Y + math.Sin(angle)*PlayerRadius*1.5,
		VX:       math.Cos(angle) * def.Speed,
		VY:       math.Sin(angle) * def.Speed,
		Rotation: NormalizeAngle(angle),
		Damage:   damage,
		Active:   true,
	}
}

// steer turns a homing projectile a bounded amount toward its target.
// A dead or missing target leaves the projectile on its last heading.
func (pr *Projectile) steer(target *Player, dt float64) {
	def := GetProjectileDef(pr.Type)
	if !def.Homing || target == nil || !target.Alive {
		return
	}
	desired := math.Atan2(target.Y-pr.Y, target.X-pr.X)
	diff := AngleDiff(pr.Rotation, desired)
	maxTurn := def.TurnRate * dt
	if diff > maxTurn {
		diff = maxTurn
	} else if diff < -maxTurn {
		diff = -maxTurn
	}
	pr.Rotation = NormalizeAngle(pr.Rotation + diff)
	pr.VX = math.Cos(pr.Rotation) * def.Speed
	pr.VY = math.Sin(pr.Rotation) * def.Speed
}

// advance moves the projectile one tick and classifies the transition:
// still active, stopped by a wall, or expired by range/TTL. The whole
// step is swept against walls so fast shots cannot tunnel through.
func (pr *Projectile) advance(dt float64, arena *Arena) projectileOutcome {
	def := GetProjectileDef(pr.Type)

	fromX, fromY := pr.X, pr.Y
	pr.X += pr.VX * dt
	pr.Y += pr.VY * dt
	step := math.Sqrt(pr.VX*pr.VX+pr.VY*pr.VY) * dt
	pr.Traveled += step
	pr.Age += dt

	if ProjectilePathBlocked(fromX, fromY, pr.X, pr.Y, arena) {
		pr.Active = false
		return projHitWall
	}
	if pr.Age >= def.TTL || pr.Traveled >= def.Range {
		pr.Active = false
		return projExpired
	}
	return projActive
}

// hits reports whether the projectile overlaps a live player other than
// its owner.
func (pr *Projectile) hits(p *Player) bool {
	if !p.Alive || p.ID == pr.OwnerID {
		return false
	}
	def := GetProjectileDef(pr.Type)
	return CheckCollision(pr.X, pr.Y, def.HitRadius, p.X, p.Y, PlayerRadius)
}
