package main

// ClassType identifies a player archetype
type ClassType int

const (
	ClassDuelist  ClassType = 0 // balanced
	ClassBulwark  ClassType = 1 // slow, armored, piercing special
	ClassStalker  ClassType = 2 // fast, fragile, shard volley special
	ClassWarden   ClassType = 3 // medium, damage-boost special
	classTypeMax            = 4
)

// ClassDef holds the immutable base stats for a class.
// Treated as lookup data; the simulation never mutates it.
type ClassDef struct {
	Name      string
	MaxHealth int
	MaxArmor  int
	MoveSpeed float64 // tiles/s
	Accel     float64 // tiles/s²
	Decel     float64 // tiles/s²

	AttackCooldown float64 // seconds
	AttackDamage   int
	AttackProj     ProjectileType

	SpecialCooldown float64
	SpecialCharges  int
	SpecialProj     ProjectileType // unused for buff specials
	SpecialBuff     bool           // true = special applies a buff, no projectile
}

var classDefs = [classTypeMax]ClassDef{
	{
		Name: "duelist", MaxHealth: 100, MaxArmor: 20,
		MoveSpeed: 6.0, Accel: 30, Decel: 40,
		AttackCooldown: 0.5, AttackDamage: 20, AttackProj: ProjBolt,
		SpecialCooldown: 8, SpecialCharges: 2, SpecialProj: ProjSeeker,
	},
	{
		Name: "bulwark", MaxHealth: 140, MaxArmor: 40,
		MoveSpeed: 4.5, Accel: 20, Decel: 30,
		AttackCooldown: 0.8, AttackDamage: 28, AttackProj: ProjHeavy,
		SpecialCooldown: 10, SpecialCharges: 1, SpecialProj: ProjLance,
	},
	{
		Name: "stalker", MaxHealth: 70, MaxArmor: 10,
		MoveSpeed: 7.5, Accel: 40, Decel: 50,
		AttackCooldown: 0.3, AttackDamage: 12, AttackProj: ProjBolt,
		SpecialCooldown: 6, SpecialCharges: 3, SpecialProj: ProjShard,
	},
	{
		Name: "warden", MaxHealth: 110, MaxArmor: 25,
		MoveSpeed: 5.5, Accel: 28, Decel: 38,
		AttackCooldown: 0.6, AttackDamage: 18, AttackProj: ProjBolt,
		SpecialCooldown: 12, SpecialCharges: 1, SpecialBuff: true,
	},
}

// GetClassDef returns the definition for a class, defaulting to Duelist
// for out-of-range values.
func GetClassDef(class ClassType) ClassDef {
	if class < 0 || class >= classTypeMax {
		return classDefs[ClassDuelist]
	}
	return classDefs[class]
}

// ParseClassType maps a class name to its enum, defaulting to Duelist.
func ParseClassType(name string) ClassType {
	for i, d := range classDefs {
		if d.Name == name {
			return ClassType(i)
		}
	}
	return ClassDuelist
}
