package main

import "math"

// DamageResult is the outcome of one resolved hit.
type DamageResult struct {
	FinalDamage int
	WasKilled   bool
}

// ApplyHit resolves base damage from attacker to target at simulation time
// now: buff multiplier first, then armor mitigation, then the health floor.
// Armor absorbs at most half its value and never more than 70% of the hit;
// every landed hit deals at least 1 damage. A kill flips the target dead
// until the next round reset and credits the attacker.
func ApplyHit(attacker, target *Player, baseDamage int, now float64) DamageResult {
	if target == nil || !target.Alive {
		return DamageResult{}
	}
	if baseDamage < 1 {
		baseDamage = 1
	}

	dmg := float64(baseDamage)
	if attacker != nil {
		dmg *= attacker.DamageMultiplier(now)
	}

	armorReduction := math.Min(float64(target.Armor)*0.5, dmg*0.7)
	final := int(math.Round(dmg - armorReduction))
	if final < 1 {
		final = 1
	}

	target.Health -= final
	if target.Health < 0 {
		target.Health = 0
	}
	if attacker != nil {
		attacker.RoundDamage += final
		attacker.MatchDamage += final
	}

	res := DamageResult{FinalDamage: final}
	if target.Health <= 0 {
		target.Alive = false
		target.Moving = false
		target.VX, target.VY = 0, 0
		res.WasKilled = true
		if attacker != nil {
			attacker.RoundKills++
			attacker.MatchKills++
		}
	}
	return res
}

// ApplyBuff grants the player an expiring damage modifier.
func ApplyBuff(p *Player, kind BuffKind, multiplier, duration, now float64) {
	if p == nil || multiplier <= 0 || duration <= 0 {
		return
	}
	p.AddBuff(kind, multiplier, duration, now)
}
