package main

import "testing"

func TestResetForRound(t *testing.T) {
	p := NewPlayer("p", "p", ClassBulwark, 1)
	p.Health = 10
	p.Armor = 0
	p.Alive = false
	p.VX, p.VY = 3, 3
	p.SpecialCharges = 0
	p.RoundKills = 2
	p.RoundDamage = 55
	p.MatchKills = 2
	p.MatchDamage = 55
	p.AddBuff(BuffDamage, 1.5, 10, 0)

	p.ResetForRound(SpawnPoint{X: 5, Y: 15, Rotation: 0})

	def := GetClassDef(ClassBulwark)
	if p.Health != def.MaxHealth || p.Armor != def.MaxArmor {
		t.Errorf("expected full strength, got hp=%d ar=%d", p.Health, p.Armor)
	}
	if !p.Alive || p.VX != 0 || p.VY != 0 {
		t.Error("should respawn alive and stationary")
	}
	if p.SpecialCharges != def.SpecialCharges {
		t.Errorf("charges not restored: %d", p.SpecialCharges)
	}
	if len(p.Buffs) != 0 {
		t.Error("buffs should clear at round start")
	}
	if p.RoundKills != 0 || p.RoundDamage != 0 {
		t.Error("round stats should clear")
	}
	if p.MatchKills != 2 || p.MatchDamage != 55 {
		t.Error("match totals must survive round resets")
	}
	if p.X != 5 || p.Y != 15 {
		t.Errorf("expected spawn position, got (%v, %v)", p.X, p.Y)
	}
}

func TestCooldownGates(t *testing.T) {
	p := NewPlayer("p", "p", ClassDuelist, 1)

	if !p.CanAttack(0) {
		t.Error("fresh player should be able to attack")
	}
	p.AttackReadyAt = 0.5
	if p.CanAttack(0.49) {
		t.Error("attack gated until the ready stamp")
	}
	if !p.CanAttack(0.5) {
		t.Error("ready exactly at the stamp")
	}

	p.SpecialCharges = 0
	if p.CanSpecial(100) {
		t.Error("no charges means no special regardless of cooldown")
	}

	p.DashReadyAt = 3
	if p.CanDash(2.9) {
		t.Error("dash gated until the ready stamp")
	}

	p.Alive = false
	if p.CanAttack(100) || p.CanDash(100) {
		t.Error("dead players act on nothing")
	}
}

func TestToStateRoundsCoordinates(t *testing.T) {
	p := NewPlayer("p", "p", ClassDuelist, 1)
	p.X, p.Y = 10.123456, 5.987654

	st := p.ToState()
	if st.X != 10.1 || st.Y != 6.0 {
		t.Errorf("wire coordinates should be rounded: (%v, %v)", st.X, st.Y)
	}
	if st.ID != "p" || st.Class != int(ClassDuelist) {
		t.Errorf("identity fields wrong: %+v", st)
	}
}

func TestDamageMultiplierStacksBuffs(t *testing.T) {
	p := NewPlayer("p", "p", ClassWarden, 1)
	p.AddBuff(BuffDamage, 1.5, 10, 0)
	p.AddBuff(BuffDamage, 2.0, 10, 0)

	if m := p.DamageMultiplier(1); m != 3.0 {
		t.Errorf("buffs multiply, expected 3.0, got %v", m)
	}
}

func TestParseClassType(t *testing.T) {
	if ParseClassType("bulwark") != ClassBulwark {
		t.Error("bulwark should parse")
	}
	if ParseClassType("no_such_class") != ClassDuelist {
		t.Error("unknown names fall back to duelist")
	}
}

func TestClassDefFallback(t *testing.T) {
	if GetClassDef(ClassType(-1)).Name != "duelist" {
		t.Error("out-of-range class should fall back to duelist")
	}
	if GetClassDef(ClassType(99)).Name != "duelist" {
		t.Error("out-of-range class should fall back to duelist")
	}
}
