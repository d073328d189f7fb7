package main

import (
	"math"
	"testing"

	"pgregory.net/rapid"
)

func testFighter(id string, class ClassType) *Player {
	return NewPlayer(id, id, class, 1)
}

func TestApplyHitArmorMitigation(t *testing.T) {
	attacker := testFighter("a", ClassDuelist)
	target := testFighter("b", ClassDuelist) // 100 hp, 20 armor

	res := ApplyHit(attacker, target, 20, 0)
	// Armor absorbs min(20*0.5, 20*0.7) = 10
	if res.FinalDamage != 10 {
		t.Errorf("expected 10 damage, got %d", res.FinalDamage)
	}
	if target.Health != 90 {
		t.Errorf("expected health 90, got %d", target.Health)
	}
	if res.WasKilled {
		t.Error("target should survive")
	}
}

func TestApplyHitArmorCappedAtSeventyPercent(t *testing.T) {
	attacker := testFighter("a", ClassStalker)
	target := testFighter("b", ClassBulwark) // 140 hp, 40 armor

	res := ApplyHit(attacker, target, 12, 0)
	// min(40*0.5, 12*0.7) = 8.4, final = round(3.6) = 4
	if res.FinalDamage != 4 {
		t.Errorf("expected 4 damage, got %d", res.FinalDamage)
	}
}

func TestApplyHitMinimumOneDamage(t *testing.T) {
	attacker := testFighter("a", ClassDuelist)
	target := testFighter("b", ClassBulwark)

	res := ApplyHit(attacker, target, 1, 0)
	if res.FinalDamage != 1 {
		t.Errorf("a landed hit always deals at least 1, got %d", res.FinalDamage)
	}

	res = ApplyHit(attacker, target, 0, 0)
	if res.FinalDamage != 1 {
		t.Errorf("degenerate base damage clamps to 1, got %d", res.FinalDamage)
	}
}

func TestApplyHitKillCreditsAttacker(t *testing.T) {
	attacker := testFighter("a", ClassDuelist)
	target := testFighter("b", ClassStalker)
	target.Health = 3
	target.VX, target.VY = 5, 5
	target.Moving = true

	res := ApplyHit(attacker, target, 50, 0)
	if !res.WasKilled {
		t.Fatal("target should die")
	}
	if target.Alive {
		t.Error("dead target still marked alive")
	}
	if target.Health != 0 {
		t.Errorf("health floor is 0, got %d", target.Health)
	}
	if target.VX != 0 || target.VY != 0 || target.Moving {
		t.Error("death should zero motion")
	}
	if attacker.RoundKills != 1 || attacker.MatchKills != 1 {
		t.Errorf("kill not credited: round=%d match=%d", attacker.RoundKills, attacker.MatchKills)
	}
	if attacker.RoundDamage != res.FinalDamage {
		t.Errorf("damage not credited: %d vs %d", attacker.RoundDamage, res.FinalDamage)
	}
}

func TestApplyHitDeadTargetIsNoop(t *testing.T) {
	attacker := testFighter("a", ClassDuelist)
	target := testFighter("b", ClassDuelist)
	target.Alive = false
	target.Health = 0

	res := ApplyHit(attacker, target, 50, 0)
	if res.FinalDamage != 0 || res.WasKilled {
		t.Errorf("dead target must not take damage: %+v", res)
	}
	if attacker.RoundKills != 0 {
		t.Error("no kill credit for hitting a corpse")
	}
}

func TestApplyHitBuffMultipliesBeforeMitigation(t *testing.T) {
	attacker := testFighter("a", ClassWarden)
	target := testFighter("b", ClassDuelist) // 20 armor
	ApplyBuff(attacker, BuffDamage, 1.5, WardenBuffDuration, 0)

	res := ApplyHit(attacker, target, 20, 1.0)
	// 20*1.5 = 30; armor absorbs min(10, 21) = 10; final 20
	if res.FinalDamage != 20 {
		t.Errorf("expected 20 damage with buff, got %d", res.FinalDamage)
	}
}

func TestBuffExpiresBySimTime(t *testing.T) {
	attacker := testFighter("a", ClassWarden)
	ApplyBuff(attacker, BuffDamage, 1.5, 4.0, 0)

	if m := attacker.DamageMultiplier(3.9); m != 1.5 {
		t.Errorf("buff should be live at 3.9s, got %v", m)
	}
	if m := attacker.DamageMultiplier(4.0); m != 1.0 {
		t.Errorf("buff should expire at 4.0s, got %v", m)
	}
	if len(attacker.Buffs) != 0 {
		t.Error("expired buff should be pruned")
	}
}

func TestApplyBuffRejectsDegenerateValues(t *testing.T) {
	p := testFighter("a", ClassWarden)
	ApplyBuff(p, BuffDamage, 0, 4, 0)
	ApplyBuff(p, BuffDamage, 1.5, 0, 0)
	ApplyBuff(nil, BuffDamage, 1.5, 4, 0)
	if len(p.Buffs) != 0 {
		t.Errorf("degenerate buffs should be dropped, have %d", len(p.Buffs))
	}
}

func TestApplyHitProperties(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		base := rapid.IntRange(1, 200).Draw(t, "base")
		armor := rapid.IntRange(0, 200).Draw(t, "armor")
		health := rapid.IntRange(1, 500).Draw(t, "health")

		attacker := testFighter("a", ClassDuelist)
		target := testFighter("b", ClassDuelist)
		target.Armor = armor
		target.Health = health

		res := ApplyHit(attacker, target, base, 0)

		if res.FinalDamage < 1 {
			t.Fatalf("final damage %d below floor", res.FinalDamage)
		}
		if res.FinalDamage > base {
			t.Fatalf("mitigation cannot amplify: %d > %d", res.FinalDamage, base)
		}
		// Armor absorbs at most 70% of the hit
		minFinal := int(math.Round(float64(base) * 0.3))
		if minFinal >= 1 && res.FinalDamage < minFinal {
			t.Fatalf("final %d below the 30%% floor %d for base %d", res.FinalDamage, minFinal, base)
		}
		if target.Health != maxInt(0, health-res.FinalDamage) {
			t.Fatalf("health %d inconsistent with damage %d from %d", target.Health, res.FinalDamage, health)
		}
		if res.WasKilled != (target.Health == 0) {
			t.Fatalf("kill flag %v disagrees with health %d", res.WasKilled, target.Health)
		}
	})
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
