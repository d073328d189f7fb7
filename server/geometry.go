package main

import "math"

const (
	PlayerRadius       = 0.4  // collision radius in tile units
	ProjectileRadius   = 0.15 // wall clearance for projectile paths
	spawnSearchStep    = 0.5  // ring spacing for FindNearestValidPosition
	spawnMinRingChecks = 8
)

// CollisionInfo reports which checks corrected a proposed position.
type CollisionInfo struct {
	Bounds bool
	Wall   bool
	Player bool
}

// Corrected returns true if any check adjusted the position.
func (ci CollisionInfo) Corrected() bool {
	return ci.Bounds || ci.Wall || ci.Player
}

// pointSegmentDistance returns the distance from (px,py) to the segment
// (x1,y1)-(x2,y2) along with the closest point on the segment.
// Zero-length segments degenerate to point distance.
func pointSegmentDistance(px, py, x1, y1, x2, y2 float64) (dist, cx, cy float64) {
	dx := x2 - x1
	dy := y2 - y1
	lenSq := dx*dx + dy*dy
	if lenSq == 0 {
		return Distance(px, py, x1, y1), x1, y1
	}
	t := ((px-x1)*dx + (py-y1)*dy) / lenSq
	t = Clamp(t, 0, 1)
	cx = x1 + t*dx
	cy = y1 + t*dy
	return Distance(px, py, cx, cy), cx, cy
}

// CheckCollision checks if two circles overlap
func CheckCollision(x1, y1, r1, x2, y2, r2 float64) bool {
	dx := x2 - x1
	dy := y2 - y1
	radSum := r1 + r2
	return dx*dx+dy*dy <= radSum*radSum
}

// ValidateMovement resolves a proposed position against the arena and other
// live players. Checks run boundary -> walls -> players, each stage operating
// on the output of the previous, so the last triggered correction wins.
// Always returns a usable position; there is no error path.
func ValidateMovement(curX, curY, propX, propY float64, arena *Arena, others []*Player) (float64, float64, CollisionInfo) {
	var info CollisionInfo

	x, y := propX, propY

	// Boundary clamp, inset by the player radius
	cx := Clamp(x, PlayerRadius, arena.Width-PlayerRadius)
	cy := Clamp(y, PlayerRadius, arena.Height-PlayerRadius)
	if cx != x || cy != y {
		info.Bounds = true
	}
	x, y = cx, cy

	// Wall segments: push out along the normal from the closest point
	for _, w := range arena.Walls {
		d, wx, wy := pointSegmentDistance(x, y, w.X1, w.Y1, w.X2, w.Y2)
		if d >= PlayerRadius {
			continue
		}
		info.Wall = true
		if d < 1e-9 {
			// Sitting exactly on the wall: push back toward where we came from
			d2 := Distance(curX, curY, wx, wy)
			if d2 < 1e-9 {
				continue
			}
			x = wx + (curX-wx)/d2*PlayerRadius
			y = wy + (curY-wy)/d2*PlayerRadius
			continue
		}
		x = wx + (x-wx)/d*PlayerRadius
		y = wy + (y-wy)/d*PlayerRadius
	}

	// Other live players: circle-circle separation, mover pushed by half
	// the overlap (the opponent's own movement resolves the other half)
	for _, o := range others {
		if o == nil || !o.Alive {
			continue
		}
		d := Distance(x, y, o.X, o.Y)
		minDist := 2 * PlayerRadius
		if d >= minDist {
			continue
		}
		info.Player = true
		if d < 1e-9 {
			// Perfectly stacked: separate along the approach direction
			d2 := Distance(curX, curY, o.X, o.Y)
			if d2 < 1e-9 {
				x = o.X + minDist
				continue
			}
			x = o.X + (curX-o.X)/d2*minDist/2
			y = o.Y + (curY-o.Y)/d2*minDist/2
			continue
		}
		push := (minDist - d) / 2
		x += (x - o.X) / d * push
		y += (y - o.Y) / d * push
	}

	return x, y, info
}

func cross2(ax, ay, bx, by float64) float64 {
	return ax*by - ay*bx
}

// segmentsIntersect reports whether segments AB and CD properly cross.
// Touching endpoints and collinear overlap fall through to the distance
// fallback in segmentSegmentDistance.
func segmentsIntersect(ax, ay, bx, by, cx, cy, dx, dy float64) bool {
	d1 := cross2(dx-cx, dy-cy, ax-cx, ay-cy)
	d2 := cross2(dx-cx, dy-cy, bx-cx, by-cy)
	d3 := cross2(bx-ax, by-ay, cx-ax, cy-ay)
	d4 := cross2(bx-ax, by-ay, dx-ax, dy-ay)
	return ((d1 > 0 && d2 < 0) || (d1 < 0 && d2 > 0)) &&
		((d3 > 0 && d4 < 0) || (d3 < 0 && d4 > 0))
}

// segmentSegmentDistance returns the minimum distance between segments AB
// and CD: zero when they cross, otherwise the closest endpoint-to-segment
// distance.
func segmentSegmentDistance(ax, ay, bx, by, cx, cy, dx, dy float64) float64 {
	if segmentsIntersect(ax, ay, bx, by, cx, cy, dx, dy) {
		return 0
	}
	d1, _, _ := pointSegmentDistance(ax, ay, cx, cy, dx, dy)
	d2, _, _ := pointSegmentDistance(bx, by, cx, cy, dx, dy)
	d3, _, _ := pointSegmentDistance(cx, cy, ax, ay, bx, by)
	d4, _, _ := pointSegmentDistance(dx, dy, ax, ay, bx, by)
	return math.Min(math.Min(d1, d2), math.Min(d3, d4))
}

// ProjectilePathBlocked reports whether a projectile sweeping from
// (fromX,fromY) to (toX,toY) leaves the arena or passes within clearance
// of a wall anywhere along the step. Fast shot types cover more than a
// wall's clearance per tick, so the endpoint alone is not enough.
func ProjectilePathBlocked(fromX, fromY, toX, toY float64, arena *Arena) bool {
	if ValidateProjectilePath(toX, toY, arena) {
		return true
	}
	for _, w := range arena.Walls {
		if segmentSegmentDistance(fromX, fromY, toX, toY, w.X1, w.Y1, w.X2, w.Y2) < ProjectileRadius {
			return true
		}
	}
	return false
}

// ValidateProjectilePath reports whether a projectile at the given position
// is blocked by the arena boundary or a wall. No player repulsion here.
func ValidateProjectilePath(x, y float64, arena *Arena) bool {
	if x < ProjectileRadius || x > arena.Width-ProjectileRadius ||
		y < ProjectileRadius || y > arena.Height-ProjectileRadius {
		return true
	}
	for _, w := range arena.Walls {
		d, _, _ := pointSegmentDistance(x, y, w.X1, w.Y1, w.X2, w.Y2)
		if d < ProjectileRadius {
			return true
		}
	}
	return false
}

// IsValidPosition reports whether a circle of the given radius fits at the
// position without touching the boundary or any wall.
func IsValidPosition(x, y float64, arena *Arena, radius float64) bool {
	if x < radius || x > arena.Width-radius || y < radius || y > arena.Height-radius {
		return false
	}
	for _, w := range arena.Walls {
		d, _, _ := pointSegmentDistance(x, y, w.X1, w.Y1, w.X2, w.Y2)
		if d < radius {
			return false
		}
	}
	return true
}

// FindNearestValidPosition searches concentric rings around the target for a
// valid placement, sampling more angles as the ring grows. Returns false if
// nothing fits within maxSearch; the caller supplies its own fallback.
func FindNearestValidPosition(tx, ty float64, arena *Arena, radius, maxSearch float64) (float64, float64, bool) {
	if IsValidPosition(tx, ty, arena, radius) {
		return tx, ty, true
	}
	for r := spawnSearchStep; r <= maxSearch; r += spawnSearchStep {
		checks := int(2 * math.Pi * r / spawnSearchStep)
		if checks < spawnMinRingChecks {
			checks = spawnMinRingChecks
		}
		for i := 0; i < checks; i++ {
			a := 2 * math.Pi * float64(i) / float64(checks)
			x := tx + math.Cos(a)*r
			y := ty + math.Sin(a)*r
			if IsValidPosition(x, y, arena, radius) {
				return x, y, true
			}
		}
	}
	return 0, 0, false
}

// IntegrateVelocity moves a velocity component pair toward a target velocity,
// bounded by per-class acceleration (speeding up) or deceleration (slowing
// down) and clamped to maxSpeed. A zero target applies pure deceleration.
func IntegrateVelocity(vx, vy, targetVX, targetVY, accel, decel, maxSpeed, dt float64) (float64, float64) {
	curSpeed := math.Sqrt(vx*vx + vy*vy)
	tgtSpeed := math.Sqrt(targetVX*targetVX + targetVY*targetVY)

	rate := accel
	if tgtSpeed < curSpeed {
		rate = decel
	}
	maxStep := rate * dt

	dx := targetVX - vx
	dy := targetVY - vy
	step := math.Sqrt(dx*dx + dy*dy)
	if step > maxStep && step > 0 {
		vx += dx / step * maxStep
		vy += dy / step * maxStep
	} else {
		vx, vy = targetVX, targetVY
	}

	speed := math.Sqrt(vx*vx + vy*vy)
	if speed > maxSpeed && speed > 0 {
		vx *= maxSpeed / speed
		vy *= maxSpeed / speed
	}
	return vx, vy
}
