package main

import (
	"fmt"
	"sync"
)

// Wall is a static line-segment obstacle in arena tile units.
type Wall struct {
	X1, Y1 float64
	X2, Y2 float64
}

// SpawnPoint is a spawn position with an initial facing angle.
// Team 0 means any player may use it.
type SpawnPoint struct {
	X, Y     float64
	Rotation float64
	Team     int
}

// Arena is the static per-match geometry. Immutable once a match starts;
// templates are shared by reference across matches.
type Arena struct {
	Key    string
	Width  float64
	Height float64
	Walls  []Wall
	Spawns []SpawnPoint
}

// SpawnForTeam returns the first spawn point tagged for the given team,
// falling back to any spawn point.
func (a *Arena) SpawnForTeam(team int) (SpawnPoint, bool) {
	for _, sp := range a.Spawns {
		if sp.Team == team {
			return sp, true
		}
	}
	if len(a.Spawns) > 0 {
		return a.Spawns[0], true
	}
	return SpawnPoint{}, false
}

// Center returns the arena midpoint, the hard-coded spawn fallback.
func (a *Arena) Center() (float64, float64) {
	return a.Width / 2, a.Height / 2
}

// ArenaRegistry resolves arena-type keys to immutable templates.
// Built explicitly at startup and injected; no package-level default.
type ArenaRegistry struct {
	mu     sync.RWMutex
	arenas map[string]*Arena
}

// NewArenaRegistry creates a registry preloaded with the standard duel layouts.
func NewArenaRegistry() *ArenaRegistry {
	r := &ArenaRegistry{arenas: make(map[string]*Arena)}
	for _, a := range builtinArenas() {
		r.arenas[a.Key] = a
	}
	return r
}

// Register adds or replaces an arena template.
func (r *ArenaRegistry) Register(a *Arena) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.arenas[a.Key] = a
}

// Lookup returns the arena for a key, or an error if unknown.
func (r *ArenaRegistry) Lookup(key string) (*Arena, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.arenas[key]
	if !ok {
		return nil, fmt.Errorf("unknown arena %q", key)
	}
	return a, nil
}

// DefaultArenaKey is used when match creation does not name a layout.
const DefaultArenaKey = "duel_classic"

func builtinArenas() []*Arena {
	return []*Arena{
		{
			Key:    "duel_classic",
			Width:  40,
			Height: 30,
			Walls: []Wall{
				// Two center pillars forcing lanes
				{X1: 18, Y1: 10, X2: 22, Y2: 10},
				{X1: 18, Y1: 20, X2: 22, Y2: 20},
			},
			Spawns: []SpawnPoint{
				{X: 5, Y: 15, Rotation: 0, Team: 1},
				{X: 35, Y: 15, Rotation: 3.14159265, Team: 2},
			},
		},
		{
			Key:    "duel_cross",
			Width:  36,
			Height: 36,
			Walls: []Wall{
				{X1: 18, Y1: 8, X2: 18, Y2: 15},
				{X1: 18, Y1: 21, X2: 18, Y2: 28},
				{X1: 8, Y1: 18, X2: 15, Y2: 18},
				{X1: 21, Y1: 18, X2: 28, Y2: 18},
			},
			Spawns: []SpawnPoint{
				{X: 5, Y: 5, Rotation: 0.785398163, Team: 1},
				{X: 31, Y: 31, Rotation: 3.926990817, Team: 2},
			},
		},
		{
			Key:    "duel_open",
			Width:  32,
			Height: 24,
			Walls:  nil,
			Spawns: []SpawnPoint{
				{X: 4, Y: 12, Rotation: 0, Team: 1},
				{X: 28, Y: 12, Rotation: 3.14159265, Team: 2},
			},
		},
	}
}
