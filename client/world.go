package client

import (
	"sort"

	"go.uber.org/zap"

	"github.com/sjbmcg/eo-ws-bridge/protocol"
)

// Position is where the local player stands.
type Position struct {
	X         int
	Y         int
	MapID     int
	Direction protocol.Direction
}

// NearbyEntity is another character in view.
type NearbyEntity struct {
	ID        int
	Name      string
	X         int
	Y         int
	Direction protocol.Direction
	MapID     int
	ClassID   int
	Level     int
	HP        int
	MaxHP     int
}

// ApplyResult summarizes what a snapshot changed.
type ApplyResult struct {
	SelfUpdated bool
	Upserted    int
	Npcs        int
	Items       int
}

// World is the local view of the map around the player.
type World struct {
	Player Position
	Nearby map[int]NearbyEntity

	log *zap.SugaredLogger
}

// NewWorld returns an empty world.
func NewWorld(log *zap.SugaredLogger) *World {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &World{Nearby: make(map[int]NearbyEntity), log: log}
}

// Reset empties the world and zeroes the player position.
func (w *World) Reset() {
	w.Player = Position{}
	w.Nearby = make(map[int]NearbyEntity)
}

// Apply merges a snapshot. The entry whose id is selfID overwrites the
// player position; every other non-zero id replaces its entity outright.
// NPCs and items are only counted.
func (w *World) Apply(info protocol.NearbyInfo, selfID int) ApplyResult {
	var res ApplyResult
	for _, c := range info.Characters {
		switch {
		case c.PlayerID == selfID && selfID != 0:
			w.Player = Position{X: c.X, Y: c.Y, MapID: c.MapID, Direction: c.Direction}
			res.SelfUpdated = true
			w.log.Infow("own position", "x", c.X, "y", c.Y, "map", c.MapID, "dir", c.Direction)
		case c.PlayerID > 0:
			w.Nearby[c.PlayerID] = NearbyEntity{
				ID:        c.PlayerID,
				Name:      c.Name,
				X:         c.X,
				Y:         c.Y,
				Direction: c.Direction,
				MapID:     c.MapID,
				ClassID:   c.ClassID,
				Level:     c.Level,
				HP:        c.HP,
				MaxHP:     c.MaxHP,
			}
			res.Upserted++
			w.log.Debugw("nearby player", "id", c.PlayerID, "name", c.Name, "x", c.X, "y", c.Y)
		}
	}
	res.Npcs = len(info.Npcs)
	res.Items = len(info.Items)
	if res.Npcs > 0 || res.Items > 0 {
		w.log.Debugw("nearby objects", "npcs", res.Npcs, "items", res.Items)
	}
	return res
}

// Remove drops an entity. It reports whether the id was known.
func (w *World) Remove(id int) bool {
	e, ok := w.Nearby[id]
	if !ok {
		w.log.Debugw("unknown player left view", "id", id)
		return false
	}
	delete(w.Nearby, id)
	w.log.Infow("player left view", "id", id, "name", e.Name)
	return true
}

// MoveEntity applies a walk broadcast to an entity already in view.
func (w *World) MoveEntity(id, x, y int, dir protocol.Direction) bool {
	e, ok := w.Nearby[id]
	if !ok {
		return false
	}
	e.X, e.Y, e.Direction = x, y, dir
	w.Nearby[id] = e
	return true
}

// TurnEntity applies a face broadcast to an entity already in view.
func (w *World) TurnEntity(id int, dir protocol.Direction) bool {
	e, ok := w.Nearby[id]
	if !ok {
		return false
	}
	e.Direction = dir
	w.Nearby[id] = e
	return true
}

// PredictWalk moves the player one tile in dir and returns the
// destination.
func (w *World) PredictWalk(dir protocol.Direction) (int, int) {
	x, y := dir.Step(w.Player.X, w.Player.Y)
	w.Player.X, w.Player.Y = x, y
	w.Player.Direction = dir
	return x, y
}

// PredictFace turns the player in place.
func (w *World) PredictFace(dir protocol.Direction) {
	w.Player.Direction = dir
}

// Entities returns the nearby entities ordered by id.
func (w *World) Entities() []NearbyEntity {
	out := make([]NearbyEntity, 0, len(w.Nearby))
	for _, e := range w.Nearby {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
