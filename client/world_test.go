package client

import (
	"testing"

	"github.com/sjbmcg/eo-ws-bridge/protocol"
)

func character(id, x, y, mapID int, dir protocol.Direction) protocol.NearbyCharacter {
	return protocol.NearbyCharacter{PlayerID: id, Name: "c", X: x, Y: y, MapID: mapID, Direction: dir}
}

func TestWorldApplySelf(t *testing.T) {
	w := NewWorld(nil)
	w.Nearby[7] = NearbyEntity{ID: 7}

	res := w.Apply(protocol.NearbyInfo{
		Characters: []protocol.NearbyCharacter{character(42, 10, 12, 5, protocol.DirectionDown)},
	}, 42)

	if !res.SelfUpdated {
		t.Error("SelfUpdated = false")
	}
	want := Position{X: 10, Y: 12, MapID: 5, Direction: protocol.DirectionDown}
	if w.Player != want {
		t.Errorf("Player = %+v, want %+v", w.Player, want)
	}
	if len(w.Nearby) != 1 {
		t.Errorf("len(Nearby) = %d, want 1", len(w.Nearby))
	}
	if _, ok := w.Nearby[42]; ok {
		t.Error("local player stored as nearby entity")
	}
}

func TestWorldApplyInsertRemove(t *testing.T) {
	w := NewWorld(nil)
	w.Apply(protocol.NearbyInfo{
		Characters: []protocol.NearbyCharacter{character(9, 3, 4, 5, protocol.DirectionLeft)},
	}, 42)
	if len(w.Nearby) != 1 {
		t.Fatalf("len(Nearby) = %d, want 1", len(w.Nearby))
	}

	if !w.Remove(9) {
		t.Error("Remove(9) = false")
	}
	if len(w.Nearby) != 0 {
		t.Errorf("len(Nearby) = %d after remove", len(w.Nearby))
	}

	if w.Remove(9) {
		t.Error("Remove of absent id reported true")
	}
	if len(w.Nearby) != 0 {
		t.Error("absent remove changed the mapping")
	}
}

func TestWorldApplyOverwrites(t *testing.T) {
	w := NewWorld(nil)
	w.Nearby[9] = NearbyEntity{ID: 9, Name: "old", HP: 50, MaxHP: 60}

	c := character(9, 1, 1, 5, protocol.DirectionUp)
	c.Name = "new"
	w.Apply(protocol.NearbyInfo{Characters: []protocol.NearbyCharacter{c}}, 42)

	got := w.Nearby[9]
	if got.Name != "new" || got.HP != 0 || got.MaxHP != 0 {
		t.Errorf("entity = %+v, want full overwrite", got)
	}
}

func TestWorldApplyIgnoresZeroID(t *testing.T) {
	w := NewWorld(nil)
	res := w.Apply(protocol.NearbyInfo{
		Characters: []protocol.NearbyCharacter{character(0, 1, 1, 1, protocol.DirectionUp)},
		Npcs:       []protocol.NearbyNpc{{Index: 1, ID: 2}},
		Items:      []protocol.NearbyItem{{UID: 1}, {UID: 2}},
	}, 0)
	if len(w.Nearby) != 0 || res.SelfUpdated {
		t.Errorf("id 0 stored: %+v", w.Nearby)
	}
	if res.Npcs != 1 || res.Items != 2 {
		t.Errorf("counts = %+v", res)
	}
}

func TestWorldBroadcastUpdates(t *testing.T) {
	w := NewWorld(nil)
	w.Nearby[9] = NearbyEntity{ID: 9, X: 1, Y: 1}

	if !w.MoveEntity(9, 2, 1, protocol.DirectionRight) {
		t.Fatal("MoveEntity(9) = false")
	}
	if !w.TurnEntity(9, protocol.DirectionUp) {
		t.Fatal("TurnEntity(9) = false")
	}
	got := w.Nearby[9]
	if got.X != 2 || got.Y != 1 || got.Direction != protocol.DirectionUp {
		t.Errorf("entity = %+v", got)
	}

	if w.MoveEntity(10, 0, 0, protocol.DirectionUp) || w.TurnEntity(10, protocol.DirectionUp) {
		t.Error("unknown id updated")
	}
	if _, ok := w.Nearby[10]; ok {
		t.Error("unknown id inserted")
	}
}

func TestWorldPredict(t *testing.T) {
	w := NewWorld(nil)
	w.Player = Position{X: 10, Y: 12, MapID: 5}

	tests := []struct {
		dir  protocol.Direction
		x, y int
	}{
		{protocol.DirectionUp, 10, 11},
		{protocol.DirectionRight, 11, 11},
		{protocol.DirectionDown, 11, 12},
		{protocol.DirectionLeft, 10, 12},
	}
	for _, tt := range tests {
		x, y := w.PredictWalk(tt.dir)
		if x != tt.x || y != tt.y || w.Player.Direction != tt.dir {
			t.Errorf("walk %v: (%d,%d) facing %v, want (%d,%d)", tt.dir, x, y, w.Player.Direction, tt.x, tt.y)
		}
	}

	w.PredictFace(protocol.DirectionUp)
	if w.Player.Direction != protocol.DirectionUp || w.Player.X != 10 {
		t.Errorf("face moved the player: %+v", w.Player)
	}
}
