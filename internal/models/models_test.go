package models

import (
	"strings"
	"testing"
)

func TestCoordinateKeyRoundTrip(t *testing.T) {
	coords := []Coordinate{{0, 0}, {3, -7}, {-12, 45}, {1000000, -1000000}}
	for _, c := range coords {
		parsed, err := ParseCoordinateKey(c.Key())
		if err != nil {
			t.Fatalf("ParseCoordinateKey(%q) failed: %v", c.Key(), err)
		}
		if parsed != c {
			t.Errorf("Round trip of %v gave %v", c, parsed)
		}
	}
}

func TestParseCoordinateKeyRejectsGarbage(t *testing.T) {
	for _, key := range []string{"", "3", "a,b", "1,2,3x", "1;2"} {
		if _, err := ParseCoordinateKey(key); err == nil {
			t.Errorf("ParseCoordinateKey(%q) should have failed", key)
		}
	}
}

func TestManhattanDistance(t *testing.T) {
	a := Coordinate{0, 0}
	if d := a.ManhattanDistance(Coordinate{1, 0}); d != 1 {
		t.Errorf("Expected distance 1, got %d", d)
	}
	if d := a.ManhattanDistance(Coordinate{-2, 3}); d != 5 {
		t.Errorf("Expected distance 5, got %d", d)
	}
}

func TestGrantExperienceLevels(t *testing.T) {
	tests := []struct {
		grants    []int
		wantXP    int
		wantLevel int
		lastLevel bool // whether the final grant reports a level-up
	}{
		{[]int{100}, 100, 1, false},
		{[]int{400, 100}, 500, 2, true},
		{[]int{450, 100}, 550, 2, true},
		{[]int{500, 100}, 600, 2, false},
		{[]int{2400, 100}, 2500, 6, true},
	}

	for _, tt := range tests {
		p := NewPlayer()
		var leveled bool
		for _, amount := range tt.grants {
			leveled = p.GrantExperience(amount, XPPerLevel)
		}
		if p.Experience != tt.wantXP {
			t.Errorf("grants %v: experience = %d, want %d", tt.grants, p.Experience, tt.wantXP)
		}
		if p.Level != tt.wantLevel {
			t.Errorf("grants %v: level = %d, want %d", tt.grants, p.Level, tt.wantLevel)
		}
		if leveled != tt.lastLevel {
			t.Errorf("grants %v: level-up fired = %v, want %v", tt.grants, leveled, tt.lastLevel)
		}
		// Derived-level invariant must hold after every mutation.
		if want := p.Experience/XPPerLevel + 1; p.Level != want {
			t.Errorf("grants %v: level %d violates floor(xp/%d)+1 = %d", tt.grants, p.Level, XPPerLevel, want)
		}
	}
}

func TestAddItemCapacity(t *testing.T) {
	p := NewPlayer()
	for i := 0; i < InventoryCapacity; i++ {
		if !p.AddItem("Scrap Coil", InventoryCapacity) {
			t.Fatalf("AddItem failed at %d of %d", i, InventoryCapacity)
		}
	}
	if p.AddItem("One Too Many", InventoryCapacity) {
		t.Error("AddItem should refuse past capacity")
	}
	if len(p.Inventory) != InventoryCapacity {
		t.Errorf("Inventory size = %d, want %d", len(p.Inventory), InventoryCapacity)
	}
}

func TestSessionJSONRoundTrip(t *testing.T) {
	session := NewSession()
	session.Player.Move(2, -1)
	session.Player.GrantExperience(250, XPPerLevel)
	session.World[Coordinate{2, -1}.Key()] = &Tile{
		Biome:         BiomeForest,
		Description:   "Data-trees hum softly.",
		VisualFeature: "Glowing Canopy",
		Explored:      true,
		HasPuzzle:     true,
	}
	session.World[Coordinate{0, 0}.Key()] = &Tile{
		Biome:         BiomeRealityNode,
		Description:   PendingDescription,
		VisualFeature: PendingFeature,
		HasPuzzle:     true,
	}
	session.AppendLog("You move to (2, -1).", SeverityInfo)
	session.ActivePuzzle = &Puzzle{
		ID:       "p1",
		Question: "What is 2 + 2?",
		Kind:     PuzzleLogic,
		Answer:   "4",
		Origin:   Coordinate{2, -1},
	}
	session.Generating = true

	blob, err := session.Encode()
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}

	loaded, err := DecodeSession(blob)
	if err != nil {
		t.Fatalf("DecodeSession failed: %v", err)
	}

	if loaded.Player.Position != session.Player.Position {
		t.Errorf("Position = %v, want %v", loaded.Player.Position, session.Player.Position)
	}
	if loaded.Player.Experience != 250 || loaded.Player.Level != 1 {
		t.Errorf("Progression = %d/%d, want 250/1", loaded.Player.Experience, loaded.Player.Level)
	}
	if len(loaded.World) != 2 {
		t.Fatalf("World size = %d, want 2", len(loaded.World))
	}
	tile := loaded.World[Coordinate{2, -1}.Key()]
	if tile == nil || tile.Biome != BiomeForest || !tile.HasPuzzle || !tile.Explored {
		t.Errorf("Forest tile did not round-trip: %+v", tile)
	}
	if len(loaded.Logs) != 1 || loaded.Logs[0].Message != "You move to (2, -1)." {
		t.Errorf("Logs did not round-trip: %+v", loaded.Logs)
	}
	if loaded.ActivePuzzle == nil || loaded.ActivePuzzle.Answer != "4" {
		t.Errorf("Active puzzle did not round-trip: %+v", loaded.ActivePuzzle)
	}
	// The busy flag is transient: a loaded session never starts mid-generation.
	if loaded.Generating {
		t.Error("Generating should be reset to false on load")
	}
}

func TestDecodeSessionRejectsInvalid(t *testing.T) {
	tests := []struct {
		name string
		blob string
	}{
		{"not json", "not json at all"},
		{"missing player", `{"world": {}, "logs": []}`},
		{"missing world", `{"player": {"position": {"x": 0, "y": 0}}, "logs": []}`},
		{"null player", `{"player": null, "world": {}}`},
	}
	for _, tt := range tests {
		if _, err := DecodeSession(tt.blob); err == nil {
			t.Errorf("%s: DecodeSession should have failed", tt.name)
		}
	}
}

func TestDecodeSessionErrorNamesField(t *testing.T) {
	_, err := DecodeSession(`{"world": {}}`)
	if err == nil || !strings.Contains(err.Error(), "player") {
		t.Errorf("Expected error naming the missing field, got %v", err)
	}
}
