package world

import (
	"math/rand"
	"testing"

	"github.com/goldencrow0001-crypto/open-world-puzzle-game/internal/models"
)

func newTestStore(seed int64) *Store {
	return NewStore(make(map[string]*models.Tile), rand.New(rand.NewSource(seed)))
}

func TestBiomeThresholds(t *testing.T) {
	tests := []struct {
		roll float64
		want models.Biome
	}{
		{0.0, models.BiomeRealityNode},
		{0.1499, models.BiomeRealityNode},
		{0.15, models.BiomeFlux},
		{0.3599, models.BiomeFlux},
		{0.36, models.BiomeCity},
		{0.5699, models.BiomeCity},
		{0.57, models.BiomeForest},
		{0.7799, models.BiomeForest},
		{0.78, models.BiomeWasteland},
		{0.9999, models.BiomeWasteland},
	}
	for _, tt := range tests {
		if got := biomeFor(tt.roll); got != tt.want {
			t.Errorf("biomeFor(%v) = %s, want %s", tt.roll, got, tt.want)
		}
	}
}

func TestEnsureTileIdempotent(t *testing.T) {
	s := newTestStore(42)
	coord := models.Coordinate{X: 3, Y: -2}

	first := s.EnsureTile(coord)
	biome, hasPuzzle, item := first.Biome, first.HasPuzzle, first.Item

	// Repeated calls must not re-roll anything, no matter how much the
	// random source has advanced in between.
	s.EnsureTile(models.Coordinate{X: 99, Y: 99})
	second := s.EnsureTile(coord)

	if first != second {
		t.Fatal("EnsureTile created a duplicate tile")
	}
	if second.Biome != biome || second.HasPuzzle != hasPuzzle || second.Item != item {
		t.Errorf("Tile was re-rolled: %+v", second)
	}
}

func TestEnsureTileStartsPending(t *testing.T) {
	s := newTestStore(1)
	tile := s.EnsureTile(models.Coordinate{})
	if tile.Description != models.PendingDescription || tile.VisualFeature != models.PendingFeature {
		t.Errorf("New tile should have pending content, got %q / %q", tile.Description, tile.VisualFeature)
	}
	if !tile.ContentPending() {
		t.Error("ContentPending should be true for a new tile")
	}
	if tile.Explored || tile.IsSolved {
		t.Errorf("New tile should be unexplored and unsolved: %+v", tile)
	}
}

func TestRealityNodesAlwaysHavePuzzles(t *testing.T) {
	s := newTestStore(7)
	sawRealityNode := false
	for x := 0; x < 500; x++ {
		tile := s.EnsureTile(models.Coordinate{X: x})
		if tile.Biome == models.BiomeRealityNode {
			sawRealityNode = true
			if !tile.HasPuzzle {
				t.Fatalf("Reality node at x=%d without a puzzle", x)
			}
		}
		if tile.IsSolved {
			t.Fatalf("Fresh tile at x=%d is already solved", x)
		}
	}
	if !sawRealityNode {
		t.Fatal("500 tiles produced no reality node; generation is broken")
	}
}

func TestEnsureRadius(t *testing.T) {
	s := newTestStore(3)
	center := models.Coordinate{X: 1, Y: 0}
	s.EnsureRadius(center, 1)

	for dy := -1; dy <= 1; dy++ {
		for dx := -1; dx <= 1; dx++ {
			coord := models.Coordinate{X: center.X + dx, Y: center.Y + dy}
			if _, ok := s.Tile(coord); !ok {
				t.Errorf("Tile %s missing after EnsureRadius", coord)
			}
		}
	}
	if len(s.tiles) != 9 {
		t.Errorf("Expected exactly 9 tiles, got %d", len(s.tiles))
	}
}

func TestApplyEnrichmentGuard(t *testing.T) {
	s := newTestStore(5)
	coord := models.Coordinate{X: 2, Y: 2}
	s.EnsureTile(coord)

	if !s.ApplyEnrichment(coord, "A ruined plaza.", "Broken Statue") {
		t.Fatal("First enrichment should apply")
	}

	// A stale response resolving later must be dropped, not clobber the
	// earlier write.
	if s.ApplyEnrichment(coord, "Different text.", "Other") {
		t.Error("Second enrichment should be discarded")
	}
	tile, _ := s.Tile(coord)
	if tile.Description != "A ruined plaza." || tile.VisualFeature != "Broken Statue" {
		t.Errorf("Earlier enrichment was overwritten: %q / %q", tile.Description, tile.VisualFeature)
	}
}

func TestApplyEnrichmentAbsentTile(t *testing.T) {
	s := newTestStore(5)
	if s.ApplyEnrichment(models.Coordinate{X: 9, Y: 9}, "x", "y") {
		t.Error("Enrichment of an absent tile should be a no-op")
	}
}

func TestMarkSolved(t *testing.T) {
	s := newTestStore(11)

	// Find one puzzle tile and one non-puzzle tile.
	var puzzleCoord, plainCoord *models.Coordinate
	for x := 0; x < 200 && (puzzleCoord == nil || plainCoord == nil); x++ {
		coord := models.Coordinate{X: x}
		tile := s.EnsureTile(coord)
		c := coord
		if tile.HasPuzzle && puzzleCoord == nil {
			puzzleCoord = &c
		}
		if !tile.HasPuzzle && plainCoord == nil {
			plainCoord = &c
		}
	}
	if puzzleCoord == nil || plainCoord == nil {
		t.Fatal("Could not find both tile kinds in 200 tiles")
	}

	if !s.MarkSolved(*puzzleCoord) {
		t.Error("MarkSolved should succeed on an unsolved puzzle tile")
	}
	if s.MarkSolved(*puzzleCoord) {
		t.Error("MarkSolved should be a no-op the second time")
	}
	tile, _ := s.Tile(*puzzleCoord)
	if !tile.IsSolved {
		t.Error("Tile should be solved")
	}

	// isSolved=true implies hasPuzzle=true: solving a plain tile is refused.
	if s.MarkSolved(*plainCoord) {
		t.Error("MarkSolved should refuse a tile without a puzzle")
	}
	plain, _ := s.Tile(*plainCoord)
	if plain.IsSolved {
		t.Error("Non-puzzle tile must never be solved")
	}

	if s.MarkSolved(models.Coordinate{X: -1000, Y: -1000}) {
		t.Error("MarkSolved should refuse an absent tile")
	}
}

func TestTakeItem(t *testing.T) {
	s := newTestStore(13)
	var coord models.Coordinate
	found := false
	for x := 0; x < 500 && !found; x++ {
		c := models.Coordinate{X: x}
		if tile := s.EnsureTile(c); tile.Item != "" {
			coord, found = c, true
		}
	}
	if !found {
		t.Fatal("500 tiles produced no item")
	}

	item, ok := s.TakeItem(coord)
	if !ok || item == "" {
		t.Fatal("TakeItem should return the tile's item")
	}
	if _, ok := s.TakeItem(coord); ok {
		t.Error("TakeItem should be empty the second time")
	}
	tile, _ := s.Tile(coord)
	if tile.Item != "" {
		t.Error("Item should be removed from the tile")
	}
}
