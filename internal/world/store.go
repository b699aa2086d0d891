// Package world owns the mapping from coordinates to tiles and the policy
// for materializing new tiles around the player.
package world

import (
	"math/rand"

	"github.com/goldencrow0001-crypto/open-world-puzzle-game/internal/models"
)

// Biome assignment uses a single uniform draw against fixed cumulative
// thresholds. Reality nodes are deliberately the rarest band.
const (
	realityNodeThreshold = 0.15
	fluxThreshold        = 0.36
	cityThreshold        = 0.57
	forestThreshold      = 0.78
)

// Chance that a non-reality-node tile carries a puzzle.
const puzzleChance = 0.3

// Chance that a tile carries a loose item.
const itemChance = 0.08

var biomeItems = map[models.Biome][]string{
	models.BiomeWasteland:   {"Rusted Beacon", "Scrap Coil"},
	models.BiomeForest:      {"Lumen Spore", "Data Seed"},
	models.BiomeCity:        {"Memory Shard", "Cable Splice"},
	models.BiomeFlux:        {"Unstable Crystal", "Phase Filament"},
	models.BiomeRealityNode: {"Anchor Fragment"},
}

// Store owns the tile map. Callers mutate tiles only through its methods,
// which keep the creation-time invariants intact. The backing map is shared
// with the session aggregate so serialization sees every tile.
type Store struct {
	tiles map[string]*models.Tile
	rng   *rand.Rand
}

// NewStore wraps an existing tile map. The random source drives biome,
// puzzle and item assignment; inject a seeded source for reproducibility.
func NewStore(tiles map[string]*models.Tile, rng *rand.Rand) *Store {
	return &Store{tiles: tiles, rng: rng}
}

// Bind replaces the backing tile map, used when a session is loaded.
func (s *Store) Bind(tiles map[string]*models.Tile) {
	s.tiles = tiles
}

// Tile returns the tile at a coordinate, if it exists.
func (s *Store) Tile(c models.Coordinate) (*models.Tile, bool) {
	t, ok := s.tiles[c.Key()]
	return t, ok
}

// EnsureTile materializes the tile at a coordinate if it does not already
// exist. Repeated calls for the same coordinate are no-ops: the biome and
// puzzle rolls happen exactly once, so revisiting never re-rolls a tile.
func (s *Store) EnsureTile(c models.Coordinate) *models.Tile {
	if t, ok := s.tiles[c.Key()]; ok {
		return t
	}

	biome := biomeFor(s.rng.Float64())
	hasPuzzle := biome == models.BiomeRealityNode || s.rng.Float64() > 1-puzzleChance

	tile := &models.Tile{
		Biome:         biome,
		Description:   models.PendingDescription,
		VisualFeature: models.PendingFeature,
		HasPuzzle:     hasPuzzle,
	}
	if s.rng.Float64() < itemChance {
		items := biomeItems[biome]
		tile.Item = items[s.rng.Intn(len(items))]
	}
	s.tiles[c.Key()] = tile
	return tile
}

// EnsureRadius materializes every tile within the square radius of center.
func (s *Store) EnsureRadius(center models.Coordinate, radius int) {
	for dy := -radius; dy <= radius; dy++ {
		for dx := -radius; dx <= radius; dx++ {
			s.EnsureTile(models.Coordinate{X: center.X + dx, Y: center.Y + dy})
		}
	}
}

// MarkExplored flags the tile at a coordinate as visited.
func (s *Store) MarkExplored(c models.Coordinate) {
	if t, ok := s.tiles[c.Key()]; ok {
		t.Explored = true
	}
}

// ApplyEnrichment fills a tile's content fields, but only while they are
// still pending. A response that resolves after the tile was already
// enriched is silently dropped; this is the stale-result guard for the
// async pipeline. Reports whether the content was applied.
func (s *Store) ApplyEnrichment(c models.Coordinate, description, visualFeature string) bool {
	t, ok := s.tiles[c.Key()]
	if !ok || !t.ContentPending() {
		return false
	}
	t.Description = description
	t.VisualFeature = visualFeature
	return true
}

// MarkSolved transitions a puzzle tile to solved. It is a no-op for absent
// tiles, tiles without a puzzle, and tiles already solved.
func (s *Store) MarkSolved(c models.Coordinate) bool {
	t, ok := s.tiles[c.Key()]
	if !ok || !t.HasPuzzle || t.IsSolved {
		return false
	}
	t.IsSolved = true
	return true
}

// TakeItem removes and returns the tile's item, if any.
func (s *Store) TakeItem(c models.Coordinate) (string, bool) {
	t, ok := s.tiles[c.Key()]
	if !ok || t.Item == "" {
		return "", false
	}
	item := t.Item
	t.Item = ""
	return item, true
}

func biomeFor(roll float64) models.Biome {
	switch {
	case roll < realityNodeThreshold:
		return models.BiomeRealityNode
	case roll < fluxThreshold:
		return models.BiomeFlux
	case roll < cityThreshold:
		return models.BiomeCity
	case roll < forestThreshold:
		return models.BiomeForest
	default:
		return models.BiomeWasteland
	}
}
