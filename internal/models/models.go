package models

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Biome is one of the fixed terrain categories. A tile's biome is decided
// once at creation and never changes.
type Biome string

const (
	BiomeWasteland   Biome = "wasteland"
	BiomeForest      Biome = "forest"
	BiomeCity        Biome = "city"
	BiomeFlux        Biome = "flux"
	BiomeRealityNode Biome = "reality-node"
)

// Sentinel content values for a freshly created tile. Enrichment replaces
// them at most once; anything else means the tile already has real content.
const (
	PendingDescription = "Scanning sector..."
	PendingFeature     = "Unknown"
)

// Default progression tuning. Tests rely on these exact values.
const (
	XPPerPuzzle       = 100
	XPPerLevel        = 500
	InventoryCapacity = 10
)

// Coordinate identifies a cell of the infinite grid.
type Coordinate struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Key returns the canonical map key for a coordinate, e.g. "3,-7".
func (c Coordinate) Key() string {
	return fmt.Sprintf("%d,%d", c.X, c.Y)
}

func (c Coordinate) String() string {
	return fmt.Sprintf("(%d, %d)", c.X, c.Y)
}

// ManhattanDistance returns the grid distance between two coordinates.
func (c Coordinate) ManhattanDistance(other Coordinate) int {
	return abs(c.X-other.X) + abs(c.Y-other.Y)
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

// ParseCoordinateKey is the inverse of Coordinate.Key.
func ParseCoordinateKey(key string) (Coordinate, error) {
	xs, ys, ok := strings.Cut(key, ",")
	if !ok {
		return Coordinate{}, fmt.Errorf("malformed coordinate key %q", key)
	}
	x, err := strconv.Atoi(xs)
	if err != nil {
		return Coordinate{}, fmt.Errorf("malformed coordinate key %q: %v", key, err)
	}
	y, err := strconv.Atoi(ys)
	if err != nil {
		return Coordinate{}, fmt.Errorf("malformed coordinate key %q: %v", key, err)
	}
	return Coordinate{X: x, Y: y}, nil
}

// Tile is a single cell of the world. Biome and HasPuzzle are frozen at
// creation; IsSolved only ever goes false to true.
type Tile struct {
	Biome         Biome  `json:"biome"`
	Description   string `json:"description"`
	VisualFeature string `json:"visualFeature"`
	Explored      bool   `json:"explored"`
	HasPuzzle     bool   `json:"hasPuzzle"`
	IsSolved      bool   `json:"isSolved"`
	Item          string `json:"item,omitempty"`
}

// ContentPending reports whether the tile is still waiting for enrichment.
func (t *Tile) ContentPending() bool {
	return t.Description == PendingDescription
}

// Player holds position, inventory and progression.
type Player struct {
	Position   Coordinate `json:"position"`
	Inventory  []string   `json:"inventory"`
	Experience int        `json:"experience"`
	Level      int        `json:"level"`
}

func NewPlayer() *Player {
	return &Player{Level: 1, Inventory: []string{}}
}

// Move translates the player's position. The world is unbounded, so there
// is no clamping.
func (p *Player) Move(dx, dy int) {
	p.Position.X += dx
	p.Position.Y += dy
}

// GrantExperience adds experience and recomputes the derived level as
// floor(xp / perLevel) + 1. It reports whether the level increased.
func (p *Player) GrantExperience(amount, perLevel int) bool {
	p.Experience += amount
	newLevel := p.Experience/perLevel + 1
	if newLevel > p.Level {
		p.Level = newLevel
		return true
	}
	return false
}

// AddItem appends an item to the inventory, reporting false when the
// inventory is at capacity.
func (p *Player) AddItem(item string, capacity int) bool {
	if len(p.Inventory) >= capacity {
		return false
	}
	p.Inventory = append(p.Inventory, item)
	return true
}

// PuzzleKind categorizes puzzles.
type PuzzleKind string

const (
	PuzzleLogic        PuzzleKind = "logic"
	PuzzleRiddle       PuzzleKind = "riddle"
	PuzzleRealityCheck PuzzleKind = "reality-check"
)

// Citation points at the real-world source a grounded puzzle was derived from.
type Citation struct {
	Title string `json:"title"`
	URI   string `json:"uri"`
}

// Puzzle is a single challenge. Origin is the coordinate of the tile that
// spawned it, captured at generation time; resolving the puzzle applies its
// effects to whatever tile sits there.
type Puzzle struct {
	ID        string     `json:"id"`
	Question  string     `json:"question"`
	Kind      PuzzleKind `json:"kind"`
	Options   []string   `json:"options,omitempty"`
	Answer    string     `json:"answer"`
	Solved    bool       `json:"solved"`
	Origin    Coordinate `json:"origin"`
	Citations []Citation `json:"citations,omitempty"`
}

// Severity tags a log entry for presentation.
type Severity string

const (
	SeverityInfo    Severity = "info"
	SeveritySuccess Severity = "success"
	SeverityWarning Severity = "warning"
	SeverityDanger  Severity = "danger"
)

// LogEntry is one line of the append-only session log.
type LogEntry struct {
	ID       string    `json:"id"`
	Time     time.Time `json:"time"`
	Message  string    `json:"message"`
	Severity Severity  `json:"severity"`
}

// Session aggregates the complete game state. It is the unit of save/load.
// Generating is presentation-only and deliberately excluded from
// serialization: a loaded session never starts mid-generation.
type Session struct {
	Player       *Player          `json:"player"`
	World        map[string]*Tile `json:"world"`
	Logs         []LogEntry       `json:"logs"`
	ActivePuzzle *Puzzle          `json:"activePuzzle,omitempty"`
	Generating   bool             `json:"-"`
}

func NewSession() *Session {
	return &Session{
		Player: NewPlayer(),
		World:  make(map[string]*Tile),
		Logs:   []LogEntry{},
	}
}

// AppendLog adds an entry to the session log and returns it.
func (s *Session) AppendLog(message string, severity Severity) LogEntry {
	entry := LogEntry{
		ID:       uuid.NewString(),
		Time:     time.Now(),
		Message:  message,
		Severity: severity,
	}
	s.Logs = append(s.Logs, entry)
	return entry
}
