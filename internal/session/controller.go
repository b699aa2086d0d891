// Package session coordinates the world store, content provider, puzzle
// engine and player progression in response to player intents, and owns
// save/load of the whole session aggregate.
package session

import (
	"context"
	"fmt"
	"math/rand"
	"sync"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/goldencrow0001-crypto/open-world-puzzle-game/internal/content"
	"github.com/goldencrow0001-crypto/open-world-puzzle-game/internal/models"
	"github.com/goldencrow0001-crypto/open-world-puzzle-game/internal/puzzle"
	"github.com/goldencrow0001-crypto/open-world-puzzle-game/internal/telemetry"
	"github.com/goldencrow0001-crypto/open-world-puzzle-game/internal/world"
)

// Hint is an advisory feedback tag for the presentation layer. Hints carry
// no state; dropping them changes nothing.
type Hint string

const (
	HintMove     Hint = "move"
	HintSuccess  Hint = "success"
	HintError    Hint = "error"
	HintInteract Hint = "interact"
	HintLevelUp  Hint = "level-up"
)

// Result reports what an operation did, for presentation purposes.
// NeedsEnrichment signals that the player's tile still has pending content
// and the caller should schedule EnrichTile for EnrichTarget.
type Result struct {
	Hints           []Hint
	NeedsEnrichment bool
	EnrichTarget    models.Coordinate
}

func (r *Result) hint(h Hint) {
	r.Hints = append(r.Hints, h)
}

// Options are the gameplay tunables. Zero values fall back to the defaults
// in the models package.
type Options struct {
	XPPerPuzzle       int
	XPPerLevel        int
	GenerationRadius  int
	InventoryCapacity int
}

func (o Options) withDefaults() Options {
	if o.XPPerPuzzle == 0 {
		o.XPPerPuzzle = models.XPPerPuzzle
	}
	if o.XPPerLevel == 0 {
		o.XPPerLevel = models.XPPerLevel
	}
	if o.GenerationRadius == 0 {
		o.GenerationRadius = 1
	}
	if o.InventoryCapacity == 0 {
		o.InventoryCapacity = models.InventoryCapacity
	}
	return o
}

// Controller is the root of the engine. All session mutations go through
// its methods; each operation applies its effects atomically under the
// mutex, so snapshots never observe a half-applied transition.
type Controller struct {
	mu       sync.Mutex
	sess     *models.Session
	world    *world.Store
	provider *content.Provider
	engine   *puzzle.Engine
	store    models.Store
	tracer   trace.Tracer
	opts     Options

	// Count of in-flight enrichment requests; the session's Generating
	// flag mirrors whether it is non-zero.
	pending int
}

// NewController builds a fresh session with the starting area materialized
// around the origin.
func NewController(provider *content.Provider, store models.Store, rng *rand.Rand, opts Options) *Controller {
	c := &Controller{
		sess:     models.NewSession(),
		provider: provider,
		engine:   puzzle.NewEngine(),
		store:    store,
		tracer:   telemetry.Tracer("session"),
		opts:     opts.withDefaults(),
	}
	c.world = world.NewStore(c.sess.World, rng)
	c.world.EnsureRadius(c.sess.Player.Position, c.opts.GenerationRadius)
	c.world.MarkExplored(c.sess.Player.Position)
	c.sess.AppendLog("Systems online. The world assembles itself around you.", models.SeverityInfo)
	return c
}

// PuzzleState exposes the puzzle engine's current state.
func (c *Controller) PuzzleState() puzzle.State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.engine.State()
}

// OnMove handles a move intent. Movement is locked while a puzzle is
// pending or active.
func (c *Controller) OnMove(ctx context.Context, dx, dy int) Result {
	_, span := c.tracer.Start(ctx, "session.move",
		trace.WithAttributes(attribute.Int("move.dx", dx), attribute.Int("move.dy", dy)))
	defer span.End()

	c.mu.Lock()
	defer c.mu.Unlock()

	var res Result
	if c.engine.State() != puzzle.StateIdle {
		c.sess.AppendLog("You cannot leave while the anomaly holds your attention.", models.SeverityWarning)
		res.hint(HintError)
		return res
	}

	c.sess.Player.Move(dx, dy)
	pos := c.sess.Player.Position
	c.world.EnsureRadius(pos, c.opts.GenerationRadius)
	c.world.MarkExplored(pos)
	c.sess.AppendLog(fmt.Sprintf("You move to %s.", pos), models.SeverityInfo)
	res.hint(HintMove)

	if tile, ok := c.world.Tile(pos); ok && tile.ContentPending() {
		res.NeedsEnrichment = true
		res.EnrichTarget = pos
	}
	span.SetAttributes(attribute.String("move.position", pos.Key()))
	return res
}

// EnrichTile fetches content for a tile and merges it into the world. It
// blocks until the provider resolves; callers run it off the main flow.
// A result that arrives after the tile was enriched by an earlier request
// is discarded by the store's pending guard, so racing requests for the
// same tile are harmless.
func (c *Controller) EnrichTile(ctx context.Context, coord models.Coordinate) {
	ctx, span := c.tracer.Start(ctx, "session.enrich",
		trace.WithAttributes(attribute.String("tile.coord", coord.Key())))
	defer span.End()

	c.mu.Lock()
	tile, ok := c.world.Tile(coord)
	if !ok || !tile.ContentPending() {
		c.mu.Unlock()
		return
	}
	biome := tile.Biome
	c.pending++
	c.sess.Generating = true
	c.mu.Unlock()

	description, feature := c.provider.DescribeTile(ctx, coord, biome)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.pending--
	c.sess.Generating = c.pending > 0
	applied := c.world.ApplyEnrichment(coord, description, feature)
	span.SetAttributes(attribute.Bool("enrich.applied", applied))
}

// OnInteract handles an interact intent targeting a coordinate. Only the
// player's own tile can trigger a puzzle; adjacent tiles can be glanced
// at; anything further is out of range.
func (c *Controller) OnInteract(ctx context.Context, coord models.Coordinate) Result {
	ctx, span := c.tracer.Start(ctx, "session.interact",
		trace.WithAttributes(attribute.String("tile.coord", coord.Key())))
	defer span.End()

	c.mu.Lock()

	var res Result
	dist := c.sess.Player.Position.ManhattanDistance(coord)
	if dist > 1 {
		c.sess.AppendLog("That is out of reach.", models.SeverityWarning)
		res.hint(HintError)
		c.mu.Unlock()
		return res
	}

	tile, ok := c.world.Tile(coord)
	if !ok {
		c.sess.AppendLog("There is nothing there yet.", models.SeverityWarning)
		res.hint(HintError)
		c.mu.Unlock()
		return res
	}

	if dist == 1 {
		if tile.HasPuzzle && !tile.IsSolved {
			c.sess.AppendLog("An anomaly pulses there. Move closer to interface with it.", models.SeverityWarning)
			res.hint(HintError)
		} else {
			c.sess.AppendLog(fmt.Sprintf("You peer at the %s terrain nearby.", tile.Biome), models.SeverityInfo)
			res.hint(HintInteract)
		}
		c.mu.Unlock()
		return res
	}

	// Standing on the tile.
	if !tile.HasPuzzle || tile.IsSolved {
		message := tile.Description
		if tile.ContentPending() {
			message = "Your sensors are still resolving this place."
		}
		c.sess.AppendLog(message, models.SeverityInfo)
		res.hint(HintInteract)
		c.mu.Unlock()
		return res
	}

	token, err := c.engine.Begin()
	if err != nil {
		c.sess.AppendLog(fmt.Sprintf("You cannot start another challenge: %v.", err), models.SeverityWarning)
		res.hint(HintError)
		c.mu.Unlock()
		return res
	}

	c.sess.AppendLog("You interface with the anomaly...", models.SeverityInfo)
	res.hint(HintInteract)
	c.pending++
	c.sess.Generating = true
	biome := tile.Biome
	level := c.sess.Player.Level
	c.mu.Unlock()

	// Generation never fails; the provider degrades to a fallback puzzle.
	generated := c.provider.GeneratePuzzle(ctx, biome, level)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.pending--
	c.sess.Generating = c.pending > 0
	generated.Origin = coord
	if err := c.engine.Attach(token, generated); err != nil {
		// The player dismissed while generation was in flight.
		return res
	}
	c.sess.ActivePuzzle = generated
	return res
}

// SubmitAnswer checks a free-text answer against the active puzzle.
// Correct resolution marks the source tile solved and grants experience in
// the same locked step, so the two can never diverge.
func (c *Controller) SubmitAnswer(ctx context.Context, answer string) Result {
	_, span := c.tracer.Start(ctx, "session.submit")
	defer span.End()

	c.mu.Lock()
	defer c.mu.Unlock()

	var res Result
	resolved, correct, err := c.engine.Submit(answer)
	if err != nil {
		c.sess.AppendLog("There is no challenge awaiting an answer.", models.SeverityWarning)
		res.hint(HintError)
		return res
	}
	if !correct {
		c.sess.AppendLog("Incorrect. The anomaly rejects your answer.", models.SeverityDanger)
		res.hint(HintError)
		return res
	}

	c.sess.ActivePuzzle = nil
	c.world.MarkSolved(resolved.Origin)
	leveled := c.sess.Player.GrantExperience(c.opts.XPPerPuzzle, c.opts.XPPerLevel)
	c.sess.AppendLog(fmt.Sprintf("Correct! The anomaly dissolves. +%d XP.", c.opts.XPPerPuzzle), models.SeveritySuccess)
	res.hint(HintSuccess)

	c.pickUpItem(resolved.Origin, &res)

	if leveled {
		c.sess.AppendLog(fmt.Sprintf("You reach level %d.", c.sess.Player.Level), models.SeveritySuccess)
		res.hint(HintLevelUp)
	}
	span.SetAttributes(
		attribute.Bool("puzzle.correct", true),
		attribute.Int("player.level", c.sess.Player.Level),
	)
	return res
}

// pickUpItem moves the tile's item into the player's inventory if there is
// room; otherwise it stays on the tile. Called with the mutex held.
func (c *Controller) pickUpItem(coord models.Coordinate, res *Result) {
	tile, ok := c.world.Tile(coord)
	if !ok || tile.Item == "" {
		return
	}
	if len(c.sess.Player.Inventory) >= c.opts.InventoryCapacity {
		c.sess.AppendLog(fmt.Sprintf("Your pack is full; the %s stays behind.", tile.Item), models.SeverityWarning)
		return
	}
	item, _ := c.world.TakeItem(coord)
	c.sess.Player.AddItem(item, c.opts.InventoryCapacity)
	c.sess.AppendLog(fmt.Sprintf("You recover the %s.", item), models.SeveritySuccess)
}

// DismissPuzzle walks away from the current puzzle: no reward, no penalty.
func (c *Controller) DismissPuzzle(ctx context.Context) Result {
	_, span := c.tracer.Start(ctx, "session.dismiss")
	defer span.End()

	c.mu.Lock()
	defer c.mu.Unlock()

	var res Result
	if c.engine.State() == puzzle.StateIdle {
		return res
	}
	c.engine.Dismiss()
	c.sess.ActivePuzzle = nil
	c.sess.AppendLog("You step back from the anomaly.", models.SeverityInfo)
	res.hint(HintInteract)
	return res
}

// Save serializes the session through the persistence capability. A write
// failure is logged; nothing is retried.
func (c *Controller) Save(ctx context.Context) Result {
	_, span := c.tracer.Start(ctx, "session.save")
	defer span.End()

	c.mu.Lock()
	defer c.mu.Unlock()

	var res Result
	// Logged before encoding so that an immediate load reproduces the
	// session exactly, log included.
	c.sess.AppendLog("Session saved.", models.SeveritySuccess)
	blob, err := c.sess.Encode()
	if err != nil {
		c.sess.AppendLog(fmt.Sprintf("Could not serialize the session: %v.", err), models.SeverityDanger)
		res.hint(HintError)
		return res
	}
	if err := c.store.Set(models.SaveKey, blob); err != nil {
		c.sess.AppendLog(fmt.Sprintf("Save failed: %v.", err), models.SeverityDanger)
		res.hint(HintError)
		return res
	}
	res.hint(HintSuccess)
	return res
}

// Load replaces the session with the persisted one. Load is all or
// nothing: a missing or corrupt blob leaves the in-memory session
// untouched apart from the log entry reporting it.
func (c *Controller) Load(ctx context.Context) Result {
	_, span := c.tracer.Start(ctx, "session.load")
	defer span.End()

	c.mu.Lock()
	defer c.mu.Unlock()

	var res Result
	blob, ok, err := c.store.Get(models.SaveKey)
	if err != nil {
		c.sess.AppendLog(fmt.Sprintf("Could not read save data: %v.", err), models.SeverityDanger)
		res.hint(HintError)
		return res
	}
	if !ok {
		c.sess.AppendLog("No saved session found.", models.SeverityWarning)
		res.hint(HintError)
		return res
	}

	loaded, err := models.DecodeSession(blob)
	if err != nil {
		c.sess.AppendLog(fmt.Sprintf("Save data rejected: %v.", err), models.SeverityDanger)
		res.hint(HintError)
		return res
	}

	c.sess = loaded
	c.world.Bind(loaded.World)
	c.engine.Restore(loaded.ActivePuzzle)
	c.pending = 0
	c.world.EnsureRadius(loaded.Player.Position, c.opts.GenerationRadius)
	res.hint(HintSuccess)

	if tile, ok := c.world.Tile(loaded.Player.Position); ok && tile.ContentPending() {
		res.NeedsEnrichment = true
		res.EnrichTarget = loaded.Player.Position
	}
	return res
}

// Snapshot returns a deep copy of the session for reading. Renderers and
// tests work against snapshots so in-flight operations never expose a torn
// state.
func (c *Controller) Snapshot() models.Session {
	c.mu.Lock()
	defer c.mu.Unlock()

	player := *c.sess.Player
	player.Inventory = append([]string(nil), c.sess.Player.Inventory...)

	tiles := make(map[string]*models.Tile, len(c.sess.World))
	for key, tile := range c.sess.World {
		copied := *tile
		tiles[key] = &copied
	}

	snapshot := models.Session{
		Player:     &player,
		World:      tiles,
		Logs:       append([]models.LogEntry(nil), c.sess.Logs...),
		Generating: c.sess.Generating,
	}
	if c.sess.ActivePuzzle != nil {
		p := *c.sess.ActivePuzzle
		p.Options = append([]string(nil), c.sess.ActivePuzzle.Options...)
		p.Citations = append([]models.Citation(nil), c.sess.ActivePuzzle.Citations...)
		snapshot.ActivePuzzle = &p
	}
	return snapshot
}
