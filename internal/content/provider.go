// Package content generates tile descriptions and puzzles through an
// external text-generation backend. Every generation path degrades to a
// deterministic fallback, so the game stays playable when the backend is
// unreachable or returns garbage.
package content

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"math/rand"
	"strconv"
	"strings"
	"text/template"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/google/generative-ai-go/genai"
	"github.com/google/uuid"

	"github.com/goldencrow0001-crypto/open-world-puzzle-game/internal/models"
)

//go:embed prompts/describe_tile.txt
var describeTilePrompt string

//go:embed prompts/generate_puzzle.txt
var generatePuzzlePrompt string

//go:embed prompts/grounded_puzzle.txt
var groundedPuzzlePrompt string

// DefaultTimeout bounds a single generation request. A request that
// outlives it is treated exactly like a backend failure.
const DefaultTimeout = 15 * time.Second

const maxAttempts = 2

// RealityCheckMarker prefixes every grounded puzzle question.
const RealityCheckMarker = "[REALITY CHECK] "

// Fallback tile content, used whenever description generation fails.
const (
	FallbackDescription = "Static interference blocks your sensors."
	FallbackFeature     = "Glitch"
)

var biomeFlavor = map[models.Biome]string{
	models.BiomeWasteland:   "a desolate expanse of cracked earth swept by static storms",
	models.BiomeForest:      "a bioluminescent forest whose trees hum with stray data",
	models.BiomeCity:        "ruined arcology towers overgrown with dead cables",
	models.BiomeFlux:        "an unstable zone where geometry refuses to settle",
	models.BiomeRealityNode: "a shimmering anchor point where the simulation wears thin",
}

var groundedTopics = []string{
	"space exploration",
	"ocean discoveries",
	"AI news",
	"ancient history findings",
	"the most recent Nobel prizes",
}

// Provider builds prompts, requests structured output and validates what
// comes back. It holds no game state.
type Provider struct {
	backend Backend
	rng     *rand.Rand
	timeout time.Duration
	now     func() time.Time
}

func NewProvider(backend Backend, rng *rand.Rand) *Provider {
	return &Provider{
		backend: backend,
		rng:     rng,
		timeout: DefaultTimeout,
		now:     time.Now,
	}
}

// SetTimeout overrides the per-request deadline.
func (p *Provider) SetTimeout(d time.Duration) {
	p.timeout = d
}

// DescribeTile produces flavor content for a tile. It never fails: any
// backend or parse problem yields the fixed fallback pair.
func (p *Provider) DescribeTile(ctx context.Context, coord models.Coordinate, biome models.Biome) (description, visualFeature string) {
	prompt, err := renderPrompt(describeTilePrompt, struct {
		Biome  models.Biome
		Flavor string
		X, Y   int
	}{biome, biomeFlavor[biome], coord.X, coord.Y})
	if err != nil {
		return FallbackDescription, FallbackFeature
	}

	schema := &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"description":   {Type: genai.TypeString, Description: "Two atmospheric sentences describing the tile."},
			"visualFeature": {Type: genai.TypeString, Description: "A short label for the tile's dominant visual feature."},
		},
		Required: []string{"description", "visualFeature"},
	}

	raw, err := p.generate(ctx, prompt, schema)
	if err != nil {
		return FallbackDescription, FallbackFeature
	}

	var out struct {
		Description   string `json:"description"`
		VisualFeature string `json:"visualFeature"`
	}
	if err := json.Unmarshal([]byte(stripFences(raw)), &out); err != nil {
		return FallbackDescription, FallbackFeature
	}
	if out.Description == "" || out.VisualFeature == "" {
		return FallbackDescription, FallbackFeature
	}
	return out.Description, out.VisualFeature
}

// GeneratePuzzle produces a puzzle for a tile. Reality nodes get the
// grounded variant; everything else gets a logic or riddle puzzle scaled
// to the player's level. It never fails.
func (p *Provider) GeneratePuzzle(ctx context.Context, biome models.Biome, level int) *models.Puzzle {
	if biome == models.BiomeRealityNode {
		return p.generateGroundedPuzzle(ctx)
	}

	prompt, err := renderPrompt(generatePuzzlePrompt, struct {
		Biome  models.Biome
		Flavor string
		Level  int
	}{biome, biomeFlavor[biome], level})
	if err != nil {
		return p.fallbackPuzzle()
	}

	schema := &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"question": {Type: genai.TypeString, Description: "The puzzle question."},
			"kind":     {Type: genai.TypeString, Enum: []string{string(models.PuzzleLogic), string(models.PuzzleRiddle)}},
			"answer":   {Type: genai.TypeString, Description: "The single correct answer, kept short."},
			"options":  {Type: genai.TypeArray, Items: &genai.Schema{Type: genai.TypeString}},
		},
		Required: []string{"question", "kind", "answer"},
	}

	raw, err := p.generate(ctx, prompt, schema)
	if err != nil {
		return p.fallbackPuzzle()
	}

	var out struct {
		Question string   `json:"question"`
		Kind     string   `json:"kind"`
		Answer   string   `json:"answer"`
		Options  []string `json:"options"`
	}
	if err := json.Unmarshal([]byte(stripFences(raw)), &out); err != nil {
		return p.fallbackPuzzle()
	}
	kind := models.PuzzleKind(out.Kind)
	if out.Question == "" || out.Answer == "" || (kind != models.PuzzleLogic && kind != models.PuzzleRiddle) {
		return p.fallbackPuzzle()
	}

	return &models.Puzzle{
		ID:       uuid.NewString(),
		Question: out.Question,
		Kind:     kind,
		Options:  out.Options,
		Answer:   out.Answer,
	}
}

// generateGroundedPuzzle asks the backend to search for a recent true fact
// on a random topic and turn it into a multiple-choice question. The
// correct answer is shuffled into the distractors, and citation sources
// are kept so the player can verify the fact is real.
func (p *Provider) generateGroundedPuzzle(ctx context.Context) *models.Puzzle {
	topic := groundedTopics[p.rng.Intn(len(groundedTopics))]
	prompt, err := renderPrompt(groundedPuzzlePrompt, struct{ Topic string }{topic})
	if err != nil {
		return p.fallbackGroundedPuzzle()
	}

	raw, citations, err := p.generateGrounded(ctx, prompt)
	if err != nil {
		return p.fallbackGroundedPuzzle()
	}

	var out struct {
		Question      string   `json:"question"`
		CorrectAnswer string   `json:"correctAnswer"`
		WrongOptions  []string `json:"wrongOptions"`
	}
	if err := json.Unmarshal([]byte(stripFences(raw)), &out); err != nil {
		return p.fallbackGroundedPuzzle()
	}
	if out.Question == "" || out.CorrectAnswer == "" || len(out.WrongOptions) == 0 {
		return p.fallbackGroundedPuzzle()
	}

	options := append([]string{out.CorrectAnswer}, out.WrongOptions...)
	p.rng.Shuffle(len(options), func(i, j int) {
		options[i], options[j] = options[j], options[i]
	})

	return &models.Puzzle{
		ID:        uuid.NewString(),
		Question:  RealityCheckMarker + out.Question,
		Kind:      models.PuzzleRealityCheck,
		Options:   options,
		Answer:    out.CorrectAnswer,
		Citations: normalizeCitations(citations),
	}
}

func (p *Provider) fallbackPuzzle() *models.Puzzle {
	return &models.Puzzle{
		ID:       uuid.NewString(),
		Question: "The terminal flickers and a cracked screen asks: what is 2 + 2?",
		Kind:     models.PuzzleLogic,
		Answer:   "4",
	}
}

func (p *Provider) fallbackGroundedPuzzle() *models.Puzzle {
	return &models.Puzzle{
		ID:       uuid.NewString(),
		Question: RealityCheckMarker + "The connection to the real world wavers. What year is it?",
		Kind:     models.PuzzleRealityCheck,
		Answer:   strconv.Itoa(p.now().Year()),
	}
}

func (p *Provider) generate(ctx context.Context, prompt string, schema *genai.Schema) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()
	return backoff.Retry(ctx, func() (string, error) {
		return p.backend.Generate(ctx, prompt, schema)
	}, backoff.WithBackOff(backoff.NewExponentialBackOff()), backoff.WithMaxTries(maxAttempts))
}

func (p *Provider) generateGrounded(ctx context.Context, prompt string) (string, []models.Citation, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()
	type grounded struct {
		text      string
		citations []models.Citation
	}
	out, err := backoff.Retry(ctx, func() (grounded, error) {
		text, citations, err := p.backend.GenerateGrounded(ctx, prompt)
		return grounded{text, citations}, err
	}, backoff.WithBackOff(backoff.NewExponentialBackOff()), backoff.WithMaxTries(maxAttempts))
	if err != nil {
		return "", nil, err
	}
	return out.text, out.citations, nil
}

// normalizeCitations drops citations without a locator and fills in a
// placeholder title where the backend supplied none.
func normalizeCitations(citations []models.Citation) []models.Citation {
	var out []models.Citation
	for _, c := range citations {
		if c.URI == "" {
			continue
		}
		if c.Title == "" {
			c.Title = "Source"
		}
		out = append(out, c)
	}
	return out
}

func renderPrompt(text string, data any) (string, error) {
	tmpl, err := template.New("prompt").Parse(text)
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// stripFences removes a Markdown code fence the model sometimes wraps
// around its JSON despite the schema.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}
