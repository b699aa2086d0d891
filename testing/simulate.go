// Command simulate plays a short scripted session headlessly and prints
// the resulting log. With GEMINI_API_KEY set it exercises the real
// backend; otherwise it runs against a canned offline backend, which also
// demonstrates the fallback behavior.
package main

import (
	"context"
	"fmt"
	"log"
	"math/rand"
	"os"

	"github.com/google/generative-ai-go/genai"

	"github.com/goldencrow0001-crypto/open-world-puzzle-game/internal/content"
	"github.com/goldencrow0001-crypto/open-world-puzzle-game/internal/models"
	"github.com/goldencrow0001-crypto/open-world-puzzle-game/internal/session"
)

type offlineBackend struct{}

func (offlineBackend) Generate(_ context.Context, _ string, _ *genai.Schema) (string, error) {
	return `{"description": "Simulated terrain stretches to a painted horizon.", "visualFeature": "Test Pattern", "question": "What is 3 + 3?", "kind": "logic", "answer": "6"}`, nil
}

func (offlineBackend) GenerateGrounded(_ context.Context, _ string) (string, []models.Citation, error) {
	return `{"question": "Which probe left the solar system first?", "correctAnswer": "Voyager 1", "wrongOptions": ["Pioneer 11", "New Horizons"]}`,
		[]models.Citation{{URI: "https://example.com/voyager"}}, nil
}

func main() {
	ctx := context.Background()

	var backend content.Backend = offlineBackend{}
	if key := os.Getenv("GEMINI_API_KEY"); key != "" {
		gemini, err := content.NewGemini(ctx, key, "gemini-2.5-flash")
		if err != nil {
			log.Fatalf("Failed to create Gemini client: %v", err)
		}
		defer gemini.Close()
		backend = gemini
	} else {
		fmt.Println("GEMINI_API_KEY not set; running against the offline backend.")
	}

	provider := content.NewProvider(backend, rand.New(rand.NewSource(1)))
	store := models.NewFileStore(".saves-sim")
	ctrl := session.NewController(provider, store, rand.New(rand.NewSource(2)), session.Options{})

	// Walk a small loop, enriching each tile we land on.
	steps := []struct{ dx, dy int }{{1, 0}, {1, 0}, {0, 1}, {-1, 0}, {0, -1}}
	for _, step := range steps {
		res := ctrl.OnMove(ctx, step.dx, step.dy)
		if res.NeedsEnrichment {
			ctrl.EnrichTile(ctx, res.EnrichTarget)
		}

		snap := ctrl.Snapshot()
		pos := snap.Player.Position
		tile := snap.World[pos.Key()]
		fmt.Printf("At %s: %s [%s]\n", pos, tile.Description, tile.Biome)

		if tile.HasPuzzle && !tile.IsSolved {
			ctrl.OnInteract(ctx, pos)
			snap = ctrl.Snapshot()
			if p := snap.ActivePuzzle; p != nil {
				fmt.Printf("Puzzle (%s): %s\n", p.Kind, p.Question)
				ctrl.SubmitAnswer(ctx, p.Answer)
			}
		}
	}

	ctrl.Save(ctx)
	ctrl.Load(ctx)

	snap := ctrl.Snapshot()
	fmt.Printf("\nFinal: level %d, %d XP, %d tiles known\n",
		snap.Player.Level, snap.Player.Experience, len(snap.World))
	fmt.Println("\n--- Session log ---")
	for _, entry := range snap.Logs {
		fmt.Printf("[%s] %s\n", entry.Severity, entry.Message)
	}
}
