// Package main is the entry point for the exploration game.
package main

import (
	"context"
	"log"
	"math/rand"
	"time"

	"github.com/joho/godotenv"

	"github.com/goldencrow0001-crypto/open-world-puzzle-game/internal/config"
	"github.com/goldencrow0001-crypto/open-world-puzzle-game/internal/content"
	"github.com/goldencrow0001-crypto/open-world-puzzle-game/internal/models"
	"github.com/goldencrow0001-crypto/open-world-puzzle-game/internal/session"
	"github.com/goldencrow0001-crypto/open-world-puzzle-game/internal/telemetry"
	"github.com/goldencrow0001-crypto/open-world-puzzle-game/internal/tui"
)

func main() {
	// Load .env for local development; env vars may also be set directly.
	if err := godotenv.Load(); err != nil {
		log.Printf("Note: .env file not loaded: %v", err)
	}

	ctx := context.Background()

	shutdown, err := telemetry.Setup(ctx)
	if err != nil {
		log.Printf("Warning: telemetry setup failed: %v", err)
		log.Printf("Game will run without observability")
	} else {
		defer func() {
			if err := shutdown(ctx); err != nil {
				log.Printf("Error shutting down telemetry: %v", err)
			}
		}()
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	backend, err := content.NewGemini(ctx, cfg.GeminiAPIKey, cfg.Model)
	if err != nil {
		log.Fatalf("Failed to create Gemini client: %v", err)
	}
	defer backend.Close()

	// Separate sources: the provider shuffles outside the session lock.
	seed := time.Now().UnixNano()
	provider := content.NewProvider(backend, rand.New(rand.NewSource(seed)))
	provider.SetTimeout(cfg.RequestTimeout)

	store := models.NewFileStore(cfg.SaveDir)
	ctrl := session.NewController(provider, store, rand.New(rand.NewSource(seed+1)), session.Options{
		XPPerPuzzle:       cfg.Settings.XPPerPuzzle,
		XPPerLevel:        cfg.Settings.XPPerLevel,
		GenerationRadius:  cfg.Settings.GenerationRadius,
		InventoryCapacity: cfg.Settings.InventoryCapacity,
	})

	if err := tui.Run(ctrl); err != nil {
		log.Fatalf("Game error: %v", err)
	}
}
