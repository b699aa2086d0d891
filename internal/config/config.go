package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Settings holds gameplay tunables that can be overridden by an optional
// YAML file. The defaults are the values the game is balanced around.
type Settings struct {
	XPPerPuzzle       int `yaml:"xp_per_puzzle"`
	XPPerLevel        int `yaml:"xp_per_level"`
	GenerationRadius  int `yaml:"generation_radius"`
	InventoryCapacity int `yaml:"inventory_capacity"`
}

// Config holds the application configuration.
type Config struct {
	GeminiAPIKey   string
	Model          string
	SaveDir        string
	RequestTimeout time.Duration
	Settings       Settings
}

// Load reads configuration from environment variables:
//
//	GEMINI_API_KEY       required
//	GAME_MODEL           generation model name (default gemini-2.5-flash)
//	GAME_SAVE_DIR        save file directory (default .saves)
//	GAME_REQUEST_TIMEOUT per-request deadline, e.g. "20s"
//	GAME_SETTINGS        path to an optional settings YAML file
func Load() (*Config, error) {
	apiKey := os.Getenv("GEMINI_API_KEY")
	if apiKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY environment variable is not set")
	}

	cfg := &Config{
		GeminiAPIKey:   apiKey,
		Model:          "gemini-2.5-flash",
		SaveDir:        ".saves",
		RequestTimeout: 15 * time.Second,
		Settings: Settings{
			XPPerPuzzle:       100,
			XPPerLevel:        500,
			GenerationRadius:  1,
			InventoryCapacity: 10,
		},
	}

	if model := os.Getenv("GAME_MODEL"); model != "" {
		cfg.Model = model
	}
	if dir := os.Getenv("GAME_SAVE_DIR"); dir != "" {
		cfg.SaveDir = dir
	}
	if raw := os.Getenv("GAME_REQUEST_TIMEOUT"); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid GAME_REQUEST_TIMEOUT %q: %v", raw, err)
		}
		cfg.RequestTimeout = d
	}

	if path := os.Getenv("GAME_SETTINGS"); path != "" {
		if err := cfg.loadSettings(path); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

func (c *Config) loadSettings(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading settings file: %v", err)
	}
	var overrides Settings
	if err := yaml.Unmarshal(data, &overrides); err != nil {
		return fmt.Errorf("parsing settings file: %v", err)
	}
	if overrides.XPPerPuzzle > 0 {
		c.Settings.XPPerPuzzle = overrides.XPPerPuzzle
	}
	if overrides.XPPerLevel > 0 {
		c.Settings.XPPerLevel = overrides.XPPerLevel
	}
	if overrides.GenerationRadius > 0 {
		c.Settings.GenerationRadius = overrides.GenerationRadius
	}
	if overrides.InventoryCapacity > 0 {
		c.Settings.InventoryCapacity = overrides.InventoryCapacity
	}
	return nil
}
