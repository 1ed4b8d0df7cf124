// Package config resolves the runtime configuration from defaults, an
// optional YAML file and EMBODIED_CARBON_* environment variables. Command
// line flags are applied last by the caller.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	embodiedcarbon "github.com/superdango/embodied-carbon"
	"github.com/superdango/embodied-carbon/internal/ingest"
	"github.com/superdango/embodied-carbon/model/benchmark"
	"github.com/superdango/embodied-carbon/model/gwp"
)

const envPrefix = "EMBODIED_CARBON_"

type Log struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

type Config struct {
	Listen      string `yaml:"listen"`
	Settings    string `yaml:"settings"`
	BuildingUse string `yaml:"building_use"`
	Log         Log    `yaml:"log"`
	// Phases to include, all when empty.
	Phases []string `yaml:"phases"`
	// Rules are evaluated before the built-in classification rules.
	Rules    gwp.Rules               `yaml:"rules"`
	LevelMap embodiedcarbon.LevelMap `yaml:"level_map"`
}

// Default returns the configuration used when nothing is set.
func Default() Config {
	return Config{
		Listen:      "0.0.0.0:2923",
		BuildingUse: benchmark.DefaultUse,
		Log: Log{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load reads .env when present, then the YAML file at path if it is not
// empty, then the environment.
func Load(path string) (Config, error) {
	_ = godotenv.Load()

	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("failed to read config file: %w", err)
		}
		if err == nil {
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return Config{}, fmt.Errorf("failed to decode config file %s: %w", path, err)
			}
		}
	}

	cfg.applyEnv()

	return cfg, cfg.Validate()
}

func (c *Config) applyEnv() {
	strVars := map[string]*string{
		"LISTEN":       &c.Listen,
		"SETTINGS":     &c.Settings,
		"BUILDING_USE": &c.BuildingUse,
		"LOG_LEVEL":    &c.Log.Level,
		"LOG_FORMAT":   &c.Log.Format,
	}
	for name, field := range strVars {
		if v := strings.TrimSpace(os.Getenv(envPrefix + name)); v != "" {
			*field = v
		}
	}

	if v := strings.TrimSpace(os.Getenv(envPrefix + "PHASES")); v != "" {
		c.Phases = nil
		for _, phase := range strings.Split(v, ",") {
			if phase = strings.TrimSpace(phase); phase != "" {
				c.Phases = append(c.Phases, phase)
			}
		}
	}
}

// Validate checks values that would otherwise fail late.
func (c Config) Validate() error {
	if _, err := benchmark.Lookup(c.BuildingUse); err != nil {
		return fmt.Errorf("invalid building use: %w", err)
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		return fmt.Errorf("unsupported log format %q (text, json)", c.Log.Format)
	}
	for i, r := range c.Rules {
		if r.Preset == "" || len(r.Keywords) == 0 {
			return fmt.Errorf("classification rule %d needs a preset and keywords", i+1)
		}
		if r.Family != embodiedcarbon.Steel && r.Family != embodiedcarbon.Timber {
			return fmt.Errorf("classification rule %d: family must be Steel or Timber, got %q", i+1, r.Family)
		}
	}
	return nil
}

// ClassificationRules returns the configured rules followed by the
// built-in ones.
func (c Config) ClassificationRules() gwp.Rules {
	return append(append(gwp.Rules(nil), c.Rules...), gwp.DefaultRules()...)
}

// IngestOptions returns the ingest options. A level map saved with the
// building settings replaces the configured one.
func (c Config) IngestOptions(saved embodiedcarbon.LevelMap) ingest.Options {
	levelMap := c.LevelMap
	if len(saved) > 0 {
		levelMap = saved
	}
	return ingest.Options{LevelMap: levelMap, Phases: c.Phases}
}
