package decoder

import (
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

// Config holds beam-search parameters, shared by the one-shot, streaming,
// and batch decode surfaces.
type Config struct {
	BeamSize     int     `yaml:"beam_size"`    // K: maximum number of prefixes retained across a frame boundary
	CutoffProb   float64 `yaml:"cutoff_prob"`  // cumulative-probability cap for per-frame symbol pruning, in (0, 1]
	CutoffTopN   int     `yaml:"cutoff_top_n"` // hard cap on symbols considered per frame
	NumProcesses int     `yaml:"num_processes"` // worker pool size; batch decoding only
}

// DefaultConfig returns reasonable default parameters.
func DefaultConfig() Config {
	return Config{
		BeamSize:     100,
		CutoffProb:   1.0,
		CutoffTopN:   40,
		NumProcesses: 1,
	}
}

// Validate checks the parameters required before any expansion begins
// (spec.md §7: shape and parameter violations are fatal at the entry point).
func (c Config) Validate() error {
	if c.BeamSize <= 0 {
		return errInvalidParameterf("beam size must be positive, got %d", c.BeamSize)
	}
	if c.CutoffProb <= 0 || c.CutoffProb > 1 {
		return errInvalidParameterf("cutoff probability must be in (0, 1], got %f", c.CutoffProb)
	}
	if c.CutoffTopN <= 0 {
		return errInvalidParameterf("cutoff top-n must be positive, got %d", c.CutoffTopN)
	}
	return nil
}

// LoadConfigYAML reads a Config from r, starting from DefaultConfig so an
// incomplete document still yields sane values for the fields it omits.
func LoadConfigYAML(r io.Reader) (Config, error) {
	cfg := DefaultConfig()
	data, err := io.ReadAll(r)
	if err != nil {
		return Config{}, fmt.Errorf("decoder: read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("decoder: parse config: %w", err)
	}
	return cfg, nil
}
