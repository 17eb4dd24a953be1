package config

import (
	"errors"
	"fmt"
	"time"
)

var ErrInvalid = errors.New("invalid config")

type SearchConfig struct {
	DeadlineMS  int     `yaml:"deadline_ms" toml:"deadline_ms"`
	TurnMax     int     `yaml:"turn_max" toml:"turn_max"`
	Workers     int     `yaml:"workers" toml:"workers"`
	MaxAttempts int     `yaml:"max_attempts" toml:"max_attempts"` // 0 = until the deadline
	RetireProb  float64 `yaml:"retire_prob" toml:"retire_prob"`
	Seed        int64   `yaml:"seed" toml:"seed"`
	Mixed       bool    `yaml:"mixed" toml:"mixed"` // also try a random depth per row
}

func Defaults() SearchConfig {
	return SearchConfig{
		DeadlineMS: 2800,
		TurnMax:    1000,
		Workers:    1,
		RetireProb: 0.5,
		Seed:       1,
		Mixed:      true,
	}
}

func (c SearchConfig) Deadline() time.Duration { return time.Duration(c.DeadlineMS) * time.Millisecond }

func (c SearchConfig) Validate() error {
	switch {
	case c.DeadlineMS <= 0:
		return fmt.Errorf("%w: deadline_ms=%d", ErrInvalid, c.DeadlineMS)
	case c.TurnMax <= 0:
		return fmt.Errorf("%w: turn_max=%d", ErrInvalid, c.TurnMax)
	case c.Workers <= 0:
		return fmt.Errorf("%w: workers=%d", ErrInvalid, c.Workers)
	case c.MaxAttempts < 0:
		return fmt.Errorf("%w: max_attempts=%d", ErrInvalid, c.MaxAttempts)
	case c.RetireProb < 0 || c.RetireProb > 1:
		return fmt.Errorf("%w: retire_prob=%v", ErrInvalid, c.RetireProb)
	}
	return nil
}

type SweepDef struct {
	Name   string `yaml:"name" toml:"name"`
	Depths []int  `yaml:"depths" toml:"depths"`
}

type SweepsConfig struct {
	Sweeps []SweepDef `yaml:"sweeps" toml:"sweeps"`
}

func (s SweepsConfig) Validate() error {
	seen := map[string]bool{}
	for i, sw := range s.Sweeps {
		if sw.Name == "" {
			return fmt.Errorf("%w: sweep %d has no name", ErrInvalid, i)
		}
		if seen[sw.Name] {
			return fmt.Errorf("%w: duplicate sweep %q", ErrInvalid, sw.Name)
		}
		seen[sw.Name] = true
		for _, d := range sw.Depths {
			if d < 0 {
				return fmt.Errorf("%w: sweep %q depth %d", ErrInvalid, sw.Name, d)
			}
		}
	}
	return nil
}
