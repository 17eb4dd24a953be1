package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

func loadYAML(path string, out any) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(b, out)
}

func loadTOML(path string, out any) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	_, err = toml.Decode(string(b), out)
	return err
}

// load decodes path by its extension; .toml goes through toml, anything else yaml.
func load(path string, out any) error {
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		return loadTOML(path, out)
	}
	return loadYAML(path, out)
}

func LoadSearch(path string) (SearchConfig, error) {
	cfg := Defaults()
	if err := load(path, &cfg); err != nil {
		return SearchConfig{}, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	if err := cfg.Validate(); err != nil {
		return SearchConfig{}, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	return cfg, nil
}

func LoadSweeps(path string) (SweepsConfig, error) {
	var sc SweepsConfig
	if err := load(path, &sc); err != nil {
		return SweepsConfig{}, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	if err := sc.Validate(); err != nil {
		return SweepsConfig{}, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	return sc, nil
}

// LoadAll reads search.{yaml,toml} and sweeps.yaml from dir. Missing files keep
// their defaults; an empty dir means defaults only.
func LoadAll(dir string) (*SearchConfig, *SweepsConfig, error) {
	search := Defaults()
	sweeps := SweepsConfig{}
	if dir == "" {
		return &search, &sweeps, nil
	}
	for _, name := range []string{"search.yaml", "search.yml", "search.toml"} {
		p := filepath.Join(dir, name)
		if !exists(p) {
			continue
		}
		cfg, err := LoadSearch(p)
		if err != nil {
			return nil, nil, err
		}
		search = cfg
		break
	}
	for _, name := range []string{"sweeps.yaml", "sweeps.yml", "sweeps.toml"} {
		p := filepath.Join(dir, name)
		if !exists(p) {
			continue
		}
		sc, err := LoadSweeps(p)
		if err != nil {
			return nil, nil, err
		}
		sweeps = sc
		break
	}
	return &search, &sweeps, nil
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return !errors.Is(err, fs.ErrNotExist)
}
