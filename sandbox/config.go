// Copyright © 2025 Glycin-Go contributors
// SPDX-License-Identifier: LGPL-2.1-or-later
//
// File: sandbox/config.go
// Summary: Per-MIME worker configuration: which binary to spawn for a
// format and whether its sandbox should see the source file's directory.
// Notes: Loader grounded on texelation's config/config.go (XDG config dir,
// default-on-missing-file, JSON), generalized from one global settings
// struct to a MIME-keyed table.

package sandbox

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
)

// Entry describes how to run the worker responsible for one MIME type.
type Entry struct {
	BinaryPath    string `json:"binaryPath"`
	ExposeBaseDir bool   `json:"exposeBaseDir"`
}

// Config maps MIME type to its loader and editor worker entries.
type Config struct {
	Loaders map[string]Entry `json:"loaders"`
	Editors map[string]Entry `json:"editors"`
}

// Default returns an empty configuration; with no entries, every MIME type
// is reported as unsupported.
func Default() *Config {
	return &Config{
		Loaders: map[string]Entry{},
		Editors: map[string]Entry{},
	}
}

// Load reads $XDG_CONFIG_HOME/glycin/workers.json, falling back to
// $HOME/.config/glycin/workers.json. A missing file is not an error; it
// yields Default().
func Load() (*Config, error) {
	cfg := Default()

	path, err := configPath()
	if err != nil {
		log.Printf("sandbox: could not resolve config dir: %v", err)
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("sandbox: read config %s: %w", path, err)
	}

	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("sandbox: parse config %s: %w", path, err)
	}
	return cfg, nil
}

func configPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "glycin", "workers.json"), nil
}

// LoaderEntry looks up the worker configured for decoding mime. The second
// return value is false when no loader is registered for it.
func (c *Config) LoaderEntry(mime string) (Entry, bool) {
	e, ok := c.Loaders[mime]
	return e, ok
}

// EditorEntry looks up the worker configured for editing mime.
func (c *Config) EditorEntry(mime string) (Entry, bool) {
	e, ok := c.Editors[mime]
	return e, ok
}
