// Copyright © 2025 Texelation contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: config/config.go
// Summary: JSON-backed configuration store for texelterm.
// Usage: cfg := config.Shared()
//        lines := cfg.GetInt("texelterm", "scrollback_lines", 10000)

package config

import (
	"encoding/json"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"
)

const (
	configName   = "config.json"
	saveDebounce = 250 * time.Millisecond
)

// Config stores configuration sections as JSON-compatible data.
// Section names may be dotted ("texelterm.shortcuts"); they are plain
// top-level keys, not nested objects.
type Config map[string]interface{}

// Section stores key/value pairs for a configuration section.
type Section map[string]interface{}

var (
	mu        sync.RWMutex
	once      sync.Once
	current   Config
	loadErr   error
	saveTimer *time.Timer
)

// Shared returns the process-wide configuration, loading it from disk
// on first use. A missing or unreadable file yields an empty config;
// the error is retained for Err so startup never fails on config.
func Shared() Config {
	once.Do(initStore)
	mu.RLock()
	defer mu.RUnlock()
	return current
}

// Err returns the most recent load error.
func Err() error {
	once.Do(initStore)
	mu.RLock()
	defer mu.RUnlock()
	return loadErr
}

// Path returns the on-disk location of the config file.
func Path() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "texelterm", configName), nil
}

// Reload re-reads the config file, replacing in-memory state.
func Reload() error {
	once.Do(initStore)
	mu.Lock()
	defer mu.Unlock()
	loadErr = loadLocked()
	return loadErr
}

// Save writes the current config to disk immediately.
func Save() error {
	once.Do(initStore)
	mu.Lock()
	defer mu.Unlock()
	return saveLocked()
}

// SaveSoon schedules an asynchronous save, coalescing bursts of
// updates into a single write.
func SaveSoon() {
	once.Do(initStore)
	mu.Lock()
	defer mu.Unlock()
	if saveTimer != nil {
		saveTimer.Stop()
	}
	saveTimer = time.AfterFunc(saveDebounce, func() {
		if err := Save(); err != nil {
			log.Printf("Config: Failed to save: %v", err)
		}
	})
}

// Set stores a single value and schedules a save.
func Set(sectionName, key string, value interface{}) {
	once.Do(initStore)
	mu.Lock()
	current.setValue(sectionName, key, value)
	mu.Unlock()
	SaveSoon()
}

// SetSection replaces a whole section and schedules a save.
func SetSection(sectionName string, section Section) {
	once.Do(initStore)
	mu.Lock()
	if section == nil {
		delete(current, sectionName)
	} else {
		out := make(Section, len(section))
		for k, v := range section {
			out[k] = v
		}
		current[sectionName] = out
	}
	mu.Unlock()
	SaveSoon()
}

// Replace swaps the in-memory config without touching disk.
func Replace(cfg Config) {
	once.Do(initStore)
	mu.Lock()
	defer mu.Unlock()
	if cfg == nil {
		cfg = make(Config)
	}
	current = Clone(cfg)
}

func initStore() {
	mu.Lock()
	defer mu.Unlock()
	current = make(Config)
	loadErr = loadLocked()
}

func loadLocked() error {
	path, err := Path()
	if err != nil {
		log.Printf("Config: Failed to resolve config path: %v", err)
		current = make(Config)
		return err
	}

	cfg, exists, readErr := readConfig(path)
	if readErr != nil {
		log.Printf("Config: Failed to read %s: %v", path, readErr)
		cfg = make(Config)
	}
	if cfg == nil {
		cfg = make(Config)
	}
	current = cfg
	if readErr == nil && exists {
		log.Printf("Config: Loaded %s", path)
	}
	return readErr
}

func saveLocked() error {
	path, err := Path()
	if err != nil {
		return err
	}
	return writeConfig(path, current)
}

func readConfig(path string) (Config, bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, false, nil
		}
		return nil, false, err
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, true, err
	}
	return cfg, true, nil
}

func writeConfig(path string, cfg Config) error {
	if cfg == nil {
		cfg = make(Config)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
