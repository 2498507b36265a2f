/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package config loads and persists the user-editable application settings.
// Settings live in a YAML file in the user scope; environment variables act
// as read-only overrides, and the Gemini API key is kept in the OS keyring
// rather than on disk.
package config

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	"github.com/zalando/go-keyring"
	"gopkg.in/yaml.v3"
)

type AIConfig struct {
	ImageModel string `yaml:"image_model"`
	TextModel  string `yaml:"text_model"`
	// The API key is not stored on disk; it lives in the OS keyring.
}

type GeneralConfig struct {
	Theme       string `yaml:"theme"` // "system" | "light" | "dark"
	PreviewEdge int    `yaml:"preview_edge"`
}

type HistoryConfig struct {
	Root     string `yaml:"root"` // state directory; empty means $HOME
	MaxBytes int64  `yaml:"max_bytes"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Source bool   `yaml:"source"`
	File   string `yaml:"file"`
}

type AppConfig struct {
	ConfigVersion int           `yaml:"config_version"`
	General       GeneralConfig `yaml:"general"`
	AI            AIConfig      `yaml:"ai"`
	History       HistoryConfig `yaml:"history"`
	Logging       LoggingConfig `yaml:"logging"`
}

// Defaults returns the application defaults.
func Defaults() AppConfig {
	return AppConfig{
		ConfigVersion: 1,
		General:       GeneralConfig{Theme: "system", PreviewEdge: 256},
		AI:            AIConfig{ImageModel: "gemini-2.5-flash-image", TextModel: "gemini-2.5-flash"},
		History:       HistoryConfig{Root: "", MaxBytes: 5 * 1024 * 1024},
		Logging:       LoggingConfig{Level: "info", Format: "console", Source: false, File: ""},
	}
}

// Env var names used as overrides.
const (
	EnvAPIKey          = "MGS_GEMINI_API_KEY"
	EnvImageModel      = "MGS_IMAGE_MODEL"
	EnvTextModel       = "MGS_TEXT_MODEL"
	EnvHistoryRoot     = "MGS_HISTORY_ROOT"
	EnvHistoryMaxBytes = "MGS_HISTORY_MAX_BYTES"
	EnvLogLevel        = "MGS_LOG_LEVEL"
	EnvLogFormat       = "MGS_LOG_FORMAT"
	EnvLogSource       = "MGS_LOG_SOURCE"
	EnvLogFile         = "MGS_LOG_FILE"
)

// Service and key names for the OS keyring.
const (
	keyringService = "MangaStudio"
	keyringAPIKey  = "gemini_api_key"
)

// SecretStore abstracts the keyring so tests can stub it.
type SecretStore interface {
	Get(service, key string) (string, error)
	Set(service, key, value string) error
	Delete(service, key string) error
}

// osKeyring uses github.com/zalando/go-keyring.
type osKeyring struct{}

func (osKeyring) Get(service, key string) (string, error) { return keyring.Get(service, key) }
func (osKeyring) Set(service, key, value string) error    { return keyring.Set(service, key, value) }
func (osKeyring) Delete(service, key string) error        { return keyring.Delete(service, key) }

var secretStore SecretStore = osKeyring{}

// ConfigPath returns the per-user config file path.
func ConfigPath() (string, error) {
	var base string
	switch runtime.GOOS {
	case "windows":
		base = os.Getenv("AppData")
		if base == "" { // fallback
			base = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Roaming")
		}
		base = filepath.Join(base, "MangaStudio")
	case "darwin":
		base = filepath.Join(os.Getenv("HOME"), "Library", "Application Support", "MangaStudio")
	default: // linux and others
		base = filepath.Join(os.Getenv("HOME"), ".config", "mangastudio")
	}
	if base == "" {
		return "", errors.New("cannot resolve config directory")
	}
	return filepath.Join(base, "config.yaml"), nil
}

// Load reads the user config file (if present), applies defaults, and
// merges environment overrides. The Gemini API key is returned separately:
// the env var wins, then the keyring; an empty result means no credential
// is configured.
func Load() (AppConfig, string, error) {
	cfg := Defaults()
	path, err := ConfigPath()
	if err != nil {
		return cfg, "", err
	}
	if data, err := os.ReadFile(path); err == nil {
		var fileCfg AppConfig
		if err := yaml.Unmarshal(data, &fileCfg); err == nil {
			mergeInto(&cfg, &fileCfg)
		}
	}
	applyEnvOverrides(&cfg)

	key := strings.TrimSpace(os.Getenv(EnvAPIKey))
	if key == "" {
		key, _ = secretStore.Get(keyringService, keyringAPIKey)
	}
	return cfg, key, nil
}

// Save writes the user config YAML and, when apiKey is non-empty, persists
// it into the OS keyring.
func Save(cfg AppConfig, apiKey string) error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return err
	}
	if apiKey != "" {
		if err := secretStore.Set(keyringService, keyringAPIKey, apiKey); err != nil {
			return err
		}
	}
	return nil
}

// ForgetAPIKey removes the stored credential from the keyring.
func ForgetAPIKey() error {
	return secretStore.Delete(keyringService, keyringAPIKey)
}

func mergeInto(dst *AppConfig, src *AppConfig) {
	if src.ConfigVersion != 0 {
		dst.ConfigVersion = src.ConfigVersion
	}
	if src.General.Theme != "" {
		dst.General.Theme = src.General.Theme
	}
	if src.General.PreviewEdge > 0 {
		dst.General.PreviewEdge = src.General.PreviewEdge
	}
	if src.AI.ImageModel != "" {
		dst.AI.ImageModel = src.AI.ImageModel
	}
	if src.AI.TextModel != "" {
		dst.AI.TextModel = src.AI.TextModel
	}
	if src.History.Root != "" {
		dst.History.Root = src.History.Root
	}
	if src.History.MaxBytes > 0 {
		dst.History.MaxBytes = src.History.MaxBytes
	}
	if strings.TrimSpace(src.Logging.Level) != "" {
		dst.Logging.Level = strings.ToLower(strings.TrimSpace(src.Logging.Level))
	}
	if strings.TrimSpace(src.Logging.Format) != "" {
		dst.Logging.Format = strings.ToLower(strings.TrimSpace(src.Logging.Format))
	}
	dst.Logging.Source = src.Logging.Source
	if strings.TrimSpace(src.Logging.File) != "" {
		dst.Logging.File = strings.TrimSpace(src.Logging.File)
	}
}

func applyEnvOverrides(cfg *AppConfig) {
	if v := strings.TrimSpace(os.Getenv(EnvImageModel)); v != "" {
		cfg.AI.ImageModel = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvTextModel)); v != "" {
		cfg.AI.TextModel = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvHistoryRoot)); v != "" {
		cfg.History.Root = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvHistoryMaxBytes)); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil && n > 0 {
			cfg.History.MaxBytes = n
		}
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogLevel)); v != "" {
		cfg.Logging.Level = strings.ToLower(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogFormat)); v != "" {
		cfg.Logging.Format = strings.ToLower(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogSource)); v != "" {
		lv := strings.ToLower(v)
		cfg.Logging.Source = lv == "1" || lv == "true" || lv == "on" || lv == "yes"
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogFile)); v != "" {
		cfg.Logging.File = v
	}
}

// EnvOverrideFor returns the env var name if the field is overridden by
// environment variables.
func EnvOverrideFor(key string) (string, bool) {
	var env string
	switch key {
	case "ai.image_model":
		env = EnvImageModel
	case "ai.text_model":
		env = EnvTextModel
	case "history.root":
		env = EnvHistoryRoot
	case "history.max_bytes":
		env = EnvHistoryMaxBytes
	case "logging.level":
		env = EnvLogLevel
	case "logging.format":
		env = EnvLogFormat
	case "logging.source":
		env = EnvLogSource
	case "logging.file":
		env = EnvLogFile
	default:
		return "", false
	}
	if os.Getenv(env) != "" {
		return env, true
	}
	return "", false
}

// HistoryRoot resolves the directory for local state, defaulting to the
// user's home directory.
func (h HistoryConfig) HistoryRoot() string {
	if h.Root != "" {
		return h.Root
	}
	if home, err := os.UserHomeDir(); err == nil {
		return home
	}
	return "."
}
