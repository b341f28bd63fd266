// Package config loads autosub settings from a TOML file and the environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

// Baidu holds credentials and endpoints for the Baidu short speech API.
type Baidu struct {
	AppID        string   `toml:"app_id"`
	APIKey       string   `toml:"api_key"`
	SecretKey    string   `toml:"secret_key"`
	CUID         string   `toml:"cuid"`
	TokenURL     string   `toml:"token_url"`
	ASRURL       string   `toml:"asr_url"`
	AllowedHosts []string `toml:"allowed_hosts"`
}

// Transcode controls ffmpeg and clip extraction.
type Transcode struct {
	FFmpegPath string  `toml:"ffmpeg_path"`
	SampleRate int     `toml:"sample_rate"`
	PadBefore  float64 `toml:"pad_before"`
	PadAfter   float64 `toml:"pad_after"`
}

// VAD tunes speech region detection.
type VAD struct {
	FrameWidth int     `toml:"frame_width"`
	MinRegion  float64 `toml:"min_region"`
	MaxRegion  float64 `toml:"max_region"`
}

type Recognition struct {
	Engine   string `toml:"engine"`
	Language string `toml:"language"`
	Retries  int    `toml:"retries"`
	// OnError is "skip" or "abort".
	OnError string `toml:"on_error"`
	// CacheDB enables the recognition cache when non-empty.
	CacheDB string `toml:"cache_db"`
}

type Pipeline struct {
	Concurrency int    `toml:"concurrency"`
	Format      string `toml:"format"`
}

type Logging struct {
	Format   string `toml:"format"`
	Level    string `toml:"level"`
	Progress bool   `toml:"progress"`
}

type Whisper struct {
	Bin   string `toml:"bin"`
	Model string `toml:"model"`
}

// Config encapsulates all configuration values for autosub.
//
// Sections:
//   - Baidu: cloud recognition credentials and endpoints
//   - Transcode: ffmpeg binary, sample rate and clip padding
//   - VAD: frame width and region length bounds
//   - Recognition: engine, language, retry and failure policy, cache
//   - Pipeline: worker count and output format
//   - Logging: log format and level, progress bars
//   - Whisper: offline whisper.cpp engine
type Config struct {
	Baidu       Baidu       `toml:"baidu"`
	Transcode   Transcode   `toml:"transcode"`
	VAD         VAD         `toml:"vad"`
	Recognition Recognition `toml:"recognition"`
	Pipeline    Pipeline    `toml:"pipeline"`
	Logging     Logging     `toml:"logging"`
	Whisper     Whisper     `toml:"whisper"`
}

// Load resolves the config file, decodes it over the defaults and applies
// environment overrides. A missing file is not an error; exists reports
// whether one was read.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config %s: %w", resolvedPath, err)
		}
	}

	cfg.applyEnv(os.LookupEnv)
	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}
	return &cfg, resolvedPath, exists, nil
}

// Encode renders cfg as TOML.
func Encode(cfg Config) ([]byte, error) {
	b, err := toml.Marshal(cfg)
	if err != nil {
		return nil, fmt.Errorf("encode config: %w", err)
	}
	return b, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path == "" {
		path = strings.TrimSpace(os.Getenv(EnvConfig))
	}
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		if _, err := os.Stat(expanded); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return "", false, fmt.Errorf("config file %s does not exist", expanded)
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath(defaultConfigPath)
	if err != nil {
		return "", false, err
	}
	projectPath, err := filepath.Abs(projectConfigName)
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}
	return defaultPath, false, nil
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the path expansion rules used for config values.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}
