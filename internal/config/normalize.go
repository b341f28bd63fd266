package config

import (
	"fmt"
	"strings"
)

func (c *Config) normalize() error {
	c.Recognition.Engine = strings.ToLower(strings.TrimSpace(c.Recognition.Engine))
	if c.Recognition.Engine == "" {
		c.Recognition.Engine = defaultEngine
	}
	c.Recognition.OnError = strings.ToLower(strings.TrimSpace(c.Recognition.OnError))
	if c.Recognition.OnError == "" {
		c.Recognition.OnError = defaultOnError
	}
	c.Recognition.Language = strings.TrimSpace(c.Recognition.Language)
	if c.Recognition.Language == "" {
		c.Recognition.Language = defaultLanguage
	}
	c.Pipeline.Format = strings.ToLower(strings.TrimSpace(c.Pipeline.Format))
	if c.Pipeline.Format == "" {
		c.Pipeline.Format = defaultFormat
	}
	if strings.TrimSpace(c.Transcode.FFmpegPath) == "" {
		c.Transcode.FFmpegPath = defaultFFmpegPath
	}
	if c.Transcode.SampleRate <= 0 {
		c.Transcode.SampleRate = defaultSampleRate
	}
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}

	var err error
	if c.Recognition.CacheDB, err = expandPath(strings.TrimSpace(c.Recognition.CacheDB)); err != nil {
		return fmt.Errorf("recognition.cache_db: %w", err)
	}
	if c.Whisper.Model, err = expandPath(strings.TrimSpace(c.Whisper.Model)); err != nil {
		return fmt.Errorf("whisper.model: %w", err)
	}
	return nil
}
