package cli

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/forPelevin/autosub/internal/config"
	"github.com/forPelevin/autosub/internal/domain/vad"
	"github.com/forPelevin/autosub/internal/logging"
	"github.com/forPelevin/autosub/internal/pipeline"
	"github.com/forPelevin/autosub/internal/progress"
)

// ValidationError reports arguments or settings that were rejected before
// any work started.
type ValidationError struct{ Err error }

func (e *ValidationError) Error() string { return "config: " + e.Err.Error() }
func (e *ValidationError) Unwrap() error { return e.Err }

func run(cmd *cobra.Command, source string) error {
	configPath, _ := cmd.Flags().GetString("config")
	fileCfg, _, _, err := config.Load(configPath)
	if err != nil {
		return &ValidationError{Err: err}
	}
	if err := applyFlags(cmd, fileCfg); err != nil {
		return &ValidationError{Err: err}
	}

	logger, err := logging.New(logging.Options{
		Level:  fileCfg.Logging.Level,
		Format: fileCfg.Logging.Format,
		Output: cmd.ErrOrStderr(),
	})
	if err != nil {
		return &ValidationError{Err: err}
	}

	output, _ := cmd.Flags().GetString("output")
	cfg := pipelineConfig(fileCfg, source, output)
	if source != "" {
		abs, err := filepath.Abs(source)
		if err != nil {
			return err
		}
		cfg.Source = abs
	}
	if err := cfg.Validate(); err != nil {
		return &ValidationError{Err: err}
	}
	cfg.Logger = logger
	cfg.Progress = progress.Factory(cmd.ErrOrStderr(), fileCfg.Logging.Progress)

	dest, err := pipeline.Run(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Subtitles file created at %s\n", dest)
	return nil
}

// applyFlags overlays explicitly set flags on the loaded config. Path flags
// go through the same expansion as config file values.
func applyFlags(cmd *cobra.Command, cfg *config.Config) error {
	f := cmd.Flags()
	str := func(name string, dst *string) {
		if f.Changed(name) {
			*dst, _ = f.GetString(name)
		}
	}
	num := func(name string, dst *int) {
		if f.Changed(name) {
			*dst, _ = f.GetInt(name)
		}
	}

	num("concurrency", &cfg.Pipeline.Concurrency)
	str("format", &cfg.Pipeline.Format)
	str("lang", &cfg.Recognition.Language)
	str("api-key", &cfg.Baidu.APIKey)
	str("secret-key", &cfg.Baidu.SecretKey)
	str("app-id", &cfg.Baidu.AppID)
	str("engine", &cfg.Recognition.Engine)
	num("retries", &cfg.Recognition.Retries)
	str("on-error", &cfg.Recognition.OnError)
	str("cache-db", &cfg.Recognition.CacheDB)
	str("log-level", &cfg.Logging.Level)
	str("log-format", &cfg.Logging.Format)
	if noProgress, _ := f.GetBool("no-progress"); noProgress {
		cfg.Logging.Progress = false
	}
	if f.Changed("cache-db") {
		expanded, err := config.ExpandPath(cfg.Recognition.CacheDB)
		if err != nil {
			return fmt.Errorf("cache-db: %w", err)
		}
		cfg.Recognition.CacheDB = expanded
	}
	return nil
}

func pipelineConfig(c *config.Config, source, output string) pipeline.Config {
	return pipeline.Config{
		Source:             source,
		Output:             output,
		Format:             c.Pipeline.Format,
		Lang:               c.Recognition.Language,
		Concurrency:        c.Pipeline.Concurrency,
		Retries:            c.Recognition.Retries,
		OnRecognitionError: c.Recognition.OnError,
		Engine:             c.Recognition.Engine,
		SampleRate:         c.Transcode.SampleRate,
		PadBefore:          c.Transcode.PadBefore,
		PadAfter:           c.Transcode.PadAfter,
		VAD: vad.Options{
			FrameWidth: c.VAD.FrameWidth,
			MinRegion:  c.VAD.MinRegion,
			MaxRegion:  c.VAD.MaxRegion,
		},
		FFmpegPath:        c.Transcode.FFmpegPath,
		WhisperBin:        c.Whisper.Bin,
		WhisperModel:      c.Whisper.Model,
		BaiduAppID:        c.Baidu.AppID,
		BaiduAPIKey:       c.Baidu.APIKey,
		BaiduSecretKey:    c.Baidu.SecretKey,
		BaiduCUID:         c.Baidu.CUID,
		BaiduTokenURL:     c.Baidu.TokenURL,
		BaiduASRURL:       c.Baidu.ASRURL,
		BaiduAllowedHosts: c.Baidu.AllowedHosts,
		CacheDB:           c.Recognition.CacheDB,
	}
}
