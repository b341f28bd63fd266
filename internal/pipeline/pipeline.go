package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/gofrs/flock"

	"github.com/forPelevin/autosub/internal/domain/subtitles"
	"github.com/forPelevin/autosub/internal/domain/vad"
	"github.com/forPelevin/autosub/internal/language"
	"github.com/forPelevin/autosub/internal/logging"
	"github.com/forPelevin/autosub/internal/ports"
	"github.com/forPelevin/autosub/internal/ports/adapters/baidu"
	"github.com/forPelevin/autosub/internal/ports/adapters/ffmpeg"
	"github.com/forPelevin/autosub/internal/ports/adapters/sqlitecache"
	"github.com/forPelevin/autosub/internal/ports/adapters/whispercpp"
	"github.com/forPelevin/autosub/internal/usecase"
)

const (
	EngineBaidu   = "baidu"
	EngineWhisper = "whispercpp"
)

type Config struct {
	Source string
	// Output is the destination file. Empty means the source path with its
	// extension replaced by the format's extension.
	Output string
	Format string
	Lang   string

	Concurrency        int
	Retries            int
	OnRecognitionError string
	Engine             string

	SampleRate int
	PadBefore  float64
	PadAfter   float64
	VAD        vad.Options

	FFmpegPath string

	WhisperBin   string
	WhisperModel string

	BaiduAppID        string
	BaiduAPIKey       string
	BaiduSecretKey    string
	BaiduCUID         string
	BaiduTokenURL     string
	BaiduASRURL       string
	BaiduAllowedHosts []string

	// CacheDB enables the SQLite recognition cache when set.
	CacheDB string
	// TempDir is the parent of the per-run scratch directory. If empty,
	// defaults to os.TempDir().
	TempDir string

	Logger   *slog.Logger
	Progress ports.ProgressFactory
}

func (c Config) Validate() error {
	if _, ok := subtitles.Lookup(c.Format); !ok {
		return fmt.Errorf("format %q is not supported (available: %s)", c.Format, strings.Join(subtitles.Names(), ", "))
	}
	if !language.Known(c.Lang) {
		return fmt.Errorf("language %q is not supported, run with --list-languages to see all supported languages", c.Lang)
	}
	if strings.TrimSpace(c.Source) == "" {
		return errors.New("source path is required")
	}
	info, err := os.Stat(c.Source)
	if err != nil {
		return fmt.Errorf("stat source: %w", err)
	}
	if info.IsDir() {
		return fmt.Errorf("source %s is a directory", c.Source)
	}
	if c.Concurrency < 1 {
		return fmt.Errorf("concurrency must be >= 1, got %d", c.Concurrency)
	}
	switch c.OnRecognitionError {
	case "", usecase.PolicySkip, usecase.PolicyAbort:
	default:
		return fmt.Errorf("on-error must be %q or %q, got %q", usecase.PolicySkip, usecase.PolicyAbort, c.OnRecognitionError)
	}
	if err := c.VAD.Validate(); err != nil {
		return err
	}
	switch c.engine() {
	case EngineBaidu:
		var missing []string
		if strings.TrimSpace(c.BaiduAppID) == "" {
			missing = append(missing, "app id (-A or BAIDU_APP_ID)")
		}
		if strings.TrimSpace(c.BaiduAPIKey) == "" {
			missing = append(missing, "api key (-K or BAIDU_API_KEY)")
		}
		if strings.TrimSpace(c.BaiduSecretKey) == "" {
			missing = append(missing, "secret key (-S or BAIDU_SECRET_KEY)")
		}
		if len(missing) > 0 {
			return fmt.Errorf("baidu credentials missing: %s", strings.Join(missing, ", "))
		}
		if err := baidu.ValidateBaseURL("BAIDU_TOKEN_URL", c.BaiduTokenURL, baidu.DefaultTokenBaseURL, c.BaiduAllowedHosts); err != nil {
			return err
		}
		return baidu.ValidateBaseURL("BAIDU_ASR_URL", c.BaiduASRURL, baidu.DefaultASRBaseURL, c.BaiduAllowedHosts)
	case EngineWhisper:
		if strings.TrimSpace(c.WhisperModel) == "" {
			return errors.New("whisper model path is required (WHISPER_MODEL or [whisper] model)")
		}
		return nil
	default:
		return fmt.Errorf("engine must be %q or %q, got %q", EngineBaidu, EngineWhisper, c.Engine)
	}
}

func (c Config) engine() string {
	if c.Engine == "" {
		return EngineBaidu
	}
	return c.Engine
}

// Run transcribes cfg.Source and writes the subtitle file. It returns the
// path written.
func Run(ctx context.Context, cfg Config) (string, error) {
	logger := logging.NewComponentLogger(cfg.Logger, "pipeline")

	workDir, err := os.MkdirTemp(cfg.TempDir, "autosub-*")
	if err != nil {
		return "", fmt.Errorf("create work dir: %w", err)
	}
	defer os.RemoveAll(workDir)
	logger.Debug("work dir created", slog.String("dir", workDir))

	deps, closeDeps, err := buildDeps(cfg, workDir)
	if err != nil {
		return "", err
	}
	defer closeDeps()

	return run(ctx, cfg, deps, workDir)
}

func run(ctx context.Context, cfg Config, deps usecase.Deps, workDir string) (string, error) {
	logger := logging.NewComponentLogger(cfg.Logger, "pipeline")
	deps.Logger = cfg.Logger
	deps.Progress = cfg.Progress

	res, err := usecase.New(deps).Run(ctx, usecase.Input{
		Source:             cfg.Source,
		Format:             cfg.Format,
		Lang:               cfg.Lang,
		Concurrency:        cfg.Concurrency,
		Retries:            cfg.Retries,
		OnRecognitionError: cfg.OnRecognitionError,
		SampleRate:         cfg.SampleRate,
		PadBefore:          cfg.PadBefore,
		PadAfter:           cfg.PadAfter,
		VAD:                cfg.VAD,
		WorkDir:            workDir,
	})
	if err != nil {
		return "", err
	}

	dest := OutputPath(cfg.Source, cfg.Output, cfg.Format)
	if err := writeLocked(dest, []byte(res.Document)); err != nil {
		return "", err
	}
	logger.Info("subtitles written",
		slog.String("path", dest),
		slog.Int("entries", len(res.Entries)),
		slog.Int("skipped", res.Stats.Skipped))
	return dest, nil
}

func buildDeps(cfg Config, workDir string) (usecase.Deps, func(), error) {
	var speech ports.SpeechBackend
	switch cfg.engine() {
	case EngineWhisper:
		speech = whispercpp.New(cfg.WhisperBin, cfg.WhisperModel, workDir)
	default:
		speech = baidu.New(baidu.Options{
			AppID:        cfg.BaiduAppID,
			APIKey:       cfg.BaiduAPIKey,
			SecretKey:    cfg.BaiduSecretKey,
			CUID:         cfg.BaiduCUID,
			TokenBaseURL: cfg.BaiduTokenURL,
			ASRBaseURL:   cfg.BaiduASRURL,
		})
	}

	closeFn := func() {}
	if cfg.CacheDB != "" {
		cache, err := sqlitecache.Open(cfg.CacheDB, speech, cfg.Logger)
		if err != nil {
			return usecase.Deps{}, nil, err
		}
		speech = cache
		closeFn = func() { _ = cache.Close() }
	}

	return usecase.Deps{
		Transcoder: ffmpeg.New(cfg.FFmpegPath),
		Speech:     speech,
	}, closeFn, nil
}

// OutputPath resolves where the subtitles for source are written.
func OutputPath(source, output, format string) string {
	if output != "" {
		return output
	}
	base := strings.TrimSuffix(source, filepath.Ext(source))
	return base + "." + subtitles.Extension(format)
}

// writeLocked writes data to dest atomically while holding an advisory lock
// next to it, so concurrent runs never interleave partial files.
func writeLocked(dest string, data []byte) error {
	lockPath := dest + ".lock"
	lock := flock.New(lockPath)
	ok, err := lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire output lock: %w", err)
	}
	if !ok {
		return fmt.Errorf("another autosub run is writing %s", dest)
	}
	defer func() {
		_ = lock.Unlock()
		_ = os.Remove(lockPath)
	}()

	tmp, err := os.CreateTemp(filepath.Dir(dest), "."+filepath.Base(dest)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create output: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("write output: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("close output: %w", err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("chmod output: %w", err)
	}
	if err := os.Rename(tmpName, dest); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("rename output: %w", err)
	}
	return nil
}

// ensure adapters implement ports
var _ ports.Transcoder = (*ffmpeg.Adapter)(nil)
var _ ports.SpeechBackend = (*baidu.Adapter)(nil)
var _ ports.SpeechBackend = (*whispercpp.Adapter)(nil)
var _ ports.SpeechBackend = (*sqlitecache.Cache)(nil)
