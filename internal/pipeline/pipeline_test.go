package pipeline

import (
	"context"
	"errors"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/gofrs/flock"

	"github.com/forPelevin/autosub/internal/ports/adapters/baidu"
	"github.com/forPelevin/autosub/internal/ports/adapters/sqlitecache"
	"github.com/forPelevin/autosub/internal/ports/adapters/whispercpp"
	"github.com/forPelevin/autosub/internal/types"
	"github.com/forPelevin/autosub/internal/usecase"
)

type toneTranscoder struct{}

// ExtractAudio writes one second of silence followed by one second of tone.
func (toneTranscoder) ExtractAudio(_ context.Context, _, outWav string, rate int) error {
	data := make([]int, 2*rate)
	for i := rate; i < len(data); i++ {
		data[i] = int(8000 * math.Sin(2*math.Pi*440*float64(i)/float64(rate)))
	}
	f, err := os.Create(outWav)
	if err != nil {
		return err
	}
	defer f.Close()
	enc := wav.NewEncoder(f, rate, 16, 1, 1)
	if err := enc.Write(&audio.IntBuffer{
		Format:         &audio.Format{NumChannels: 1, SampleRate: rate},
		Data:           data,
		SourceBitDepth: 16,
	}); err != nil {
		return err
	}
	return enc.Close()
}

func (toneTranscoder) ExtractClip(_ context.Context, _ string, _, _ float64, outWav string) error {
	return os.WriteFile(outWav, []byte("clip"), 0o644)
}

type stubSpeech struct {
	rec types.Recognition
	err error
}

func (s stubSpeech) Recognize(context.Context, []byte, int, string) (types.Recognition, error) {
	return s.rec, s.err
}

func sourceFile(t *testing.T) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "talk.mp4")
	if err := os.WriteFile(p, []byte("not really a video"), 0o644); err != nil {
		t.Fatalf("write source: %v", err)
	}
	return p
}

func validConfig(t *testing.T) Config {
	t.Helper()
	return Config{
		Source:         sourceFile(t),
		Format:         "srt",
		Lang:           "1537",
		Concurrency:    1,
		BaiduAppID:     "app",
		BaiduAPIKey:    "key",
		BaiduSecretKey: "secret",
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"ok", func(*Config) {}, ""},
		{"unknown format", func(c *Config) { c.Format = "docx" }, `format "docx" is not supported`},
		{"unknown language", func(c *Config) { c.Lang = "9999" }, "--list-languages"},
		{"missing source", func(c *Config) { c.Source = "" }, "source path is required"},
		{"source does not exist", func(c *Config) { c.Source = filepath.Join(t.TempDir(), "nope.mp4") }, "stat source"},
		{"source is dir", func(c *Config) { c.Source = t.TempDir() }, "is a directory"},
		{"zero concurrency", func(c *Config) { c.Concurrency = 0 }, "concurrency must be >= 1"},
		{"bad policy", func(c *Config) { c.OnRecognitionError = "retry" }, "on-error must be"},
		{"missing secret", func(c *Config) { c.BaiduSecretKey = "" }, "secret key"},
		{"bad engine", func(c *Config) { c.Engine = "vosk" }, "engine must be"},
		{"whisper needs model", func(c *Config) { c.Engine = EngineWhisper }, "whisper model path is required"},
		{"whisper ignores baidu creds", func(c *Config) {
			c.Engine = EngineWhisper
			c.WhisperModel = "model.bin"
			c.BaiduAPIKey = ""
		}, ""},
		{"asr url must be https", func(c *Config) { c.BaiduASRURL = "http://vop.baidu.com" }, "https is required"},
		{"asr host allow list", func(c *Config) { c.BaiduASRURL = "https://evil.example" }, "BAIDU_ALLOWED_HOSTS"},
		{"custom allowed host", func(c *Config) {
			c.BaiduASRURL = "https://proxy.internal"
			c.BaiduAllowedHosts = []string{"proxy.internal", "aip.baidubce.com"}
		}, ""},
		{"vad bounds", func(c *Config) { c.VAD.MinRegion, c.VAD.MaxRegion = 5, 2 }, "min region"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig(t)
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.want == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("expected error containing %q, got %v", tt.want, err)
			}
		})
	}
}

func TestOutputPath(t *testing.T) {
	tests := []struct {
		source, output, format, want string
	}{
		{"/videos/talk.mp4", "", "srt", "/videos/talk.srt"},
		{"/videos/talk.final.mkv", "", "vtt", "/videos/talk.final.vtt"},
		{"/videos/talk.mp4", "", "raw", "/videos/talk.txt"},
		{"/videos/noext", "", "json", "/videos/noext.json"},
		{"/videos/talk.mp4", "/tmp/custom.sub", "srt", "/tmp/custom.sub"},
	}
	for _, tt := range tests {
		if got := OutputPath(tt.source, tt.output, tt.format); got != tt.want {
			t.Fatalf("OutputPath(%q, %q, %q) = %q, want %q", tt.source, tt.output, tt.format, got, tt.want)
		}
	}
}

func TestRun_WritesSubtitles(t *testing.T) {
	cfg := validConfig(t)
	cfg.VAD.FrameWidth = 1600
	deps := usecase.Deps{
		Transcoder: toneTranscoder{},
		Speech:     stubSpeech{rec: types.Recognition{Candidates: []string{" hello world "}}},
	}

	dest, err := run(context.Background(), cfg, deps, t.TempDir())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if want := strings.TrimSuffix(cfg.Source, ".mp4") + ".srt"; dest != want {
		t.Fatalf("dest = %q, want %q", dest, want)
	}
	b, err := os.ReadFile(dest)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	if !strings.HasPrefix(string(b), "1\n00:00:01,000 --> ") || !strings.Contains(string(b), "hello world\n") {
		t.Fatalf("unexpected output:\n%s", b)
	}
	entries, _ := os.ReadDir(filepath.Dir(dest))
	for _, e := range entries {
		if strings.HasSuffix(e.Name(), ".lock") || strings.HasSuffix(e.Name(), ".tmp") {
			t.Fatalf("leftover file %s", e.Name())
		}
	}
}

func TestRun_FailureWritesNothing(t *testing.T) {
	cfg := validConfig(t)
	cfg.OnRecognitionError = usecase.PolicyAbort
	deps := usecase.Deps{
		Transcoder: toneTranscoder{},
		Speech:     stubSpeech{rec: types.Recognition{Code: 3301, Message: "speech quality error."}},
	}
	if _, err := run(context.Background(), cfg, deps, t.TempDir()); err == nil {
		t.Fatalf("expected error")
	}
	if _, err := os.Stat(OutputPath(cfg.Source, "", "srt")); !os.IsNotExist(err) {
		t.Fatalf("output must not exist after failure (stat err=%v)", err)
	}
}

func TestRun_CancelledWritesNothing(t *testing.T) {
	cfg := validConfig(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	deps := usecase.Deps{
		Transcoder: toneTranscoder{},
		Speech:     stubSpeech{err: context.Canceled},
	}
	_, err := run(ctx, cfg, deps, t.TempDir())
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if _, err := os.Stat(OutputPath(cfg.Source, "", "srt")); !os.IsNotExist(err) {
		t.Fatalf("output must not exist after cancel (stat err=%v)", err)
	}
}

func TestRun_RemovesWorkDirOnFailure(t *testing.T) {
	cfg := validConfig(t)
	cfg.FFmpegPath = filepath.Join(t.TempDir(), "missing-ffmpeg")
	cfg.TempDir = t.TempDir()

	_, err := Run(context.Background(), cfg)
	if err == nil || !strings.Contains(err.Error(), "ffmpeg extract audio") {
		t.Fatalf("expected ffmpeg failure, got %v", err)
	}
	left, _ := os.ReadDir(cfg.TempDir)
	if len(left) != 0 {
		t.Fatalf("work dir not removed: %v", left)
	}
}

func TestWriteLocked_RefusesWhenBusy(t *testing.T) {
	dest := filepath.Join(t.TempDir(), "out.srt")
	held := flock.New(dest + ".lock")
	ok, err := held.TryLock()
	if err != nil || !ok {
		t.Fatalf("hold lock: ok=%v err=%v", ok, err)
	}
	defer held.Unlock()

	err = writeLocked(dest, []byte("x"))
	if err == nil || !strings.Contains(err.Error(), "another autosub run") {
		t.Fatalf("expected busy error, got %v", err)
	}
	if _, err := os.Stat(dest); !os.IsNotExist(err) {
		t.Fatalf("dest must not be written while locked")
	}
}

func TestWriteLocked_ReplacesExisting(t *testing.T) {
	dest := filepath.Join(t.TempDir(), "out.srt")
	if err := os.WriteFile(dest, []byte("old"), 0o644); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if err := writeLocked(dest, []byte("new")); err != nil {
		t.Fatalf("writeLocked: %v", err)
	}
	b, _ := os.ReadFile(dest)
	if string(b) != "new" {
		t.Fatalf("unexpected content %q", b)
	}
}

func TestBuildDeps_SelectsBackend(t *testing.T) {
	workDir := t.TempDir()

	cfg := validConfig(t)
	deps, closeFn, err := buildDeps(cfg, workDir)
	if err != nil {
		t.Fatalf("buildDeps: %v", err)
	}
	closeFn()
	if _, ok := deps.Speech.(*baidu.Adapter); !ok {
		t.Fatalf("expected baidu backend, got %T", deps.Speech)
	}

	cfg.Engine = EngineWhisper
	deps, closeFn, err = buildDeps(cfg, workDir)
	if err != nil {
		t.Fatalf("buildDeps: %v", err)
	}
	closeFn()
	if _, ok := deps.Speech.(*whispercpp.Adapter); !ok {
		t.Fatalf("expected whisper.cpp backend, got %T", deps.Speech)
	}

	cfg.CacheDB = filepath.Join(t.TempDir(), "cache.db")
	deps, closeFn, err = buildDeps(cfg, workDir)
	if err != nil {
		t.Fatalf("buildDeps: %v", err)
	}
	defer closeFn()
	if _, ok := deps.Speech.(*sqlitecache.Cache); !ok {
		t.Fatalf("expected cached backend, got %T", deps.Speech)
	}
}
