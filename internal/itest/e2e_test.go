//go:build integration

package itest

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/forPelevin/autosub/internal/domain/subtitles"
	"github.com/forPelevin/autosub/internal/pipeline"
)

func TestE2E_Baidu(t *testing.T) {
	for _, k := range []string{"BAIDU_APP_ID", "BAIDU_API_KEY", "BAIDU_SECRET_KEY"} {
		if os.Getenv(k) == "" {
			t.Fatalf("%s is required for itest", k)
		}
	}

	in := writeSpeechVideo(t, "Here is the key idea. Step one: do this. Step two: measure results. This is important.")
	out := filepath.Join(t.TempDir(), "speech.srt")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	cfg := pipeline.Config{
		Source:         in,
		Output:         out,
		Format:         "srt",
		Lang:           "1737",
		Concurrency:    4,
		Retries:        3,
		FFmpegPath:     "ffmpeg",
		BaiduAppID:     os.Getenv("BAIDU_APP_ID"),
		BaiduAPIKey:    os.Getenv("BAIDU_API_KEY"),
		BaiduSecretKey: os.Getenv("BAIDU_SECRET_KEY"),
		TempDir:        t.TempDir(),
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("config: %v", err)
	}

	dest, err := pipeline.Run(ctx, cfg)
	if err != nil {
		t.Fatalf("pipeline failed: %v", err)
	}
	if dest != out {
		t.Fatalf("unexpected destination %q", dest)
	}

	b, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("missing subtitles: %v", err)
	}
	entries, err := subtitles.ParseSRT(string(b))
	if err != nil {
		t.Fatalf("parse subtitles: %v\n%s", err, b)
	}
	if len(entries) == 0 {
		t.Fatalf("expected at least one subtitle entry")
	}

	dur, err := mediaSeconds(in)
	if err != nil {
		t.Fatalf("media duration: %v", err)
	}
	prevEnd := 0.0
	for i, e := range entries {
		if e.Region.Start < prevEnd || e.Region.End <= e.Region.Start {
			t.Fatalf("entry %d has bad timing: %+v", i, e.Region)
		}
		if e.Region.End > dur+0.5 {
			t.Fatalf("entry %d ends after media (%.2f > %.2f)", i, e.Region.End, dur)
		}
		if strings.TrimSpace(e.Text) == "" {
			t.Fatalf("entry %d is empty", i)
		}
		prevEnd = e.Region.End
	}
}

func TestE2E_SilenceWritesEmptySubtitles(t *testing.T) {
	repoRoot := mustRepoRoot(t)
	src := writeSilentWav(t)
	out := filepath.Join(t.TempDir(), "silence.vtt")

	res := runCLI(t, repoRoot, []string{src, "-F", "vtt", "-o", out, "--no-progress"}, dummyCreds)
	if res.exitCode != 0 {
		t.Fatalf("exit code %d\n%s", res.exitCode, res.output)
	}
	b, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("missing subtitles: %v", err)
	}
	if string(b) != "WEBVTT\n\n" {
		t.Fatalf("expected empty WEBVTT document, got %q", b)
	}
	if !strings.Contains(res.output, "Subtitles file created at "+out) {
		t.Fatalf("missing completion message\n%s", res.output)
	}
}
