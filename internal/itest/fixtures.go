//go:build integration

package itest

import (
	"os"
	"os/exec"
	"path/filepath"
	"testing"
)

func writeNotMedia(t *testing.T) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "not-media.txt")
	if err := os.WriteFile(p, []byte("definitely not audio\n"), 0o644); err != nil {
		t.Fatalf("write not-media fixture: %v", err)
	}
	return p
}

func writeSilentWav(t *testing.T) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "silence.wav")
	ff := exec.Command("ffmpeg", "-y",
		"-f", "lavfi",
		"-i", "anullsrc=r=16000:cl=mono",
		"-t", "2",
		p,
	)
	if b, err := ff.CombinedOutput(); err != nil {
		t.Fatalf("ffmpeg fixture failed: %v\n%s", err, string(b))
	}
	return p
}

// writeSpeechVideo renders text with espeak-ng and muxes it into an mp4.
func writeSpeechVideo(t *testing.T, text string) string {
	t.Helper()
	tmp := t.TempDir()
	wav := filepath.Join(tmp, "speech.wav")
	cmd := exec.Command("espeak-ng", "-w", wav, text)
	if b, err := cmd.CombinedOutput(); err != nil {
		t.Fatalf("espeak-ng failed: %v\n%s", err, string(b))
	}

	in := filepath.Join(tmp, "input.mp4")
	ff := exec.Command("ffmpeg",
		"-y",
		"-f", "lavfi",
		"-i", "color=c=black:s=640x360:d=15",
		"-i", wav,
		"-shortest",
		"-c:v", "libx264",
		"-pix_fmt", "yuv420p",
		"-c:a", "aac",
		in,
	)
	if b, err := ff.CombinedOutput(); err != nil {
		t.Fatalf("ffmpeg fixture failed: %v\n%s", err, string(b))
	}
	return in
}
