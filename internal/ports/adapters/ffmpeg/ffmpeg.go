package ffmpeg

import (
	"context"
	"fmt"
	"os/exec"
	"strconv"
)

type Adapter struct {
	ffmpeg string
}

func New(ffmpegPath string) *Adapter {
	if ffmpegPath == "" {
		ffmpegPath = "ffmpeg"
	}
	return &Adapter{ffmpeg: ffmpegPath}
}

func (a *Adapter) ExtractAudio(ctx context.Context, inPath, outWav string, rate int) error {
	cmd := exec.CommandContext(ctx, a.ffmpeg, extractAudioArgs(inPath, outWav, rate)...)
	b, err := cmd.CombinedOutput()
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("ffmpeg extract audio: %w\n%s", err, string(b))
	}
	return nil
}

func (a *Adapter) ExtractClip(ctx context.Context, inPath string, start, end float64, outWav string) error {
	cmd := exec.CommandContext(ctx, a.ffmpeg, extractClipArgs(inPath, start, end, outWav)...)
	b, err := cmd.CombinedOutput()
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("ffmpeg extract clip %s-%s: %w\n%s", fmtSeconds(start), fmtSeconds(end), err, string(b))
	}
	return nil
}

func extractAudioArgs(inPath, outWav string, rate int) []string {
	return []string{
		"-y",
		"-nostdin",
		"-i", inPath,
		"-vn",
		"-ac", "1",
		"-ar", strconv.Itoa(rate),
		"-c:a", "pcm_s16le",
		"-f", "wav",
		"-loglevel", "error",
		outWav,
	}
}

func extractClipArgs(inPath string, start, end float64, outWav string) []string {
	return []string{
		"-y",
		"-nostdin",
		"-ss", fmtSeconds(start),
		"-t", fmtSeconds(end - start),
		"-i", inPath,
		"-c:a", "pcm_s16le",
		"-f", "wav",
		"-loglevel", "error",
		outWav,
	}
}

func fmtSeconds(sec float64) string {
	return strconv.FormatFloat(sec, 'f', 3, 64)
}
