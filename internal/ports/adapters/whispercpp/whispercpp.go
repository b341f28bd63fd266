package whispercpp

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/forPelevin/autosub/internal/language"
	"github.com/forPelevin/autosub/internal/types"
)

// Adapter recognizes clips offline with a local whisper.cpp binary.
type Adapter struct {
	bin     string
	model   string
	workDir string
}

func New(binPath, modelPath, workDir string) *Adapter {
	return &Adapter{bin: binPath, model: modelPath, workDir: workDir}
}

type output struct {
	Transcription []struct {
		Text string `json:"text"`
	} `json:"transcription"`
}

func (a *Adapter) Recognize(ctx context.Context, clip []byte, _ int, lang string) (types.Recognition, error) {
	dir, err := os.MkdirTemp(a.workDir, "whisper-*")
	if err != nil {
		return types.Recognition{}, fmt.Errorf("whisper.cpp workdir: %w", err)
	}
	defer os.RemoveAll(dir)

	wavPath := filepath.Join(dir, "clip.wav")
	if err := os.WriteFile(wavPath, clip, 0o600); err != nil {
		return types.Recognition{}, err
	}
	outPrefix := filepath.Join(dir, "whisper")

	cmd := exec.CommandContext(ctx, a.bin, a.args(wavPath, outPrefix, lang)...)
	b, err := cmd.CombinedOutput()
	if err != nil {
		if ctx.Err() != nil {
			return types.Recognition{}, ctx.Err()
		}
		return types.Recognition{}, fmt.Errorf("whisper.cpp failed: %w\n%s", err, string(b))
	}

	jb, err := os.ReadFile(outPrefix + ".json")
	if err != nil {
		return types.Recognition{}, err
	}
	text, err := parseOutput(jb)
	if err != nil {
		return types.Recognition{}, err
	}
	if text == "" {
		return types.Recognition{}, nil
	}
	return types.Recognition{Candidates: []string{text}}, nil
}

func (a *Adapter) args(wavPath, outPrefix, lang string) []string {
	args := []string{
		"-m", a.model,
		"-f", wavPath,
		"-oj",
		"-of", outPrefix,
		"-np",
	}
	if !language.Known(lang) {
		return args
	}
	base, _ := language.Tag(lang).Base()
	return append(args, "-l", base.String())
}

func parseOutput(b []byte) (string, error) {
	var out output
	if err := json.Unmarshal(b, &out); err != nil {
		return "", fmt.Errorf("decode whisper.cpp output: %w", err)
	}
	parts := make([]string, 0, len(out.Transcription))
	for _, seg := range out.Transcription {
		if t := strings.TrimSpace(seg.Text); t != "" {
			parts = append(parts, t)
		}
	}
	return strings.Join(parts, " "), nil
}
