//go:build integration

package itest

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
)

// entryPoint is relative to the module root; runCLI builds it with go run.
const entryPoint = "cmd/autosub/main.go"

// findRepoRoot walks up from the working directory to the first directory
// holding both go.mod and the autosub entry point.
func findRepoRoot() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}
	for {
		if isRepoRoot(dir) {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", errors.New("no directory above the working directory contains go.mod and " + entryPoint)
		}
		dir = parent
	}
}

func isRepoRoot(dir string) bool {
	for _, name := range []string{"go.mod", filepath.FromSlash(entryPoint)} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			return false
		}
	}
	return true
}

// mediaSeconds reads the container duration of a media file with ffprobe.
func mediaSeconds(path string) (float64, error) {
	out, err := exec.Command("ffprobe",
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "csv=p=0",
		path,
	).Output()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return 0, fmt.Errorf("ffprobe %s: %w: %s", filepath.Base(path), err, strings.TrimSpace(string(exitErr.Stderr)))
		}
		return 0, fmt.Errorf("ffprobe %s: %w", filepath.Base(path), err)
	}
	field := strings.TrimSpace(string(out))
	sec, err := strconv.ParseFloat(field, 64)
	if err != nil || sec <= 0 {
		return 0, fmt.Errorf("ffprobe %s: unusable duration %q", filepath.Base(path), field)
	}
	return sec, nil
}
