package subtitles

import (
	"fmt"
	"sort"
	"strings"

	"github.com/forPelevin/autosub/internal/types"
)

// Formatter renders ordered entries into a subtitle document.
type Formatter func(entries []types.Entry) string

const DefaultFormat = "srt"

var formatters = map[string]Formatter{
	"srt":  SRT,
	"vtt":  VTT,
	"json": JSON,
	"raw":  Raw,
	"ass":  ASS,
}

// Lookup returns the formatter registered under name.
func Lookup(name string) (Formatter, bool) {
	f, ok := formatters[strings.ToLower(strings.TrimSpace(name))]
	return f, ok
}

// Names lists the supported format keys, sorted.
func Names() []string {
	out := make([]string, 0, len(formatters))
	for k := range formatters {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Extension is the file extension (without dot) used for a format.
func Extension(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "raw" {
		return "txt"
	}
	return name
}

// Render formats entries with the named formatter.
func Render(name string, entries []types.Entry) (string, error) {
	f, ok := Lookup(name)
	if !ok {
		return "", fmt.Errorf("unsupported subtitle format %q", name)
	}
	return f(entries), nil
}

// cleanText trims the transcript and drops blank lines, since a blank line
// ends a cue in srt and vtt.
func cleanText(s string) string {
	lines := strings.Split(strings.ReplaceAll(s, "\r\n", "\n"), "\n")
	kept := lines[:0]
	for _, line := range lines {
		if line = strings.TrimSpace(line); line != "" {
			kept = append(kept, line)
		}
	}
	return strings.Join(kept, "\n")
}
