package subtitles

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/forPelevin/autosub/internal/types"
)

// SRT renders entries as SubRip: a 1-based index, a timing line and the text.
func SRT(entries []types.Entry) string {
	return renderCues(entries, ",", true)
}

// VTT renders entries as WebVTT.
func VTT(entries []types.Entry) string {
	return "WEBVTT\n\n" + renderCues(entries, ".", false)
}

func renderCues(entries []types.Entry, msSep string, withIndex bool) string {
	var b strings.Builder
	for i, e := range entries {
		if withIndex {
			b.WriteString(strconv.Itoa(i + 1))
			b.WriteString("\n")
		}
		b.WriteString(cueTime(e.Region.StartDuration(), msSep))
		b.WriteString(" --> ")
		b.WriteString(cueTime(e.Region.EndDuration(), msSep))
		b.WriteString("\n")
		b.WriteString(cleanText(e.Text))
		b.WriteString("\n\n")
	}
	return b.String()
}

func cueTime(d time.Duration, msSep string) string {
	if d < 0 {
		d = 0
	}
	d = d.Round(time.Millisecond)
	h := int(d / time.Hour)
	d -= time.Duration(h) * time.Hour
	m := int(d / time.Minute)
	d -= time.Duration(m) * time.Minute
	s := int(d / time.Second)
	d -= time.Duration(s) * time.Second
	ms := int(d / time.Millisecond)
	return fmt.Sprintf("%02d:%02d:%02d%s%03d", h, m, s, msSep, ms)
}

// ParseSRT reads a SubRip document back into entries.
func ParseSRT(content string) ([]types.Entry, error) {
	content = strings.ReplaceAll(content, "\r\n", "\n")
	var out []types.Entry
	for _, block := range strings.Split(strings.TrimSpace(content), "\n\n") {
		lines := strings.Split(strings.TrimSpace(block), "\n")
		if len(lines) == 0 || lines[0] == "" {
			continue
		}
		if !strings.Contains(lines[0], "-->") {
			lines = lines[1:]
		}
		if len(lines) == 0 {
			return nil, fmt.Errorf("cue without timing: %q", block)
		}
		parts := strings.Split(lines[0], "-->")
		if len(parts) != 2 {
			return nil, fmt.Errorf("invalid timing line %q", lines[0])
		}
		start, err := parseSRTTimestamp(strings.TrimSpace(parts[0]))
		if err != nil {
			return nil, err
		}
		end, err := parseSRTTimestamp(strings.TrimSpace(parts[1]))
		if err != nil {
			return nil, err
		}
		out = append(out, types.Entry{
			Region: types.Region{Start: start, End: end},
			Text:   strings.Join(lines[1:], "\n"),
		})
	}
	return out, nil
}

func parseSRTTimestamp(value string) (float64, error) {
	value = strings.Replace(value, ",", ".", 1)
	parts := strings.Split(value, ":")
	if len(parts) != 3 {
		return 0, fmt.Errorf("invalid timestamp %q", value)
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, fmt.Errorf("invalid hours in %q: %w", value, err)
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, fmt.Errorf("invalid minutes in %q: %w", value, err)
	}
	sec, err := strconv.ParseFloat(parts[2], 64)
	if err != nil {
		return 0, fmt.Errorf("invalid seconds in %q: %w", value, err)
	}
	return float64(h*3600+m*60) + sec, nil
}
