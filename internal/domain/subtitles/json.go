package subtitles

import (
	"encoding/json"
	"strings"

	"github.com/forPelevin/autosub/internal/types"
)

type jsonCue struct {
	Start   float64 `json:"start"`
	End     float64 `json:"end"`
	Content string  `json:"content"`
}

// JSON renders entries as an indented array of {start, end, content}.
func JSON(entries []types.Entry) string {
	cues := make([]jsonCue, 0, len(entries))
	for _, e := range entries {
		cues = append(cues, jsonCue{Start: e.Region.Start, End: e.Region.End, Content: cleanText(e.Text)})
	}
	b, err := json.MarshalIndent(cues, "", "    ")
	if err != nil {
		// plain structs of floats and strings always marshal
		return "[]"
	}
	return string(b)
}

// Raw renders only the transcripts, joined by single spaces.
func Raw(entries []types.Entry) string {
	parts := make([]string, 0, len(entries))
	for _, e := range entries {
		parts = append(parts, cleanText(e.Text))
	}
	return strings.Join(parts, " ")
}
