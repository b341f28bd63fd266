package types

import "time"

// Region is a speech-active time window of the source audio, in seconds.
type Region struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

func (r Region) Duration() float64 { return r.End - r.Start }

func (r Region) StartDuration() time.Duration { return dur(r.Start) }

func (r Region) EndDuration() time.Duration { return dur(r.End) }

// Entry is a region paired with its transcript.
type Entry struct {
	Region Region
	Text   string
}

// Recognition is what a speech backend answered for one clip. A non-zero Code
// means the API rejected the request; Candidates is only meaningful when Code is 0.
type Recognition struct {
	Code       int
	Message    string
	Candidates []string
}

type Stats struct {
	Regions    int
	Recognized int
	Skipped    int
}

func dur(sec float64) time.Duration { return time.Duration(sec * float64(time.Second)) }
