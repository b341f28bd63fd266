package vad

import (
	"fmt"
	"os"

	"github.com/forPelevin/autosub/internal/types"
)

const (
	DefaultFrameWidth = 4096
	DefaultMinRegion  = 0.5
	DefaultMaxRegion  = 6.0

	// silencePercentile is the share of frames assumed to be background noise.
	silencePercentile = 0.2
)

// Options tunes the region segmentation. Zero values fall back to defaults.
type Options struct {
	FrameWidth int
	MinRegion  float64
	MaxRegion  float64
}

func (o Options) withDefaults() Options {
	if o.FrameWidth <= 0 {
		o.FrameWidth = DefaultFrameWidth
	}
	if o.MinRegion <= 0 {
		o.MinRegion = DefaultMinRegion
	}
	if o.MaxRegion <= 0 {
		o.MaxRegion = DefaultMaxRegion
	}
	return o
}

func (o Options) Validate() error {
	o = o.withDefaults()
	if o.MinRegion > o.MaxRegion {
		return fmt.Errorf("min region (%.2fs) must be <= max region (%.2fs)", o.MinRegion, o.MaxRegion)
	}
	return nil
}

// Detect reads a PCM WAV file and returns its speech regions in order.
func Detect(path string, opts Options) ([]types.Region, error) {
	opts = opts.withDefaults()
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open audio: %w", err)
	}
	defer f.Close()

	en, err := FrameEnergies(f, opts.FrameWidth)
	if err != nil {
		return nil, fmt.Errorf("frame energies: %w", err)
	}
	return FindRegions(en, opts), nil
}

// FindRegions walks the frames in order and segments the timeline into
// speech regions. A frame is silent when its energy is at or below the 20th
// percentile of all energies. An open region is closed on silence or when it
// reaches MaxRegion, but only once it is at least MinRegion long; shorter
// regions stay open and absorb the speech that follows.
func FindRegions(en Energies, opts Options) []types.Region {
	opts = opts.withDefaults()
	if len(en.Values) == 0 || en.FrameDuration <= 0 {
		return nil
	}

	silent := silenceTest(en.Values, Percentile(en.Values, silencePercentile))

	var (
		regions []types.Region
		open    bool
		start   float64
	)
	for i, e := range en.Values {
		elapsed := float64(i) * en.FrameDuration
		isSilence := silent(e)
		maxExceeded := open && elapsed-start >= opts.MaxRegion

		switch {
		case open && (isSilence || maxExceeded):
			if elapsed-start >= opts.MinRegion {
				regions = append(regions, types.Region{Start: start, End: elapsed})
				open = false
			}
		case !open && !isSilence:
			start = elapsed
			open = true
		}
	}

	// Trailing speech still open at end of stream.
	if open {
		end := float64(len(en.Values)) * en.FrameDuration
		if en.Duration > 0 && en.Duration < end {
			end = en.Duration
		}
		if end-start >= opts.MinRegion {
			regions = append(regions, types.Region{Start: start, End: end})
		}
	}
	return regions
}

// silenceTest classifies frames against the threshold. When the threshold
// reaches the loudest frame the signal has no dynamic range, and only
// zero-energy frames count as silence.
func silenceTest(values []int, threshold float64) func(int) bool {
	loudest := 0
	for _, v := range values {
		if v > loudest {
			loudest = v
		}
	}
	if threshold >= float64(loudest) {
		return func(e int) bool { return e == 0 }
	}
	return func(e int) bool { return float64(e) <= threshold }
}
