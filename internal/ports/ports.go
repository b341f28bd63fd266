package ports

import (
	"context"

	"github.com/forPelevin/autosub/internal/types"
)

type Transcoder interface {
	// ExtractAudio writes a mono 16-bit PCM WAV of inPath at rate Hz to outWav.
	ExtractAudio(ctx context.Context, inPath, outWav string, rate int) error
	// ExtractClip writes the [start, end) seconds window of inPath to outWav.
	ExtractClip(ctx context.Context, inPath string, start, end float64, outWav string) error
}

type SpeechBackend interface {
	Recognize(ctx context.Context, clip []byte, rate int, lang string) (types.Recognition, error)
}

// Progress tracks one pipeline phase.
type Progress interface {
	Add(n int)
	Finish()
}

type ProgressFactory func(description string, total int) Progress
