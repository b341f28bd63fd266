package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"

	"github.com/forPelevin/autosub/internal/domain/subtitles"
	"github.com/forPelevin/autosub/internal/domain/vad"
	"github.com/forPelevin/autosub/internal/logging"
	"github.com/forPelevin/autosub/internal/ports"
	"github.com/forPelevin/autosub/internal/recognition"
	"github.com/forPelevin/autosub/internal/types"
	"github.com/forPelevin/autosub/internal/workpool"
)

const (
	DefaultSampleRate  = 16000
	DefaultConcurrency = 1
	DefaultPadding     = 0.25

	PolicySkip  = "skip"
	PolicyAbort = "abort"
)

type Deps struct {
	Transcoder ports.Transcoder
	Speech     ports.SpeechBackend
	Progress   ports.ProgressFactory
	Logger     *slog.Logger
}

type Usecase struct{ d Deps }

func New(d Deps) Usecase {
	if d.Progress == nil {
		d.Progress = func(string, int) ports.Progress { return nopProgress{} }
	}
	d.Logger = logging.NewComponentLogger(d.Logger, "usecase")
	return Usecase{d: d}
}

type Input struct {
	Source      string
	Format      string
	Lang        string
	Concurrency int
	Retries     int
	// OnRecognitionError is PolicySkip or PolicyAbort.
	OnRecognitionError string
	SampleRate         int
	PadBefore          float64
	PadAfter           float64
	VAD                vad.Options
	// WorkDir holds the extracted audio and clips; the caller removes it.
	WorkDir string
}

type Result struct {
	Document string
	Entries  []types.Entry
	Stats    types.Stats
}

func (u Usecase) Run(ctx context.Context, in Input) (Result, error) {
	if in.SampleRate <= 0 {
		in.SampleRate = DefaultSampleRate
	}
	if in.Concurrency < 1 {
		in.Concurrency = DefaultConcurrency
	}
	formatter, ok := subtitles.Lookup(in.Format)
	if !ok {
		return Result{}, fmt.Errorf("unsupported subtitle format %q", in.Format)
	}
	log := u.d.Logger

	wav := filepath.Join(in.WorkDir, "audio.wav")
	log.Debug("extracting audio", slog.String("source", in.Source), slog.String("wav", wav))
	if err := u.d.Transcoder.ExtractAudio(ctx, in.Source, wav, in.SampleRate); err != nil {
		return Result{}, err
	}

	regions, err := vad.Detect(wav, in.VAD)
	if err != nil {
		return Result{}, fmt.Errorf("detect speech regions: %w", err)
	}
	log.Info("speech regions detected", slog.Int("regions", len(regions)))

	transcripts := make([]string, len(regions))
	stats := types.Stats{Regions: len(regions)}
	if len(regions) > 0 {
		clips, err := u.clipAll(ctx, in, wav, regions)
		if err != nil {
			return Result{}, err
		}
		transcripts, stats.Skipped, err = u.recognizeAll(ctx, in, regions, clips)
		if err != nil {
			return Result{}, err
		}
	}

	entries := buildEntries(regions, transcripts)
	stats.Recognized = len(entries)
	log.Info("transcription finished",
		slog.Int("regions", stats.Regions),
		slog.Int("recognized", stats.Recognized),
		slog.Int("skipped", stats.Skipped))

	return Result{Document: formatter(entries), Entries: entries, Stats: stats}, nil
}

func (u Usecase) clipAll(ctx context.Context, in Input, wav string, regions []types.Region) ([][]byte, error) {
	bar := u.d.Progress("Converting speech regions to WAV files: ", len(regions))
	defer bar.Finish()

	c := clipper{
		tc:      u.d.Transcoder,
		source:  wav,
		workDir: in.WorkDir,
		before:  math.Max(in.PadBefore, 0),
		after:   math.Max(in.PadAfter, 0),
	}
	return workpool.Map(ctx, in.Concurrency, regions, func(ctx context.Context, i int, r types.Region) ([]byte, error) {
		b, err := c.clip(ctx, i, r)
		if err != nil {
			return nil, err
		}
		bar.Add(1)
		return b, nil
	})
}

func (u Usecase) recognizeAll(ctx context.Context, in Input, regions []types.Region, clips [][]byte) ([]string, int, error) {
	bar := u.d.Progress("Performing speech recognition: ", len(clips))
	defer bar.Finish()

	client := recognition.New(u.d.Speech, recognition.Options{
		Rate:    in.SampleRate,
		Lang:    in.Lang,
		Retries: in.Retries,
		Logger:  u.d.Logger,
	})
	abort := in.OnRecognitionError == PolicyAbort

	results, err := workpool.Map(ctx, in.Concurrency, clips, func(ctx context.Context, i int, clip []byte) (recognition.Result, error) {
		res := client.Recognize(ctx, clip)
		if res.Err != nil {
			var recErr *recognition.Error
			if abort || !errors.As(res.Err, &recErr) {
				return res, fmt.Errorf("region %d (%.2fs-%.2fs): %w", i, regions[i].Start, regions[i].End, res.Err)
			}
		}
		bar.Add(1)
		return res, nil
	})
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, 0, ctxErr
		}
		return nil, 0, err
	}

	transcripts := make([]string, len(results))
	skipped := 0
	for i, res := range results {
		if res.Err != nil {
			skipped++
			u.d.Logger.Warn("skipping unrecognized region",
				slog.Int("region", i),
				slog.Float64("start", regions[i].Start),
				slog.Float64("end", regions[i].End),
				logging.Error(res.Err))
			continue
		}
		transcripts[i] = res.Text
	}
	return transcripts, skipped, nil
}

// buildEntries pairs regions with transcripts by index and drops regions
// whose transcript is empty.
func buildEntries(regions []types.Region, transcripts []string) []types.Entry {
	var out []types.Entry
	for i, r := range regions {
		if i >= len(transcripts) || transcripts[i] == "" {
			continue
		}
		out = append(out, types.Entry{Region: r, Text: transcripts[i]})
	}
	return out
}

type clipper struct {
	tc      ports.Transcoder
	source  string
	workDir string
	before  float64
	after   float64
}

func (c clipper) window(r types.Region) (float64, float64) {
	start := r.Start - c.before
	if start < 0 {
		start = 0
	}
	return start, r.End + c.after
}

func (c clipper) clip(ctx context.Context, i int, r types.Region) ([]byte, error) {
	start, end := c.window(r)
	path := filepath.Join(c.workDir, fmt.Sprintf("clip-%05d.wav", i))
	defer os.Remove(path)

	if err := c.tc.ExtractClip(ctx, c.source, start, end, path); err != nil {
		return nil, err
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read clip: %w", err)
	}
	return b, nil
}

type nopProgress struct{}

func (nopProgress) Add(int) {}
func (nopProgress) Finish() {}
