package vad

import (
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// Energies holds one RMS loudness value per analysis frame.
type Energies struct {
	Values        []int
	SampleRate    int
	FrameDuration float64
	// Duration is the true length of the stream; the last frame may be short.
	Duration float64
}

// readChunk is the number of samples pulled from the decoder per read.
const readChunk = 16384

// FrameEnergies decodes a PCM WAV stream and computes the RMS of each
// consecutive frame of frameWidth samples per channel.
func FrameEnergies(r io.ReadSeeker, frameWidth int) (Energies, error) {
	if frameWidth <= 0 {
		return Energies{}, fmt.Errorf("frame width must be > 0, got %d", frameWidth)
	}

	dec := wav.NewDecoder(r)
	if !dec.IsValidFile() {
		return Energies{}, errors.New("audio is not a valid wav file")
	}
	if err := dec.FwdToPCM(); err != nil {
		return Energies{}, fmt.Errorf("seek pcm data: %w", err)
	}

	rate := int(dec.SampleRate)
	chans := int(dec.NumChans)
	if rate <= 0 {
		return Energies{}, fmt.Errorf("invalid sample rate %d", rate)
	}
	if chans <= 0 {
		chans = 1
	}

	out := Energies{
		SampleRate:    rate,
		FrameDuration: float64(frameWidth) / float64(rate),
	}

	frameLen := frameWidth * chans
	var (
		sumSquares float64
		inFrame    int
		total      int
	)
	flush := func() {
		if inFrame == 0 {
			return
		}
		out.Values = append(out.Values, int(math.Sqrt(sumSquares/float64(inFrame))))
		sumSquares = 0
		inFrame = 0
	}

	buf := &audio.IntBuffer{
		Format: &audio.Format{NumChannels: chans, SampleRate: rate},
		Data:   make([]int, readChunk*chans),
	}
	for {
		n, err := dec.PCMBuffer(buf)
		if err != nil {
			return Energies{}, fmt.Errorf("read pcm: %w", err)
		}
		if n == 0 {
			break
		}
		for _, s := range buf.Data[:n] {
			v := float64(s)
			sumSquares += v * v
			inFrame++
			if inFrame == frameLen {
				flush()
			}
		}
		total += n
	}
	flush()

	out.Duration = float64(total/chans) / float64(rate)
	return out, nil
}
