package dataset

import (
	"io"

	"github.com/go-audio/audio"
	"github.com/go-audio/transforms"
	"github.com/go-audio/wav"
	"github.com/pkg/errors"
)

const wavBitDepth = 16

// WriteWAV stores rendered samples as a mono 16-bit WAV file. The samples are
// peak normalized first; silence is written as is.
func WriteWAV(w io.WriteSeeker, samples []float32, sampleRate int) error {
	fb := &audio.FloatBuffer{
		Format: &audio.Format{NumChannels: 1, SampleRate: sampleRate},
		Data:   make([]float64, len(samples)),
	}
	peak := 0.0
	for i, s := range samples {
		fb.Data[i] = float64(s)
		if a := abs(fb.Data[i]); a > peak {
			peak = a
		}
	}
	if peak > 0 {
		transforms.NormalizeMax(fb)
	}

	const scale = 1<<(wavBitDepth-1) - 1
	ib := &audio.IntBuffer{
		Format:         fb.Format,
		Data:           make([]int, len(fb.Data)),
		SourceBitDepth: wavBitDepth,
	}
	for i, s := range fb.Data {
		switch {
		case s > 1:
			s = 1
		case s < -1:
			s = -1
		}
		ib.Data[i] = int(s * scale)
	}

	enc := wav.NewEncoder(w, sampleRate, wavBitDepth, 1, 1)
	if err := enc.Write(ib); err != nil {
		return errors.Wrap(err, "can't write wav data")
	}
	return errors.Wrap(enc.Close(), "can't finish wav file")
}

func abs(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}
