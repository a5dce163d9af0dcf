package emu

import (
	"fmt"
	"os"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// Frame is what the machine produced during one frame.
type Frame struct {
	Video []uint8 // palette indices
	Width int
	Audio []int16 // interleaved stereo
}

// Height returns the number of scanlines of the video frame.
func (f Frame) Height() int {
	if f.Width == 0 {
		return 0
	}
	return len(f.Video) / f.Width
}

// An Output receives every presented frame. Slices of the frame are only
// valid during the call.
type Output interface {
	EndFrame(Frame) error
	Close() error
}

// WAVOutput dumps the audio stream into a 16-bit stereo WAV file.
type WAVOutput struct {
	f   *os.File
	enc *wav.Encoder
	buf audio.IntBuffer
}

func NewWAVOutput(path string, sampleRate int) (*WAVOutput, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("wav output: %w", err)
	}
	return &WAVOutput{
		f:   f,
		enc: wav.NewEncoder(f, sampleRate, 16, 2, 1),
		buf: audio.IntBuffer{
			Format:         &audio.Format{NumChannels: 2, SampleRate: sampleRate},
			SourceBitDepth: 16,
		},
	}, nil
}

func (w *WAVOutput) EndFrame(frame Frame) error {
	if len(frame.Audio) == 0 {
		return nil
	}
	w.buf.Data = w.buf.Data[:0]
	for _, s := range frame.Audio {
		w.buf.Data = append(w.buf.Data, int(s))
	}
	return w.enc.Write(&w.buf)
}

// Close finalizes the WAV headers and closes the file.
func (w *WAVOutput) Close() error {
	if err := w.enc.Close(); err != nil {
		w.f.Close()
		return fmt.Errorf("wav output: %w", err)
	}
	return w.f.Close()
}
