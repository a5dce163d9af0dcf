package emu

import (
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-audio/wav"
	"github.com/google/go-cmp/cmp"
)

func TestWAVOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.wav")
	w, err := NewWAVOutput(path, 22050)
	if err != nil {
		t.Fatal(err)
	}
	frames := [][]int16{
		{100, 100, -200, -200},
		nil,
		{300, 300},
	}
	for _, samples := range frames {
		if err := w.EndFrame(Frame{Audio: samples}); err != nil {
			t.Fatalf("EndFrame() = %v", err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close() = %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	dec := wav.NewDecoder(f)
	if !dec.IsValidFile() {
		t.Fatalf("invalid wav file")
	}
	buf, err := dec.FullPCMBuffer()
	if err != nil {
		t.Fatal(err)
	}
	if dec.SampleRate != 22050 || dec.NumChans != 2 || dec.BitDepth != 16 {
		t.Errorf("format: %d Hz, %d channels, %d bits, want 22050 Hz, 2 channels, 16 bits",
			dec.SampleRate, dec.NumChans, dec.BitDepth)
	}
	if diff := cmp.Diff([]int{100, 100, -200, -200, 300, 300}, buf.Data); diff != "" {
		t.Errorf("samples mismatch (-want +got):\n%s", diff)
	}
}

func TestFrameImage(t *testing.T) {
	frame := Frame{
		Video: []uint8{0, 1, 2, 14, 15, 0x11},
		Width: 3,
	}
	img := FrameImage(frame)
	if got := img.Bounds().Size(); got.X != 3 || got.Y != 2 {
		t.Fatalf("image size = %v, want 3x2", got)
	}
	want := []color.RGBA{Palette[0], Palette[1], Palette[2], Palette[14], Palette[15], Palette[1]}
	var got []color.RGBA
	for y := range 2 {
		for x := range 3 {
			got = append(got, img.RGBAAt(x, y))
		}
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("pixels mismatch (-want +got):\n%s", diff)
	}
}
