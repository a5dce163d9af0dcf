package emu

import (
	"image"
	"image/color"
	"image/png"
	"os"
)

// Palette holds the 16 colors of the video chip.
var Palette = [16]color.RGBA{
	{0x00, 0x00, 0x00, 0xFF}, // black
	{0xFF, 0xFF, 0xFF, 0xFF}, // white
	{0x68, 0x37, 0x2B, 0xFF}, // red
	{0x70, 0xA4, 0xB2, 0xFF}, // cyan
	{0x6F, 0x3D, 0x86, 0xFF}, // purple
	{0x58, 0x8D, 0x43, 0xFF}, // green
	{0x35, 0x28, 0x79, 0xFF}, // blue
	{0xB8, 0xC7, 0x6F, 0xFF}, // yellow
	{0x6F, 0x4F, 0x25, 0xFF}, // orange
	{0x43, 0x39, 0x00, 0xFF}, // brown
	{0x9A, 0x67, 0x59, 0xFF}, // light red
	{0x44, 0x44, 0x44, 0xFF}, // dark grey
	{0x6C, 0x6C, 0x6C, 0xFF}, // grey
	{0x9A, 0xD2, 0x84, 0xFF}, // light green
	{0x6C, 0x5E, 0xB5, 0xFF}, // light blue
	{0x95, 0x95, 0x95, 0xFF}, // light grey
}

// FrameImage converts the video of frame into an image.
func FrameImage(frame Frame) *image.RGBA {
	w, h := frame.Width, frame.Height()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for i, idx := range frame.Video[:w*h] {
		c := Palette[idx&0x0F]
		copy(img.Pix[i*4:], []uint8{c.R, c.G, c.B, c.A})
	}
	return img
}

func SaveAsPNG(img image.Image, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
