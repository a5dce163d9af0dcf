package emu

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"c64core/emu/log"
	"c64core/hw/cpu"
	"c64core/hw/mem"
)

// borderProg cycles the border color and counts iterations in $02.
var borderProg = []byte{
	0xEE, 0x20, 0xD0, // E000 INC $D020
	0xE6, 0x02, // E003 INC $02
	0x4C, 0x00, 0xE0, // E005 JMP $E000
}

func testROMs(prog []byte) mem.ROMs {
	kernal := make([]byte, mem.KernalSize)
	copy(kernal, prog)
	kernal[0xF0] = 0x40 // E0F0 RTI

	put16 := func(addr, val uint16) {
		kernal[addr-0xE000] = uint8(val)
		kernal[addr-0xE000+1] = uint8(val >> 8)
	}
	put16(cpu.NMIVector, 0xE0F0)
	put16(cpu.ResetVector, 0xE000)
	put16(cpu.IRQVector, 0xE0F0)

	return mem.ROMs{
		Basic:  make([]byte, mem.BasicSize),
		Kernal: kernal,
		Char:   make([]byte, mem.CharSize),
	}
}

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.Emulation.Warp = true
	return cfg
}

func newTestEmulator(tb testing.TB, cfg Config) *Emulator {
	tb.Helper()
	log.Disable()

	e, err := Launch(cfg, testROMs(borderProg))
	if err != nil {
		tb.Fatalf("Launch() = %v", err)
	}
	return e
}

// startLoop runs the emulation loop in the background, stopping it at the
// end of the test.
func startLoop(tb testing.TB, e *Emulator) {
	tb.Helper()
	done := make(chan struct{})
	go func() {
		e.Run()
		close(done)
	}()
	tb.Cleanup(func() {
		e.Stop()
		<-done
	})
}

// framesOutput records the frames it receives as PNG files.
type framesOutput struct {
	dir   string
	paths []string
}

func (o *framesOutput) EndFrame(frame Frame) error {
	path := filepath.Join(o.dir, goldenPathIndex(len(o.paths), "frame", "png"))
	if err := SaveAsPNG(FrameImage(frame), path); err != nil {
		return err
	}
	o.paths = append(o.paths, path)
	return nil
}

func (o *framesOutput) Close() error { return nil }

func goldenPathIndex(idx int, name, ext string) string {
	return fmt.Sprintf("%s-%02d.%s", name, idx, ext)
}

// diffFrames compares the PNG files at got and want.
func diffFrames(t *testing.T, got, want []string) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("got %d frames, want %d", len(got), len(want))
	}
	for i := range got {
		g, err := os.ReadFile(got[i])
		if err != nil {
			t.Fatal(err)
		}
		w, err := os.ReadFile(want[i])
		if err != nil {
			t.Fatal(err)
		}
		if !bytes.Equal(g, w) {
			t.Errorf("frame %d differs. check %s and %s", i, got[i], want[i])
		}
	}
}
