package emu

import (
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/sync/errgroup"

	"c64core/emu/log"
	"c64core/hw/mem"
)

// Firmware file names, looked up in the roms directory.
const (
	BasicROM  = "basic.rom"
	KernalROM = "kernal.rom"
	CharROM   = "chargen.rom"
)

// LoadROMs reads the three firmware images from dir.
func LoadROMs(dir string) (mem.ROMs, error) {
	var roms mem.ROMs

	var g errgroup.Group
	for _, f := range []struct {
		name string
		dst  *[]byte
	}{
		{BasicROM, &roms.Basic},
		{KernalROM, &roms.Kernal},
		{CharROM, &roms.Char},
	} {
		g.Go(func() error {
			buf, err := os.ReadFile(filepath.Join(dir, f.name))
			if err != nil {
				return err
			}
			*f.dst = buf
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return mem.ROMs{}, fmt.Errorf("load firmware: %w", err)
	}
	if err := roms.Validate(); err != nil {
		return mem.ROMs{}, fmt.Errorf("load firmware: %w", err)
	}

	log.ModEmu.InfoZ("firmware loaded").String("dir", dir).End()
	return roms, nil
}
