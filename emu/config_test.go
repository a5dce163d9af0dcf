package emu

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"c64core/hw/vic"
)

func writeFile(tb testing.TB, name, content string) string {
	tb.Helper()
	path := filepath.Join(tb.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		tb.Fatal(err)
	}
	return path
}

func TestLoadConfig(t *testing.T) {
	path := writeFile(t, "config.toml", `
[machine]
standard = "ntsc"
roms = "/opt/c64/roms"

[machine.drive9]
connected = true

[emulation]
run_ahead_frames = 2
warp = true

[audio]
disable_audio = true

[diagnostics]
no_cia_sleep = true
`)

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() = %v", err)
	}
	want := DefaultConfig()
	want.Machine.Standard = "ntsc"
	want.Machine.ROMDir = "/opt/c64/roms"
	want.Machine.Drive9.Connected = true
	want.Emulation.RunAheadFrames = 2
	want.Emulation.Warp = true
	want.Audio.DisableAudio = true
	want.Diagnostics.NoCIASleep = true
	if diff := cmp.Diff(want, cfg); diff != "" {
		t.Errorf("config mismatch (-want +got):\n%s", diff)
	}

	hwcfg, err := cfg.HWConfig()
	if err != nil {
		t.Fatalf("HWConfig() = %v", err)
	}
	if hwcfg.Standard != vic.NTSC || hwcfg.SampleRate != 0 || !hwcfg.Drives[0].Connected || !hwcfg.Drives[1].Connected {
		t.Errorf("HWConfig() = %+v", hwcfg)
	}
	if !hwcfg.Diag.NoCIASleep {
		t.Errorf("diagnostics not passed to the machine")
	}
}

func TestLoadConfigErrors(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "missing.toml"))
	if err != nil {
		t.Fatalf("LoadConfig(missing) = %v", err)
	}
	if diff := cmp.Diff(DefaultConfig(), cfg); diff != "" {
		t.Errorf("missing file: config mismatch (-want +got):\n%s", diff)
	}

	for _, tt := range []struct {
		name, content string
	}{
		{"syntax", "[machine\n"},
		{"standard", "[machine]\nstandard = \"secam\"\n"},
	} {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := LoadConfig(writeFile(t, "config.toml", tt.content)); err == nil {
				t.Errorf("LoadConfig() succeeded")
			}
		})
	}
}

func TestConfigCheck(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Emulation.RunAheadFrames = maxRunAheadFrames + 1
	cfg.Emulation.SnapshotRing = 0
	if err := cfg.Check(); err != nil {
		t.Fatalf("Check() = %v", err)
	}
	if cfg.Emulation.RunAheadFrames != 0 || cfg.Emulation.SnapshotRing != 8 {
		t.Errorf("Check() did not fix the emulation section: %+v", cfg.Emulation)
	}
}

func TestLoadROMs(t *testing.T) {
	dir := t.TempDir()
	roms := testROMs(borderProg)
	for name, data := range map[string][]byte{
		BasicROM:  roms.Basic,
		KernalROM: roms.Kernal,
		CharROM:   roms.Char[:100],
	} {
		if err := os.WriteFile(filepath.Join(dir, name), data, 0644); err != nil {
			t.Fatal(err)
		}
	}
	if _, err := LoadROMs(dir); err == nil {
		t.Fatalf("LoadROMs() with a short char rom succeeded")
	}

	if err := os.WriteFile(filepath.Join(dir, CharROM), roms.Char, 0644); err != nil {
		t.Fatal(err)
	}
	got, err := LoadROMs(dir)
	if err != nil {
		t.Fatalf("LoadROMs() = %v", err)
	}
	if diff := cmp.Diff(roms, got); diff != "" {
		t.Errorf("roms mismatch (-want +got):\n%s", diff)
	}
}
