package emu

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/BurntSushi/toml"

	"c64core/emu/log"
	"c64core/hw"
	"c64core/hw/drive"
	"c64core/hw/input"
	"c64core/hw/vic"
)

type Config struct {
	Machine     MachineConfig   `toml:"machine"`
	Emulation   EmulationConfig `toml:"emulation"`
	Audio       AudioConfig     `toml:"audio"`
	Input       input.Config    `toml:"input"`
	Diagnostics hw.Diagnostics  `toml:"diagnostics"`
}

type MachineConfig struct {
	Standard string       `toml:"standard"` // pal or ntsc
	ROMDir   string       `toml:"roms"`     // defaults to roms/ in ConfigDir
	TODHz    int64        `toml:"tod_hz"`
	Drive8   drive.Config `toml:"drive8"`
	Drive9   drive.Config `toml:"drive9"`
}

type EmulationConfig struct {
	RunAheadFrames   int  `toml:"run_ahead_frames"`
	Warp             bool `toml:"warp"`
	AutoSnapshotSecs int  `toml:"auto_snapshot_secs"`
	SnapshotRing     int  `toml:"snapshot_ring"`
}

type AudioConfig struct {
	SampleRate   int  `toml:"sample_rate"`
	DisableAudio bool `toml:"disable_audio"`
}

const maxRunAheadFrames = 8

// DefaultConfig returns the configuration used when no file exists.
func DefaultConfig() Config {
	return Config{
		Machine: MachineConfig{
			Standard: "pal",
			Drive8:   drive.Config{Connected: true},
		},
		Emulation: EmulationConfig{
			SnapshotRing: 8,
		},
		Audio: AudioConfig{
			SampleRate: 44100,
		},
	}
}

// Check validates the configuration, fixing what can be fixed.
func (cfg *Config) Check() error {
	if _, err := ParseStandard(cfg.Machine.Standard); err != nil {
		return err
	}
	if cfg.Emulation.RunAheadFrames < 0 || cfg.Emulation.RunAheadFrames > maxRunAheadFrames {
		log.ModEmu.Warnf("Invalid run-ahead frames %d, fallback to 0", cfg.Emulation.RunAheadFrames)
		cfg.Emulation.RunAheadFrames = 0
	}
	if cfg.Emulation.SnapshotRing <= 0 {
		cfg.Emulation.SnapshotRing = 8
	}
	return nil
}

// ROMPath returns the directory holding the firmware images.
func (cfg *Config) ROMPath() string {
	if cfg.Machine.ROMDir != "" {
		return cfg.Machine.ROMDir
	}
	return filepath.Join(ConfigDir(), "roms")
}

// ParseStandard parses a video standard name.
func ParseStandard(name string) (vic.Standard, error) {
	switch strings.ToLower(name) {
	case "", "pal":
		return vic.PAL, nil
	case "ntsc":
		return vic.NTSC, nil
	}
	return 0, fmt.Errorf("unknown video standard %q", name)
}

// HWConfig returns the machine configuration, roms excluded.
func (cfg *Config) HWConfig() (hw.Config, error) {
	std, err := ParseStandard(cfg.Machine.Standard)
	if err != nil {
		return hw.Config{}, err
	}
	hwcfg := hw.Config{
		Standard:         std,
		TODHz:            cfg.Machine.TODHz,
		Input:            cfg.Input,
		AutoSnapshotSecs: cfg.Emulation.AutoSnapshotSecs,
		Diag:             cfg.Diagnostics,
	}
	if !cfg.Audio.DisableAudio {
		hwcfg.SampleRate = cfg.Audio.SampleRate
	}
	hwcfg.Drives[0] = cfg.Machine.Drive8
	hwcfg.Drives[1] = cfg.Machine.Drive9
	return hwcfg, nil
}

// ConfigDir returns the c64core configuration directory, creating it if
// needed.
var ConfigDir = sync.OnceValue(func() string {
	base, err := os.UserConfigDir()
	if err != nil {
		base = os.TempDir()
	}
	dir := filepath.Join(base, "c64core")
	if err := os.MkdirAll(dir, 0755); err != nil {
		log.ModEmu.Fatalf("failed to create directory %s: %v", dir, err)
	}
	return dir
})

const cfgFilename = "config.toml"

// LoadConfigOrDefault loads the configuration from the c64core config
// directory, or provides the default one.
func LoadConfigOrDefault() (Config, error) {
	return LoadConfig(filepath.Join(ConfigDir(), cfgFilename))
}

// LoadConfig loads the configuration file at path. A missing file gives the
// default configuration.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("config %s: %w", path, err)
	}
	if err := cfg.Check(); err != nil {
		return cfg, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// SaveConfig into c64core config directory.
func SaveConfig(cfg Config) error {
	buf, err := toml.Marshal(cfg)
	if err != nil {
		return err
	}

	return os.WriteFile(filepath.Join(ConfigDir(), cfgFilename), buf, 0644)
}
