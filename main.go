package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"runtime/debug"
	"runtime/pprof"

	"github.com/bradleyjkemp/memviz"
	"github.com/go-echarts/statsview"
	"github.com/go-echarts/statsview/viewer"

	"c64core/emu"
	"c64core/emu/log"
	"c64core/hw/drive"
	"c64core/hw/snapshot"
	"c64core/hw/vic"
)

func main() {
	log.SetOutput(os.Stderr)

	cli := parseArgs(os.Args[1:])
	switch cli.mode {
	case runMode:
		run(&cli.Run)
	case snapshotInfoMode:
		snapshotInfo(cli.Snapshot.Info.Path)
	case snapshotDumpMode:
		snapshotDump(cli.Snapshot.Dump.Path, cli.Snapshot.Dump.Out)
	case versionMode:
		printVersion()
	}
}

func loadConfig(args *Run) emu.Config {
	var (
		cfg emu.Config
		err error
	)
	if args.Config != "" {
		cfg, err = emu.LoadConfig(args.Config)
	} else {
		cfg, err = emu.LoadConfigOrDefault()
	}
	checkf(err, "failed to load configuration")

	if args.ROMs != "" {
		cfg.Machine.ROMDir = args.ROMs
	}
	if args.Standard != "" {
		cfg.Machine.Standard = args.Standard
	}
	if args.Warp {
		cfg.Emulation.Warp = true
	}
	if args.RunAhead >= 0 {
		cfg.Emulation.RunAheadFrames = args.RunAhead
	}
	if args.WAV != "" && cfg.Audio.DisableAudio {
		fatalf("--wav needs audio, enable it in the configuration")
	}
	checkf(cfg.Check(), "invalid configuration")
	return cfg
}

func run(args *Run) {
	cfg := loadConfig(args)

	roms, err := emu.LoadROMs(cfg.ROMPath())
	checkf(err, "failed to load firmware")

	e, err := emu.Launch(cfg, roms)
	checkf(err, "failed to start the machine")

	if args.Disk != "" {
		buf, err := os.ReadFile(args.Disk)
		checkf(err, "failed to read disk image")
		disk, err := drive.ParseD64(buf)
		checkf(err, "invalid disk image %s", args.Disk)
		if !e.C64.Drives[0].Connected() {
			fatalf("drive 8 is disconnected, can't insert %s", args.Disk)
		}
		e.C64.Drives[0].InsertDisk(disk, false)
	}
	if args.Trace != nil {
		defer args.Trace.Close()
		e.C64.SetTraceOutput(args.Trace)
	}
	if args.WAV != "" {
		wav, err := emu.NewWAVOutput(args.WAV, cfg.Audio.SampleRate)
		checkf(err, "failed to create audio output")
		e.AddOutput(wav)
	}
	if args.Frames > 0 {
		e.AddOutput(&frameLimit{e: e, remaining: args.Frames})
	}
	if args.Script != "" {
		checkf(e.LoadScript(args.Script), "failed to load script")
	}
	if args.CPUProfile != "" {
		f, err := os.Create(args.CPUProfile)
		checkf(err, "failed to create cpu profile")
		checkf(pprof.StartCPUProfile(f), "failed to start cpu profile")
		defer func() {
			pprof.StopCPUProfile()
			f.Close()
		}()
	}
	if args.StatsView != "" {
		go func() {
			viewer.SetConfiguration(viewer.WithAddr(args.StatsView))
			mgr := statsview.New()
			if err := mgr.Start(); err != nil {
				log.ModEmu.WarnZ("statsview stopped").Error("err", err).End()
			}
		}()
		log.ModEmu.InfoZ("statsview available").String("url", "http://"+args.StatsView+"/debug/statsview").End()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	go func() {
		<-ctx.Done()
		e.Stop()
	}()
	go logNotifications(e)

	e.Run()

	if args.Screenshot != "" {
		frame := e.LastFrame()
		if frame.Width == 0 {
			log.ModEmu.Warnf("No frame to save in %s", args.Screenshot)
		} else {
			checkf(emu.SaveAsPNG(emu.FrameImage(frame), args.Screenshot), "failed to save screenshot")
		}
	}
	if args.SnapshotOut != "" {
		buf, err := e.C64.SaveSnapshot()
		checkf(err, "failed to save snapshot")
		checkf(os.WriteFile(args.SnapshotOut, buf, 0644), "failed to write snapshot")
	}
}

// frameLimit stops the emulator once the requested number of frames have
// been presented.
type frameLimit struct {
	e         *emu.Emulator
	remaining int64
}

func (fl *frameLimit) EndFrame(emu.Frame) error {
	fl.remaining--
	if fl.remaining == 0 {
		fl.e.Stop()
	}
	return nil
}

func (fl *frameLimit) Close() error { return nil }

func logNotifications(e *emu.Emulator) {
	for n := range e.Notifications() {
		z := log.ModEmu.InfoZ("notification").Stringer("kind", n.Kind)
		if n.Addr != 0 {
			z.Hex16("addr", n.Addr)
		}
		z.End()
	}
}

func readSnapshot(path string) (*snapshot.Machine, snapshot.Header) {
	buf, err := os.ReadFile(path)
	checkf(err, "failed to read snapshot")
	hdr, err := snapshot.ReadHeader(buf)
	checkf(err, "invalid snapshot %s", path)

	var st snapshot.Machine
	checkf(snapshot.Decode(buf, &st), "invalid snapshot %s", path)
	return &st, hdr
}

func snapshotInfo(path string) {
	st, hdr := readSnapshot(path)

	fmt.Printf("version:   %d\n", hdr.Version)
	fmt.Printf("crc:       %08x\n", hdr.CRC)
	fmt.Printf("size:      %d bytes\n", hdr.Size)
	fmt.Printf("standard:  %s\n", vic.Standard(st.Standard))
	fmt.Printf("clock:     %d\n", st.Clock)
	fmt.Printf("frame:     %d\n", st.Frame)
	fmt.Printf("raster:    line %d cycle %d\n", st.Line, st.Cycle)
	fmt.Printf("cpu:       PC=%04X A=%02X X=%02X Y=%02X SP=%02X\n", st.CPU.PC, st.CPU.A, st.CPU.X, st.CPU.Y, st.CPU.SP)
	for i, d := range st.Drives {
		fmt.Printf("drive %d:   connected=%t disk=%t\n", 8+i, d.Connected, len(d.Disk) != 0)
	}
}

func snapshotDump(path, out string) {
	st, _ := readSnapshot(path)

	w := os.Stdout
	if out != "" {
		f, err := os.Create(out)
		checkf(err, "failed to create %s", out)
		defer f.Close()
		w = f
	}
	memviz.Map(w, st)
}

func printVersion() {
	version := "(devel)"
	if bi, ok := debug.ReadBuildInfo(); ok && bi.Main.Version != "" {
		version = bi.Main.Version
	}
	fmt.Println("c64core", version)
}
