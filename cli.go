package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/alecthomas/kong"

	"c64core/emu/log"
)

type mode byte

const (
	runMode          mode = iota // Run the machine headless
	snapshotInfoMode             // Check a snapshot file and show its header
	snapshotDumpMode             // Render a snapshot state graph
	versionMode                  // Show c64core version
)

type (
	CLI struct {
		Run      Run      `cmd:"" help:"Run the machine headless." default:"withargs"`
		Snapshot Snapshot `cmd:"" help:"Inspect snapshot files."`
		Version  Version  `cmd:"" help:"Show c64core version."`

		Log logModMask `help:"${log_help}" placeholder:"mod0,mod1,..."`

		mode mode
	}

	Run struct {
		Config   string `name:"config" help:"${config_help}" type:"path"`
		ROMs     string `name:"roms" help:"Firmware directory, overrides the configuration." type:"existingdir"`
		Standard string `name:"standard" help:"Video standard (pal|ntsc), overrides the configuration."`
		Disk     string `name:"disk" help:"D64 image to insert in drive 8." type:"existingfile"`
		Frames   int64  `name:"frames" help:"${frames_help}" default:"0"`
		Warp     bool   `name:"warp" help:"Run as fast as possible."`
		RunAhead int    `name:"run-ahead" help:"Run-ahead frames, overrides the configuration." default:"-1"`

		Trace       *outfile `name:"trace" help:"Write CPU trace log." placeholder:"FILE|stdout|stderr"`
		WAV         string   `name:"wav" help:"Write the audio output to a WAV file." type:"path"`
		Screenshot  string   `name:"screenshot" help:"Save the last frame as PNG when the run ends." type:"path"`
		SnapshotOut string   `name:"snapshot-out" help:"Save a snapshot when the run ends." type:"path"`
		Script      string   `name:"script" help:"Lua script driving the machine." type:"existingfile"`
		CPUProfile  string   `name:"cpuprofile" help:"${cpuprofile_help}" type:"path"`
		StatsView   string   `name:"statsview" help:"Serve runtime statistics at this address." placeholder:"HOST:PORT"`
	}

	Snapshot struct {
		Info SnapshotInfo `cmd:"" help:"Check a snapshot file and show its header."`
		Dump SnapshotDump `cmd:"" help:"Write the snapshot state graph in Graphviz dot format."`
	}

	SnapshotInfo struct {
		Path string `arg:"" name:"/path/to/snapshot" type:"existingfile"`
	}

	SnapshotDump struct {
		Path string `arg:"" name:"/path/to/snapshot" type:"existingfile"`
		Out  string `name:"out" short:"o" help:"Output file, defaults to stdout." type:"path"`
	}

	Version struct{}
)

var vars = kong.Vars{
	"config_help":     "Configuration file, defaults to config.toml in the c64core configuration directory.",
	"frames_help":     "Number of frames to run, 0 runs until interrupted.",
	"cpuprofile_help": "Write CPU profile to file.",
	"log_help":        "Enable logging for specified modules.",
}

func parseArgs(args []string) CLI {
	var cfg CLI
	parser, err := kong.New(&cfg,
		kong.Name("c64core"),
		kong.Description("Cycle-accurate Commodore 64 emulation core."),
		kong.UsageOnError(),
		kong.Help(printHelp),
		vars)
	if err != nil {
		panic(err)
	}

	ctx, err := parser.Parse(args)
	checkf(err, "failed to parse command line")
	checkf(ctx.Error, "failed to parse command line")

	switch ctx.Command() {
	case "snapshot info </path/to/snapshot>":
		cfg.mode = snapshotInfoMode
	case "snapshot dump </path/to/snapshot>":
		cfg.mode = snapshotDumpMode
	case "version":
		cfg.mode = versionMode
	default:
		cfg.mode = runMode
	}
	return cfg
}

func printHelp(options kong.HelpOptions, ctx *kong.Context) error {
	if err := kong.DefaultHelpPrinter(options, ctx); err != nil {
		return err
	}
	if strings.HasPrefix(ctx.Command(), "run") {
		loggingHelp := `
Log modules:
  The --log flag accepts a comma-separated list of modules.

  Valid log modules are:
%s

  As a special case, the following values are accepted:
    - no                     Disable all logging.
    - all                    Enable all logs.
`
		var strs []string
		for _, m := range log.ModuleNames() {
			strs = append(strs, "    - "+m)
		}

		fmt.Fprintf(os.Stderr, loggingHelp, strings.Join(strs, "\n"))
	}

	return nil
}

type logModMask log.ModuleMask

// Decode decodes a comma-separated list of module names into a module mask.
//
// Implements kong.MapperValue interface.
func (lm logModMask) Decode(ctx *kong.DecodeContext) error {
	nolog := false
	allLogs := false

	tok := ctx.Scan.Pop()
	for _, v := range strings.Split(tok.Value.(string), ",") {
		switch v {
		case "all":
			allLogs = true
		case "no":
			nolog = true
		default:
			mod, ok := log.ModuleByName(v)
			if !ok {
				return fmt.Errorf("unknown log module %s", v)
			}
			lm |= logModMask(mod.Mask())
		}
	}

	if nolog {
		if allLogs {
			return fmt.Errorf("cannot use 'all' and 'no' together")
		}
		if lm != 0 {
			return fmt.Errorf("cannot combine 'no' with other log modules")
		}
		log.Disable()
		return nil
	}

	if allLogs {
		lm = logModMask(log.ModuleMaskAll)
	}

	log.EnableDebugModules(log.ModuleMask(lm))
	return nil
}

type outfile struct {
	w     io.Writer
	name  string
	close func() error
}

// Decode decodes FILE|stdout|stderr into an io.WriteCloser
// that writes to that file.
//
// Implements kong.MapperValue interface.
func (f *outfile) Decode(ctx *kong.DecodeContext) error {
	tok := ctx.Scan.Pop()
	f.name = tok.Value.(string)
	f.close = func() error { return nil }

	switch f.name {
	case "stdout":
		f.w = os.Stdout
	case "stderr":
		f.w = os.Stderr
	default:
		fd, err := os.Create(f.name)
		if err != nil {
			return err
		}
		f.w = fd
		f.close = fd.Close
	}
	return nil
}

func (f *outfile) String() string              { return f.name }
func (f *outfile) Write(p []byte) (int, error) { return f.w.Write(p) }
func (f *outfile) Close() error                { return f.close() }

func checkf(err error, format string, args ...any) {
	if err == nil {
		return
	}
	fatalf(format+".\n"+err.Error(), args...)
}

func fatalf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "fatal error:")
	fmt.Fprintf(os.Stderr, "\n\t%s\n", fmt.Sprintf(format, args...))
	os.Exit(1)
}
