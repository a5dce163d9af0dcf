package log

import (
	"io"
	"os"
	"sync"

	"golang.org/x/term"
	"gopkg.in/Sirupsen/logrus.v0"
)

type Level uint8

const (
	PanicLevel Level = iota
	FatalLevel
	ErrorLevel
	WarnLevel
	InfoLevel
	DebugLevel
)

// A LogContextAdder adds fields to every log entry. Components use it to
// attach the current machine position (frame, line, cycle).
type LogContextAdder interface {
	AddLogContext(*EntryZ)
}

var (
	ctxmu    sync.RWMutex
	contexts []LogContextAdder
	disabled bool
)

// AddContext registers c and returns a function that removes it.
func AddContext(c LogContextAdder) (remove func()) {
	ctxmu.Lock()
	contexts = append(contexts, c)
	ctxmu.Unlock()

	return func() {
		ctxmu.Lock()
		defer ctxmu.Unlock()
		for i := range contexts {
			if contexts[i] == c {
				contexts = append(contexts[:i], contexts[i+1:]...)
				return
			}
		}
	}
}

func addContexts(z *EntryZ) {
	ctxmu.RLock()
	for _, c := range contexts {
		c.AddLogContext(z)
	}
	ctxmu.RUnlock()
}

// Disable turns off all logging, including warnings and errors. Used by
// benchmarks and tests.
func Disable() {
	disabled = true
}

// SetOutput directs logging to w. Colors are enabled only when w is a
// terminal.
func SetOutput(w io.Writer) {
	tty := false
	if f, ok := w.(*os.File); ok {
		tty = term.IsTerminal(int(f.Fd()))
	}
	logrus.SetOutput(w)
	logrus.SetFormatter(&logrus.TextFormatter{
		ForceColors:   tty,
		DisableColors: !tty,
		FullTimestamp: !tty,
	})
	logrus.SetLevel(logrus.DebugLevel)
}
