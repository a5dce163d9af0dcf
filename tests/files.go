// Package tests provides access to external test assets, downloading them
// on first use.
package tests

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"testing"

	"golang.org/x/sync/errgroup"
)

// download all 256 (one per opcode) SingleStepTests 6502 files into dest dir.
func downloadSingleStepTests(tb testing.TB, dest string) {
	const urlfmt = `https://raw.githubusercontent.com/SingleStepTests/65x02/main/6502/v1/%s.json`

	tempdir, err := os.MkdirTemp("", "singlestep.6502.tests.*")
	if err != nil {
		tb.Fatal(err)
	}

	var g errgroup.Group
	g.SetLimit(runtime.NumCPU())

	for opcode := range 256 {
		opstr := fmt.Sprintf("%02x", opcode)
		url := fmt.Sprintf(urlfmt, opstr)

		g.Go(func() error {
			resp, err := http.Get(url)
			if err != nil {
				return err
			}
			defer resp.Body.Close()

			if resp.StatusCode != http.StatusOK {
				return fmt.Errorf("%s: %s", url, resp.Status)
			}

			f, err := os.Create(filepath.Join(tempdir, opstr+".json"))
			if err != nil {
				return err
			}
			defer f.Close()

			if _, err := io.Copy(f, resp.Body); err != nil {
				return err
			}

			tb.Log("downloaded", url, "to", f.Name())
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		os.RemoveAll(tempdir)
		tb.Fatalf("failed to download all files: %s", err)
	}

	if err := os.Rename(tempdir, dest); err != nil {
		tb.Fatal(err)
	}

	tb.Log("renaming", tempdir, "to", dest)
}

var singleStepMu sync.Mutex

// SingleStepTestsPath returns the directory holding the SingleStepTests
// 6502 files, one per opcode, named after the opcode hex value.
func SingleStepTestsPath(tb testing.TB) string {
	singleStepMu.Lock()
	defer singleStepMu.Unlock()

	_, b, _, _ := runtime.Caller(0)
	testsDir := filepath.Join(filepath.Dir(b), "singlestep.6502.tests")

	if _, err := os.Stat(testsDir); errors.Is(err, fs.ErrNotExist) {
		tb.Log("singlestep.6502.tests directory not found, downloading it...")
		downloadSingleStepTests(tb, testsDir)
		tb.Log("SingleStepTests downloaded in", testsDir)
	}

	return testsDir
}
