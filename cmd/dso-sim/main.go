// Copyright 2026 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Command dso-sim runs the oscilloscope from an interactive console.
//
// The acquisition back-end (simulator or FPGA bridge) is selected by
// the configuration file. Frames are rendered off-screen and may be
// written out as PNG files.
//
// Usage:
//
//	$> dso-sim -cfg ./dso.toml
//	dso> tdiv +2
//	dso> trig level -10
//	dso> png
//	dso-sim: frame written to "./dso-000.png"
//	dso> quit
package main // import "github.com/go-lpc/dso/cmd/dso-sim"

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	"github.com/peterh/liner"
	"github.com/spf13/afero"
	"golang.org/x/sync/errgroup"

	"github.com/go-lpc/dso/config"
	"github.com/go-lpc/dso/display"
	"github.com/go-lpc/dso/internal/cmdq"
	"github.com/go-lpc/dso/internal/rig"
	"github.com/go-lpc/dso/internal/xlog"
)

func main() {
	log.SetPrefix("dso-sim: ")
	log.SetFlags(0)

	var (
		fname = flag.String("cfg", "dso.toml", "path to the TOML configuration file")
		hist  = flag.String("history", filepath.Join(os.TempDir(), "dso-sim.history"), "path to the console history")
	)

	flag.Parse()

	con := newTerm(*hist)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := run(ctx, afero.NewOsFs(), *fname, con, os.Stdout, os.Stderr)
	stop()
	con.Close()

	if err != nil {
		log.Fatalf("%+v", err)
	}
}

// console reads command lines.
type console interface {
	Prompt(prompt string) (string, error)
}

type term struct {
	*liner.State
	hist string
}

func newTerm(hist string) *term {
	t := &term{State: liner.NewLiner(), hist: hist}
	t.SetCtrlCAborts(true)
	t.SetCompleter(complete)

	f, err := os.Open(hist)
	if err == nil {
		_, _ = t.ReadHistory(f)
		f.Close()
	}
	return t
}

func (t *term) Prompt(prompt string) (string, error) {
	line, err := t.State.Prompt(prompt)
	if err == nil && strings.TrimSpace(line) != "" {
		t.AppendHistory(line)
	}
	return line, err
}

func (t *term) Close() error {
	f, err := os.Create(t.hist)
	if err == nil {
		_, _ = t.WriteHistory(f)
		f.Close()
	}
	return t.State.Close()
}

var verbs = []string{
	"auto", "cal", "ch", "coupling", "dial", "fifty", "help",
	"mag", "nav", "png", "pos", "quit", "run", "runstop", "save",
	"select", "show", "stop", "tdiv", "trig", "vdiv", "xy",
}

func complete(line string) []string {
	var out []string
	for _, v := range verbs {
		if strings.HasPrefix(v, strings.ToLower(line)) {
			out = append(out, v)
		}
	}
	return out
}

func run(ctx context.Context, fsys afero.Fs, fname string, con console, stdout, stderr io.Writer) error {
	vals, err := config.Load(fsys, fname)
	if err != nil {
		return fmt.Errorf("could not load configuration: %w", err)
	}
	lvl, err := vals.Level()
	if err != nil {
		return err
	}
	msg := xlog.New(stderr, "dso-sim", lvl)

	dso, err := rig.Open(fsys, vals, msg)
	if err != nil {
		return err
	}
	defer dso.Close()

	var (
		scr   = display.NewScreen()
		lines = make(chan string)
	)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	grp, ctx := errgroup.WithContext(ctx)

	// the prompt blocks on its input: it is not part of the group.
	go func() {
		defer close(lines)
		for {
			line, err := con.Prompt("dso> ")
			if err != nil {
				if !errors.Is(err, io.EOF) && !errors.Is(err, liner.ErrPromptAborted) {
					msg.Error().Err(err).Msg("could not read command")
				}
				return
			}
			select {
			case lines <- line:
			case <-ctx.Done():
				return
			}
		}
	}()

	grp.Go(func() error {
		err := dso.Scope.Run(ctx, &dso.Queue, scr)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})

	grp.Go(func() error {
		defer cancel()
		sh := shell{
			fsys: fsys,
			odir: vals.Output,
			q:    &dso.Queue,
			scr:  scr,
			out:  stdout,
		}
		return sh.run(ctx, lines)
	})

	return grp.Wait()
}

type shell struct {
	fsys afero.Fs
	odir string
	q    *cmdq.Queue
	scr  *display.Screen
	out  io.Writer

	pngs int
}

func (sh *shell) run(ctx context.Context, lines <-chan string) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-lines:
			if !ok {
				return sh.flush(ctx)
			}
			quit, err := sh.exec(line)
			if err != nil {
				fmt.Fprintf(sh.out, "error: %v\n", err)
			}
			if quit {
				return sh.flush(ctx)
			}
		}
	}
}

func (sh *shell) exec(line string) (quit bool, err error) {
	args := strings.Fields(line)
	if len(args) == 0 {
		return false, nil
	}
	switch strings.ToLower(args[0]) {
	case "quit", "exit":
		return true, nil
	case "help":
		fmt.Fprintf(sh.out, "%s\n  show                          print the readouts\n  png [file]                    write the last frame as PNG\n  quit\n", cmdq.Usage)
		return false, nil
	case "show":
		top, bottom := sh.scr.Readouts()
		for _, s := range append(top, bottom...) {
			fmt.Fprintln(sh.out, s)
		}
		return false, nil
	case "png":
		name := ""
		if len(args) > 1 {
			name = args[1]
		}
		return false, sh.png(name)
	}

	cmd, err := cmdq.Parse(line)
	if err != nil {
		return false, err
	}
	sh.q.Push(cmd)
	return false, nil
}

func (sh *shell) png(name string) error {
	if name == "" {
		name = filepath.Join(sh.odir, fmt.Sprintf("dso-%03d.png", sh.pngs))
	}
	f, err := sh.fsys.Create(name)
	if err != nil {
		return fmt.Errorf("could not create frame file: %w", err)
	}
	defer f.Close()

	err = sh.scr.EncodePNG(f)
	if err != nil {
		return err
	}
	err = f.Close()
	if err != nil {
		return fmt.Errorf("could not close frame file: %w", err)
	}
	sh.pngs++
	fmt.Fprintf(sh.out, "frame written to %q\n", name)
	return nil
}

// flush waits for the scope to pick up the queued commands.
func (sh *shell) flush(ctx context.Context) error {
	tck := time.NewTicker(5 * time.Millisecond)
	defer tck.Stop()
	for sh.q.Pending() {
		select {
		case <-ctx.Done():
			return nil
		case <-tck.C:
		}
	}
	return nil
}
