// Copyright 2026 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Command dso-view displays the oscilloscope screen in a desktop window.
//
// Keys:
//
//	space           run/stop
//	a               auto-setup
//	c               calibrate
//	s               save settings
//	x               X-Y mode
//	f               50% trigger level
//	t, shift+t      faster, slower time base
//	1, shift+1      more, less sensitive channel 1
//	2, shift+2      more, less sensitive channel 2
//	arrows, enter   navigation
//	mouse wheel     navigation dial
//	p               write the screen as PNG
//	q, escape       quit
package main // import "github.com/go-lpc/dso/cmd/dso-view"

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"image"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/rs/zerolog"
	"github.com/spf13/afero"
	"golang.org/x/sync/errgroup"

	"github.com/go-lpc/dso/config"
	"github.com/go-lpc/dso/display"
	"github.com/go-lpc/dso/internal/cmdq"
	"github.com/go-lpc/dso/internal/rig"
	"github.com/go-lpc/dso/internal/xlog"
	"github.com/go-lpc/dso/scope"
)

func main() {
	log.SetPrefix("dso-view: ")
	log.SetFlags(0)

	var (
		fname = flag.String("cfg", "dso.toml", "path to the TOML configuration file")
		scale = flag.Int("scale", 1, "window scale factor")
	)

	flag.Parse()

	fsys := afero.NewOsFs()
	vals, err := config.Load(fsys, *fname)
	if err != nil {
		log.Fatalf("could not load configuration: %+v", err)
	}
	lvl, err := vals.Level()
	if err != nil {
		log.Fatalf("%+v", err)
	}
	msg := xlog.New(os.Stderr, "dso-view", lvl)

	ebiten.SetWindowTitle("dso-view")
	ebiten.SetWindowSize(*scale*display.Width, *scale*display.Height)
	ebiten.SetTPS(30)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	err = run(ctx, fsys, vals, msg)
	if err != nil {
		log.Fatalf("%+v", err)
	}
}

func run(ctx context.Context, fsys afero.Fs, vals config.Values, msg zerolog.Logger) error {
	dso, err := rig.Open(fsys, vals, msg)
	if err != nil {
		return err
	}
	defer dso.Close()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		grp  errgroup.Group
		done = make(chan struct{})
		view = newViewer(&dso.Queue, done, msg)
	)
	view.save = func() error {
		name := filepath.Join(vals.Output, "dso-"+time.Now().UTC().Format("20060102-150405.000")+".png")
		return writePNG(fsys, name, view.scr)
	}

	grp.Go(func() error {
		defer close(done)
		err := dso.Scope.Run(ctx, &dso.Queue, view.scr)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})

	// the window must run on the main goroutine.
	err = ebiten.RunGame(view)
	cancel()

	if e := grp.Wait(); e != nil {
		return e
	}
	if err != nil {
		return fmt.Errorf("could not run window: %w", err)
	}
	return nil
}

func writePNG(fsys afero.Fs, name string, scr *display.Screen) error {
	f, err := fsys.Create(name)
	if err != nil {
		return fmt.Errorf("could not create frame file: %w", err)
	}
	defer f.Close()

	err = scr.EncodePNG(f)
	if err != nil {
		return err
	}
	return f.Close()
}

type binding struct {
	key   ebiten.Key
	shift bool
	cmd   scope.Command
}

var bindings = []binding{
	{key: ebiten.KeySpace, cmd: scope.Command{Code: scope.CmdRunStop}},
	{key: ebiten.KeyA, cmd: scope.Command{Code: scope.CmdAutoSetup}},
	{key: ebiten.KeyC, cmd: scope.Command{Code: scope.CmdCalibrate}},
	{key: ebiten.KeyS, cmd: scope.Command{Code: scope.CmdSave}},
	{key: ebiten.KeyX, cmd: scope.Command{Code: scope.CmdXY}},
	{key: ebiten.KeyF, cmd: scope.Command{Code: scope.CmdFifty}},
	{key: ebiten.KeyT, cmd: scope.Command{Code: scope.CmdTimePerDiv, Arg: +1}},
	{key: ebiten.KeyT, shift: true, cmd: scope.Command{Code: scope.CmdTimePerDiv, Arg: -1}},
	{key: ebiten.Key1, cmd: scope.Command{Code: scope.CmdVoltPerDiv, Ch: 0, Arg: +1}},
	{key: ebiten.Key1, shift: true, cmd: scope.Command{Code: scope.CmdVoltPerDiv, Ch: 0, Arg: -1}},
	{key: ebiten.Key2, cmd: scope.Command{Code: scope.CmdVoltPerDiv, Ch: 1, Arg: +1}},
	{key: ebiten.Key2, shift: true, cmd: scope.Command{Code: scope.CmdVoltPerDiv, Ch: 1, Arg: -1}},
	{key: ebiten.KeyArrowLeft, cmd: scope.Command{Code: scope.CmdNav, Nav: scope.Left}},
	{key: ebiten.KeyArrowRight, cmd: scope.Command{Code: scope.CmdNav, Nav: scope.Right}},
	{key: ebiten.KeyArrowUp, cmd: scope.Command{Code: scope.CmdNav, Nav: scope.Up}},
	{key: ebiten.KeyArrowDown, cmd: scope.Command{Code: scope.CmdNav, Nav: scope.Down}},
	{key: ebiten.KeyEnter, cmd: scope.Command{Code: scope.CmdNav, Nav: scope.OK}},
}

// commands returns the commands bound to the keys pressed during the
// last tick, in binding order.
func commands(pressed func(ebiten.Key) bool, shift bool, wheel float64) []scope.Command {
	var out []scope.Command
	for _, b := range bindings {
		if b.shift == shift && pressed(b.key) {
			out = append(out, b.cmd)
		}
	}
	if n := int(wheel); n != 0 {
		out = append(out, scope.Command{Code: scope.CmdNav, Nav: scope.Dial, Arg: n})
	}
	return out
}

type viewer struct {
	q    *cmdq.Queue
	done <-chan struct{}
	msg  zerolog.Logger
	save func() error

	scr *display.Screen
	img *image.RGBA
	fb  *ebiten.Image
}

func newViewer(q *cmdq.Queue, done <-chan struct{}, msg zerolog.Logger) *viewer {
	return &viewer{
		q:    q,
		done: done,
		msg:  msg,
		scr:  display.NewScreen(),
		img:  image.NewRGBA(image.Rect(0, 0, display.Width, display.Height)),
	}
}

func (v *viewer) Update() error {
	select {
	case <-v.done:
		return ebiten.Termination
	default:
	}

	if inpututil.IsKeyJustPressed(ebiten.KeyQ) || inpututil.IsKeyJustPressed(ebiten.KeyEscape) {
		return ebiten.Termination
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyP) && v.save != nil {
		if err := v.save(); err != nil {
			v.msg.Error().Err(err).Msg("could not save screen")
		}
	}

	shift := ebiten.IsKeyPressed(ebiten.KeyShiftLeft) || ebiten.IsKeyPressed(ebiten.KeyShiftRight)
	_, wheel := ebiten.Wheel()
	v.q.Push(commands(inpututil.IsKeyJustPressed, shift, wheel)...)
	return nil
}

func (v *viewer) Draw(screen *ebiten.Image) {
	if v.fb == nil {
		v.fb = ebiten.NewImage(display.Width, display.Height)
	}
	v.scr.CopyTo(v.img)
	v.fb.WritePixels(v.img.Pix)
	screen.DrawImage(v.fb, nil)
}

func (v *viewer) Layout(outsideWidth, outsideHeight int) (int, int) {
	return display.Width, display.Height
}
