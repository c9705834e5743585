// Copyright 2026 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package daq exposes the oscilloscope as a TDAQ process.
//
// Commands:
//   - /config: list of textual commands replayed at /init,
//   - /init: opens the instrument and applies the /config commands,
//   - /start, /stop: run control,
//   - /cmd: one textual command, applied on the fly,
//   - /reset, /quit: release the instrument.
//
// Rendered frames are published on the /trace output.
package daq // import "github.com/go-lpc/dso/daq"

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/go-daq/tdaq"
	"github.com/rs/zerolog"
	"github.com/spf13/afero"

	"github.com/go-lpc/dso/config"
	"github.com/go-lpc/dso/display"
	"github.com/go-lpc/dso/internal/cmdq"
	"github.com/go-lpc/dso/internal/rig"
	"github.com/go-lpc/dso/scope"
)

const queueSize = 64

var errNotInitialized = errors.New("daq: instrument not initialized")

type Server struct {
	fsys afero.Fs
	vals config.Values
	msg  zerolog.Logger

	mu  sync.Mutex
	dso *rig.Rig
	cfg []scope.Command

	seq   uint32
	drops int
	data  chan []byte
}

var _ scope.Sink = (*Server)(nil)

func New(fsys afero.Fs, vals config.Values, msg zerolog.Logger) *Server {
	return &Server{
		fsys: fsys,
		vals: vals,
		msg:  msg,
		data: make(chan []byte, queueSize),
	}
}

func (srv *Server) OnConfig(ctx tdaq.Context, resp *tdaq.Frame, req tdaq.Frame) error {
	ctx.Msg.Debugf("received /config command...")
	err := srv.configure(req.Body)
	if err != nil {
		ctx.Msg.Errorf("could not configure: %+v", err)
		return err
	}
	return nil
}

func (srv *Server) OnInit(ctx tdaq.Context, resp *tdaq.Frame, req tdaq.Frame) error {
	ctx.Msg.Debugf("received /init command...")
	err := srv.init()
	if err != nil {
		ctx.Msg.Errorf("could not initialize: %+v", err)
		return err
	}
	return nil
}

func (srv *Server) OnReset(ctx tdaq.Context, resp *tdaq.Frame, req tdaq.Frame) error {
	ctx.Msg.Debugf("received /reset command...")
	return srv.close()
}

func (srv *Server) OnStart(ctx tdaq.Context, resp *tdaq.Frame, req tdaq.Frame) error {
	ctx.Msg.Debugf("received /start command...")
	return srv.push(scope.Command{Code: scope.CmdRun})
}

func (srv *Server) OnStop(ctx tdaq.Context, resp *tdaq.Frame, req tdaq.Frame) error {
	srv.mu.Lock()
	n, drops := srv.seq, srv.drops
	srv.mu.Unlock()
	ctx.Msg.Debugf("received /stop command... -> frames=%d, dropped=%d", n, drops)
	return srv.push(scope.Command{Code: scope.CmdStop})
}

func (srv *Server) OnQuit(ctx tdaq.Context, resp *tdaq.Frame, req tdaq.Frame) error {
	ctx.Msg.Debugf("received /quit command...")
	return srv.close()
}

// OnCmd applies the textual command carried by the request.
func (srv *Server) OnCmd(ctx tdaq.Context, resp *tdaq.Frame, req tdaq.Frame) error {
	dec := tdaq.NewDecoder(bytes.NewReader(req.Body))
	line := dec.ReadStr()
	if err := dec.Err(); err != nil {
		return fmt.Errorf("daq: could not decode command: %w", err)
	}
	ctx.Msg.Debugf("received /cmd command %q...", line)

	cmd, err := cmdq.Parse(line)
	if err != nil {
		return err
	}
	return srv.push(cmd)
}

// Trace publishes the rendered frames.
func (srv *Server) Trace(ctx tdaq.Context, dst *tdaq.Frame) error {
	select {
	case <-ctx.Ctx.Done():
		dst.Body = nil
	case data := <-srv.data:
		dst.Body = data
	}
	return nil
}

// Run runs the scheduler loop of the instrument until the run is stopped.
func (srv *Server) Run(ctx tdaq.Context) error {
	return srv.run(ctx.Ctx)
}

func (srv *Server) run(ctx context.Context) error {
	srv.mu.Lock()
	dso := srv.dso
	srv.seq, srv.drops = 0, 0
	srv.mu.Unlock()

	if dso == nil {
		return errNotInitialized
	}

	err := dso.Scope.Run(ctx, &dso.Queue, srv)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// Show encodes a frame and queues it for the trace output.
// Frames are dropped when the output lags behind.
func (srv *Server) Show(frm *scope.Frame, set *scope.Settings) error {
	srv.mu.Lock()
	defer srv.mu.Unlock()

	top, bottom := display.Readouts(set)
	raw, err := encodeFrame(srv.seq, strings.Join(append(top, bottom...), "\n"), frm)
	if err != nil {
		return err
	}
	srv.seq++

	select {
	case srv.data <- raw:
	default:
		srv.drops++
	}
	return nil
}

// configure decodes a list of textual commands:
//
//	u32 n
//	str command (n times)
func (srv *Server) configure(body []byte) error {
	var cmds []scope.Command
	if len(body) > 0 {
		dec := tdaq.NewDecoder(bytes.NewReader(body))
		n := int(dec.ReadU32())
		for i := 0; i < n; i++ {
			line := dec.ReadStr()
			if err := dec.Err(); err != nil {
				return fmt.Errorf("daq: could not decode configuration command %d: %w", i, err)
			}
			cmd, err := cmdq.Parse(line)
			if err != nil {
				return fmt.Errorf("daq: invalid configuration command %d: %w", i, err)
			}
			cmds = append(cmds, cmd)
		}
		if err := dec.Err(); err != nil {
			return fmt.Errorf("daq: could not decode configuration: %w", err)
		}
	}

	srv.mu.Lock()
	defer srv.mu.Unlock()
	srv.cfg = cmds
	return nil
}

// EncodeConfig encodes textual commands into a /config request body.
func EncodeConfig(lines ...string) ([]byte, error) {
	buf := new(bytes.Buffer)
	enc := tdaq.NewEncoder(buf)
	enc.WriteU32(uint32(len(lines)))
	for _, line := range lines {
		enc.WriteStr(line)
	}
	if err := enc.Err(); err != nil {
		return nil, fmt.Errorf("daq: could not encode configuration: %w", err)
	}
	return buf.Bytes(), nil
}

// EncodeCmd encodes a textual command into a /cmd request body.
func EncodeCmd(line string) ([]byte, error) {
	buf := new(bytes.Buffer)
	enc := tdaq.NewEncoder(buf)
	enc.WriteStr(line)
	if err := enc.Err(); err != nil {
		return nil, fmt.Errorf("daq: could not encode command: %w", err)
	}
	return buf.Bytes(), nil
}

func (srv *Server) init() error {
	srv.mu.Lock()
	defer srv.mu.Unlock()

	if srv.dso == nil {
		dso, err := rig.Open(srv.fsys, srv.vals, srv.msg)
		if err != nil {
			return fmt.Errorf("daq: could not open instrument: %w", err)
		}
		srv.dso = dso
	}
	srv.dso.Queue.Push(srv.cfg...)
	return nil
}

func (srv *Server) push(cmd scope.Command) error {
	srv.mu.Lock()
	defer srv.mu.Unlock()
	if srv.dso == nil {
		return errNotInitialized
	}
	srv.dso.Queue.Push(cmd)
	return nil
}

func (srv *Server) close() error {
	srv.mu.Lock()
	defer srv.mu.Unlock()

	for len(srv.data) > 0 {
		<-srv.data
	}
	if srv.dso == nil {
		return nil
	}
	err := srv.dso.Close()
	srv.dso = nil
	return err
}
