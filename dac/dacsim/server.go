// Copyright 2026 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package dacsim

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"log"
	"net"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/go-lpc/adda/dac"
	"github.com/go-lpc/adda/dac/internal/wire"
	"github.com/go-lpc/adda/instr"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"
)

// Info describes the emulated board, as returned to info requests.
const Info = "dacsim: emulated USTC DAC board"

// Server serves an emulated board over the DAC TCP control protocol.
type Server struct {
	ctl net.Listener
	msg *log.Logger
	brd *Board
	met *metrics

	grp   errgroup.Group
	mu    sync.Mutex
	conns map[net.Conn]struct{}
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the logger of the server.
func WithLogger(msg *log.Logger) Option {
	return func(srv *Server) {
		srv.msg = msg
	}
}

// WithRegisterer registers the server metrics with reg.
func WithRegisterer(reg prometheus.Registerer) Option {
	return func(srv *Server) {
		srv.met = newMetrics(reg)
	}
}

// Serve serves brd on the TCP address addr.
func Serve(addr string, brd *Board, opts ...Option) error {
	srv, err := NewServer(addr, brd, opts...)
	if err != nil {
		return err
	}
	return srv.Serve()
}

// NewServer creates a server listening on the TCP address addr.
func NewServer(addr string, brd *Board, opts ...Option) (*Server, error) {
	ctl, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("dacsim: could not listen on %q: %w", addr, err)
	}

	srv := &Server{
		ctl:   ctl,
		msg:   log.New(os.Stdout, "dacsim: ", 0),
		brd:   brd,
		conns: make(map[net.Conn]struct{}),
	}
	for _, opt := range opts {
		opt(srv)
	}
	if srv.met == nil {
		srv.met = newMetrics(nil)
	}
	return srv, nil
}

// Addr returns the listening address of the server.
func (srv *Server) Addr() net.Addr { return srv.ctl.Addr() }

// Serve accepts and serves connections until the server is closed.
func (srv *Server) Serve() error {
	defer srv.ctl.Close()

	for {
		conn, err := srv.ctl.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				break
			}
			_ = srv.Close()
			_ = srv.grp.Wait()
			return fmt.Errorf("dacsim: could not accept connection: %w", err)
		}

		srv.track(conn, true)
		srv.grp.Go(func() error {
			defer srv.track(conn, false)
			err := srv.handle(conn)
			if err != nil {
				srv.msg.Printf("could not serve %v: %+v", conn.RemoteAddr(), err)
			}
			return nil
		})
	}

	return srv.grp.Wait()
}

// Close stops the server and closes all its connections.
func (srv *Server) Close() error {
	err := srv.ctl.Close()
	if errors.Is(err, net.ErrClosed) {
		err = nil
	}

	srv.mu.Lock()
	defer srv.mu.Unlock()
	for conn := range srv.conns {
		_ = conn.Close()
	}
	return err
}

func (srv *Server) track(conn net.Conn, add bool) {
	srv.mu.Lock()
	defer srv.mu.Unlock()
	switch {
	case add:
		srv.conns[conn] = struct{}{}
		srv.met.conns.Inc()
	default:
		delete(srv.conns, conn)
		srv.met.conns.Dec()
	}
}

func (srv *Server) handle(conn net.Conn) error {
	defer conn.Close()
	srv.msg.Printf("serving %v...", conn.RemoteAddr())
	defer srv.msg.Printf("serving %v... [done]", conn.RemoteAddr())

	var (
		dec    = wire.NewDecoder(bufio.NewReader(conn))
		enc    = wire.NewEncoder(conn)
		opened = false
	)

	for {
		var req wire.Request
		err := dec.DecodeRequest(&req)
		if err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, net.ErrClosed) {
				return nil
			}
			// the stream can not be resynchronized after a bad frame.
			srv.met.errors.WithLabelValues(strconv.Itoa(int(dac.StatusBadFrame))).Inc()
			_ = enc.EncodeReply(wire.Reply{Status: int32(dac.StatusBadFrame)})
			return fmt.Errorf("dacsim: could not decode request: %w", err)
		}
		srv.met.requests.WithLabelValues(req.Kind.String()).Inc()

		rep := srv.dispatch(req, opened)
		if rep.Status != 0 {
			srv.met.errors.WithLabelValues(strconv.Itoa(int(rep.Status))).Inc()
		}
		if req.Kind == wire.KindOpen && rep.Status == 0 {
			opened = true
		}

		err = enc.EncodeReply(rep)
		if err != nil {
			return fmt.Errorf("dacsim: could not send %v reply: %w", req.Kind, err)
		}

		if req.Kind == wire.KindClose {
			return nil
		}
	}
}

func (srv *Server) dispatch(req wire.Request, opened bool) wire.Reply {
	rep := wire.Reply{Kind: req.Kind}

	switch req.Kind {
	case wire.KindOpen, wire.KindInfo:
	default:
		if !opened {
			rep.Status = int32(dac.StatusNotOpen)
			return rep
		}
	}

	var err error
	switch req.Kind {
	case wire.KindOpen, wire.KindClose:
		// ok.

	case wire.KindInfo:
		rep.Payload = []byte(Info)

	case wire.KindWriteInstruction:
		err = srv.brd.WriteInstruction(req.Code, req.P1, req.P2)

	case wire.KindWriteMemory:
		if int(req.P2) != len(req.Payload) {
			err = dac.StatusBadFrame
			break
		}
		err = srv.brd.WriteMemory(req.Code, req.P1, req.Payload)
		if err == nil {
			srv.met.bytes.WithLabelValues("write").Add(float64(len(req.Payload)))
		}

	case wire.KindReadMemory:
		err = srv.brd.ReadMemory(req.Code, req.P1, req.P2)
		if err == nil {
			srv.met.bytes.WithLabelValues("read").Add(float64(req.P2))
		}

	case wire.KindFunctionType:
		var cmd dac.Command
		cmd, err = srv.brd.Instruction(int(req.P1))
		if err != nil {
			break
		}
		rep.State = int32(cmd.Func)
		rep.Data = cmd.Code
		rep.Payload = make([]byte, 8)
		binary.BigEndian.PutUint32(rep.Payload[0:], cmd.Para1)
		binary.BigEndian.PutUint32(rep.Payload[4:], cmd.Para2)

	case wire.KindReturn:
		var res dac.Result
		res, err = srv.brd.Return(int(req.P1), int(req.P2))
		if err != nil {
			break
		}
		rep.State = res.State
		rep.Data = res.Data
		rep.Payload = res.Payload

	case wire.KindCheckFinished:
		if srv.brd.CheckFinished() {
			rep.Data = 1
		}

	case wire.KindWaitFinished:
		err = srv.brd.WaitUntilFinished(time.Duration(req.P1) * time.Millisecond)

	case wire.KindCheckSucceeded:
		ok, pos := srv.brd.CheckSucceeded()
		if ok {
			rep.Data = 1
		}
		rep.State = int32(pos)

	case wire.KindSetTimeout:
		switch dac.Direction(req.P1) {
		case dac.Send, dac.Recv:
		default:
			err = dac.StatusBadFrame
		}

	default:
		srv.msg.Printf("unknown request kind %v", req.Kind)
		err = dac.StatusBadFrame
	}

	if err != nil {
		rep.Status = status(err)
		rep.State = 0
		rep.Data = 0
		rep.Payload = nil
	}
	return rep
}

func status(err error) int32 {
	var st instr.Status
	if errors.As(err, &st) {
		return int32(st)
	}
	return int32(dac.StatusBadFrame)
}
