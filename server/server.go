// Package server wires transport, wire and engine together into the
// tecnicofs request-handling loop. Its worker-pool shape follows
// fuse.Server's loop/loops pattern (fuse/server.go): a fixed set of
// goroutines pulling requests off one source until told to stop, with
// debug tracing gated by a single bool, generalized here to carry
// errors through an errgroup instead of silently logging and exiting.
package server

import (
	"context"
	"fmt"
	"net"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/tecnicofs/tecnicofs/engine"
	"github.com/tecnicofs/tecnicofs/internal/sink"
	"github.com/tecnicofs/tecnicofs/transport"
	"github.com/tecnicofs/tecnicofs/wire"
)

// Counters holds per-opcode outcome tallies, read with Snapshot.
type Counters struct {
	created, creatFailed   atomic.Int64
	deleted, deleteFailed  atomic.Int64
	looked, lookupFailed   atomic.Int64
	moved, moveFailed      atomic.Int64
	printed, printFailed   atomic.Int64
	malformed              atomic.Int64
}

// Snapshot is a point-in-time copy of Counters for logging/inspection.
type Snapshot struct {
	Created, CreateFailed int64
	Deleted, DeleteFailed int64
	Looked, LookupFailed  int64
	Moved, MoveFailed     int64
	Printed, PrintFailed  int64
	Malformed             int64
}

// Snapshot reads every counter. Individual loads are not mutually
// atomic with each other, matching the read semantics of a debug
// dashboard rather than a transactional report.
func (c *Counters) Snapshot() Snapshot {
	return Snapshot{
		Created:      c.created.Load(),
		CreateFailed: c.creatFailed.Load(),
		Deleted:      c.deleted.Load(),
		DeleteFailed: c.deleteFailed.Load(),
		Looked:       c.looked.Load(),
		LookupFailed: c.lookupFailed.Load(),
		Moved:        c.moved.Load(),
		MoveFailed:   c.moveFailed.Load(),
		Printed:      c.printed.Load(),
		PrintFailed:  c.printFailed.Load(),
		Malformed:    c.malformed.Load(),
	}
}

// Server binds a transport.Socket to an engine.Engine through the wire
// codec and dispatches requests across a fixed worker pool.
type Server struct {
	sock    *transport.Socket
	engine  *engine.Engine
	opt     engine.Options
	Debug   bool
	Workers int

	// Logger receives, only when Debug is set, the serve/stop lines and
	// per-request tracing. Defaults to a no-op logger so a Server built
	// without one stays silent rather than panicking on first use.
	Logger engine.Logger

	counters Counters
}

// New builds a Server. Workers defaults to 1 if non-positive. Logger
// defaults to engine.NewNopLogger(); set the Logger field to route
// tracing elsewhere.
func New(sock *transport.Socket, eng *engine.Engine, opt engine.Options, workers int) *Server {
	if workers <= 0 {
		workers = 1
	}
	return &Server{sock: sock, engine: eng, opt: opt, Workers: workers, Logger: engine.NewNopLogger()}
}

// Counters exposes the live counter set (e.g. for a status endpoint).
func (s *Server) Counters() *Counters { return &s.counters }

// Serve runs the worker pool until ctx is canceled or a worker returns
// a fatal error. It mirrors fuse.Server.Serve's "wait for event loops
// to exit" shape, but over an errgroup so a genuine socket failure
// propagates instead of being swallowed.
func (s *Server) Serve(ctx context.Context) error {
	if s.Debug {
		s.Logger.Printf("tecnicofs: serving on %s with %d workers", s.sock.LocalAddr(), s.Workers)
	}

	g, ctx := errgroup.WithContext(ctx)
	for i := 0; i < s.Workers; i++ {
		g.Go(func() error { return s.loop(ctx) })
	}

	<-ctx.Done()
	s.sock.Close()
	err := g.Wait()

	if s.Debug {
		s.Logger.Printf("tecnicofs: stopped, counters=%+v", s.counters.Snapshot())
	}
	if err != nil && ctx.Err() != nil && err == ctx.Err() {
		return nil
	}
	return err
}

func (s *Server) loop(ctx context.Context) error {
	buf := make([]byte, transport.MaxDatagramSize())
	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		n, from, err := s.sock.Receive(buf)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("server: receive: %w", err)
		}
		s.handle(buf[:n], from)
	}
}

func (s *Server) handle(line []byte, from net.Addr) {
	cmd, err := wire.Parse(string(line), s.opt.MaxFileName)
	if err != nil {
		s.counters.malformed.Add(1)
		if s.Debug {
			s.Logger.Printf("tecnicofs: malformed request from %s: %v", from, err)
		}
		s.reply(-1, from)
		return
	}
	if s.Debug {
		s.Logger.Printf("tecnicofs: %s <- %s", from, cmd)
	}

	code := s.dispatch(cmd)
	s.reply(code, from)
}

func (s *Server) dispatch(cmd wire.Command) int32 {
	switch cmd.Op {
	case wire.OpCreate:
		kind := engine.KindFile
		if cmd.Kind == wire.NodeDir {
			kind = engine.KindDir
		}
		if err := s.engine.Create(cmd.Path, kind); err != nil {
			s.counters.creatFailed.Add(1)
			return -1
		}
		s.counters.created.Add(1)
		return 0

	case wire.OpDelete:
		if err := s.engine.Delete(cmd.Path); err != nil {
			s.counters.deleteFailed.Add(1)
			return -1
		}
		s.counters.deleted.Add(1)
		return 0

	case wire.OpLookup:
		inumber, err := s.engine.Lookup(cmd.Path)
		if err != nil {
			s.counters.lookupFailed.Add(1)
			return -1
		}
		s.counters.looked.Add(1)
		return int32(inumber)

	case wire.OpMove:
		if err := s.engine.Move(cmd.Path, cmd.NewPath); err != nil {
			s.counters.moveFailed.Add(1)
			return -1
		}
		s.counters.moved.Add(1)
		return 0

	case wire.OpPrint:
		if err := s.printTo(cmd.Path); err != nil {
			s.counters.printFailed.Add(1)
			if s.Debug {
				s.Logger.Printf("tecnicofs: print %s: %v", cmd.Path, err)
			}
			return -1
		}
		s.counters.printed.Add(1)
		return 0

	default:
		s.counters.malformed.Add(1)
		return -1
	}
}

func (s *Server) printTo(outPath string) error {
	if s.Debug {
		s.Logger.Printf("tecnicofs: print destination %s: %s", outPath, sink.Describe(outPath))
	}
	f, err := sink.Create(outPath)
	if err != nil {
		return err
	}
	defer f.Close()
	return s.engine.PrintTree(f)
}

func (s *Server) reply(code int32, to net.Addr) {
	if err := s.sock.Reply(wire.EncodeResponse(code), to); err != nil && s.Debug {
		s.Logger.Printf("tecnicofs: reply to %s: %v", to, err)
	}
}
