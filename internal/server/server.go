// Package server implements the event loop (spec §4.H): it accepts TCP
// connections, reads each one's inbound bytes on its own goroutine, and
// funnels every state-touching action — accepts, reads, disconnects, and
// the periodic engine-advance tick — through one actor goroutine so the
// engine and registry are never touched concurrently (spec §5).
package server

import (
	"context"
	"net"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"

	"github.com/freeeve/byzantium/internal/engine"
	"github.com/freeeve/byzantium/internal/registry"
	"github.com/freeeve/byzantium/pkg/byzantium"
)

// readBufSize is BUF from spec §4.H: the per-read chunk size.
const readBufSize = 610

// tickInterval is how often the actor calls Engine.Advance when idle. The
// source polls with a zero timeout and never sleeps; a cooperative ticker
// gets the same "advance at least this often" guarantee without spinning
// a goroutine at 100% CPU.
const tickInterval = 50 * time.Millisecond

// Server owns the listener and the single actor goroutine that serializes
// all engine and registry mutation.
type Server struct {
	listener net.Listener
	reg      *registry.Registry
	eng      *engine.Engine
	clock    clockwork.Clock
	log      zerolog.Logger

	actions chan func()
}

// New returns a Server ready to Run.
func New(listener net.Listener, reg *registry.Registry, eng *engine.Engine, clock clockwork.Clock, log zerolog.Logger) *Server {
	return &Server{
		listener: listener,
		reg:      reg,
		eng:      eng,
		clock:    clock,
		log:      log,
		actions:  make(chan func(), 256),
	}
}

// Run accepts connections until ctx is canceled, driving the actor loop
// in the calling goroutine. It returns once ctx is done and the listener
// has been closed.
func (s *Server) Run(ctx context.Context) {
	go s.acceptLoop(ctx)

	ticker := s.clock.NewTicker(tickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.listener.Close()
			return
		case fn := <-s.actions:
			fn()
		case <-ticker.Chan():
			s.eng.Advance(s.clock.Now())
		}
	}
}

func (s *Server) acceptLoop(ctx context.Context) {
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			select {
			case <-ctx.Done():
				return
			default:
			}
			s.log.Error().Err(err).Msg("accept failed")
			continue
		}
		s.handleAccept(conn)
	}
}

// handleAccept allocates a slot for conn on the actor goroutine, or sends
// snovac and closes immediately if the registry is at capacity (spec
// §7: "Capacity exceeded on accept").
func (s *Server) handleAccept(conn net.Conn) {
	connID := uuid.NewString()
	done := make(chan struct{})
	s.actions <- func() {
		defer close(done)

		slot := s.reg.Allocate()
		if slot < 0 {
			s.log.Info().Str("connId", connID).Msg("no vacancy, rejecting connection")
			conn.Write([]byte(byzantium.EncodeSNoVac()))
			conn.Close()
			return
		}

		s.reg.Bind(slot, conn, connID)
		s.log.Info().Str("connId", connID).Int("slot", slot).Msg("connection accepted")
		go s.readLoop(slot, conn)
	}
	<-done
}

// readLoop owns the blocking Read call for one connection; every byte it
// gets is handed to the actor for parsing and dispatch, keeping the
// engine single-threaded despite concurrent readers.
func (s *Server) readLoop(slot int, conn net.Conn) {
	buf := make([]byte, readBufSize)
	for {
		n, err := conn.Read(buf)
		if n > 0 {
			data := append([]byte(nil), buf[:n]...)
			done := make(chan struct{})
			s.actions <- func() {
				s.handleData(slot, data)
				close(done)
			}
			<-done
		}
		if err != nil {
			done := make(chan struct{})
			s.actions <- func() {
				s.eng.HandleDisconnect(slot)
				close(done)
			}
			<-done
			return
		}
	}
}

// handleData filters, parses, and dispatches one read's worth of bytes in
// the exact order Feed produced them. It re-checks the slot's liveness
// between each because a strike delivered mid-batch (the third one)
// clears the slot out from under the rest of the batch.
func (s *Server) handleData(slot int, data []byte) {
	sl := s.reg.Slot(slot)
	if !sl.Used || sl.Parser == nil {
		return
	}

	results := sl.Parser.Feed(byzantium.FilterPrintable(data))

	for _, r := range results {
		if !s.reg.Slot(slot).Used {
			return
		}
		if r.Fault != nil {
			s.eng.HandleFault(slot, *r.Fault)
			continue
		}
		s.eng.Dispatch(slot, r.Event)
	}
}
