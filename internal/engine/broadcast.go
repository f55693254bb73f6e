package engine

import (
	"github.com/freeeve/byzantium/internal/registry"
	"github.com/freeeve/byzantium/pkg/byzantium"
)

// write attempts a single blocking write to slot's connection. A failed
// write is handled exactly like a peer close: the slot is dropped and, if
// it had joined, a fresh sstat goes out to the survivors (spec §4.G).
func (e *Engine) write(slot int, msg string) {
	s := e.reg.Slot(slot)
	if !s.Used || s.Conn == nil {
		return
	}
	if _, err := s.Conn.Write([]byte(msg)); err != nil {
		e.log.Debug().Err(err).Int("slot", slot).Msg("write failed, dropping connection")
		e.dropSlot(slot)
	}
}

func (e *Engine) broadcastJoined(msg string) {
	e.reg.EachJoined(func(i int, s *registry.Slot) { e.write(i, msg) })
}

func (e *Engine) broadcastSstat() {
	e.broadcastJoined(byzantium.EncodeSStat(e.statTriples()))
}

// HandleDisconnect clears slot after its connection closed, broadcasting a
// fresh sstat to the survivors if it had joined.
func (e *Engine) HandleDisconnect(slot int) {
	e.dropSlot(slot)
}

func (e *Engine) dropSlot(slot int) {
	s := e.reg.Slot(slot)
	if !s.Used {
		return
	}
	wasJoined := s.Joined
	if s.Conn != nil {
		s.Conn.Close()
	}
	e.reg.Clear(slot)
	if wasJoined {
		e.broadcastSstat()
	}
}
