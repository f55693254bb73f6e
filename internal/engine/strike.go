package engine

import "github.com/freeeve/byzantium/pkg/byzantium"

// Strike issues a strike to slot: increments its count, sends the strike
// notice, forces resync for every reason but timeout, and drops the
// connection on the third strike (spec §4.D).
func (e *Engine) Strike(slot int, reason byzantium.StrikeReason) {
	s := e.reg.Slot(slot)
	if !s.Used {
		return
	}
	s.Player.Strikes++
	e.write(slot, byzantium.EncodeStrike(s.Player.Strikes, reason))

	if reason != byzantium.Timeout && s.Parser != nil {
		s.Parser.ForceResync()
	}

	if s.Player.Strikes >= 3 {
		e.dropSlot(slot)
	}
}
