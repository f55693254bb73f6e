package engine

import "github.com/freeeve/byzantium/pkg/byzantium"

// HandleJoin canonicalizes raw and, on success, marks slot joined and
// replies with sjoin. A slot that has already joined, or a label that
// canonicalizes to nothing usable, draws a malformed strike instead.
func (e *Engine) HandleJoin(slot int, raw string) {
	s := e.reg.Slot(slot)
	if s.Joined {
		e.Strike(slot, byzantium.Malformed)
		return
	}

	name, ok := byzantium.Canonicalize(raw, e.reg.IsNameTaken)
	if !ok {
		e.Strike(slot, byzantium.Malformed)
		return
	}

	e.reg.MarkJoined(slot, name)
	e.log.Info().Int("slot", slot).Str("name", name).Msg("player joined")
	e.write(slot, byzantium.EncodeSJoin(name, e.joinedNames(), e.cfg.MinPlayers, e.cfg.LobbyTime, e.cfg.Timeout))
}

// HandleStat replies to cstat with the current sstat snapshot.
func (e *Engine) HandleStat(slot int) {
	e.write(slot, byzantium.EncodeSStat(e.statTriples()))
}
