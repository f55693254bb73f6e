package engine

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/freeeve/byzantium/internal/registry"
	"github.com/freeeve/byzantium/pkg/byzantium"
)

// HandleChat routes an inbound cchat: SERVER addressed alone is a
// game-engine command (§4.E); everything else is a chat broadcast (§4.B).
func (e *Engine) HandleChat(slot int, msg byzantium.ChatMsg) {
	recipients := msg.Recipients()
	if len(recipients) == 1 && recipients[0] == "SERVER" {
		e.handleServerCommand(slot, msg.Text)
		return
	}
	e.handleBroadcastChat(slot, recipients, msg.Text)
}

// handleBroadcastChat resolves ALL/ANY/a literal recipient list against
// stored (not re-canonicalized) names, per spec §4.B's note that the raw
// token is compared literally. A duplicate or unknown recipient in a
// literal list draws exactly one malformed strike for the whole message.
func (e *Engine) handleBroadcastChat(slot int, recipients []string, text string) {
	sender := e.reg.Slot(slot)
	out := byzantium.EncodeSChat(sender.Player.Name, byzantium.SanitizeChatText(text))

	switch {
	case len(recipients) == 1 && recipients[0] == "ALL":
		e.broadcastJoined(out)
		return
	case len(recipients) == 1 && recipients[0] == "ANY":
		if target := e.pickAny(slot); target >= 0 {
			e.write(target, out)
		}
		return
	}

	e.reg.EachJoined(func(i int, s *registry.Slot) { s.Player.Sent = false })
	issue := false
	for _, name := range recipients {
		idx := e.reg.FindByName(name)
		if idx < 0 {
			issue = true
			continue
		}
		s := e.reg.Slot(idx)
		if s.Player.Sent {
			issue = true
			continue
		}
		s.Player.Sent = true
		e.write(idx, out)
	}
	if issue {
		e.Strike(slot, byzantium.Malformed)
	}
}

// pickAny resolves the ANY recipient: the other joined slot when exactly
// two are joined, else a uniformly random joined slot other than sender.
func (e *Engine) pickAny(sender int) int {
	var others []int
	e.reg.EachJoined(func(i int, s *registry.Slot) {
		if i != sender {
			others = append(others, i)
		}
	})
	if len(others) == 0 {
		return -1
	}
	if e.reg.NumJoined() == 2 {
		return others[0]
	}
	return others[e.rng.Intn(len(others))]
}

// handleServerCommand decodes the comma-separated command text carried by
// a cchat(SERVER)(...) message and dispatches it to the current phase.
func (e *Engine) handleServerCommand(slot int, text string) {
	fields := strings.Split(text, ",")
	if len(fields) < 2 {
		e.Strike(slot, byzantium.Malformed)
		return
	}

	round, badint, malformed := parseRound(fields[1])
	if malformed {
		e.Strike(slot, byzantium.Malformed)
		return
	}
	if badint {
		e.Strike(slot, byzantium.BadInt)
		return
	}

	switch fields[0] {
	case "PLAN":
		e.handlePlanReply(slot, round, fields[2:])
	case "ACCEPT":
		e.handleOfferReply(slot, round, fields[2:], true)
	case "DECLINE":
		e.handleOfferReply(slot, round, fields[2:], false)
	case "ACTION":
		e.handleActionReply(slot, round, fields[2:])
	default:
		e.Strike(slot, byzantium.Malformed)
	}
}

// parseRound parses a round-number field. malformed means the field isn't
// a non-negative integer at all; badint means it parsed but exceeds 99999.
func parseRound(s string) (n int, badint, malformed bool) {
	v, err := strconv.Atoi(s)
	if err != nil || v < 0 {
		return 0, false, true
	}
	if v > 99999 {
		return v, true, false
	}
	return v, false, false
}

func (e *Engine) handlePlanReply(slot, round int, rest []string) {
	if e.phase != PhasePlan || slot != e.waitingFor {
		e.Strike(slot, byzantium.Malformed)
		return
	}
	if round != e.roundNum {
		e.Strike(slot, byzantium.Malformed)
		e.advancePlanCursor(e.clock.Now())
		return
	}

	switch {
	case len(rest) == 1 && rest[0] == "PASS":
		e.advancePlanCursor(e.clock.Now())

	case len(rest) == 3 && rest[0] == "APPROACH":
		allyIdx := e.reg.FindByName(rest[1])
		targetIdx := e.reg.FindByName(rest[2])
		if allyIdx < 0 || targetIdx < 0 {
			e.Strike(slot, byzantium.Malformed)
			e.advancePlanCursor(e.clock.Now())
			return
		}
		if allyIdx != slot {
			e.offerGrid[allyIdx][slot] = byzantium.OfferCell{Used: true, Target: targetIdx}
			e.reg.Slot(allyIdx).Player.Offers++
		}
		e.advancePlanCursor(e.clock.Now())

	default:
		e.Strike(slot, byzantium.Malformed)
		e.advancePlanCursor(e.clock.Now())
	}
}

func (e *Engine) handleOfferReply(slot, round int, rest []string, accept bool) {
	if e.phase != PhaseOffer || slot != e.waitingFor {
		e.Strike(slot, byzantium.Malformed)
		return
	}
	if round != e.roundNum || len(rest) != 1 {
		e.Strike(slot, byzantium.Malformed)
		e.advanceOfferProposer(e.clock.Now())
		return
	}

	proposerIdx := e.reg.FindByName(rest[0])
	if proposerIdx < 0 || proposerIdx != e.responseTo {
		e.Strike(slot, byzantium.Malformed)
		e.advanceOfferProposer(e.clock.Now())
		return
	}

	ally := slot
	cell := e.offerGrid[ally][proposerIdx]
	allyName := e.reg.Slot(ally).Player.Name
	if accept {
		if cell.Used {
			e.attackGrid[ally][cell.Target] = true
		}
		e.write(proposerIdx, byzantium.EncodeSChat("SERVER", fmt.Sprintf("ACCEPT,%d,%s", e.roundNum, allyName)))
	} else {
		e.write(proposerIdx, byzantium.EncodeSChat("SERVER", fmt.Sprintf("DECLINE,%d,%s", e.roundNum, allyName)))
	}
	e.advanceOfferProposer(e.clock.Now())
}

func (e *Engine) handleActionReply(slot, round int, rest []string) {
	if e.phase != PhaseAction || slot != e.waitingFor {
		e.Strike(slot, byzantium.Malformed)
		return
	}
	if round != e.roundNum {
		e.Strike(slot, byzantium.Malformed)
		e.advanceActionCursor(e.clock.Now())
		return
	}

	switch {
	case len(rest) == 1 && rest[0] == "PASS":
		e.advanceActionCursor(e.clock.Now())

	case len(rest) == 2 && rest[0] == "ATTACK":
		targetIdx := e.reg.FindByName(rest[1])
		if targetIdx < 0 || e.reg.Slot(targetIdx).Player.Playing != byzantium.Alive {
			e.Strike(slot, byzantium.Malformed)
			e.advanceActionCursor(e.clock.Now())
			return
		}
		if targetIdx != slot {
			e.attackGrid[slot][targetIdx] = true
		}
		e.advanceActionCursor(e.clock.Now())

	default:
		e.Strike(slot, byzantium.Malformed)
		e.advanceActionCursor(e.clock.Now())
	}
}
