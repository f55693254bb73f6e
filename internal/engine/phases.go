package engine

import (
	"fmt"
	"time"

	"github.com/freeeve/byzantium/internal/registry"
	"github.com/freeeve/byzantium/pkg/byzantium"
)

// advanceLobby arms the lobby countdown once enough players have joined,
// and transitions to Plan once it expires (spec §4.E Phase 0).
func (e *Engine) advanceLobby(now time.Time) {
	if e.reg.NumJoined() < e.cfg.MinPlayers {
		e.lobbyTimerSet = false
		return
	}
	if !e.lobbyTimerSet {
		e.lobbyTimerSet = true
		e.lobbyTimerStart = now
		return
	}
	if now.Sub(e.lobbyTimerStart) >= time.Duration(e.cfg.LobbyTime)*time.Second {
		e.lobbyTimerSet = false
		e.reg.EachJoined(func(i int, s *registry.Slot) {
			s.Player.Playing = byzantium.Alive
			s.Player.Troops = e.cfg.StartingForce
		})
		e.roundNum = 1
		e.beginPlanPhase(now)
	}
}

// beginPlanPhase enters Plan at the start of a game or a new round.
func (e *Engine) beginPlanPhase(now time.Time) {
	e.phase = PhasePlan
	e.waitingFor = -1
	e.timerSet = false
	e.advancePlanCursor(now)
}

// advancePlanCursor moves waitingFor to the next Alive slot in ascending
// index order, or transitions to Offer once the slots are exhausted.
func (e *Engine) advancePlanCursor(now time.Time) {
	e.timerSet = false
	e.waitingFor = e.nextPlayingFrom(e.waitingFor + 1)
	if e.waitingFor < 0 {
		e.beginOfferPhase(now)
	}
}

func (e *Engine) advancePlan(now time.Time) {
	if e.waitingFor < 0 {
		return
	}
	if !e.timerSet {
		e.write(e.waitingFor, byzantium.EncodeSChat("SERVER", fmt.Sprintf("PLAN,%d", e.roundNum)))
		e.timerSet = true
		e.timerStart = now
		return
	}
	if now.Sub(e.timerStart) >= e.moveTimeout() {
		e.Strike(e.waitingFor, byzantium.Timeout)
		e.advancePlanCursor(now)
	}
}

// beginOfferPhase enters Offer once every Alive slot has planned.
func (e *Engine) beginOfferPhase(now time.Time) {
	e.phase = PhaseOffer
	e.waitingFor = -1
	e.responseTo = -1
	e.timerSet = false
	e.advanceOfferAlly(now)
}

// advanceOfferAlly moves the outer cursor to the next Alive ally, or
// transitions to Action once exhausted.
func (e *Engine) advanceOfferAlly(now time.Time) {
	e.waitingFor = e.nextPlayingFrom(e.waitingFor + 1)
	e.responseTo = -1
	e.timerSet = false
	if e.waitingFor < 0 {
		e.beginActionPhase(now)
		return
	}
	e.advanceOfferProposer(now)
}

// advanceOfferProposer walks the inner cursor over proposer indices for
// the current ally, delivering the next pending offer (or the OFFERL
// empty marker) and arming the reply timer, or advancing to the next ally
// once every proposer slot has been considered.
func (e *Engine) advanceOfferProposer(now time.Time) {
	ally := e.waitingFor
	allyPlayer := &e.reg.Slot(ally).Player

	for {
		e.responseTo++
		if e.responseTo >= byzantium.MaxClients {
			allyPlayer.OfferSent = false
			e.advanceOfferAlly(now)
			return
		}

		cell := e.offerGrid[ally][e.responseTo]
		if cell.Used {
			proposerName := e.reg.Slot(e.responseTo).Player.Name
			targetName := e.reg.Slot(cell.Target).Player.Name
			kind := "OFFER"
			if allyPlayer.Offers == 1 {
				kind = "OFFERL"
			}
			e.write(ally, byzantium.EncodeSChat("SERVER", fmt.Sprintf("%s,%d,%s,%s", kind, e.roundNum, proposerName, targetName)))
			allyPlayer.Offers--
			allyPlayer.OfferSent = true
			e.timerSet = true
			e.timerStart = now
			return
		}

		if allyPlayer.Offers == 0 && !allyPlayer.OfferSent {
			e.write(ally, byzantium.EncodeSChat("SERVER", fmt.Sprintf("OFFERL,%d", e.roundNum)))
			allyPlayer.OfferSent = false
			e.advanceOfferAlly(now)
			return
		}
	}
}

func (e *Engine) advanceOffer(now time.Time) {
	if e.waitingFor < 0 || !e.timerSet {
		return
	}
	if now.Sub(e.timerStart) >= e.moveTimeout() {
		e.Strike(e.waitingFor, byzantium.Timeout)
		e.advanceOfferProposer(now)
	}
}

// beginActionPhase enters Action once every ally has been consulted.
func (e *Engine) beginActionPhase(now time.Time) {
	e.phase = PhaseAction
	e.waitingFor = -1
	e.timerSet = false
	e.advanceActionCursor(now)
}

// advanceActionCursor moves waitingFor to the next Alive slot, or runs the
// Notify + Battle step once exhausted.
func (e *Engine) advanceActionCursor(now time.Time) {
	e.timerSet = false
	e.waitingFor = e.nextPlayingFrom(e.waitingFor + 1)
	if e.waitingFor < 0 {
		e.runNotifyAndBattle(now)
	}
}

func (e *Engine) advanceAction(now time.Time) {
	if e.waitingFor < 0 {
		return
	}
	if !e.timerSet {
		e.write(e.waitingFor, byzantium.EncodeSChat("SERVER", fmt.Sprintf("ACTION,%d", e.roundNum)))
		e.timerSet = true
		e.timerStart = now
		return
	}
	if now.Sub(e.timerStart) >= e.moveTimeout() {
		e.Strike(e.waitingFor, byzantium.Timeout)
		e.advanceActionCursor(now)
	}
}

// runNotifyAndBattle broadcasts every declared attack, resolves combat,
// broadcasts the post-battle sstat, clears the grids, and either advances
// to the next round's Plan phase or returns to Lobby (spec §4.E Notify +
// Battle step).
func (e *Engine) runNotifyAndBattle(now time.Time) {
	for a := 0; a < byzantium.MaxClients; a++ {
		for v := 0; v < byzantium.MaxClients; v++ {
			if e.attackGrid[a][v] {
				aName := e.reg.Slot(a).Player.Name
				vName := e.reg.Slot(v).Player.Name
				e.broadcastJoined(byzantium.EncodeSChat("SERVER", fmt.Sprintf("NOTIFY,%d,%s,%s", e.roundNum, aName, vName)))
			}
		}
	}

	var players [byzantium.MaxClients]byzantium.Player
	e.reg.EachJoined(func(i int, s *registry.Slot) { players[i] = s.Player })
	e.log.Info().Int("round", e.roundNum).Msg("resolving battle")
	byzantium.ResolveBattle(&players, &e.attackGrid, &e.battleGrid, e.cfg.StartingForce, e.rng)
	e.reg.EachJoined(func(i int, s *registry.Slot) { s.Player = players[i] })

	e.broadcastSstat()

	e.offerGrid.Reset()
	e.attackGrid.Reset()
	e.battleGrid.Reset()

	alive := 0
	e.reg.EachJoined(func(i int, s *registry.Slot) {
		if s.Player.Playing == byzantium.Alive {
			alive++
		}
	})

	if alive >= 2 {
		e.roundNum++
		if e.roundNum > 99999 {
			e.roundNum = 1
		}
		e.reg.EachJoined(func(i int, s *registry.Slot) {
			if s.Player.Playing == byzantium.NotPlaying {
				s.Player.Playing = byzantium.Alive
				s.Player.Troops = e.cfg.StartingForce
			}
		})
		e.beginPlanPhase(now)
		return
	}

	e.roundNum = 1
	e.reg.EachJoined(func(i int, s *registry.Slot) {
		s.Player.Playing = byzantium.NotPlaying
		s.Player.Troops = 0
	})
	e.phase = PhaseLobby
	e.lobbyTimerSet = false
}
