// Package engine implements the phase state machine (spec §4.E), the
// strike manager (§4.D), and the broadcaster (§4.G): the single actor that
// owns the client registry, the offer/attack/battle grids, and the turn
// cursors, and mutates all of it in response to parsed wire events and
// clock ticks.
package engine

import (
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"

	"github.com/freeeve/byzantium/internal/config"
	"github.com/freeeve/byzantium/internal/registry"
	"github.com/freeeve/byzantium/pkg/byzantium"
)

// Phase is one of the four states the engine cycles through each game.
type Phase int

const (
	PhaseLobby Phase = iota
	PhasePlan
	PhaseOffer
	PhaseAction
)

func (p Phase) String() string {
	switch p {
	case PhaseLobby:
		return "lobby"
	case PhasePlan:
		return "plan"
	case PhaseOffer:
		return "offer"
	case PhaseAction:
		return "action"
	default:
		return "unknown"
	}
}

// Engine is the single mutable owner of game state. It is not safe for
// concurrent use; callers (the connection event loop) must serialize all
// Dispatch/HandleFault/HandleDisconnect/Advance calls through one goroutine,
// per the single-actor model spec §5 describes.
type Engine struct {
	reg   *registry.Registry
	cfg   *config.Config
	clock clockwork.Clock
	rng   byzantium.Random
	log   zerolog.Logger

	phase    Phase
	roundNum int

	// waitingFor is the slot index the engine is currently expecting a
	// reply from (Plan/Action: the playing slot taking its turn; Offer:
	// the ally being consulted). -1 means no turn is outstanding.
	waitingFor int
	// responseTo is the Offer phase's inner cursor: the proposer index
	// currently being delivered to waitingFor.
	responseTo int

	timerSet   bool
	timerStart time.Time

	lobbyTimerSet   bool
	lobbyTimerStart time.Time

	offerGrid  byzantium.OfferGrid
	attackGrid byzantium.AttackGrid
	battleGrid byzantium.BattleGrid
}

// New returns an Engine in the Lobby phase, round 1, with no turn
// outstanding.
func New(reg *registry.Registry, cfg *config.Config, clock clockwork.Clock, rng byzantium.Random, log zerolog.Logger) *Engine {
	return &Engine{
		reg:        reg,
		cfg:        cfg,
		clock:      clock,
		rng:        rng,
		log:        log,
		phase:      PhaseLobby,
		roundNum:   1,
		waitingFor: -1,
		responseTo: -1,
	}
}

// Phase reports the engine's current phase, for logging and tests.
func (e *Engine) Phase() Phase { return e.phase }

// RoundNum reports the current round number.
func (e *Engine) RoundNum() int { return e.roundNum }

// Dispatch applies one decoded inbound event from slot's connection.
func (e *Engine) Dispatch(slot int, ev byzantium.Event) {
	switch m := ev.(type) {
	case byzantium.JoinMsg:
		e.HandleJoin(slot, m.Name)
	case byzantium.ChatMsg:
		if !e.reg.Slot(slot).Joined {
			e.Strike(slot, byzantium.Malformed)
			return
		}
		e.HandleChat(slot, m)
	case byzantium.StatMsg:
		if !e.reg.Slot(slot).Joined {
			e.Strike(slot, byzantium.Malformed)
			return
		}
		e.HandleStat(slot)
	}
}

// HandleFault strikes slot for a wire-level fault raised by its parser.
func (e *Engine) HandleFault(slot int, f byzantium.Fault) {
	e.Strike(slot, f.Reason)
}

// Advance runs one engine-advance step: the phase-appropriate timer check
// and, where a turn or the lobby countdown has expired, the resulting
// transition. Called unconditionally once per event-loop tick.
func (e *Engine) Advance(now time.Time) {
	switch e.phase {
	case PhaseLobby:
		e.advanceLobby(now)
	case PhasePlan:
		e.advancePlan(now)
	case PhaseOffer:
		e.advanceOffer(now)
	case PhaseAction:
		e.advanceAction(now)
	default:
		e.log.Fatal().Int("phase", int(e.phase)).Msg("phase out of range")
	}
}

func (e *Engine) moveTimeout() time.Duration {
	return time.Duration(e.cfg.Timeout) * time.Second
}

// nextPlayingFrom returns the lowest used, Alive slot index >= start, or -1.
func (e *Engine) nextPlayingFrom(start int) int {
	for i := start; i < byzantium.MaxClients; i++ {
		s := e.reg.Slot(i)
		if s.Used && s.Player.Playing == byzantium.Alive {
			return i
		}
	}
	return -1
}

func (e *Engine) joinedNames() []string {
	var names []string
	e.reg.EachJoined(func(i int, s *registry.Slot) { names = append(names, s.Player.Name) })
	return names
}

func (e *Engine) statTriples() []byzantium.StatTriple {
	var triples []byzantium.StatTriple
	e.reg.EachJoined(func(i int, s *registry.Slot) {
		triples = append(triples, byzantium.StatTriple{Name: s.Player.Name, Strikes: s.Player.Strikes, Troops: s.Player.Troops})
	})
	return triples
}
