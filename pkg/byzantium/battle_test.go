package byzantium

import (
	"math/rand"
	"testing"
)

func TestResolveBattleMutualAttackHalfStrength(t *testing.T) {
	var players [MaxClients]Player
	var ag AttackGrid
	var bg BattleGrid

	players[0] = Player{Playing: Alive, Troops: 1000}
	players[1] = Player{Playing: Alive, Troops: 1000}
	ag[0][1] = true
	ag[1][0] = true

	rng := rand.New(rand.NewSource(42))
	result := ResolveBattle(&players, &ag, &bg, 1000, rng)

	if len(result.Eliminated) != 0 {
		t.Fatalf("Eliminated = %v, want none (half-strength stop)", result.Eliminated)
	}
	// The loop stops as soon as either side is at or below half strength;
	// two casualties at most per roll puts that side at 499 or 500.
	weaker := players[0].Troops
	if players[1].Troops < weaker {
		weaker = players[1].Troops
	}
	if weaker > 500 || weaker < 499 {
		t.Errorf("troops = %d, %d; want the weaker side stopped at 499 or 500", players[0].Troops, players[1].Troops)
	}
	if players[0].Troops == 0 || players[1].Troops == 0 {
		t.Errorf("troops = %d, %d; want neither at 0 (half-strength stop)", players[0].Troops, players[1].Troops)
	}
}

func TestResolveBattleDeterministic(t *testing.T) {
	run := func() (int, int) {
		var players [MaxClients]Player
		var ag AttackGrid
		var bg BattleGrid
		players[0] = Player{Playing: Alive, Troops: 1000}
		players[1] = Player{Playing: Alive, Troops: 1000}
		ag[0][1] = true
		ag[1][0] = true
		rng := rand.New(rand.NewSource(7))
		ResolveBattle(&players, &ag, &bg, 1000, rng)
		return players[0].Troops, players[1].Troops
	}
	a0, a1 := run()
	b0, b1 := run()
	if a0 != b0 || a1 != b1 {
		t.Errorf("non-deterministic: (%d,%d) vs (%d,%d)", a0, a1, b0, b1)
	}
}

func TestResolveBattleEliminationAwardsBounty(t *testing.T) {
	var players [MaxClients]Player
	var ag AttackGrid
	var bg BattleGrid

	players[0] = Player{Playing: Alive, Troops: 1000} // A
	players[1] = Player{Playing: Alive, Troops: 1000} // B
	players[2] = Player{Playing: Alive, Troops: 1}    // C, passes, nearly dead already
	ag[0][2] = true // A attacks C
	ag[1][2] = true // B attacks C

	rng := rand.New(rand.NewSource(1))
	result := ResolveBattle(&players, &ag, &bg, 1000, rng)

	found := false
	for _, e := range result.Eliminated {
		if e == 2 {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected C (slot 2) eliminated with troops=1 vs two attackers, got %+v", result)
	}
	if players[2].Playing != Eliminated || players[2].Troops != 0 {
		t.Errorf("C = %+v, want Eliminated with 0 troops", players[2])
	}
	if players[0].Troops <= 1000 && players[1].Troops <= 1000 {
		t.Errorf("expected at least one attacker to receive the starting-force bounty, got A=%d B=%d", players[0].Troops, players[1].Troops)
	}
}

func TestResolveBattleBountyCapsAt99999(t *testing.T) {
	var players [MaxClients]Player
	var ag AttackGrid
	var bg BattleGrid

	players[0] = Player{Playing: Alive, Troops: 99500}
	players[1] = Player{Playing: Alive, Troops: 1}
	ag[0][1] = true

	rng := rand.New(rand.NewSource(3))
	ResolveBattle(&players, &ag, &bg, 1000, rng)

	if players[0].Troops > MaxTroops {
		t.Errorf("Troops = %d, want capped at %d", players[0].Troops, MaxTroops)
	}
}

func TestResolveBattleNonFightersUntouched(t *testing.T) {
	var players [MaxClients]Player
	var ag AttackGrid
	var bg BattleGrid

	players[0] = Player{Playing: Alive, Troops: 1000}
	players[1] = Player{Playing: Alive, Troops: 1000}
	players[2] = Player{Playing: Alive, Troops: 777} // bystander, no attacks involving it

	rng := rand.New(rand.NewSource(5))
	ResolveBattle(&players, &ag, &bg, 1000, rng)

	if players[2].Troops != 777 {
		t.Errorf("bystander troops = %d, want unchanged 777", players[2].Troops)
	}
}
