package config

import "testing"

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(nil)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.MinPlayers != defaultMinPlayers {
		t.Errorf("MinPlayers = %d, want %d", cfg.MinPlayers, defaultMinPlayers)
	}
	if cfg.LobbyTime != defaultLobbyTime {
		t.Errorf("LobbyTime = %d, want %d", cfg.LobbyTime, defaultLobbyTime)
	}
	if cfg.Timeout != defaultTimeout {
		t.Errorf("Timeout = %d, want %d", cfg.Timeout, defaultTimeout)
	}
	if cfg.StartingForce != defaultStartingForce {
		t.Errorf("StartingForce = %d, want %d", cfg.StartingForce, defaultStartingForce)
	}
}

func TestLoadOverrides(t *testing.T) {
	cfg, err := Load([]string{"-m", "5", "-l", "20", "-t", "45", "-f", "500"})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.MinPlayers != 5 || cfg.LobbyTime != 20 || cfg.Timeout != 45 || cfg.StartingForce != 500 {
		t.Errorf("unexpected config: %+v", cfg)
	}
}

func TestLoadNegativeFallsBackToDefault(t *testing.T) {
	cfg, err := Load([]string{"-m", "-1", "-f", "-7"})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.MinPlayers != defaultMinPlayers {
		t.Errorf("MinPlayers = %d, want default %d", cfg.MinPlayers, defaultMinPlayers)
	}
	if cfg.StartingForce != defaultStartingForce {
		t.Errorf("StartingForce = %d, want default %d", cfg.StartingForce, defaultStartingForce)
	}
}
