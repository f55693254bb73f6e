// Package config parses the server's command-line flags.
package config

import "flag"

// Port is fixed by the protocol; it is not configurable.
const Port = 36724

const (
	defaultMinPlayers    = 3
	defaultLobbyTime     = 10
	defaultTimeout       = 30
	defaultStartingForce = 1000
)

// Config holds the server's run-time tunables, set from CLI flags.
type Config struct {
	MinPlayers    int
	LobbyTime     int
	Timeout       int
	StartingForce int
}

// Load parses args (typically os.Args[1:]) into a Config. Any flag given a
// negative value falls back to its default, per spec.
func Load(args []string) (*Config, error) {
	fs := flag.NewFlagSet("byzantiums", flag.ContinueOnError)
	m := fs.Int("m", defaultMinPlayers, "minimum players to start a game")
	l := fs.Int("l", defaultLobbyTime, "lobby countdown in seconds")
	t := fs.Int("t", defaultTimeout, "per-move timeout in seconds")
	f := fs.Int("f", defaultStartingForce, "starting troop force")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	cfg := &Config{
		MinPlayers:    orDefault(*m, defaultMinPlayers),
		LobbyTime:     orDefault(*l, defaultLobbyTime),
		Timeout:       orDefault(*t, defaultTimeout),
		StartingForce: orDefault(*f, defaultStartingForce),
	}
	return cfg, nil
}

func orDefault(v, fallback int) int {
	if v < 0 {
		return fallback
	}
	return v
}
