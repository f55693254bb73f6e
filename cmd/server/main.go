package main

import (
	"context"
	"fmt"
	"math/rand"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"github.com/freeeve/byzantium/internal/config"
	"github.com/freeeve/byzantium/internal/engine"
	"github.com/freeeve/byzantium/internal/logger"
	"github.com/freeeve/byzantium/internal/registry"
	"github.com/freeeve/byzantium/internal/server"
)

func main() {
	logger.Init()

	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		log.Fatal().Err(err).Msg("failed to parse flags")
	}
	log.Info().
		Int("minPlayers", cfg.MinPlayers).
		Int("lobbyTime", cfg.LobbyTime).
		Int("timeout", cfg.Timeout).
		Int("startingForce", cfg.StartingForce).
		Msg("config loaded")

	ln, err := net.Listen("tcp", fmt.Sprintf(":%d", config.Port))
	if err != nil {
		log.Fatal().Err(err).Msg("failed to bind listener")
	}

	clock := clockwork.NewRealClock()
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	reg := registry.New()
	eng := engine.New(reg, cfg, clock, rng, log.Logger)
	srv := server.New(ln, reg, eng, clock, log.Logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan struct{})
	go func() {
		defer close(done)
		log.Info().Int("port", config.Port).Msg("byzantium listening")
		srv.Run(ctx)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down")

	cancel()
	<-done
	log.Info().Msg("server stopped")
}
