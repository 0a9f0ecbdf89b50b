package main

import (
	"context"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"padlink/internal/config"
	"padlink/internal/logging"
	"padlink/internal/session"
	"padlink/internal/ws"
)

func main() {
	cfg, err := config.LoadApp()
	if err != nil {
		panic(err)
	}
	logging.Init(cfg.Log)

	opts, err := sessionOptions(cfg.Session)
	if err != nil {
		log.Fatal().Err(err).Msg("invalid session config")
	}

	opts.EventBufferSize = cfg.Server.EventBufferSize
	wsServer := ws.NewServer()
	registry := session.NewRegistry(wsServer, opts)
	wsServer.Attach(registry)

	tick := time.Duration(cfg.Session.TickMS) * time.Millisecond
	registry.StartTicker(context.Background(), tick)

	r := newRouter(cfg.Server, registry, wsServer)
	server := &http.Server{
		Addr:              cfg.Server.HTTPAddr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	log.Info().
		Str("addr", cfg.Server.HTTPAddr).
		Str("session_id", registry.ID()).
		Str("join_mode", string(opts.JoinMode)).
		Str("capacity_mode", string(opts.CapacityMode)).
		Msg("session server listening")
	wsServer.Start()
	log.Fatal().Err(server.ListenAndServe()).Msg("server stopped")
}

func sessionOptions(cfg config.SessionConfig) (session.Options, error) {
	joinMode, err := session.ParseJoinMode(cfg.JoinMode)
	if err != nil {
		return session.Options{}, err
	}
	capacityMode, err := session.ParseCapacityMode(cfg.CapacityMode)
	if err != nil {
		return session.Options{}, err
	}
	heroMode, err := session.ParseHeroMode(cfg.HeroMode)
	if err != nil {
		return session.Options{}, err
	}
	return session.Options{
		JoinMode:     joinMode,
		CapacityMode: capacityMode,
		MaxPlayers:   cfg.MaxPlayers,
		HeroMode:     heroMode,
		ClaimControl: cfg.ClaimControl,
		Debug:        cfg.Debug,
	}, nil
}
