package main

import (
	"context"
	"net/http"

	"github.com/rs/zerolog/log"

	orchestratorx "github.com/ZeinNoureddin/Conversational-AI-Customer-Service/agent/orchestrator"
	registryx "github.com/ZeinNoureddin/Conversational-AI-Customer-Service/agent/registry"
	statex "github.com/ZeinNoureddin/Conversational-AI-Customer-Service/agent/state"
	configx "github.com/ZeinNoureddin/Conversational-AI-Customer-Service/pkg/config"
	databasex "github.com/ZeinNoureddin/Conversational-AI-Customer-Service/pkg/database"
	_ "github.com/ZeinNoureddin/Conversational-AI-Customer-Service/pkg/logger/autoload"
	openrouterx "github.com/ZeinNoureddin/Conversational-AI-Customer-Service/pkg/openrouter"
	serverx "github.com/ZeinNoureddin/Conversational-AI-Customer-Service/server"
	shopx "github.com/ZeinNoureddin/Conversational-AI-Customer-Service/shop"
)

type AppConfig struct {
	HTTPAddr       string `envconfig:"HTTP_ADDR" split_words:"true" default:":8080"`
	SessionBackend string `envconfig:"SESSION_BACKEND" split_words:"true" default:"memory"`
	SeedOnStart    bool   `envconfig:"SEED_ON_START" split_words:"true" default:"true"`
}

func main() {
	appCfg := configx.MustNew[AppConfig]("")

	openRouterCfg := configx.MustNew[openrouterx.Config]("OPENROUTER")
	gateway := openrouterx.MustNew(*openRouterCfg)

	dbCfg := configx.MustNew[databasex.Config]("DATABASE")
	db := databasex.MustNew(*dbCfg)
	defer db.Close()

	ctx := context.Background()
	if appCfg.SeedOnStart {
		if err := shopx.Seed(ctx, db); err != nil {
			log.Fatal().Err(err).Msg("seed failed")
		}
	}

	services, err := shopx.NewService(db)
	if err != nil {
		log.Fatal().Err(err).Msg("init shop services failed")
	}
	transcript, err := shopx.NewTranscript(db)
	if err != nil {
		log.Fatal().Err(err).Msg("init transcript failed")
	}

	actions, err := registryx.New(services, services, services)
	if err != nil {
		log.Fatal().Err(err).Msg("init action registry failed")
	}
	engine, err := orchestratorx.New(gateway, actions)
	if err != nil {
		log.Fatal().Err(err).Msg("init orchestrator failed")
	}

	var (
		store  statex.Store
		locker statex.Locker
	)
	switch appCfg.SessionBackend {
	case "redis":
		redisCfg := configx.MustNew[statex.RedisConfig]("REDIS")
		redisStore, err := statex.NewRedisStore(*redisCfg)
		if err != nil {
			log.Fatal().Err(err).Msg("init redis session store failed")
		}
		defer redisStore.Close()
		store = redisStore
		locker = redisStore.NewLocker()
	default:
		store = statex.NewMemoryStore()
		locker = statex.NewMemoryLocker()
	}

	srv, err := serverx.New(engine, store, locker, transcript)
	if err != nil {
		log.Fatal().Err(err).Msg("init server failed")
	}

	log.Info().
		Str("addr", appCfg.HTTPAddr).
		Str("session_backend", appCfg.SessionBackend).
		Msg("assistant backend listening")
	if err := http.ListenAndServe(appCfg.HTTPAddr, srv.Router()); err != nil {
		log.Fatal().Err(err).Msg("http server stopped")
	}
}
