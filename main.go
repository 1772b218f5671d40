package main

import (
	"context"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/escaperoom/go-server/internal/deck"
	"github.com/robalobadob/escaperoom/go-server/internal/engine"
	"github.com/robalobadob/escaperoom/go-server/internal/httpserver"
	"github.com/robalobadob/escaperoom/go-server/internal/record"
)

func main() {
	_ = godotenv.Load()
	if lvl, err := zerolog.ParseLevel(getEnv("LOG_LEVEL", "info")); err == nil {
		zerolog.SetGlobalLevel(lvl)
	}

	catalog, rules, final, err := deck.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("invalid card deck")
	}
	log.Info().Int("cards", catalog.Len()).Msg("deck loaded")

	db, err := openDB(getEnv("DB_PATH", "./data/escaperoom.db"))
	if err != nil {
		log.Fatal().Err(err).Msg("open database")
	}
	if err := migrate(db); err != nil {
		log.Fatal().Err(err).Msg("migrate database")
	}

	// The session record lives in Redis when an address is configured,
	// otherwise in the same SQLite file as the audit tables.
	var store record.Store
	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		store, err = record.NewRedisStore(context.Background(), addr)
		if err != nil {
			log.Fatal().Err(err).Msg("connect redis")
		}
		log.Info().Str("addr", addr).Msg("session record in redis")
	} else {
		store = record.NewSQLiteStore(db)
	}

	budget := deck.TimeBudgetMinutes
	if v := os.Getenv("TIME_BUDGET_MINUTES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			budget = n
		}
	}

	eng := engine.New(catalog, rules, final, store, budget)
	srv := httpserver.New(eng, db)
	port := getEnv("PORT", "5175")
	log.Info().Str("port", port).Int("budgetMinutes", budget).Msg("starting escaperoom-go")
	if err := srv.Start(":" + port); err != nil {
		log.Fatal().Err(err).Msg("server exited")
	}
}

func getEnv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
