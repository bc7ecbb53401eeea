package main

import (
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/matchday-guesser/apps/go-server/internal/httpserver"
	"github.com/robalobadob/matchday-guesser/apps/go-server/internal/refdata"
	"github.com/robalobadob/matchday-guesser/apps/go-server/internal/store"
	"os"
)

func main() {
	_ = godotenv.Load()
	if lvl, err := zerolog.ParseLevel(getEnv("LOG_LEVEL", "info")); err == nil {
		zerolog.SetGlobalLevel(lvl)
	}

	if err := refdata.Init(); err != nil {
		log.Fatal().Err(err).Msg("failed to load reference data")
	}

	var st store.Store
	if dsn := getEnv("DB_PATH", "./data/matchday.db"); dsn == "memory" {
		st = store.NewMemoryStore()
	} else {
		db, err := openDB(dsn)
		if err != nil {
			log.Fatal().Err(err).Str("dsn", dsn).Msg("open database")
		}
		if err := migrate(db); err != nil {
			log.Fatal().Err(err).Msg("apply migrations")
		}
		st = store.NewSQLiteStore(db)
	}

	srv := httpserver.New(st)
	port := getEnv("PORT", "5175")
	log.Info().Str("port", port).Msg("starting matchday-go server")
	if err := srv.Start(":" + port); err != nil {
		log.Fatal().Err(err).Msg("server exited")
	}
}

func getEnv(k, def string) string {
	if v := os.Getenv(k); v != "" { return v }
	return def
}
