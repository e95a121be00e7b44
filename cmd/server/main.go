package main

import (
	"context"

	"go.uber.org/zap"

	"github.com/VeleyHeight/Universal-Directory-Constructor/internal/api"
	"github.com/VeleyHeight/Universal-Directory-Constructor/internal/config"
	"github.com/VeleyHeight/Universal-Directory-Constructor/internal/pg"
	"github.com/VeleyHeight/Universal-Directory-Constructor/internal/seed"
	"github.com/VeleyHeight/Universal-Directory-Constructor/internal/storage"
)

func main() {
	log, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	cfg := config.LoadWithPath("config.json")

	// Хранилище: Postgres, если задан URL, иначе in-memory
	var st storage.Store
	if cfg.DBURL != "" {
		db, err := pg.Open(cfg.DBURL)
		if err != nil {
			log.Fatal("postgres connect failed", zap.Error(err))
		}
		defer db.Close()
		if err := pg.Bootstrap(db, log); err != nil {
			log.Fatal("postgres bootstrap failed", zap.Error(err))
		}
		st = pg.NewStorage(db)
		log.Info("storage: postgres")
	} else {
		st = storage.NewMemory()
		log.Info("storage: in-memory")
	}

	// Предзаполненные каталоги (только в пустое хранилище)
	if cfg.SeedDir != "" {
		catalogs, err := seed.Load(cfg.SeedDir)
		if err != nil {
			log.Fatal("seed load failed", zap.Error(err))
		}
		if err := seed.Apply(context.Background(), st, catalogs); err != nil {
			log.Fatal("seed apply failed", zap.Error(err))
		}
		log.Info("seed catalogs loaded", zap.Int("count", len(catalogs)))
	}

	log.Info("starting server", zap.String("port", cfg.Port))
	if err := api.RunServer(":"+cfg.Port, st, log); err != nil {
		log.Fatal("server stopped", zap.Error(err))
	}
}
