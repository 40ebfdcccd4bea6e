package main

import (
	"fmt"
	"log/slog"

	"github.com/aegis-mod/aegis/automod/casestore"
	"github.com/aegis-mod/aegis/automod/guildstore"
	"github.com/aegis-mod/aegis/util/cliutil"

	cli "github.com/urfave/cli/v2"
	"gorm.io/plugin/opentelemetry/tracing"
)

type Stores struct {
	Guilds guildstore.Store
	Cases  casestore.Store
}

// Case history always lives in the database. Guild settings go to redis when --redis-url is set.
func openStores(cctx *cli.Context) (*Stores, error) {
	db, err := cliutil.SetupDatabase(cctx.String("database-url"), cctx.Int("max-db-connections"))
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if cctx.Bool("db-tracing") {
		if err := db.Use(tracing.NewPlugin()); err != nil {
			return nil, err
		}
	}
	cases, err := casestore.NewGormStore(db)
	if err != nil {
		return nil, fmt.Errorf("initializing case store: %w", err)
	}

	var guilds guildstore.Store
	if redisURL := cctx.String("redis-url"); redisURL != "" {
		rs, err := guildstore.NewRedisStore(redisURL)
		if err != nil {
			return nil, fmt.Errorf("initializing redis guild store: %w", err)
		}
		slog.Info("using redis for guild settings")
		guilds = rs
	} else {
		gs, err := guildstore.NewGormStore(db)
		if err != nil {
			return nil, fmt.Errorf("initializing guild store: %w", err)
		}
		guilds = gs
	}
	return &Stores{Guilds: guilds, Cases: cases}, nil
}
