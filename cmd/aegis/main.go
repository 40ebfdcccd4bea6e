package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aegis-mod/aegis/automod/configcache"
	"github.com/aegis-mod/aegis/automod/duration"
	"github.com/aegis-mod/aegis/automod/engine"
	"github.com/aegis-mod/aegis/automod/spamtracker"
	"github.com/aegis-mod/aegis/util/cliutil"

	"github.com/carlmjohnson/versioninfo"
	_ "github.com/joho/godotenv/autoload"
	cli "github.com/urfave/cli/v2"
	_ "go.uber.org/automaxprocs"
)

func main() {
	if err := run(os.Args); err != nil {
		slog.Error("exiting", "err", err)
		os.Exit(-1)
	}
}

func run(args []string) error {

	app := cli.App{
		Name:    "aegis",
		Usage:   "chat automod daemon and moderation admin tool",
		Version: versioninfo.Short(),
	}

	app.Flags = []cli.Flag{
		&cli.StringFlag{
			Name:    "database-url",
			Usage:   "database for guild settings and case history (sqlite:// or postgresql://)",
			Value:   "sqlite://data/aegis/aegis.db",
			EnvVars: []string{"DATABASE_URL"},
		},
		&cli.StringFlag{
			Name:    "redis-url",
			Usage:   "if set, guild settings are stored in redis instead of the database",
			EnvVars: []string{"AEGIS_REDIS_URL", "REDIS_URL"},
		},
		&cli.BoolFlag{
			Name:    "db-tracing",
			Usage:   "emit OpenTelemetry spans for database queries",
			EnvVars: []string{"AEGIS_DB_TRACING"},
		},
		&cli.IntFlag{
			Name:    "max-db-connections",
			EnvVars: []string{"MAX_DB_CONNECTIONS"},
			Value:   20,
		},
		&cli.StringFlag{
			Name:    "discord-token",
			Usage:   "bot token for the Discord API",
			EnvVars: []string{"DISCORD_TOKEN", "AEGIS_DISCORD_TOKEN"},
		},
		&cli.StringFlag{
			Name:    "log-level",
			Usage:   "log verbosity level (eg: warn, info, debug)",
			EnvVars: []string{"AEGIS_LOG_LEVEL", "LOG_LEVEL"},
		},
		&cli.StringFlag{
			Name:    "log-format",
			Usage:   "text or json",
			EnvVars: []string{"AEGIS_LOG_FMT", "LOG_FMT"},
		},
	}

	app.Before = func(cctx *cli.Context) error {
		_, err := cliutil.SetupSlog(cliutil.LogOptions{
			LogLevel:  cctx.String("log-level"),
			LogFormat: cctx.String("log-format"),
		})
		return err
	}

	app.Commands = []*cli.Command{
		runCmd,
		settingsCmd,
		casesCmd,
		warningsCmd,
		muteCmd,
	}

	return app.Run(args)
}

// Duration flags are written in the short form accepted by the duration codec ("3s", "5m", "1d").
func durationFlag(cctx *cli.Context, name string) (time.Duration, error) {
	raw := cctx.String(name)
	d, ok := duration.Parse(raw)
	if !ok || d <= 0 {
		return 0, fmt.Errorf("invalid --%s value %q (expected eg: 30s, 5m, 1h)", name, raw)
	}
	return d, nil
}

var runCmd = &cli.Command{
	Name:  "run",
	Usage: "run the automod service",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:    "metrics-listen",
			Usage:   "IP or address, and port, to listen on for metrics APIs",
			Value:   ":3998",
			EnvVars: []string{"AEGIS_METRICS_LISTEN"},
		},
		&cli.StringFlag{
			Name:    "slack-webhook-url",
			Usage:   "full URL of slack webhook, for mod-log notifications",
			EnvVars: []string{"SLACK_WEBHOOK_URL"},
		},
		&cli.IntFlag{
			Name:    "spam-threshold",
			Usage:   "number of rapid messages which trigger an automatic timeout",
			Value:   spamtracker.DefaultThreshold,
			EnvVars: []string{"AEGIS_SPAM_THRESHOLD"},
		},
		&cli.StringFlag{
			Name:    "spam-window",
			Usage:   "maximum gap between messages counted towards the spam threshold",
			Value:   "3s",
			EnvVars: []string{"AEGIS_SPAM_WINDOW"},
		},
		&cli.StringFlag{
			Name:    "spam-timeout",
			Usage:   "length of automatic spam timeouts",
			Value:   "5m",
			EnvVars: []string{"AEGIS_SPAM_TIMEOUT"},
		},
		&cli.StringFlag{
			Name:    "spam-sweep-interval",
			Usage:   "how often idle spam tracking entries are dropped",
			Value:   "10s",
			EnvVars: []string{"AEGIS_SPAM_SWEEP_INTERVAL"},
		},
		&cli.StringFlag{
			Name:    "config-ttl",
			Usage:   "how long guild settings are cached before being re-read",
			Value:   "5m",
			EnvVars: []string{"AEGIS_CONFIG_TTL"},
		},
		&cli.IntFlag{
			Name:    "config-cache-size",
			Usage:   "maximum number of guild configs held in memory",
			Value:   configcache.DefaultCapacity,
			EnvVars: []string{"AEGIS_CONFIG_CACHE_SIZE"},
		},
	},
	Action: func(cctx *cli.Context) error {
		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		logger := slog.Default()

		shutdownOTEL, err := configOTEL(ctx, "aegis")
		if err != nil {
			return err
		}
		defer shutdownOTEL()

		window, err := durationFlag(cctx, "spam-window")
		if err != nil {
			return err
		}
		timeout, err := durationFlag(cctx, "spam-timeout")
		if err != nil {
			return err
		}
		if timeout > engine.MaxTimeout {
			return fmt.Errorf("--spam-timeout cannot be longer than 28 days")
		}
		sweep, err := durationFlag(cctx, "spam-sweep-interval")
		if err != nil {
			return err
		}
		ttl, err := durationFlag(cctx, "config-ttl")
		if err != nil {
			return err
		}

		stores, err := openStores(cctx)
		if err != nil {
			return err
		}

		srv, err := NewServer(stores, Config{
			DiscordToken:    cctx.String("discord-token"),
			SlackWebhookURL: cctx.String("slack-webhook-url"),
			SpamThreshold:   cctx.Int("spam-threshold"),
			SpamWindow:      window,
			SpamTimeout:     timeout,
			SweepInterval:   sweep,
			ConfigTTL:       ttl,
			ConfigCacheSize: cctx.Int("config-cache-size"),
			Logger:          logger,
		})
		if err != nil {
			return err
		}

		go func() {
			if err := srv.RunMetrics(cctx.String("metrics-listen")); err != nil {
				slog.Error("failed to start metrics endpoint", "error", err)
				panic(fmt.Errorf("failed to start metrics endpoint: %w", err))
			}
		}()

		if err := srv.Run(ctx); err != nil {
			return fmt.Errorf("failed to run automod service: %w", err)
		}
		return nil
	},
}
