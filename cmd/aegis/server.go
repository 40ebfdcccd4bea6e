package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/aegis-mod/aegis/automod/clock"
	"github.com/aegis-mod/aegis/automod/configcache"
	"github.com/aegis-mod/aegis/automod/engine"
	"github.com/aegis-mod/aegis/automod/policy"
	"github.com/aegis-mod/aegis/automod/spamtracker"
	"github.com/aegis-mod/aegis/discord"

	"github.com/bwmarrin/discordgo"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/time/rate"
)

// upper bound on a single message's handling, including platform calls
const messageDeadline = 30 * time.Second

type Server struct {
	logger        *slog.Logger
	session       *discordgo.Session
	client        *discord.Client
	engine        *engine.Engine
	tracker       *spamtracker.Tracker
	sweepInterval time.Duration

	// mu guards closed and every wg.Add, so no handler registers after drain starts waiting
	mu     sync.Mutex
	closed bool
	wg     sync.WaitGroup
}

type Config struct {
	DiscordToken    string
	SlackWebhookURL string
	SpamThreshold   int
	SpamWindow      time.Duration
	SpamTimeout     time.Duration
	SweepInterval   time.Duration
	ConfigTTL       time.Duration
	ConfigCacheSize int
	Logger          *slog.Logger
}

// Creates a REST-only Discord client; the gateway is connected by Server.Run.
func newDiscordClient(token string, logger *slog.Logger) (*discord.Client, error) {
	if token == "" {
		return nil, fmt.Errorf("a discord bot token is required (--discord-token or DISCORD_TOKEN)")
	}
	session, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("creating discord session: %w", err)
	}
	// instrumented transport for OTEL tracing of REST calls
	session.Client = &http.Client{
		Timeout:   20 * time.Second,
		Transport: otelhttp.NewTransport(http.DefaultTransport),
	}
	session.Identify.Intents = discordgo.IntentsGuilds |
		discordgo.IntentsGuildMessages |
		discordgo.IntentsGuildMembers |
		discordgo.IntentsMessageContent
	return discord.NewClient(session, logger), nil
}

func NewServer(stores *Stores, config Config) (*Server, error) {
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}

	client, err := newDiscordClient(config.DiscordToken, logger)
	if err != nil {
		return nil, err
	}

	clk := clock.System{}
	cache, err := configcache.NewCache(stores.Guilds, config.ConfigTTL, config.ConfigCacheSize, clk, logger)
	if err != nil {
		return nil, fmt.Errorf("initializing config cache: %w", err)
	}
	tracker := spamtracker.NewTracker(config.SpamThreshold, config.SpamWindow, logger)

	notifiers := []engine.Notifier{
		&discord.ModLogNotifier{
			Sender: client,
			Guilds: stores.Guilds,
			Logger: logger,
		},
	}
	if config.SlackWebhookURL != "" {
		logger.Info("sending mod-log notifications to slack")
		notifiers = append(notifiers, &engine.SlackNotifier{
			SlackWebhookURL: config.SlackWebhookURL,
			Client: &http.Client{
				Timeout:   10 * time.Second,
				Transport: otelhttp.NewTransport(http.DefaultTransport),
			},
			Limiter: rate.NewLimiter(rate.Limit(1), 5),
		})
	}

	eng := &engine.Engine{
		Logger:  logger,
		Configs: cache,
		Tracker: tracker,
		Rules:   policy.DefaultRules(),
		Executor: &engine.Executor{
			Platform:  client,
			Cases:     stores.Cases,
			Notifiers: notifiers,
			Logger:    logger,
			Clock:     clk,
		},
		Clock:           clk,
		TimeoutDuration: config.SpamTimeout,
	}

	return &Server{
		logger:        logger,
		session:       client.Session,
		client:        client,
		engine:        eng,
		tracker:       tracker,
		sweepInterval: config.SweepInterval,
	}, nil
}

func (s *Server) RunMetrics(listen string) error {
	http.Handle("/metrics", promhttp.Handler())
	return http.ListenAndServe(listen, nil)
}

// discordgo invokes each handler on its own goroutine, so messages are processed concurrently.
func (s *Server) handleMessageCreate(ctx context.Context) func(*discordgo.Session, *discordgo.MessageCreate) {
	return func(_ *discordgo.Session, m *discordgo.MessageCreate) {
		if ctx.Err() != nil || !s.beginHandler() {
			return
		}
		defer s.wg.Done()
		handlersInFlight.Inc()
		defer handlersInFlight.Dec()
		messagesReceived.Inc()

		hasBypass := false
		if m.Author != nil && !m.Author.Bot && m.GuildID != "" {
			ok, err := s.client.HasBypass(m.Author.ID, m.ChannelID)
			if err != nil {
				s.logger.Warn("could not resolve author permissions", "err", err, "guild", m.GuildID, "user", m.Author.ID)
			}
			hasBypass = ok
		}

		mctx, cancel := context.WithTimeout(ctx, messageDeadline)
		defer cancel()
		if _, err := s.engine.ProcessMessage(mctx, discord.NewMessageEvent(m.Message, hasBypass)); err != nil {
			messagesFailed.Inc()
			s.logger.Error("failed to process message", "err", err, "guild", m.GuildID, "message", m.ID)
		}
	}
}

// Registers an in-flight handler. Returns false once the server is draining.
func (s *Server) beginHandler() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	s.wg.Add(1)
	return true
}

// Stops new handlers from starting and waits for the running ones to finish.
func (s *Server) drain() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	s.wg.Wait()
}

// Connects to the gateway and processes messages until ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	s.session.AddHandler(func(_ *discordgo.Session, r *discordgo.Ready) {
		s.logger.Info("connected to discord", "user", r.User.String(), "guilds", len(r.Guilds))
	})
	s.session.AddHandler(s.handleMessageCreate(ctx))

	sweepCtx, stopSweep := context.WithCancel(ctx)
	defer stopSweep()
	go func() {
		if err := s.tracker.Run(sweepCtx, s.sweepInterval, clock.System{}); err != nil && sweepCtx.Err() == nil {
			s.logger.Error("spam tracker sweep stopped", "err", err)
		}
	}()

	if err := s.session.Open(); err != nil {
		return fmt.Errorf("opening discord gateway: %w", err)
	}
	s.logger.Info("automod service running")

	<-ctx.Done()
	s.logger.Info("shutting down")
	if err := s.session.Close(); err != nil {
		s.logger.Warn("error closing discord session", "err", err)
	}
	s.drain()
	return nil
}
