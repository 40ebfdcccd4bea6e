package engine

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/aegis-mod/aegis/automod/clock"
	"github.com/aegis-mod/aegis/automod/policy"
	"github.com/aegis-mod/aegis/automod/spamtracker"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("automod")

const DefaultTimeout = 5 * time.Minute

// Source of compiled per-guild config. Satisfied by *configcache.Cache.
type ConfigSource interface {
	Get(ctx context.Context, guildID string) (*policy.Config, error)
}

// runtime for classifying messages and dispatching at most one moderation action per message.
//
// All fields except TimeoutDuration must be set. Safe for concurrent use.
type Engine struct {
	Logger   *slog.Logger
	Configs  ConfigSource
	Tracker  *spamtracker.Tracker
	Rules    policy.RuleSet
	Executor *Executor
	Clock    clock.Clock
	// length of automatic spam timeouts; DefaultTimeout if zero
	TimeoutDuration time.Duration
}

func (eng *Engine) timeoutDuration() time.Duration {
	if eng.TimeoutDuration <= 0 {
		return DefaultTimeout
	}
	return eng.TimeoutDuration
}

// Classifies a message and carries out the resulting action, if any.
//
// A returned error means the guild config could not be loaded; nothing was done in that case. Action failures are logged and counted, and do not produce an error.
func (eng *Engine) ProcessMessage(ctx context.Context, msg *MessageEvent) (dec policy.Decision, err error) {
	if msg == nil {
		messageErrorCount.WithLabelValues("invalid").Inc()
		return policy.Decision{}, fmt.Errorf("nil message event")
	}

	// similar to an HTTP server, we want to recover any panics from rule execution
	defer func() {
		if r := recover(); r != nil {
			eng.Logger.Error("automod message execution exception", "err", r, "guild", msg.GuildID, "user", msg.AuthorID)
			messageErrorCount.WithLabelValues("panic").Inc()
			dec = policy.Decision{}
			err = fmt.Errorf("automod panic: %v", r)
		}
	}()

	ctx, span := tracer.Start(ctx, "ProcessMessage")
	defer span.End()
	span.SetAttributes(
		attribute.String("guild", msg.GuildID),
		attribute.String("channel", msg.ChannelID),
	)

	start := time.Now()
	defer func() {
		messageProcessDuration.WithLabelValues(dec.Kind.String()).Observe(time.Since(start).Seconds())
		messageProcessCount.WithLabelValues(dec.Kind.String()).Inc()
		span.SetAttributes(attribute.String("decision", dec.Kind.String()))
	}()

	if msg.AuthorIsBot {
		messageSkipCount.WithLabelValues("bot").Inc()
		return policy.Decision{}, nil
	}
	if msg.GuildID == "" {
		messageSkipCount.WithLabelValues("no-guild").Inc()
		return policy.Decision{}, nil
	}
	if msg.AuthorHasBypass {
		messageSkipCount.WithLabelValues("bypass").Inc()
		return policy.Decision{}, nil
	}

	logger := eng.Logger.With("guild", msg.GuildID, "channel", msg.ChannelID, "user", msg.AuthorID, "message", msg.MessageID)

	// flood detection runs before (and independent of) guild config
	if eng.Tracker.RecordAndCheck(msg.GuildID, msg.AuthorID, eng.Clock.Now()) {
		dec = policy.Decision{
			Kind:      policy.KindRate,
			Reason:    SpamLogReason,
			LogAction: SpamLogAction,
			LogColor:  policy.ColorDarkPurple,
		}
		if err := eng.Executor.Timeout(ctx, msg, eng.timeoutDuration()); err != nil {
			logger.Warn("spam timeout abandoned", "err", err)
			span.RecordError(err)
		}
		return dec, nil
	}

	cfg, err := eng.Configs.Get(ctx, msg.GuildID)
	if err != nil {
		messageErrorCount.WithLabelValues("config").Inc()
		span.SetStatus(codes.Error, err.Error())
		logger.Error("failed to load guild config", "err", err)
		return policy.Decision{}, err
	}

	dec = eng.Rules.Evaluate(msg.policyMessage(), cfg)
	if dec.IsNone() {
		return dec, nil
	}
	logger.Debug("policy violation", "kind", dec.Kind.String(), "word", dec.Word)
	if err := eng.Executor.DeleteAndWarn(ctx, msg, dec); err != nil {
		logger.Warn("delete-and-warn abandoned", "err", err, "kind", dec.Kind.String())
		span.RecordError(err)
	}
	return dec, nil
}
