package mainconfig

import (
	"context"
	"crypto/tls"
	"database/sql"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"

	"github.com/boostxlresults/intellisend/internal/agent"
	appconfig "github.com/boostxlresults/intellisend/internal/config"
	"github.com/boostxlresults/intellisend/internal/crm"
	"github.com/boostxlresults/intellisend/internal/dispatch"
	"github.com/boostxlresults/intellisend/internal/history"
	"github.com/boostxlresults/intellisend/internal/identity"
	"github.com/boostxlresults/intellisend/internal/intent"
	"github.com/boostxlresults/intellisend/internal/llm"
	"github.com/boostxlresults/intellisend/internal/notify"
	"github.com/boostxlresults/intellisend/internal/observability/metrics"
	"github.com/boostxlresults/intellisend/internal/reply"
	"github.com/boostxlresults/intellisend/internal/session"
	"github.com/boostxlresults/intellisend/internal/transcript"
	"github.com/boostxlresults/intellisend/pkg/logging"
)

// AgentDeps bundles everything the worker binary (and the api binary in
// single-process development mode) needs to run the booking agent.
type AgentDeps struct {
	Worker  *dispatch.Worker
	Metrics *metrics.BookingMetrics

	cleanups []func()
}

// Close releases database and cache connections.
func (d *AgentDeps) Close() {
	for i := len(d.cleanups) - 1; i >= 0; i-- {
		d.cleanups[i]()
	}
}

// BuildAgent wires the full booking agent behind a queue worker.
func BuildAgent(ctx context.Context, cfg *appconfig.Config, awsCfg aws.Config, queue dispatch.Queue, logger *logging.Logger) (*AgentDeps, error) {
	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("mainconfig: DATABASE_URL is required")
	}

	deps := &AgentDeps{}

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("mainconfig: connect postgres pool: %w", err)
	}
	deps.cleanups = append(deps.cleanups, pool.Close)
	sessions := session.NewPGStore(pool)

	db, err := sql.Open("pgx", cfg.DatabaseURL)
	if err != nil {
		deps.Close()
		return nil, fmt.Errorf("mainconfig: open transcript db: %w", err)
	}
	deps.cleanups = append(deps.cleanups, func() { _ = db.Close() })
	transcripts := transcript.NewStore(db)

	redisOpts := &redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	}
	if cfg.RedisTLS {
		redisOpts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	redisClient := redis.NewClient(redisOpts)
	deps.cleanups = append(deps.cleanups, func() { _ = redisClient.Close() })
	historyStore := history.NewStore(redisClient, nil)

	heuristic := intent.NewHeuristicClassifier()
	var classifier intent.Classifier = heuristic
	var generator reply.Generator
	if cfg.BedrockModelID != "" {
		bedrockClient := llm.NewBedrockClient(bedrockruntime.NewFromConfig(awsCfg))
		primary := intent.NewLLMClassifier(bedrockClient, cfg.BedrockModelID, logger)
		classifier = intent.NewFallbackClassifier(primary, heuristic, logger)
		generator = reply.NewLLMGenerator(bedrockClient, cfg.BedrockModelID, cfg.MaxReplyLength, logger)
	} else {
		logger.Warn("BEDROCK_MODEL_ID not set, using heuristic classifier and canned replies")
	}

	crmOpts := []crm.Option{
		crm.WithDryRun(cfg.CRMDryRun),
		crm.WithTimeout(cfg.CRMTimeout),
	}
	if cfg.CRMTenantID != "" {
		crmOpts = append(crmOpts, crm.WithTenantOverride(cfg.CRMTenantID))
	}
	crmClient := crm.NewHTTPClient(cfg.CRMBaseURL, cfg.CRMAPIKey, logger, crmOpts...)
	resolver := identity.NewResolver(crmClient, logger)

	handoffs := agent.NewHandoffService(buildHandoffSink(cfg, awsCfg, logger), logger)

	bookingMetrics := metrics.NewBookingMetrics(prometheus.DefaultRegisterer)
	deps.Metrics = bookingMetrics

	orchestrator := agent.NewOrchestrator(
		sessions,
		classifier,
		resolver,
		generator,
		crmClient,
		handoffs,
		agent.Config{
			LoopGuardCap:     cfg.LoopGuardCap,
			MaxOfferedSlots:  cfg.MaxOfferedSlots,
			AvailabilityDays: cfg.AvailabilityDays,
			JobTypeID:        cfg.JobTypeID,
			BusinessUnitID:   cfg.BusinessUnitID,
			JobSummaryPrefix: cfg.JobSummaryPrefix,
			DisabledOrgs:     splitCSV(cfg.AgentDisabledOrgs),
		},
		agent.WithHistory(historyStore),
		agent.WithTranscripts(transcripts),
		agent.WithEvents(agent.NewEventLogger(logger)),
		agent.WithMetrics(bookingMetrics),
		agent.WithLogger(logger),
	)

	var sender dispatch.ReplySender
	if cfg.OutboundMessageURL != "" {
		sender = dispatch.NewHTTPReplySender(cfg.OutboundMessageURL, cfg.OutboundAPIKey, logger)
	} else {
		logger.Warn("OUTBOUND_MESSAGE_URL not set, replies are log-only")
		sender = dispatch.NewLogReplySender(logger)
	}

	deps.Worker = dispatch.NewWorker(orchestrator, queue, sender, logger,
		dispatch.WithWorkerCount(cfg.WorkerCount),
	)
	return deps, nil
}

// NewSessionStore opens a standalone session store for the api binary's
// admin endpoints.
func NewSessionStore(ctx context.Context, cfg *appconfig.Config) (session.Store, func(), error) {
	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, nil, fmt.Errorf("mainconfig: connect postgres pool: %w", err)
	}
	return session.NewPGStore(pool), pool.Close, nil
}

func buildHandoffSink(cfg *appconfig.Config, awsCfg aws.Config, logger *logging.Logger) agent.HandoffSink {
	var email notify.EmailSender
	switch cfg.EmailProvider {
	case "sendgrid":
		if s := notify.NewSendGridSender(notify.SendGridConfig{
			APIKey:    cfg.SendGridAPIKey,
			FromEmail: cfg.SendGridFromEmail,
			FromName:  cfg.SendGridFromName,
		}, logger); s != nil {
			email = s
		}
	default:
		if s := notify.NewSESSender(sesv2.NewFromConfig(awsCfg), notify.SESConfig{
			FromEmail: cfg.SESFromEmail,
			FromName:  cfg.SESFromName,
		}, logger); s != nil {
			email = s
		}
	}
	if email == nil {
		email = notify.NewStubEmailSender(logger)
	}

	var sms notify.SMSSender
	if cfg.OutboundMessageURL != "" {
		outbound := dispatch.NewHTTPReplySender(cfg.OutboundMessageURL, cfg.OutboundAPIKey, logger)
		sms = notify.NewSimpleSMSSender("", func(ctx context.Context, to, _, body string) error {
			return outbound.SendReply(ctx, "", "", to, body)
		}, logger)
	} else {
		sms = notify.NewStubSMSSender(logger)
	}

	settings := notify.NewStaticSettings(notify.Settings{
		EmailEnabled:    cfg.HandoffNotifyEmail != "",
		EmailRecipients: splitCSV(cfg.HandoffNotifyEmail),
		SMSEnabled:      cfg.HandoffNotifyPhone != "",
		SMSRecipients:   splitCSV(cfg.HandoffNotifyPhone),
	})
	return notify.NewService(email, sms, settings, logger)
}

func splitCSV(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
