// Package main is the entry point of the academic hub API: per-session
// workspaces for the class diary, student evaluation and monthly frequency
// sheet, the shared school calendar, and the secretariat reports.
//
// Layout follows Clean Architecture:
//   - Domain: business rules with no external dependencies
//   - Application: workflows, cascade controller, queries, event handlers
//   - Infrastructure: data providers (fixture, postgres), cache, event bus, export
//   - Interface: HTTP endpoints
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/seduc-pe/academic-hub/config"

	// Application layer
	"github.com/seduc-pe/academic-hub/internal/application/calendar"
	"github.com/seduc-pe/academic-hub/internal/application/eventhandler"
	"github.com/seduc-pe/academic-hub/internal/application/query"
	"github.com/seduc-pe/academic-hub/internal/application/workspace"

	// Domain contracts
	"github.com/seduc-pe/academic-hub/internal/domain/academic"
	"github.com/seduc-pe/academic-hub/internal/domain/attendance"
	calendardomain "github.com/seduc-pe/academic-hub/internal/domain/calendar"
	"github.com/seduc-pe/academic-hub/internal/domain/diary"
	"github.com/seduc-pe/academic-hub/internal/domain/evaluation"
	"github.com/seduc-pe/academic-hub/internal/domain/shared"

	// Infrastructure layer
	"github.com/seduc-pe/academic-hub/internal/infrastructure/messaging"
	"github.com/seduc-pe/academic-hub/internal/infrastructure/persistence/postgres"
	"github.com/seduc-pe/academic-hub/internal/infrastructure/persistence/redis"
	"github.com/seduc-pe/academic-hub/internal/infrastructure/provider/fixture"
	"github.com/seduc-pe/academic-hub/internal/infrastructure/scheduler"

	// Interface layer
	httpserver "github.com/seduc-pe/academic-hub/internal/interface/http"
	"github.com/seduc-pe/academic-hub/internal/interface/http/handlers"

	// Packages
	"github.com/seduc-pe/academic-hub/pkg/logger"
	"github.com/seduc-pe/academic-hub/pkg/retry"
)

// ══════════════════════════════════════════════════════════════════════════════
// MAIN
// ══════════════════════════════════════════════════════════════════════════════

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "fatal error: %v\n", err)
		os.Exit(1)
	}
}

// dataProvider is the full Data Provider contract behind the workspaces.
type dataProvider struct {
	directory  academic.Directory
	staff      academic.StaffDirectory
	lessons    diary.Store
	evals      evaluation.Store
	attendance attendance.Store
	calendar   calendardomain.Store
}

// eventBus is satisfied by both the in-memory and the Redis bus.
type eventBus interface {
	shared.EventPublisher
	shared.EventSubscriber
	Metrics() *messaging.EventBusMetrics
	Close() error
}

func run(ctx context.Context) error {
	// ─────────────────────────────────────────────────────────────────────────
	// 1. CONFIGURATION
	// ─────────────────────────────────────────────────────────────────────────
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 2. LOGGING
	// ─────────────────────────────────────────────────────────────────────────
	slogger := setupSlog(cfg)
	log := setupLogger(cfg)
	log.Info("starting academic hub",
		logger.String("env", string(cfg.App.Environment)),
		logger.String("version", cfg.App.Version),
		logger.String("provider", string(cfg.Provider.Kind)),
		logger.String("timezone", cfg.App.Timezone),
	)

	health := handlers.NewCompositeHealthChecker(cfg.App.Version)

	// ─────────────────────────────────────────────────────────────────────────
	// 3. REDIS (optional: directory cache + cross-instance events)
	// ─────────────────────────────────────────────────────────────────────────
	var cache *redis.Cache
	if !cfg.Redis.Disabled {
		cache, err = connectRedis(ctx, cfg, slogger)
		if err != nil {
			log.Warn("redis unavailable, running without cache", logger.Err(err))
		} else {
			defer cache.Close()
			health.AddOptionalCheck("redis", handlers.NewPingCheck(cache))
		}
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 4. DATA PROVIDER
	// ─────────────────────────────────────────────────────────────────────────
	var provider dataProvider
	switch cfg.Provider.Kind {
	case config.ProviderPostgres:
		conn, err := connectPostgres(ctx, cfg, slogger)
		if err != nil {
			return err
		}
		defer func() {
			log.Info("closing database connection")
			conn.Close()
		}()
		health.AddCheck("postgres", handlers.NewPingCheck(conn))

		if cfg.Database.AutoMigrate {
			if err := postgres.NewMigrator(conn).Migrate(ctx); err != nil {
				return fmt.Errorf("failed to run migrations: %w", err)
			}
		}

		records := postgres.NewRecordRepository(conn)
		var directory redis.Source = postgres.NewDirectoryRepository(conn)
		if cache != nil {
			directory = redis.NewCachedDirectory(directory, cache, slogger).
				WithTTL(cfg.Redis.CacheTTL, cfg.Redis.RosterCacheTTL)
		}
		provider = dataProvider{
			directory:  directory,
			staff:      directory,
			lessons:    records,
			evals:      records,
			attendance: records,
			calendar:   postgres.NewCalendarRepository(conn),
		}

	default:
		fx := fixture.New(
			fixture.WithLatency(cfg.Provider.LookupLatency, cfg.Provider.SaveLatency),
			fixture.WithLogger(log),
		)
		provider = dataProvider{
			directory:  fx,
			staff:      fx,
			lessons:    fx,
			evals:      fx,
			attendance: fx,
			calendar:   fx,
		}
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 5. EVENT BUS
	// ─────────────────────────────────────────────────────────────────────────
	bus, err := newEventBus(ctx, cfg, cache, slogger)
	if err != nil {
		return err
	}
	defer func() {
		log.Info("closing event bus")
		_ = bus.Close()
	}()

	feed := eventhandler.NewActivityFeed(slogger, eventhandler.DefaultFeedConfig())
	if err := feed.Register(bus); err != nil {
		return fmt.Errorf("failed to register activity feed: %w", err)
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 6. SCHOOL CALENDAR
	// ─────────────────────────────────────────────────────────────────────────
	cal := calendar.NewService(provider.calendar, bus, calendar.Config{
		RemovalEnabled: cfg.Features.BlockedDayRemoval(),
		Dedupe:         cfg.Features.BlockedDayDedupe(),
	}, log)
	if err := cal.Load(ctx); err != nil {
		return fmt.Errorf("failed to load calendar: %w", err)
	}

	// Another instance changed the calendar: reload the shared registry.
	resync := func(event shared.Event) error {
		if !messaging.IsRemote(event) {
			return nil
		}
		return cal.Load(context.Background())
	}
	for _, t := range []shared.EventType{shared.EventBlockedDayAdded, shared.EventBlockedDayRemoved} {
		if err := bus.Subscribe(t, resync); err != nil {
			return fmt.Errorf("failed to subscribe calendar resync: %w", err)
		}
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 7. WORKSPACES AND QUERIES
	// ─────────────────────────────────────────────────────────────────────────
	flags := cfg.Features
	store := workspace.NewStore(workspace.Deps{
		Directory:   provider.directory,
		Lessons:     provider.lessons,
		Evaluations: provider.evals,
		Attendance:  provider.attendance,
		Calendar:    cal,
		Publisher:   bus,
		Logger:      log,
		Policy: workspace.Policy{
			EnforceBlockedDays: func(sessionID, profile string) bool {
				return flags.BlockedDayEnforcement(&config.FeatureContext{SessionID: sessionID, Profile: profile})
			},
			LoadSavedAttendance: func(sessionID, profile string) bool {
				return flags.FrequencyLoadSaved(&config.FeatureContext{SessionID: sessionID, Profile: profile})
			},
		},
	})

	// Background housekeeping
	jobs := scheduler.NewScheduler(scheduler.SchedulerConfig{Logger: slogger, EnableMetrics: true})
	if err := jobs.Register(scheduler.NewSessionSweepJob(store, cfg.Sessions.MaxIdle, slogger), cfg.Sessions.SweepInterval); err != nil {
		return err
	}
	if cfg.App.CalendarResyncInterval > 0 {
		if err := jobs.Register(scheduler.NewCalendarResyncJob(cal, cfg.Provider.LookupLatency+10*time.Second), cfg.App.CalendarResyncInterval); err != nil {
			return err
		}
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 8. HTTP SERVER
	// ─────────────────────────────────────────────────────────────────────────
	httpConfig := httpserver.DefaultConfig()
	httpConfig.Host = cfg.HTTP.Host
	httpConfig.Port = cfg.HTTP.Port
	httpConfig.ReadTimeout = cfg.HTTP.ReadTimeout
	httpConfig.WriteTimeout = cfg.HTTP.WriteTimeout
	httpConfig.IdleTimeout = cfg.HTTP.IdleTimeout
	httpConfig.MaxBodyBytes = cfg.HTTP.MaxBodyBytes
	httpConfig.EnableCORS = cfg.HTTP.EnableCORS
	httpConfig.AllowedOrigins = cfg.HTTP.AllowedOrigins
	httpConfig.RateLimitPerMinute = cfg.HTTP.RateLimitPerMinute

	httpServer := httpserver.NewServer(httpConfig, httpserver.Dependencies{
		Workspaces:              store,
		Calendar:                cal,
		AttendanceReportHandler: query.NewGetAttendanceReportHandler(provider.directory, provider.attendance),
		TeacherDashboardHandler: query.NewGetTeacherDashboardHandler(provider.staff, feed),
		LessonHistoryHandler:    query.NewGetLessonHistoryHandler(provider.directory, provider.lessons),
		ExportEnabled: func(sessionID, profile string) bool {
			return flags.ReportsExport(&config.FeatureContext{SessionID: sessionID, Profile: profile})
		},
		Metrics: func() any {
			out := map[string]any{"jobs": jobs.ListJobs()}
			if m := bus.Metrics(); m != nil {
				out["events"] = m.Snapshot()
			}
			return out
		},
		Logger:        log,
		HealthChecker: health,
	})

	// ─────────────────────────────────────────────────────────────────────────
	// 9. RUN UNTIL SIGNAL
	// ─────────────────────────────────────────────────────────────────────────
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := httpServer.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server error: %w", err)
		}
		return nil
	})

	if err := jobs.Start(gctx); err != nil {
		return fmt.Errorf("failed to start scheduler: %w", err)
	}

	g.Go(func() error {
		<-gctx.Done()
		log.Info("starting graceful shutdown", logger.Duration("timeout", cfg.App.ShutdownTimeout))

		_ = jobs.Stop()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.App.ShutdownTimeout)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("failed to stop HTTP server gracefully: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		log.Error("shutdown completed with errors", logger.Err(err))
		return err
	}
	log.Info("shutdown completed successfully")
	return nil
}

// ══════════════════════════════════════════════════════════════════════════════
// CONNECTIONS
// ══════════════════════════════════════════════════════════════════════════════

func connectPostgres(ctx context.Context, cfg *config.Config, log *slog.Logger) (*postgres.Connection, error) {
	r := retry.StartupRetrier(func(attempt int, err error, delay time.Duration) {
		log.Warn("database not ready, retrying", "attempt", attempt, "delay", delay.String(), "error", err)
	})
	conn, err := postgres.Dial(ctx, r, cfg.Database.URL, poolOptions(cfg))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	log.Info("database connection established")
	return conn, nil
}

func poolOptions(cfg *config.Config) postgres.PoolOptions {
	return postgres.PoolOptions{
		MaxConns:        int32(cfg.Database.MaxConns),
		MinConns:        int32(cfg.Database.MinConns),
		MaxConnLifetime: cfg.Database.ConnMaxLifetime,
		MaxConnIdleTime: cfg.Database.ConnMaxIdleTime,
	}
}

func connectRedis(ctx context.Context, cfg *config.Config, log *slog.Logger) (*redis.Cache, error) {
	redisCfg := redis.DefaultConfig()
	redisCfg.Host = cfg.Redis.Host
	redisCfg.Port = cfg.Redis.Port
	redisCfg.Password = cfg.Redis.Password
	redisCfg.DB = cfg.Redis.DB
	redisCfg.PoolSize = cfg.Redis.PoolSize
	redisCfg.MinIdleConns = cfg.Redis.MinIdleConns
	redisCfg.DialTimeout = cfg.Redis.DialTimeout
	redisCfg.ReadTimeout = cfg.Redis.ReadTimeout
	redisCfg.WriteTimeout = cfg.Redis.WriteTimeout

	cache, err := retry.DoWithData(ctx, func(context.Context) (*redis.Cache, error) {
		return redis.NewCache(redisCfg)
	}, retry.WithMaxAttempts(3), retry.WithInitialDelay(500*time.Millisecond))
	if err != nil {
		return nil, err
	}
	log.Info("redis connection established", "addr", redisCfg.Addr())
	return cache, nil
}

func newEventBus(ctx context.Context, cfg *config.Config, cache *redis.Cache, log *slog.Logger) (eventBus, error) {
	local := messaging.DefaultInMemoryEventBusConfig()
	local.Logger = log

	if cache == nil {
		return messaging.NewInMemoryEventBus(local), nil
	}

	bus, err := messaging.NewRedisEventBus(ctx, messaging.RedisEventBusConfig{
		Client:         cache.Client(),
		Channel:        cfg.Redis.EventChannel,
		LocalBusConfig: local,
		Logger:         log,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to start redis event bus: %w", err)
	}
	return bus, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// LOGGING
// ══════════════════════════════════════════════════════════════════════════════

// setupLogger builds the structured logger used by the HTTP layer and workflows.
func setupLogger(cfg *config.Config) *logger.Logger {
	opts := logger.DefaultOptions()
	opts.Level = logger.ParseLevel(cfg.Observability.LogLevel)
	if cfg.App.Debug {
		opts.Level = logger.LevelDebug
	}
	if cfg.Observability.LogFormat == "text" {
		opts.Format = logger.FormatText
	}
	return logger.New(opts).With(logger.String("app", cfg.App.Name))
}

// setupSlog configures log/slog for the event bus, the cache and the activity feed.
func setupSlog(cfg *config.Config) *slog.Logger {
	opts := &slog.HandlerOptions{Level: slog.LevelInfo}
	if cfg.App.Debug {
		opts.Level = slog.LevelDebug
	}

	var handler slog.Handler
	if cfg.Observability.LogFormat == "text" {
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}

	log := slog.New(handler).With("app", cfg.App.Name)
	slog.SetDefault(log)
	return log
}
