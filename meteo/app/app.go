// Package app assembles meteobot: configuration, storage, the dialog and the
// Telegram runtime hooks.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"
	"golang.org/x/sync/errgroup"

	"github.com/m3rciful/meteobot/core/bootstrap"
	"github.com/m3rciful/meteobot/core/cmd"
	"github.com/m3rciful/meteobot/core/logger"
	"github.com/m3rciful/meteobot/core/ops"
	tg "github.com/m3rciful/meteobot/core/telegram"
	"github.com/m3rciful/meteobot/core/telegram/commands"
	tghelpers "github.com/m3rciful/meteobot/core/telegram/helpers"
	tgrouter "github.com/m3rciful/meteobot/core/telegram/router"
	tgsender "github.com/m3rciful/meteobot/core/telegram/sender"
	"github.com/m3rciful/meteobot/core/telegram/state"
	"github.com/m3rciful/meteobot/meteo/config"
	"github.com/m3rciful/meteobot/meteo/dialog"
	"github.com/m3rciful/meteobot/meteo/journal"
	"github.com/m3rciful/meteobot/meteo/messages"
	"github.com/m3rciful/meteobot/meteo/weather"
)

// App owns every long-lived component of the bot.
type App struct {
	cfg      *config.Config
	infra    *bootstrap.Result
	sessions *state.Store
	journal  journal.Store
	router   *dialog.Router
	registry *tg.Registry
	outbox   *tgsender.Dispatcher

	ops        *ops.Server
	background *errgroup.Group
	stopJobs   context.CancelFunc
}

// Bootstrap is the cmd.Options hook: it initializes logging and storage and
// builds the App.
func Bootstrap(carrier cmd.ConfigCarrier) (cmd.TelegramApp, error) {
	cfg, ok := carrier.(*config.Config)
	if !ok {
		return nil, fmt.Errorf("app: unexpected config type %T", carrier)
	}
	infra, err := bootstrap.Run(bootstrap.Options{
		Config:        cfg.CoreConfig(),
		Database:      cfg.Database,
		Migrations:    journal.Migrations,
		MigrationsDir: "migrations",
	})
	if err != nil {
		return nil, err
	}
	a := New(cfg, infra.DB)
	a.infra = infra
	return a, nil
}

// New wires the app over an optional database; a nil db keeps the journal
// in memory.
func New(cfg *config.Config, db *sqlx.DB) *App {
	var store journal.Store
	if db != nil {
		store = journal.NewPostgres(db)
	} else {
		store = journal.NewMemory(cfg.Journal.Capacity)
	}

	client := weather.New(weather.Options{
		BaseURL: cfg.Weather.BaseURL,
		APIKey:  cfg.Weather.APIKey,
		Lang:    cfg.Weather.Lang,
		Timeout: cfg.Weather.Timeout(),
	})
	sessions := state.NewStore()

	return &App{
		cfg:      cfg,
		sessions: sessions,
		journal:  store,
		router:   dialog.NewRouter(sessions, dialog.NewMachine(client, store)),
		registry: NewRegistry(),
	}
}

// NewRegistry declares the bot commands shown in the Telegram menu. The
// set is fixed, so a registration error is a programming mistake.
func NewRegistry() *tg.Registry {
	reg := tg.NewRegistry()
	for name, desc := range map[string]string{
		dialog.CommandStart: messages.CommandStartDescription,
		dialog.CommandMenu:  messages.CommandMenuDescription,
	} {
		if err := reg.RegisterCommand(name, commands.Command{Description: desc}); err != nil {
			panic(err)
		}
	}
	return reg
}

// TelegramRunOptions implements cmd.TelegramApp.
func (a *App) TelegramRunOptions() (tg.RunOptions, error) {
	core := a.cfg.CoreConfig()
	return tg.RunOptions{
		Config:   core,
		Registry: a.registry,
		DispatcherOptions: tgsender.Options{
			QueueSize:   core.Sender.QueueSize,
			Workers:     core.Sender.Workers,
			MaxRetries:  core.Sender.MaxRetries,
			MaxDuration: secondsOrZero(core.Sender.MaxDurationSeconds),
		},
		Middlewares: tg.DefaultMiddlewares(),
		Routes:      tgrouter.EventRoutes(a.router, a.registry),
		OnStart:     a.onStart,
		OnStop:      a.onStop,
	}, nil
}

// SenderStats counts outbound Telegram jobs by outcome.
type SenderStats struct {
	Sent   uint64 `json:"sent"`
	Failed uint64 `json:"failed"`
}

// Stats is the ops snapshot: live sessions, the lookup journal and the
// outbound queue.
func (a *App) Stats(ctx context.Context) (any, error) {
	summary, err := a.journal.Summary(ctx, a.cfg.Journal.Recent)
	if err != nil {
		return nil, fmt.Errorf("app: journal summary: %w", err)
	}
	var sender SenderStats
	if a.outbox != nil {
		sender = SenderStats{Sent: a.outbox.Sent(), Failed: a.outbox.ErrorCount()}
	}
	return struct {
		Sessions state.Stats     `json:"sessions"`
		Lookups  journal.Summary `json:"lookups"`
		Sender   SenderStats     `json:"sender"`
	}{a.router.Stats(), summary, sender}, nil
}

func (a *App) onStart(ctx context.Context, rt tg.Runtime) error {
	if err := tg.PublishCommands(rt.Bot, rt.Registry); err != nil {
		logger.Warn(ctx, "app", "commands.publish",
			slog.String("status", "fail"),
			slog.String("err", err.Error()),
		)
	}

	a.outbox = rt.Dispatcher
	if listen := a.cfg.Ops.Listen; listen != "" {
		srv, err := ops.Start(listen, a.Stats)
		if err != nil {
			return err
		}
		a.ops = srv
	}

	jobsCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	a.stopJobs = cancel
	a.background = &errgroup.Group{}
	if ttl := a.cfg.Sessions.IdleTTL(); ttl > 0 {
		a.background.Go(func() error {
			a.sessions.RunJanitor(jobsCtx, a.cfg.Sessions.SweepInterval(), ttl)
			return nil
		})
	}

	a.notifyAdmin(ctx, rt, messages.AdminStartup)
	return nil
}

func (a *App) onStop(ctx context.Context, rt tg.Runtime) error {
	a.notifyAdmin(ctx, rt, messages.AdminShutdown)

	if a.stopJobs != nil {
		a.stopJobs()
		_ = a.background.Wait()
	}
	return a.ops.Shutdown(ctx)
}

func (a *App) notifyAdmin(ctx context.Context, rt tg.Runtime, text string) {
	adminID := a.cfg.Telegram.AdminID
	if adminID == 0 {
		logger.Error(ctx, "app", "admin.notify",
			slog.String("status", "skip"),
			slog.String("error_kind", "config"),
			slog.String("err", "telegram.admin_id is not set"),
		)
		return
	}
	if err := tghelpers.Notify(ctx, rt.Dispatcher, rt.Bot, adminID, text); err != nil {
		logger.Warn(ctx, "app", "admin.notify",
			slog.String("status", "fail"),
			slog.String("err", err.Error()),
		)
	}
}

// Close stops background jobs and releases storage.
func (a *App) Close() error {
	if a.stopJobs != nil {
		a.stopJobs()
	}
	if err := a.infra.Close(); err != nil {
		return fmt.Errorf("app: close database: %w", err)
	}
	return nil
}

func secondsOrZero(s int) time.Duration {
	if s <= 0 {
		return 0
	}
	return time.Duration(s) * time.Second
}
