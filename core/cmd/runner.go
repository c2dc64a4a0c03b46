package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	coreconfig "github.com/m3rciful/meteobot/core/config"
	"github.com/m3rciful/meteobot/core/logger"
	coretelegram "github.com/m3rciful/meteobot/core/telegram"
)

const defaultConfigEnv = "CONFIG_PATH"

// ConfigCarrier is any application config embedding the core section.
type ConfigCarrier interface {
	CoreConfig() *coreconfig.Config
}

// TelegramApp builds the bot run options. Apps that also implement
// io.Closer are closed after the bot stops.
type TelegramApp interface {
	TelegramRunOptions() (coretelegram.RunOptions, error)
}

// Options wires a binary: how to load config, build the app and run it.
type Options struct {
	ConfigEnvVar      string
	DefaultConfigPath string

	LoadConfig func(path string) (ConfigCarrier, error)
	Bootstrap  func(cfg ConfigCarrier) (TelegramApp, error)

	ShutdownLogger func() error
	RunTelegram    func(ctx context.Context, opts coretelegram.RunOptions) error
	// Signals overrides the run context; nil means SIGINT/SIGTERM.
	Signals func() (context.Context, context.CancelFunc)
}

func (o Options) withDefaults() Options {
	if o.ShutdownLogger == nil {
		o.ShutdownLogger = logger.Shutdown
	}
	if o.RunTelegram == nil {
		o.RunTelegram = coretelegram.RunTelegram
	}
	if o.Signals == nil {
		o.Signals = func() (context.Context, context.CancelFunc) {
			return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		}
	}
	return o
}

// ConfigPath picks the config file from env (CONFIG_PATH when empty), then
// fallback.
func ConfigPath(env, fallback string) (string, error) {
	if env == "" {
		env = defaultConfigEnv
	}
	switch p := os.Getenv(env); {
	case p != "":
		return p, nil
	case fallback != "":
		return fallback, nil
	}
	return "", fmt.Errorf("cmd: config path not provided via %s or DefaultConfigPath", env)
}

// Run loads config, bootstraps the app and blocks until the bot stops. The
// app and the logger are closed on the way out.
func Run(opts Options) (err error) {
	if opts.LoadConfig == nil || opts.Bootstrap == nil {
		return errors.New("cmd: LoadConfig and Bootstrap are required")
	}
	opts = opts.withDefaults()
	startedAt := time.Now()

	path, err := ConfigPath(opts.ConfigEnvVar, opts.DefaultConfigPath)
	if err != nil {
		return err
	}
	log.Printf("loading config: %s", path)
	cfg, err := opts.LoadConfig(path)
	if err != nil {
		return fmt.Errorf("cmd: failed to load config: %w", err)
	}
	if cfg == nil || cfg.CoreConfig() == nil {
		return errors.New("cmd: loaded config is missing core configuration")
	}

	app, err := opts.Bootstrap(cfg)
	if err != nil {
		return fmt.Errorf("cmd: bootstrap failed: %w", err)
	}
	defer func() {
		if c, ok := app.(io.Closer); ok {
			if cerr := c.Close(); cerr != nil {
				err = errors.Join(err, fmt.Errorf("cmd: close app: %w", cerr))
			}
		}
		if lerr := opts.ShutdownLogger(); lerr != nil {
			log.Printf("logger shutdown error: %v", lerr)
		}
	}()

	runOpts, err := app.TelegramRunOptions()
	if err != nil {
		return fmt.Errorf("cmd: telegram options build failed: %w", err)
	}
	ctx, cancel := opts.Signals()
	defer cancel()
	return opts.RunTelegram(ctx, announced(runOpts, startedAt))
}

// announced logs readiness after the app's own OnStart succeeds and the
// shutdown before its OnStop runs.
func announced(o coretelegram.RunOptions, startedAt time.Time) coretelegram.RunOptions {
	onStart, onStop := o.OnStart, o.OnStop
	o.OnStart = func(ctx context.Context, rt coretelegram.Runtime) error {
		if onStart != nil {
			if err := onStart(ctx, rt); err != nil {
				return err
			}
		}
		logger.Info(ctx, "app", "ready", slog.Duration("startup_duration", time.Since(startedAt)))
		return nil
	}
	o.OnStop = func(ctx context.Context, rt coretelegram.Runtime) error {
		logger.Info(ctx, "app", "shutdown")
		if onStop == nil {
			return nil
		}
		return onStop(ctx, rt)
	}
	return o
}
