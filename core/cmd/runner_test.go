package cmd

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	coreconfig "github.com/m3rciful/meteobot/core/config"
	coretelegram "github.com/m3rciful/meteobot/core/telegram"
)

type carrier struct{ core *coreconfig.Config }

func (c carrier) CoreConfig() *coreconfig.Config { return c.core }

type fakeApp struct {
	closed   bool
	closeErr error
}

func (a *fakeApp) TelegramRunOptions() (coretelegram.RunOptions, error) {
	return coretelegram.RunOptions{Config: &coreconfig.Config{}}, nil
}

func (a *fakeApp) Close() error {
	a.closed = true
	return a.closeErr
}

func baseOptions(app *fakeApp, run func(context.Context, coretelegram.RunOptions) error) Options {
	return Options{
		DefaultConfigPath: "config.yaml",
		LoadConfig: func(string) (ConfigCarrier, error) {
			return carrier{core: &coreconfig.Config{}}, nil
		},
		Bootstrap:      func(ConfigCarrier) (TelegramApp, error) { return app, nil },
		ShutdownLogger: func() error { return nil },
		RunTelegram:    run,
		Signals: func() (context.Context, context.CancelFunc) {
			return context.WithCancel(context.Background())
		},
	}
}

func TestRunWiresLifecycleAndCloses(t *testing.T) {
	t.Setenv("CONFIG_PATH", "")
	app := &fakeApp{}
	var started, stopped bool
	err := Run(baseOptions(app, func(ctx context.Context, opts coretelegram.RunOptions) error {
		require.NotNil(t, opts.OnStart)
		require.NotNil(t, opts.OnStop)
		started = opts.OnStart(ctx, coretelegram.Runtime{}) == nil
		stopped = opts.OnStop(ctx, coretelegram.Runtime{}) == nil
		return nil
	}))
	require.NoError(t, err)
	assert.True(t, started)
	assert.True(t, stopped)
	assert.True(t, app.closed)
}

func TestRunJoinsCloseError(t *testing.T) {
	app := &fakeApp{closeErr: errors.New("db busy")}
	err := Run(baseOptions(app, func(context.Context, coretelegram.RunOptions) error { return nil }))
	assert.ErrorContains(t, err, "db busy")
}

func TestRunRequiresLoaders(t *testing.T) {
	assert.Error(t, Run(Options{}))
	assert.Error(t, Run(Options{LoadConfig: func(string) (ConfigCarrier, error) { return nil, nil }}))
}

func TestConfigPath(t *testing.T) {
	t.Setenv("METEO_CONFIG", "/etc/meteobot.yaml")
	p, err := ConfigPath("METEO_CONFIG", "config.yaml")
	require.NoError(t, err)
	assert.Equal(t, "/etc/meteobot.yaml", p)

	t.Setenv("CONFIG_PATH", "")
	p, err = ConfigPath("", "config.yaml")
	require.NoError(t, err)
	assert.Equal(t, "config.yaml", p)

	_, err = ConfigPath("", "")
	assert.Error(t, err)
}
