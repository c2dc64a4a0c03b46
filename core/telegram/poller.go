package telegram

import (
	"net"
	"strconv"
	"strings"
	"time"

	coreconfig "github.com/m3rciful/meteobot/core/config"

	tele "gopkg.in/telebot.v4"
)

const defaultLongPollTimeout = 10

// WebhookOptions declares webhook listener settings.
type WebhookOptions struct {
	Listen   string
	Port     int
	URL      string
	CertFile string
	KeyFile  string
}

// PollerOptions configures BuildPoller.
type PollerOptions struct {
	RunMode                string
	LongPollTimeoutSeconds int
	Webhook                WebhookOptions
}

// BuildPoller returns a webhook listener or a long poller depending on the run mode.
func BuildPoller(opts PollerOptions) tele.Poller {
	if strings.EqualFold(strings.TrimSpace(opts.RunMode), coreconfig.RunModeWebhook) {
		wh := &tele.Webhook{
			Listen:   net.JoinHostPort(opts.Webhook.Listen, strconv.Itoa(opts.Webhook.Port)),
			Endpoint: &tele.WebhookEndpoint{PublicURL: opts.Webhook.URL},
		}
		if opts.Webhook.CertFile != "" && opts.Webhook.KeyFile != "" {
			wh.TLS = &tele.WebhookTLS{Key: opts.Webhook.KeyFile, Cert: opts.Webhook.CertFile}
			wh.Endpoint.Cert = opts.Webhook.CertFile
		}
		return wh
	}
	return &tele.LongPoller{Timeout: time.Duration(longPollTimeout(opts.LongPollTimeoutSeconds)) * time.Second}
}

func longPollTimeout(seconds int) int {
	if seconds <= 0 {
		return defaultLongPollTimeout
	}
	return seconds
}
