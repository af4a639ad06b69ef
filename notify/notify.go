package notify

import (
	"context"
	"fmt"
	"net/http"
	"time"

	log "github.com/sirupsen/logrus"
	"go.uber.org/multierr"
	"sklandapi/config"
)

const (
	Title         = "森空岛签到"
	notifyTimeout = 15 * time.Second
)

// Notifier delivers one text message to a channel.
type Notifier interface {
	Name() string
	Send(ctx context.Context, title, content string) error
}

type Dispatcher struct {
	Notifiers []Notifier
}

// FromConfig builds the channels that are configured, in priority order.
func FromConfig(cfg *config.Config, client *http.Client) *Dispatcher {
	if client == nil {
		client = &http.Client{Timeout: notifyTimeout}
	}

	d := &Dispatcher{}
	ql := cfg.Qinglong
	if ql.Token != "" || (ql.ClientID != "" && ql.ClientSecret != "") {
		d.Notifiers = append(d.Notifiers, &Qinglong{
			BaseURL:      ql.APIBase,
			Token:        ql.Token,
			ClientID:     ql.ClientID,
			ClientSecret: ql.ClientSecret,
			HTTP:         client,
		})
	} else {
		log.Debug("qinglong notify is not configured (QL_CLIENT_ID/QL_CLIENT_SECRET or QL_NOTIFY_TOKEN), skipping")
	}

	if cfg.QmsgKey != "" {
		d.Notifiers = append(d.Notifiers, &Qmsg{Key: cfg.QmsgKey, HTTP: client})
	}
	return d
}

// Dispatch tries every channel. It reports whether at least one delivered;
// channel failures are collected and never stop the others.
func (d *Dispatcher) Dispatch(ctx context.Context, title, content string) (bool, error) {
	var errs error
	sent := false

	for _, n := range d.Notifiers {
		if err := n.Send(ctx, title, content); err != nil {
			log.Warnf("%s notify failed: %v", n.Name(), err)
			errs = multierr.Append(errs, fmt.Errorf("%s: %w", n.Name(), err))
			continue
		}
		log.Infof("%s notify sent", n.Name())
		sent = true
	}

	if !sent {
		log.Info("未配置推送渠道，仅输出到控制台")
	}
	return sent, errs
}
