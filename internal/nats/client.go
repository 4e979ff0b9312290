// Package nats manages the NATS JetStream connection and the outreach event stream.
package nats

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"go.uber.org/zap"

	"github.com/capitalize-ai/prospecting-platform/pkg/logger"
)

// Config holds NATS connection configuration.
type Config struct {
	URL string
	// CAFile, CertFile and KeyFile enable mutual TLS when all three are set.
	CAFile   string
	CertFile string
	KeyFile  string
	Token    string
}

func (c Config) options(log *logger.Logger) []nats.Option {
	opts := []nats.Option{
		nats.Name("prospecting-platform"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2 * time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			log.Warn("NATS disconnected", zap.Error(err))
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Info("NATS reconnected", zap.String("url", nc.ConnectedUrl()))
		}),
		nats.ErrorHandler(func(_ *nats.Conn, sub *nats.Subscription, err error) {
			fields := []zap.Field{zap.Error(err)}
			if sub != nil {
				fields = append(fields, zap.String("subject", sub.Subject))
			}
			log.Error("NATS async error", fields...)
		}),
	}
	if c.CAFile != "" && c.CertFile != "" && c.KeyFile != "" {
		opts = append(opts, nats.RootCAs(c.CAFile), nats.ClientCert(c.CertFile, c.KeyFile))
	}
	if c.Token != "" {
		opts = append(opts, nats.Token(c.Token))
	}
	return opts
}

// Client owns the NATS connection and its JetStream handle.
type Client struct {
	conn   *nats.Conn
	js     jetstream.JetStream
	logger *logger.Logger
}

// Connect dials NATS. The context deadline, if any, bounds the dial.
func Connect(ctx context.Context, cfg Config, log *logger.Logger) (*Client, error) {
	opts := cfg.options(log)
	if deadline, ok := ctx.Deadline(); ok {
		opts = append(opts, nats.Timeout(time.Until(deadline)))
	}

	nc, err := nats.Connect(cfg.URL, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	js, err := jetstream.New(nc)
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("failed to create JetStream context: %w", err)
	}

	log.Info("connected to NATS", zap.String("url", nc.ConnectedUrl()))
	return &Client{conn: nc, js: js, logger: log}, nil
}

// JetStream returns the JetStream handle.
func (c *Client) JetStream() jetstream.JetStream {
	return c.js
}

// Close drains pending publishes, falling back to a hard close.
func (c *Client) Close() {
	if err := c.conn.Drain(); err != nil {
		c.logger.Warn("NATS drain failed", zap.Error(err))
		c.conn.Close()
	}
}

// Ping round-trips to the server.
func (c *Client) Ping(ctx context.Context) error {
	if !c.conn.IsConnected() {
		return errors.New("nats: not connected")
	}
	return c.conn.FlushWithContext(ctx)
}
