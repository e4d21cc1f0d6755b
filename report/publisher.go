package report

import (
	"encoding/json"
	"log/slog"

	"github.com/nats-io/nats.go"

	"github.com/c360/prodline/errors"
)

// Publisher publishes finished reports to NATS for remote consumption.
// Publishing is optional: with a nil connection the publisher is a
// disabled no-op, so callers never need to branch on configuration.
type Publisher struct {
	nc      *nats.Conn
	subject string
	logger  *slog.Logger
	enabled bool
}

// NewPublisher creates a report publisher. A nil connection disables it.
func NewPublisher(nc *nats.Conn, subject string, logger *slog.Logger) *Publisher {
	if subject == "" {
		subject = "prodline.reports"
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Publisher{
		nc:      nc,
		subject: subject,
		logger:  logger,
		enabled: nc != nil,
	}
}

// Enabled reports whether the publisher has a live connection.
func (p *Publisher) Enabled() bool {
	return p.enabled
}

// Publish sends the report to the configured subject. Disabled
// publishers return nil without side effects.
func (p *Publisher) Publish(r *Report) error {
	if !p.enabled {
		return nil
	}

	data, err := json.Marshal(r.normalized())
	if err != nil {
		return errors.WrapInvalid(err, "Publisher", "Publish", "marshal report")
	}

	if err := p.nc.Publish(p.subject, data); err != nil {
		return errors.WrapTransient(err, "Publisher", "Publish", "publish to NATS")
	}

	p.logger.Info("published run report",
		"subject", p.subject,
		"run_id", r.RunID,
		"bytes", len(data))
	return nil
}
