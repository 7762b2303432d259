package events

import (
	"context"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	apperrors "github.com/chris-coyne/job-scraping-pipeline/internal/errors"
)

const connectTimeout = 10 * time.Second

// NATSPublisher sends run events to one subject.
type NATSPublisher struct {
	nc      *nats.Conn
	subject string
	logger  *zap.Logger
}

func NewNATSPublisher(natsURL, subject string, logger *zap.Logger) (*NATSPublisher, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	opts := []nats.Option{
		nats.Name("job-harvester"),
		nats.Timeout(connectTimeout),
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(-1),
	}

	nc, err := nats.Connect(natsURL, opts...)
	if err != nil {
		return nil, fmt.Errorf("connecting to NATS: %w", err)
	}
	return &NATSPublisher{nc: nc, subject: subject, logger: logger.Named("events")}, nil
}

func (p *NATSPublisher) Publish(ctx context.Context, evt []byte) error {
	if err := p.nc.Publish(p.subject, evt); err != nil {
		p.logger.Error("failed to publish event", zap.String("subject", p.subject), zap.Error(err))
		return apperrors.Unavailable("publishing event", err)
	}
	// flush so a one-shot run does not exit with the event still buffered
	if err := p.nc.FlushWithContext(ctx); err != nil {
		return apperrors.Unavailable("flushing event", err)
	}
	p.logger.Debug("published event", zap.String("subject", p.subject), zap.Int("bytes", len(evt)))
	return nil
}

func (p *NATSPublisher) Close() error {
	if p.nc != nil {
		p.nc.Close()
	}
	return nil
}
