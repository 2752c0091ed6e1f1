// Package source fetches packet batches from the capture backend and hands
// them to the engine on a fixed interval.
package source

import (
	"context"
	"time"

	log "github.com/sirupsen/logrus"

	"caramelo/internal/metrics"
	"caramelo/internal/models"
)

// Source produces the backend's full current packet list.
type Source interface {
	Name() string
	Fetch(ctx context.Context) ([]models.Packet, error)
}

// CaptureController is implemented by sources that can switch the backend's
// capture on and off. The returned string is the backend's status text.
type CaptureController interface {
	StartCapture(ctx context.Context) (string, error)
	StopCapture(ctx context.Context) (string, error)
}

// Sink receives every successfully fetched batch.
type Sink interface {
	Ingest(source string, packets []models.Packet)
}

// Poller fetches from a Source immediately and then on every tick.
type Poller struct {
	src      Source
	interval time.Duration
	sink     Sink
}

// NewPoller creates a poller. A non-positive interval means one second.
func NewPoller(src Source, interval time.Duration, sink Sink) *Poller {
	if interval <= 0 {
		interval = time.Second
	}
	return &Poller{src: src, interval: interval, sink: sink}
}

// Run polls until ctx is done. Fetch errors are logged and the next tick
// tries again.
func (p *Poller) Run(ctx context.Context) {
	logger := log.WithFields(log.Fields{
		"source":   p.src.Name(),
		"interval": p.interval,
	})
	logger.Info("Packet poller started")
	defer logger.Info("Packet poller stopped")

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		p.poll(ctx, logger)
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (p *Poller) poll(ctx context.Context, logger *log.Entry) {
	packets, err := p.src.Fetch(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		metrics.SourceErrorsTotal.WithLabelValues(p.src.Name()).Inc()
		logger.WithError(err).Warn("Failed to fetch packet batch")
		return
	}
	p.sink.Ingest(p.src.Name(), packets)
}
