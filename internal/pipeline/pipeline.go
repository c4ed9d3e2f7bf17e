package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/tallgrasslabs/weathermate-ingest/internal/domain"
	"github.com/tallgrasslabs/weathermate-ingest/internal/observability"
)

// BlockSource obtains one raw response block from the station.
type BlockSource interface {
	FetchBlock(ctx context.Context) ([]byte, error)
}

// Transformer decodes a raw block into an observation record. The second
// return value is false when the block was absent or structurally unusable.
type Transformer interface {
	Transform(raw []byte) (domain.Record, bool)
}

// Loader hands a decoded record to the observation sink.
type Loader interface {
	Publish(ctx context.Context, rec domain.Record) error
}

// Pipeline drives the poll-decode-publish loop at a fixed cadence.
type Pipeline struct {
	source   BlockSource
	decoder  Transformer
	sink     Loader
	logger   *slog.Logger
	metrics  *observability.Metrics
	clock    clockwork.Clock
	interval time.Duration
	ready    atomic.Bool
}

// New creates a Pipeline with the given stages and observability. Pass a fake
// clock in tests to control the poll cadence.
func New(src BlockSource, dec Transformer, sink Loader, logger *slog.Logger, metrics *observability.Metrics, clk clockwork.Clock, interval time.Duration) *Pipeline {
	return &Pipeline{
		source:   src,
		decoder:  dec,
		sink:     sink,
		logger:   logger,
		metrics:  metrics,
		clock:    clk,
		interval: interval,
	}
}

// CheckReadiness returns nil once the pipeline has published at least one
// record, or an error describing why the service is not yet ready.
func (p *Pipeline) CheckReadiness(_ context.Context) error {
	if !p.ready.Load() {
		return errors.New("no observation published yet")
	}
	return nil
}

// Run polls immediately and then on every tick of the poll interval until the
// context is cancelled. One block is processed to completion per cycle; a bad
// cycle never stops the loop, because continuous polling of the station
// matters more than any single sample.
func (p *Pipeline) Run(ctx context.Context) error {
	p.logger.Info("pipeline started", "poll_interval", p.interval)
	p.metrics.PipelineRunning.Set(1)
	defer p.metrics.PipelineRunning.Set(0)

	ticker := p.clock.NewTicker(p.interval)
	defer ticker.Stop()

	p.pollOnce(ctx)

	for {
		select {
		case <-ctx.Done():
			p.logger.Info("pipeline stopping", "reason", ctx.Err())
			return nil
		case <-ticker.Chan():
			p.pollOnce(ctx)
		}
	}
}

// pollOnce runs a single poll-decode-publish cycle.
func (p *Pipeline) pollOnce(ctx context.Context) {
	start := time.Now()
	p.metrics.BlocksPolled.Inc()

	block, err := p.source.FetchBlock(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		p.logger.Warn("poll produced no block", "error", err)
		p.metrics.PollErrors.Inc()
		p.metrics.StationUp.Set(0)
		return
	}
	p.metrics.StationUp.Set(1)

	rec, ok := p.decoder.Transform(block)
	if !ok {
		p.logger.Warn("block unusable, skipping cycle", "bytes", len(block))
		p.metrics.EmptyBlocks.Inc()
		return
	}

	p.metrics.FieldsPerBlock.Observe(float64(len(rec.Fields)))
	if len(rec.Fields) == 0 {
		p.logger.Debug("block contained no readable fields")
		p.metrics.EmptyBlocks.Inc()
		return
	}
	p.metrics.BlocksDecoded.Inc()
	p.metrics.FieldsDecoded.Add(float64(len(rec.Fields)))

	if err := p.sink.Publish(ctx, rec); err != nil {
		if ctx.Err() != nil {
			return
		}
		p.logger.Error("publish failed, dropping record", "error", err, "station", rec.Station, "fields", len(rec.Fields))
		p.metrics.PublishErrors.Inc()
		return
	}

	p.ready.Store(true)
	p.metrics.PollDuration.Observe(time.Since(start).Seconds())
	p.logger.Debug("record published", "station", rec.Station, "fields", len(rec.Fields))
}
