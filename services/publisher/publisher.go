package publisher

import (
	// Go Internal Packages
	"context"
	"errors"
	"sync/atomic"

	// Local Packages
	models "tx-producer/models"

	// External Packages
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// State is the lifecycle state of the publish loop
type State int32

const (
	Idle State = iota
	Running
	ShuttingDown
	Terminated
)

func (s State) String() string {
	switch s {
	case Running:
		return "running"
	case ShuttingDown:
		return "shutting down"
	case Terminated:
		return "terminated"
	}
	return "idle"
}

type BatchAssembler interface {
	Assemble() (models.Batch, error)
}

type BatchSink interface {
	Publish(ctx context.Context, topic string, batch models.Batch) error
}

type BatchObserver interface {
	ObserveBatch(size int, err error)
}

type Publisher struct {
	Topic     string
	Assembler BatchAssembler
	Sink      BatchSink
	Observer  BatchObserver
	Logger    *zap.Logger

	limiter *rate.Limiter
	state   atomic.Int32
	batches atomic.Uint64
}

// NewPublisher wires the loop. A positive batchesPerSecond paces iterations,
// zero publishes back to back.
func NewPublisher(topic string, assembler BatchAssembler, sink BatchSink, observer BatchObserver, batchesPerSecond float64, logger *zap.Logger) *Publisher {
	p := &Publisher{Topic: topic, Assembler: assembler, Sink: sink, Observer: observer, Logger: logger}
	if batchesPerSecond > 0 {
		p.limiter = rate.NewLimiter(rate.Limit(batchesPerSecond), 1)
	}
	return p
}

func (p *Publisher) State() State {
	return State(p.state.Load())
}

// Batches returns how many batches were acknowledged so far
func (p *Publisher) Batches() uint64 {
	return p.batches.Load()
}

// Run publishes one batch per iteration until ctx is done or an error occurs.
// Each publish is awaited before the next batch is assembled. Errors are
// returned unchanged and never retried; cancellation returns nil.
func (p *Publisher) Run(ctx context.Context) error {
	if !p.state.CompareAndSwap(int32(Idle), int32(Running)) {
		return errors.New("publisher already " + p.State().String())
	}
	defer p.state.Store(int32(Terminated))

	p.Logger.Info("publishing transactions", zap.String("topic", p.Topic))
	for {
		if ctx.Err() != nil {
			return p.stop()
		}

		if p.limiter != nil {
			if err := p.limiter.Wait(ctx); err != nil {
				return p.stop()
			}
		}

		batch, err := p.Assembler.Assemble()
		if err != nil {
			p.state.Store(int32(ShuttingDown))
			return err
		}

		err = p.Sink.Publish(ctx, p.Topic, batch)
		if p.Observer != nil {
			p.Observer.ObserveBatch(len(batch), err)
		}
		if err != nil {
			if ctx.Err() != nil {
				return p.stop()
			}
			p.state.Store(int32(ShuttingDown))
			return err
		}

		published := p.batches.Add(1)
		p.Logger.Debug("batch published", zap.Int("size", len(batch)), zap.Uint64("batches", published))
	}
}

func (p *Publisher) stop() error {
	p.state.Store(int32(ShuttingDown))
	p.Logger.Warn("Publishing stopped: context canceled", zap.Uint64("batches", p.batches.Load()))
	return nil
}
