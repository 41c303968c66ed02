package publisher

import (
	// Go Internal Packages
	"context"
	"math/rand"
	"testing"
	"time"

	// Local Packages
	errors "tx-producer/errors"
	models "tx-producer/models"
	generators "tx-producer/services/generators"
	shutdown "tx-producer/shutdown"

	// External Packages
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type recordingSink struct {
	calls     int
	failOn    int
	err       error
	keys      []string
	topics    []string
	onPublish func(call int)
}

func (s *recordingSink) Publish(ctx context.Context, topic string, batch models.Batch) error {
	s.calls++
	if s.onPublish != nil {
		s.onPublish(s.calls)
	}
	if s.failOn > 0 && s.calls == s.failOn {
		return errors.PublishErr(topic, len(batch), s.err)
	}
	s.topics = append(s.topics, topic)
	s.keys = append(s.keys, batch.Keys()...)
	return nil
}

type recordingAssembler struct {
	inner BatchAssembler
	calls int
	keys  []string
}

func (a *recordingAssembler) Assemble() (models.Batch, error) {
	a.calls++
	batch, err := a.inner.Assemble()
	a.keys = append(a.keys, batch.Keys()...)
	return batch, err
}

type failingAssembler struct{}

func (failingAssembler) Assemble() (models.Batch, error) {
	return nil, errors.E(errors.Generation, "boom", nil)
}

type countingObserver struct {
	ok, failed int
}

func (o *countingObserver) ObserveBatch(size int, err error) {
	if err != nil {
		o.failed++
		return
	}
	o.ok++
}

func newAssembler(seed int64, maxSize int) *recordingAssembler {
	rng := rand.New(rand.NewSource(seed))
	gen := generators.NewTxGenerator(rng, nil)
	return &recordingAssembler{inner: generators.NewBatchAssembler(rng, gen, maxSize)}
}

func TestRunStopsOnPublishFailure(t *testing.T) {
	assembler := newAssembler(1, 20)
	sink := &recordingSink{failOn: 7, err: errors.New("connection reset by peer")}
	observer := &countingObserver{}
	p := NewPublisher("transactions", assembler, sink, observer, 0, zap.NewNop())

	err := p.Run(context.Background())
	require.Error(t, err)
	assert.True(t, errors.IsKind(err, errors.Publish))
	assert.Contains(t, err.Error(), "connection reset by peer")

	assert.Equal(t, 7, sink.calls)
	assert.Equal(t, 7, assembler.calls, "no batch is assembled after the failed publish")
	assert.Equal(t, uint64(6), p.Batches())
	assert.Equal(t, 6, observer.ok)
	assert.Equal(t, 1, observer.failed)
	assert.Equal(t, Terminated, p.State())
}

func TestRunPreservesKeyOrder(t *testing.T) {
	assembler := newAssembler(2, 50)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sink := &recordingSink{onPublish: func(call int) {
		if call == 10 {
			cancel()
		}
	}}
	p := NewPublisher("transactions", assembler, sink, nil, 0, zap.NewNop())

	require.NoError(t, p.Run(ctx))
	assert.Equal(t, 10, sink.calls)
	assert.Equal(t, assembler.keys, sink.keys)
	for _, topic := range sink.topics {
		assert.Equal(t, "transactions", topic)
	}
}

func TestRunCanceledBeforeStart(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	sink := &recordingSink{}
	p := NewPublisher("transactions", newAssembler(3, 10), sink, nil, 0, zap.NewNop())

	require.NoError(t, p.Run(ctx))
	assert.Zero(t, sink.calls)
	assert.Equal(t, Terminated, p.State())

	err := p.Run(context.Background())
	assert.Error(t, err, "a terminated publisher cannot be restarted")
}

func TestRunAssemblerFailure(t *testing.T) {
	sink := &recordingSink{}
	p := NewPublisher("transactions", failingAssembler{}, sink, nil, 0, zap.NewNop())

	err := p.Run(context.Background())
	assert.True(t, errors.IsKind(err, errors.Generation))
	assert.Zero(t, sink.calls)
}

func TestRunPaced(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sink := &recordingSink{onPublish: func(call int) {
		if call == 3 {
			cancel()
		}
	}}
	p := NewPublisher("transactions", newAssembler(4, 5), sink, nil, 20, zap.NewNop())

	start := time.Now()
	require.NoError(t, p.Run(ctx))
	assert.Equal(t, 3, sink.calls)
	// burst of one, then 50ms per batch
	assert.GreaterOrEqual(t, time.Since(start), 90*time.Millisecond)
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "idle", Idle.String())
	assert.Equal(t, "running", Running.String())
	assert.Equal(t, "shutting down", ShuttingDown.String())
	assert.Equal(t, "terminated", Terminated.String())
}

type trackedConn struct {
	calls int
}

func (c *trackedConn) Disconnect(ctx context.Context) { c.calls++ }

func TestPublishFailureTriggersShutdownOnce(t *testing.T) {
	sink := &recordingSink{failOn: 7, err: errors.New("network is unreachable")}
	conn := &trackedConn{}
	var codes []int

	h := shutdown.NewHandler(zap.NewNop(), time.Second, func(code int) { codes = append(codes, code) })
	h.Track(conn)

	p := NewPublisher("transactions", newAssembler(5, 10), sink, nil, 0, zap.NewNop())
	if err := p.Run(context.Background()); err != nil {
		h.Handle(err)
	}

	assert.Equal(t, []int{1}, codes)
	assert.Equal(t, 1, conn.calls)
	assert.Equal(t, 7, sink.calls)
}

func TestBatchesReadableWhileRunning(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sink := &recordingSink{onPublish: func(call int) {
		if call == 200 {
			cancel()
		}
	}}
	p := NewPublisher("transactions", newAssembler(6, 3), sink, nil, 0, zap.NewNop())

	done := make(chan struct{})
	go func() {
		defer close(done)
		for p.State() != Terminated {
			_ = p.Batches()
		}
	}()

	require.NoError(t, p.Run(ctx))
	<-done
	assert.Equal(t, uint64(200), p.Batches())
}
