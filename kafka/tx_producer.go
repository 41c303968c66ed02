package kafka

import (
	// Go Internal Packages
	"context"
	"sync"

	// Local Packages
	errors "tx-producer/errors"
	models "tx-producer/models"

	// External Packages
	"github.com/twmb/franz-go/pkg/kgo"
	"github.com/twmb/franz-go/plugin/kprom"
	"go.uber.org/zap"
)

type ProducerConfig struct {
	Brokers  []string
	ClientID string
	Topic    string
	TLS      TLSConfig
}

// State is the lifecycle state of the broker connection
type State int32

const (
	Disconnected State = iota
	Connecting
	Connected
	Disconnecting
)

func (s State) String() string {
	switch s {
	case Connecting:
		return "connecting"
	case Connected:
		return "connected"
	case Disconnecting:
		return "disconnecting"
	}
	return "disconnected"
}

// client is the part of *kgo.Client the producer uses
type client interface {
	Ping(ctx context.Context) error
	Flush(ctx context.Context) error
	ProduceSync(ctx context.Context, rs ...*kgo.Record) kgo.ProduceResults
	Close()
}

var newClient = func(opts ...kgo.Opt) (client, error) {
	return kgo.NewClient(opts...)
}

type TxProducer struct {
	Config *ProducerConfig
	Logger *zap.Logger

	mu     sync.Mutex
	client client
	state  State
}

// Connect creates an authenticated client and verifies the brokers accept it.
// No retry is attempted, every failure is a Connection error.
func Connect(ctx context.Context, conf *ProducerConfig, metrics *kprom.Metrics, logger *zap.Logger) (*TxProducer, error) {
	p := &TxProducer{Config: conf, Logger: logger, state: Connecting}
	logger.Info("connecting to kafka", zap.Strings("brokers", conf.Brokers), zap.String("topic", conf.Topic))

	if len(conf.Brokers) == 0 {
		return nil, errors.ConnectErr("no brokers configured", nil)
	}

	tlsConf, err := NewTLSConfig(conf.TLS)
	if err != nil {
		return nil, err
	}

	opts := []kgo.Opt{
		kgo.SeedBrokers(conf.Brokers...),                      // Connects to Kafka brokers
		kgo.DialTLSConfig(tlsConf),                            // Mutual TLS on every broker connection
		kgo.DefaultProduceTopic(conf.Topic),                   // Records without a topic go here
		kgo.RequiredAcks(kgo.AllISRAcks()),                    // Wait for the full ISR before acking
		kgo.ProducerBatchCompression(kgo.SnappyCompression()), // Compresses each produced batch
	}
	if conf.ClientID != "" {
		opts = append(opts, kgo.ClientID(conf.ClientID))
	}
	if metrics != nil {
		opts = append(opts, kgo.WithHooks(metrics)) // Attaches monitoring hooks
	}

	cl, err := newClient(opts...)
	if err != nil || cl == nil {
		return nil, errors.ConnectErr("cannot create kafka client", err)
	}

	// kgo dials lazily, ping forces the TLS handshake
	if err = cl.Ping(ctx); err != nil {
		cl.Close()
		return nil, errors.ConnectErr("cannot reach brokers", err)
	}

	p.client = cl
	p.state = Connected
	logger.Info("connected to kafka")
	return p, nil
}

func (p *TxProducer) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// Publish produces the batch and waits until every record is acknowledged
func (p *TxProducer) Publish(ctx context.Context, topic string, batch models.Batch) error {
	p.mu.Lock()
	cl, state := p.client, p.state
	p.mu.Unlock()

	if state != Connected {
		return errors.PublishErr(topic, len(batch), errors.New("producer is "+state.String()))
	}

	records := make([]*kgo.Record, len(batch))
	for idx, msg := range batch {
		records[idx] = &kgo.Record{Topic: topic, Key: msg.Key, Value: msg.Value}
	}

	if err := cl.ProduceSync(ctx, records...).FirstErr(); err != nil {
		return errors.PublishErr(topic, len(batch), err)
	}
	return nil
}

// Disconnect flushes anything still buffered, bounded by ctx, and closes the
// client. Calls after the first are no-ops.
func (p *TxProducer) Disconnect(ctx context.Context) {
	p.mu.Lock()
	if p.state != Connected {
		p.mu.Unlock()
		return
	}
	p.state = Disconnecting
	cl := p.client
	p.mu.Unlock()

	defer func() {
		if r := recover(); r != nil {
			p.Logger.Warn("kafka client close panicked", zap.Any("panic", r))
		}
		p.mu.Lock()
		p.client = nil
		p.state = Disconnected
		p.mu.Unlock()
	}()

	p.Logger.Info("disconnecting from kafka")
	if err := cl.Flush(ctx); err != nil {
		p.Logger.Warn("cannot flush buffered records", zap.Error(err))
	}
	cl.Close()
}
