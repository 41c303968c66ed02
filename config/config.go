package config

import (
	// Go Internal Packages
	"fmt"
	"time"

	// Local Packages
	errors "tx-producer/errors"
)

var DefaultConfig = []byte(`
application: "tx-producer"

logger:
  level: "info"

is_prod_mode: false

kafka:
  brokers:
    - "localhost:9092"
  topic: "transactions"
  client_id: "tx-producer"
  tls:
    ca_certificate: ""
    access_key: ""
    access_certificate: ""

producer:
  max_batch_size: 500
  seed: 0
  batches_per_second: 0
  disconnect_timeout: "10s"

metrics:
  address: ""
`)

// MaxBatchSize is the largest batch the producer may be configured for
const MaxBatchSize = 500

type Config struct {
	Application string   `koanf:"application"`
	Logger      Logger   `koanf:"logger"`
	IsProdMode  bool     `koanf:"is_prod_mode"`
	Kafka       Kafka    `koanf:"kafka"`
	Producer    Producer `koanf:"producer"`
	Metrics     Metrics  `koanf:"metrics"`
}

type Logger struct {
	Level string `koanf:"level"`
}

type Kafka struct {
	Brokers  []string `koanf:"brokers"`
	Topic    string   `koanf:"topic"`
	ClientID string   `koanf:"client_id"`
	TLS      TLS      `koanf:"tls"`
}

// TLS holds PEM encoded material for the mutual TLS handshake
type TLS struct {
	CACertificate     string `koanf:"ca_certificate" json:"ca_certificate"`
	AccessKey         string `koanf:"access_key" json:"access_key"`
	AccessCertificate string `koanf:"access_certificate" json:"access_certificate"`
}

type Producer struct {
	MaxBatchSize      int           `koanf:"max_batch_size"`
	Seed              int64         `koanf:"seed"`
	BatchesPerSecond  float64       `koanf:"batches_per_second"`
	DisconnectTimeout time.Duration `koanf:"disconnect_timeout"`
}

type Metrics struct {
	Address string `koanf:"address"`
}

// Validate validates the configuration
func (c *Config) Validate() error {
	ve := errors.ValidationErrs()

	if c.Application == "" {
		ve.Add("application", "cannot be empty")
	}
	if c.Logger.Level == "" {
		ve.Add("logger.level", "cannot be empty")
	}
	if len(c.Kafka.Brokers) == 0 {
		ve.Add("kafka.brokers", "cannot be empty")
	}
	for _, broker := range c.Kafka.Brokers {
		if broker == "" {
			ve.Add("kafka.brokers", "cannot contain an empty address")
			break
		}
	}
	if c.Kafka.Topic == "" {
		ve.Add("kafka.topic", "cannot be empty")
	}
	if c.Kafka.TLS.CACertificate == "" {
		ve.Add("kafka.tls.ca_certificate", "cannot be empty")
	}
	if c.Kafka.TLS.AccessKey == "" {
		ve.Add("kafka.tls.access_key", "cannot be empty")
	}
	if c.Kafka.TLS.AccessCertificate == "" {
		ve.Add("kafka.tls.access_certificate", "cannot be empty")
	}
	if c.Producer.MaxBatchSize < 1 || c.Producer.MaxBatchSize > MaxBatchSize {
		ve.Add("producer.max_batch_size", fmt.Sprintf("must be between 1 and %d", MaxBatchSize))
	}
	if c.Producer.BatchesPerSecond < 0 {
		ve.Add("producer.batches_per_second", "cannot be negative")
	}
	if c.Producer.DisconnectTimeout <= 0 {
		ve.Add("producer.disconnect_timeout", "must be positive")
	}

	if err := ve.Err(); err != nil {
		return errors.ValidationFailedErr(err)
	}
	return nil
}

// Redacted returns a copy of the config that is safe to print
func (c Config) Redacted() Config {
	c.Kafka.Brokers = append([]string(nil), c.Kafka.Brokers...)
	c.Kafka.TLS = TLS{
		CACertificate:     redact(c.Kafka.TLS.CACertificate),
		AccessKey:         redact(c.Kafka.TLS.AccessKey),
		AccessCertificate: redact(c.Kafka.TLS.AccessCertificate),
	}
	return c
}

func redact(secret string) string {
	if secret == "" {
		return ""
	}
	return "<redacted>"
}
