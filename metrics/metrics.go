package metrics

import (
	// Go Internal Packages
	"context"
	"errors"
	"net/http"
	"time"

	// External Packages
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/twmb/franz-go/plugin/kprom"
	"go.uber.org/zap"
)

const namespace = "txproducer"

// ProducerMetrics counts what the publish loop sends
type ProducerMetrics struct {
	Registry         *prometheus.Registry
	BatchesPublished prometheus.Counter
	RecordsPublished prometheus.Counter
	PublishErrors    prometheus.Counter
	BatchSize        prometheus.Histogram
}

func NewProducerMetrics() *ProducerMetrics {
	m := &ProducerMetrics{
		Registry: prometheus.NewRegistry(),
		BatchesPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "batches_published_total",
			Help:      "Total batches acknowledged by the brokers",
		}),
		RecordsPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_published_total",
			Help:      "Total transaction records acknowledged by the brokers",
		}),
		PublishErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "publish_errors_total",
			Help:      "Total batches the brokers did not accept",
		}),
		BatchSize: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "batch_size",
			Help:      "Number of records per assembled batch",
			Buckets:   []float64{1, 10, 50, 100, 200, 300, 400, 500},
		}),
	}
	m.Registry.MustRegister(m.BatchesPublished, m.RecordsPublished, m.PublishErrors, m.BatchSize)
	return m
}

// ObserveBatch records the outcome of one publish call
func (m *ProducerMetrics) ObserveBatch(size int, err error) {
	if m == nil {
		return
	}
	m.BatchSize.Observe(float64(size))
	if err != nil {
		m.PublishErrors.Inc()
		return
	}
	m.BatchesPublished.Inc()
	m.RecordsPublished.Add(float64(size))
}

// NewMux exposes the producer counters on /metrics and the kafka client
// metrics on /metrics/kafka.
func NewMux(m *ProducerMetrics, client *kprom.Metrics) *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{}))
	if client != nil {
		mux.Handle("/metrics/kafka", client.Handler())
	}
	return mux
}

// Serve runs the metrics endpoint until ctx is done. Errors are logged only.
func Serve(ctx context.Context, addr string, handler http.Handler, logger *zap.Logger) {
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	logger.Info("serving metrics", zap.String("address", addr))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("metrics server stopped", zap.Error(err))
	}
}
