package main

import (
	// Go Internal Packages
	"context"
	"io/fs"
	"log"
	"math/rand"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	// Local Packages
	config "tx-producer/config"
	errors "tx-producer/errors"
	helpers "tx-producer/helpers"
	kafka "tx-producer/kafka"
	metrics "tx-producer/metrics"
	generators "tx-producer/services/generators"
	publisher "tx-producer/services/publisher"
	shutdown "tx-producer/shutdown"
	utils "tx-producer/utils"

	// External Packages
	"github.com/alecthomas/kingpin/v2"
	"github.com/joho/godotenv"
	zaplogfmt "github.com/jsternberg/zap-logfmt"
	"github.com/knadh/koanf"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/twmb/franz-go/plugin/kprom"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type Flags struct {
	ConfigPath string
	EnvFile    string
}

// ParseFlags parses the command line arguments
func ParseFlags(args []string) (Flags, error) {
	var f Flags
	app := kingpin.New("tx-producer", "Publishes synthetic financial transactions to Kafka")
	app.Flag("config", "Path to the application config file").Short('c').Default("config.yml").StringVar(&f.ConfigPath)
	app.Flag("env-file", "Path to a .env file loaded before reading the environment").Default(".env").StringVar(&f.EnvFile)

	_, err := app.Parse(args)
	return f, err
}

// LoadSecrets Loads the secret variables from the environment and overrides the config
func LoadSecrets(k config.Config, getenv func(string) string) (config.Config, error) {
	if brokers := getenv("SERVICE_URI"); brokers != "" {
		k.Kafka.Brokers = utils.SplitCSV(brokers)
	}
	if ca := getenv("CA_CERTIFICATE"); ca != "" {
		k.Kafka.TLS.CACertificate = utils.NormalizePEM(ca)
	}
	if key := getenv("ACCESS_KEY"); key != "" {
		k.Kafka.TLS.AccessKey = utils.NormalizePEM(key)
	}
	if cert := getenv("ACCESS_CERTIFICATE"); cert != "" {
		k.Kafka.TLS.AccessCertificate = utils.NormalizePEM(cert)
	}
	if topic := getenv("TOPIC"); topic != "" {
		k.Kafka.Topic = topic
	}
	if level := getenv("LOG_LEVEL"); level != "" {
		k.Logger.Level = level
	}
	if prod := getenv("IS_PROD_MODE"); prod != "" {
		isProd, err := strconv.ParseBool(prod)
		if err != nil {
			ve := errors.ValidationErrs()
			ve.Add("IS_PROD_MODE", "must be a boolean, got "+strconv.Quote(prod))
			return k, errors.ValidationFailedErr(ve.Err())
		}
		k.IsProdMode = isProd
	}
	return k, nil
}

// LoadConfig loads the default configuration and overrides it with the config file
// specified by the path defined in the config flag
func LoadConfig(configPath string) *koanf.Koanf {
	k := koanf.New(".")
	_ = k.Load(rawbytes.Provider(config.DefaultConfig), yaml.Parser())
	if configPath != "" {
		_ = k.Load(file.Provider(configPath), yaml.Parser())
	}
	return k
}

// NewLogger writes logfmt entries to stdout and copies error entries and
// above to stderr.
func NewLogger(conf config.Config) (*zap.Logger, error) {
	host, _ := os.Hostname()

	cfg := zap.NewProductionConfig()
	cfg.Encoding = "logfmt"
	_ = cfg.Level.UnmarshalText([]byte(conf.Logger.Level))
	cfg.InitialFields = make(map[string]any)
	cfg.InitialFields["host"] = host
	cfg.InitialFields["service"] = conf.Application
	cfg.OutputPaths = []string{"stdout"}
	cfg.ErrorOutputPaths = []string{"stderr"}

	// Build applies InitialFields before WrapCore, so the stderr core gets its own copy
	errorCore := zapcore.NewCore(
		zaplogfmt.NewEncoder(cfg.EncoderConfig),
		zapcore.Lock(zapcore.AddSync(os.Stderr)),
		zap.LevelEnablerFunc(func(lvl zapcore.Level) bool {
			return lvl >= zapcore.ErrorLevel && cfg.Level.Enabled(lvl)
		}),
	).With([]zap.Field{zap.String("host", host), zap.String("service", conf.Application)})

	return cfg.Build(zap.WrapCore(func(core zapcore.Core) zapcore.Core {
		return zapcore.NewTee(core, errorCore)
	}))
}

func main() {
	flags, err := ParseFlags(os.Args[1:])
	if err != nil {
		log.Fatalf("Error parsing flags: %v", err)
	}

	if flags.EnvFile != "" {
		if err = godotenv.Load(flags.EnvFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			log.Fatalf("Error loading env file: %v", err)
		}
	}

	k := LoadConfig(flags.ConfigPath)
	appKonf := config.Config{}

	// Unmarshalling config into struct
	err = k.Unmarshal("", &appKonf)
	if err != nil {
		log.Fatalf("Error loading config: %v", err)
	}

	// Update and Validate config before connecting
	updatedKonf, err := LoadSecrets(appKonf, os.Getenv)
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}
	if err = updatedKonf.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	if !updatedKonf.IsProdMode {
		helpers.PrintStruct(os.Stdout, updatedKonf.Redacted())
	}

	logger, err := NewLogger(updatedKonf)
	if err != nil {
		log.Fatalf("Error building logger: %v", err)
	}
	defer func() {
		_ = logger.Sync()
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	handler := shutdown.NewHandler(logger, updatedKonf.Producer.DisconnectTimeout, os.Exit)
	defer handler.Recover()

	if err = run(ctx, updatedKonf, logger, handler); err != nil {
		handler.Handle(err)
	}
}

// run returns nil only after a signal stopped the loop and the connection was closed
func run(ctx context.Context, conf config.Config, logger *zap.Logger, handler *shutdown.Handler) error {
	seed := conf.Producer.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))
	generator := generators.NewTxGenerator(rng, time.Now)
	assembler := generators.NewBatchAssembler(rng, generator, conf.Producer.MaxBatchSize)

	kafkaMetrics := kprom.NewMetrics("txproducer")
	producerMetrics := metrics.NewProducerMetrics()
	if conf.Metrics.Address != "" {
		go metrics.Serve(ctx, conf.Metrics.Address, metrics.NewMux(producerMetrics, kafkaMetrics), logger)
	}

	producerConf := &kafka.ProducerConfig{
		Brokers:  conf.Kafka.Brokers,
		ClientID: conf.Kafka.ClientID,
		Topic:    conf.Kafka.Topic,
		TLS: kafka.TLSConfig{
			CACertificate:     conf.Kafka.TLS.CACertificate,
			AccessKey:         conf.Kafka.TLS.AccessKey,
			AccessCertificate: conf.Kafka.TLS.AccessCertificate,
		},
	}

	producer, err := kafka.Connect(ctx, producerConf, kafkaMetrics, logger)
	if err != nil {
		// a signal during the initial ping is a clean stop, not a broker failure
		if ctx.Err() != nil {
			logger.Warn("stopped before connecting", zap.Error(err))
			return nil
		}
		return err
	}
	handler.Track(producer)

	txPublisher := publisher.NewPublisher(conf.Kafka.Topic, assembler, producer, producerMetrics, conf.Producer.BatchesPerSecond, logger)
	if err = txPublisher.Run(ctx); err != nil {
		return err
	}

	handler.Close()
	logger.Info("producer stopped", zap.Uint64("batches", txPublisher.Batches()), zap.Int64("seed", seed))
	return nil
}
