package main

import (
	"errors"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/jgoulah/powerpal/internal/config"
	"github.com/jgoulah/powerpal/internal/database"
	"github.com/jgoulah/powerpal/internal/forecast"
	"github.com/jgoulah/powerpal/internal/ingest"
	"github.com/jgoulah/powerpal/internal/logger"
	"github.com/jgoulah/powerpal/internal/metrics"
	"github.com/jgoulah/powerpal/internal/notifier"
	"github.com/jgoulah/powerpal/internal/pipeline"
	"github.com/jgoulah/powerpal/internal/publisher"
	"github.com/jgoulah/powerpal/internal/scraper"
	"github.com/jgoulah/powerpal/internal/store"
)

// app holds the wired collaborators for one command invocation
type app struct {
	cfg      *config.Config
	log      zerolog.Logger
	records  store.Store
	csv      *store.CSVStore // nil with the sqlite backend
	db       *database.DB    // nil with the csv backend
	runner   *pipeline.Runner
	registry *prometheus.Registry
	closers  []func()
}

// newApp loads config and wires the store, forecaster and pipeline.
// Delivery channels are only connected when withNotifiers is set.
func newApp(withNotifiers bool) (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	a := &app{
		cfg:      cfg,
		log:      logger.New(cfg.GetLogLevel()),
		registry: prometheus.NewRegistry(),
	}

	deps := pipeline.Deps{Metrics: metrics.New(a.registry)}

	switch backend := cfg.GetStorageBackend(); backend {
	case "csv":
		a.csv = store.NewCSVStore(cfg.GetDataPath())
		a.records = a.csv
	case "sqlite":
		db, err := openDB(cfg)
		if err != nil {
			return nil, fmt.Errorf("opening database: %w", err)
		}
		a.closers = append(a.closers, func() { db.Close() })
		a.db = db
		a.records = db
		deps.History = db
	default:
		return nil, fmt.Errorf("unknown storage backend: %s (available: csv, sqlite)", backend)
	}
	deps.Records = a.records

	artifacts, err := a.artifactStore()
	if err != nil {
		a.Close()
		return nil, err
	}
	deps.Forecaster = forecast.New(a.records, artifacts)

	source, err := meterSource(cfg)
	if err != nil {
		a.Close()
		return nil, err
	}
	deps.Ingestor = ingest.New(source, a.records)

	if withNotifiers {
		dispatcher, err := a.notifiers()
		if err != nil {
			a.Close()
			return nil, err
		}
		if dispatcher.Len() > 0 {
			deps.Notifier = dispatcher
		}
	}

	a.runner = pipeline.New(deps, a.log)
	return a, nil
}

// Close releases connections opened by newApp
func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}

func (a *app) artifactStore() (forecast.ArtifactStore, error) {
	if !a.cfg.Redis.Enabled {
		return forecast.NewFileArtifacts(a.cfg.GetModelPath()), nil
	}
	if a.cfg.Redis.Addr == "" {
		return nil, errors.New("redis addr is required when redis is enabled")
	}

	client := redis.NewClient(&redis.Options{
		Addr:     a.cfg.Redis.Addr,
		Password: a.cfg.Redis.Password,
		DB:       a.cfg.Redis.DB,
	})
	a.closers = append(a.closers, func() { client.Close() })

	return forecast.NewRedisArtifacts(client, a.cfg.Redis.Key), nil
}

func meterSource(cfg *config.Config) (ingest.MeterSource, error) {
	switch source := cfg.GetMeterSource(); source {
	case "simulated":
		return ingest.NewSimulated(), nil
	case "api":
		if cfg.Meter.APIURL == "" || cfg.Meter.MeterID == "" {
			return nil, errors.New("meter api_url and meter_id are required for the api source")
		}
		return ingest.NewAPISource(cfg.Meter.APIURL, cfg.Meter.MeterID, cfg.Meter.APIToken), nil
	case "portal":
		if len(cfg.Meter.Cookies) == 0 {
			return nil, errors.New("no portal cookies configured, run 'powerpal login' first")
		}
		portal := scraper.NewPortal(cfg.Meter.PortalURL, cfg.Meter.BalanceSelector, cfg.Meter.Cookies)
		return ingest.NewPortalSource(portal), nil
	default:
		return nil, fmt.Errorf("unknown meter source: %s (available: simulated, api, portal)", source)
	}
}

func (a *app) notifiers() (*notifier.Dispatcher, error) {
	var channels []notifier.Notifier

	if a.cfg.Twilio.Enabled {
		twilio, err := notifier.NewTwilio(a.cfg.Twilio)
		if err != nil {
			return nil, fmt.Errorf("configuring twilio: %w", err)
		}
		channels = append(channels, twilio)
	}

	if a.cfg.MQTT.Enabled || a.cfg.HomeAssistant.Enabled {
		pub, err := publisher.New(a.cfg.MQTT, a.cfg.HomeAssistant)
		if err != nil {
			return nil, fmt.Errorf("configuring publisher: %w", err)
		}
		a.closers = append(a.closers, pub.Close)
		channels = append(channels, pub)
	}

	return notifier.NewDispatcher(channels...), nil
}
