// Package services wires up and owns this daemon's long-lived
// collaborators: a beacon client, a logger, a notifier, a metrics registry,
// and a cancellable base context.
package services

import (
	"context"
	"fmt"

	"github.com/rocket-pool/validator-watcher/beacon/client"
	"github.com/rocket-pool/validator-watcher/config"
	"github.com/rocket-pool/validator-watcher/log"
	"github.com/rocket-pool/validator-watcher/metrics"
	"github.com/rocket-pool/validator-watcher/notifier"
)

// Provider is a container for the services this daemon's components share.
type Provider struct {
	beaconClient *client.Client
	notifier     *notifier.Notifier
	metrics      *metrics.Registry
	logger       *log.Logger

	ctx    context.Context
	cancel context.CancelFunc
}

// NewProvider constructs every long-lived collaborator from cfg.
func NewProvider(cfg *config.Config) (*Provider, error) {
	var logger *log.Logger
	var err error
	if cfg.LogFilePath != "" {
		logger, err = log.NewLogger(cfg.LogFilePath, log.DefaultLoggerOptions())
		if err != nil {
			return nil, fmt.Errorf("services: creating logger: %w", err)
		}
	} else {
		logger = log.NewDefaultLogger()
	}

	metricsRegistry := metrics.New()

	beaconClient, err := client.New(cfg.BeaconURL, logger, metricsRegistry)
	if err != nil {
		return nil, fmt.Errorf("services: creating beacon client: %w", err)
	}

	notif := notifier.New(cfg.SlackChannel, cfg.SlackToken, logger)

	ctx, cancel := context.WithCancel(context.Background())

	logger.Info("starting validator watcher")

	return &Provider{
		beaconClient: beaconClient,
		notifier:     notif,
		metrics:      metricsRegistry,
		logger:       logger,
		ctx:          ctx,
		cancel:       cancel,
	}, nil
}

func (p *Provider) BeaconClient() *client.Client   { return p.beaconClient }
func (p *Provider) Notifier() *notifier.Notifier   { return p.notifier }
func (p *Provider) Metrics() *metrics.Registry     { return p.metrics }
func (p *Provider) Logger() *log.Logger            { return p.logger }
func (p *Provider) BaseContext() context.Context   { return p.ctx }
func (p *Provider) CancelContextOnShutdown()       { p.cancel() }

// Close releases the provider's underlying resources.
func (p *Provider) Close() error {
	p.logger.Close()
	return nil
}
