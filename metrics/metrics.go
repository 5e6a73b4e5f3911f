// Package metrics declares and exposes this service's Prometheus metrics.
package metrics

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry bundles every metric this service reports, all registered
// against a private prometheus.Registry rather than the global default so
// tests can spin up as many instances as they like without collisions.
type Registry struct {
	registry *prometheus.Registry

	Slot  prometheus.Gauge
	Epoch prometheus.Gauge

	OurActiveValidatorsCount   prometheus.Gauge
	TotalActiveValidatorsCount prometheus.Gauge

	MissedBlockProposalsCount *prometheus.CounterVec

	RateOfNotOptimalAttestationInclusion prometheus.Gauge

	server *http.Server
}

// New builds the registry and registers every collector against it.
func New() *Registry {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Registry{
		registry: reg,

		Slot: factory.NewGauge(prometheus.GaugeOpts{
			Name: "slot",
			Help: "Current slot number as seen by the watcher.",
		}),
		Epoch: factory.NewGauge(prometheus.GaugeOpts{
			Name: "epoch",
			Help: "Current epoch number as seen by the watcher.",
		}),
		OurActiveValidatorsCount: factory.NewGauge(prometheus.GaugeOpts{
			Name: "our_active_validators_count",
			Help: "Number of watched validators currently active.",
		}),
		TotalActiveValidatorsCount: factory.NewGauge(prometheus.GaugeOpts{
			Name: "total_active_validators_count",
			Help: "Total number of active validators on the network.",
		}),
		MissedBlockProposalsCount: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "missed_block_proposals_count",
			Help: "Number of missed block proposals by a watched validator.",
		}, []string{"slot", "epoch"}),
		RateOfNotOptimalAttestationInclusion: factory.NewGauge(prometheus.GaugeOpts{
			Name: "rate_of_not_optimal_attestation_inclusion",
			Help: "Percent of the watched attestations due at the last checked slot that were not included in the next slot, in [0,100].",
		}),
	}
}

// SetActiveValidatorsCounts implements beacon/client.MetricsRecorder.
func (r *Registry) SetActiveValidatorsCounts(total, ours int) {
	r.TotalActiveValidatorsCount.Set(float64(total))
	r.OurActiveValidatorsCount.Set(float64(ours))
}

// ObserveMissedBlockProposal increments both the unlabeled and the
// slot/epoch-labeled counter, matching the dashboard queries that alert on
// the bare series and the drill-down ones that key off labels.
func (r *Registry) ObserveMissedBlockProposal(slot, epoch uint64) {
	r.MissedBlockProposalsCount.WithLabelValues("", "").Inc()
	r.MissedBlockProposalsCount.WithLabelValues(fmt.Sprint(slot), fmt.Sprint(epoch)).Inc()
}

// Serve starts the /metrics HTTP exposition server on addr and blocks until
// ctx is canceled, at which point it shuts down gracefully.
func (r *Registry) Serve(ctx context.Context, addr string) error {
	router := mux.NewRouter()
	router.Handle("/metrics", promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{}))

	r.server = &http.Server{
		Addr:    addr,
		Handler: router,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := r.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return r.server.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}
