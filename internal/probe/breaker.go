// Netpulse - Personal Internet Connection Quality Monitor
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/netpulse

package probe

import (
	"context"
	"errors"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/tomtom215/netpulse/internal/logging"
	"github.com/tomtom215/netpulse/internal/metrics"
)

// BreakerConfig tunes the probe circuit breaker.
type BreakerConfig struct {
	// FailureThreshold consecutive failures open the breaker.
	FailureThreshold uint32
	// Cooldown is how long the breaker stays open before a trial probe.
	Cooldown time.Duration
}

// DefaultBreakerConfig trips after three straight failures and retries
// after ten minutes, one sampling interval by default.
func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{
		FailureThreshold: 3,
		Cooldown:         10 * time.Minute,
	}
}

// BreakerProber wraps a Prober with a circuit breaker so an uplink
// outage skips probes instead of timing out every cycle.
type BreakerProber struct {
	inner   Prober
	breaker *gobreaker.CircuitBreaker[*Result]
}

// NewBreakerProber wraps inner with circuit breaker protection.
func NewBreakerProber(inner Prober, cfg BreakerConfig) *BreakerProber {
	if cfg.FailureThreshold == 0 {
		cfg.FailureThreshold = DefaultBreakerConfig().FailureThreshold
	}
	if cfg.Cooldown <= 0 {
		cfg.Cooldown = DefaultBreakerConfig().Cooldown
	}

	settings := gobreaker.Settings{
		Name:    "speedtest",
		Timeout: cfg.Cooldown,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.FailureThreshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Warn().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("Probe circuit breaker state changed")
		},
	}

	return &BreakerProber{
		inner:   inner,
		breaker: gobreaker.NewCircuitBreaker[*Result](settings),
	}
}

// Run executes the inner prober unless the breaker is open.
func (p *BreakerProber) Run(ctx context.Context) (*Result, error) {
	result, err := p.breaker.Execute(func() (*Result, error) {
		return p.inner.Run(ctx)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			metrics.ProbeFailures.WithLabelValues("breaker_open").Inc()
		}
		return nil, err
	}
	return result, nil
}

// State returns the breaker state for the diagnostics surface.
func (p *BreakerProber) State() string {
	return p.breaker.State().String()
}
