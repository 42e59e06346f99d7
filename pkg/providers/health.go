package providers

import (
	"context"
	"log/slog"
	"net/http"
	"time"
)

const (
	defaultCheckInterval = 30 * time.Second
	healthCheckTimeout   = 5 * time.Second
	maxCheckDelay        = 5 * time.Minute
	maxBackoffFactor     = 8
)

// StartHealthChecker checks the completion service in the background until
// ctx is cancelled or the provider is closed. While the provider is
// unhealthy the delay between checks grows, see nextCheckDelay.
func (p *HTTPProvider) StartHealthChecker(ctx context.Context) {
	p.checkerStarted = true
	go p.watchHealth(ctx)
}

func (p *HTTPProvider) watchHealth(ctx context.Context) {
	defer close(p.healthCheckStopped)

	base := p.config.HealthCheckInterval
	if base <= 0 {
		base = defaultCheckInterval
	}
	logger := slog.Default().With("provider", p.config.Name)
	logger.Info("health checker started", "interval", base)

	timer := time.NewTimer(base)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-p.stopHealthCheck:
			return
		case <-timer.C:
		}

		p.checkOnce(ctx, logger)

		delay := nextCheckDelay(p.GetHealth().ConsecutiveFailures, base)
		if delay != base {
			logger.Debug("health check backing off", "next_check_in", delay)
		}
		timer.Reset(delay)
	}
}

// checkOnce runs one bounded check and records its result.
func (p *HTTPProvider) checkOnce(ctx context.Context, logger *slog.Logger) {
	ctx, cancel := context.WithTimeout(ctx, healthCheckTimeout)
	defer cancel()

	wasHealthy := p.IsHealthy()
	start := time.Now()
	err := p.check(ctx)
	p.updateHealth(err == nil, err)

	switch {
	case err != nil:
		logger.Error("health check failed", "error", err, "latency", time.Since(start))
	case !wasHealthy:
		logger.Info("provider recovered", "latency", time.Since(start))
	}
}

// check runs the adapter's check, or a GET of the base URL when the adapter
// installed none. Requests sent through DoRequest update health themselves.
func (p *HTTPProvider) check(ctx context.Context) error {
	if p.checkFunc != nil {
		return p.checkFunc(ctx)
	}

	resp, err := p.DoRequest(ctx, http.MethodGet, p.config.BaseURL, nil, nil)
	if err != nil {
		return err
	}
	resp.Body.Close()
	return nil
}

// nextCheckDelay doubles base for every consecutive failure, up to
// maxBackoffFactor times base and never more than maxCheckDelay.
func nextCheckDelay(failures int, base time.Duration) time.Duration {
	delay := base
	for i := 0; i < failures && delay < base*maxBackoffFactor; i++ {
		delay *= 2
	}
	return min(delay, maxCheckDelay)
}

// HealthCheck runs one check now. The readiness endpoint calls it; the
// background checker keeps the cached state fresh in between.
func (p *HTTPProvider) HealthCheck(ctx context.Context) error {
	return p.check(ctx)
}
