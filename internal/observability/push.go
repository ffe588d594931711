package observability

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/prometheus/client_golang/prometheus/push"
)

// JobName is the Pushgateway job label for processing runs.
const JobName = "storm_track_process"

// Pusher sends run metrics to a Prometheus Pushgateway. A batch run exits
// before any scraper could reach it, so metrics are pushed instead of served.
type Pusher struct {
	url     string
	timeout time.Duration
	client  *http.Client
	logger  *slog.Logger
}

// NewPusher returns a Pusher for url. An empty url yields a Pusher whose
// Push is a no-op.
func NewPusher(url string, timeout time.Duration, logger *slog.Logger) *Pusher {
	return &Pusher{
		url:     url,
		timeout: timeout,
		client:  &http.Client{Timeout: timeout},
		logger:  logger,
	}
}

// Push replaces the metrics grouped under this job and source with the
// current contents of m.Gatherer, retrying until the push timeout elapses.
func (p *Pusher) Push(ctx context.Context, m *Metrics, source string) error {
	if p.url == "" {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	pusher := push.New(p.url, JobName).
		Gatherer(m.Gatherer).
		Grouping("source", source).
		Client(p.client)

	bo := backoff.NewExponentialBackOff()
	bo.MaxElapsedTime = p.timeout
	operation := func() error {
		err := pusher.PushContext(ctx)
		if err == nil {
			return nil
		}
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return backoff.Permanent(err)
		}
		p.logger.Warn("metrics push failed, retrying", "error", err)
		return err
	}
	if err := backoff.Retry(operation, backoff.WithContext(bo, ctx)); err != nil {
		return fmt.Errorf("push metrics to %s: %w", p.url, err)
	}
	p.logger.Debug("metrics pushed", "url", p.url, "source", source)
	return nil
}
