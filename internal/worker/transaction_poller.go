// internal/worker/transaction_poller.go
package worker

import (
	"context"
	"sync"
	"time"

	"paylink-service/internal/domain"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"
)

// Metrics
var (
	pollsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "paylink_transaction_polls_total",
			Help: "Transaction polling runs by outcome",
		},
		[]string{"outcome"},
	)

	pollFetchErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "paylink_transaction_poll_fetch_errors_total",
			Help: "Failed transaction status reads during polling",
		},
	)
)

const (
	DefaultPollInterval = 5 * time.Second
	DefaultPollBudget   = 10 * time.Minute
)

// PollOutcome tells the caller why polling stopped.
type PollOutcome string

const (
	PollSettled   PollOutcome = "settled"
	PollTimedOut  PollOutcome = "timed_out"
	PollCancelled PollOutcome = "cancelled"
)

// TransactionFetcher reads the settlement subsystem's view of a link.
type TransactionFetcher interface {
	GetTransactionStatus(ctx context.Context, linkID string) (*domain.TransactionStatus, error)
}

// FetcherFunc adapts a plain function to TransactionFetcher.
type FetcherFunc func(ctx context.Context, linkID string) (*domain.TransactionStatus, error)

func (f FetcherFunc) GetTransactionStatus(ctx context.Context, linkID string) (*domain.TransactionStatus, error) {
	return f(ctx, linkID)
}

// TransactionPoller polls a link's transaction status until it settles or
// the budget runs out.
type TransactionPoller struct {
	fetcher  TransactionFetcher
	interval time.Duration
	budget   time.Duration
	logger   *zap.Logger
	stopChan chan struct{}
	stopOnce sync.Once
}

func NewTransactionPoller(
	fetcher TransactionFetcher,
	interval, budget time.Duration,
	logger *zap.Logger,
) *TransactionPoller {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	if budget <= 0 {
		budget = DefaultPollBudget
	}
	return &TransactionPoller{
		fetcher:  fetcher,
		interval: interval,
		budget:   budget,
		logger:   logger,
		stopChan: make(chan struct{}),
	}
}

// Poll blocks until the transaction settles, the budget elapses, ctx is
// cancelled or Stop is called. onUpdate sees every status that differs from
// the previous one and may be nil. Fetch errors are logged and retried on
// the next tick.
func (p *TransactionPoller) Poll(ctx context.Context, linkID string, onUpdate func(*domain.TransactionStatus)) PollOutcome {
	outcome := p.poll(ctx, linkID, onUpdate)
	pollsTotal.WithLabelValues(string(outcome)).Inc()
	return outcome
}

func (p *TransactionPoller) poll(ctx context.Context, linkID string, onUpdate func(*domain.TransactionStatus)) PollOutcome {
	log := p.logger.With(zap.String("payment_link_id", linkID))
	log.Debug("transaction polling started",
		zap.Duration("interval", p.interval),
		zap.Duration("budget", p.budget))

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	deadline := time.NewTimer(p.budget)
	defer deadline.Stop()

	var last domain.TransactionState
	check := func() bool {
		status, err := p.fetcher.GetTransactionStatus(ctx, linkID)
		if err != nil {
			if ctx.Err() == nil {
				pollFetchErrors.Inc()
				log.Warn("failed to fetch transaction status", zap.Error(err))
			}
			return false
		}
		if status.Status != last {
			last = status.Status
			if onUpdate != nil {
				onUpdate(status)
			}
		}
		return status.Status == domain.TxSettled
	}

	if check() {
		return PollSettled
	}

	for {
		select {
		case <-ticker.C:
			if check() {
				log.Info("transaction settled")
				return PollSettled
			}

		case <-deadline.C:
			log.Info("transaction polling budget exhausted", zap.String("last_status", string(last)))
			return PollTimedOut

		case <-p.stopChan:
			log.Debug("transaction poller stopped")
			return PollCancelled

		case <-ctx.Done():
			log.Debug("context cancelled, stopping transaction poller")
			return PollCancelled
		}
	}
}

// Stop ends every in-flight Poll call. It is safe to call more than once.
func (p *TransactionPoller) Stop() {
	p.stopOnce.Do(func() { close(p.stopChan) })
}
