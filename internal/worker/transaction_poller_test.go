package worker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"paylink-service/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// scriptedFetcher returns the scripted states in order, repeating the last.
type scriptedFetcher struct {
	mu     sync.Mutex
	states []domain.TransactionState
	errs   int
	calls  int
}

func (f *scriptedFetcher) GetTransactionStatus(_ context.Context, _ string) (*domain.TransactionStatus, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.errs > 0 {
		f.errs--
		return nil, errors.New("upstream unavailable")
	}
	i := f.calls - 1
	if i >= len(f.states) {
		i = len(f.states) - 1
	}
	return &domain.TransactionStatus{Status: f.states[i], UpdatedAt: time.Now()}, nil
}

func TestPoll_Settles(t *testing.T) {
	f := &scriptedFetcher{states: []domain.TransactionState{
		domain.TxPending, domain.TxPending, domain.TxOnchainConfirmed, domain.TxConverting, domain.TxSettled,
	}}
	p := NewTransactionPoller(f, 5*time.Millisecond, time.Second, zap.NewNop())

	var seen []domain.TransactionState
	outcome := p.Poll(context.Background(), "plink_1", func(s *domain.TransactionStatus) {
		seen = append(seen, s.Status)
	})

	assert.Equal(t, PollSettled, outcome)
	assert.Equal(t, []domain.TransactionState{
		domain.TxPending, domain.TxOnchainConfirmed, domain.TxConverting, domain.TxSettled,
	}, seen, "only changes are reported")
}

func TestPoll_AlreadySettled(t *testing.T) {
	f := &scriptedFetcher{states: []domain.TransactionState{domain.TxSettled}}
	p := NewTransactionPoller(f, time.Hour, time.Hour, zap.NewNop())

	assert.Equal(t, PollSettled, p.Poll(context.Background(), "plink_1", nil))
	assert.Equal(t, 1, f.calls)
}

func TestPoll_TimesOut(t *testing.T) {
	f := &scriptedFetcher{states: []domain.TransactionState{domain.TxPending}}
	p := NewTransactionPoller(f, 5*time.Millisecond, 40*time.Millisecond, zap.NewNop())

	start := time.Now()
	outcome := p.Poll(context.Background(), "plink_1", nil)

	assert.Equal(t, PollTimedOut, outcome)
	assert.GreaterOrEqual(t, time.Since(start), 40*time.Millisecond)
	assert.Greater(t, f.calls, 1)
}

func TestPoll_RetriesAfterErrors(t *testing.T) {
	f := &scriptedFetcher{errs: 2, states: []domain.TransactionState{domain.TxSettled}}
	p := NewTransactionPoller(f, 5*time.Millisecond, time.Second, zap.NewNop())

	assert.Equal(t, PollSettled, p.Poll(context.Background(), "plink_1", nil))
	assert.Equal(t, 3, f.calls)
}

func TestPoll_ContextCancel(t *testing.T) {
	f := &scriptedFetcher{states: []domain.TransactionState{domain.TxPending}}
	p := NewTransactionPoller(f, 5*time.Millisecond, time.Minute, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan PollOutcome, 1)
	go func() { done <- p.Poll(ctx, "plink_1", nil) }()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case outcome := <-done:
		assert.Equal(t, PollCancelled, outcome)
	case <-time.After(time.Second):
		t.Fatal("poller did not stop after cancel")
	}
}

func TestPoll_Stop(t *testing.T) {
	f := &scriptedFetcher{states: []domain.TransactionState{domain.TxPending}}
	p := NewTransactionPoller(f, 5*time.Millisecond, time.Minute, zap.NewNop())

	done := make(chan PollOutcome, 2)
	go func() { done <- p.Poll(context.Background(), "plink_1", nil) }()
	go func() { done <- p.Poll(context.Background(), "plink_2", nil) }()

	time.Sleep(20 * time.Millisecond)
	p.Stop()
	p.Stop()

	for i := 0; i < 2; i++ {
		select {
		case outcome := <-done:
			require.Equal(t, PollCancelled, outcome)
		case <-time.After(time.Second):
			t.Fatal("poller did not stop")
		}
	}
}

func TestNewTransactionPoller_Defaults(t *testing.T) {
	p := NewTransactionPoller(&scriptedFetcher{}, 0, 0, zap.NewNop())
	assert.Equal(t, DefaultPollInterval, p.interval)
	assert.Equal(t, DefaultPollBudget, p.budget)
}
