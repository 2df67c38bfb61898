package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"paylink-service/internal/domain"
	"paylink-service/internal/middleware"
	"paylink-service/internal/worker"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// streamServer routes the stream endpoint with the session injected
// directly instead of through a token.
func streamServer(t *testing.T, env *testEnv, poller *worker.TransactionPoller, session *domain.Session) *httptest.Server {
	t.Helper()
	h := NewStreamHandler(env.checkoutUC, env.hub, poller, zap.NewNop())

	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if session != nil {
				r = r.WithContext(middleware.WithSession(r.Context(), session))
			}
			next.ServeHTTP(w, r)
		})
	})
	r.Get("/payment-links/{id}/stream", h.Stream)

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

func dial(t *testing.T, srv *httptest.Server, linkID string) (*websocket.Conn, *http.Response, error) {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/payment-links/" + linkID + "/stream"
	return websocket.DefaultDialer.Dial(url, nil)
}

type rawFrame struct {
	Type    string          `json:"type"`
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
}

func readFrame(t *testing.T, conn *websocket.Conn) rawFrame {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var f rawFrame
	require.NoError(t, conn.ReadJSON(&f))
	return f
}

// readUntil skips frames until match accepts one.
func readUntil(t *testing.T, conn *websocket.Conn, match func(rawFrame) bool) rawFrame {
	t.Helper()
	for i := 0; i < 10; i++ {
		f := readFrame(t, conn)
		if match(f) {
			return f
		}
	}
	t.Fatal("expected frame not received")
	return rawFrame{}
}

func checkoutStep(t *testing.T, f rawFrame) domain.StepID {
	t.Helper()
	var view domain.CheckoutView
	require.NoError(t, json.Unmarshal(f.Data, &view))
	return view.CurrentStep
}

func TestStream_RejectsBeforeUpgrade(t *testing.T) {
	env := newTestEnv(t, testLink("plink_a", nil))
	poller := worker.NewTransactionPoller(nil, time.Second, time.Minute, zap.NewNop())

	_, resp, err := dial(t, streamServer(t, env, poller, nil), "plink_a")
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	_, resp, err = dial(t, streamServer(t, env, poller, &domain.Session{Email: "other@example.com"}), "plink_a")
	require.Error(t, err)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	_, resp, err = dial(t, streamServer(t, env, poller, buyer), "plink_missing")
	require.Error(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestStream_PushesStepChanges(t *testing.T) {
	env := newTestEnv(t, testLink("plink_a", nil))
	poller := worker.NewTransactionPoller(worker.FetcherFunc(env.checkoutUC.TransactionStatus), 20*time.Millisecond, time.Minute, zap.NewNop())
	t.Cleanup(poller.Stop)

	conn, _, err := dial(t, streamServer(t, env, poller, buyer), "plink_a")
	require.NoError(t, err)
	defer conn.Close()

	first := readFrame(t, conn)
	assert.Equal(t, FrameCheckout, first.Type)
	assert.Equal(t, domain.StepKyc, checkoutStep(t, first))

	ctx := context.Background()
	require.NoError(t, env.checkoutUC.ReviewKyc(ctx, "plink_a", domain.KycPass))
	f := readUntil(t, conn, func(f rawFrame) bool { return checkoutStep(t, f) == domain.StepWallet })
	assert.Equal(t, FrameCheckout, f.Type)

	_, err = env.checkoutUC.SubmitWallet(ctx, "plink_a", buyer, domain.ChainERC20, ethAddress)
	require.NoError(t, err)
	_, err = env.checkoutUC.VerifyWallet(ctx, "plink_a", true)
	require.NoError(t, err)
	readUntil(t, conn, func(f rawFrame) bool { return checkoutStep(t, f) == domain.StepTransfer })

	// Written straight to the store: only the poller can see it.
	_, err = env.statuses.SetTransactionStatus(ctx, "plink_a", &domain.TransactionStatus{Status: domain.TxSettled, UpdatedAt: time.Now()})
	require.NoError(t, err)
	f = readUntil(t, conn, func(f rawFrame) bool {
		var view domain.CheckoutView
		require.NoError(t, json.Unmarshal(f.Data, &view))
		return view.TransactionStatus != nil && view.TransactionStatus.Status == domain.TxSettled
	})
	assert.Equal(t, domain.StepDone, checkoutStep(t, f))

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, _, err = conn.ReadMessage()
	assert.True(t, websocket.IsCloseError(err, websocket.CloseNormalClosure), "stream closes once settled: %v", err)
}

func TestStream_PollTimeout(t *testing.T) {
	env := newTestEnv(t, testLink("plink_a", func(l *domain.PaymentLink) {
		l.RequireKyc = false
		l.RequireWalletWhitelist = false
	}))
	poller := worker.NewTransactionPoller(worker.FetcherFunc(env.checkoutUC.TransactionStatus), 10*time.Millisecond, 60*time.Millisecond, zap.NewNop())
	t.Cleanup(poller.Stop)

	conn, _, err := dial(t, streamServer(t, env, poller, buyer), "plink_a")
	require.NoError(t, err)
	defer conn.Close()

	first := readFrame(t, conn)
	assert.Equal(t, domain.StepTransfer, checkoutStep(t, first))

	f := readUntil(t, conn, func(f rawFrame) bool { return f.Type == FramePollTimeout })
	assert.NotEmpty(t, f.Message)

	require.NoError(t, conn.WriteJSON(map[string]string{"action": "refresh"}))
	f = readUntil(t, conn, func(f rawFrame) bool { return f.Type == FrameCheckout })
	assert.Equal(t, domain.StepTransfer, checkoutStep(t, f))
}

func TestStream_SettlementCallbackEndsOnDone(t *testing.T) {
	env := newTestEnv(t, testLink("plink_a", func(l *domain.PaymentLink) {
		l.RequireKyc = false
		l.RequireWalletWhitelist = false
	}))
	poller := worker.NewTransactionPoller(worker.FetcherFunc(env.checkoutUC.TransactionStatus), time.Minute, time.Hour, zap.NewNop())
	t.Cleanup(poller.Stop)

	conn, _, err := dial(t, streamServer(t, env, poller, buyer), "plink_a")
	require.NoError(t, err)
	defer conn.Close()

	assert.Equal(t, domain.StepTransfer, checkoutStep(t, readFrame(t, conn)))

	_, err = env.checkoutUC.UpdateTransaction(context.Background(), "plink_a", domain.TxSettled, "0xfeed")
	require.NoError(t, err)

	f := readUntil(t, conn, func(f rawFrame) bool { return f.Type == FrameCheckout && checkoutStep(t, f) == domain.StepDone })
	var view domain.CheckoutView
	require.NoError(t, json.Unmarshal(f.Data, &view))
	assert.Equal(t, domain.AccessGranted, view.Access)
	assert.Equal(t, domain.PaymentLinkStatusPaid, view.Link.Status)

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, _, err = conn.ReadMessage()
	assert.True(t, websocket.IsCloseError(err, websocket.CloseNormalClosure), "stream closes once settled: %v", err)
}
