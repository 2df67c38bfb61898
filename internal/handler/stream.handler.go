// internal/handler/stream.handler.go
package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"paylink-service/internal/domain"
	"paylink-service/internal/middleware"
	"paylink-service/internal/usecase"
	"paylink-service/internal/worker"
	"paylink-service/pkg/response"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 54 * time.Second
)

const (
	FrameCheckout    = "checkout"
	FramePollTimeout = "poll_timeout"
	FrameError       = "error"
)

// Frame is one server to client websocket message.
type Frame struct {
	Type    string      `json:"type"`
	Data    interface{} `json:"data,omitempty"`
	Message string      `json:"message,omitempty"`
}

type clientMessage struct {
	Action string `json:"action"`
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// StreamHandler pushes checkout updates to the link's buyer. While the
// transfer step is current it also polls the settlement subsystem, within
// the poller's budget.
type StreamHandler struct {
	checkout *usecase.CheckoutUsecase
	hub      *Hub
	poller   *worker.TransactionPoller
	logger   *zap.Logger
}

func NewStreamHandler(checkout *usecase.CheckoutUsecase, hub *Hub, poller *worker.TransactionPoller, logger *zap.Logger) *StreamHandler {
	return &StreamHandler{checkout: checkout, hub: hub, poller: poller, logger: logger}
}

// Stream handles GET /payment-links/{id}/stream
func (h *StreamHandler) Stream(w http.ResponseWriter, r *http.Request) {
	linkID := chi.URLParam(r, "id")
	session := middleware.SessionFromContext(r.Context())

	view, err := h.checkout.Checkout(r.Context(), linkID, session)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	switch view.Access {
	case domain.AccessPublic:
		response.ErrorWithCode(w, http.StatusUnauthorized, "UNAUTHORIZED", "Sign in to continue")
		return
	case domain.AccessMismatch:
		response.ErrorWithCode(w, http.StatusForbidden, "BUYER_MISMATCH", "payment link is assigned to a different buyer")
		return
	case domain.AccessUnavailable:
		response.ErrorWithCode(w, http.StatusGone, "LINK_UNAVAILABLE", "payment link is no longer active")
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.String("payment_link_id", linkID), zap.Error(err))
		return
	}
	defer conn.Close()

	signals, unsubscribe := h.hub.Subscribe(linkID)
	defer unsubscribe()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	actions := make(chan clientMessage, 4)
	go h.readPump(conn, linkID, actions, cancel)

	s := &streamSession{
		handler: h,
		conn:    conn,
		linkID:  linkID,
		session: session,
		log:     h.logger.With(zap.String("payment_link_id", linkID)),
	}
	s.run(ctx, view, signals, actions)
}

// readPump only reads: it keeps the pong deadline fresh, forwards client
// actions and cancels the stream when the client goes away.
func (h *StreamHandler) readPump(conn *websocket.Conn, linkID string, actions chan<- clientMessage, cancel context.CancelFunc) {
	defer cancel()

	conn.SetReadLimit(4096)
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.Warn("stream read error", zap.String("payment_link_id", linkID), zap.Error(err))
			}
			return
		}
		var m clientMessage
		if err := json.Unmarshal(msg, &m); err != nil {
			continue
		}
		select {
		case actions <- m:
		default:
		}
	}
}

type streamSession struct {
	handler *StreamHandler
	conn    *websocket.Conn
	linkID  string
	session *domain.Session
	log     *zap.Logger

	polling     bool
	pollTimeout bool
}

// run is the only writer on conn.
func (s *streamSession) run(ctx context.Context, view *domain.CheckoutView, signals <-chan struct{}, actions <-chan clientMessage) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	pollUpdates := make(chan struct{}, 1)
	pollDone := make(chan worker.PollOutcome, 1)

	s.log.Info("checkout stream opened")
	defer s.log.Info("checkout stream closed")

	if !s.publish(ctx, view, pollUpdates, pollDone) {
		return
	}

	for {
		select {
		case <-signals:
		case <-pollUpdates:
		case outcome := <-pollDone:
			s.polling = false
			if outcome == worker.PollTimedOut {
				s.pollTimeout = true
				if !s.write(Frame{Type: FramePollTimeout, Message: "Still waiting for the transfer to settle"}) {
					return
				}
			}
			continue
		case action := <-actions:
			if action.Action != "refresh" {
				continue
			}
			s.pollTimeout = false
		case <-ticker.C:
			s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
			continue
		case <-ctx.Done():
			return
		}

		view, err := s.handler.checkout.Checkout(ctx, s.linkID, s.session)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			s.log.Warn("failed to reload checkout", zap.Error(err))
			if !s.write(Frame{Type: FrameError, Message: "Failed to load checkout"}) {
				return
			}
			continue
		}
		if !s.publish(ctx, view, pollUpdates, pollDone) {
			return
		}
	}
}

// publish sends the view and starts polling when the buyer reaches the
// transfer step. It reports false once the stream should end.
func (s *streamSession) publish(ctx context.Context, view *domain.CheckoutView, pollUpdates chan struct{}, pollDone chan worker.PollOutcome) bool {
	if !s.write(Frame{Type: FrameCheckout, Data: view}) {
		return false
	}

	if view.Access != domain.AccessGranted || view.CurrentStep == domain.StepDone {
		s.conn.SetWriteDeadline(time.Now().Add(writeWait))
		s.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, string(view.Access)))
		return false
	}

	if view.CurrentStep == domain.StepTransfer && !s.polling && !s.pollTimeout {
		s.polling = true
		go func() {
			outcome := s.handler.poller.Poll(ctx, s.linkID, func(*domain.TransactionStatus) {
				select {
				case pollUpdates <- struct{}{}:
				default:
				}
			})
			pollDone <- outcome
		}()
	}
	return true
}

func (s *streamSession) write(f Frame) bool {
	payload, err := json.Marshal(f)
	if err != nil {
		s.log.Error("failed to marshal frame", zap.String("type", f.Type), zap.Error(err))
		return true
	}
	s.conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := s.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
		s.log.Debug("stream write failed", zap.Error(err))
		return false
	}
	return true
}
