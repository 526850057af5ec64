package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/textvault/textvault/internal/session"
	"github.com/textvault/textvault/internal/theme"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Send pings to peer with this period.
	pingPeriod = 54 * time.Second
)

// handleWebSocket mounts one composer session for the page on the other end
// of the connection and tears it down when the connection ends.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	if !s.trackConn() {
		http.Error(w, "Server is shutting down", http.StatusServiceUnavailable)
		return
	}
	defer s.conns.Done()

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: s.config.Server.AllowedOrigins,
	})
	if err != nil {
		s.logger.Warn(r.Context(), err, "WebSocket upgrade refused",
			"origin", r.Header.Get("Origin"), "ip", getClientIP(r))
		return
	}
	conn.SetReadLimit(s.config.Server.ReadLimit)

	var initial *theme.Mode
	if q := r.URL.Query().Get("theme"); q != "" {
		if mode, err := theme.ParseMode(q); err == nil {
			initial = &mode
		}
	}

	sess, err := s.sessions.Open(initial)
	if err != nil {
		s.logger.Warn(r.Context(), err, "Cannot open session")
		conn.Close(websocket.StatusTryAgainLater, "session unavailable")
		return
	}
	defer s.sessions.Close(sess.ID())

	ctx, cancel := context.WithCancel(s.ctx)
	defer cancel()

	s.logger.Debug(ctx, "WebSocket session started", "session", sess.ID(), "ip", getClientIP(r))

	go s.writePump(ctx, cancel, conn, sess)
	s.readPump(ctx, conn, sess)

	conn.Close(websocket.StatusNormalClosure, "")
	s.logger.Debug(ctx, "WebSocket session ended", "session", sess.ID())
}

// trackConn registers a connection unless shutdown has begun.
func (s *Server) trackConn() bool {
	s.connMu.Lock()
	defer s.connMu.Unlock()
	if s.isShutdown.Load() {
		return false
	}
	s.conns.Add(1)
	return true
}

// readPump feeds inbound frames to the session until the connection fails,
// ctx ends, or the session is closed.
func (s *Server) readPump(ctx context.Context, conn *websocket.Conn, sess *session.Session) {
	for {
		_, data, err := conn.Read(ctx)
		if err != nil {
			status := websocket.CloseStatus(err)
			if status != websocket.StatusNormalClosure && status != websocket.StatusGoingAway &&
				!errors.Is(err, context.Canceled) {
				s.logger.Debug(ctx, "WebSocket read ended", "session", sess.ID(), "error", err.Error())
			}
			return
		}

		if err := sess.HandleRaw(ctx, data); err != nil {
			return
		}
	}
}

// writePump drains the session's outbound queue to the page and keeps the
// connection alive with pings.
func (s *Server) writePump(ctx context.Context, cancel context.CancelFunc, conn *websocket.Conn, sess *session.Session) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		cancel()
	}()

	for {
		select {
		case <-ctx.Done():
			return

		case <-sess.Done():
			conn.Close(websocket.StatusGoingAway, "session closed")
			return

		case msg := <-sess.Outbound():
			writeCtx, writeCancel := context.WithTimeout(ctx, writeWait)
			err := wsjson.Write(writeCtx, conn, msg)
			writeCancel()
			if err != nil {
				s.logger.Debug(ctx, "WebSocket write failed", "session", sess.ID(), "error", err.Error())
				return
			}

		case <-ticker.C:
			pingCtx, pingCancel := context.WithTimeout(ctx, writeWait)
			err := conn.Ping(pingCtx)
			pingCancel()
			if err != nil {
				return
			}
		}
	}
}
