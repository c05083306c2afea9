package server

import (
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"gochat/pkg/liveness"
	"gochat/pkg/presence"
	"gochat/pkg/protocol"
)

// checkOrigin pins browser handshakes to the configured frontend origin.
// Requests without an Origin header (non-browser clients) pass; with no
// origin configured, any origin is accepted.
func (s *Server) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" || s.config.AllowedOrigin == "" {
		return true
	}
	return strings.EqualFold(origin, s.config.AllowedOrigin)
}

// wsTransport serializes data writes to one websocket connection. Control
// frames (pings) go through WriteControl, which gorilla allows concurrently
// with data writes.
type wsTransport struct {
	conn      *websocket.Conn
	writeMu   sync.Mutex
	writeWait time.Duration
}

func (t *wsTransport) WriteMessage(payload []byte) error {
	t.writeMu.Lock()
	defer t.writeMu.Unlock()

	t.conn.SetWriteDeadline(time.Now().Add(t.writeWait))
	return t.conn.WriteMessage(websocket.TextMessage, payload)
}

// WritePing satisfies the liveness transport contract.
func (t *wsTransport) WritePing(deadline time.Time) error {
	return t.conn.WriteControl(websocket.PingMessage, nil, deadline)
}

// ForceClose satisfies the liveness transport contract.
func (t *wsTransport) ForceClose() error {
	return t.conn.Close()
}

// connection tracks everything attached to one websocket for teardown.
// client is nil when the connection carried no valid identity token; such
// connections stay open but cannot send or receive messages.
type connection struct {
	id        string
	transport *wsTransport
	client    *presence.Client
	monitor   *liveness.Monitor
	closeOnce sync.Once
}

func (s *Server) ginHandleWebSocket(c *gin.Context) {
	s.handleWebSocket(c.Writer, c.Request)
}

// handleWebSocket runs the full connection lifecycle: upgrade, identity
// verification, registration, heartbeat monitoring, the read loop and
// teardown.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	wsConn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.ErrorWithErr("websocket upgrade failed", err, "remote", r.RemoteAddr)
		return
	}
	wsConn.SetReadLimit(int64(s.config.Uploads.MaxSizeKB) * 1024 * 2)

	conn := &connection{
		id: uuid.NewString(),
		transport: &wsTransport{
			conn:      wsConn,
			writeWait: s.config.Heartbeat.WriteWait(),
		},
	}

	identity, err := s.identityFromRequest(r)
	if err != nil {
		// No usable token. The socket stays open so the client can see
		// heartbeats, but nothing routes to or from it.
		s.log.DebugWith("unauthenticated websocket connection", "connID", conn.id, "remote", r.RemoteAddr)
	} else {
		conn.client = presence.NewClient(conn.id, *identity, wsConn)
		s.registry.Register(conn.client)
		go s.writePump(conn)

		s.log.InfoWith("client connected",
			"connID", conn.id,
			"userID", identity.UserID,
			"username", identity.Username)
	}

	conn.monitor = liveness.NewMonitor(
		conn.transport,
		s.config.Heartbeat.ProbeInterval(),
		s.config.Heartbeat.AckWait(),
		func() { s.reapConnection(conn) },
	)
	wsConn.SetPongHandler(func(string) error {
		conn.monitor.Pong()
		return nil
	})
	conn.monitor.Start()

	if conn.client != nil {
		s.broadcastRoster()
	}

	s.readPump(conn)
}

// readPump consumes inbound frames until the transport errors out, then
// tears the connection down.
func (s *Server) readPump(conn *connection) {
	defer s.closeConnection(conn)

	for {
		_, data, err := conn.transport.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.log.DebugWith("websocket read error", "connID", conn.id, "error", err)
			}
			return
		}

		if conn.client == nil {
			s.log.DebugWith("dropping frame from unauthenticated connection", "connID", conn.id)
			continue
		}

		s.routeInbound(conn.client, data)
	}
}

// writePump drains the client's outbound queue onto the wire. A write
// failure closes the transport, which unblocks the read pump and triggers
// the normal teardown path.
func (s *Server) writePump(conn *connection) {
	for payload := range conn.client.Outbound() {
		if err := conn.transport.WriteMessage(payload); err != nil {
			s.log.DebugWith("websocket write failed", "connID", conn.id, "error", err)
			conn.transport.ForceClose()
			return
		}
	}
}

// reapConnection is the heartbeat death callback. The monitor has already
// force-closed the transport.
func (s *Server) reapConnection(conn *connection) {
	s.log.InfoWith("connection reaped by heartbeat monitor", "connID", conn.id)
	s.closeConnection(conn)
}

// closeConnection finalizes a connection exactly once: stop probing, drop
// the roster binding and tell everyone the roster changed. Safe to reach
// from both the read pump and the heartbeat monitor.
func (s *Server) closeConnection(conn *connection) {
	conn.closeOnce.Do(func() {
		conn.monitor.Stop()

		if conn.client == nil {
			conn.transport.ForceClose()
			return
		}

		s.registry.Deregister(conn.id)
		conn.client.Close()

		s.log.InfoWith("client disconnected",
			"connID", conn.id,
			"userID", conn.client.Identity().UserID)

		s.broadcastRoster()
	})
}

// broadcastRoster pushes the current online roster to every registered
// connection. Push failures mean a slow or dying client; the heartbeat
// monitor will deal with it.
func (s *Server) broadcastRoster() {
	payload, err := protocol.EncodeRoster(s.registry.Snapshot())
	if err != nil {
		s.log.ErrorWithErr("failed to encode roster", err)
		return
	}

	for _, client := range s.registry.All() {
		if err := client.Push(payload); err != nil {
			s.log.WarnWith("roster push failed",
				"connID", client.ID(),
				"userID", client.Identity().UserID,
				"error", err)
		}
	}
}
