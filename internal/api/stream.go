package api

import (
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

// ReportEvent describes websocket payloads emitted when a report is stored.
// Descriptions are not broadcast.
type ReportEvent struct {
	Type            string    `json:"type"`
	ReportID        string    `json:"report_id"`
	Name            string    `json:"name,omitempty"`
	RiskCategory    string    `json:"risk_category"`
	RiskScore       int       `json:"risk_score"`
	ComplianceScore float64   `json:"compliance_score"`
	Timestamp       time.Time `json:"timestamp"`
}

// wsClient wraps a websocket connection with write locking.
type wsClient struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

// ReportNotifier keeps track of active websocket clients and broadcasts report events.
type ReportNotifier struct {
	mu      sync.Mutex
	clients map[*wsClient]struct{}
	last    *ReportEvent
}

func NewReportNotifier() *ReportNotifier {
	return &ReportNotifier{clients: make(map[*wsClient]struct{})}
}

// Register attaches a websocket connection and replays the latest event.
func (n *ReportNotifier) Register(conn *websocket.Conn) *wsClient {
	client := &wsClient{conn: conn}
	n.mu.Lock()
	n.clients[client] = struct{}{}
	last := n.last
	n.mu.Unlock()

	if last != nil {
		_ = client.writeJSON(*last)
	}
	return client
}

// Unregister removes the websocket client from the notifier and closes the socket.
func (n *ReportNotifier) Unregister(client *wsClient) {
	if client == nil {
		return
	}
	n.mu.Lock()
	delete(n.clients, client)
	n.mu.Unlock()
	_ = client.conn.Close()
}

// Broadcast sends the event to all registered clients, dropping any that fail.
func (n *ReportNotifier) Broadcast(event ReportEvent) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}

	n.mu.Lock()
	snapshot := event
	n.last = &snapshot
	clients := make([]*wsClient, 0, len(n.clients))
	for client := range n.clients {
		clients = append(clients, client)
	}
	n.mu.Unlock()

	for _, client := range clients {
		if err := client.writeJSON(event); err != nil {
			logrus.WithError(err).Debug("drop report websocket client")
			n.Unregister(client)
		}
	}
}

// Clients returns the number of connected clients.
func (n *ReportNotifier) Clients() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.clients)
}

func (c *wsClient) writeJSON(payload interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn == nil {
		return nil
	}
	c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
	return c.conn.WriteJSON(payload)
}

func (s *Server) handleReportStream(c *gin.Context) {
	upgrader := websocket.Upgrader{
		HandshakeTimeout:  5 * time.Second,
		EnableCompression: true,
		CheckOrigin: func(r *http.Request) bool {
			if len(s.allowedOrigins) == 0 {
				return true
			}
			origin := strings.TrimSpace(r.Header.Get("Origin"))
			if origin == "" {
				return true
			}
			for _, allowed := range s.allowedOrigins {
				if strings.EqualFold(origin, allowed) {
					return true
				}
			}
			return false
		},
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logrus.WithError(err).Warn("upgrade websocket")
		return
	}

	client := s.notifier.Register(conn)
	logrus.WithField("remote", conn.RemoteAddr().String()).Info("report websocket connected")
	defer s.notifier.Unregister(client)

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if !websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logrus.WithField("remote", conn.RemoteAddr().String()).Info("report websocket closed")
			} else {
				logrus.WithError(err).Warn("report websocket unexpected close")
			}
			break
		}
	}
}
