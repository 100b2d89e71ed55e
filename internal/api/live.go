package api

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

// LiveEvent is pushed to websocket subscribers whenever a race's results
// change. Clients re-fetch the leaderboard on receipt; events carry no rows.
type LiveEvent struct {
	Type   string `json:"type"`
	RaceID int64  `json:"race_id"`
}

const (
	liveEventChanged = "leaderboard_changed"

	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 50 * time.Second
)

// LiveHub fans leaderboard change notifications out to websocket clients,
// grouped by race. It satisfies the service change listener interface.
type LiveHub struct {
	logger   *logrus.Logger
	upgrader websocket.Upgrader

	mu      sync.Mutex
	clients map[int64]map[*liveClient]struct{}
	closed  bool
}

type liveClient struct {
	conn *websocket.Conn
	send chan LiveEvent
}

// NewLiveHub creates the hub
func NewLiveHub(logger *logrus.Logger) *LiveHub {
	return &LiveHub{
		logger: logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Cross-origin browsers are allowed; the data is public rankings.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		clients: make(map[int64]map[*liveClient]struct{}),
	}
}

// LeaderboardChanged notifies every subscriber of the race. Slow clients are
// skipped for this event rather than blocking the write path.
func (h *LiveHub) LeaderboardChanged(raceID int64) {
	event := LiveEvent{Type: liveEventChanged, RaceID: raceID}

	h.mu.Lock()
	defer h.mu.Unlock()
	for client := range h.clients[raceID] {
		select {
		case client.send <- event:
		default:
		}
	}
}

// Subscribe upgrades the request to a websocket and streams change events
// for one race until the client disconnects or the hub closes.
func (h *LiveHub) Subscribe(w http.ResponseWriter, r *http.Request, raceID int64) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.WithError(err).Warn("Websocket upgrade failed")
		return
	}

	client := &liveClient{conn: conn, send: make(chan LiveEvent, 8)}

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		conn.Close()
		return
	}
	if h.clients[raceID] == nil {
		h.clients[raceID] = make(map[*liveClient]struct{})
	}
	h.clients[raceID][client] = struct{}{}
	h.mu.Unlock()

	h.logger.WithField("race_id", raceID).Debug("Live subscriber connected")

	go h.writeLoop(client)
	h.readLoop(client, raceID)
}

// readLoop discards client frames and tears the client down on disconnect.
func (h *LiveHub) readLoop(client *liveClient, raceID int64) {
	defer h.remove(client, raceID)

	client.conn.SetReadLimit(512)
	client.conn.SetReadDeadline(time.Now().Add(pongWait))
	client.conn.SetPongHandler(func(string) error {
		return client.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := client.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *LiveHub) writeLoop(client *liveClient) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case event, ok := <-client.send:
			client.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				client.conn.WriteMessage(websocket.CloseMessage, nil)
				return
			}
			if err := client.conn.WriteJSON(event); err != nil {
				return
			}
		case <-ticker.C:
			client.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := client.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (h *LiveHub) remove(client *liveClient, raceID int64) {
	h.mu.Lock()
	if subscribers, ok := h.clients[raceID]; ok {
		if _, present := subscribers[client]; present {
			delete(subscribers, client)
			close(client.send)
			if len(subscribers) == 0 {
				delete(h.clients, raceID)
			}
		}
	}
	h.mu.Unlock()
	client.conn.Close()
}

// Close disconnects all subscribers. Used on server shutdown.
func (h *LiveHub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true
	for _, subscribers := range h.clients {
		for client := range subscribers {
			close(client.send)
			client.conn.Close()
		}
	}
	h.clients = make(map[int64]map[*liveClient]struct{})
}
