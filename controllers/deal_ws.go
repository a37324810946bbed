package controller

import (
	"log"
	"sync"

	"github.com/gofiber/websocket/v2"
)

// StageChangeEvent is pushed to board subscribers whenever a deal moves
// through the stage endpoint.
type StageChangeEvent struct {
	DealID string `json:"dealId"`
	From   string `json:"from"`
	To     string `json:"to"`
}

// BoardHub fans stage changes out to connected kanban board clients.
type BoardHub struct {
	mu     sync.Mutex
	conns  map[*websocket.Conn]bool
	Logger *log.Logger
}

func NewBoardHub(logger *log.Logger) *BoardHub {
	return &BoardHub{
		conns:  make(map[*websocket.Conn]bool),
		Logger: logger,
	}
}

// Handle registers the connection and blocks until the client disconnects.
// Incoming messages are drained and discarded; the feed is one-way.
func (h *BoardHub) Handle(conn *websocket.Conn) {
	h.mu.Lock()
	h.conns[conn] = true
	h.mu.Unlock()

	defer func() {
		h.mu.Lock()
		delete(h.conns, conn)
		h.mu.Unlock()
		conn.Close()
	}()

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *BoardHub) Broadcast(ev StageChangeEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for conn := range h.conns {
		if err := conn.WriteJSON(ev); err != nil {
			h.Logger.Printf("dropping board subscriber: %v", err)
			conn.Close()
			delete(h.conns, conn)
		}
	}
}
