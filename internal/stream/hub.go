package stream

import (
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"drivesim/internal/sim"
)

const writeWait = 2 * time.Second

// Scene is the part of a simulation session a hub drives.
type Scene interface {
	Name() string
	Snapshot() sim.Snapshot
	SetPaused(paused bool)
	SetExclusion(enabled bool) bool
	Inspect(handle string) (sim.Inspection, error)
}

// Hub fans scene snapshots out to websocket clients and applies their
// control requests.
type Hub struct {
	mu       sync.Mutex
	clients  map[*websocket.Conn]struct{}
	upgrader websocket.Upgrader
	scene    Scene
}

// NewHub creates a hub for scene.
func NewHub(scene Scene) *Hub {
	return &Hub{
		clients: make(map[*websocket.Conn]struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
		scene: scene,
	}
}

// Clients returns the number of connected clients.
func (h *Hub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

func (h *Hub) add(conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[conn] = struct{}{}
}

func (h *Hub) remove(conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.clients, conn)
	conn.Close()
}

// Broadcast sends snap to every client, dropping clients that fail.
func (h *Hub) Broadcast(snap sim.Snapshot) {
	payload, err := EncodeSnapshot(snap)
	if err != nil {
		log.Printf("failed to encode snapshot: %v", err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	for conn := range h.clients {
		if err := write(conn, payload); err != nil {
			log.Printf("scene %s: failed to write to client: %v", h.scene.Name(), err)
			conn.Close()
			delete(h.clients, conn)
		}
	}
}

// reply sends payload to a single client.
func (h *Hub) reply(conn *websocket.Conn, payload []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[conn]; !ok {
		return
	}
	if err := write(conn, payload); err != nil {
		log.Printf("scene %s: failed to reply to client: %v", h.scene.Name(), err)
	}
}

// Close disconnects every client.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for conn := range h.clients {
		conn.Close()
		delete(h.clients, conn)
	}
}

// ServeHTTP upgrades the request and serves the client until it disconnects.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("websocket upgrade failed: %v", err)
		return
	}
	h.add(conn)
	defer h.remove(conn)

	// Send the current scene state immediately.
	if payload, err := EncodeSnapshot(h.scene.Snapshot()); err == nil {
		h.reply(conn, payload)
	}

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("scene %s: control stream read error: %v", h.scene.Name(), err)
			}
			return
		}

		control, err := DecodeControl(data)
		if err != nil {
			log.Printf("scene %s: unable to decode control: %v", h.scene.Name(), err)
			h.replyError(conn, err)
			continue
		}
		h.apply(conn, control)
	}
}

func (h *Hub) apply(conn *websocket.Conn, c Control) {
	switch c.Action {
	case ActionPause:
		h.scene.SetPaused(true)
	case ActionResume:
		h.scene.SetPaused(false)
	case ActionExclusion:
		h.scene.SetExclusion(c.Enabled)
	case ActionPick:
		in, err := h.scene.Inspect(c.Handle)
		if err != nil {
			h.replyError(conn, err)
			return
		}
		payload, err := EncodeInspection(in)
		if err != nil {
			log.Printf("failed to encode inspection: %v", err)
			return
		}
		h.reply(conn, payload)
		return
	}
	// Push the new state so every client sees the change.
	h.Broadcast(h.scene.Snapshot())
}

func (h *Hub) replyError(conn *websocket.Conn, err error) {
	payload, encErr := EncodeError(err)
	if encErr != nil {
		log.Printf("failed to encode error reply: %v", encErr)
		return
	}
	h.reply(conn, payload)
}

func write(conn *websocket.Conn, payload []byte) error {
	if err := conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return conn.WriteMessage(websocket.BinaryMessage, payload)
}
