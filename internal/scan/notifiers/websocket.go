package notifiers

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/daniacca/starseed/internal/scan"
)

// WebSocketNotifier broadcasts scan events to every subscribed WebSocket
// connection.
type WebSocketNotifier struct {
	id         string
	mu         sync.RWMutex
	clients    map[*websocket.Conn]bool
	upgrader   websocket.Upgrader
	broadcast  chan scan.Event
	register   chan *websocket.Conn
	unregister chan *websocket.Conn
	done       chan struct{}
	closeOnce  sync.Once
	wg         sync.WaitGroup
}

// NewWebSocketNotifier creates a notifier and starts its broadcast loop.
func NewWebSocketNotifier(id string) *WebSocketNotifier {
	n := &WebSocketNotifier{
		id:         id,
		clients:    make(map[*websocket.Conn]bool),
		broadcast:  make(chan scan.Event, 256),
		register:   make(chan *websocket.Conn),
		unregister: make(chan *websocket.Conn),
		done:       make(chan struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
	n.wg.Add(1)
	go n.run()
	return n
}

func (n *WebSocketNotifier) ID() string {
	return n.id
}

func (n *WebSocketNotifier) Type() string {
	return "websocket"
}

// RegisterClient subscribes conn to future events.
func (n *WebSocketNotifier) RegisterClient(conn *websocket.Conn) {
	select {
	case n.register <- conn:
	case <-n.done:
	}
}

// UnregisterClient removes conn and closes it.
func (n *WebSocketNotifier) UnregisterClient(conn *websocket.Conn) {
	select {
	case n.unregister <- conn:
	case <-n.done:
	}
}

// ClientCount is the number of subscribed connections.
func (n *WebSocketNotifier) ClientCount() int {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return len(n.clients)
}

// Notify queues event for broadcast.
func (n *WebSocketNotifier) Notify(ctx context.Context, event scan.Event) error {
	select {
	case <-n.done:
		return fmt.Errorf("notifier %s is closed", n.id)
	default:
	}
	select {
	case n.broadcast <- event:
		return nil
	case <-n.done:
		return fmt.Errorf("notifier %s is closed", n.id)
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(1 * time.Second):
		return fmt.Errorf("notification queue full")
	}
}

// SetCheckOrigin replaces the same-origin check applied to subscribers.
// It must be called before the notifier serves its first request.
func (n *WebSocketNotifier) SetCheckOrigin(check func(r *http.Request) bool) {
	n.upgrader.CheckOrigin = check
}

// ServeHTTP upgrades the request and keeps the connection subscribed until
// the client goes away. Incoming messages are ignored.
func (n *WebSocketNotifier) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := n.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	n.RegisterClient(conn)
	defer n.UnregisterClient(conn)
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (n *WebSocketNotifier) run() {
	defer n.wg.Done()
	for {
		select {
		case <-n.done:
			return

		case conn := <-n.register:
			if conn == nil {
				continue
			}
			n.mu.Lock()
			n.clients[conn] = true
			n.mu.Unlock()

		case conn := <-n.unregister:
			if conn == nil {
				continue
			}
			n.mu.Lock()
			if _, ok := n.clients[conn]; ok {
				delete(n.clients, conn)
				conn.Close()
			}
			n.mu.Unlock()

		case event := <-n.broadcast:
			data, err := event.JSON()
			if err != nil {
				continue
			}

			// Write outside the lock so a slow client does not block
			// registration.
			n.mu.RLock()
			conns := make([]*websocket.Conn, 0, len(n.clients))
			for conn := range n.clients {
				conns = append(conns, conn)
			}
			n.mu.RUnlock()

			var failed []*websocket.Conn
			for _, conn := range conns {
				conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
				if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
					failed = append(failed, conn)
					conn.Close()
				}
			}
			if len(failed) > 0 {
				n.mu.Lock()
				for _, conn := range failed {
					delete(n.clients, conn)
				}
				n.mu.Unlock()
			}
		}
	}
}

// Close disconnects every client and stops the broadcast loop. It is safe
// to call more than once.
func (n *WebSocketNotifier) Close() error {
	n.closeOnce.Do(func() {
		close(n.done)
		n.wg.Wait()

		n.mu.Lock()
		for conn := range n.clients {
			conn.Close()
			delete(n.clients, conn)
		}
		n.mu.Unlock()
	})
	return nil
}
