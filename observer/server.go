// Package observer streams simulation events to websocket clients.
package observer

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/milk9111/navgraph/event"
)

const clientBuffer = 256

// Message is the JSON frame sent for every event.
type Message struct {
	Type event.Type `json:"type"`
	Time time.Time  `json:"time"`
	Data any        `json:"data,omitempty"`
}

// Server fans bus events out to websocket clients. A client that falls
// behind loses frames rather than stalling the simulation.
type Server struct {
	log      *log.Logger
	upgrader websocket.Upgrader

	mu      sync.Mutex
	clients map[uint64]*client
	nextID  atomic.Uint64

	sent    atomic.Uint64
	dropped atomic.Uint64
}

type client struct {
	id     uint64
	out    chan []byte
	types  map[event.Type]bool
	closed bool
}

func (c *client) wants(t event.Type) bool {
	return len(c.types) == 0 || c.types[t]
}

func NewServer(logger *log.Logger) *Server {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Server{
		log:     logger,
		clients: make(map[uint64]*client),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4 * 1024,
			WriteBufferSize: 64 * 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

// Subscribe forwards every event on bus until the returned func is called.
func (s *Server) Subscribe(bus *event.Bus) func() {
	return bus.SubscribeAll(s.Broadcast)
}

// Broadcast queues evt for every interested client without blocking.
func (s *Server) Broadcast(evt event.Event) {
	b, err := json.Marshal(Message{Type: evt.Type, Time: evt.Time, Data: evt.Data})
	if err != nil {
		s.log.Printf("observer: marshal %s: %v", evt.Type, err)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.clients {
		if c.closed || !c.wants(evt.Type) {
			continue
		}
		select {
		case c.out <- b:
			s.sent.Add(1)
		default:
			s.dropped.Add(1)
		}
	}
}

// Clients is the number of connected clients.
func (s *Server) Clients() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.clients)
}

// Handler serves /ws for the stream and /healthz for counters.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.WSHandler())
	mux.HandleFunc("/healthz", s.HealthHandler())
	return mux
}

func (s *Server) HealthHandler() http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		rw.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(rw).Encode(map[string]any{
			"ok":      true,
			"clients": s.Clients(),
			"sent":    s.sent.Load(),
			"dropped": s.dropped.Load(),
		})
	}
}

// WSHandler upgrades loopback connections. ?types=a,b limits the stream to
// those event types.
func (s *Server) WSHandler() http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		if !isLoopbackRemote(r.RemoteAddr) {
			http.Error(rw, "forbidden", http.StatusForbidden)
			return
		}

		conn, err := s.upgrader.Upgrade(rw, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		c := &client{
			id:    s.nextID.Add(1),
			out:   make(chan []byte, clientBuffer),
			types: parseTypes(r.URL.Query().Get("types")),
		}
		s.add(c)
		defer s.remove(c)
		s.log.Printf("observer: client %d connected from %s", c.id, r.RemoteAddr)

		// Reader only notices the peer going away.
		done := make(chan struct{})
		go func() {
			defer close(done)
			for {
				if _, _, err := conn.ReadMessage(); err != nil {
					return
				}
			}
		}()

		for {
			select {
			case <-done:
				s.log.Printf("observer: client %d disconnected", c.id)
				return
			case b, ok := <-c.out:
				if !ok {
					_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseGoingAway, "shutdown"), time.Now().Add(time.Second))
					return
				}
				_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
				if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
					return
				}
			}
		}
	}
}

// Close disconnects every client.
func (s *Server) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.clients {
		if !c.closed {
			c.closed = true
			close(c.out)
		}
	}
}

func (s *Server) add(c *client) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clients[c.id] = c
}

func (s *Server) remove(c *client) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.clients, c.id)
	if !c.closed {
		c.closed = true
		close(c.out)
	}
}

func parseTypes(raw string) map[event.Type]bool {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	out := map[event.Type]bool{}
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out[event.Type(p)] = true
		}
	}
	return out
}

func isLoopbackRemote(remoteAddr string) bool {
	host := remoteAddr
	if h, _, err := net.SplitHostPort(remoteAddr); err == nil {
		host = h
	}
	host = strings.TrimPrefix(host, "[")
	host = strings.TrimSuffix(host, "]")
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}

// URL returns the websocket URL for a server listening on addr.
func URL(addr string) string {
	if strings.HasPrefix(addr, ":") {
		addr = "127.0.0.1" + addr
	}
	return fmt.Sprintf("ws://%s/ws", addr)
}
