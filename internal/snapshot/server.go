package snapshot

import (
	"context"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/openracing/ffbengine/internal/config"
)

// StateFunc produces the current ProcessSnapshot on demand. The
// embedding host supplies one backed by the RT loop's atomic counters
// and the FMEA/watchdog registries; Server never reaches into those
// subsystems directly.
type StateFunc func() ProcessSnapshot

// Server exposes GET /api/state, GET/POST /api/config, and a /ws stream
// that sends the latest ProcessSnapshot on connect and then every 100ms.
// Fault transitions reach clients only as changes between those
// snapshots; the server pushes no separate transition event.
type Server struct {
	cfg      *config.Config
	stateFn  StateFunc
	upgrader websocket.Upgrader

	clients   map[*wsClient]struct{}
	clientsMu sync.RWMutex

	// configChanged signals every time POST /api/config successfully
	// saves a new config. Buffered by 1: only the latest update matters,
	// so a full buffer just drops the signal rather than blocking the
	// HTTP handler.
	configChanged chan struct{}
}

type wsClient struct {
	conn *websocket.Conn
	send chan []byte
}

// New creates a Server that reads live state via stateFn.
func New(cfg *config.Config, stateFn StateFunc) *Server {
	return &Server{
		cfg:     cfg,
		stateFn: stateFn,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		clients:       make(map[*wsClient]struct{}),
		configChanged: make(chan struct{}, 1),
	}
}

// ConfigChanged returns the channel the embedding host listens on to
// recompile the filter pipeline and stage it into the RT loop whenever
// POST /api/config changes the live config. Server itself never touches
// the pipeline or RT loop; recompiling is the host's job (§2's "off the
// hot path" compile-and-swap split).
func (s *Server) ConfigChanged() <-chan struct{} {
	return s.configChanged
}

// Run starts the HTTP server and the periodic broadcast loop, and
// blocks until ctx is cancelled or the listener fails.
func (s *Server) Run(ctx context.Context) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/state", s.handleState)
	mux.HandleFunc("/api/config", s.handleConfig)
	mux.HandleFunc("/ws", s.handleWS)

	go s.broadcastLoop(ctx)

	_, _, listen := s.cfg.Snapshot()
	srv := &http.Server{Addr: listen, Handler: mux}

	go func() {
		<-ctx.Done()
		shutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutCtx)
	}()

	log.Printf("[snapshot] listening on %s", listen)
	return srv.ListenAndServe()
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	data, err := json.Marshal(s.stateFn())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Write(data)
}

func (s *Server) handleConfig(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		data, err := s.cfg.ToJSON()
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write(data)

	case http.MethodPost:
		body, err := io.ReadAll(r.Body)
		if err != nil {
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}
		if err := s.cfg.UpdateFromJSON(body); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if err := s.cfg.Save(); err != nil {
			log.Printf("[snapshot] config save failed: %v", err)
		}
		select {
		case s.configChanged <- struct{}{}:
		default:
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))

	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[snapshot] ws upgrade error: %v", err)
		return
	}

	client := &wsClient{conn: conn, send: make(chan []byte, 16)}

	s.clientsMu.Lock()
	s.clients[client] = struct{}{}
	s.clientsMu.Unlock()

	if data, err := json.Marshal(s.stateFn()); err == nil {
		client.send <- data
	}

	go func() {
		defer conn.Close()
		for msg := range client.send {
			if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				break
			}
		}
	}()

	go func() {
		defer func() {
			s.clientsMu.Lock()
			delete(s.clients, client)
			s.clientsMu.Unlock()
			close(client.send)
		}()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				break
			}
		}
	}()
}

// broadcastLoop pushes the current snapshot to every connected client
// at a fixed rate, well below the RT loop's own 1kHz tick rate.
func (s *Server) broadcastLoop(ctx context.Context) {
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Broadcast(s.stateFn())
		}
	}
}

// Broadcast pushes snap to every connected client immediately,
// dropping it for any client whose send buffer is full rather than
// blocking.
func (s *Server) Broadcast(snap ProcessSnapshot) {
	data, err := json.Marshal(snap)
	if err != nil {
		return
	}

	s.clientsMu.RLock()
	defer s.clientsMu.RUnlock()
	for client := range s.clients {
		select {
		case client.send <- data:
		default:
		}
	}
}
