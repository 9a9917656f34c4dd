package monitor

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/Kim1ni/lumina-firmware/internal/logging"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Push the latest snapshot to subscribers with this period
	defaultPushPeriod = time.Second
)

// Snapshot is the telemetry view published to subscribers.
type Snapshot struct {
	Device         string  `json:"device"`
	Mode           string  `json:"mode"`
	Strategy       string  `json:"strategy,omitempty"`
	BatteryVolts   float64 `json:"battery_volts"`
	BatteryPercent uint8   `json:"battery_percent"`
	FreeHeap       uint32  `json:"free_heap"`
	RSSI           int     `json:"rssi"`
	UptimeMillis   int64   `json:"uptime_ms"`
}

// Server publishes device telemetry over WebSocket. The firmware loop
// calls SetSnapshot from its own goroutine; a push loop fans the latest
// snapshot out to subscribers once per period, so the hot path never
// touches the network.
type Server struct {
	addr       string
	pushPeriod time.Duration

	mu      sync.Mutex
	latest  Snapshot
	clients map[*websocket.Conn]struct{}

	httpSrv  *http.Server
	upgrader websocket.Upgrader
	done     chan struct{}
	wg       sync.WaitGroup
}

// New creates a monitor server listening on addr.
func New(addr string) *Server {
	return &Server{
		addr:       addr,
		pushPeriod: defaultPushPeriod,
		clients:    make(map[*websocket.Conn]struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Local debugging tool, any origin is fine.
			CheckOrigin: func(*http.Request) bool { return true },
		},
		done: make(chan struct{}),
	}
}

// SetSnapshot records the latest telemetry. Safe to call from the
// firmware tick goroutine.
func (s *Server) SetSnapshot(snap Snapshot) {
	s.mu.Lock()
	s.latest = snap
	s.mu.Unlock()
}

// Start begins serving in the background.
func (s *Server) Start() error {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWS)
	mux.HandleFunc("/status", s.handleStatus)

	s.httpSrv = &http.Server{
		Addr:              s.addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	logging.Info("Starting telemetry monitor",
		zap.String("addr", s.addr),
	)

	s.wg.Add(2)
	go func() {
		defer s.wg.Done()
		if err := s.httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.Error("Monitor server stopped", zap.Error(err))
		}
	}()
	go func() {
		defer s.wg.Done()
		s.pushLoop()
	}()

	return nil
}

// Shutdown stops the server and closes all subscriber connections.
func (s *Server) Shutdown(ctx context.Context) error {
	close(s.done)

	s.mu.Lock()
	for conn := range s.clients {
		_ = conn.Close()
	}
	s.clients = make(map[*websocket.Conn]struct{})
	s.mu.Unlock()

	var err error
	if s.httpSrv != nil {
		err = s.httpSrv.Shutdown(ctx)
	}
	s.wg.Wait()
	return err
}

// Subscribers returns the number of connected WebSocket clients.
func (s *Server) Subscribers() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.clients)
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logging.Error("WebSocket upgrade failed",
			zap.String("remote_addr", r.RemoteAddr),
			zap.Error(err),
		)
		return
	}
	remoteAddr := conn.RemoteAddr().String()

	s.mu.Lock()
	s.clients[conn] = struct{}{}
	s.mu.Unlock()

	logging.Info("Monitor subscriber connected",
		zap.String("remote_addr", remoteAddr),
	)

	// Reader loop only exists to notice the peer going away; the
	// monitor is one-directional.
	go func() {
		defer func() {
			s.mu.Lock()
			delete(s.clients, conn)
			s.mu.Unlock()
			_ = conn.Close()
			logging.Info("Monitor subscriber disconnected",
				zap.String("remote_addr", remoteAddr),
			)
		}()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	snap := s.latest
	s.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(snap); err != nil {
		logging.Error("Failed to write status response", zap.Error(err))
	}
}

// pushLoop fans the latest snapshot out to every subscriber once per
// period.
func (s *Server) pushLoop() {
	ticker := time.NewTicker(s.pushPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
		}

		s.mu.Lock()
		snap := s.latest
		conns := make([]*websocket.Conn, 0, len(s.clients))
		for conn := range s.clients {
			conns = append(conns, conn)
		}
		s.mu.Unlock()

		if len(conns) == 0 {
			continue
		}

		payload, err := json.Marshal(snap)
		if err != nil {
			logging.Error("Failed to marshal snapshot", zap.Error(err))
			continue
		}

		for _, conn := range conns {
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				logging.Debug("Dropping slow monitor subscriber",
					zap.String("remote_addr", conn.RemoteAddr().String()),
					zap.Error(err),
				)
				s.mu.Lock()
				delete(s.clients, conn)
				s.mu.Unlock()
				_ = conn.Close()
			}
		}
	}
}

// FormatAddr normalizes a listen address, accepting a bare port.
func FormatAddr(addr string) string {
	if addr == "" || strings.Contains(addr, ":") {
		return addr
	}
	return ":" + addr
}
