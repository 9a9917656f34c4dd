package sim

import (
	"fmt"
	"math/rand"
	"net"
	"sync"
	"time"

	"github.com/grandcat/zeroconf"
	"go.uber.org/zap"

	"github.com/Kim1ni/lumina-firmware/internal/discovery"
	"github.com/Kim1ni/lumina-firmware/internal/hal"
	"github.com/Kim1ni/lumina-firmware/internal/logging"
	"github.com/Kim1ni/lumina-firmware/internal/protocol"
)

// Transport simulates the device radio on the host network stack.
// Station joins always associate after a fixed delay; access-point mode
// additionally advertises the device over mDNS so companion tooling can
// discover the simulator. Datagrams flow over a real UDP socket.
type Transport struct {
	deviceName string
	port       int
	joinDelay  time.Duration

	mu       sync.Mutex
	conn     *net.UDPConn
	inbox    chan hal.Datagram
	station  bool
	joinedAt time.Time
	mdns     *zeroconf.Server
}

// NewTransport returns a transport for the given UDP port. joinDelay is
// how long a simulated station association takes.
func NewTransport(deviceName string, port int, joinDelay time.Duration) *Transport {
	return &Transport{
		deviceName: deviceName,
		port:       port,
		joinDelay:  joinDelay,
	}
}

func (t *Transport) Join(ssid, password string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.shutdownAP()
	if !t.station {
		t.station = true
		t.joinedAt = time.Now()
	}
	logging.Debug("simulated station join", zap.String("ssid", ssid))
	return nil
}

func (t *Transport) StartAccessPoint(name, passphrase string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.station = false
	t.shutdownAP()

	server, err := discovery.Advertise(t.deviceName, t.port)
	if err != nil {
		// The UDP presence broadcast still makes the device
		// discoverable, so AP mode proceeds without mDNS.
		logging.Warn("mDNS advertisement failed", zap.Error(err))
	} else {
		t.mdns = server
	}
	logging.Info("simulated access point up", zap.String("ssid", name))
	return nil
}

func (t *Transport) Listen() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.conn != nil {
		return nil
	}

	conn, err := net.ListenUDP("udp4", &net.UDPAddr{Port: t.port})
	if err != nil {
		return fmt.Errorf("listen udp :%d: %w", t.port, err)
	}
	t.conn = conn
	t.inbox = make(chan hal.Datagram, 16)
	go t.readLoop(conn, t.inbox)

	logging.Debug("udp listener up", zap.Int("port", t.port))
	return nil
}

func (t *Transport) readLoop(conn *net.UDPConn, inbox chan<- hal.Datagram) {
	buf := make([]byte, 512)
	for {
		n, from, err := conn.ReadFromUDP(buf)
		if err != nil {
			return // listener stopped
		}
		if n == 0 {
			continue
		}
		// The socket hears the device's own status broadcasts on the
		// shared port; those are not commands.
		if buf[0] >= protocol.StatusHeartbeat && buf[0] <= protocol.StatusState {
			continue
		}
		data := make([]byte, n)
		copy(data, buf[:n])
		select {
		case inbox <- hal.Datagram{From: from.String(), Data: data}:
		default:
			// Inbox full; the cooperative loop is behind. Drop.
		}
	}
}

func (t *Transport) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.conn != nil {
		_ = t.conn.Close()
		t.conn = nil
		t.inbox = nil
	}
	t.shutdownAP()
}

// shutdownAP must be called with the lock held.
func (t *Transport) shutdownAP() {
	if t.mdns != nil {
		t.mdns.Shutdown()
		t.mdns = nil
	}
}

func (t *Transport) SendBroadcast(data []byte) error {
	t.mu.Lock()
	conn := t.conn
	t.mu.Unlock()

	if conn == nil {
		return fmt.Errorf("broadcast with no listener")
	}
	dst := &net.UDPAddr{IP: net.IPv4bcast, Port: t.port}
	if _, err := conn.WriteToUDP(data, dst); err != nil {
		return fmt.Errorf("broadcast: %w", err)
	}
	return nil
}

func (t *Transport) Reply(to string, data []byte) error {
	t.mu.Lock()
	conn := t.conn
	t.mu.Unlock()

	if conn == nil {
		return fmt.Errorf("reply with no listener")
	}
	addr, err := net.ResolveUDPAddr("udp4", to)
	if err != nil {
		return fmt.Errorf("resolve %q: %w", to, err)
	}
	if _, err := conn.WriteToUDP(data, addr); err != nil {
		return fmt.Errorf("reply to %s: %w", to, err)
	}
	return nil
}

func (t *Transport) ReceivePending() (hal.Datagram, bool) {
	t.mu.Lock()
	inbox := t.inbox
	t.mu.Unlock()

	if inbox == nil {
		return hal.Datagram{}, false
	}
	select {
	case dg := <-inbox:
		return dg, true
	default:
		return hal.Datagram{}, false
	}
}

func (t *Transport) Connected() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.station && time.Since(t.joinedAt) >= t.joinDelay
}

func (t *Transport) LocalAddr() string {
	// Outbound-interface trick; no packet is sent.
	conn, err := net.Dial("udp4", "192.0.2.1:1")
	if err != nil {
		return "127.0.0.1"
	}
	defer conn.Close()
	if addr, ok := conn.LocalAddr().(*net.UDPAddr); ok {
		return addr.IP.String()
	}
	return "127.0.0.1"
}

func (t *Transport) SignalStrength() int {
	// Plausible apartment-distance RSSI with jitter.
	return -45 - rand.Intn(15)
}
