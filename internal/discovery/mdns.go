package discovery

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/grandcat/zeroconf"
)

const (
	// ServiceType is the mDNS service type Lumina devices advertise.
	ServiceType = "_lumina._udp"

	// ServiceDomain is the mDNS domain (typically "local.")
	ServiceDomain = "local."

	// DefaultScanTimeout is the default timeout for device discovery
	DefaultScanTimeout = 10 * time.Second
)

// Device is one discovered Lumina device.
type Device struct {
	Name string
	Host string
	Addr net.IP
	Port int
}

// String returns the device as "Name (addr:port)".
func (d *Device) String() string {
	return fmt.Sprintf("%s (%s:%d)", d.Name, d.Addr, d.Port)
}

// Advertise registers the device on mDNS so companion apps can find it
// without knowing its address. The caller shuts the returned server
// down when leaving provisioning.
func Advertise(instance string, port int) (*zeroconf.Server, error) {
	server, err := zeroconf.Register(instance, ServiceType, ServiceDomain, port,
		[]string{"vendor=lumina"}, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to register mDNS service: %w", err)
	}
	return server, nil
}

// Scanner handles mDNS device discovery
type Scanner struct {
	// Timeout is the maximum time to wait for device discovery
	Timeout time.Duration
}

// NewScanner creates a new mDNS scanner with default settings
func NewScanner() *Scanner {
	return &Scanner{
		Timeout: DefaultScanTimeout,
	}
}

// ScanForDevices discovers all Lumina devices on the local network
// Returns a list of discovered devices or an error
func (s *Scanner) ScanForDevices() ([]*Device, error) {
	return s.ScanForDevicesWithContext(context.Background())
}

// ScanForDevicesWithContext discovers devices with a custom context
func (s *Scanner) ScanForDevicesWithContext(ctx context.Context) ([]*Device, error) {
	ctx, cancel := context.WithTimeout(ctx, s.Timeout)
	defer cancel()

	entries := make(chan *zeroconf.ServiceEntry)
	devices := make([]*Device, 0)
	done := make(chan struct{})

	resolver, err := zeroconf.NewResolver(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create mDNS resolver: %w", err)
	}

	// Collect service entries in a goroutine
	go func() {
		defer close(done)
		for entry := range entries {
			if device := parseServiceEntry(entry); device != nil {
				devices = append(devices, device)
			}
		}
	}()

	if err := resolver.Browse(ctx, ServiceType, ServiceDomain, entries); err != nil {
		return nil, fmt.Errorf("failed to browse for mDNS services: %w", err)
	}

	// Wait for context to complete (timeout or cancellation)
	<-ctx.Done()
	<-done

	return devices, nil
}

// parseServiceEntry converts one mDNS entry into a Device. Entries
// without an IPv4 address are skipped.
func parseServiceEntry(entry *zeroconf.ServiceEntry) *Device {
	if entry == nil || len(entry.AddrIPv4) == 0 {
		return nil
	}
	return &Device{
		Name: entry.Instance,
		Host: entry.HostName,
		Addr: entry.AddrIPv4[0],
		Port: entry.Port,
	}
}
