package hal

import "errors"

// LEDRing is the pixel surface of the lamp. Implementations buffer pixel
// writes until Show is called.
type LEDRing interface {
	// Len returns the number of pixels on the ring.
	Len() int
	// SetPixel stages an RGB value for one pixel. Out-of-range indexes
	// are ignored.
	SetPixel(index int, r, g, b uint8)
	// Clear stages black on every pixel.
	Clear()
	// Show pushes the staged pixel buffer to the hardware.
	Show()
	// SetBrightness sets the global brightness scale (0-255).
	SetBrightness(level uint8)
}

// Datagram is one received packet together with its sender address.
type Datagram struct {
	From string
	Data []byte
}

// Transport is the network radio surface. The device either joins an
// infrastructure network (station mode) or runs its own access point
// (provisioning); both modes exchange UDP datagrams on a single port.
type Transport interface {
	// Join begins connecting to an infrastructure network. The attempt
	// completes asynchronously; poll Connected for the outcome.
	Join(ssid, password string) error
	// StartAccessPoint switches the radio to local access-point mode so
	// a companion app can reach the device without a shared network.
	StartAccessPoint(name, passphrase string) error
	// Listen opens the datagram listener for the current mode.
	Listen() error
	// Stop closes the datagram listener.
	Stop()
	// SendBroadcast sends one datagram to the local broadcast address.
	SendBroadcast(data []byte) error
	// Reply sends one datagram directly to a previous sender.
	Reply(to string, data []byte) error
	// ReceivePending returns one queued inbound datagram, if any.
	ReceivePending() (Datagram, bool)
	// Connected reports whether the station link is up.
	Connected() bool
	// LocalAddr returns the device address on the current network.
	LocalAddr() string
	// SignalStrength returns the last RSSI sample in dBm (negative).
	SignalStrength() int
}

// ByteStore is the raw persistent store backing the credential record.
// Writes are staged until Commit.
type ByteStore interface {
	ReadByte(offset int) byte
	WriteByte(offset int, value byte)
	// Commit flushes staged writes to durable storage. On error the
	// caller must assume nothing persisted.
	Commit() error
}

// Clock is a monotonic millisecond clock.
type Clock interface {
	// Millis returns milliseconds since an arbitrary fixed reference.
	Millis() int64
}

// Battery samples the battery voltage hardware.
type Battery interface {
	// ReadVoltage returns one instantaneous voltage sample.
	ReadVoltage() float64
}

// System exposes process-level device controls.
type System interface {
	// FreeMemory returns the current free heap in bytes.
	FreeMemory() uint32
	// Reboot restarts the device. It does not return.
	Reboot()
}

// Update failure sentinels reported by Updater implementations. The core
// classifies anything else as an unknown failure.
var (
	ErrUpdateAuth    = errors.New("update: authorization failed")
	ErrUpdateBegin   = errors.New("update: begin failed")
	ErrUpdateConnect = errors.New("update: connect failed")
	ErrUpdateReceive = errors.New("update: receive failed")
	ErrUpdateEnd     = errors.New("update: end failed")
)

// UpdateCallbacks are invoked synchronously from Updater.Poll.
type UpdateCallbacks struct {
	OnStart    func()
	OnProgress func(done, total uint32)
	OnError    func(cause error)
	OnEnd      func()
}

// Updater is the firmware-flashing mechanism. After a successful flash
// the mechanism restarts the device itself; the core never sees OnEnd
// followed by more traffic.
type Updater interface {
	// Arm readies the mechanism under the given hostname and passphrase
	// and registers the session callbacks.
	Arm(hostname, passphrase string, cb UpdateCallbacks) error
	// Poll services the mechanism once; callbacks fire from inside it.
	Poll()
	// Disarm tears the mechanism down and drops the callbacks.
	Disarm()
}
