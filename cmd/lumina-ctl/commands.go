package main

import (
	"fmt"
	"net"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/Kim1ni/lumina-firmware/internal/discovery"
	"github.com/Kim1ni/lumina-firmware/internal/lighting"
	"github.com/Kim1ni/lumina-firmware/internal/protocol"
)

// Common command flags
var (
	deviceAddr   string
	devicePort   int
	replyTimeout int
	scanTimeout  int
)

func init() {
	rootCmd.PersistentFlags().StringVar(&deviceAddr, "device", "", "Device IP address (required for control commands)")
	rootCmd.PersistentFlags().IntVar(&devicePort, "port", 4210, "Device UDP command port")
	rootCmd.PersistentFlags().IntVar(&replyTimeout, "timeout", 3, "Reply timeout in seconds")

	rootCmd.AddCommand(discoverCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(colorCmd)
	rootCmd.AddCommand(moodCmd)
	rootCmd.AddCommand(brightnessCmd)
	rootCmd.AddCommand(provisionCmd)
	rootCmd.AddCommand(updateCmd)
	rootCmd.AddCommand(resetCmd)
	rootCmd.AddCommand(watchCmd)
}

// discoverCmd finds lamps on the local network
var discoverCmd = &cobra.Command{
	Use:   "discover",
	Short: "Discover Lumina lamps on the network",
	Long: `Discover lamps via mDNS and presence broadcasts.

Lamps in setup mode advertise a _lumina._udp mDNS service and send
periodic presence broadcasts on the command port. This command listens
for both and lists every lamp seen.`,
	Example: `  # Scan with the default 10 second timeout
  lumina-ctl discover

  # Quick scan
  lumina-ctl discover --scan-timeout 3`,
	RunE: runDiscover,
}

func init() {
	discoverCmd.Flags().IntVar(&scanTimeout, "scan-timeout", 10, "Discovery timeout in seconds")
}

func runDiscover(cmd *cobra.Command, args []string) error {
	timeout := time.Duration(scanTimeout) * time.Second
	fmt.Printf("Scanning for Lumina lamps (timeout: %ds)...\n\n", scanTimeout)

	// Presence broadcasts arrive on the command port; listening is
	// best-effort since another process may hold it.
	presence := make(map[string]string)
	presenceDone := make(chan struct{})
	conn, err := net.ListenUDP("udp4", &net.UDPAddr{Port: devicePort})
	if err == nil {
		go func() {
			defer close(presenceDone)
			buf := make([]byte, 512)
			for {
				n, from, err := conn.ReadFromUDP(buf)
				if err != nil {
					return
				}
				notice, err := protocol.ParseStateNotice(buf[:n])
				if err != nil || notice.DeviceName == "" {
					continue
				}
				presence[from.IP.String()] = notice.DeviceName
			}
		}()
		defer conn.Close()
		time.AfterFunc(timeout, func() { _ = conn.Close() })
	} else {
		close(presenceDone)
	}

	scanner := discovery.NewScanner()
	scanner.Timeout = timeout
	devices, err := scanner.ScanForDevices()
	if err != nil {
		return fmt.Errorf("mDNS scan failed: %w", err)
	}
	<-presenceDone

	seen := make(map[string]bool)
	for _, d := range devices {
		fmt.Printf("  %s  [mDNS]\n", d)
		seen[d.Addr.String()] = true
	}
	for addr, name := range presence {
		if seen[addr] {
			continue
		}
		fmt.Printf("  %s (%s:%d)  [presence broadcast]\n", name, addr, devicePort)
	}

	if len(devices) == 0 && len(presence) == 0 {
		fmt.Println("No lamps found.")
		fmt.Println("\nTroubleshooting:")
		fmt.Println("  - A lamp in setup mode exposes its own WiFi network; join it first")
		fmt.Println("  - Connected lamps answer direct commands; try 'status --device <ip>'")
		fmt.Println("  - Increase --scan-timeout on slower networks")
		return nil
	}
	return nil
}

// statusCmd queries one lamp for its current status
var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Query a lamp's current status",
	Example: `  lumina-ctl status --device 192.168.1.42`,
	RunE: func(cmd *cobra.Command, args []string) error {
		reply, err := exchange(protocol.BuildGetStatus())
		if err != nil {
			return err
		}
		printStatus(reply)
		return nil
	},
}

// colorCmd sets a solid color
var colorCmd = &cobra.Command{
	Use:   "color <r,g,b>",
	Short: "Set a solid ring color",
	Example: `  # Warm white
  lumina-ctl color 255,180,120 --device 192.168.1.42`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := parseColor(args[0])
		if err != nil {
			return err
		}
		if err := send(protocol.BuildSetColor(c)); err != nil {
			return err
		}
		fmt.Printf("Set color to %s\n", c)
		return nil
	},
}

// moodCmd selects an animated lighting mood
var moodCmd = &cobra.Command{
	Use:   "mood <calm|focus|party> [r,g,b ...]",
	Short: "Select an animated lighting mood",
	Long: `Select one of the lamp's animated moods.

Calm and focus take one base color; party takes three band colors.
Colors are optional, the lamp falls back to its defaults.`,
	Example: `  lumina-ctl mood calm 0,80,255 --device 192.168.1.42
  lumina-ctl mood party 255,0,0 0,255,0 0,0,255 --device 192.168.1.42`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		mood, err := parseMood(args[0])
		if err != nil {
			return err
		}
		colors := make([]lighting.Color, 0, len(args)-1)
		for _, arg := range args[1:] {
			c, err := parseColor(arg)
			if err != nil {
				return err
			}
			colors = append(colors, c)
		}
		if len(colors) == 0 {
			colors = append(colors, lighting.ColorSearching)
		}
		packet, err := protocol.BuildSetMood(mood, colors...)
		if err != nil {
			return err
		}
		if err := send(packet); err != nil {
			return err
		}
		fmt.Printf("Set mood to %s\n", args[0])
		return nil
	},
}

// brightnessCmd sets the global brightness
var brightnessCmd = &cobra.Command{
	Use:   "brightness <0-255>",
	Short: "Set the lamp brightness",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		level, err := strconv.Atoi(args[0])
		if err != nil || level < 0 || level > 255 {
			return fmt.Errorf("brightness must be 0-255, got %q", args[0])
		}
		if err := send(protocol.BuildSetBrightness(uint8(level))); err != nil {
			return err
		}
		fmt.Printf("Set brightness to %d\n", level)
		return nil
	},
}

// provisionCmd sends WiFi credentials to a lamp in setup mode
var provisionCmd = &cobra.Command{
	Use:   "provision <ssid> <password>",
	Short: "Send WiFi credentials to a lamp in setup mode",
	Long: `Send WiFi credentials to a lamp.

The lamp persists the credentials and reboots into its normal
connection sequence. Join the lamp's setup network first, or address a
lamp that is still searching on your network.`,
	Example: `  lumina-ctl provision HomeNet hunter2 --device 192.168.4.1`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		packet, err := protocol.BuildProvision(args[0], args[1])
		if err != nil {
			return err
		}
		reply, err := exchange(packet)
		if err != nil {
			// A searching lamp reboots without replying.
			fmt.Println("Credentials sent (no acknowledgment; the lamp may have rebooted immediately)")
			return nil
		}
		if notice, err := protocol.ParseStateNotice(reply); err == nil && notice.Mode != 0 {
			fmt.Printf("Credentials accepted (lamp was %s); the lamp is rebooting\n",
				protocol.ModeName(notice.Mode))
		} else {
			fmt.Println("Credentials accepted; the lamp is rebooting")
		}
		return nil
	},
}

// updateCmd starts a firmware update
var updateCmd = &cobra.Command{
	Use:   "update",
	Short: "Start a firmware update on a connected lamp",
	Long: `Ask a connected lamp to enter update mode.

The lamp arms its OTA receiver and shows a progress bar on the ring.
Use 'lumina-ctl status' to poll the transfer progress.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := send(protocol.BuildStartUpdate()); err != nil {
			return err
		}
		fmt.Println("Update mode requested; poll with 'lumina-ctl status'")
		return nil
	},
}

// resetCmd wipes stored credentials
var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Factory-reset a lamp",
	Long:  `Clear the lamp's stored WiFi credentials and reboot it into setup mode.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		reply, err := exchange(protocol.BuildFactoryReset())
		if err != nil {
			fmt.Println("Reset sent (no acknowledgment; the lamp may have rebooted immediately)")
			return nil
		}
		if _, err := protocol.ParseStateNotice(reply); err == nil {
			fmt.Println("Reset acknowledged; the lamp is rebooting into setup mode")
		}
		return nil
	},
}

// watchCmd streams lamp status packets
var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Stream a lamp's status packets",
	Long: `Print lamp status packets as they arrive.

Listens for heartbeat broadcasts on the command port when possible;
when the port is taken (for example by a simulator on this machine) it
falls back to polling the lamp with get-status requests.`,
	RunE: runWatch,
}

func runWatch(cmd *cobra.Command, args []string) error {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	conn, err := net.ListenUDP("udp4", &net.UDPAddr{Port: devicePort})
	if err == nil {
		fmt.Printf("Listening for broadcasts on :%d (Ctrl-C to stop)\n", devicePort)
		go func() {
			<-sigChan
			_ = conn.Close()
		}()
		buf := make([]byte, 512)
		for {
			n, from, err := conn.ReadFromUDP(buf)
			if err != nil {
				return nil
			}
			packet := make([]byte, n)
			copy(packet, buf[:n])
			fmt.Printf("[%s] %s  ", time.Now().Format("15:04:05"), from.IP)
			printStatus(packet)
		}
	}

	if deviceAddr == "" {
		return fmt.Errorf("port %d is taken and no --device given for polling", devicePort)
	}
	fmt.Printf("Port %d taken; polling %s with get-status (Ctrl-C to stop)\n", devicePort, deviceAddr)
	ticker := time.NewTicker(2 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-sigChan:
			return nil
		case <-ticker.C:
			reply, err := exchange(protocol.BuildGetStatus())
			if err != nil {
				fmt.Printf("[%s] no reply: %v\n", time.Now().Format("15:04:05"), err)
				continue
			}
			fmt.Printf("[%s] ", time.Now().Format("15:04:05"))
			printStatus(reply)
		}
	}
}

// send fires one command datagram without waiting for a reply.
func send(packet []byte) error {
	conn, err := dialDevice()
	if err != nil {
		return err
	}
	defer conn.Close()
	if _, err := conn.Write(packet); err != nil {
		return fmt.Errorf("send failed: %w", err)
	}
	return nil
}

// exchange sends one command and waits for a single reply datagram.
func exchange(packet []byte) ([]byte, error) {
	conn, err := dialDevice()
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	if _, err := conn.Write(packet); err != nil {
		return nil, fmt.Errorf("send failed: %w", err)
	}
	if err := conn.SetReadDeadline(time.Now().Add(time.Duration(replyTimeout) * time.Second)); err != nil {
		return nil, err
	}

	buf := make([]byte, 512)
	n, err := conn.Read(buf)
	if err != nil {
		return nil, fmt.Errorf("no reply from %s: %w", deviceAddr, err)
	}
	reply := make([]byte, n)
	copy(reply, buf[:n])
	return reply, nil
}

func dialDevice() (*net.UDPConn, error) {
	if deviceAddr == "" {
		return nil, fmt.Errorf("no device address; pass --device <ip> (see 'lumina-ctl discover')")
	}
	addr, err := net.ResolveUDPAddr("udp4", fmt.Sprintf("%s:%d", deviceAddr, devicePort))
	if err != nil {
		return nil, fmt.Errorf("invalid device address %q: %w", deviceAddr, err)
	}
	conn, err := net.DialUDP("udp4", nil, addr)
	if err != nil {
		return nil, fmt.Errorf("dial failed: %w", err)
	}
	return conn, nil
}

// printStatus decodes and prints one status datagram of any variant.
func printStatus(packet []byte) {
	if len(packet) == 0 {
		fmt.Println("empty packet")
		return
	}
	switch packet[0] {
	case protocol.StatusHeartbeat:
		hb, err := protocol.ParseHeartbeat(packet)
		if err != nil {
			fmt.Printf("bad heartbeat: %v\n", err)
			return
		}
		fmt.Printf("%s  battery %d%% (%.2fV)  rssi %ddBm  heap %d  strategy %s\n",
			protocol.ModeName(hb.Mode), hb.BatteryPct, hb.Voltage, hb.RSSI, hb.FreeHeap, hb.Strategy)
	case protocol.StatusState:
		if notice, err := protocol.ParseStateNotice(packet); err == nil {
			switch {
			case notice.Mode == protocol.ModeCodeUpdating && notice.HasPayload:
				fmt.Printf("Updating  %d%% transferred\n", notice.Progress)
				return
			case notice.DeviceName != "":
				// Presence and device-info replies share a shape;
				// prefer the richer decode when it fits.
				if info, err := protocol.ParseDeviceInfo(packet); err == nil && looksLikeVersion(info.Version) {
					fmt.Printf("%s  battery %d%%  firmware %s\n",
						protocol.ModeName(info.Mode), info.BatteryPct, info.Version)
					return
				}
				fmt.Printf("%s  %q is announcing itself\n", protocol.ModeName(notice.Mode), notice.DeviceName)
				return
			case notice.Mode != 0:
				fmt.Printf("%s\n", protocol.ModeName(notice.Mode))
				return
			}
		}
		fmt.Println("reset acknowledged")
	default:
		fmt.Printf("unknown packet type 0x%02x (%d bytes)\n", packet[0], len(packet))
	}
}

// looksLikeVersion reports whether s resembles a dotted version string.
func looksLikeVersion(s string) bool {
	if s == "" {
		return false
	}
	dots := 0
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9':
		case r == '.':
			dots++
		case r == '-' || (r >= 'a' && r <= 'z'):
		default:
			return false
		}
	}
	return dots >= 1
}

// parseColor parses "r,g,b" with each component 0-255.
func parseColor(s string) (lighting.Color, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 3 {
		return lighting.Color{}, fmt.Errorf("color must be r,g,b (e.g. 255,120,0), got %q", s)
	}
	var vals [3]uint8
	for i, p := range parts {
		v, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil || v < 0 || v > 255 {
			return lighting.Color{}, fmt.Errorf("color component %q must be 0-255", p)
		}
		vals[i] = uint8(v)
	}
	return lighting.Color{R: vals[0], G: vals[1], B: vals[2]}, nil
}

// parseMood maps a mood name onto its wire code.
func parseMood(name string) (byte, error) {
	switch strings.ToLower(name) {
	case "calm":
		return protocol.MoodCalm, nil
	case "focus":
		return protocol.MoodFocus, nil
	case "party":
		return protocol.MoodParty, nil
	default:
		return 0, fmt.Errorf("unknown mood %q (want calm, focus or party)", name)
	}
}
