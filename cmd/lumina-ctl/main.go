// Lumina-ctl is the companion utility for Lumina LED-ring lamps.
//
// It discovers devices on the local network, provisions WiFi
// credentials, drives the lighting (color, mood, brightness), starts
// firmware updates and watches live status broadcasts. All device
// communication is plain UDP datagrams on the lamp's command port.
//
// Usage:
//
//	lumina-ctl [command] [flags]
//
// See 'lumina-ctl --help' for available commands.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Kim1ni/lumina-firmware/internal/version"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "lumina-ctl",
	Short: "Lumina lamp control utility",
	Long: `A command-line companion for Lumina LED-ring lamps.

Discovers lamps via mDNS or presence broadcasts, provisions WiFi
credentials to a lamp in setup mode, and controls connected lamps over
their UDP command port.`,
	Version: version.Version,
}

func init() {
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("lumina-ctl %s (commit: %s)\n", version.Version, version.Commit)
	},
}
