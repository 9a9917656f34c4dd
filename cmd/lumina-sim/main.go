// Lumina-sim runs the Lumina lamp firmware core on a host machine.
//
// The simulator binds the real control loop to host-side hardware
// stand-ins: the LED ring renders in the terminal, credentials persist
// to a file, and the command protocol runs over a real UDP socket so
// the lumina-ctl companion tool can drive it.
//
// Usage:
//
//	lumina-sim run [flags]
//
// See 'lumina-sim run --help' for available options.
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
	Use:   "lumina-sim",
	Short: "Lumina lamp firmware simulator",
	Long: `Runs the Lumina LED-ring lamp firmware core as a host process.

The device state machine, lighting strategies, credential store and
command protocol are the real firmware code; only the hardware layer is
simulated. Control the device with the 'lumina-ctl' companion utility.`,
	Version: version.Version,
}

func init() {
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("lumina-sim %s (commit: %s)\n", version.Version, version.Commit)
	},
}
