package sim

import (
	"os"
	"runtime"

	"github.com/Kim1ni/lumina-firmware/internal/logging"
)

// heapBudget stands in for the small device heap so the free-memory
// telemetry produces plausible numbers.
const heapBudget = 48 * 1024 * 1024

// System exposes process-level controls for the simulator.
type System struct{}

// NewSystem returns the simulator system surface.
func NewSystem() *System {
	return &System{}
}

// FreeMemory reports the remaining heap budget given current Go heap
// usage.
func (s *System) FreeMemory() uint32 {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	if m.HeapAlloc >= heapBudget {
		return 0
	}
	return uint32(heapBudget - m.HeapAlloc)
}

// Reboot ends the simulator process. A real device would restart; run
// the simulator again to complete the cycle.
func (s *System) Reboot() {
	logging.Info("device reboot requested, simulator exiting")
	logging.Sync()
	os.Exit(0)
}
