// Package logging provides the shared zap logger for the firmware core
// and its tools.
//
// Logging is silent by default so the simulator's terminal ring renderer
// and the companion CLI stay clean. Set LUMINA_LOG_LEVEL to "debug",
// "info", "warn" or "error" to enable structured console output, or call
// Initialize with an explicit level.
//
// The core treats every diagnostic as observability only: dropped
// packets, refused transitions, heap shrinkage and low battery are
// logged here and never trigger corrective action.
package logging
