// Package sim provides host implementations of the hardware
// abstraction layer so the firmware core runs as a normal process.
//
// The ring renders to the terminal, credentials persist to a file,
// datagrams travel over a real UDP socket, and the OTA updater plays a
// scripted transfer. Everything else (battery, clock, system) is a
// plausible model with enough noise to exercise the core's smoothing
// and thresholds.
package sim
