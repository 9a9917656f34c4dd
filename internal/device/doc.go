// Package device implements the Lumina firmware state machine: the
// manager that owns the single active state and drives the cooperative
// tick loop, and the four mode implementations (Searching,
// Provisioning, Connected, Updating).
//
// # Execution Model
//
// Everything here runs on one logical goroutine. An external run loop
// calls Manager.Tick; the manager refreshes telemetry on fixed cadences
// and delegates to the active state's Update, which must return
// promptly. Timers are wall-clock comparisons against saved millisecond
// timestamps, never scheduled callbacks. The update mechanism's
// callbacks fire synchronously from inside the Updating state's poll.
// No locking exists anywhere in the core; correctness relies on the
// absence of concurrent access.
//
// # Transitions
//
// Manager.Transition runs the old state's Exit before releasing it and
// the new state's Enter after installing it, and refuses a nil target
// without disturbing the current state. A transition requested from
// inside Enter or Exit is captured in a one-deep deferred slot and
// applied after the in-flight transition completes, so a state is never
// torn down from within its own hooks.
//
// # Failure Policy
//
// Nothing in normal operation halts the loop. Malformed commands are
// dropped with a diagnostic, storage integrity failures read as "no
// credentials", connectivity loss falls back to Searching, and update
// failures classify their cause, play the error flash, and roll back to
// Connected. The only full restarts are credential changes, factory
// reset, and a completed update.
package device
