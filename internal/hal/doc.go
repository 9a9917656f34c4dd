// Package hal declares the hardware capability interfaces the firmware
// core consumes: the LED ring, the network transport, the raw persistent
// byte store, the monotonic clock, the battery sampler, system control,
// and the firmware update mechanism.
//
// The core depends only on these interfaces. Real device targets bind
// them to hardware drivers; the simulator in internal/sim and the test
// fakes in internal/device bind them to in-process implementations.
// Everything behind these interfaces is mutated from the single
// cooperative control goroutine, so implementations do not need to be
// safe for concurrent use unless they say otherwise.
package hal
