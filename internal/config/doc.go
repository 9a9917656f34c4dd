// Package config holds the compiled-in device configuration: identity,
// LED count, network port, access-point credentials, battery thresholds,
// and every timing constant of the state machine.
//
// Real devices run the defaults. The simulator can override selected
// values from a YAML file, which is mainly useful for shrinking the long
// timeouts during development.
package config
