// Package discovery handles mDNS advertisement and discovery of Lumina
// devices.
//
// A device in provisioning mode advertises itself as a _lumina._udp
// service in addition to its UDP presence broadcasts, so companion
// tooling can find it either way. The scanner side browses for those
// services with a bounded timeout.
package discovery
