// Package creds persists network credentials in the device's raw byte
// store using a fixed-offset record gated by a magic byte. Absence of a
// valid record is a normal outcome, not an error; a failed commit means
// the caller must assume nothing persisted.
package creds
