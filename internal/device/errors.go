package device

import (
	"errors"
	"fmt"

	"github.com/Kim1ni/lumina-firmware/internal/hal"
)

// UpdateFailure classifies a firmware update error cause. The numeric
// codes are stable and match the update mechanism's own error order.
type UpdateFailure int

const (
	// UpdateFailureAuth is an authorization failure.
	UpdateFailureAuth UpdateFailure = iota
	// UpdateFailureBegin is a failure to begin the flash session.
	UpdateFailureBegin
	// UpdateFailureConnect is a transport failure reaching the peer.
	UpdateFailureConnect
	// UpdateFailureReceive is a failure while receiving the image.
	UpdateFailureReceive
	// UpdateFailureEnd is a failure finalizing the flash.
	UpdateFailureEnd
	// UpdateFailureUnknown is any unclassified cause.
	UpdateFailureUnknown
)

// String returns a human-readable name for the failure class.
func (f UpdateFailure) String() string {
	switch f {
	case UpdateFailureAuth:
		return "Auth Failed"
	case UpdateFailureBegin:
		return "Begin Failed"
	case UpdateFailureConnect:
		return "Connect Failed"
	case UpdateFailureReceive:
		return "Receive Failed"
	case UpdateFailureEnd:
		return "End Failed"
	case UpdateFailureUnknown:
		return "Unknown"
	default:
		return fmt.Sprintf("UpdateFailure(%d)", f)
	}
}

// ClassifyUpdateError maps an update mechanism error onto a failure
// class. Unrecognized causes classify as unknown; classification never
// fails.
func ClassifyUpdateError(err error) UpdateFailure {
	switch {
	case errors.Is(err, hal.ErrUpdateAuth):
		return UpdateFailureAuth
	case errors.Is(err, hal.ErrUpdateBegin):
		return UpdateFailureBegin
	case errors.Is(err, hal.ErrUpdateConnect):
		return UpdateFailureConnect
	case errors.Is(err, hal.ErrUpdateReceive):
		return UpdateFailureReceive
	case errors.Is(err, hal.ErrUpdateEnd):
		return UpdateFailureEnd
	default:
		return UpdateFailureUnknown
	}
}
