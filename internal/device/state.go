package device

import (
	"time"

	"github.com/Kim1ni/lumina-firmware/internal/protocol"
)

// State is the per-mode behavior contract. The manager owns exactly one
// State at a time; states are created by their constructors at
// transition time and released right after Exit returns.
type State interface {
	// Enter performs mode setup. It must be idempotent with respect to
	// prior modes: it resets mode-local timers and never assumes which
	// mode ran before. A transition requested from inside Enter lands
	// in the manager's deferred slot.
	Enter()
	// Exit releases mode-local resources: stops listeners, blanks the
	// ring.
	Exit()
	// Update runs once per tick and must return promptly.
	Update(now int64)
	// HandleCommand dispatches one decoded inbound command. from is the
	// sender address for direct replies.
	HandleCommand(cmd protocol.Command, from string)
	// HandleTimeout fires once when Deadline elapses after entry.
	HandleTimeout()
	// Deadline is the mode timeout since entry; zero means none.
	Deadline() time.Duration
	// Mode identifies the state.
	Mode() Mode
	// Name returns the human-readable state name.
	Name() string
}
