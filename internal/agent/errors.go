package agent

import "errors"

// Sentinel errors the orchestrator and its callers branch on (§7).
var (
	// ErrMaxIterations is returned when a turn exceeds its configured
	// iteration bound (CapExceeded in §7/§8 invariant 7).
	ErrMaxIterations = errors.New("aborted: too many tool iterations")
	// ErrSessionNotFound is returned by the session store when an id
	// does not resolve to a stored session.
	ErrSessionNotFound = errors.New("session not found")
	// ErrPathEscapesWorkspace is returned by file tools when a
	// resolved path would leave the configured workspace root.
	ErrPathEscapesWorkspace = errors.New("path escapes workspace")
	// ErrCanceled is returned when a suspension point observes
	// context cancellation (double-tap interrupt, SIGINT during
	// AwaitingModel).
	ErrCanceled = errors.New("canceled")
)

// declinedMessage is the fixed carrier text for ConfirmationDeclined
// (§7, §8 scenario S2): a tool message produced when the user answers
// "no" to a destructive-change confirmation.
const declinedMessage = "Changes cancelled by user"
