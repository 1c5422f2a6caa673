package delivery

// attemptState tracks one message through the per-attempt send loop.
//
//	pending -> sent                     (terminal, success)
//	pending -> retrying -> pending      (after the backoff delay)
//	pending -> failed                   (terminal, recovery enqueue)
type attemptState int

const (
	statePending attemptState = iota
	stateRetrying
	stateSent
	stateFailed
)

func (s attemptState) String() string {
	switch s {
	case statePending:
		return "pending"
	case stateRetrying:
		return "retrying"
	case stateSent:
		return "sent"
	case stateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Failure reasons recorded on recovery entries.
const (
	reasonNoActiveConnection = "no_active_connection"
	reasonSendTimeout        = "send_timeout"
	reasonSendError          = "send_error"
	reasonDisconnect         = "disconnect"
)
