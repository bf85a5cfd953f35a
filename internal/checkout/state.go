package checkout

// State of one identity's checkout flow. The widget drives the
// transitions: creating an order moves through creating_order to
// awaiting_capture, then the widget's approval, cancellation or error
// callback decides the terminal state. Cancelled and error are
// retryable; success is not.
type State string

const (
	StateIdle            State = "idle"
	StateCreatingOrder   State = "creating_order"
	StateAwaitingCapture State = "awaiting_capture"
	StateSuccess         State = "success"
	StateCancelled       State = "cancelled"
	StateError           State = "error"
)

// retryable reports whether a new create-order attempt may start from
// the state.
func (s State) retryable() bool {
	switch s {
	case StateIdle, StateCancelled, StateError:
		return true
	default:
		return false
	}
}
