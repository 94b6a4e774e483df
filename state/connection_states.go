package state

// Connection framing states and events tracked by a server connection's read
// loop. The server package keeps each connection's FSM local to that loop
// and logs unexpected transitions; it does not expose the current state to
// callers.
const (
	StateListening     State = "Listening"
	StateAccepted      State = "Accepted"
	StateReadingHeader State = "Reading-Header"
	StateReadingBody   State = "Reading-Body"
	StateDispatching   State = "Dispatching"
	StateWriting       State = "Writing"
	StateClosed        State = "Closed"
)

const (
	EventAccepted     Event = "accepted"
	EventBeginRead    Event = "begin-read"
	EventHeaderParsed Event = "header-parsed"
	EventBodyParsed   Event = "body-parsed"
	EventHandled      Event = "handled"
	EventClosed       Event = "closed"
)

// ConnectionFSM is a pure state tracker (no per-transition actions) for the
// Listening -> Accepted -> Reading-Header -> Reading-Body -> Dispatching ->
// Writing -> Reading-Header ... cycle a server connection runs through.
type ConnectionFSM = FSM[struct{}]

// NewConnectionFSM builds a ConnectionFSM preloaded with the connection
// framing cycle. From any state other than StateClosed, EventClosed
// transitions to StateClosed.
func NewConnectionFSM() *ConnectionFSM {
	f := NewFSM[struct{}](StateListening)
	for _, s := range []State{StateAccepted, StateReadingHeader, StateReadingBody, StateDispatching, StateWriting, StateClosed} {
		f.RegisterState(s)
	}

	f.AddTransition(StateListening, StateAccepted, EventAccepted, nil)
	f.AddTransition(StateAccepted, StateReadingHeader, EventBeginRead, nil)
	f.AddTransition(StateReadingHeader, StateReadingBody, EventHeaderParsed, nil)
	f.AddTransition(StateReadingBody, StateDispatching, EventBodyParsed, nil)
	f.AddTransition(StateDispatching, StateWriting, EventHandled, nil)
	f.AddTransition(StateWriting, StateReadingHeader, EventBeginRead, nil)

	for _, s := range []State{StateListening, StateAccepted, StateReadingHeader, StateReadingBody, StateDispatching, StateWriting} {
		f.AddTransition(s, StateClosed, EventClosed, nil)
	}

	return f
}
