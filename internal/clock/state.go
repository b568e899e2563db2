package clock

// State is the position of the session state machine after the last committed event.
type State string

const (
	StateNone    State = "OFF"
	StateWorking State = "WORKING"
	StateOnBreak State = "BREAK"
)

// allowedNext is the transition table keyed by the last committed event type.
// The empty type stands for "no event yet".
var allowedNext = map[Type][]Type{
	"":         {Come},
	Come:       {Go, BreakStart},
	BreakStart: {BreakEnd, Go},
	BreakEnd:   {Go, BreakStart},
	Go:         {Come},
}

// StateAfter returns the state the machine is in once last has been applied.
func StateAfter(last Type) State {
	switch last {
	case Come, BreakEnd:
		return StateWorking
	case BreakStart:
		return StateOnBreak
	default:
		return StateNone
	}
}

// Allowed reports whether next may follow last.
func Allowed(last, next Type) bool {
	for _, t := range allowedNext[last] {
		if t == next {
			return true
		}
	}
	return false
}
