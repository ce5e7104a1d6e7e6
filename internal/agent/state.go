package agent

type State int

const (
	Thinking State = iota
	ToolCall
	Observing
	Done
	Failed
)

func (s State) String() string {
	switch s {
	case Thinking:
		return "thinking"
	case ToolCall:
		return "tool_call"
	case Observing:
		return "observing"
	case Done:
		return "done"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// Event is emitted on every state transition. Tool, Input and Output are
// set for ToolCall and Observing events.
type Event struct {
	Step   int
	State  State
	Tool   string
	Input  string
	Output string
	Err    error
}
