package orchestrator

// OutcomeKind classifies what the decision step produced.
type OutcomeKind int

const (
	NoAction OutcomeKind = iota
	ActionTaken
	ReplyText
)

func (k OutcomeKind) String() string {
	switch k {
	case ActionTaken:
		return "action-taken"
	case ReplyText:
		return "reply-text"
	default:
		return "no-action"
	}
}

// Outcome is the interpreted decision result. Consumed once, not retained.
type Outcome struct {
	Kind OutcomeKind
	Text string
}

// State tracks where an event ended in the per-event state machine.
type State int

const (
	StateAdmitted State = iota
	StateContextAssembled
	StateDecided
	StateDispatched
	StateSkipped
)

func (s State) String() string {
	switch s {
	case StateContextAssembled:
		return "context-assembled"
	case StateDecided:
		return "decided"
	case StateDispatched:
		return "dispatched"
	case StateSkipped:
		return "skipped"
	default:
		return "admitted"
	}
}
