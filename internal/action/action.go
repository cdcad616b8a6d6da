package action

type Action int

const (
	Undecided Action = iota // 0：Undecided
	Spare                   // 1：Leave the form usable
	Disable                 // 2：Disable the form
)

func (a Action) String() string {
	switch a {
	case Spare:
		return "spare"
	case Disable:
		return "disable"
	default:
		return "undecided"
	}
}

type State int

const (
	Continue State = iota
	Done
)

// Decision saves the result of the decision
type Decision struct {
	State  State
	result Action
	Reason string
}

func NewDecision() *Decision {
	return &Decision{State: Continue, result: Undecided}
}

func (d *Decision) Get() Action {
	return d.result
}

// Set moves the decision along without settling it.
func (d *Decision) Set(state State) {
	d.State = state
}

// SetResult settles the decision and records which check produced it.
func (d *Decision) SetResult(state State, result Action, reason string) {
	d.State = state
	d.result = result
	d.Reason = reason
}
