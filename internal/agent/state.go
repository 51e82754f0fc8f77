package agent

import "fmt"

// State is a phase of one Chat call.
type State string

const (
	StateAwaitingModel        State = "AWAITING_MODEL"
	StateInterpretingResponse State = "INTERPRETING_RESPONSE"
	StateDispatchingTools     State = "DISPATCHING_TOOLS"
	StateDone                 State = "DONE"
	StateFailed               State = "FAILED"
)

var validTransitions = map[State][]State{
	StateAwaitingModel:        {StateInterpretingResponse, StateFailed},
	StateInterpretingResponse: {StateDispatchingTools, StateDone, StateFailed},
	StateDispatchingTools:     {StateAwaitingModel, StateDone},
}

// Terminal reports whether no transition leaves s.
func (s State) Terminal() bool {
	_, ok := validTransitions[s]
	return !ok
}

type machine struct {
	state State
	path  []State
}

func newMachine() *machine {
	return &machine{state: StateAwaitingModel, path: []State{StateAwaitingModel}}
}

func (m *machine) to(next State) error {
	for _, allowed := range validTransitions[m.state] {
		if allowed == next {
			m.state = next
			m.path = append(m.path, next)
			return nil
		}
	}
	return fmt.Errorf("agent: invalid transition %s -> %s", m.state, next)
}
