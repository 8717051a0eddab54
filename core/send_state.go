package core

import "fmt"

type SendState string

const (
	SendStateNoFlow              SendState = "no_flow"
	SendStateFlowCreateAttempted SendState = "flow_create_attempted"
	SendStateFlowJSONUploaded    SendState = "flow_json_uploaded"
	SendStateFlowPublished       SendState = "flow_published"
	SendStateDispatching         SendState = "dispatching"
	SendStateFallbackDispatch    SendState = "fallback_dispatch"
	SendStateComplete            SendState = "complete"
)

// Fallback is reachable from every state before publication; complete is
// terminal and nothing loops back.
var sendStateTransitions = map[SendState][]SendState{
	SendStateNoFlow:              {SendStateFlowCreateAttempted, SendStateFallbackDispatch},
	SendStateFlowCreateAttempted: {SendStateFlowJSONUploaded, SendStateFallbackDispatch},
	SendStateFlowJSONUploaded:    {SendStateFlowPublished, SendStateFallbackDispatch},
	SendStateFlowPublished:       {SendStateDispatching},
	SendStateDispatching:         {SendStateComplete},
	SendStateFallbackDispatch:    {SendStateComplete},
}

type SendStateMachine struct {
	state SendState
	trail []SendState
}

func NewSendStateMachine() *SendStateMachine {
	return &SendStateMachine{
		state: SendStateNoFlow,
		trail: []SendState{SendStateNoFlow},
	}
}

func (m *SendStateMachine) State() SendState {
	if m == nil {
		return SendStateNoFlow
	}
	return m.state
}

func (m *SendStateMachine) Trail() []SendState {
	if m == nil {
		return nil
	}
	return append([]SendState(nil), m.trail...)
}

func (m *SendStateMachine) CanAdvance(to SendState) bool {
	if m == nil {
		return false
	}
	for _, allowed := range sendStateTransitions[m.state] {
		if allowed == to {
			return true
		}
	}
	return false
}

func (m *SendStateMachine) Advance(to SendState) error {
	if m == nil {
		return fmt.Errorf("core: send state machine is nil")
	}
	if !m.CanAdvance(to) {
		return fmt.Errorf("core: invalid send state transition %s -> %s", m.state, to)
	}
	m.state = to
	m.trail = append(m.trail, to)
	return nil
}

// Abandon moves to the fallback branch when the current state allows it.
func (m *SendStateMachine) Abandon() error {
	return m.Advance(SendStateFallbackDispatch)
}

// Finish walks the remaining transitions to complete.
func (m *SendStateMachine) Finish() error {
	if m == nil {
		return fmt.Errorf("core: send state machine is nil")
	}
	switch m.state {
	case SendStateFlowPublished:
		if err := m.Advance(SendStateDispatching); err != nil {
			return err
		}
		return m.Advance(SendStateComplete)
	case SendStateDispatching, SendStateFallbackDispatch:
		return m.Advance(SendStateComplete)
	case SendStateComplete:
		return nil
	default:
		if err := m.Abandon(); err != nil {
			return err
		}
		return m.Advance(SendStateComplete)
	}
}
