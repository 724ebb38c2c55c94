package core

import (
	"context"

	"github.com/looplab/fsm"

	"maintcore/pkg/domain"
)

// Lifecycle events.
const (
	EventStart      = "start"
	EventComplete   = "complete"
	EventCancel     = "cancel"
	EventAssign     = "assign"
	EventPause      = "pause"
	EventClose      = "close"
	EventRead       = "read"
	EventResolve    = "resolve"
	EventReactivate = "reactivate"
)

func states[S ~string](values ...S) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = string(v)
	}
	return out
}

// lifecycleMachines holds the transition graph of every stateful entity.
var lifecycleMachines = map[domain.EntityType]fsm.Events{
	domain.EntityMaintenanceTask: {
		{Name: EventStart, Src: states(domain.TaskScheduled), Dst: string(domain.TaskInProgress)},
		{Name: EventComplete, Src: states(domain.TaskInProgress), Dst: string(domain.TaskCompleted)},
		{Name: EventCancel, Src: states(domain.TaskScheduled), Dst: string(domain.TaskCancelled)},
	},
	domain.EntityWorkOrder: {
		{Name: EventAssign, Src: states(domain.OrderOpen), Dst: string(domain.OrderAssigned)},
		{Name: EventStart, Src: states(domain.OrderAssigned, domain.OrderPaused), Dst: string(domain.OrderInProgress)},
		{Name: EventPause, Src: states(domain.OrderInProgress), Dst: string(domain.OrderPaused)},
		{Name: EventComplete, Src: states(domain.OrderInProgress), Dst: string(domain.OrderCompleted)},
		{
			Name: EventCancel,
			Src:  states(domain.OrderOpen, domain.OrderAssigned, domain.OrderInProgress, domain.OrderPaused),
			Dst:  string(domain.OrderCancelled),
		},
		{Name: EventClose, Src: states(domain.OrderCompleted), Dst: string(domain.OrderClosed)},
	},
	domain.EntityAlert: {
		{Name: EventRead, Src: states(domain.AlertActive), Dst: string(domain.AlertRead)},
		{Name: EventResolve, Src: states(domain.AlertActive, domain.AlertRead), Dst: string(domain.AlertResolved)},
		{Name: EventReactivate, Src: states(domain.AlertRead, domain.AlertResolved), Dst: string(domain.AlertActive)},
	},
}

// transition evaluates event against an entity sitting in state from and
// returns the destination state. Illegal events yield a TransitionError.
func transition[S ~string](entity domain.EntityType, id string, from S, event string) (S, error) {
	illegal := domain.TransitionError{Entity: entity, ID: id, From: string(from), Event: event}
	events, ok := lifecycleMachines[entity]
	if !ok {
		return from, illegal
	}
	machine := fsm.NewFSM(string(from), events, fsm.Callbacks{})
	if !machine.Can(event) {
		return from, illegal
	}
	if err := machine.Event(context.Background(), event); err != nil {
		return from, illegal
	}
	return S(machine.Current()), nil
}

// CanTransition reports whether event is legal for entity in state from.
func CanTransition(entity domain.EntityType, from, event string) bool {
	_, err := transition(entity, "", from, event)
	return err == nil
}
