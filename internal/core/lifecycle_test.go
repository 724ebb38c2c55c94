package core

import (
	"testing"

	"github.com/stretchr/testify/require"

	"maintcore/pkg/domain"
)

func TestStateGraphClosure(t *testing.T) {
	type edge struct{ from, event string }
	graphs := []struct {
		entity domain.EntityType
		states []string
		events []string
		edges  map[edge]string
	}{
		{
			entity: domain.EntityMaintenanceTask,
			states: states(domain.TaskScheduled, domain.TaskInProgress, domain.TaskCompleted, domain.TaskCancelled),
			events: []string{EventStart, EventComplete, EventCancel},
			edges: map[edge]string{
				{"scheduled", EventStart}:      "in_progress",
				{"in_progress", EventComplete}: "completed",
				{"scheduled", EventCancel}:     "cancelled",
			},
		},
		{
			entity: domain.EntityWorkOrder,
			states: states(domain.OrderOpen, domain.OrderAssigned, domain.OrderInProgress, domain.OrderPaused,
				domain.OrderCompleted, domain.OrderCancelled, domain.OrderClosed),
			events: []string{EventAssign, EventStart, EventPause, EventComplete, EventCancel, EventClose},
			edges: map[edge]string{
				{"open", EventAssign}:          "assigned",
				{"assigned", EventStart}:       "in_progress",
				{"paused", EventStart}:         "in_progress",
				{"in_progress", EventPause}:    "paused",
				{"in_progress", EventComplete}: "completed",
				{"open", EventCancel}:          "cancelled",
				{"assigned", EventCancel}:      "cancelled",
				{"in_progress", EventCancel}:   "cancelled",
				{"paused", EventCancel}:        "cancelled",
				{"completed", EventClose}:      "closed",
			},
		},
		{
			entity: domain.EntityAlert,
			states: states(domain.AlertActive, domain.AlertRead, domain.AlertResolved),
			events: []string{EventRead, EventResolve, EventReactivate},
			edges: map[edge]string{
				{"active", EventRead}:         "read",
				{"active", EventResolve}:      "resolved",
				{"read", EventResolve}:        "resolved",
				{"read", EventReactivate}:     "active",
				{"resolved", EventReactivate}: "active",
			},
		},
	}
	for _, g := range graphs {
		t.Run(string(g.entity), func(t *testing.T) {
			for _, from := range g.states {
				for _, event := range g.events {
					want, legal := g.edges[edge{from, event}]
					got, err := transition(g.entity, "X-1", from, event)
					require.Equal(t, legal, CanTransition(g.entity, from, event), "%s --%s-->", from, event)
					if legal {
						require.NoError(t, err)
						require.Equal(t, want, got)
						continue
					}
					var terr domain.TransitionError
					require.ErrorAs(t, err, &terr, "%s --%s-->", from, event)
					require.Equal(t, from, terr.From)
					require.Equal(t, from, got)
				}
			}
		})
	}
}

func TestTransitionUnknownEntity(t *testing.T) {
	_, err := transition(domain.EntityCost, "CST-001", "any", EventStart)
	require.Equal(t, domain.KindTransition, domain.KindOf(err))
}
