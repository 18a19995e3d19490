// Package queue defines the change events published to the message broker
// and the transports that move them. Each todo mutation produces one event
// on the todo's own topic so live subscribers of that item see it change.
package queue

import "github.com/iliyamo/todo-api/internal/repository"

// Event types carried in TodoEvent.Type.
const (
	EventCreated = "created"
	EventUpdated = "updated"
	EventDeleted = "deleted"
)

// TodoMessage is the payload of a change event. Deleted events carry only
// the id; the other fields are omitted rather than zeroed so consumers can
// tell "cleared" apart from "absent".
type TodoMessage struct {
	ID          string  `json:"id"`
	Name        *string `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
	Done        *bool   `json:"done,omitempty"`
}

// TodoEvent is published whenever a todo is created, updated or deleted.
type TodoEvent struct {
	Type    string      `json:"type"`
	Message TodoMessage `json:"message"`
}

// NewCreatedEvent builds the event for a freshly inserted todo.
func NewCreatedEvent(t repository.Todo) TodoEvent {
	return snapshotEvent(EventCreated, t)
}

// NewUpdatedEvent builds the event for a modified todo.
func NewUpdatedEvent(t repository.Todo) TodoEvent {
	return snapshotEvent(EventUpdated, t)
}

// NewDeletedEvent builds the event for a removed todo. Only the id remains
// meaningful once the row is gone.
func NewDeletedEvent(id string) TodoEvent {
	return TodoEvent{Type: EventDeleted, Message: TodoMessage{ID: id}}
}

func snapshotEvent(typ string, t repository.Todo) TodoEvent {
	name := t.Name
	done := t.Done
	return TodoEvent{
		Type: typ,
		Message: TodoMessage{
			ID:          t.ID,
			Name:        &name,
			Description: t.Description,
			Done:        &done,
		},
	}
}
