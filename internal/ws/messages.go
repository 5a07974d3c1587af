package ws

import (
	"encoding/json"
	"time"

	"todolist/internal/models/todo"
)

// Server→client event names.
const (
	EventTodoCreated     = "todoCreated"
	EventTodoUpdated     = "todoUpdated"
	EventTodoDeleted     = "todoDeleted"
	EventTodoBulkDeleted = "todoBulkDeleted"
	EventNotification    = "notification"
)

// Client→server event names.
const (
	EventJoinTodoRoom  = "joinTodoRoom"
	EventLeaveTodoRoom = "leaveTodoRoom"
	EventPing          = "ping"
	EventGetTodoList   = "getTodoList"
	EventGetTodo       = "getTodo"
)

// Envelope frames every server→client message.
type Envelope struct {
	Event string `json:"event"`
	Data  any    `json:"data"`
}

// inbound is the client→server frame. Data is kept raw; none of the
// supported messages carry a payload the gateway acts on.
type inbound struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

type Notification struct {
	Message   string    `json:"message"`
	Type      string    `json:"type"` // success, info, warning, error
	Timestamp time.Time `json:"timestamp"`
}

type TodoEventData struct {
	ID        int64      `json:"id"`
	Todo      *todo.Todo `json:"todo"`
	Action    string     `json:"action"`
	Timestamp time.Time  `json:"timestamp"`
	Message   string     `json:"message,omitempty"`
}

type TodoDeletedData struct {
	ID        int64 `json:"id"`
	DeletedID int64 `json:"deleted_id"`
}

type TodoBulkDeletedData struct {
	IDs          []int64 `json:"ids"`
	DeletedCount int64   `json:"deleted_count"`
}

func notification(message, kind string) Envelope {
	return Envelope{
		Event: EventNotification,
		Data: Notification{
			Message:   message,
			Type:      kind,
			Timestamp: time.Now(),
		},
	}
}
