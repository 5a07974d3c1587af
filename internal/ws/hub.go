package ws

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"todolist/internal/events"
	"todolist/internal/logger"
	"todolist/internal/models/todo"
)

// roomTodos is the only room: every mutation broadcast targets it.
const roomTodos = "todos"

// Hub owns the connection set and the todos-room membership. All
// membership mutations and multicasts run on the Run goroutine, so a
// multicast can never observe a half-updated member set.
type Hub struct {
	register   chan *Client
	unregister chan *Client
	join       chan *Client
	leave      chan *Client
	multicast  chan Envelope

	clients map[*Client]bool
	room    map[*Client]bool
}

func NewHub() *Hub {
	return &Hub{
		register:   make(chan *Client),
		unregister: make(chan *Client),
		join:       make(chan *Client),
		leave:      make(chan *Client),
		multicast:  make(chan Envelope, 64),
		clients:    make(map[*Client]bool),
		room:       make(map[*Client]bool),
	}
}

// Run processes registration, room membership and multicasts until the
// context is cancelled. Start exactly once.
func (h *Hub) Run(ctx context.Context) {
	logger.Info("Gateway: hub started")
	for {
		select {
		case c := <-h.register:
			h.clients[c] = true
			c.reply(notification("Connected to TodoList real-time updates", "success"))
			// auto-join, matching the connect contract
			h.room[c] = true
			logger.Info("Gateway: client connected",
				zap.String("client_id", c.id),
				zap.Int("clients", len(h.clients)))

		case c := <-h.unregister:
			if h.clients[c] {
				delete(h.clients, c)
				delete(h.room, c)
				c.close()
				logger.Info("Gateway: client disconnected",
					zap.String("client_id", c.id),
					zap.Int("clients", len(h.clients)))
			}

		case c := <-h.join:
			if h.clients[c] {
				h.room[c] = true
				c.reply(notification("Joined todo updates room", "info"))
				logger.Info("Gateway: client joined room",
					zap.String("client_id", c.id),
					zap.String("room", roomTodos))
			}

		case c := <-h.leave:
			if h.clients[c] {
				delete(h.room, c)
				c.reply(notification("Left todo updates room", "info"))
				logger.Info("Gateway: client left room",
					zap.String("client_id", c.id),
					zap.String("room", roomTodos))
			}

		case env := <-h.multicast:
			h.sendToRoom(env)

		case <-ctx.Done():
			for c := range h.clients {
				c.close()
			}
			h.clients = make(map[*Client]bool)
			h.room = make(map[*Client]bool)
			logger.Info("Gateway: hub stopped")
			return
		}
	}
}

// sendToRoom delivers to every room member. A member whose send buffer
// is full is dropped so one slow connection cannot stall the rest;
// an empty room is a no-op.
func (h *Hub) sendToRoom(env Envelope) {
	payload, err := json.Marshal(env)
	if err != nil {
		logger.Error("Gateway: marshal failed", err, zap.String("event", env.Event))
		return
	}

	for c := range h.room {
		if !c.trySend(payload) {
			logger.Warn("Gateway: send buffer full, dropping client",
				zap.String("client_id", c.id))
			delete(h.clients, c)
			delete(h.room, c)
			c.close()
		}
	}
}

// Multicast queues an envelope for the todos room. Non-blocking so relay
// delivery cannot stall behind the hub; overflow drops the frame.
func (h *Hub) Multicast(env Envelope) {
	select {
	case h.multicast <- env:
	default:
		logger.Warn("Gateway: multicast queue full, frame dropped",
			zap.String("event", env.Event))
	}
}

// SubscribeRelay wires the hub to the mutation events the todo service
// publishes.
func (h *Hub) SubscribeRelay(relay *events.Relay) {
	relay.Subscribe(events.TodoCreated, func(payload any) {
		t, ok := payload.(*todo.Todo)
		if !ok {
			return
		}
		h.Multicast(Envelope{
			Event: EventTodoCreated,
			Data: TodoEventData{
				ID:        t.ID,
				Todo:      t,
				Action:    "created",
				Timestamp: time.Now(),
				Message:   fmt.Sprintf("Todo %q was created", t.Title),
			},
		})
	})

	relay.Subscribe(events.TodoUpdated, func(payload any) {
		t, ok := payload.(*todo.Todo)
		if !ok {
			return
		}
		h.Multicast(Envelope{
			Event: EventTodoUpdated,
			Data: TodoEventData{
				ID:        t.ID,
				Todo:      t,
				Action:    "updated",
				Timestamp: time.Now(),
				Message:   fmt.Sprintf("Todo %q was updated", t.Title),
			},
		})
	})

	relay.Subscribe(events.TodoDeleted, func(payload any) {
		p, ok := payload.(events.DeletedPayload)
		if !ok {
			return
		}
		h.Multicast(Envelope{
			Event: EventTodoDeleted,
			Data:  TodoDeletedData{ID: p.ID, DeletedID: p.ID},
		})
		label := p.Title
		if label == "" {
			label = fmt.Sprintf("%d", p.ID)
		}
		h.Multicast(notification(fmt.Sprintf("Todo %q was deleted", label), "info"))
	})

	relay.Subscribe(events.TodoBulkDeleted, func(payload any) {
		p, ok := payload.(events.BulkDeletedPayload)
		if !ok {
			return
		}
		h.Multicast(Envelope{
			Event: EventTodoBulkDeleted,
			Data:  TodoBulkDeletedData{IDs: p.IDs, DeletedCount: p.Count},
		})
		h.Multicast(notification(fmt.Sprintf("%d todos were deleted", p.Count), "info"))
	})

	relay.Subscribe(events.TodoOverdue, func(payload any) {
		p, ok := payload.(events.OverduePayload)
		if !ok || len(p.Todos) == 0 {
			return
		}
		h.Multicast(notification(
			fmt.Sprintf("%d todos are past their due date", len(p.Todos)), "warning"))
	})
}
