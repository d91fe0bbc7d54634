package ws

import (
	"encoding/json"
	"log/slog"
	"sync"
	"time"
)

// Subscriber abstracts a streaming client.
type Subscriber interface {
	Send([]byte) error
	Close()
}

// Notification is the JSON frame pushed to subscribers of an event topic.
type Notification struct {
	Type    string    `json:"type"`
	EventID string    `json:"event_id"`
	Data    any       `json:"data,omitempty"`
	SentAt  time.Time `json:"sent_at"`
}

// Notification types.
const (
	TypeParticipants = "participants"
	TypeTeam         = "team"
	TypeEvent        = "event"
)

// Hub fans notifications out to subscribers grouped by event id. A single
// goroutine owns the subscriber map.
type Hub struct {
	clients   map[string]map[Subscriber]struct{}
	register  chan subscription
	unreg     chan subscription
	broadcast chan message
	count     chan chan int
	done      chan struct{}
	closeOnce sync.Once
	logger    *slog.Logger
}

type message struct {
	topic   string
	payload []byte
}

type subscription struct {
	topic  string
	client Subscriber
}

// NewHub creates an initialized Hub.
func NewHub(logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	h := &Hub{
		clients:   make(map[string]map[Subscriber]struct{}),
		register:  make(chan subscription),
		unreg:     make(chan subscription),
		broadcast: make(chan message, 64),
		count:     make(chan chan int),
		done:      make(chan struct{}),
		logger:    logger,
	}
	go h.run()
	return h
}

func (h *Hub) run() {
	for {
		select {
		case sub := <-h.register:
			if _, ok := h.clients[sub.topic]; !ok {
				h.clients[sub.topic] = make(map[Subscriber]struct{})
			}
			h.clients[sub.topic][sub.client] = struct{}{}
		case sub := <-h.unreg:
			if clients, ok := h.clients[sub.topic]; ok {
				delete(clients, sub.client)
				if len(clients) == 0 {
					delete(h.clients, sub.topic)
				}
			}
		case msg := <-h.broadcast:
			h.deliver(msg)
		case reply := <-h.count:
			total := 0
			for _, clients := range h.clients {
				total += len(clients)
			}
			reply <- total
		case <-h.done:
			for _, clients := range h.clients {
				for c := range clients {
					c.Close()
				}
			}
			h.clients = nil
			return
		}
	}
}

func (h *Hub) deliver(msg message) {
	clients, ok := h.clients[msg.topic]
	if !ok {
		return
	}
	for c := range clients {
		if err := c.Send(msg.payload); err != nil {
			c.Close()
			delete(clients, c)
		}
	}
	if len(clients) == 0 {
		delete(h.clients, msg.topic)
	}
}

// Register adds a client to an event stream.
func (h *Hub) Register(eventID string, client Subscriber) {
	select {
	case h.register <- subscription{topic: eventID, client: client}:
	case <-h.done:
		client.Close()
	}
}

// Unregister removes a client.
func (h *Hub) Unregister(eventID string, client Subscriber) {
	select {
	case h.unreg <- subscription{topic: eventID, client: client}:
	case <-h.done:
	}
}

// Broadcast sends payload to all clients of the event.
func (h *Hub) Broadcast(eventID string, payload []byte) {
	select {
	case h.broadcast <- message{topic: eventID, payload: payload}:
	case <-h.done:
	}
}

// Publish encodes a Notification and broadcasts it on the event topic.
func (h *Hub) Publish(eventID, kind string, data any) {
	payload, err := json.Marshal(Notification{
		Type:    kind,
		EventID: eventID,
		Data:    data,
		SentAt:  time.Now().UTC(),
	})
	if err != nil {
		h.logger.Error("encode notification", "error", err, "event_id", eventID, "type", kind)
		return
	}
	h.Broadcast(eventID, payload)
}

// Subscribers reports the number of connected clients.
func (h *Hub) Subscribers() int {
	select {
	case <-h.done:
		return 0
	default:
	}
	reply := make(chan int, 1)
	select {
	case h.count <- reply:
		return <-reply
	case <-h.done:
		return 0
	}
}

// Close disconnects every subscriber and stops the hub.
func (h *Hub) Close() {
	h.closeOnce.Do(func() { close(h.done) })
}
