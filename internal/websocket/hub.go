package websocket

import (
	"encoding/json"
	"log"

	"social-go/internal/events"
)

// delivery is one routed payload: either targeted at specific usernames or,
// with no recipients, broadcast to every connected client.
type delivery struct {
	recipients []string
	payload    []byte
}

// Hub maintains the set of active clients keyed by username and routes
// fan-out envelopes to them. One connection per username; a new connection
// replaces the old one.
type Hub struct {
	clients map[string]*Client

	register   chan *Client
	unregister chan *Client
	deliveries chan *delivery
}

// NewHub creates a new Hub.
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[string]*Client),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		deliveries: make(chan *delivery, 256),
	}
}

// Deliver routes a fan-out envelope to its recipients. Envelopes without
// recipients are broadcast. Non-blocking: if the hub's queue is full the
// envelope is dropped, matching the bus's no-replay semantics.
func (h *Hub) Deliver(env *events.Envelope) {
	payload, err := json.Marshal(env)
	if err != nil {
		log.Printf("Hub: failed to marshal envelope %s: %v", env.ID, err)
		return
	}
	select {
	case h.deliveries <- &delivery{recipients: env.Recipients, payload: payload}:
	default:
		log.Printf("Warning: hub delivery channel is full, dropping envelope %s.", env.ID)
	}
}

// Run starts the hub loop. It owns the clients map; all access goes through
// the channels.
func (h *Hub) Run() {
	log.Println("WebSocket hub run loop started.")
	for {
		select {
		case client := <-h.register:
			if existing, ok := h.clients[client.Username]; ok {
				log.Printf("Warning: user %s already connected, replacing old connection.", client.Username)
				close(existing.send)
			}
			h.clients[client.Username] = client
			log.Printf("Client registered: %s", client.Username)

		case client := <-h.unregister:
			// Only drop the stored client if it is the one unregistering; a
			// replaced connection must not tear down its successor, and its
			// late unregister must not count as a disconnect either.
			if stored, ok := h.clients[client.Username]; ok && stored == client {
				delete(h.clients, client.Username)
				close(client.send)
				h.closedOut(client)
				log.Printf("Client unregistered: %s", client.Username)
			}

		case d := <-h.deliveries:
			if len(d.recipients) == 0 {
				for username, client := range h.clients {
					h.send(username, client, d.payload)
				}
				continue
			}
			for _, username := range d.recipients {
				if client, ok := h.clients[username]; ok {
					h.send(username, client, d.payload)
				}
				// Recipients without a live connection miss the event; there
				// is no queue or replay.
			}
		}
	}
}

// send pushes a payload to one client without blocking the hub loop. A full
// send buffer means the client is slow or gone, so it is removed.
func (h *Hub) send(username string, client *Client, payload []byte) {
	select {
	case client.send <- payload:
	default:
		log.Printf("Warning: send buffer for user %s is full, dropping client.", username)
		close(client.send)
		delete(h.clients, username)
		h.closedOut(client)
	}
}

// closedOut notifies a client that was dropped while it was still the
// registered connection for its username. Runs off the hub goroutine so the
// callback (a presence write) cannot stall routing.
func (h *Hub) closedOut(client *Client) {
	if client.onClose != nil {
		go client.onClose()
	}
}
