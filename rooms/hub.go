// Package rooms implements shared listening rooms over websockets. Clients
// join a room by id and receive chat messages, emoji reactions, and playback
// sync events broadcast by other members of the same room.
package rooms

import (
	"encoding/json"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"tunely/metrics"
)

// Event types carried on the wire.
const (
	EventChatMessage   = "chat-message"
	EventPlaybackSync  = "playback-sync"
	EventEmojiReaction = "emoji-reaction"
	EventUserJoined    = "user-joined"
	EventUserLeft      = "user-left"
)

// Message is the envelope for every room event. Payload is forwarded
// opaquely so the client contract can evolve without server changes.
type Message struct {
	Type     string          `json:"type"`
	RoomID   string          `json:"roomId"`
	Username string          `json:"username,omitempty"`
	Payload  json.RawMessage `json:"payload,omitempty"`
	SentAt   time.Time       `json:"sentAt"`
}

// Hub tracks room membership and routes messages between clients.
type Hub struct {
	mu    sync.RWMutex
	rooms map[string]map[*Client]bool
}

func NewHub() *Hub {
	return &Hub{
		rooms: make(map[string]map[*Client]bool),
	}
}

func (h *Hub) join(c *Client) {
	h.mu.Lock()
	room, ok := h.rooms[c.roomID]
	if !ok {
		room = make(map[*Client]bool)
		h.rooms[c.roomID] = room
	}
	room[c] = true
	members := len(room)
	h.mu.Unlock()

	metrics.RoomClients.Inc()
	log.WithFields(log.Fields{
		"module":   "rooms",
		"room":     c.roomID,
		"username": c.username,
		"members":  members,
	}).Info("client joined room")

	h.broadcast(c.roomID, c, &Message{
		Type:     EventUserJoined,
		RoomID:   c.roomID,
		Username: c.username,
		SentAt:   time.Now().UTC(),
	})
}

func (h *Hub) leave(c *Client) {
	h.mu.Lock()
	room, ok := h.rooms[c.roomID]
	if !ok || !room[c] {
		h.mu.Unlock()
		return
	}
	delete(room, c)
	if len(room) == 0 {
		delete(h.rooms, c.roomID)
	}
	h.mu.Unlock()

	metrics.RoomClients.Dec()
	log.WithFields(log.Fields{
		"module":   "rooms",
		"room":     c.roomID,
		"username": c.username,
	}).Info("client left room")

	h.broadcast(c.roomID, c, &Message{
		Type:     EventUserLeft,
		RoomID:   c.roomID,
		Username: c.username,
		SentAt:   time.Now().UTC(),
	})
}

// broadcast delivers msg to every member of roomID except sender. Playback
// sync and reactions originate from one client and must not echo back to it.
func (h *Hub) broadcast(roomID string, sender *Client, msg *Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		log.Errorf("rooms: failed to marshal %s message: %v", msg.Type, err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.rooms[roomID] {
		if c == sender {
			continue
		}
		select {
		case c.send <- data:
		default:
			// Slow consumer; drop the message rather than block the room.
			log.Warnf("rooms: dropping %s message for slow client in room %s", msg.Type, roomID)
		}
	}
}

// handleInbound validates and re-broadcasts a client message.
func (h *Hub) handleInbound(c *Client, data []byte) {
	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		log.Warnf("rooms: discarding malformed message from room %s: %v", c.roomID, err)
		return
	}

	switch msg.Type {
	case EventChatMessage, EventPlaybackSync, EventEmojiReaction:
	default:
		log.Warnf("rooms: discarding message with unknown type %q", msg.Type)
		return
	}

	// Room and identity come from the connection, not the payload.
	msg.RoomID = c.roomID
	msg.Username = c.username
	msg.SentAt = time.Now().UTC()
	h.broadcast(c.roomID, c, &msg)
}

// MemberCount reports the current number of clients in roomID.
func (h *Hub) MemberCount(roomID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[roomID])
}
