package realtime

import (
	"encoding/json"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/yukikurage/field-service-api/internal/auth"
	"github.com/yukikurage/field-service-api/internal/models"
)

// Rooms groups sessions and delivers events to every member of a room.
type Rooms interface {
	Join(room string, conn *Conn)
	Leave(room string, conn *Conn)
	Remove(conn *Conn)
	Publish(room string, event Event)
}

// Observer receives hub activity. *metrics.Metrics implements it.
type Observer interface {
	ConnectionOpened()
	ConnectionClosed()
	RoomsActive(n int)
	EventDropped()
	EventPublished(event string)
}

type nopObserver struct{}

func (nopObserver) ConnectionOpened()     {}
func (nopObserver) ConnectionClosed()     {}
func (nopObserver) RoomsActive(int)       {}
func (nopObserver) EventDropped()         {}
func (nopObserver) EventPublished(string) {}

// Conn is one live session. Events are queued in a bounded buffer drained
// by a single writer, so a session sees events in publish order. When the
// buffer is full the event is dropped for that session only.
type Conn struct {
	ID       string
	Identity auth.Identity

	send      chan Event
	done      chan struct{}
	closeOnce sync.Once
}

// NewConn creates a session with the given queue size
func NewConn(identity auth.Identity, buffer int) *Conn {
	return &Conn{
		ID:       uuid.NewString(),
		Identity: identity,
		send:     make(chan Event, buffer),
		done:     make(chan struct{}),
	}
}

// Events is drained by the session writer.
func (c *Conn) Events() <-chan Event {
	return c.send
}

// Done is closed once the session is closed.
func (c *Conn) Done() <-chan struct{} {
	return c.done
}

// Close stops delivery to the session. It is safe to call more than once.
func (c *Conn) Close() {
	c.closeOnce.Do(func() { close(c.done) })
}

func (c *Conn) closed() bool {
	select {
	case <-c.done:
		return true
	default:
		return false
	}
}

// Enqueue queues an event without blocking. It reports false when the
// session is closed or its queue is full.
func (c *Conn) Enqueue(event Event) bool {
	if c.closed() {
		return false
	}
	select {
	case c.send <- event:
		return true
	default:
		return false
	}
}

// Hub is the in-process room registry.
type Hub struct {
	mu       sync.RWMutex
	rooms    map[string]map[*Conn]struct{}
	sessions map[*Conn]map[string]struct{}
	observer Observer
}

// NewHub creates an empty hub. observer may be nil.
func NewHub(observer Observer) *Hub {
	if observer == nil {
		observer = nopObserver{}
	}
	return &Hub{
		rooms:    make(map[string]map[*Conn]struct{}),
		sessions: make(map[*Conn]map[string]struct{}),
		observer: observer,
	}
}

// Join adds the session to a room. The first join registers the session.
// Closed sessions are ignored.
func (h *Hub) Join(room string, conn *Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if conn.closed() {
		return
	}

	joined, ok := h.sessions[conn]
	if !ok {
		joined = make(map[string]struct{})
		h.sessions[conn] = joined
		h.observer.ConnectionOpened()
	}
	joined[room] = struct{}{}

	members, ok := h.rooms[room]
	if !ok {
		members = make(map[*Conn]struct{})
		h.rooms[room] = members
	}
	members[conn] = struct{}{}
	h.observer.RoomsActive(len(h.rooms))
}

// Leave removes the session from one room.
func (h *Hub) Leave(room string, conn *Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if joined, ok := h.sessions[conn]; ok {
		delete(joined, room)
	}
	h.leave(room, conn)
	h.observer.RoomsActive(len(h.rooms))
}

// Remove closes the session and drops it from every room.
func (h *Hub) Remove(conn *Conn) {
	conn.Close()

	h.mu.Lock()
	joined, ok := h.sessions[conn]
	if ok {
		for room := range joined {
			h.leave(room, conn)
		}
		delete(h.sessions, conn)
		h.observer.ConnectionClosed()
		h.observer.RoomsActive(len(h.rooms))
	}
	h.mu.Unlock()
}

// leave must be called with mu held.
func (h *Hub) leave(room string, conn *Conn) {
	members, ok := h.rooms[room]
	if !ok {
		return
	}
	delete(members, conn)
	if len(members) == 0 {
		delete(h.rooms, room)
	}
}

// Publish queues the event on every session of the room. A job:updated
// published to a job room then drops the workers it no longer names as
// assignee; they get the update itself and a room:left.
func (h *Hub) Publish(room string, event Event) {
	h.mu.RLock()
	members := make([]*Conn, 0, len(h.rooms[room]))
	for conn := range h.rooms[room] {
		members = append(members, conn)
	}
	h.mu.RUnlock()

	h.observer.EventPublished(event.Type)
	for _, conn := range members {
		if !conn.Enqueue(event) {
			h.observer.EventDropped()
		}
	}

	if event.Type == EventJobUpdated && strings.HasPrefix(room, jobRoomPrefix) {
		if assignee, ok := assignedWorker(event.Data); ok {
			h.dropUnassigned(room, assignee)
		}
	}
}

func (h *Hub) dropUnassigned(room, assignee string) {
	h.mu.Lock()
	var dropped []*Conn
	for conn := range h.rooms[room] {
		if conn.Identity.Role != models.RoleWorker || conn.Identity.UserID == assignee {
			continue
		}
		if joined, ok := h.sessions[conn]; ok {
			delete(joined, room)
		}
		h.leave(room, conn)
		dropped = append(dropped, conn)
	}
	if len(dropped) > 0 {
		h.observer.RoomsActive(len(h.rooms))
	}
	h.mu.Unlock()

	for _, conn := range dropped {
		conn.Enqueue(Event{Type: EventLeft, Data: map[string]string{"room": room}})
	}
}

// assignedWorker reads the assignee from a job:updated payload, either the
// local job view or its relayed JSON. An empty id means unassigned.
func assignedWorker(data interface{}) (string, bool) {
	var id *string
	switch d := data.(type) {
	case *models.JobDetails:
		if d == nil {
			return "", false
		}
		id = d.AssignedWorkerID
	case json.RawMessage:
		var job struct {
			AssignedWorkerID *string `json:"assigned_worker_id"`
		}
		if err := json.Unmarshal(d, &job); err != nil {
			return "", false
		}
		id = job.AssignedWorkerID
	default:
		return "", false
	}
	if id == nil {
		return "", true
	}
	return *id, true
}

// Members returns the number of sessions in a room.
func (h *Hub) Members(room string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[room])
}
