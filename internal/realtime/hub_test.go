package realtime

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yukikurage/field-service-api/internal/auth"
	"github.com/yukikurage/field-service-api/internal/models"
)

type countingObserver struct {
	opened, closed, dropped int
	published               []string
	rooms                   int
}

func (o *countingObserver) ConnectionOpened()           { o.opened++ }
func (o *countingObserver) ConnectionClosed()           { o.closed++ }
func (o *countingObserver) RoomsActive(n int)           { o.rooms = n }
func (o *countingObserver) EventDropped()               { o.dropped++ }
func (o *countingObserver) EventPublished(event string) { o.published = append(o.published, event) }

func newTestConn(buffer int) *Conn {
	return NewConn(auth.Identity{UserID: "u1", TenantID: "t1", Role: models.RoleAdmin}, buffer)
}

func drain(c *Conn) []Event {
	var events []Event
	for {
		select {
		case e := <-c.Events():
			events = append(events, e)
		default:
			return events
		}
	}
}

func TestHubDeliversOnlyToRoomMembers(t *testing.T) {
	hub := NewHub(nil)
	a, b := newTestConn(8), newTestConn(8)

	hub.Join(TenantRoom("t1"), a)
	hub.Join(TenantRoom("t1"), b)
	hub.Join(JobRoom("j1"), a)

	hub.Publish(JobRoom("j1"), Event{Type: EventTaskCreated})
	hub.Publish(TenantRoom("t1"), Event{Type: EventJobCreated})

	assert.Equal(t, []Event{{Type: EventTaskCreated}, {Type: EventJobCreated}}, drain(a))
	assert.Equal(t, []Event{{Type: EventJobCreated}}, drain(b))
}

func TestHubPreservesPublishOrder(t *testing.T) {
	hub := NewHub(nil)
	c := newTestConn(8)
	hub.Join(JobRoom("j1"), c)

	for _, typ := range []string{EventTaskCreated, EventTaskUpdated, EventTaskDeleted} {
		hub.Publish(JobRoom("j1"), Event{Type: typ})
	}

	events := drain(c)
	require.Len(t, events, 3)
	assert.Equal(t, EventTaskCreated, events[0].Type)
	assert.Equal(t, EventTaskUpdated, events[1].Type)
	assert.Equal(t, EventTaskDeleted, events[2].Type)
}

func TestHubDropsWhenQueueFull(t *testing.T) {
	obs := &countingObserver{}
	hub := NewHub(obs)
	slow, fast := newTestConn(1), newTestConn(8)
	hub.Join(TenantRoom("t1"), slow)
	hub.Join(TenantRoom("t1"), fast)

	hub.Publish(TenantRoom("t1"), Event{Type: EventJobCreated})
	hub.Publish(TenantRoom("t1"), Event{Type: EventJobUpdated})

	assert.Len(t, drain(slow), 1)
	assert.Len(t, drain(fast), 2)
	assert.Equal(t, 1, obs.dropped)
	assert.Equal(t, []string{EventJobCreated, EventJobUpdated}, obs.published)
}

func TestHubLeaveAndRemove(t *testing.T) {
	obs := &countingObserver{}
	hub := NewHub(obs)
	c := newTestConn(8)

	hub.Join(TenantRoom("t1"), c)
	hub.Join(JobRoom("j1"), c)
	assert.Equal(t, 1, obs.opened)
	assert.Equal(t, 2, obs.rooms)

	hub.Leave(JobRoom("j1"), c)
	assert.Equal(t, 0, hub.Members(JobRoom("j1")))
	hub.Publish(JobRoom("j1"), Event{Type: EventTaskCreated})
	assert.Empty(t, drain(c))

	hub.Remove(c)
	assert.Equal(t, 0, hub.Members(TenantRoom("t1")))
	assert.Equal(t, 1, obs.closed)
	assert.Equal(t, 0, obs.rooms)

	select {
	case <-c.Done():
	default:
		t.Fatal("removed session should be closed")
	}
	assert.False(t, c.Enqueue(Event{Type: EventJobCreated}))
}

func TestBroadcasterRooms(t *testing.T) {
	hub := NewHub(nil)
	tenant, job := newTestConn(8), newTestConn(8)
	hub.Join(TenantRoom("t1"), tenant)
	hub.Join(JobRoom("j1"), job)

	b := NewBroadcaster(hub)
	details := &models.JobDetails{Job: models.Job{ID: "j1", TenantID: "t1"}}

	b.JobCreated(details)
	b.JobUpdated(details)
	b.TaskCreated(&models.Task{ID: "k1", JobID: "j1"})
	b.JobDeleted("t1", "j1")

	tenantEvents := drain(tenant)
	require.Len(t, tenantEvents, 3)
	assert.Equal(t, EventJobCreated, tenantEvents[0].Type)
	assert.Equal(t, EventJobUpdated, tenantEvents[1].Type)
	assert.Equal(t, EventJobDeleted, tenantEvents[2].Type)

	jobEvents := drain(job)
	require.Len(t, jobEvents, 3)
	assert.Equal(t, EventJobUpdated, jobEvents[0].Type)
	assert.Equal(t, EventTaskCreated, jobEvents[1].Type)
	assert.Equal(t, EventJobDeleted, jobEvents[2].Type)
}

func TestNilBroadcasterIsNoop(t *testing.T) {
	var b *Broadcaster
	assert.NotPanics(t, func() {
		b.JobDeleted("t1", "j1")
		b.SignatureCreated(&models.Signature{JobID: "j1"})
	})
}

func TestRelayMessageRoundTrip(t *testing.T) {
	payload, err := encodeRelayMessage(JobRoom("j1"), Event{Type: EventTaskDeleted, Data: deleted{ID: "k1", JobID: "j1"}})
	require.NoError(t, err)

	room, event, err := decodeRelayMessage(payload)
	require.NoError(t, err)
	assert.Equal(t, JobRoom("j1"), room)
	assert.Equal(t, EventTaskDeleted, event.Type)
	assert.JSONEq(t, `{"id":"k1","job_id":"j1"}`, string(event.Data.(json.RawMessage)))

	_, _, err = decodeRelayMessage([]byte(`{"event":"job:created"}`))
	assert.Error(t, err)
}

func TestHubIgnoresJoinAfterRemove(t *testing.T) {
	obs := &countingObserver{}
	hub := NewHub(obs)
	c := newTestConn(8)

	hub.Join(TenantRoom("t1"), c)
	hub.Remove(c)
	hub.Join(JobRoom("j1"), c)

	assert.Equal(t, 0, hub.Members(JobRoom("j1")))
	assert.Equal(t, 0, hub.Members(TenantRoom("t1")))
	assert.Equal(t, 1, obs.opened)
	assert.Equal(t, 1, obs.closed)
}

func TestJobUpdateDropsUnassignedWorkers(t *testing.T) {
	hub := NewHub(nil)
	admin := newTestConn(8)
	assigned := NewConn(auth.Identity{UserID: "w1", TenantID: "t1", Role: models.RoleWorker}, 8)
	former := NewConn(auth.Identity{UserID: "w2", TenantID: "t1", Role: models.RoleWorker}, 8)
	for _, c := range []*Conn{admin, assigned, former} {
		hub.Join(JobRoom("j1"), c)
	}

	worker := "w1"
	hub.Publish(JobRoom("j1"), Event{Type: EventJobUpdated, Data: &models.JobDetails{Job: models.Job{ID: "j1", AssignedWorkerID: &worker}}})

	assert.Equal(t, 2, hub.Members(JobRoom("j1")))
	assert.Len(t, drain(admin), 1)
	assert.Len(t, drain(assigned), 1)
	events := drain(former)
	require.Len(t, events, 2)
	assert.Equal(t, EventJobUpdated, events[0].Type)
	assert.Equal(t, EventLeft, events[1].Type)

	hub.Publish(JobRoom("j1"), Event{Type: EventTaskCreated})
	assert.Empty(t, drain(former))
}

func TestRelayedJobUpdateDropsWorkersWhenUnassigned(t *testing.T) {
	hub := NewHub(nil)
	admin := newTestConn(8)
	worker := NewConn(auth.Identity{UserID: "w1", TenantID: "t1", Role: models.RoleWorker}, 8)
	hub.Join(JobRoom("j1"), admin)
	hub.Join(JobRoom("j1"), worker)

	hub.Publish(JobRoom("j1"), Event{Type: EventJobUpdated, Data: json.RawMessage(`{"id":"j1","assigned_worker_id":null}`)})
	assert.Equal(t, 1, hub.Members(JobRoom("j1")))

	// Payloads the hub cannot read leave membership alone
	hub.Join(JobRoom("j1"), worker)
	hub.Publish(JobRoom("j1"), Event{Type: EventJobUpdated, Data: map[string]string{"id": "j1"}})
	assert.Equal(t, 2, hub.Members(JobRoom("j1")))
}
