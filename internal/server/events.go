package server

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/MarcoPoloResearchLab/wedding/backend/internal/invitations"
	"github.com/gin-gonic/gin"
)

const (
	EventRecordChanged = "record-change"
	eventHeartbeat     = "heartbeat"
	eventSourceBackend = "wedding-backend"

	ActionCreated = "created"
	ActionUpdated = "updated"
	ActionDeleted = "deleted"

	defaultHeartbeatInterval = 25 * time.Second
)

// ChangeEvent announces a write to a record that belongs to one invitation.
type ChangeEvent struct {
	InvitationID string
	EventType    string
	Collection   string
	RecordID     string
	Action       string
	Timestamp    time.Time
}

// ChangeDispatcher fans change events out to the subscribers of each invitation.
// Slow subscribers drop events instead of blocking writers.
type ChangeDispatcher struct {
	mu          sync.RWMutex
	subscribers map[string]map[int64]*changeSubscriber
	nextID      int64
	bufferSize  int
}

type changeSubscriber struct {
	id     int64
	stream chan ChangeEvent
}

func NewChangeDispatcher() *ChangeDispatcher {
	return &ChangeDispatcher{
		subscribers: make(map[string]map[int64]*changeSubscriber),
		bufferSize:  16,
	}
}

func (d *ChangeDispatcher) Subscribe(ctx context.Context, invitationID string) (<-chan ChangeEvent, func()) {
	if invitationID == "" {
		ch := make(chan ChangeEvent)
		close(ch)
		return ch, func() {}
	}
	subscriber := &changeSubscriber{
		id:     d.nextSequence(),
		stream: make(chan ChangeEvent, d.bufferSize),
	}
	d.registerSubscriber(invitationID, subscriber)
	var once sync.Once
	cleanup := func() {
		once.Do(func() { d.unregisterSubscriber(invitationID, subscriber.id) })
	}
	go func() {
		<-ctx.Done()
		cleanup()
	}()
	return subscriber.stream, cleanup
}

func (d *ChangeDispatcher) Publish(event ChangeEvent) {
	if event.InvitationID == "" || event.EventType == "" {
		return
	}
	d.mu.RLock()
	defer d.mu.RUnlock()
	for _, subscriber := range d.subscribers[event.InvitationID] {
		select {
		case subscriber.stream <- event:
		default:
		}
	}
}

// CloseInvitation detaches every subscriber of invitationID and closes their
// streams. Events already buffered are still delivered before the close.
func (d *ChangeDispatcher) CloseInvitation(invitationID string) {
	d.mu.Lock()
	subscribers := d.subscribers[invitationID]
	delete(d.subscribers, invitationID)
	for _, subscriber := range subscribers {
		close(subscriber.stream)
	}
	d.mu.Unlock()
}

func (d *ChangeDispatcher) nextSequence() int64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.nextID++
	return d.nextID
}

func (d *ChangeDispatcher) registerSubscriber(invitationID string, subscriber *changeSubscriber) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.subscribers[invitationID]; !ok {
		d.subscribers[invitationID] = make(map[int64]*changeSubscriber)
	}
	d.subscribers[invitationID][subscriber.id] = subscriber
}

func (d *ChangeDispatcher) unregisterSubscriber(invitationID string, subscriberID int64) {
	d.mu.Lock()
	subscribers := d.subscribers[invitationID]
	if subscribers != nil {
		delete(subscribers, subscriberID)
		if len(subscribers) == 0 {
			delete(d.subscribers, invitationID)
		}
	}
	d.mu.Unlock()
}

type changeEventPayload struct {
	Collection string `json:"coleccion"`
	RecordID   string `json:"id"`
	Action     string `json:"accion"`
	Timestamp  string `json:"timestamp"`
	Source     string `json:"source"`
}

type heartbeatPayload struct {
	Timestamp string `json:"timestamp"`
	Source    string `json:"source"`
}

func (h *httpHandler) publishChange(invitationID, collection, recordID, action string) {
	h.events.Publish(ChangeEvent{
		InvitationID: invitationID,
		EventType:    EventRecordChanged,
		Collection:   collection,
		RecordID:     recordID,
		Action:       action,
		Timestamp:    time.Now().UTC(),
	})
}

// retireInvitationFeed announces the deletion of an invitation to its
// subscribers and ends their streams.
func (h *httpHandler) retireInvitationFeed(invitationID string) {
	h.publishChange(invitationID, invitations.TableName, invitationID, ActionDeleted)
	h.events.CloseInvitation(invitationID)
}

// streamEvents keeps a server-sent event stream open for one invitation.
func (h *httpHandler) streamEvents(c *gin.Context) {
	ctx := c.Request.Context()
	invitation, err := h.invitations.Get(ctx, c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}

	stream, cleanup := h.events.Subscribe(ctx, invitation.ID)
	defer cleanup()

	heartbeat := time.NewTicker(h.heartbeatInterval)
	defer heartbeat.Stop()

	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")
	c.SSEvent(eventHeartbeat, heartbeatPayload{Timestamp: time.Now().UTC().Format(time.RFC3339), Source: eventSourceBackend})
	c.Writer.Flush()

	c.Stream(func(io.Writer) bool {
		select {
		case <-ctx.Done():
			return false
		case event, ok := <-stream:
			if !ok {
				return false
			}
			c.SSEvent(event.EventType, changeEventPayload{
				Collection: event.Collection,
				RecordID:   event.RecordID,
				Action:     event.Action,
				Timestamp:  event.Timestamp.Format(time.RFC3339),
				Source:     eventSourceBackend,
			})
			return true
		case tick := <-heartbeat.C:
			c.SSEvent(eventHeartbeat, heartbeatPayload{Timestamp: tick.UTC().Format(time.RFC3339), Source: eventSourceBackend})
			return true
		}
	})
}
