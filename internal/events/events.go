package events

import (
	"encoding/json"
	"sync"
	"time"
)

const (
	EventSlotsGenerated   = "slots_generated"
	EventSlotBlocked      = "slot_blocked"
	EventSlotUnblocked    = "slot_unblocked"
	EventBookingCreated   = "booking_created"
	EventBookingCancelled = "booking_cancelled"
	EventScheduleUpdated  = "schedule_updated"
)

// AllEventTypes lists every event the services publish.
var AllEventTypes = []string{
	EventSlotsGenerated,
	EventSlotBlocked,
	EventSlotUnblocked,
	EventBookingCreated,
	EventBookingCancelled,
	EventScheduleUpdated,
}

// BoardEventPayload is published whenever a date's slot list is regenerated.
type BoardEventPayload struct {
	ProviderID int64  `json:"provider_id"`
	Date       string `json:"date"`
	Reason     string `json:"reason"`
	Total      int    `json:"total_slots"`
	Available  int    `json:"available_slots"`
	Blocked    int    `json:"blocked_slots"`
	Booked     int    `json:"booked_slots"`
}

// SlotEventPayload lists the slots whose status a command changed.
type SlotEventPayload struct {
	ProviderID int64    `json:"provider_id"`
	Date       string   `json:"date"`
	SlotIDs    []string `json:"slot_ids"`
}

// BookingEventPayload describes the minimal booking snapshot for event consumers.
type BookingEventPayload struct {
	BookingID  int64    `json:"booking_id"`
	Reference  string   `json:"reference"`
	ProviderID int64    `json:"provider_id"`
	Date       string   `json:"date"`
	StartTime  string   `json:"start_time"`
	EndTime    string   `json:"end_time"`
	Status     string   `json:"status"`
	SlotIDs    []string `json:"slot_ids,omitempty"`
}

// ScheduleEventPayload names what part of a provider's configuration changed:
// "working_hours", "settings", "blocked_date" or "unblocked_date".
type ScheduleEventPayload struct {
	ProviderID int64  `json:"provider_id"`
	Scope      string `json:"scope"`
	Date       string `json:"date,omitempty"`
}

// Event represents a lightweight domain event.
type Event struct {
	ID        int64
	Type      string
	Payload   []byte
	CreatedAt time.Time
}

// EventHandler reacts to an event.
type EventHandler func(event *Event) error

// EventBus provides in-process pub/sub for events.
type EventBus struct {
	subscribers map[string][]EventHandler
	mu          sync.RWMutex
	seq         int64
}

// NewEventBus constructs an empty bus.
func NewEventBus() *EventBus {
	return &EventBus{subscribers: make(map[string][]EventHandler)}
}

// Subscribe registers a handler for a given event type.
func (b *EventBus) Subscribe(eventType string, handler EventHandler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subscribers[eventType] = append(b.subscribers[eventType], handler)
}

// Publish notifies subscribers of the event type and returns the first
// handler error. Every handler runs regardless.
func (b *EventBus) Publish(event *Event) error {
	b.mu.Lock()
	b.seq++
	event.ID = b.seq
	handlers := append([]EventHandler(nil), b.subscribers[event.Type]...)
	b.mu.Unlock()

	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now()
	}

	var firstErr error
	for _, handler := range handlers {
		// Handlers run synchronously; caller decides concurrency model.
		if err := handler(event); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// PublishJSON serializes the payload and publishes an event.
func (b *EventBus) PublishJSON(eventType string, payload interface{}) error {
	if b == nil {
		return nil
	}

	event, err := NewJSONEvent(eventType, payload)
	if err != nil {
		return err
	}

	return b.Publish(&event)
}

// NewJSONEvent builds an Event with JSON payload for manual publishing.
func NewJSONEvent(eventType string, payload interface{}) (Event, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return Event{}, err
	}

	return Event{Type: eventType, Payload: raw, CreatedAt: time.Now()}, nil
}
