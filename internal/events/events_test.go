package events

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventBus(t *testing.T) {
	bus := NewEventBus()

	var received *Event
	var callCount int

	bus.Subscribe(EventSlotBlocked, func(event *Event) error {
		received = event
		callCount++
		return nil
	})

	payload := SlotEventPayload{ProviderID: 7, Date: "2024-05-06", SlotIDs: []string{"2024-05-06T09:00"}}
	require.NoError(t, bus.PublishJSON(EventSlotBlocked, payload))

	assert.Equal(t, 1, callCount)
	require.NotNil(t, received)
	assert.Equal(t, EventSlotBlocked, received.Type)
	assert.Equal(t, int64(1), received.ID)
	assert.False(t, received.CreatedAt.IsZero())

	var decoded SlotEventPayload
	require.NoError(t, json.Unmarshal(received.Payload, &decoded))
	assert.Equal(t, payload, decoded)
}

func TestEventBusMultipleSubscribers(t *testing.T) {
	bus := NewEventBus()
	var count1, count2 int

	bus.Subscribe("event", func(_ *Event) error { count1++; return errors.New("first") })
	bus.Subscribe("event", func(_ *Event) error { count2++; return errors.New("second") })

	err := bus.Publish(&Event{Type: "event"})

	assert.Equal(t, 1, count1)
	assert.Equal(t, 1, count2)
	assert.EqualError(t, err, "first")
}

func TestEventBusNoSubscribers(t *testing.T) {
	bus := NewEventBus()
	assert.NoError(t, bus.Publish(&Event{Type: "unknown"}))
	assert.NoError(t, bus.PublishJSON("unknown", nil))

	var nilBus *EventBus
	assert.NoError(t, nilBus.PublishJSON(EventBookingCreated, nil))
}

func TestNewJSONEvent(t *testing.T) {
	event, err := NewJSONEvent(EventBookingCreated, BookingEventPayload{BookingID: 123, Reference: "abc"})
	require.NoError(t, err)
	assert.Equal(t, EventBookingCreated, event.Type)
	assert.False(t, event.CreatedAt.IsZero())

	var decoded BookingEventPayload
	require.NoError(t, json.Unmarshal(event.Payload, &decoded))
	assert.Equal(t, int64(123), decoded.BookingID)

	_, err = NewJSONEvent("bad", make(chan int))
	assert.Error(t, err)
}

func TestSubscribeLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf)
	bus := NewEventBus()
	SubscribeLogger(bus, &logger)

	require.NoError(t, bus.PublishJSON(EventScheduleUpdated, ScheduleEventPayload{ProviderID: 3, Scope: "settings"}))

	out := buf.String()
	assert.Contains(t, out, `"event":"schedule_updated"`)
	assert.Contains(t, out, `"payload":{"provider_id":3,"scope":"settings"}`)
}
