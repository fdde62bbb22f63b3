package events

import (
	"encoding/json"

	"github.com/rs/zerolog"
)

// SubscribeLogger writes every known event to the logger at debug level.
func SubscribeLogger(bus *EventBus, logger *zerolog.Logger) {
	for _, eventType := range AllEventTypes {
		bus.Subscribe(eventType, func(event *Event) error {
			logger.Debug().
				Int64("event_id", event.ID).
				Str("event", event.Type).
				RawJSON("payload", json.RawMessage(event.Payload)).
				Msg("Event published")
			return nil
		})
	}
}
