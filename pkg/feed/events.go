package feed

import "defiprice/pkg/models"

// EventType defines the type of event being broadcast.
type EventType string

const (
	EventFetchStarted  EventType = "fetch_started"
	EventPricesUpdated EventType = "prices_updated"
	EventFetchFailed   EventType = "fetch_failed"
)

// Event carries a copy of the feed state at the time it was emitted.
type Event struct {
	Type  EventType
	State models.FeedState
}

// Subscriber is a channel that receives events.
type Subscriber chan Event
