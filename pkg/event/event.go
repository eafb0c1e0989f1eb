// pkg/event/event.go
package event

import (
	"sync"
)

// Type represents the type of event
type Type string

// Event types published by the analysis service
const (
	AnalysisCompleted Type = "analysis_completed"
	AnalysisFailed    Type = "analysis_failed"
	UnknownPartsFound Type = "unknown_parts_found"
	UploadCompleted   Type = "upload_completed"
	UploadFailed      Type = "upload_failed"
)

// Event is the base interface for all events
type Event interface {
	GetType() Type
	GetSource() interface{}
}

// BaseEvent provides common functionality for all events
type BaseEvent struct {
	EventType Type
	Source    interface{}
}

// GetType returns the event type
func (e *BaseEvent) GetType() Type {
	return e.EventType
}

// GetSource returns the event source
func (e *BaseEvent) GetSource() interface{} {
	return e.Source
}

// Handler is a function that handles events
type Handler func(Event)

// SubscriptionID identifies a handler registration
type SubscriptionID uint64

type subscription struct {
	id      SubscriptionID
	handler Handler
}

// Bus manages event subscriptions and dispatching. Handlers run
// synchronously on the publishing goroutine.
type Bus struct {
	handlers map[Type][]subscription
	nextID   SubscriptionID
	mu       sync.RWMutex
}

// NewEventBus creates a new event bus
func NewEventBus() *Bus {
	return &Bus{
		handlers: make(map[Type][]subscription),
		nextID:   1,
	}
}

// Subscribe registers a handler for a specific event type
func (b *Bus) Subscribe(eventType Type, handler Handler) SubscriptionID {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.nextID
	b.nextID++
	b.handlers[eventType] = append(b.handlers[eventType], subscription{id: id, handler: handler})
	return id
}

// Unsubscribe removes a registration. It reports whether one was removed.
func (b *Bus) Unsubscribe(eventType Type, id SubscriptionID) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	subs := b.handlers[eventType]
	for i, s := range subs {
		if s.id == id {
			// copy so that a Publish iterating the old slice is unaffected
			next := make([]subscription, 0, len(subs)-1)
			next = append(next, subs[:i]...)
			b.handlers[eventType] = append(next, subs[i+1:]...)
			return true
		}
	}
	return false
}

// Publish sends an event to all subscribed handlers
func (b *Bus) Publish(event Event) {
	b.mu.RLock()
	subs := b.handlers[event.GetType()]
	b.mu.RUnlock()

	for _, s := range subs {
		s.handler(event)
	}
}

// AnalysisEvent describes a finished or failed analysis
type AnalysisEvent struct {
	BaseEvent
	ReportID string
	Ship     string
	Parts    int
	Cached   bool
	Err      error
}

// NewAnalysisEvent creates an analysis event
func NewAnalysisEvent(eventType Type, source interface{}, reportID, ship string, parts int) *AnalysisEvent {
	return &AnalysisEvent{
		BaseEvent: BaseEvent{EventType: eventType, Source: source},
		ReportID:  reportID,
		Ship:      ship,
		Parts:     parts,
	}
}

// UnknownPartsEvent lists part ids the catalog did not recognise
type UnknownPartsEvent struct {
	BaseEvent
	Ship     string
	Warnings []string
}

// NewUnknownPartsEvent creates an unknown parts event
func NewUnknownPartsEvent(source interface{}, ship string, warnings []string) *UnknownPartsEvent {
	return &UnknownPartsEvent{
		BaseEvent: BaseEvent{EventType: UnknownPartsFound, Source: source},
		Ship:      ship,
		Warnings:  warnings,
	}
}

// UploadEvent describes an image upload attempt
type UploadEvent struct {
	BaseEvent
	URL string
	Err error
}

// NewUploadEvent creates an upload event; a nil err means success
func NewUploadEvent(source interface{}, url string, err error) *UploadEvent {
	t := UploadCompleted
	if err != nil {
		t = UploadFailed
	}
	return &UploadEvent{
		BaseEvent: BaseEvent{EventType: t, Source: source},
		URL:       url,
		Err:       err,
	}
}
