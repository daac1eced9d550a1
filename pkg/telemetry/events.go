package telemetry

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Event is one audit event emitted during browser discovery and
// resolution.
type Event struct {
	// ID is the unique identifier for this event.
	ID string `json:"id"`

	// Timestamp is when the event occurred.
	Timestamp time.Time `json:"timestamp"`

	// Type is the event type.
	Type string `json:"type"`

	// ResolutionID is the associated resolution, if applicable.
	ResolutionID string `json:"resolution_id,omitempty"`

	// BrowserType is the browser type the event concerns, if any.
	BrowserType string `json:"browser_type,omitempty"`

	// DeviceID is the device the event concerns, if any.
	DeviceID string `json:"device_id,omitempty"`

	// Message is a human-readable event message.
	Message string `json:"message"`

	// Level is the event severity (info, warning, error).
	Level string `json:"level"`
}

// EventType constants for the events the resolver emits.
const (
	EventTypeResolutionStarted   = "resolution.started"
	EventTypeResolutionCompleted = "resolution.completed"
	EventTypeBrowserChosen       = "browser.chosen"
	EventTypeDefaultUsed         = "browser.default_used"
	EventTypeFinderQueried       = "finder.queried"
	EventTypeCacheHit            = "cache.hit"
	EventTypeError               = "error"
)

// EventLevel constants for event severity.
const (
	EventLevelInfo    = "info"
	EventLevelWarning = "warning"
	EventLevelError   = "error"
)

// EventSubscriber is a function that handles events.
type EventSubscriber func(event Event)

// EventFilter determines if an event should be delivered.
type EventFilter func(event Event) bool

// FilterByLevel delivers only events of the given level.
func FilterByLevel(level string) EventFilter {
	return func(e Event) bool { return e.Level == level }
}

// FilterByType delivers only events of the given type.
func FilterByType(eventType string) EventFilter {
	return func(e Event) bool { return e.Type == eventType }
}

type subscriberEntry struct {
	subscriber EventSubscriber
	filter     EventFilter
}

// EventPublisher delivers resolution audit events to subscribers
// asynchronously through a buffered channel. A disabled publisher
// drops every event.
type EventPublisher struct {
	config      EventsConfig
	buffer      chan Event
	subscribers []subscriberEntry
	wg          sync.WaitGroup
	mu          sync.RWMutex
	cancel      context.CancelFunc
}

// NewEventPublisher creates a new event publisher with the given
// configuration.
func NewEventPublisher(cfg EventsConfig) (*EventPublisher, error) {
	if !cfg.Enabled {
		return &EventPublisher{config: cfg}, nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	ep := &EventPublisher{
		config: cfg,
		buffer: make(chan Event, cfg.BufferSize),
		cancel: cancel,
	}

	ep.wg.Add(1)
	go ep.dispatch(ctx)

	return ep, nil
}

// Subscribe registers a subscriber, optionally filtered.
func (ep *EventPublisher) Subscribe(sub EventSubscriber, filters ...EventFilter) {
	ep.mu.Lock()
	defer ep.mu.Unlock()

	entry := subscriberEntry{subscriber: sub}
	if len(filters) > 0 {
		entry.filter = filters[0]
	}
	ep.subscribers = append(ep.subscribers, entry)
}

// Publish emits an event. If the buffer is full the event is dropped;
// audit events must never block resolution.
func (ep *EventPublisher) Publish(event Event) {
	if !ep.config.Enabled {
		return
	}

	if event.ID == "" {
		event.ID = uuid.New().String()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	select {
	case ep.buffer <- event:
	default:
	}
}

// PublishResolutionCompleted emits a resolution.completed event.
func (ep *EventPublisher) PublishResolutionCompleted(resolutionID, browserType, message string) {
	ep.Publish(Event{
		Type:         EventTypeResolutionCompleted,
		ResolutionID: resolutionID,
		BrowserType:  browserType,
		Message:      message,
		Level:        EventLevelInfo,
	})
}

// PublishBrowserChosen emits a browser.chosen event.
func (ep *EventPublisher) PublishBrowserChosen(resolutionID, browserType, reason string) {
	ep.Publish(Event{
		Type:         EventTypeBrowserChosen,
		ResolutionID: resolutionID,
		BrowserType:  browserType,
		Message:      reason,
		Level:        EventLevelInfo,
	})
}

// PublishDefaultUsed emits a browser.default_used warning event for
// auditing automatic choices.
func (ep *EventPublisher) PublishDefaultUsed(resolutionID, browserType, reason string) {
	ep.Publish(Event{
		Type:         EventTypeDefaultUsed,
		ResolutionID: resolutionID,
		BrowserType:  browserType,
		Message:      reason,
		Level:        EventLevelWarning,
	})
}

// dispatch delivers buffered events to subscribers.
func (ep *EventPublisher) dispatch(ctx context.Context) {
	defer ep.wg.Done()

	for {
		select {
		case <-ctx.Done():
			// Drain what is left before shutting down
			for {
				select {
				case event := <-ep.buffer:
					ep.deliver(event)
				default:
					return
				}
			}
		case event := <-ep.buffer:
			ep.deliver(event)
		}
	}
}

func (ep *EventPublisher) deliver(event Event) {
	ep.mu.RLock()
	subs := ep.subscribers
	ep.mu.RUnlock()

	for _, entry := range subs {
		if entry.filter != nil && !entry.filter(event) {
			continue
		}
		entry.subscriber(event)
	}
}

// Shutdown stops the dispatcher after draining buffered events.
func (ep *EventPublisher) Shutdown(ctx context.Context) error {
	if !ep.config.Enabled {
		return nil
	}

	ep.cancel()

	done := make(chan struct{})
	go func() {
		ep.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
