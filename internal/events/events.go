package events

import (
	"encoding/json"
	"sync"
	"time"
)

const (
	EventAppointmentCreated   = "appointment_created"
	EventAppointmentConfirmed = "appointment_confirmed"
	EventAppointmentCancelled = "appointment_cancelled"
	EventAppointmentCompleted = "appointment_completed"
	EventAppointmentDeleted   = "appointment_deleted"
	EventPaymentRegistered    = "payment_registered"
)

// AppointmentEventPayload is the minimal appointment snapshot delivered
// to event consumers.
type AppointmentEventPayload struct {
	AppointmentID string  `json:"appointment_id"`
	PatientID     string  `json:"patient_id"`
	PatientName   string  `json:"patient_name"`
	Date          string  `json:"date"`
	Time          string  `json:"time"`
	Status        string  `json:"status"`
	Cost          float64 `json:"cost,omitempty"`
	PaymentMethod string  `json:"payment_method,omitempty"`
	Source        string  `json:"source,omitempty"` // "client" or "admin"
}

// Event is a lightweight domain event.
type Event struct {
	Type      string
	Payload   []byte
	CreatedAt time.Time
}

// EventHandler reacts to an event.
type EventHandler func(event *Event) error

// EventBus provides in-process pub/sub.
type EventBus struct {
	subscribers map[string][]EventHandler
	mu          sync.RWMutex
}

func NewEventBus() *EventBus {
	return &EventBus{subscribers: make(map[string][]EventHandler)}
}

// Subscribe registers a handler for a given event type.
func (b *EventBus) Subscribe(eventType string, handler EventHandler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subscribers[eventType] = append(b.subscribers[eventType], handler)
}

// Publish notifies subscribers of the event type.
func (b *EventBus) Publish(event *Event) {
	b.mu.RLock()
	handlers := append([]EventHandler(nil), b.subscribers[event.Type]...)
	b.mu.RUnlock()

	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now()
	}

	for _, handler := range handlers {
		// Handlers run synchronously; caller decides concurrency model.
		_ = handler(event)
	}
}

// PublishJSON serializes the payload and publishes an event.
func (b *EventBus) PublishJSON(eventType string, payload interface{}) error {
	if b == nil {
		return nil
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	b.Publish(&Event{Type: eventType, Payload: raw, CreatedAt: time.Now()})
	return nil
}
