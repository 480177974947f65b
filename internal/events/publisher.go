package events

import (
	"context"

	"medbook/pkg/kafka"
	"medbook/pkg/logger"
	"medbook/pkg/middleware"
)

// Event types emitted on the notifications topic.
const (
	AppointmentBooked    = "appointment.booked"
	AppointmentConfirmed = "appointment.confirmed"
	AppointmentCancelled = "appointment.cancelled"
	AppointmentCompleted = "appointment.completed"
	DoctorApproved       = "doctor.approved"
	DoctorRejected       = "doctor.rejected"
)

const source = "medbook"

// Publisher emits domain events. Publishing is best effort: the state change
// has already committed, so a broker outage must never fail the request.
type Publisher interface {
	Publish(ctx context.Context, eventType, key string, payload any)
}

type kafkaPublisher struct {
	producer *kafka.Producer
	log      *logger.Logger
}

func NewKafkaPublisher(producer *kafka.Producer, log *logger.Logger) Publisher {
	return &kafkaPublisher{
		producer: producer,
		log:      log,
	}
}

func (p *kafkaPublisher) Publish(ctx context.Context, eventType, key string, payload any) {
	builder := kafka.NewMessage().
		WithKey(key).
		WithValue(payload).
		WithEventType(eventType).
		WithSource(source)

	if requestID, ok := ctx.Value(middleware.RequestIDKey).(string); ok && requestID != "" {
		builder = builder.WithCorrelationID(requestID)
	}

	msg := builder.Build()
	if err := p.producer.Publish(ctx, msg); err != nil {
		p.log.Error("Failed to publish event",
			"event_type", eventType,
			"key", key,
			"error", err,
		)
		return
	}

	p.log.Debug("Event published",
		"event_type", eventType,
		"event_id", msg.GetEventID(),
		"key", key,
	)
}

// NoopPublisher drops events; used when no broker is configured.
type NoopPublisher struct{}

func (NoopPublisher) Publish(context.Context, string, string, any) {}
