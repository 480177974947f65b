package kafka

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMessageBuilder(t *testing.T) {
	msg := NewMessage().
		WithKey("appt-123").
		WithValue(map[string]string{"status": "pending"}).
		WithEventType("appointment.booked").
		WithSource("medbook").
		WithCorrelationID("req-42").
		Build()

	assert.Equal(t, "appt-123", msg.Key)
	assert.Equal(t, "appointment.booked", msg.GetEventType())
	assert.Equal(t, "medbook", msg.Headers[HeaderSource])
	assert.Equal(t, "req-42", msg.Headers[HeaderCorrelationID])

	var payload map[string]string
	require.NoError(t, msg.DecodeValue(&payload))
	assert.Equal(t, "pending", payload["status"])
}

func TestBuildStampsEventIDAndTimestamp(t *testing.T) {
	msg := NewMessage().WithKey("k").WithValue("v").Build()

	require.NotEmpty(t, msg.GetEventID())
	_, err := uuid.Parse(msg.GetEventID())
	assert.NoError(t, err, "event ID should be a UUID")

	ts, err := time.Parse(time.RFC3339, msg.Headers[HeaderTimestamp])
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now(), ts, time.Minute)
}

func TestBuildKeepsExplicitEventID(t *testing.T) {
	msg := NewMessage().
		WithKey("k").
		WithValue("v").
		WithHeader(HeaderEventID, "fixed-id").
		Build()

	assert.Equal(t, "fixed-id", msg.GetEventID())
}
