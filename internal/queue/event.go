// Package queue defines message payloads exchanged over the message broker
// and the RabbitMQ publisher and consumer that carry them.
package queue

import "time"

// RecomputeQueueName is the durable queue carrying recompute requests.
const RecomputeQueueName = "availability.recompute"

// RecomputeRequested is published after an attendee availability write.
// Consumers rebuild the event's slot aggregates; the publisher never waits
// for the result.
type RecomputeRequested struct {
	EventID     string    `json:"event_id"`
	UserID      string    `json:"user_id,omitempty"`
	Reason      string    `json:"reason"` // e.g. availability.created
	RequestedAt time.Time `json:"requested_at"`
}
