// Package pubsub fans analysis events out to live subscribers, such as the
// browser clients of the web API.
package pubsub

import (
	"context"
	"encoding/json"
	"time"
)

// TopicAnalysis carries the lifecycle of analysis runs
const TopicAnalysis = "analysis"

// Event types published on TopicAnalysis
const (
	EventStarted   = "started"
	EventCompleted = "completed"
	EventFailed    = "failed"
)

// Event is one message on a topic
type Event struct {
	Topic string          `json:"topic"`
	Type  string          `json:"type"` // e.g., "started", "completed"
	Data  json.RawMessage `json:"data"`
	Seq   int             `json:"seq"` // Per-topic sequence number, starting at 1
}

// Subscription receives the events of a single topic
type Subscription interface {
	Topic() string
	Events() <-chan Event
	Close() error
}

// Publisher manages subscriptions and event publishing.
// Cancelling the context passed to Subscribe closes the subscription.
type Publisher interface {
	Subscribe(ctx context.Context, topic string) (Subscription, error)
	Publish(topic string, eventType string, data any) error
	Close() error
}

// RunStatus is the payload of started and failed events
type RunStatus struct {
	Reason string `json:"reason"`
	Error  string `json:"error,omitempty"`
}

// RunSummary is the payload of completed events
type RunSummary struct {
	Root       string    `json:"root"`
	Reason     string    `json:"reason"`
	Artifacts  int       `json:"artifacts"`
	Edges      int       `json:"edges"`
	Unexpanded int       `json:"unexpanded"`
	Cycles     int       `json:"cycles"`
	Issues     int       `json:"issues"`
	DurationMs int64     `json:"durationMs"`
	Finished   time.Time `json:"finished"`
}
