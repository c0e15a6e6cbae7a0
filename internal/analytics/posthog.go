package analytics

import (
	"io"
	"runtime"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/posthog/posthog-go"
)

// enqueuer is the part of the PostHog client the sink uses.
type enqueuer interface {
	io.Closer
	Enqueue(msg posthog.Message) error
}

// PostHogConfig configures the PostHog sink.
type PostHogConfig struct {
	APIKey string
	// Endpoint overrides the PostHog cloud endpoint for self-hosted installs.
	Endpoint string
	// DistinctID identifies this installation; a random id is used when empty.
	DistinctID string
	Version    string
}

// PostHogSink forwards events to PostHog asynchronously.
type PostHogSink struct {
	mu         sync.Mutex
	client     enqueuer
	distinctID string
	version    string
	closed     bool
}

// NewPostHogSink creates a sink. It returns nil, nil when no API key is set.
func NewPostHogSink(cfg PostHogConfig) (*PostHogSink, error) {
	if cfg.APIKey == "" {
		return nil, nil
	}

	phConfig := posthog.Config{
		BatchSize: 20,
		Interval:  2 * time.Second,
		Logger:    quietLogger{},
	}
	if cfg.Endpoint != "" {
		phConfig.Endpoint = cfg.Endpoint
	}

	client, err := posthog.NewWithConfig(cfg.APIKey, phConfig)
	if err != nil {
		return nil, err
	}
	return newPostHogSink(client, cfg.DistinctID, cfg.Version), nil
}

func newPostHogSink(client enqueuer, distinctID, version string) *PostHogSink {
	if distinctID == "" {
		distinctID = uuid.NewString()
	}
	return &PostHogSink{client: client, distinctID: distinctID, version: version}
}

// Send enqueues e. It never blocks on the network.
func (s *PostHogSink) Send(e Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}

	props := posthog.NewProperties()
	for k, v := range e.Properties {
		props.Set(k, v)
	}
	if e.SignalID != "" {
		props.Set("signal_id", e.SignalID)
		props.Set("signal_type", string(e.SignalType))
		props.Set("domain", string(e.Domain))
	}
	props.Set("event_id", e.ID)
	props.Set("os", runtime.GOOS)
	props.Set("version", s.version)
	props.Set("$process_person_profile", false)

	_ = s.client.Enqueue(posthog.Capture{
		DistinctId: s.distinctID,
		Event:      e.Name,
		Timestamp:  e.CreatedAt,
		Properties: props,
	})
}

// Close flushes pending events.
func (s *PostHogSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.client.Close()
}

type quietLogger struct{}

func (quietLogger) Debugf(string, ...interface{}) {}
func (quietLogger) Logf(string, ...interface{})   {}
func (quietLogger) Warnf(string, ...interface{})  {}
func (quietLogger) Errorf(string, ...interface{}) {}
