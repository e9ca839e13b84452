package mq

import (
	"context"

	"github.com/rs/zerolog"
)

// Message represents a broker-agnostic payload delivered to subscribers.
type Message struct {
	ID         string
	Data       []byte
	Attributes map[string]string
}

// Handler processes a message. Return an error to signal a retry/nack.
type Handler func(ctx context.Context, msg Message) error

// Backend defines the broker-agnostic operations used by the app.
type Backend interface {
	Publish(ctx context.Context, channel string, data []byte, attrs map[string]string) (string, error)
	Subscribe(ctx context.Context, channel string, handler Handler) error
	Close() error
}

// MQ fronts a broker backend and instruments the traffic passing through it.
type MQ struct {
	backend Backend
	log     zerolog.Logger
}

// New constructs an MQ wrapper for the provided backend.
func New(backend Backend, log zerolog.Logger) *MQ {
	return &MQ{backend: backend, log: log}
}

// Publish sends a message to the named channel.
func (m *MQ) Publish(ctx context.Context, channel string, data []byte, attrs map[string]string) (string, error) {
	id, err := m.backend.Publish(ctx, channel, data, attrs)
	if err != nil {
		m.log.Error().Str("channel", channel).Err(err).Msg("publish failed")
		return "", err
	}
	m.log.Debug().Str("channel", channel).Str("message_id", id).Int("bytes", len(data)).Msg("message published")
	return id, nil
}

// Subscribe consumes messages from the named channel until the context ends.
func (m *MQ) Subscribe(ctx context.Context, channel string, handler Handler) error {
	m.log.Info().Str("channel", channel).Msg("subscribed")
	return m.backend.Subscribe(ctx, channel, handler)
}

// Close closes the underlying backend.
func (m *MQ) Close() error {
	return m.backend.Close()
}
