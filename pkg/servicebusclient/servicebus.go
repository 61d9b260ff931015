package servicebusclient

import (
	"context"
	"time"
)

// Publisher sends notification messages to a queue or topic.
type Publisher interface {
	// Publish sends one message and returns its ID.
	Publish(ctx context.Context, queueOrTopicName string, body []byte, opts ...SendOption) (messageID string, err error)

	// Close releases the underlying connection.
	Close(ctx context.Context) error
}

// Message is a published message as recorded by the mock.
type Message struct {
	ID          string
	Subject     string
	Body        []byte
	ContentType string
	Properties  map[string]interface{}
	EnqueuedAt  time.Time
}

// SendOption represents optional parameters for send operations.
type SendOption func(*SendOptions)

// SendOptions contains options for send operations.
type SendOptions struct {
	ContentType string
	Subject     string
	Properties  map[string]interface{}
	MessageID   string
}

// WithContentType sets the content type for a message.
func WithContentType(contentType string) SendOption {
	return func(opts *SendOptions) {
		opts.ContentType = contentType
	}
}

// WithSubject sets the message subject, used by subscribers to filter.
func WithSubject(subject string) SendOption {
	return func(opts *SendOptions) {
		opts.Subject = subject
	}
}

// WithProperties sets custom properties for a message.
func WithProperties(properties map[string]interface{}) SendOption {
	return func(opts *SendOptions) {
		opts.Properties = properties
	}
}

// WithMessageID sets a custom message ID. Service Bus uses it for duplicate
// detection, so a retried publish of the same quote is delivered once.
func WithMessageID(messageID string) SendOption {
	return func(opts *SendOptions) {
		opts.MessageID = messageID
	}
}

func buildOptions(opts []SendOption) SendOptions {
	var o SendOptions
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
