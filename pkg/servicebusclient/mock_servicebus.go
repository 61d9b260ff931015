package servicebusclient

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// MockServiceBusClient is an in-memory Publisher. The service uses it when
// no namespace is configured.
type MockServiceBusClient struct {
	mu     sync.RWMutex
	queues map[string][]Message
	seq    int

	// Err, when set, is returned by every Publish call.
	Err error
}

// NewMockServiceBusClient creates a new mock Service Bus client.
func NewMockServiceBusClient() *MockServiceBusClient {
	return &MockServiceBusClient{
		queues: make(map[string][]Message),
	}
}

// Publish records the message.
func (m *MockServiceBusClient) Publish(ctx context.Context, queueOrTopicName string, body []byte, opts ...SendOption) (string, error) {
	if m.Err != nil {
		return "", m.Err
	}
	o := buildOptions(opts)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	messageID := o.MessageID
	if messageID == "" {
		messageID = fmt.Sprintf("mock-msg-%d", m.seq)
	}
	m.queues[queueOrTopicName] = append(m.queues[queueOrTopicName], Message{
		ID:          messageID,
		Subject:     o.Subject,
		Body:        body,
		ContentType: o.ContentType,
		Properties:  o.Properties,
		EnqueuedAt:  time.Now(),
	})
	return messageID, nil
}

// Messages returns what was published to a queue or topic, oldest first.
func (m *MockServiceBusClient) Messages(queueOrTopicName string) []Message {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]Message(nil), m.queues[queueOrTopicName]...)
}

func (m *MockServiceBusClient) Close(ctx context.Context) error {
	return nil
}
