package servicebusclient

import (
	"context"
	"fmt"
	"sync"

	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
	"github.com/Azure/azure-sdk-for-go/sdk/messaging/azservicebus"
	"github.com/google/uuid"

	"github.com/panelkitchens/quotekit/pkg/logging"
)

// AzureServiceBusClient implements Publisher using Azure Service Bus. Senders
// are created once per queue or topic and reused.
type AzureServiceBusClient struct {
	client *azservicebus.Client
	logger logging.Logger

	mu      sync.Mutex
	senders map[string]*azservicebus.Sender
}

// NewAzureServiceBusClient creates a new Azure Service Bus client.
// namespace: Azure Service Bus namespace name (e.g., "panelkitchens")
// Without a key name and value, or with useManagedIdentity set, the default
// Azure credential chain is used.
func NewAzureServiceBusClient(namespace, keyName, keyValue string, useManagedIdentity bool, logger logging.Logger) (*AzureServiceBusClient, error) {
	var client *azservicebus.Client

	if useManagedIdentity || keyName == "" || keyValue == "" {
		cred, err := azidentity.NewDefaultAzureCredential(nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create Azure credential: %w", err)
		}
		client, err = azservicebus.NewClient(namespace+".servicebus.windows.net", cred, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create Service Bus client: %w", err)
		}
	} else {
		connStr := fmt.Sprintf("Endpoint=sb://%s.servicebus.windows.net/;SharedAccessKeyName=%s;SharedAccessKey=%s",
			namespace, keyName, keyValue)
		var err error
		client, err = azservicebus.NewClientFromConnectionString(connStr, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create Service Bus client: %w", err)
		}
	}

	return &AzureServiceBusClient{
		client:  client,
		logger:  logger,
		senders: make(map[string]*azservicebus.Sender),
	}, nil
}

func (a *AzureServiceBusClient) sender(name string) (*azservicebus.Sender, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if s, ok := a.senders[name]; ok {
		return s, nil
	}
	s, err := a.client.NewSender(name, nil)
	if err != nil {
		return nil, err
	}
	a.senders[name] = s
	return s, nil
}

// Publish sends a message to a queue or topic.
func (a *AzureServiceBusClient) Publish(ctx context.Context, queueOrTopicName string, body []byte, opts ...SendOption) (string, error) {
	logger := a.logger.With(
		logging.NewField("operation", "servicebus.publish"),
		logging.NewField("queue", queueOrTopicName),
	)

	sender, err := a.sender(queueOrTopicName)
	if err != nil {
		logger.Error("Failed to create sender", logging.NewField("error", err))
		return "", fmt.Errorf("failed to create sender: %w", err)
	}

	o := buildOptions(opts)
	messageID := o.MessageID
	if messageID == "" {
		messageID = uuid.NewString()
	}
	msg := &azservicebus.Message{
		Body:      body,
		MessageID: &messageID,
	}
	if o.ContentType != "" {
		msg.ContentType = &o.ContentType
	}
	if o.Subject != "" {
		msg.Subject = &o.Subject
	}
	if len(o.Properties) > 0 {
		msg.ApplicationProperties = make(map[string]interface{}, len(o.Properties))
		for k, v := range o.Properties {
			msg.ApplicationProperties[k] = v
		}
	}

	if err := sender.SendMessage(ctx, msg, nil); err != nil {
		logger.Error("Failed to send message", logging.NewField("error", err))
		return "", fmt.Errorf("failed to send message: %w", err)
	}

	logger.Info("Message sent successfully", logging.NewField("messageID", messageID))
	return messageID, nil
}

// Close closes every sender and the client.
func (a *AzureServiceBusClient) Close(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	for name, s := range a.senders {
		if err := s.Close(ctx); err != nil {
			a.logger.Warn("Failed to close sender", logging.NewField("queue", name), logging.NewField("error", err))
		}
		delete(a.senders, name)
	}
	return a.client.Close(ctx)
}
