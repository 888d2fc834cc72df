package messaging

import (
	"context"
	"encoding/json"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/messaging/azservicebus"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"example.com/oilchain/config"
)

// ServiceBus carries change notifications over an Azure Service Bus topic.
// Each consumer reads its own subscription.
type ServiceBus struct {
	client       *azservicebus.Client
	sender       *azservicebus.Sender
	topic        string
	subscription string
	source       string
}

// NewServiceBus connects to the topic. subscription is the one Consume reads.
func NewServiceBus(cfg config.AzureConfig, subscription, source string) (*ServiceBus, error) {
	if cfg.QueueConnStr == "" {
		return nil, errors.New("Azure Service Bus connection string is empty")
	}

	client, err := azservicebus.NewClientFromConnectionString(cfg.QueueConnStr, nil)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create Service Bus client")
	}

	sender, err := client.NewSender(cfg.QueueName, nil)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create Service Bus sender")
	}

	return &ServiceBus{
		client:       client,
		sender:       sender,
		topic:        cfg.QueueName,
		subscription: subscription,
		source:       source,
	}, nil
}

// Publish sends a change notification
func (s *ServiceBus) Publish(ctx context.Context, change Change) error {
	data, err := json.Marshal(change)
	if err != nil {
		return errors.Wrap(err, "failed to marshal change")
	}

	contentType := "application/json"
	msg := &azservicebus.Message{
		MessageID:   &change.ID,
		ContentType: &contentType,
		Body:        data,
		ApplicationProperties: map[string]interface{}{
			"source": s.source,
			"entity": change.Entity,
			"kind":   change.Kind,
			"time":   time.Now().UTC().Format(time.RFC3339),
		},
	}
	if err := s.sender.SendMessage(ctx, msg, nil); err != nil {
		return errors.Wrap(err, "failed to send change notification")
	}
	return nil
}

// Consume receives changes until ctx is done. Undecodable messages are
// dead-lettered; messages whose handler fails are abandoned for redelivery.
func (s *ServiceBus) Consume(ctx context.Context, handler Handler) error {
	receiver, err := s.client.NewReceiverForSubscription(s.topic, s.subscription, nil)
	if err != nil {
		return errors.Wrap(err, "failed to create Service Bus receiver")
	}
	defer receiver.Close(context.Background())

	log.Info().Str("topic", s.topic).Str("subscription", s.subscription).Msg("Consuming change notifications")

	for {
		messages, err := receiver.ReceiveMessages(ctx, 10, nil)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return errors.Wrap(err, "failed to receive messages")
		}

		for _, message := range messages {
			var change Change
			if err := json.Unmarshal(message.Body, &change); err != nil {
				log.Error().Err(err).Str("message_id", message.MessageID).Msg("Dropping undecodable change notification")
				reason := "undecodable"
				if err := receiver.DeadLetterMessage(context.Background(), message, &azservicebus.DeadLetterOptions{Reason: &reason}); err != nil {
					log.Error().Err(err).Msg("(DeadLetterMessage) failed")
				}
				continue
			}

			if err := handler(ctx, change); err != nil {
				log.Error().Err(err).Str("message_id", message.MessageID).Msg("Error processing change notification")
				if err := receiver.AbandonMessage(context.Background(), message, nil); err != nil {
					log.Error().Err(err).Msg("(AbandonMessage) failed")
				}
				continue
			}

			if err := receiver.CompleteMessage(context.Background(), message, nil); err != nil {
				log.Error().Err(err).Msg("(CompleteMessage) failed")
			}
		}
	}
}

// Close closes the Service Bus client
func (s *ServiceBus) Close() error {
	if s.sender != nil {
		if err := s.sender.Close(context.Background()); err != nil {
			return err
		}
	}
	if s.client != nil {
		return s.client.Close(context.Background())
	}
	return nil
}
