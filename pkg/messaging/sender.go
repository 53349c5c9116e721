// Package messaging delivers outbound messages to chat channel providers.
package messaging

import (
	"context"
	"fmt"

	"github.com/relaycrm/relay/pkg/models"
)

// OutboundMessage is one message to deliver to a customer.
type OutboundMessage struct {
	Text      string
	MediaURLs []string
}

// Sender delivers messages on one chat channel.
type Sender interface {
	Channel() models.Channel
	Send(ctx context.Context, customer *models.Customer, message OutboundMessage) error
}

// Senders routes outbound messages to the sender matching the customer's
// channel.
type Senders struct {
	byChannel map[models.Channel]Sender
}

func NewSenders(senders ...Sender) *Senders {
	byChannel := make(map[models.Channel]Sender, len(senders))
	for _, sender := range senders {
		byChannel[sender.Channel()] = sender
	}

	return &Senders{byChannel: byChannel}
}

// For returns the sender for a channel.
func (s *Senders) For(channel models.Channel) (Sender, error) {
	sender, ok := s.byChannel[channel]
	if !ok {
		return nil, fmt.Errorf("no sender registered for channel %q", channel)
	}

	return sender, nil
}

// Send delivers a message on the customer's channel.
func (s *Senders) Send(ctx context.Context, customer *models.Customer, message OutboundMessage) error {
	sender, err := s.For(customer.Channel)
	if err != nil {
		return err
	}

	return sender.Send(ctx, customer, message)
}
