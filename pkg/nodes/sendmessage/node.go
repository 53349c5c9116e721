// Package sendmessage provides the node that delivers a rendered message to
// the customer on their channel.
package sendmessage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/relaycrm/relay/pkg/messaging"
	"github.com/relaycrm/relay/pkg/models"
	"github.com/relaycrm/relay/pkg/persistence"
	"github.com/relaycrm/relay/pkg/template"
)

const (
	InputPortMain     = "main"
	OutputPortSuccess = "success"
	OutputPortError   = "error"
)

// SendMessageNode renders the configured text against the execution context,
// resolves media references and delivers the message with retries.
type SendMessageNode struct {
	id     string
	config SendMessageConfig

	senders *messaging.Senders
	media   persistence.MediaRepository
}

// SendMessageConfig defines the configuration for send message nodes.
type SendMessageConfig struct {
	Text     string      `json:"text"`
	MediaIDs []string    `json:"media_ids,omitempty"`
	Retries  RetryConfig `json:"retries"`
}

// RetryConfig defines retry behavior for message delivery.
type RetryConfig struct {
	Attempts int `json:"attempts"`
	DelayMs  int `json:"delay_ms"`
}

func NewSendMessageNode(id string, config map[string]any, senders *messaging.Senders, media persistence.MediaRepository) (*SendMessageNode, error) {
	sendConfig := SendMessageConfig{
		Retries: RetryConfig{Attempts: 3, DelayMs: 1000},
	}

	if text, ok := config["text"].(string); ok {
		sendConfig.Text = text
	}

	if mediaIDs, ok := config["media_ids"].([]any); ok {
		for _, mediaID := range mediaIDs {
			if s, ok := mediaID.(string); ok {
				sendConfig.MediaIDs = append(sendConfig.MediaIDs, s)
			}
		}
	}

	if retries, ok := config["retries"].(map[string]any); ok {
		if attempts, ok := retries["attempts"].(float64); ok {
			sendConfig.Retries.Attempts = int(attempts)
		}

		if delay, ok := retries["delay_ms"].(float64); ok {
			sendConfig.Retries.DelayMs = int(delay)
		}
	}

	node := &SendMessageNode{id: id, config: sendConfig, senders: senders, media: media}

	if err := node.Validate(config); err != nil {
		return nil, err
	}

	return node, nil
}

func (n *SendMessageNode) ID() string {
	return n.id
}

func (n *SendMessageNode) Type() string {
	return models.NodeTypeSendMessage
}

func (n *SendMessageNode) Execute(ctx context.Context, ectx *models.ExecutionContext, _ map[string]models.NodeResult) (map[string]models.NodeResult, error) {
	customer := customerFromContext(ectx)
	if customer.ID == "" {
		return n.createErrorResult("execution context has no customer"), nil
	}

	rc := template.FromExecution(ectx)

	if err := n.resolveAssets(ctx, &rc); err != nil {
		return n.createErrorResult(fmt.Sprintf("failed to resolve media: %v", err)), nil
	}

	rendered, err := template.Render(n.config.Text, rc, template.FailOpen)
	if err != nil {
		return n.createErrorResult(fmt.Sprintf("failed to render message: %v", err)), nil
	}

	mediaURLs, err := n.mediaURLs(ctx)
	if err != nil {
		return n.createErrorResult(fmt.Sprintf("failed to resolve media: %v", err)), nil
	}

	message := messaging.OutboundMessage{Text: rendered.Text, MediaURLs: mediaURLs}

	err = n.sendWithRetry(ctx, customer, message)
	if err != nil {
		return n.createErrorResult(fmt.Sprintf("delivery failed after %d attempts: %v", n.config.Retries.Attempts, err)), nil
	}

	data := map[string]any{
		"text":        rendered.Text,
		"channel":     string(customer.Channel),
		"customer_id": customer.ID,
	}

	if len(mediaURLs) > 0 {
		data["media_urls"] = mediaURLs
	}

	if len(rendered.Unresolved) > 0 {
		data["unresolved"] = rendered.Unresolved
	}

	return map[string]models.NodeResult{
		OutputPortSuccess: {
			NodeID:    n.id,
			Data:      data,
			Status:    string(models.NodeStatusSuccess),
			Timestamp: time.Now().UTC(),
		},
	}, nil
}

func (n *SendMessageNode) sendWithRetry(ctx context.Context, customer *models.Customer, message messaging.OutboundMessage) error {
	policy := backoff.WithContext(
		backoff.WithMaxRetries(
			backoff.NewConstantBackOff(time.Duration(n.config.Retries.DelayMs)*time.Millisecond),
			uint64(n.config.Retries.Attempts-1),
		),
		ctx,
	)

	return backoff.Retry(func() error {
		return n.senders.Send(ctx, customer, message)
	}, policy)
}

// resolveAssets loads the media and folder URLs referenced by asset tokens
// in the message text.
func (n *SendMessageNode) resolveAssets(ctx context.Context, rc *template.Context) error {
	mediaIDs, folders := template.AssetRefs(n.config.Text)
	if len(mediaIDs) == 0 && len(folders) == 0 {
		return nil
	}

	rc.MediaURLs = make(map[string]string, len(mediaIDs))
	rc.FolderURLs = make(map[string][]string, len(folders))

	for _, mediaID := range mediaIDs {
		asset, err := n.media.GetByID(ctx, mediaID)
		if err != nil {
			if persistence.IsNotFound(err) {
				continue // Leaves the token unresolved, fail-open
			}

			return err
		}

		rc.MediaURLs[mediaID] = asset.URL
	}

	for _, folder := range folders {
		assets, err := n.media.List(ctx, folder)
		if err != nil {
			return err
		}

		urls := make([]string, 0, len(assets))
		for _, asset := range assets {
			urls = append(urls, asset.URL)
		}

		rc.FolderURLs[folder] = urls
	}

	return nil
}

func (n *SendMessageNode) mediaURLs(ctx context.Context) ([]string, error) {
	if len(n.config.MediaIDs) == 0 {
		return nil, nil
	}

	urls := make([]string, 0, len(n.config.MediaIDs))

	for _, mediaID := range n.config.MediaIDs {
		asset, err := n.media.GetByID(ctx, mediaID)
		if err != nil {
			return nil, err
		}

		urls = append(urls, asset.URL)
	}

	return urls, nil
}

func customerFromContext(ectx *models.ExecutionContext) *models.Customer {
	id, _ := ectx.Customer["id"].(string)
	name, _ := ectx.Customer["name"].(string)
	phone, _ := ectx.Customer["phone"].(string)
	channel, _ := ectx.Customer["channel"].(string)

	return &models.Customer{
		ID:      id,
		Name:    name,
		Phone:   phone,
		Channel: models.Channel(channel),
	}
}

func (n *SendMessageNode) createErrorResult(errorMessage string) map[string]models.NodeResult {
	return map[string]models.NodeResult{
		OutputPortError: {
			NodeID:    n.id,
			Data:      map[string]any{"error": errorMessage},
			Status:    string(models.NodeStatusError),
			Timestamp: time.Now().UTC(),
			Error:     errorMessage,
		},
	}
}

func (n *SendMessageNode) InputPorts() []models.InputPort {
	return []models.InputPort{
		{
			Port: models.Port{
				ID:          models.MakePortID(n.id, InputPortMain),
				NodeID:      n.id,
				Name:        InputPortMain,
				Description: "Main input for sending the message",
			},
		},
	}
}

func (n *SendMessageNode) OutputPorts() []models.OutputPort {
	return []models.OutputPort{
		{
			Port: models.Port{
				ID:          models.MakePortID(n.id, OutputPortSuccess),
				NodeID:      n.id,
				Name:        OutputPortSuccess,
				Description: "Message delivered to the channel provider",
			},
		},
		{
			Port: models.Port{
				ID:          models.MakePortID(n.id, OutputPortError),
				NodeID:      n.id,
				Name:        OutputPortError,
				Description: "Rendering or delivery failure",
			},
		},
	}
}

// Validate validates the node configuration.
func (n *SendMessageNode) Validate(config map[string]any) error {
	text, _ := config["text"].(string)
	mediaIDs, _ := config["media_ids"].([]any)

	if text == "" && len(mediaIDs) == 0 {
		return errors.New("either 'text' or 'media_ids' is required")
	}

	if retries, ok := config["retries"].(map[string]any); ok {
		if attempts, ok := retries["attempts"].(float64); ok {
			if attempts < 1 || attempts > 10 {
				return errors.New("retry attempts must be between 1 and 10")
			}
		}

		if delay, ok := retries["delay_ms"].(float64); ok {
			if delay < 0 || delay > 30000 {
				return errors.New("retry delay must be between 0 and 30000 milliseconds")
			}
		}
	}

	return nil
}
