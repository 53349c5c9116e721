// Package sessions tracks per-customer conversation state in Redis so that
// workflows stop responding once a conversation is handed to a human agent.
package sessions

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Status is the automation state of a customer conversation.
type Status string

const (
	StatusAutomated      Status = "automated"       // Workflows respond
	StatusHandoffPending Status = "handoff_pending" // Waiting for an agent to pick up
	StatusWithAgent      Status = "with_agent"      // Agent owns the conversation
)

const keyPrefix = "relay:session:"

// DefaultTTL bounds how long a handoff can park a conversation before it
// falls back to automation.
const DefaultTTL = 72 * time.Hour

// Session is the stored conversation state for one customer.
type Session struct {
	CustomerID string    `json:"customer_id"`
	Status     Status    `json:"status"`
	Reason     string    `json:"reason,omitempty"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Store persists sessions in Redis.
type Store struct {
	client *redis.Client
	ttl    time.Duration
}

func NewStore(client *redis.Client, ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	return &Store{client: client, ttl: ttl}
}

// Get returns the session for a customer. A customer without a stored
// session is in the automated state.
func (s *Store) Get(ctx context.Context, customerID string) (*Session, error) {
	payload, err := s.client.Get(ctx, keyPrefix+customerID).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return &Session{CustomerID: customerID, Status: StatusAutomated}, nil
		}

		return nil, fmt.Errorf("failed to load session for %s: %w", customerID, err)
	}

	var session Session

	err = json.Unmarshal(payload, &session)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal session for %s: %w", customerID, err)
	}

	return &session, nil
}

// SetStatus writes the session state for a customer.
func (s *Store) SetStatus(ctx context.Context, customerID string, status Status, reason string) error {
	session := Session{
		CustomerID: customerID,
		Status:     status,
		Reason:     reason,
		UpdatedAt:  time.Now().UTC(),
	}

	payload, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("failed to marshal session for %s: %w", customerID, err)
	}

	err = s.client.Set(ctx, keyPrefix+customerID, payload, s.ttl).Err()
	if err != nil {
		return fmt.Errorf("failed to store session for %s: %w", customerID, err)
	}

	return nil
}

// RequestHandoff marks the conversation as waiting for an agent.
func (s *Store) RequestHandoff(ctx context.Context, customerID, reason string) error {
	return s.SetStatus(ctx, customerID, StatusHandoffPending, reason)
}

// Resume returns the conversation to automation.
func (s *Store) Resume(ctx context.Context, customerID string) error {
	err := s.client.Del(ctx, keyPrefix+customerID).Err()
	if err != nil {
		return fmt.Errorf("failed to resume session for %s: %w", customerID, err)
	}

	return nil
}

// IsAutomated reports whether workflows should respond to this customer.
func (s *Store) IsAutomated(ctx context.Context, customerID string) (bool, error) {
	session, err := s.Get(ctx, customerID)
	if err != nil {
		return false, err
	}

	return session.Status == StatusAutomated, nil
}
