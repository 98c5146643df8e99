// Package auth provides one-time exchange tickets for the live-preview
// WebSocket stream (§5 supplemented feature: `GET /export/video/:id/stream`).
// A ticket binds to one job id and is consumed exactly once on exchange,
// adapted from the teacher's task-recording ticket store to this module's
// string job ids (the teacher's tickets bound to an int64 task row; there
// is no such row here, so TaskID/UserID collapse into a single JobID).
package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"sync"
	"time"
)

// Ticket represents a one-time connection token scoped to a job id.
type Ticket struct {
	TicketID  string
	JobID     string
	ExpiresAt time.Time
}

// TicketStore defines the interface for ticket management.
type TicketStore interface {
	// Generate creates a new ticket for a specific job.
	Generate(jobID string, ttl time.Duration) (*Ticket, error)

	// Exchange atomically validates and burns (deletes) a ticket.
	// Returns the ticket if valid, or an error if invalid/expired.
	Exchange(ticketID string) (*Ticket, error)

	// StartCleanupLoop starts a background goroutine to remove expired tickets.
	// Stops when context is cancelled.
	StartCleanupLoop(ctx context.Context, interval time.Duration)
}

// InMemoryTicketStore implements TicketStore using a map and RWMutex.
type InMemoryTicketStore struct {
	mu      sync.RWMutex
	tickets map[string]Ticket
}

// NewInMemoryTicketStore creates a new instance.
func NewInMemoryTicketStore() *InMemoryTicketStore {
	return &InMemoryTicketStore{
		tickets: make(map[string]Ticket),
	}
}

// Generate creates a new ticket with cryptographic entropy.
func (s *InMemoryTicketStore) Generate(jobID string, ttl time.Duration) (*Ticket, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return nil, fmt.Errorf("failed to generate random bytes: %w", err)
	}
	ticketID := hex.EncodeToString(buf)

	ticket := Ticket{
		TicketID:  ticketID,
		JobID:     jobID,
		ExpiresAt: time.Now().Add(ttl),
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.tickets[ticketID] = ticket

	return &ticket, nil
}

// Exchange atomically validates and deletes the ticket (check-and-burn).
func (s *InMemoryTicketStore) Exchange(ticketID string) (*Ticket, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ticket, exists := s.tickets[ticketID]
	if !exists {
		return nil, fmt.Errorf("ticket not found or already consumed")
	}

	delete(s.tickets, ticketID)

	if time.Now().After(ticket.ExpiresAt) {
		return nil, fmt.Errorf("ticket expired")
	}

	return &ticket, nil
}

// StartCleanupLoop runs a background ticker to remove expired tickets.
func (s *InMemoryTicketStore) StartCleanupLoop(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.cleanup()
			}
		}
	}()
}

func (s *InMemoryTicketStore) cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	for id, ticket := range s.tickets {
		if now.After(ticket.ExpiresAt) {
			delete(s.tickets, id)
		}
	}
}
