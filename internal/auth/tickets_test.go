package auth

import (
	"testing"
	"time"
)

func TestGenerateAndExchange(t *testing.T) {
	store := NewInMemoryTicketStore()

	ticket, err := store.Generate("job-123", time.Minute)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	got, err := store.Exchange(ticket.TicketID)
	if err != nil {
		t.Fatalf("Exchange failed: %v", err)
	}
	if got.JobID != "job-123" {
		t.Fatalf("JobID = %q; want job-123", got.JobID)
	}

	if _, err := store.Exchange(ticket.TicketID); err == nil {
		t.Fatal("expected second exchange of the same ticket to fail (check-and-burn)")
	}
}

func TestExchangeExpiredTicket(t *testing.T) {
	store := NewInMemoryTicketStore()
	ticket, err := store.Generate("job-1", -time.Minute)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	if _, err := store.Exchange(ticket.TicketID); err == nil {
		t.Fatal("expected expired ticket to be rejected")
	}
	if _, err := store.Exchange(ticket.TicketID); err == nil {
		t.Fatal("expected ticket to be burned even though exchange failed")
	}
}

func TestExchangeUnknownTicket(t *testing.T) {
	store := NewInMemoryTicketStore()
	if _, err := store.Exchange("does-not-exist"); err == nil {
		t.Fatal("expected unknown ticket id to be rejected")
	}
}
