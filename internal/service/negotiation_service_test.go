package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/handshakehq/handshake-core/internal/model"
)

func TestCreateJobRequest(t *testing.T) {
	env := newTestEnv()
	job, customer, seller := env.seedJob(model.JobStatusPending)
	_ = job

	listing := func() *model.Listing {
		env.store.mu.Lock()
		defer env.store.mu.Unlock()
		for _, l := range env.store.listings {
			return l
		}
		return nil
	}()

	t.Run("happy path starts pending", func(t *testing.T) {
		created, err := env.negotiations.CreateJobRequest(context.Background(), customer, CreateJobRequestInput{
			ListingID:   listing.ID,
			Description: "Need the kitchen and both bathrooms deep cleaned.",
		})
		if err != nil {
			t.Fatalf("create: %v", err)
		}
		if created.Status != model.JobStatusPending {
			t.Fatalf("status = %s, want pending", created.Status)
		}
		if created.SellerID != seller.UserID {
			t.Fatalf("seller not taken from listing")
		}
		if created.Category != listing.Category {
			t.Fatalf("category = %q, want %q", created.Category, listing.Category)
		}
	})

	t.Run("short description rejected", func(t *testing.T) {
		_, err := env.negotiations.CreateJobRequest(context.Background(), customer, CreateJobRequestInput{
			ListingID:   listing.ID,
			Description: "too short",
		})
		if !errors.Is(err, ErrInvalidInput) {
			t.Fatalf("err = %v, want ErrInvalidInput", err)
		}
	})

	t.Run("overlong description rejected", func(t *testing.T) {
		_, err := env.negotiations.CreateJobRequest(context.Background(), customer, CreateJobRequestInput{
			ListingID:   listing.ID,
			Description: strings.Repeat("x", 2001),
		})
		if !errors.Is(err, ErrInvalidInput) {
			t.Fatalf("err = %v, want ErrInvalidInput", err)
		}
	})

	t.Run("inverted budget rejected", func(t *testing.T) {
		lo, hi := 200.0, 100.0
		_, err := env.negotiations.CreateJobRequest(context.Background(), customer, CreateJobRequestInput{
			ListingID:   listing.ID,
			Description: "Need the kitchen and both bathrooms deep cleaned.",
			BudgetMin:   &lo,
			BudgetMax:   &hi,
		})
		if !errors.Is(err, ErrInvalidInput) {
			t.Fatalf("err = %v, want ErrInvalidInput", err)
		}
	})

	t.Run("past preferred time rejected", func(t *testing.T) {
		past := time.Now().Add(-time.Hour)
		_, err := env.negotiations.CreateJobRequest(context.Background(), customer, CreateJobRequestInput{
			ListingID:     listing.ID,
			Description:   "Need the kitchen and both bathrooms deep cleaned.",
			PreferredTime: &past,
		})
		if !errors.Is(err, ErrInvalidInput) {
			t.Fatalf("err = %v, want ErrInvalidInput", err)
		}
	})

	t.Run("own listing rejected", func(t *testing.T) {
		_, err := env.negotiations.CreateJobRequest(context.Background(), seller, CreateJobRequestInput{
			ListingID:   listing.ID,
			Description: "Need the kitchen and both bathrooms deep cleaned.",
		})
		if !errors.Is(err, ErrInvalidInput) {
			t.Fatalf("err = %v, want ErrInvalidInput", err)
		}
	})

	t.Run("inactive listing rejected", func(t *testing.T) {
		env.store.mu.Lock()
		listing.IsActive = false
		env.store.mu.Unlock()
		defer func() {
			env.store.mu.Lock()
			listing.IsActive = true
			env.store.mu.Unlock()
		}()

		_, err := env.negotiations.CreateJobRequest(context.Background(), customer, CreateJobRequestInput{
			ListingID:   listing.ID,
			Description: "Need the kitchen and both bathrooms deep cleaned.",
		})
		if !errors.Is(err, ErrInvalidState) {
			t.Fatalf("err = %v, want ErrInvalidState", err)
		}
	})

	t.Run("unknown listing not found", func(t *testing.T) {
		_, err := env.negotiations.CreateJobRequest(context.Background(), customer, CreateJobRequestInput{
			ListingID:   uuid.New(),
			Description: "Need the kitchen and both bathrooms deep cleaned.",
		})
		if !errors.Is(err, ErrNotFound) {
			t.Fatalf("err = %v, want ErrNotFound", err)
		}
	})
}

func TestGetJobRequestGating(t *testing.T) {
	env := newTestEnv()
	job, customer, _ := env.seedJob(model.JobStatusPending)

	if _, err := env.negotiations.GetJobRequest(context.Background(), customer, job.ID); err != nil {
		t.Fatalf("participant read: %v", err)
	}

	outsider := model.Principal{UserID: uuid.New()}
	if _, err := env.negotiations.GetJobRequest(context.Background(), outsider, job.ID); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("err = %v, want ErrUnauthorized", err)
	}

	if _, err := env.negotiations.GetJobRequest(context.Background(), customer, uuid.New()); !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestTransition(t *testing.T) {
	t.Run("seller declines pending request", func(t *testing.T) {
		env := newTestEnv()
		job, _, seller := env.seedJob(model.JobStatusPending)

		updated, err := env.negotiations.Transition(context.Background(), seller, job.ID, model.JobStatusDeclined)
		if err != nil {
			t.Fatalf("transition: %v", err)
		}
		if updated.Status != model.JobStatusDeclined {
			t.Fatalf("status = %s, want declined", updated.Status)
		}
	})

	t.Run("wrong role is unauthorized", func(t *testing.T) {
		env := newTestEnv()
		job, customer, _ := env.seedJob(model.JobStatusPending)

		// Declining a pending request is the seller's edge.
		_, err := env.negotiations.Transition(context.Background(), customer, job.ID, model.JobStatusDeclined)
		if !errors.Is(err, ErrUnauthorized) {
			t.Fatalf("err = %v, want ErrUnauthorized", err)
		}
	})

	t.Run("undefined edge is invalid state", func(t *testing.T) {
		env := newTestEnv()
		job, customer, _ := env.seedJob(model.JobStatusPending)

		_, err := env.negotiations.Transition(context.Background(), customer, job.ID, model.JobStatusCompleted)
		if !errors.Is(err, ErrInvalidState) {
			t.Fatalf("err = %v, want ErrInvalidState", err)
		}
	})

	t.Run("terminal status refuses everything", func(t *testing.T) {
		env := newTestEnv()
		job, customer, _ := env.seedJob(model.JobStatusCancelled)

		_, err := env.negotiations.Transition(context.Background(), customer, job.ID, model.JobStatusClarifying)
		if !errors.Is(err, ErrInvalidState) {
			t.Fatalf("err = %v, want ErrInvalidState", err)
		}
	})

	t.Run("reviewed cannot be requested directly", func(t *testing.T) {
		env := newTestEnv()
		job, customer, _ := env.seedJob(model.JobStatusCompleted)

		_, err := env.negotiations.Transition(context.Background(), customer, job.ID, model.JobStatusReviewed)
		if !errors.Is(err, ErrInvalidState) {
			t.Fatalf("err = %v, want ErrInvalidState", err)
		}
	})

	t.Run("unknown status rejected", func(t *testing.T) {
		env := newTestEnv()
		job, customer, _ := env.seedJob(model.JobStatusPending)

		_, err := env.negotiations.Transition(context.Background(), customer, job.ID, model.JobStatus("archived"))
		if !errors.Is(err, ErrInvalidInput) {
			t.Fatalf("err = %v, want ErrInvalidInput", err)
		}
	})

	t.Run("racing transition loses with conflict", func(t *testing.T) {
		env := newTestEnv()
		job, _, seller := env.seedJob(model.JobStatusClarifying)

		// The caller saw the request at pending, but it has since advanced.
		// The compare-and-swap on the seen status must refuse the write.
		stale := staleJobStore{JobRequestStore: jobStoreFake{env.store}, status: model.JobStatusPending}
		svc := NewNegotiationService(
			stale, offerStoreFake{env.store}, dealStoreFake{env.store},
			messageStoreFake{env.store}, env.trust, env.publisher, zerolog.Nop(),
		)

		_, err := svc.Transition(context.Background(), seller, job.ID, model.JobStatusDeclined)
		if !errors.Is(err, ErrConflict) {
			t.Fatalf("err = %v, want ErrConflict", err)
		}

		stored, _ := env.store.Get(context.Background(), job.ID)
		if stored.Status != model.JobStatusClarifying {
			t.Fatalf("status = %s, want clarifying untouched", stored.Status)
		}
	})

	t.Run("completion records audit message and status event", func(t *testing.T) {
		env := newTestEnv()
		job, customer, seller := env.seedJob(model.JobStatusAccepted)
		_ = customer

		if _, err := env.negotiations.Transition(context.Background(), seller, job.ID, model.JobStatusInProgress); err != nil {
			t.Fatalf("start: %v", err)
		}
		if _, err := env.negotiations.Transition(context.Background(), seller, job.ID, model.JobStatusCompleted); err != nil {
			t.Fatalf("complete: %v", err)
		}

		messages, err := env.negotiations.ListMessages(context.Background(), seller, job.ID)
		if err != nil {
			t.Fatalf("list messages: %v", err)
		}
		var sawCompleted bool
		for _, msg := range messages {
			if msg.Type == model.MessageTypeStatusChange && msg.Content == "Work marked as complete" {
				sawCompleted = true
			}
		}
		if !sawCompleted {
			t.Fatalf("no completion audit message in %d messages", len(messages))
		}

		events := env.publisher.statusEvents()
		if len(events) == 0 || events[len(events)-1] != model.JobStatusCompleted {
			t.Fatalf("status events = %v", events)
		}
	})

	t.Run("cancellation supersedes the pending offer", func(t *testing.T) {
		env := newTestEnv()
		job, customer, seller := env.seedJob(model.JobStatusClarifying)
		offer := env.seedPendingOffer(job, seller)

		if _, err := env.negotiations.Transition(context.Background(), customer, job.ID, model.JobStatusCancelled); err != nil {
			t.Fatalf("cancel: %v", err)
		}

		stored, _ := env.store.GetOffer(context.Background(), offer.ID)
		if stored.Status != model.OfferStatusSuperseded {
			t.Fatalf("offer status = %s, want superseded", stored.Status)
		}
	})
}

func TestSendMessage(t *testing.T) {
	t.Run("first message auto-advances pending to clarifying", func(t *testing.T) {
		env := newTestEnv()
		job, customer, _ := env.seedJob(model.JobStatusPending)

		msg, err := env.negotiations.SendMessage(context.Background(), customer, SendMessageInput{
			JobRequestID: job.ID,
			Content:      "Hi, is Saturday morning possible?",
		})
		if err != nil {
			t.Fatalf("send: %v", err)
		}
		if msg.Type != model.MessageTypeText {
			t.Fatalf("type = %s, want text", msg.Type)
		}

		stored, _ := env.store.Get(context.Background(), job.ID)
		if stored.Status != model.JobStatusClarifying {
			t.Fatalf("status = %s, want clarifying", stored.Status)
		}

		messages, _ := env.negotiations.ListMessages(context.Background(), customer, job.ID)
		var sawDiscussion bool
		for _, m := range messages {
			if m.Type == model.MessageTypeStatusChange && m.Content == "Discussion started." {
				sawDiscussion = true
			}
		}
		if !sawDiscussion {
			t.Fatalf("no discussion-started system message")
		}
	})

	t.Run("later messages leave status alone", func(t *testing.T) {
		env := newTestEnv()
		job, customer, _ := env.seedJob(model.JobStatusOffered)

		if _, err := env.negotiations.SendMessage(context.Background(), customer, SendMessageInput{
			JobRequestID: job.ID,
			Content:      "Sounds fine, let me look at the offer.",
		}); err != nil {
			t.Fatalf("send: %v", err)
		}

		stored, _ := env.store.Get(context.Background(), job.ID)
		if stored.Status != model.JobStatusOffered {
			t.Fatalf("status = %s, want offered", stored.Status)
		}
	})

	t.Run("empty message rejected", func(t *testing.T) {
		env := newTestEnv()
		job, customer, _ := env.seedJob(model.JobStatusPending)

		_, err := env.negotiations.SendMessage(context.Background(), customer, SendMessageInput{
			JobRequestID: job.ID,
			Content:      "   ",
		})
		if !errors.Is(err, ErrInvalidInput) {
			t.Fatalf("err = %v, want ErrInvalidInput", err)
		}
	})

	t.Run("overlong message rejected", func(t *testing.T) {
		env := newTestEnv()
		job, customer, _ := env.seedJob(model.JobStatusPending)

		_, err := env.negotiations.SendMessage(context.Background(), customer, SendMessageInput{
			JobRequestID: job.ID,
			Content:      strings.Repeat("a", 2001),
		})
		if !errors.Is(err, ErrInvalidInput) {
			t.Fatalf("err = %v, want ErrInvalidInput", err)
		}
	})

	t.Run("non-participant rejected", func(t *testing.T) {
		env := newTestEnv()
		job, _, _ := env.seedJob(model.JobStatusPending)

		outsider := model.Principal{UserID: uuid.New()}
		_, err := env.negotiations.SendMessage(context.Background(), outsider, SendMessageInput{
			JobRequestID: job.ID,
			Content:      "let me in please",
		})
		if !errors.Is(err, ErrUnauthorized) {
			t.Fatalf("err = %v, want ErrUnauthorized", err)
		}
	})
}

func TestMarkMessagesRead(t *testing.T) {
	env := newTestEnv()
	job, customer, seller := env.seedJob(model.JobStatusClarifying)

	if _, err := env.negotiations.SendMessage(context.Background(), customer, SendMessageInput{
		JobRequestID: job.ID,
		Content:      "When could you start on this?",
	}); err != nil {
		t.Fatalf("send: %v", err)
	}

	if err := env.negotiations.MarkMessagesRead(context.Background(), seller, job.ID); err != nil {
		t.Fatalf("mark read: %v", err)
	}

	messages, _ := env.negotiations.ListMessages(context.Background(), seller, job.ID)
	for _, msg := range messages {
		if msg.SenderID == customer.UserID && msg.ReadAt == nil {
			t.Fatalf("customer message still unread")
		}
		if msg.SenderID == seller.UserID && msg.ReadAt != nil {
			t.Fatalf("own message marked read")
		}
	}
}

func TestAvailableActions(t *testing.T) {
	env := newTestEnv()
	job, customer, seller := env.seedJob(model.JobStatusOffered)

	customerActions, err := env.negotiations.AvailableActions(context.Background(), customer, job.ID)
	if err != nil {
		t.Fatalf("customer actions: %v", err)
	}
	if len(customerActions) == 0 {
		t.Fatalf("customer should have actions at offered")
	}

	sellerActions, err := env.negotiations.AvailableActions(context.Background(), seller, job.ID)
	if err != nil {
		t.Fatalf("seller actions: %v", err)
	}
	for _, rule := range sellerActions {
		if rule.To == model.JobStatusAccepted {
			t.Fatalf("seller must not see the accept edge")
		}
	}

	outsider := model.Principal{UserID: uuid.New()}
	if _, err := env.negotiations.AvailableActions(context.Background(), outsider, job.ID); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("err = %v, want ErrUnauthorized", err)
	}
}
