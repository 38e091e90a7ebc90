package events

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/ikkim/ridehail-backend/internal/app/model"
)

const TypeVerificationStatusChanged = "verification.status_changed"

// VerificationStatusChanged is emitted after a status transition commits.
type VerificationStatusChanged struct {
	Type            string                   `json:"type"`
	VerificationID  uint                     `json:"verification_id"`
	DocumentID      uint                     `json:"document_id"`
	OwnerType       model.OwnerType          `json:"owner_type"`
	OwnerID         uint                     `json:"owner_id"`
	DocumentType    model.DocumentType       `json:"document_type"`
	PreviousStatus  model.VerificationStatus `json:"previous_status"`
	Status          model.VerificationStatus `json:"status"`
	RejectionReason *string                  `json:"rejection_reason,omitempty"`
	ReviewedAt      *time.Time               `json:"reviewed_at,omitempty"`
	ReviewedBy      *uint                    `json:"reviewed_by,omitempty"`
	Version         uint                     `json:"version"`
	OccurredAt      time.Time                `json:"occurred_at"`
}

func (e VerificationStatusChanged) Marshal() ([]byte, error) {
	if e.Type == "" {
		e.Type = TypeVerificationStatusChanged
	}
	return json.Marshal(e)
}

type Publisher interface {
	Publish(ctx context.Context, event VerificationStatusChanged) error
}

// Multi fans an event out to every publisher and joins their errors.
type Multi []Publisher

func (m Multi) Publish(ctx context.Context, event VerificationStatusChanged) error {
	var errs []error
	for _, p := range m {
		if p == nil {
			continue
		}
		if err := p.Publish(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Nop discards events.
type Nop struct{}

func (Nop) Publish(context.Context, VerificationStatusChanged) error { return nil }
