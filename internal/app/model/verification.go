package model

import (
	"time"
)

type VerificationStatus string

const (
	VerificationStatusPending  VerificationStatus = "pending"  // awaiting review
	VerificationStatusVerified VerificationStatus = "verified" // approved
	VerificationStatusRejected VerificationStatus = "rejected" // refused, optionally with a reason
)

// ParseVerificationStatus returns false for anything outside the three known statuses.
func ParseVerificationStatus(s string) (VerificationStatus, bool) {
	switch VerificationStatus(s) {
	case VerificationStatusPending, VerificationStatusVerified, VerificationStatusRejected:
		return VerificationStatus(s), true
	}
	return "", false
}

// Verification tracks the review of exactly one Document. Owner and document
// type are reached through Document and never copied here.
type Verification struct {
	ID              uint               `gorm:"primarykey" json:"id"`
	DocumentID      uint               `gorm:"uniqueIndex;not null" json:"document_id"`
	Document        Document           `gorm:"constraint:OnUpdate:CASCADE,OnDelete:RESTRICT" json:"-"`
	Status          VerificationStatus `gorm:"type:varchar(20);default:'pending';not null;index" json:"status"`
	ReviewedAt      *time.Time         `json:"reviewed_at"`
	ReviewedBy      *uint              `json:"reviewed_by,omitempty"`
	RejectionReason *string            `gorm:"type:text" json:"rejection_reason"`
	Version         uint               `gorm:"not null;default:1" json:"version"`
	CreatedAt       time.Time          `gorm:"index" json:"created_at"`
	UpdatedAt       time.Time          `json:"updated_at"`
}

func (Verification) TableName() string {
	return "verifications"
}

// VerificationView is a verification joined with its document, as served to the admin UI.
type VerificationView struct {
	ID              uint               `json:"id"`
	DocumentID      uint               `json:"document_id"`
	Status          VerificationStatus `json:"status"`
	ReviewedAt      *time.Time         `json:"reviewed_at"`
	RejectionReason *string            `json:"rejection_reason"`
	Version         uint               `json:"version"`
	CreatedAt       time.Time          `json:"created_at"`
	UpdatedAt       time.Time          `json:"updated_at"`
	SubmittedAt     time.Time          `json:"submitted_at"`

	OwnerType      OwnerType    `json:"owner_type"`
	OwnerID        uint         `json:"owner_id"`
	DocumentType   DocumentType `json:"document_type"`
	DocumentNumber string       `json:"document_number"`
	FileMime       string       `json:"file_mime"`
	FileSize       int64        `json:"file_size"`
	DocumentURL    string       `json:"document_url"`
}

// NewVerificationView flattens v and its preloaded Document.
func NewVerificationView(v *Verification, documentURL string) VerificationView {
	return VerificationView{
		ID:              v.ID,
		DocumentID:      v.DocumentID,
		Status:          v.Status,
		ReviewedAt:      v.ReviewedAt,
		RejectionReason: v.RejectionReason,
		Version:         v.Version,
		CreatedAt:       v.CreatedAt,
		UpdatedAt:       v.UpdatedAt,
		SubmittedAt:     v.CreatedAt,
		OwnerType:       v.Document.OwnerType,
		OwnerID:         v.Document.OwnerID,
		DocumentType:    v.Document.DocumentType,
		DocumentNumber:  v.Document.DocumentNumber,
		FileMime:        v.Document.FileMime,
		FileSize:        v.Document.FileSize,
		DocumentURL:     documentURL,
	}
}
