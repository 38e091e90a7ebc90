package repository

import (
	"context"
	"time"

	"github.com/ikkim/ridehail-backend/internal/app/model"
	"github.com/ikkim/ridehail-backend/pkg/logger"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// StatusUpdate is the full set of columns a status transition writes.
type StatusUpdate struct {
	Status          model.VerificationStatus
	ReviewedAt      *time.Time
	ReviewedBy      *uint
	RejectionReason *string
	Version         uint
	UpdatedAt       time.Time
}

// FlagDrift is a verification whose owner flag disagrees with its status.
type FlagDrift struct {
	VerificationID uint                     `json:"verification_id"`
	Status         model.VerificationStatus `json:"status"`
	OwnerType      model.OwnerType          `json:"owner_type"`
	OwnerID        uint                     `json:"owner_id"`
	DocumentType   model.DocumentType       `json:"document_type"`
	Flag           bool                     `json:"flag"`
}

type VerificationRepository interface {
	// Transaction runs fn against a repository bound to a single transaction.
	Transaction(ctx context.Context, fn func(repo VerificationRepository) error) error
	Create(ctx context.Context, verification *model.Verification) error
	FindPending(ctx context.Context) ([]model.Verification, error)
	FindHistory(ctx context.Context) ([]model.Verification, error)
	FindByOwner(ctx context.Context, ownerType model.OwnerType, ownerID uint) ([]model.Verification, error)
	FindByIDForUpdate(ctx context.Context, id uint) (*model.Verification, error)
	FindDocument(ctx context.Context, id uint) (*model.Document, error)
	UpdateStatus(ctx context.Context, id uint, update StatusUpdate) error
	SetFlag(ctx context.Context, target FlagTarget, ownerID uint, docType model.DocumentType, value bool, at time.Time) error
	FindFlagDrift(ctx context.Context, target FlagTarget, docType model.DocumentType) ([]FlagDrift, error)
}

type verificationRepository struct {
	db *gorm.DB
}

func NewVerificationRepository(db *gorm.DB) VerificationRepository {
	return &verificationRepository{db: db}
}

func (r *verificationRepository) Transaction(ctx context.Context, fn func(repo VerificationRepository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&verificationRepository{db: tx})
	})
}

func (r *verificationRepository) withDocument(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Joins("Document")
}

func (r *verificationRepository) Create(ctx context.Context, verification *model.Verification) error {
	if err := r.db.WithContext(ctx).Create(verification).Error; err != nil {
		logger.Error("Failed to create verification in database", err, map[string]interface{}{
			"document_id": verification.DocumentID,
		})
		return err
	}
	return nil
}

func (r *verificationRepository) FindPending(ctx context.Context) ([]model.Verification, error) {
	var verifications []model.Verification
	if err := r.withDocument(ctx).
		Where("verifications.status = ?", model.VerificationStatusPending).
		Order("verifications.created_at DESC").
		Order("verifications.id DESC").
		Find(&verifications).Error; err != nil {
		logger.Error("Failed to find pending verifications in database", err)
		return nil, err
	}

	logger.Debug("Pending verifications found in database", map[string]interface{}{
		"count": len(verifications),
	})
	return verifications, nil
}

func (r *verificationRepository) FindHistory(ctx context.Context) ([]model.Verification, error) {
	var verifications []model.Verification
	if err := r.withDocument(ctx).
		Where("verifications.status IN ?", []model.VerificationStatus{
			model.VerificationStatusVerified,
			model.VerificationStatusRejected,
		}).
		Order("verifications.reviewed_at DESC").
		Order("verifications.id DESC").
		Find(&verifications).Error; err != nil {
		logger.Error("Failed to find verification history in database", err)
		return nil, err
	}

	logger.Debug("Verification history found in database", map[string]interface{}{
		"count": len(verifications),
	})
	return verifications, nil
}

func (r *verificationRepository) FindByOwner(ctx context.Context, ownerType model.OwnerType, ownerID uint) ([]model.Verification, error) {
	documentIDs := r.db.WithContext(ctx).
		Model(&model.Document{}).
		Select("id").
		Where("owner_type = ? AND owner_id = ?", ownerType, ownerID)

	var verifications []model.Verification
	if err := r.withDocument(ctx).
		Where("verifications.document_id IN (?)", documentIDs).
		Order("verifications.created_at DESC").
		Order("verifications.id DESC").
		Find(&verifications).Error; err != nil {
		logger.Error("Failed to find verifications by owner in database", err, map[string]interface{}{
			"owner_type": ownerType,
			"owner_id":   ownerID,
		})
		return nil, err
	}
	return verifications, nil
}

// FindByIDForUpdate loads the verification with its document and locks the
// verification row until the surrounding transaction ends.
func (r *verificationRepository) FindByIDForUpdate(ctx context.Context, id uint) (*model.Verification, error) {
	var verification model.Verification
	if err := r.withDocument(ctx).
		Clauses(clause.Locking{Strength: "UPDATE", Table: clause.Table{Name: clause.CurrentTable}}).
		Where("verifications.id = ?", id).
		First(&verification).Error; err != nil {
		return nil, err
	}
	return &verification, nil
}

func (r *verificationRepository) FindDocument(ctx context.Context, id uint) (*model.Document, error) {
	var document model.Document
	if err := r.db.WithContext(ctx).First(&document, id).Error; err != nil {
		return nil, err
	}
	return &document, nil
}

func (r *verificationRepository) UpdateStatus(ctx context.Context, id uint, update StatusUpdate) error {
	result := r.db.WithContext(ctx).
		Model(&model.Verification{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":           update.Status,
			"reviewed_at":      update.ReviewedAt,
			"reviewed_by":      update.ReviewedBy,
			"rejection_reason": update.RejectionReason,
			"version":          update.Version,
			"updated_at":       update.UpdatedAt,
		})
	if result.Error != nil {
		logger.Error("Failed to update verification status in database", result.Error, map[string]interface{}{
			"verification_id": id,
			"status":          update.Status,
		})
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// SetFlag writes one owner flag. gorm.ErrRecordNotFound means the owner row is gone.
func (r *verificationRepository) SetFlag(ctx context.Context, target FlagTarget, ownerID uint, docType model.DocumentType, value bool, at time.Time) error {
	column, ok := target.Column(docType)
	if !ok {
		return &UnknownFlagError{OwnerType: target.OwnerType(), DocumentType: docType}
	}

	result := r.db.WithContext(ctx).
		Table(target.tableName()).
		Where("id = ?", ownerID).
		Updates(map[string]interface{}{
			column:       value,
			"updated_at": at,
		})
	if result.Error != nil {
		logger.Error("Failed to update verification flag in database", result.Error, map[string]interface{}{
			"owner_type": target.OwnerType(),
			"owner_id":   ownerID,
			"column":     column,
		})
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *verificationRepository) FindFlagDrift(ctx context.Context, target FlagTarget, docType model.DocumentType) ([]FlagDrift, error) {
	column, ok := target.Column(docType)
	if !ok {
		return nil, &UnknownFlagError{OwnerType: target.OwnerType(), DocumentType: docType}
	}
	owner := target.tableName()
	flag := owner + "." + column

	var drift []FlagDrift
	err := r.db.WithContext(ctx).
		Table("verifications").
		Select("verifications.id AS verification_id, verifications.status AS status, "+
			"documents.owner_type AS owner_type, documents.owner_id AS owner_id, "+
			"documents.document_type AS document_type, "+flag+" AS flag").
		Joins("JOIN documents ON documents.id = verifications.document_id").
		Joins("JOIN "+owner+" ON "+owner+".id = documents.owner_id").
		Where("documents.owner_type = ? AND documents.document_type = ?", target.OwnerType(), docType).
		Where("((verifications.status = ? AND "+flag+" = ?) OR (verifications.status = ? AND "+flag+" = ?))",
			model.VerificationStatusVerified, false,
			model.VerificationStatusPending, true).
		Order("verifications.id").
		Scan(&drift).Error
	if err != nil {
		logger.Error("Failed to scan verification flag drift", err, map[string]interface{}{
			"owner_type":    target.OwnerType(),
			"document_type": docType,
		})
		return nil, err
	}
	return drift, nil
}

// UnknownFlagError is returned when an owner has no flag for a document type,
// e.g. an "rc" document attached to a driver.
type UnknownFlagError struct {
	OwnerType    model.OwnerType
	DocumentType model.DocumentType
}

func (e *UnknownFlagError) Error() string {
	return "no verification flag for " + string(e.DocumentType) + " on " + string(e.OwnerType)
}
